// Package timeouts defines shared timeout constants used across ledger
// binaries.
package timeouts

import "time"

// GRPCDial caps the wait for a gRPC peer to connect and report SERVING when
// the caller sets no timeout.
const GRPCDial = 2 * time.Second

// Shutdown bounds graceful gRPC shutdown and the telemetry flush on exit.
const Shutdown = 5 * time.Second
