// Package storage defines persistence contracts for the ledger journal.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/spinvault/internal/services/ledger/domain/event"
)

// ErrSeqConflict indicates an append whose sequence does not follow the
// journal's last event.
var ErrSeqConflict = errors.New("journal sequence conflict")

// Journal persists sealed events in sequence order.
type Journal interface {
	// Append stores events atomically: either all are written or none.
	Append(ctx context.Context, events []event.Event) error
	// Scan calls fn for every event with Seq > afterSeq, in order.
	Scan(ctx context.Context, afterSeq uint64, fn func(event.Event) error) error
}
