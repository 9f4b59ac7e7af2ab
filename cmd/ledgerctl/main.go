// Package main is the ledgerctl command line entrypoint.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/spinvault/internal/cmd/ledgerctl"
	entrypoint "github.com/louisbranch/spinvault/internal/platform/cmd"
	"github.com/louisbranch/spinvault/internal/platform/config"
	"github.com/pterm/pterm"
)

func main() {
	cfg, args, err := ledgerctl.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.ExitWithCode(config.ExitUsage, "parse flags: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceLedgerCtl))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = ledgerctl.Run(ctx, cfg, args, os.Stdout)
	stop()
	switch {
	case err == nil:
	case errors.Is(err, ledgerctl.ErrUsage):
		config.ExitWithCode(config.ExitUsage, "%v", err)
	default:
		config.Exitf("%s", pterm.Error.Sprint(ledgerctl.Describe(err)))
	}
}
