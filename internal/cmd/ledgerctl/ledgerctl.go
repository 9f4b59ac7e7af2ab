// Package ledgerctl is the operator and player command line for the ledger
// service.
package ledgerctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/spinvault/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/spinvault/internal/platform/grpc"
	ledgerservice "github.com/louisbranch/spinvault/internal/services/ledger/api/grpc/ledger"
	"github.com/pterm/pterm"
)

// Config holds ledgerctl configuration.
type Config struct {
	Addr    string        `env:"LEDGER_ADDR" envDefault:"localhost:8090"`
	Actor   string        `env:"ACTOR"`
	Locale  string        `env:"LOCALE"`
	Timeout time.Duration `env:"LEDGERCTL_TIMEOUT" envDefault:"10s"`
	JSON    bool          `env:"LEDGERCTL_JSON"`
	NoColor bool          `env:"NO_COLOR"`
}

// ParseConfig parses environment and global flags. The remaining arguments
// name the subcommand and its flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, []string, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, nil, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Ledger gRPC address")
	fs.StringVar(&cfg.Actor, "actor", cfg.Actor, "Address to act as")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for error messages")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Dial and health check timeout")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "Print raw JSON responses")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "Disable colored output")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, nil, err
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return Config{}, nil, errors.New("ledger address is required")
	}
	return cfg, fs.Args(), nil
}

// Run dials the ledger and executes one subcommand.
func Run(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return ErrUsage
	}
	if _, ok := lookup(args[0]); !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	if cfg.NoColor {
		pterm.DisableColor()
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLedgerCtl, func(ctx context.Context) error {
		spinner, _ := pterm.DefaultSpinner.WithWriter(out).Start("Connecting to " + cfg.Addr)
		conn, err := platformgrpc.Dial(ctx, cfg.Addr, cfg.Timeout, log.Printf)
		if err != nil {
			if spinner != nil {
				spinner.Fail(err.Error())
			}
			return err
		}
		if spinner != nil {
			_ = spinner.Stop()
		}
		defer func() {
			if err := conn.Close(); err != nil {
				log.Printf("close ledger connection: %v", err)
			}
		}()

		client := ledgerservice.NewClient(conn, strings.TrimSpace(cfg.Actor)).WithLocale(cfg.Locale)
		return Execute(ctx, client, out, cfg.JSON, args)
	})
}
