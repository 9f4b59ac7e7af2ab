// Package server wires the ledger runtime and gRPC lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/louisbranch/spinvault/internal/platform/config"
	platformgrpc "github.com/louisbranch/spinvault/internal/platform/grpc"
	"github.com/louisbranch/spinvault/internal/platform/random"
	"github.com/louisbranch/spinvault/internal/platform/timeouts"
	ledgerservice "github.com/louisbranch/spinvault/internal/services/ledger/api/grpc/ledger"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/reward"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/roulette"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/trade"
	ledgersqlite "github.com/louisbranch/spinvault/internal/services/ledger/storage/sqlite"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

type prizeEnv struct {
	CommonName       string `env:"COMMON_NAME"`
	CommonContent    string `env:"COMMON_CONTENT"`
	RareName         string `env:"RARE_NAME"`
	RareContent      string `env:"RARE_CONTENT"`
	EpicName         string `env:"EPIC_NAME"`
	EpicContent      string `env:"EPIC_CONTENT"`
	LegendaryName    string `env:"LEGENDARY_NAME"`
	LegendaryContent string `env:"LEGENDARY_CONTENT"`
}

// Config holds the ledger runtime settings.
type Config struct {
	DBPath        string          `env:"LEDGER_DB_PATH" envDefault:"data/ledger.db"`
	TicketPrice   decimal.Decimal `env:"TICKET_PRICE" envDefault:"0.01"`
	WinCooldown   time.Duration   `env:"WIN_COOLDOWN" envDefault:"5m"`
	TradeCooldown time.Duration   `env:"TRADE_COOLDOWN" envDefault:"5m"`
	Operators     []string        `env:"OPERATORS" envSeparator:","`
	Principal     string          `env:"ROULETTE_PRINCIPAL" envDefault:"roulette"`
	Prizes        prizeEnv        `envPrefix:"REWARD_"`
}

// LoadConfig reads Config from SPINVAULT_ environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return Config{}, errors.New("ledger db path is required")
	}
	return cfg, nil
}

func (c Config) operators() ([]ledger.Address, error) {
	var out []ledger.Address
	for _, raw := range c.Operators {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		addr, err := ledger.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("operator %q: %w", raw, err)
		}
		out = append(out, addr)
	}
	return out, nil
}

func (c Config) catalog() map[reward.Tier]roulette.Prize {
	catalog := roulette.DefaultCatalog()
	override := func(tier reward.Tier, name, content string) {
		prize := catalog[tier]
		if name = strings.TrimSpace(name); name != "" {
			prize.Name = name
		}
		if content = strings.TrimSpace(content); content != "" {
			prize.ContentHash = content
		}
		catalog[tier] = prize
	}
	override(reward.TierCommon, c.Prizes.CommonName, c.Prizes.CommonContent)
	override(reward.TierRare, c.Prizes.RareName, c.Prizes.RareContent)
	override(reward.TierEpic, c.Prizes.EpicName, c.Prizes.EpicContent)
	override(reward.TierLegendary, c.Prizes.LegendaryName, c.Prizes.LegendaryContent)
	return catalog
}

// Server hosts the ledger gRPC API and storage lifecycle.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *ledgersqlite.Store
}

// New creates a ledger server listening on the provided port.
func New(ctx context.Context, port int) (*Server, error) {
	return NewWithAddr(ctx, fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a ledger server for the provided address using
// environment configuration.
func NewWithAddr(ctx context.Context, addr string) (*Server, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(ctx, addr, cfg)
}

// NewWithConfig opens the journal, rebuilds state from it, and registers the
// ledger service. The server reports SERVING only after replay succeeds.
func NewWithConfig(ctx context.Context, addr string, cfg Config) (*Server, error) {
	operators, err := cfg.operators()
	if err != nil {
		return nil, err
	}
	principal, err := ledger.ParseAddress(cfg.Principal)
	if err != nil {
		return nil, fmt.Errorf("roulette principal: %w", err)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	store, err := ledgersqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("open ledger sqlite store: %w", err)
	}
	fail := func(err error) (*Server, error) {
		_ = listener.Close()
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close ledger store: %v", closeErr)
		}
		return nil, err
	}

	core := ledger.New(ledger.WithJournal(store))
	rewards := reward.New(core, reward.WithMinters(append(operators, principal)...))
	games, err := roulette.New(core, rewards, roulette.Config{
		TicketPrice: cfg.TicketPrice,
		WinCooldown: cfg.WinCooldown,
		Principal:   principal,
		Catalog:     cfg.catalog(),
	}, random.NewCrypto())
	if err != nil {
		return fail(fmt.Errorf("configure roulette: %w", err))
	}
	trades, err := trade.New(core, rewards, cfg.TradeCooldown)
	if err != nil {
		return fail(fmt.Errorf("configure trade: %w", err))
	}

	replayed, err := core.Replay(ctx)
	if err != nil {
		return fail(fmt.Errorf("replay ledger journal: %w", err))
	}
	if err := verifyReplayHead(ctx, store, core); err != nil {
		return fail(err)
	}
	_, head := core.Head()
	log.Printf("replayed %d ledger events, head %s", replayed, shortHash(head))

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	ledgerservice.RegisterLedgerServer(grpcServer, ledgerservice.NewService(ledgerservice.Deps{
		Core:      core,
		Rewards:   rewards,
		Games:     games,
		Trades:    trades,
		Operators: operators,
	}))
	healthServer := platformgrpc.RegisterHealth(grpcServer, ledgerservice.ServiceName)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
	}, nil
}

// journalHead reports the last stored sequence of a journal.
type journalHead interface {
	Head(ctx context.Context) (uint64, error)
}

// verifyReplayHead checks that replay reached the journal's last sequence.
func verifyReplayHead(ctx context.Context, journal journalHead, core *ledger.Ledger) error {
	stored, err := journal.Head(ctx)
	if err != nil {
		return fmt.Errorf("read journal head: %w", err)
	}
	if replayed, _ := core.Head(); replayed != stored {
		return fmt.Errorf("replay stopped at seq %d, journal head is %d", replayed, stored)
	}
	return nil
}

func shortHash(hash string) string {
	if hash == "" {
		return "-"
	}
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a ledger server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(ctx, port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("ledger server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.stopGracefully(timeouts.Shutdown)
		return serveResult(<-serveErr)
	case err := <-serveErr:
		return serveResult(err)
	}
}

// stopGracefully waits up to limit for in-flight calls, then cuts open
// streams such as WatchEvents.
func (s *Server) stopGracefully(limit time.Duration) {
	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(limit):
		log.Printf("graceful stop exceeded %s, closing open streams", limit)
		s.grpcServer.Stop()
		<-stopped
	}
}

func serveResult(err error) error {
	if err == nil || errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return fmt.Errorf("serve gRPC: %w", err)
}

// Close releases ledger server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close ledger store: %v", err)
		}
	}
}
