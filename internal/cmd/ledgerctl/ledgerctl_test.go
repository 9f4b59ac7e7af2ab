package ledgerctl

import (
	"bytes"
	"context"
	"flag"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/spinvault/internal/platform/random"
	ledgerservice "github.com/louisbranch/spinvault/internal/services/ledger/api/grpc/ledger"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/reward"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/roulette"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/trade"
	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

// startLedger serves an in-memory ledger whose spins always land on 7.
func startLedger(t *testing.T) *grpc.ClientConn {
	t.Helper()
	core := ledger.New()
	rewards := reward.New(core, reward.WithMinters("operator", "roulette"))
	games, err := roulette.New(core, rewards, roulette.Config{
		TicketPrice: decimal.RequireFromString("0.05"),
		WinCooldown: time.Minute,
		Principal:   "roulette",
		Catalog:     roulette.DefaultCatalog(),
	}, random.NewFixed(7))
	if err != nil {
		t.Fatalf("new roulette: %v", err)
	}
	trades, err := trade.New(core, rewards, 0)
	if err != nil {
		t.Fatalf("new trade: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	ledgerservice.RegisterLedgerServer(srv, ledgerservice.NewService(ledgerservice.Deps{
		Core:      core,
		Rewards:   rewards,
		Games:     games,
		Trades:    trades,
		Operators: []ledger.Address{"operator"},
	}))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func run(t *testing.T, conn *grpc.ClientConn, actor string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Execute(context.Background(), ledgerservice.NewClient(conn, actor), &out, false, args)
	return out.String(), err
}

func mustRun(t *testing.T, conn *grpc.ClientConn, actor string, args ...string) string {
	t.Helper()
	out, err := run(t, conn, actor, args...)
	if err != nil {
		t.Fatalf("%s: %s", strings.Join(args, " "), Describe(err))
	}
	return out
}

func TestParseConfigSplitsSubcommand(t *testing.T) {
	t.Setenv("SPINVAULT_ACTOR", "env-actor")
	cfg, rest, err := ParseConfig(flag.NewFlagSet("ledgerctl", flag.ContinueOnError),
		[]string{"-actor", "alice", "inventory", "bob"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Actor != "alice" {
		t.Fatalf("actor = %q, want alice", cfg.Actor)
	}
	if cfg.Addr != "localhost:8090" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if len(rest) != 2 || rest[0] != "inventory" || rest[1] != "bob" {
		t.Fatalf("rest = %v", rest)
	}
}

func TestRunRejectsUnknownCommandBeforeDialing(t *testing.T) {
	err := Run(context.Background(), Config{Addr: "127.0.0.1:1"}, []string{"explode"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "explode") {
		t.Fatalf("err = %v", err)
	}
	if err := Run(context.Background(), Config{Addr: "127.0.0.1:1"}, nil, &bytes.Buffer{}); err != ErrUsage {
		t.Fatalf("err = %v, want usage", err)
	}
}

func TestMintThenInventory(t *testing.T) {
	conn := startLedger(t)
	out := mustRun(t, conn, "operator", "mint", "-to", "alice", "-name", "Lantern", "-tier", "rare")
	if !strings.Contains(out, "Minted item 0") || !strings.Contains(out, "Lantern") {
		t.Fatalf("mint output:\n%s", out)
	}

	out = mustRun(t, conn, "alice", "inventory")
	for _, want := range []string{"Inventory of alice (1/20)", "Lantern", "RARE"} {
		if !strings.Contains(out, want) {
			t.Fatalf("inventory output missing %q:\n%s", want, out)
		}
	}
}

func TestPlayDefaultsStakeToTicketPrice(t *testing.T) {
	conn := startLedger(t)
	out := mustRun(t, conn, "alice", "play", "-bet", "odd")
	for _, want := range []string{"WON", "Outcome: 7", "Copper Chip"} {
		if !strings.Contains(out, want) {
			t.Fatalf("play output missing %q:\n%s", want, out)
		}
	}

	_, err := run(t, conn, "alice", "play", "-bet", "odd")
	if got := Describe(err); !strings.HasPrefix(got, "COOLDOWN_ACTIVE:") || !strings.Contains(got, "remaining_seconds=60") {
		t.Fatalf("describe = %q", got)
	}
}

func TestSwapCommands(t *testing.T) {
	conn := startLedger(t)
	mustRun(t, conn, "operator", "mint", "-to", "alice", "-name", "A")
	mustRun(t, conn, "operator", "mint", "-to", "bob", "-name", "B")

	out := mustRun(t, conn, "alice", "propose", "-give", "0", "-to", "bob", "-want", "1")
	if !strings.Contains(out, "Proposed swap 1") || !strings.Contains(out, "PENDING") {
		t.Fatalf("propose output:\n%s", out)
	}
	out = mustRun(t, conn, "bob", "swaps", "-scope", "received")
	if !strings.Contains(out, "Swaps received for bob") || !strings.Contains(out, "alice") {
		t.Fatalf("swaps output:\n%s", out)
	}
	out = mustRun(t, conn, "bob", "accept", "1")
	if !strings.Contains(out, "Accepted swap 1") || !strings.Contains(out, "ACCEPTED") {
		t.Fatalf("accept output:\n%s", out)
	}

	_, err := run(t, conn, "bob", "cancel", "1")
	if got := Describe(err); !strings.HasPrefix(got, "NOT_PENDING:") {
		t.Fatalf("describe = %q", got)
	}
}

func TestJSONOutput(t *testing.T) {
	conn := startLedger(t)
	var out bytes.Buffer
	client := ledgerservice.NewClient(conn, "alice")
	if err := Execute(context.Background(), client, &out, true, []string{"account"}); err != nil {
		t.Fatalf("account: %v", err)
	}
	if !strings.Contains(out.String(), "inventory_count") || !strings.HasPrefix(strings.TrimSpace(out.String()), "{") {
		t.Fatalf("json output:\n%s", out.String())
	}
}

func TestArgumentErrors(t *testing.T) {
	conn := startLedger(t)
	tests := [][]string{
		{"transfer", "-item", "x", "-to", "bob"},
		{"transfer", "-item", "1"},
		{"accept"},
		{"accept", "1", "2"},
		{"inventory", "a", "b"},
		{"rules", "extra"},
		{"play"},
	}
	for _, args := range tests {
		if _, err := run(t, conn, "alice", args...); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}
}

func TestDescribeNotFound(t *testing.T) {
	conn := startLedger(t)
	_, err := run(t, conn, "alice", "transfer", "-item", "42", "-to", "bob")
	if got := Describe(err); !strings.HasPrefix(got, "NOT_FOUND:") {
		t.Fatalf("describe = %q", got)
	}
}
