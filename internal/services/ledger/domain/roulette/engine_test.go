package roulette

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/spinvault/internal/platform/errors"
	"github.com/louisbranch/spinvault/internal/platform/random"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/reward"
	"github.com/louisbranch/spinvault/internal/services/ledger/storage"
	"github.com/shopspring/decimal"
)

const (
	principal ledger.Address = "roulette"
	operator  ledger.Address = "operator"
)

var ticket = decimal.RequireFromString("0.01")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type failingSource struct{}

func (failingSource) Intn(int) (int, error) { return 0, errors.New("entropy unavailable") }

type fixture struct {
	engine  *Engine
	rewards *reward.Ledger
	clock   *fakeClock
}

func newFixture(t *testing.T, entropy random.Source, opts ...ledger.Option) fixture {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 7, 1, 20, 0, 0, 0, time.UTC)}
	core := ledger.New(append([]ledger.Option{ledger.WithClock(clock.Now)}, opts...)...)
	rewards := reward.New(core, reward.WithMinters(principal, operator))
	engine, err := New(core, rewards, testConfig(), entropy)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return fixture{engine: engine, rewards: rewards, clock: clock}
}

func testConfig() Config {
	return Config{
		TicketPrice: ticket,
		WinCooldown: 5 * time.Minute,
		Principal:   principal,
		Catalog:     DefaultCatalog(),
	}
}

func TestWins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind    BetKind
		outcome int
		number  int
		want    bool
	}{
		{BetRed, 1, 0, true},
		{BetRed, 2, 0, false},
		{BetBlack, 2, 0, true},
		{BetBlack, 0, 0, false},
		{BetEven, 0, 0, false},
		{BetEven, 36, 0, true},
		{BetOdd, 35, 0, true},
		{BetDozen1, 12, 0, true},
		{BetDozen2, 13, 0, true},
		{BetDozen3, 24, 0, false},
		{BetDozen3, 36, 0, true},
		{BetColumn1, 34, 0, true},
		{BetColumn2, 2, 0, true},
		{BetColumn3, 3, 0, true},
		{BetColumn3, 0, 0, false},
		{BetNumber, 17, 17, true},
		{BetNumber, 18, 17, false},
		{BetZero, 0, 0, true},
		{BetZero, 1, 0, false},
	}
	for _, tt := range tests {
		if got := tt.kind.Wins(tt.outcome, tt.number); got != tt.want {
			t.Fatalf("%s.Wins(%d, %d) = %v, want %v", tt.kind, tt.outcome, tt.number, got, tt.want)
		}
	}
}

func TestRedAndBlackPartitionNonZeroPockets(t *testing.T) {
	t.Parallel()

	reds := 0
	for n := 1; n < Pockets; n++ {
		if BetRed.Wins(n, 0) == BetBlack.Wins(n, 0) {
			t.Fatalf("pocket %d is both or neither color", n)
		}
		if BetRed.Wins(n, 0) {
			reds++
		}
	}
	if reds != 18 {
		t.Fatalf("red pockets = %d, want 18", reds)
	}
}

func TestTierEscalatesWithSpecificity(t *testing.T) {
	t.Parallel()

	want := map[BetKind]reward.Tier{
		BetRed: reward.TierCommon, BetOdd: reward.TierCommon,
		BetDozen2: reward.TierRare, BetColumn3: reward.TierRare,
		BetNumber: reward.TierEpic, BetZero: reward.TierLegendary,
	}
	for kind, tier := range want {
		if got := kind.Tier(); got != tier {
			t.Fatalf("%s.Tier() = %s, want %s", kind, got, tier)
		}
	}
}

func TestPlayValidatesInputBeforeState(t *testing.T) {
	t.Parallel()

	f := newFixture(t, random.NewFixed(17))
	tests := []struct {
		name   string
		kind   BetKind
		number int
		stake  decimal.Decimal
		want   apperrors.Code
	}{
		{"number zero", BetNumber, 0, ticket, apperrors.CodeInvalidNumber},
		{"number too high", BetNumber, 37, ticket, apperrors.CodeInvalidNumber},
		{"zero with number", BetZero, 5, ticket, apperrors.CodeInvalidNumber},
		{"double stake", BetNumber, 17, decimal.RequireFromString("0.02"), apperrors.CodeWrongStake},
		{"unknown kind", BetKind(12), 0, ticket, apperrors.CodeInvalidBetKind},
	}
	for _, tt := range tests {
		_, err := f.engine.PlayAndResolve(context.Background(), "alice", tt.kind, tt.number, tt.stake)
		if got := apperrors.CodeOf(err); got != tt.want {
			t.Fatalf("%s: code = %q, want %q", tt.name, got, tt.want)
		}
	}
	if games := f.engine.PlayerGames("alice"); len(games) != 0 {
		t.Fatalf("games after rejected plays = %d, want 0", len(games))
	}
	if !f.engine.HouseBalance().IsZero() {
		t.Fatalf("house balance = %s, want 0", f.engine.HouseBalance())
	}
}

func TestPlayNumberWinMintsEpic(t *testing.T) {
	t.Parallel()

	f := newFixture(t, random.NewFixed(17))
	res, err := f.engine.PlayAndResolve(context.Background(), "alice", BetNumber, 17, decimal.RequireFromString("0.010"))
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if res.Game.ID != 0 || !res.Game.Resolved || !res.Game.Won || res.Game.Outcome != 17 {
		t.Fatalf("game = %+v", res.Game)
	}
	if res.Reward == nil {
		t.Fatal("expected a reward for a win")
	}
	if res.Reward.Tier != reward.TierEpic || res.Reward.Owner != "alice" || res.Reward.Name != "Golden Ball" {
		t.Fatalf("reward = %+v", res.Reward)
	}
	if got := f.rewards.InventoryCount("alice"); got != 1 {
		t.Fatalf("inventory = %d, want 1", got)
	}
}

func TestNonNumberBetsIgnoreNumber(t *testing.T) {
	t.Parallel()

	f := newFixture(t, random.NewFixed(2))
	res, err := f.engine.PlayAndResolve(context.Background(), "alice", BetRed, 99, ticket)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if res.Game.Number != 0 || res.Game.Won {
		t.Fatalf("game = %+v, want number 0 and a loss", res.Game)
	}
}

func TestCooldownFollowsWinsOnly(t *testing.T) {
	t.Parallel()

	// 2 is black: two losing RED plays, then a win on 1.
	f := newFixture(t, random.NewFixed(2, 2, 1, 1, 1))
	for i := 0; i < 2; i++ {
		if _, err := f.engine.PlayAndResolve(context.Background(), "alice", BetRed, 0, ticket); err != nil {
			t.Fatalf("losing play %d: %v", i, err)
		}
	}
	if got := f.engine.CooldownRemaining("alice"); got != 0 {
		t.Fatalf("cooldown after losses = %v, want 0", got)
	}

	res, err := f.engine.PlayAndResolve(context.Background(), "alice", BetRed, 0, ticket)
	if err != nil || !res.Game.Won {
		t.Fatalf("winning play = %+v, %v", res.Game, err)
	}

	f.clock.Advance(time.Minute)
	_, err = f.engine.PlayAndResolve(context.Background(), "alice", BetRed, 0, ticket)
	if apperrors.CodeOf(err) != apperrors.CodeCooldownActive {
		t.Fatalf("code = %q, want COOLDOWN_ACTIVE", apperrors.CodeOf(err))
	}
	if secs := apperrors.MetadataOf(err)[apperrors.MetaRemainingSeconds]; secs != "240" {
		t.Fatalf("remaining_seconds = %q, want 240", secs)
	}
	if got := f.engine.CooldownRemaining("alice"); got != 4*time.Minute {
		t.Fatalf("CooldownRemaining = %v, want 4m", got)
	}

	// Another player is unaffected.
	if _, err := f.engine.PlayAndResolve(context.Background(), "bob", BetRed, 0, ticket); err != nil {
		t.Fatalf("bob play: %v", err)
	}

	f.clock.Advance(4 * time.Minute)
	if _, err := f.engine.PlayAndResolve(context.Background(), "alice", BetRed, 0, ticket); err != nil {
		t.Fatalf("play after cooldown: %v", err)
	}

	games := f.engine.PlayerGames("alice")
	if len(games) != 4 {
		t.Fatalf("alice games = %d, want 4", len(games))
	}
	for i, g := range games {
		if i > 0 && g.ID <= games[i-1].ID {
			t.Fatalf("game ids not increasing: %v then %v", games[i-1].ID, g.ID)
		}
	}
	if want := decimal.RequireFromString("0.05"); !f.engine.HouseBalance().Equal(want) {
		t.Fatalf("house balance = %s, want %s", f.engine.HouseBalance(), want)
	}
}

func TestWinAtCapacityDropsReward(t *testing.T) {
	t.Parallel()

	f := newFixture(t, random.NewFixed(0))
	for i := 0; i < reward.MaxCapacity; i++ {
		if _, err := f.rewards.ExecuteMint(context.Background(), operator, "alice", "filler", reward.TierCommon, "h"); err != nil {
			t.Fatalf("mint: %v", err)
		}
	}

	res, err := f.engine.PlayAndResolve(context.Background(), "alice", BetZero, 0, ticket)
	if err != nil {
		t.Fatalf("play at capacity: %v", err)
	}
	if !res.Game.Won || res.Reward != nil {
		t.Fatalf("result = %+v, want a win with no reward", res)
	}
	if got := f.rewards.TotalMinted(); got != reward.MaxCapacity {
		t.Fatalf("TotalMinted = %d, want %d", got, reward.MaxCapacity)
	}
	if f.engine.CooldownRemaining("alice") == 0 {
		t.Fatal("expected the win to start the cooldown")
	}
}

func TestEntropyFailureRecordsNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, failingSource{})
	if _, err := f.engine.PlayAndResolve(context.Background(), "alice", BetRed, 0, ticket); err == nil {
		t.Fatal("expected error")
	}
	if _, err := f.engine.Game(0); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("code = %q, want NOT_FOUND", apperrors.CodeOf(err))
	}
}

func TestReplayRestoresGames(t *testing.T) {
	t.Parallel()

	journal := storage.NewMemory()
	f := newFixture(t, random.NewFixed(17), ledger.WithJournal(journal))
	if _, err := f.engine.PlayAndResolve(context.Background(), "alice", BetNumber, 17, ticket); err != nil {
		t.Fatalf("play: %v", err)
	}

	core := ledger.New(ledger.WithJournal(journal), ledger.WithClock(f.clock.Now))
	rewards := reward.New(core, reward.WithMinters(principal))
	engine, err := New(core, rewards, testConfig(), random.NewFixed(3))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := core.Replay(context.Background()); err != nil {
		t.Fatalf("replay: %v", err)
	}
	g, err := engine.Game(0)
	if err != nil || !g.Won || g.Number != 17 {
		t.Fatalf("replayed game = %+v, %v", g, err)
	}
	if engine.CooldownRemaining("alice") != 5*time.Minute {
		t.Fatalf("replayed cooldown = %v, want 5m", engine.CooldownRemaining("alice"))
	}
	if rewards.InventoryCount("alice") != 1 {
		t.Fatal("expected replayed reward")
	}
	if !engine.HouseBalance().Equal(ticket) {
		t.Fatalf("replayed house balance = %s", engine.HouseBalance())
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.TicketPrice = decimal.Zero
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero ticket price")
	}
	cfg = testConfig()
	delete(cfg.Catalog, reward.TierEpic)
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing prize")
	}
}

func TestParseBetKind(t *testing.T) {
	t.Parallel()

	if k, err := ParseBetKind("dozen_2"); err != nil || k != BetDozen2 {
		t.Fatalf("ParseBetKind = %v, %v", k, err)
	}
	if k, err := ParseBetKind("10"); err != nil || k != BetNumber {
		t.Fatalf("ParseBetKind(10) = %v, %v", k, err)
	}
	if _, err := ParseBetKind("SPLIT"); apperrors.CodeOf(err) != apperrors.CodeInvalidBetKind {
		t.Fatalf("code = %q, want INVALID_BET_KIND", apperrors.CodeOf(err))
	}
}
