// Package roulette resolves European roulette bets and mints a reward to the
// winner.
package roulette

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/spinvault/internal/platform/errors"
	"github.com/louisbranch/spinvault/internal/platform/random"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/event"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/reward"
	"github.com/shopspring/decimal"
)

const (
	gameSequence = "roulette.game"
	houseKey     = "house"
)

// Config holds the game rules.
type Config struct {
	TicketPrice decimal.Decimal
	WinCooldown time.Duration
	// Principal is the identity the engine mints rewards as.
	Principal ledger.Address
	Catalog   map[reward.Tier]Prize
}

// Validate reports configuration that would make every play fail.
func (c Config) Validate() error {
	if !c.TicketPrice.IsPositive() {
		return fmt.Errorf("ticket price must be positive, got %s", c.TicketPrice)
	}
	if c.WinCooldown < 0 {
		return fmt.Errorf("win cooldown must not be negative, got %s", c.WinCooldown)
	}
	if c.Principal == "" {
		return fmt.Errorf("roulette principal is required")
	}
	for _, tier := range reward.Tiers {
		if c.Catalog[tier].Name == "" {
			return fmt.Errorf("catalog has no prize for %s", tier)
		}
	}
	return nil
}

// Engine is the game engine.
type Engine struct {
	core     *ledger.Ledger
	rewards  *reward.Ledger
	cfg      Config
	entropy  random.Source
	games    *ledger.Table[GameID, Game]
	byPlayer *ledger.Table[ledger.Address, []GameID]
	house    *ledger.Table[string, decimal.Decimal]
}

// New validates cfg and registers the game appliers on core.
func New(core *ledger.Ledger, rewards *reward.Ledger, cfg Config, entropy random.Source) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if entropy == nil {
		entropy = random.NewCrypto()
	}
	e := &Engine{
		core:     core,
		rewards:  rewards,
		cfg:      cfg,
		entropy:  entropy,
		games:    ledger.NewTable[GameID, Game]("games"),
		byPlayer: ledger.NewTable[ledger.Address, []GameID]("player_games"),
		house:    ledger.NewTable[string, decimal.Decimal]("house"),
	}
	core.Register(event.TypeGameResolved, e.applyGameResolved)
	return e, nil
}

// CheckStake reports a WRONG_STAKE error unless stake is exactly the ticket price.
func (e *Engine) CheckStake(stake decimal.Decimal) error {
	if stake.Equal(e.cfg.TicketPrice) {
		return nil
	}
	return apperrors.WithMetadata(apperrors.CodeWrongStake, "stake must equal the ticket price", map[string]string{
		apperrors.MetaExpected: e.cfg.TicketPrice.String(),
		"stake":                stake.String(),
	})
}

// PlayAndResolve accepts a ticket, spins, records the game, and on a win
// mints the tier prize to player. A win whose mint fails only because the
// player is at capacity still stands, with no reward.
func (e *Engine) PlayAndResolve(ctx context.Context, player ledger.Address, kind BetKind, number int, stake decimal.Decimal) (Result, error) {
	if err := e.CheckStake(stake); err != nil {
		return Result{}, err
	}
	if !kind.Valid() {
		return Result{}, invalidBetKind(fmt.Sprint(int(kind)))
	}
	number, err := normalizeNumber(kind, number)
	if err != nil {
		return Result{}, err
	}

	var res Result
	_, err = e.core.Execute(ctx, "roulette.play", player, func(tx *ledger.Tx) error {
		if left := ledger.Remaining(tx.Account(player).LastWinAt, e.cfg.WinCooldown, tx.Now()); left > 0 {
			return ledger.CooldownError("win", left)
		}

		outcome, err := e.entropy.Intn(Pockets)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeUnknown, "draw outcome", err)
		}
		id := GameID(tx.NextID(gameSequence, 0))
		won := kind.Wins(outcome, number)
		if err := tx.Emit(event.TypeGameResolved, GameResolved{
			GameID:  id,
			Player:  player,
			Kind:    kind,
			Number:  number,
			Outcome: outcome,
			Won:     won,
			Stake:   stake,
		}); err != nil {
			return err
		}
		res.Game, _ = ledger.Rows(tx, e.games).Get(id)

		if !won {
			return nil
		}
		tier := kind.Tier()
		prize := e.cfg.Catalog[tier]
		minted, err := e.rewards.Mint(tx, e.cfg.Principal, player, prize.Name, tier, prize.ContentHash)
		switch {
		case apperrors.HasCode(err, apperrors.CodeCapacityExceeded):
			return nil
		case err != nil:
			return err
		}
		res.Reward = &minted
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (e *Engine) applyGameResolved(tx *ledger.Tx, evt event.Event) error {
	var p GameResolved
	if err := evt.Decode(&p); err != nil {
		return err
	}
	games := ledger.Rows(tx, e.games)
	if _, exists := games.Get(p.GameID); exists {
		return fmt.Errorf("game %d resolved twice", p.GameID)
	}
	games.Put(p.GameID, Game{
		ID:        p.GameID,
		Player:    p.Player,
		Kind:      p.Kind,
		Number:    p.Number,
		Outcome:   p.Outcome,
		Won:       p.Won,
		Stake:     p.Stake,
		CreatedAt: evt.Timestamp,
		Resolved:  true,
	})
	tx.ConsumeID(gameSequence, uint64(p.GameID))

	index := ledger.Rows(tx, e.byPlayer)
	ids, _ := index.Get(p.Player)
	index.Put(p.Player, append(ids[:len(ids):len(ids)], p.GameID))

	house := ledger.Rows(tx, e.house)
	balance, _ := house.Get(houseKey)
	house.Put(houseKey, balance.Add(p.Stake))

	if p.Won {
		tx.UpdateAccount(p.Player, func(acc *ledger.Account) { acc.LastWinAt = evt.Timestamp })
	}
	return nil
}

// CooldownRemaining returns how long player must wait after their last win.
func (e *Engine) CooldownRemaining(player ledger.Address) time.Duration {
	return ledger.Remaining(e.core.Account(player).LastWinAt, e.cfg.WinCooldown, e.core.Now())
}

// Game returns a resolved game.
func (e *Engine) Game(id GameID) (Game, error) {
	var g Game
	err := e.core.Read(func(tx *ledger.Tx) error {
		var ok bool
		g, ok = ledger.Rows(tx, e.games).Get(id)
		if !ok {
			return apperrors.WithMetadata(apperrors.CodeNotFound, "game not found",
				map[string]string{"game_id": fmt.Sprint(uint64(id))})
		}
		return nil
	})
	return g, err
}

// PlayerGames returns player's games in play order.
func (e *Engine) PlayerGames(player ledger.Address) []Game {
	var out []Game
	_ = e.core.Read(func(tx *ledger.Tx) error {
		ids, _ := ledger.Rows(tx, e.byPlayer).Get(player)
		games := ledger.Rows(tx, e.games)
		for _, id := range ids {
			g, _ := games.Get(id)
			out = append(out, g)
		}
		return nil
	})
	return out
}

// TicketPrice returns the fixed stake.
func (e *Engine) TicketPrice() decimal.Decimal { return e.cfg.TicketPrice }

// WinCooldown returns the configured cooldown after a win.
func (e *Engine) WinCooldown() time.Duration { return e.cfg.WinCooldown }

// HouseBalance returns the sum of all accepted stakes.
func (e *Engine) HouseBalance() decimal.Decimal {
	var balance decimal.Decimal
	_ = e.core.Read(func(tx *ledger.Tx) error {
		balance, _ = ledger.Rows(tx, e.house).Get(houseKey)
		return nil
	})
	return balance
}
