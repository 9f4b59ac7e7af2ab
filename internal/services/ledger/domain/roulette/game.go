package roulette

import (
	"time"

	"github.com/louisbranch/spinvault/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/reward"
	"github.com/shopspring/decimal"
)

// GameID identifies a game. Ids start at 0.
type GameID uint64

// Game is an immutable record of one resolved spin.
type Game struct {
	ID     GameID
	Player ledger.Address
	Kind   BetKind
	// Number is the chosen pocket for BetNumber, otherwise 0.
	Number    int
	Outcome   int
	Won       bool
	Stake     decimal.Decimal
	CreatedAt time.Time
	Resolved  bool
}

// Result is what a play returns: the game and, for a win with room in the
// player's inventory, the minted reward.
type Result struct {
	Game   Game
	Reward *reward.Collectible
}

// GameResolved is the payload of event.TypeGameResolved.
type GameResolved struct {
	GameID  GameID          `json:"game_id"`
	Player  ledger.Address  `json:"player"`
	Kind    BetKind         `json:"bet_kind"`
	Number  int             `json:"number"`
	Outcome int             `json:"outcome"`
	Won     bool            `json:"won"`
	Stake   decimal.Decimal `json:"stake"`
}

// Prize is the catalog entry minted for a tier.
type Prize struct {
	Name        string
	ContentHash string
}

// DefaultCatalog returns the built-in prize per tier.
func DefaultCatalog() map[reward.Tier]Prize {
	return map[reward.Tier]Prize{
		reward.TierCommon:    {Name: "Copper Chip", ContentHash: "bafy-common-copper-chip"},
		reward.TierRare:      {Name: "Silver Wheel", ContentHash: "bafy-rare-silver-wheel"},
		reward.TierEpic:      {Name: "Golden Ball", ContentHash: "bafy-epic-golden-ball"},
		reward.TierLegendary: {Name: "Green Zero", ContentHash: "bafy-legendary-green-zero"},
	}
}
