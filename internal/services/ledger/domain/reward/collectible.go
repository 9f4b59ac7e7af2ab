package reward

import (
	"time"

	"github.com/louisbranch/spinvault/internal/services/ledger/domain/ledger"
)

// MaxCapacity is the most collectibles one address may hold.
const MaxCapacity = 20

// ItemID identifies a collectible. Ids start at 0 and are never reused.
type ItemID uint64

// Collectible is a singly-owned reward record.
type Collectible struct {
	ID             ItemID
	Owner          ledger.Address
	Name           string
	Tier           Tier
	ContentHash    string
	CreatedAt      time.Time
	LastTransferAt time.Time
	// Provenance lists prior owners, oldest first. It only grows.
	Provenance []ledger.Address
}

// MintIssued is the payload of event.TypeMintIssued.
type MintIssued struct {
	ItemID      ItemID         `json:"item_id"`
	To          ledger.Address `json:"to"`
	Minter      ledger.Address `json:"minter"`
	Name        string         `json:"name"`
	Tier        Tier           `json:"tier"`
	ContentHash string         `json:"content_hash"`
}

// Transferred is the payload of event.TypeTransferred.
type Transferred struct {
	ItemID ItemID         `json:"item_id"`
	From   ledger.Address `json:"from"`
	To     ledger.Address `json:"to"`
}
