// Package reward is the collectible registry: minting, ownership transfer,
// per-address capacity, and provenance.
package reward

import (
	"context"
	"slices"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/spinvault/internal/platform/errors"
	"github.com/louisbranch/spinvault/internal/platform/grpc/pagination"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/event"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/ledger"
)

const itemSequence = "reward.item"

// Ledger owns the collectible table. Other engines call its in-transaction
// methods so that their checks and its writes share one atomic action.
type Ledger struct {
	core    *ledger.Ledger
	items   *ledger.Table[ItemID, Collectible]
	minters map[ledger.Address]struct{}
}

// Option configures a reward Ledger.
type Option func(*Ledger)

// WithMinters authorizes addrs to mint.
func WithMinters(addrs ...ledger.Address) Option {
	return func(r *Ledger) {
		for _, a := range addrs {
			r.minters[a] = struct{}{}
		}
	}
}

// New registers the reward appliers on core.
func New(core *ledger.Ledger, opts ...Option) *Ledger {
	r := &Ledger{
		core:    core,
		items:   ledger.NewTable[ItemID, Collectible]("collectibles"),
		minters: make(map[ledger.Address]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	core.Register(event.TypeMintIssued, r.applyMint)
	core.Register(event.TypeTransferred, r.applyTransfer)
	return r
}

// IsMinter reports whether addr may mint.
func (r *Ledger) IsMinter(addr ledger.Address) bool {
	_, ok := r.minters[addr]
	return ok
}

// Mint issues a new collectible to to inside tx.
func (r *Ledger) Mint(tx *ledger.Tx, minter, to ledger.Address, name string, tier Tier, contentHash string) (Collectible, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Collectible{}, apperrors.New(apperrors.CodeInvalidName, "collectible name is required")
	}
	if !tier.Valid() {
		return Collectible{}, apperrors.WithMetadata(apperrors.CodeInvalidTier, "unknown tier",
			map[string]string{"tier": strconv.Itoa(int(tier))})
	}
	if !r.IsMinter(minter) {
		return Collectible{}, apperrors.WithMetadata(apperrors.CodeNotMinter, "caller may not mint",
			map[string]string{"minter": string(minter)})
	}
	if err := checkCapacity(tx, to); err != nil {
		return Collectible{}, err
	}

	id := ItemID(tx.NextID(itemSequence, 0))
	if err := tx.Emit(event.TypeMintIssued, MintIssued{
		ItemID:      id,
		To:          to,
		Minter:      minter,
		Name:        name,
		Tier:        tier,
		ContentHash: contentHash,
	}); err != nil {
		return Collectible{}, err
	}
	c, _ := ledger.Rows(tx, r.items).Get(id)
	return c, nil
}

// Transfer moves item from from to to inside tx. Capacity is checked on the
// recipient only.
func (r *Ledger) Transfer(tx *ledger.Tx, item ItemID, from, to ledger.Address) error {
	c, err := r.lookup(tx, item)
	if err != nil {
		return err
	}
	if c.Owner != from {
		return apperrors.WithMetadata(apperrors.CodeNotOwner, "sender does not own item", map[string]string{
			apperrors.MetaItemID: formatItem(item),
			apperrors.MetaOwner:  string(c.Owner),
		})
	}
	if err := checkCapacity(tx, to); err != nil {
		return err
	}
	return tx.Emit(event.TypeTransferred, Transferred{ItemID: item, From: from, To: to})
}

// OwnerOf returns the current owner of item.
func (r *Ledger) OwnerOf(tx *ledger.Tx, item ItemID) (ledger.Address, error) {
	c, err := r.lookup(tx, item)
	if err != nil {
		return "", err
	}
	return c.Owner, nil
}

// MetadataOf returns the full record of item.
func (r *Ledger) MetadataOf(tx *ledger.Tx, item ItemID) (Collectible, error) {
	return r.lookup(tx, item)
}

// InventoryCountOf returns how many collectibles addr holds.
func InventoryCountOf(tx *ledger.Tx, addr ledger.Address) int {
	return tx.Account(addr).InventoryCount
}

// CanReceive reports whether addr is below capacity.
func CanReceive(tx *ledger.Tx, addr ledger.Address) bool {
	return InventoryCountOf(tx, addr) < MaxCapacity
}

// InventoryOf returns the ids held by addr in ascending order.
func (r *Ledger) InventoryOf(tx *ledger.Tx, addr ledger.Address) []ItemID {
	rows := ledger.Rows(tx, r.items)
	var ids []ItemID
	for _, id := range rows.Keys() {
		if c, _ := rows.Get(id); c.Owner == addr {
			ids = append(ids, id)
		}
	}
	return ids
}

// ExecuteMint runs an operator mint as its own action.
func (r *Ledger) ExecuteMint(ctx context.Context, minter, to ledger.Address, name string, tier Tier, contentHash string) (Collectible, error) {
	var minted Collectible
	_, err := r.core.Execute(ctx, "reward.mint", minter, func(tx *ledger.Tx) error {
		c, err := r.Mint(tx, minter, to, name, tier, contentHash)
		minted = c
		return err
	})
	if err != nil {
		return Collectible{}, err
	}
	return minted, nil
}

// ExecuteTransfer runs a direct transfer by the current owner.
func (r *Ledger) ExecuteTransfer(ctx context.Context, from ledger.Address, item ItemID, to ledger.Address) (Collectible, error) {
	var moved Collectible
	_, err := r.core.Execute(ctx, "reward.transfer", from, func(tx *ledger.Tx) error {
		if err := r.Transfer(tx, item, from, to); err != nil {
			return err
		}
		moved, _ = r.lookup(tx, item)
		return nil
	})
	if err != nil {
		return Collectible{}, err
	}
	return moved, nil
}

// Collectible returns the committed record of item.
func (r *Ledger) Collectible(item ItemID) (Collectible, error) {
	var c Collectible
	err := r.core.Read(func(tx *ledger.Tx) error {
		var err error
		c, err = r.lookup(tx, item)
		return err
	})
	return c, err
}

// Owner returns the committed owner of item.
func (r *Ledger) Owner(item ItemID) (ledger.Address, error) {
	c, err := r.Collectible(item)
	return c.Owner, err
}

// InventoryCount returns the committed count for addr.
func (r *Ledger) InventoryCount(addr ledger.Address) int {
	return r.core.Account(addr).InventoryCount
}

// CanReceiveReward reports whether addr may receive another collectible.
func (r *Ledger) CanReceiveReward(addr ledger.Address) bool {
	return r.InventoryCount(addr) < MaxCapacity
}

// Inventory returns the committed holdings of addr.
func (r *Ledger) Inventory(addr ledger.Address) []Collectible {
	var out []Collectible
	_ = r.core.Read(func(tx *ledger.Tx) error {
		rows := ledger.Rows(tx, r.items)
		for _, id := range r.InventoryOf(tx, addr) {
			c, _ := rows.Get(id)
			out = append(out, c)
		}
		return nil
	})
	return out
}

// Provenance returns a page of item's prior owners and the full history length.
func (r *Ledger) Provenance(item ItemID, page pagination.Window) ([]ledger.Address, int, error) {
	c, err := r.Collectible(item)
	if err != nil {
		return nil, 0, err
	}
	return slices.Clone(pagination.Apply(c.Provenance, page)), len(c.Provenance), nil
}

// TotalMinted returns how many collectibles exist.
func (r *Ledger) TotalMinted() uint64 {
	var n uint64
	_ = r.core.Read(func(tx *ledger.Tx) error {
		n = tx.NextID(itemSequence, 0)
		return nil
	})
	return n
}

func (r *Ledger) lookup(tx *ledger.Tx, item ItemID) (Collectible, error) {
	c, ok := ledger.Rows(tx, r.items).Get(item)
	if !ok {
		return Collectible{}, apperrors.WithMetadata(apperrors.CodeNotFound, "collectible not found",
			map[string]string{apperrors.MetaItemID: formatItem(item)})
	}
	c.Provenance = slices.Clone(c.Provenance)
	return c, nil
}

func checkCapacity(tx *ledger.Tx, to ledger.Address) error {
	if CanReceive(tx, to) {
		return nil
	}
	return apperrors.WithMetadata(apperrors.CodeCapacityExceeded, "recipient inventory is full", map[string]string{
		apperrors.MetaHolder:   string(to),
		apperrors.MetaCapacity: strconv.Itoa(MaxCapacity),
	})
}

func formatItem(id ItemID) string {
	return strconv.FormatUint(uint64(id), 10)
}
