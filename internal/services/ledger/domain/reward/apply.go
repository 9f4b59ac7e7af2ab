package reward

import (
	"fmt"
	"slices"

	"github.com/louisbranch/spinvault/internal/services/ledger/domain/event"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/ledger"
)

func (r *Ledger) applyMint(tx *ledger.Tx, evt event.Event) error {
	var p MintIssued
	if err := evt.Decode(&p); err != nil {
		return err
	}
	rows := ledger.Rows(tx, r.items)
	if _, exists := rows.Get(p.ItemID); exists {
		return fmt.Errorf("collectible %d minted twice", p.ItemID)
	}
	rows.Put(p.ItemID, Collectible{
		ID:             p.ItemID,
		Owner:          p.To,
		Name:           p.Name,
		Tier:           p.Tier,
		ContentHash:    p.ContentHash,
		CreatedAt:      evt.Timestamp,
		LastTransferAt: evt.Timestamp,
	})
	tx.ConsumeID(itemSequence, uint64(p.ItemID))
	tx.UpdateAccount(p.To, func(acc *ledger.Account) { acc.InventoryCount++ })
	return nil
}

func (r *Ledger) applyTransfer(tx *ledger.Tx, evt event.Event) error {
	var p Transferred
	if err := evt.Decode(&p); err != nil {
		return err
	}
	rows := ledger.Rows(tx, r.items)
	c, ok := rows.Get(p.ItemID)
	if !ok {
		return fmt.Errorf("transfer of unknown collectible %d", p.ItemID)
	}
	if c.Owner != p.From {
		return fmt.Errorf("transfer of collectible %d from %s, owner is %s", p.ItemID, p.From, c.Owner)
	}
	c.Provenance = append(slices.Clip(c.Provenance), p.From)
	c.Owner = p.To
	c.LastTransferAt = evt.Timestamp
	rows.Put(p.ItemID, c)
	tx.UpdateAccount(p.From, func(acc *ledger.Account) { acc.InventoryCount-- })
	tx.UpdateAccount(p.To, func(acc *ledger.Account) { acc.InventoryCount++ })
	return nil
}
