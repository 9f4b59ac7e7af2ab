package trade

import (
	"slices"
	"time"

	apperrors "github.com/louisbranch/spinvault/internal/platform/errors"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/reward"
)

// Swap returns a proposal by id.
func (e *Engine) Swap(id SwapID) (Swap, error) {
	var s Swap
	err := e.core.Read(func(tx *ledger.Tx) error {
		var ok bool
		s, ok = ledger.Rows(tx, e.swaps).Get(id)
		if !ok {
			return apperrors.WithMetadata(apperrors.CodeNotFound, "swap not found",
				map[string]string{apperrors.MetaSwapID: formatSwap(id)})
		}
		return nil
	})
	return s, err
}

// PendingFor returns pending swaps where addr is proposer or target, by id.
func (e *Engine) PendingFor(addr ledger.Address) []Swap {
	var out []Swap
	_ = e.core.Read(func(tx *ledger.Tx) error {
		outbox, _ := ledger.Rows(tx, e.outbox).Get(addr)
		inbox, _ := ledger.Rows(tx, e.inbox).Get(addr)
		ids := append(slices.Clone(outbox), inbox...)
		slices.Sort(ids)
		swaps := ledger.Rows(tx, e.swaps)
		for _, id := range slices.Compact(ids) {
			if s, _ := swaps.Get(id); s.Pending() {
				out = append(out, s)
			}
		}
		return nil
	})
	return out
}

// Proposed returns every swap addr has proposed, in proposal order.
func (e *Engine) Proposed(addr ledger.Address) []Swap {
	return e.indexed(e.outbox, addr)
}

// Received returns every swap addressed to addr, in proposal order.
func (e *Engine) Received(addr ledger.Address) []Swap {
	return e.indexed(e.inbox, addr)
}

func (e *Engine) indexed(index *ledger.Table[ledger.Address, []SwapID], addr ledger.Address) []Swap {
	var out []Swap
	_ = e.core.Read(func(tx *ledger.Tx) error {
		ids, _ := ledger.Rows(tx, index).Get(addr)
		swaps := ledger.Rows(tx, e.swaps)
		for _, id := range ids {
			s, _ := swaps.Get(id)
			out = append(out, s)
		}
		return nil
	})
	return out
}

// IsReserved reports whether item is held by a pending swap, and which one.
func (e *Engine) IsReserved(item reward.ItemID) (SwapID, bool) {
	var (
		id SwapID
		ok bool
	)
	_ = e.core.Read(func(tx *ledger.Tx) error {
		id, ok = ledger.Rows(tx, e.reserved).Get(item)
		return nil
	})
	return id, ok
}

// CooldownRemaining returns how long addr must wait before its next trade action.
func (e *Engine) CooldownRemaining(addr ledger.Address) time.Duration {
	return ledger.Remaining(e.core.Account(addr).LastTradeActionAt, e.cooldown, e.core.Now())
}

// Cooldown returns the configured trade cooldown.
func (e *Engine) Cooldown() time.Duration { return e.cooldown }
