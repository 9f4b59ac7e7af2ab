// Package trade runs the propose, accept, cancel, and reject protocol for
// two-party collectible swaps.
package trade

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	apperrors "github.com/louisbranch/spinvault/internal/platform/errors"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/event"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/reward"
)

const swapSequence = "trade.swap"

// Engine is the trade engine. All four actions share one per-actor cooldown
// that every successful action restarts.
type Engine struct {
	core     *ledger.Ledger
	rewards  *reward.Ledger
	cooldown time.Duration
	swaps    *ledger.Table[SwapID, Swap]
	reserved *ledger.Table[reward.ItemID, SwapID]
	outbox   *ledger.Table[ledger.Address, []SwapID]
	inbox    *ledger.Table[ledger.Address, []SwapID]
}

// New registers the trade appliers on core.
func New(core *ledger.Ledger, rewards *reward.Ledger, cooldown time.Duration) (*Engine, error) {
	if cooldown < 0 {
		return nil, fmt.Errorf("trade cooldown must not be negative, got %s", cooldown)
	}
	e := &Engine{
		core:     core,
		rewards:  rewards,
		cooldown: cooldown,
		swaps:    ledger.NewTable[SwapID, Swap]("swaps"),
		reserved: ledger.NewTable[reward.ItemID, SwapID]("reserved_items"),
		outbox:   ledger.NewTable[ledger.Address, []SwapID]("proposer_index"),
		inbox:    ledger.NewTable[ledger.Address, []SwapID]("target_index"),
	}
	core.Register(event.TypeSwapProposed, e.applyProposed)
	core.Register(event.TypeSwapAccepted, e.resolver(StatusAccepted))
	core.Register(event.TypeSwapCancelled, e.resolver(StatusCancelled))
	core.Register(event.TypeSwapRejected, e.resolver(StatusRejected))
	return e, nil
}

// Propose offers proposerItem for target's targetItem.
func (e *Engine) Propose(ctx context.Context, proposer ledger.Address, proposerItem reward.ItemID, target ledger.Address, targetItem reward.ItemID) (Swap, error) {
	if proposer == target {
		return Swap{}, apperrors.New(apperrors.CodeSelfSwap, "cannot propose a swap to yourself")
	}
	var proposed Swap
	_, err := e.core.Execute(ctx, "trade.propose", proposer, func(tx *ledger.Tx) error {
		if err := e.checkCooldown(tx); err != nil {
			return err
		}
		owner, err := e.rewards.OwnerOf(tx, proposerItem)
		if err != nil {
			return err
		}
		if owner != proposer {
			return apperrors.WithMetadata(apperrors.CodeNotOwner, "proposer does not own the offered item", map[string]string{
				apperrors.MetaItemID: formatItem(proposerItem),
				apperrors.MetaOwner:  string(owner),
			})
		}
		owner, err = e.rewards.OwnerOf(tx, targetItem)
		if err != nil {
			return err
		}
		if owner != target {
			return apperrors.WithMetadata(apperrors.CodeWrongTarget, "target does not own the requested item", map[string]string{
				apperrors.MetaItemID: formatItem(targetItem),
				apperrors.MetaOwner:  string(owner),
			})
		}
		reserved := ledger.Rows(tx, e.reserved)
		for _, item := range []reward.ItemID{proposerItem, targetItem} {
			if by, ok := reserved.Get(item); ok {
				return apperrors.WithMetadata(apperrors.CodeItemReserved, "item is reserved by a pending swap", map[string]string{
					apperrors.MetaItemID: formatItem(item),
					apperrors.MetaSwapID: formatSwap(by),
				})
			}
		}

		id := SwapID(tx.NextID(swapSequence, 1))
		if err := tx.Emit(event.TypeSwapProposed, SwapProposed{
			SwapID:       id,
			Proposer:     proposer,
			Target:       target,
			ProposerItem: proposerItem,
			TargetItem:   targetItem,
		}); err != nil {
			return err
		}
		proposed, _ = ledger.Rows(tx, e.swaps).Get(id)
		return nil
	})
	if err != nil {
		return Swap{}, err
	}
	return proposed, nil
}

// Accept performs both transfers of a pending swap addressed to caller.
func (e *Engine) Accept(ctx context.Context, caller ledger.Address, id SwapID) (Swap, error) {
	return e.resolve(ctx, "trade.accept", caller, id, func(tx *ledger.Tx, s Swap) (event.Type, error) {
		if caller != s.Target {
			return "", notTarget(s)
		}
		owner, err := e.rewards.OwnerOf(tx, s.ProposerItem)
		if err != nil {
			return "", err
		}
		if owner != s.Proposer {
			return "", apperrors.WithMetadata(apperrors.CodeProposerNoLongerOwns, "proposer no longer owns the offered item", map[string]string{
				apperrors.MetaSwapID: formatSwap(s.ID),
				apperrors.MetaItemID: formatItem(s.ProposerItem),
				apperrors.MetaOwner:  string(owner),
			})
		}
		if err := e.rewards.Transfer(tx, s.ProposerItem, s.Proposer, s.Target); err != nil {
			return "", err
		}
		if err := e.rewards.Transfer(tx, s.TargetItem, s.Target, s.Proposer); err != nil {
			return "", err
		}
		return event.TypeSwapAccepted, nil
	})
}

// Cancel withdraws a pending swap proposed by caller.
func (e *Engine) Cancel(ctx context.Context, caller ledger.Address, id SwapID) (Swap, error) {
	return e.resolve(ctx, "trade.cancel", caller, id, func(_ *ledger.Tx, s Swap) (event.Type, error) {
		if caller != s.Proposer {
			return "", apperrors.WithMetadata(apperrors.CodeNotProposer, "only the proposer may cancel", map[string]string{
				apperrors.MetaSwapID: formatSwap(s.ID),
				"proposer":           string(s.Proposer),
			})
		}
		return event.TypeSwapCancelled, nil
	})
}

// Reject declines a pending swap addressed to caller.
func (e *Engine) Reject(ctx context.Context, caller ledger.Address, id SwapID) (Swap, error) {
	return e.resolve(ctx, "trade.reject", caller, id, func(_ *ledger.Tx, s Swap) (event.Type, error) {
		if caller != s.Target {
			return "", notTarget(s)
		}
		return event.TypeSwapRejected, nil
	})
}

// resolve runs the checks shared by accept, cancel, and reject: cooldown
// first, then the swap must exist and be pending. check returns the event
// that closes the swap.
func (e *Engine) resolve(ctx context.Context, action string, caller ledger.Address, id SwapID, check func(*ledger.Tx, Swap) (event.Type, error)) (Swap, error) {
	var resolved Swap
	_, err := e.core.Execute(ctx, action, caller, func(tx *ledger.Tx) error {
		if err := e.checkCooldown(tx); err != nil {
			return err
		}
		swaps := ledger.Rows(tx, e.swaps)
		s, ok := swaps.Get(id)
		if !ok {
			return notPending(id, "MISSING")
		}
		if !s.Pending() {
			return notPending(id, s.Status.String())
		}
		typ, err := check(tx, s)
		if err != nil {
			return err
		}
		if err := tx.Emit(typ, SwapResolved{SwapID: id}); err != nil {
			return err
		}
		resolved, _ = swaps.Get(id)
		return nil
	})
	if err != nil {
		return Swap{}, err
	}
	return resolved, nil
}

func (e *Engine) checkCooldown(tx *ledger.Tx) error {
	last := tx.Account(tx.Actor()).LastTradeActionAt
	if left := ledger.Remaining(last, e.cooldown, tx.Now()); left > 0 {
		return ledger.CooldownError("trade", left)
	}
	return nil
}

func (e *Engine) applyProposed(tx *ledger.Tx, evt event.Event) error {
	var p SwapProposed
	if err := evt.Decode(&p); err != nil {
		return err
	}
	swaps := ledger.Rows(tx, e.swaps)
	if _, exists := swaps.Get(p.SwapID); exists {
		return fmt.Errorf("swap %d proposed twice", p.SwapID)
	}
	swaps.Put(p.SwapID, Swap{
		ID:           p.SwapID,
		Proposer:     p.Proposer,
		Target:       p.Target,
		ProposerItem: p.ProposerItem,
		TargetItem:   p.TargetItem,
		Status:       StatusPending,
		CreatedAt:    evt.Timestamp,
	})
	tx.ConsumeID(swapSequence, uint64(p.SwapID))

	reserved := ledger.Rows(tx, e.reserved)
	reserved.Put(p.ProposerItem, p.SwapID)
	reserved.Put(p.TargetItem, p.SwapID)
	appendIndex(ledger.Rows(tx, e.outbox), p.Proposer, p.SwapID)
	appendIndex(ledger.Rows(tx, e.inbox), p.Target, p.SwapID)
	touch(tx, evt)
	return nil
}

func (e *Engine) resolver(status Status) ledger.Applier {
	return func(tx *ledger.Tx, evt event.Event) error {
		var p SwapResolved
		if err := evt.Decode(&p); err != nil {
			return err
		}
		swaps := ledger.Rows(tx, e.swaps)
		s, ok := swaps.Get(p.SwapID)
		if !ok || !s.Pending() {
			return fmt.Errorf("swap %d is not pending", p.SwapID)
		}
		s.Status = status
		s.ResolvedAt = evt.Timestamp
		swaps.Put(p.SwapID, s)

		reserved := ledger.Rows(tx, e.reserved)
		for _, item := range []reward.ItemID{s.ProposerItem, s.TargetItem} {
			if by, ok := reserved.Get(item); ok && by == s.ID {
				reserved.Delete(item)
			}
		}
		touch(tx, evt)
		return nil
	}
}

// touch starts the actor's trade cooldown at the event time.
func touch(tx *ledger.Tx, evt event.Event) {
	tx.UpdateAccount(ledger.Address(evt.Actor), func(acc *ledger.Account) {
		acc.LastTradeActionAt = evt.Timestamp
	})
}

func appendIndex(rows *ledger.Staged[ledger.Address, []SwapID], addr ledger.Address, id SwapID) {
	ids, _ := rows.Get(addr)
	rows.Put(addr, append(slices.Clip(ids), id))
}

func notTarget(s Swap) error {
	return apperrors.WithMetadata(apperrors.CodeNotTarget, "only the target may resolve this swap", map[string]string{
		apperrors.MetaSwapID: formatSwap(s.ID),
		"target":             string(s.Target),
	})
}

func formatSwap(id SwapID) string { return strconv.FormatUint(uint64(id), 10) }

func formatItem(id reward.ItemID) string { return strconv.FormatUint(uint64(id), 10) }
