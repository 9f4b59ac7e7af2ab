package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/spinvault/internal/services/ledger/domain/event"
)

// ErrReadOnly is returned when a query tries to emit an event.
var ErrReadOnly = errors.New("ledger transaction is read-only")

// Applier folds one event into staged tables. Appliers must derive every
// value from the event itself so that replay rebuilds identical state.
type Applier func(tx *Tx, evt event.Event) error

// Tx is the view one action has of the ledger.
type Tx struct {
	ctx      context.Context
	now      time.Time
	actor    Address
	readOnly bool
	ledger   *Ledger
	staged   map[any]stager
	order    []stager
	events   []event.Event
}

// Context returns the context of the action.
func (tx *Tx) Context() context.Context { return tx.ctx }

// Now returns the action timestamp. It is fixed for the whole action.
func (tx *Tx) Now() time.Time { return tx.now }

// Actor returns the address that submitted the action.
func (tx *Tx) Actor() Address { return tx.actor }

// Emit records an event and applies it to the staged tables immediately, so
// later reads in the same action observe it.
func (tx *Tx) Emit(typ event.Type, payload any) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	evt, err := event.New(typ, string(tx.actor), tx.now, payload)
	if err != nil {
		return err
	}
	if err := tx.apply(evt); err != nil {
		return err
	}
	tx.events = append(tx.events, evt)
	return nil
}

func (tx *Tx) apply(evt event.Event) error {
	apply, ok := tx.ledger.appliers[evt.Type]
	if !ok {
		return fmt.Errorf("no applier registered for %s", evt.Type)
	}
	if err := apply(tx, evt); err != nil {
		return fmt.Errorf("apply %s: %w", evt.Type, err)
	}
	return nil
}

// NextID returns the identifier the named sequence will hand out next, or
// first if the sequence has never been used. It does not advance the sequence.
func (tx *Tx) NextID(sequence string, first uint64) uint64 {
	if next, ok := Rows(tx, tx.ledger.sequences).Get(sequence); ok {
		return next
	}
	return first
}

// ConsumeID marks id as used so NextID moves past it. Appliers call it with
// the id carried in the event.
func (tx *Tx) ConsumeID(sequence string, id uint64) {
	rows := Rows(tx, tx.ledger.sequences)
	if next, ok := rows.Get(sequence); ok && next > id {
		return
	}
	rows.Put(sequence, id+1)
}

func (tx *Tx) flush() {
	for _, s := range tx.order {
		s.flush()
	}
}
