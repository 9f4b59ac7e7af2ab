package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/spinvault/internal/services/ledger/domain/event"
)

// Memory is an in-process Journal. It keeps every event for the life of the
// process.
type Memory struct {
	mu     sync.RWMutex
	events []event.Event
}

// NewMemory returns an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{}
}

// Append implements Journal.
func (m *Memory) Append(ctx context.Context, events []event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	last := uint64(len(m.events))
	for i, evt := range events {
		if evt.Seq != last+uint64(i)+1 {
			return fmt.Errorf("%w: got seq %d, want %d", ErrSeqConflict, evt.Seq, last+uint64(i)+1)
		}
	}
	m.events = append(m.events, events...)
	return nil
}

// Scan implements Journal.
func (m *Memory) Scan(ctx context.Context, afterSeq uint64, fn func(event.Event) error) error {
	m.mu.RLock()
	var tail []event.Event
	if afterSeq < uint64(len(m.events)) {
		tail = append(tail, m.events[afterSeq:]...)
	}
	m.mu.RUnlock()
	for _, evt := range tail {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(evt); err != nil {
			return err
		}
	}
	return nil
}
