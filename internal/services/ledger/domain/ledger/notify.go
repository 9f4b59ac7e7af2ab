package ledger

import (
	"sync"

	"github.com/louisbranch/spinvault/internal/services/ledger/domain/event"
)

// Subscribe returns a channel of committed events and a cancel function.
// Delivery is best-effort: when the channel buffer is full the subscriber
// misses events rather than stalling the ledger. Use EventsSince to catch up.
func (l *Ledger) Subscribe(buffer int) (<-chan event.Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan event.Event, buffer)

	l.subMu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.subMu.Lock()
			delete(l.subs, id)
			close(ch)
			l.subMu.Unlock()
		})
	}
	return ch, cancel
}

func (l *Ledger) publish(events []event.Event) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for _, ch := range l.subs {
		for _, evt := range events {
			select {
			case ch <- evt:
			default:
			}
		}
	}
}
