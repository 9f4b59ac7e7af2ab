package ledger

import (
	"cmp"
	"slices"
)

// Table is a committed keyed table. Engines read and write it through Rows so
// that changes stay staged until their action commits.
type Table[K cmp.Ordered, V any] struct {
	name string
	rows map[K]V
}

// NewTable returns an empty table.
func NewTable[K cmp.Ordered, V any](name string) *Table[K, V] {
	return &Table[K, V]{name: name, rows: make(map[K]V)}
}

// Name returns the table name used in diagnostics.
func (t *Table[K, V]) Name() string { return t.name }

type stager interface {
	flush()
}

// Staged is one transaction's overlay on a Table. Reads see the overlay first.
type Staged[K cmp.Ordered, V any] struct {
	table   *Table[K, V]
	writes  map[K]V
	deleted map[K]struct{}
}

// Rows returns tx's overlay for t, creating it on first use.
func Rows[K cmp.Ordered, V any](tx *Tx, t *Table[K, V]) *Staged[K, V] {
	if s, ok := tx.staged[t]; ok {
		return s.(*Staged[K, V])
	}
	s := &Staged[K, V]{
		table:   t,
		writes:  make(map[K]V),
		deleted: make(map[K]struct{}),
	}
	tx.staged[t] = s
	tx.order = append(tx.order, s)
	return s
}

// Get returns the row for k.
func (s *Staged[K, V]) Get(k K) (V, bool) {
	if _, gone := s.deleted[k]; gone {
		var zero V
		return zero, false
	}
	if v, ok := s.writes[k]; ok {
		return v, true
	}
	v, ok := s.table.rows[k]
	return v, ok
}

// Put stages v under k.
func (s *Staged[K, V]) Put(k K, v V) {
	delete(s.deleted, k)
	s.writes[k] = v
}

// Delete stages the removal of k.
func (s *Staged[K, V]) Delete(k K) {
	delete(s.writes, k)
	s.deleted[k] = struct{}{}
}

// Keys returns every visible key in ascending order.
func (s *Staged[K, V]) Keys() []K {
	keys := make([]K, 0, len(s.table.rows)+len(s.writes))
	for k := range s.table.rows {
		if _, gone := s.deleted[k]; gone {
			continue
		}
		if _, shadowed := s.writes[k]; shadowed {
			continue
		}
		keys = append(keys, k)
	}
	for k := range s.writes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of visible rows.
func (s *Staged[K, V]) Len() int {
	n := len(s.table.rows)
	for k := range s.writes {
		if _, ok := s.table.rows[k]; !ok {
			n++
		}
	}
	for k := range s.deleted {
		if _, ok := s.table.rows[k]; ok {
			n--
		}
	}
	return n
}

func (s *Staged[K, V]) flush() {
	for k := range s.deleted {
		delete(s.table.rows, k)
	}
	for k, v := range s.writes {
		s.table.rows[k] = v
	}
}
