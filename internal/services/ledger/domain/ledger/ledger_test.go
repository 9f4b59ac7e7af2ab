package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/spinvault/internal/platform/errors"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/event"
	"github.com/louisbranch/spinvault/internal/services/ledger/storage"
)

const typeNoted event.Type = "test.noted"

type notedPayload struct {
	Key   string `json:"key"`
	Value int    `json:"value"`
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type failingJournal struct {
	storage.Journal
	err error
}

func (j failingJournal) Append(context.Context, []event.Event) error { return j.err }

func newNotes(l *Ledger) *Table[string, int] {
	notes := NewTable[string, int]("notes")
	l.Register(typeNoted, func(tx *Tx, evt event.Event) error {
		var p notedPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		Rows(tx, notes).Put(p.Key, p.Value)
		tx.ConsumeID("notes", uint64(p.Value))
		tx.UpdateAccount(Address(evt.Actor), func(acc *Account) { acc.InventoryCount++ })
		return nil
	})
	return notes
}

func readNote(t *testing.T, l *Ledger, notes *Table[string, int], key string) (int, bool) {
	t.Helper()
	var (
		v  int
		ok bool
	)
	if err := l.Read(func(tx *Tx) error {
		v, ok = Rows(tx, notes).Get(key)
		return nil
	}); err != nil {
		t.Fatalf("read: %v", err)
	}
	return v, ok
}

func TestExecuteCommitsEmittedEvents(t *testing.T) {
	t.Parallel()

	clock := &fixedClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	l := New(WithClock(clock.Now))
	notes := newNotes(l)

	events, err := l.Execute(context.Background(), "note", "alice", func(tx *Tx) error {
		if err := tx.Emit(typeNoted, notedPayload{Key: "a", Value: 1}); err != nil {
			return err
		}
		if v, ok := Rows(tx, notes).Get("a"); !ok || v != 1 {
			t.Fatalf("staged read = %d, %v; want 1, true", v, ok)
		}
		return tx.Emit(typeNoted, notedPayload{Key: "b", Value: 2})
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(events) != 2 || events[0].Seq != 1 || events[1].Seq != 2 {
		t.Fatalf("events = %+v, want seq 1 and 2", events)
	}
	if !events[0].Timestamp.Equal(clock.t) {
		t.Fatalf("timestamp = %v, want %v", events[0].Timestamp, clock.t)
	}
	if v, ok := readNote(t, l, notes, "b"); !ok || v != 2 {
		t.Fatalf("committed b = %d, %v; want 2, true", v, ok)
	}
	if got := l.Account("alice").InventoryCount; got != 2 {
		t.Fatalf("account count = %d, want 2", got)
	}
	if seq, hash := l.Head(); seq != 2 || hash != events[1].Hash {
		t.Fatalf("head = %d %q", seq, hash)
	}
}

func TestExecuteFailureLeavesNoTrace(t *testing.T) {
	t.Parallel()

	l := New()
	notes := newNotes(l)
	boom := apperrors.New(apperrors.CodeNotOwner, "nope")

	_, err := l.Execute(context.Background(), "note", "alice", func(tx *Tx) error {
		if err := tx.Emit(typeNoted, notedPayload{Key: "a", Value: 1}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if _, ok := readNote(t, l, notes, "a"); ok {
		t.Fatal("expected aborted write to stay invisible")
	}
	if got := l.Account("alice"); got != (Account{}) {
		t.Fatalf("account = %+v, want zero", got)
	}
	if seq, _ := l.Head(); seq != 0 {
		t.Fatalf("head seq = %d, want 0", seq)
	}
}

func TestExecuteJournalFailureAborts(t *testing.T) {
	t.Parallel()

	l := New(WithJournal(failingJournal{Journal: storage.NewMemory(), err: errors.New("disk full")}))
	notes := newNotes(l)

	_, err := l.Execute(context.Background(), "note", "alice", func(tx *Tx) error {
		return tx.Emit(typeNoted, notedPayload{Key: "a", Value: 1})
	})
	if apperrors.CodeOf(err) != apperrors.CodeUnknown {
		t.Fatalf("code = %q, want %q", apperrors.CodeOf(err), apperrors.CodeUnknown)
	}
	if _, ok := readNote(t, l, notes, "a"); ok {
		t.Fatal("expected journal failure to discard staged rows")
	}
}

func TestReadRejectsEmit(t *testing.T) {
	t.Parallel()

	l := New()
	newNotes(l)
	err := l.Read(func(tx *Tx) error {
		return tx.Emit(typeNoted, notedPayload{Key: "a"})
	})
	if !errors.Is(err, ErrReadOnly) {
		t.Fatalf("err = %v, want ErrReadOnly", err)
	}
}

func TestNextIDAdvancesOnlyThroughAppliers(t *testing.T) {
	t.Parallel()

	l := New()
	newNotes(l)
	_, err := l.Execute(context.Background(), "note", "alice", func(tx *Tx) error {
		if got := tx.NextID("notes", 5); got != 5 {
			t.Fatalf("NextID before use = %d, want 5", got)
		}
		if err := tx.Emit(typeNoted, notedPayload{Key: "x", Value: 5}); err != nil {
			return err
		}
		if got := tx.NextID("notes", 5); got != 6 {
			t.Fatalf("NextID after consume = %d, want 6", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
}

func TestReplayRebuildsState(t *testing.T) {
	t.Parallel()

	journal := storage.NewMemory()
	first := New(WithJournal(journal))
	newNotes(first)
	for i, key := range []string{"a", "b", "c"} {
		_, err := first.Execute(context.Background(), "note", "alice", func(tx *Tx) error {
			return tx.Emit(typeNoted, notedPayload{Key: key, Value: i})
		})
		if err != nil {
			t.Fatalf("execute %s: %v", key, err)
		}
	}

	second := New(WithJournal(journal))
	notes := newNotes(second)
	n, err := second.Replay(context.Background())
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if n != 3 {
		t.Fatalf("replayed = %d, want 3", n)
	}
	if v, ok := readNote(t, second, notes, "c"); !ok || v != 2 {
		t.Fatalf("replayed c = %d, %v; want 2, true", v, ok)
	}
	if got := second.Account("alice").InventoryCount; got != 3 {
		t.Fatalf("replayed account count = %d, want 3", got)
	}
	firstSeq, firstHash := first.Head()
	secondSeq, secondHash := second.Head()
	if firstSeq != secondSeq || firstHash != secondHash {
		t.Fatal("expected replayed head to match the original")
	}
}

func TestReplayRejectsBrokenChain(t *testing.T) {
	t.Parallel()

	evt, err := event.New(typeNoted, "alice", time.Now(), notedPayload{Key: "a"})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	sealed := event.Seal([]event.Event{evt}, 0, "")
	sealed[0].Hash = "forged"
	journal := storage.NewMemory()
	if err := journal.Append(context.Background(), sealed); err != nil {
		t.Fatalf("append: %v", err)
	}

	l := New(WithJournal(journal))
	newNotes(l)
	if _, err := l.Replay(context.Background()); !errors.Is(err, event.ErrChainBroken) {
		t.Fatalf("replay = %v, want ErrChainBroken", err)
	}
}

func TestSubscribeReceivesCommittedEvents(t *testing.T) {
	t.Parallel()

	l := New()
	newNotes(l)
	ch, cancel := l.Subscribe(4)
	defer cancel()

	_, _ = l.Execute(context.Background(), "note", "alice", func(tx *Tx) error {
		return errors.New("aborted")
	})
	if _, err := l.Execute(context.Background(), "note", "alice", func(tx *Tx) error {
		return tx.Emit(typeNoted, notedPayload{Key: "a", Value: 1})
	}); err != nil {
		t.Fatalf("execute: %v", err)
	}

	select {
	case evt := <-ch:
		if evt.Seq != 1 || evt.Type != typeNoted {
			t.Fatalf("event = %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("expected committed event")
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("expected channel closed after cancel")
	}
}

func TestSubscribeDropsWhenFull(t *testing.T) {
	t.Parallel()

	l := New()
	newNotes(l)
	ch, cancel := l.Subscribe(1)
	defer cancel()

	for i := 0; i < 3; i++ {
		if _, err := l.Execute(context.Background(), "note", "alice", func(tx *Tx) error {
			return tx.Emit(typeNoted, notedPayload{Key: "k", Value: i})
		}); err != nil {
			t.Fatalf("execute: %v", err)
		}
	}
	if got := len(ch); got != 1 {
		t.Fatalf("buffered = %d, want 1", got)
	}

	var seqs []uint64
	if err := l.EventsSince(context.Background(), 1, func(evt event.Event) error {
		seqs = append(seqs, evt.Seq)
		return nil
	}); err != nil {
		t.Fatalf("events since: %v", err)
	}
	if len(seqs) != 2 || seqs[0] != 2 {
		t.Fatalf("catch-up seqs = %v, want [2 3]", seqs)
	}
}

func TestRemainingAndSeconds(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		last time.Time
		want time.Duration
	}{
		{"never", time.Time{}, 0},
		{"inside window", now.Add(-90 * time.Second), 210 * time.Second},
		{"elapsed", now.Add(-10 * time.Minute), 0},
	}
	for _, tt := range tests {
		if got := Remaining(tt.last, 5*time.Minute, now); got != tt.want {
			t.Fatalf("%s: Remaining = %v, want %v", tt.name, got, tt.want)
		}
	}
	if got := Seconds(1500 * time.Millisecond); got != 2 {
		t.Fatalf("Seconds(1.5s) = %d, want 2", got)
	}
	meta := apperrors.MetadataOf(CooldownError("win", 1500*time.Millisecond))
	if meta[apperrors.MetaRemainingSeconds] != "2" {
		t.Fatalf("remaining_seconds = %q, want 2", meta[apperrors.MetaRemainingSeconds])
	}
}

func TestParseAddress(t *testing.T) {
	t.Parallel()

	if got, err := ParseAddress("  alice "); err != nil || got != "alice" {
		t.Fatalf("ParseAddress = %q, %v", got, err)
	}
	for _, raw := range []string{"", "   ", "al ice"} {
		if _, err := ParseAddress(raw); apperrors.CodeOf(err) != apperrors.CodeInvalidAddress {
			t.Fatalf("ParseAddress(%q) code = %q, want INVALID_ADDRESS", raw, apperrors.CodeOf(err))
		}
	}
}

func TestStagedKeysAndLen(t *testing.T) {
	t.Parallel()

	l := New()
	notes := newNotes(l)
	_, err := l.Execute(context.Background(), "note", "alice", func(tx *Tx) error {
		for _, k := range []string{"c", "a"} {
			if err := tx.Emit(typeNoted, notedPayload{Key: k}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	_ = l.Read(func(tx *Tx) error {
		rows := Rows(tx, notes)
		rows.Put("b", 1)
		rows.Delete("c")
		keys := rows.Keys()
		if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
			t.Fatalf("keys = %v, want [a b]", keys)
		}
		if rows.Len() != 2 {
			t.Fatalf("len = %d, want 2", rows.Len())
		}
		return nil
	})
	if _, ok := readNote(t, l, notes, "b"); ok {
		t.Fatal("read transaction writes must not be committed")
	}
}
