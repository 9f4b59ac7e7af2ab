package event

import (
	"errors"
	"testing"
	"time"
)

type testPayload struct {
	ItemID uint64 `json:"item_id"`
	To     string `json:"to"`
}

func mustNew(t *testing.T, typ Type, payload any) Event {
	t.Helper()
	evt, err := New(typ, "alice", time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.FixedZone("x", 3600)), payload)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	return evt
}

func TestNewNormalizesTimestampAndEncodesPayload(t *testing.T) {
	t.Parallel()

	evt := mustNew(t, TypeMintIssued, testPayload{ItemID: 3, To: "bob"})
	if evt.ID == "" {
		t.Fatal("expected event id")
	}
	if evt.Timestamp.Location() != time.UTC {
		t.Fatalf("timestamp location = %v, want UTC", evt.Timestamp.Location())
	}
	if evt.Timestamp.Nanosecond() != 123000000 {
		t.Fatalf("timestamp nanos = %d, want millisecond truncation", evt.Timestamp.Nanosecond())
	}

	var got testPayload
	if err := evt.Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ItemID != 3 || got.To != "bob" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestNewRequiresType(t *testing.T) {
	t.Parallel()

	if _, err := New("", "alice", time.Now(), nil); err == nil {
		t.Fatal("expected error for empty type")
	}
}

func TestTypeDomain(t *testing.T) {
	t.Parallel()

	if got := TypeSwapAccepted.Domain(); got != "trade" {
		t.Fatalf("Domain() = %q, want trade", got)
	}
	if got := Type("bare").Domain(); got != "bare" {
		t.Fatalf("Domain() = %q, want bare", got)
	}
}

func TestSealLinksEvents(t *testing.T) {
	t.Parallel()

	first := Seal([]Event{mustNew(t, TypeMintIssued, testPayload{ItemID: 0})}, 0, "")
	next := Seal([]Event{
		mustNew(t, TypeTransferred, testPayload{ItemID: 0, To: "bob"}),
		mustNew(t, TypeTransferred, testPayload{ItemID: 0, To: "alice"}),
	}, first[0].Seq, first[0].Hash)

	all := append(first, next...)
	for i, evt := range all {
		if evt.Seq != uint64(i+1) {
			t.Fatalf("event %d seq = %d", i, evt.Seq)
		}
	}
	if all[1].PrevHash != all[0].Hash {
		t.Fatal("expected second event to link to the first")
	}
	if err := Verify(all); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	t.Parallel()

	events := Seal([]Event{
		mustNew(t, TypeMintIssued, testPayload{ItemID: 0, To: "alice"}),
		mustNew(t, TypeTransferred, testPayload{ItemID: 0, To: "bob"}),
	}, 0, "")

	tampered := append([]Event(nil), events...)
	tampered[1].PayloadJSON = []byte(`{"item_id":0,"to":"mallory"}`)
	if err := Verify(tampered); !errors.Is(err, ErrChainBroken) {
		t.Fatalf("verify tampered payload = %v, want ErrChainBroken", err)
	}

	gap := []Event{events[1]}
	if err := Verify(gap); !errors.Is(err, ErrChainBroken) {
		t.Fatalf("verify gap = %v, want ErrChainBroken", err)
	}
}

func TestChainHashDependsOnPrevHash(t *testing.T) {
	t.Parallel()

	evt := mustNew(t, TypeGameResolved, testPayload{})
	if ChainHash(evt, "a") == ChainHash(evt, "b") {
		t.Fatal("expected different hashes for different predecessors")
	}
}
