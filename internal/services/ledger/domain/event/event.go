package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of event.
type Type string

// Reward ledger events.
const (
	TypeMintIssued  Type = "reward.mint_issued"
	TypeTransferred Type = "reward.transferred"
)

// Game engine events.
const (
	TypeGameResolved Type = "roulette.game_resolved"
)

// Trade engine events.
const (
	TypeSwapProposed  Type = "trade.swap_proposed"
	TypeSwapAccepted  Type = "trade.swap_accepted"
	TypeSwapCancelled Type = "trade.swap_cancelled"
	TypeSwapRejected  Type = "trade.swap_rejected"
)

// Domain returns the prefix before the first dot, e.g. "trade".
func (t Type) Domain() string {
	if i := strings.IndexByte(string(t), '.'); i >= 0 {
		return string(t[:i])
	}
	return string(t)
}

// Event is an immutable record of one committed change.
type Event struct {
	// Seq is the position in the journal, starting at 1. Assigned at commit.
	Seq uint64
	// ID is a random identifier for cross-system correlation.
	ID   string
	Type Type
	// Actor is the authenticated address whose action produced the event.
	Actor string
	// Timestamp is when the action ran, UTC with millisecond precision.
	Timestamp time.Time
	// PayloadJSON holds the type-specific body.
	PayloadJSON []byte
	// PrevHash is the Hash of the preceding event, empty for the first one.
	PrevHash string
	// Hash links this event to PrevHash.
	Hash string
}

// New builds an unsealed event with a fresh ID and a JSON-encoded payload.
func New(typ Type, actor string, at time.Time, payload any) (Event, error) {
	if strings.TrimSpace(string(typ)) == "" {
		return Event{}, fmt.Errorf("event type is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return Event{
		ID:          uuid.NewString(),
		Type:        typ,
		Actor:       actor,
		Timestamp:   NormalizeTime(at),
		PayloadJSON: data,
	}, nil
}

// Decode unmarshals the payload into target.
func (e Event) Decode(target any) error {
	if err := json.Unmarshal(e.PayloadJSON, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// NormalizeTime converts t to UTC at millisecond precision, the resolution the
// journal stores.
func NormalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Millisecond)
}
