package trade

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/spinvault/internal/platform/errors"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/reward"
)

// SwapID identifies a proposal. Ids start at 1.
type SwapID uint64

// Status is the lifecycle state of a proposal. Every status other than
// StatusPending is terminal.
type Status int

const (
	StatusPending Status = iota
	StatusAccepted
	StatusCancelled
	StatusRejected
)

var statusNames = [...]string{"PENDING", "ACCEPTED", "CANCELLED", "REJECTED"}

func (s Status) String() string {
	if s < StatusPending || s > StatusRejected {
		return "UNKNOWN"
	}
	return statusNames[s]
}

// ParseStatus accepts a status name in any case.
func ParseStatus(raw string) (Status, bool) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	for i, n := range statusNames {
		if n == name {
			return Status(i), true
		}
	}
	return 0, false
}

// Swap is a two-item exchange offer.
type Swap struct {
	ID           SwapID
	Proposer     ledger.Address
	Target       ledger.Address
	ProposerItem reward.ItemID
	TargetItem   reward.ItemID
	Status       Status
	CreatedAt    time.Time
	// ResolvedAt is zero while the swap is pending.
	ResolvedAt time.Time
}

// Pending reports whether the swap can still be resolved.
func (s Swap) Pending() bool { return s.Status == StatusPending }

// SwapProposed is the payload of event.TypeSwapProposed.
type SwapProposed struct {
	SwapID       SwapID         `json:"swap_id"`
	Proposer     ledger.Address `json:"proposer"`
	Target       ledger.Address `json:"target"`
	ProposerItem reward.ItemID  `json:"proposer_item"`
	TargetItem   reward.ItemID  `json:"target_item"`
}

// SwapResolved is the payload of the accepted, cancelled, and rejected events.
type SwapResolved struct {
	SwapID SwapID `json:"swap_id"`
}

func notPending(id SwapID, status string) error {
	return apperrors.WithMetadata(apperrors.CodeNotPending, "swap is not pending", map[string]string{
		apperrors.MetaSwapID: formatSwap(id),
		apperrors.MetaStatus: status,
	})
}
