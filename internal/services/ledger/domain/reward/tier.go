package reward

import (
	"strings"

	apperrors "github.com/louisbranch/spinvault/internal/platform/errors"
)

// Tier is a rarity class, ordered from most to least common.
type Tier int

const (
	TierCommon Tier = iota
	TierRare
	TierEpic
	TierLegendary
)

var tierNames = [...]string{"COMMON", "RARE", "EPIC", "LEGENDARY"}

// Tiers lists every tier in ascending rarity.
var Tiers = []Tier{TierCommon, TierRare, TierEpic, TierLegendary}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool { return t >= TierCommon && t <= TierLegendary }

func (t Tier) String() string {
	if !t.Valid() {
		return "UNKNOWN"
	}
	return tierNames[t]
}

// ParseTier accepts a tier name in any case.
func ParseTier(raw string) (Tier, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	for i, n := range tierNames {
		if n == name {
			return Tier(i), nil
		}
	}
	return 0, apperrors.WithMetadata(apperrors.CodeInvalidTier, "unknown tier", map[string]string{"tier": raw})
}
