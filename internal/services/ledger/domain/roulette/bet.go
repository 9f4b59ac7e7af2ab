package roulette

import (
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/spinvault/internal/platform/errors"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/reward"
)

// Pockets is the number of pockets on a European wheel (0 through 36).
const Pockets = 37

// BetKind is one of the twelve supported bets.
type BetKind int

const (
	BetRed BetKind = iota
	BetBlack
	BetEven
	BetOdd
	BetDozen1
	BetDozen2
	BetDozen3
	BetColumn1
	BetColumn2
	BetColumn3
	BetNumber
	BetZero
)

var betNames = [...]string{
	"RED", "BLACK", "EVEN", "ODD",
	"DOZEN_1", "DOZEN_2", "DOZEN_3",
	"COLUMN_1", "COLUMN_2", "COLUMN_3",
	"NUMBER", "ZERO",
}

var redPockets = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
	14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
	25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// Valid reports whether k is a known bet.
func (k BetKind) Valid() bool { return k >= BetRed && k <= BetZero }

func (k BetKind) String() string {
	if !k.Valid() {
		return "UNKNOWN"
	}
	return betNames[k]
}

// ParseBetKind accepts a bet name in any case or its numeric value.
func ParseBetKind(raw string) (BetKind, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	for i, n := range betNames {
		if n == value {
			return BetKind(i), nil
		}
	}
	if n, err := strconv.Atoi(value); err == nil && BetKind(n).Valid() {
		return BetKind(n), nil
	}
	return 0, invalidBetKind(raw)
}

func invalidBetKind(raw string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidBetKind, "unknown bet kind", map[string]string{"bet_kind": raw})
}

// Wins reports whether the bet pays on outcome. number is only read for
// BetNumber.
func (k BetKind) Wins(outcome, number int) bool {
	if outcome == 0 {
		return k == BetZero
	}
	switch k {
	case BetRed:
		return redPockets[outcome]
	case BetBlack:
		return !redPockets[outcome]
	case BetEven:
		return outcome%2 == 0
	case BetOdd:
		return outcome%2 == 1
	case BetDozen1, BetDozen2, BetDozen3:
		return (outcome-1)/12 == int(k-BetDozen1)
	case BetColumn1, BetColumn2, BetColumn3:
		return (outcome-1)%3 == int(k-BetColumn1)
	case BetNumber:
		return outcome == number
	default:
		return false
	}
}

// Tier returns the reward tier for a winning bet; narrower bets earn rarer
// rewards.
func (k BetKind) Tier() reward.Tier {
	switch k {
	case BetDozen1, BetDozen2, BetDozen3, BetColumn1, BetColumn2, BetColumn3:
		return reward.TierRare
	case BetNumber:
		return reward.TierEpic
	case BetZero:
		return reward.TierLegendary
	default:
		return reward.TierCommon
	}
}

// normalizeNumber validates number against k and returns the value to record.
func normalizeNumber(k BetKind, number int) (int, error) {
	switch k {
	case BetNumber:
		if number < 1 || number > 36 {
			return 0, invalidNumber(k, number, "1-36")
		}
		return number, nil
	case BetZero:
		if number != 0 {
			return 0, invalidNumber(k, number, "0")
		}
		return 0, nil
	default:
		return 0, nil
	}
}

func invalidNumber(k BetKind, number int, expected string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidNumber, "number does not fit bet kind", map[string]string{
		"bet_kind":             k.String(),
		"number":               strconv.Itoa(number),
		apperrors.MetaExpected: expected,
	})
}
