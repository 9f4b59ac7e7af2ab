package ledger

import (
	"strconv"
	"time"

	apperrors "github.com/louisbranch/spinvault/internal/platform/errors"
)

// Remaining returns how much of window is left after last, clamped to zero.
// A zero last means the window never started.
func Remaining(last time.Time, window time.Duration, now time.Time) time.Duration {
	if last.IsZero() || window <= 0 {
		return 0
	}
	return max(window-now.Sub(last), 0)
}

// Seconds rounds d up to whole seconds.
func Seconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}

// CooldownError reports an active cooldown with the seconds left.
func CooldownError(what string, remaining time.Duration) error {
	return apperrors.WithMetadata(apperrors.CodeCooldownActive, what+" cooldown active",
		map[string]string{apperrors.MetaRemainingSeconds: strconv.FormatInt(Seconds(remaining), 10)})
}
