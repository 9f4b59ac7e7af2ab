package ledger

import (
	"strings"
	"unicode"

	apperrors "github.com/louisbranch/spinvault/internal/platform/errors"
)

// Address identifies an actor. The ledger treats it as opaque: identity is
// established by the caller before an action reaches the ledger.
type Address string

// ParseAddress trims raw and rejects empty values or values with whitespace.
func ParseAddress(raw string) (Address, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", apperrors.New(apperrors.CodeInvalidAddress, "address is required")
	}
	if strings.IndexFunc(value, unicode.IsSpace) >= 0 {
		return "", apperrors.WithMetadata(apperrors.CodeInvalidAddress, "address contains whitespace",
			map[string]string{"address": value})
	}
	return Address(value), nil
}

func (a Address) String() string { return string(a) }
