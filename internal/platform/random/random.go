// Package random draws uniform values from crypto/rand.
package random

import (
	crand "crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// Source yields uniform integers in [0, n).
type Source interface {
	Intn(n int) (int, error)
}

// Crypto is a Source backed by a cryptographic reader.
type Crypto struct {
	reader io.Reader
}

// NewCrypto returns a Source reading from crypto/rand.
func NewCrypto() *Crypto {
	return &Crypto{reader: crand.Reader}
}

// NewCryptoFrom returns a Source reading from r. Intended for tests.
func NewCryptoFrom(r io.Reader) *Crypto {
	return &Crypto{reader: r}
}

// Intn returns a uniform value in [0, n) without modulo bias.
func (c *Crypto) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("random bound must be positive, got %d", n)
	}
	v, err := crand.Int(c.reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("draw random value: %w", err)
	}
	return int(v.Int64()), nil
}

// Fixed is a Source that replays a fixed sequence, wrapping around.
type Fixed struct {
	values []int
	next   int
}

// NewFixed returns a Source that yields values in order.
func NewFixed(values ...int) *Fixed {
	return &Fixed{values: values}
}

// Intn returns the next fixed value, reduced into [0, n).
func (f *Fixed) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("random bound must be positive, got %d", n)
	}
	if len(f.values) == 0 {
		return 0, nil
	}
	v := f.values[f.next%len(f.values)]
	f.next++
	return ((v % n) + n) % n, nil
}
