package event

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
)

// ErrChainBroken reports a journal whose sequence or hashes do not link up.
var ErrChainBroken = errors.New("event chain broken")

// ChainHash returns the SHA-256 digest linking evt to prevHash. Every field is
// length-prefixed so distinct envelopes cannot collide by concatenation.
func ChainHash(evt Event, prevHash string) string {
	h := sha256.New()
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], evt.Seq)
	h.Write(seq[:])
	writeField(h, []byte(evt.ID))
	writeField(h, []byte(evt.Type))
	writeField(h, []byte(evt.Actor))
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(evt.Timestamp.UnixMilli()))
	h.Write(ts[:])
	writeField(h, evt.PayloadJSON)
	writeField(h, []byte(prevHash))
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h hash.Hash, b []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b)))
	h.Write(n[:])
	h.Write(b)
}

// Seal assigns sequence numbers and hashes to events, continuing a journal
// whose last event has lastSeq and lastHash. The input slice is not modified.
func Seal(events []Event, lastSeq uint64, lastHash string) []Event {
	sealed := make([]Event, len(events))
	prev := lastHash
	for i, evt := range events {
		evt.Seq = lastSeq + uint64(i) + 1
		evt.PrevHash = prev
		evt.Hash = ChainHash(evt, prev)
		prev = evt.Hash
		sealed[i] = evt
	}
	return sealed
}

// VerifyLink checks that evt directly follows an event with prevSeq and
// prevHash and that its own hash is intact.
func VerifyLink(evt Event, prevSeq uint64, prevHash string) error {
	if evt.Seq != prevSeq+1 {
		return fmt.Errorf("%w: seq %d follows %d", ErrChainBroken, evt.Seq, prevSeq)
	}
	if evt.PrevHash != prevHash {
		return fmt.Errorf("%w: seq %d prev hash mismatch", ErrChainBroken, evt.Seq)
	}
	if ChainHash(evt, prevHash) != evt.Hash {
		return fmt.Errorf("%w: seq %d hash mismatch", ErrChainBroken, evt.Seq)
	}
	return nil
}

// Verify walks a journal from the beginning and reports the first broken link.
func Verify(events []Event) error {
	var seq uint64
	var prev string
	for _, evt := range events {
		if err := VerifyLink(evt, seq, prev); err != nil {
			return err
		}
		seq, prev = evt.Seq, evt.Hash
	}
	return nil
}
