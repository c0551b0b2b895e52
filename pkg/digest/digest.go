// Package digest keeps a running SHA3-512 digest over every captured
// frame.
//
// One goroutine absorbs frame bytes while any number of readers take
// snapshots. Both operations hold the same mutex for the length of their
// own critical section only, so a snapshot never sees half of an absorb
// and the live state is never finalized.
package digest

import (
	"bytes"
	"encoding/hex"
	"hash"
	"sync"

	"golang.org/x/crypto/sha3"
)

// Size is the length in bytes of a SHA3-512 digest.
const Size = 64

// Accumulator is a mutex-guarded incremental hash.
type Accumulator struct {
	mu      sync.Mutex
	h       hash.Hash
	absorbs uint64
	bytes   uint64
}

// New returns an empty SHA3-512 accumulator.
func New() *Accumulator {
	return NewWithHash(sha3.New512())
}

// NewWithHash wraps an arbitrary hash state. The state must be fresh.
func NewWithHash(h hash.Hash) *Accumulator {
	return &Accumulator{h: h}
}

// Absorb appends p to the hash state. Empty input is allowed and still
// counts as an absorb.
func (a *Accumulator) Absorb(p []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// hash.Hash.Write never returns an error.
	_, _ = a.h.Write(p)
	a.absorbs++
	a.bytes += uint64(len(p))
}

// Snapshot finalizes a copy of the current state. Sum leaves the
// underlying hash untouched, so absorbing continues from where it was.
func (a *Accumulator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Snapshot{
		sum:     a.h.Sum(nil),
		Absorbs: a.absorbs,
		Bytes:   a.bytes,
	}
}

// Snapshot is the digest value at one point in time. It shares nothing
// with the accumulator and is safe to pass between goroutines.
type Snapshot struct {
	sum []byte

	// Absorbs is the number of Absorb calls folded into the digest.
	Absorbs uint64

	// Bytes is the total length of absorbed input.
	Bytes uint64
}

// Sum returns a copy of the raw digest bytes.
func (s Snapshot) Sum() []byte {
	out := make([]byte, len(s.sum))
	copy(out, s.sum)
	return out
}

// Hex returns the digest as lowercase hexadecimal.
func (s Snapshot) Hex() string {
	return hex.EncodeToString(s.sum)
}

// String implements fmt.Stringer.
func (s Snapshot) String() string {
	return s.Hex()
}

// Equal reports whether two snapshots carry the same digest.
func (s Snapshot) Equal(other Snapshot) bool {
	return bytes.Equal(s.sum, other.sum)
}
