// Package bitmask implements the packed per-element validity bitmap used by
// columns: one bit per element, bit set = valid (non-null). Bits are packed
// into 32-bit words; Set and Clear use atomic word updates so parallel
// workers may safely flip different bits that share a word.
package bitmask

import (
	"math/bits"
	"sync/atomic"
)

const wordBits = 32

// Bitmask is a packed validity bitmap over a fixed number of bits.
// Bits beyond Len() are storage padding and carry no meaning.
type Bitmask struct {
	words []uint32
	nbits int
}

// New creates a bitmask of n bits, all clear (all null).
func New(n int) *Bitmask {
	return &Bitmask{
		words: make([]uint32, numWords(n)),
		nbits: n,
	}
}

// NewAllValid creates a bitmask of n bits, all set.
func NewAllValid(n int) *Bitmask {
	m := New(n)
	for i := range m.words {
		m.words[i] = ^uint32(0)
	}
	m.maskTail()
	return m
}

// FromBools creates a bitmask with bit i set iff valid[i] is true.
func FromBools(valid []bool) *Bitmask {
	m := New(len(valid))
	for i, v := range valid {
		if v {
			m.words[i/wordBits] |= 1 << (uint(i) % wordBits)
		}
	}
	return m
}

// FromWords reconstructs a bitmask from its raw packed words, e.g. after
// decoding a snapshot. The slice is copied.
func FromWords(words []uint32, n int) *Bitmask {
	m := New(n)
	copy(m.words, words)
	m.maskTail()
	return m
}

// Len returns the number of addressable bits.
func (m *Bitmask) Len() int { return m.nbits }

// IsSet reports whether bit i is set. Panics if i is out of range.
func (m *Bitmask) IsSet(i int) bool {
	m.check(i)
	return m.words[i/wordBits]&(1<<(uint(i)%wordBits)) != 0
}

// Set sets bit i. Safe for concurrent use against other bits of the same
// word. Panics if i is out of range.
func (m *Bitmask) Set(i int) {
	m.check(i)
	atomic.OrUint32(&m.words[i/wordBits], 1<<(uint(i)%wordBits))
}

// Clear clears bit i. Safe for concurrent use against other bits of the
// same word. Panics if i is out of range.
func (m *Bitmask) Clear(i int) {
	m.check(i)
	atomic.AndUint32(&m.words[i/wordBits], ^uint32(1<<(uint(i)%wordBits)))
}

// SetTo sets or clears bit i according to valid.
func (m *Bitmask) SetTo(i int, valid bool) {
	if valid {
		m.Set(i)
	} else {
		m.Clear(i)
	}
}

// CountSet returns the number of set bits in [0, Len()).
func (m *Bitmask) CountSet() int {
	// Tail padding past nbits is kept clear by every constructor and mutator.
	n := 0
	for _, w := range m.words {
		n += bits.OnesCount32(w)
	}
	return n
}

// CountUnset returns the number of clear bits in [0, Len()), i.e. the null
// count of a column using this bitmask.
func (m *Bitmask) CountUnset() int {
	return m.nbits - m.CountSet()
}

// Clone returns a deep copy.
func (m *Bitmask) Clone() *Bitmask {
	c := New(m.nbits)
	copy(c.words, m.words)
	return c
}

// Words exposes the raw packed words for serialization. The returned slice
// aliases the bitmask and must not be mutated.
func (m *Bitmask) Words() []uint32 { return m.words }

// Equal reports whether two bitmasks have identical length and bits.
func (m *Bitmask) Equal(o *Bitmask) bool {
	if m.nbits != o.nbits {
		return false
	}
	for i, w := range m.words {
		if w != o.words[i] {
			return false
		}
	}
	return true
}

func (m *Bitmask) check(i int) {
	if i < 0 || i >= m.nbits {
		panic("bitmask: index out of range")
	}
}

// maskTail clears padding bits past nbits in the last word.
func (m *Bitmask) maskTail() {
	if tail := uint(m.nbits) % wordBits; tail != 0 && len(m.words) > 0 {
		m.words[len(m.words)-1] &= (1 << tail) - 1
	}
}

func numWords(n int) int {
	return (n + wordBits - 1) / wordBits
}
