// Package rangealg implements the candidate-space algebra: indexing strings
// over an ordered alphabet, dividing and merging lexicographic ranges, and
// maintaining a disjoint state-labeled cover of a problem's range. It has no
// I/O dependencies.
package rangealg

import (
	"errors"
	"fmt"
	"strings"
)

// Alphabet is an ordered, distinct sequence of characters. Its length defines
// the base used by index/string_of.
type Alphabet struct {
	chars []rune
	pos   map[rune]int
}

// NewAlphabet builds an Alphabet from a string, validating that every
// character is distinct.
func NewAlphabet(s string) (Alphabet, error) {
	if len(s) == 0 {
		return Alphabet{}, errors.New("rangealg: empty alphabet")
	}

	chars := []rune(s)
	pos := make(map[rune]int, len(chars))
	for i, c := range chars {
		if _, dup := pos[c]; dup {
			return Alphabet{}, fmt.Errorf("rangealg: duplicate character %q in alphabet", c)
		}
		pos[c] = i
	}
	return Alphabet{chars: chars, pos: pos}, nil
}

// Base returns |A|, the alphabet's size.
func (a Alphabet) Base() int {
	return len(a.chars)
}

// First returns A[0].
func (a Alphabet) First() rune {
	return a.chars[0]
}

// Last returns A[len(A)-1].
func (a Alphabet) Last() rune {
	return a.chars[len(a.chars)-1]
}

// At returns the character at position i, 0 <= i < Base().
func (a Alphabet) At(i int) rune {
	return a.chars[i]
}

// PosOf returns the position of c within the alphabet, and whether c belongs
// to it at all.
func (a Alphabet) PosOf(c rune) (int, bool) {
	p, ok := a.pos[c]
	return p, ok
}

// String reconstructs the alphabet's original character sequence.
func (a Alphabet) String() string {
	return string(a.chars)
}

// Repeat builds the length-n string consisting only of c, the idiomatic way
// to build a problem's start (A[0]^min) and end (A[last]^max) bounds.
func Repeat(c rune, n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteRune(c)
	}
	return b.String()
}

// Index maps s, read as a base-b number most-significant-digit-first, to its
// non-negative integer index. Strings of different lengths may share an
// index; callers that need length-sensitive comparisons must track length
// alongside the index (see Compare).
func Index(a Alphabet, s string) (uint64, error) {
	var idx uint64
	b := uint64(a.Base())
	for _, c := range s {
		p, ok := a.PosOf(c)
		if !ok {
			return 0, fmt.Errorf("rangealg: character %q not in alphabet %q", c, a.String())
		}
		idx = idx*b + uint64(p)
	}
	return idx, nil
}

// StringOf returns the unique length-l string with the given index, padding
// unused leading positions with A[0].
func StringOf(a Alphabet, index uint64, l int) string {
	b := uint64(a.Base())
	digits := make([]rune, l)
	for i := l - 1; i >= 0; i-- {
		digits[i] = a.At(int(index % b))
		index /= b
	}
	return string(digits)
}

// Compare orders two strings of A* in length-ascending, then lexicographic,
// order — the order the range algebra and the search engine both rely on.
func Compare(a Alphabet, s, t string) int {
	ls, lt := len([]rune(s)), len([]rune(t))
	if ls != lt {
		if ls < lt {
			return -1
		}
		return 1
	}
	rs, rt := []rune(s), []rune(t)
	for i := range rs {
		if rs[i] == rt[i] {
			continue
		}
		ps, _ := a.PosOf(rs[i])
		pt, _ := a.PosOf(rt[i])
		if ps < pt {
			return -1
		}
		return 1
	}
	return 0
}

// NextString returns the base-b successor of s at fixed length, with carry.
// When s is already the all-last-character string of its length, NextString
// grows the length by one and returns A[0] repeated len(s)+1 times, mirroring
// the search engine's own length-increase rule.
func NextString(a Alphabet, s string) string {
	digits := []rune(s)
	for i := len(digits) - 1; i >= 0; i-- {
		p, _ := a.PosOf(digits[i])
		if p+1 < a.Base() {
			digits[i] = a.At(p + 1)
			return string(digits)
		}
		digits[i] = a.First()
	}
	// every position wrapped: grow by one digit
	return Repeat(a.First(), len(digits)+1)
}

// PrevString returns the base-b predecessor of s at fixed length, with
// borrow. When s is the all-A[0] string of a length above 1, PrevString
// shrinks the length by one and returns A[last] repeated len(s)-1 times,
// the inverse of NextString's growth. Undefined (returns s unchanged) when
// s is the single character A[0] — callers must not call PrevString on the
// global minimum string.
func PrevString(a Alphabet, s string) string {
	digits := []rune(s)
	for i := len(digits) - 1; i >= 0; i-- {
		p, _ := a.PosOf(digits[i])
		if p > 0 {
			digits[i] = a.At(p - 1)
			return string(digits)
		}
		digits[i] = a.Last()
	}
	if len(digits) <= 1 {
		return s
	}
	// every position borrowed: shrink by one digit, all-last-character
	return Repeat(a.Last(), len(digits)-1)
}

// CountOfLength returns how many strings of exactly length l exist over A.
func CountOfLength(a Alphabet, l int) uint64 {
	total := uint64(1)
	b := uint64(a.Base())
	for i := 0; i < l; i++ {
		total *= b
	}
	return total
}
