// Package search implements the per-node enumerator over A*: given a
// Problem, it walks candidates in lexicographic/length-ascending order,
// hashing each one, until a match is found, the range is exhausted, or a
// cooperative stop flag is raised.
package search

import (
	"crypto/sha256"
	"encoding/hex"

	"dsva-brute/internal/rangealg"
)

// Outcome distinguishes why a search call returned with no match.
type Outcome int8

const (
	// Found means Result holds a matching candidate.
	Found Outcome = iota

	// Exhausted means every candidate in [start,end] was tested, no match.
	Exhausted

	// Stopped means the cooperative stop flag was observed before the
	// range was exhausted.
	Stopped
)

// Result is the outcome of one Run call.
type Result struct {
	Outcome   Outcome
	Candidate string
	Checked   uint64
}

// StopFlag is read between candidates; once true, Run returns promptly
// (within O(1) iterations) with Stopped. It is the caller's job to decide
// when to raise it — Run only observes it.
type StopFlag interface {
	Stopped() bool
}

// Run enumerates candidates starting from problem.Current (inclusive)
// through problem.End (inclusive), hashing each one. Per spec, the order of
// operations per candidate is: hash first, then advance, then test
// termination — so that End itself is always tested, even when stop is
// never raised.
func Run(problem rangealg.Problem, stop StopFlag) Result {
	current := problem.Current
	var checked uint64

	for {
		if stop != nil && stop.Stopped() {
			return Result{Outcome: Stopped, Checked: checked}
		}

		if hashMatches(current, problem.Hash) {
			return Result{Outcome: Found, Candidate: current, Checked: checked + 1}
		}
		checked++

		if current == problem.End {
			return Result{Outcome: Exhausted, Checked: checked}
		}
		current = rangealg.NextString(problem.Alphabet, current)
	}
}

// hashMatches reports whether sha256(candidate) hex-encodes to want,
// case-insensitively on the stored hash (the wire format always carries
// lowercase hex, but comparisons tolerate either case from a human-typed
// `solve` command).
func hashMatches(candidate, want string) bool {
	sum := sha256.Sum256([]byte(candidate))
	got := hex.EncodeToString(sum[:])
	return equalFoldHex(got, want)
}

func equalFoldHex(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// AtomicStopFlag adapts a *int32-backed flag (see internal/node) to the
// StopFlag interface expected by Run.
type AtomicStopFlag struct {
	load func() bool
}

// NewAtomicStopFlag wraps a load function, typically atomic.LoadInt32(p)==1.
func NewAtomicStopFlag(load func() bool) AtomicStopFlag {
	return AtomicStopFlag{load: load}
}

// Stopped implements StopFlag.
func (f AtomicStopFlag) Stopped() bool {
	return f.load != nil && f.load()
}
