package search

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"dsva-brute/internal/rangealg"
)

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func mustAlphabet(t *testing.T, s string) rangealg.Alphabet {
	t.Helper()
	a, err := rangealg.NewAlphabet(s)
	if err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	return a
}

func TestRunFindsPreimage(t *testing.T) {
	a := mustAlphabet(t, "abc")
	target := sha256Hex("ab")
	p := rangealg.NewProblem(a, "aa", "cc", target)

	res := Run(p, nil)
	if res.Outcome != Found || res.Candidate != "ab" {
		t.Log("expected Found(ab), got", res)
		t.FailNow()
	}
}

func TestRunExhaustsWhenAbsent(t *testing.T) {
	a := mustAlphabet(t, "abc")
	target := sha256Hex("zz") // not a candidate of "aa".."cc"
	p := rangealg.NewProblem(a, "aa", "cc", target)

	res := Run(p, nil)
	if res.Outcome != Exhausted {
		t.Log("expected Exhausted, got", res)
		t.FailNow()
	}
	if res.Checked != 9 {
		t.Log("expected 9 candidates checked, got", res.Checked)
		t.FailNow()
	}
}

func TestRunTestsEndItself(t *testing.T) {
	a := mustAlphabet(t, "abc")
	target := sha256Hex("cc")
	p := rangealg.NewProblem(a, "aa", "cc", target)

	res := Run(p, nil)
	if res.Outcome != Found || res.Candidate != "cc" {
		t.Log("expected end itself to be tested and found, got", res)
		t.FailNow()
	}
}

type alwaysStopped struct{}

func (alwaysStopped) Stopped() bool { return true }

func TestRunRespectsStopFlag(t *testing.T) {
	a := mustAlphabet(t, "abc")
	target := sha256Hex("zz")
	p := rangealg.NewProblem(a, "aa", "cc", target)

	res := Run(p, alwaysStopped{})
	if res.Outcome != Stopped {
		t.Log("expected Stopped, got", res)
		t.FailNow()
	}
	if res.Checked > 1 {
		t.Log("expected cancellation within O(1) iterations, got", res.Checked)
		t.FailNow()
	}
}
