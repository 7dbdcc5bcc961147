package node

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"testing"
	"time"

	"dsva-brute/internal/search"
)

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func waitLeaderDone(t *testing.T, n *Node) (found bool, solution string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		done, found, solution := n.LeaderOutcome()
		if done {
			return found, solution
		}
		time.Sleep(time.Millisecond)
	}
	t.Log("leader session never completed")
	t.FailNow()
	return false, ""
}

func TestInitiateSolveSingleNodeFindsMatch(t *testing.T) {
	root, rootLn := startTestNode(t, 1, nil)
	defer rootLn.Close()

	if _, err := root.InitiateCalc(); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}

	target := sha256Hex("bb")
	if err := root.InitiateSolve("ab", "aa", "bb", target); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}

	found, solution := waitLeaderDone(t, root)
	if !found || solution != "bb" {
		t.Log("expected to find \"bb\", got found =", found, "solution =", solution)
		t.FailNow()
	}
}

func TestInitiateSolveSingleNodeExhausts(t *testing.T) {
	root, rootLn := startTestNode(t, 1, nil)
	defer rootLn.Close()

	if _, err := root.InitiateCalc(); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}

	absent := "0000000000000000000000000000000000000000000000000000000000000000"
	if err := root.InitiateSolve("ab", "aa", "bb", absent); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}

	found, _ := waitLeaderDone(t, root)
	if found {
		t.Log("expected no match over a hash absent from the range")
		t.FailNow()
	}
}

func TestInitiateSolveDistributesToChildAndStopsIt(t *testing.T) {
	leaf, leafLn := startTestNode(t, 1, nil)
	defer leafLn.Close()

	root, rootLn := startTestNode(t, 1, []string{leaf.Address})
	defer rootLn.Close()

	if _, err := root.InitiateCalc(); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}

	// Found near the start of the range, biasing the match toward whichever
	// half root keeps for itself, so the leaf's half is still running when
	// root reports the match and broadcasts STOP.
	target := sha256Hex("aa")
	if err := root.InitiateSolve("ab", "aa", "bbbb", target); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}

	found, solution := waitLeaderDone(t, root)
	if !found || solution != "aa" {
		t.Log("expected to find \"aa\", got found =", found, "solution =", solution)
		t.FailNow()
	}

	deadline := time.Now().Add(time.Second)
	for !leaf.stopped() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !leaf.stopped() {
		t.Log("expected leaf's stop flag to be raised after STOP propagation")
		t.FailNow()
	}
}

func TestInitiateSolveRecordsMeasurements(t *testing.T) {
	root, rootLn := startTestNode(t, 1, nil)
	defer rootLn.Close()

	measureFile := filepath.Join(t.TempDir(), "measure.csv")
	m, err := search.NewMeasure(measureFile)
	if err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	root.SetMeasure(m)
	defer m.Close()

	if _, err := root.InitiateCalc(); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	if err := root.InitiateSolve("ab", "aa", "bb", sha256Hex("bb")); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	if found, solution := waitLeaderDone(t, root); !found || solution != "bb" {
		t.Log("expected to find \"bb\", got found =", found, "solution =", solution)
		t.FailNow()
	}
	if err := m.Flush(); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
}
