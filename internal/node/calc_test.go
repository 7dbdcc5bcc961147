package node

import (
	"net"
	"testing"
	"time"
)

func startTestNode(t *testing.T, power uint32, friends []string) (*Node, net.Listener) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	n := New(ln.Addr().String(), power, friends, nil)
	go n.Serve(ln)
	return n, ln
}

func TestInitiateCalcAggregatesPower(t *testing.T) {
	leaf, leafLn := startTestNode(t, 2, nil)
	defer leafLn.Close()

	root, rootLn := startTestNode(t, 3, []string{leaf.Address})
	defer rootLn.Close()

	total, err := root.InitiateCalc()
	if err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	if total != 5 {
		t.Log("expected aggregated power 5, got", total)
		t.FailNow()
	}
	if root.Role() != Leader {
		t.Log("expected root to become LEADER, got", root.Role())
		t.FailNow()
	}

	// give the leaf's handler goroutine a moment to finish its own
	// CALC_RESPONSE round trip before asserting its role.
	deadline := time.Now().Add(time.Second)
	for leaf.Role() != Worker && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if leaf.Role() != Worker {
		t.Log("expected leaf to become WORKER, got", leaf.Role())
		t.FailNow()
	}
}

func TestInitiateCalcRefusesWhenNotIdle(t *testing.T) {
	leaf, leafLn := startTestNode(t, 1, nil)
	defer leafLn.Close()

	root, rootLn := startTestNode(t, 1, []string{leaf.Address})
	defer rootLn.Close()

	if _, err := root.InitiateCalc(); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	if _, err := root.InitiateCalc(); err != ErrBusy {
		t.Log("expected ErrBusy on second InitiateCalc, got", err)
		t.FailNow()
	}
}
