// Package node implements a single participant in the distributed
// brute-force search: its role machine (IDLE/LEADER/WORKER), its peer set,
// the power-aggregation and task-distribution protocols, and the transport
// dispatcher that ties them to the wire codec.
package node

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"dsva-brute/internal/rangealg"
	"dsva-brute/internal/search"

	"github.com/google/uuid"
)

// Role is one of the three states a Node may occupy.
type Role int8

const (
	Idle Role = iota
	Leader
	Worker
)

func (r Role) String() string {
	switch r {
	case Leader:
		return "LEADER"
	case Worker:
		return "WORKER"
	default:
		return "IDLE"
	}
}

// leaderSession holds a LEADER's authoritative session state: the original
// problem, the live state map, and the bookkeeping needed to recognize
// completion and to cancel the whole subtree on a match.
type leaderSession struct {
	sessionID  uint64
	problem    rangealg.Problem
	parts      *rangealg.PartMap
	totalPower uint32
	solution   string
	solved     bool
	cancel     context.CancelFunc
}

// workerSession holds a WORKER's session state: its parent address, the
// session id stamped on every message it will accept, and — when this
// worker has children of its own in the spanning tree — the same part-map
// aggregation a LEADER keeps over its assigned sub-range, so a WORKER with
// children can detect its own sub-range's completion before forwarding one
// combined SOLVE_RESPONSE upward.
type workerSession struct {
	sessionID  uint64
	parentAddr string
	cancel     context.CancelFunc

	assigned rangealg.PartOfAProblem
	parts    *rangealg.PartMap
	solution string
	solved   bool
}

// Node is one process participating in the system. Every mutable field
// group is guarded by its own mutex; the lock order role -> friends ->
// communicating -> assignedPart must be respected, and no lock may be held
// across a network call (§5).
type Node struct {
	Address string
	Log     *log.Logger

	localPower uint32

	muRole sync.Mutex
	role   Role
	leader *leaderSession
	worker *workerSession

	friends *friendRegistry

	muComm        sync.Mutex
	communicating bool

	muAssigned   sync.Mutex
	assignedPart *rangealg.PartOfAProblem

	stopFlag int32 // atomic; sticky true once set for the current session

	sessionSeq uint64 // atomic counter minting new session ids

	connectTimeout time.Duration
	frameMaxBytes  int

	muMeasure sync.Mutex
	measure   *search.Measure

	wg sync.WaitGroup // tracks background search workers, so die/session end can be awaited
}

// SetMeasure attaches an optional per-search timing recorder: every local
// search run this node performs from now on is wrapped in m.RunAndRecord
// instead of called directly. Passing nil detaches it.
func (n *Node) SetMeasure(m *search.Measure) {
	n.muMeasure.Lock()
	n.measure = m
	n.muMeasure.Unlock()
}

// New builds an IDLE node bound to address with the given local power
// (minimum 1) and an initial friend list, using the package's default
// timeouts and frame size. See NewWithConfig to override them.
func New(address string, localPower uint32, friends []string, logger *log.Logger) *Node {
	return NewWithConfig(address, localPower, friends, logger, 3*time.Second, 1024)
}

// NewWithConfig is New plus an explicit connect/IO timeout and maximum frame
// size, as loaded from a NodeConfig (internal/config).
func NewWithConfig(address string, localPower uint32, friends []string, logger *log.Logger, connectTimeout time.Duration, frameMaxBytes int) *Node {
	if localPower < 1 {
		localPower = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	if connectTimeout <= 0 {
		connectTimeout = 3 * time.Second
	}
	if frameMaxBytes <= 0 {
		frameMaxBytes = 1024
	}

	n := &Node{
		Address:        address,
		Log:            logger,
		localPower:     localPower,
		role:           Idle,
		friends:        newFriendRegistry(),
		communicating:  true,
		connectTimeout: connectTimeout,
		frameMaxBytes:  frameMaxBytes,
	}
	for _, f := range friends {
		n.friends.add(f)
	}
	return n
}

// Role returns the node's current role.
func (n *Node) Role() Role {
	n.muRole.Lock()
	defer n.muRole.Unlock()
	return n.role
}

// Communicating reports the current value of the communicating gate.
func (n *Node) Communicating() bool {
	n.muComm.Lock()
	defer n.muComm.Unlock()
	return n.communicating
}

// SetCommunicating overwrites the communicating gate.
func (n *Node) SetCommunicating(v bool) {
	n.muComm.Lock()
	defer n.muComm.Unlock()
	n.communicating = v
}

// ToggleCommunicating flips the communicating gate and returns its new
// value.
func (n *Node) ToggleCommunicating() bool {
	n.muComm.Lock()
	defer n.muComm.Unlock()
	n.communicating = !n.communicating
	return n.communicating
}

// nextSessionID mints a fresh, process-unique session id.
func (n *Node) nextSessionID() uint64 {
	return atomic.AddUint64(&n.sessionSeq, 1)
}

// newTraceID mints a per-connection correlation id for log lines, carrying
// no protocol meaning and never placed on the wire.
func newTraceID() string {
	return uuid.NewString()[:8]
}

// stopped reads the cooperative stop flag.
func (n *Node) stopped() bool {
	return atomic.LoadInt32(&n.stopFlag) != 0
}

// raiseStop sets the stop flag; it is sticky for the rest of the session.
func (n *Node) raiseStop() {
	atomic.StoreInt32(&n.stopFlag, 1)
}

// clearStop resets the stop flag at the start of a new session.
func (n *Node) clearStop() {
	atomic.StoreInt32(&n.stopFlag, 0)
}

// stopFlagView hands the search engine a StopFlag that reads this node's
// atomic stop flag.
func (n *Node) stopFlagView() search.StopFlag {
	return search.NewAtomicStopFlag(n.stopped)
}

// toIdleLocked resets role state to IDLE, clearing session bookkeeping and
// friend-type assignments. Callers must hold muRole.
func (n *Node) toIdleLocked() {
	n.role = Idle
	n.leader = nil
	n.worker = nil
	n.friends.resetSession()

	n.muAssigned.Lock()
	n.assignedPart = nil
	n.muAssigned.Unlock()
}

// LeaderOutcome reports the current LEADER session's completion status: done
// is true once a match has been recorded or the whole problem range has been
// reported searched without one, found reports
// whether a match was reported, and solution is that match (empty when not
// found or not yet done). It returns done=false if this node is not LEADER.
func (n *Node) LeaderOutcome() (done, found bool, solution string) {
	n.muRole.Lock()
	defer n.muRole.Unlock()
	if n.role != Leader || n.leader == nil {
		return false, false, ""
	}
	return n.leader.solved, n.leader.solution != "", n.leader.solution
}

// Die transitions the node out of its current role and releases session
// state. It does not exit the process — that is cmd/node/main.go's job, per
// the out-of-scope CLI boundary (§1).
func (n *Node) Die() {
	n.muRole.Lock()
	if n.leader != nil && n.leader.cancel != nil {
		n.leader.cancel()
	}
	if n.worker != nil && n.worker.cancel != nil {
		n.worker.cancel()
	}
	n.raiseStop()
	n.toIdleLocked()
	n.muRole.Unlock()

	n.wg.Wait()
}
