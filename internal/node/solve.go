package node

import (
	"context"

	"dsva-brute/internal/protocol"
	"dsva-brute/internal/rangealg"
	"dsva-brute/internal/search"
)

// InitiateSolve starts a search session as LEADER. The node must already be
// LEADER of a completed CALC session (see InitiateCalc): this call reuses
// that spanning tree rather than re-electing one, per §4.6.
func (n *Node) InitiateSolve(alphabet, start, end, hash string) error {
	n.muRole.Lock()
	if n.role != Leader || n.leader == nil {
		n.muRole.Unlock()
		return ErrBusy
	}
	session := n.leader.sessionID
	children := n.friends.inPeerOrder()
	n.muRole.Unlock()

	a, err := rangealg.NewAlphabet(alphabet)
	if err != nil {
		return err
	}
	problem := rangealg.NewProblem(a, start, end, hash)

	n.muRole.Lock()
	if n.leader != nil && n.leader.sessionID == session {
		n.leader.problem = problem
	}
	n.muRole.Unlock()

	only := make([]Friend, 0, len(children))
	for _, c := range children {
		if c.Type == Child {
			only = append(only, c)
		}
	}

	n.beginSolving(session, problem.AsPart(), only, "")
	return nil
}

// childAssignment pairs a child with the merged, contiguous slab of parts
// it has been given.
type childAssignment struct {
	friend Friend
	part   rangealg.PartOfAProblem
}

// beginSolving divides assigned into total_power = self.power + Σ
// child.power contiguous parts (§4.6 steps 3-4), reserves the first
// self.power parts (merged into one range) for this node's own search, and
// — in peer-set order — hands each child its power's
// worth of contiguous parts merged into one range (§4.6 step 5, mirroring
// the original's `take_n = friend.power; merge_parts(...)`). parentAddr is
// empty at the root.
func (n *Node) beginSolving(session uint64, assigned rangealg.PartOfAProblem, children []Friend, parentAddr string) {
	totalPower := n.localPower
	for _, c := range children {
		totalPower += c.Power
	}
	if totalPower < 1 {
		totalPower = 1
	}

	parts, err := rangealg.DivideIntoN(assigned, int(totalPower))
	if err != nil || len(parts) == 0 {
		// Nothing to search (e.g. the assigned range is empty); report
		// exhausted immediately.
		n.reportUp(session, parentAddr, false, "", true)
		return
	}

	pm := rangealg.NewPartMap(parts)
	ctx, cancel := context.WithCancel(context.Background())

	// pa slabs the fresh DivideIntoN output into this node's own share plus
	// one power-weighted contiguous slab per child, the role the teacher's
	// ArrayHT plays for a growable, by-key-indexed collection.
	pa := rangealg.NewPartArray(parts)
	ownSlab := pa.Slab(0, int(n.localPower))
	own, err := rangealg.MergeParts(ownSlab)
	if err != nil {
		ownSlab = ownSlab[:1]
		own = ownSlab[0]
	}

	assignments := make([]childAssignment, 0, len(children))
	cursor := len(ownSlab)
	for _, c := range children {
		if cursor >= pa.Len() {
			break
		}
		take := int(c.Power)
		if take < 1 {
			take = 1
		}
		slab := pa.Slab(cursor, take)
		if len(slab) == 0 {
			break
		}
		merged, err := rangealg.MergeParts(slab)
		if err != nil {
			// Slabs drawn from one DivideIntoN output are always
			// contiguous; a merge failure here would mean pa itself is
			// inconsistent, so there is nothing sane left to assign.
			break
		}
		merged.State = rangealg.Distributed
		assignments = append(assignments, childAssignment{friend: c, part: merged})
		cursor += len(slab)
	}

	// pm is shared by this goroutine's own book-keeping and every future
	// applyChildState call from a handler goroutine; every mutation and
	// read of it is serialized under muRole, which already guards the
	// leaderSession/workerSession it lives inside of.
	n.muRole.Lock()
	if parentAddr == "" {
		if n.leader != nil && n.leader.sessionID == session {
			n.leader.parts = pm
			n.leader.cancel = cancel
		}
	} else {
		n.worker = &workerSession{sessionID: session, parentAddr: parentAddr, assigned: assigned, parts: pm, cancel: cancel}
	}
	for _, asg := range assignments {
		_ = pm.Apply(rangealg.PartOfAProblem{Alphabet: asg.part.Alphabet, Hash: asg.part.Hash, Start: asg.part.Start, End: asg.part.End, State: rangealg.Distributed})
	}
	own.State = rangealg.Solving
	_ = pm.Apply(own)
	n.muRole.Unlock()

	for _, asg := range assignments {
		child, part := asg.friend, asg.part
		n.friends.update(child.Address, func(f *Friend) { p := part; f.AssignedPart = &p })
		go n.sendSolve(session, child.Address, part)
	}

	n.wg.Add(1)
	go n.runLocalSearch(ctx, session, parentAddr, own)
}

func (n *Node) sendSolve(session uint64, to string, part rangealg.PartOfAProblem) {
	_, err := n.SendMessage(protocol.Frame{
		Kind:     protocol.SOLVE,
		From:     n.Address,
		To:       to,
		Session:  session,
		Alphabet: part.Alphabet.String(),
		Start:    part.Start,
		End:      part.End,
		Hash:     part.Hash,
	})
	if err != nil {
		// Treat an undeliverable sub-range as exhausted rather than hanging
		// the session forever; the peer is already evicted by SendMessage.
		n.applyChildState(session, part.Start, part.End, rangealg.SearchedAndNotFound, "")
	}
}

func (n *Node) runLocalSearch(ctx context.Context, session uint64, parentAddr string, part rangealg.PartOfAProblem) {
	defer n.wg.Done()

	n.muAssigned.Lock()
	n.assignedPart = &part
	n.muAssigned.Unlock()
	defer func() {
		n.muAssigned.Lock()
		n.assignedPart = nil
		n.muAssigned.Unlock()
	}()

	problem := rangealg.Problem{Alphabet: part.Alphabet, Start: part.Start, End: part.End, Hash: part.Hash, Current: part.Start}
	stop := n.stopFlagView()

	n.muMeasure.Lock()
	m := n.measure
	n.muMeasure.Unlock()

	var res search.Result
	if m != nil {
		res = m.RunAndRecord(func() search.Result { return search.Run(problem, stop) })
	} else {
		res = search.Run(problem, stop)
	}

	select {
	case <-ctx.Done():
		return
	default:
	}

	switch res.Outcome {
	case search.Found:
		n.raiseStop()
		n.applyChildState(session, part.Start, part.End, rangealg.SearchedAndNotFound, res.Candidate)
	case search.Exhausted:
		n.applyChildState(session, part.Start, part.End, rangealg.SearchedAndNotFound, "")
	case search.Stopped:
		// A sibling already found it or the session was cancelled; leave
		// this slice's state alone, the finalize check below still fires.
		n.checkCompletion(session, parentAddr)
	}
}

// handleSolve answers an incoming SOLVE: if this node has children of its
// own, it recurses (dividing the assigned range again); otherwise it
// searches the range itself.
func (n *Node) handleSolve(f protocol.Frame) *protocol.Frame {
	a, err := rangealg.NewAlphabet(f.Alphabet)
	if err != nil {
		return &protocol.Frame{Kind: protocol.ACK, From: n.Address, To: f.From, Session: f.Session}
	}
	assigned := rangealg.PartOfAProblem{Alphabet: a, Hash: f.Hash, Start: f.Start, End: f.End, State: rangealg.NotDistributed}

	children := make([]Friend, 0)
	for _, c := range n.friends.inPeerOrder() {
		if c.Type == Child {
			children = append(children, c)
		}
	}

	n.clearStop()
	n.beginSolving(f.Session, assigned, children, f.From)
	return &protocol.Frame{Kind: protocol.ACK, From: n.Address, To: f.From, Session: f.Session}
}

// handleSolveResponse records a child's reported sub-range state and checks
// whether this node's whole assigned range is now decided. Per §4.6, a
// reply with space_searched=false (pre-empted before completion) leaves its
// sub-range NotDistributed so it can be re-assigned; only a fully searched
// reply marks it SearchedAndNotFound.
func (n *Node) handleSolveResponse(f protocol.Frame) {
	state := rangealg.NotDistributed
	if f.SpaceSearched {
		state = rangealg.SearchedAndNotFound
	}
	n.applyChildState(f.Session, f.Start, f.End, state, f.Solution)
}

// snapshotSessionLocked returns the PartMap, range bounds and alphabet for
// session, whichever of leader/worker it belongs to. Caller must hold
// muRole.
func (n *Node) snapshotSessionLocked(session uint64) (pm *rangealg.PartMap, start, end string, alphabet rangealg.Alphabet, solution, parentAddr string, ok bool) {
	switch {
	case n.leader != nil && n.leader.sessionID == session:
		return n.leader.parts, n.leader.problem.Start, n.leader.problem.End, n.leader.problem.Alphabet, n.leader.solution, "", true
	case n.worker != nil && n.worker.sessionID == session:
		return n.worker.parts, n.worker.assigned.Start, n.worker.assigned.End, n.worker.assigned.Alphabet, n.worker.solution, n.worker.parentAddr, true
	default:
		return nil, "", "", rangealg.Alphabet{}, "", "", false
	}
}

// applyChildState folds one sub-range's reported state into session's
// PartMap and, if that completes the whole assigned range, reports the
// outcome upward. The map mutation and the completion read happen in the
// same muRole critical section, since handler goroutines for sibling
// sub-ranges may call this concurrently.
func (n *Node) applyChildState(session uint64, start, end string, state rangealg.State, solution string) {
	n.muRole.Lock()
	pm, rs, re, alphabet, sessSolution, parentAddr, ok := n.snapshotSessionLocked(session)
	if ok && solution != "" {
		switch {
		case n.leader != nil && n.leader.sessionID == session:
			n.leader.solution = solution
		case n.worker != nil && n.worker.sessionID == session:
			n.worker.solution = solution
		}
		sessSolution = solution
	}
	var done, found bool
	if ok && pm != nil {
		_ = pm.Apply(rangealg.PartOfAProblem{Alphabet: alphabet, Start: start, End: end, State: state})
		found = sessSolution != ""
		done = found || pm.FullyCoveredBy(rangealg.SearchedAndNotFound, rs, re)
	}
	n.muRole.Unlock()

	if ok && solution != "" {
		n.raiseStop()
	}
	if done {
		// done is only ever reached via a match or via full coverage by
		// SearchedAndNotFound, both of which are a fully searched outcome
		// per §4.6 ("on match" / "on exhaustion" both carry space_searched
		// =true).
		n.reportUp(session, parentAddr, found, sessSolution, true)
	}
}

// checkCompletion re-reads session's already-recorded state (no mutation)
// and reports upward if it is now fully decided. Used after a local search
// returns Stopped, when another branch's result already decided the range.
func (n *Node) checkCompletion(session uint64, parentAddr string) {
	n.muRole.Lock()
	pm, rs, re, _, sessSolution, pa, ok := n.snapshotSessionLocked(session)
	var done, found bool
	if ok && pm != nil {
		found = sessSolution != ""
		done = found || pm.FullyCoveredBy(rangealg.SearchedAndNotFound, rs, re)
	}
	n.muRole.Unlock()

	if !done {
		return
	}
	if pa != "" {
		parentAddr = pa
	}
	n.reportUp(session, parentAddr, found, sessSolution, true)
}

// reportUp delivers this node's final outcome for session: to its parent
// via SOLVE_RESPONSE if it has one, or into the leader session's solved
// flag if this node is the root. spaceSearched mirrors §4.6's wire bit:
// true for a match or a full exhaustion, false for a pre-empted range that
// the leader should consider re-assignable.
func (n *Node) reportUp(session uint64, parentAddr string, found bool, solution string, spaceSearched bool) {
	if found {
		// Stop this node's own still-running children immediately rather
		// than waiting for the eventual STOP cascade down from the root.
		n.broadcastStop(session)
	}

	n.muRole.Lock()
	if n.leader != nil && n.leader.sessionID == session {
		n.leader.solved = true
		n.leader.solution = solution
		n.muRole.Unlock()
		return
	}
	var start, end string
	if n.worker != nil && n.worker.sessionID == session {
		start, end = n.worker.assigned.Start, n.worker.assigned.End
	}
	n.muRole.Unlock()

	if parentAddr == "" {
		return
	}
	resp := protocol.Frame{
		Kind:          protocol.SOLVEResponse,
		From:          n.Address,
		To:            parentAddr,
		Session:       session,
		Start:         start,
		End:           end,
		HasSolution:   found,
		Solution:      solution,
		SpaceSearched: spaceSearched,
	}
	_, _ = n.SendMessage(resp)
}

// broadcastStop tells every current child to abandon session, per the
// cancellation half of §4.6: once any node finds the preimage, the whole
// tree stops searching.
func (n *Node) broadcastStop(session uint64) {
	for _, c := range n.friends.inPeerOrder() {
		if c.Type != Child {
			continue
		}
		addr := c.Address
		go func() {
			_, _ = n.SendMessage(protocol.Frame{Kind: protocol.STOP, From: n.Address, To: addr, Session: session})
		}()
	}
}

// handleStop raises this node's stop flag for the named session and
// propagates STOP to its own children. A STOP for any other session is
// ignored.
func (n *Node) handleStop(f protocol.Frame) {
	n.muRole.Lock()
	current := (n.leader != nil && n.leader.sessionID == f.Session) ||
		(n.worker != nil && n.worker.sessionID == f.Session)
	n.muRole.Unlock()
	if !current {
		return
	}
	n.raiseStop()
	n.broadcastStop(f.Session)
}
