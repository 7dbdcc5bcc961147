package node

import (
	"sync"

	"dsva-brute/internal/protocol"
)

// InitiateCalc starts a new election as the root: it picks a fresh session
// id, broadcasts CALC to every known peer in parallel, sums the power
// replies (this node's own power included), and becomes LEADER of that
// session. It returns the aggregated power of the whole spanning tree.
func (n *Node) InitiateCalc() (uint32, error) {
	n.muRole.Lock()
	if n.role != Idle {
		n.muRole.Unlock()
		return 0, ErrBusy
	}
	session := n.nextSessionID()
	n.clearStop()
	n.role = Leader
	n.leader = &leaderSession{sessionID: session, totalPower: n.localPower}
	n.muRole.Unlock()

	children := n.friends.inPeerOrder()
	total := n.localPower + n.broadcastCalc(children, session, n.Address)

	n.muRole.Lock()
	if n.leader != nil && n.leader.sessionID == session {
		n.leader.totalPower = total
	}
	n.muRole.Unlock()

	return total, nil
}

// broadcastCalc sends CALC to every candidate in parallel and sums the
// power reported back. A candidate that fails to answer (refusal, timeout,
// transport error, malformed response, a reply for another session) or
// that reports zero power contributes zero, is not marked Child, and is not
// treated as a hard error — the tree is simply smaller than the full peer set.
func (n *Node) broadcastCalc(candidates []Friend, session uint64, from string) uint32 {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total uint32
	)
	for _, c := range candidates {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := n.SendMessage(protocol.Frame{
				Kind:    protocol.CALC,
				From:    from,
				To:      c.Address,
				Session: session,
				Power:   n.localPower,
			})
			if err != nil || resp.Kind != protocol.CALCResponse || resp.Session != session || resp.Power == 0 {
				return
			}
			n.friends.update(c.Address, func(f *Friend) { f.Type = Child; f.Power = resp.Power })
			mu.Lock()
			total += resp.Power
			mu.Unlock()
		}()
	}
	wg.Wait()
	return total
}

// handleCalc answers an incoming CALC request. If this node is already
// occupied by a different session it declines with zero power, leaving its
// own role untouched; otherwise it becomes WORKER under the sender, fans
// the same CALC out to its remaining peers, and replies with the sum.
func (n *Node) handleCalc(f protocol.Frame) *protocol.Frame {
	n.muRole.Lock()
	if n.role != Idle {
		n.muRole.Unlock()
		return &protocol.Frame{Kind: protocol.CALCResponse, From: n.Address, To: f.From, Session: f.Session, Power: 0}
	}
	n.clearStop()
	n.role = Worker
	n.worker = &workerSession{sessionID: f.Session, parentAddr: f.From}
	n.muRole.Unlock()

	n.friends.update(f.From, func(fr *Friend) { fr.Type = Parent })

	children := make([]Friend, 0)
	for _, c := range n.friends.inPeerOrder() {
		if c.Address != f.From {
			children = append(children, c)
		}
	}

	total := n.localPower + n.broadcastCalc(children, f.Session, n.Address)
	return &protocol.Frame{Kind: protocol.CALCResponse, From: n.Address, To: f.From, Session: f.Session, Power: total}
}
