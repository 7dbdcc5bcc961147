package node

import "sync"

// friendRegistry is the node's peer set: a friendTree for O(log n) lookup,
// plus an insertion-ordered slice of addresses — task distribution (§4.6)
// must iterate children "in peer-set order", which is the order friends
// were first added, not their sorted address order the tree provides for
// 'info'.
type friendRegistry struct {
	mu    sync.Mutex
	tree  friendTree
	order []string
}

func newFriendRegistry() *friendRegistry {
	return &friendRegistry{}
}

// add inserts addr as a brand-new friend with NotSpecified type and zero
// power, a no-op if addr is already known.
func (r *friendRegistry) add(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addLocked(addr)
}

func (r *friendRegistry) addLocked(addr string) {
	if _, ok := r.tree.find(addr); ok {
		return
	}
	r.tree.upsert(Friend{Address: addr, Type: NotSpecified})
	r.order = append(r.order, addr)
}

// has reports whether addr is a known peer.
func (r *friendRegistry) has(addr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tree.find(addr)
	return ok
}

// get returns a copy of the Friend record for addr.
func (r *friendRegistry) get(addr string) (Friend, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.tree.find(addr)
	if !ok {
		return Friend{}, false
	}
	return *f, true
}

// update mutates the Friend record for addr in place via fn. A no-op if
// addr is not a known peer.
func (r *friendRegistry) update(addr string, fn func(*Friend)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.tree.find(addr)
	if !ok {
		return
	}
	fn(f)
}

// remove evicts addr from the peer set — the outcome of any transport
// failure talking to it (§4.4, §7 TransportError).
func (r *friendRegistry) remove(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tree.remove(addr) {
		for i, a := range r.order {
			if a == addr {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
}

// inPeerOrder returns every known Friend in insertion order — the order
// §4.6's task distribution assigns contiguous part slabs in.
func (r *friendRegistry) inPeerOrder() []Friend {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Friend, 0, len(r.order))
	for _, addr := range r.order {
		if f, ok := r.tree.find(addr); ok {
			out = append(out, *f)
		}
	}
	return out
}

// sortedByAddress returns every known Friend sorted by address, used by the
// 'info' command for deterministic output.
func (r *friendRegistry) sortedByAddress() []Friend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.inOrder()
}

// resetSession sets every friend's Type back to NotSpecified and clears any
// assigned part, per the invariant that friend type resets when the node
// returns to IDLE.
func (r *friendRegistry) resetSession() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, addr := range r.order {
		if f, ok := r.tree.find(addr); ok {
			f.Type = NotSpecified
			f.AssignedPart = nil
		}
	}
}

func (r *friendRegistry) str() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.str()
}
