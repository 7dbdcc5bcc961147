package node

import (
	"fmt"
	"strings"

	"dsva-brute/internal/rangealg"
)

// FriendType marks the relation.Type a peer plays in the current session's
// spanning tree. It is set monotonically per session and reset to
// NotSpecified when the node returns to IDLE.
type FriendType int8

const (
	// NotSpecified is the initial, session-less relation.
	NotSpecified FriendType = iota

	// Parent is set on the peer this node accepted a power-aggregation
	// request from.
	Parent

	// Child is set on a peer that returned a non-zero power response to
	// this node's own power-aggregation query.
	Child
)

func (t FriendType) String() string {
	switch t {
	case Parent:
		return "Parent"
	case Child:
		return "Child"
	default:
		return "NotSpecified"
	}
}

// Friend is another node known by address.
type Friend struct {
	Address      string
	Power        uint32
	Type         FriendType
	AssignedPart *rangealg.PartOfAProblem
}

// friendEntry is one balanced-tree node keyed by address, adapted from the
// teacher's avlTreeEntry (avl.go): same rotation logic, the payload is a
// Friend instead of a pointer into a per-key update list.
type friendEntry struct {
	addr   string
	friend Friend

	left, right *friendEntry
	height      int
}

// friendTree is the node's peer set: a balanced BST keyed by address, giving
// O(log n) insert/find/remove and a deterministic, address-sorted traversal
// order for 'info' output. Insertion order (the order spec.md's task
// distribution wants to iterate children in) is tracked separately by
// friendRegistry in its insertion-ordered slice of addresses.
type friendTree struct {
	root *friendEntry
	len  int
}

func (t *friendTree) find(addr string) (*Friend, bool) {
	n := t.root
	for n != nil {
		switch {
		case addr == n.addr:
			return &n.friend, true
		case addr < n.addr:
			n = n.left
		default:
			n = n.right
		}
	}
	return nil, false
}

// upsert inserts a new Friend or replaces an existing one's value in place
// (preserving tree shape, since the key is unchanged).
func (t *friendTree) upsert(f Friend) {
	if n, ok := t.find(f.Address); ok {
		*n = f
		return
	}
	t.root = t.insert(t.root, &friendEntry{addr: f.Address, friend: f, height: 1})
	t.len++
}

func (t *friendTree) insert(root, node *friendEntry) *friendEntry {
	if root == nil {
		return node
	}
	if node.addr < root.addr {
		root.left = t.insert(root.left, node)
	} else if node.addr > root.addr {
		root.right = t.insert(root.right, node)
	} else {
		root.friend = node.friend
		return root
	}

	root.height = 1 + maxInt(friendHeight(root.left), friendHeight(root.right))
	balance := friendHeight(root.left) - friendHeight(root.right)

	if balance > 1 && node.addr < root.left.addr {
		return t.rightRotate(root)
	}
	if balance < -1 && node.addr > root.right.addr {
		return t.leftRotate(root)
	}
	if balance > 1 && node.addr > root.left.addr {
		root.left = t.leftRotate(root.left)
		return t.rightRotate(root)
	}
	if balance < -1 && node.addr < root.right.addr {
		root.right = t.rightRotate(root.right)
		return t.leftRotate(root)
	}
	return root
}

func (t *friendTree) rightRotate(root *friendEntry) *friendEntry {
	son := root.left
	gson := son.right
	son.right = root
	root.left = gson
	root.height = 1 + maxInt(friendHeight(root.left), friendHeight(root.right))
	son.height = 1 + maxInt(friendHeight(son.left), friendHeight(son.right))
	return son
}

func (t *friendTree) leftRotate(root *friendEntry) *friendEntry {
	son := root.right
	gson := son.left
	son.left = root
	root.right = gson
	root.height = 1 + maxInt(friendHeight(root.left), friendHeight(root.right))
	son.height = 1 + maxInt(friendHeight(son.left), friendHeight(son.right))
	return son
}

// remove deletes addr from the tree, rebalancing as needed.
func (t *friendTree) remove(addr string) bool {
	var removed bool
	t.root, removed = t.recurRemove(t.root, addr)
	if removed {
		t.len--
	}
	return removed
}

func (t *friendTree) recurRemove(root *friendEntry, addr string) (*friendEntry, bool) {
	if root == nil {
		return nil, false
	}

	var removed bool
	switch {
	case addr < root.addr:
		root.left, removed = t.recurRemove(root.left, addr)
	case addr > root.addr:
		root.right, removed = t.recurRemove(root.right, addr)
	default:
		removed = true
		if root.left == nil {
			return root.right, true
		}
		if root.right == nil {
			return root.left, true
		}
		succ := root.right
		for succ.left != nil {
			succ = succ.left
		}
		root.addr = succ.addr
		root.friend = succ.friend
		root.right, _ = t.recurRemove(root.right, succ.addr)
	}

	if root == nil {
		return nil, removed
	}
	root.height = 1 + maxInt(friendHeight(root.left), friendHeight(root.right))
	balance := friendHeight(root.left) - friendHeight(root.right)
	if balance > 1 {
		if friendHeight(root.left.left) < friendHeight(root.left.right) {
			root.left = t.leftRotate(root.left)
		}
		return t.rightRotate(root), removed
	}
	if balance < -1 {
		if friendHeight(root.right.right) < friendHeight(root.right.left) {
			root.right = t.rightRotate(root.right)
		}
		return t.leftRotate(root), removed
	}
	return root, removed
}

// inOrder returns every Friend, sorted by address.
func (t *friendTree) inOrder() []Friend {
	out := make([]Friend, 0, t.len)
	var walk func(*friendEntry)
	walk = func(n *friendEntry) {
		if n == nil {
			return
		}
		walk(n.left)
		out = append(out, n.friend)
		walk(n.right)
	}
	walk(t.root)
	return out
}

func (t *friendTree) str() string {
	var parts []string
	for _, f := range t.inOrder() {
		parts = append(parts, fmt.Sprintf("%s(power=%d,type=%s)", f.Address, f.Power, f.Type))
	}
	return strings.Join(parts, ", ")
}

func friendHeight(n *friendEntry) int {
	if n == nil {
		return 0
	}
	return n.height
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
