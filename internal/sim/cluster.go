// Package sim builds small in-process clusters of node.Node values over
// real loopback TCP listeners, and runs TOML-described scenarios against
// them. It is adapted from the teacher's Generator/TestCase pair (gen.go,
// exp.go, sim/gen.go, sim/exp.go): there a TestCase built a randomized
// command log and timed a reduce algorithm over it; here a Scenario builds a
// full-mesh cluster from its listed node powers and times a search session
// over it.
package sim

import (
	"fmt"
	"log"
	"net"

	"dsva-brute/internal/node"
)

// Cluster is a set of in-process nodes, each bound to its own loopback
// listener and wired into a full mesh of friends.
type Cluster struct {
	Nodes     []*node.Node
	listeners []net.Listener
}

// NewCluster starts len(powers) nodes, one per entry, every node knowing
// every other node's address as a friend from the start.
func NewCluster(powers []uint32, logger *log.Logger) (*Cluster, error) {
	if len(powers) == 0 {
		return nil, fmt.Errorf("sim: cluster needs at least one node")
	}

	lns := make([]net.Listener, len(powers))
	addrs := make([]string, len(powers))
	for i := range powers {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			closeAll(lns)
			return nil, fmt.Errorf("sim: listen: %w", err)
		}
		lns[i] = ln
		addrs[i] = ln.Addr().String()
	}

	nodes := make([]*node.Node, len(powers))
	for i, p := range powers {
		friends := make([]string, 0, len(addrs)-1)
		for j, a := range addrs {
			if j != i {
				friends = append(friends, a)
			}
		}
		n := node.New(addrs[i], p, friends, logger)
		nodes[i] = n
		go n.Serve(lns[i])
	}

	return &Cluster{Nodes: nodes, listeners: lns}, nil
}

// Shutdown tells every node to die and closes its listener.
func (c *Cluster) Shutdown() {
	for _, n := range c.Nodes {
		n.Die()
	}
	closeAll(c.listeners)
}

func closeAll(lns []net.Listener) {
	for _, ln := range lns {
		if ln != nil {
			_ = ln.Close()
		}
	}
}
