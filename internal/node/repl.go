package node

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"dsva-brute/internal/protocol"
	"dsva-brute/internal/rangealg"
)

// REPL drives a Node from line-oriented commands read from r, writing
// prompts and results to w. It owns no state of its own beyond the node and
// the scanner — every command is a thin wrapper over a Node method.
type REPL struct {
	node *Node
	in   *bufio.Scanner
	out  io.Writer
}

// NewREPL builds a REPL bound to node, reading commands from r.
func NewREPL(node *Node, r io.Reader, w io.Writer) *REPL {
	return &REPL{node: node, in: bufio.NewScanner(r), out: w}
}

// Run reads and executes commands until r is exhausted or a 'die' command
// is processed.
func (rl *REPL) Run() {
	for {
		fmt.Fprintf(rl.out, "%s> ", rl.node.Address)
		if !rl.in.Scan() {
			return
		}
		line := strings.TrimSpace(rl.in.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		if !rl.dispatch(cmd, args) {
			return
		}
	}
}

// dispatch executes one command, returning false if the REPL should stop.
func (rl *REPL) dispatch(cmd string, args []string) bool {
	switch cmd {
	case "info":
		rl.info()
	case "comm":
		rl.comm()
	case "ping":
		rl.ping(args)
	case "connect":
		rl.connect(args)
	case "cal":
		rl.cal()
	case "solve":
		rl.solve(args)
	case "die":
		rl.node.Die()
		fmt.Fprintln(rl.out, "idle")
		return false
	case "quit", "exit":
		return false
	default:
		fmt.Fprintf(rl.out, "unknown command %q\n", cmd)
	}
	return true
}

func (rl *REPL) info() {
	n := rl.node
	fmt.Fprintf(rl.out, "address: %s\n", n.Address)
	fmt.Fprintf(rl.out, "role: %s\n", n.Role())
	fmt.Fprintf(rl.out, "communicating: %v\n", n.Communicating())
	fmt.Fprintf(rl.out, "power: %d\n", n.localPower)
	n.muAssigned.Lock()
	if n.assignedPart != nil {
		fmt.Fprintf(rl.out, "searching: [%s..%s]\n", n.assignedPart.Start, n.assignedPart.End)
	}
	n.muAssigned.Unlock()
	for _, f := range n.friends.sortedByAddress() {
		fmt.Fprintf(rl.out, "  friend %s power=%d type=%s\n", f.Address, f.Power, f.Type)
	}
}

func (rl *REPL) comm() {
	v := rl.node.ToggleCommunicating()
	fmt.Fprintf(rl.out, "communicating: %v\n", v)
}

func (rl *REPL) ping(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(rl.out, "usage: ping <address>")
		return
	}
	if !rl.node.friends.has(args[0]) {
		rl.node.friends.add(args[0])
	}
	start := time.Now()
	resp, err := rl.node.SendMessage(protocol.Frame{Kind: protocol.PING, From: rl.node.Address, To: args[0]})
	if err != nil {
		fmt.Fprintf(rl.out, "ping %s: %v\n", args[0], err)
		return
	}
	fmt.Fprintf(rl.out, "ping %s: %s in %s\n", args[0], resp.Kind, time.Since(start))
}

// connect is an alias for adding a peer and immediately pinging it (§6).
func (rl *REPL) connect(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(rl.out, "usage: connect <address>")
		return
	}
	rl.node.friends.add(args[0])
	fmt.Fprintf(rl.out, "connected to %s\n", args[0])
	rl.ping(args)
}

func (rl *REPL) cal() {
	total, err := rl.node.InitiateCalc()
	if err != nil {
		fmt.Fprintf(rl.out, "cal: %v\n", err)
		return
	}
	fmt.Fprintf(rl.out, "aggregated power: %d\n", total)
}

// solve implements `solve <alphabet> <min> <max> <hex64>` per §6: min and
// max are candidate-length bounds, not raw start/end strings. The leader's
// range is A[0] repeated min times through A[last] repeated max times
// (§4.6 step 2), built here and handed to InitiateSolve as concrete bounds.
func (rl *REPL) solve(args []string) {
	if len(args) != 4 {
		fmt.Fprintln(rl.out, "usage: solve <alphabet> <min> <max> <hash>")
		return
	}
	a, err := rangealg.NewAlphabet(args[0])
	if err != nil {
		fmt.Fprintf(rl.out, "solve: %v\n", err)
		return
	}
	minLen, err := strconv.Atoi(args[1])
	if err != nil || minLen < 1 {
		fmt.Fprintln(rl.out, "solve: min must be a positive integer")
		return
	}
	maxLen, err := strconv.Atoi(args[2])
	if err != nil || maxLen < minLen {
		fmt.Fprintln(rl.out, "solve: max must be an integer >= min")
		return
	}

	start := rangealg.Repeat(a.First(), minLen)
	end := rangealg.Repeat(a.Last(), maxLen)
	if err := rl.node.InitiateSolve(args[0], start, end, args[3]); err != nil {
		fmt.Fprintf(rl.out, "solve: %v\n", err)
		return
	}
	fmt.Fprintln(rl.out, "solving...")
}
