package node

import (
	"errors"
	"fmt"
	"net"
	"time"

	"dsva-brute/internal/protocol"
)

// ErrNotCommunicating, ErrSelfSend and ErrNotAPeer are the local refusal
// reasons SendMessage reports before ever touching the network.
var (
	ErrNotCommunicating = errors.New("node: communicating is off")
	ErrSelfSend         = errors.New("node: refusing to send to self")
	ErrNotAPeer         = errors.New("node: destination is not a known peer")

	// ErrBusy is returned by InitiateCalc when the node is already LEADER or
	// WORKER of another session, and by InitiateSolve when the node is not
	// LEADER.
	ErrBusy = errors.New("node: already in a session")
)

// Serve accepts connections on ln until it is closed, handling each on its
// own goroutine — one short-lived connection per request, per §4.4.
func (n *Node) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go n.handleConnection(conn)
	}
}

func (n *Node) handleConnection(conn net.Conn) {
	defer conn.Close()
	trace := newTraceID()

	_ = conn.SetDeadline(time.Now().Add(n.connectTimeout))

	buf := make([]byte, n.frameMaxBytes)
	nr, err := conn.Read(buf)
	if err != nil {
		n.Log.Printf("[%s] read error from %s: %v", trace, conn.RemoteAddr(), err)
		return
	}

	req, err := protocol.Decode(string(buf[:nr]))
	if err != nil {
		n.Log.Printf("[%s] dropping malformed frame from %s", trace, conn.RemoteAddr())
		return
	}

	if !n.Communicating() {
		n.Log.Printf("[%s] not communicating, dropping %s from %s", trace, req.Kind, req.From)
		return
	}

	// A frame of any kind (CALC included) from an address we don't yet know:
	// auto-add rather than the source's panic-on-unknown-peer behavior (§7, §9).
	if !n.friends.has(req.From) && req.From != n.Address {
		n.friends.add(req.From)
	}

	resp := n.dispatch(req)
	if resp == nil {
		ack := protocol.Frame{Kind: protocol.ACK, From: n.Address, To: req.From, Session: req.Session}
		resp = &ack
	}

	if _, err := conn.Write([]byte(protocol.Encode(*resp))); err != nil {
		n.Log.Printf("[%s] write error to %s: %v", trace, conn.RemoteAddr(), err)
	}
}

// dispatch routes a decoded frame to its kind-specific handler. A nil
// return means "no typed response was produced, send a plain ACK", per
// §4.4 step 3.
func (n *Node) dispatch(f protocol.Frame) *protocol.Frame {
	switch f.Kind {
	case PING_Kind:
		return nil // ACK is the whole response

	case CALC_Kind:
		return n.handleCalc(f)

	case SOLVE_Kind:
		return n.handleSolve(f)

	case SOLVE_RESPONSE_Kind:
		n.handleSolveResponse(f)
		return nil

	case STOP_Kind:
		n.handleStop(f)
		return nil

	default:
		// ACK, CALC_RESPONSE and anything else arriving as a request is a
		// protocol-state oddity: ack and ignore (§7 ProtocolState).
		return nil
	}
}

// Kind aliases keep dispatch's switch readable without importing protocol's
// identifiers directly into every case arm.
const (
	PING_Kind           = protocol.PING
	CALC_Kind           = protocol.CALC
	SOLVE_Kind          = protocol.SOLVE
	SOLVE_RESPONSE_Kind = protocol.SOLVEResponse
	STOP_Kind           = protocol.STOP
)

// SendMessage opens one short-lived TCP connection to req.To, writes req,
// and reads back one response frame. It refuses locally (no network touched)
// if communicating is off, the destination is this node, or the destination
// is not a known peer. On any connect/IO/parse failure the destination is
// removed from the peer set and the error is returned.
func (n *Node) SendMessage(req protocol.Frame) (*protocol.Frame, error) {
	if !n.Communicating() {
		return nil, ErrNotCommunicating
	}
	if req.To == n.Address {
		return nil, ErrSelfSend
	}
	if !n.friends.has(req.To) {
		return nil, ErrNotAPeer
	}

	conn, err := net.DialTimeout("tcp", req.To, n.connectTimeout)
	if err != nil {
		n.friends.remove(req.To)
		return nil, fmt.Errorf("node: connect to %s: %w", req.To, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(n.connectTimeout)
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	if _, err := conn.Write([]byte(protocol.Encode(req))); err != nil {
		n.friends.remove(req.To)
		return nil, fmt.Errorf("node: write to %s: %w", req.To, err)
	}

	buf := make([]byte, n.frameMaxBytes)
	nr, err := conn.Read(buf)
	if err != nil {
		n.friends.remove(req.To)
		return nil, fmt.Errorf("node: read from %s: %w", req.To, err)
	}

	resp, err := protocol.Decode(string(buf[:nr]))
	if err != nil {
		// parse failure on our own response: remove the peer too (§7).
		n.friends.remove(req.To)
		return nil, fmt.Errorf("node: parse response from %s: %w", req.To, err)
	}
	return &resp, nil
}
