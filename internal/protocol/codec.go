package protocol

import (
	"errors"
	"strconv"
	"strings"
)

// ErrMalformed is returned for any frame that fails to parse: wrong arity,
// unknown kind token, or an unparseable numeric field. Per spec, a malformed
// frame is dropped and its connection closed without reply — callers should
// not retry.
var ErrMalformed = errors.New("protocol: malformed frame")

const sep = "|"

// Encode serializes f into its pipe-delimited wire form. It never fails: the
// caller is responsible for ensuring payload fields (alphabets, hex digests,
// addresses) never contain the separator; Encode does not check, and
// rangealg.NewAlphabet does not reject '|' either.
func Encode(f Frame) string {
	var b strings.Builder
	b.WriteString(f.Kind.String())
	b.WriteString(sep)
	b.WriteString(f.From)
	b.WriteString(sep)
	b.WriteString(f.To)
	b.WriteString(sep)
	b.WriteString(strconv.FormatUint(f.Session, 10))

	switch f.Kind {
	case CALCResponse:
		b.WriteString(sep)
		b.WriteString(strconv.FormatUint(uint64(f.Power), 10))

	case SOLVE:
		b.WriteString(sep)
		b.WriteString(f.Alphabet)
		b.WriteString(sep)
		b.WriteString(f.Start)
		b.WriteString(sep)
		b.WriteString(f.End)
		b.WriteString(sep)
		b.WriteString(f.Hash)

	case SOLVEResponse:
		b.WriteString(sep)
		b.WriteString(f.Start)
		b.WriteString(sep)
		b.WriteString(f.End)
		b.WriteString(sep)
		b.WriteString(f.Solution)
		b.WriteString(sep)
		b.WriteString(strconv.FormatBool(f.SpaceSearched))
	}
	return b.String()
}

// Decode parses one wire frame. Parse failure returns ErrMalformed; the
// caller must drop the connection without reply per §4.3/§4.4.
func Decode(s string) (Frame, error) {
	parts := strings.Split(s, sep)
	if len(parts) < 4 {
		return Frame{}, ErrMalformed
	}

	kind, ok := parseKind(parts[0])
	if !ok {
		return Frame{}, ErrMalformed
	}

	session, err := strconv.ParseUint(parts[3], 10, 64)
	if err != nil {
		return Frame{}, ErrMalformed
	}

	f := Frame{Kind: kind, From: parts[1], To: parts[2], Session: session}

	switch kind {
	case PING, ACK, CALC, STOP:
		if len(parts) != 4 {
			return Frame{}, ErrMalformed
		}

	case CALCResponse:
		if len(parts) != 5 {
			return Frame{}, ErrMalformed
		}
		p, err := strconv.ParseUint(parts[4], 10, 32)
		if err != nil {
			return Frame{}, ErrMalformed
		}
		f.Power = uint32(p)

	case SOLVE:
		if len(parts) != 8 {
			return Frame{}, ErrMalformed
		}
		f.Alphabet, f.Start, f.End, f.Hash = parts[4], parts[5], parts[6], parts[7]

	case SOLVEResponse:
		if len(parts) != 8 {
			return Frame{}, ErrMalformed
		}
		f.Start, f.End, f.Solution = parts[4], parts[5], parts[6]
		f.HasSolution = f.Solution != ""
		searched, err := strconv.ParseBool(parts[7])
		if err != nil {
			return Frame{}, ErrMalformed
		}
		f.SpaceSearched = searched

	default:
		return Frame{}, ErrMalformed
	}
	return f, nil
}

func parseKind(tok string) (Kind, bool) {
	switch tok {
	case "PING":
		return PING, true
	case "ACK":
		return ACK, true
	case "CALC":
		return CALC, true
	case "CALC_RESPONSE":
		return CALCResponse, true
	case "SOLVE":
		return SOLVE, true
	case "SOLVE_RESPONSE":
		return SOLVEResponse, true
	case "STOP":
		return STOP, true
	default:
		return 0, false
	}
}
