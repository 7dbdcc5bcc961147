package search

import (
	"bytes"
	"fmt"
	"os"
	"time"
)

// Measure is an optional instrumentation hook for a part's search,
// recording wall-clock start/finish and candidates checked. Adapted from
// the teacher's latencyMeasure (concmeasure.go), trimmed from the original's
// four-stage (init/write/fill/persist) ConcTable pipeline down to the two
// timestamps that matter for a brute-force search: start and finish.
type Measure struct {
	out  *os.File
	data []sample
}

type sample struct {
	startNanos, endNanos int64
	checked              uint64
	outcome              Outcome
}

// NewMeasure opens (creating if needed) filename for append and returns a
// Measure that writes one CSV line per RunAndRecord call.
func NewMeasure(filename string) (*Measure, error) {
	fd, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &Measure{out: fd}, nil
}

// RunAndRecord runs Run once, timing it, and appends a sample to the
// in-memory buffer. Callers needing many measurements across many parts
// should call Flush periodically rather than on every sample, matching the
// teacher's batched-flush idiom.
func (m *Measure) RunAndRecord(run func() Result) Result {
	start := time.Now().UnixNano()
	res := run()
	end := time.Now().UnixNano()

	m.data = append(m.data, sample{startNanos: start, endNanos: end, checked: res.Checked, outcome: res.Outcome})
	return res
}

// Flush writes all buffered samples as "start,end,checked,outcome" CSV lines
// and clears the buffer.
func (m *Measure) Flush() error {
	buf := bytes.NewBuffer(nil)
	for _, s := range m.data {
		_, err := fmt.Fprintf(buf, "%d,%d,%d,%d\n", s.startNanos, s.endNanos, s.checked, s.outcome)
		if err != nil {
			return err
		}
	}
	if _, err := buf.WriteTo(m.out); err != nil {
		return err
	}
	m.data = m.data[:0]
	return nil
}

// Close flushes any buffered samples and closes the underlying file.
func (m *Measure) Close() error {
	if err := m.Flush(); err != nil {
		m.out.Close()
		return err
	}
	return m.out.Close()
}
