package sim

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/BurntSushi/toml"
)

// Scenario mirrors the teacher's TOML-driven TestCase (sim/exp.go): instead
// of a randomized command log and a reduce algorithm, it describes a
// cluster's node powers and a search problem to run across it.
type Scenario struct {
	Name       string   `toml:"name"`
	NodePowers []uint32 `toml:"node_powers"`
	Alphabet   string   `toml:"alphabet"`
	Start      string   `toml:"start"`
	End        string   `toml:"end"`
	Hash       string   `toml:"hash"`
	TimeoutMS  int      `toml:"timeout_ms"`
}

// LoadScenario reads and validates a Scenario from a TOML file.
func LoadScenario(path string) (*Scenario, error) {
	sc := &Scenario{TimeoutMS: 5000}
	if _, err := toml.DecodeFile(path, sc); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Validate rejects a scenario with no nodes, no range, or a non-positive
// timeout.
func (sc *Scenario) Validate() error {
	if len(sc.NodePowers) < 1 {
		return errors.New("sim: scenario needs at least one node_powers entry")
	}
	if sc.Alphabet == "" || sc.Start == "" || sc.End == "" || sc.Hash == "" {
		return errors.New("sim: alphabet, start, end and hash are all required")
	}
	if sc.TimeoutMS <= 0 {
		return errors.New("sim: timeout_ms must be > 0")
	}
	return nil
}

// Outcome is what Run learned once the session finished or timed out.
type Outcome struct {
	Done      bool
	Found     bool
	Solution  string
	Elapsed   time.Duration
	TimedOut  bool
	ClusterSz int
}

// Run builds a cluster sized to the scenario, elects node 0 as root, and
// drives one CALC+SOLVE session to completion or timeout.
func Run(sc *Scenario, logger *log.Logger) (Outcome, error) {
	cl, err := NewCluster(sc.NodePowers, logger)
	if err != nil {
		return Outcome{}, err
	}
	defer cl.Shutdown()

	root := cl.Nodes[0]
	if _, err := root.InitiateCalc(); err != nil {
		return Outcome{}, fmt.Errorf("sim: cal: %w", err)
	}
	if err := root.InitiateSolve(sc.Alphabet, sc.Start, sc.End, sc.Hash); err != nil {
		return Outcome{}, fmt.Errorf("sim: solve: %w", err)
	}

	start := time.Now()
	deadline := time.After(time.Duration(sc.TimeoutMS) * time.Millisecond)
	tick := time.NewTicker(2 * time.Millisecond)
	defer tick.Stop()

	for {
		if done, found, solution := root.LeaderOutcome(); done {
			return Outcome{Done: true, Found: found, Solution: solution, Elapsed: time.Since(start), ClusterSz: len(sc.NodePowers)}, nil
		}
		select {
		case <-deadline:
			return Outcome{Done: false, TimedOut: true, Elapsed: time.Since(start), ClusterSz: len(sc.NodePowers)}, nil
		case <-tick.C:
		}
	}
}
