package sim

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"testing"
)

func TestRunFindsPreimageAcrossCluster(t *testing.T) {
	sum := sha256.Sum256([]byte("bb"))
	sc := &Scenario{
		NodePowers: []uint32{1, 2, 1},
		Alphabet:   "ab",
		Start:      "a",
		End:        "bb",
		Hash:       hex.EncodeToString(sum[:]),
		TimeoutMS:  3000,
	}
	if err := sc.Validate(); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}

	out, err := Run(sc, log.Default())
	if err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	if !out.Done {
		t.Log("expected session to complete before the deadline, timed out:", out.TimedOut)
		t.FailNow()
	}
	if !out.Found || out.Solution != "bb" {
		t.Log("expected to find \"bb\", got found =", out.Found, "solution =", out.Solution)
		t.FailNow()
	}
}

func TestRunExhaustsWhenAbsent(t *testing.T) {
	sc := &Scenario{
		NodePowers: []uint32{1, 1},
		Alphabet:   "ab",
		Start:      "a",
		End:        "bb",
		Hash:       "0000000000000000000000000000000000000000000000000000000000000000",
		TimeoutMS:  3000,
	}
	if err := sc.Validate(); err != nil {
		t.Log(err.Error())
		t.FailNow()
	}

	out, err := Run(sc, log.Default())
	if err != nil {
		t.Log(err.Error())
		t.FailNow()
	}
	if !out.Done || out.Found {
		t.Log("expected a completed, not-found session, got", out)
		t.FailNow()
	}
}

func TestLoadScenarioRejectsMissingRange(t *testing.T) {
	sc := &Scenario{NodePowers: []uint32{1}, TimeoutMS: 100}
	if err := sc.Validate(); err == nil {
		t.Log("expected validation error for missing range fields")
		t.FailNow()
	}
}
