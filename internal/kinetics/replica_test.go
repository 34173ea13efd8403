package kinetics

import (
	"errors"
	"testing"
)

func TestReplica_IngestFromAuthority(t *testing.T) {
	sim := newTestSimulation(t, SpeciesVector{10, 10, 0, 0, 0}, 0)
	sim.SetMatchID("m1")
	sim.AddReaction(combineReaction(t))
	sim.StepSimulate()

	replica := NewReplica(5)
	if _, ok := replica.Last(); ok {
		t.Fatal("new replica must be empty")
	}
	if err := replica.Ingest(sim.Snapshot()); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	assertSpecies(t, replica.Species(), SpeciesVector{9, 9, 1, 0, 0})
	rows := replica.Reactions()
	if len(rows) != 1 || rows[0].Label != "1Red + 1Blue -1> 1x1" {
		t.Errorf("unexpected reactions %+v", rows)
	}
}

func TestReplica_RejectsStaleAndMalformed(t *testing.T) {
	replica := NewReplica(3)
	newer := Snapshot{MatchID: "m1", Seq: 5, Species: []int{1, 1, 1}}
	older := Snapshot{MatchID: "m1", Seq: 4, Species: []int{2, 2, 2}}

	if err := replica.Ingest(newer); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if err := replica.Ingest(older); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Expected stale snapshot to be rejected, got %v", err)
	}
	if err := replica.Ingest(Snapshot{MatchID: "m1", Seq: 9, Species: []int{1}}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Expected malformed snapshot to be rejected, got %v", err)
	}
	assertSpecies(t, replica.Species(), SpeciesVector{1, 1, 1})
}

func TestReplica_NewMatchResetsSequence(t *testing.T) {
	replica := NewReplica(1)
	replica.Ingest(Snapshot{MatchID: "a", Seq: 10, Species: []int{1}})
	if err := replica.Ingest(Snapshot{MatchID: "b", Seq: 1, Species: []int{7}}); err != nil {
		t.Fatalf("snapshot of another match must be accepted: %v", err)
	}
	assertSpecies(t, replica.Species(), SpeciesVector{7})
}

func TestReplica_CopiesInput(t *testing.T) {
	replica := NewReplica(2)
	species := []int{3, 4}
	replica.Ingest(Snapshot{Seq: 1, Species: species})
	species[0] = 99
	if replica.Species()[0] != 3 {
		t.Error("replica aliases the ingested slice")
	}
}
