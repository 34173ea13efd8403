package kinetics

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestSimulation(t *testing.T, counts SpeciesVector, roll float64) *Simulation {
	t.Helper()
	sim, err := NewSimulation(DefaultSpecies(), counts)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	sim.SetRandSource(rollSource(roll))
	return sim
}

func combineReaction(t *testing.T) Reaction {
	t.Helper()
	r, err := NewReaction([]int{1, 1, 0, 0, 0}, []int{0, 0, 1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("NewReaction: %v", err)
	}
	return r
}

func assertSpecies(t *testing.T, got, want SpeciesVector) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("species = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("species = %v, want %v", got, want)
		}
	}
}

func TestNewSimulation_Invalid(t *testing.T) {
	if _, err := NewSimulation(nil, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig without species, got %v", err)
	}
	if _, err := NewSimulation(DefaultSpecies(), SpeciesVector{1, 2}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for short counts, got %v", err)
	}
}

func TestSimulation_StepEndToEnd(t *testing.T) {
	sim := newTestSimulation(t, SpeciesVector{10, 10, 0, 0, 0}, 0)
	if _, err := sim.AddReaction(combineReaction(t)); err != nil {
		t.Fatalf("AddReaction: %v", err)
	}

	if got := sim.TotalRate(); got != 100 {
		t.Fatalf("Expected total rate 100, got %v", got)
	}

	ev, ok := sim.StepSimulate()
	if !ok {
		t.Fatal("Expected a step to be taken")
	}
	if ev.Index != 0 {
		t.Errorf("Expected index 0, got %d", ev.Index)
	}
	assertSpecies(t, sim.Species(), SpeciesVector{9, 9, 1, 0, 0})
}

func TestSimulation_StepDefaultCounts(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0)
	sim.AddReaction(combineReaction(t))

	if _, ok := sim.StepSimulate(); !ok {
		t.Fatal("Expected a step to be taken")
	}
	assertSpecies(t, sim.Species(), SpeciesVector{99, 99, 31, 30, 30})
}

func TestSimulation_StepNoReactions(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0)
	if _, ok := sim.StepSimulate(); ok {
		t.Fatal("Expected no step on an empty set")
	}
	assertSpecies(t, sim.Species(), DefaultInitialCounts())
}

func TestSimulation_StepRejectsNegativeUpdate(t *testing.T) {
	// rate 3 consumes 3 of each while only 1 Red is left
	sim := newTestSimulation(t, SpeciesVector{1, 10, 0, 0, 0}, 0)
	r, _ := NewReaction([]int{1, 1, 0, 0, 0}, []int{0, 0, 1, 0, 0}, 3)
	sim.AddReaction(r)

	if _, ok := sim.StepSimulate(); ok {
		t.Fatal("Expected step to be skipped")
	}
	assertSpecies(t, sim.Species(), SpeciesVector{1, 10, 0, 0, 0})
}

func TestSimulation_StepSkipsZeroPropensity(t *testing.T) {
	sim := newTestSimulation(t, SpeciesVector{0, 10, 5, 0, 0}, 0.99)
	sim.AddReaction(combineReaction(t))
	decay, _ := NewReaction([]int{0, 0, 1, 0, 0}, []int{0, 0, 0, 1, 0}, 1)
	sim.AddReaction(decay)

	ev, ok := sim.StepSimulate()
	if !ok {
		t.Fatal("Expected a step to be taken")
	}
	if ev.Index != 1 {
		t.Errorf("Expected the only live reaction, got index %d", ev.Index)
	}
	assertSpecies(t, sim.Species(), SpeciesVector{0, 10, 4, 1, 0})
}

func TestSimulation_AddReactionValidates(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0)
	bad := Reaction{Reactants: SpeciesVector{1}, Products: SpeciesVector{1}, Rate: 1}
	if _, err := sim.AddReaction(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
	if sim.NumReactions() != 0 {
		t.Error("invalid reaction must not be added")
	}
}

func TestSimulation_MaxActive(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0)
	sim.SetMaxActive(1)
	if _, err := sim.AddReaction(combineReaction(t)); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := sim.AddReaction(combineReaction(t)); !errors.Is(err, ErrReactionSetFull) {
		t.Fatalf("Expected ErrReactionSetFull, got %v", err)
	}
}

func TestSimulation_RemoveReaction(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0)
	a, _ := sim.AddReaction(combineReaction(t))
	b, _ := sim.AddReaction(combineReaction(t))

	removed, err := sim.RemoveReaction(a)
	if err != nil {
		t.Fatalf("RemoveReaction: %v", err)
	}
	if removed.ID != a {
		t.Errorf("removed %d, want %d", removed.ID, a)
	}
	if sim.ReactionIndex(b) != 0 {
		t.Error("expected the second reaction to remain")
	}
	if _, err := sim.RemoveReaction(a); !errors.Is(err, ErrReactionNotFound) {
		t.Errorf("Expected ErrReactionNotFound, got %v", err)
	}
	if _, err := sim.RemoveReactionAt(3); !errors.Is(err, ErrReactionNotFound) {
		t.Errorf("Expected ErrReactionNotFound, got %v", err)
	}

	if rows, _ := sim.UpdateMatrix().Dims(); rows != 1 {
		t.Errorf("Expected matrix with 1 row after removal, got %d", rows)
	}
}

func TestSimulation_ChangeReactionRate(t *testing.T) {
	sim := newTestSimulation(t, SpeciesVector{10, 10, 0, 0, 0}, 0)
	id, _ := sim.AddReaction(combineReaction(t))

	if err := sim.ChangeReactionRate(id, 3); err != nil {
		t.Fatalf("ChangeReactionRate: %v", err)
	}
	if got := sim.TotalRate(); got != 300 {
		t.Errorf("Expected total rate 300, got %v", got)
	}
	if got := sim.UpdateMatrix().At(0, 0); got != -3 {
		t.Errorf("Expected matrix cell -3, got %d", got)
	}
	if err := sim.ChangeReactionRate(id+10, 1); !errors.Is(err, ErrReactionNotFound) {
		t.Errorf("Expected ErrReactionNotFound, got %v", err)
	}
}

func TestSimulation_TickFires(t *testing.T) {
	sim := newTestSimulation(t, SpeciesVector{10, 10, 0, 0, 0}, 0)
	sim.AddReaction(combineReaction(t))

	res := sim.Tick(0.1)
	if !res.Fired {
		t.Fatal("Expected the tick to fire with roll 0")
	}
	assertSpecies(t, sim.Species(), SpeciesVector{9, 9, 1, 0, 0})
}

func TestSimulation_TickDoesNotFireAboveThreshold(t *testing.T) {
	sim := newTestSimulation(t, SpeciesVector{10, 10, 0, 0, 0}, 0.5)
	sim.AddReaction(combineReaction(t))

	for i := 0; i < 10; i++ {
		if res := sim.Tick(0.1); res.Fired {
			t.Fatal("probability is capped at 1/time scale, roll 0.5 must not fire")
		}
	}
	assertSpecies(t, sim.Species(), SpeciesVector{10, 10, 0, 0, 0})
}

func TestSimulation_TickExpiresReactions(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0.5)
	id, _ := sim.AddReaction(combineReaction(t))

	sim.Tick(DefaultLifetime)
	if sim.NumReactions() != 1 {
		t.Fatal("reaction with remaining time 0 must survive")
	}
	res := sim.Tick(0.01)
	if len(res.Expired) != 1 || res.Expired[0].ID != id {
		t.Fatalf("Expected reaction %d to expire, got %v", id, res.Expired)
	}
	if sim.TotalRate() != 0 {
		t.Error("Expected zero total rate after expiry")
	}
}

func TestSimulation_DoubleArmRejected(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0)
	first := Modifier{Kind: ModifierReactionRate, Multiplier: Multiplier{Numerator: 2, Denominator: 1}}
	second := Modifier{Kind: ModifierReactionTime, Multiplier: Multiplier{Numerator: 1, Denominator: 2}}

	if _, err := sim.ArmModifier(first); err != nil {
		t.Fatalf("ArmModifier: %v", err)
	}
	if _, err := sim.ArmModifier(second); !errors.Is(err, ErrModifierArmed) {
		t.Fatalf("Expected ErrModifierArmed, got %v", err)
	}
	armed, ok := sim.ArmedModifier()
	if !ok || armed.Modifier != first {
		t.Errorf("original armed modifier changed: %+v", armed)
	}
	if armed.State != EffectArmed {
		t.Errorf("Expected armed state, got %s", armed.State)
	}
}

func TestSimulation_ArmInvalidModifier(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0)
	m := Modifier{Kind: ModifierReactionRate, Multiplier: Multiplier{Numerator: 1, Denominator: 0}}
	if _, err := sim.ArmModifier(m); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
	if _, ok := sim.ArmedModifier(); ok {
		t.Error("slot must stay empty")
	}
}

func TestSimulation_ApplyPermanentModifier(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0)
	id, _ := sim.AddReaction(combineReaction(t))
	sim.ArmModifier(Modifier{Kind: ModifierReactionRate, Multiplier: Multiplier{Numerator: 4, Denominator: 1}})

	effect, err := sim.ApplyModifier(0)
	if err != nil {
		t.Fatalf("ApplyModifier: %v", err)
	}
	if effect.Target != id || effect.State != EffectApplied {
		t.Errorf("unexpected effect %+v", effect)
	}
	r, _ := sim.Reaction(id)
	if r.Rate != 4 {
		t.Errorf("Expected rate 4, got %d", r.Rate)
	}
	if _, ok := sim.ArmedModifier(); ok {
		t.Error("slot must be free after apply")
	}
	if len(sim.ActiveEffects()) != 0 {
		t.Error("permanent modifier must not be tracked as an effect")
	}
}

func TestSimulation_ApplyWithoutArm(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0)
	sim.AddReaction(combineReaction(t))
	if _, err := sim.ApplyModifier(0); !errors.Is(err, ErrNoModifierArmed) {
		t.Fatalf("Expected ErrNoModifierArmed, got %v", err)
	}
}

func TestSimulation_ApplyBadIndexKeepsSlot(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0)
	sim.ArmModifier(Modifier{Kind: ModifierReactionRate, Multiplier: Multiplier{Numerator: 2, Denominator: 1}})

	if _, err := sim.ApplyModifier(2); !errors.Is(err, ErrReactionNotFound) {
		t.Fatalf("Expected ErrReactionNotFound, got %v", err)
	}
	if _, ok := sim.ArmedModifier(); !ok {
		t.Error("slot must stay armed after a bad target")
	}
	if !sim.ResetModifier() {
		t.Error("Expected reset to clear the armed slot")
	}
	if sim.ResetModifier() {
		t.Error("second reset must report nothing armed")
	}
}

func TestSimulation_ApplyTotalRateNotImplemented(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0)
	id, _ := sim.AddReaction(combineReaction(t))
	sim.ArmModifier(Modifier{Kind: ModifierTotalRate, Multiplier: Multiplier{Numerator: 2, Denominator: 1}})

	if _, err := sim.ApplyModifierTo(id); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("Expected ErrNotImplemented, got %v", err)
	}
	r, _ := sim.Reaction(id)
	if r.Rate != 1 {
		t.Errorf("reaction changed: rate %d", r.Rate)
	}
	if _, ok := sim.ArmedModifier(); ok {
		t.Error("slot must be released after the attempt")
	}
}

func TestSimulation_TimedEffectReverts(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0.5)
	r, _ := NewReaction([]int{1, 1, 0, 0, 0}, []int{0, 0, 1, 0, 0}, 2)
	id, _ := sim.AddReaction(r)
	sim.ArmModifier(Modifier{Kind: ModifierReactionRate, Multiplier: Multiplier{Numerator: 2, Denominator: 1}, Duration: 1})

	if _, err := sim.ApplyModifierTo(id); err != nil {
		t.Fatalf("ApplyModifierTo: %v", err)
	}
	if got, _ := sim.Reaction(id); got.Rate != 4 {
		t.Fatalf("Expected rate 4, got %d", got.Rate)
	}

	if res := sim.Tick(0.5); len(res.Reverted) != 0 {
		t.Fatal("effect reverted too early")
	}
	if len(sim.ActiveEffects()) != 1 {
		t.Fatal("Expected one active effect")
	}

	res := sim.Tick(0.6)
	if len(res.Reverted) != 1 || res.Reverted[0].State != EffectReverted {
		t.Fatalf("Expected one reverted effect, got %+v", res.Reverted)
	}
	if got, _ := sim.Reaction(id); got.Rate != 2 {
		t.Errorf("Expected rate restored to 2, got %d", got.Rate)
	}
	if len(sim.ActiveEffects()) != 0 {
		t.Error("Expected no active effects after revert")
	}
}

func TestSimulation_EffectTargetGone(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0.5)
	id, _ := sim.AddReaction(combineReaction(t))
	sim.ArmModifier(Modifier{Kind: ModifierReactionRate, Multiplier: Multiplier{Numerator: 2, Denominator: 1}, Duration: 1})
	sim.ApplyModifierTo(id)

	if _, err := sim.RemoveReaction(id); err != nil {
		t.Fatalf("RemoveReaction: %v", err)
	}
	other, _ := sim.AddReaction(combineReaction(t))

	res := sim.Tick(2)
	if len(res.Reverted) != 1 {
		t.Fatalf("Expected the effect to be released, got %+v", res.Reverted)
	}
	if got, _ := sim.Reaction(other); got.Rate != 1 {
		t.Errorf("unrelated reaction touched: rate %d", got.Rate)
	}
}

func TestSimulation_RunBatch(t *testing.T) {
	sim := newTestSimulation(t, SpeciesVector{10, 10, 0, 0, 0}, 0.5)
	sim.AddReaction(combineReaction(t))

	var observed int
	res, err := sim.RunBatch(context.Background(), BatchOptions{
		EndTime: 1000,
		Observe: func(BatchEvent) { observed++ },
	})
	if !errors.Is(err, ErrNoReactionsPossible) {
		t.Fatalf("Expected ErrNoReactionsPossible, got %v", err)
	}
	if res.Events != 10 {
		t.Errorf("Expected 10 events, got %d", res.Events)
	}
	if observed != 10 {
		t.Errorf("Expected 10 observations, got %d", observed)
	}
	if res.Time <= 0 {
		t.Errorf("Expected simulated time to advance, got %v", res.Time)
	}
	assertSpecies(t, sim.Species(), SpeciesVector{0, 0, 10, 0, 0})
}

func TestSimulation_RunBatchEndTime(t *testing.T) {
	sim := newTestSimulation(t, SpeciesVector{1000, 1000, 0, 0, 0}, 0.5)
	sim.AddReaction(combineReaction(t))

	res, err := sim.RunBatch(context.Background(), BatchOptions{EndTime: 1e-6})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if res.Time < 1e-6 {
		t.Errorf("Expected to stop at or past end time, got %v", res.Time)
	}
	if res.Events == 0 {
		t.Error("Expected at least one event")
	}
}

func TestSimulation_RunBatchCancelled(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0.5)
	sim.AddReaction(combineReaction(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sim.RunBatch(ctx, BatchOptions{EndTime: 10}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestSimulation_RunAndStop(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0.5)
	sim.Run(5 * time.Millisecond)
	defer sim.Stop()

	if !sim.IsRunning() {
		t.Fatal("Expected simulation to be running")
	}
	if _, err := sim.RunBatch(context.Background(), BatchOptions{EndTime: 1}); !errors.Is(err, ErrRunning) {
		t.Errorf("Expected ErrRunning, got %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if sim.Clock() <= 0 {
		t.Error("Expected the clock to advance")
	}

	sim.Stop()
	if sim.IsRunning() {
		t.Fatal("Expected IsRunning to be false once Stop returns")
	}
	stopped := sim.Clock()
	time.Sleep(20 * time.Millisecond)
	if sim.Clock() != stopped {
		t.Errorf("Expected no tick after Stop, clock moved from %v to %v", stopped, sim.Clock())
	}
	if _, err := sim.RunBatch(context.Background(), BatchOptions{EndTime: 0}); err != nil {
		t.Errorf("Expected batch to be allowed after Stop, got %v", err)
	}
}

func TestSimulation_RestartAfterStop(t *testing.T) {
	sim := newTestSimulation(t, DefaultInitialCounts(), 0.5)

	for i := 0; i < 20; i++ {
		sim.Run(time.Millisecond)
		sim.Stop()

		before := sim.Clock()
		sim.Run(time.Millisecond)
		if !sim.IsRunning() {
			t.Fatalf("cycle %d: Run right after Stop did not start the loop", i)
		}
		deadline := time.Now().Add(time.Second)
		for sim.Clock() <= before {
			if time.Now().After(deadline) {
				t.Fatalf("cycle %d: clock did not advance after restart", i)
			}
			time.Sleep(time.Millisecond)
		}
		sim.Stop()
	}
}

func TestSimulation_Leader(t *testing.T) {
	sim := newTestSimulation(t, SpeciesVector{170, 20, 0, 0, 0}, 0)
	name, ok := sim.Leader(170)
	if !ok || name != Red {
		t.Errorf("Expected Red to lead, got %q %v", name, ok)
	}

	sim = newTestSimulation(t, SpeciesVector{10, 20, 500, 0, 0}, 0)
	if _, ok := sim.Leader(170); ok {
		t.Error("intermediate species must not win")
	}
}
