package personality

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/mindmesh-labs/mindmesh/core"
)

func newTestEngine(cfg EngineConfig) *Engine {
	roster := []core.Participant{
		{ID: "a", Name: "A", Role: core.RoleCreator, Traits: []string{"imaginative", "bold"}},
		{ID: "b", Name: "B", Role: core.RoleCurator, Traits: []string{"cautious", "empathetic"}},
	}
	return NewEngine(nil, nil, roster, cfg)
}

func TestSeedTraits(t *testing.T) {
	traits := SeedTraits([]string{"imaginative", "bold"})
	if traits.Creativity <= 0.5 {
		t.Errorf("imaginative should raise creativity, got %f", traits.Creativity)
	}
	if traits.RiskTolerance <= 0.5 {
		t.Errorf("bold should raise risk tolerance, got %f", traits.RiskTolerance)
	}
	if traits.Empathy != 0.5 {
		t.Errorf("untouched trait should stay at 0.5, got %f", traits.Empathy)
	}
}

func TestEvolveSuccess(t *testing.T) {
	e := newTestEngine(EngineConfig{})

	before, _ := e.GetProfile("a")
	if err := e.Evolve("a", Trigger{Type: TriggerSuccess, Magnitude: 1.0}); err != nil {
		t.Fatalf("Evolve failed: %v", err)
	}
	after, _ := e.GetProfile("a")

	// Only (1 - stability) of rate * magnitude lands.
	want := before.CurrentTraits.Confidence + DefaultRate*1.0*(1-DefaultStability)
	if diff := after.CurrentTraits.Confidence - want; math.Abs(diff) > 1e-9 {
		t.Errorf("expected confidence %f, got %f", want, after.CurrentTraits.Confidence)
	}
	if after.CurrentTraits.Assertiveness <= before.CurrentTraits.Assertiveness {
		t.Error("success should raise assertiveness")
	}
	if after.BaseTraits.Confidence != before.BaseTraits.Confidence {
		t.Error("base traits must never change")
	}
	if len(after.EvolutionHistory) != 1 {
		t.Errorf("expected 1 history event, got %d", len(after.EvolutionHistory))
	}
}

func TestEvolveFailure(t *testing.T) {
	e := newTestEngine(EngineConfig{})

	before, _ := e.GetProfile("a")
	if err := e.Evolve("a", Trigger{Type: TriggerFailure, Magnitude: -1.0}); err != nil {
		t.Fatalf("Evolve failed: %v", err)
	}
	after, _ := e.GetProfile("a")

	if after.CurrentTraits.Confidence >= before.CurrentTraits.Confidence {
		t.Error("failure should lower confidence")
	}
	if after.CurrentTraits.Curiosity <= before.CurrentTraits.Curiosity {
		t.Error("failure should raise curiosity")
	}
	if after.CurrentTraits.RiskTolerance >= before.CurrentTraits.RiskTolerance {
		t.Error("failure should lower risk tolerance")
	}
}

func TestEvolveValidation(t *testing.T) {
	e := newTestEngine(EngineConfig{})

	if err := e.Evolve("a", Trigger{Type: "bogus", Magnitude: 0.5}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected validation error for bad type, got %v", err)
	}
	if err := e.Evolve("a", Trigger{Type: TriggerSuccess, Magnitude: 1.5}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected validation error for magnitude, got %v", err)
	}
	if err := e.Evolve("ghost", Trigger{Type: TriggerSuccess, Magnitude: 0.5}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestTraitsStayClamped(t *testing.T) {
	e := newTestEngine(EngineConfig{Stability: 0.1, Rate: 1.0})

	triggers := []Trigger{
		{Type: TriggerSuccess, Magnitude: 1.0},
		{Type: TriggerFailure, Magnitude: -1.0},
		{Type: TriggerCollaboration, Magnitude: 1.0},
		{Type: TriggerFeedback, Magnitude: -1.0},
		{Type: TriggerLearning, Magnitude: 1.0, SpecificTraits: map[string]float64{
			TraitConfidence:    5.0,
			TraitRiskTolerance: -5.0,
		}},
	}
	for i := 0; i < 200; i++ {
		trig := triggers[i%len(triggers)]
		trig.Context = fmt.Sprintf("round %d", i)
		if err := e.Evolve("a", trig); err != nil {
			t.Fatalf("Evolve failed at round %d: %v", i, err)
		}
	}

	p, _ := e.GetProfile("a")
	for _, name := range namedTraits {
		v := p.CurrentTraits.Get(name)
		if v < 0 || v > 1 {
			t.Errorf("trait %s escaped [0,1]: %f", name, v)
		}
	}
	if len(p.EvolutionHistory) != maxHistory {
		t.Errorf("expected history capped at %d, got %d", maxHistory, len(p.EvolutionHistory))
	}
	if len(p.Adaptations) > maxAdaptations {
		t.Errorf("expected at most %d adaptations, got %d", maxAdaptations, len(p.Adaptations))
	}
}

func TestAdaptationTracking(t *testing.T) {
	e := newTestEngine(EngineConfig{})

	for i := 0; i < 3; i++ {
		if err := e.Evolve("a", Trigger{Type: TriggerSuccess, Context: "art drop", Magnitude: 0.5}); err != nil {
			t.Fatalf("Evolve failed: %v", err)
		}
	}

	p, _ := e.GetProfile("a")
	a, ok := p.Adaptations["success:art drop"]
	if !ok {
		t.Fatalf("expected adaptation entry, got %v", p.Adaptations)
	}
	if a.Frequency != 3 {
		t.Errorf("expected frequency 3, got %d", a.Frequency)
	}
	if a.AvgImpact <= 0 {
		t.Errorf("expected positive average impact, got %f", a.AvgImpact)
	}
}

func TestAdjustFromInteraction(t *testing.T) {
	t.Run("positive pulls traits toward partner", func(t *testing.T) {
		e := newTestEngine(EngineConfig{})
		before, _ := e.GetProfile("a")
		partner, _ := e.GetProfile("b")

		if err := e.AdjustFromInteraction("a", "b", OutcomePositive); err != nil {
			t.Fatalf("AdjustFromInteraction failed: %v", err)
		}
		after, _ := e.GetProfile("a")

		// Empathy moves by the 2% lerp plus the collaboration trigger.
		gap := partner.CurrentTraits.Empathy - before.CurrentTraits.Empathy
		if gap > 0 && after.CurrentTraits.Empathy <= before.CurrentTraits.Empathy {
			t.Error("positive interaction should pull empathy toward partner")
		}
		if len(after.EvolutionHistory) != 1 {
			t.Errorf("expected 1 collaboration event, got %d", len(after.EvolutionHistory))
		}
	})

	t.Run("negative lowers confidence raises assertiveness", func(t *testing.T) {
		e := newTestEngine(EngineConfig{})
		before, _ := e.GetProfile("a")

		if err := e.AdjustFromInteraction("a", "b", OutcomeNegative); err != nil {
			t.Fatalf("AdjustFromInteraction failed: %v", err)
		}
		after, _ := e.GetProfile("a")

		if after.CurrentTraits.Confidence >= before.CurrentTraits.Confidence {
			t.Error("negative interaction should lower confidence")
		}
		if after.CurrentTraits.Assertiveness <= before.CurrentTraits.Assertiveness {
			t.Error("negative interaction should raise assertiveness")
		}
	})

	t.Run("neutral is a no-op", func(t *testing.T) {
		e := newTestEngine(EngineConfig{})
		before, _ := e.GetProfile("a")

		if err := e.AdjustFromInteraction("a", "b", OutcomeNeutral); err != nil {
			t.Fatalf("AdjustFromInteraction failed: %v", err)
		}
		after, _ := e.GetProfile("a")

		if after.CurrentTraits.Confidence != before.CurrentTraits.Confidence ||
			after.CurrentTraits.Empathy != before.CurrentTraits.Empathy {
			t.Error("neutral interaction must not change traits")
		}
		if len(after.EvolutionHistory) != 0 {
			t.Errorf("neutral interaction must not record history, got %d events", len(after.EvolutionHistory))
		}
	})

	t.Run("unknown outcome", func(t *testing.T) {
		e := newTestEngine(EngineConfig{})
		if err := e.AdjustFromInteraction("a", "b", "confusing"); !errors.Is(err, core.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("unknown partner", func(t *testing.T) {
		e := newTestEngine(EngineConfig{})
		if err := e.AdjustFromInteraction("a", "ghost", OutcomePositive); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("expected not-found error, got %v", err)
		}
	})
}

func TestAnalyzeCompatibility(t *testing.T) {
	e := newTestEngine(EngineConfig{})

	c, err := e.AnalyzeCompatibility("a", "b")
	if err != nil {
		t.Fatalf("AnalyzeCompatibility failed: %v", err)
	}
	if c.Score < 0 || c.Score > 1 {
		t.Errorf("score outside [0,1]: %f", c.Score)
	}
	if c.Recommendation == "" {
		t.Error("expected a recommendation")
	}

	t.Run("symmetric score", func(t *testing.T) {
		rev, err := e.AnalyzeCompatibility("b", "a")
		if err != nil {
			t.Fatalf("AnalyzeCompatibility failed: %v", err)
		}
		if math.Abs(rev.Score-c.Score) > 1e-9 {
			t.Errorf("expected symmetric score, got %f vs %f", c.Score, rev.Score)
		}
	})

	t.Run("unknown participant", func(t *testing.T) {
		if _, err := e.AnalyzeCompatibility("a", "ghost"); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("expected not-found error, got %v", err)
		}
	})
}

func TestGetProfileIsolation(t *testing.T) {
	e := newTestEngine(EngineConfig{})

	p, err := e.GetProfile("a")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	p.CurrentTraits.Confidence = 0.0

	again, _ := e.GetProfile("a")
	if again.CurrentTraits.Confidence == 0.0 {
		t.Error("mutating a returned profile must not affect the engine's state")
	}
}
