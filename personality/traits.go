package personality

import "strings"

// Named trait dimensions. Every value stays clamped to [0,1].
const (
	TraitConfidence    = "confidence"
	TraitCreativity    = "creativity"
	TraitEmpathy       = "empathy"
	TraitAssertiveness = "assertiveness"
	TraitCuriosity     = "curiosity"
	TraitRiskTolerance = "riskTolerance"
)

var namedTraits = []string{
	TraitConfidence,
	TraitCreativity,
	TraitEmpathy,
	TraitAssertiveness,
	TraitCuriosity,
	TraitRiskTolerance,
}

// Traits is a participant's behavioral tendency vector: six named
// dimensions plus free-form custom traits.
type Traits struct {
	Confidence    float64            `json:"confidence"`
	Creativity    float64            `json:"creativity"`
	Empathy       float64            `json:"empathy"`
	Assertiveness float64            `json:"assertiveness"`
	Curiosity     float64            `json:"curiosity"`
	RiskTolerance float64            `json:"risk_tolerance"`
	Custom        map[string]float64 `json:"custom,omitempty"`
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Get returns a trait value by name, including custom traits.
func (t *Traits) Get(name string) float64 {
	switch name {
	case TraitConfidence:
		return t.Confidence
	case TraitCreativity:
		return t.Creativity
	case TraitEmpathy:
		return t.Empathy
	case TraitAssertiveness:
		return t.Assertiveness
	case TraitCuriosity:
		return t.Curiosity
	case TraitRiskTolerance:
		return t.RiskTolerance
	default:
		return t.Custom[name]
	}
}

// Set assigns a trait value by name, clamped to [0,1]. Unknown names
// land in the custom map.
func (t *Traits) Set(name string, v float64) {
	v = clamp(v)
	switch name {
	case TraitConfidence:
		t.Confidence = v
	case TraitCreativity:
		t.Creativity = v
	case TraitEmpathy:
		t.Empathy = v
	case TraitAssertiveness:
		t.Assertiveness = v
	case TraitCuriosity:
		t.Curiosity = v
	case TraitRiskTolerance:
		t.RiskTolerance = v
	default:
		if t.Custom == nil {
			t.Custom = make(map[string]float64)
		}
		t.Custom[name] = v
	}
}

// Add applies a delta to a trait, clamped.
func (t *Traits) Add(name string, delta float64) {
	t.Set(name, t.Get(name)+delta)
}

// clone copies the vector including custom traits.
func (t Traits) clone() Traits {
	out := t
	if t.Custom != nil {
		out.Custom = make(map[string]float64, len(t.Custom))
		for k, v := range t.Custom {
			out.Custom[k] = v
		}
	}
	return out
}

// descriptorSeeds nudges base traits from a participant's descriptive
// trait words so the roster starts out differentiated.
var descriptorSeeds = map[string]map[string]float64{
	"imaginative": {TraitCreativity: 0.3, TraitCuriosity: 0.1},
	"creative":    {TraitCreativity: 0.3},
	"bold":        {TraitRiskTolerance: 0.25, TraitAssertiveness: 0.15},
	"cautious":    {TraitRiskTolerance: -0.25},
	"skeptical":   {TraitRiskTolerance: -0.15, TraitAssertiveness: 0.1},
	"contrarian":  {TraitAssertiveness: 0.2},
	"optimistic":  {TraitConfidence: 0.2, TraitRiskTolerance: 0.1},
	"empathetic":  {TraitEmpathy: 0.3},
	"warm":        {TraitEmpathy: 0.2},
	"calm":        {TraitEmpathy: 0.1, TraitAssertiveness: -0.1},
	"curious":     {TraitCuriosity: 0.3},
	"restless":    {TraitCuriosity: 0.2},
	"rigorous":    {TraitConfidence: 0.1, TraitRiskTolerance: -0.1},
	"blunt":       {TraitAssertiveness: 0.25, TraitEmpathy: -0.1},
	"diplomatic":  {TraitEmpathy: 0.2, TraitAssertiveness: -0.05},
	"dramatic":    {TraitAssertiveness: 0.15, TraitCreativity: 0.15},
	"witty":       {TraitCreativity: 0.2},
	"quiet":       {TraitAssertiveness: -0.2},
	"fair":        {TraitEmpathy: 0.15},
	"meticulous":  {TraitRiskTolerance: -0.15, TraitCuriosity: 0.1},
	"pragmatic":   {TraitCreativity: -0.05, TraitConfidence: 0.1},
	"inventive":   {TraitCreativity: 0.25},
	"analytical":  {TraitCuriosity: 0.15},
}

// SeedTraits derives a participant's base trait vector from its
// descriptive trait words, starting every dimension at 0.5.
func SeedTraits(descriptors []string) Traits {
	t := Traits{
		Confidence:    0.5,
		Creativity:    0.5,
		Empathy:       0.5,
		Assertiveness: 0.5,
		Curiosity:     0.5,
		RiskTolerance: 0.5,
	}
	for _, d := range descriptors {
		if seeds, ok := descriptorSeeds[strings.ToLower(d)]; ok {
			for name, delta := range seeds {
				t.Add(name, delta)
			}
		}
	}
	return t
}
