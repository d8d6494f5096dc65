package personality

import (
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/mindmesh-labs/mindmesh/core"
	"github.com/mindmesh-labs/mindmesh/memory"
	"github.com/mindmesh-labs/mindmesh/storage"
)

// TriggerType classifies an evolution event.
type TriggerType string

const (
	TriggerSuccess       TriggerType = "success"
	TriggerFailure       TriggerType = "failure"
	TriggerCollaboration TriggerType = "collaboration"
	TriggerFeedback      TriggerType = "feedback"
	TriggerLearning      TriggerType = "learning"
)

var validTriggers = map[TriggerType]bool{
	TriggerSuccess:       true,
	TriggerFailure:       true,
	TriggerCollaboration: true,
	TriggerFeedback:      true,
	TriggerLearning:      true,
}

// Trigger describes one evolution stimulus. Magnitude is in [-1,1].
// SpecificTraits, when set, adds explicit per-trait deltas on top of
// the fixed per-type coefficients.
type Trigger struct {
	Type           TriggerType        `json:"type"`
	Context        string             `json:"context"`
	Magnitude      float64            `json:"magnitude"`
	SpecificTraits map[string]float64 `json:"specific_traits,omitempty"`
}

// EvolutionEvent is one entry in a profile's bounded history.
type EvolutionEvent struct {
	Timestamp time.Time          `json:"timestamp"`
	Type      TriggerType        `json:"type"`
	Context   string             `json:"context"`
	Magnitude float64            `json:"magnitude"`
	Deltas    map[string]float64 `json:"deltas"`
}

// Adaptation tracks how often a trigger shape recurs and its average
// absolute impact on the trait vector.
type Adaptation struct {
	Key       string    `json:"key"`
	Frequency int       `json:"frequency"`
	AvgImpact float64   `json:"avg_impact"`
	LastSeen  time.Time `json:"last_seen"`
}

// Profile holds one participant's trait state. BaseTraits never change
// after initialization; CurrentTraits evolve in place.
type Profile struct {
	ParticipantID    string                 `json:"participant_id"`
	BaseTraits       Traits                 `json:"base_traits"`
	CurrentTraits    Traits                 `json:"current_traits"`
	EvolutionHistory []EvolutionEvent       `json:"evolution_history"`
	Adaptations      map[string]*Adaptation `json:"adaptations"`
}

const (
	// DefaultStability damps evolution so only 20% of a raw delta
	// lands on the trait vector.
	DefaultStability = 0.8
	// DefaultRate is the base coefficient for trigger deltas.
	DefaultRate = 0.1

	maxHistory        = 100
	maxAdaptations    = 20
	adaptationCtxLen  = 24
	interactionLerp   = 0.02
	complementaryHigh = 0.7
	alignedLow        = 0.5
)

// EngineConfig tunes the engine; zero values fall back to defaults.
type EngineConfig struct {
	Stability float64
	Rate      float64
}

// Engine is the per-participant trait state machine. Profiles are
// created once from the roster; other components never mutate them
// directly, only through Evolve and AdjustFromInteraction.
type Engine struct {
	mu        sync.RWMutex
	profiles  map[string]*Profile
	stability float64
	rate      float64

	mem     *memory.Store // optional audit trail
	persist storage.Store
}

// NewEngine seeds one profile per roster member. mem, when non-nil,
// receives a training record for every evolution; persist, when
// non-nil, receives profile snapshots.
func NewEngine(persist storage.Store, mem *memory.Store, roster []core.Participant, cfg EngineConfig) *Engine {
	if cfg.Stability <= 0 || cfg.Stability >= 1 {
		cfg.Stability = DefaultStability
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}

	profiles := make(map[string]*Profile, len(roster))
	for _, p := range roster {
		base := SeedTraits(p.Traits)
		profiles[p.ID] = &Profile{
			ParticipantID: p.ID,
			BaseTraits:    base,
			CurrentTraits: base.clone(),
			Adaptations:   make(map[string]*Adaptation),
		}
	}

	return &Engine{
		profiles:  profiles,
		stability: cfg.Stability,
		rate:      cfg.Rate,
		mem:       mem,
		persist:   persist,
	}
}

// Load restores profiles from the snapshot document. Unknown
// participants in the snapshot are ignored.
func (e *Engine) Load() error {
	if e.persist == nil {
		return nil
	}

	var saved []Profile
	err := e.persist.GetObject(storage.PersonalitySnapshotKey, &saved)
	if err == storage.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range saved {
		p := saved[i]
		if _, ok := e.profiles[p.ParticipantID]; ok {
			if p.Adaptations == nil {
				p.Adaptations = make(map[string]*Adaptation)
			}
			e.profiles[p.ParticipantID] = &p
		}
	}
	return nil
}

func (e *Engine) snapshotLocked() {
	if e.persist == nil {
		return
	}
	profiles := make([]Profile, 0, len(e.profiles))
	for _, p := range e.profiles {
		profiles = append(profiles, *p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ParticipantID < profiles[j].ParticipantID })
	if err := e.persist.PutObject(storage.PersonalitySnapshotKey, profiles); err != nil {
		log.Printf("personality: snapshot failed: %v", err)
	}
}

// GetProfile returns a copy of the participant's profile.
func (e *Engine) GetProfile(participantID string) (Profile, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.profiles[participantID]
	if !ok {
		return Profile{}, core.NotFoundError("personality profile", participantID)
	}

	out := *p
	out.BaseTraits = p.BaseTraits.clone()
	out.CurrentTraits = p.CurrentTraits.clone()
	out.EvolutionHistory = append([]EvolutionEvent(nil), p.EvolutionHistory...)
	out.Adaptations = make(map[string]*Adaptation, len(p.Adaptations))
	for k, a := range p.Adaptations {
		copied := *a
		out.Adaptations[k] = &copied
	}
	return out, nil
}

// triggerDeltas returns the raw per-trait deltas for a trigger before
// stability damping. Coefficients are fixed per trigger type.
func (e *Engine) triggerDeltas(trig Trigger) map[string]float64 {
	deltas := make(map[string]float64)
	m := trig.Magnitude

	switch trig.Type {
	case TriggerSuccess:
		deltas[TraitConfidence] = e.rate * m
		deltas[TraitAssertiveness] = e.rate * m * 0.5
	case TriggerFailure:
		deltas[TraitConfidence] = -e.rate * math.Abs(m) * 0.5
		deltas[TraitCuriosity] = e.rate * 0.3
		deltas[TraitRiskTolerance] = -e.rate * 0.2
	case TriggerCollaboration:
		deltas[TraitEmpathy] = e.rate * m
		deltas[TraitConfidence] = e.rate * m * 0.3
	case TriggerFeedback:
		deltas[TraitConfidence] = e.rate * m * 0.5
		deltas[TraitCreativity] = e.rate * m * 0.3
	case TriggerLearning:
		deltas[TraitCuriosity] = e.rate * math.Abs(m)
		deltas[TraitCreativity] = e.rate * math.Abs(m) * 0.4
	}

	for name, d := range trig.SpecificTraits {
		deltas[name] += d
	}
	return deltas
}

// Evolve applies a trigger to the participant's current traits. Only
// (1 - stability) of each raw delta lands; results are clamped to
// [0,1]. The event is recorded in the bounded history and folded into
// the adaptation table.
func (e *Engine) Evolve(participantID string, trig Trigger) error {
	if !validTriggers[trig.Type] {
		return core.ValidationError("unknown trigger type %q", trig.Type)
	}
	if trig.Magnitude < -1 || trig.Magnitude > 1 {
		return core.ValidationError("trigger magnitude %.2f outside [-1,1]", trig.Magnitude)
	}

	e.mu.Lock()
	p, ok := e.profiles[participantID]
	if !ok {
		e.mu.Unlock()
		return core.NotFoundError("personality profile", participantID)
	}

	raw := e.triggerDeltas(trig)
	applied := make(map[string]float64, len(raw))
	var impact float64
	for name, d := range raw {
		actual := d * (1 - e.stability)
		before := p.CurrentTraits.Get(name)
		p.CurrentTraits.Add(name, actual)
		applied[name] = p.CurrentTraits.Get(name) - before
		impact += math.Abs(applied[name])
	}

	p.EvolutionHistory = append(p.EvolutionHistory, EvolutionEvent{
		Timestamp: time.Now(),
		Type:      trig.Type,
		Context:   trig.Context,
		Magnitude: trig.Magnitude,
		Deltas:    applied,
	})
	if len(p.EvolutionHistory) > maxHistory {
		p.EvolutionHistory = p.EvolutionHistory[len(p.EvolutionHistory)-maxHistory:]
	}

	e.recordAdaptationLocked(p, trig, impact)
	e.snapshotLocked()
	e.mu.Unlock()

	if e.mem != nil {
		_, err := e.mem.Append(memory.Record{
			ParticipantID: participantID,
			Kind:          memory.KindTraining,
			Content: map[string]interface{}{
				"trigger": string(trig.Type),
				"context": trig.Context,
			},
			Metadata: memory.Metadata{Confidence: impact},
		})
		if err != nil {
			log.Printf("personality: audit record for %s failed: %v", participantID, err)
		}
	}
	return nil
}

// recordAdaptationLocked updates the frequency/impact entry for this
// trigger shape and trims the table to the top entries by frequency.
func (e *Engine) recordAdaptationLocked(p *Profile, trig Trigger, impact float64) {
	ctx := trig.Context
	if len(ctx) > adaptationCtxLen {
		ctx = ctx[:adaptationCtxLen]
	}
	key := string(trig.Type) + ":" + ctx

	a, ok := p.Adaptations[key]
	if !ok {
		a = &Adaptation{Key: key}
		p.Adaptations[key] = a
	}
	a.Frequency++
	a.AvgImpact += (impact - a.AvgImpact) / float64(a.Frequency)
	a.LastSeen = time.Now()

	if len(p.Adaptations) > maxAdaptations {
		keys := make([]string, 0, len(p.Adaptations))
		for k := range p.Adaptations {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if p.Adaptations[keys[i]].Frequency != p.Adaptations[keys[j]].Frequency {
				return p.Adaptations[keys[i]].Frequency > p.Adaptations[keys[j]].Frequency
			}
			return keys[i] < keys[j]
		})
		for _, k := range keys[maxAdaptations:] {
			delete(p.Adaptations, k)
		}
	}
}

// Outcome classifies an interaction between two participants.
type Outcome string

const (
	OutcomePositive Outcome = "positive"
	OutcomeNegative Outcome = "negative"
	OutcomeNeutral  Outcome = "neutral"
)

// AdjustFromInteraction nudges a participant based on working with
// another. A positive outcome pulls every trait 2% toward the other
// participant's and registers a collaboration trigger; a negative one
// registers a learning trigger lowering confidence and raising
// assertiveness. Neutral is a no-op.
func (e *Engine) AdjustFromInteraction(participantID, otherID string, outcome Outcome) error {
	switch outcome {
	case OutcomeNeutral:
		return nil
	case OutcomePositive, OutcomeNegative:
	default:
		return core.ValidationError("unknown interaction outcome %q", outcome)
	}

	e.mu.Lock()
	p, selfOK := e.profiles[participantID]
	other, otherOK := e.profiles[otherID]
	if !selfOK {
		e.mu.Unlock()
		return core.NotFoundError("personality profile", participantID)
	}
	if !otherOK {
		e.mu.Unlock()
		return core.NotFoundError("personality profile", otherID)
	}

	if outcome == OutcomePositive {
		for _, name := range namedTraits {
			current := p.CurrentTraits.Get(name)
			target := other.CurrentTraits.Get(name)
			p.CurrentTraits.Set(name, current+(target-current)*interactionLerp)
		}
		e.mu.Unlock()

		return e.Evolve(participantID, Trigger{
			Type:      TriggerCollaboration,
			Context:   "interaction with " + otherID,
			Magnitude: 0.5,
		})
	}
	e.mu.Unlock()

	return e.Evolve(participantID, Trigger{
		Type:      TriggerLearning,
		Context:   "friction with " + otherID,
		Magnitude: 0.5,
		SpecificTraits: map[string]float64{
			TraitConfidence:    -e.rate,
			TraitAssertiveness: e.rate,
		},
	})
}

// Compatibility is the result of comparing two participants.
type Compatibility struct {
	Score          float64  `json:"score"`
	Strengths      []string `json:"strengths"`
	Challenges     []string `json:"challenges"`
	Recommendation string   `json:"recommendation"`
}

// AnalyzeCompatibility scores a pairing: difference is good on
// complementary traits (assertiveness, risk tolerance), similarity is
// good on aligned traits (creativity, empathy, curiosity).
func (e *Engine) AnalyzeCompatibility(aID, bID string) (Compatibility, error) {
	a, err := e.GetProfile(aID)
	if err != nil {
		return Compatibility{}, err
	}
	b, err := e.GetProfile(bID)
	if err != nil {
		return Compatibility{}, err
	}

	at, bt := a.CurrentTraits, b.CurrentTraits

	complementary := []string{TraitAssertiveness, TraitRiskTolerance}
	aligned := []string{TraitCreativity, TraitEmpathy, TraitCuriosity}

	var sum float64
	for _, name := range complementary {
		sum += math.Abs(at.Get(name) - bt.Get(name))
	}
	for _, name := range aligned {
		sum += 1 - math.Abs(at.Get(name)-bt.Get(name))
	}
	score := sum / float64(len(complementary)+len(aligned))

	c := Compatibility{Score: score}

	if at.Creativity > complementaryHigh && bt.Creativity > complementaryHigh {
		c.Strengths = append(c.Strengths, "both bring strong creative energy")
	}
	if at.Curiosity > complementaryHigh && bt.Curiosity > complementaryHigh {
		c.Strengths = append(c.Strengths, "shared appetite for exploration")
	}
	if math.Abs(at.Assertiveness-bt.Assertiveness) > 0.3 {
		c.Strengths = append(c.Strengths, "one leads while the other weighs in")
	}
	if at.Empathy < alignedLow && bt.Empathy < alignedLow {
		c.Challenges = append(c.Challenges, "neither is inclined to smooth over conflict")
	}
	if at.Assertiveness > complementaryHigh && bt.Assertiveness > complementaryHigh {
		c.Challenges = append(c.Challenges, "two strong voices may clash over direction")
	}
	if at.RiskTolerance > complementaryHigh && bt.RiskTolerance > complementaryHigh {
		c.Challenges = append(c.Challenges, "no one playing it safe")
	}

	switch {
	case score > 0.7:
		c.Recommendation = "strong pairing; assign joint work freely"
	case score > 0.5:
		c.Recommendation = "promising pairing; works well with a clear brief"
	default:
		c.Recommendation = "pair with care; define roles up front"
	}

	return c, nil
}

// ParticipantIDs returns the ids of all profiles.
func (e *Engine) ParticipantIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]string, 0, len(e.profiles))
	for id := range e.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
