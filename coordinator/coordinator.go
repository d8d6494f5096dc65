package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindmesh-labs/mindmesh/ai"
	"github.com/mindmesh-labs/mindmesh/core"
	"github.com/mindmesh-labs/mindmesh/knowledge"
	"github.com/mindmesh-labs/mindmesh/memory"
	"github.com/mindmesh-labs/mindmesh/personality"
	"github.com/mindmesh-labs/mindmesh/registry"
)

const (
	// DefaultMaxRounds is how many full round-robin passes a dialogue
	// makes before consensus extraction.
	DefaultMaxRounds = 3
	// DefaultTurnTimeout bounds every generation call.
	DefaultTurnTimeout = 45 * time.Second

	followUpInstruction = "Based on the discussion above, what would you add?"
	excerptLimit        = 200
	promptTurnWindow    = 6
	promoteThreshold    = 240
)

// Config tunes the coordinator; zero values fall back to defaults.
// SynthesizerID names the participant that extracts consensus; when
// empty the roster's governance-role holder is used.
type Config struct {
	MaxRounds     int
	TurnTimeout   time.Duration
	SynthesizerID string
	Workers       int
	PruneInterval time.Duration
	Research      *ai.Researcher
}

// CollaborateRequest starts a multi-round dialogue.
type CollaborateRequest struct {
	Participants []string
	Topic        string
	Context      string
	MaxRounds    int
}

// Coordinator orchestrates dialogues and feeds their outcomes back
// into the memory store, the knowledge graph, and the personality
// engine.
type Coordinator struct {
	reg    *registry.Registry
	mem    *memory.Store
	graph  *knowledge.Graph
	eng    *personality.Engine
	broker *core.NATSBroker
	cfg    Config

	mu        sync.RWMutex
	listeners []func(dialogueID string, t Turn)
}

// New wires a coordinator. All stores are injected; none are globals.
func New(reg *registry.Registry, mem *memory.Store, graph *knowledge.Graph, eng *personality.Engine, broker *core.NATSBroker, cfg Config) *Coordinator {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultTurnTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = 6 * time.Hour
	}
	if cfg.SynthesizerID == "" {
		if p, ok := reg.FindByRole(core.RoleGovernance); ok {
			cfg.SynthesizerID = p.ID
		}
	}

	return &Coordinator{
		reg:    reg,
		mem:    mem,
		graph:  graph,
		eng:    eng,
		broker: broker,
		cfg:    cfg,
	}
}

// OnTurn registers a callback invoked after every completed turn.
func (c *Coordinator) OnTurn(fn func(dialogueID string, t Turn)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Coordinator) notifyTurn(dialogueID string, t Turn) {
	c.mu.RLock()
	listeners := append(([]func(string, Turn))(nil), c.listeners...)
	c.mu.RUnlock()
	for _, fn := range listeners {
		fn(dialogueID, t)
	}
}

// personaPrompt builds a participant's system prompt from its roster
// identity and current trait vector, so evolved traits shape future
// dialogue behavior.
func (c *Coordinator) personaPrompt(p core.Participant) string {
	prompt := fmt.Sprintf(
		"You are %s, a %s. Your traits: %v. Your style is %s. Speak in character and keep contributions focused.",
		p.Name, p.Role, p.Traits, p.Style,
	)

	profile, err := c.eng.GetProfile(p.ID)
	if err != nil {
		return prompt
	}
	t := profile.CurrentTraits
	prompt += fmt.Sprintf(
		" Your current tendencies: confidence %.2f, creativity %.2f, empathy %.2f, assertiveness %.2f, curiosity %.2f, risk tolerance %.2f.",
		t.Confidence, t.Creativity, t.Empathy, t.Assertiveness, t.Curiosity, t.RiskTolerance,
	)
	return prompt
}

// Collaborate runs the dialogue: for every round each participant
// speaks in roster order, seeing the accumulated transcript. A failed
// generation aborts the round but keeps all prior turns and skips
// consensus. With more than one participant, the designated
// synthesizer extracts a consensus afterwards; its failure leaves
// Consensus empty without failing the dialogue.
func (c *Coordinator) Collaborate(ctx context.Context, req CollaborateRequest) (*Dialogue, error) {
	if len(req.Participants) == 0 {
		return nil, core.ValidationError("dialogue needs at least one participant")
	}
	if req.Topic == "" {
		return nil, core.ValidationError("dialogue topic is empty")
	}

	entries := make([]*registry.Entry, 0, len(req.Participants))
	for _, id := range req.Participants {
		e, err := c.reg.Get(id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	maxRounds := req.MaxRounds
	if maxRounds <= 0 {
		maxRounds = c.cfg.MaxRounds
	}

	dlg := &Dialogue{
		ID:           uuid.New().String(),
		Topic:        req.Topic,
		Context:      req.Context,
		Participants: append([]string(nil), req.Participants...),
		Rounds:       maxRounds,
		StartedAt:    time.Now(),
	}

	log.Printf("coordinator: dialogue %s on %q with %d participants, %d rounds",
		dlg.ID, req.Topic, len(entries), maxRounds)

	// Optional web research, decided and executed once per dialogue.
	if c.cfg.Research != nil {
		lead := entries[0]
		if findings := c.cfg.Research.Enrich(ctx, lead.Generator, req.Topic, lead.Participant.Traits); findings != "" {
			if dlg.Context != "" {
				dlg.Context += "\n"
			}
			dlg.Context += findings
		}
	}

	instruction := "Share your perspective on the topic."
	for round := 0; round < maxRounds; round++ {
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				c.feedbackFailure(entry.Participant.ID, req.Topic)
				return dlg, core.CapabilityError(err)
			}

			prompt := c.buildTurnPrompt(dlg, instruction)
			turnCtx, cancel := context.WithTimeout(ctx, c.cfg.TurnTimeout)
			message, err := entry.Generator.Generate(turnCtx, c.personaPrompt(entry.Participant), nil, prompt)
			cancel()
			if err != nil {
				log.Printf("coordinator: turn failed for %s in dialogue %s: %v", entry.Participant.ID, dlg.ID, err)
				c.feedbackFailure(entry.Participant.ID, req.Topic)
				return dlg, err
			}

			turn := Turn{
				ParticipantID: entry.Participant.ID,
				Round:         round,
				Message:       message,
				Timestamp:     time.Now(),
			}
			dlg.Turns = append(dlg.Turns, turn)
			c.recordTurn(dlg, turn)
			c.notifyTurn(dlg.ID, turn)

			instruction = followUpInstruction
		}
	}

	if len(req.Participants) > 1 {
		c.extractConsensus(ctx, dlg)
	}

	dlg.CompletedAt = time.Now()
	c.feedbackSuccess(dlg)
	c.publishCompletion(dlg)
	return dlg, nil
}

func (c *Coordinator) buildTurnPrompt(dlg *Dialogue, instruction string) string {
	prompt := "Topic: " + dlg.Topic + "\n"
	if dlg.Context != "" {
		prompt += "Context: " + dlg.Context + "\n"
	}
	if transcript := dlg.transcript(promptTurnWindow); transcript != "" {
		prompt += "\nRecent discussion:\n" + transcript
	}
	prompt += "\n" + instruction
	return prompt
}

// recordTurn appends the turn to the speaker's memory log and promotes
// substantial contributions into the knowledge graph.
func (c *Coordinator) recordTurn(dlg *Dialogue, turn Turn) {
	if c.mem != nil {
		_, err := c.mem.Append(memory.Record{
			ParticipantID: turn.ParticipantID,
			Kind:          memory.KindConversation,
			Content: map[string]interface{}{
				"message":     turn.Message,
				"topic":       dlg.Topic,
				"dialogue_id": dlg.ID,
				"round":       turn.Round,
			},
			Metadata: memory.Metadata{
				CollaboratorIDs: otherParticipants(dlg.Participants, turn.ParticipantID),
				Tags:            []string{"dialogue"},
			},
		})
		if err != nil {
			log.Printf("coordinator: record turn for %s failed: %v", turn.ParticipantID, err)
		}
	}

	if c.graph != nil && len(turn.Message) >= promoteThreshold {
		_, err := c.graph.AddNode(knowledge.Node{
			Type: knowledge.TypeConcept,
			Content: map[string]interface{}{
				"statement":   turn.Message,
				"topic":       dlg.Topic,
				"dialogue_id": dlg.ID,
			},
			CreatedBy: turn.ParticipantID,
			Tags:      append([]string{"dialogue"}, topicTags(dlg.Topic)...),
		})
		if err != nil {
			log.Printf("coordinator: promote turn to knowledge failed: %v", err)
		}
	}
}

// extractConsensus asks the designated synthesizer to summarize the
// dialogue from truncated excerpts of every turn.
func (c *Coordinator) extractConsensus(ctx context.Context, dlg *Dialogue) {
	synthID := c.cfg.SynthesizerID
	if synthID == "" {
		log.Printf("coordinator: no synthesizer configured, skipping consensus for %s", dlg.ID)
		return
	}
	entry, err := c.reg.Get(synthID)
	if err != nil {
		log.Printf("coordinator: synthesizer %s not registered: %v", synthID, err)
		return
	}

	prompt := fmt.Sprintf(
		"The following is a discussion on %q:\n%s\nSynthesize the group's position: where they agree, where they diverge, and the overall conclusion. Answer in a short paragraph.",
		dlg.Topic, dlg.excerpts(excerptLimit),
	)

	synthCtx, cancel := context.WithTimeout(ctx, c.cfg.TurnTimeout)
	defer cancel()
	consensus, err := entry.Generator.Generate(synthCtx, c.personaPrompt(entry.Participant), nil, prompt)
	if err != nil {
		log.Printf("coordinator: consensus extraction failed for %s: %v", dlg.ID, err)
		return
	}
	dlg.Consensus = consensus

	if c.graph != nil && consensus != "" {
		_, err := c.graph.AddNode(knowledge.Node{
			Type: knowledge.TypeProposal,
			Content: map[string]interface{}{
				"consensus":   consensus,
				"topic":       dlg.Topic,
				"dialogue_id": dlg.ID,
			},
			CreatedBy: synthID,
			Tags:      append([]string{"consensus"}, topicTags(dlg.Topic)...),
		})
		if err != nil {
			log.Printf("coordinator: promote consensus failed: %v", err)
		}
	}
}

// feedbackSuccess records the completed dialogue as a successful
// decision for every participant and nudges traits with success and
// collaboration triggers.
func (c *Coordinator) feedbackSuccess(dlg *Dialogue) {
	success := true
	for _, id := range dlg.Participants {
		if c.mem != nil {
			_, err := c.mem.Append(memory.Record{
				ParticipantID: id,
				Kind:          memory.KindDecision,
				Content: map[string]interface{}{
					"decision":    "collaborate",
					"topic":       dlg.Topic,
					"dialogue_id": dlg.ID,
				},
				Metadata: memory.Metadata{
					Success:         &success,
					CollaboratorIDs: otherParticipants(dlg.Participants, id),
					Tags:            []string{"dialogue"},
				},
			})
			if err != nil {
				log.Printf("coordinator: decision record for %s failed: %v", id, err)
			}
		}

		if c.eng != nil {
			trigType := personality.TriggerSuccess
			if len(dlg.Participants) > 1 {
				trigType = personality.TriggerCollaboration
			}
			if err := c.eng.Evolve(id, personality.Trigger{
				Type:      trigType,
				Context:   dlg.Topic,
				Magnitude: 0.5,
			}); err != nil {
				log.Printf("coordinator: evolve %s failed: %v", id, err)
			}
		}
	}
}

// feedbackFailure records a failed turn for the participant whose
// generation failed.
func (c *Coordinator) feedbackFailure(participantID, topic string) {
	if c.mem != nil {
		failed := false
		_, err := c.mem.Append(memory.Record{
			ParticipantID: participantID,
			Kind:          memory.KindDecision,
			Content: map[string]interface{}{
				"decision": "collaborate",
				"topic":    topic,
			},
			Metadata: memory.Metadata{Success: &failed, Tags: []string{"dialogue"}},
		})
		if err != nil {
			log.Printf("coordinator: failure record for %s failed: %v", participantID, err)
		}
	}
	if c.eng != nil {
		if err := c.eng.Evolve(participantID, personality.Trigger{
			Type:      personality.TriggerFailure,
			Context:   topic,
			Magnitude: 0.5,
		}); err != nil {
			log.Printf("coordinator: evolve %s failed: %v", participantID, err)
		}
	}
}

type completionEvent struct {
	DialogueID   string   `json:"dialogue_id"`
	Topic        string   `json:"topic"`
	Participants []string `json:"participants"`
	Turns        int      `json:"turns"`
	HasConsensus bool     `json:"has_consensus"`
}

func (c *Coordinator) publishCompletion(dlg *Dialogue) {
	data, err := json.Marshal(completionEvent{
		DialogueID:   dlg.ID,
		Topic:        dlg.Topic,
		Participants: dlg.Participants,
		Turns:        len(dlg.Turns),
		HasConsensus: dlg.Consensus != "",
	})
	if err != nil {
		return
	}
	c.broker.Publish(core.SubjectDialogueCompleted, data)
}

func otherParticipants(all []string, self string) []string {
	var out []string
	for _, id := range all {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}
