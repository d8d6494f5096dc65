package coordinator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mindmesh-labs/mindmesh/ai"
	"github.com/mindmesh-labs/mindmesh/core"
	"github.com/mindmesh-labs/mindmesh/knowledge"
	"github.com/mindmesh-labs/mindmesh/memory"
	"github.com/mindmesh-labs/mindmesh/personality"
	"github.com/mindmesh-labs/mindmesh/registry"
)

// mockGenerator returns scripted responses so dialogues run
// deterministically and offline.
type mockGenerator struct {
	mu      sync.Mutex
	calls   int
	respond func(call int, prompt string) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, system string, history []ai.Message, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.respond(m.calls, prompt)
}

func fixedReply(reply string) *mockGenerator {
	return &mockGenerator{respond: func(int, string) (string, error) { return reply, nil }}
}

func testParticipants() []core.Participant {
	return []core.Participant{
		{ID: "nova", Name: "Nova", Role: core.RoleCreator, Traits: []string{"imaginative"}, Style: "vivid"},
		{ID: "sage", Name: "Sage", Role: core.RoleCurator, Traits: []string{"meticulous"}, Style: "measured"},
		{ID: "atlas", Name: "Atlas", Role: core.RoleGovernance, Traits: []string{"fair"}, Style: "even-handed"},
		{ID: "vega", Name: "Vega", Role: core.RoleBullAnalyst, Traits: []string{"optimistic"}, Style: "energetic"},
		{ID: "orion", Name: "Orion", Role: core.RoleBearAnalyst, Traits: []string{"skeptical"}, Style: "dry"},
	}
}

type fixture struct {
	coord *Coordinator
	mem   *memory.Store
	graph *knowledge.Graph
	eng   *personality.Engine
	reg   *registry.Registry
}

func newFixture(t *testing.T, gens map[string]ai.Generator, cfg Config) *fixture {
	t.Helper()

	roster := testParticipants()
	ids := make([]string, len(roster))
	for i, p := range roster {
		ids[i] = p.ID
	}

	mem := memory.NewStore(nil, ids, memory.StoreConfig{})
	graph := knowledge.NewGraph(nil, mem, nil, roster)
	eng := personality.NewEngine(nil, nil, roster, personality.EngineConfig{})

	reg := registry.New()
	for _, p := range roster {
		g, ok := gens[p.ID]
		if !ok {
			g = fixedReply("I have nothing further to add.")
		}
		reg.Register(p, g)
	}

	return &fixture{
		coord: New(reg, mem, graph, eng, nil, cfg),
		mem:   mem,
		graph: graph,
		eng:   eng,
		reg:   reg,
	}
}

func TestCollaborateRoundRobin(t *testing.T) {
	f := newFixture(t, map[string]ai.Generator{
		"nova":  fixedReply("nova speaks"),
		"sage":  fixedReply("sage speaks"),
		"atlas": fixedReply("the group converges on a shared direction"),
	}, Config{})

	dlg, err := f.coord.Collaborate(context.Background(), CollaborateRequest{
		Participants: []string{"nova", "sage"},
		Topic:        "launch planning",
		MaxRounds:    2,
	})
	if err != nil {
		t.Fatalf("Collaborate failed: %v", err)
	}

	if len(dlg.Turns) != 4 {
		t.Fatalf("expected 2 rounds x 2 participants = 4 turns, got %d", len(dlg.Turns))
	}
	wantOrder := []string{"nova", "sage", "nova", "sage"}
	for i, turn := range dlg.Turns {
		if turn.ParticipantID != wantOrder[i] {
			t.Errorf("turn %d: expected %s, got %s", i, wantOrder[i], turn.ParticipantID)
		}
		if turn.Round != i/2 {
			t.Errorf("turn %d: expected round %d, got %d", i, i/2, turn.Round)
		}
	}

	if dlg.Consensus == "" {
		t.Error("expected non-empty consensus with more than one participant")
	}
	if dlg.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set")
	}
}

func TestCollaborateFeedback(t *testing.T) {
	f := newFixture(t, nil, Config{})

	if _, err := f.coord.Collaborate(context.Background(), CollaborateRequest{
		Participants: []string{"nova", "sage"},
		Topic:        "launch planning",
		MaxRounds:    1,
	}); err != nil {
		t.Fatalf("Collaborate failed: %v", err)
	}

	for _, id := range []string{"nova", "sage"} {
		conversations, err := f.mem.Query(id, memory.Filter{Kind: memory.KindConversation})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(conversations) != 1 {
			t.Errorf("expected 1 conversation record for %s, got %d", id, len(conversations))
		}

		decisions, err := f.mem.Query(id, memory.Filter{Kind: memory.KindDecision})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(decisions) != 1 {
			t.Fatalf("expected 1 decision record for %s, got %d", id, len(decisions))
		}
		if s := decisions[0].Metadata.Success; s == nil || !*s {
			t.Errorf("expected successful decision for %s, got %v", id, s)
		}

		profile, err := f.eng.GetProfile(id)
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}
		if len(profile.EvolutionHistory) == 0 {
			t.Errorf("expected evolution history for %s after dialogue", id)
		}
	}
}

func TestCollaborateSingleParticipantSkipsConsensus(t *testing.T) {
	f := newFixture(t, nil, Config{})

	dlg, err := f.coord.Collaborate(context.Background(), CollaborateRequest{
		Participants: []string{"nova"},
		Topic:        "solo reflection",
		MaxRounds:    1,
	})
	if err != nil {
		t.Fatalf("Collaborate failed: %v", err)
	}
	if len(dlg.Turns) != 1 {
		t.Errorf("expected 1 turn, got %d", len(dlg.Turns))
	}
	if dlg.Consensus != "" {
		t.Errorf("expected no consensus for a single participant, got %q", dlg.Consensus)
	}
}

func TestCollaborateGenerationFailure(t *testing.T) {
	boom := errors.New("model unavailable")
	f := newFixture(t, map[string]ai.Generator{
		"nova": fixedReply("nova speaks"),
		"sage": &mockGenerator{respond: func(int, string) (string, error) { return "", boom }},
	}, Config{})

	dlg, err := f.coord.Collaborate(context.Background(), CollaborateRequest{
		Participants: []string{"nova", "sage"},
		Topic:        "launch planning",
		MaxRounds:    2,
	})
	if err == nil {
		t.Fatal("expected error from failing generator")
	}

	if len(dlg.Turns) != 1 || dlg.Turns[0].ParticipantID != "nova" {
		t.Errorf("expected only nova's prior turn kept, got %v", dlg.Turns)
	}
	if dlg.Consensus != "" {
		t.Error("failed dialogue must not have a consensus")
	}

	decisions, _ := f.mem.Query("sage", memory.Filter{Kind: memory.KindDecision})
	if len(decisions) != 1 {
		t.Fatalf("expected 1 failure decision for sage, got %d", len(decisions))
	}
	if s := decisions[0].Metadata.Success; s == nil || *s {
		t.Errorf("expected failed decision recorded, got %v", s)
	}
}

func TestCollaborateValidation(t *testing.T) {
	f := newFixture(t, nil, Config{})

	if _, err := f.coord.Collaborate(context.Background(), CollaborateRequest{Topic: "x"}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected validation error for empty participants, got %v", err)
	}
	if _, err := f.coord.Collaborate(context.Background(), CollaborateRequest{Participants: []string{"nova"}}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected validation error for empty topic, got %v", err)
	}
	if _, err := f.coord.Collaborate(context.Background(), CollaborateRequest{Participants: []string{"ghost"}, Topic: "x"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected not-found error for unknown participant, got %v", err)
	}
}

func TestCollaborateCancelledContext(t *testing.T) {
	f := newFixture(t, nil, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.coord.Collaborate(ctx, CollaborateRequest{
		Participants: []string{"nova", "sage"},
		Topic:        "launch planning",
	})
	if !errors.Is(err, core.ErrCapability) {
		t.Errorf("expected capability error on cancelled context, got %v", err)
	}
}

func TestTurnPromotion(t *testing.T) {
	long := strings.Repeat("a substantial point about the topic. ", 10)
	f := newFixture(t, map[string]ai.Generator{
		"nova": fixedReply(long),
	}, Config{})

	if _, err := f.coord.Collaborate(context.Background(), CollaborateRequest{
		Participants: []string{"nova"},
		Topic:        "generative art economics",
		MaxRounds:    1,
	}); err != nil {
		t.Fatalf("Collaborate failed: %v", err)
	}

	nodes := f.graph.Query(knowledge.Filter{Type: knowledge.TypeConcept, CreatedBy: "nova"})
	if len(nodes) != 1 {
		t.Fatalf("expected 1 promoted concept node, got %d", len(nodes))
	}
	if !hasString(nodes[0].Tags, "dialogue") {
		t.Errorf("expected dialogue tag, got %v", nodes[0].Tags)
	}
	if !hasString(nodes[0].Tags, "generative") {
		t.Errorf("expected topic-derived tag, got %v", nodes[0].Tags)
	}
}

func TestConsensusPromotedAsProposal(t *testing.T) {
	f := newFixture(t, map[string]ai.Generator{
		"atlas": fixedReply("the group agrees to ship in stages"),
	}, Config{})

	if _, err := f.coord.Collaborate(context.Background(), CollaborateRequest{
		Participants: []string{"nova", "sage"},
		Topic:        "release strategy",
		MaxRounds:    1,
	}); err != nil {
		t.Fatalf("Collaborate failed: %v", err)
	}

	nodes := f.graph.Query(knowledge.Filter{Type: knowledge.TypeProposal})
	if len(nodes) != 1 {
		t.Fatalf("expected 1 proposal node, got %d", len(nodes))
	}
	if nodes[0].CreatedBy != "atlas" {
		t.Errorf("expected proposal created by the synthesizer, got %s", nodes[0].CreatedBy)
	}
}

func TestOnTurnListeners(t *testing.T) {
	f := newFixture(t, nil, Config{})

	var mu sync.Mutex
	var seen []Turn
	f.coord.OnTurn(func(dialogueID string, turn Turn) {
		mu.Lock()
		seen = append(seen, turn)
		mu.Unlock()
	})

	if _, err := f.coord.Collaborate(context.Background(), CollaborateRequest{
		Participants: []string{"nova", "sage"},
		Topic:        "launch planning",
		MaxRounds:    1,
	}); err != nil {
		t.Fatalf("Collaborate failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Errorf("expected 2 turn notifications, got %d", len(seen))
	}
}

func TestRunDailyCycle(t *testing.T) {
	f := newFixture(t, nil, Config{Workers: 2})

	ok := true
	if _, err := f.mem.Append(memory.Record{
		ParticipantID: "nova",
		Kind:          memory.KindDecision,
		Content:       map[string]interface{}{"decision": "mint"},
		Metadata:      memory.Metadata{Success: &ok},
	}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	report, err := f.coord.RunDailyCycle(context.Background())
	if err != nil {
		t.Fatalf("RunDailyCycle failed: %v", err)
	}
	if len(report.Reports) != len(f.mem.ParticipantIDs()) {
		t.Fatalf("expected a report per participant, got %d", len(report.Reports))
	}
	for _, r := range report.Reports {
		if r.Err != "" {
			t.Errorf("unexpected error for %s: %s", r.ParticipantID, r.Err)
		}
		if r.ParticipantID == "nova" && r.TotalMemories != 1 {
			t.Errorf("expected 1 memory for nova, got %d", r.TotalMemories)
		}
	}
}

func hasString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
