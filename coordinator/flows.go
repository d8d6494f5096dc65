package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/mindmesh-labs/mindmesh/core"
	"github.com/mindmesh-labs/mindmesh/knowledge"
	"github.com/mindmesh-labs/mindmesh/memory"
)

// MarketView is one analyst's structured read of an asset.
type MarketView struct {
	Outlook    string  `json:"outlook"` // "bullish", "bearish", "neutral"
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary"`
}

// MarketAnalysisResult combines both analysts' views, their dialogue,
// and a rule-derived recommendation.
type MarketAnalysisResult struct {
	Asset          string     `json:"asset"`
	BullView       MarketView `json:"bull_view"`
	BearView       MarketView `json:"bear_view"`
	Dialogue       *Dialogue  `json:"dialogue"`
	Recommendation string     `json:"recommendation"`
}

// MarketAnalysis runs the two-analyst flow: each analyst produces a
// structured view, the pair debates seeded with both views, and a
// fixed decision table (not generation) derives the recommendation.
func (c *Coordinator) MarketAnalysis(ctx context.Context, asset string) (*MarketAnalysisResult, error) {
	if asset == "" {
		return nil, core.ValidationError("market analysis needs an asset")
	}

	bull, ok := c.reg.FindByRole(core.RoleBullAnalyst)
	if !ok {
		return nil, core.NotFoundError("role", core.RoleBullAnalyst)
	}
	bear, ok := c.reg.FindByRole(core.RoleBearAnalyst)
	if !ok {
		return nil, core.NotFoundError("role", core.RoleBearAnalyst)
	}

	bullView, err := c.analystView(ctx, bull.ID, asset)
	if err != nil {
		return nil, err
	}
	bearView, err := c.analystView(ctx, bear.ID, asset)
	if err != nil {
		return nil, err
	}

	seed := fmt.Sprintf("%s's view: %s\n%s's view: %s", bull.Name, bullView.Summary, bear.Name, bearView.Summary)
	dlg, err := c.Collaborate(ctx, CollaborateRequest{
		Participants: []string{bull.ID, bear.ID},
		Topic:        "market analysis: " + asset,
		Context:      seed,
		MaxRounds:    2,
	})
	if err != nil {
		return nil, err
	}

	return &MarketAnalysisResult{
		Asset:          asset,
		BullView:       bullView,
		BearView:       bearView,
		Dialogue:       dlg,
		Recommendation: recommend(bullView, bearView),
	}, nil
}

// analystView asks one analyst for a structured JSON view of the
// asset and promotes it into the graph as a market node.
func (c *Coordinator) analystView(ctx context.Context, analystID, asset string) (MarketView, error) {
	entry, err := c.reg.Get(analystID)
	if err != nil {
		return MarketView{}, err
	}

	prompt := fmt.Sprintf(`Analyze %q and return a JSON object:
{
  "outlook": "bullish" | "bearish" | "neutral",
  "confidence": 0.0-1.0,
  "summary": "one-paragraph reasoning"
}`, asset)

	viewCtx, cancel := context.WithTimeout(ctx, c.cfg.TurnTimeout)
	defer cancel()
	response, err := entry.Generator.Generate(viewCtx, c.personaPrompt(entry.Participant), nil, prompt)
	if err != nil {
		return MarketView{}, err
	}

	view := parseMarketView(response)

	if c.graph != nil {
		_, err := c.graph.AddNode(knowledge.Node{
			Type: knowledge.TypeMarket,
			Content: map[string]interface{}{
				"asset":   asset,
				"outlook": view.Outlook,
				"summary": view.Summary,
			},
			CreatedBy:  analystID,
			Confidence: view.Confidence,
			Tags:       []string{"market", strings.ToLower(asset)},
		})
		if err != nil {
			log.Printf("coordinator: promote market view failed: %v", err)
		}
	}

	return view, nil
}

// parseMarketView reads the analyst's JSON, falling back to keyword
// detection when the reply is not valid JSON.
func parseMarketView(response string) MarketView {
	var view MarketView
	if err := json.Unmarshal([]byte(response), &view); err == nil && view.Outlook != "" {
		if view.Confidence < 0 {
			view.Confidence = 0
		}
		if view.Confidence > 1 {
			view.Confidence = 1
		}
		return view
	}

	upper := strings.ToUpper(response)
	view = MarketView{Outlook: "neutral", Confidence: 0.5, Summary: response}
	if strings.Contains(upper, "BULLISH") {
		view.Outlook = "bullish"
	} else if strings.Contains(upper, "BEARISH") {
		view.Outlook = "bearish"
	}
	return view
}

// recommend is the fixed decision table combining the two views.
func recommend(bull, bear MarketView) string {
	switch {
	case bull.Outlook == "bullish" && bear.Outlook == "bullish":
		return "buy"
	case bull.Outlook == "bearish" && bear.Outlook == "bearish":
		return "avoid"
	case bull.Outlook == "bullish" && bear.Outlook == "bearish":
		if bull.Confidence-bear.Confidence > 0.2 {
			return "lean buy"
		}
		if bear.Confidence-bull.Confidence > 0.2 {
			return "lean avoid"
		}
		return "hold"
	default:
		return "hold"
	}
}

// CreativeResult is the outcome of the creator/curator flow.
type CreativeResult struct {
	Theme     string    `json:"theme"`
	Brief     string    `json:"brief"`
	Concept   string    `json:"concept"`
	Dialogue  *Dialogue `json:"dialogue"`
	Synthesis string    `json:"synthesis"`
}

// CreativeCollaboration runs the creator/curator flow: the curator
// frames the theme (an insight node), the creator answers with a
// concept (an artifact node, auto-linked to the curator's insight),
// and both then refine it in dialogue; the dialogue consensus is the
// synthesis.
func (c *Coordinator) CreativeCollaboration(ctx context.Context, theme string) (*CreativeResult, error) {
	if theme == "" {
		return nil, core.ValidationError("creative collaboration needs a theme")
	}

	creator, ok := c.reg.FindByRole(core.RoleCreator)
	if !ok {
		return nil, core.NotFoundError("role", core.RoleCreator)
	}
	curator, ok := c.reg.FindByRole(core.RoleCurator)
	if !ok {
		return nil, core.NotFoundError("role", core.RoleCurator)
	}

	brief, err := c.generateFor(ctx, curator.ID,
		fmt.Sprintf("Frame the theme %q for a new piece: what matters about it, what to avoid, one reference worth studying.", theme))
	if err != nil {
		return nil, err
	}
	if c.graph != nil {
		if _, err := c.graph.AddNode(knowledge.Node{
			Type:      knowledge.TypeInsight,
			Content:   map[string]interface{}{"brief": brief, "theme": theme},
			CreatedBy: curator.ID,
			Tags:      append([]string{"brief"}, topicTags(theme)...),
		}); err != nil {
			log.Printf("coordinator: promote brief failed: %v", err)
		}
	}

	concept, err := c.generateFor(ctx, creator.ID,
		fmt.Sprintf("Using this brief:\n%s\n\nPropose a concrete concept for %q: form, materials or medium, and the one idea it should land.", brief, theme))
	if err != nil {
		return nil, err
	}
	if c.mem != nil {
		if _, err := c.mem.Append(memory.Record{
			ParticipantID: creator.ID,
			Kind:          memory.KindCreation,
			Content:       map[string]interface{}{"concept": concept, "theme": theme},
			Metadata:      memory.Metadata{Tags: []string{"creation"}},
		}); err != nil {
			log.Printf("coordinator: record creation failed: %v", err)
		}
	}
	if c.graph != nil {
		if _, err := c.graph.AddNode(knowledge.Node{
			Type:      knowledge.TypeArtifact,
			Content:   map[string]interface{}{"concept": concept, "theme": theme},
			CreatedBy: creator.ID,
			Tags:      append([]string{"artifact"}, topicTags(theme)...),
		}); err != nil {
			log.Printf("coordinator: promote concept failed: %v", err)
		}
	}

	dlg, err := c.Collaborate(ctx, CollaborateRequest{
		Participants: []string{creator.ID, curator.ID},
		Topic:        "refining: " + theme,
		Context:      "Brief: " + brief + "\nConcept: " + concept,
		MaxRounds:    2,
	})
	if err != nil {
		return nil, err
	}

	return &CreativeResult{
		Theme:     theme,
		Brief:     brief,
		Concept:   concept,
		Dialogue:  dlg,
		Synthesis: dlg.Consensus,
	}, nil
}

// generateFor runs a single bounded generation call for a participant.
func (c *Coordinator) generateFor(ctx context.Context, participantID, prompt string) (string, error) {
	entry, err := c.reg.Get(participantID)
	if err != nil {
		return "", err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.TurnTimeout)
	defer cancel()
	return entry.Generator.Generate(callCtx, c.personaPrompt(entry.Participant), nil, prompt)
}

// topicTags derives up to three tag words from a topic string.
func topicTags(topic string) []string {
	var tags []string
	for _, w := range strings.Fields(strings.ToLower(topic)) {
		w = strings.Trim(w, ".,:;!?\"'")
		if len(w) < 4 {
			continue
		}
		tags = append(tags, w)
		if len(tags) == 3 {
			break
		}
	}
	return tags
}
