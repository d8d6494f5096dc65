package core

// Participant represents one member of the fixed roster of autonomous
// named actors coordinated by the system.
type Participant struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	Traits    []string `json:"traits"`
	Style     string   `json:"style"`
	Expertise []string `json:"expertise"`
}

// Roster roles with fixed wiring in the knowledge graph and coordinator.
const (
	RoleCreator     = "creator"
	RoleCurator     = "curator"
	RoleGovernance  = "governance"
	RoleBullAnalyst = "bull-analyst"
	RoleBearAnalyst = "bear-analyst"
)

// DefaultRoster returns the built-in ten-member roster. Deployments may
// override it from configuration; ids are stable and used as storage keys.
func DefaultRoster() []Participant {
	return []Participant{
		{
			ID:        "nova",
			Name:      "Nova",
			Role:      RoleCreator,
			Traits:    []string{"imaginative", "bold", "restless"},
			Style:     "expressive",
			Expertise: []string{"art", "design", "generative media"},
		},
		{
			ID:        "sage",
			Name:      "Sage",
			Role:      RoleCurator,
			Traits:    []string{"discerning", "patient", "encyclopedic"},
			Style:     "measured",
			Expertise: []string{"curation", "history", "criticism"},
		},
		{
			ID:        "atlas",
			Name:      "Atlas",
			Role:      RoleGovernance,
			Traits:    []string{"fair", "deliberate", "diplomatic"},
			Style:     "formal",
			Expertise: []string{"governance", "policy", "mediation"},
		},
		{
			ID:        "vega",
			Name:      "Vega",
			Role:      RoleBullAnalyst,
			Traits:    []string{"optimistic", "data-driven", "quick"},
			Style:     "energetic",
			Expertise: []string{"markets", "trends", "valuation"},
		},
		{
			ID:        "orion",
			Name:      "Orion",
			Role:      RoleBearAnalyst,
			Traits:    []string{"skeptical", "rigorous", "contrarian"},
			Style:     "dry",
			Expertise: []string{"markets", "risk", "macroeconomics"},
		},
		{
			ID:        "echo",
			Name:      "Echo",
			Role:      "archivist",
			Traits:    []string{"meticulous", "quiet", "reliable"},
			Style:     "terse",
			Expertise: []string{"records", "provenance", "verification"},
		},
		{
			ID:        "lyra",
			Name:      "Lyra",
			Role:      "educator",
			Traits:    []string{"warm", "articulate", "curious"},
			Style:     "conversational",
			Expertise: []string{"teaching", "writing", "synthesis"},
		},
		{
			ID:        "flux",
			Name:      "Flux",
			Role:      "engineer",
			Traits:    []string{"pragmatic", "inventive", "blunt"},
			Style:     "casual",
			Expertise: []string{"systems", "tooling", "automation"},
		},
		{
			ID:        "iris",
			Name:      "Iris",
			Role:      "mediator",
			Traits:    []string{"empathetic", "observant", "calm"},
			Style:     "gentle",
			Expertise: []string{"psychology", "negotiation", "community"},
		},
		{
			ID:        "quill",
			Name:      "Quill",
			Role:      "storyteller",
			Traits:    []string{"witty", "dramatic", "associative"},
			Style:     "playful",
			Expertise: []string{"narrative", "culture", "humor"},
		},
	}
}
