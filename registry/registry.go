package registry

import (
	"sync"

	"github.com/mindmesh-labs/mindmesh/ai"
	"github.com/mindmesh-labs/mindmesh/core"
)

// Entry binds a roster participant to its generation capability.
type Entry struct {
	Participant core.Participant
	Generator   ai.Generator
}

// Registry maps participant ids to their capabilities. It is populated
// once at startup; adding a participant is a registration, not a code
// branch.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string // registration order, used for round-robin turns
}

func New() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register adds or replaces a participant's entry.
func (r *Registry) Register(p core.Participant, g ai.Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[p.ID]; !exists {
		r.order = append(r.order, p.ID)
	}
	r.entries[p.ID] = &Entry{Participant: p, Generator: g}
}

// Get returns the entry for a participant id.
func (r *Registry) Get(id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, core.NotFoundError("participant", id)
	}
	return e, nil
}

// Participants returns the roster in registration order.
func (r *Registry) Participants() []core.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].Participant)
	}
	return out
}

// IDs returns all participant ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// FindByRole returns the first participant holding the given role.
func (r *Registry) FindByRole(role string) (core.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if r.entries[id].Participant.Role == role {
			return r.entries[id].Participant, true
		}
	}
	return core.Participant{}, false
}
