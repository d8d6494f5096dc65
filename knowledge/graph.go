package knowledge

import (
	"encoding/json"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindmesh-labs/mindmesh/core"
	"github.com/mindmesh-labs/mindmesh/memory"
	"github.com/mindmesh-labs/mindmesh/storage"
)

const (
	autoConnectLimit = 5
	// recencyScale controls how fast the recency half of the query
	// score decays; one week of age roughly halves it.
	recencyScale = 7 * 24 * time.Hour

	verificationWeight = 0.1
	sharedInsightTag   = "shared_insight"
)

// Filter narrows a graph Query; all set fields are conjunctive.
type Filter struct {
	Type          NodeType
	CreatedBy     string
	Tags          []string
	MinConfidence float64
	From          time.Time
	To            time.Time
	Limit         int
}

// Graph is the shared, tag-indexed knowledge store. All mutation is
// serialized behind one lock; reads take the read half. Nodes are
// addressed by opaque ids only.
type Graph struct {
	mu     sync.RWMutex
	nodes  map[string]*Node
	byTag  map[string]map[string]bool
	roster map[string]core.Participant

	mem     *memory.Store
	broker  *core.NATSBroker
	persist storage.Store
}

// NewGraph creates an empty graph. mem receives the collaboration
// records written by ShareInsight; broker and persist may be nil.
func NewGraph(persist storage.Store, mem *memory.Store, broker *core.NATSBroker, roster []core.Participant) *Graph {
	byRole := make(map[string]core.Participant, len(roster))
	for _, p := range roster {
		byRole[p.ID] = p
	}
	return &Graph{
		nodes:   make(map[string]*Node),
		byTag:   make(map[string]map[string]bool),
		roster:  byRole,
		mem:     mem,
		broker:  broker,
		persist: persist,
	}
}

// Load restores the graph from its snapshot document.
func (g *Graph) Load() error {
	if g.persist == nil {
		return nil
	}

	var nodes []Node
	err := g.persist.GetObject(storage.KnowledgeSnapshotKey, &nodes)
	if err == storage.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range nodes {
		n := nodes[i]
		g.nodes[n.ID] = &n
		g.indexTagsLocked(&n)
	}
	return nil
}

func (g *Graph) indexTagsLocked(n *Node) {
	for _, tag := range n.Tags {
		set, ok := g.byTag[tag]
		if !ok {
			set = make(map[string]bool)
			g.byTag[tag] = set
		}
		set[n.ID] = true
	}
}

// snapshotLocked persists all nodes; failures are logged, the
// in-memory graph stays authoritative.
func (g *Graph) snapshotLocked() {
	if g.persist == nil {
		return
	}
	nodes := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, *n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].CreatedAt.Before(nodes[j].CreatedAt) })
	if err := g.persist.PutObject(storage.KnowledgeSnapshotKey, nodes); err != nil {
		log.Printf("knowledge: snapshot failed: %v", err)
	}
}

// AddNode inserts a node and synchronously auto-connects it to related
// nodes. Returns the node id.
func (g *Graph) AddNode(n Node) (string, error) {
	if err := n.validate(); err != nil {
		return "", err
	}

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Confidence < 0 {
		n.Confidence = 0
	}
	if n.Confidence > 1 {
		n.Confidence = 1
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	stored := n.clone()
	g.nodes[n.ID] = &stored
	g.indexTagsLocked(&stored)
	g.autoConnectLocked(&stored)
	g.snapshotLocked()

	return n.ID, nil
}

// autoConnectLocked links a fresh node to the top candidates sharing
// tags, plus two fixed domain rules: a creator's artifact links to the
// curator's latest insight, and a market view links to the latest
// market view from the complementary analyst.
func (g *Graph) autoConnectLocked(n *Node) {
	type candidate struct {
		id      string
		overlap int
		created time.Time
	}
	seen := make(map[string]bool)
	var candidates []candidate
	for _, tag := range n.Tags {
		for id := range g.byTag[tag] {
			if id == n.ID || seen[id] {
				continue
			}
			seen[id] = true
			other := g.nodes[id]
			overlap := 0
			for _, t := range other.Tags {
				if n.hasTag(t) {
					overlap++
				}
			}
			candidates = append(candidates, candidate{id, overlap, other.CreatedAt})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].overlap != candidates[j].overlap {
			return candidates[i].overlap > candidates[j].overlap
		}
		return candidates[i].created.After(candidates[j].created)
	})
	if len(candidates) > autoConnectLimit {
		candidates = candidates[:autoConnectLimit]
	}
	for _, c := range candidates {
		g.connectLocked(n.ID, c.id, "shared-tags")
	}

	creator, known := g.roster[n.CreatedBy]
	if !known {
		return
	}

	if n.Type == TypeArtifact && creator.Role == core.RoleCreator {
		if insight := g.latestByTypeAndRoleLocked(TypeInsight, core.RoleCurator, n.ID); insight != "" {
			g.connectLocked(n.ID, insight, "inspired-by")
		}
	}

	if n.Type == TypeMarket {
		var counterpart string
		switch creator.Role {
		case core.RoleBullAnalyst:
			counterpart = core.RoleBearAnalyst
		case core.RoleBearAnalyst:
			counterpart = core.RoleBullAnalyst
		}
		if counterpart != "" {
			if other := g.latestByTypeAndRoleLocked(TypeMarket, counterpart, n.ID); other != "" {
				g.connectLocked(n.ID, other, "counterpoint")
			}
		}
	}
}

// latestByTypeAndRoleLocked finds the most recent node of the given
// type created by the participant holding the given role.
func (g *Graph) latestByTypeAndRoleLocked(t NodeType, role string, exclude string) string {
	var bestID string
	var bestAt time.Time
	for id, n := range g.nodes {
		if id == exclude || n.Type != t {
			continue
		}
		p, ok := g.roster[n.CreatedBy]
		if !ok || p.Role != role {
			continue
		}
		if bestID == "" || n.CreatedAt.After(bestAt) {
			bestID, bestAt = id, n.CreatedAt
		}
	}
	return bestID
}

// connectLocked adds a symmetric labeled edge; existing edges are left
// untouched so repeated connects stay idempotent.
func (g *Graph) connectLocked(a, b, label string) {
	na, nb := g.nodes[a], g.nodes[b]
	if na == nil || nb == nil || a == b {
		return
	}
	if !na.relatedTo(b) {
		na.RelatedNodes = append(na.RelatedNodes, b)
		if na.RelationLabels == nil {
			na.RelationLabels = make(map[string]string)
		}
		na.RelationLabels[b] = label
	}
	if !nb.relatedTo(a) {
		nb.RelatedNodes = append(nb.RelatedNodes, a)
		if nb.RelationLabels == nil {
			nb.RelationLabels = make(map[string]string)
		}
		nb.RelationLabels[a] = label
	}
}

// GetNode returns a copy of the node.
func (g *Graph) GetNode(id string) (Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return Node{}, core.NotFoundError("knowledge node", id)
	}
	return n.clone(), nil
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Query returns nodes matching the filter, sorted by a blend of
// confidence and recency (half each), highest first.
func (g *Graph) Query(f Filter) []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	now := time.Now()
	type scored struct {
		node  Node
		score float64
	}
	var out []scored
	for _, n := range g.nodes {
		if f.Type != "" && n.Type != f.Type {
			continue
		}
		if f.CreatedBy != "" && n.CreatedBy != f.CreatedBy {
			continue
		}
		if n.Confidence < f.MinConfidence {
			continue
		}
		if !f.From.IsZero() && n.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && n.CreatedAt.After(f.To) {
			continue
		}
		tagMatch := true
		for _, tag := range f.Tags {
			if !n.hasTag(tag) {
				tagMatch = false
				break
			}
		}
		if !tagMatch {
			continue
		}

		age := now.Sub(n.CreatedAt)
		decay := math.Exp(-float64(age) / float64(recencyScale))
		out = append(out, scored{n.clone(), 0.5*n.Confidence + 0.5*decay})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}

	nodes := make([]Node, len(out))
	for i, s := range out {
		nodes[i] = s.node
	}
	return nodes
}

// CrossReference adds a symmetric labeled edge between two nodes.
// Idempotent; referencing a missing node is a logged no-op returning a
// consistency error.
func (g *Graph) CrossReference(idA, idB, label string) error {
	if idA == idB {
		return core.ValidationError("cannot cross-reference a node with itself")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.nodes[idA] == nil || g.nodes[idB] == nil {
		err := core.ConsistencyError("cross-reference %s <-> %s: node missing", idA, idB)
		log.Printf("knowledge: %v", err)
		return err
	}

	g.connectLocked(idA, idB, label)
	g.snapshotLocked()
	return nil
}

// Verify records a verification: the verifier is appended once and the
// node's confidence rises by a tenth of the verifier's own confidence,
// capped at 1.0. Confidence never decreases.
func (g *Graph) Verify(id, verifierID string, verifierConfidence float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		err := core.ConsistencyError("verify %s: node missing", id)
		log.Printf("knowledge: %v", err)
		return err
	}

	if n.verifiedByParticipant(verifierID) {
		return nil
	}

	n.VerifiedBy = append(n.VerifiedBy, verifierID)
	n.Confidence += verifierConfidence * verificationWeight
	if n.Confidence > 1.0 {
		n.Confidence = 1.0
	}

	g.snapshotLocked()
	return nil
}

// GetExpertKnowledge returns each expert's nodes for a topic. When
// experts is empty they are resolved from the roster's expertise lists
// by case-insensitive substring match.
func (g *Graph) GetExpertKnowledge(topic string, experts []string) map[string][]Node {
	if len(experts) == 0 {
		experts = g.resolveExperts(topic)
	}

	out := make(map[string][]Node, len(experts))
	for _, id := range experts {
		out[id] = g.Query(Filter{CreatedBy: id})
	}
	return out
}

// GetCollaborativeKnowledge returns all nodes verified by more than
// one participant.
func (g *Graph) GetCollaborativeKnowledge() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []Node
	for _, n := range g.nodes {
		if len(n.VerifiedBy) > 1 {
			out = append(out, n.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

type insightEvent struct {
	NodeID  string   `json:"node_id"`
	From    string   `json:"from"`
	To      []string `json:"to"`
	Content string   `json:"content"`
}

// ShareInsight publishes an insight from one participant to others: an
// insight node tagged for every recipient, a collaboration record in
// each recipient's memory log (the graph's only write into the memory
// store), and a broker notification.
func (g *Graph) ShareInsight(content, fromID string, toIDs []string) (string, error) {
	if content == "" {
		return "", core.ValidationError("insight content is empty")
	}
	if fromID == "" {
		return "", core.ValidationError("insight missing sender")
	}

	tags := []string{sharedInsightTag}
	for _, id := range toIDs {
		tags = append(tags, "recipient:"+id)
	}

	nodeID, err := g.AddNode(Node{
		Type:      TypeInsight,
		Content:   map[string]interface{}{"insight": content},
		CreatedBy: fromID,
		Tags:      tags,
	})
	if err != nil {
		return "", err
	}

	if g.mem != nil {
		for _, to := range toIDs {
			_, err := g.mem.Append(memory.Record{
				ParticipantID: to,
				Kind:          memory.KindCollaboration,
				Content: map[string]interface{}{
					"insight": content,
					"node_id": nodeID,
				},
				Metadata: memory.Metadata{
					CollaboratorIDs: []string{fromID},
					Tags:            []string{sharedInsightTag},
				},
			})
			if err != nil {
				log.Printf("knowledge: notify %s of insight failed: %v", to, err)
			}
		}
	}

	if data, err := json.Marshal(insightEvent{NodeID: nodeID, From: fromID, To: toIDs, Content: content}); err == nil {
		g.broker.Publish(core.SubjectInsightShared, data)
	}

	return nodeID, nil
}

// resolveExperts maps a topic to participant ids whose expertise
// matches it by substring, either direction, case-insensitive.
func (g *Graph) resolveExperts(topic string) []string {
	topicLower := normalize(topic)

	var experts []string
	for id, p := range g.roster {
		for _, area := range p.Expertise {
			areaLower := normalize(area)
			if contains(topicLower, areaLower) || contains(areaLower, topicLower) {
				experts = append(experts, id)
				break
			}
		}
	}
	sort.Strings(experts)
	return experts
}
