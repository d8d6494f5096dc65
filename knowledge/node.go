package knowledge

import (
	"time"

	"github.com/mindmesh-labs/mindmesh/core"
)

// NodeType classifies a knowledge node.
type NodeType string

const (
	TypeConcept  NodeType = "concept"
	TypeArtifact NodeType = "artifact"
	TypeMarket   NodeType = "market"
	TypeProposal NodeType = "proposal"
	TypeEvent    NodeType = "event"
	TypePattern  NodeType = "pattern"
	TypeInsight  NodeType = "insight"
)

var validTypes = map[NodeType]bool{
	TypeConcept:  true,
	TypeArtifact: true,
	TypeMarket:   true,
	TypeProposal: true,
	TypeEvent:    true,
	TypePattern:  true,
	TypeInsight:  true,
}

// Node is a shared knowledge entry. After creation no participant owns
// it: anyone may verify it or cross-reference it. RelatedNodes holds
// only ids, never handles, so the graph stays an arena with no cyclic
// object references. Edges are always symmetric.
type Node struct {
	ID             string                 `json:"id"`
	Type           NodeType               `json:"type"`
	Content        map[string]interface{} `json:"content"`
	CreatedBy      string                 `json:"created_by"`
	CreatedAt      time.Time              `json:"created_at"`
	Confidence     float64                `json:"confidence"`
	VerifiedBy     []string               `json:"verified_by"`
	RelatedNodes   []string               `json:"related_nodes"`
	RelationLabels map[string]string      `json:"relation_labels,omitempty"` // neighbor id -> label
	Tags           []string               `json:"tags"`
}

func (n *Node) validate() error {
	if n.Type == "" || !validTypes[n.Type] {
		return core.ValidationError("unknown knowledge node type %q", n.Type)
	}
	if n.CreatedBy == "" {
		return core.ValidationError("knowledge node missing creator")
	}
	return nil
}

func (n *Node) relatedTo(id string) bool {
	for _, r := range n.RelatedNodes {
		if r == id {
			return true
		}
	}
	return false
}

func (n *Node) verifiedByParticipant(id string) bool {
	for _, v := range n.VerifiedBy {
		if v == id {
			return true
		}
	}
	return false
}

func (n *Node) hasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// clone returns a copy safe to hand to callers.
func (n *Node) clone() Node {
	out := *n
	out.VerifiedBy = append([]string(nil), n.VerifiedBy...)
	out.RelatedNodes = append([]string(nil), n.RelatedNodes...)
	out.Tags = append([]string(nil), n.Tags...)
	if n.RelationLabels != nil {
		out.RelationLabels = make(map[string]string, len(n.RelationLabels))
		for k, v := range n.RelationLabels {
			out.RelationLabels[k] = v
		}
	}
	if n.Content != nil {
		out.Content = make(map[string]interface{}, len(n.Content))
		for k, v := range n.Content {
			out.Content[k] = v
		}
	}
	return out
}
