package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mindmesh-labs/mindmesh/core"
)

// Kind classifies a memory record.
type Kind string

const (
	KindConversation  Kind = "conversation"
	KindDecision      Kind = "decision"
	KindCreation      Kind = "creation"
	KindCollaboration Kind = "collaboration"
	KindTraining      Kind = "training"
)

var validKinds = map[Kind]bool{
	KindConversation:  true,
	KindDecision:      true,
	KindCreation:      true,
	KindCollaboration: true,
	KindTraining:      true,
}

// Metadata carries optional annotations on a record.
type Metadata struct {
	Success         *bool    `json:"success,omitempty"`
	Confidence      float64  `json:"confidence,omitempty"`
	CollaboratorIDs []string `json:"collaborator_ids,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// Record is a single immutable entry in a participant's memory log.
// Content is kind-specific; a decision record carries its label under
// the "decision" key, which becomes the pattern discriminator.
type Record struct {
	ID            string                 `json:"id"`
	ParticipantID string                 `json:"participant_id"`
	Timestamp     time.Time              `json:"timestamp"`
	Kind          Kind                   `json:"kind"`
	Content       map[string]interface{} `json:"content"`
	Metadata      Metadata               `json:"metadata"`
}

// Validate rejects records missing the two required fields.
func (r *Record) Validate() error {
	if r.ParticipantID == "" {
		return core.ValidationError("memory record missing participant id")
	}
	if r.Kind == "" {
		return core.ValidationError("memory record missing kind")
	}
	if !validKinds[r.Kind] {
		return core.ValidationError("unknown memory kind %q", r.Kind)
	}
	return nil
}

// patternDiscriminator returns the label a decision record is mined
// under. Falls back to "general" for unlabeled decisions.
func (r *Record) patternDiscriminator() string {
	if v, ok := r.Content["decision"]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "general"
}

// text flattens the record content into one searchable string, keys in
// stable order so scoring is deterministic.
func (r *Record) text() string {
	keys := make([]string, 0, len(r.Content))
	for k := range r.Content {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%v ", r.Content[k])
	}
	return b.String()
}

// hasAllTags reports whether the record carries every requested tag.
func (r *Record) hasAllTags(tags []string) bool {
	for _, want := range tags {
		found := false
		for _, have := range r.Metadata.Tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
