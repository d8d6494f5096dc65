package coordinator

import (
	"fmt"
	"strings"
	"time"
)

// Turn is one utterance in a dialogue.
type Turn struct {
	ParticipantID string    `json:"participant_id"`
	Round         int       `json:"round"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}

// Dialogue is the transient state of one multi-round collaboration.
// It is not persisted beyond its run; completed turns land in each
// participant's memory log instead.
type Dialogue struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	Context      string    `json:"context,omitempty"`
	Participants []string  `json:"participants"`
	Rounds       int       `json:"rounds"`
	Turns        []Turn    `json:"turns"`
	Consensus    string    `json:"consensus,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
}

// transcript renders the most recent turns for inclusion in a prompt.
func (d *Dialogue) transcript(window int) string {
	turns := d.Turns
	if window > 0 && len(turns) > window {
		turns = turns[len(turns)-window:]
	}

	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.ParticipantID, t.Message)
	}
	return b.String()
}

// excerpts renders every turn truncated to max characters, used by the
// consensus synthesis prompt.
func (d *Dialogue) excerpts(max int) string {
	var b strings.Builder
	for _, t := range d.Turns {
		msg := t.Message
		if len(msg) > max {
			msg = msg[:max]
		}
		fmt.Fprintf(&b, "- %s (round %d): %s\n", t.ParticipantID, t.Round+1, msg)
	}
	return b.String()
}
