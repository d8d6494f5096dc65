package memory

import (
	"fmt"
	"time"
)

const maxPatternExamples = 10

// LearningPattern is a derived statistic mined from decision records
// sharing a discriminator. It is never written directly; Append updates
// it whenever a decision record carries an explicit success flag.
type LearningPattern struct {
	Key         string    `json:"key"` // "kind:discriminator"
	Frequency   int       `json:"frequency"`
	SuccessRate float64   `json:"success_rate"`
	LastSeen    time.Time `json:"last_seen"`
	Examples    []string  `json:"examples"` // bounded, oldest evicted first
}

func patternKey(kind Kind, discriminator string) string {
	return fmt.Sprintf("%s:%s", kind, discriminator)
}

// observe folds one more occurrence into the pattern as an incremental
// running average, so SuccessRate always equals successes/occurrences.
func (p *LearningPattern) observe(success bool, example string, seen time.Time) {
	p.Frequency++
	outcome := 0.0
	if success {
		outcome = 1.0
	}
	p.SuccessRate += (outcome - p.SuccessRate) / float64(p.Frequency)
	p.LastSeen = seen

	p.Examples = append(p.Examples, example)
	if len(p.Examples) > maxPatternExamples {
		p.Examples = p.Examples[len(p.Examples)-maxPatternExamples:]
	}
}
