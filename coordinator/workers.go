package coordinator

import (
	"context"
	"log"
	"sync"
	"time"
)

// ParticipantReport is one participant's slice of a daily cycle.
type ParticipantReport struct {
	ParticipantID string  `json:"participant_id"`
	TotalMemories int     `json:"total_memories"`
	SuccessRate   float64 `json:"success_rate"`
	Pruned        int     `json:"pruned"`
	Err           string  `json:"error,omitempty"`
}

// CycleReport aggregates a full daily cycle.
type CycleReport struct {
	StartedAt time.Time           `json:"started_at"`
	Duration  time.Duration       `json:"duration"`
	Reports   []ParticipantReport `json:"reports"`
}

// RunDailyCycle queries every participant concurrently, bounded by the
// configured worker count so the external capability is not flooded.
// Each worker touches only its own participant's memory partition.
func (c *Coordinator) RunDailyCycle(ctx context.Context) (*CycleReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := c.mem.ParticipantIDs()
	report := &CycleReport{
		StartedAt: time.Now(),
		Reports:   make([]ParticipantReport, len(ids)),
	}

	sem := make(chan struct{}, c.cfg.Workers)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				report.Reports[i] = ParticipantReport{ParticipantID: id, Err: ctx.Err().Error()}
				return
			}
			report.Reports[i] = c.cycleParticipant(id)
		}(i, id)
	}
	wg.Wait()

	report.Duration = time.Since(report.StartedAt)
	log.Printf("coordinator: daily cycle over %d participants took %s", len(ids), report.Duration)
	return report, nil
}

func (c *Coordinator) cycleParticipant(id string) ParticipantReport {
	r := ParticipantReport{ParticipantID: id}

	summary, err := c.mem.Summarize(id)
	if err != nil {
		r.Err = err.Error()
		return r
	}
	r.TotalMemories = summary.TotalCount
	r.SuccessRate = summary.SuccessRate

	pruned, err := c.mem.Prune(id)
	if err != nil {
		r.Err = err.Error()
		return r
	}
	r.Pruned = pruned

	return r
}

// StartWorkers launches the background loops. Call with a cancellable
// context for graceful shutdown.
func (c *Coordinator) StartWorkers(ctx context.Context) {
	go c.runPruneLoop(ctx)
}

// runPruneLoop periodically prunes every participant's memory log.
func (c *Coordinator) runPruneLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.PruneInterval):
			if n := c.mem.PruneAll(); n > 0 {
				log.Printf("[worker] pruned %d expired memory records", n)
			}
		}
	}
}
