package memory

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindmesh-labs/mindmesh/core"
	"github.com/mindmesh-labs/mindmesh/storage"
)

const (
	// DefaultRetention is how long records are kept before Prune
	// removes them.
	DefaultRetention = 90 * 24 * time.Hour
	// DefaultMaxRecords caps a participant's log; the oldest record is
	// evicted first once the cap is exceeded.
	DefaultMaxRecords = 10000

	summaryRecentCount = 10
	summaryTopPatterns = 5
)

// Filter narrows a Query. All set fields must match (conjunctive);
// Limit keeps the most recent N records after filtering.
type Filter struct {
	Kind  Kind
	From  time.Time
	To    time.Time
	Tags  []string
	Limit int
}

// Summary aggregates one participant's log.
type Summary struct {
	TotalCount     int               `json:"total_count"`
	CountsByKind   map[Kind]int      `json:"counts_by_kind"`
	TopPatterns    []LearningPattern `json:"top_patterns"`
	RecentActivity []Record          `json:"recent_activity"`
	SuccessRate    float64           `json:"success_rate"`
}

// StoreConfig tunes retention; zero values fall back to defaults.
type StoreConfig struct {
	Retention  time.Duration
	MaxRecords int
}

// partition holds one participant's log and derived patterns. Each
// partition has its own lock so unrelated participants never contend.
type partition struct {
	mu       sync.Mutex
	records  []Record
	patterns map[string]*LearningPattern
}

// Store is the per-participant append-only memory log. Partitions are
// fixed at construction from the roster; writes to unknown participants
// fail with a not-found error.
type Store struct {
	mu         sync.RWMutex
	partitions map[string]*partition
	persist    storage.Store // nil means in-process only
	retention  time.Duration
	maxRecords int
}

// NewStore creates a memory store with one partition per participant.
// persist may be nil for ephemeral stores.
func NewStore(persist storage.Store, participantIDs []string, cfg StoreConfig) *Store {
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = DefaultMaxRecords
	}

	partitions := make(map[string]*partition, len(participantIDs))
	for _, id := range participantIDs {
		partitions[id] = &partition{patterns: make(map[string]*LearningPattern)}
	}

	return &Store{
		partitions: partitions,
		persist:    persist,
		retention:  cfg.Retention,
		maxRecords: cfg.MaxRecords,
	}
}

// Load rehydrates all partitions from the persistence layer.
func (s *Store) Load() error {
	if s.persist == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, p := range s.partitions {
		p.mu.Lock()

		var records []Record
		err := s.persist.GetObject(storage.MemoryDocKey(id), &records)
		if err == nil {
			p.records = records
		} else if err != storage.ErrKeyNotFound {
			p.mu.Unlock()
			return err
		}

		var patterns []LearningPattern
		err = s.persist.GetObject(storage.PatternsDocKey(id), &patterns)
		if err == nil {
			for i := range patterns {
				pat := patterns[i]
				p.patterns[pat.Key] = &pat
			}
		} else if err != storage.ErrKeyNotFound {
			p.mu.Unlock()
			return err
		}

		p.mu.Unlock()
	}
	return nil
}

func (s *Store) partition(participantID string) (*partition, error) {
	s.mu.RLock()
	p, ok := s.partitions[participantID]
	s.mu.RUnlock()
	if !ok {
		return nil, core.NotFoundError("participant", participantID)
	}
	return p, nil
}

// ParticipantIDs returns the ids of all partitions.
func (s *Store) ParticipantIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.partitions))
	for id := range s.partitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Append validates and appends a record to its participant's log,
// evicting the oldest record if the cap is exceeded. A decision record
// with an explicit success flag also updates the matching pattern.
// Returns the record id.
func (s *Store) Append(rec Record) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}

	p, err := s.partition(rec.ParticipantID)
	if err != nil {
		return "", err
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.records = append(p.records, rec)
	if len(p.records) > s.maxRecords {
		p.records = p.records[len(p.records)-s.maxRecords:]
	}

	if rec.Kind == KindDecision && rec.Metadata.Success != nil {
		key := patternKey(rec.Kind, rec.patternDiscriminator())
		pat, ok := p.patterns[key]
		if !ok {
			pat = &LearningPattern{Key: key}
			p.patterns[key] = pat
		}
		pat.observe(*rec.Metadata.Success, rec.text(), rec.Timestamp)
	}

	s.flushLocked(rec.ParticipantID, p)
	return rec.ID, nil
}

// flushLocked persists the partition's two documents. The caller holds
// the partition lock. Flush failures are logged, not fatal: the
// in-memory log stays authoritative and the next append retries.
func (s *Store) flushLocked(participantID string, p *partition) {
	if s.persist == nil {
		return
	}

	if err := s.persist.PutObject(storage.MemoryDocKey(participantID), p.records); err != nil {
		log.Printf("memory: flush records for %s failed: %v", participantID, err)
		return
	}

	patterns := make([]LearningPattern, 0, len(p.patterns))
	for _, pat := range p.patterns {
		patterns = append(patterns, *pat)
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].Key < patterns[j].Key })

	if err := s.persist.PutObject(storage.PatternsDocKey(participantID), patterns); err != nil {
		log.Printf("memory: flush patterns for %s failed: %v", participantID, err)
	}
}

// Query returns the participant's records matching every set filter
// field, oldest first. Limit keeps the most recent N.
func (s *Store) Query(participantID string, f Filter) ([]Record, error) {
	p, err := s.partition(participantID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var out []Record
	for _, rec := range p.records {
		if f.Kind != "" && rec.Kind != f.Kind {
			continue
		}
		if !f.From.IsZero() && rec.Timestamp.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && rec.Timestamp.After(f.To) {
			continue
		}
		if len(f.Tags) > 0 && !rec.hasAllTags(f.Tags) {
			continue
		}
		out = append(out, rec)
	}

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

// FindSimilar ranks the participant's records by naive token-overlap
// count against queryText, descending, recency breaking ties.
// Zero-score records are excluded.
func (s *Store) FindSimilar(participantID, queryText string, limit int) ([]Record, error) {
	p, err := s.partition(participantID)
	if err != nil {
		return nil, err
	}

	query := tokenize(queryText)

	p.mu.Lock()
	defer p.mu.Unlock()

	type scored struct {
		rec   Record
		score int
	}
	var matches []scored
	for _, rec := range p.records {
		score := overlapScore(query, tokenize(rec.text()))
		if score > 0 {
			matches = append(matches, scored{rec, score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].rec.Timestamp.After(matches[j].rec.Timestamp)
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Record, len(matches))
	for i, m := range matches {
		out[i] = m.rec
	}
	return out, nil
}

// Summarize aggregates the participant's log: counts, top patterns by
// frequency, last ten records, and the decision success rate.
func (s *Store) Summarize(participantID string) (Summary, error) {
	p, err := s.partition(participantID)
	if err != nil {
		return Summary{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sum := Summary{
		TotalCount:   len(p.records),
		CountsByKind: make(map[Kind]int),
	}

	var decisions, successes int
	for _, rec := range p.records {
		sum.CountsByKind[rec.Kind]++
		if rec.Kind == KindDecision && rec.Metadata.Success != nil {
			decisions++
			if *rec.Metadata.Success {
				successes++
			}
		}
	}
	if decisions > 0 {
		sum.SuccessRate = float64(successes) / float64(decisions)
	}

	recent := len(p.records)
	if recent > summaryRecentCount {
		recent = summaryRecentCount
	}
	sum.RecentActivity = append(sum.RecentActivity, p.records[len(p.records)-recent:]...)

	for _, pat := range p.patterns {
		sum.TopPatterns = append(sum.TopPatterns, *pat)
	}
	sort.Slice(sum.TopPatterns, func(i, j int) bool {
		if sum.TopPatterns[i].Frequency != sum.TopPatterns[j].Frequency {
			return sum.TopPatterns[i].Frequency > sum.TopPatterns[j].Frequency
		}
		return sum.TopPatterns[i].Key < sum.TopPatterns[j].Key
	})
	if len(sum.TopPatterns) > summaryTopPatterns {
		sum.TopPatterns = sum.TopPatterns[:summaryTopPatterns]
	}

	return sum, nil
}

// Patterns returns the participant's mined patterns sorted by key.
func (s *Store) Patterns(participantID string) ([]LearningPattern, error) {
	p, err := s.partition(participantID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]LearningPattern, 0, len(p.patterns))
	for _, pat := range p.patterns {
		out = append(out, *pat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Prune removes records older than the retention window and reports
// how many were removed.
func (s *Store) Prune(participantID string) (int, error) {
	p, err := s.partition(participantID)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-s.retention)

	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.records[:0]
	for _, rec := range p.records {
		if rec.Timestamp.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	removed := len(p.records) - len(kept)
	p.records = kept

	if removed > 0 {
		s.flushLocked(participantID, p)
	}
	return removed, nil
}

// PruneAll prunes every partition and returns the total removed.
func (s *Store) PruneAll() int {
	total := 0
	for _, id := range s.ParticipantIDs() {
		n, err := s.Prune(id)
		if err != nil {
			log.Printf("memory: prune %s failed: %v", id, err)
			continue
		}
		total += n
	}
	return total
}

// TotalCount returns the number of records across all partitions.
func (s *Store) TotalCount() int {
	total := 0
	for _, id := range s.ParticipantIDs() {
		p, err := s.partition(id)
		if err != nil {
			continue
		}
		p.mu.Lock()
		total += len(p.records)
		p.mu.Unlock()
	}
	return total
}

// AvgSuccessRate averages the decision success rate over participants
// that have at least one flagged decision.
func (s *Store) AvgSuccessRate() float64 {
	var sum float64
	var n int
	for _, id := range s.ParticipantIDs() {
		summary, err := s.Summarize(id)
		if err != nil {
			continue
		}
		if summary.CountsByKind[KindDecision] > 0 {
			sum += summary.SuccessRate
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
