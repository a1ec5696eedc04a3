package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/okhose/annals/internal/model"
)

// Ingestor accepts one candidate; the engine implements it
type Ingestor interface {
	Ingest(ctx context.Context, cand model.Candidate) (*model.Claim, error)
}

// IngestJob ingests a single candidate through the rate limiter
type IngestJob struct {
	Candidate model.Candidate
	Ingestor  Ingestor
	Limiter   *Limiter
	counters  *QueueCounters
}

// Execute runs the job
func (j *IngestJob) Execute(ctx context.Context) Result {
	j.counters.start()

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Candidate.SourceType); err != nil {
			j.counters.finish(false)
			return &IngestResult{Candidate: j.Candidate, Error: err}
		}
	}

	claim, err := j.Ingestor.Ingest(ctx, j.Candidate)
	j.counters.finish(err == nil)
	return &IngestResult{Candidate: j.Candidate, Claim: claim, Error: err}
}

// IngestResult is the outcome of one candidate
type IngestResult struct {
	Candidate model.Candidate
	Claim     *model.Claim
	Error     error
}

// GetError returns the ingestion error, if any
func (r *IngestResult) GetError() error {
	return r.Error
}

// QueueCounters tracks batch progress the way an extraction queue reports
// it: pending, processing, completed, failed.
type QueueCounters struct {
	Pending    atomic.Int64
	Processing atomic.Int64
	Completed  atomic.Int64
	Failed     atomic.Int64
}

func (q *QueueCounters) start() {
	q.Pending.Add(-1)
	q.Processing.Add(1)
}

func (q *QueueCounters) finish(ok bool) {
	q.Processing.Add(-1)
	if ok {
		q.Completed.Add(1)
	} else {
		q.Failed.Add(1)
	}
}

// Snapshot returns the current counter values
func (q *QueueCounters) Snapshot() (pending, processing, completed, failed int64) {
	return q.Pending.Load(), q.Processing.Load(), q.Completed.Load(), q.Failed.Load()
}

// BatchProcessor ingests candidate files concurrently
type BatchProcessor struct {
	ingestor    Ingestor
	limiter     *Limiter
	concurrency int
	Counters    QueueCounters
}

// NewBatchProcessor creates a batch processor. limiter may be nil
func NewBatchProcessor(ingestor Ingestor, limiter *Limiter, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		ingestor:    ingestor,
		limiter:     limiter,
		concurrency: concurrency,
	}
}

// Process ingests candidates concurrently and returns per-candidate
// results
func (b *BatchProcessor) Process(ctx context.Context, cands []model.Candidate) []*IngestResult {
	if len(cands) == 0 {
		return []*IngestResult{}
	}

	b.Counters.Pending.Store(int64(len(cands)))

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, cand := range cands {
		pool.Submit(&IngestJob{
			Candidate: cand,
			Ingestor:  b.ingestor,
			Limiter:   b.limiter,
			counters:  &b.Counters,
		})
	}

	results := pool.Wait()

	out := make([]*IngestResult, len(results))
	for i, result := range results {
		out[i] = result.(*IngestResult)
	}

	return out
}

// ProcessFile reads a candidate file and ingests its contents
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*IngestResult, error) {
	cands, err := ReadCandidatesFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}

	return b.Process(ctx, cands), nil
}

// ReadCandidatesFromFile loads candidates from a JSON or YAML file.
// Redeliveries within one file are collapsed to the first occurrence.
func ReadCandidatesFromFile(path string) ([]model.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	var cands []model.Candidate
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cands); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cands); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	}

	seen := make(map[string]bool)
	var out []model.Candidate
	for _, c := range cands {
		key := c.LocationID + "|" + c.SourceRef + "|" + c.RawText
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}

	return out, nil
}
