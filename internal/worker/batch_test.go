package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/okhose/annals/internal/model"
)

// stubIngestor records candidates and fails those whose RawText is "bad".
type stubIngestor struct {
	mu   sync.Mutex
	seen []model.Candidate
}

func (s *stubIngestor) Ingest(ctx context.Context, cand model.Candidate) (*model.Claim, error) {
	s.mu.Lock()
	s.seen = append(s.seen, cand)
	s.mu.Unlock()

	if cand.RawText == "bad" {
		return nil, errors.New("unparseable")
	}
	return &model.Claim{ID: model.NewID(), LocationID: cand.LocationID, RawText: cand.RawText}, nil
}

func candidates(texts ...string) []model.Candidate {
	conf := 0.8
	out := make([]model.Candidate, len(texts))
	for i, text := range texts {
		out[i] = model.Candidate{
			LocationID: "loc-1",
			Category:   model.CategoryBuilt,
			RawText:    text,
			Confidence: &conf,
			SourceType: model.SourceWeb,
			SourceRef:  "src-a",
		}
	}
	return out
}

func TestBatchProcess(t *testing.T) {
	ing := &stubIngestor{}
	b := NewBatchProcessor(ing, nil, 4)

	results := b.Process(context.Background(), candidates("1920", "bad", "circa 1950"))

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	var failed int
	for _, r := range results {
		if r.GetError() != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}

	pending, processing, completed, failedCount := b.Counters.Snapshot()
	if pending != 0 || processing != 0 {
		t.Errorf("pending=%d processing=%d after drain", pending, processing)
	}
	if completed != 2 || failedCount != 1 {
		t.Errorf("completed=%d failed=%d, want 2/1", completed, failedCount)
	}
}

func TestBatchProcessEmpty(t *testing.T) {
	b := NewBatchProcessor(&stubIngestor{}, nil, 2)
	if results := b.Process(context.Background(), nil); len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
}

func TestBatchWithLimiter(t *testing.T) {
	ing := &stubIngestor{}
	b := NewBatchProcessor(ing, NewLimiter(1000, 10), 2)

	results := b.Process(context.Background(), candidates("1920", "1921", "1922"))
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for _, r := range results {
		if r.GetError() != nil {
			t.Errorf("unexpected error: %v", r.GetError())
		}
	}
}

func TestReadCandidatesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cands.json")
	data := `[
		{"location_id":"loc-1","category":"built","raw_text":"1920","confidence":0.8,"source_type":"web","source_ref":"src-a"},
		{"location_id":"loc-1","category":"built","raw_text":"1920","confidence":0.8,"source_type":"web","source_ref":"src-a"},
		{"location_id":"loc-1","category":"closed","raw_text":"1950","confidence":0.6,"source_type":"web","source_ref":"src-b"}
	]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cands, err := ReadCandidatesFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// The redelivered first candidate collapses to one.
	if len(cands) != 2 {
		t.Errorf("candidates = %d, want 2", len(cands))
	}
}

func TestReadCandidatesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cands.yaml")
	data := `
- location_id: loc-1
  category: built
  raw_text: circa 1920
  confidence: 0.7
  source_type: document
  source_ref: deed-14
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cands, err := ReadCandidatesFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 1 || cands[0].SourceRef != "deed-14" {
		t.Errorf("candidates = %+v", cands)
	}
	if cands[0].Confidence == nil || *cands[0].Confidence != 0.7 {
		t.Error("confidence not decoded")
	}
}

func TestReadCandidatesBadFile(t *testing.T) {
	if _, err := ReadCandidatesFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
