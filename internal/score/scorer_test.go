package score

import (
	"testing"

	"github.com/okhose/annals/internal/model"
)

func datedClaim(sourceRef string, status model.ClaimStatus, precision model.Precision) *model.Claim {
	return &model.Claim{
		ID:         model.NewID(),
		LocationID: "loc-1",
		Category:   model.CategoryBuilt,
		Status:     status,
		SourceRef:  sourceRef,
		ParsedDate: model.ParsedDate{Precision: precision},
	}
}

func TestAssessEmptyRecord(t *testing.T) {
	h := NewScorer().Assess(nil, nil, nil)

	if h.Index != 0 {
		t.Errorf("index = %d, want 0", h.Index)
	}
	if h.Confidence != "none" {
		t.Errorf("confidence = %s, want none", h.Confidence)
	}
	if h.Conflict {
		t.Error("conflict flagged on empty record")
	}
	if len(h.Signals) != 4 {
		t.Errorf("signals = %d, want 4", len(h.Signals))
	}
}

func TestAssessHealthyRecord(t *testing.T) {
	claims := []*model.Claim{
		datedClaim("src-a", model.StatusUserApproved, model.PrecisionYear),
		datedClaim("src-b", model.StatusUserApproved, model.PrecisionExact),
		datedClaim("src-c", model.StatusUserApproved, model.PrecisionYear),
		datedClaim("src-a", model.StatusAutoApproved, model.PrecisionCirca),
	}
	events := []*model.TimelineEvent{
		{EventType: model.EventEstablished, EventSubtype: "built"},
	}

	h := NewScorer().Assess(claims, nil, events)

	// 40 review + 30 diversity + 20 precision + 10 coverage.
	if h.Index != 100 {
		t.Errorf("index = %d, want 100", h.Index)
	}
	if h.Confidence != "high" {
		t.Errorf("confidence = %s, want high", h.Confidence)
	}
}

func TestAssessOpenConflictPenalty(t *testing.T) {
	claims := []*model.Claim{
		datedClaim("src-a", model.StatusUserApproved, model.PrecisionYear),
		datedClaim("src-b", model.StatusUserApproved, model.PrecisionYear),
	}
	conflicts := []*model.FactConflict{
		{ID: "cf-1", FieldName: "built", ClaimAID: "a", ClaimBID: "b"},
	}
	events := []*model.TimelineEvent{
		{EventType: model.EventEstablished, EventSubtype: "built"},
	}

	h := NewScorer().Assess(claims, conflicts, events)

	// 40 + 20 + 20 + 10 minus one 10-point conflict.
	if h.Index != 80 {
		t.Errorf("index = %d, want 80", h.Index)
	}
	if !h.Conflict {
		t.Error("open conflict not flagged")
	}
	if h.Confidence != "low" {
		t.Errorf("confidence = %s, want low with open conflict", h.Confidence)
	}

	var found bool
	for _, sig := range h.Signals {
		if sig.Type == SignalOpenConflicts && sig.Severity == SeverityCritical {
			found = true
		}
	}
	if !found {
		t.Error("missing critical open_conflicts signal")
	}
}

func TestAssessResolvedConflictNotCounted(t *testing.T) {
	conflicts := []*model.FactConflict{
		{ID: "cf-1", FieldName: "built", ClaimAID: "a", ClaimBID: "b",
			Resolution: model.ResolutionSourceA},
	}

	h := NewScorer().Assess([]*model.Claim{
		datedClaim("src-a", model.StatusUserApproved, model.PrecisionYear),
	}, conflicts, nil)

	if h.Conflict {
		t.Error("resolved conflict flagged as open")
	}
	for _, sig := range h.Signals {
		if sig.Type == SignalOpenConflicts {
			t.Error("open_conflicts signal emitted with none open")
		}
	}
}

func TestAssessUnknownDatesDragPrecision(t *testing.T) {
	claims := []*model.Claim{
		datedClaim("src-a", model.StatusUserApproved, model.PrecisionYear),
		datedClaim("src-b", model.StatusUserApproved, model.PrecisionUnknown),
	}

	h := NewScorer().Assess(claims, nil, nil)

	// 40 review + 20 diversity + 10 precision (half parsed) + 0 coverage.
	if h.Index != 70 {
		t.Errorf("index = %d, want 70", h.Index)
	}
}

func TestAssessIndexFloorsAtZero(t *testing.T) {
	claims := []*model.Claim{
		datedClaim("src-a", model.StatusPending, model.PrecisionUnknown),
	}
	var conflicts []*model.FactConflict
	for i := 0; i < 5; i++ {
		conflicts = append(conflicts, &model.FactConflict{
			ID: model.NewID(), FieldName: "built", ClaimAID: "a", ClaimBID: "b",
		})
	}

	h := NewScorer().Assess(claims, conflicts, nil)

	if h.Index != 0 {
		t.Errorf("index = %d, want floor of 0", h.Index)
	}
	if h.Confidence != "low" {
		t.Errorf("confidence = %s, want low", h.Confidence)
	}
}
