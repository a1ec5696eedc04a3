package engine

import (
	"context"
	"fmt"

	"github.com/okhose/annals/internal/model"
)

// Confidence gap below which the engine declines to pick a side.
const suggestionMargin = 0.1

// SuggestResolution recommends a resolution for an open conflict by
// comparing claim confidences. The recommendation is non-binding and the
// call never mutates state. Resolved conflicts echo their recorded
// resolution back.
func (e *Engine) SuggestResolution(ctx context.Context, conflictID string) (*model.Suggestion, error) {
	conflict, err := e.store.GetConflict(ctx, conflictID)
	if err != nil {
		return nil, err
	}

	claimA, err := e.store.GetClaim(ctx, conflict.ClaimAID)
	if err != nil {
		return nil, fmt.Errorf("load claim a: %w", err)
	}
	claimB, err := e.store.GetClaim(ctx, conflict.ClaimBID)
	if err != nil {
		return nil, fmt.Errorf("load claim b: %w", err)
	}

	s := &model.Suggestion{
		ConflictID:  conflict.ID,
		ConfidenceA: claimA.Confidence,
		ConfidenceB: claimB.Confidence,
	}

	if !conflict.Open() {
		s.Recommended = conflict.Resolution
		s.Reason = "conflict already resolved"
		return s, nil
	}

	diff := claimA.Confidence - claimB.Confidence
	switch {
	case diff >= suggestionMargin:
		s.Recommended = model.ResolutionSourceA
		s.Reason = fmt.Sprintf("source A is more confident (%.2f vs %.2f)", claimA.Confidence, claimB.Confidence)
	case -diff >= suggestionMargin:
		s.Recommended = model.ResolutionSourceB
		s.Reason = fmt.Sprintf("source B is more confident (%.2f vs %.2f)", claimB.Confidence, claimA.Confidence)
	default:
		s.Recommended = model.ResolutionBothValid
		s.Reason = fmt.Sprintf("confidences within %.2f of each other, review both sources", suggestionMargin)
	}
	return s, nil
}
