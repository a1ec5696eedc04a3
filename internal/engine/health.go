package engine

import (
	"context"
	"fmt"

	"github.com/okhose/annals/internal/score"
	"github.com/okhose/annals/internal/store"
)

// Health rates how well curated a location's record currently is.
func (e *Engine) Health(ctx context.Context, locationID string) (score.Health, error) {
	claims, err := e.store.ListClaims(ctx, locationID, store.ClaimQuery{IncludeHidden: true})
	if err != nil {
		return score.Health{}, fmt.Errorf("list claims: %w", err)
	}
	conflicts, err := e.store.ListConflicts(ctx, locationID, true)
	if err != nil {
		return score.Health{}, fmt.Errorf("list conflicts: %w", err)
	}
	events, err := e.store.ListEvents(ctx, []string{locationID})
	if err != nil {
		return score.Health{}, fmt.Errorf("list events: %w", err)
	}
	return score.NewScorer().Assess(claims, conflicts, events), nil
}
