package engine

import (
	"context"
	"fmt"

	"github.com/okhose/annals/internal/model"
	"github.com/okhose/annals/internal/store"
)

// DedupClaims re-runs duplicate grouping for every category of a location.
func (e *Engine) DedupClaims(ctx context.Context, locationID string) error {
	mu := e.lockLocation(locationID)
	mu.Lock()
	defer mu.Unlock()

	claims, err := e.store.ListClaims(ctx, locationID, store.ClaimQuery{IncludeHidden: true})
	if err != nil {
		return fmt.Errorf("list claims: %w", err)
	}
	seen := make(map[model.Category]bool)
	for _, c := range claims {
		if seen[c.Category] {
			continue
		}
		seen[c.Category] = true
		if err := e.dedupGroupLocked(ctx, locationID, c.Category); err != nil {
			return err
		}
	}
	return nil
}

// OverridePrimary promotes the given claim to primary within its duplicate
// group, demoting the current primary. The choice sticks until the group
// membership changes.
func (e *Engine) OverridePrimary(ctx context.Context, claimID string) (*model.Claim, error) {
	claim, err := e.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	mu := e.lockLocation(claim.LocationID)
	mu.Lock()
	defer mu.Unlock()

	// Re-read under the lock.
	claim, err = e.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.IsPrimary {
		return claim, nil
	}

	group, err := e.dupGroup(ctx, claim)
	if err != nil {
		return nil, err
	}
	for _, c := range group {
		if !c.IsPrimary || c.ID == claim.ID {
			continue
		}
		c.IsPrimary = false
		c.UpdatedAt = e.now()
		if err := e.store.PutClaim(ctx, c); err != nil {
			return nil, fmt.Errorf("demote claim %s: %w", c.ID, err)
		}
	}

	claim.IsPrimary = true
	claim.MergedFromIDs = mergedFrom(group, claim.ID)
	claim.UpdatedAt = e.now()
	if err := e.store.PutClaim(ctx, claim); err != nil {
		return nil, fmt.Errorf("promote claim: %w", err)
	}

	e.log.Info().
		Str("claim", claim.ID).
		Str("location", claim.LocationID).
		Msg("primary override")
	e.bumpGeneration(claim.LocationID)
	return claim, nil
}

// dedupGroupLocked marks exactly one claim of each duplicate group primary.
// Duplicates are claims of the same category asserting the same parsed
// value; the highest-confidence claim wins, earliest Seq breaking ties.
// The caller holds the location lock.
func (e *Engine) dedupGroupLocked(ctx context.Context, locationID string, category model.Category) error {
	claims, err := e.store.ListClaims(ctx, locationID, store.ClaimQuery{Category: category, IncludeHidden: true})
	if err != nil {
		return fmt.Errorf("list claims: %w", err)
	}

	groups := make(map[string][]*model.Claim)
	for _, c := range claims {
		if c.Status == model.StatusRejected {
			continue
		}
		groups[dupKey(c)] = append(groups[dupKey(c)], c)
	}

	for _, group := range groups {
		if err := e.electPrimary(ctx, group); err != nil {
			return err
		}
	}
	return nil
}

// electPrimary picks the winner of a duplicate group and persists any
// changed flags. A manual override survives as long as the overridden
// claim is still in the group.
func (e *Engine) electPrimary(ctx context.Context, group []*model.Claim) error {
	if len(group) == 0 {
		return nil
	}

	// Only current primaries and never-demoted newcomers are electable.
	// Demotion is monotonic: a demoted claim returns only through a
	// manual override. New claims arrive with IsPrimary set.
	candidates := make([]*model.Claim, 0, len(group))
	for _, c := range group {
		if c.IsPrimary {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		// The previous primary left the group (e.g. rejected); hold a
		// fresh election among the survivors.
		candidates = group
	}

	winner := candidates[0]
	for _, c := range candidates[1:] {
		if c.Confidence > winner.Confidence ||
			(c.Confidence == winner.Confidence && c.Seq < winner.Seq) {
			winner = c
		}
	}

	merged := mergedFrom(group, winner.ID)
	for _, c := range group {
		isPrimary := c.ID == winner.ID
		var wantMerged []string
		if isPrimary && len(group) > 1 {
			wantMerged = merged
		}
		if c.IsPrimary == isPrimary && sameStrings(c.MergedFromIDs, wantMerged) {
			continue
		}
		c.IsPrimary = isPrimary
		c.MergedFromIDs = wantMerged
		c.UpdatedAt = e.now()
		if err := e.store.PutClaim(ctx, c); err != nil {
			return fmt.Errorf("update claim %s: %w", c.ID, err)
		}
	}
	return nil
}

// dupGroup returns all live claims in the same duplicate group as claim.
func (e *Engine) dupGroup(ctx context.Context, claim *model.Claim) ([]*model.Claim, error) {
	claims, err := e.store.ListClaims(ctx, claim.LocationID, store.ClaimQuery{Category: claim.Category, IncludeHidden: true})
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	key := dupKey(claim)
	var group []*model.Claim
	for _, c := range claims {
		if c.Status == model.StatusRejected {
			continue
		}
		if dupKey(c) == key {
			group = append(group, c)
		}
	}
	return group, nil
}

// dupKey is the duplicate-group identity: two claims duplicate each other
// when they assert the same underlying value for the same category.
// Precise dates group by year, so "1985" and "June 1985" collapse; coarse
// dates group by decade bucket.
func dupKey(c *model.Claim) string {
	if model.DateCategory(c.Category) && !c.ParsedDate.IsUnknown() {
		if preciseDate(c.ParsedDate) {
			return fmt.Sprintf("%s|y%d", c.Category, c.ParsedDate.Year())
		}
		return fmt.Sprintf("%s|b%d", c.Category, c.ParsedDate.DecadeBucket())
	}
	return string(c.Category) + "|" + normalizeValue(c.RawText)
}

func mergedFrom(group []*model.Claim, primaryID string) []string {
	var ids []string
	for _, c := range group {
		if c.ID != primaryID {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
