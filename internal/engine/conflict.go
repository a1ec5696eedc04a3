package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/okhose/annals/internal/model"
	"github.com/okhose/annals/internal/store"
)

// DetectConflicts runs conflict detection over every claim group of a
// location. Ingest already detects eagerly per group; this entry point
// supports re-running after configuration changes. It is idempotent.
func (e *Engine) DetectConflicts(ctx context.Context, locationID string) error {
	mu := e.lockLocation(locationID)
	mu.Lock()
	defer mu.Unlock()

	claims, err := e.store.ListClaims(ctx, locationID, store.ClaimQuery{IncludeHidden: true})
	if err != nil {
		return fmt.Errorf("list claims: %w", err)
	}

	seen := make(map[string]bool)
	for _, c := range claims {
		field := fieldNameFor(c)
		if seen[field] {
			continue
		}
		seen[field] = true
		if err := e.detectGroupLocked(ctx, locationID, field); err != nil {
			return err
		}
	}
	return nil
}

// ListConflicts returns a location's conflicts, open ones first.
func (e *Engine) ListConflicts(ctx context.Context, locationID string, includeResolved bool) ([]*model.FactConflict, error) {
	return e.store.ListConflicts(ctx, locationID, includeResolved)
}

// detectGroupLocked compares claims within one (location, field) group
// pairwise and raises conflict records for disagreeing independent
// sources. The caller holds the location lock.
//
// Same-source pairs are never conflicts (they are dedup candidates), and
// re-running on an already-flagged pair reuses the existing record.
func (e *Engine) detectGroupLocked(ctx context.Context, locationID, fieldName string) error {
	claims, err := e.store.ListClaims(ctx, locationID, store.ClaimQuery{IncludeHidden: true})
	if err != nil {
		return fmt.Errorf("list claims: %w", err)
	}

	var group []*model.Claim
	for _, c := range claims {
		if fieldNameFor(c) != fieldName {
			continue
		}
		// Rejected claims are audit records, not live assertions.
		if c.Status == model.StatusRejected {
			continue
		}
		group = append(group, c)
	}

	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			a, b := group[i], group[j]
			if a.SourceRef == b.SourceRef {
				continue
			}
			if !e.claimsDisagree(a, b) {
				continue
			}
			if err := e.flagConflictLocked(ctx, a, b, fieldName); err != nil {
				return err
			}
		}
	}
	return nil
}

// claimsDisagree applies the per-category tolerance: dated claims conflict
// when their normalized years differ beyond tolerance (or decade buckets
// differ, for coarse precisions); name/fact claims conflict when their
// normalized strings differ.
func (e *Engine) claimsDisagree(a, b *model.Claim) bool {
	if !model.DateCategory(a.Category) {
		na, nb := normalizeValue(a.RawText), normalizeValue(b.RawText)
		return na != nb
	}

	da, db := a.ParsedDate, b.ParsedDate
	if da.IsUnknown() || db.IsUnknown() {
		// An unparseable date asserts nothing comparable.
		return false
	}

	if preciseDate(da) && preciseDate(db) {
		diff := da.Year() - db.Year()
		if diff < 0 {
			diff = -diff
		}
		return diff > e.cfg.Tolerance.YearsFor(a.Category)
	}

	// At least one side is coarse: compare decade buckets.
	if e.cfg.Tolerance.CoarseSameDecade {
		return da.DecadeBucket() != db.DecadeBucket()
	}
	return false
}

// flagConflictLocked creates or reuses the FactConflict for a pair and
// links both claims to it.
func (e *Engine) flagConflictLocked(ctx context.Context, a, b *model.Claim, fieldName string) error {
	pairKey := model.ConflictPairKey(a.ID, b.ID)

	if existing, err := e.store.FindConflictByPair(ctx, a.LocationID, fieldName, pairKey); err == nil {
		if !existing.Open() {
			// The pair was already adjudicated; the record stands.
			return nil
		}
		// Already flagged; make sure the links survived.
		return e.linkClaims(ctx, a, b, existing.ID)
	} else if !isNotFound(err) {
		return fmt.Errorf("lookup conflict: %w", err)
	}

	// A claim participates in one open conflict at a time: the first
	// disagreement wins, later ones surface after it is resolved.
	if (a.ConflictID != "" && !a.ConflictResolved) || (b.ConflictID != "" && !b.ConflictResolved) {
		return nil
	}

	conflict := &model.FactConflict{
		ID:           model.NewID(),
		LocationID:   a.LocationID,
		ConflictType: conflictTypeFor(a.Category),
		FieldName:    fieldName,
		ClaimAID:     a.ID,
		ClaimBID:     b.ID,
		CreatedAt:    e.now(),
	}
	if err := e.store.PutConflict(ctx, conflict); err != nil {
		return fmt.Errorf("store conflict: %w", err)
	}

	e.log.Info().
		Str("conflict", conflict.ID).
		Str("location", a.LocationID).
		Str("field", fieldName).
		Str("claim_a", a.ID).
		Str("claim_b", b.ID).
		Msg("conflict detected")

	return e.linkClaims(ctx, a, b, conflict.ID)
}

func (e *Engine) linkClaims(ctx context.Context, a, b *model.Claim, conflictID string) error {
	for _, c := range []*model.Claim{a, b} {
		if c.ConflictID == conflictID && !c.ConflictResolved {
			continue
		}
		c.ConflictID = conflictID
		c.ConflictResolved = false
		c.UpdatedAt = e.now()
		if err := e.store.PutClaim(ctx, c); err != nil {
			return fmt.Errorf("link claim %s: %w", c.ID, err)
		}
	}
	return nil
}

// preciseDate reports whether a date pins down a specific year.
func preciseDate(d model.ParsedDate) bool {
	switch d.Precision {
	case model.PrecisionExact, model.PrecisionMonth, model.PrecisionYear, model.PrecisionCirca:
		return true
	}
	return false
}

// conflictTypeFor maps a claim category to the conflict classification.
func conflictTypeFor(c model.Category) model.ConflictType {
	switch c {
	case model.CategoryName:
		return model.ConflictName
	case model.CategoryFact:
		return model.ConflictFact
	default:
		return model.ConflictDate
	}
}

// normalizeValue folds case and whitespace for fact comparison.
func normalizeValue(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
