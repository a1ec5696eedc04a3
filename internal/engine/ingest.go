package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/okhose/annals/internal/model"
	"github.com/okhose/annals/internal/store"
)

// Ingest validates a candidate and stores it as a pending claim, then runs
// conflict detection and dedup over the affected group.
//
// Ingestion is idempotent on (locationID, sourceRef, rawText): redelivering
// the same candidate updates confidence if it changed and otherwise returns
// the stored claim unchanged. Confidence never auto-approves; the only
// exception is a visit candidate explicitly marked autoApproved by a
// trusted upstream classifier.
func (e *Engine) Ingest(ctx context.Context, cand model.Candidate) (*model.Claim, error) {
	if err := validateCandidate(cand); err != nil {
		return nil, err
	}

	mu := e.lockLocation(cand.LocationID)
	mu.Lock()
	defer mu.Unlock()

	now := e.now()

	existing, err := e.store.FindClaimByIdentity(ctx, cand.LocationID, cand.SourceRef, cand.RawText)
	if err == nil {
		// Redelivery: refresh mutable fields, never reset workflow state.
		changed := false
		if *cand.Confidence != existing.Confidence {
			existing.Confidence = *cand.Confidence
			changed = true
		}
		if changed {
			existing.UpdatedAt = now
			if err := e.store.PutClaim(ctx, existing); err != nil {
				return nil, fmt.Errorf("update claim: %w", err)
			}
			e.log.Debug().Str("claim", existing.ID).Msg("redelivered candidate updated")
		}
		return existing, nil
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("lookup claim: %w", err)
	}

	parsed := e.parser.Parse(cand.RawText, cand.ArticleDate)

	seq, err := e.store.NextSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("next seq: %w", err)
	}

	status := model.StatusPending
	if cand.AutoApproved && cand.SourceType == model.SourceVisit {
		status = model.StatusAutoApproved
	}

	claim := &model.Claim{
		ID:            model.NewID(),
		LocationID:    cand.LocationID,
		SubLocationID: cand.SubLocationID,
		Category:      cand.Category,
		RawText:       cand.RawText,
		ParsedDate:    parsed,
		Confidence:    *cand.Confidence,
		Status:        status,
		SourceType:    cand.SourceType,
		SourceRef:     cand.SourceRef,
		ArticleDate:   cand.ArticleDate,
		WasRelative:   parsed.WasRelative,
		IsPrimary:     true,
		Seq:           seq,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := e.store.PutClaim(ctx, claim); err != nil {
		return nil, fmt.Errorf("store claim: %w", err)
	}

	e.log.Info().
		Str("claim", claim.ID).
		Str("location", claim.LocationID).
		Str("category", string(claim.Category)).
		Str("precision", string(parsed.Precision)).
		Msg("candidate ingested")

	// Maintain per-group derived state while still holding the location
	// lock. Both passes are idempotent.
	if err := e.detectGroupLocked(ctx, claim.LocationID, fieldNameFor(claim)); err != nil {
		return nil, fmt.Errorf("detect conflicts: %w", err)
	}
	if err := e.dedupGroupLocked(ctx, claim.LocationID, claim.Category); err != nil {
		return nil, fmt.Errorf("dedup: %w", err)
	}

	// Return the claim with any links the detectors just attached.
	return e.store.GetClaim(ctx, claim.ID)
}

// GetClaim loads a claim by ID.
func (e *Engine) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	return e.store.GetClaim(ctx, id)
}

// ListPending returns pending primary claims for a location in arrival
// order.
func (e *Engine) ListPending(ctx context.Context, locationID string) ([]*model.Claim, error) {
	return e.store.ListClaims(ctx, locationID, store.ClaimQuery{Status: model.StatusPending})
}

func validateCandidate(cand model.Candidate) error {
	if cand.LocationID == "" {
		return &model.ValidationError{Field: "location_id", Message: "required"}
	}
	if cand.RawText == "" {
		return &model.ValidationError{Field: "raw_text", Message: "required"}
	}
	if cand.Confidence == nil {
		return &model.ValidationError{Field: "confidence", Message: "required"}
	}
	if *cand.Confidence < 0 || *cand.Confidence > 1 {
		return &model.ValidationError{Field: "confidence", Message: "must be in [0,1]"}
	}
	if !model.ValidCategory(cand.Category) {
		return &model.ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", cand.Category)}
	}
	if !model.ValidSourceType(cand.SourceType) {
		return &model.ValidationError{Field: "source_type", Message: fmt.Sprintf("unknown source type %q", cand.SourceType)}
	}
	if cand.SourceRef == "" {
		return &model.ValidationError{Field: "source_ref", Message: "required"}
	}
	return nil
}

// fieldNameFor maps a claim to its conflict-grouping field: the category
// for dated claims, the category name for name/fact claims.
func fieldNameFor(c *model.Claim) string {
	return string(c.Category)
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
