package engine

import (
	"context"
	"fmt"

	"github.com/okhose/annals/internal/model"
	"github.com/okhose/annals/internal/sortkey"
)

// claimTransitions is the exhaustive claim state machine. Anything not
// listed is an invalid transition.
var claimTransitions = map[model.ClaimStatus]map[string]model.ClaimStatus{
	model.StatusPending: {
		"approve": model.StatusUserApproved,
		"reject":  model.StatusRejected,
	},
	model.StatusAutoApproved: {
		"convert": model.StatusConverted,
		"reject":  model.StatusRejected,
	},
	model.StatusUserApproved: {
		"convert": model.StatusConverted,
		"reject":  model.StatusRejected,
	},
	model.StatusConverted: {
		"revert": model.StatusReverted,
	},
	model.StatusReverted: {
		"approve": model.StatusUserApproved,
		"convert": model.StatusConverted,
	},
}

func transition(c *model.Claim, op string) (model.ClaimStatus, error) {
	if next, ok := claimTransitions[c.Status][op]; ok {
		return next, nil
	}
	return "", &model.TransitionError{Entity: "claim", ID: c.ID, From: string(c.Status), Op: op}
}

// Approve marks a pending claim user-approved.
func (e *Engine) Approve(ctx context.Context, claimID, userID string) (*model.Claim, error) {
	return e.applyTransition(ctx, claimID, "approve", func(c *model.Claim) {
		c.ReviewedBy = userID
	})
}

// Reject rejects a claim. Rejected claims are retained for audit but drop
// out of conflict detection and dedup groups.
func (e *Engine) Reject(ctx context.Context, claimID, userID, reason string) (*model.Claim, error) {
	claim, err := e.applyTransition(ctx, claimID, "reject", func(c *model.Claim) {
		c.ReviewedBy = userID
		c.RejectionReason = reason
	})
	if err != nil {
		return nil, err
	}

	// The group changed shape: re-elect a primary among the survivors.
	mu := e.lockLocation(claim.LocationID)
	mu.Lock()
	defer mu.Unlock()
	if err := e.dedupGroupLocked(ctx, claim.LocationID, claim.Category); err != nil {
		return nil, err
	}
	return e.store.GetClaim(ctx, claim.ID)
}

// ConvertToTimeline materializes an approved claim as a permanent timeline
// event. Structural date categories become established events with the
// category as subtype; everything else becomes a custom event. Conversion
// is idempotent: the event is keyed on the claim ID, so converting again
// after a revert reuses the original slot.
func (e *Engine) ConvertToTimeline(ctx context.Context, claimID, userID string) (*model.TimelineEvent, error) {
	claim, err := e.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	mu := e.lockLocation(claim.LocationID)
	mu.Lock()
	defer mu.Unlock()

	claim, err = e.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	next, err := transition(claim, "convert")
	if err != nil {
		return nil, err
	}

	evType, subtype := eventShapeFor(claim.Category)

	ev, err := e.store.FindEventBySource(ctx, claim.LocationID, claim.ID, evType, subtype)
	if isNotFound(err) {
		seq, serr := e.store.NextSeq(ctx)
		if serr != nil {
			return nil, fmt.Errorf("next seq: %w", serr)
		}
		ev = &model.TimelineEvent{
			ID:            model.NewID(),
			LocationID:    claim.LocationID,
			SubLocationID: claim.SubLocationID,
			EventType:     evType,
			EventSubtype:  subtype,
			SourceType:    claim.SourceType,
			SourceRef:     claim.ID,
			Sources:       []model.SourceRef{{Type: claim.SourceType, Ref: claim.SourceRef}},
			CreatedBy:     userID,
			UserApproved:  claim.Status == model.StatusUserApproved,
			AutoApproved:  claim.Status == model.StatusAutoApproved,
			Seq:           seq,
			CreatedAt:     e.now(),
		}
	} else if err != nil {
		return nil, fmt.Errorf("lookup event: %w", err)
	}

	applyDate(ev, claim.ParsedDate, evType)

	if err := e.store.PutEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("store event: %w", err)
	}

	claim.Status = next
	claim.ReviewedBy = userID
	claim.UpdatedAt = e.now()
	if err := e.store.PutClaim(ctx, claim); err != nil {
		return nil, fmt.Errorf("update claim: %w", err)
	}

	e.log.Info().
		Str("claim", claim.ID).
		Str("event", ev.ID).
		Str("type", string(evType)).
		Msg("claim converted to timeline event")
	e.bumpGeneration(claim.LocationID)
	return ev, nil
}

// RevertConversion undoes a conversion, deleting the timeline event and
// marking the claim reverted.
func (e *Engine) RevertConversion(ctx context.Context, claimID, userID string) (*model.Claim, error) {
	claim, err := e.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	mu := e.lockLocation(claim.LocationID)
	mu.Lock()
	defer mu.Unlock()

	claim, err = e.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	next, err := transition(claim, "revert")
	if err != nil {
		return nil, err
	}

	evType, subtype := eventShapeFor(claim.Category)
	if ev, ferr := e.store.FindEventBySource(ctx, claim.LocationID, claim.ID, evType, subtype); ferr == nil {
		if derr := e.store.DeleteEvent(ctx, ev.ID); derr != nil {
			return nil, fmt.Errorf("delete event: %w", derr)
		}
	} else if !isNotFound(ferr) {
		return nil, fmt.Errorf("lookup event: %w", ferr)
	}

	claim.Status = next
	claim.ReviewedBy = userID
	claim.UpdatedAt = e.now()
	if err := e.store.PutClaim(ctx, claim); err != nil {
		return nil, fmt.Errorf("update claim: %w", err)
	}

	e.log.Info().Str("claim", claim.ID).Msg("conversion reverted")
	e.bumpGeneration(claim.LocationID)
	return claim, nil
}

// ResolveOptions carries optional parameters of a conflict resolution.
type ResolveOptions struct {
	// ResolvedValue is required for merged resolutions; for source_a and
	// source_b it is derived from the winning claim.
	ResolvedValue string
	Notes         string
	// UpdateTimeline propagates the chosen value into an existing
	// converted timeline event. When false the approval is recorded
	// without touching the timeline.
	UpdateTimeline bool
}

// ResolveConflict records the reviewer's decision on a conflict. Picking
// source_a or source_b additionally approves the winning claim and sets
// the resolved value from it; the losing claim keeps its status.
// Re-resolving an already-resolved conflict returns the existing
// resolution unchanged.
func (e *Engine) ResolveConflict(ctx context.Context, conflictID string, resolution model.Resolution, userID string, opts ResolveOptions) (*model.FactConflict, error) {
	if !model.ValidResolution(resolution) {
		return nil, &model.ValidationError{Field: "resolution", Message: fmt.Sprintf("unknown resolution %q", resolution)}
	}
	if resolution == model.ResolutionMerged && opts.ResolvedValue == "" {
		return nil, &model.ValidationError{Field: "resolved_value", Message: "required for merged resolution"}
	}

	conflict, err := e.store.GetConflict(ctx, conflictID)
	if err != nil {
		return nil, err
	}

	mu := e.lockLocation(conflict.LocationID)
	mu.Lock()
	defer mu.Unlock()

	conflict, err = e.store.GetConflict(ctx, conflictID)
	if err != nil {
		return nil, err
	}
	if !conflict.Open() {
		return conflict, nil
	}

	claimA, err := e.store.GetClaim(ctx, conflict.ClaimAID)
	if err != nil {
		return nil, fmt.Errorf("load claim a: %w", err)
	}
	claimB, err := e.store.GetClaim(ctx, conflict.ClaimBID)
	if err != nil {
		return nil, fmt.Errorf("load claim b: %w", err)
	}

	var winner *model.Claim
	switch resolution {
	case model.ResolutionSourceA:
		winner = claimA
	case model.ResolutionSourceB:
		winner = claimB
	}

	resolvedValue := opts.ResolvedValue
	if winner != nil {
		resolvedValue = claimValue(winner)
		if winner.Status == model.StatusPending {
			winner.Status = model.StatusUserApproved
			winner.ReviewedBy = userID
		}
	}

	now := e.now()
	conflict.Resolution = resolution
	conflict.ResolvedValue = resolvedValue
	conflict.ResolutionNotes = opts.Notes
	conflict.ResolvedBy = userID
	conflict.ResolvedAt = &now
	if err := e.store.PutConflict(ctx, conflict); err != nil {
		return nil, fmt.Errorf("store conflict: %w", err)
	}

	for _, c := range []*model.Claim{claimA, claimB} {
		c.ConflictResolved = true
		c.UpdatedAt = now
		if err := e.store.PutClaim(ctx, c); err != nil {
			return nil, fmt.Errorf("update claim %s: %w", c.ID, err)
		}
	}

	if opts.UpdateTimeline && winner != nil {
		if err := e.propagateResolution(ctx, conflict, claimA, claimB, winner); err != nil {
			return nil, err
		}
	}

	e.log.Info().
		Str("conflict", conflict.ID).
		Str("resolution", string(resolution)).
		Str("by", userID).
		Msg("conflict resolved")
	e.bumpGeneration(conflict.LocationID)
	return conflict, nil
}

// propagateResolution rewrites the date of a timeline event that was
// converted from either side of the conflict so it reflects the winner.
func (e *Engine) propagateResolution(ctx context.Context, conflict *model.FactConflict, claimA, claimB, winner *model.Claim) error {
	for _, c := range []*model.Claim{claimA, claimB} {
		evType, subtype := eventShapeFor(c.Category)
		ev, err := e.store.FindEventBySource(ctx, conflict.LocationID, c.ID, evType, subtype)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("lookup event: %w", err)
		}
		applyDate(ev, winner.ParsedDate, ev.EventType)
		ev.Sources = []model.SourceRef{{Type: winner.SourceType, Ref: winner.SourceRef}}
		if err := e.store.PutEvent(ctx, ev); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		e.log.Debug().Str("event", ev.ID).Msg("timeline event updated from resolution")
	}
	return nil
}

// applyTransition loads a claim, applies one state-machine step under the
// location lock, and persists the result.
func (e *Engine) applyTransition(ctx context.Context, claimID, op string, mutate func(*model.Claim)) (*model.Claim, error) {
	claim, err := e.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	mu := e.lockLocation(claim.LocationID)
	mu.Lock()
	defer mu.Unlock()

	claim, err = e.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	next, err := transition(claim, op)
	if err != nil {
		return nil, err
	}

	claim.Status = next
	mutate(claim)
	claim.UpdatedAt = e.now()
	if err := e.store.PutClaim(ctx, claim); err != nil {
		return nil, fmt.Errorf("update claim: %w", err)
	}

	e.log.Info().
		Str("claim", claim.ID).
		Str("op", op).
		Str("status", string(next)).
		Msg("claim transitioned")
	return claim, nil
}

// eventShapeFor maps a claim category to the type/subtype of the timeline
// event it converts into.
func eventShapeFor(c model.Category) (model.EventType, string) {
	switch c {
	case model.CategoryBuilt, model.CategoryOpened, model.CategoryClosed,
		model.CategoryAbandoned, model.CategoryDemolished, model.CategoryRenovated:
		return model.EventEstablished, string(c)
	default:
		return model.EventCustom, string(c)
	}
}

// claimValue is the display value a claim asserts.
func claimValue(c *model.Claim) string {
	if model.DateCategory(c.Category) && !c.ParsedDate.IsUnknown() {
		return c.ParsedDate.Display
	}
	return c.RawText
}

func applyDate(ev *model.TimelineEvent, d model.ParsedDate, evType model.EventType) {
	ev.DateSort = sortkey.Compute(d, evType)
	ev.DateDisplay = d.Display
	ev.DatePrecision = d.Precision
	ev.DateEDTF = d.EDTF
}
