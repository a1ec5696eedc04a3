// Package store persists claims, conflicts, and timeline events. The
// engine serializes writers per location, so implementations only need to
// be safe for concurrent use, not transactional across calls.
package store

import (
	"context"

	"github.com/okhose/annals/internal/model"
)

// ClaimQuery filters claim listings. Zero values mean "no filter".
type ClaimQuery struct {
	Status        model.ClaimStatus
	Category      model.Category
	IncludeHidden bool // Include non-primary (merged) duplicates
}

// Store is the persistence boundary for the engine.
type Store interface {
	// Claims. PutClaim inserts or replaces by ID; claims are never
	// physically deleted.
	GetClaim(ctx context.Context, id string) (*model.Claim, error)
	FindClaimByIdentity(ctx context.Context, locationID, sourceRef, rawText string) (*model.Claim, error)
	PutClaim(ctx context.Context, c *model.Claim) error
	ListClaims(ctx context.Context, locationID string, q ClaimQuery) ([]*model.Claim, error)

	// Conflicts. FindConflictByPair supports idempotent re-detection.
	GetConflict(ctx context.Context, id string) (*model.FactConflict, error)
	FindConflictByPair(ctx context.Context, locationID, fieldName, pairKey string) (*model.FactConflict, error)
	PutConflict(ctx context.Context, c *model.FactConflict) error
	ListConflicts(ctx context.Context, locationID string, includeResolved bool) ([]*model.FactConflict, error)

	// Timeline events. FindEventBySource supports idempotent backfill:
	// one event per (location, sourceRef, type, subtype).
	GetEvent(ctx context.Context, id string) (*model.TimelineEvent, error)
	FindEventBySource(ctx context.Context, locationID, sourceRef string, eventType model.EventType, subtype string) (*model.TimelineEvent, error)
	PutEvent(ctx context.Context, ev *model.TimelineEvent) error
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, locationIDs []string) ([]*model.TimelineEvent, error)

	// NextSeq issues the monotonically increasing insertion-order counter
	// used as the secondary sort key.
	NextSeq(ctx context.Context) (int64, error)

	Close() error
}
