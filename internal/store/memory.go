package store

import (
	"context"
	"sort"
	"sync"

	"github.com/okhose/annals/internal/model"
)

// Memory is an in-process Store for tests and ephemeral runs.
type Memory struct {
	mu        sync.RWMutex
	claims    map[string]*model.Claim
	conflicts map[string]*model.FactConflict
	events    map[string]*model.TimelineEvent
	seq       int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		claims:    make(map[string]*model.Claim),
		conflicts: make(map[string]*model.FactConflict),
		events:    make(map[string]*model.TimelineEvent),
	}
}

// GetClaim retrieves a claim by ID.
func (m *Memory) GetClaim(_ context.Context, id string) (*model.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.claims[id]
	if !ok {
		return nil, &model.NotFoundError{Resource: "claim", ID: id}
	}
	return cloneClaim(c), nil
}

// FindClaimByIdentity looks up a claim by its idempotency key.
func (m *Memory) FindClaimByIdentity(_ context.Context, locationID, sourceRef, rawText string) (*model.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.claims {
		if c.LocationID == locationID && c.SourceRef == sourceRef && c.RawText == rawText {
			return cloneClaim(c), nil
		}
	}
	return nil, &model.NotFoundError{Resource: "claim", ID: locationID + "/" + sourceRef}
}

// PutClaim inserts or replaces a claim by ID.
func (m *Memory) PutClaim(_ context.Context, c *model.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims[c.ID] = cloneClaim(c)
	return nil
}

// ListClaims returns claims for a location, filtered and in insertion order.
func (m *Memory) ListClaims(_ context.Context, locationID string, q ClaimQuery) ([]*model.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.Claim
	for _, c := range m.claims {
		if c.LocationID != locationID {
			continue
		}
		if q.Status != "" && c.Status != q.Status {
			continue
		}
		if q.Category != "" && c.Category != q.Category {
			continue
		}
		if !q.IncludeHidden && !c.IsPrimary {
			continue
		}
		out = append(out, cloneClaim(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// GetConflict retrieves a conflict by ID.
func (m *Memory) GetConflict(_ context.Context, id string) (*model.FactConflict, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conflicts[id]
	if !ok {
		return nil, &model.NotFoundError{Resource: "conflict", ID: id}
	}
	return cloneConflict(c), nil
}

// FindConflictByPair looks up a conflict by its idempotency key.
func (m *Memory) FindConflictByPair(_ context.Context, locationID, fieldName, pairKey string) (*model.FactConflict, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.conflicts {
		if c.LocationID == locationID && c.FieldName == fieldName && c.PairKey() == pairKey {
			return cloneConflict(c), nil
		}
	}
	return nil, &model.NotFoundError{Resource: "conflict", ID: locationID + "/" + fieldName}
}

// PutConflict inserts or replaces a conflict by ID.
func (m *Memory) PutConflict(_ context.Context, c *model.FactConflict) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts[c.ID] = cloneConflict(c)
	return nil
}

// ListConflicts returns conflicts for a location, open ones first.
func (m *Memory) ListConflicts(_ context.Context, locationID string, includeResolved bool) ([]*model.FactConflict, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.FactConflict
	for _, c := range m.conflicts {
		if c.LocationID != locationID {
			continue
		}
		if !includeResolved && !c.Open() {
			continue
		}
		out = append(out, cloneConflict(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Open() != out[j].Open() {
			return out[i].Open()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetEvent retrieves a timeline event by ID.
func (m *Memory) GetEvent(_ context.Context, id string) (*model.TimelineEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.events[id]
	if !ok {
		return nil, &model.NotFoundError{Resource: "event", ID: id}
	}
	return cloneEvent(ev), nil
}

// FindEventBySource looks up an event by its backfill identity.
func (m *Memory) FindEventBySource(_ context.Context, locationID, sourceRef string, eventType model.EventType, subtype string) (*model.TimelineEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ev := range m.events {
		if ev.LocationID == locationID && ev.SourceRef == sourceRef &&
			ev.EventType == eventType && ev.EventSubtype == subtype {
			return cloneEvent(ev), nil
		}
	}
	return nil, &model.NotFoundError{Resource: "event", ID: locationID + "/" + sourceRef}
}

// PutEvent inserts or replaces an event by ID.
func (m *Memory) PutEvent(_ context.Context, ev *model.TimelineEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.ID] = cloneEvent(ev)
	return nil
}

// DeleteEvent removes an event (conversion revert).
func (m *Memory) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return &model.NotFoundError{Resource: "event", ID: id}
	}
	delete(m.events, id)
	return nil
}

// ListEvents returns all events for the given locations in insertion order.
func (m *Memory) ListEvents(_ context.Context, locationIDs []string) ([]*model.TimelineEvent, error) {
	want := make(map[string]bool, len(locationIDs))
	for _, id := range locationIDs {
		want[id] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.TimelineEvent
	for _, ev := range m.events {
		if want[ev.LocationID] {
			out = append(out, cloneEvent(ev))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// NextSeq issues the next insertion-order counter value.
func (m *Memory) NextSeq(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

// Close is a no-op for the memory store.
func (m *Memory) Close() error { return nil }

func cloneClaim(c *model.Claim) *model.Claim {
	out := *c
	out.MergedFromIDs = append([]string(nil), c.MergedFromIDs...)
	return &out
}

func cloneConflict(c *model.FactConflict) *model.FactConflict {
	out := *c
	return &out
}

func cloneEvent(ev *model.TimelineEvent) *model.TimelineEvent {
	out := *ev
	out.Sources = append([]model.SourceRef(nil), ev.Sources...)
	return &out
}
