package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/okhose/annals/internal/model"
	"github.com/okhose/annals/internal/sortkey"
)

// TimelineOptions shapes an assembled timeline view.
type TimelineOptions struct {
	// MaxEntries bounds the view. Zero means the configured default;
	// negative means unbounded.
	MaxEntries int
	// SubLocationIDs merges events of sub-locations into the host view.
	SubLocationIDs []string
}

// EventInput is a raw timeline event delivered by an upstream producer
// (EXIF import, database actions, structural edits).
type EventInput struct {
	LocationID    string          `json:"location_id" yaml:"location_id"`
	SubLocationID string          `json:"sub_location_id,omitempty" yaml:"sub_location_id,omitempty"`
	EventType     model.EventType `json:"event_type" yaml:"event_type"`
	EventSubtype  string          `json:"event_subtype,omitempty" yaml:"event_subtype,omitempty"`
	RawDate       string          `json:"raw_date" yaml:"raw_date"`
	SourceType    model.SourceType `json:"source_type" yaml:"source_type"`
	SourceRef     string          `json:"source_ref" yaml:"source_ref"`
	SourceDevice  string          `json:"source_device,omitempty" yaml:"source_device,omitempty"`
	MediaCount    int             `json:"media_count,omitempty" yaml:"media_count,omitempty"`
	CreatedBy     string          `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	AutoApproved  bool            `json:"auto_approved,omitempty" yaml:"auto_approved,omitempty"`
}

// RecordEvent stores an upstream-produced timeline event. Backfill keyed
// on (location, sourceRef, type, subtype): redelivering the same event
// refreshes its date and counters instead of duplicating it.
func (e *Engine) RecordEvent(ctx context.Context, in EventInput) (*model.TimelineEvent, error) {
	if in.LocationID == "" {
		return nil, &model.ValidationError{Field: "location_id", Message: "required"}
	}
	if !model.ValidEventType(in.EventType) {
		return nil, &model.ValidationError{Field: "event_type", Message: fmt.Sprintf("unknown event type %q", in.EventType)}
	}
	if in.SourceRef == "" {
		return nil, &model.ValidationError{Field: "source_ref", Message: "required"}
	}

	mu := e.lockLocation(in.LocationID)
	mu.Lock()
	defer mu.Unlock()

	parsed := e.parser.Parse(in.RawDate, nil)

	ev, err := e.store.FindEventBySource(ctx, in.LocationID, in.SourceRef, in.EventType, in.EventSubtype)
	if isNotFound(err) {
		seq, serr := e.store.NextSeq(ctx)
		if serr != nil {
			return nil, fmt.Errorf("next seq: %w", serr)
		}
		ev = &model.TimelineEvent{
			ID:            model.NewID(),
			LocationID:    in.LocationID,
			SubLocationID: in.SubLocationID,
			EventType:     in.EventType,
			EventSubtype:  in.EventSubtype,
			SourceType:    in.SourceType,
			SourceRef:     in.SourceRef,
			SourceDevice:  in.SourceDevice,
			Sources:       []model.SourceRef{{Type: in.SourceType, Ref: in.SourceRef}},
			CreatedBy:     in.CreatedBy,
			AutoApproved:  in.AutoApproved,
			NeedsReview:   !in.AutoApproved,
			Seq:           seq,
			CreatedAt:     e.now(),
		}
	} else if err != nil {
		return nil, fmt.Errorf("lookup event: %w", err)
	}

	applyDate(ev, parsed, ev.EventType)
	ev.MediaCount = in.MediaCount

	if err := e.store.PutEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("store event: %w", err)
	}

	e.log.Debug().
		Str("event", ev.ID).
		Str("location", ev.LocationID).
		Str("type", string(ev.EventType)).
		Msg("timeline event recorded")
	e.bumpGeneration(in.LocationID)
	return ev, nil
}

// GetTimeline assembles the chronological view for a location, optionally
// merged with its sub-locations.
//
// When the view is bounded, established and database_entry events are
// always retained and the remaining slots go to the most chronologically
// recent visit and custom events. The retained set is then re-sorted
// chronologically: recency selection and display order are different
// orderings and the selection must not leak into the result order.
func (e *Engine) GetTimeline(ctx context.Context, locationID string, opts TimelineOptions) ([]*model.TimelineEvent, error) {
	if opts.MaxEntries == 0 {
		opts.MaxEntries = e.cfg.Timeline.DefaultMaxEntries
	}

	gen := e.generation(locationID)
	key := timelineCacheKey(locationID, gen, opts)
	if e.timelineCache != nil {
		if data, ok := e.timelineCache.Get(key); ok {
			var events []*model.TimelineEvent
			if err := json.Unmarshal(data, &events); err == nil {
				return events, nil
			}
		}
	}

	ids := append([]string{locationID}, opts.SubLocationIDs...)
	events, err := e.store.ListEvents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	sort.Slice(events, func(i, j int) bool {
		return sortkey.Less(sortkey.ForEvent(*events[i]), sortkey.ForEvent(*events[j]))
	})

	if opts.MaxEntries > 0 && len(events) > opts.MaxEntries {
		events = budgetedView(events, opts.MaxEntries)
	}

	if e.timelineCache != nil {
		if data, err := json.Marshal(events); err == nil {
			_ = e.timelineCache.Set(key, data, e.cfg.Cache.TTL)
		}
	}
	return events, nil
}

// budgetedView trims a chronologically sorted slice to the budget.
// Structural events are never dropped, even when they alone exceed the
// budget.
func budgetedView(events []*model.TimelineEvent, max int) []*model.TimelineEvent {
	var structural, rest []*model.TimelineEvent
	for _, ev := range events {
		if model.StructuralEventType(ev.EventType) {
			structural = append(structural, ev)
		} else {
			rest = append(rest, ev)
		}
	}

	slots := max - len(structural)
	if slots < 0 {
		slots = 0
	}
	if slots > len(rest) {
		slots = len(rest)
	}

	// Pick the most recent of the remainder. DateSort descending, with
	// insertion order breaking ties in favor of newer entries.
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].DateSort != rest[j].DateSort {
			return rest[i].DateSort > rest[j].DateSort
		}
		return rest[i].Seq > rest[j].Seq
	})

	kept := append(structural, rest[:slots]...)
	sort.Slice(kept, func(i, j int) bool {
		return sortkey.Less(sortkey.ForEvent(*kept[i]), sortkey.ForEvent(*kept[j]))
	})
	return kept
}
