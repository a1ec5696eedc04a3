package model

import "time"

// EventType classifies a timeline event
type EventType string

const (
	EventEstablished   EventType = "established"    // Structural lifecycle milestone (built/opened/closed/demolished)
	EventVisit         EventType = "visit"          // A documented site visit
	EventDatabaseEntry EventType = "database_entry" // The location was added to the database
	EventCustom        EventType = "custom"         // Anything else (e.g. subtype "web_page")
)

// ValidEventType reports whether t is a recognized event type.
func ValidEventType(t EventType) bool {
	switch t {
	case EventEstablished, EventVisit, EventDatabaseEntry, EventCustom:
		return true
	}
	return false
}

// Priority orders event types for tie-breaking when sort keys are equal.
// Higher priority sorts first.
func (t EventType) Priority() int {
	switch t {
	case EventEstablished:
		return 3
	case EventDatabaseEntry:
		return 2
	case EventVisit:
		return 1
	default:
		return 0
	}
}

// StructuralEventType reports whether events of this type are load-bearing
// in a budgeted timeline view and must never be truncated.
func StructuralEventType(t EventType) bool {
	return t == EventEstablished || t == EventDatabaseEntry
}

// SourceRef identifies one upstream source backing a timeline event.
type SourceRef struct {
	Type SourceType `json:"type"`
	Ref  string     `json:"ref"`
}

// TimelineEvent is one entry in a location's chronological record. The
// engine owns the merged ordering view; raw events are created upstream
// (EXIF import creates visits, manual database actions create
// database_entry events, structural edits create established events) or by
// converting an approved claim.
type TimelineEvent struct {
	ID            string    `json:"id"`
	LocationID    string    `json:"location_id"`
	SubLocationID string    `json:"sub_location_id,omitempty"`
	EventType     EventType `json:"event_type"`
	EventSubtype  string    `json:"event_subtype,omitempty"`

	DateSort      int       `json:"date_sort"` // Canonical ordering key, never left unset
	DateDisplay   string    `json:"date_display"`
	DatePrecision Precision `json:"date_precision"`
	DateEDTF      string    `json:"date_edtf,omitempty"`

	SourceType   SourceType  `json:"source_type"`
	SourceRef    string      `json:"source_ref,omitempty"`
	SourceDevice string      `json:"source_device,omitempty"`
	Sources      []SourceRef `json:"sources,omitempty"`

	MediaCount   int    `json:"media_count"`
	CreatedBy    string `json:"created_by"`
	AutoApproved bool   `json:"auto_approved"`
	UserApproved bool   `json:"user_approved"`
	NeedsReview  bool   `json:"needs_review"`

	Seq       int64     `json:"seq"` // Insertion order, secondary sort key
	CreatedAt time.Time `json:"created_at"`
}
