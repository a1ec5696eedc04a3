// Package sortkey derives the canonical chronological ordering key for
// timeline entries from a parsed date and the owning event's type.
package sortkey

import "github.com/okhose/annals/internal/model"

// Key is the full comparison key for one timeline entry. DateSort carries
// the chronological position; Seq and type priority break ties.
type Key struct {
	DateSort int
	Seq      int64
	TypePrio int
}

// Compute derives the integer date key for a parsed date owned by an event
// of the given type.
//
// Two type-aware overrides apply beyond plain date comparison:
//   - an established event with an unknown date represents "founded, date
//     unknown" and sorts before every other event, so it takes the minimal
//     sentinel instead of the unknown-date maximal sentinel;
//   - "before X" dates order at their bound rather than at the open lower
//     sentinel, so only the established override can precede them.
func Compute(d model.ParsedDate, eventType model.EventType) int {
	if d.IsUnknown() {
		if eventType == model.EventEstablished {
			return model.SortKeyMin
		}
		return model.SortKeyMax
	}
	if d.Precision == model.PrecisionBefore {
		return d.SortEnd
	}
	return d.SortStart
}

// ForEvent builds the full comparison key for a stored timeline event.
func ForEvent(ev model.TimelineEvent) Key {
	return Key{
		DateSort: ev.DateSort,
		Seq:      ev.Seq,
		TypePrio: ev.EventType.Priority(),
	}
}

// Less orders keys chronologically, breaking date ties by insertion order
// and then by event-type priority (established > database_entry > visit >
// custom).
func Less(a, b Key) bool {
	if a.DateSort != b.DateSort {
		return a.DateSort < b.DateSort
	}
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	return a.TypePrio > b.TypePrio
}
