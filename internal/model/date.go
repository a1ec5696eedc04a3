package model

import "time"

// Precision describes the granularity of a parsed date expression
type Precision string

const (
	PrecisionExact   Precision = "exact"   // Full calendar date (YYYY-MM-DD)
	PrecisionMonth   Precision = "month"   // Year and month (YYYY-MM)
	PrecisionYear    Precision = "year"    // Bare year ("1920")
	PrecisionDecade  Precision = "decade"  // Decade form ("1920s")
	PrecisionCentury Precision = "century" // Century form ("1900s", "1800s")
	PrecisionCirca   Precision = "circa"   // Approximate year ("ca 1920")
	PrecisionRange   Precision = "range"   // Explicit span ("1920-1925")
	PrecisionBefore  Precision = "before"  // Open-ended upper bound ("before 1950")
	PrecisionAfter   Precision = "after"   // Open-ended lower bound ("after 1950")
	PrecisionEarly   Precision = "early"   // First third of a decade ("early 1920s")
	PrecisionMid     Precision = "mid"     // Middle third of a decade ("mid 1920s")
	PrecisionLate    Precision = "late"    // Last third of a decade ("late 1920s")
	PrecisionUnknown Precision = "unknown" // Unparseable; original text preserved
)

// Sort key sentinels. Keys are integer YYYYMMDD values, so every real date
// falls strictly between the two sentinels.
const (
	// SortKeyMin marks an open lower bound, and the earliest-possible
	// position used for established events with no known date.
	SortKeyMin = 0

	// SortKeyMax is the latest-possible position. Unparseable dates carry
	// it so they sort after every dated item.
	SortKeyMax = 99999999
)

// ParsedDate is the normalized form of a free-text date expression.
// SortStart and SortEnd are integer YYYYMMDD keys with SortStart <= SortEnd.
type ParsedDate struct {
	RawText            string     `json:"raw_text"`                   // Original expression as received
	Precision          Precision  `json:"precision"`                  // Granularity classification
	Display            string     `json:"display"`                    // Human-readable normalized form
	EDTF               string     `json:"edtf,omitempty"`             // EDTF-style normalized string
	SortStart          int        `json:"sort_start"`                 // Earliest YYYYMMDD covered
	SortEnd            int        `json:"sort_end"`                   // Latest YYYYMMDD covered
	AnchorDate         *time.Time `json:"anchor_date,omitempty"`      // Reference date for relative expressions
	CenturyBiasApplied bool       `json:"century_bias_applied"`       // "1900s" read as early-century
	WasRelative        bool       `json:"was_relative"`               // Resolved from a relative expression
}

// IsUnknown reports whether the expression could not be parsed.
func (d ParsedDate) IsUnknown() bool {
	return d.Precision == PrecisionUnknown
}

// Year returns the primary year covered by the date, or 0 for unknown
// dates and open lower bounds.
func (d ParsedDate) Year() int {
	if d.IsUnknown() {
		return 0
	}
	if d.SortStart == SortKeyMin {
		// "before X" carries its bound in SortEnd
		return d.SortEnd / 10000
	}
	return d.SortStart / 10000
}

// DecadeBucket returns the decade containing the primary year, used for
// coarse-precision tolerance grouping.
func (d ParsedDate) DecadeBucket() int {
	return (d.Year() / 10) * 10
}

// ValidPrecisions lists every recognized precision value.
func ValidPrecisions() []Precision {
	return []Precision{
		PrecisionExact, PrecisionMonth, PrecisionYear, PrecisionDecade,
		PrecisionCentury, PrecisionCirca, PrecisionRange, PrecisionBefore,
		PrecisionAfter, PrecisionEarly, PrecisionMid, PrecisionLate,
		PrecisionUnknown,
	}
}
