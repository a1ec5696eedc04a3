package model

import "time"

// ConflictType classifies what two sources disagree about
type ConflictType string

const (
	ConflictDate        ConflictType = "date"        // Different dates for the same category
	ConflictName        ConflictType = "name"        // Different names for the place
	ConflictFact        ConflictType = "fact"        // Incompatible factual statements
	ConflictAttribution ConflictType = "attribution" // Different attributions (architect, owner)
	ConflictLocation    ConflictType = "location"    // Disagreement about the place itself
)

// ValidConflictType reports whether t is a recognized conflict type.
func ValidConflictType(t ConflictType) bool {
	switch t {
	case ConflictDate, ConflictName, ConflictFact, ConflictAttribution, ConflictLocation:
		return true
	}
	return false
}

// Resolution is the reviewer's decision on a conflict
type Resolution string

const (
	ResolutionSourceA   Resolution = "source_a"   // Claim A wins; A is approved
	ResolutionSourceB   Resolution = "source_b"   // Claim B wins; B is approved
	ResolutionBothValid Resolution = "both_valid" // Both claims stand (e.g. built vs rebuilt)
	ResolutionNeither   Resolution = "neither"    // Neither claim is trusted
	ResolutionMerged    Resolution = "merged"     // Reviewer synthesized a value
)

// ValidResolution reports whether r is a recognized resolution.
func ValidResolution(r Resolution) bool {
	switch r {
	case ResolutionSourceA, ResolutionSourceB, ResolutionBothValid,
		ResolutionNeither, ResolutionMerged:
		return true
	}
	return false
}

// FactConflict records a disagreement between two independent sources about
// the same field of the same location. A conflict without a resolution is
// open; once resolved it is immutable except for note edits.
type FactConflict struct {
	ID           string       `json:"id"`
	LocationID   string       `json:"location_id"`
	ConflictType ConflictType `json:"conflict_type"`
	FieldName    string       `json:"field_name"` // Category for date conflicts, field otherwise
	ClaimAID     string       `json:"claim_a_id"`
	ClaimBID     string       `json:"claim_b_id"`

	Resolution      Resolution `json:"resolution,omitempty"` // Empty while open
	ResolvedValue   string     `json:"resolved_value,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	ResolvedBy      string     `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Open reports whether the conflict still awaits a resolution.
func (c *FactConflict) Open() bool {
	return c.Resolution == ""
}

// PairKey returns the order-independent identity of the conflicting pair,
// used to keep re-detection idempotent.
func (c *FactConflict) PairKey() string {
	return ConflictPairKey(c.ClaimAID, c.ClaimBID)
}

// ConflictPairKey builds an order-independent key for a claim pair.
func ConflictPairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// Suggestion is a non-binding resolution recommendation produced by
// comparing claim confidences. It never mutates state.
type Suggestion struct {
	ConflictID  string     `json:"conflict_id"`
	Recommended Resolution `json:"recommended"`
	Reason      string     `json:"reason"`
	ConfidenceA float64    `json:"confidence_a"`
	ConfidenceB float64    `json:"confidence_b"`
}
