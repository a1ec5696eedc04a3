package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category classifies what a dated claim is about
type Category string

const (
	CategoryBuilt      Category = "built"      // Construction / founding date
	CategoryOpened     Category = "opened"     // Opening or first operation
	CategoryClosed     Category = "closed"     // Closure / end of operation
	CategoryAbandoned  Category = "abandoned"  // Abandonment date
	CategoryDemolished Category = "demolished" // Demolition date
	CategoryRenovated  Category = "renovated"  // Major renovation
	CategoryName       Category = "name"       // Name or former name of the place
	CategoryFact       Category = "fact"       // Free-form factual claim
	CategoryEvent      Category = "event"      // Dated event at the place
)

// ValidCategory reports whether c is a recognized category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryBuilt, CategoryOpened, CategoryClosed, CategoryAbandoned,
		CategoryDemolished, CategoryRenovated, CategoryName, CategoryFact,
		CategoryEvent:
		return true
	}
	return false
}

// DateCategory reports whether claims in this category carry a date value
// (as opposed to a name or free-form fact).
func DateCategory(c Category) bool {
	switch c {
	case CategoryName, CategoryFact:
		return false
	}
	return true
}

// ClaimStatus is the review-workflow state of a claim
type ClaimStatus string

const (
	StatusPending      ClaimStatus = "pending"       // Awaiting review
	StatusAutoApproved ClaimStatus = "auto_approved" // Approved by a trusted upstream classifier
	StatusUserApproved ClaimStatus = "user_approved" // Approved by a human reviewer
	StatusRejected     ClaimStatus = "rejected"      // Rejected; retained for audit
	StatusConverted    ClaimStatus = "converted"     // Materialized as a timeline event
	StatusReverted     ClaimStatus = "reverted"      // Conversion undone
)

// Approved reports whether the status allows conversion to a timeline event.
func (s ClaimStatus) Approved() bool {
	return s == StatusAutoApproved || s == StatusUserApproved
}

// SourceType identifies the kind of upstream producer a claim came from
type SourceType string

const (
	SourceEXIF     SourceType = "exif"     // Camera EXIF metadata
	SourceVisit    SourceType = "visit"    // User site visit
	SourceWeb      SourceType = "web"      // Archived web page
	SourceDocument SourceType = "document" // Scanned document
	SourceManual   SourceType = "manual"   // Manual entry
)

// ValidSourceType reports whether t is a recognized source type.
func ValidSourceType(t SourceType) bool {
	switch t {
	case SourceEXIF, SourceVisit, SourceWeb, SourceDocument, SourceManual:
		return true
	}
	return false
}

// Candidate is a raw extraction delivered by an upstream producer.
// Deliveries may arrive out of order or more than once; the identity key
// for idempotent ingestion is (LocationID, SourceRef, RawText).
type Candidate struct {
	LocationID    string     `json:"location_id" yaml:"location_id"`
	SubLocationID string     `json:"sub_location_id,omitempty" yaml:"sub_location_id,omitempty"`
	Category      Category   `json:"category" yaml:"category"`
	RawText       string     `json:"raw_text" yaml:"raw_text"`
	Confidence    *float64   `json:"confidence" yaml:"confidence"` // Pointer so a missing value is detectable
	SourceType    SourceType `json:"source_type" yaml:"source_type"`
	SourceRef     string     `json:"source_ref" yaml:"source_ref"`
	ArticleDate   *time.Time `json:"article_date,omitempty" yaml:"article_date,omitempty"` // Anchor for relative dates
	AutoApproved  bool       `json:"auto_approved,omitempty" yaml:"auto_approved,omitempty"`
}

// Claim is a stored dated or factual assertion about a location.
// Claims are never physically deleted; rejected claims persist for audit.
type Claim struct {
	ID            string      `json:"id"`
	LocationID    string      `json:"location_id"`
	SubLocationID string      `json:"sub_location_id,omitempty"`
	Category      Category    `json:"category"`
	RawText       string      `json:"raw_text"`
	ParsedDate    ParsedDate  `json:"parsed_date"`
	Confidence    float64     `json:"confidence"` // [0,1]
	Status        ClaimStatus `json:"status"`
	SourceType    SourceType  `json:"source_type"`
	SourceRef     string      `json:"source_ref"`
	ArticleDate   *time.Time  `json:"article_date,omitempty"`
	WasRelative   bool        `json:"was_relative_date"`

	// Conflict linkage, maintained by the detector and review workflow.
	ConflictID       string `json:"conflict_id,omitempty"`
	ConflictResolved bool   `json:"conflict_resolved"`

	// Dedup linkage. A non-primary claim appears in some primary's
	// MergedFromIDs and is hidden from default listings.
	IsPrimary     bool     `json:"is_primary"`
	MergedFromIDs []string `json:"merged_from_ids,omitempty"`

	// Review audit trail.
	ReviewedBy      string `json:"reviewed_by,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	Seq       int64     `json:"seq"` // Insertion order, secondary sort key
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SourceCount returns the number of independent sources backing the claim
// (itself plus merged duplicates), for "+N sources" display.
func (c *Claim) SourceCount() int {
	return 1 + len(c.MergedFromIDs)
}

// NewID generates a 16-character hex identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}
