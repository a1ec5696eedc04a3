// Package score rates how well curated a location's record is. The index
// is diagnostic output for reviewers; it never gates any workflow
// transition.
package score

import (
	"fmt"
	"math"

	"github.com/okhose/annals/internal/model"
)

// Severity of a diagnostic signal
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SignalType identifies what a signal measures
type SignalType string

const (
	SignalReviewProgress     SignalType = "review_progress"
	SignalSourceDiversity    SignalType = "source_diversity"
	SignalDatePrecision      SignalType = "date_precision"
	SignalStructuralCoverage SignalType = "structural_coverage"
	SignalOpenConflicts      SignalType = "open_conflicts"
)

// Signal is one diagnostic observation about a location's record
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    Severity               `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Health is the curation health summary for one location
type Health struct {
	Index      int      `json:"index"` // 0-100
	Confidence string   `json:"confidence"`
	Conflict   bool     `json:"conflict"`
	Signals    []Signal `json:"signals"`
}

// Scorer calculates the curation index and generates signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Assess rates a location's record from its claims, conflicts, and events
func (s *Scorer) Assess(claims []*model.Claim, conflicts []*model.FactConflict, events []*model.TimelineEvent) Health {
	var signals []Signal

	// 1. Review progress (0-40 points)
	reviewScore, reviewSignal := s.reviewProgress(claims)
	signals = append(signals, reviewSignal)

	// 2. Source diversity (0-30 points)
	diversityScore, diversitySignal := s.sourceDiversity(claims)
	signals = append(signals, diversitySignal)

	// 3. Date precision (0-20 points)
	precisionScore, precisionSignal := s.datePrecision(claims)
	signals = append(signals, precisionSignal)

	// 4. Structural coverage (0-10 points)
	coverageScore, coverageSignal := s.structuralCoverage(events)
	signals = append(signals, coverageSignal)

	// 5. Open conflicts (penalty)
	openConflicts, conflictSignal := s.openConflicts(conflicts)
	if openConflicts > 0 {
		signals = append(signals, conflictSignal)
	}

	totalScore := reviewScore + diversityScore + precisionScore + coverageScore

	// Each open conflict costs 10 points
	if openConflicts > 0 {
		totalScore -= 10 * openConflicts
		if totalScore < 0 {
			totalScore = 0
		}
	}

	confidence := s.determineConfidence(totalScore, len(claims), openConflicts > 0)

	return Health{
		Index:      totalScore,
		Confidence: confidence,
		Conflict:   openConflicts > 0,
		Signals:    signals,
	}
}

// reviewProgress scores how much of the backlog is decided (0-40 points)
func (s *Scorer) reviewProgress(claims []*model.Claim) (int, Signal) {
	if len(claims) == 0 {
		return 0, Signal{
			Type:        SignalReviewProgress,
			Severity:    SeverityInfo,
			Description: "No claims ingested yet",
		}
	}

	decided := 0
	for _, c := range claims {
		if c.Status != model.StatusPending {
			decided++
		}
	}

	ratio := float64(decided) / float64(len(claims))
	points := int(math.Round(ratio * 40))

	severity := SeverityInfo
	if ratio < 0.25 {
		severity = SeverityCritical
	} else if ratio < 0.75 {
		severity = SeverityWarning
	}

	return points, Signal{
		Type:        SignalReviewProgress,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d claims decided", decided, len(claims)),
		Data: map[string]interface{}{
			"decided": decided,
			"total":   len(claims),
			"ratio":   ratio,
		},
	}
}

// sourceDiversity scores corroboration across independent sources (0-30
// points)
func (s *Scorer) sourceDiversity(claims []*model.Claim) (int, Signal) {
	refs := make(map[string]bool)
	for _, c := range claims {
		if c.Status != model.StatusRejected {
			refs[c.SourceRef] = true
		}
	}

	points := int(math.Min(float64(len(refs))/3*30, 30))

	severity := SeverityInfo
	if len(refs) <= 1 {
		severity = SeverityWarning
	}

	return points, Signal{
		Type:        SignalSourceDiversity,
		Severity:    severity,
		Description: fmt.Sprintf("%d independent sources", len(refs)),
		Data: map[string]interface{}{
			"sources": len(refs),
			"formula": "min(sources / 3 * 30, 30)",
		},
	}
}

// datePrecision penalizes records dominated by unparseable dates (0-20
// points)
func (s *Scorer) datePrecision(claims []*model.Claim) (int, Signal) {
	dated, unknown := 0, 0
	for _, c := range claims {
		if !model.DateCategory(c.Category) {
			continue
		}
		dated++
		if c.ParsedDate.IsUnknown() {
			unknown++
		}
	}

	if dated == 0 {
		return 0, Signal{
			Type:        SignalDatePrecision,
			Severity:    SeverityInfo,
			Description: "No dated claims",
		}
	}

	ratio := 1 - float64(unknown)/float64(dated)
	points := int(math.Round(ratio * 20))

	severity := SeverityInfo
	if ratio < 0.5 {
		severity = SeverityWarning
	}

	return points, Signal{
		Type:        SignalDatePrecision,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d dated claims parsed", dated-unknown, dated),
		Data: map[string]interface{}{
			"dated":   dated,
			"unknown": unknown,
		},
	}
}

// structuralCoverage checks that the timeline anchors on an established
// event (0-10 points)
func (s *Scorer) structuralCoverage(events []*model.TimelineEvent) (int, Signal) {
	for _, ev := range events {
		if ev.EventType == model.EventEstablished {
			return 10, Signal{
				Type:        SignalStructuralCoverage,
				Severity:    SeverityInfo,
				Description: "Timeline has an established anchor",
			}
		}
	}

	return 0, Signal{
		Type:        SignalStructuralCoverage,
		Severity:    SeverityWarning,
		Description: "No established event on the timeline",
	}
}

// openConflicts counts unresolved disagreements
func (s *Scorer) openConflicts(conflicts []*model.FactConflict) (int, Signal) {
	open := 0
	for _, c := range conflicts {
		if c.Open() {
			open++
		}
	}

	return open, Signal{
		Type:        SignalOpenConflicts,
		Severity:    SeverityCritical,
		Description: fmt.Sprintf("%d unresolved conflicts", open),
		Data: map[string]interface{}{
			"open": open,
		},
	}
}

// determineConfidence maps the index to a coarse confidence label
func (s *Scorer) determineConfidence(index, claimCount int, conflict bool) string {
	switch {
	case claimCount == 0:
		return "none"
	case conflict || index < 40:
		return "low"
	case index < 70 || claimCount < 3:
		return "medium"
	default:
		return "high"
	}
}
