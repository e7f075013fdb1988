// Package scoring ranks events by clinical significance independently of
// any disclosure question.
package scoring

import (
	"sort"

	"github.com/gyaneshwarpardhi/disclosure/internal/event"
)

// Tier buckets the total score.
type Tier string

const (
	TierCritical Tier = "critical"
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
)

// CoreThreshold is the minimum score for report inclusion.
const CoreThreshold = 40

// Breakdown holds the four bounded components of a score.
type Breakdown struct {
	SeverityScore  int    `json:"severityScore"`
	PeriodScore    int    `json:"periodScore"`
	RelevanceScore int    `json:"relevanceScore"`
	FrequencyScore int    `json:"frequencyScore"`
	SeverityRule   string `json:"severityRule,omitempty"`
}

// Total sums the components.
func (b Breakdown) Total() int {
	return b.SeverityScore + b.PeriodScore + b.RelevanceScore + b.FrequencyScore
}

// ScoredEvent is an Event annotated with its importance score.
type ScoredEvent struct {
	event.Event
	Score          int       `json:"score"`
	ScoreBreakdown Breakdown `json:"scoreBreakdown"`
	Tier           Tier      `json:"tier"`
	IsCore         bool      `json:"isCore"`
}

// TierFor maps a total score to its tier.
func TierFor(score int) Tier {
	switch {
	case score >= 70:
		return TierCritical
	case score >= 50:
		return TierHigh
	case score >= 30:
		return TierMedium
	}
	return TierLow
}

// ScoreEvent scores a single event.
func ScoreEvent(ev event.Event, patient event.PatientInfo, claim event.ClaimInfo) ScoredEvent {
	sev, rule := Severity(&ev)
	b := Breakdown{
		SeverityScore:  sev,
		SeverityRule:   rule,
		PeriodScore:    Period(&ev, patient),
		RelevanceScore: Relevance(&ev, claim),
		FrequencyScore: Frequency(&ev),
	}
	total := b.Total()
	return ScoredEvent{
		Event:          ev,
		Score:          total,
		ScoreBreakdown: b,
		Tier:           TierFor(total),
		IsCore:         total >= CoreThreshold,
	}
}

// ScoreEvents scores every event and returns them sorted by score, highest
// first. Equal scores keep input order.
func ScoreEvents(events []event.Event, patient event.PatientInfo, claim event.ClaimInfo) []ScoredEvent {
	out := make([]ScoredEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, ScoreEvent(ev, patient, claim))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Core filters scored events down to those marked IsCore.
func Core(scored []ScoredEvent) []ScoredEvent {
	out := make([]ScoredEvent, 0, len(scored))
	for _, s := range scored {
		if s.IsCore {
			out = append(out, s)
		}
	}
	return out
}
