// Package disclosure matches events against underwriting disclosure
// questions and builds the question map shown to reviewers.
package disclosure

import (
	"fmt"
	"sort"

	"github.com/gyaneshwarpardhi/disclosure/internal/config"
	"github.com/gyaneshwarpardhi/disclosure/internal/event"
)

// topN matched events feed a question's total score.
const topN = 3

// MatchedEvent is an event that supports a question.
type MatchedEvent struct {
	Event    event.Event `json:"event"`
	RuleHits []RuleHit   `json:"ruleHits"`
	Score    float64     `json:"score"`
}

// QuestionMatch is the evidence gathered for one question.
type QuestionMatch struct {
	Question      config.Question `json:"question"`
	MatchedEvents []MatchedEvent  `json:"matchedEvents"`
	Summary       string          `json:"summary"`
	TotalScore    float64         `json:"totalScore"`
}

// Engine evaluates a fixed question list. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	questions []config.Question
}

// New returns an Engine over a private copy of questions.
func New(questions []config.Question) *Engine {
	qs := make([]config.Question, len(questions))
	copy(qs, questions)
	return &Engine{questions: qs}
}

// Questions returns the configured questions.
func (e *Engine) Questions() []config.Question {
	if e == nil {
		return []config.Question{}
	}
	out := make([]config.Question, len(e.questions))
	copy(out, e.questions)
	return out
}

// Process matches events against every question. Only questions with at
// least one matched event are returned, ordered by priority then total score.
// A nil Engine matches nothing.
func (e *Engine) Process(events []event.Event, patient event.PatientInfo) []QuestionMatch {
	if e == nil {
		return nil
	}
	_, haveEnrollment := event.ParseDate(patient.EnrollmentDate)

	var out []QuestionMatch
	for i := range e.questions {
		q := &e.questions[i]
		var matched []MatchedEvent
		for j := range events {
			ev := &events[j]
			if !passesPeriod(q.Period, ev, haveEnrollment) {
				continue
			}
			hits := EvaluateRules(ev, q.Triggers)
			if len(hits) == 0 {
				continue
			}
			matched = append(matched, MatchedEvent{Event: *ev, RuleHits: hits, Score: EventScore(ev, q, hits)})
		}
		if len(matched) == 0 {
			continue
		}
		sort.SliceStable(matched, func(a, b int) bool { return matched[a].Score > matched[b].Score })
		out = append(out, QuestionMatch{
			Question:      *q,
			MatchedEvents: matched,
			Summary:       summarize(matched),
			TotalScore:    topMean(matched),
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Question.Priority != out[b].Question.Priority {
			return out[a].Question.Priority < out[b].Question.Priority
		}
		return out[a].TotalScore > out[b].TotalScore
	})
	return out
}

// ProcessEvents runs Process and renders the result as a QuestionMap.
func (e *Engine) ProcessEvents(events []event.Event, patient event.PatientInfo) QuestionMap {
	return BuildQuestionMap(e.Process(events, patient))
}

func topMean(matched []MatchedEvent) float64 {
	n := min(len(matched), topN)
	if n == 0 {
		return 0
	}
	var sum float64
	for _, m := range matched[:n] {
		sum += m.Score
	}
	return sum / float64(n)
}

// summarize describes the strongest evidence in one line.
func summarize(matched []MatchedEvent) string {
	top := matched[0].Event
	diag := top.Diagnosis.Name
	if diag == "" {
		diag = top.Diagnosis.Code
	}
	if diag == "" {
		diag = string(top.EventType)
	}
	if len(matched) == 1 {
		return fmt.Sprintf("1 matching event: %s %s at %s", top.Date, diag, top.Hospital)
	}
	return fmt.Sprintf("%d matching events, strongest: %s %s at %s", len(matched), top.Date, diag, top.Hospital)
}
