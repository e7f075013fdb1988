package disclosure

import (
	"strings"

	"github.com/gyaneshwarpardhi/disclosure/internal/config"
	"github.com/gyaneshwarpardhi/disclosure/internal/event"
)

// Rule kinds and their fixed hit confidences.
const (
	RuleEventType        = "eventType"
	RuleKeyword          = "keyword"
	RuleICDPrefix        = "icdPrefix"
	RuleProcedureKeyword = "procedureKeyword"
)

var ruleConfidence = map[string]float64{
	RuleEventType:        0.8,
	RuleKeyword:          0.7,
	RuleICDPrefix:        0.9,
	RuleProcedureKeyword: 0.85,
}

// RuleHit records one trigger an event satisfied.
type RuleHit struct {
	Rule       string  `json:"rule"`
	Term       string  `json:"term"`
	Confidence float64 `json:"confidence"`
}

// searchableText is everything keywords and exclusions are matched against,
// lower-cased. ShortFact and Hospital are display fields and stay out.
func searchableText(ev *event.Event) string {
	parts := []string{
		ev.Diagnosis.Name, ev.Diagnosis.Code, ev.Diagnosis.Raw,
		ev.Department, ev.DoctorOpinion, ev.RawText,
	}
	parts = append(parts, ev.ProcedureNames()...)
	parts = append(parts, ev.TreatmentNames()...)
	return strings.ToLower(strings.Join(parts, " "))
}

// EvaluateRules returns the hits ev scores against t. Any exclude keyword in
// the event text discards every hit.
func EvaluateRules(ev *event.Event, t config.Triggers) []RuleHit {
	text := searchableText(ev)
	for _, kw := range t.ExcludeKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); event.ContainsKeyword(text, kw) {
			return nil
		}
	}

	var hits []RuleHit
	for _, et := range t.EventTypes {
		if event.Type(et) == ev.EventType {
			hits = append(hits, hit(RuleEventType, et))
			break
		}
	}
	for _, kw := range t.Keywords {
		if k := strings.ToLower(strings.TrimSpace(kw)); event.ContainsKeyword(text, k) {
			hits = append(hits, hit(RuleKeyword, kw))
		}
	}
	if code := ev.Diagnosis.Code; code != "" {
		for _, p := range t.DiagnosisCodesPrefix {
			if p = strings.ToUpper(strings.TrimSpace(p)); p != "" && strings.HasPrefix(code, p) {
				hits = append(hits, hit(RuleICDPrefix, p))
				break
			}
		}
	}
	if len(t.ProcedureKeywords) > 0 {
		procText := strings.ToLower(strings.Join(append(ev.ProcedureNames(), ev.TreatmentNames()...), " "))
		for _, kw := range t.ProcedureKeywords {
			if k := strings.ToLower(strings.TrimSpace(kw)); event.ContainsKeyword(procText, k) {
				hits = append(hits, hit(RuleProcedureKeyword, kw))
			}
		}
	}
	return hits
}

func hit(rule, term string) RuleHit {
	return RuleHit{Rule: rule, Term: term, Confidence: ruleConfidence[rule]}
}

// periodMatches reports whether ev falls in the question's look-back window.
func periodMatches(p config.Period, f event.Flags) bool {
	switch p {
	case config.Period3M:
		return f.PreEnroll3M
	case config.Period5Y:
		return f.PreEnroll5Y
	case config.PeriodAll:
		return f.DisclosureRelevant
	}
	return false
}

// passesPeriod is the period filter. ALL always passes; without an
// enrollment date nothing is filtered.
func passesPeriod(p config.Period, ev *event.Event, haveEnrollment bool) bool {
	if p == config.PeriodAll || !haveEnrollment {
		return true
	}
	return periodMatches(p, ev.Flags)
}

// EventScore weighs a matched event for q. The result is in [0, 1].
func EventScore(ev *event.Event, q *config.Question, hits []RuleHit) float64 {
	if len(hits) == 0 {
		return 0
	}
	s := q.Scoring
	score := s.BaseWeight
	if periodMatches(q.Period, ev.Flags) {
		score += s.PeriodBoost
	}
	score += s.EventTypeBoost[string(ev.EventType)]
	if ev.Diagnosis.Code != "" {
		score += s.CodeBoost
	}
	var sum float64
	for _, h := range hits {
		sum += h.Confidence
	}
	score *= sum / float64(len(hits))
	switch {
	case score > 1:
		return 1
	case score < 0:
		return 0
	}
	return score
}
