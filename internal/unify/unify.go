// Package unify collapses events that describe the same visit.
package unify

import (
	"log/slog"

	"github.com/gyaneshwarpardhi/disclosure/internal/builder"
	"github.com/gyaneshwarpardhi/disclosure/internal/event"
)

// UnifyDuplicateEvents groups events by exact (date, hospital) and merges each
// group into one event. Output order follows the first appearance of each
// group.
func UnifyDuplicateEvents(events []event.Event) []event.Event {
	order := make([]string, 0, len(events))
	groups := make(map[string]event.Event, len(events))
	for _, ev := range events {
		key := ev.GroupKey()
		cur, ok := groups[key]
		if !ok {
			order = append(order, key)
			groups[key] = clone(ev)
			continue
		}
		groups[key] = Merge(cur, ev)
	}

	out := make([]event.Event, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key])
	}
	return out
}

// Merge combines two events with the same date and hospital. Events with
// different keys are refused: a warning is logged and a is returned unchanged.
func Merge(a, b event.Event) event.Event {
	if a.Date != b.Date || a.Hospital != b.Hospital {
		slog.Warn("refusing to merge events with different date or hospital",
			"a_id", a.ID, "a_date", a.Date, "a_hospital", a.Hospital,
			"b_id", b.ID, "b_date", b.Date, "b_hospital", b.Hospital)
		return a
	}

	m := clone(a)
	m.Diagnosis.Name = longer(a.Diagnosis.Name, b.Diagnosis.Name)
	m.Diagnosis.Raw = longer(a.Diagnosis.Raw, b.Diagnosis.Raw)

	code, loser := MoreSpecificCode(a.Diagnosis.Code, b.Diagnosis.Code)
	m.Diagnosis.Code = code
	m.RelatedCodes = appendUnique(m.RelatedCodes, b.RelatedCodes...)
	if loser != "" {
		m.RelatedCodes = appendUnique(m.RelatedCodes, loser)
	}
	m.RelatedCodes = without(m.RelatedCodes, code)

	m.Procedures = unionByName(a.Procedures, b.Procedures)
	m.Treatments = unionByName(a.Treatments, b.Treatments)

	if b.Confidence > m.Confidence {
		m.Confidence = b.Confidence
	}
	if b.SourceSpan.Confidence > a.SourceSpan.Confidence {
		m.SourceSpan = b.SourceSpan
	}
	if b.EventType.Rank() > m.EventType.Rank() {
		m.EventType = b.EventType
	}
	if b.VisitCount > m.VisitCount {
		m.VisitCount = b.VisitCount
	}

	m.Time = firstNonEmpty(a.Time, b.Time)
	m.Department = firstNonEmpty(a.Department, b.Department)
	m.DoctorOpinion = firstNonEmpty(a.DoctorOpinion, b.DoctorOpinion)
	m.RawText = firstNonEmpty(a.RawText, b.RawText)
	if b.EndDate > m.EndDate {
		m.EndDate = b.EndDate
	}

	m.Flags = event.Flags{
		PreEnroll3M:        a.Flags.PreEnroll3M || b.Flags.PreEnroll3M,
		PreEnroll5Y:        a.Flags.PreEnroll5Y || b.Flags.PreEnroll5Y,
		PostEnroll:         a.Flags.PostEnroll || b.Flags.PostEnroll,
		DisclosureRelevant: a.Flags.DisclosureRelevant || b.Flags.DisclosureRelevant,
		ClaimRelated:       a.Flags.ClaimRelated || b.Flags.ClaimRelated,
	}
	m.ShortFact = builder.ShortFact(&m)
	return m
}

// MoreSpecificCode picks between two diagnosis codes. A code with a decimal
// sub-component beats one without; otherwise the longer code wins and a ties
// to the first. The losing non-empty code is returned for audit.
func MoreSpecificCode(a, b string) (winner, loser string) {
	switch {
	case a == b:
		return a, ""
	case a == "":
		return b, ""
	case b == "":
		return a, ""
	}
	aSub, bSub := event.HasSubcode(a), event.HasSubcode(b)
	switch {
	case bSub && !aSub:
		return b, a
	case aSub && !bSub:
		return a, b
	case len(b) > len(a):
		return b, a
	}
	return a, b
}

func clone(ev event.Event) event.Event {
	ev.Procedures = append([]event.Item{}, ev.Procedures...)
	ev.Treatments = append([]event.Item{}, ev.Treatments...)
	ev.RelatedCodes = append([]string{}, ev.RelatedCodes...)
	ev.SourceSpan.AnchorTerms = append([]string{}, ev.SourceSpan.AnchorTerms...)
	return ev
}

func unionByName(a, b []event.Item) []event.Item {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]event.Item, 0, len(a)+len(b))
	for _, list := range [][]event.Item{a, b} {
		for _, it := range list {
			if _, ok := seen[it.Name]; ok {
				continue
			}
			seen[it.Name] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}

func appendUnique(dst []string, vals ...string) []string {
	for _, v := range vals {
		dup := false
		for _, d := range dst {
			if d == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}

func without(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func longer(a, b string) string {
	if len([]rune(b)) > len([]rune(a)) {
		return b
	}
	return a
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
