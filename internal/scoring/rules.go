package scoring

import (
	"strings"

	"github.com/gyaneshwarpardhi/disclosure/internal/event"
)

var oncologyKeywords = []string{
	"cancer", "malignant", "malignancy", "tumor", "tumour", "carcinoma", "neoplasm", "lymphoma", "leukemia", "sarcoma",
	"암", "악성", "종양", "육종", "림프종", "백혈병",
}

var majorImagingKeywords = []string{
	"biopsy", "mri", "ct scan", "pet-ct", "pet scan", "angiography", "조직검사", "생검", "자기공명", "혈관조영",
}

var emergencyKeywords = []string{
	"emergency", "응급", "구급", "er",
}

// severityRule is one (predicate, score) pair.
type severityRule struct {
	name  string
	score int
	match func(ev *event.Event, text string) bool
}

// severityRules run top to bottom; the first match wins. Oncology diagnoses
// are checked first because they force the maximum regardless of type.
var severityRules = []severityRule{
	{"oncology_diagnosis", 40, func(ev *event.Event, _ string) bool {
		return containsAny(strings.ToLower(ev.Diagnosis.Name), oncologyKeywords)
	}},
	{"surgery_or_admission", 40, func(ev *event.Event, _ string) bool {
		return ev.EventType == event.TypeSurgery || ev.EventType == event.TypeAdmission
	}},
	{"major_imaging_or_biopsy", 30, func(ev *event.Event, _ string) bool {
		return containsAny(strings.ToLower(strings.Join(ev.ProcedureNames(), " ")), majorImagingKeywords)
	}},
	{"emergency", 25, func(_ *event.Event, text string) bool {
		return containsAny(text, emergencyKeywords)
	}},
	{"routine_test", 15, func(ev *event.Event, _ string) bool {
		return ev.EventType == event.TypeTest
	}},
	{"outpatient", 10, func(*event.Event, string) bool { return true }},
}

// Severity returns the severity score (0-40) and the rule that produced it.
func Severity(ev *event.Event) (int, string) {
	text := strings.ToLower(strings.Join([]string{
		ev.Department, ev.RawText, ev.Diagnosis.Name, ev.DoctorOpinion, strings.Join(ev.ProcedureNames(), " "),
	}, " "))
	for _, r := range severityRules {
		if r.match(ev, text) {
			return r.score, r.name
		}
	}
	return 0, ""
}

// periodBands are day thresholds before enrollment, checked in order.
var periodBands = []struct {
	maxDays int
	score   int
}{
	{90, 30},
	{730, 20},
	{1825, 10},
}

const periodFloor = 5

// Period scores how close before enrollment the event happened (0-30).
// Unparseable dates and post-enrollment events score 0.
func Period(ev *event.Event, patient event.PatientInfo) int {
	d, ok := event.ParseDate(ev.Date)
	if !ok {
		return 0
	}
	enr, ok := event.ParseDate(patient.EnrollmentDate)
	if !ok {
		return 0
	}
	days := event.DaysBetween(d, enr)
	if days < 0 {
		return 0
	}
	for _, b := range periodBands {
		if days <= b.maxDays {
			return b.score
		}
	}
	return periodFloor
}

// topicGroups relate claim wording to event diagnoses by subject.
var topicGroups = [][]string{
	oncologyKeywords,
	{"heart", "cardiac", "angina", "infarction", "arrhythmia", "심장", "협심증", "심근경색", "부정맥"},
	{"stroke", "cerebral", "brain", "뇌졸중", "뇌경색", "뇌출혈"},
	{"diabetes", "diabetic", "당뇨"},
	{"liver", "hepatitis", "cirrhosis", "간염", "간경화", "간암"},
	{"kidney", "renal", "신장", "신부전"},
	{"fracture", "골절"},
}

// Relevance compares the event diagnosis with the claim diagnosis (0-20).
func Relevance(ev *event.Event, claim event.ClaimInfo) int {
	claimName := strings.ToLower(strings.TrimSpace(claim.ClaimDiagnosis))
	claimCode := event.NormalizeCode(claim.ClaimCode)
	if claimCode == "" {
		claimCode = event.ExtractCode(claim.ClaimDiagnosis)
	}
	evName := strings.ToLower(strings.TrimSpace(ev.Diagnosis.Name))
	evCode := ev.Diagnosis.Code

	if claimName == "" && claimCode == "" {
		return 0
	}
	if claimName != "" && evName == claimName {
		return 20
	}
	if claimCode != "" && evCode != "" && event.CodeCategory(claimCode) == event.CodeCategory(evCode) {
		return 20
	}
	if claimName != "" && evName != "" {
		for _, group := range topicGroups {
			if containsAny(claimName, group) && containsAny(evName, group) {
				return 15
			}
		}
	}
	if claimCode != "" && evCode != "" && event.CodeSystem(claimCode) == event.CodeSystem(evCode) {
		return 10
	}
	return 0
}

// Frequency scores repeat visits (5-10). A single occurrence still gets the
// floor.
func Frequency(ev *event.Event) int {
	switch {
	case ev.VisitCount >= 5:
		return 10
	case ev.VisitCount >= 3:
		return 7
	}
	return 5
}

func containsAny(s string, keywords []string) bool {
	return event.ContainsAnyKeyword(s, keywords)
}
