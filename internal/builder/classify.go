package builder

import (
	"strings"

	"github.com/gyaneshwarpardhi/disclosure/internal/event"
)

// typeRule maps a keyword set to an event type.
type typeRule struct {
	eventType event.Type
	keywords  []string
}

// typeRules is evaluated top to bottom and the first hit wins, so a record
// mentioning both an admission and a test is an admission.
var typeRules = []typeRule{
	{event.TypeSurgery, []string{
		"수술", "절제술", "시술", "봉합술", "surgery", "surgical", "operation", "resection", "ectomy", "laparoscop",
	}},
	{event.TypeAdmission, []string{
		"입원", "퇴원", "admission", "admitted", "hospitalized", "hospitalization", "inpatient",
	}},
	{event.TypeTest, []string{
		"검사", "촬영", "내시경", "초음파", "mri", "ct scan", "ct촬영", "x-ray", "xray", "ultrasound", "sonography",
		"endoscopy", "colonoscopy", "biopsy", "imaging", "laboratory", "blood test", "test", "ecg", "ekg",
	}},
	{event.TypePrescription, []string{
		"처방", "투약", "복용", "약제", "prescription", "prescribed", "medication",
	}},
}

// ClassifyType infers an event type from free text. Records that match no
// rule are visits.
func ClassifyType(text string) event.Type {
	lower := strings.ToLower(text)
	for _, r := range typeRules {
		if event.ContainsAnyKeyword(lower, r.keywords) {
			return r.eventType
		}
	}
	return event.TypeVisit
}

func classificationText(b event.DateBlock) string {
	parts := []string{b.RawText, b.Diagnosis, b.RawDiagnosis, b.DoctorOpinion}
	for _, p := range b.Procedures {
		parts = append(parts, p.Name)
	}
	for _, t := range b.Treatments {
		parts = append(parts, t.Name)
	}
	return strings.Join(parts, " ")
}

// ShortFact is the one-line display summary "hospital - diagnosis - procedures".
func ShortFact(ev *event.Event) string {
	parts := make([]string, 0, 3)
	if ev.Hospital != "" {
		parts = append(parts, ev.Hospital)
	}
	if ev.Diagnosis.Name != "" {
		parts = append(parts, ev.Diagnosis.Name)
	}
	if procs := ev.ProcedureNames(); len(procs) > 0 {
		parts = append(parts, strings.Join(procs, ", "))
	}
	return strings.Join(parts, " - ")
}
