package event

import "strings"

// DateBlock is a raw fragment produced by the upstream extraction front-end.
// Every field except Date is optional.
type DateBlock struct {
	Date          string   `json:"date"`
	Time          string   `json:"time,omitempty"`
	EndDate       string   `json:"endDate,omitempty"`
	Hospital      string   `json:"hospital,omitempty"`
	Department    string   `json:"department,omitempty"`
	Diagnosis     string   `json:"diagnosis,omitempty"`
	DiagnosisCode string   `json:"diagnosisCode,omitempty"`
	RawDiagnosis  string   `json:"rawDiagnosis,omitempty"`
	Procedures    []Item   `json:"procedures,omitempty"`
	Treatments    []Item   `json:"treatments,omitempty"`
	DoctorOpinion string   `json:"doctorOpinion,omitempty"`
	RawText       string   `json:"rawText,omitempty"`
	VisitCount    int      `json:"visitCount,omitempty"`
	Bounds        *Bounds  `json:"bounds,omitempty"`
	Confidence    *float64 `json:"confidence,omitempty"`
}

// Trimmed returns a copy with whitespace stripped from every string field and
// empty procedure/treatment entries dropped.
func (b DateBlock) Trimmed() DateBlock {
	b.Date = strings.TrimSpace(b.Date)
	b.Time = strings.TrimSpace(b.Time)
	b.EndDate = strings.TrimSpace(b.EndDate)
	b.Hospital = strings.TrimSpace(b.Hospital)
	b.Department = strings.TrimSpace(b.Department)
	b.Diagnosis = strings.TrimSpace(b.Diagnosis)
	b.DiagnosisCode = strings.TrimSpace(b.DiagnosisCode)
	b.RawDiagnosis = strings.TrimSpace(b.RawDiagnosis)
	b.DoctorOpinion = strings.TrimSpace(b.DoctorOpinion)
	b.Procedures = trimItems(b.Procedures)
	b.Treatments = trimItems(b.Treatments)
	return b
}

func trimItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Entity is a separately extracted named entity, typically a diagnosis with
// its code.
type Entity struct {
	Kind string `json:"kind,omitempty"` // "diagnosis" when set
	Name string `json:"name"`
	Code string `json:"code"`
}

// PatientInfo carries contract metadata.
type PatientInfo struct {
	EnrollmentDate string `json:"enrollmentDate,omitempty"`
}

// ClaimInfo describes the diagnosis the insurance claim was filed for.
type ClaimInfo struct {
	ClaimDiagnosis string `json:"claimDiagnosis,omitempty"`
	ClaimCode      string `json:"claimCode,omitempty"`
}
