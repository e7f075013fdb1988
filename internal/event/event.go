package event

import (
	"encoding/json"
	"time"
)

// UnknownHospital is substituted when a date block carries no facility name.
const UnknownHospital = "unknown facility"

// Type is the inferred clinical category of an event.
type Type string

const (
	TypeSurgery      Type = "surgery"
	TypeAdmission    Type = "admission"
	TypeTest         Type = "test"
	TypePrescription Type = "prescription"
	TypeVisit        Type = "visit"
)

// Rank orders types by how consequential they are (higher wins).
func (t Type) Rank() int {
	switch t {
	case TypeSurgery:
		return 4
	case TypeAdmission:
		return 3
	case TypeTest:
		return 2
	case TypePrescription:
		return 1
	}
	return 0
}

// Valid reports whether t is one of the known event types.
func (t Type) Valid() bool {
	switch t {
	case TypeSurgery, TypeAdmission, TypeTest, TypePrescription, TypeVisit:
		return true
	}
	return false
}

// Diagnosis holds the normalized code and the untouched source string.
type Diagnosis struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Raw  string `json:"raw"`
}

// Item is a procedure or treatment entry. Upstream extractors send either a
// bare string or an object; both decode into Item.
type Item struct {
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		it.Name = s
		return nil
	}
	type plain Item
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*it = Item(p)
	return nil
}

// Flags are derived from the event date relative to the enrollment date.
type Flags struct {
	PreEnroll3M        bool `json:"preEnroll3M"`
	PreEnroll5Y        bool `json:"preEnroll5Y"`
	PostEnroll         bool `json:"postEnroll"`
	DisclosureRelevant bool `json:"disclosureRelevant"`
	ClaimRelated       bool `json:"claimRelated"`
}

// Bounds is an optional page region reported by the OCR front-end.
type Bounds struct {
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SourceSpan ties an event back to a byte range of the source document.
// Confidence 0 means no anchor was found and TextPreview is empty.
type SourceSpan struct {
	Start       int      `json:"start"`
	End         int      `json:"end"`
	TextPreview string   `json:"textPreview"`
	Bounds      *Bounds  `json:"bounds,omitempty"`
	Confidence  float64  `json:"confidence"`
	AnchorTerms []string `json:"anchorTerms"`
}

// Anchored reports whether the span carries evidence text.
func (s SourceSpan) Anchored() bool {
	return s.Confidence > 0 && s.TextPreview != ""
}

// Event is the canonical clinical event.
type Event struct {
	ID            string     `json:"id"`
	Date          string     `json:"date"`
	Time          string     `json:"time,omitempty"`
	EndDate       string     `json:"endDate,omitempty"`
	Hospital      string     `json:"hospital"`
	Department    string     `json:"department,omitempty"`
	Diagnosis     Diagnosis  `json:"diagnosis"`
	EventType     Type       `json:"eventType"`
	Procedures    []Item     `json:"procedures"`
	Treatments    []Item     `json:"treatments"`
	DoctorOpinion string     `json:"doctorOpinion,omitempty"`
	ShortFact     string     `json:"shortFact"`
	RawText       string     `json:"rawText,omitempty"`
	VisitCount    int        `json:"visitCount,omitempty"`
	Flags         Flags      `json:"flags"`
	SourceSpan    SourceSpan `json:"sourceSpan"`
	RelatedCodes  []string   `json:"relatedCodes"`
	Confidence    float64    `json:"confidence"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// GroupKey is the duplicate-grouping key (date, hospital).
func (e *Event) GroupKey() string {
	return e.Date + "\x00" + e.Hospital
}

// ProcedureNames returns procedure names in order.
func (e *Event) ProcedureNames() []string {
	return names(e.Procedures)
}

// TreatmentNames returns treatment names in order.
func (e *Event) TreatmentNames() []string {
	return names(e.Treatments)
}

func names(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it.Name != "" {
			out = append(out, it.Name)
		}
	}
	return out
}
