package sourcespan

import (
	"strings"
	"testing"

	"github.com/gyaneshwarpardhi/disclosure/internal/event"
)

func sampleEvent() *event.Event {
	return &event.Event{
		Date:      "2024-01-01",
		Hospital:  "City Hospital",
		Diagnosis: event.Diagnosis{Name: "abdominal pain", Code: "R10"},
	}
}

func TestLocate_PrefersOccurrenceWithCoAnchors(t *testing.T) {
	filler := strings.Repeat("lorem ipsum dolor sit amet ", 60) // > 1000 bytes
	text := "Visit 2024-01-01 at City Hospital, diagnosis R10 abdominal pain.\n" +
		filler +
		"\nprinted 2024-01-01 page 3 of 9"
	footer := strings.LastIndex(text, "2024-01-01")

	span := Locate(text, Collect(sampleEvent()))

	if span.Confidence <= FallbackConfidence {
		t.Fatalf("confidence = %.2f, want > %.2f", span.Confidence, FallbackConfidence)
	}
	if span.Start > 0 || span.End >= footer {
		t.Errorf("span [%d,%d) should cover the first occurrence, not the footer at %d", span.Start, span.End, footer)
	}
	if !strings.Contains(span.TextPreview, "City Hospital") {
		t.Errorf("preview %q should include the co-occurring hospital", span.TextPreview)
	}
	if span.AnchorTerms[0] != "2024-01-01" {
		t.Errorf("first anchor term should be the date, got %v", span.AnchorTerms)
	}
}

func TestLocate_KoreanDateForm(t *testing.T) {
	ev := &event.Event{Date: "2023-03-07", Hospital: "서울대학교병원"}
	text := "진료일: 2023년 3월 7일 서울대학교병원 외래"
	span := Locate(text, Collect(ev))
	if span.Confidence < DateBaseConfidence {
		t.Fatalf("expected date anchor match, got confidence %.2f", span.Confidence)
	}
	if !strings.Contains(span.TextPreview, "서울대학교병원") {
		t.Errorf("preview %q missing hospital", span.TextPreview)
	}
}

func TestLocate_FallbackWithoutDate(t *testing.T) {
	text := "referral letter from City Hospital regarding R10 symptoms"
	span := Locate(text, Collect(sampleEvent()))
	if span.Confidence != FallbackConfidence {
		t.Errorf("confidence = %.2f, want %.2f", span.Confidence, FallbackConfidence)
	}
	if span.TextPreview == "" {
		t.Error("fallback span should carry a preview")
	}
}

func TestLocate_DateInsideLongerDateIgnored(t *testing.T) {
	cases := []string{
		"진료일 2024.1.15 City Hospital 진단 R10",
		"seen 2024-1-12 at City Hospital for R10",
		"ref 120240101 City Hospital R10",
	}
	for _, text := range cases {
		t.Run(text, func(t *testing.T) {
			span := Locate(text, Collect(sampleEvent()))
			if span.Confidence != FallbackConfidence {
				t.Errorf("confidence = %.2f, want fallback %.2f", span.Confidence, FallbackConfidence)
			}
			if span.AnchorTerms[0] != "City Hospital" {
				t.Errorf("anchor terms = %v, want the hospital first", span.AnchorTerms)
			}
		})
	}
}

func TestLocate_DateAtTextEdges(t *testing.T) {
	span := Locate("2024.1.1 City Hospital R10 2024.1.1", Collect(sampleEvent()))
	if span.Confidence <= FallbackConfidence || span.AnchorTerms[0] != "2024.1.1" {
		t.Errorf("span = %+v, want a date anchor", span)
	}
}

func TestLocate_NoMatch(t *testing.T) {
	span := Locate("completely unrelated text", Collect(sampleEvent()))
	if span.Confidence != 0 || span.TextPreview != "" {
		t.Errorf("expected empty span, got %+v", span)
	}
	if span := Locate("", Collect(sampleEvent())); span.Confidence != 0 || span.TextPreview != "" {
		t.Errorf("empty document should give empty span, got %+v", span)
	}
}

func TestLocate_ConfidenceCapped(t *testing.T) {
	ev := sampleEvent()
	ev.Procedures = []event.Item{{Name: "CT"}, {Name: "ultrasound"}, {Name: "blood test"}}
	ev.Treatments = []event.Item{{Name: "analgesic"}}
	text := "2024-01-01 City Hospital R10 abdominal pain CT ultrasound blood test analgesic"
	span := Locate(text, Collect(ev))
	if span.Confidence != MaxConfidence {
		t.Errorf("confidence = %.2f, want cap %.2f", span.Confidence, MaxConfidence)
	}
}

func TestLocate_MultibyteWindowBoundaries(t *testing.T) {
	pad := strings.Repeat("가", 400) // 1200 bytes
	text := pad + "2024-01-01 City Hospital" + pad
	span := Locate(text, Collect(sampleEvent()))
	if span.Confidence == 0 {
		t.Fatal("expected a match")
	}
	if !strings.HasPrefix(text[span.Start:], "가") && span.Start != 0 {
		t.Errorf("window start %d splits a rune", span.Start)
	}
}

func TestCollect(t *testing.T) {
	ev := sampleEvent()
	ev.Diagnosis.Code = "R10.2"
	ev.RawText = "Patient presented with lower abdominal pain since morning"
	a := Collect(ev)

	want := []string{"City Hospital", "City", "abdominal pain", "R10.2", "R102", "Patient presented wi"}
	if len(a.Terms) != len(want) {
		t.Fatalf("terms = %q, want %q", a.Terms, want)
	}
	for i := range want {
		if a.Terms[i] != want[i] {
			t.Errorf("term[%d] = %q, want %q", i, a.Terms[i], want[i])
		}
	}
	if a.Dates[0] != "2024-01-01" {
		t.Errorf("first date variant = %q", a.Dates[0])
	}
}

func TestCollect_UnknownHospitalSkipped(t *testing.T) {
	a := Collect(&event.Event{Date: "2024-01-01", Hospital: event.UnknownHospital})
	if len(a.Terms) != 0 {
		t.Errorf("sentinel hospital should not become an anchor: %q", a.Terms)
	}
}
