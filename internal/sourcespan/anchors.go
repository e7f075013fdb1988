// Package sourcespan locates the region of a source document that an event
// was extracted from.
//
// A date usually repeats many times in a medical record (page headers,
// footers, billing tables). The locator collects anchor terms for an event,
// visits every occurrence of the event's date and keeps the occurrence whose
// surrounding window contains the most other anchors.
package sourcespan

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gyaneshwarpardhi/disclosure/internal/event"
)

const (
	minTermRunes  = 2
	snippetRunes  = 20
	minSnippetLen = 4
)

// hospitalSuffixes are stripped to produce the abbreviated facility anchor.
// Longer suffixes come first so "대학교병원" wins over "병원".
var hospitalSuffixes = []string{
	"대학교병원", "대학병원", "한방병원", "요양병원", "의료원", "한의원", "병원", "의원", "센터", "클리닉",
	" medical center", " hospital", " clinic", " center",
}

// Anchors is the ordered anchor set for one event. Dates holds every textual
// form the event date may take in the document; Terms holds everything else.
type Anchors struct {
	Dates []string
	Terms []string
}

// Collect builds the anchor set for ev.
func Collect(ev *event.Event) Anchors {
	var a Anchors
	seen := make(map[string]struct{})
	add := func(dst *[]string, term string) {
		term = strings.TrimSpace(term)
		if utf8.RuneCountInString(term) < minTermRunes {
			return
		}
		key := asciiLower(term)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		*dst = append(*dst, term)
	}

	for _, d := range DateVariants(ev.Date) {
		add(&a.Dates, d)
	}

	if ev.Hospital != "" && ev.Hospital != event.UnknownHospital {
		add(&a.Terms, ev.Hospital)
		add(&a.Terms, abbreviateHospital(ev.Hospital))
	}

	add(&a.Terms, ev.Diagnosis.Name)
	if code := ev.Diagnosis.Code; code != "" {
		add(&a.Terms, code)
		add(&a.Terms, strings.ReplaceAll(code, ".", ""))
	}

	for _, n := range ev.ProcedureNames() {
		add(&a.Terms, n)
	}
	for _, n := range ev.TreatmentNames() {
		add(&a.Terms, n)
	}

	if s := snippet(ev.RawText); utf8.RuneCountInString(s) >= minSnippetLen {
		add(&a.Terms, s)
	}
	return a
}

// DateVariants returns the textual forms a date can take in OCR output. An
// unparseable date yields only itself.
func DateVariants(date string) []string {
	t, ok := event.ParseDate(date)
	if !ok {
		if strings.TrimSpace(date) == "" {
			return nil
		}
		return []string{date}
	}
	y, m, d := t.Year(), int(t.Month()), t.Day()
	return []string{
		fmt.Sprintf("%04d-%02d-%02d", y, m, d),
		fmt.Sprintf("%04d.%02d.%02d", y, m, d),
		fmt.Sprintf("%04d/%02d/%02d", y, m, d),
		fmt.Sprintf("%04d%02d%02d", y, m, d),
		fmt.Sprintf("%04d.%d.%d", y, m, d),
		fmt.Sprintf("%04d-%d-%d", y, m, d),
		fmt.Sprintf("%04d년 %d월 %d일", y, m, d),
		fmt.Sprintf("%04d년 %02d월 %02d일", y, m, d),
		fmt.Sprintf("%04d년%d월%d일", y, m, d),
	}
}

func abbreviateHospital(name string) string {
	lower := asciiLower(name)
	for _, suf := range hospitalSuffixes {
		if strings.HasSuffix(lower, suf) {
			short := strings.TrimSpace(name[:len(name)-len(suf)])
			if utf8.RuneCountInString(short) >= minTermRunes {
				return short
			}
			return ""
		}
	}
	return ""
}

func snippet(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	if utf8.RuneCountInString(s) <= snippetRunes {
		return s
	}
	return string([]rune(s)[:snippetRunes])
}

// asciiLower folds ASCII letters only, so byte offsets in the folded string
// stay valid for the original.
func asciiLower(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}
