package sourcespan

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/gyaneshwarpardhi/disclosure/internal/event"
)

// Locator tuning. Reviewed reports depend on these exact values.
const (
	WindowRadius       = 500
	DateBaseConfidence = 0.5
	PerAnchorStep      = 0.1
	MaxConfidence      = 0.95
	FallbackConfidence = 0.6

	previewLead = 40
	previewTail = 200
)

type candidate struct {
	pos, length int
	start, end  int
	hits        []string
	anchor      string
}

// Locate finds the best-supported occurrence of the event within text.
//
// Every occurrence of a date anchor opens a ±WindowRadius window; the window
// with the most co-occurring terms wins (earliest on ties). Confidence is
// DateBaseConfidence plus PerAnchorStep per co-occurring term, capped at
// MaxConfidence. Without a date match the first term found anchors the span at
// FallbackConfidence. When nothing matches the span is empty with confidence 0.
func Locate(text string, a Anchors) event.SourceSpan {
	if text == "" {
		return emptySpan()
	}
	folded := asciiLower(text)

	best, found := bestDateOccurrence(folded, a)
	if found {
		conf := math.Min(MaxConfidence, DateBaseConfidence+PerAnchorStep*float64(len(best.hits)))
		return spanFrom(text, best, conf, append([]string{best.anchor}, best.hits...))
	}

	for _, term := range a.Terms {
		pos := strings.Index(folded, asciiLower(term))
		if pos < 0 {
			continue
		}
		start, end := clampWindow(text, pos-WindowRadius, pos+len(term)+WindowRadius)
		c := candidate{pos: pos, length: len(term), start: start, end: end, anchor: term}
		return spanFrom(text, c, FallbackConfidence, matchTerms(folded[start:end], a.Terms))
	}
	return emptySpan()
}

func bestDateOccurrence(folded string, a Anchors) (candidate, bool) {
	var best candidate
	found := false
	for _, d := range a.Dates {
		needle := asciiLower(d)
		for off := 0; off < len(folded); {
			i := strings.Index(folded[off:], needle)
			if i < 0 {
				break
			}
			pos := off + i
			off = pos + len(needle)
			if !digitBounded(folded, pos, len(needle)) {
				continue
			}
			start, end := clampWindow(folded, pos-WindowRadius, pos+len(needle)+WindowRadius)
			hits := matchTerms(folded[start:end], a.Terms)
			if !found || len(hits) > len(best.hits) {
				best = candidate{pos: pos, length: len(needle), start: start, end: end, hits: hits, anchor: d}
				found = true
			}
		}
	}
	return best, found
}

// digitBounded reports whether text[pos:pos+n] is not part of a longer
// number, so 2024.1.1 is not found inside 2024.1.15.
func digitBounded(text string, pos, n int) bool {
	if pos > 0 && isDigit(text[pos-1]) {
		return false
	}
	end := pos + n
	return end >= len(text) || !isDigit(text[end])
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func matchTerms(window string, terms []string) []string {
	hits := make([]string, 0, len(terms))
	for _, t := range terms {
		if strings.Contains(window, asciiLower(t)) {
			hits = append(hits, t)
		}
	}
	return hits
}

func spanFrom(text string, c candidate, conf float64, terms []string) event.SourceSpan {
	pStart, pEnd := clampWindow(text, c.pos-previewLead, c.pos+c.length+previewTail)
	if pStart < c.start {
		pStart = c.start
	}
	if pEnd > c.end {
		pEnd = c.end
	}
	preview := strings.Join(strings.Fields(text[pStart:pEnd]), " ")
	if preview == "" {
		return emptySpan()
	}
	return event.SourceSpan{
		Start:       c.start,
		End:         c.end,
		TextPreview: preview,
		Confidence:  conf,
		AnchorTerms: terms,
	}
}

func emptySpan() event.SourceSpan {
	return event.SourceSpan{AnchorTerms: []string{}}
}

// clampWindow bounds [start,end) to the text and widens it to rune
// boundaries so slicing never splits a multi-byte character.
func clampWindow(text string, start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return start, end
}
