// Package audit checks how many dates mentioned in a document ended up
// represented by an event.
package audit

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/gyaneshwarpardhi/disclosure/internal/event"
)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`),
	regexp.MustCompile(`(\d{4})\.(\d{1,2})\.(\d{1,2})`),
	regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`),
	regexp.MustCompile(`(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일`),
}

// Coverage compares the dates in the source text with the event dates.
type Coverage struct {
	SourceDates     int      `json:"sourceDates"`
	EventDates      int      `json:"eventDates"`
	Matched         int      `json:"matched"`
	Missing         []string `json:"missing"`
	CoveragePercent float64  `json:"coveragePercent"`
}

// ExtractDates returns the distinct valid calendar dates in text, ISO
// formatted and sorted.
func ExtractDates(text string) []string {
	seen := make(map[string]struct{})
	for _, re := range datePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			iso, ok := event.NormalizeDate(fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]))
			if !ok {
				continue
			}
			seen[iso] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// DateCoverage reports which source dates are covered by an event's date or
// end date. A document without dates is fully covered.
func DateCoverage(rawText string, events []event.Event) Coverage {
	source := ExtractDates(rawText)
	have := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev.Date != "" {
			have[ev.Date] = struct{}{}
		}
		if ev.EndDate != "" {
			have[ev.EndDate] = struct{}{}
		}
	}

	c := Coverage{SourceDates: len(source), EventDates: len(have), Missing: []string{}}
	for _, d := range source {
		if _, ok := have[d]; ok {
			c.Matched++
		} else {
			c.Missing = append(c.Missing, d)
		}
	}
	if c.SourceDates == 0 {
		c.CoveragePercent = 100
		return c
	}
	c.CoveragePercent = math.Round(float64(c.Matched)/float64(c.SourceDates)*1000) / 10
	return c
}
