package event

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(\d{4})[-./](\d{1,2})[-./](\d{1,2})\.?$`),
	regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`),
	regexp.MustCompile(`^(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일?$`),
}

// NormalizeDate converts ISO, slash, dot, compact YYYYMMDD and Korean
// "YYYY년 M월 D일" dates to YYYY-MM-DD. Out-of-range months or days are
// rejected: the trimmed input is returned with ok=false.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, re := range datePatterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if !validCalendarDate(y, mo, d) {
			return s, false
		}
		return fmt.Sprintf("%04d-%02d-%02d", y, mo, d), true
	}
	return s, false
}

func validCalendarDate(y, m, d int) bool {
	if m < 1 || m > 12 || d < 1 {
		return false
	}
	last := time.Date(y, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return d <= last
}

// ParseDate parses any format accepted by NormalizeDate.
func ParseDate(s string) (time.Time, bool) {
	norm, ok := NormalizeDate(s)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(isoLayout, norm)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DaysBetween returns the whole days from a to b (positive when b is later).
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// Window holds the enrollment-relative disclosure boundaries. The 3-month and
// 5-year bounds use calendar subtraction, not fixed day counts.
type Window struct {
	Enrollment     time.Time
	ThreeMonthsAgo time.Time
	FiveYearsAgo   time.Time
}

// NewWindow builds a Window from an enrollment date string. ok is false when
// the date is absent or unparseable.
func NewWindow(enrollmentDate string) (Window, bool) {
	if strings.TrimSpace(enrollmentDate) == "" {
		return Window{}, false
	}
	enr, ok := ParseDate(enrollmentDate)
	if !ok {
		return Window{}, false
	}
	return Window{
		Enrollment:     enr,
		ThreeMonthsAgo: enr.AddDate(0, -3, 0),
		FiveYearsAgo:   enr.AddDate(-5, 0, 0),
	}, true
}

// Flags classifies an event date against the window. Dates that cannot be
// parsed, and dates older than five years, get no flags.
func (w Window) Flags(date string) Flags {
	d, ok := ParseDate(date)
	if !ok {
		return Flags{}
	}
	var f Flags
	switch {
	case !d.Before(w.ThreeMonthsAgo) && !d.After(w.Enrollment):
		f.PreEnroll3M = true
		f.PreEnroll5Y = true
		f.DisclosureRelevant = true
	case !d.Before(w.FiveYearsAgo) && !d.After(w.Enrollment):
		f.PreEnroll5Y = true
		f.DisclosureRelevant = true
	case d.After(w.Enrollment):
		f.PostEnroll = true
		f.ClaimRelated = true
	}
	return f
}
