// Package builder turns extracted date blocks into canonical events.
//
// A Builder owns the event-id sequence, so it must not be shared between
// goroutines; create one per document.
package builder

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/disclosure/internal/codebook"
	"github.com/gyaneshwarpardhi/disclosure/internal/event"
	"github.com/gyaneshwarpardhi/disclosure/internal/sourcespan"
)

// DefaultAnchorThreshold is the minimum share of events that must carry
// source evidence.
const DefaultAnchorThreshold = 0.95

var timePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})`)

// Report summarises one Build call.
type Report struct {
	Blocks         int     `json:"blocks"`
	Events         int     `json:"events"`
	Skipped        int     `json:"skipped"`
	Anchored       int     `json:"anchored"`
	AnchorRatio    float64 `json:"anchorRatio"`
	BelowThreshold bool    `json:"belowThreshold"`
}

// Option configures a Builder.
type Option func(*Builder)

// WithCodebook enables deprecated-code replacement and name back-fill.
func WithCodebook(idx *codebook.Index) Option {
	return func(b *Builder) { b.codes = idx }
}

// WithClock overrides the CreatedAt clock.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithAnchorThreshold overrides DefaultAnchorThreshold.
func WithAnchorThreshold(t float64) Option {
	return func(b *Builder) { b.threshold = t }
}

// Builder constructs events for a single document at a time.
type Builder struct {
	seq       int
	codes     *codebook.Index
	now       func() time.Time
	threshold float64
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{now: time.Now, threshold: DefaultAnchorThreshold}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build converts date blocks into events. Blocks without a date are skipped.
// Ids restart at 0001 on every call.
func (b *Builder) Build(blocks []event.DateBlock, entities []event.Entity, rawText string, patient event.PatientInfo) ([]event.Event, Report) {
	b.seq = 0
	rep := Report{Blocks: len(blocks)}

	events := make([]event.Event, 0, len(blocks))
	bounds := make([]*event.Bounds, 0, len(blocks))
	for _, raw := range blocks {
		blk := raw.Trimmed()
		if blk.Date == "" {
			rep.Skipped++
			continue
		}
		events = append(events, b.newEvent(blk))
		bounds = append(bounds, blk.Bounds)
	}

	backfillCodes(events, entities)

	window, hasEnrollment := event.NewWindow(patient.EnrollmentDate)
	if !hasEnrollment {
		slog.Debug("enrollment date absent, flags not assigned", "enrollment_date", patient.EnrollmentDate)
	}

	for i := range events {
		ev := &events[i]
		b.applyCodebook(ev)
		ev.ShortFact = ShortFact(ev)
		if hasEnrollment {
			ev.Flags = window.Flags(ev.Date)
		}
		attachSpan(ev, rawText, bounds[i])
	}

	rep.Events = len(events)
	for i := range events {
		if events[i].SourceSpan.Anchored() {
			rep.Anchored++
		}
	}
	rep.AnchorRatio = 1
	if rep.Events > 0 {
		rep.AnchorRatio = float64(rep.Anchored) / float64(rep.Events)
	}
	if rep.AnchorRatio < b.threshold {
		rep.BelowThreshold = true
		slog.Warn("source span attachment below threshold",
			"ratio", rep.AnchorRatio, "threshold", b.threshold, "events", rep.Events, "anchored", rep.Anchored)
	}
	return events, rep
}

func (b *Builder) newEvent(blk event.DateBlock) event.Event {
	b.seq++
	date, ok := event.NormalizeDate(blk.Date)

	ev := event.Event{
		ID:            fmt.Sprintf("evt_%s_%04d", idDate(date, ok), b.seq),
		Date:          date,
		Time:          normalizeTime(blk.Time),
		EndDate:       blk.EndDate,
		Hospital:      blk.Hospital,
		Department:    blk.Department,
		Diagnosis:     diagnosisOf(blk),
		EventType:     ClassifyType(classificationText(blk)),
		Procedures:    append([]event.Item{}, blk.Procedures...),
		Treatments:    append([]event.Item{}, blk.Treatments...),
		DoctorOpinion: blk.DoctorOpinion,
		RawText:       blk.RawText,
		VisitCount:    blk.VisitCount,
		RelatedCodes:  []string{},
		Confidence:    -1,
		CreatedAt:     b.now(),
	}
	if ev.Hospital == "" {
		ev.Hospital = event.UnknownHospital
	}
	if end, ok := event.NormalizeDate(blk.EndDate); ok {
		ev.EndDate = end
	}
	if blk.Confidence != nil {
		ev.Confidence = clamp01(*blk.Confidence)
	}
	return ev
}

func diagnosisOf(blk event.DateBlock) event.Diagnosis {
	d := event.Diagnosis{Name: blk.Diagnosis, Raw: blk.RawDiagnosis}
	d.Code = event.NormalizeCode(blk.DiagnosisCode)
	if d.Code == "" {
		d.Code = event.ExtractCode(blk.Diagnosis)
	}
	if d.Code == "" {
		d.Code = event.ExtractCode(blk.RawDiagnosis)
	}
	if d.Raw == "" {
		d.Raw = strings.TrimSpace(blk.Diagnosis + " " + blk.DiagnosisCode)
	}
	return d
}

// backfillCodes copies codes from separately extracted diagnosis entities onto
// events whose diagnosis name matches. Existing codes are never overwritten.
func backfillCodes(events []event.Event, entities []event.Entity) {
	for _, ent := range entities {
		if ent.Kind != "" && !strings.EqualFold(ent.Kind, "diagnosis") {
			continue
		}
		code := event.NormalizeCode(ent.Code)
		name := strings.ToLower(strings.TrimSpace(ent.Name))
		if code == "" || name == "" {
			continue
		}
		for i := range events {
			d := &events[i].Diagnosis
			if d.Code != "" || d.Name == "" {
				continue
			}
			evName := strings.ToLower(d.Name)
			if evName == name || strings.Contains(evName, name) || strings.Contains(name, evName) {
				d.Code = code
			}
		}
	}
}

func (b *Builder) applyCodebook(ev *event.Event) {
	if b.codes == nil || ev.Diagnosis.Code == "" {
		return
	}
	if canon, replaced := b.codes.Canonical(ev.Diagnosis.Code); replaced {
		ev.RelatedCodes = append(ev.RelatedCodes, ev.Diagnosis.Code)
		ev.Diagnosis.Code = canon
	}
	if ev.Diagnosis.Name == "" {
		if e, ok := b.codes.Lookup(ev.Diagnosis.Code); ok {
			ev.Diagnosis.Name = e.Name()
		}
	}
}

func attachSpan(ev *event.Event, rawText string, bounds *event.Bounds) {
	ev.SourceSpan = sourcespan.Locate(rawText, sourcespan.Collect(ev))
	if ev.SourceSpan.Anchored() {
		ev.SourceSpan.Bounds = bounds
	}
	if ev.Confidence < 0 {
		ev.Confidence = ev.SourceSpan.Confidence
	}
}

func idDate(date string, normalized bool) string {
	if normalized {
		return strings.ReplaceAll(date, "-", "")
	}
	var sb strings.Builder
	for _, r := range date {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "unknown"
	}
	return sb.String()
}

func normalizeTime(s string) string {
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 || mm > 59 {
		return s
	}
	return fmt.Sprintf("%02d:%02d", h, mm)
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
