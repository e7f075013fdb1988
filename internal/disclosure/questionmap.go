package disclosure

import "math"

// QuestionMap is the reviewer-facing rendering of question matches.
type QuestionMap struct {
	Summary   MapSummary     `json:"summary"`
	Questions []QuestionView `json:"questions"`
}

// MapSummary counts included questions by priority band.
type MapSummary struct {
	TotalQuestions int `json:"totalQuestions"`
	HighPriority   int `json:"highPriority"`
	MediumPriority int `json:"mediumPriority"`
	LowPriority    int `json:"lowPriority"`
}

// QuestionView is one question as rendered in the QuestionMap.
type QuestionView struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Priority   int         `json:"priority"`
	EventCount int         `json:"eventCount"`
	TotalScore float64     `json:"totalScore"`
	Summary    string      `json:"summary"`
	Events     []EventView `json:"events"`
}

// EventView is a supporting event as shown to reviewers.
type EventView struct {
	Date          string   `json:"date"`
	Hospital      string   `json:"hospital"`
	Diagnosis     string   `json:"diagnosis"`
	DiagnosisCode string   `json:"diagnosisCode"`
	EventType     string   `json:"eventType"`
	ShortFact     string   `json:"shortFact"`
	Score         float64  `json:"score"`
	SourceSpan    SpanView `json:"sourceSpan"`
}

// SpanView locates an event's evidence in the source document.
type SpanView struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Preview string `json:"preview"`
}

// BuildQuestionMap renders matches in their existing order.
func BuildQuestionMap(matches []QuestionMatch) QuestionMap {
	qm := QuestionMap{Questions: make([]QuestionView, 0, len(matches))}
	for _, m := range matches {
		switch p := m.Question.Priority; {
		case p <= 1:
			qm.Summary.HighPriority++
		case p == 2:
			qm.Summary.MediumPriority++
		default:
			qm.Summary.LowPriority++
		}
		view := QuestionView{
			ID:         m.Question.ID,
			Title:      m.Question.Title,
			Priority:   m.Question.Priority,
			EventCount: len(m.MatchedEvents),
			TotalScore: round3(m.TotalScore),
			Summary:    m.Summary,
			Events:     make([]EventView, 0, len(m.MatchedEvents)),
		}
		for _, me := range m.MatchedEvents {
			ev := me.Event
			view.Events = append(view.Events, EventView{
				Date:          ev.Date,
				Hospital:      ev.Hospital,
				Diagnosis:     ev.Diagnosis.Name,
				DiagnosisCode: ev.Diagnosis.Code,
				EventType:     string(ev.EventType),
				ShortFact:     ev.ShortFact,
				Score:         round3(me.Score),
				SourceSpan: SpanView{
					Start:   ev.SourceSpan.Start,
					End:     ev.SourceSpan.End,
					Preview: ev.SourceSpan.TextPreview,
				},
			})
		}
		qm.Questions = append(qm.Questions, view)
	}
	qm.Summary.TotalQuestions = len(qm.Questions)
	return qm
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
