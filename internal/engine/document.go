package engine

import (
	"github.com/gyaneshwarpardhi/disclosure/internal/audit"
	"github.com/gyaneshwarpardhi/disclosure/internal/builder"
	"github.com/gyaneshwarpardhi/disclosure/internal/disclosure"
	"github.com/gyaneshwarpardhi/disclosure/internal/event"
	"github.com/gyaneshwarpardhi/disclosure/internal/scoring"
)

// Document is one medical record to analyze.
type Document struct {
	ID          string            `json:"id,omitempty"`
	DateBlocks  []event.DateBlock `json:"dateBlocks"`
	Entities    []event.Entity    `json:"entities"`
	RawText     string            `json:"rawText"`
	PatientInfo event.PatientInfo `json:"patientInfo"`
	ClaimInfo   event.ClaimInfo   `json:"claimInfo"`
}

// Result is the outcome of analyzing a single document.
type Result struct {
	DocumentID   string                 `json:"documentId"`
	DurationMs   int64                  `json:"durationMs"`
	Events       []event.Event          `json:"events"`
	ScoredEvents []scoring.ScoredEvent  `json:"scoredEvents"`
	QuestionMap  disclosure.QuestionMap `json:"questionMap"`
	Quality      builder.Report         `json:"quality"`
	DateCoverage audit.Coverage         `json:"dateCoverage"`
	Error        string                 `json:"error,omitempty"`
}
