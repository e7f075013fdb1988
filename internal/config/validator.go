package config

import (
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/disclosure/internal/event"
)

// Validate checks the config for:
//   - Duplicate or missing question IDs
//   - Unknown periods and event types
//   - Questions with no positive trigger, which could never match
//   - Negative weights and non-positive engine settings
func Validate(cfg *RuleConfig) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	e := cfg.Engine
	if e.DocumentWorkers < 1 {
		errs = append(errs, "engine.document_workers must be >= 1")
	}
	if e.QueueDepth < 1 {
		errs = append(errs, "engine.queue_depth must be >= 1")
	}
	if e.DocumentTimeoutMs < 1 {
		errs = append(errs, "engine.document_timeout_ms must be >= 1")
	}
	if e.AnchorQualityThreshold < 0 || e.AnchorQualityThreshold > 1 {
		errs = append(errs, "engine.anchor_quality_threshold must be within [0, 1]")
	}
	if e.RateLimitRPS < 0 || e.RateLimitBurst < 0 {
		errs = append(errs, "engine.rate_limit_rps and rate_limit_burst must not be negative")
	}
	if e.MaxBatchSize < 1 {
		errs = append(errs, "engine.max_batch_size must be >= 1")
	}

	ids := make(map[string]int) // id → index
	for i, q := range cfg.Questions {
		if q.ID == "" {
			errs = append(errs, fmt.Sprintf("questions[%d]: id is required", i))
			continue
		}
		loc := fmt.Sprintf("question %s", q.ID)
		if prev, ok := ids[q.ID]; ok {
			errs = append(errs, fmt.Sprintf("duplicate id %q (first seen at questions[%d], again at questions[%d])", q.ID, prev, i))
		} else {
			ids[q.ID] = i
		}
		switch q.Period {
		case Period3M, Period5Y, PeriodAll:
		default:
			errs = append(errs, fmt.Sprintf("%s: period %q must be one of 3M, 5Y, ALL", loc, q.Period))
		}
		if q.Priority < 1 {
			errs = append(errs, fmt.Sprintf("%s: priority must be >= 1", loc))
		}
		if q.Triggers.Empty() {
			errs = append(errs, fmt.Sprintf("%s: at least one of event_types, keywords, diagnosis_codes_prefix, procedure_keywords is required", loc))
		}
		for _, t := range q.Triggers.EventTypes {
			if !event.Type(t).Valid() {
				errs = append(errs, fmt.Sprintf("%s: unknown event type %q", loc, t))
			}
		}
		validateScoring(q.Scoring, loc, &errs)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateScoring(s QuestionScoring, loc string, errs *[]string) {
	if s.BaseWeight < 0 || s.PeriodBoost < 0 || s.CodeBoost < 0 {
		*errs = append(*errs, fmt.Sprintf("%s: scoring weights must not be negative", loc))
	}
	for t, w := range s.EventTypeBoost {
		if !event.Type(t).Valid() {
			*errs = append(*errs, fmt.Sprintf("%s: event_type_boost has unknown event type %q", loc, t))
		}
		if w < 0 {
			*errs = append(*errs, fmt.Sprintf("%s: event_type_boost[%s] must not be negative", loc, t))
		}
	}
}
