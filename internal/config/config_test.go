package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
version: "1"
engine:
  document_workers: 2
codebook: codebook.yaml
questions:
  - id: q_3m_visit
    title: Recent treatment
    priority: 1
    period: 3m
    triggers:
      event_types: [visit, test]
      exclude_keywords: ["routine checkup"]
    scoring:
      base_weight: 0.5
      period_boost: 0.2
      event_type_boost: {test: 0.1}
      code_boost: 0.1
  - id: q_5y_surgery
    title: Surgery in five years
    priority: 2
    period: 5Y
    triggers:
      event_types: [surgery, admission]
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e := cfg.Engine
	if e.DocumentWorkers != 2 {
		t.Errorf("document_workers = %d, want 2 (explicit)", e.DocumentWorkers)
	}
	if e.QueueDepth != 1000 || e.DocumentTimeoutMs != 10000 || e.AnchorQualityThreshold != 0.95 ||
		e.RateLimitRPS != 20 || e.RateLimitBurst != 40 || e.MaxBatchSize != 50 {
		t.Errorf("defaults not applied: %+v", e)
	}
	if cfg.Questions[0].Period != Period3M {
		t.Errorf("period = %q, want upper-cased 3M", cfg.Questions[0].Period)
	}
	if got := cfg.Questions[0].Scoring.EventTypeBoost["test"]; got != 0.1 {
		t.Errorf("event_type_boost[test] = %v", got)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *RuleConfig {
		cfg, err := Parse([]byte(sampleYAML))
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}
	cases := []struct {
		name    string
		mutate  func(*RuleConfig)
		wantErr string
	}{
		{"missing version", func(c *RuleConfig) { c.Version = "" }, "version is required"},
		{"duplicate id", func(c *RuleConfig) { c.Questions[1].ID = c.Questions[0].ID }, "duplicate id"},
		{"empty id", func(c *RuleConfig) { c.Questions[0].ID = "" }, "id is required"},
		{"bad period", func(c *RuleConfig) { c.Questions[0].Period = "10Y" }, "must be one of"},
		{"zero priority", func(c *RuleConfig) { c.Questions[0].Priority = 0 }, "priority must be >= 1"},
		{"no triggers", func(c *RuleConfig) { c.Questions[1].Triggers = Triggers{ExcludeKeywords: []string{"x"}} }, "at least one of"},
		{"unknown event type", func(c *RuleConfig) { c.Questions[1].Triggers.EventTypes = []string{"checkup"} }, "unknown event type"},
		{"negative weight", func(c *RuleConfig) { c.Questions[0].Scoring.BaseWeight = -1 }, "must not be negative"},
		{"negative type boost", func(c *RuleConfig) { c.Questions[0].Scoring.EventTypeBoost["test"] = -0.5 }, "event_type_boost[test]"},
		{"threshold range", func(c *RuleConfig) { c.Engine.AnchorQualityThreshold = 1.5 }, "anchor_quality_threshold"},
		{"workers", func(c *RuleConfig) { c.Engine.DocumentWorkers = -1 }, "document_workers"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoader_ReloadNotifies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if got := l.Config().Codebook; got != filepath.Join(dir, "codebook.yaml") {
		t.Errorf("codebook path = %q, want resolved next to config", got)
	}

	changed := make(chan *RuleConfig, 1)
	l.OnChange(func(c *RuleConfig) error {
		changed <- c
		return nil
	})

	updated := strings.Replace(sampleYAML, "title: Recent treatment", "title: Treatment in 3 months", 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	select {
	case c := <-changed:
		if c.Questions[0].Title != "Treatment in 3 months" {
			t.Errorf("callback saw title %q", c.Questions[0].Title)
		}
	case <-time.After(time.Second):
		t.Fatal("OnChange callback not invoked")
	}
	if l.Config().Questions[0].Title != "Treatment in 3 months" {
		t.Error("Config() not updated after reload")
	}
}

func TestLoader_BadReloadKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := NewLoader(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("questions: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err == nil {
		t.Fatal("expected parse error")
	}
	if l.Config().Version != "1" || len(l.Config().Questions) != 2 {
		t.Error("previous config should be kept after a failed reload")
	}
}

func TestLoader_RejectedReloadKeepsCurrent(t *testing.T) {
	cases := []struct {
		name     string
		contents string
		callback error
	}{
		{"fails validation", strings.Replace(sampleYAML, "period: 5Y", "period: 10Y", 1), nil},
		{"refused by callback", strings.Replace(sampleYAML, `version: "1"`, `version: "2"`, 1), errors.New("codebook missing")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "questions.yaml")
			if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
				t.Fatal(err)
			}
			l, err := NewLoader(path)
			if err != nil {
				t.Fatal(err)
			}
			calls := 0
			l.OnChange(func(*RuleConfig) error {
				calls++
				return tc.callback
			})

			if err := os.WriteFile(path, []byte(tc.contents), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err = l.Reload()
			if !errors.Is(err, ErrRejected) {
				t.Fatalf("Reload err = %v, want ErrRejected", err)
			}
			if tc.callback == nil && calls != 0 {
				t.Error("callbacks should not see an invalid config")
			}
			if cur := l.Config(); cur.Version != "1" || cur.Questions[1].Period != Period5Y {
				t.Errorf("Config() = version %q, want the previous config", cur.Version)
			}
		})
	}
}

func TestNewLoader_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	if err := os.WriteFile(path, []byte(strings.Replace(sampleYAML, "priority: 1", "priority: 0", 1)), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLoader(path); !errors.Is(err, ErrRejected) {
		t.Errorf("NewLoader err = %v, want ErrRejected", err)
	}
}
