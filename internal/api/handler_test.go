package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gyaneshwarpardhi/disclosure/internal/config"
	"github.com/gyaneshwarpardhi/disclosure/internal/engine"
)

const questionsYAML = `
version: "1"
engine:
  document_workers: 2
  queue_depth: 10
  rate_limit_rps: 1000
  rate_limit_burst: 1000
  max_batch_size: 2
codebook: codebook.yaml
questions:
  - id: q_admission_3m
    title: Admitted in the last 3 months
    priority: 1
    period: 3M
    triggers:
      event_types: [admission, surgery]
      exclude_keywords: ["rule out"]
    scoring:
      base_weight: 0.6
      period_boost: 0.2
`

const codebookYAML = `
codes:
  - code: K35.8
    eng_name: Acute appendicitis, other
    category: K35
`

const analyzeBody = `{
  "id": "doc-1",
  "dateBlocks": [
    {"date": "2024.04.01", "hospital": "City Hospital", "diagnosisCode": "K35.8", "rawText": "admitted for appendicitis"},
    {"date": "", "hospital": "skipped"}
  ],
  "rawText": "2024.04.01 City Hospital admitted, K35.8 appendicitis",
  "patientInfo": {"enrollmentDate": "2024-06-01"},
  "claimInfo": {"claimDiagnosis": "appendicitis"}
}`

type fixture struct {
	srv  http.Handler
	path string
}

func newFixture(t *testing.T, yaml string) fixture {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "codebook.yaml"), []byte(codebookYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	loader, err := config.NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	eng := engine.New(ctx, nil, nil, loader.Config().Engine)
	if err := eng.ApplyConfig(loader.Config()); err != nil {
		t.Fatalf("ApplyConfig: %v", err)
	}
	loader.OnChange(eng.ApplyConfig)
	t.Cleanup(func() {
		eng.Shutdown()
		cancel()
	})
	return fixture{srv: New(eng, loader), path: path}
}

func (f fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeDocument(t *testing.T) {
	f := newFixture(t, questionsYAML)
	rec := f.do(http.MethodPost, "/v1/documents/analyze", analyzeBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}

	var res struct {
		DocumentID string `json:"documentId"`
		Events     []struct {
			ID        string `json:"id"`
			Date      string `json:"date"`
			EventType string `json:"eventType"`
			Diagnosis struct {
				Name string `json:"name"`
				Code string `json:"code"`
			} `json:"diagnosis"`
		} `json:"events"`
		ScoredEvents []struct {
			Score  int  `json:"score"`
			IsCore bool `json:"isCore"`
		} `json:"scoredEvents"`
		QuestionMap struct {
			Summary struct {
				TotalQuestions int `json:"totalQuestions"`
				HighPriority   int `json:"highPriority"`
			} `json:"summary"`
			Questions []struct {
				ID     string `json:"id"`
				Events []struct {
					SourceSpan struct {
						Preview string `json:"preview"`
					} `json:"sourceSpan"`
				} `json:"events"`
			} `json:"questions"`
		} `json:"questionMap"`
		Quality struct {
			Skipped int `json:"skipped"`
		} `json:"quality"`
		DateCoverage struct {
			CoveragePercent float64 `json:"coveragePercent"`
		} `json:"dateCoverage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.DocumentID != "doc-1" {
		t.Errorf("documentId = %q", res.DocumentID)
	}
	if len(res.Events) != 1 {
		t.Fatalf("events = %+v", res.Events)
	}
	ev := res.Events[0]
	if ev.ID != "evt_20240401_0001" || ev.Date != "2024-04-01" || ev.EventType != "admission" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Diagnosis.Name != "Acute appendicitis, other" {
		t.Errorf("diagnosis name should come from the codebook, got %q", ev.Diagnosis.Name)
	}
	if len(res.ScoredEvents) != 1 || !res.ScoredEvents[0].IsCore {
		t.Errorf("scoredEvents = %+v", res.ScoredEvents)
	}
	if res.QuestionMap.Summary.TotalQuestions != 1 || res.QuestionMap.Summary.HighPriority != 1 ||
		res.QuestionMap.Questions[0].ID != "q_admission_3m" {
		t.Errorf("questionMap = %+v", res.QuestionMap)
	}
	if res.QuestionMap.Questions[0].Events[0].SourceSpan.Preview == "" {
		t.Error("matched event should carry its source preview")
	}
	if res.Quality.Skipped != 1 || res.DateCoverage.CoveragePercent != 100 {
		t.Errorf("quality = %+v coverage = %+v", res.Quality, res.DateCoverage)
	}
}

func TestAnalyzeDocument_BadRequests(t *testing.T) {
	f := newFixture(t, questionsYAML)
	cases := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"invalid json", "/v1/documents/analyze", "{not json", http.StatusBadRequest},
		{"empty batch", "/v1/documents/batch", "[]", http.StatusBadRequest},
		{"null batch entry", "/v1/documents/batch", "[null]", http.StatusBadRequest},
		{"oversize batch", "/v1/documents/batch", "[{},{},{}]", http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, tc.target, tc.body)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body)
			}
			var env errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil || env.Error == "" {
				t.Errorf("expected error envelope, got %s", rec.Body)
			}
		})
	}
}

func TestAnalyzeBatch(t *testing.T) {
	f := newFixture(t, questionsYAML)
	body := "[" + analyzeBody + "," + strings.Replace(analyzeBody, `"doc-1"`, `"doc-2"`, 1) + "]"
	rec := f.do(http.MethodPost, "/v1/documents/batch", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	var res struct {
		JobID   string `json:"jobId"`
		Total   int    `json:"total"`
		Results []struct {
			DocumentID string `json:"documentId"`
			Error      string `json:"error"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.JobID == "" || res.Total != 2 || len(res.Results) != 2 {
		t.Fatalf("batch response = %+v", res)
	}
	if res.Results[0].DocumentID != "doc-1" || res.Results[1].DocumentID != "doc-2" {
		t.Errorf("results out of order: %+v", res.Results)
	}
	for _, r := range res.Results {
		if r.Error != "" {
			t.Errorf("%s error: %s", r.DocumentID, r.Error)
		}
	}
}

func TestQuestionsAndReload(t *testing.T) {
	f := newFixture(t, questionsYAML)

	rec := f.do(http.MethodGet, "/v1/questions", "")
	var list struct {
		Version   string            `json:"version"`
		Questions []config.Question `json:"questions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Version != "1" || len(list.Questions) != 1 {
		t.Fatalf("questions = %+v", list)
	}

	extra := questionsYAML + `
  - id: q_test_5y
    title: Tests in 5 years
    priority: 2
    period: 5Y
    triggers:
      event_types: [test]
`
	if err := os.WriteFile(f.path, []byte(extra), 0o644); err != nil {
		t.Fatal(err)
	}
	rec = f.do(http.MethodPost, "/v1/questions/reload", "")
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte(`"questionsCount":2`)) {
		t.Fatalf("reload = %d %s", rec.Code, rec.Body)
	}

	invalid := strings.Replace(extra, "period: 5Y", "period: 10Y", 1)
	if err := os.WriteFile(f.path, []byte(invalid), 0o644); err != nil {
		t.Fatal(err)
	}
	rec = f.do(http.MethodPost, "/v1/questions/reload", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid reload status = %d, want 422", rec.Code)
	}
	rec = f.do(http.MethodGet, "/v1/questions", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Questions) != 2 {
		t.Errorf("rules should stay at the last valid set, got %d questions", len(list.Questions))
	}

	noCodebook := strings.Replace(strings.Replace(extra, `version: "1"`, `version: "2"`, 1), "codebook: codebook.yaml", "codebook: missing.yaml", 1)
	if err := os.WriteFile(f.path, []byte(noCodebook), 0o644); err != nil {
		t.Fatal(err)
	}
	rec = f.do(http.MethodPost, "/v1/questions/reload", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("reload with missing codebook status = %d, want 422", rec.Code)
	}
	rec = f.do(http.MethodGet, "/v1/questions", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Version != "1" || len(list.Questions) != 2 {
		t.Errorf("listing should reflect the applied config, got version %q with %d questions", list.Version, len(list.Questions))
	}
}

func TestProbes(t *testing.T) {
	f := newFixture(t, questionsYAML)
	for _, target := range []string{"/healthz", "/readyz", "/metrics"} {
		if rec := f.do(http.MethodGet, target, ""); rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", target, rec.Code)
		}
	}
	if rec := f.do(http.MethodGet, "/readyz", ""); !bytes.Contains(rec.Body.Bytes(), []byte(`"status":"ready"`)) {
		t.Errorf("readyz body = %s", rec.Body)
	}
}

func TestRateLimit(t *testing.T) {
	limited := strings.Replace(questionsYAML, "rate_limit_rps: 1000\n  rate_limit_burst: 1000", "rate_limit_rps: 0.001\n  rate_limit_burst: 1", 1)
	f := newFixture(t, limited)

	if rec := f.do(http.MethodGet, "/v1/questions", ""); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := f.do(http.MethodGet, "/v1/questions", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if rec := f.do(http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("health checks should not be rate limited, got %d", rec.Code)
	}
}
