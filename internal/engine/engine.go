package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/disclosure/internal/audit"
	"github.com/gyaneshwarpardhi/disclosure/internal/builder"
	"github.com/gyaneshwarpardhi/disclosure/internal/codebook"
	"github.com/gyaneshwarpardhi/disclosure/internal/config"
	"github.com/gyaneshwarpardhi/disclosure/internal/disclosure"
	"github.com/gyaneshwarpardhi/disclosure/internal/metrics"
	"github.com/gyaneshwarpardhi/disclosure/internal/scoring"
	"github.com/gyaneshwarpardhi/disclosure/internal/unify"
)

var (
	ErrQueueFull = errors.New("document queue full")
	ErrTimeout   = errors.New("document processing timeout")
)

// Engine analyzes documents on a bounded worker pool.
type Engine struct {
	rules atomic.Pointer[disclosure.Engine]
	codes atomic.Pointer[codebook.Index]
	pool  *workerPool[*docWork]
	conf  config.EngineConf
}

type docWork struct {
	doc     *Document
	resultC chan *Result
}

// New creates an Engine using conf and starts the worker pool. codes may be nil.
func New(ctx context.Context, rules *disclosure.Engine, codes *codebook.Index, conf config.EngineConf) *Engine {
	e := &Engine{conf: conf}
	e.rules.Store(rules)
	e.codes.Store(codes)
	e.pool = newWorkerPool(ctx, conf.DocumentWorkers, conf.QueueDepth, func(_ context.Context, w *docWork) {
		res := e.Analyze(w.doc)
		if w.resultC != nil {
			w.resultC <- res
		}
	})
	return e
}

// SwapRules atomically replaces the disclosure engine (used on hot-reload).
func (e *Engine) SwapRules(r *disclosure.Engine) {
	e.rules.Store(r)
}

// SwapCodebook atomically replaces the codebook.
func (e *Engine) SwapCodebook(c *codebook.Index) {
	e.codes.Store(c)
}

// ApplyConfig validates cfg, loads its codebook and swaps both the codebook
// and the question rules in. On error nothing is swapped. Pool settings are
// fixed at New and are not affected.
func (e *Engine) ApplyConfig(cfg *config.RuleConfig) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}
	var codes *codebook.Index
	if cfg.Codebook != "" {
		idx, err := codebook.Load(cfg.Codebook)
		if err != nil {
			return fmt.Errorf("load codebook: %w", err)
		}
		codes = idx
	}
	e.SwapCodebook(codes)
	e.SwapRules(disclosure.New(cfg.Questions))
	return nil
}

// Rules returns the disclosure engine currently in use.
func (e *Engine) Rules() *disclosure.Engine {
	return e.rules.Load()
}

// Analyze runs the full pipeline on doc in the calling goroutine. Each call
// gets its own Builder, so concurrent calls never share event ids.
func (e *Engine) Analyze(doc *Document) *Result {
	start := time.Now()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	b := builder.New(
		builder.WithCodebook(e.codes.Load()),
		builder.WithAnchorThreshold(e.conf.AnchorQualityThreshold),
	)
	built, report := b.Build(doc.DateBlocks, doc.Entities, doc.RawText, doc.PatientInfo)
	events := unify.UnifyDuplicateEvents(built)
	scored := scoring.ScoreEvents(events, doc.PatientInfo, doc.ClaimInfo)
	matches := e.rules.Load().Process(events, doc.PatientInfo)

	res := &Result{
		DocumentID:   doc.ID,
		Events:       events,
		ScoredEvents: scored,
		QuestionMap:  disclosure.BuildQuestionMap(matches),
		Quality:      report,
		DateCoverage: audit.DateCoverage(doc.RawText, events),
	}
	res.DurationMs = time.Since(start).Milliseconds()

	metrics.DocumentsProcessed.Inc()
	metrics.EventsBuilt.Add(float64(report.Events))
	metrics.BlocksSkipped.Add(float64(report.Skipped))
	metrics.EventsMerged.Add(float64(len(built) - len(events)))
	metrics.AnchorRatio.Observe(report.AnchorRatio)
	if report.BelowThreshold {
		metrics.QualityGateViolations.Inc()
	}
	for _, m := range matches {
		metrics.QuestionMatches.WithLabelValues(m.Question.ID).Inc()
	}
	metrics.DocumentProcessingDuration.Observe(float64(res.DurationMs))
	return res
}

// ProcessSync analyzes a document on the pool and waits for the result.
// Returns ErrQueueFull if the queue is full and ErrTimeout if the configured
// deadline passes first.
func (e *Engine) ProcessSync(ctx context.Context, doc *Document) (*Result, error) {
	resultC, err := e.submit(doc)
	if err != nil {
		return nil, err
	}
	timer := time.NewTimer(e.timeout())
	defer timer.Stop()
	select {
	case res := <-resultC:
		return res, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w after %v", ErrTimeout, e.timeout())
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProcessBatch analyzes docs in parallel. Results keep input order; a
// document that could not be queued or finished in time carries Error.
func (e *Engine) ProcessBatch(ctx context.Context, docs []*Document) []*Result {
	pending := make([]chan *Result, len(docs))
	results := make([]*Result, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		c, err := e.submit(doc)
		if err != nil {
			results[i] = &Result{DocumentID: doc.ID, Error: err.Error()}
			continue
		}
		pending[i] = c
	}

	timer := time.NewTimer(e.timeout())
	defer timer.Stop()
	expired := false
	for i, c := range pending {
		if c == nil {
			continue
		}
		if expired {
			results[i] = e.collectNow(docs[i], c)
			continue
		}
		select {
		case res := <-c:
			results[i] = res
		case <-timer.C:
			expired = true
			results[i] = e.collectNow(docs[i], c)
		case <-ctx.Done():
			expired = true
			results[i] = &Result{DocumentID: docs[i].ID, Error: ctx.Err().Error()}
		}
	}
	return results
}

// collectNow takes a result only if it is already available.
func (e *Engine) collectNow(doc *Document, c chan *Result) *Result {
	select {
	case res := <-c:
		return res
	default:
		return &Result{DocumentID: doc.ID, Error: fmt.Sprintf("%s after %v", ErrTimeout, e.timeout())}
	}
}

func (e *Engine) submit(doc *Document) (chan *Result, error) {
	resultC := make(chan *Result, 1)
	if !e.pool.Submit(&docWork{doc: doc, resultC: resultC}) {
		metrics.DocumentsRejected.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.conf.QueueDepth)
	}
	metrics.DocumentsEnqueued.Inc()
	metrics.QueueUtilization.Set(e.QueueUtilization())
	return resultC, nil
}

func (e *Engine) timeout() time.Duration {
	return time.Duration(e.conf.DocumentTimeoutMs) * time.Millisecond
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
