package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/disclosure/internal/config"
	"github.com/gyaneshwarpardhi/disclosure/internal/engine"
	"github.com/gyaneshwarpardhi/disclosure/internal/metrics"
)

// readyThreshold is the queue utilization above which /readyz reports 503.
const readyThreshold = 0.8

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng      *engine.Engine
	loader   *config.Loader
	maxBatch int
}

// New creates an HTTP handler and registers all routes. Rate limits and the
// batch size come from the loader's config at construction time.
func New(eng *engine.Engine, loader *config.Loader) http.Handler {
	conf := loader.Config().Engine
	h := &Handler{eng: eng, loader: loader, maxBatch: conf.MaxBatchSize}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(rateLimit(conf.RateLimitRPS, conf.RateLimitBurst))
		r.Post("/documents/analyze", h.analyzeDocument)
		r.Post("/documents/batch", h.analyzeBatch)
		r.Get("/questions", h.listQuestions)
		r.Post("/questions/reload", h.reloadQuestions)
	})
	return r
}

// POST /v1/documents/analyze: synchronous single-document analysis.
func (h *Handler) analyzeDocument(w http.ResponseWriter, r *http.Request) {
	var doc engine.Document
	if !decodeBody(w, r, &doc) {
		return
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	res, err := h.eng.ProcessSync(r.Context(), &doc)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/documents/batch: parallel analysis of up to max_batch_size documents.
func (h *Handler) analyzeBatch(w http.ResponseWriter, r *http.Request) {
	var docs []*engine.Document
	if !decodeBody(w, r, &docs) {
		return
	}
	if len(docs) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one document")
		return
	}
	if len(docs) > h.maxBatch {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("batch size %d exceeds max %d", len(docs), h.maxBatch))
		return
	}
	for i, d := range docs {
		if d == nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("batch[%d] is null", i))
			return
		}
	}

	results := h.eng.ProcessBatch(r.Context(), docs)
	writeJSON(w, http.StatusOK, map[string]any{
		"jobId":   uuid.New().String(),
		"total":   len(docs),
		"results": results,
	})
}

// GET /v1/questions: list loaded questions.
func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":   h.loader.Config().Version,
		"questions": h.eng.Rules().Questions(),
	})
}

// POST /v1/questions/reload: hot-reload questions and codebook from disk.
// The swap happens in the loader's OnChange callback.
func (h *Handler) reloadQuestions(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, config.ErrRejected) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded":       true,
		"version":        cfg.Version,
		"questionsCount": len(cfg.Questions),
	})
}

// GET /healthz: always 200 (liveness check).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if the document queue is more than 80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > readyThreshold {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":           "overloaded",
			"queueUtilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ready",
		"queueUtilization": util,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, engine.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
