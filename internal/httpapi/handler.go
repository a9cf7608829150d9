// Package httpapi exposes the search core over HTTP: a search endpoint with
// selectable result detail and an admin reload endpoint. Health probes are
// served by pkg/health.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ksedova/fulltext/internal/analytics"
	"github.com/ksedova/fulltext/internal/fulltext/service"
	apperr "github.com/ksedova/fulltext/pkg/errors"
	"github.com/ksedova/fulltext/pkg/logger"
	"github.com/ksedova/fulltext/pkg/metrics"
	"github.com/ksedova/fulltext/pkg/middleware"
	"github.com/ksedova/fulltext/pkg/tracing"
)

// reloadAppError maps the core's error taxonomy onto the shared AppError
// type. IndexFileMissing, CorruptIndex, UnsupportedSchema, and IoError all
// mean the server cannot serve the requested index, so they share
// ErrIndexUnavailable (503) rather than splitting IoError out as a special
// case.
func reloadAppError(err error) *apperr.AppError {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		switch svcErr.Kind {
		case service.KindIndexFileMissing, service.KindCorruptIndex, service.KindUnsupportedSchema, service.KindIoError:
			return apperr.New(apperr.ErrIndexUnavailable, http.StatusServiceUnavailable, "reload failed: "+err.Error())
		}
	}
	return apperr.New(apperr.ErrInternal, http.StatusInternalServerError, "reload failed: "+err.Error())
}

// Searcher is the subset of *internal/fulltext/service.Service the HTTP
// layer depends on, narrowed for testability with a fake.
type Searcher interface {
	Search(q string) []int32
	SearchScored(q string) []service.ScoredDoc
	SearchWithSnippets(q string) []service.Hit
	Load(dir string) error
}

// Handler serves the search HTTP surface.
type Handler struct {
	svc        Searcher
	indexDir   string
	collector  *analytics.Collector
	defaultLim int
	maxLim     int
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// New builds a Handler. indexDir is the directory Reload re-loads from.
func New(svc Searcher, indexDir string, collector *analytics.Collector, defaultLimit, maxResults int) *Handler {
	return &Handler{
		svc:        svc,
		indexDir:   filepath.Clean(indexDir),
		collector:  collector,
		defaultLim: defaultLimit,
		maxLim:     maxResults,
		logger:     slog.Default().With("component", "httpapi"),
	}
}

// SetMetrics attaches the Prometheus collectors Search records search-level
// metrics to. Left nil, Search skips instrumentation.
func (h *Handler) SetMetrics(m *metrics.Metrics) {
	h.metrics = m
}

// Search handles GET /api/v1/search?q=...&mode=ids|scored|snippets&limit=N.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := tracing.StartSpan(r.Context(), "httpapi.Search", middleware.GetRequestID(r.Context()))
	defer span.End()
	defer span.Log()
	log := logger.FromContext(ctx)

	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeAppError(w, apperr.New(apperr.ErrInvalidQuery, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "scored"
	}

	limit := h.defaultLim
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeAppError(w, apperr.New(apperr.ErrInvalidQuery, http.StatusBadRequest, "limit must be a positive integer"))
			return
		}
		if parsed > h.maxLim {
			parsed = h.maxLim
		}
		limit = parsed
	}

	var payload any
	var resultCount int
	switch mode {
	case "ids":
		ids := h.svc.Search(q)
		if len(ids) > limit {
			ids = ids[:limit]
		}
		payload = map[string]any{"query": q, "results": ids}
		resultCount = len(ids)
	case "scored":
		scored := h.svc.SearchScored(q)
		if len(scored) > limit {
			scored = scored[:limit]
		}
		payload = map[string]any{"query": q, "results": toScoredView(scored)}
		resultCount = len(scored)
	case "snippets":
		hits := h.svc.SearchWithSnippets(q)
		if len(hits) > limit {
			hits = hits[:limit]
		}
		payload = map[string]any{"query": q, "results": toHitView(hits)}
		resultCount = len(hits)
	default:
		h.writeAppError(w, apperr.New(apperr.ErrInvalidQuery, http.StatusBadRequest, "mode must be one of ids, scored, snippets"))
		return
	}

	latencyMs := time.Since(start).Milliseconds()
	span.SetAttr("query", q)
	span.SetAttr("mode", mode)
	span.SetAttr("returned", resultCount)
	log.Info("search completed", "query", q, "mode", mode, "returned", resultCount, "latency_ms", latencyMs)

	if h.metrics != nil {
		resultType := "hit"
		if resultCount == 0 {
			resultType = "zero_result"
		}
		h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
		h.metrics.SearchLatency.Observe(time.Since(start).Seconds())
		h.metrics.SearchResultsCount.Observe(float64(resultCount))
	}

	if h.collector != nil {
		eventType := analytics.EventSearch
		if resultCount == 0 {
			eventType = analytics.EventZeroResult
		}
		h.collector.Track(analytics.SearchEvent{
			Type:      eventType,
			Query:     q,
			Returned:  resultCount,
			LatencyMs: latencyMs,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, payload)
}

// Reload handles POST /api/v1/admin/reload, re-reading the on-disk index
// built by the offline builder.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Load(h.indexDir); err != nil {
		appErr := reloadAppError(err)
		h.logger.Error("reload failed", "dir", h.indexDir, "error", err)
		h.writeAppError(w, appErr)
		return
	}
	h.logger.Info("index reloaded", "dir", h.indexDir)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeAppError writes an AppError's message as the response body, using
// pkg/errors.HTTPStatusCode to translate its sentinel into a status.
func (h *Handler) writeAppError(w http.ResponseWriter, appErr *apperr.AppError) {
	h.writeJSON(w, apperr.HTTPStatusCode(appErr), map[string]string{"error": appErr.Message})
}

type scoredView struct {
	DocID int32   `json:"docId"`
	Score float64 `json:"score"`
}

func toScoredView(scored []service.ScoredDoc) []scoredView {
	out := make([]scoredView, len(scored))
	for i, s := range scored {
		out[i] = scoredView{DocID: s.DocID, Score: s.Score}
	}
	return out
}

type hitView struct {
	DocID   int32   `json:"docId"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

func toHitView(hits []service.Hit) []hitView {
	out := make([]hitView, len(hits))
	for i, hi := range hits {
		out[i] = hitView{DocID: hi.DocID, Score: hi.Score, Snippet: hi.Snippet}
	}
	return out
}
