package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"TopicScanner/internal/domain"
	"TopicScanner/internal/ports"
)

// ScanTrigger starts background scans.
type ScanTrigger interface {
	TriggerAsync(ctx context.Context) bool
	Running() bool
}

// DraftGenerator produces and stores a draft for a topic.
type DraftGenerator interface {
	Generate(ctx context.Context, id string) (domain.Topic, error)
}

// Deps wires the handlers to the application services.
type Deps struct {
	Store  ports.TopicStore
	Scans  ScanTrigger
	Drafts DraftGenerator
	Logger *slog.Logger
}

type handler struct {
	store  ports.TopicStore
	scans  ScanTrigger
	drafts DraftGenerator
	logger *slog.Logger
}

// NewRouter exposes health, metrics and the topic API.
func NewRouter(deps Deps) http.Handler {
	h := &handler{store: deps.Store, scans: deps.Scans, drafts: deps.Drafts, logger: deps.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/topics", h.listTopics)
		r.Get("/topics/{id}", h.getTopic)
		r.Post("/topics/{id}/status", h.setStatus)
		r.Post("/topics/{id}/draft", h.saveDraft)
		r.Post("/topics/{id}/factcheck", h.factCheck)
		r.Post("/topics/{id}/generate", h.generate)
		r.Get("/stats", h.stats)
		r.Get("/scans", h.listScans)
		r.Post("/scan", h.triggerScan)
	})
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	scanning := h.scans != nil && h.scans.Running()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "scanning": scanning})
}

func (h *handler) listTopics(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	topics, err := h.store.Query(r.Context(), filter)
	if err != nil {
		h.fail(w, err)
		return
	}
	views := make([]TopicView, 0, len(topics))
	for _, t := range topics {
		views = append(views, NewTopicView(t))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handler) getTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewTopicView(topic))
}

func (h *handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.store.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handler) saveDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Draft *string `json:"draft"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Draft == nil {
		h.fail(w, &domain.ValidationError{Field: "draft", Reason: "is required"})
		return
	}
	if err := h.store.SetDraft(r.Context(), chi.URLParam(r, "id"), *req.Draft); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handler) factCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Checked bool   `json:"checked"`
		Notes   string `json:"notes"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.store.SetFactCheck(r.Context(), chi.URLParam(r, "id"), req.Checked, req.Notes); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handler) generate(w http.ResponseWriter, r *http.Request) {
	if h.drafts == nil {
		h.fail(w, domain.ErrGenerationFailed)
		return
	}
	topic, err := h.drafts.Generate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"draft": topic.Draft})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	health, err := h.store.LastRunPerSource(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewStatsView(stats, health))
}

func (h *handler) listScans(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.store.RecentRuns(r.Context(), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	views := make([]RunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, NewRunView(run))
	}
	writeJSON(w, http.StatusOK, views)
}

// triggerScan always answers 202; an overlapping request is acknowledged
// without starting a second scan.
func (h *handler) triggerScan(w http.ResponseWriter, r *http.Request) {
	if h.scans == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "scanner disabled"})
		return
	}
	started := h.scans.TriggerAsync(r.Context())
	status := "started"
	if !started {
		status = "already running"
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"started": started, "status": status})
}

func parseFilter(r *http.Request) (domain.TopicFilter, error) {
	q := r.URL.Query()
	var filter domain.TopicFilter
	if v := q.Get("source"); v != "" {
		source, err := domain.ParseSource(v)
		if err != nil {
			return filter, err
		}
		filter.Source = source
	}
	if v := q.Get("type"); v != "" {
		ct, err := domain.ParseContentType(v)
		if err != nil {
			return filter, err
		}
		filter.ContentType = ct
	}
	if v := q.Get("niche"); v != "" {
		niche, err := domain.ParseNiche(v)
		if err != nil {
			return filter, err
		}
		filter.Niche = niche
	}
	if q.Get("sort") == string(domain.SortFresh) {
		filter.Sort = domain.SortFresh
	}
	return filter, nil
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return false
	}
	return true
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrTopicNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrGenerationFailed):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError && h.logger != nil {
		h.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
