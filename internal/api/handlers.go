package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nexuslink/reconciler/internal/domain"
	"github.com/nexuslink/reconciler/internal/engine"
	"github.com/nexuslink/reconciler/internal/ingestion"
	"github.com/nexuslink/reconciler/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	cycles    *CycleHolder
	alertRepo *repository.AlertRepo
	ingestSvc *ingestion.Service
	log       *zap.Logger
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// latest returns the current cycle or replies 503 when none completed yet.
func (h *Handlers) latest(w http.ResponseWriter) *engine.CycleResult {
	c := h.cycles.Latest()
	if c == nil {
		writeError(w, http.StatusServiceUnavailable, "no completed evaluation cycle yet")
	}
	return c
}

// --- GetInventory ---

func (h *Handlers) GetInventory(w http.ResponseWriter, r *http.Request) {
	c := h.latest(w)
	if c == nil {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// --- GetSKU ---

func (h *Handlers) GetSKU(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	c := h.latest(w)
	if c == nil {
		return
	}

	for _, item := range c.Items {
		if item.ID != id {
			continue
		}
		var alerts []domain.Alert
		for _, a := range c.Alerts {
			if a.SKU == id {
				alerts = append(alerts, a)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"cycle_id":     c.CycleID,
			"evaluated_at": c.EvaluatedAt,
			"item":         item,
			"alerts":       alerts,
		})
		return
	}

	for _, skipped := range c.Skipped {
		if skipped.SKU == id {
			writeJSON(w, http.StatusOK, map[string]any{
				"cycle_id": c.CycleID,
				"skipped":  skipped,
			})
			return
		}
	}

	writeError(w, http.StatusNotFound, "sku not found in latest cycle")
}

// --- ListAlerts ---

func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cycleID := q.Get("cycle")
	if cycleID == "" {
		// Default to the latest completed cycle; earlier cycles are
		// superseded history, reachable only by explicit cycle id.
		c := h.latest(w)
		if c == nil {
			return
		}
		cycleID = c.CycleID
	}

	filter := repository.AlertFilter{
		CycleID: cycleID,
		Type:    q.Get("type"),
		SKU:     q.Get("sku"),
		Page:    parseIntDefault(q.Get("page"), 1),
		Limit:   parseIntDefault(q.Get("limit"), 50),
	}

	alerts, total, err := h.alertRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"alerts":   alerts,
		"total":    total,
		"cycle_id": cycleID,
		"page":     filter.Page,
		"limit":    filter.Limit,
	})
}

// --- GetRecommendations ---

func (h *Handlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	c := h.latest(w)
	if c == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cycle_id":        c.CycleID,
		"generated_at":    c.EvaluatedAt,
		"recommendations": c.Recommendations,
	})
}

// --- GetTariffScenarios ---

func (h *Handlers) GetTariffScenarios(w http.ResponseWriter, r *http.Request) {
	c := h.latest(w)
	if c == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cycle_id":         c.CycleID,
		"tariff_scenarios": c.TariffScenarios,
	})
}

// --- GetHealth ---

func (h *Handlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	c := h.latest(w)
	if c == nil {
		return
	}
	writeJSON(w, http.StatusOK, c.Health)
}

// --- IngestSnapshot ---

func (h *Handlers) IngestSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	format := r.FormValue("format")
	if format == "" {
		writeError(w, http.StatusBadRequest, "format is required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return
	}

	result, err := h.ingestSvc.IngestSnapshot(data, format)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}
