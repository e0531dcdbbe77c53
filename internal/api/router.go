package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/nexuslink/reconciler/internal/ingestion"
	"github.com/nexuslink/reconciler/internal/repository"
)

// NewRouter wires all HTTP routes.
func NewRouter(cycles *CycleHolder, alertRepo *repository.AlertRepo, ingestSvc *ingestion.Service, log *zap.Logger) http.Handler {
	h := &Handlers{
		cycles:    cycles,
		alertRepo: alertRepo,
		ingestSvc: ingestSvc,
		log:       log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/snapshots/ingest", h.IngestSnapshot)
		r.Get("/inventory", h.GetInventory)
		r.Get("/inventory/{id}", h.GetSKU)
		r.Get("/alerts", h.ListAlerts)
		r.Get("/recommendations", h.GetRecommendations)
		r.Get("/tariffs/scenarios", h.GetTariffScenarios)
		r.Get("/health", h.GetHealth)
	})

	return r
}
