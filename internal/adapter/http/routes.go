package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router. limit guards
// the endpoints that start work and may be nil. ws serves the event stream
// and may be nil.
func MountRoutes(r chi.Router, h *Handlers, limit func(http.Handler) http.Handler, ws http.HandlerFunc) {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	r.Get("/health", h.Health)
	if ws != nil {
		r.Get("/ws", ws)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Cycles
		r.With(limit).Post("/cycles", h.TriggerCycle)
		r.Get("/reports/latest", h.LatestReport)

		// Sentinel
		r.Post("/sentinel/evaluate", h.EvaluateSnapshot)

		// Budget
		r.Get("/budget", h.BudgetStatus)
		r.Get("/budget/optimizations", h.BudgetOptimizations)
		r.With(limit).Post("/budget/approve", h.ApproveExpense)

		// Reviews
		r.Post("/reviews/analyze", h.AnalyzeReview)
		r.With(limit).Post("/reviews/requests", h.RequestReview)

		// Pending actions
		r.Get("/actions", h.ListActions)
		r.With(limit).Post("/actions/{id}/approve", h.ApproveAction)
	})
}
