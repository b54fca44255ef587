package balance

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bitharvest/recon-api/internal/middleware"
)

// Per-user requests are bounded; the batch run is exempt because it can
// legitimately run for minutes.
const requestTimeout = 30 * time.Second

// Routes returns admin balance/reconciliation routes. The caller mounts
// these behind the API key middleware.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/balances/{userID}", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Get("/", h.GetBalance)
		r.Get("/transactions", h.GetTransactions)
		r.Post("/debit", h.Debit)
	})

	r.Route("/reconciliation", func(r chi.Router) {
		r.Post("/run", h.ReconcileAll)
		r.With(middleware.Timeout(requestTimeout)).Get("/last", h.LastSummary)
		r.With(middleware.Timeout(requestTimeout)).Post("/users/{userID}", h.ReconcileUser)
	})

	return r
}
