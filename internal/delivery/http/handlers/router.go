package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultAllowedOrigin = "http://localhost:3000"

type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

// NewRouter registers the admin API.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	// an empty list makes cors allow every origin
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{DefaultAllowedOrigin}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requestLogger)

		r.Route("/ib-requests", func(r chi.Router) {
			r.Post("/", h.handleSubmitIBRequest)
			r.Get("/", h.handleListIBRequests)
			r.Get("/{id}", h.handleGetIBRequest)
			r.Post("/{id}/approve", h.handleApproveIBRequest)
			r.Post("/{id}/reject", h.handleRejectIBRequest)
			r.Post("/{id}/type", h.handleChangeIBType)
			r.Post("/{id}/ban", h.handleSetBanned)
		})

		r.Route("/ibs/{id}", func(r chi.Router) {
			r.Get("/group-rates", h.handleGetGroupRates)
			r.Put("/group-rates", h.handleSetGroupRates)
			r.Put("/referrer", h.handleSetReferrer)
			r.Get("/ancestors", h.handleGetAncestors)
			r.Get("/tree", h.handleGetTree)
			r.Get("/clients", h.handleListClients)
			r.Get("/plans", h.handleListPlans)
			r.Get("/summary", h.handleGetSummary)
			r.Get("/ledger", h.handleListLedger)
			r.Get("/distributions", h.handleListDistributions)
			r.Post("/distributions", h.handleDistribute)
		})

		r.Post("/clients", h.handleRegisterClient)
		r.Get("/clients/{userID}", h.handleGetClient)

		r.Get("/trading-groups", h.handleListGroups)
		r.Put("/trading-groups", h.handleUpsertGroups)

		r.Route("/plans", func(r chi.Router) {
			r.Post("/", h.handleCreatePlan)
			r.Get("/by-token/{token}", h.handleGetPlanByToken)
			r.Get("/{id}", h.handleGetPlan)
			r.Put("/{id}", h.handleUpdatePlan)
			r.Delete("/{id}", h.handleDeletePlan)
		})

		r.Post("/trades", h.handleProcessTrade)
		r.Get("/trades/{id}/commissions", h.handleGetTradeBreakdown)

		r.Route("/withdrawals", func(r chi.Router) {
			r.Post("/", h.handleRequestWithdrawal)
			r.Get("/", h.handleListWithdrawals)
			r.Get("/{id}", h.handleGetWithdrawal)
			r.Post("/{id}/approve", h.handleApproveWithdrawal)
			r.Post("/{id}/reject", h.handleRejectWithdrawal)
		})

		r.Post("/reconcile-jobs", h.handleStartReconcile)
		r.Get("/reconcile-jobs/{id}", h.handleGetReconcileJob)
	})

	return r
}
