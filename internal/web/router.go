package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coverdesk/internal/authstate"
	"coverdesk/internal/roles"
)

// NewRouter mounts the full route table. Role gates follow the platform's
// division of labor: customers and agents originate business, underwriters
// and admins decide it, admins alone see the activity trail.
func NewRouter(h *Handler, container *authstate.Container, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(RequestLogger(logger))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(container))

		r.Post("/logout", h.handleLogout)
		r.Get("/session", h.handleSession)
		r.Post("/session/restore", h.handleRestore)

		r.Get("/enums", h.handleEnums)
		r.Get("/dashboard", h.handleDashboard)

		r.Get("/products", h.handleProducts)
		r.Get("/products/{id}", h.handleProduct)

		r.Group(func(r chi.Router) {
			r.Use(RequireRoles(roles.Customer, roles.Agent))

			r.Get("/quotes", h.handleQuotes)
			r.Post("/quotes", h.handleRequestQuote)
			r.Post("/proposals", h.handleSubmitProposal)
			r.Post("/proposals/{id}/documents", h.handleUploadDocument)
			r.Post("/policies", h.handlePurchasePolicy)
			r.Post("/payments", h.handlePayPremium)
			r.Post("/claims", h.handleFileClaim)
		})

		r.Get("/proposals", h.handleProposals)
		r.Get("/proposals/{id}/documents", h.handleDocuments)
		r.Get("/policies", h.handlePolicies)
		r.Get("/policies/{id}", h.handlePolicy)
		r.Get("/policies/{id}/payments", h.handlePayments)
		r.Get("/claims", h.handleClaims)

		r.Group(func(r chi.Router) {
			r.Use(RequireRoles(roles.Underwriter, roles.Admin))

			r.Put("/proposals/{id}/decision", h.handleDecideProposal)
			r.Get("/claims/pending", h.handlePendingClaims)
			r.Put("/claims/{id}/review", h.handleReviewClaim)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRoles(roles.Admin))

			r.Get("/admin/audit", h.handleAuditTrail)
		})
	})

	return r
}
