package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"coverdesk/internal/audit"
	"coverdesk/internal/authstate"
	"coverdesk/internal/dedupe"
	"coverdesk/internal/upstream"
	dErrors "coverdesk/pkg/domain-errors"
	"coverdesk/pkg/email"
	"coverdesk/pkg/platform/httputil"
)

const enumsCacheKey = "allEnums"

// Handler is the thin HTTP layer over the auth container and the upstream
// client. It shapes requests and responses; decisions live below it.
type Handler struct {
	container  *authstate.Container
	api        *upstream.Client
	deduper    *dedupe.Deduper
	auditStore audit.Store
	logger     *slog.Logger
}

func NewHandler(container *authstate.Container, api *upstream.Client, deduper *dedupe.Deduper, auditStore audit.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		container:  container,
		api:        api,
		deduper:    deduper,
		auditStore: auditStore,
		logger:     logger,
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if strings.Contains(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed login form"))
			return
		}
		payload.Email = r.PostFormValue("email")
		payload.Password = r.PostFormValue("password")
	} else if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed login payload"))
		return
	}
	if payload.Email == "" || payload.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "email and password are required"))
		return
	}

	sub, err := h.container.LoginWithCredentials(r.Context(), payload.Email, payload.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, subjectView(sub))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.container.Logout(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	snap := h.container.Snapshot()
	view := map[string]any{"authenticated": snap.Authenticated}
	if snap.Subject != nil {
		view["subject"] = subjectView(*snap.Subject)
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// handleRestore re-derives state from persisted storage, the server-tier
// analog of reacting to a storage event from another tab.
func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	if err := h.container.Restore(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.handleSession(w, r)
}

func subjectView(sub authstate.Subject) map[string]any {
	return map[string]any{
		"id":          sub.ID,
		"email":       sub.Email,
		"displayName": email.DisplayName(sub.Email),
		"role":        sub.Role.Name(),
		"code":        int(sub.Role),
	}
}

// handleEnums serves the shared enumeration bundle through the
// de-duplicator. A suppressed call means callers already hold fresh data, so
// it maps to 204 rather than an error.
func (h *Handler) handleEnums(w http.ResponseWriter, r *http.Request) {
	enums, err := dedupe.Do(r.Context(), h.deduper, enumsCacheKey, h.api.Enums)
	if errors.Is(err, dedupe.ErrFresh) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, enums)
}

// handleDashboard aggregates the landing bundle. The pieces fetch in
// parallel with shared cancellation; a suppressed enums fetch is fine, the
// client keeps what it has.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	g, ctx := errgroup.WithContext(r.Context())

	var dashboard upstream.Dashboard
	var enums upstream.Enums

	g.Go(func() error {
		var err error
		dashboard, err = h.api.Dashboard(ctx)
		return err
	})
	g.Go(func() error {
		out, err := dedupe.Do(ctx, h.deduper, enumsCacheKey, h.api.Enums)
		if errors.Is(err, dedupe.ErrFresh) {
			return nil
		}
		if err != nil {
			return err
		}
		enums = out
		return nil
	})

	if err := g.Wait(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	view := map[string]any{"dashboard": dashboard}
	if enums != nil {
		view["enums"] = enums
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.api.Products(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, products)
}

func (h *Handler) handleProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.api.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, product)
}

func (h *Handler) handleQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.api.Quotes(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, quotes)
}

func (h *Handler) handleRequestQuote(w http.ResponseWriter, r *http.Request) {
	var req upstream.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed quote request"))
		return
	}
	quote, err := h.api.RequestQuote(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, quote)
}

func (h *Handler) handleProposals(w http.ResponseWriter, r *http.Request) {
	proposals, err := h.api.Proposals(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, proposals)
}

func (h *Handler) handleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	var req upstream.ProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed proposal"))
		return
	}
	proposal, err := h.api.SubmitProposal(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, proposal)
}

func (h *Handler) handleDecideProposal(w http.ResponseWriter, r *http.Request) {
	var decision upstream.ProposalDecision
	if err := json.NewDecoder(r.Body).Decode(&decision); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed decision"))
		return
	}
	proposal, err := h.api.DecideProposal(r.Context(), chi.URLParam(r, "id"), decision)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, proposal)
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed upload"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "file part is required"))
		return
	}
	defer file.Close()

	kind := r.FormValue("kind")
	if kind == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "document kind is required"))
		return
	}

	doc, err := h.api.UploadDocument(r.Context(), chi.URLParam(r, "id"), kind, header.Filename, file)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.api.Documents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, docs)
}

func (h *Handler) handlePolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.api.Policies(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policies)
}

func (h *Handler) handlePolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.api.Policy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policy)
}

func (h *Handler) handlePurchasePolicy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProposalID string `json:"proposalId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProposalID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "proposalId is required"))
		return
	}
	policy, err := h.api.PurchasePolicy(r.Context(), req.ProposalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, policy)
}

func (h *Handler) handlePayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.api.Payments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payments)
}

func (h *Handler) handlePayPremium(w http.ResponseWriter, r *http.Request) {
	var req upstream.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed payment"))
		return
	}
	payment, err := h.api.PayPremium(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, payment)
}

func (h *Handler) handleClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.api.Claims(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claims)
}

func (h *Handler) handleFileClaim(w http.ResponseWriter, r *http.Request) {
	var req upstream.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed claim"))
		return
	}
	claim, err := h.api.FileClaim(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, claim)
}

func (h *Handler) handlePendingClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.api.PendingClaims(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claims)
}

func (h *Handler) handleReviewClaim(w http.ResponseWriter, r *http.Request) {
	var review upstream.ClaimReview
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed review"))
		return
	}
	claim, err := h.api.ReviewClaim(r.Context(), chi.URLParam(r, "id"), review)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

// handleAuditTrail lists recent session activity, newest first.
func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	events, err := h.auditStore.Recent(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}
