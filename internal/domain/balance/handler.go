package balance

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/bitharvest/recon-api/internal/domain/ledger"
	"github.com/bitharvest/recon-api/internal/pkg/report"
	"github.com/bitharvest/recon-api/internal/pkg/response"
	"github.com/bitharvest/recon-api/internal/pkg/validator"
)

// Handler handles balance and reconciliation HTTP requests
type Handler struct {
	svc      *Service
	runner   *BatchRunner
	repo     *Repository
	ledger   *ledger.Repository
	cache    *SummaryCache
	uploader *report.Uploader // nil when export is not configured
}

func NewHandler(svc *Service, runner *BatchRunner, repo *Repository, ledgerRepo *ledger.Repository, cache *SummaryCache, uploader *report.Uploader) *Handler {
	return &Handler{
		svc:      svc,
		runner:   runner,
		repo:     repo,
		ledger:   ledgerRepo,
		cache:    cache,
		uploader: uploader,
	}
}

func userIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	return id, err == nil
}

// GetBalance handles GET /balances/{userID}
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		response.BadRequest(w, "Invalid user id")
		return
	}

	ub, err := h.repo.Get(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("get balance failed")
		response.InternalError(w)
		return
	}

	earnings, err := h.ledger.EarningsTotalForUser(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("earnings total failed")
		response.InternalError(w)
		return
	}

	resp := &BalanceResponse{
		UserID:           userID,
		AvailableBalance: decimal.Zero,
		InvestedBalance:  decimal.Zero,
		EarningsTotal:    earnings,
	}
	if ub != nil {
		resp.AvailableBalance = ub.AvailableBalance
		resp.InvestedBalance = ub.InvestedBalance
		resp.Initialized = true
		resp.UpdatedAt = ub.UpdatedAt.Format(time.RFC3339)
	}

	response.OK(w, resp)
}

// GetTransactions handles GET /balances/{userID}/transactions
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		response.BadRequest(w, "Invalid user id")
		return
	}

	rows, err := h.repo.Transactions(r.Context(), userID, 50)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("list transactions failed")
		response.InternalError(w)
		return
	}

	response.OK(w, rows)
}

// Debit handles POST /balances/{userID}/debit
func (h *Handler) Debit(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		response.BadRequest(w, "Invalid user id")
		return
	}

	var req DebitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.BadRequest(w, "Invalid amount")
		return
	}

	err = h.repo.Decrement(r.Context(), userID, amount, req.ReferenceID, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientBalance):
			response.UnprocessableEntity(w, "INSUFFICIENT_BALANCE", "Debit exceeds available balance")
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "Amount must be positive")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("debit failed")
			response.InternalError(w)
		}
		return
	}

	ub, err := h.repo.Get(r.Context(), userID)
	if err != nil || ub == nil {
		response.OK(w, map[string]bool{"applied": true})
		return
	}
	response.OK(w, ub)
}

// ReconcileUser handles POST /reconciliation/users/{userID}
func (h *Handler) ReconcileUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		response.BadRequest(w, "Invalid user id")
		return
	}

	result, err := h.svc.Reconcile(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserBusy):
			response.Conflict(w, "Reconciliation already in progress for this user")
		case errors.Is(err, ledger.ErrDataAccess):
			log.Error().Err(err).Str("user_id", userID.String()).Msg("ledger read failed")
			response.ServiceUnavailable(w, "Ledger store unavailable")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("reconciliation failed")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, ToReconcileResponse(result))
}

// ReconcileAll handles POST /reconciliation/run
func (h *Handler) ReconcileAll(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.ReconcileAll(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("batch reconciliation failed")
		if errors.Is(err, ledger.ErrDataAccess) {
			response.ServiceUnavailable(w, "Ledger store unavailable")
			return
		}
		response.InternalError(w)
		return
	}

	if err := h.cache.Store(r.Context(), summary); err != nil {
		log.Warn().Err(err).Msg("failed to cache batch summary")
	}

	resp := &BatchResponse{
		Processed:  summary.Processed,
		Fixed:      summary.Fixed,
		Errors:     summary.Errors,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
	}

	if h.uploader != nil {
		key, err := h.uploader.Upload(r.Context(), "batch-"+uuid.New().String(), summary)
		if err != nil {
			log.Warn().Err(err).Msg("failed to upload batch report")
		} else {
			resp.ReportKey = key
		}
	}

	response.OK(w, resp)
}

// LastSummary handles GET /reconciliation/last
func (h *Handler) LastSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.cache.Load(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load cached summary failed")
		response.InternalError(w)
		return
	}
	if summary == nil {
		response.NotFound(w, "No reconciliation batch has run yet")
		return
	}
	response.OK(w, summary)
}
