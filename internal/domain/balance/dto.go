package balance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebitRequest debits a user's available balance
type DebitRequest struct {
	Amount      string `json:"amount" validate:"required,money"`
	ReferenceID string `json:"reference_id,omitempty" validate:"omitempty,max=255"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// BalanceResponse for GET /balances/{userID}
type BalanceResponse struct {
	UserID           uuid.UUID       `json:"user_id"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	InvestedBalance  decimal.Decimal `json:"invested_balance"`
	EarningsTotal    decimal.Decimal `json:"earnings_total"`
	Initialized      bool            `json:"initialized"`
	UpdatedAt        string          `json:"updated_at,omitempty"`
}

// ReconcileResponse for single-user reconciliation
type ReconcileResponse struct {
	UserID          uuid.UUID       `json:"user_id"`
	AvailableBefore decimal.Decimal `json:"available_before"`
	InvestedBefore  decimal.Decimal `json:"invested_before"`
	AvailableAfter  decimal.Decimal `json:"available_after"`
	InvestedAfter   decimal.Decimal `json:"invested_after"`
	Corrected       bool            `json:"corrected"`
}

// ToReconcileResponse converts a Result to its API shape
func ToReconcileResponse(r *Result) *ReconcileResponse {
	return &ReconcileResponse{
		UserID:          r.UserID,
		AvailableBefore: r.AvailableBefore,
		InvestedBefore:  r.InvestedBefore,
		AvailableAfter:  r.AvailableAfter,
		InvestedAfter:   r.InvestedAfter,
		Corrected:       r.Corrected,
	}
}

// BatchResponse for POST /reconciliation/run and GET /reconciliation/last
type BatchResponse struct {
	Processed  int       `json:"processed"`
	Fixed      int       `json:"fixed"`
	Errors     int       `json:"errors"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	ReportKey  string    `json:"report_key,omitempty"`
}
