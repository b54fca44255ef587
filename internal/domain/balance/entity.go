package balance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeAdminAdjustment TransactionType = "admin_adjustment"
	TransactionTypeDebit           TransactionType = "withdrawal"
)

// UserBalance is the cached projection of the ledger. It is derived,
// never authoritative; the reconciler rebuilds it from ledger rows.
type UserBalance struct {
	UserID           uuid.UUID       `db:"user_id" json:"user_id"`
	AvailableBalance decimal.Decimal `db:"available_balance" json:"available_balance"`
	InvestedBalance  decimal.Decimal `db:"invested_balance" json:"invested_balance"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Transaction is one append-only audit row per mutation of UserBalance.
type Transaction struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	UserID        uuid.UUID       `db:"user_id" json:"user_id"`
	Type          TransactionType `db:"transaction_type" json:"transaction_type"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balance_after"`
	ReferenceID   *string         `db:"reference_id" json:"reference_id,omitempty"`
	Description   string          `db:"description" json:"description"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Totals is a computed {available, invested} pair.
type Totals struct {
	Available decimal.Decimal `json:"available"`
	Invested  decimal.Decimal `json:"invested"`
}

// Result describes the outcome of reconciling a single user.
type Result struct {
	UserID          uuid.UUID       `json:"user_id"`
	AvailableBefore decimal.Decimal `json:"available_before"`
	InvestedBefore  decimal.Decimal `json:"invested_before"`
	AvailableAfter  decimal.Decimal `json:"available_after"`
	InvestedAfter   decimal.Decimal `json:"invested_after"`
	Corrected       bool            `json:"corrected"`
}

// BatchSummary accumulates per-user outcomes of a full reconciliation run.
type BatchSummary struct {
	Processed  int       `json:"processed"`
	Fixed      int       `json:"fixed"`
	Errors     int       `json:"errors"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
