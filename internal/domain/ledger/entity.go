package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DepositStatus string

const (
	DepositStatusPending  DepositStatus = "pending"
	DepositStatusApproved DepositStatus = "approved"
	DepositStatusRejected DepositStatus = "rejected"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
)

type WithdrawalType string

const (
	WithdrawalTypeWallet WithdrawalType = "wallet"
	WithdrawalTypeOther  WithdrawalType = "other"
)

type InvestmentStatus string

const (
	InvestmentStatusActive InvestmentStatus = "active"
	InvestmentStatusClosed InvestmentStatus = "closed"
)

type Deposit struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Status    DepositStatus   `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

type Withdrawal struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	UserID         uuid.UUID        `db:"user_id" json:"user_id"`
	Amount         decimal.Decimal  `db:"amount" json:"amount"`
	Status         WithdrawalStatus `db:"status" json:"status"`
	WithdrawalType WithdrawalType   `db:"withdrawal_type" json:"withdrawal_type"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

type Investment struct {
	ID                uuid.UUID        `db:"id" json:"id"`
	UserID            uuid.UUID        `db:"user_id" json:"user_id"`
	InvestedAmount    decimal.Decimal  `db:"invested_amount" json:"invested_amount"`
	TotalProfitEarned decimal.Decimal  `db:"total_profit_earned" json:"total_profit_earned"`
	Status            InvestmentStatus `db:"status" json:"status"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
}

// Snapshot is the set of ledger rows relevant to one user's balance.
type Snapshot struct {
	Deposits    []Deposit
	Withdrawals []Withdrawal
	Investments []Investment
}
