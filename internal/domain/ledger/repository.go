package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/bitharvest/recon-api/internal/pkg/retry"
)

// Repository reads financial event rows from Postgres. Reads are retried
// with exponential backoff since the store is remote, and each attempt
// carries its own deadline so a hung call fails the user, not the batch.
type Repository struct {
	db         *sqlx.DB
	attempts   int
	retryDelay time.Duration
	timeout    time.Duration
}

type Option func(*Repository)

func WithRetry(attempts int, delay time.Duration) Option {
	return func(r *Repository) {
		r.attempts = attempts
		r.retryDelay = delay
	}
}

// WithTimeout bounds every individual read attempt.
func WithTimeout(d time.Duration) Option {
	return func(r *Repository) {
		r.timeout = d
	}
}

func NewRepository(db *sqlx.DB, opts ...Option) *Repository {
	r := &Repository{
		db:         db,
		attempts:   3,
		retryDelay: 200 * time.Millisecond,
		timeout:    10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) read(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := retry.Do(ctx, r.attempts, r.retryDelay, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return fn(attemptCtx)
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDataAccess, op, err)
	}
	return nil
}

func (r *Repository) DepositsForUser(ctx context.Context, userID uuid.UUID) ([]Deposit, error) {
	var rows []Deposit
	err := r.read(ctx, "deposits for user "+userID.String(), func(ctx context.Context) error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, `
			SELECT id, user_id, amount, status, created_at
			FROM deposits
			WHERE user_id = $1 AND status = $2
		`, userID, DepositStatusApproved)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) WithdrawalsForUser(ctx context.Context, userID uuid.UUID) ([]Withdrawal, error) {
	var rows []Withdrawal
	err := r.read(ctx, "withdrawals for user "+userID.String(), func(ctx context.Context) error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, `
			SELECT id, user_id, amount, status, withdrawal_type, created_at
			FROM withdrawals
			WHERE user_id = $1 AND status = $2 AND withdrawal_type = $3
		`, userID, WithdrawalStatusCompleted, WithdrawalTypeWallet)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) InvestmentsForUser(ctx context.Context, userID uuid.UUID) ([]Investment, error) {
	var rows []Investment
	err := r.read(ctx, "investments for user "+userID.String(), func(ctx context.Context) error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, `
			SELECT id, user_id, invested_amount, total_profit_earned, status, created_at
			FROM investments
			WHERE user_id = $1 AND status = $2
		`, userID, InvestmentStatusActive)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Snapshot fetches all balance-relevant rows for one user.
func (r *Repository) Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	deposits, err := r.DepositsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	withdrawals, err := r.WithdrawalsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	investments, err := r.InvestmentsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Deposits:    deposits,
		Withdrawals: withdrawals,
		Investments: investments,
	}, nil
}

// EarningsTotalForUser sums all earning rows for a user. Earnings are
// informational and not part of the balance formula.
func (r *Repository) EarningsTotalForUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.read(ctx, "earnings total for user "+userID.String(), func(ctx context.Context) error {
		return r.db.GetContext(ctx, &total, `
			SELECT COALESCE(SUM(amount), 0)
			FROM earnings
			WHERE user_id = $1
		`, userID)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// ActiveInvestorIDs returns every user currently holding at least one
// active investment, the proxy for "has financial activity".
func (r *Repository) ActiveInvestorIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.read(ctx, "active investor ids", func(ctx context.Context) error {
		ids = ids[:0]
		return r.db.SelectContext(ctx, &ids, `
			SELECT DISTINCT user_id
			FROM investments
			WHERE status = $1
		`, InvestmentStatusActive)
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
