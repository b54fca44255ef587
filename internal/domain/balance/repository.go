package balance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Repository struct {
	db      *sqlx.DB
	timeout time.Duration
}

type RepositoryOption func(*Repository)

// WithTimeout bounds each write transaction. A correction that cannot
// commit within the deadline rolls back and surfaces as ErrPersistence.
func WithTimeout(d time.Duration) RepositoryOption {
	return func(r *Repository) {
		r.timeout = d
	}
}

func NewRepository(db *sqlx.DB, opts ...RepositoryOption) *Repository {
	r := &Repository{db: db, timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the cached balance row, or nil when the user has never
// been initialized. Absence is the "never reconciled" state, not an error.
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (*UserBalance, error) {
	var ub UserBalance
	err := r.db.GetContext(ctx, &ub, `
		SELECT user_id, available_balance, invested_balance, updated_at
		FROM user_balances
		WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get balance for user %s: %w", userID, err)
	}
	return &ub, nil
}

func (r *Repository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func (r *Repository) upsertBalance(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, t Totals) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_balances (user_id, available_balance, invested_balance, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE
		SET available_balance = EXCLUDED.available_balance,
		    invested_balance = EXCLUDED.invested_balance,
		    updated_at = now()
	`, userID, t.Available, t.Invested)
	return err
}

func (r *Repository) insertTransaction(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, txType TransactionType, amount, before, after decimal.Decimal, referenceID, description string) error {
	var ref interface{}
	if referenceID == "" {
		ref = nil
	} else {
		ref = referenceID
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO balance_transactions
			(user_id, transaction_type, amount, balance_before, balance_after, reference_id, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, userID, string(txType), amount, before, after, ref, description)
	return err
}

// ApplyCorrection writes the recomputed totals and the admin_adjustment
// audit row as one transaction, so a balance update can never land
// unaudited.
func (r *Repository) ApplyCorrection(ctx context.Context, userID uuid.UUID, target Totals, before Totals) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.beginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrPersistence, err)
	}
	defer tx.Rollback()

	if err := r.upsertBalance(ctx, tx, userID, target); err != nil {
		return fmt.Errorf("%w: upsert balance for user %s: %v", ErrPersistence, userID, err)
	}

	delta := target.Available.Sub(before.Available)
	if err := r.insertTransaction(ctx, tx, userID, TransactionTypeAdminAdjustment,
		delta, before.Available, target.Available, "", "balance reconciliation correction"); err != nil {
		return fmt.Errorf("%w: insert audit row for user %s: %v", ErrPersistence, userID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit for user %s: %v", ErrPersistence, userID, err)
	}
	return nil
}

// Decrement debits the available balance under a row lock. The debit is
// rejected with ErrInsufficientBalance when it would go negative; the
// balance is left unchanged in that case.
func (r *Repository) Decrement(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, referenceID, description string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.beginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrPersistence, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_balances (user_id, available_balance, invested_balance)
		VALUES ($1, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return fmt.Errorf("%w: ensure balance row for user %s: %v", ErrPersistence, userID, err)
	}

	var available decimal.Decimal
	if err := tx.GetContext(ctx, &available, `
		SELECT available_balance FROM user_balances WHERE user_id = $1 FOR UPDATE
	`, userID); err != nil {
		return fmt.Errorf("%w: lock balance row for user %s: %v", ErrPersistence, userID, err)
	}

	next := available.Sub(amount)
	if next.IsNegative() {
		return ErrInsufficientBalance
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE user_balances SET available_balance = $1, updated_at = now() WHERE user_id = $2
	`, next, userID); err != nil {
		return fmt.Errorf("%w: update balance for user %s: %v", ErrPersistence, userID, err)
	}

	if err := r.insertTransaction(ctx, tx, userID, TransactionTypeDebit,
		amount.Neg(), available, next, referenceID, description); err != nil {
		return fmt.Errorf("%w: insert audit row for user %s: %v", ErrPersistence, userID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit for user %s: %v", ErrPersistence, userID, err)
	}
	return nil
}

// Transactions returns the most recent audit rows for a user.
func (r *Repository) Transactions(ctx context.Context, userID uuid.UUID, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows []Transaction
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, transaction_type, amount, balance_before, balance_after,
		       reference_id, description, created_at
		FROM balance_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("transactions for user %s: %w", userID, err)
	}
	return rows, nil
}
