package balance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/bitharvest/recon-api/internal/domain/ledger"
	"github.com/bitharvest/recon-api/internal/pkg/lock"
)

// LedgerReader is the read side of the reconciler.
type LedgerReader interface {
	Snapshot(ctx context.Context, userID uuid.UUID) (*ledger.Snapshot, error)
	ActiveInvestorIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Store is the cached-balance side: current value plus corrective writes.
type Store interface {
	Get(ctx context.Context, userID uuid.UUID) (*UserBalance, error)
	ApplyCorrection(ctx context.Context, userID uuid.UUID, target Totals, before Totals) error
}

// Locker serializes reconciliation against live balance mutations per user.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

type Service struct {
	ledger  LedgerReader
	store   Store
	locker  Locker
	epsilon decimal.Decimal
}

func NewService(ledgerRepo LedgerReader, store Store, locker Locker, epsilon decimal.Decimal) *Service {
	if epsilon.IsZero() {
		epsilon = decimal.RequireFromString("0.01")
	}
	return &Service{
		ledger:  ledgerRepo,
		store:   store,
		locker:  locker,
		epsilon: epsilon,
	}
}

// Reconcile recomputes one user's balance from the ledger and corrects
// the cached row when drift exceeds tolerance. The per-user lock is held
// across read-compute-write so the balance_before recorded in the audit
// row is the value the decision was made on.
func (s *Service) Reconcile(ctx context.Context, userID uuid.UUID) (*Result, error) {
	release, err := s.locker.Acquire(ctx, "recon:user:"+userID.String())
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, fmt.Errorf("%w: user %s", ErrUserBusy, userID)
		}
		return nil, fmt.Errorf("acquire lock for user %s: %w", userID, err)
	}
	defer release()

	cached, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	before := Totals{Available: decimal.Zero, Invested: decimal.Zero}
	initialized := cached != nil
	if initialized {
		before = Totals{Available: cached.AvailableBalance, Invested: cached.InvestedBalance}
	}

	snap, err := s.ledger.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	target := FromSnapshot(snap)

	result := &Result{
		UserID:          userID,
		AvailableBefore: before.Available,
		InvestedBefore:  before.Invested,
		AvailableAfter:  before.Available,
		InvestedAfter:   before.Invested,
	}

	// A user with no cached row always gets a first write, even when the
	// computed totals are zero.
	needsFix := !initialized ||
		exceedsTolerance(target.Available, before.Available, s.epsilon) ||
		exceedsTolerance(target.Invested, before.Invested, s.epsilon)

	if !needsFix {
		log.Debug().
			Str("user_id", userID.String()).
			Str("available", before.Available.String()).
			Str("invested", before.Invested.String()).
			Msg("balance within tolerance")
		return result, nil
	}

	if err := s.store.ApplyCorrection(ctx, userID, target, before); err != nil {
		return nil, err
	}

	result.AvailableAfter = target.Available
	result.InvestedAfter = target.Invested
	result.Corrected = true

	log.Info().
		Str("user_id", userID.String()).
		Str("available_before", before.Available.String()).
		Str("available_after", target.Available.String()).
		Str("invested_before", before.Invested.String()).
		Str("invested_after", target.Invested.String()).
		Msg("balance corrected")

	return result, nil
}
