package balance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bitharvest/recon-api/internal/domain/balance"
	"github.com/bitharvest/recon-api/internal/domain/ledger"
	"github.com/bitharvest/recon-api/internal/pkg/lock"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeLedger struct {
	snapshots    map[uuid.UUID]*ledger.Snapshot
	snapshotErrs map[uuid.UUID]error
	investors    []uuid.UUID
	err          error
}

func (f *fakeLedger) Snapshot(ctx context.Context, userID uuid.UUID) (*ledger.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err, ok := f.snapshotErrs[userID]; ok {
		return nil, err
	}
	if s, ok := f.snapshots[userID]; ok {
		return s, nil
	}
	return &ledger.Snapshot{}, nil
}

func (f *fakeLedger) ActiveInvestorIDs(ctx context.Context) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.investors, nil
}

type fakeStore struct {
	balances map[uuid.UUID]*balance.UserBalance
	writeErr error
	writes   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{balances: make(map[uuid.UUID]*balance.UserBalance)}
}

func (f *fakeStore) Get(ctx context.Context, userID uuid.UUID) (*balance.UserBalance, error) {
	return f.balances[userID], nil
}

func (f *fakeStore) ApplyCorrection(ctx context.Context, userID uuid.UUID, target balance.Totals, before balance.Totals) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes++
	f.balances[userID] = &balance.UserBalance{
		UserID:           userID,
		AvailableBalance: target.Available,
		InvestedBalance:  target.Invested,
	}
	return nil
}

type fakeLocker struct {
	busy bool
}

func (f *fakeLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if f.busy {
		return nil, lock.ErrNotAcquired
	}
	return func() {}, nil
}

func approvedDeposit(userID uuid.UUID, amount string) ledger.Deposit {
	return ledger.Deposit{UserID: userID, Amount: dec(amount), Status: ledger.DepositStatusApproved}
}

func newService(l *fakeLedger, s *fakeStore) *balance.Service {
	return balance.NewService(l, s, &fakeLocker{}, dec("0.01"))
}

func TestReconcileUninitializedUserAlwaysCorrects(t *testing.T) {
	userID := uuid.New()
	l := &fakeLedger{snapshots: map[uuid.UUID]*ledger.Snapshot{
		userID: {Deposits: []ledger.Deposit{approvedDeposit(userID, "75")}},
	}}
	store := newFakeStore()

	result, err := newService(l, store).Reconcile(context.Background(), userID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if !result.Corrected {
		t.Fatal("expected correction for uninitialized user")
	}
	if !result.AvailableBefore.IsZero() {
		t.Fatalf("expected balance_before 0, got %s", result.AvailableBefore)
	}
	if !result.AvailableAfter.Equal(dec("75")) {
		t.Fatalf("expected available 75 after, got %s", result.AvailableAfter)
	}
}

func TestReconcileUninitializedZeroLedgerStillWrites(t *testing.T) {
	userID := uuid.New()
	store := newFakeStore()

	result, err := newService(&fakeLedger{}, store).Reconcile(context.Background(), userID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if !result.Corrected {
		t.Fatal("expected first write even with zero ledger totals")
	}
	if store.writes != 1 {
		t.Fatalf("expected 1 write, got %d", store.writes)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	userID := uuid.New()
	l := &fakeLedger{snapshots: map[uuid.UUID]*ledger.Snapshot{
		userID: {
			Deposits:    []ledger.Deposit{approvedDeposit(userID, "200")},
			Withdrawals: []ledger.Withdrawal{{UserID: userID, Amount: dec("50"), Status: ledger.WithdrawalStatusCompleted, WithdrawalType: ledger.WithdrawalTypeWallet}},
			Investments: []ledger.Investment{{UserID: userID, InvestedAmount: dec("100"), Status: ledger.InvestmentStatusActive}},
		},
	}}
	store := newFakeStore()
	svc := newService(l, store)

	first, err := svc.Reconcile(context.Background(), userID)
	if err != nil {
		t.Fatalf("first reconcile failed: %v", err)
	}
	if !first.Corrected {
		t.Fatal("expected first run to correct")
	}

	second, err := svc.Reconcile(context.Background(), userID)
	if err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}
	if second.Corrected {
		t.Fatal("expected second run over unchanged ledger to be a no-op")
	}
	if !second.AvailableAfter.Equal(dec("150")) || !second.InvestedAfter.Equal(dec("100")) {
		t.Fatalf("unexpected totals after second run: available=%s invested=%s",
			second.AvailableAfter, second.InvestedAfter)
	}
}

func TestReconcileDriftBoundary(t *testing.T) {
	tests := []struct {
		name          string
		cached        string
		wantCorrected bool
	}{
		{"drift exactly at tolerance", "99.99", false},
		{"drift just over tolerance", "99.989", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID := uuid.New()
			l := &fakeLedger{snapshots: map[uuid.UUID]*ledger.Snapshot{
				userID: {Deposits: []ledger.Deposit{approvedDeposit(userID, "100")}},
			}}
			store := newFakeStore()
			store.balances[userID] = &balance.UserBalance{
				UserID:           userID,
				AvailableBalance: dec(tt.cached),
				InvestedBalance:  decimal.Zero,
			}

			result, err := newService(l, store).Reconcile(context.Background(), userID)
			if err != nil {
				t.Fatalf("reconcile failed: %v", err)
			}
			if result.Corrected != tt.wantCorrected {
				t.Fatalf("corrected = %v, want %v (cached %s vs computed 100)",
					result.Corrected, tt.wantCorrected, tt.cached)
			}
		})
	}
}

func TestReconcileIndependentToleranceOnInvested(t *testing.T) {
	userID := uuid.New()
	l := &fakeLedger{snapshots: map[uuid.UUID]*ledger.Snapshot{
		userID: {
			Deposits:    []ledger.Deposit{approvedDeposit(userID, "100")},
			Investments: []ledger.Investment{{UserID: userID, InvestedAmount: dec("500"), Status: ledger.InvestmentStatusActive}},
		},
	}}
	store := newFakeStore()
	// Available matches exactly; only invested drifted.
	store.balances[userID] = &balance.UserBalance{
		UserID:           userID,
		AvailableBalance: dec("100"),
		InvestedBalance:  dec("490"),
	}

	result, err := newService(l, store).Reconcile(context.Background(), userID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !result.Corrected {
		t.Fatal("expected invested drift alone to trigger correction")
	}
	if !result.InvestedAfter.Equal(dec("500")) {
		t.Fatalf("expected invested 500 after, got %s", result.InvestedAfter)
	}
}

func TestReconcileLockedUser(t *testing.T) {
	svc := balance.NewService(&fakeLedger{}, newFakeStore(), &fakeLocker{busy: true}, dec("0.01"))

	_, err := svc.Reconcile(context.Background(), uuid.New())
	if !errors.Is(err, balance.ErrUserBusy) {
		t.Fatalf("expected ErrUserBusy, got %v", err)
	}
}

func TestReconcileLedgerErrorPropagates(t *testing.T) {
	userID := uuid.New()
	l := &fakeLedger{err: ledger.ErrDataAccess}
	store := newFakeStore()

	_, err := newService(l, store).Reconcile(context.Background(), userID)
	if !errors.Is(err, ledger.ErrDataAccess) {
		t.Fatalf("expected ErrDataAccess, got %v", err)
	}
	if store.writes != 0 {
		t.Fatal("no write should happen when the ledger read fails")
	}
}
