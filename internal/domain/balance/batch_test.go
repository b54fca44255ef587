package balance_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/bitharvest/recon-api/internal/domain/balance"
	"github.com/bitharvest/recon-api/internal/domain/ledger"
)

// errStore fails writes for one designated user only.
type errStore struct {
	*fakeStore
	failFor uuid.UUID
}

func (e *errStore) ApplyCorrection(ctx context.Context, userID uuid.UUID, target balance.Totals, before balance.Totals) error {
	if userID == e.failFor {
		return balance.ErrPersistence
	}
	return e.fakeStore.ApplyCorrection(ctx, userID, target, before)
}

func TestReconcileAllCounts(t *testing.T) {
	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	l := &fakeLedger{
		investors: users,
		snapshots: map[uuid.UUID]*ledger.Snapshot{
			users[0]: {Deposits: []ledger.Deposit{approvedDeposit(users[0], "100")}},
			users[1]: {Deposits: []ledger.Deposit{approvedDeposit(users[1], "200")}},
			users[2]: {Deposits: []ledger.Deposit{approvedDeposit(users[2], "300")}},
		},
	}
	store := newFakeStore()
	runner := balance.NewBatchRunner(newService(l, store), l)

	summary, err := runner.ReconcileAll(context.Background())
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	if summary.Processed != 3 || summary.Fixed != 3 || summary.Errors != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestReconcileAllIsolatesPerUserFailure(t *testing.T) {
	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	l := &fakeLedger{
		investors: users,
		snapshots: map[uuid.UUID]*ledger.Snapshot{
			users[0]: {Deposits: []ledger.Deposit{approvedDeposit(users[0], "10")}},
			users[1]: {Deposits: []ledger.Deposit{approvedDeposit(users[1], "20")}},
			users[2]: {Deposits: []ledger.Deposit{approvedDeposit(users[2], "30")}},
		},
	}
	store := &errStore{fakeStore: newFakeStore(), failFor: users[1]}
	runner := balance.NewBatchRunner(balance.NewService(l, store, &fakeLocker{}, dec("0.01")), l)

	summary, err := runner.ReconcileAll(context.Background())
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	if summary.Processed != 3 {
		t.Fatalf("expected all 3 users processed, got %d", summary.Processed)
	}
	if summary.Fixed != 2 {
		t.Fatalf("expected 2 fixed, got %d", summary.Fixed)
	}
	if summary.Errors != 1 {
		t.Fatalf("expected 1 error, got %d", summary.Errors)
	}

	// The failing user must not block the users after it.
	if got := store.balances[users[2]]; got == nil || !got.AvailableBalance.Equal(dec("30")) {
		t.Fatal("user after the failing one was not corrected")
	}
}

func TestReconcileAllCountsTimedOutRead(t *testing.T) {
	users := []uuid.UUID{uuid.New(), uuid.New()}
	l := &fakeLedger{
		investors: users,
		snapshots: map[uuid.UUID]*ledger.Snapshot{
			users[1]: {Deposits: []ledger.Deposit{approvedDeposit(users[1], "50")}},
		},
		snapshotErrs: map[uuid.UUID]error{
			users[0]: fmt.Errorf("%w: deposits for user %s: %v",
				ledger.ErrDataAccess, users[0], context.DeadlineExceeded),
		},
	}
	store := newFakeStore()
	runner := balance.NewBatchRunner(newService(l, store), l)

	summary, err := runner.ReconcileAll(context.Background())
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	if summary.Processed != 2 || summary.Errors != 1 || summary.Fixed != 1 {
		t.Fatalf("timed-out read must count as a per-user error: %+v", summary)
	}
	if store.balances[users[0]] != nil {
		t.Fatal("no balance may be written for the user whose read timed out")
	}
	if got := store.balances[users[1]]; got == nil || !got.AvailableBalance.Equal(dec("50")) {
		t.Fatal("user after the timed-out one was not corrected")
	}
}

func TestReconcileAllEnumerationErrorIsFatal(t *testing.T) {
	l := &fakeLedger{err: ledger.ErrDataAccess}
	runner := balance.NewBatchRunner(newService(l, newFakeStore()), l)

	_, err := runner.ReconcileAll(context.Background())
	if !errors.Is(err, ledger.ErrDataAccess) {
		t.Fatalf("expected ErrDataAccess, got %v", err)
	}
}

func TestReconcileAllConverges(t *testing.T) {
	users := []uuid.UUID{uuid.New(), uuid.New()}
	l := &fakeLedger{
		investors: users,
		snapshots: map[uuid.UUID]*ledger.Snapshot{
			users[0]: {Deposits: []ledger.Deposit{approvedDeposit(users[0], "100")}},
			users[1]: {Deposits: []ledger.Deposit{approvedDeposit(users[1], "200")}},
		},
	}
	store := newFakeStore()
	runner := balance.NewBatchRunner(newService(l, store), l)

	if _, err := runner.ReconcileAll(context.Background()); err != nil {
		t.Fatalf("first batch failed: %v", err)
	}

	second, err := runner.ReconcileAll(context.Background())
	if err != nil {
		t.Fatalf("second batch failed: %v", err)
	}
	if second.Fixed != 0 {
		t.Fatalf("second batch over unchanged ledger fixed %d users, want 0", second.Fixed)
	}
}
