package balance_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bitharvest/recon-api/internal/domain/balance"
)

// Routes can be exercised without live backends for the paths that
// reject input before any I/O.
func testRouter() http.Handler {
	h := balance.NewHandler(nil, nil, nil, nil, nil, nil)
	return h.Routes()
}

func TestDebitRejectsInvalidUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/balances/not-a-uuid/debit", strings.NewReader(`{"amount":"10"}`))
	rec := httptest.NewRecorder()

	testRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid user id, got %d", rec.Code)
	}
}

func TestDebitRejectsInvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/balances/5f6bdd0a-4f8e-4f09-9a09-2c4c62f7d2a1/debit", strings.NewReader(`{`))
	rec := httptest.NewRecorder()

	testRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestDebitRejectsInvalidAmount(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/balances/5f6bdd0a-4f8e-4f09-9a09-2c4c62f7d2a1/debit", strings.NewReader(`{"amount":"-10"}`))
	rec := httptest.NewRecorder()

	testRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for negative amount, got %d", rec.Code)
	}
}

func TestReconcileRejectsInvalidUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/reconciliation/users/42", nil)
	rec := httptest.NewRecorder()

	testRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid user id, got %d", rec.Code)
	}
}
