package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/bitharvest/recon-api/internal/pkg/lock"
)

func TestNilClientIsNoOp(t *testing.T) {
	l := lock.New(nil, time.Second)

	release, err := l.Acquire(context.Background(), "recon:user:any")
	if err != nil {
		t.Fatalf("nil-client acquire must succeed: %v", err)
	}
	release()

	// And it never contends with itself.
	release2, err := l.Acquire(context.Background(), "recon:user:any")
	if err != nil {
		t.Fatalf("second acquire must also succeed: %v", err)
	}
	release2()
}
