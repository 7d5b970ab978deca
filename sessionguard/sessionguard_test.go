package sessionguard

import (
	"context"
	"testing"
	"time"
)

func TestAcquireReleaseRoundTrip(t *testing.T) {
	g := New(nil)
	ctx := context.Background()

	id, err := g.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if id == "" {
		t.Error("Acquire() returned empty session id")
	}
	g.Release(ctx)

	if _, err := g.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire() error = %v", err)
	}
}

func TestAcquireBlocksUntilReleased(t *testing.T) {
	g := New(nil)
	ctx := context.Background()

	if _, err := g.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		if _, err := g.Acquire(ctx); err != nil {
			t.Errorf("blocked Acquire() error = %v", err)
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second Acquire() returned before Release")
	case <-time.After(50 * time.Millisecond):
	}

	g.Release(ctx)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Acquire() never unblocked after Release")
	}
}

func TestShutdownPreventsFurtherAcquire(t *testing.T) {
	g := New(nil)
	ctx := context.Background()
	g.Shutdown(ctx, nil)

	if _, err := g.Acquire(ctx); err != ErrGuardClosing {
		t.Errorf("Acquire() after Shutdown error = %v, want ErrGuardClosing", err)
	}
}

func TestShutdownInvokesStopOnHeldSession(t *testing.T) {
	var stopped any
	g := New(func(ctx context.Context, session any) { stopped = session })
	ctx := context.Background()

	if _, err := g.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	g.Shutdown(ctx, "session-1")

	if stopped != "session-1" {
		t.Errorf("Stop called with %v, want %q", stopped, "session-1")
	}
}
