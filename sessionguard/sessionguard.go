// Package sessionguard enforces the "at most one active session" invariant
// the capture and touch streams each require per device. It is a single-
// permit narrowing of a pooled-resource acquire/release/shutdown shape: the
// invariant here is exclusivity, not reuse, so the pool never holds more
// than one live session.
package sessionguard

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ErrGuardClosing is returned by Acquire once Shutdown has been called.
var ErrGuardClosing = errors.New("sessionguard: shutting down")

// Guard admits at most one concurrent holder. Acquire identifies the holder
// only by a generated session ID; the opaque session value handed to Stop
// (e.g. the open socket or launched agent process for that session) is
// supplied by the caller of Shutdown.
type Guard struct {
	slot    chan any
	mu      sync.Mutex
	closing bool
	Stop    func(ctx context.Context, session any)
}

// New returns an empty Guard. stop is invoked on whatever session value is
// being released during Shutdown.
func New(stop func(ctx context.Context, session any)) *Guard {
	return &Guard{
		slot: make(chan any, 1),
		Stop: stop,
	}
}

// Acquire blocks until the single permit is free, then returns a session ID
// identifying this holder in logs. The caller must call Release exactly
// once per successful Acquire.
func (g *Guard) Acquire(ctx context.Context) (string, error) {
	g.mu.Lock()
	if g.closing {
		g.mu.Unlock()
		return "", ErrGuardClosing
	}
	g.mu.Unlock()

	id := uuid.NewString()
	select {
	case g.slot <- struct{}{}:
		slog.DebugContext(ctx, "sessionguard.Acquire", "session", id)
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Release frees the permit, making it available to the next Acquire.
func (g *Guard) Release(ctx context.Context) {
	select {
	case <-g.slot:
		slog.DebugContext(ctx, "sessionguard.Release")
	default:
		slog.DebugContext(ctx, "sessionguard.Release called without a held permit")
	}
}

// Shutdown marks the guard closed so no further Acquire succeeds, and
// invokes Stop on the given session if one is currently held.
func (g *Guard) Shutdown(ctx context.Context, held any) {
	g.mu.Lock()
	g.closing = true
	g.mu.Unlock()
	if held != nil && g.Stop != nil {
		g.Stop(ctx, held)
	}
	select {
	case <-g.slot:
	default:
	}
}
