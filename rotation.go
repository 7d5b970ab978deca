package dbridge

import (
	"bufio"
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/banksean/dbridge/adb"
)

// RotationObserver is notified with the new orientation value whenever the
// device's rotation watcher reports a change. Observers must be
// non-blocking; they are invoked serially in registration order.
type RotationObserver func(orientation int)

// RotationWatcher spawns a dedicated on-device process that emits
// orientation values, reads its stdout line-by-line in a background
// goroutine, and fans out changes to every registered observer. Exactly
// one live background reader exists per device.
type RotationWatcher struct {
	client *adb.Client
	serial string

	mu        sync.Mutex
	observers []RotationObserver
	last      int
	started   bool

	proc   *adb.Process
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRotationWatcher returns a RotationWatcher bound to one device.
func NewRotationWatcher(client *adb.Client, serial string) *RotationWatcher {
	return &RotationWatcher{client: client, serial: serial, last: -1}
}

// Register adds an observer. Must be called before Start: observers are
// registered synchronously before the background reader begins.
func (rw *RotationWatcher) Register(obs RotationObserver) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.observers = append(rw.observers, obs)
}

// rotationAgentCmd is the shell invocation that launches the dedicated
// on-device rotation-watcher process. The spec leaves the exact agent
// binary unspecified beyond "a dedicated on-device process that emits
// orientation values"; this engine reuses the same agent the capture
// stream reads orientation from, which already has an orientation-reporting
// mode independent of image streaming.
const rotationAgentCmd = "/data/local/tmp/minicap -i"

// Start launches the rotation-watcher process and begins reading its
// stdout line-by-line in a background goroutine. Safe to call once per
// RotationWatcher lifetime.
func (rw *RotationWatcher) Start(ctx context.Context) error {
	rw.mu.Lock()
	if rw.started {
		rw.mu.Unlock()
		return nil
	}
	rw.started = true
	rw.mu.Unlock()

	watchCtx, cancel := context.WithCancel(ctx)
	proc, err := rw.client.ShellAsync(watchCtx, rw.serial, strings.Fields(rotationAgentCmd)...)
	if err != nil {
		cancel()
		return err
	}

	rw.mu.Lock()
	rw.proc = proc
	rw.cancel = cancel
	rw.done = make(chan struct{})
	rw.mu.Unlock()

	go rw.readLoop(watchCtx)
	return nil
}

func (rw *RotationWatcher) readLoop(ctx context.Context) {
	defer close(rw.done)

	rw.mu.Lock()
	proc := rw.proc
	rw.mu.Unlock()
	if proc == nil {
		return
	}

	scanner := bufio.NewScanner(proc.Stdout)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.Atoi(line)
		if err != nil || v < 0 || v > 3 {
			slog.WarnContext(ctx, "rotation watcher: unparseable line", "line", line, "serial", rw.serial)
			continue
		}
		rw.notify(v)
	}
	if err := scanner.Err(); err != nil {
		slog.ErrorContext(ctx, "rotation watcher: read error, terminating background task", "error", err, "serial", rw.serial)
	}
}

func (rw *RotationWatcher) notify(v int) {
	rw.mu.Lock()
	if v == rw.last {
		rw.mu.Unlock()
		return
	}
	rw.last = v
	observers := append([]RotationObserver(nil), rw.observers...)
	rw.mu.Unlock()

	for _, obs := range observers {
		obs(v)
	}
}

// Stop terminates the background process and waits for the reader
// goroutine to exit.
func (rw *RotationWatcher) Stop() {
	rw.mu.Lock()
	cancel, proc, done := rw.cancel, rw.proc, rw.done
	rw.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if proc != nil {
		proc.Kill()
	}
	if done != nil {
		<-done
	}
}
