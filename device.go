package dbridge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/banksean/dbridge/adb"
	"github.com/banksean/dbridge/ledger"
)

// DeviceHandle is the composition root for one device: it owns a bridge
// client, forward manager, probe, agent deployer, capture/touch streams and
// a rotation watcher, and wires rotation-watcher notifications into the
// capture and touch streams' UpdateRotation hooks. This replaces the
// source's _ADB -> _Device -> ADB inheritance chain with plain composition,
// per spec.md §9: every capability here is a field, not a base class.
type DeviceHandle struct {
	ID DeviceID

	Client   *adb.Client
	Forward  *ForwardManager
	Probe    *DeviceProbe
	Deploy   *AgentDeployer
	Rotation *RotationWatcher

	Capture CaptureCapability
	Touch   TouchCapability

	captureStream *CaptureStream
	touchStream   *TouchStream
}

// Config holds the inputs a composition root needs beyond the device
// serial itself.
type Config struct {
	BridgePath string
	AgentRoot  string
	LedgerPath string // empty disables the install ledger
}

// NewDeviceHandle wires every component for one device. It starts nothing:
// the ABI and SDK level that decide which agent binaries Deploy.Install
// pushes are passed later to each stream's Start; callers that don't know
// them in advance can query DeviceProbe.ABI/SDKLevel first.
func NewDeviceHandle(ctx context.Context, id DeviceID, cfg Config) (*DeviceHandle, error) {
	client := adb.NewClient(cfg.BridgePath)

	var ledgerDB *ledger.Ledger
	if cfg.LedgerPath != "" {
		db, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("device: open ledger: %w", err)
		}
		ledgerDB = db
	}

	forward := NewForwardManager(client, id.Serial)
	probe := NewDeviceProbe(client, id.Serial)
	deploy := NewAgentDeployer(client, id.Serial, cfg.AgentRoot, ledgerDB)

	captureStream := NewCaptureStream(client, forward, probe, deploy, id.Serial)
	touchStream := NewTouchStream(client, forward, probe, deploy, id.Serial, AgentTouch)
	rotation := NewRotationWatcher(client, id.Serial)

	dh := &DeviceHandle{
		ID:            id,
		Client:        client,
		Forward:       forward,
		Probe:         probe,
		Deploy:        deploy,
		Rotation:      rotation,
		Capture:       captureStream,
		Touch:         touchStream,
		captureStream: captureStream,
		touchStream:   touchStream,
	}

	// Fan rotation changes into both streams. Observers must be
	// non-blocking; UpdateRotation on each stream does its own locking and
	// I/O, so it is dispatched to its own goroutine rather than run inline
	// on the rotation watcher's single reader goroutine.
	dh.Rotation.Register(func(orientation int) {
		go func() {
			if err := dh.Capture.UpdateRotation(ctx, orientation); err != nil {
				slog.ErrorContext(ctx, "device: capture rotation update failed", "error", err, "serial", id.Serial)
			}
		}()
		go func() {
			if err := dh.Touch.UpdateRotation(ctx, orientation); err != nil {
				slog.ErrorContext(ctx, "device: touch rotation update failed", "error", err, "serial", id.Serial)
			}
		}()
	})

	return dh, nil
}

// Shutdown tears everything down in the order spec.md §9 mandates: touch
// socket, then capture socket, then forwards, then the rotation task, then
// (implicitly, by process exit) the shell pipe. Every step runs even if an
// earlier one failed; only forward removal can return an error.
func (dh *DeviceHandle) Shutdown(ctx context.Context) error {
	dh.touchStream.Stop(ctx)
	dh.captureStream.Stop(ctx)

	err := dh.Forward.Remove(ctx, "")

	dh.Rotation.Stop()

	if err != nil {
		return fmt.Errorf("device: remove forwards: %w", err)
	}
	return nil
}
