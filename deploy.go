package dbridge

import (
	"context"
	"crypto/subtle"
	"fmt"
	"path/filepath"
	"time"

	"github.com/banksean/dbridge/adb"
	"github.com/banksean/dbridge/ledger"
	"golang.org/x/crypto/blake2b"
)

// AgentDeployer selects the ABI/SDK-specific native agent binary (and its
// shared object, for capture), pushes it to the device, sets its
// executable permission, and verifies presence. AgentRoot anchors the host
// binary layout to a caller-supplied installation root rather than the
// process's working directory (resolving the open question in spec.md §9).
type AgentDeployer struct {
	client    *adb.Client
	serial    string
	ledger    *ledger.Ledger
	hostFiles HostFiles
	AgentRoot string
}

// NewAgentDeployer returns an AgentDeployer. ledgerDB may be nil, in which
// case every Install call re-pushes unconditionally (no short-circuit).
func NewAgentDeployer(client *adb.Client, serial, agentRoot string, ledgerDB *ledger.Ledger) *AgentDeployer {
	return &AgentDeployer{client: client, serial: serial, ledger: ledgerDB, AgentRoot: agentRoot, hostFiles: NewDefaultHostFiles()}
}

// agentExecName maps an AgentKind to its on-device executable name.
func agentExecName(kind AgentKind) string {
	switch kind {
	case AgentCapture:
		return "minicap"
	case AgentTouch:
		return "minitouch"
	case AgentRotation:
		return "maxtouch"
	default:
		return string(kind)
	}
}

// resolve computes the host and device paths for kind given (abi, sdk),
// per spec.md §4.5: ./android/<abi>/bin/<agent> for executables,
// ./android/<abi>/lib/android-<sdk>/<agent>.so for libraries.
func (d *AgentDeployer) resolve(kind AgentKind, abi string, sdk int) (execHost, execDevice, libHost, libDevice string) {
	name := agentExecName(kind)
	execHost = filepath.Join(d.AgentRoot, "android", abi, "bin", name)
	execDevice = "/data/local/tmp/" + name
	libHost = filepath.Join(d.AgentRoot, "android", abi, "lib", fmt.Sprintf("android-%d", sdk), name+".so")
	libDevice = "/data/local/tmp/" + name + ".so"
	return
}

func checksumFile(hf HostFiles, path string) (string, error) {
	b, err := hf.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(b)
	return fmt.Sprintf("%x", sum), nil
}

// IsInstalled reports whether kind's executable, and its shared object if
// the host ships one for (abi, sdk), are already on the device, per
// spec.md §4.5: push is only skipped when both are present.
func (d *AgentDeployer) IsInstalled(ctx context.Context, abi string, sdk int, kind AgentKind) (bool, error) {
	_, _, libHost, _ := d.resolve(kind, abi, sdk)
	name := agentExecName(kind)

	execOK, err := d.client.CheckFile(ctx, d.serial, "/data/local/tmp", name)
	if err != nil {
		return false, err
	}
	if !execOK {
		return false, nil
	}

	if _, err := d.hostFiles.Stat(libHost); err != nil {
		// No library shipped for this agent on the host; executable alone
		// satisfies the check.
		return true, nil
	}
	libOK, err := d.client.CheckFile(ctx, d.serial, "/data/local/tmp", name+".so")
	if err != nil {
		return false, err
	}
	return libOK, nil
}

// Install pushes kind's agent binary (and library, if the host ships one)
// to the device, chmods it to 0755, and verifies it landed. If a ledger is
// configured and its checksum for this (device, kind) matches the host
// binary's current checksum, and check_file still confirms presence, the
// push+chmod steps are skipped.
func (d *AgentDeployer) Install(ctx context.Context, kind AgentKind, abi string, sdk int) error {
	execHost, execDevice, libHost, libDevice := d.resolve(kind, abi, sdk)

	sum, err := checksumFile(d.hostFiles, execHost)
	if err != nil {
		return fmt.Errorf("deploy: reading host binary %s: %w", execHost, err)
	}

	if d.ledger != nil {
		entry, ok, lerr := d.ledger.Lookup(ctx, d.serial, string(kind))
		if lerr == nil && ok && subtle.ConstantTimeCompare([]byte(entry.Checksum), []byte(sum)) == 1 {
			present, cerr := d.client.CheckFile(ctx, d.serial, "/data/local/tmp", agentExecName(kind))
			if cerr == nil && present {
				return nil
			}
		}
	}

	if err := d.client.Push(ctx, d.serial, execHost, execDevice); err != nil {
		return fmt.Errorf("deploy: push %s: %w", execHost, err)
	}
	if err := d.client.Chmod(ctx, d.serial, execDevice, "0755"); err != nil {
		return fmt.Errorf("deploy: chmod %s: %w", execDevice, err)
	}

	if _, err := d.hostFiles.Stat(libHost); err == nil {
		if err := d.client.Push(ctx, d.serial, libHost, libDevice); err != nil {
			return fmt.Errorf("deploy: push %s: %w", libHost, err)
		}
	}

	present, err := d.client.CheckFile(ctx, d.serial, "/data/local/tmp", agentExecName(kind))
	if err != nil {
		return err
	}
	if !present {
		return &adb.NotFoundError{What: fmt.Sprintf("agent %s on device after install", agentExecName(kind))}
	}

	if d.ledger != nil {
		_ = d.ledger.Record(ctx, ledger.Entry{
			DeviceSerial: d.serial,
			Kind:         string(kind),
			ABI:          abi,
			SDK:          sdk,
			HostPath:     execHost,
			DevicePath:   execDevice,
			Checksum:     sum,
			InstalledAt:  time.Now(),
		})
	}
	return nil
}
