package adb

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DeviceState is one of the states the bridge tool reports for a device.
type DeviceState string

const (
	StateDevice       DeviceState = "device"
	StateOffline      DeviceState = "offline"
	StateUnauthorized DeviceState = "unauthorized"
)

// DeviceEntry is one row of `devices` output.
type DeviceEntry struct {
	Serial string
	State  DeviceState
}

var deviceListLine = regexp.MustCompile(`^([A-Za-z0-9.:_-]+)\t(\w+)$`)

// installFailure matches the package manager's failure report embedded in
// otherwise-successful `install` stdout, e.g. "Failure [INSTALL_FAILED_...]".
var installFailure = regexp.MustCompile(`Failure\s*\[(.*?)\]`)

// Client is a thin typed layer over Runner for the bridge CLI. Every call
// builds argv as [bridgePath, -H host?, -P port?, -s serial?, ...subcommand].
// -s is included only for subcommands that target a specific device.
type Client struct {
	runner     *Runner
	BridgePath string
	Host       string
	Port       int
	// DefaultTimeout bounds every Run call that doesn't specify its own.
	DefaultTimeout time.Duration
}

// NewClient returns a Client bound to the given bridge binary. ANDROID_HOME
// is unset for the lifetime of the process to prevent an ambient bridge
// binary on the caller's PATH from shadowing the packaged one.
func NewClient(bridgePath string) *Client {
	os.Unsetenv("ANDROID_HOME")
	return &Client{
		runner:         NewRunner(),
		BridgePath:     bridgePath,
		DefaultTimeout: 30 * time.Second,
	}
}

func (c *Client) globalArgv(serial string) []string {
	argv := []string{c.BridgePath}
	if c.Host != "" {
		argv = append(argv, "-H", c.Host)
	}
	if c.Port != 0 {
		argv = append(argv, "-P", strconv.Itoa(c.Port))
	}
	if serial != "" {
		argv = append(argv, "-s", serial)
	}
	return argv
}

func (c *Client) run(ctx context.Context, serial string, skipError bool, args ...string) (*RunResult, error) {
	argv := append(c.globalArgv(serial), args...)
	return c.runner.Run(ctx, argv, c.DefaultTimeout, skipError)
}

// StartServer starts the process-wide bridge server daemon. The operation
// is idempotent: calling it against an already-running server succeeds.
func (c *Client) StartServer(ctx context.Context) error {
	_, err := c.run(ctx, "", false, "start-server")
	return err
}

// KillServer stops the process-wide bridge server daemon.
func (c *Client) KillServer(ctx context.Context) error {
	_, err := c.run(ctx, "", false, "kill-server")
	return err
}

// ListDevices returns every device the bridge server currently sees,
// optionally filtered to a single state.
func (c *Client) ListDevices(ctx context.Context, filter DeviceState) ([]DeviceEntry, error) {
	res, err := c.run(ctx, "", false, "devices")
	if err != nil {
		return nil, err
	}
	var out []DeviceEntry
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := deviceListLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entry := DeviceEntry{Serial: m[1], State: DeviceState(m[2])}
		if filter != "" && entry.State != filter {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// Connect issues `connect <serial>`. Only meaningful when serial is an
// ip:port address.
func (c *Client) Connect(ctx context.Context, serial string) error {
	_, err := c.run(ctx, "", false, "connect", serial)
	return err
}

// Disconnect issues `disconnect <serial>`.
func (c *Client) Disconnect(ctx context.Context, serial string) error {
	_, err := c.run(ctx, "", false, "disconnect", serial)
	return err
}

// GetState returns the device's bridge-reported state, or "" with a nil
// error when the device is not found at all (the bridge tool reports this
// via a stderr substring, not a distinguishable exit code).
func (c *Client) GetState(ctx context.Context, serial string) (DeviceState, error) {
	res, err := c.run(ctx, serial, true, "get-state")
	if err != nil {
		return "", err
	}
	if res.ReturnCode != 0 {
		if strings.Contains(string(res.Stderr), "not found") {
			return "", nil
		}
		return "", &BridgeError{Stdout: string(res.Stdout), Stderr: string(res.Stderr), Argv: []string{"get-state"}}
	}
	return DeviceState(strings.TrimSpace(string(res.Stdout))), nil
}

// shellNewline returns the newline convention the device uses to frame
// shell stdout: "\n" on SDK >= 24, "\r\n" below.
func shellNewline(sdk int) string {
	if sdk >= 24 {
		return "\n"
	}
	return "\r\n"
}

var exitCodeMarker = regexp.MustCompile(`---(\d+)---\s*$`)

// Shell runs a command on the device and returns its stdout. On SDK < 25,
// `adb shell` never propagates the command's real exit status, so the
// client appends a trailer and parses it back out, honoring it as the
// logical exit code via a BridgeError when non-zero.
func (c *Client) Shell(ctx context.Context, serial string, sdk int, cmdAndArgs ...string) (string, error) {
	full := strings.Join(cmdAndArgs, " ")
	if sdk > 0 && sdk < 25 {
		full = full + "; echo ---$?---"
	}
	res, err := c.run(ctx, serial, true, "shell", full)
	if err != nil {
		return "", err
	}
	out := string(res.Stdout)
	if sdk > 0 && sdk < 25 {
		m := exitCodeMarker.FindStringSubmatch(strings.TrimRight(out, shellNewline(sdk)))
		if m != nil {
			out = exitCodeMarker.ReplaceAllString(out, "")
			out = strings.TrimRight(out, shellNewline(sdk))
			rc, _ := strconv.Atoi(m[1])
			if rc != 0 {
				return out, &BridgeError{Stdout: out, Stderr: string(res.Stderr), Argv: []string{"shell", full}}
			}
			return out, nil
		}
	}
	if res.ReturnCode != 0 {
		return out, &BridgeError{Stdout: out, Stderr: string(res.Stderr), Argv: []string{"shell", full}}
	}
	return out, nil
}

// RawShell is like Shell but returns the raw bytes, falling back to a
// %q-quoted representation (instead of raising) when the output isn't
// valid UTF-8, per the DecodeFailure contract: the returned bytes are
// always usable, and a non-nil *DecodeFailure error signals that they are
// the quoted fallback rather than the command's literal output.
func (c *Client) RawShell(ctx context.Context, serial string, cmdAndArgs ...string) ([]byte, error) {
	res, err := c.run(ctx, serial, true, "shell", strings.Join(cmdAndArgs, " "))
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(res.Stdout) {
		repr := fmt.Sprintf("%q", res.Stdout)
		slog.ErrorContext(ctx, "adb.Client shell output decode failed", "serial", serial, "repr", repr)
		return []byte(repr), &DecodeFailure{Repr: repr}
	}
	return res.Stdout, nil
}

// Push copies a local file to the device.
func (c *Client) Push(ctx context.Context, serial, local, remote string) error {
	if _, err := os.Stat(local); err != nil {
		return fmt.Errorf("adb push: local path missing: %w", err)
	}
	_, err := c.run(ctx, serial, false, "push", local, remote)
	return err
}

// Pull copies a device file to the local filesystem.
func (c *Client) Pull(ctx context.Context, serial, remote, local string) error {
	_, err := c.run(ctx, serial, false, "pull", remote, local)
	return err
}

// Install pushes and installs an APK. replace requests `-r` (reinstall,
// keeping data). InstallFailure is raised when the tool's own stdout
// reports a package-manager failure even though the process exited zero.
func (c *Client) Install(ctx context.Context, serial, apkPath string, opts *InstallOptions) (string, error) {
	if opts == nil {
		opts = &InstallOptions{}
	}
	args := append([]string{"install"}, ToArgs(opts)...)
	args = append(args, apkPath)
	res, err := c.run(ctx, serial, false, args...)
	if err != nil {
		return "", err
	}
	out := string(res.Stdout)
	if m := installFailure.FindStringSubmatch(out); m != nil {
		return out, &InstallFailure{Reason: m[1], Stdout: out}
	}
	return out, nil
}

// GetProp reads a single device property.
func (c *Client) GetProp(ctx context.Context, serial, key string) (string, error) {
	res, err := c.run(ctx, serial, false, "shell", "getprop", key)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

// CheckFile reports whether a file named name exists under dir on the
// device, implemented via `find`.
func (c *Client) CheckFile(ctx context.Context, serial, dir, name string) (bool, error) {
	res, err := c.run(ctx, serial, true, "shell", "find", dir, "-name", name)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(res.Stdout)) != "", nil
}

// Chmod sets a device file's permission bits, e.g. "0755".
func (c *Client) Chmod(ctx context.Context, serial, path, mode string) error {
	_, err := c.run(ctx, serial, false, "shell", "chmod", mode, path)
	return err
}

// ForwardList returns the bridge's live forward table. The Forward Manager
// never caches this; every read comes from here.
func (c *Client) ForwardList(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "", false, "forward", "--list")
	if err != nil {
		return "", err
	}
	return string(res.Stdout), nil
}

// Forward creates a host<->device port forward. noRebind refuses to
// replace an existing mapping on the same local spec.
func (c *Client) Forward(ctx context.Context, serial, local, remote string, noRebind bool) error {
	args := []string{"forward"}
	if noRebind {
		args = append(args, "--no-rebind")
	}
	args = append(args, local, remote)
	_, err := c.run(ctx, serial, false, args...)
	return err
}

// ForwardRemove removes a single forward by its local spec.
func (c *Client) ForwardRemove(ctx context.Context, serial, local string) error {
	_, err := c.run(ctx, serial, false, "forward", "--remove", local)
	return err
}

// ForwardRemoveAll removes every forward for this bridge endpoint.
func (c *Client) ForwardRemoveAll(ctx context.Context, serial string) error {
	_, err := c.run(ctx, serial, false, "forward", "--remove-all")
	return err
}

// shellAsync launches a long-lived shell command (the capture/touch/rotation
// agents) without waiting for it to exit, returning the Process so the
// caller can read its stdout as a stream and kill it on shutdown.
func (c *Client) shellAsync(ctx context.Context, serial string, cmdAndArgs ...string) (*Process, error) {
	argv := append(c.globalArgv(serial), "shell", strings.Join(cmdAndArgs, " "))
	slog.DebugContext(ctx, "adb.Client shellAsync", "argv", argv)
	return c.runner.Spawn(ctx, argv)
}

// ShellAsync exposes shellAsync for components that launch long-lived
// on-device agents (Capture Stream, Touch Stream, Rotation Watcher).
func (c *Client) ShellAsync(ctx context.Context, serial string, cmdAndArgs ...string) (*Process, error) {
	return c.shellAsync(ctx, serial, cmdAndArgs...)
}
