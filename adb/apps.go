package adb

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// ProcessInfo is one row of a `ps` listing.
type ProcessInfo struct {
	PID  int
	Name string
}

// PathApp returns the installed APK path for pkg via `pm path`.
func (c *Client) PathApp(ctx context.Context, serial, pkg string) (string, error) {
	out, err := c.Shell(ctx, serial, 0, "pm", "path", pkg)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", &NotFoundError{What: "package " + pkg}
	}
	return strings.TrimPrefix(out, "package:"), nil
}

// ListPackages returns every installed package name, optionally restricted
// to third-party (non-system) packages via `pm list packages -3`.
func (c *Client) ListPackages(ctx context.Context, serial string, thirdPartyOnly bool) ([]string, error) {
	args := []string{"pm", "list", "packages"}
	if thirdPartyOnly {
		args = append(args, "-3")
	}
	out, err := c.Shell(ctx, serial, 0, args...)
	if err != nil {
		return nil, err
	}
	var pkgs []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pkgs = append(pkgs, strings.TrimPrefix(line, "package:"))
	}
	return pkgs, nil
}

// StartApp launches pkg/activity via `am start`. When activity is empty it
// falls back to a monkey launch of pkg's default launcher activity.
func (c *Client) StartApp(ctx context.Context, serial, pkg, activity string) error {
	if activity != "" {
		_, err := c.Shell(ctx, serial, 0, "am", "start", "-n", pkg+"/"+activity)
		return err
	}
	_, err := c.Shell(ctx, serial, 0, "monkey", "-p", pkg, "-c", "android.intent.category.LAUNCHER", "1")
	return err
}

var focusedAppLine = regexp.MustCompile(`mFocusedApp=.*?\{.*?\s([\w.]+)/([\w.$]+)[\s}]`)

// ForegroundApp parses `dumpsys window windows` for the focused app record.
func (c *Client) ForegroundApp(ctx context.Context, serial string) (pkg, activity string, err error) {
	out, err := c.Shell(ctx, serial, 0, "dumpsys", "window", "windows")
	if err != nil {
		return "", "", err
	}
	m := focusedAppLine.FindStringSubmatch(out)
	if m == nil {
		return "", "", &NotFoundError{What: "foreground app"}
	}
	return m[1], m[2], nil
}

// KillProcess runs `kill <pid>` on the device, sending kill's default
// signal (SIGTERM).
func (c *Client) KillProcess(ctx context.Context, serial string, pid int) error {
	_, err := c.Shell(ctx, serial, 0, "kill", strconv.Itoa(pid))
	return err
}

// ProcessStatus returns every `ps` row whose command line contains pkg.
func (c *Client) ProcessStatus(ctx context.Context, serial, pkg string) ([]ProcessInfo, error) {
	out, err := c.Shell(ctx, serial, 0, "ps")
	if err != nil {
		return nil, err
	}
	var procs []ProcessInfo
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, pkg) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pid, perr := strconv.Atoi(fields[1])
		if perr != nil {
			continue
		}
		procs = append(procs, ProcessInfo{PID: pid, Name: fields[len(fields)-1]})
	}
	return procs, nil
}

// app_is_running is intentionally not implemented: the behavior it should
// have was never completed in the original this engine is modeled on, and
// its intended semantics are explicitly left unspecified rather than
// guessed at.
