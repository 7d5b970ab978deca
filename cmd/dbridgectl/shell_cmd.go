package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// ShellCmd opens an interactive shell on a device by spawning the bridge's
// own shell subcommand under a local pseudo-terminal, so the remote shell
// sees a real tty (job control, line editing) the way a directly-invoked
// `adb shell` would.
type ShellCmd struct {
	Serial string `arg:"" help:"device serial"`
}

func (c *ShellCmd) Run(cctx *Context) error {
	cmd := exec.Command(cctx.BridgePath, "-s", c.Serial, "shell")

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("shell: start pty: %w", err)
	}
	defer ptmx.Close()

	if term.IsTerminal(int(os.Stdin.Fd())) {
		oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err == nil {
			defer term.Restore(int(os.Stdin.Fd()), oldState)
		}
	}

	go func() { _, _ = io.Copy(ptmx, os.Stdin) }()
	_, _ = io.Copy(os.Stdout, ptmx)

	return cmd.Wait()
}
