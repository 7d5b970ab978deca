package main

import "fmt"

// PushCmd copies a host file to a device.
type PushCmd struct {
	Serial string `arg:"" help:"device serial"`
	Local  string `arg:"" help:"host path"`
	Remote string `arg:"" help:"device path"`
}

func (c *PushCmd) Run(cctx *Context) error {
	ctx, cancel := background()
	defer cancel()
	if err := cctx.Client.Push(ctx, c.Serial, c.Local, c.Remote); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

// PullCmd copies a device file to the host.
type PullCmd struct {
	Serial string `arg:"" help:"device serial"`
	Remote string `arg:"" help:"device path"`
	Local  string `arg:"" help:"host path"`
}

func (c *PullCmd) Run(cctx *Context) error {
	ctx, cancel := background()
	defer cancel()
	if err := cctx.Client.Pull(ctx, c.Serial, c.Remote, c.Local); err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	return nil
}
