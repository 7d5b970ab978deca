package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	dbridge "github.com/banksean/dbridge"
)

// ForwardsCmd groups port-forward subcommands: list is the default view,
// add/remove mutate the bridge's forward table directly.
type ForwardsCmd struct {
	Serial string          `arg:"" help:"device serial"`
	Add    ForwardsAddCmd  `cmd:"" help:"add a forward"`
	Remove ForwardsRmCmd   `cmd:"" help:"remove a forward"`
	List   ForwardsListCmd `cmd:"" default:"1" help:"list current forwards"`
}

type ForwardsListCmd struct{}

func (c *ForwardsListCmd) Run(cctx *Context, parent *ForwardsCmd) error {
	ctx, cancel := background()
	defer cancel()
	fm := dbridge.NewForwardManager(cctx.Client, parent.Serial)
	list, err := fm.List(ctx)
	if err != nil {
		return fmt.Errorf("forwards list: %w", err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LOCAL\tREMOTE")
	for _, f := range list {
		fmt.Fprintf(w, "%s\t%s\n", f.Local, f.Remote)
	}
	return w.Flush()
}

type ForwardsAddCmd struct {
	Local  string `arg:"" help:"local spec, e.g. tcp:7070"`
	Remote string `arg:"" help:"remote spec, e.g. localabstract:minicap"`
}

func (c *ForwardsAddCmd) Run(cctx *Context, parent *ForwardsCmd) error {
	ctx, cancel := background()
	defer cancel()
	fm := dbridge.NewForwardManager(cctx.Client, parent.Serial)
	if err := fm.Forward(ctx, c.Local, c.Remote); err != nil {
		return fmt.Errorf("forwards add: %w", err)
	}
	return nil
}

type ForwardsRmCmd struct {
	Local string `arg:"" optional:"" help:"local spec to remove; omit to remove all"`
}

func (c *ForwardsRmCmd) Run(cctx *Context, parent *ForwardsCmd) error {
	ctx, cancel := background()
	defer cancel()
	fm := dbridge.NewForwardManager(cctx.Client, parent.Serial)
	if err := fm.Remove(ctx, c.Local); err != nil {
		return fmt.Errorf("forwards rm: %w", err)
	}
	return nil
}
