package main

import (
	"fmt"

	dbridge "github.com/banksean/dbridge"
	"github.com/banksean/dbridge/ledger"
)

// TapCmd opens a touch session just long enough to send one click.
type TapCmd struct {
	Serial   string `arg:"" help:"device serial"`
	X        int    `arg:"" help:"logical x coordinate"`
	Y        int    `arg:"" help:"logical y coordinate"`
	ABI      string `default:"" placeholder:"<abi>" help:"override detected ABI (e.g. arm64-v8a)"`
	SDK      int    `default:"0" placeholder:"<level>" help:"override detected SDK level"`
	Duration int    `default:"100" help:"hold duration in milliseconds"`
}

func (c *TapCmd) Run(cctx *Context) error {
	ctx, cancel := background()
	defer cancel()

	var ledgerDB *ledger.Ledger
	if cctx.LedgerPath != "" {
		db, err := ledger.Open(cctx.LedgerPath)
		if err != nil {
			return fmt.Errorf("tap: open ledger: %w", err)
		}
		defer db.Close()
		ledgerDB = db
	}

	forward := dbridge.NewForwardManager(cctx.Client, c.Serial)
	probe := dbridge.NewDeviceProbe(cctx.Client, c.Serial)
	deploy := dbridge.NewAgentDeployer(cctx.Client, c.Serial, cctx.AgentRoot, ledgerDB)
	stream := dbridge.NewTouchStream(cctx.Client, forward, probe, deploy, c.Serial, dbridge.AgentTouch)

	abi, sdk, err := resolveABISDK(ctx, cctx, probe, c.Serial, c.ABI, c.SDK)
	if err != nil {
		return fmt.Errorf("tap: %w", err)
	}
	if err := stream.Start(ctx, abi, sdk); err != nil {
		return fmt.Errorf("tap: start: %w", err)
	}
	defer stream.Stop(ctx)

	if err := stream.Click(ctx, c.X, c.Y, 0, c.Duration); err != nil {
		return fmt.Errorf("tap: click: %w", err)
	}
	return nil
}
