package main

import (
	"fmt"

	dbridge "github.com/banksean/dbridge"
	"github.com/banksean/dbridge/ledger"
)

// InstallAgentCmd pushes a native agent binary to a device, auto-detecting
// ABI and SDK level when not given explicitly.
type InstallAgentCmd struct {
	Serial string `arg:"" help:"device serial"`
	Kind   string `arg:"" help:"agent kind: capture, touch, or rotation"`
	ABI    string `default:"" placeholder:"<abi>" help:"override detected ABI (e.g. arm64-v8a)"`
	SDK    int    `default:"0" placeholder:"<level>" help:"override detected SDK level"`
}

func (c *InstallAgentCmd) Run(cctx *Context) error {
	ctx, cancel := background()
	defer cancel()

	var ledgerDB *ledger.Ledger
	if cctx.LedgerPath != "" {
		db, err := ledger.Open(cctx.LedgerPath)
		if err != nil {
			return fmt.Errorf("install-agent: open ledger: %w", err)
		}
		defer db.Close()
		ledgerDB = db
	}

	probe := dbridge.NewDeviceProbe(cctx.Client, c.Serial)
	deploy := dbridge.NewAgentDeployer(cctx.Client, c.Serial, cctx.AgentRoot, ledgerDB)

	abi, sdk, err := resolveABISDK(ctx, cctx, probe, c.Serial, c.ABI, c.SDK)
	if err != nil {
		return fmt.Errorf("install-agent: %w", err)
	}

	if err := deploy.Install(ctx, dbridge.AgentKind(c.Kind), abi, sdk); err != nil {
		return fmt.Errorf("install-agent: %w", err)
	}
	fmt.Printf("installed %s on %s (abi=%s sdk=%d)\n", c.Kind, c.Serial, abi, sdk)
	return nil
}
