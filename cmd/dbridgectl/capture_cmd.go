package main

import (
	"fmt"
	"os"
	"path/filepath"

	dbridge "github.com/banksean/dbridge"
	"github.com/banksean/dbridge/ledger"
)

// CaptureCmd starts a capture session and writes a fixed number of frames
// to disk as sequentially numbered .jpg files.
type CaptureCmd struct {
	Serial string `arg:"" help:"device serial"`
	ABI    string `default:"" placeholder:"<abi>" help:"override detected ABI (e.g. arm64-v8a)"`
	SDK    int    `default:"0" placeholder:"<level>" help:"override detected SDK level"`
	OutDir string `default:"." placeholder:"<dir>" help:"directory to write frame_NNNN.jpg files to"`
	Frames int    `default:"10" help:"number of frames to capture"`
}

func (c *CaptureCmd) Run(cctx *Context) error {
	ctx, cancel := background()
	defer cancel()

	var ledgerDB *ledger.Ledger
	if cctx.LedgerPath != "" {
		db, err := ledger.Open(cctx.LedgerPath)
		if err != nil {
			return fmt.Errorf("capture: open ledger: %w", err)
		}
		defer db.Close()
		ledgerDB = db
	}

	forward := dbridge.NewForwardManager(cctx.Client, c.Serial)
	probe := dbridge.NewDeviceProbe(cctx.Client, c.Serial)
	deploy := dbridge.NewAgentDeployer(cctx.Client, c.Serial, cctx.AgentRoot, ledgerDB)
	stream := dbridge.NewCaptureStream(cctx.Client, forward, probe, deploy, c.Serial)

	abi, sdk, err := resolveABISDK(ctx, cctx, probe, c.Serial, c.ABI, c.SDK)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if err := stream.Start(ctx, abi, sdk); err != nil {
		return fmt.Errorf("capture: start: %w", err)
	}
	defer stream.Stop(ctx)

	if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
		return fmt.Errorf("capture: mkdir: %w", err)
	}

	for i := 0; i < c.Frames; i++ {
		frame, err := stream.GetFrame(ctx)
		if err != nil {
			return fmt.Errorf("capture: get frame %d: %w", i, err)
		}
		path := filepath.Join(c.OutDir, fmt.Sprintf("frame_%04d.jpg", i))
		if err := os.WriteFile(path, frame.Image, 0o644); err != nil {
			return fmt.Errorf("capture: write frame %d: %w", i, err)
		}
	}
	fmt.Printf("wrote %d frames to %s\n", c.Frames, c.OutDir)
	return nil
}
