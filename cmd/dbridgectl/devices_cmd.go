package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/banksean/dbridge/adb"
)

// DevicesCmd lists every device the bridge currently sees.
type DevicesCmd struct {
	State string `default:"" placeholder:"<device|offline|unauthorized>" help:"filter by device state; empty lists all"`
}

func (c *DevicesCmd) Run(cctx *Context) error {
	ctx, cancel := background()
	defer cancel()

	entries, err := cctx.Client.ListDevices(ctx, adb.DeviceState(c.State))
	if err != nil {
		return fmt.Errorf("devices: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIAL\tSTATE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.Serial, e.State)
	}
	return w.Flush()
}
