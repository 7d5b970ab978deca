package main

import (
	"context"
	"fmt"

	dbridge "github.com/banksean/dbridge"
)

// resolveABISDK fills in ABI/SDK from, in order: an explicit override, a
// matching entry in the loaded device-profile set, or live detection via
// DeviceProbe.
func resolveABISDK(ctx context.Context, cctx *Context, probe *dbridge.DeviceProbe, serial, abiOverride string, sdkOverride int) (abi string, sdk int, err error) {
	abi, sdk = abiOverride, sdkOverride

	if prof, ok := cctx.Profiles[serial]; ok {
		if abi == "" {
			abi = prof.ABI
		}
		if sdk == 0 {
			sdk = prof.SDK
		}
	}

	if abi == "" {
		abi, err = probe.ABI(ctx)
		if err != nil {
			return "", 0, fmt.Errorf("detect ABI: %w", err)
		}
	}
	if sdk == 0 {
		sdk, err = probe.SDKLevel(ctx)
		if err != nil {
			return "", 0, fmt.Errorf("detect SDK: %w", err)
		}
	}
	return abi, sdk, nil
}
