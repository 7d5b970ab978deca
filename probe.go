package dbridge

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/banksean/dbridge/adb"
)

// DeviceProbe reads device facts: SDK level, ABI, display geometry,
// orientation, and the touch digitizer's coordinate maxima.
type DeviceProbe struct {
	client    *adb.Client
	serial    string
	hostFiles HostFiles
}

// NewDeviceProbe returns a DeviceProbe bound to one device.
func NewDeviceProbe(client *adb.Client, serial string) *DeviceProbe {
	return &DeviceProbe{client: client, serial: serial, hostFiles: NewDefaultHostFiles()}
}

// SDKLevel returns the integer value of ro.build.version.sdk.
func (p *DeviceProbe) SDKLevel(ctx context.Context) (int, error) {
	v, err := p.client.GetProp(ctx, p.serial, "ro.build.version.sdk")
	if err != nil {
		return 0, err
	}
	sdk, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("probe: sdk level %q not an integer: %w", v, err)
	}
	return sdk, nil
}

// ABI returns the trimmed value of ro.product.cpu.abi.
func (p *DeviceProbe) ABI(ctx context.Context) (string, error) {
	v, err := p.client.GetProp(ctx, p.serial, "ro.product.cpu.abi")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

var (
	// PhysicalDisplayInfo{1080 x 2340, ..., density 420, ...}
	displayInfoRe = regexp.MustCompile(`PhysicalDisplayInfo\{(\d+)\s*x\s*(\d+)[^}]*?density\s+([\d.]+)`)
	// mUnrestrictedScreen=(0,0) 1080x2340
	unrestrictedScreenRe = regexp.MustCompile(`mUnrestrictedScreen=\(\d+,\d+\)\s+(\d+)x(\d+)`)
	// Physical size: 1080x2340 ... Physical density: 420
	wmSizeDensityRe = regexp.MustCompile(`Physical size:\s*(\d+)x(\d+).*?Physical density:\s*([\d.]+)`)

	orientationSurfaceFlingerRe = regexp.MustCompile(`orientation=(\d+)`)
	orientationInputRe          = regexp.MustCompile(`SurfaceOrientation:\s+(\d+)`)

	getevent0035Re = regexp.MustCompile(`0035.*max\s+(\d+)`)
	getevent0036Re = regexp.MustCompile(`0036.*max\s+(\d+)`)
)

// DisplayInfo attempts, in order, to parse physical display geometry from
// `dumpsys display`, `dumpsys window`, then `wm size; wm density`. Density,
// when not present in the matched text, is derived from
// ro.sf.lcd_density/qemu.sf.lcd_density divided by 160. Returns a zero
// DisplayInfo if nothing matched, per spec.
func (p *DeviceProbe) DisplayInfo(ctx context.Context) (DisplayInfo, error) {
	var info DisplayInfo
	var matched bool

	if out, err := p.client.Shell(ctx, p.serial, 0, "dumpsys", "display"); err == nil {
		if m := displayInfoRe.FindStringSubmatch(out); m != nil {
			info.Width, _ = strconv.Atoi(m[1])
			info.Height, _ = strconv.Atoi(m[2])
			d, _ := strconv.ParseFloat(m[3], 64)
			info.Density = d / 160.0
			matched = true
		}
	}

	if !matched {
		if out, err := p.client.Shell(ctx, p.serial, 0, "dumpsys", "window"); err == nil {
			if m := unrestrictedScreenRe.FindStringSubmatch(out); m != nil {
				info.Width, _ = strconv.Atoi(m[1])
				info.Height, _ = strconv.Atoi(m[2])
				matched = true
			}
		}
	}

	if !matched {
		out, err := p.client.Shell(ctx, p.serial, 0, "wm", "size")
		if err == nil {
			if out2, err2 := p.client.Shell(ctx, p.serial, 0, "wm", "density"); err2 == nil {
				out = out + "\n" + out2
			}
			if m := wmSizeDensityRe.FindStringSubmatch(out); m != nil {
				info.Width, _ = strconv.Atoi(m[1])
				info.Height, _ = strconv.Atoi(m[2])
				d, _ := strconv.ParseFloat(m[3], 64)
				info.Density = d / 160.0
				matched = true
			}
		}
	}

	if !matched {
		return DisplayInfo{}, nil
	}

	info.PhysicalWidth = info.Width
	info.PhysicalHeight = info.Height

	if info.Density == 0 {
		for _, prop := range []string{"ro.sf.lcd_density", "qemu.sf.lcd_density"} {
			if v, err := p.client.GetProp(ctx, p.serial, prop); err == nil && strings.TrimSpace(v) != "" {
				if d, derr := strconv.ParseFloat(strings.TrimSpace(v), 64); derr == nil {
					info.Density = d / 160.0
					break
				}
			}
		}
	}

	orientation, err := p.Orientation(ctx)
	if err != nil {
		return info, err
	}
	info.Orientation = orientation
	info.Rotation = orientation * 90

	maxX, maxY, err := p.DigitizerMax(ctx)
	if err == nil {
		info.MaxX, info.MaxY = maxX, maxY
	}

	return info, nil
}

// Orientation tries `orientation=N` in dumpsys SurfaceFlinger, then
// `SurfaceOrientation: N` in dumpsys input, else returns 0 with a logged
// warning.
func (p *DeviceProbe) Orientation(ctx context.Context) (int, error) {
	if out, err := p.client.Shell(ctx, p.serial, 0, "dumpsys", "SurfaceFlinger"); err == nil {
		if m := orientationSurfaceFlingerRe.FindStringSubmatch(out); m != nil {
			n, _ := strconv.Atoi(m[1])
			return n, nil
		}
	}
	if out, err := p.client.Shell(ctx, p.serial, 0, "dumpsys", "input"); err == nil {
		if m := orientationInputRe.FindStringSubmatch(out); m != nil {
			n, _ := strconv.Atoi(m[1])
			return n, nil
		}
	}
	slog.WarnContext(ctx, "probe: could not determine orientation, defaulting to 0", "serial", p.serial)
	return 0, nil
}

// DigitizerMax parses `getevent -p` for the touch digitizer's raw
// coordinate maxima: the line mentioning event code 0035 yields max X, the
// line mentioning 0036 yields max Y.
func (p *DeviceProbe) DigitizerMax(ctx context.Context) (maxX, maxY int, err error) {
	out, err := p.client.Shell(ctx, p.serial, 0, "getevent", "-p")
	if err != nil {
		return 0, 0, err
	}
	for _, line := range strings.Split(out, "\n") {
		if m := getevent0035Re.FindStringSubmatch(line); m != nil {
			maxX, _ = strconv.Atoi(m[1])
		}
		if m := getevent0036Re.FindStringSubmatch(line); m != nil {
			maxY, _ = strconv.Atoi(m[1])
		}
	}
	return maxX, maxY, nil
}
