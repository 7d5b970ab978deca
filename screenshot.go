package dbridge

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/banksean/dbridge/adb"
)

// Screenshot captures a single still image via `screencap`, without paying
// for a capture-agent session. It pulls the device's screencap output to a
// host temp file under <workdir>/<serial_with_colons_as_underscores>/tmp.png,
// decodes it, optionally crops to rect, and always removes the host temp
// file before returning. rect exceeding the decoded image bounds raises
// OverflowError.
func (p *DeviceProbe) Screenshot(ctx context.Context, workdir string, rect *image.Rectangle) (image.Image, error) {
	serialDir := strings.ReplaceAll(p.serial, ":", "_")
	dir := filepath.Join(workdir, serialDir)
	if err := p.hostFiles.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("screenshot: mkdir %s: %w", dir, err)
	}
	hostPath := filepath.Join(dir, "tmp.png")
	devicePath := "/data/local/tmp/dbridge-screencap.png"

	defer func() {
		_ = p.hostFiles.Remove(hostPath)
	}()

	if _, err := p.client.Shell(ctx, p.serial, 0, "screencap", devicePath); err != nil {
		return nil, fmt.Errorf("screenshot: screencap: %w", err)
	}
	if err := p.client.Pull(ctx, p.serial, devicePath, hostPath); err != nil {
		return nil, fmt.Errorf("screenshot: pull: %w", err)
	}

	f, err := p.hostFiles.Open(hostPath)
	if err != nil {
		return nil, fmt.Errorf("screenshot: open pulled file: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("screenshot: decode: %w", err)
	}

	if rect == nil {
		return img, nil
	}
	bounds := img.Bounds()
	if rect.Max.X > bounds.Max.X || rect.Max.Y > bounds.Max.Y || rect.Min.X < bounds.Min.X || rect.Min.Y < bounds.Min.Y {
		return nil, &adb.OverflowError{Requested: rect.String(), Bounds: bounds.String()}
	}
	sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return img, nil
	}
	return sub.SubImage(*rect), nil
}
