package dbridge

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/banksean/dbridge/adb"
)

// encodeTestJPEG returns a valid JPEG encoding of a solid w x h image, used
// to exercise GetFrame's decode+resize path without a real capture agent.
func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encodeTestJPEG: %v", err)
	}
	return buf.Bytes()
}

// TestDecodeCaptureBanner exercises the exact byte layout from the spec's
// worked example: version=1, length=24, real=(1920,1080),
// virtual=(1920,1080), orientation=1, quirks=0.
func TestDecodeCaptureBanner(t *testing.T) {
	raw := []byte{
		0x01, 0x18, 0x00, 0x00, 0x00, 0x00,
		0x80, 0x07, 0x00, 0x00,
		0x38, 0x04, 0x00, 0x00,
		0x80, 0x07, 0x00, 0x00,
		0x38, 0x04, 0x00, 0x00,
		0x01, 0x00,
	}
	banner, err := decodeCaptureBanner(raw)
	if err != nil {
		t.Fatalf("decodeCaptureBanner() error = %v", err)
	}
	if banner.Version != 1 || banner.BannerLength != 24 {
		t.Errorf("version/length = %d/%d", banner.Version, banner.BannerLength)
	}
	if banner.RealWidth != 1920 || banner.RealHeight != 1080 {
		t.Errorf("real = %dx%d", banner.RealWidth, banner.RealHeight)
	}
	if banner.VirtualWidth != 1920 || banner.VirtualHeight != 1080 {
		t.Errorf("virtual = %dx%d", banner.VirtualWidth, banner.VirtualHeight)
	}
	if banner.Orientation != 1 {
		t.Errorf("orientation = %d", banner.Orientation)
	}
	if banner.Quirks != 0 {
		t.Errorf("quirks = %d", banner.Quirks)
	}
}

func TestDecodeCaptureBannerTooShort(t *testing.T) {
	_, err := decodeCaptureBanner([]byte{0x01, 0x02})
	if err == nil {
		t.Fatal("expected ProtocolError for short banner")
	}
	if _, ok := err.(*adb.ProtocolError); !ok {
		t.Fatalf("expected *adb.ProtocolError, got %T", err)
	}
}

// TestFrameFramingValidSOI exercises the spec's worked example: a
// length-prefixed JPEG body with a valid SOI decodes, resizes to the
// queried dimensions, and re-encodes as JPEG.
func TestFrameFramingValidSOI(t *testing.T) {
	body := encodeTestJPEG(t, 20, 30)

	var buf bytes.Buffer
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(body)))
	buf.Write(lenBuf)
	buf.Write(body)

	reader := bufio.NewReader(&buf)
	cs := &CaptureStream{reader: reader, width: 100, height: 200}
	frame, err := cs.GetFrame(nil)
	if err != nil {
		t.Fatalf("GetFrame() error = %v", err)
	}
	if frame.Width != 100 || frame.Height != 200 {
		t.Errorf("frame dims = %dx%d, want 100x200", frame.Width, frame.Height)
	}
	if len(frame.Image) < 2 || frame.Image[0] != 0xFF || frame.Image[1] != 0xD8 {
		t.Errorf("re-encoded frame missing JPEG SOI")
	}
}

func TestFrameFramingInvalidSOI(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x02, 0x00, 0x00, 0x00})
	buf.Write([]byte{0x00, 0x00})

	reader := bufio.NewReader(&buf)
	cs := &CaptureStream{reader: reader}
	_, err := cs.GetFrame(nil)
	if err == nil {
		t.Fatal("expected ProtocolError for missing JPEG SOI")
	}
	if _, ok := err.(*adb.ProtocolError); !ok {
		t.Fatalf("expected *adb.ProtocolError, got %T", err)
	}
}
