package dbridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/jpeg"
	"net"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"github.com/banksean/dbridge/adb"
	"github.com/banksean/dbridge/sessionguard"
)

// captureBannerSize is the fixed layout length per spec.md §3.
const captureBannerSize = 24

// decodeCaptureBanner parses the 24-byte capture-agent handshake.
func decodeCaptureBanner(b []byte) (CaptureBanner, error) {
	if len(b) < captureBannerSize {
		return CaptureBanner{}, &adb.ProtocolError{Reason: fmt.Sprintf("banner too short: %d bytes", len(b))}
	}
	return CaptureBanner{
		Version:       b[0],
		BannerLength:  b[1],
		PID:           binary.LittleEndian.Uint32(b[2:6]),
		RealWidth:     binary.LittleEndian.Uint32(b[6:10]),
		RealHeight:    binary.LittleEndian.Uint32(b[10:14]),
		VirtualWidth:  binary.LittleEndian.Uint32(b[14:18]),
		VirtualHeight: binary.LittleEndian.Uint32(b[18:22]),
		Orientation:   b[22],
		Quirks:        b[23],
	}, nil
}

// CaptureStream launches the on-device capture agent, opens a TCP socket
// via a host<->device forward, parses the banner + framed-JPEG stream, and
// delivers decoded frames on demand. At most one active session per device
// is enforced by a sessionguard.Guard.
type CaptureStream struct {
	client  *adb.Client
	forward *ForwardManager
	probe   *DeviceProbe
	deploy  *AgentDeployer
	serial  string

	guard *sessionguard.Guard

	mu            sync.Mutex
	conn          net.Conn
	reader        *bufio.Reader
	proc          *adb.Process
	banner        CaptureBanner
	port          int
	width, height int // queried display dims frames are resized to
	lastABI       string
	lastSDK       int
}

// NewCaptureStream wires up a CaptureStream for one device.
func NewCaptureStream(client *adb.Client, forward *ForwardManager, probe *DeviceProbe, deploy *AgentDeployer, serial string) *CaptureStream {
	cs := &CaptureStream{client: client, forward: forward, probe: probe, deploy: deploy, serial: serial}
	cs.guard = sessionguard.New(func(ctx context.Context, session any) {
		cs.teardown(ctx)
	})
	return cs
}

// Start ensures the capture agent is installed, queries display info,
// reserves a forward, launches the on-device agent, and opens the socket.
func (cs *CaptureStream) Start(ctx context.Context, abi string, sdk int) error {
	if _, err := cs.guard.Acquire(ctx); err != nil {
		return err
	}
	if err := cs.startLocked(ctx, abi, sdk); err != nil {
		cs.guard.Release(ctx)
		return err
	}
	return nil
}

func (cs *CaptureStream) startLocked(ctx context.Context, abi string, sdk int) error {
	cs.mu.Lock()
	cs.lastABI, cs.lastSDK = abi, sdk
	cs.mu.Unlock()

	if err := cs.deploy.Install(ctx, AgentCapture, abi, sdk); err != nil {
		return fmt.Errorf("capture: install agent: %w", err)
	}
	info, err := cs.probe.DisplayInfo(ctx)
	if err != nil {
		return fmt.Errorf("capture: display info: %w", err)
	}

	port, err := cs.forward.ReservePort(ctx)
	if err != nil {
		return err
	}
	if err := cs.forward.Forward(ctx, LocalSpec(port), "localabstract:minicap"); err != nil {
		return fmt.Errorf("capture: forward: %w", err)
	}

	spec := fmt.Sprintf("%dx%d@%dx%d/%d", info.Width, info.Height, info.Width, info.Height, info.Rotation/90)
	proc, err := cs.client.ShellAsync(ctx, cs.serial, "LD_LIBRARY_PATH=/data/local/tmp", "/data/local/tmp/minicap", "-P", spec)
	if err != nil {
		return fmt.Errorf("capture: launch agent: %w", err)
	}

	// Give the agent a moment to bind its abstract socket before dialing.
	time.Sleep(1 * time.Second)

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		proc.Kill()
		return fmt.Errorf("capture: dial: %w", err)
	}

	reader := bufio.NewReader(conn)
	bannerBuf := make([]byte, captureBannerSize)
	if _, err := readFull(reader, bannerBuf); err != nil {
		conn.Close()
		proc.Kill()
		return fmt.Errorf("capture: read banner: %w", err)
	}
	banner, err := decodeCaptureBanner(bannerBuf)
	if err != nil {
		conn.Close()
		proc.Kill()
		return err
	}

	cs.mu.Lock()
	cs.conn, cs.reader, cs.proc, cs.banner, cs.port = conn, reader, proc, banner, port
	cs.width, cs.height = info.Width, info.Height
	cs.mu.Unlock()
	return nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// GetFrame reads the next READ_LEN/READ_BODY frame off the socket per
// spec.md §4.6's state machine: a 4-byte little-endian length, then that
// many bytes; the body must begin with the JPEG SOI marker 0xFF 0xD8. The
// decoded image is then resized to the display dimensions queried at
// Start/UpdateRotation time and re-encoded as JPEG.
func (cs *CaptureStream) GetFrame(ctx context.Context) (*CaptureFrame, error) {
	cs.mu.Lock()
	reader, width, height := cs.reader, cs.width, cs.height
	cs.mu.Unlock()
	if reader == nil {
		return nil, fmt.Errorf("capture: not started")
	}

	lenBuf := make([]byte, 4)
	if _, err := readFull(reader, lenBuf); err != nil {
		return nil, fmt.Errorf("capture: read frame length: %w", err)
	}
	remaining := binary.LittleEndian.Uint32(lenBuf)

	body := make([]byte, remaining)
	if _, err := readFull(reader, body); err != nil {
		return nil, fmt.Errorf("capture: read frame body: %w", err)
	}
	if len(body) < 2 || body[0] != 0xFF || body[1] != 0xD8 {
		return nil, &adb.ProtocolError{Reason: "frame missing JPEG SOI marker"}
	}

	src, err := jpeg.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("capture: decode frame: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("capture: encode frame: %w", err)
	}

	return &CaptureFrame{
		Width:  width,
		Height: height,
		Image:  buf.Bytes(),
	}, nil
}

// GetDisplayInfo re-derives DisplayInfo from the probe, reflecting live
// rotation.
func (cs *CaptureStream) GetDisplayInfo(ctx context.Context) (*DisplayInfo, error) {
	info, err := cs.probe.DisplayInfo(ctx)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// UpdateRotation closes and re-launches the agent with the new orientation,
// per spec.md §4.6.
func (cs *CaptureStream) UpdateRotation(ctx context.Context, orientation int) error {
	cs.mu.Lock()
	abi, sdk := cs.lastABI, cs.lastSDK
	cs.mu.Unlock()
	cs.teardown(ctx)
	return cs.startLocked(ctx, abi, sdk)
}

func (cs *CaptureStream) teardown(ctx context.Context) {
	cs.mu.Lock()
	conn, proc := cs.conn, cs.proc
	cs.conn, cs.reader, cs.proc = nil, nil, nil
	cs.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	if proc != nil {
		proc.Kill()
	}
}

// Stop closes the capture socket and terminates the agent process,
// releasing the session guard.
func (cs *CaptureStream) Stop(ctx context.Context) {
	cs.teardown(ctx)
	cs.guard.Release(ctx)
}
