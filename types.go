// Package dbridge is a host-side control library for Android devices: it
// drives the debug-bridge command-line tool, manages port forwards,
// deploys native on-device agents, and streams their capture/touch
// framing protocols. Each DeviceHandle owns exactly one device; the
// engine never multiplexes several devices from a single instance.
package dbridge

import "context"

// DeviceID identifies one device: serial may be a USB serial
// (e.g. "ABCDEF123") or an "ip:port" address. Immutable after
// construction.
type DeviceID struct {
	Serial string
	Host   string
	Port   int
}

// Forward is a host<->device port mapping as reported by the bridge tool's
// forward table.
type Forward struct {
	Local  string // "tcp:<port>"
	Remote string // "localabstract:<name>"
}

// DisplayInfo describes a device's screen geometry and orientation.
// Orientation and Rotation must satisfy Rotation == Orientation*90.
type DisplayInfo struct {
	Width         int
	Height        int
	PhysicalWidth int
	PhysicalHeight int
	Density       float64 // 1.0 == 160dpi
	Orientation   int     // 0..3
	Rotation      int     // 0, 90, 180, 270
	MaxX          int     // digitizer raw coordinate maxima
	MaxY          int
}

// AgentKind identifies which on-device native agent a binary pair serves.
type AgentKind string

const (
	AgentCapture  AgentKind = "capture"
	AgentTouch    AgentKind = "touch"
	AgentRotation AgentKind = "rotation"
)

// AgentBinary describes one deployable agent artifact.
type AgentBinary struct {
	Kind         AgentKind
	HostFile     string
	DevicePath   string
	RequiredPerm string // e.g. "0755"
}

// CaptureBanner is the 24-byte fixed-layout handshake the capture agent
// emits once per session.
type CaptureBanner struct {
	Version       uint8
	BannerLength  uint8
	PID           uint32
	RealWidth     uint32
	RealHeight    uint32
	VirtualWidth  uint32
	VirtualHeight uint32
	Orientation   uint8
	Quirks        uint8
}

// CaptureFrame is one decoded still from the capture stream, resized to the
// display dimensions in effect when the stream was started and re-encoded
// as JPEG.
type CaptureFrame struct {
	Width  int
	Height int
	Image  []byte // JPEG-encoded, Width x Height
}

// TouchCommand is a tagged variant over the touch agent's wire commands.
type TouchCommand interface {
	touchCommand()
}

type TouchDown struct {
	Slot     int
	X, Y     int
	Pressure int
}
type TouchUp struct{ Slot int }
type TouchMove struct {
	Slot     int
	X, Y     int
	Pressure int
}
type TouchCommit struct{}
type TouchWait struct{ Millis int }
type TouchReset struct{}

func (TouchDown) touchCommand()   {}
func (TouchUp) touchCommand()     {}
func (TouchMove) touchCommand()   {}
func (TouchCommit) touchCommand() {}
func (TouchWait) touchCommand()   {}
func (TouchReset) touchCommand()  {}

// CaptureCapability is the small capability set a capture backend exposes,
// replacing the source's polymorphic minicap/minitouch subclassing with a
// tagged interface per device handle.
type CaptureCapability interface {
	GetFrame(ctx context.Context) (*CaptureFrame, error)
	GetDisplayInfo(ctx context.Context) (*DisplayInfo, error)
	UpdateRotation(ctx context.Context, orientation int) error
}

// TouchCapability is the small capability set a touch backend exposes.
type TouchCapability interface {
	Down(ctx context.Context, slot, x, y, pressure int) error
	Up(ctx context.Context, slot int) error
	Move(ctx context.Context, slot, x, y, pressure int) error
	Click(ctx context.Context, x, y, slot, durationMillis int) error
	Sleep(ctx context.Context, millis int) error
	UpdateRotation(ctx context.Context, orientation int) error
}
