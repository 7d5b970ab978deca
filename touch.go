package dbridge

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/banksean/dbridge/adb"
	"github.com/banksean/dbridge/sessionguard"
)

// TouchBanner is the touch agent's textual handshake.
type TouchBanner struct {
	MaxContacts int
	MaxX        int
	MaxY        int
	MaxPressure int
	PID         int
}

var touchBannerFieldRe = regexp.MustCompile(`(\w+):\s*(\d+)`)

// parseTouchBanner consumes banner lines (terminated by a blank line) and
// extracts whichever of max_contacts/max_x/max_y/max_pressure/pid fields
// appear.
func parseTouchBanner(lines []string) TouchBanner {
	var b TouchBanner
	for _, line := range lines {
		for _, m := range touchBannerFieldRe.FindAllStringSubmatch(line, -1) {
			v, _ := strconv.Atoi(m[2])
			switch strings.ToLower(m[1]) {
			case "max_contacts":
				b.MaxContacts = v
			case "max_x":
				b.MaxX = v
			case "max_y":
				b.MaxY = v
			case "max_pressure":
				b.MaxPressure = v
			case "pid":
				b.PID = v
			}
		}
	}
	return b
}

// rotateCoords maps logical (x,y) in a display of size (w,h) into physical
// space for the given rotation, per spec.md §4.7's rotation table. The
// continuous (non-pixel-quantized) form of the reflection is used here so
// that a center click transforms to the physical center exactly, matching
// the tolerance spec.md's worked example allows.
func rotateCoords(x, y, w, h, rotation int) (int, int) {
	switch rotation {
	case 90:
		return y, w - x
	case 180:
		return w - x, h - y
	case 270:
		return h - y, x
	default:
		return x, y
	}
}

// scaleToDigitizer scales physical (x,y) within (physW, physH) to the
// digitizer's raw coordinate maxima.
func scaleToDigitizer(x, y, physW, physH, maxX, maxY int) (int, int) {
	if physW == 0 || physH == 0 {
		return x, y
	}
	sx := int(float64(x) * float64(maxX) / float64(physW))
	sy := int(float64(y) * float64(maxY) / float64(physH))
	return sx, sy
}

// serializeCommand renders one TouchCommand as its newline-terminated ASCII
// wire form.
func serializeCommand(cmd TouchCommand) string {
	switch c := cmd.(type) {
	case TouchDown:
		return fmt.Sprintf("d %d %d %d %d\n", c.Slot, c.X, c.Y, c.Pressure)
	case TouchUp:
		return fmt.Sprintf("u %d\n", c.Slot)
	case TouchMove:
		return fmt.Sprintf("m %d %d %d %d\n", c.Slot, c.X, c.Y, c.Pressure)
	case TouchCommit:
		return "c\n"
	case TouchWait:
		return fmt.Sprintf("w %d\n", c.Millis)
	case TouchReset:
		return "r\n"
	default:
		return ""
	}
}

// TouchStream launches the on-device touch agent, opens a TCP socket,
// parses its banner, and sends the typed command stream, synchronizing
// coordinates with the device's current rotation. At most one active
// session per device is enforced by a sessionguard.Guard.
type TouchStream struct {
	client  *adb.Client
	forward *ForwardManager
	probe   *DeviceProbe
	deploy  *AgentDeployer
	serial  string
	kind    AgentKind // AgentTouch ("minitouch") or AgentRotation ("maxtouch")

	guard *sessionguard.Guard

	mu       sync.Mutex
	conn     net.Conn
	writer   *bufio.Writer
	proc     *adb.Process
	banner   TouchBanner
	display  DisplayInfo
}

// NewTouchStream wires up a TouchStream. kind must be AgentTouch
// ("minitouch") or AgentRotation ("maxtouch").
func NewTouchStream(client *adb.Client, forward *ForwardManager, probe *DeviceProbe, deploy *AgentDeployer, serial string, kind AgentKind) *TouchStream {
	ts := &TouchStream{client: client, forward: forward, probe: probe, deploy: deploy, serial: serial, kind: kind}
	ts.guard = sessionguard.New(func(ctx context.Context, session any) {
		ts.teardown(ctx)
	})
	return ts
}

func (ts *TouchStream) abstractName() string {
	if ts.kind == AgentRotation {
		return "maxtouch"
	}
	return "minitouch"
}

// Start installs the agent, forwards a port, launches it, opens the
// socket, and consumes its banner lines up to the first blank line.
func (ts *TouchStream) Start(ctx context.Context, abi string, sdk int) error {
	if _, err := ts.guard.Acquire(ctx); err != nil {
		return err
	}
	if err := ts.startLocked(ctx, abi, sdk); err != nil {
		ts.guard.Release(ctx)
		return err
	}
	return nil
}

func (ts *TouchStream) startLocked(ctx context.Context, abi string, sdk int) error {
	if err := ts.deploy.Install(ctx, ts.kind, abi, sdk); err != nil {
		return fmt.Errorf("touch: install agent: %w", err)
	}
	info, err := ts.probe.DisplayInfo(ctx)
	if err != nil {
		return fmt.Errorf("touch: display info: %w", err)
	}

	port, err := ts.forward.ReservePort(ctx)
	if err != nil {
		return err
	}
	if err := ts.forward.Forward(ctx, LocalSpec(port), "localabstract:"+ts.abstractName()); err != nil {
		return fmt.Errorf("touch: forward: %w", err)
	}

	proc, err := ts.client.ShellAsync(ctx, ts.serial, "/data/local/tmp/"+ts.abstractName())
	if err != nil {
		return fmt.Errorf("touch: launch agent: %w", err)
	}

	time.Sleep(1 * time.Second)

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		proc.Kill()
		return fmt.Errorf("touch: dial: %w", err)
	}

	reader := bufio.NewReader(conn)
	var bannerLines []string
	for {
		line, rerr := reader.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed != "" {
			bannerLines = append(bannerLines, trimmed)
		}
		if trimmed == "" || rerr != nil {
			break
		}
	}

	ts.mu.Lock()
	ts.conn = conn
	ts.writer = bufio.NewWriter(conn)
	ts.proc = proc
	ts.banner = parseTouchBanner(bannerLines)
	ts.display = info
	ts.mu.Unlock()
	return nil
}

func (ts *TouchStream) send(cmds ...TouchCommand) error {
	ts.mu.Lock()
	w := ts.writer
	ts.mu.Unlock()
	if w == nil {
		return fmt.Errorf("touch: not started")
	}
	for _, c := range cmds {
		if _, err := w.WriteString(serializeCommand(c)); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (ts *TouchStream) transform(x, y int) (int, int) {
	ts.mu.Lock()
	d, b := ts.display, ts.banner
	ts.mu.Unlock()
	px, py := rotateCoords(x, y, d.Width, d.Height, d.Rotation)
	physW, physH := d.Width, d.Height
	if d.Rotation == 90 || d.Rotation == 270 {
		physW, physH = d.Height, d.Width
	}
	return scaleToDigitizer(px, py, physW, physH, b.MaxX, b.MaxY)
}

// Down injects a contact-down event for slot at logical (x,y).
func (ts *TouchStream) Down(ctx context.Context, slot, x, y, pressure int) error {
	dx, dy := ts.transform(x, y)
	return ts.send(TouchDown{Slot: slot, X: dx, Y: dy, Pressure: pressure})
}

// Up lifts the contact at slot.
func (ts *TouchStream) Up(ctx context.Context, slot int) error {
	return ts.send(TouchUp{Slot: slot})
}

// Move updates the contact at slot to logical (x,y).
func (ts *TouchStream) Move(ctx context.Context, slot, x, y, pressure int) error {
	dx, dy := ts.transform(x, y)
	return ts.send(TouchMove{Slot: slot, X: dx, Y: dy, Pressure: pressure})
}

// Sleep performs a host-side wait and echoes it to the agent, matching
// spec.md §4.7's "MAY also be echoed to the agent" note.
func (ts *TouchStream) Sleep(ctx context.Context, millis int) error {
	if err := ts.send(TouchWait{Millis: millis}); err != nil {
		return err
	}
	time.Sleep(time.Duration(millis) * time.Millisecond)
	return nil
}

// Click performs down; commit; wait(duration); up; commit, per spec.md §4.7.
func (ts *TouchStream) Click(ctx context.Context, x, y, slot, durationMillis int) error {
	dx, dy := ts.transform(x, y)
	if err := ts.send(TouchDown{Slot: slot, X: dx, Y: dy, Pressure: 50}, TouchCommit{}); err != nil {
		return err
	}
	if err := ts.Sleep(ctx, durationMillis); err != nil {
		return err
	}
	return ts.send(TouchUp{Slot: slot}, TouchCommit{})
}

// UpdateRotation refreshes the cached DisplayInfo used for coordinate
// transformation.
func (ts *TouchStream) UpdateRotation(ctx context.Context, orientation int) error {
	info, err := ts.probe.DisplayInfo(ctx)
	if err != nil {
		return err
	}
	ts.mu.Lock()
	ts.display = info
	ts.mu.Unlock()
	return nil
}

func (ts *TouchStream) teardown(ctx context.Context) {
	ts.mu.Lock()
	conn, proc := ts.conn, ts.proc
	ts.conn, ts.writer, ts.proc = nil, nil, nil
	ts.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	if proc != nil {
		proc.Kill()
	}
}

// Stop closes the touch socket and terminates the agent process, releasing
// the session guard.
func (ts *TouchStream) Stop(ctx context.Context) {
	ts.teardown(ctx)
	ts.guard.Release(ctx)
}
