package dbridge

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/banksean/dbridge/adb"
)

// ForwardManager reserves host TCP ports and creates/lists/removes
// host<->device port forwards. It keeps no cache: every List call
// re-queries the bridge tool, which is always the authority on what
// forwards actually exist.
type ForwardManager struct {
	client *adb.Client
	serial string
}

// NewForwardManager returns a ForwardManager bound to one device's bridge
// endpoint.
func NewForwardManager(client *adb.Client, serial string) *ForwardManager {
	return &ForwardManager{client: client, serial: serial}
}

var forwardListLine = regexp.MustCompile(`^(\S+)\s+(\S+)\s+(\S+)$`)

// List returns the bridge's live forward table for this device, parsed
// from `adb forward --list`.
func (fm *ForwardManager) List(ctx context.Context) ([]Forward, error) {
	out, err := fm.client.ForwardList(ctx)
	if err != nil {
		return nil, err
	}
	var forwards []Forward
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := forwardListLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if m[1] != fm.serial {
			continue
		}
		forwards = append(forwards, Forward{Local: m[2], Remote: m[3]})
	}
	return forwards, nil
}

// reservePortAttempts bounds the port-reservation retry loop. The original
// this engine is modeled on recurses without bound on repeated bind
// collisions; this is the bounded-retry redesign the spec calls for.
const reservePortAttempts = 64

// ReservePort picks a free host TCP port in [11111, 20000] by transiently
// binding to it. Binding is racy with respect to other processes on the
// host - and with other concurrent callers of ReservePort itself, since
// each call must return a distinct port - so the bind is retried up to
// reservePortAttempts times; if every attempt collides, the OS is asked to
// assign an ephemeral port instead of recursing unboundedly.
func (fm *ForwardManager) ReservePort(ctx context.Context) (int, error) {
	for i := 0; i < reservePortAttempts; i++ {
		port := 11111 + rand.Intn(20000-11111+1)
		if tryBind(port) {
			return port, nil
		}
	}
	// Deterministic fallback: let the OS hand back whatever ephemeral port
	// is currently free, rather than recursing forever looking for one in
	// the preferred range.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("forward: could not reserve any local port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func tryBind(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}
	l.Close()
	return true
}

// localInForwards scans forwards for an entry matching local or remote,
// local taking precedence, returning its index or -1.
func localInForwards(forwards []Forward, local, remote string) int {
	if local != "" {
		for i, f := range forwards {
			if f.Local == local {
				return i
			}
		}
	}
	if remote != "" {
		for i, f := range forwards {
			if f.Remote == remote {
				return i
			}
		}
	}
	return -1
}

// Forward creates local<->remote, idempotently: if an equivalent forward
// already exists (per the live list), it is left alone and this call
// succeeds without re-issuing the bridge command.
func (fm *ForwardManager) Forward(ctx context.Context, local, remote string) error {
	existing, err := fm.List(ctx)
	if err != nil {
		return err
	}
	if i := localInForwards(existing, local, remote); i >= 0 && existing[i].Local == local && existing[i].Remote == remote {
		return nil
	}
	return fm.client.Forward(ctx, fm.serial, local, remote, true)
}

// Remove removes the forward at local. If local is "", it removes every
// forward this bridge endpoint owns (`forward --remove-all`).
func (fm *ForwardManager) Remove(ctx context.Context, local string) error {
	if local == "" {
		return fm.client.ForwardRemoveAll(ctx, fm.serial)
	}
	return fm.client.ForwardRemove(ctx, fm.serial, local)
}

// LocalSpec formats a reserved port as a forward's local half.
func LocalSpec(port int) string {
	return "tcp:" + strconv.Itoa(port)
}
