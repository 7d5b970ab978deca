package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndLookup(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "agents.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer l.Close()

	ctx := context.Background()
	entry := Entry{
		DeviceSerial: "emulator-5554",
		Kind:         "capture",
		ABI:          "arm64-v8a",
		SDK:          30,
		HostPath:     "./android/arm64-v8a/bin/minicap",
		DevicePath:   "/data/local/tmp/minicap",
		Checksum:     "deadbeef",
		InstalledAt:  time.Now().Truncate(time.Second),
	}
	if err := l.Record(ctx, entry); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, ok, err := l.Lookup(ctx, "emulator-5554", "capture")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !ok {
		t.Fatal("expected entry to be found")
	}
	if got.Checksum != entry.Checksum {
		t.Errorf("Checksum = %q, want %q", got.Checksum, entry.Checksum)
	}
}

func TestLookupMiss(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "agents.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer l.Close()

	_, ok, err := l.Lookup(context.Background(), "nonexistent", "capture")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if ok {
		t.Fatal("expected no entry")
	}
}

func TestForget(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "agents.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer l.Close()

	ctx := context.Background()
	entry := Entry{DeviceSerial: "s1", Kind: "touch", ABI: "x86_64", SDK: 28, HostPath: "h", DevicePath: "d", Checksum: "c", InstalledAt: time.Now()}
	if err := l.Record(ctx, entry); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := l.Forget(ctx, "s1", "touch"); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}
	_, ok, err := l.Lookup(ctx, "s1", "touch")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if ok {
		t.Fatal("expected entry to be gone after Forget")
	}
}
