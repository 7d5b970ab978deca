package adb

import (
	"strings"
	"testing"
)

func TestDeviceListLineRegex(t *testing.T) {
	tests := []struct {
		line  string
		match bool
	}{
		{"emulator-5554\tdevice", true},
		{"127.0.0.1:7555\toffline", true},
		{"ABCDEF123\tunauthorized", true},
		{"not a device line", false},
		{"", false},
	}
	for _, tt := range tests {
		m := deviceListLine.FindStringSubmatch(tt.line)
		if (m != nil) != tt.match {
			t.Errorf("deviceListLine.Match(%q) = %v, want %v", tt.line, m != nil, tt.match)
		}
	}
}

func TestInstallFailureRegex(t *testing.T) {
	out := "pkg: /data/local/tmp/app.apk\nFailure [INSTALL_FAILED_ALREADY_EXISTS]"
	m := installFailure.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("expected installFailure to match %q", out)
	}
	if m[1] != "INSTALL_FAILED_ALREADY_EXISTS" {
		t.Errorf("got reason %q", m[1])
	}
}

func TestShellNewline(t *testing.T) {
	if shellNewline(23) != "\r\n" {
		t.Errorf("sdk 23 should use \\r\\n")
	}
	if shellNewline(24) != "\n" {
		t.Errorf("sdk 24 should use \\n")
	}
	if shellNewline(30) != "\n" {
		t.Errorf("sdk 30 should use \\n")
	}
}

func TestExitCodeMarker(t *testing.T) {
	m := exitCodeMarker.FindStringSubmatch("some output\n---1---")
	if m == nil || m[1] != "1" {
		t.Fatalf("expected exit code marker to extract 1, got %v", m)
	}
}

// GetState distinguishes "device absent" from a genuine failure by
// substring-matching "not found" in stderr; this checks that substring
// against a representative bridge error line. It does not call GetState,
// so it does not detect a change to the substring in client.go.
func TestGetStateNotFoundSubstring(t *testing.T) {
	stderr := "error: device 'deadbeef' not found"
	if !strings.Contains(stderr, "not found") {
		t.Fatalf("expected stderr to contain %q", "not found")
	}
}
