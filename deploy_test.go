package dbridge

import (
	"path/filepath"
	"testing"
)

func TestChecksumFile(t *testing.T) {
	hf := NewDefaultHostFiles()
	dir := t.TempDir()
	path := filepath.Join(dir, "minicap")
	if err := hf.WriteFile(path, []byte("agent binary bytes"), 0o755); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	sum1, err := checksumFile(hf, path)
	if err != nil {
		t.Fatalf("checksumFile() error = %v", err)
	}
	sum2, err := checksumFile(hf, path)
	if err != nil {
		t.Fatalf("checksumFile() error = %v", err)
	}
	if sum1 != sum2 {
		t.Errorf("checksum not deterministic: %q != %q", sum1, sum2)
	}
	if sum1 == "" {
		t.Error("checksum is empty")
	}
}

func TestAgentExecName(t *testing.T) {
	tests := map[AgentKind]string{
		AgentCapture:  "minicap",
		AgentTouch:    "minitouch",
		AgentRotation: "maxtouch",
	}
	for kind, want := range tests {
		if got := agentExecName(kind); got != want {
			t.Errorf("agentExecName(%v) = %q, want %q", kind, got, want)
		}
	}
}

func TestResolvePaths(t *testing.T) {
	d := &AgentDeployer{AgentRoot: "/opt/dbridge"}
	execHost, execDevice, libHost, libDevice := d.resolve(AgentCapture, "arm64-v8a", 30)
	if execHost != "/opt/dbridge/android/arm64-v8a/bin/minicap" {
		t.Errorf("execHost = %q", execHost)
	}
	if execDevice != "/data/local/tmp/minicap" {
		t.Errorf("execDevice = %q", execDevice)
	}
	if libHost != "/opt/dbridge/android/arm64-v8a/lib/android-30/minicap.so" {
		t.Errorf("libHost = %q", libHost)
	}
	if libDevice != "/data/local/tmp/minicap.so" {
		t.Errorf("libDevice = %q", libDevice)
	}
}
