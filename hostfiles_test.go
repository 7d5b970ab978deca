package dbridge

import (
	"path/filepath"
	"testing"
)

func TestDefaultHostFilesRoundTrip(t *testing.T) {
	hf := NewDefaultHostFiles()
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.bin")

	if err := hf.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	b, err := hf.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(b) != "payload" {
		t.Errorf("ReadFile() = %q, want %q", b, "payload")
	}
	if _, err := hf.Stat(path); err != nil {
		t.Errorf("Stat() error = %v", err)
	}
	if err := hf.Remove(path); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
}
