package dbridge

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devices.yaml")
	doc := `
devices:
  - serial: emulator-5554
    abi: x86_64
    sdk: 30
  - serial: ABCDEF123
    abi: arm64-v8a
    sdk: 33
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	set, err := LoadProfiles(path)
	if err != nil {
		t.Fatalf("LoadProfiles() error = %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("len(set) = %d, want 2", len(set))
	}
	p, ok := set["ABCDEF123"]
	if !ok {
		t.Fatal("missing profile for ABCDEF123")
	}
	if p.ABI != "arm64-v8a" || p.SDK != 33 {
		t.Errorf("profile = %+v", p)
	}
}
