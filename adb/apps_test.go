package adb

import "testing"

func TestFocusedAppLineRegex(t *testing.T) {
	line := `mFocusedApp=AppWindowToken{abc123 token=Token{def456 ActivityRecord{1 u0 com.example.app/com.example.app.MainActivity t1}}}`
	m := focusedAppLine.FindStringSubmatch(line)
	if m == nil {
		t.Fatalf("expected focusedAppLine to match")
	}
	if m[1] != "com.example.app" {
		t.Errorf("got package %q", m[1])
	}
	if m[2] != "com.example.app.MainActivity" {
		t.Errorf("got activity %q", m[2])
	}
}
