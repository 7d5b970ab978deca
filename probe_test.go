package dbridge

import "testing"

func TestDisplayInfoRegexVariants(t *testing.T) {
	dumpsysDisplay := `DisplayDeviceInfo{"Built-in Screen": uniqueId="local:0", PhysicalDisplayInfo{1080 x 2340, 60.000004, density 420, 400.0 x 400.0 dpi, secure=true}}`
	m := displayInfoRe.FindStringSubmatch(dumpsysDisplay)
	if m == nil {
		t.Fatal("expected displayInfoRe to match")
	}
	if m[1] != "1080" || m[2] != "2340" || m[3] != "420" {
		t.Errorf("got %v", m)
	}

	dumpsysWindow := `mUnrestrictedScreen=(0,0) 1080x2340`
	m2 := unrestrictedScreenRe.FindStringSubmatch(dumpsysWindow)
	if m2 == nil || m2[1] != "1080" || m2[2] != "2340" {
		t.Fatalf("expected unrestrictedScreenRe to match, got %v", m2)
	}

	wmOut := "Physical size: 1080x2340\nPhysical density: 420"
	m3 := wmSizeDensityRe.FindStringSubmatch(wmOut)
	if m3 == nil || m3[1] != "1080" || m3[2] != "2340" || m3[3] != "420" {
		t.Fatalf("expected wmSizeDensityRe to match, got %v", m3)
	}
}

func TestOrientationRegexVariants(t *testing.T) {
	sf := "Display 0 HWC layers:\norientation=2\n"
	if m := orientationSurfaceFlingerRe.FindStringSubmatch(sf); m == nil || m[1] != "2" {
		t.Fatalf("expected match, got %v", m)
	}
	in := "SurfaceOrientation:   3"
	if m := orientationInputRe.FindStringSubmatch(in); m == nil || m[1] != "3" {
		t.Fatalf("expected match, got %v", m)
	}
}

func TestGeteventMaxRegex(t *testing.T) {
	line35 := "    0035  : value 0, min 0, max 32767, fuzz 0, flat 0, resolution 0"
	if m := getevent0035Re.FindStringSubmatch(line35); m == nil || m[1] != "32767" {
		t.Fatalf("expected match for 0035, got %v", m)
	}
	line36 := "    0036  : value 0, min 0, max 32767, fuzz 0, flat 0, resolution 0"
	if m := getevent0036Re.FindStringSubmatch(line36); m == nil || m[1] != "32767" {
		t.Fatalf("expected match for 0036, got %v", m)
	}
}
