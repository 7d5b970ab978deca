package adb

import (
	"reflect"
	"testing"
)

func TestToArgsGlobalOptions(t *testing.T) {
	opts := &ShellOptions{GlobalOptions: GlobalOptions{Host: "127.0.0.1", Port: 5037, Serial: "emulator-5554"}}
	got := ToArgs(opts)
	want := []string{"-H", "127.0.0.1", "-P", "5037", "-s", "emulator-5554"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToArgs() = %v, want %v", got, want)
	}
}

func TestToArgsZeroFieldsOmitted(t *testing.T) {
	opts := &ShellOptions{}
	got := ToArgs(opts)
	if len(got) != 0 {
		t.Errorf("expected no args for zero-value struct, got %v", got)
	}
}

func TestToArgsBoolFlag(t *testing.T) {
	opts := &InstallOptions{Replace: true}
	got := ToArgs(opts)
	want := []string{"-r"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToArgs() = %v, want %v", got, want)
	}
}

func TestToArgsForwardNoRebind(t *testing.T) {
	opts := &ForwardOptions{NoRebind: true, GlobalOptions: GlobalOptions{Serial: "emulator-5554"}}
	got := ToArgs(opts)
	want := []string{"-s", "emulator-5554", "--no-rebind"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToArgs() = %v, want %v", got, want)
	}
}
