package adb

import (
	"context"
	"testing"
	"time"
)

func TestRunnerRunSuccess(t *testing.T) {
	r := NewRunner()
	res, err := r.Run(context.Background(), []string{"echo", "hello"}, 0, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ReturnCode != 0 {
		t.Errorf("ReturnCode = %d, want 0", res.ReturnCode)
	}
}

func TestRunnerRunNonZeroExit(t *testing.T) {
	r := NewRunner()
	_, err := r.Run(context.Background(), []string{"false"}, 0, false)
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	var be *BridgeError
	if e, ok := err.(*BridgeError); ok {
		be = e
	}
	if be == nil {
		t.Fatalf("expected *BridgeError, got %T", err)
	}
}

func TestRunnerRunSkipError(t *testing.T) {
	r := NewRunner()
	res, err := r.Run(context.Background(), []string{"false"}, 0, true)
	if err != nil {
		t.Fatalf("Run() with skipError=true should not raise, got %v", err)
	}
	if res.ReturnCode == 0 {
		t.Errorf("expected non-zero ReturnCode to be preserved")
	}
}

func TestRunnerRunTimeout(t *testing.T) {
	r := NewRunner()
	_, err := r.Run(context.Background(), []string{"sleep", "5"}, 10*time.Millisecond, false)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if _, ok := err.(*TimeoutError); !ok {
		t.Fatalf("expected *TimeoutError, got %T", err)
	}
}
