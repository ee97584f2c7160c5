package main

import "testing"

func TestFrameDriverRunsOnce(t *testing.T) {
	var d frameDriver
	if d.run() {
		t.Fatal("Expected no frame on an idle driver")
	}

	calls := 0
	d.RequestFrame(func() { calls++ })
	if !d.pending() {
		t.Fatal("Expected a pending frame")
	}
	if !d.run() || calls != 1 {
		t.Fatalf("Expected one call, got %d", calls)
	}
	if d.run() || calls != 1 {
		t.Errorf("Expected the frame to be consumed, got %d calls", calls)
	}
}

func TestFrameDriverRescheduleWaitsForNextRun(t *testing.T) {
	var d frameDriver
	calls := 0
	var tick func()
	tick = func() {
		calls++
		d.RequestFrame(tick)
	}
	d.RequestFrame(tick)

	for i := 0; i < 3; i++ {
		d.run()
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	if !d.pending() {
		t.Error("Expected the loop to stay scheduled")
	}
}

func TestFrameDriverKeepsLatestRequest(t *testing.T) {
	var d frameDriver
	first, second := 0, 0
	d.RequestFrame(func() { first++ })
	d.RequestFrame(func() { second++ })
	d.run()
	if first != 0 || second != 1 {
		t.Errorf("Expected only the latest callback, got first=%d second=%d", first, second)
	}
}

func TestParseLevel(t *testing.T) {
	if _, err := parseLevel("debug"); err != nil {
		t.Errorf("debug: %v", err)
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Error("Expected an error for an unknown level")
	}
}
