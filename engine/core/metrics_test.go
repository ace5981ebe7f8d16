package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestMetricsRollingAverage(t *testing.T) {
	MetricsReset()
	defer MetricsReset()

	MetricsRecordDecode(2*time.Millisecond, 16, nil)
	MetricsRecordDecode(4*time.Millisecond, 16, nil)
	MetricsRecordDecode(time.Second, 0, errors.New("boom"))

	if got := MetricsDecodeTime(); math.Abs(got-3) > 1e-9 {
		t.Errorf("average: got %f, want 3", got)
	}
	decodes, failures := MetricsDecodes()
	if decodes != 2 || failures != 1 {
		t.Errorf("got %d decodes and %d failures, want 2 and 1", decodes, failures)
	}
	if MetricsDecodedBytes() != 32 {
		t.Errorf("decoded bytes: got %d, want 32", MetricsDecodedBytes())
	}
}

func TestMetricsWindow(t *testing.T) {
	MetricsReset()
	defer MetricsReset()

	for i := 0; i < int(AVG_COUNT); i++ {
		MetricsRecordDecode(100*time.Millisecond, 0, nil)
	}
	// a full window of 1ms samples pushes every 100ms sample out
	for i := 0; i < int(AVG_COUNT); i++ {
		MetricsRecordDecode(time.Millisecond, 0, nil)
	}
	if got := MetricsDecodeTime(); math.Abs(got-1) > 1e-9 {
		t.Errorf("average: got %f, want 1", got)
	}
}

func TestClock(t *testing.T) {
	c := NewClock()
	c.Update()
	if c.Elapsed() != 0 {
		t.Errorf("a clock that was never started must not advance")
	}

	c.Start()
	time.Sleep(time.Millisecond)
	c.Update()
	first := c.Elapsed()
	if first <= 0 {
		t.Fatalf("elapsed: got %s", first)
	}

	c.Stop()
	time.Sleep(time.Millisecond)
	c.Update()
	if c.Elapsed() != first {
		t.Errorf("stopped clock moved from %s to %s", first, c.Elapsed())
	}
}
