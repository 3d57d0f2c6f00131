package lfo

import "testing"

const sr = 44100.0

func TestInactiveBelowThreshold(t *testing.T) {
	var l LFO
	l.Start(0, 0, sr)
	for i := 0; i < 100; i++ {
		if v := l.Render(); v != 0 {
			t.Fatalf("expected frozen 0 for a sub-threshold rate, got %v", v)
		}
	}
}

func TestSilentDuringDelay(t *testing.T) {
	var l LFO
	l.Start(0.1, 5, sr)
	for i := 0; i < int(sr*0.05); i++ {
		if v := l.Render(); v != 0 {
			t.Fatalf("expected silence during delay, got %v", v)
		}
	}
}

func TestTriangleShapeBreakpoints(t *testing.T) {
	var l LFO
	l.Start(0, 1, sr)

	var max, min float32
	for i := 0; i < int(sr); i++ {
		v := l.Render()
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	if max < 0.95 || max > 1.0001 {
		t.Fatalf("expected triangle peak near +1, got %v", max)
	}
	if min > -0.95 || min < -1.0001 {
		t.Fatalf("expected triangle trough near -1, got %v", min)
	}
}

func TestOscillatesAfterDelay(t *testing.T) {
	var l LFO
	l.Start(0.01, 2, sr)
	for i := 0; i < int(sr*0.01); i++ {
		l.Render()
	}
	sawPositive := false
	sawNegative := false
	for i := 0; i < int(sr); i++ {
		v := l.Render()
		if v > 0.5 {
			sawPositive = true
		}
		if v < -0.5 {
			sawNegative = true
		}
	}
	if !sawPositive || !sawNegative {
		t.Fatalf("expected the LFO to swing through both halves of its range after the delay")
	}
}
