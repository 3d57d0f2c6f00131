package envelope

import "testing"

const sr = 44100.0

func TestVolumeStageMonotone(t *testing.T) {
	var e Volume
	e.Start(0.01, 0.02, 0.01, 0.1, 0.5, 0.2, sr)

	last := e.Stage()
	for i := 0; i < int(sr); i++ {
		_, audible := e.Render()
		if e.Stage() < last {
			t.Fatalf("stage went backwards: %v -> %v", last, e.Stage())
		}
		last = e.Stage()
		if !audible && e.Stage() < Decay {
			t.Fatalf("should not report inaudible before decay/release")
		}
	}
}

func TestVolumeDelayIsSilent(t *testing.T) {
	var e Volume
	e.Start(0.05, 0.02, 0.01, 0.1, 0.5, 0.2, sr)
	v, _ := e.Render()
	if v != 0 {
		t.Fatalf("expected 0 during delay, got %v", v)
	}
	if e.Stage() != Delay {
		t.Fatalf("expected Delay stage, got %v", e.Stage())
	}
}

func TestVolumeReachesSustain(t *testing.T) {
	var e Volume
	e.Start(0, 0.001, 0, 0.01, 0.3, 0.2, sr)
	var v float32
	for i := 0; i < int(sr*0.5); i++ {
		v, _ = e.Render()
	}
	if v-0.3 > 0.01 || 0.3-v > 0.01 {
		t.Fatalf("expected to settle near sustain 0.3, got %v", v)
	}
}

func TestVolumeReleaseDecaysFromCurrentLevel(t *testing.T) {
	var e Volume
	e.Start(0, 0.001, 0, 10, 0, 0.01, sr)
	for i := 0; i < 100; i++ {
		e.Render()
	}
	before := e.Value()
	e.Release()
	v, _ := e.Render()
	if v > before {
		t.Fatalf("release should not increase the level: before=%v after=%v", before, v)
	}
}

func TestVolumeBecomesInaudibleEventually(t *testing.T) {
	var e Volume
	e.Start(0, 0.001, 0, 0.01, 0, 0.01, sr)
	e.Release()
	audible := true
	for i := 0; i < int(sr); i++ {
		_, audible = e.Render()
		if !audible {
			break
		}
	}
	if audible {
		t.Fatalf("expected envelope to become inaudible within one second")
	}
}

func TestModulationLinearDecay(t *testing.T) {
	var e Modulation
	e.Start(0, 0, 0, 1.0, 0, 1.0, sr)
	for i := 0; i < int(sr*0.5); i++ {
		e.Render()
	}
	v := e.Value()
	if v-0.5 > 0.02 || 0.5-v > 0.02 {
		t.Fatalf("expected roughly half decayed at midpoint of a 1s linear decay to 0 sustain, got %v", v)
	}
}

func TestModulationAttackRampsToOne(t *testing.T) {
	var e Modulation
	e.Start(0, 0.1, 0, 1, 1, 1, sr)
	for i := 0; i < int(sr*0.1); i++ {
		e.Render()
	}
	if v := e.Value(); v < 0.9 {
		t.Fatalf("expected attack to nearly reach 1 by its end, got %v", v)
	}
}
