package sfmath

import "testing"

func near(t *testing.T, got, want, tol float32) {
	t.Helper()
	if got-want > tol || want-got > tol {
		t.Fatalf("got %v, want %v (tol %v)", got, want, tol)
	}
}

func TestTimecentsToSeconds(t *testing.T) {
	near(t, TimecentsToSeconds(0), 1, 1e-6)
	near(t, TimecentsToSeconds(1200), 2, 1e-4)
}

func TestCentsToHertz(t *testing.T) {
	near(t, CentsToHertz(0), 8.176, 1e-3)
	near(t, CentsToHertz(1200), 16.352, 1e-3)
}

func TestDecibelsRoundTrip(t *testing.T) {
	for _, db := range []float32{-40, -6, 0, 6, 20} {
		lin := DecibelsToLinear(db)
		back := LinearToDecibels(lin)
		near(t, back, db, 1e-3)
	}
}

func TestKeyNumberToMultiplyingFactor(t *testing.T) {
	near(t, KeyNumberToMultiplyingFactor(0, 60), 1, 1e-6)
	// 1 cent per semitone at key 48 (12 semitones below 60) is 12 cents.
	got := KeyNumberToMultiplyingFactor(1, 48)
	want := TimecentsToSeconds(12)
	near(t, got, want, 1e-6)
}

func TestExpCutoff(t *testing.T) {
	if ExpCutoff(-100) != 0 {
		t.Fatalf("expected 0 below LogNonAudible")
	}
	if ExpCutoff(0) != 1 {
		t.Fatalf("expected exp(0) == 1")
	}
}

func TestClamp(t *testing.T) {
	near(t, Clamp(5, 0, 1), 1, 0)
	near(t, Clamp(-5, 0, 1), 0, 0)
	near(t, Clamp(0.5, 0, 1), 0.5, 0)
}
