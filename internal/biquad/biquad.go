// Package biquad implements the second-order low-pass filter used by every
// voice's resonant cutoff.
package biquad

import "math"

// resonancePeakOffset is the empirical correction applied to the resonance
// value so the filter's actual peak height matches the requested Q within
// about 3%.
const resonancePeakOffset = 1 - 1/math.Sqrt2

// Filter is a direct-form-I biquad. The zero value is an inactive
// (bypassing) filter.
type Filter struct {
	active bool

	a0, a1, a2, a3, a4 float32
	x1, x2, y1, y2     float32
}

// ClearBuffer zeros the filter's state registers without touching its
// coefficients.
func (f *Filter) ClearBuffer() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}

// SetLowPassFilter recomputes the filter coefficients for a low-pass
// response at cutoffHz with the given linear resonance. If cutoffHz is at
// or above 0.499*sampleRate (just under Nyquist) the filter goes inactive
// (bypass).
func (f *Filter) SetLowPassFilter(cutoffHz, resonance float32, sampleRate float32) {
	if cutoffHz >= 0.499*sampleRate {
		f.active = false
		return
	}
	f.active = true

	q := resonance - float32(resonancePeakOffset)/(1+6*(resonance-1))

	w := 2 * math.Pi * float64(cutoffHz) / float64(sampleRate)
	cosw := float32(math.Cos(w))
	alpha := float32(math.Sin(w)) / (2 * q)

	b0 := (1 - cosw) / 2
	b1 := 1 - cosw
	b2 := (1 - cosw) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw
	a2 := 1 - alpha

	f.a0 = b0 / a0
	f.a1 = b1 / a0
	f.a2 = b2 / a0
	f.a3 = a1 / a0
	f.a4 = a2 / a0
}

// Render filters a single sample.
func (f *Filter) Render(input float32) float32 {
	var output float32
	if f.active {
		output = f.a0*input + f.a1*f.x1 + f.a2*f.x2 - f.a3*f.y1 - f.a4*f.y2
	} else {
		output = input
	}

	f.x2 = f.x1
	f.x1 = input
	f.y2 = f.y1
	f.y1 = output

	return output
}

// Active reports whether the filter is currently applying its response
// (false means Render is a pass-through).
func (f *Filter) Active() bool {
	return f.active
}
