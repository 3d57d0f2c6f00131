// Package lfo implements the delayed triangle oscillator shared by a
// voice's vibrato and modulation LFOs.
package lfo

// LFO produces a [-1, +1] triangle wave after an initial delay, advancing
// one sample per Render call. It is reused per-voice (unlike the teacher's
// single shared engine-wide LFO) since each SF2 region can set its own
// delay and rate.
type LFO struct {
	active bool

	delay       float64
	period      float64
	currentTime float64
	value       float32

	sampleRate float64
}

// Start configures the LFO. delaySeconds and freqHz come from the region's
// generator values. Frequencies at or below 1mHz are treated as "off": the
// LFO freezes at 0 and Render becomes a no-op.
func (l *LFO) Start(delaySeconds, freqHz float32, sampleRate float64) {
	l.sampleRate = sampleRate
	if freqHz > 1.0e-3 {
		l.active = true
		l.delay = float64(delaySeconds)
		l.period = 1 / float64(freqHz)
		l.currentTime = 0
		l.value = 0
	} else {
		l.active = false
		l.value = 0
	}
}

// Render advances the LFO by one sample and returns its current value.
func (l *LFO) Render() float32 {
	if !l.active {
		return l.value
	}

	l.currentTime += 1 / l.sampleRate

	if l.currentTime < l.delay {
		l.value = 0
		return l.value
	}

	phase := mod(l.currentTime-l.delay, l.period) / l.period
	switch {
	case phase < 0.25:
		l.value = float32(4 * phase)
	case phase < 0.75:
		l.value = float32(4 * (0.5 - phase))
	default:
		l.value = float32(4 * (phase - 1))
	}
	return l.value
}

// Value returns the LFO's current value without advancing it.
func (l *LFO) Value() float32 {
	return l.value
}

func mod(a, b float64) float64 {
	m := a - float64(int64(a/b))*b
	if m < 0 {
		m += b
	}
	return m
}
