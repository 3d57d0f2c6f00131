// Package chorus implements the synthesizer's send/return chorus bus: a
// three-tap modulated delay line, adapted from a single-tap modulated
// delay into three taps at fixed LFO phase offsets so their sum thickens
// rather than simply flanges the signal.
package chorus

import "math"

const tapCount = 3

// Chorus is a mono-in, stereo-out modulated delay chorus.
type Chorus struct {
	buf []float32
	pos int
	size int

	baseDelay float32 // samples
	depth     float32 // samples
	rate      float64 // radians per sample

	phase [tapCount]float64
}

// New builds a Chorus at sampleRate with delayMs/depthMs/rateHz tuned per
// the synthesizer's defaults (delay ~2ms, depth ~1.9ms, rate ~0.4Hz).
func New(sampleRate int, delayMs, depthMs, rateHz float32) *Chorus {
	base := float64(delayMs) * float64(sampleRate) / 1000.0
	depth := float64(depthMs) * float64(sampleRate) / 1000.0
	size := int(base+depth) + 4
	if size < 8 {
		size = 8
	}
	c := &Chorus{
		buf:       make([]float32, size),
		size:      size,
		baseDelay: float32(base),
		depth:     float32(depth),
		rate:      2 * math.Pi * float64(rateHz) / float64(sampleRate),
	}
	for i := range c.phase {
		c.phase[i] = 2 * math.Pi * float64(i) / float64(tapCount)
	}
	return c
}

// Mute clears the delay buffer and LFO phase, the way a synthesizer
// reset does.
func (c *Chorus) Mute() {
	for i := range c.buf {
		c.buf[i] = 0
	}
	c.pos = 0
	for i := range c.phase {
		c.phase[i] = 2 * math.Pi * float64(i) / float64(tapCount)
	}
}

// Render advances the chorus by one mono input sample and returns the
// stereo wet output: left is the mean of the three taps, right is one
// third of the first tap minus half of each of the other two, giving the
// two channels a distinct
// comb-filtered timbre the way a true multi-tap chorus does.
func (c *Chorus) Render(input float32) (left, right float32) {
	c.buf[c.pos] = input
	c.pos++
	if c.pos >= c.size {
		c.pos = 0
	}

	var taps [tapCount]float32
	for i := 0; i < tapCount; i++ {
		mod := float32(math.Sin(c.phase[i])) * c.depth
		c.phase[i] += c.rate
		if c.phase[i] > 2*math.Pi {
			c.phase[i] -= 2 * math.Pi
		}
		taps[i] = c.readTap(c.baseDelay + mod)
	}

	const third = 1.0 / 3.0
	left = third * (taps[0] + taps[1] + taps[2])
	right = third * (taps[0] - 0.5*taps[1] - 0.5*taps[2])
	return left, right
}

func (c *Chorus) readTap(delay float32) float32 {
	readPos := float32(c.pos) - delay
	for readPos < 0 {
		readPos += float32(c.size)
	}
	idx := int(readPos)
	frac := readPos - float32(idx)
	idx2 := idx + 1
	if idx2 >= c.size {
		idx2 = 0
	}
	if idx >= c.size {
		idx = 0
	}
	return c.buf[idx]*(1-frac) + c.buf[idx2]*frac
}
