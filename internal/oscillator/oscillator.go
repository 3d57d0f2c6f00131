// Package oscillator implements fixed-point sample playback with loop
// arithmetic, the Q40.24 position pointer avoiding float drift over long
// sustained notes (see rustysynth's oscillator.rs for the reference
// arithmetic this mirrors).
package oscillator

import "math"

// LoopMode selects how playback wraps at the sample's loop points.
type LoopMode int

const (
	NoLoop LoopMode = iota
	Continuous
	LoopUntilNoteOff
)

const fracBits = 24
const fracUnit = int64(1) << fracBits
const fpToSample = float32(1) / float32(32768*fracUnit)

// Oscillator reads linearly-interpolated samples out of a shared,
// read-only i16 sample pool.
type Oscillator struct {
	data []int16

	loopMode   LoopMode
	sampleRate float32
	start      int32
	end        int32
	startLoop  int32
	endLoop    int32
	rootKey    int32
	fineTune   float32

	engineSampleRate float32
	sampleRateRatio  float32
	looping          bool

	positionFP int64
}

// Start begins playback of a region of the shared sample pool at absolute
// offsets [start, end), looping within [startLoop, endLoop) according to
// loopMode. engineSampleRate is the synthesizer's fixed output rate.
func (o *Oscillator) Start(data []int16, loopMode LoopMode, sampleRate float32, start, end, startLoop, endLoop, rootKey int32, fineTuneCents float32, engineSampleRate float32) {
	o.data = data
	o.loopMode = loopMode
	o.sampleRate = sampleRate
	o.start = start
	o.end = end
	o.startLoop = startLoop
	o.endLoop = endLoop
	o.rootKey = rootKey
	o.fineTune = 0.01 * fineTuneCents

	o.engineSampleRate = engineSampleRate
	o.sampleRateRatio = sampleRate / engineSampleRate
	o.looping = loopMode != NoLoop
	o.positionFP = int64(start) << fracBits
}

// Release switches a LoopUntilNoteOff oscillator to run out to the
// sample's natural end instead of continuing to loop.
func (o *Oscillator) Release() {
	if o.loopMode == LoopUntilNoteOff {
		o.looping = false
	}
}

// Render advances the oscillator by one output sample at the given pitch
// (MIDI note number plus fractional semitones) and returns the
// interpolated sample value. It returns false once the sample (or its
// final, non-looping loop pass) has run out.
func (o *Oscillator) Render(pitch float32) (float32, bool) {
	if len(o.data) == 0 {
		return 0, false
	}

	pitchChange := (pitch - float32(o.rootKey)) + o.fineTune
	pitchRatio := float64(o.sampleRateRatio) * math.Pow(2, float64(pitchChange)/12)
	pitchRatioFP := int64(pitchRatio * float64(fracUnit))

	var index1, index2 int64
	if o.looping {
		endLoopFP := int64(o.endLoop) << fracBits
		loopLength := int64(o.endLoop - o.startLoop)
		loopLengthFP := loopLength << fracBits

		if o.positionFP >= endLoopFP {
			o.positionFP -= loopLengthFP
		}

		index1 = o.positionFP >> fracBits
		index2 = index1 + 1
		if index2 >= int64(o.endLoop) {
			index2 -= loopLength
		}
	} else {
		index1 = o.positionFP >> fracBits
		if index1 >= int64(o.end) {
			return 0, false
		}
		index2 = index1 + 1
	}

	x1 := int64(o.data[index1])
	x2 := int64(o.data[index2])
	fracPart := o.positionFP & (fracUnit - 1)

	o.positionFP += pitchRatioFP

	sample := fpToSample * float32((x1<<fracBits)+fracPart*(x2-x1))
	return sample, true
}
