package envelope

import "github.com/wavebank/gosynth2/internal/sfmath"

// Volume is the 5-stage DAHDSR envelope used for note amplitude: linear
// attack, then exponential decay to the sustain level and exponential
// release from whatever level the envelope was at when released.
type Volume struct {
	attackSlope  float64
	decaySlope   float64
	releaseSlope float64

	attackStartTime  float64
	holdStartTime    float64
	decayStartTime   float64
	releaseStartTime float64

	sustainLevel float32
	releaseLevel float32

	stage       Stage
	value       float32
	currentTime float64

	sampleRate float64
}

// Start begins the envelope. delay/attack/hold/decay/release are seconds;
// sustain is the linear [0,1] sustain level. release is assumed already
// clamped to >= 0.01s by the caller to avoid a divide-by-zero click.
func (e *Volume) Start(delay, attack, hold, decay float32, sustain, release float32, sampleRate float64) {
	e.sampleRate = sampleRate

	e.attackSlope = 1 / float64(attack)
	e.decaySlope = -9.226 / float64(decay)
	e.releaseSlope = -9.226 / float64(release)

	e.attackStartTime = float64(delay)
	e.holdStartTime = e.attackStartTime + float64(attack)
	e.decayStartTime = e.holdStartTime + float64(hold)
	e.releaseStartTime = 0

	e.sustainLevel = sfmath.Clamp(sustain, 0, 1)
	e.releaseLevel = 0

	e.stage = Delay
	e.value = 0
	e.currentTime = 0

	e.advance()
}

// Release switches the envelope into its release stage starting from
// whatever amplitude it currently holds.
func (e *Volume) Release() {
	e.stage = Release
	e.releaseStartTime = e.currentTime
	e.releaseLevel = e.value
}

// Render advances the envelope by one sample and returns its current
// value along with whether the voice is still audible.
func (e *Volume) Render() (value float32, audible bool) {
	e.currentTime += 1 / e.sampleRate
	return e.advance()
}

func (e *Volume) advance() (float32, bool) {
	for e.stage <= Hold {
		var endTime float64
		switch e.stage {
		case Delay:
			endTime = e.attackStartTime
		case Attack:
			endTime = e.holdStartTime
		case Hold:
			endTime = e.decayStartTime
		}
		if e.currentTime < endTime {
			break
		}
		e.stage = e.stage.next()
	}

	switch e.stage {
	case Delay:
		e.value = 0
		return e.value, true
	case Attack:
		e.value = float32(e.attackSlope * (e.currentTime - e.attackStartTime))
		return e.value, true
	case Hold:
		e.value = 1
		return e.value, true
	case Decay:
		e.value = sfmath.Max(float32(sfmath.ExpCutoff(e.decaySlope*(e.currentTime-e.decayStartTime))), e.sustainLevel)
		return e.value, e.value > sfmath.NonAudible
	default: // Release
		e.value = e.releaseLevel * float32(sfmath.ExpCutoff(e.releaseSlope*(e.currentTime-e.releaseStartTime)))
		return e.value, e.value > sfmath.NonAudible
	}
}

// Value returns the envelope's current amplitude without advancing it.
func (e *Volume) Value() float32 {
	return e.value
}

// Stage returns the envelope's current DAHDSR stage.
func (e *Volume) Stage() Stage {
	return e.stage
}

// Priority returns the voice-stealing priority of the envelope's current
// stage.
func (e *Volume) Priority() float32 {
	return e.stage.Priority()
}
