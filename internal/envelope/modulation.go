package envelope

import "github.com/wavebank/gosynth2/internal/sfmath"

// Modulation is the 5-stage DAHDSR envelope used to modulate pitch and
// filter cutoff. Unlike Volume, its decay and release segments are
// linear rather than exponential.
type Modulation struct {
	attackSlope  float64
	decaySlope   float64
	releaseSlope float64

	attackStartTime float64
	holdStartTime   float64
	decayStartTime  float64

	decayEndTime   float64
	releaseEndTime float64

	sustainLevel float32
	releaseLevel float32

	stage       Stage
	value       float32
	currentTime float64

	sampleRate float64
}

// Start begins the envelope; delay/attack/hold/decay/release are seconds,
// sustain is the linear [0,1] sustain level.
func (e *Modulation) Start(delay, attack, hold, decay, sustain, release float32, sampleRate float64) {
	e.sampleRate = sampleRate

	e.attackSlope = 1 / float64(attack)
	e.decaySlope = 1 / float64(decay)
	e.releaseSlope = 1 / float64(release)

	e.attackStartTime = float64(delay)
	e.holdStartTime = e.attackStartTime + float64(attack)
	e.decayStartTime = e.holdStartTime + float64(hold)

	e.decayEndTime = e.decayStartTime + float64(decay)
	e.releaseEndTime = float64(release)

	e.sustainLevel = sfmath.Clamp(sustain, 0, 1)
	e.releaseLevel = 0

	e.stage = Delay
	e.value = 0
	e.currentTime = 0

	e.advance()
}

// Release switches the envelope to its release stage, shifting the
// release-end deadline forward from wherever playback currently stands.
func (e *Modulation) Release() {
	e.stage = Release
	e.releaseEndTime += e.currentTime
	e.releaseLevel = e.value
}

// Render advances the envelope by one sample and returns whether the
// voice driven by it should still be considered active.
func (e *Modulation) Render() bool {
	e.currentTime += 1 / e.sampleRate
	return e.advance()
}

func (e *Modulation) advance() bool {
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
		return true
	case Attack:
		e.value = float32(e.attackSlope * (e.currentTime - e.attackStartTime))
		return true
	case Hold:
		e.value = 1
		return true
	case Decay:
		e.value = sfmath.Max(float32(e.decaySlope*(e.decayEndTime-e.currentTime)), e.sustainLevel)
		return true
	default: // Release
		v := e.releaseLevel * float32(e.releaseSlope*(e.releaseEndTime-e.currentTime))
		if v < 0 {
			v = 0
		}
		e.value = v
		return true
	}
}

// Value returns the envelope's current level without advancing it.
func (e *Modulation) Value() float32 {
	return e.value
}
