// Package voice implements a single running note's signal chain and the
// fixed-capacity, priority-stealing pool that manages polyphony.
package voice

import (
	"math"

	"github.com/wavebank/gosynth2/internal/biquad"
	"github.com/wavebank/gosynth2/internal/channel"
	"github.com/wavebank/gosynth2/internal/envelope"
	"github.com/wavebank/gosynth2/internal/lfo"
	"github.com/wavebank/gosynth2/internal/oscillator"
	"github.com/wavebank/gosynth2/internal/sfmath"
	"github.com/wavebank/gosynth2/internal/soundfont"
)

// State is where a voice sits in its Playing -> ReleaseRequested ->
// Released lifecycle.
type State int

const (
	Playing State = iota
	ReleaseRequested
	Released
)

// Voice is a single sounding note: the inner oscillator/envelopes/LFOs/
// filter plus the static parameters copied from its Region at start, and
// the smoothed stereo mix gains used to avoid pop noise across samples.
type Voice struct {
	volEnv envelope.Volume
	modEnv envelope.Modulation
	vibLFO lfo.LFO
	modLFO lfo.LFO
	osc    oscillator.Oscillator
	filter biquad.Filter

	PreviousMixGainLeft  float32
	PreviousMixGainRight float32
	CurrentMixGainLeft   float32
	CurrentMixGainRight  float32

	PreviousReverbSend float32
	PreviousChorusSend float32
	CurrentReverbSend  float32
	CurrentChorusSend  float32

	ExclusiveClass int32
	Channel        int32
	Key            int32
	Velocity       int32

	noteGain float32

	cutoff     float32
	resonance  float32

	vibLFOToPitch float32
	modLFOToPitch float32
	modEnvToPitch float32

	modLFOToCutoff int32
	modEnvToCutoff int32
	dynamicCutoff  bool

	modLFOToVolume float32
	dynamicVolume  bool

	instrumentPan     float32
	instrumentReverb  float32
	instrumentChorus  float32

	smoothedCutoff float32

	state       State
	VoiceLength int64

	sampleRate float64
}

const minVoiceLength = 88 // ~ SampleRate/500 at 44100Hz; releaseIfNecessary computes the bound from the voice's own sample rate.

// Start configures the voice to play region at the given channel, key
// and velocity, the way a fresh note-on does.
func (v *Voice) Start(region *soundfont.RegionPair, channelIdx, key, velocity int32, sampleRate float64) {
	v.ExclusiveClass = region.ExclusiveClass()
	v.Channel = channelIdx
	v.Key = key
	v.Velocity = velocity
	v.sampleRate = sampleRate

	if velocity > 0 {
		sampleAttenuation := 0.4 * region.InitialAttenuation()
		filterAttenuation := 0.5 * region.InitialFilterQ()
		decibels := 2*sfmath.LinearToDecibels(float32(velocity)/127) - sampleAttenuation - filterAttenuation
		v.noteGain = sfmath.DecibelsToLinear(decibels)
	} else {
		v.noteGain = 0
	}

	v.cutoff = region.InitialFilterCutoffFrequency()
	v.resonance = sfmath.DecibelsToLinear(region.InitialFilterQ())

	v.vibLFOToPitch = 0.01 * region.VibLFOToPitch()
	v.modLFOToPitch = 0.01 * region.ModLFOToPitch()
	v.modEnvToPitch = 0.01 * region.ModEnvToPitch()

	v.modLFOToCutoff = int32(region.ModLFOToFilterFc())
	v.modEnvToCutoff = int32(region.ModEnvToFilterFc())
	v.dynamicCutoff = v.modLFOToCutoff != 0 || v.modEnvToCutoff != 0

	v.modLFOToVolume = region.ModLFOToVolume()
	v.dynamicVolume = v.modLFOToVolume > 0.05

	v.instrumentPan = sfmath.Clamp(region.Pan(), -50, 50)
	v.instrumentReverb = 0.01 * region.ReverbEffectsSend()
	v.instrumentChorus = 0.01 * region.ChorusEffectsSend()

	keyScaleHold := sfmath.KeyNumberToMultiplyingFactor(region.KeyNumToVolEnvHold(), key)
	keyScaleDecay := sfmath.KeyNumberToMultiplyingFactor(region.KeyNumToVolEnvDecay(), key)
	v.volEnv.Start(
		region.DelayVolumeEnvelope(),
		region.AttackVolumeEnvelope(),
		region.HoldVolumeEnvelope()*keyScaleHold,
		region.DecayVolumeEnvelope()*keyScaleDecay,
		sfmath.DecibelsToLinear(-region.SustainVolumeEnvelope()),
		sfmath.Max(region.ReleaseVolumeEnvelope(), 0.01),
		sampleRate,
	)

	modKeyScaleHold := sfmath.KeyNumberToMultiplyingFactor(region.KeyNumToModEnvHold(), key)
	modKeyScaleDecay := sfmath.KeyNumberToMultiplyingFactor(region.KeyNumToModEnvDecay(), key)
	v.modEnv.Start(
		region.DelayModulationEnvelope(),
		region.AttackModulationEnvelope()*((145-float32(velocity))/144),
		region.HoldModulationEnvelope()*modKeyScaleHold,
		region.DecayModulationEnvelope()*modKeyScaleDecay,
		1-region.SustainModulationEnvelope()/100,
		region.ReleaseModulationEnvelope(),
		sampleRate,
	)

	v.vibLFO.Start(region.DelayVibratoLFO(), region.FrequencyVibratoLFO(), sampleRate)
	v.modLFO.Start(region.DelayModulationLFO(), region.FrequencyModulationLFO(), sampleRate)

	region.StartOscillator(&v.osc, float32(sampleRate))

	v.filter.ClearBuffer()
	v.filter.SetLowPassFilter(v.cutoff, v.resonance, float32(sampleRate))

	v.smoothedCutoff = v.cutoff

	v.state = Playing
	v.VoiceLength = 0
}

// End requests a graceful release; it is a no-op once the voice has
// already begun releasing.
func (v *Voice) End() {
	if v.state == Playing {
		v.state = ReleaseRequested
	}
}

// Kill immediately silences the voice (used by exclusive-class cut-off
// and by hard "all sound off").
func (v *Voice) Kill() {
	v.noteGain = 0
}

// Process advances the voice by one output sample and returns the
// filtered sample value and whether the voice should keep running.
func (v *Voice) Process(ch *channel.Channel) (float32, bool) {
	if v.noteGain < sfmath.NonAudible {
		return 0, false
	}

	v.releaseIfNecessary(ch)

	volValue, audible := v.volEnv.Render()
	if !audible {
		return 0, false
	}

	v.modEnv.Render()
	vibValue := v.vibLFO.Render()
	modValue := v.modLFO.Render()

	vibPitchChange := (0.01*ch.Modulation() + v.vibLFOToPitch) * vibValue
	modPitchChange := v.modLFOToPitch*modValue + v.modEnvToPitch*v.modEnv.Value()
	channelPitchChange := ch.Tune() + ch.PitchBend()
	pitch := float32(v.Key) + vibPitchChange + modPitchChange + channelPitchChange

	sample, ok := v.osc.Render(pitch)
	if !ok {
		return 0, false
	}

	if v.dynamicCutoff {
		cents := float32(v.modLFOToCutoff)*modValue + float32(v.modEnvToCutoff)*v.modEnv.Value()
		factor := sfmath.CentsToMultiplyingFactor(cents)
		newCutoff := factor * v.cutoff

		lower := 0.5 * v.smoothedCutoff
		upper := 2 * v.smoothedCutoff
		v.smoothedCutoff = sfmath.Clamp(newCutoff, lower, upper)

		v.filter.SetLowPassFilter(v.smoothedCutoff, v.resonance, float32(v.sampleRate))
	}
	sample = v.filter.Render(sample)

	v.PreviousMixGainLeft = v.CurrentMixGainLeft
	v.PreviousMixGainRight = v.CurrentMixGainRight
	v.PreviousReverbSend = v.CurrentReverbSend
	v.PreviousChorusSend = v.CurrentChorusSend

	ve := ch.Volume() * ch.Expression()
	channelGain := ve * ve

	mixGain := v.noteGain * channelGain * volValue
	if v.dynamicVolume {
		mixGain *= sfmath.DecibelsToLinear(v.modLFOToVolume * modValue)
	}

	angle := (math.Pi / 200) * (ch.Pan() + v.instrumentPan + 50)
	switch {
	case angle <= 0:
		v.CurrentMixGainLeft = mixGain
		v.CurrentMixGainRight = 0
	case angle >= float32(sfmath.HalfPi):
		v.CurrentMixGainLeft = 0
		v.CurrentMixGainRight = mixGain
	default:
		v.CurrentMixGainLeft = mixGain * float32(math.Cos(float64(angle)))
		v.CurrentMixGainRight = mixGain * float32(math.Sin(float64(angle)))
	}

	v.CurrentReverbSend = sfmath.Clamp(ch.ReverbSend()+v.instrumentReverb, 0, 1)
	v.CurrentChorusSend = sfmath.Clamp(ch.ChorusSend()+v.instrumentChorus, 0, 1)

	if v.VoiceLength == 0 {
		v.PreviousMixGainLeft = v.CurrentMixGainLeft
		v.PreviousMixGainRight = v.CurrentMixGainRight
		v.PreviousReverbSend = v.CurrentReverbSend
		v.PreviousChorusSend = v.CurrentChorusSend
	}

	v.VoiceLength++

	return sample, true
}

func (v *Voice) releaseIfNecessary(ch *channel.Channel) {
	minLen := int64(v.sampleRate / 500)
	if v.VoiceLength < minLen {
		return
	}
	if v.state == ReleaseRequested && !ch.HoldPedal() {
		v.volEnv.Release()
		v.modEnv.Release()
		v.osc.Release()
		v.state = Released
	}
}

// Priority is used by VoicePool to pick a stealing candidate: 0 when the
// voice is already inaudible, otherwise the volume envelope's stage
// priority.
func (v *Voice) Priority() float32 {
	if v.noteGain < sfmath.NonAudible {
		return 0
	}
	return v.volEnv.Priority()
}

// State reports the voice's lifecycle state.
func (v *Voice) State() State { return v.state }
