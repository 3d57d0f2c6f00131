package soundfont

import (
	"github.com/wavebank/gosynth2/internal/oscillator"
	"github.com/wavebank/gosynth2/internal/sfmath"
)

// PresetRegion is one zone of a Preset: a generator set plus the key and
// velocity range it applies to, and the instrument it selects.
type PresetRegion struct {
	Gen           Generators
	KeyLo, KeyHi  int32
	VelLo, VelHi  int32
	InstrumentIdx int32
}

// Contains reports whether the region covers the given key and velocity.
func (r *PresetRegion) Contains(key, velocity int32) bool {
	return key >= r.KeyLo && key <= r.KeyHi && velocity >= r.VelLo && velocity <= r.VelHi
}

// InstrumentRegion is one zone of an Instrument: a generator set plus the
// key/velocity range and the sample it plays.
type InstrumentRegion struct {
	Gen          Generators
	KeyLo, KeyHi int32
	VelLo, VelHi int32
	SampleIdx    int32
}

// Contains reports whether the region covers the given key and velocity.
func (r *InstrumentRegion) Contains(key, velocity int32) bool {
	return key >= r.KeyLo && key <= r.KeyHi && velocity >= r.VelLo && velocity <= r.VelHi
}

// Sample is one entry's metadata within the shared, read-only 16-bit PCM
// pool (SoundFont.WaveData). Start/End/StartLoop/EndLoop are absolute
// indices into that shared pool.
type Sample struct {
	Name            string
	Start           int32
	End             int32
	StartLoop       int32
	EndLoop         int32
	SampleRate      int32
	OriginalPitch   int32
	PitchCorrection int32
}

// Preset is a (bank, patch) identity and its ordered list of regions.
type Preset struct {
	Name    string
	Bank    int32
	Patch   int32
	Regions []PresetRegion
}

// Instrument is a named, ordered list of sample-region bindings.
type Instrument struct {
	Name    string
	Regions []InstrumentRegion
}

// RegionPair is the effective generator set formed by summing a matched
// preset-region and instrument-region, plus the sample-bounded fields
// that come from the instrument-region's sample alone. WaveData is the
// synthesizer's whole shared sample pool, shared read-only by reference.
type RegionPair struct {
	Gen      Generators
	Sample   *Sample
	WaveData []int16
}

func newRegionPair(pr *PresetRegion, ir *InstrumentRegion, sample *Sample, waveData []int16) RegionPair {
	return RegionPair{
		Gen:      sum(pr.Gen, ir.Gen),
		Sample:   sample,
		WaveData: waveData,
	}
}

func (r *RegionPair) gen(i int) int32 { return int32(r.Gen[i]) }

// InitialFilterCutoffFrequency is the voice's starting low-pass cutoff in Hz.
func (r *RegionPair) InitialFilterCutoffFrequency() float32 {
	return sfmath.CentsToHertz(float32(r.gen(GenInitialFilterFc)))
}

// InitialFilterQ is the filter resonance in decibels.
func (r *RegionPair) InitialFilterQ() float32 { return 0.1 * float32(r.gen(GenInitialFilterQ)) }

// ReverbEffectsSend is the region's reverb send in percent (the raw
// 0-1000 promille generator scaled by 0.1).
func (r *RegionPair) ReverbEffectsSend() float32 { return 0.1 * float32(r.gen(GenReverbEffectsSend)) }

// ChorusEffectsSend is the region's chorus send in percent (the raw
// 0-1000 promille generator scaled by 0.1).
func (r *RegionPair) ChorusEffectsSend() float32 { return 0.1 * float32(r.gen(GenChorusEffectsSend)) }

// Pan is the region's static pan, clamped by the caller to [-50, 50].
func (r *RegionPair) Pan() float32 { return 0.1 * float32(r.gen(GenPan)) }

// DelayModulationLFO, FrequencyModulationLFO, DelayVibratoLFO and
// FrequencyVibratoLFO configure the voice's two LFOs.
func (r *RegionPair) DelayModulationLFO() float32     { return sfmath.TimecentsToSeconds(float32(r.gen(GenDelayModLFO))) }
func (r *RegionPair) FrequencyModulationLFO() float32 { return sfmath.CentsToHertz(float32(r.gen(GenFreqModLFO))) }
func (r *RegionPair) DelayVibratoLFO() float32        { return sfmath.TimecentsToSeconds(float32(r.gen(GenDelayVibLFO))) }
func (r *RegionPair) FrequencyVibratoLFO() float32    { return sfmath.CentsToHertz(float32(r.gen(GenFreqVibLFO))) }

// Modulation envelope timing, in seconds, and level fields.
func (r *RegionPair) DelayModulationEnvelope() float32   { return sfmath.TimecentsToSeconds(float32(r.gen(GenDelayModEnv))) }
func (r *RegionPair) AttackModulationEnvelope() float32  { return sfmath.TimecentsToSeconds(float32(r.gen(GenAttackModEnv))) }
func (r *RegionPair) HoldModulationEnvelope() float32    { return sfmath.TimecentsToSeconds(float32(r.gen(GenHoldModEnv))) }
func (r *RegionPair) DecayModulationEnvelope() float32   { return sfmath.TimecentsToSeconds(float32(r.gen(GenDecayModEnv))) }
func (r *RegionPair) SustainModulationEnvelope() float32 { return 0.1 * float32(r.gen(GenSustainModEnv)) }
func (r *RegionPair) ReleaseModulationEnvelope() float32 { return sfmath.TimecentsToSeconds(float32(r.gen(GenReleaseModEnv))) }
func (r *RegionPair) KeyNumToModEnvHold() float32        { return float32(r.gen(GenKeyNumToModEnvHold)) }
func (r *RegionPair) KeyNumToModEnvDecay() float32       { return float32(r.gen(GenKeyNumToModEnvDecay)) }

// Volume envelope timing, in seconds, and level fields.
func (r *RegionPair) DelayVolumeEnvelope() float32   { return sfmath.TimecentsToSeconds(float32(r.gen(GenDelayVolEnv))) }
func (r *RegionPair) AttackVolumeEnvelope() float32  { return sfmath.TimecentsToSeconds(float32(r.gen(GenAttackVolEnv))) }
func (r *RegionPair) HoldVolumeEnvelope() float32    { return sfmath.TimecentsToSeconds(float32(r.gen(GenHoldVolEnv))) }
func (r *RegionPair) DecayVolumeEnvelope() float32   { return sfmath.TimecentsToSeconds(float32(r.gen(GenDecayVolEnv))) }
func (r *RegionPair) SustainVolumeEnvelope() float32  { return 0.1 * float32(r.gen(GenSustainVolEnv)) }
func (r *RegionPair) ReleaseVolumeEnvelope() float32 { return sfmath.TimecentsToSeconds(float32(r.gen(GenReleaseVolEnv))) }
func (r *RegionPair) KeyNumToVolEnvHold() float32    { return float32(r.gen(GenKeyNumToVolEnvHold)) }
func (r *RegionPair) KeyNumToVolEnvDecay() float32   { return float32(r.gen(GenKeyNumToVolEnvDecay)) }

// InitialAttenuation is the region's static attenuation in decibels.
func (r *RegionPair) InitialAttenuation() float32 { return 0.1 * float32(r.gen(GenInitialAttenuation)) }

// ModLFOToPitch, VibLFOToPitch, ModEnvToPitch, ModLFOToFilterFc,
// ModEnvToFilterFc and ModLFOToVolume are the raw modulation-routing
// amounts (cents, cents, or centibels depending on destination).
func (r *RegionPair) ModLFOToPitch() float32      { return float32(r.gen(GenModLFOToPitch)) }
func (r *RegionPair) VibLFOToPitch() float32      { return float32(r.gen(GenVibLFOToPitch)) }
func (r *RegionPair) ModEnvToPitch() float32      { return float32(r.gen(GenModEnvToPitch)) }
func (r *RegionPair) ModLFOToFilterFc() float32   { return float32(r.gen(GenModLFOToFilterFc)) }
func (r *RegionPair) ModEnvToFilterFc() float32   { return float32(r.gen(GenModEnvToFilterFc)) }
func (r *RegionPair) ModLFOToVolume() float32     { return float32(r.gen(GenModLFOToVolume)) }

// CoarseTune and FineTune are the static tuning offsets; FineTune already
// includes the sample's own pitch correction.
func (r *RegionPair) CoarseTune() float32 { return float32(r.gen(GenCoarseTune)) }
func (r *RegionPair) FineTune() float32 {
	return float32(r.gen(GenFineTune)) + float32(r.Sample.PitchCorrection)
}

// ScaleTuning is the key-to-pitch scale in cents per key, normally 100.
func (r *RegionPair) ScaleTuning() float32 { return float32(r.gen(GenScaleTuning)) }

// ExclusiveClass groups voices that must cut each other off; 0 means none.
func (r *RegionPair) ExclusiveClass() int32 { return r.gen(GenExclusiveClass) }

// SampleModes is the loop behavior for the region's sample.
func (r *RegionPair) SampleModes() oscillator.LoopMode {
	return loopModeFromRaw(int16(r.gen(GenSampleModes)))
}

// RootKey is the MIDI key number the sample plays back at unity pitch,
// honoring an overridingRootKey generator when present.
func (r *RegionPair) RootKey() int32 {
	if v := r.gen(GenOverridingRootKey); v >= 0 {
		return v
	}
	return r.Sample.OriginalPitch
}

// SampleStart, SampleEnd, SampleStartLoop and SampleEndLoop are absolute
// offsets into WaveData (the sample's own bounds, shifted by the fine
// and coarse address-offset generators).
func (r *RegionPair) SampleStart() int32 {
	return r.Sample.Start + r.addrOffset(GenStartAddrOffset, GenStartAddrCoarseOffset)
}

func (r *RegionPair) SampleEnd() int32 {
	return r.Sample.End + r.addrOffset(GenEndAddrOffset, GenEndAddrCoarseOffset)
}

func (r *RegionPair) SampleStartLoop() int32 {
	return r.Sample.StartLoop + r.addrOffset(GenStartLoopAddrOffset, GenStartLoopAddrCoarseOffset)
}

func (r *RegionPair) SampleEndLoop() int32 {
	return r.Sample.EndLoop + r.addrOffset(GenEndLoopAddrOffset, GenEndLoopAddrCoarseOffset)
}

func (r *RegionPair) addrOffset(fine, coarse int) int32 {
	return r.gen(fine) + 32768*r.gen(coarse)
}

// SampleRate is the rate the underlying sample was recorded at.
func (r *RegionPair) SampleRate() int32 { return r.Sample.SampleRate }

// StartOscillator configures osc to play this region's sample at
// engineSampleRate, the way a voice does at note-on.
func (r *RegionPair) StartOscillator(osc *oscillator.Oscillator, engineSampleRate float32) {
	osc.Start(
		r.WaveData,
		r.SampleModes(),
		float32(r.SampleRate()),
		r.SampleStart(),
		r.SampleEnd(),
		r.SampleStartLoop(),
		r.SampleEndLoop(),
		r.RootKey(),
		r.FineTune(),
		engineSampleRate,
	)
}
