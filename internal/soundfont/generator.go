package soundfont

import "github.com/wavebank/gosynth2/internal/oscillator"

// Generator indices as defined by the SF2 spec's SFGenerator enumeration.
// Only the subset consumed by RegionPair and the voice start-up path is
// named; the handful of reserved/unused slots are kept only so the array
// stays index-compatible with the file format.
const (
	GenStartAddrOffset = iota
	GenEndAddrOffset
	GenStartLoopAddrOffset
	GenEndLoopAddrOffset
	GenStartAddrCoarseOffset
	GenModLFOToPitch
	GenVibLFOToPitch
	GenModEnvToPitch
	GenInitialFilterFc
	GenInitialFilterQ
	GenModLFOToFilterFc
	GenModEnvToFilterFc
	GenEndAddrCoarseOffset
	GenModLFOToVolume
	genUnused1
	GenChorusEffectsSend
	GenReverbEffectsSend
	GenPan
	genUnused2
	genUnused3
	genUnused4
	GenDelayModLFO
	GenFreqModLFO
	GenDelayVibLFO
	GenFreqVibLFO
	GenDelayModEnv
	GenAttackModEnv
	GenHoldModEnv
	GenDecayModEnv
	GenSustainModEnv
	GenReleaseModEnv
	GenKeyNumToModEnvHold
	GenKeyNumToModEnvDecay
	GenDelayVolEnv
	GenAttackVolEnv
	GenHoldVolEnv
	GenDecayVolEnv
	GenSustainVolEnv
	GenReleaseVolEnv
	GenKeyNumToVolEnvHold
	GenKeyNumToVolEnvDecay
	GenInstrument
	genReserved1
	GenKeyRange
	GenVelRange
	GenStartLoopAddrCoarseOffset
	GenKeyNum
	GenVelocity
	GenInitialAttenuation
	genReserved2
	GenEndLoopAddrCoarseOffset
	GenCoarseTune
	GenFineTune
	GenSampleID
	GenSampleModes
	genReserved3
	GenScaleTuning
	GenExclusiveClass
	GenOverridingRootKey
	genUnused5

	// genCount sizes the fixed generator array; it is one past the last
	// generator index the format defines.
	genCount
)

// Generators is the full set of SF2 generator values for one zone, or
// the effective (preset+instrument) sum of two zones.
type Generators [genCount]int16

// sum returns the signed 16-bit addition of two generator sets, the
// arithmetic RegionPair uses to combine a preset-region with an
// instrument-region.
func sum(a, b Generators) Generators {
	var out Generators
	for i := range out {
		out[i] = int16(int32(a[i]) + int32(b[i]))
	}
	return out
}

// loopModeFromRaw decodes the SF2 sampleModes generator's enumeration
// (0/2=no loop, 1=continuous, 3=loop until note-off) into the oscillator
// package's LoopMode.
func loopModeFromRaw(v int16) oscillator.LoopMode {
	switch v {
	case 1:
		return oscillator.Continuous
	case 3:
		return oscillator.LoopUntilNoteOff
	default:
		return oscillator.NoLoop
	}
}

func unpackRange(raw int16) (lo, hi int32) {
	u := uint16(raw)
	return int32(u & 0xFF), int32(u >> 8)
}
