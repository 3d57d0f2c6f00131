package voice

import "github.com/wavebank/gosynth2/internal/channel"

// Pool is a fixed-capacity collection of voices implementing
// priority-based stealing: once every slot is in use, a new note-on
// reuses the slot with the lowest Priority(), breaking ties in favor of
// the voice that has been running longest.
type Pool struct {
	voices []Voice
	active int
}

// NewPool allocates a pool with room for maximumPolyphony simultaneous voices.
func NewPool(maximumPolyphony int) *Pool {
	return &Pool{voices: make([]Voice, maximumPolyphony)}
}

// Active returns the currently-sounding voices, in no particular order.
func (p *Pool) Active() []Voice { return p.voices[:p.active] }

// ActiveCount reports how many voice slots are currently in use.
func (p *Pool) ActiveCount() int { return p.active }

// Allocate returns the Voice to (re)start for a new note-on, growing the
// active set if there's room or stealing the lowest-priority voice
// otherwise.
func (p *Pool) Allocate() *Voice {
	if p.active < len(p.voices) {
		v := &p.voices[p.active]
		p.active++
		return v
	}

	worst := 0
	for i := 1; i < p.active; i++ {
		if p.voices[i].Priority() < p.voices[worst].Priority() {
			worst = i
		} else if p.voices[i].Priority() == p.voices[worst].Priority() &&
			p.voices[i].VoiceLength > p.voices[worst].VoiceLength {
			worst = i
		}
	}
	return &p.voices[worst]
}

// KillExclusiveClass silences every active voice on channelIdx sharing
// exclusiveClass, the way a new note-on in the same exclusive class cuts
// off the previous one (hi-hat open/closed pairs and the like).
// exclusiveClass == 0 means "no exclusive class" and is never matched.
func (p *Pool) KillExclusiveClass(channelIdx, exclusiveClass int32) {
	if exclusiveClass == 0 {
		return
	}
	for i := 0; i < p.active; i++ {
		v := &p.voices[i]
		if v.Channel == channelIdx && v.ExclusiveClass == exclusiveClass {
			v.Kill()
		}
	}
}

// ReleaseChannel requests a graceful release of every active voice on
// channelIdx at the given key (or every key if key < 0), the way a
// note-off or all-notes-off message does.
func (p *Pool) ReleaseChannel(channelIdx, key int32) {
	for i := 0; i < p.active; i++ {
		v := &p.voices[i]
		if v.Channel == channelIdx && (key < 0 || v.Key == key) {
			v.End()
		}
	}
}

// KillChannel immediately silences every active voice on channelIdx, the
// way "all sound off" does.
func (p *Pool) KillChannel(channelIdx int32) {
	for i := 0; i < p.active; i++ {
		v := &p.voices[i]
		if v.Channel == channelIdx {
			v.Kill()
		}
	}
}

// Process advances every active voice by one sample, compacting the
// active set by swapping finished voices with the last active slot.
// channelOf must return the Channel state for a given MIDI channel
// index. Each voice's contribution is smoothed across the previous and
// current sample's gains to avoid pop noise when a gain jumps abruptly
// (note-on, release, exclusive-class kill).
func (p *Pool) Process(channelOf func(int32) *channel.Channel) (left, right, reverb, chorus float32) {
	i := 0
	for i < p.active {
		v := &p.voices[i]
		sample, alive := v.Process(channelOf(v.Channel))
		if !alive {
			p.voices[i] = p.voices[p.active-1]
			p.active--
			continue
		}

		left += mixSample(v.PreviousMixGainLeft, v.CurrentMixGainLeft, sample)
		right += mixSample(v.PreviousMixGainRight, v.CurrentMixGainRight, sample)

		reverbSample := sample * v.CurrentMixGainLeft
		chorusSample := sample * v.CurrentMixGainLeft
		reverb += mixSample(v.PreviousReverbSend, v.CurrentReverbSend, reverbSample)
		chorus += mixSample(v.PreviousChorusSend, v.CurrentChorusSend, chorusSample)

		i++
	}
	return left, right, reverb, chorus
}

// mixSample applies a single source sample to a destination bus, using
// the previous sample's gain instead of the current one whenever the
// gain has jumped by more than a hair since last sample. This trades a
// one-sample lag for avoiding an audible step discontinuity.
func mixSample(previousGain, currentGain, source float32) float32 {
	const nonAudible = 1.0e-3
	if max32(previousGain, currentGain) < nonAudible {
		return 0
	}
	if abs32(currentGain-previousGain) < 1.0e-3 {
		return currentGain * source
	}
	return previousGain * source
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func abs32(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}

// Clear removes every active voice without releasing or killing them
// individually, the way a hard synthesizer reset does.
func (p *Pool) Clear() {
	p.active = 0
}
