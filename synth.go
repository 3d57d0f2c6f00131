// Package gosynth2 is a real-time SoundFont2 wavetable synthesizer core:
// given a parsed SoundFont and a stream of MIDI channel messages, it
// renders stereo f32 audio one sample at a time.
package gosynth2

import (
	"errors"
	"fmt"

	"github.com/wavebank/gosynth2/internal/channel"
	"github.com/wavebank/gosynth2/internal/chorus"
	"github.com/wavebank/gosynth2/internal/reverb"
	"github.com/wavebank/gosynth2/internal/soundfont"
	"github.com/wavebank/gosynth2/internal/voice"
)

// ErrSettingsOutOfRange is returned by New when a Settings field falls
// outside its documented range.
var ErrSettingsOutOfRange = errors.New("gosynth2: settings out of range")

// Settings configures a Synthesizer at construction time.
type Settings struct {
	SampleRate            int
	BlockSize             int
	MaximumPolyphony      int
	EnableReverbAndChorus bool

	// EnableLayeredNoteOn spawns one voice per matching (preset-region,
	// instrument-region) pair on note-on instead of only the first. Off
	// by default to preserve the single-match reference behavior.
	EnableLayeredNoteOn bool
}

// DefaultSettings returns the synthesizer's standard configuration: 44100
// Hz, 64-sample blocks, 64 voices of polyphony, effects enabled.
func DefaultSettings() Settings {
	return Settings{
		SampleRate:            44100,
		BlockSize:             64,
		MaximumPolyphony:      64,
		EnableReverbAndChorus: true,
	}
}

// Validate reports ErrSettingsOutOfRange if any field falls outside its
// documented bound.
func (s Settings) Validate() error {
	if s.SampleRate < 16000 || s.SampleRate > 192000 {
		return fmt.Errorf("%w: sample rate %d", ErrSettingsOutOfRange, s.SampleRate)
	}
	if s.BlockSize < 8 || s.BlockSize > 1024 {
		return fmt.Errorf("%w: block size %d", ErrSettingsOutOfRange, s.BlockSize)
	}
	if s.MaximumPolyphony < 8 || s.MaximumPolyphony > 256 {
		return fmt.Errorf("%w: maximum polyphony %d", ErrSettingsOutOfRange, s.MaximumPolyphony)
	}
	return nil
}

// Synthesizer is a single-threaded, non-blocking wavetable render engine.
// MIDI dispatch methods and Render must not be called concurrently with
// each other; the caller owns that serialization.
type Synthesizer struct {
	soundFont *soundfont.SoundFont
	settings  Settings

	channels [16]channel.Channel
	voices   *voice.Pool

	reverb *reverb.Reverb
	chorus *chorus.Chorus

	masterVolume float32
}

// New constructs a Synthesizer over soundFont using settings. A nil
// settings pointer uses DefaultSettings().
func New(soundFont *soundfont.SoundFont, settings *Settings) (*Synthesizer, error) {
	s := DefaultSettings()
	if settings != nil {
		s = *settings
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	synth := &Synthesizer{
		soundFont:    soundFont,
		settings:     s,
		voices:       voice.NewPool(s.MaximumPolyphony),
		reverb:       reverb.New(),
		chorus:       chorus.New(s.SampleRate, 2, 1.9, 0.4),
		masterVolume: 0.5,
	}
	for i := range synth.channels {
		synth.channels[i].Reset()
	}
	return synth, nil
}

// SampleRate is the engine's fixed output sample rate.
func (s *Synthesizer) SampleRate() int { return s.settings.SampleRate }

// BlockSize is the granularity at which integrators are expected to batch
// MIDI dispatch between Render calls.
func (s *Synthesizer) BlockSize() int { return s.settings.BlockSize }

// MasterVolume returns the synthesizer-wide output multiplier, default 0.5.
func (s *Synthesizer) MasterVolume() float32 { return s.masterVolume }

// SetMasterVolume sets the synthesizer-wide output multiplier.
func (s *Synthesizer) SetMasterVolume(v float32) { s.masterVolume = v }

// NoteOn starts a new voice for (channel, key, velocity), looking up the
// channel's current bank/patch. A velocity of 0 behaves as NoteOff. A
// lookup miss is a silent no-op.
func (s *Synthesizer) NoteOn(channelIdx, key, velocity int32) {
	if velocity == 0 {
		s.NoteOff(channelIdx, key)
		return
	}
	if channelIdx < 0 || int(channelIdx) >= len(s.channels) {
		return
	}
	ch := &s.channels[channelIdx]
	bank, patch := ch.Bank(), ch.Patch()

	if s.settings.EnableLayeredNoteOn {
		regions := s.soundFont.LookupAll(bank, patch, key, velocity)
		for i := range regions {
			s.startVoice(&regions[i], channelIdx, key, velocity)
		}
		return
	}

	region, ok := s.soundFont.Lookup(bank, patch, key, velocity)
	if !ok {
		return
	}
	s.startVoice(&region, channelIdx, key, velocity)
}

func (s *Synthesizer) startVoice(region *soundfont.RegionPair, channelIdx, key, velocity int32) {
	if exclusive := region.ExclusiveClass(); exclusive != 0 {
		s.voices.KillExclusiveClass(channelIdx, exclusive)
	}
	v := s.voices.Allocate()
	v.Start(region, channelIdx, key, velocity, float64(s.settings.SampleRate))
}

// NoteOff marks every active voice matching (channel, key) for graceful
// release.
func (s *Synthesizer) NoteOff(channelIdx, key int32) {
	s.voices.ReleaseChannel(channelIdx, key)
}

// AllNotesOff stops every voice on channelIdx (or every channel, if
// channelIdx < 0). immediate=true silences instantly (CC 120, "all sound
// off"); immediate=false requests a graceful release (CC 123, "all notes
// off").
func (s *Synthesizer) AllNotesOff(channelIdx int32, immediate bool) {
	channels := s.channelIndices(channelIdx)
	for _, c := range channels {
		if immediate {
			s.voices.KillChannel(c)
		} else {
			s.voices.ReleaseChannel(c, -1)
		}
	}
}

// ResetAllControllers resets channelIdx's controller state (or every
// channel, if channelIdx < 0) without touching any running voice.
func (s *Synthesizer) ResetAllControllers(channelIdx int32) {
	for _, c := range s.channelIndices(channelIdx) {
		s.channels[c].ResetAllControllers()
	}
}

func (s *Synthesizer) channelIndices(channelIdx int32) []int32 {
	if channelIdx >= 0 {
		return []int32{channelIdx}
	}
	out := make([]int32, len(s.channels))
	for i := range out {
		out[i] = int32(i)
	}
	return out
}

// ControlChange applies MIDI controller number cc with value v on
// channelIdx, per the standard SF2/GM CC table. Unrecognized controller
// numbers are silently ignored.
func (s *Synthesizer) ControlChange(channelIdx int32, cc, v uint8) {
	if channelIdx < 0 || int(channelIdx) >= len(s.channels) {
		return
	}
	ch := &s.channels[channelIdx]
	switch cc {
	case 0:
		ch.SetBankCoarse(v)
	case 32:
		ch.SetBankFine(v)
	case 1:
		ch.SetModulationCoarse(v)
	case 33:
		ch.SetModulationFine(v)
	case 6:
		ch.DataEntryCoarse(v)
	case 38:
		ch.DataEntryFine(v)
	case 7:
		ch.SetVolumeCoarse(v)
	case 39:
		ch.SetVolumeFine(v)
	case 10:
		ch.SetPanCoarse(v)
	case 42:
		ch.SetPanFine(v)
	case 11:
		ch.SetExpressionCoarse(v)
	case 43:
		ch.SetExpressionFine(v)
	case 64:
		ch.SetHoldPedal(v)
	case 91:
		ch.SetReverbSend(v)
	case 93:
		ch.SetChorusSend(v)
	case 98:
		ch.SetNRPNFine(v)
	case 99:
		ch.SetNRPNCoarse(v)
	case 100:
		ch.SetRPNFine(v)
	case 101:
		ch.SetRPNCoarse(v)
	case 120:
		s.AllNotesOff(channelIdx, true)
	case 121:
		s.ResetAllControllers(channelIdx)
	case 123:
		s.AllNotesOff(channelIdx, false)
	}
}

// ProgramChange sets channelIdx's current patch (program) number.
func (s *Synthesizer) ProgramChange(channelIdx int32, program uint8) {
	if channelIdx < 0 || int(channelIdx) >= len(s.channels) {
		return
	}
	s.channels[channelIdx].SetPatch(program)
}

// PitchBend sets channelIdx's 14-bit pitch bend value, centered at 8192.
func (s *Synthesizer) PitchBend(channelIdx int32, value uint16) {
	if channelIdx < 0 || int(channelIdx) >= len(s.channels) {
		return
	}
	s.channels[channelIdx].SetPitchBend(value)
}

// Reset silences every voice, resets every channel's controller state,
// and mutes the effects tail, the way a hard MIDI reset does.
func (s *Synthesizer) Reset() {
	s.voices.Clear()
	for i := range s.channels {
		s.channels[i].Reset()
	}
	s.reverb.Mute()
	s.chorus.Mute()
}

// Render fills left and right with one sample of stereo output each,
// advancing every active voice. It panics if len(left) != len(right); the
// caller owns not calling this concurrently with MIDI dispatch.
func (s *Synthesizer) Render(left, right []float32) {
	if len(left) != len(right) {
		panic("gosynth2: left and right buffers must be the same length")
	}
	for i := range left {
		left[i], right[i] = s.renderSample()
	}
}

func (s *Synthesizer) renderSample() (float32, float32) {
	dryLeft, dryRight, reverbIn, chorusIn := s.voices.Process(func(c int32) *channel.Channel {
		return &s.channels[c]
	})

	if !s.settings.EnableReverbAndChorus {
		return s.masterVolume * dryLeft, s.masterVolume * dryRight
	}

	reverbLeft, reverbRight := s.reverb.Render(reverbIn)
	chorusLeft, chorusRight := s.chorus.Render(chorusIn)

	outLeft := s.masterVolume * (dryLeft + reverbLeft + chorusLeft)
	outRight := s.masterVolume * (dryRight + reverbRight + chorusRight)
	return outLeft, outRight
}
