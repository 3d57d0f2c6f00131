package gosynth2

import (
	"errors"
	"testing"

	"github.com/wavebank/gosynth2/internal/soundfont"
)

func fullRangeRegion(instIdx int32) soundfont.PresetRegion {
	return soundfont.PresetRegion{KeyLo: 0, KeyHi: 127, VelLo: 0, VelHi: 127, InstrumentIdx: instIdx}
}

func fullRangeInstRegion(sampleIdx int32) soundfont.InstrumentRegion {
	return soundfont.InstrumentRegion{KeyLo: 0, KeyHi: 127, VelLo: 0, VelHi: 127, SampleIdx: sampleIdx}
}

// sineSoundFont builds a minimal in-memory SoundFont with one looping
// sample covering the full key/velocity range on bank 0 patch 0.
func sineSoundFont() *soundfont.SoundFont {
	wave := make([]int16, 64)
	for i := range wave {
		wave[i] = int16(8000)
	}
	// the instrument zone gives the tone an immediate attack, an open
	// filter and a continuous loop, and takes the root key from the sample.
	inst := fullRangeInstRegion(0)
	inst.Gen[soundfont.GenDelayVolEnv] = -12000
	inst.Gen[soundfont.GenAttackVolEnv] = -12000
	inst.Gen[soundfont.GenInitialFilterFc] = 13500
	inst.Gen[soundfont.GenOverridingRootKey] = -1
	inst.Gen[soundfont.GenSampleModes] = 1
	sf := &soundfont.SoundFont{
		WaveData: wave,
		Samples: []soundfont.Sample{
			{Name: "tone", Start: 0, End: 63, StartLoop: 4, EndLoop: 60, SampleRate: 44100, OriginalPitch: 60},
		},
		Instruments: []soundfont.Instrument{
			{Name: "tone-inst", Regions: []soundfont.InstrumentRegion{inst}},
		},
		Presets: []soundfont.Preset{
			{Name: "Grand Piano", Bank: 0, Patch: 0, Regions: []soundfont.PresetRegion{fullRangeRegion(0)}},
		},
	}
	sf.Build()
	return sf
}

func newTestSynth(t *testing.T) *Synthesizer {
	t.Helper()
	settings := DefaultSettings()
	settings.SampleRate = 44100
	settings.BlockSize = 64
	settings.MaximumPolyphony = 8
	synth, err := New(sineSoundFont(), &settings)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return synth
}

func TestSettingsValidateRejectsOutOfRange(t *testing.T) {
	cases := []Settings{
		{SampleRate: 1000, BlockSize: 64, MaximumPolyphony: 64},
		{SampleRate: 44100, BlockSize: 1, MaximumPolyphony: 64},
		{SampleRate: 44100, BlockSize: 64, MaximumPolyphony: 1},
	}
	for _, s := range cases {
		if err := s.Validate(); err == nil {
			t.Fatalf("expected ErrSettingsOutOfRange for %+v", s)
		}
	}
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	bad := Settings{SampleRate: 1, BlockSize: 64, MaximumPolyphony: 64}
	if _, err := New(sineSoundFont(), &bad); !errors.Is(err, ErrSettingsOutOfRange) {
		t.Fatalf("expected ErrSettingsOutOfRange, got %v", err)
	}
}

func TestRenderPanicsOnMismatchedBufferLengths(t *testing.T) {
	synth := newTestSynth(t)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on mismatched buffer lengths")
		}
	}()
	synth.Render(make([]float32, 10), make([]float32, 9))
}

func TestNoteOnNoMatchIsSilent(t *testing.T) {
	synth := newTestSynth(t)
	synth.NoteOn(0, 60, 100)
	synth.NoteOff(0, 60)

	// Program-change to a patch with no preset falls back to the default
	// preset, which here covers key 0 only: no region matches key 60, no
	// voice should start, and rendering must stay exactly silent.
	sf := sineSoundFont()
	sf.Presets[0].Regions[0].KeyHi = 0
	settings := DefaultSettings()
	settings.SampleRate = 44100
	settings.BlockSize = 64
	settings.MaximumPolyphony = 8
	synth2, err := New(sf, &settings)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	synth2.ProgramChange(0, 99)
	synth2.NoteOn(0, 60, 100)

	left := make([]float32, 256)
	right := make([]float32, 256)
	synth2.Render(left, right)
	for i := range left {
		if left[i] != 0 || right[i] != 0 {
			t.Fatalf("expected silence for unmatched preset at sample %d, got (%v, %v)", i, left[i], right[i])
		}
	}
}

func TestNoteOnProducesAudibleOutput(t *testing.T) {
	synth := newTestSynth(t)
	synth.NoteOn(0, 60, 100)

	left := make([]float32, 1024)
	right := make([]float32, 1024)
	synth.Render(left, right)

	var energy float32
	for i := range left {
		energy += left[i]*left[i] + right[i]*right[i]
	}
	if energy == 0 {
		t.Fatal("expected audible output after NoteOn")
	}
}

func TestPolyphonyCapStealsVoices(t *testing.T) {
	synth := newTestSynth(t)
	for key := int32(40); key < 40+16; key++ {
		synth.NoteOn(0, key, 100)
	}
	if synth.voices.ActiveCount() > synth.settings.MaximumPolyphony {
		t.Fatalf("active voices %d exceeds cap %d", synth.voices.ActiveCount(), synth.settings.MaximumPolyphony)
	}
}

func TestHoldPedalDelaysNoteOff(t *testing.T) {
	synth := newTestSynth(t)
	synth.ControlChange(0, 64, 127) // hold pedal on
	synth.NoteOn(0, 60, 100)
	synth.NoteOff(0, 60)

	if synth.voices.ActiveCount() == 0 {
		t.Fatal("expected voice to remain active while hold pedal is held")
	}

	synth.ControlChange(0, 64, 0) // hold pedal off
	left := make([]float32, 64)
	right := make([]float32, 64)
	synth.Render(left, right)
	synth.NoteOff(0, 60)
}

func TestAllNotesOffImmediateSilencesVoices(t *testing.T) {
	synth := newTestSynth(t)
	synth.NoteOn(0, 60, 100)
	synth.NoteOn(0, 64, 100)
	synth.AllNotesOff(0, true)

	left := make([]float32, 512)
	right := make([]float32, 512)
	synth.Render(left, right)
	for i := range left {
		if left[i] != 0 || right[i] != 0 {
			t.Fatalf("expected silence after immediate all-notes-off at sample %d", i)
		}
	}
}

func TestReleaseIsPopFree(t *testing.T) {
	synth := newTestSynth(t)
	synth.NoteOn(0, 60, 100)

	left := make([]float32, 256)
	right := make([]float32, 256)
	synth.Render(left, right)

	synth.NoteOff(0, 60)

	prevLeft := left[len(left)-1]
	for block := 0; block < 20; block++ {
		synth.Render(left, right)
		for i := range left {
			if diff := left[i] - prevLeft; diff > 0.5 || diff < -0.5 {
				t.Fatalf("sample-to-sample jump too large at block %d sample %d: %v -> %v", block, i, prevLeft, left[i])
			}
			prevLeft = left[i]
		}
	}
}

func TestDryPathBypassesEffectsWhenDisabled(t *testing.T) {
	settings := DefaultSettings()
	settings.EnableReverbAndChorus = false
	synth, err := New(sineSoundFont(), &settings)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	synth.ControlChange(0, 91, 127) // reverb send maxed
	synth.ControlChange(0, 93, 127) // chorus send maxed
	synth.NoteOn(0, 60, 100)

	left := make([]float32, 64)
	right := make([]float32, 64)
	synth.Render(left, right)

	var energy float32
	for i := range left {
		energy += left[i]*left[i] + right[i]*right[i]
	}
	if energy == 0 {
		t.Fatal("expected audible dry output even with effects disabled")
	}
}
