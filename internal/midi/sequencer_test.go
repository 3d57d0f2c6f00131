package midi

import (
	"testing"

	gosynth2 "github.com/wavebank/gosynth2"
	"github.com/wavebank/gosynth2/internal/soundfont"
)

func emptySoundFont() *soundfont.SoundFont {
	sf := &soundfont.SoundFont{}
	sf.Build()
	return sf
}

func newTestSynth(t *testing.T) *gosynth2.Synthesizer {
	t.Helper()
	settings := gosynth2.DefaultSettings()
	settings.BlockSize = 16
	synth, err := gosynth2.New(emptySoundFont(), &settings)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return synth
}

func fileWithEvents(events []Event) *File {
	return &File{Events: events}
}

func TestSequencerRendersFullLength(t *testing.T) {
	synth := newTestSynth(t)
	seq := NewFileSequencer(synth)
	file := fileWithEvents([]Event{
		{TimeSeconds: 0, Channel: 0, Kind: NoteOn, Data1: 60, Data2: 100},
		{TimeSeconds: 0.01, Channel: 0, Kind: NoteOff, Data1: 60},
	})
	seq.Play(file)

	left := make([]float32, 1000)
	right := make([]float32, 1000)
	seq.Render(left, right)

	if seq.Position() <= 0 {
		t.Fatalf("expected position to advance, got %v", seq.Position())
	}
}

func TestSequencerDispatchesAllDueEvents(t *testing.T) {
	synth := newTestSynth(t)
	seq := NewFileSequencer(synth)
	file := fileWithEvents([]Event{
		{TimeSeconds: 0, Channel: 0, Kind: ProgramChange, Data1: 0},
		{TimeSeconds: 0, Channel: 0, Kind: ControlChange, Data1: 7, Data2: 127},
	})
	seq.Play(file)

	left := make([]float32, 64)
	right := make([]float32, 64)
	seq.Render(left, right)

	if !seq.EndOfSequence() {
		t.Fatal("expected all events dispatched after rendering past their time")
	}
}

func TestSequencerLoopRestartsAtEnd(t *testing.T) {
	synth := newTestSynth(t)
	seq := NewFileSequencer(synth)
	seq.SetLoop(true)
	file := fileWithEvents([]Event{
		{TimeSeconds: 0, Channel: 0, Kind: NoteOn, Data1: 60, Data2: 100},
	})
	seq.Play(file)

	left := make([]float32, 4096)
	right := make([]float32, 4096)
	seq.Render(left, right)

	if seq.EndOfSequence() {
		t.Fatal("looping sequencer should never report end of sequence")
	}
}

func TestSequencerStopEndsSequence(t *testing.T) {
	synth := newTestSynth(t)
	seq := NewFileSequencer(synth)
	file := fileWithEvents([]Event{
		{TimeSeconds: 0, Channel: 0, Kind: NoteOn, Data1: 60, Data2: 100},
	})
	seq.Play(file)
	seq.Stop()

	if !seq.EndOfSequence() {
		t.Fatal("expected end of sequence after Stop")
	}
}
