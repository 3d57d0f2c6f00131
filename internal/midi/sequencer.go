package midi

import gosynth2 "github.com/wavebank/gosynth2"

// FileSequencer plays a parsed Standard MIDI File through a Synthesizer,
// dispatching events at block boundaries the way the synthesizer's
// concurrency model requires.
type FileSequencer struct {
	synth *gosynth2.Synthesizer

	file *File
	loop bool

	blockWrote int
	blockSize  int
	sampleRate int

	currentTime float64
	eventIndex  int
}

// NewFileSequencer wraps synth for MIDI-file-driven playback.
func NewFileSequencer(synth *gosynth2.Synthesizer) *FileSequencer {
	return &FileSequencer{
		synth:      synth,
		blockSize:  synth.BlockSize(),
		sampleRate: synth.SampleRate(),
	}
}

// SetLoop enables or disables whole-file looping: when playback reaches
// the end of the file, the sequencer restarts from time 0 and resets the
// synthesizer, rather than simply going silent.
func (s *FileSequencer) SetLoop(loop bool) { s.loop = loop }

// Play starts playback of file from time 0, resetting the synthesizer.
func (s *FileSequencer) Play(file *File) {
	s.file = file
	s.blockWrote = s.blockSize
	s.currentTime = 0
	s.eventIndex = 0
	s.synth.Reset()
}

// Stop halts playback and resets the synthesizer.
func (s *FileSequencer) Stop() {
	s.file = nil
	s.synth.Reset()
}

// Position returns the current playback position in seconds.
func (s *FileSequencer) Position() float64 { return s.currentTime }

// EndOfSequence reports whether every event in the file has been
// dispatched. Always true if Play has not been called. Never true while
// looping is enabled.
func (s *FileSequencer) EndOfSequence() bool {
	if s.file == nil {
		return true
	}
	return s.eventIndex >= len(s.file.Events)
}

// Render fills left and right with rendered audio, dispatching any MIDI
// events whose time has arrived at each block boundary.
func (s *FileSequencer) Render(left, right []float32) {
	if len(left) != len(right) {
		panic("midi: left and right buffers must be the same length")
	}
	wrote := 0
	total := len(left)
	for wrote < total {
		if s.blockWrote == s.blockSize {
			s.processEvents()
			s.blockWrote = 0
			s.currentTime += float64(s.blockSize) / float64(s.sampleRate)
		}

		srcRem := s.blockSize - s.blockWrote
		dstRem := total - wrote
		rem := srcRem
		if dstRem < rem {
			rem = dstRem
		}

		s.synth.Render(left[wrote:wrote+rem], right[wrote:wrote+rem])

		s.blockWrote += rem
		wrote += rem
	}
}

func (s *FileSequencer) processEvents() {
	if s.file == nil {
		return
	}
	for s.eventIndex < len(s.file.Events) {
		evt := s.file.Events[s.eventIndex]
		if evt.TimeSeconds > s.currentTime {
			break
		}
		s.dispatch(evt)
		s.eventIndex++
	}
	if s.loop && s.eventIndex >= len(s.file.Events) {
		s.eventIndex = 0
		s.currentTime = 0
		s.blockWrote = s.blockSize
		s.synth.Reset()
	}
}

func (s *FileSequencer) dispatch(evt Event) {
	switch evt.Kind {
	case NoteOff:
		s.synth.NoteOff(evt.Channel, evt.Data1)
	case NoteOn:
		s.synth.NoteOn(evt.Channel, evt.Data1, evt.Data2)
	case ControlChange:
		s.synth.ControlChange(evt.Channel, uint8(evt.Data1), uint8(evt.Data2))
	case ProgramChange:
		s.synth.ProgramChange(evt.Channel, uint8(evt.Data1))
	case PitchBend:
		s.synth.PitchBend(evt.Channel, uint16(evt.Data1))
	}
}
