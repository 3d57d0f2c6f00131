// Command sf2play renders a Standard MIDI File through a SoundFont2 bank,
// either to a WAV file or live through the default audio device.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	gosynth2 "github.com/wavebank/gosynth2"
	"github.com/wavebank/gosynth2/internal/audio"
	"github.com/wavebank/gosynth2/internal/midi"
	"github.com/wavebank/gosynth2/internal/soundfont"
)

func main() {
	var (
		sf2Path     = flag.String("sf2", "", "path to a SoundFont2 (.sf2) file")
		midiPath    = flag.String("midi", "", "path to a Standard MIDI File (.mid)")
		outPath     = flag.String("out", "", "path to write a 32-bit float WAV file")
		live        = flag.Bool("live", false, "play back through the default audio device instead of (or in addition to) -out")
		sampleRate  = flag.Int("sample-rate", 44100, "output sample rate")
		blockSize   = flag.Int("block-size", 64, "MIDI dispatch block size in samples")
		polyphony   = flag.Int("polyphony", 64, "maximum simultaneous voices")
		effects     = flag.Bool("effects", true, "enable reverb and chorus sends")
		loop        = flag.Bool("loop", false, "loop the MIDI file when it ends")
		layeredNote = flag.Bool("layered", false, "spawn one voice per matching preset/instrument region pair instead of the first match")
		volume      = flag.Float64("volume", 0.5, "master volume scalar")
	)
	flag.Parse()

	if *sf2Path == "" {
		log.Fatal("sf2play: -sf2 is required")
	}
	if *midiPath == "" {
		log.Fatal("sf2play: -midi is required")
	}
	if *outPath == "" && !*live {
		log.Fatal("sf2play: at least one of -out or -live is required")
	}

	sf2File, err := os.Open(*sf2Path)
	if err != nil {
		log.Fatal(err)
	}
	defer sf2File.Close()
	soundFont, err := soundfont.Load(sf2File)
	if err != nil {
		log.Fatalf("loading %s: %v", *sf2Path, err)
	}

	midiFile, err := os.Open(*midiPath)
	if err != nil {
		log.Fatal(err)
	}
	defer midiFile.Close()
	song, err := midi.Load(midiFile)
	if err != nil {
		log.Fatalf("loading %s: %v", *midiPath, err)
	}

	settings := gosynth2.DefaultSettings()
	settings.SampleRate = *sampleRate
	settings.BlockSize = *blockSize
	settings.MaximumPolyphony = *polyphony
	settings.EnableReverbAndChorus = *effects
	settings.EnableLayeredNoteOn = *layeredNote

	synth, err := gosynth2.New(soundFont, &settings)
	if err != nil {
		log.Fatal(err)
	}
	synth.SetMasterVolume(float32(*volume))

	seq := midi.NewFileSequencer(synth)
	seq.SetLoop(*loop)
	seq.Play(song)

	if *outPath != "" {
		renderToFile(seq, *outPath, *sampleRate, song.Length())
	}
	if *live {
		playLive(seq, *sampleRate)
	}
}

func renderToFile(seq *midi.FileSequencer, outPath string, sampleRate int, length float64) {
	frames := int(length*float64(sampleRate)) + sampleRate // a second of tail for release/reverb
	left := make([]float32, frames)
	right := make([]float32, frames)
	seq.Render(left, right)

	interleaved := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		interleaved[i*2] = left[i]
		interleaved[i*2+1] = right[i]
	}

	data := gosynth2.EncodeWAVFloat32LE(interleaved, sampleRate, 2)
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (%d frames, %.2fs)\n", outPath, frames, float64(frames)/float64(sampleRate))
}

// sequencerSource adapts a midi.FileSequencer to audio.SampleSource,
// deinterleaving the player's flat float32 buffer into the sequencer's
// separate left/right channels.
type sequencerSource struct {
	seq         *midi.FileSequencer
	left, right []float32
}

func (s *sequencerSource) Process(dst []float32) {
	frames := len(dst) / 2
	if cap(s.left) < frames {
		s.left = make([]float32, frames)
		s.right = make([]float32, frames)
	}
	s.left = s.left[:frames]
	s.right = s.right[:frames]
	s.seq.Render(s.left, s.right)
	for i := 0; i < frames; i++ {
		dst[i*2] = s.left[i]
		dst[i*2+1] = s.right[i]
	}
}

func (s *sequencerSource) Finished() bool {
	return s.seq.EndOfSequence()
}

func playLive(seq *midi.FileSequencer, sampleRate int) {
	source := &sequencerSource{seq: seq}
	player, err := audio.NewPlayer(sampleRate, source)
	if err != nil {
		log.Fatal(err)
	}
	player.Play()
	for player.IsPlaying() {
		time.Sleep(50 * time.Millisecond)
	}
	player.Stop()
}
