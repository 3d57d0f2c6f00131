package midi

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// varint encodes n as a MIDI variable-length quantity.
func varint(n uint32) []byte {
	buf := []byte{byte(n & 0x7F)}
	n >>= 7
	for n > 0 {
		buf = append([]byte{byte(n&0x7F) | 0x80}, buf...)
		n >>= 7
	}
	return buf
}

func trackChunk(body []byte) []byte {
	out := []byte("MTrk")
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(body)))
	out = append(out, lenBuf...)
	return append(out, body...)
}

func header(ntrks, division uint16) []byte {
	out := []byte("MThd")
	body := make([]byte, 6)
	binary.BigEndian.PutUint16(body[0:2], 1)
	binary.BigEndian.PutUint16(body[2:4], ntrks)
	binary.BigEndian.PutUint16(body[4:6], division)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, 6)
	out = append(out, lenBuf...)
	return append(out, body...)
}

func tempoMetaEvent(deltaTicks uint32, microsecondsPerBeat uint32) []byte {
	out := varint(deltaTicks)
	out = append(out, 0xFF, 0x51, 0x03)
	out = append(out, byte(microsecondsPerBeat>>16), byte(microsecondsPerBeat>>8), byte(microsecondsPerBeat))
	return out
}

func endOfTrackEvent(deltaTicks uint32) []byte {
	out := varint(deltaTicks)
	return append(out, 0xFF, 0x2F, 0x00)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("nope")))
	if err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestLoadRejectsSMPTETiming(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(header(1, 0x8000|24))
	body := endOfTrackEvent(0)
	buf.Write(trackChunk(body))
	_, err := Load(&buf)
	if err != ErrUnsupportedTiming {
		t.Fatalf("expected ErrUnsupportedTiming, got %v", err)
	}
}

// TestTempoChangeLinearization mirrors a two-track file with 480 ticks per
// beat: track 0 sets 120 BPM at tick 0, then 60 BPM at tick 480; track 1
// holds a single NoteOn at tick 960. At 120 BPM the first 480 ticks take
// 0.5s; at 60 BPM the next 480 ticks take 1.0s, for an expected absolute
// time of 1.5s.
func TestTempoChangeLinearization(t *testing.T) {
	const ppq = 480

	var buf bytes.Buffer
	buf.Write(header(2, ppq))

	var track0 []byte
	track0 = append(track0, tempoMetaEvent(0, 500000)...)   // 120 BPM
	track0 = append(track0, tempoMetaEvent(480, 1000000)...) // 60 BPM at tick 480
	track0 = append(track0, endOfTrackEvent(0)...)
	buf.Write(trackChunk(track0))

	var track1 []byte
	// a controller event at tick 480 sits exactly on the tempo change; the
	// note-on that follows it still lands at 1.5s.
	filler := varint(480)
	filler = append(filler, 0xB0, 7, 100)
	track1 = append(track1, filler...)
	noteOn := varint(480)
	noteOn = append(noteOn, 0x90, 60, 100)
	track1 = append(track1, noteOn...)
	track1 = append(track1, endOfTrackEvent(0)...)
	buf.Write(trackChunk(track1))

	file, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var found bool
	for _, evt := range file.Events {
		if evt.Kind == NoteOn && evt.Channel == 0 && evt.Data1 == 60 {
			found = true
			const want = 1.5
			if diff := evt.TimeSeconds - want; diff > 1e-6 || diff < -1e-6 {
				t.Fatalf("note-on time = %v, want %v", evt.TimeSeconds, want)
			}
		}
	}
	if !found {
		t.Fatal("note-on event not found")
	}
}

func TestNoteOnVelocityZeroBecomesNoteOff(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(header(1, 96))

	var track []byte
	noteOn := varint(0)
	noteOn = append(noteOn, 0x90, 64, 0)
	track = append(track, noteOn...)
	track = append(track, endOfTrackEvent(0)...)
	buf.Write(trackChunk(track))

	file, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(file.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(file.Events))
	}
	if file.Events[0].Kind != NoteOff {
		t.Fatalf("expected NoteOff, got %v", file.Events[0].Kind)
	}
}

func TestRunningStatusReusesPreviousStatusByte(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(header(1, 96))

	var track []byte
	first := varint(0)
	first = append(first, 0x90, 60, 100)
	track = append(track, first...)
	// running status: delta time + two data bytes, no status byte
	second := varint(10)
	second = append(second, 64, 90)
	track = append(track, second...)
	track = append(track, endOfTrackEvent(0)...)
	buf.Write(trackChunk(track))

	file, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(file.Events) != 2 {
		t.Fatalf("expected 2 events via running status, got %d", len(file.Events))
	}
	if file.Events[1].Kind != NoteOn || file.Events[1].Data1 != 64 {
		t.Fatalf("unexpected second event: %+v", file.Events[1])
	}
}
