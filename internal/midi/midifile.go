// Package midi parses Standard MIDI Files into a time-linearized event
// list and drives a Synthesizer from them at block granularity.
package midi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed wraps structural parsing failures: bad chunk magic,
// truncated chunk, or an event running past its track's end.
var ErrMalformed = errors.New("midi: malformed file")

// ErrUnsupportedTiming is returned when the header specifies SMPTE/
// Timecode division instead of ticks-per-quarter-note.
var ErrUnsupportedTiming = errors.New("midi: SMPTE/timecode division is not supported")

// EventKind is the subset of MIDI channel voice messages the sequencer acts on.
type EventKind int

const (
	NoteOff EventKind = iota
	NoteOn
	ControlChange
	ProgramChange
	PitchBend
)

// Event is one linearized channel voice message, in absolute seconds from
// the start of the file.
type Event struct {
	TimeSeconds float64
	Channel     int32
	Kind        EventKind
	Data1       int32
	Data2       int32
}

// File is a fully parsed, time-sorted Standard MIDI File.
type File struct {
	Events []Event
}

// Length returns the file's duration in seconds (the last event's time),
// or 0 for an empty file.
func (f *File) Length() float64 {
	if len(f.Events) == 0 {
		return 0
	}
	return f.Events[len(f.Events)-1].TimeSeconds
}

const defaultMicrosecondsPerBeat = 500000.0

type tempoChange struct {
	time       float64
	usPerBeat  float64
}

// Load reads an entire Standard MIDI File and linearizes every track's
// delta-tick events into absolute seconds, honoring tempo changes found on
// the first track (the convention of format-1 files, where track 0 holds
// only tempo/meta events).
func Load(r io.Reader) (*File, error) {
	br := &byteReader{r: r}

	magic, err := br.readN(4)
	if err != nil {
		return nil, fmt.Errorf("%w: reading header magic: %v", ErrMalformed, err)
	}
	if string(magic) != "MThd" {
		return nil, fmt.Errorf("%w: not a Standard MIDI File (bad MThd magic)", ErrMalformed)
	}
	headerLen, err := br.readU32()
	if err != nil || headerLen < 6 {
		return nil, fmt.Errorf("%w: bad header length", ErrMalformed)
	}
	headerBody, err := br.readN(int(headerLen))
	if err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrMalformed)
	}
	_ = binary.BigEndian.Uint16(headerBody[0:2]) // format; both 0 and 1 are handled identically
	ntrks := binary.BigEndian.Uint16(headerBody[2:4])
	division := binary.BigEndian.Uint16(headerBody[4:6])
	if division&0x8000 != 0 {
		return nil, ErrUnsupportedTiming
	}
	ticksPerBeat := float64(division)

	var tempoChanges []tempoChange
	type trackQueue struct {
		events []Event
		read   int
	}
	var tracks []trackQueue

	for t := 0; t < int(ntrks); t++ {
		magic, err := br.readN(4)
		if err != nil {
			return nil, fmt.Errorf("%w: reading track magic: %v", ErrMalformed, err)
		}
		if string(magic) != "MTrk" {
			return nil, fmt.Errorf("%w: expected MTrk, got %q", ErrMalformed, magic)
		}
		trackLen, err := br.readU32()
		if err != nil {
			return nil, fmt.Errorf("%w: bad track length", ErrMalformed)
		}
		body, err := br.readN(int(trackLen))
		if err != nil {
			return nil, fmt.Errorf("%w: truncated track", ErrMalformed)
		}

		firstTrack := t == 0
		tr := &trackReader{buf: body}
		var runningStatus byte
		var time float64
		usPerBeat := defaultMicrosecondsPerBeat
		tempoIdx := 0

		var evts []Event
		for tr.remaining() > 0 {
			if !firstTrack {
				for tempoIdx < len(tempoChanges) && tempoChanges[tempoIdx].time <= time {
					usPerBeat = tempoChanges[tempoIdx].usPerBeat
					tempoIdx++
				}
			}

			deltaTicks, err := tr.readVarint()
			if err != nil {
				return nil, fmt.Errorf("%w: bad delta time: %v", ErrMalformed, err)
			}
			deltaBeats := float64(deltaTicks) / ticksPerBeat
			for !firstTrack && tempoIdx < len(tempoChanges) {
				untilChange := (tempoChanges[tempoIdx].time - time) * 1_000_000.0 / usPerBeat
				if untilChange > deltaBeats {
					break
				}
				deltaBeats -= untilChange
				time = tempoChanges[tempoIdx].time
				usPerBeat = tempoChanges[tempoIdx].usPerBeat
				tempoIdx++
			}
			deltaUs := deltaBeats * usPerBeat
			time += deltaUs / 1_000_000.0

			status, err := tr.peekByte()
			if err != nil {
				return nil, fmt.Errorf("%w: truncated event: %v", ErrMalformed, err)
			}
			if status&0x80 != 0 {
				runningStatus = status
				tr.skip(1)
			} else if runningStatus == 0 {
				return nil, fmt.Errorf("%w: running status used before any status byte", ErrMalformed)
			}

			switch {
			case runningStatus == 0xFF:
				metaType, err := tr.readByte()
				if err != nil {
					return nil, err
				}
				length, err := tr.readVarint()
				if err != nil {
					return nil, err
				}
				data, err := tr.readN(int(length))
				if err != nil {
					return nil, fmt.Errorf("%w: truncated meta event", ErrMalformed)
				}
				if firstTrack && metaType == 0x51 && len(data) == 3 {
					us := float64(data[0])*65536 + float64(data[1])*256 + float64(data[2])
					usPerBeat = us
					tempoChanges = append(tempoChanges, tempoChange{time: time, usPerBeat: us})
				}

			case runningStatus == 0xF0 || runningStatus == 0xF7:
				length, err := tr.readVarint()
				if err != nil {
					return nil, err
				}
				if _, err := tr.readN(int(length)); err != nil {
					return nil, fmt.Errorf("%w: truncated sysex event", ErrMalformed)
				}

			default:
				channel := int32(runningStatus & 0x0F)
				kind := runningStatus & 0xF0
				switch kind {
				case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
					data1, err := tr.readByte()
					if err != nil {
						return nil, fmt.Errorf("%w: truncated channel message", ErrMalformed)
					}
					data2, err := tr.readByte()
					if err != nil {
						return nil, fmt.Errorf("%w: truncated channel message", ErrMalformed)
					}
					evts = appendChannelEvent(evts, time, channel, kind, data1, data2)
				case 0xC0, 0xD0:
					data1, err := tr.readByte()
					if err != nil {
						return nil, fmt.Errorf("%w: truncated channel message", ErrMalformed)
					}
					evts = appendChannelEvent(evts, time, channel, kind, data1, 0)
				default:
					return nil, fmt.Errorf("%w: unrecognized status byte 0x%02x", ErrMalformed, runningStatus)
				}
			}
		}
		tracks = append(tracks, trackQueue{events: evts})
	}

	var events []Event
	for {
		best := -1
		bestTime := 0.0
		for i := range tracks {
			if tracks[i].read >= len(tracks[i].events) {
				continue
			}
			t := tracks[i].events[tracks[i].read].TimeSeconds
			if best == -1 || t < bestTime {
				best = i
				bestTime = t
			}
		}
		if best == -1 {
			break
		}
		events = append(events, tracks[best].events[tracks[best].read])
		tracks[best].read++
	}

	return &File{Events: events}, nil
}

func appendChannelEvent(evts []Event, time float64, channel int32, kind byte, data1, data2 byte) []Event {
	var k EventKind
	switch kind {
	case 0x80:
		k = NoteOff
	case 0x90:
		if data2 == 0 {
			k = NoteOff
		} else {
			k = NoteOn
		}
	case 0xB0:
		k = ControlChange
	case 0xC0:
		k = ProgramChange
	case 0xE0:
		k = PitchBend
		return append(evts, Event{TimeSeconds: time, Channel: channel, Kind: k,
			Data1: int32(data1) | int32(data2)<<7})
	default:
		return evts // aftertouch (0xA0/0xD0): parsed for timing, not dispatched
	}
	return append(evts, Event{TimeSeconds: time, Channel: channel, Kind: k, Data1: int32(data1), Data2: int32(data2)})
}
