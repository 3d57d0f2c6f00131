package soundfont

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed is returned for any RIFF/SF2 structural inconsistency:
// missing required chunks, chunk sizes that aren't a multiple of their
// record size, or a root chunk that isn't an RIFF/sfbk container.
var ErrMalformed = errors.New("soundfont: malformed sf2 file")

// ErrUnsupportedVersion is returned for SoundFont 3 files (ifil major
// version 3 or above), which carry compressed (Ogg Vorbis) sample data
// this loader does not decode, and for banks that use ROM samples.
var ErrUnsupportedVersion = errors.New("soundfont: sf2 version not supported (compressed samples?)")

type riffChunk struct {
	id   [4]byte
	data []byte
}

func readChunk(r io.Reader) (riffChunk, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return riffChunk{}, err
	}
	var c riffChunk
	copy(c.id[:], header[0:4])
	size := binary.LittleEndian.Uint32(header[4:8])
	c.data = make([]byte, size)
	if _, err := io.ReadFull(r, c.data); err != nil {
		return riffChunk{}, fmt.Errorf("%w: truncated %q chunk", ErrMalformed, c.id)
	}
	if size%2 == 1 {
		var pad [1]byte
		io.ReadFull(r, pad[:])
	}
	return c, nil
}

// Load parses a complete SF2 RIFF file and returns a ready-to-query
// SoundFont. It honors generators only; modulators are parsed enough to
// be skipped over and are otherwise ignored, matching this engine's
// scope.
func Load(r io.Reader) (*SoundFont, error) {
	root, err := readChunk(r)
	if err != nil {
		return nil, err
	}
	if string(root.id[:]) != "RIFF" {
		return nil, fmt.Errorf("%w: not a RIFF file", ErrMalformed)
	}
	if len(root.data) < 4 || string(root.data[0:4]) != "sfbk" {
		return nil, fmt.Errorf("%w: not an sfbk RIFF form", ErrMalformed)
	}

	var raw rawHydra
	body := root.data[4:]
	for len(body) >= 8 {
		inner := riffChunk{}
		copy(inner.id[:], body[0:4])
		size := binary.LittleEndian.Uint32(body[4:8])
		if int(8+size) > len(body) {
			return nil, fmt.Errorf("%w: truncated %q chunk", ErrMalformed, inner.id)
		}
		payload := body[8 : 8+size]
		inner.data = payload
		if size%2 == 1 {
			body = body[8+size+1:]
		} else {
			body = body[8+size:]
		}

		switch string(inner.id[:]) {
		case "LIST":
			if err := parseList(inner.data, &raw); err != nil {
				return nil, err
			}
		}
	}

	return raw.build()
}

func parseList(data []byte, raw *rawHydra) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: truncated LIST chunk", ErrMalformed)
	}
	listType := string(data[0:4])
	body := data[4:]

	for len(body) >= 8 {
		var id [4]byte
		copy(id[:], body[0:4])
		size := binary.LittleEndian.Uint32(body[4:8])
		if int(8+size) > len(body) {
			return fmt.Errorf("%w: truncated %q chunk in LIST %q", ErrMalformed, id, listType)
		}
		payload := body[8 : 8+size]

		if err := raw.consume(string(id[:]), payload); err != nil {
			return err
		}

		if size%2 == 1 {
			size++
		}
		body = body[8+size:]
	}
	return nil
}

// rawHydra mirrors the nine required pdta sub-chunks before they are
// resolved into Preset/Instrument/Sample zones.
type rawHydra struct {
	presetHeaders []sfPresetHeader
	presetBag     []sfBag
	presetGen     []sfGenerator
	instHeaders   []sfInstHeader
	instBag       []sfBag
	instGen       []sfGenerator
	sampleHeaders []sfSampleHeader
	waveData      []int16
}

type sfPresetHeader struct {
	Name         [20]byte
	Preset       uint16
	Bank         uint16
	PresetBagNdx uint16
	Library      uint32
	Genre        uint32
	Morphology   uint32
}

type sfInstHeader struct {
	Name       [20]byte
	InstBagNdx uint16
}

type sfBag struct {
	GenNdx uint16
	ModNdx uint16
}

type sfGenerator struct {
	Oper   uint16
	Amount int16
}

type sfSampleHeader struct {
	Name            [20]byte
	Start           uint32
	End              uint32
	StartLoop       uint32
	EndLoop         uint32
	SampleRate      uint32
	OriginalPitch   uint8
	PitchCorrection int8
	SampleLink      uint16
	SampleType      uint16
}

func (h *rawHydra) consume(id string, data []byte) error {
	switch id {
	case "ifil":
		if len(data) >= 2 && binary.LittleEndian.Uint16(data) >= 3 {
			return fmt.Errorf("%w: ifil major version %d", ErrUnsupportedVersion, binary.LittleEndian.Uint16(data))
		}
	case "phdr":
		return readFixed(data, 38, &h.presetHeaders)
	case "pbag":
		return readBags(data, &h.presetBag)
	case "pgen":
		return readGenerators(data, &h.presetGen)
	case "inst":
		return readFixed(data, 22, &h.instHeaders)
	case "ibag":
		return readBags(data, &h.instBag)
	case "igen":
		return readGenerators(data, &h.instGen)
	case "shdr":
		return readFixed(data, 46, &h.sampleHeaders)
	case "smpl":
		h.waveData = make([]int16, len(data)/2)
		for i := range h.waveData {
			h.waveData[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
		}
	case "pmod", "imod":
		// modulators are out of scope; skip without error.
	}
	return nil
}

func readFixed[T any](data []byte, recordSize int, out *[]T) error {
	if recordSize <= 0 || len(data)%recordSize != 0 {
		return fmt.Errorf("%w: chunk size %d not a multiple of %d", ErrMalformed, len(data), recordSize)
	}
	n := len(data) / recordSize
	*out = make([]T, n)
	r := sliceReader(data)
	for i := 0; i < n; i++ {
		if err := binary.Read(r, binary.LittleEndian, &(*out)[i]); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	return nil
}

func readBags(data []byte, out *[]sfBag) error {
	if len(data)%4 != 0 {
		return fmt.Errorf("%w: bag chunk size %d not a multiple of 4", ErrMalformed, len(data))
	}
	n := len(data) / 4
	*out = make([]sfBag, n)
	for i := 0; i < n; i++ {
		(*out)[i].GenNdx = binary.LittleEndian.Uint16(data[4*i:])
		(*out)[i].ModNdx = binary.LittleEndian.Uint16(data[4*i+2:])
	}
	return nil
}

func readGenerators(data []byte, out *[]sfGenerator) error {
	if len(data)%4 != 0 {
		return fmt.Errorf("%w: generator chunk size %d not a multiple of 4", ErrMalformed, len(data))
	}
	n := len(data) / 4
	*out = make([]sfGenerator, n)
	for i := 0; i < n; i++ {
		(*out)[i].Oper = binary.LittleEndian.Uint16(data[4*i:])
		(*out)[i].Amount = int16(binary.LittleEndian.Uint16(data[4*i+2:]))
	}
	return nil
}

// zone is a generic SF2 zone (preset or instrument): a generator set and
// the link (to an instrument or a sample) its last generator names, or
// -1 if the zone is a "global" zone of defaults with no link.
type zone struct {
	gen  Generators
	link int32
}

func newZone() zone {
	var z zone
	z.gen[GenOverridingRootKey] = -1
	z.link = -1
	return z
}

// buildZones walks the generator list for one bag range and produces one
// zone per bag, applying the preceding global zone's defaults (if any)
// underneath each zone's own generators.
func buildZones(bags []sfBag, gens []sfGenerator, startNdx, endNdx int, linkGen int) ([]zone, *zone) {
	var global *zone
	var zones []zone

	for b := startNdx; b < endNdx; b++ {
		genStart := int(bags[b].GenNdx)
		genEnd := int(bags[b+1].GenNdx)
		if genEnd > len(gens) {
			genEnd = len(gens)
		}

		z := newZone()
		for g := genStart; g < genEnd; g++ {
			oper := int(gens[g].Oper)
			if oper < 0 || oper >= genCount {
				continue
			}
			z.gen[oper] = gens[g].Amount
			if oper == linkGen {
				z.link = int32(uint16(gens[g].Amount))
			}
		}

		if z.link < 0 && b == startNdx {
			gCopy := z
			global = &gCopy
			continue
		}

		if global != nil {
			merged := newZone()
			merged.gen = global.gen
			for i := 0; i < genCount; i++ {
				if z.gen[i] != 0 || i == GenOverridingRootKey {
					merged.gen[i] = z.gen[i]
				}
			}
			merged.link = z.link
			z = merged
		}

		zones = append(zones, z)
	}

	return zones, global
}

func keyVelRange(g Generators) (keyLo, keyHi, velLo, velHi int32) {
	keyLo, keyHi = 0, 127
	velLo, velHi = 0, 127
	if lo, hi := unpackRange(g[GenKeyRange]); lo != 0 || hi != 0 {
		keyLo, keyHi = lo, hi
	}
	if lo, hi := unpackRange(g[GenVelRange]); lo != 0 || hi != 0 {
		velLo, velHi = lo, hi
	}
	return
}

func cString(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

func (h *rawHydra) build() (*SoundFont, error) {
	if len(h.presetHeaders) < 2 || len(h.instHeaders) < 2 || len(h.sampleHeaders) < 1 {
		return nil, fmt.Errorf("%w: missing required pdta records", ErrMalformed)
	}

	samples := make([]Sample, len(h.sampleHeaders)-1)
	for i := range samples {
		s := h.sampleHeaders[i]
		samples[i] = Sample{
			Name:            cString(s.Name[:]),
			Start:           int32(s.Start),
			End:             int32(s.End),
			StartLoop:       int32(s.StartLoop),
			EndLoop:         int32(s.EndLoop),
			SampleRate:      int32(s.SampleRate),
			OriginalPitch:   int32(s.OriginalPitch),
			PitchCorrection: int32(s.PitchCorrection),
		}
		if s.SampleType&0x8000 != 0 {
			return nil, fmt.Errorf("%w: ROM samples are not supported", ErrUnsupportedVersion)
		}
	}

	instruments := make([]Instrument, len(h.instHeaders)-1)
	for i := range instruments {
		zones, _ := buildZones(h.instBag, h.instGen, int(h.instHeaders[i].InstBagNdx), int(h.instHeaders[i+1].InstBagNdx), GenSampleID)
		regions := make([]InstrumentRegion, 0, len(zones))
		for _, z := range zones {
			if z.link < 0 {
				continue
			}
			keyLo, keyHi, velLo, velHi := keyVelRange(z.gen)
			regions = append(regions, InstrumentRegion{
				Gen:       z.gen,
				KeyLo:     keyLo,
				KeyHi:     keyHi,
				VelLo:     velLo,
				VelHi:     velHi,
				SampleIdx: z.link,
			})
		}
		instruments[i] = Instrument{Name: cString(h.instHeaders[i].Name[:]), Regions: regions}
	}

	presets := make([]Preset, len(h.presetHeaders)-1)
	for i := range presets {
		zones, _ := buildZones(h.presetBag, h.presetGen, int(h.presetHeaders[i].PresetBagNdx), int(h.presetHeaders[i+1].PresetBagNdx), GenInstrument)
		regions := make([]PresetRegion, 0, len(zones))
		for _, z := range zones {
			if z.link < 0 {
				continue
			}
			// the root key comes from the instrument zone alone, so the
			// preset side adds nothing to the summed value.
			z.gen[GenOverridingRootKey] = 0
			keyLo, keyHi, velLo, velHi := keyVelRange(z.gen)
			regions = append(regions, PresetRegion{
				Gen:           z.gen,
				KeyLo:         keyLo,
				KeyHi:         keyHi,
				VelLo:         velLo,
				VelHi:         velHi,
				InstrumentIdx: z.link,
			})
		}
		presets[i] = Preset{
			Name:    cString(h.presetHeaders[i].Name[:]),
			Bank:    int32(h.presetHeaders[i].Bank),
			Patch:   int32(h.presetHeaders[i].Preset),
			Regions: regions,
		}
	}

	sf := &SoundFont{
		WaveData:    h.waveData,
		Samples:     samples,
		Instruments: instruments,
		Presets:     presets,
	}
	sf.Build()
	return sf, nil
}

func sliceReader(b []byte) *bytesReader { return &bytesReader{b: b} }

type bytesReader struct {
	b   []byte
	pos int
}

func (r *bytesReader) Read(p []byte) (int, error) {
	n := copy(p, r.b[r.pos:])
	r.pos += n
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}
