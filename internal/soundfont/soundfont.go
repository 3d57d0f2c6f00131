package soundfont

import "sort"

// SoundFont is a fully loaded SF2 instrument bank: the shared sample
// pool plus every preset and instrument it defines.
type SoundFont struct {
	WaveData    []int16
	Samples     []Sample
	Instruments []Instrument
	Presets     []Preset

	byPresetID    map[int32]int
	defaultPreset int
}

// Build indexes Presets by (bank<<16)|patch and records the
// lowest-numbered preset id as the default (so general MIDI acoustic
// grand piano, bank 0 patch 0, is naturally the fallback when a bank
// defines one). Call this once after populating the exported fields
// directly, e.g. from a hand-built SoundFont in tests.
func (sf *SoundFont) Build() {
	sf.byPresetID = make(map[int32]int, len(sf.Presets))
	best := int32(1<<31 - 1)
	sf.defaultPreset = 0
	for i, p := range sf.Presets {
		id := presetID(p.Bank, p.Patch)
		sf.byPresetID[id] = i
		if id < best {
			best = id
			sf.defaultPreset = i
		}
	}
}

func presetID(bank, patch int32) int32 { return (bank << 16) | patch }

// Lookup resolves a (bank, patch, key, velocity) note-on to the region
// pair that should sound, applying the GM fallback chain: exact preset,
// then bank-0 same-patch (or bank-128 patch-0 for drum banks), then the
// lowest-numbered preset loaded. Returns false if no preset is loaded or
// no region in the chosen preset covers (key, velocity).
func (sf *SoundFont) Lookup(bank, patch, key, velocity int32) (RegionPair, bool) {
	preset := sf.resolvePreset(bank, patch)
	return sf.firstMatch(preset, key, velocity)
}

// LookupAll returns every matching region pair in preset order instead
// of only the first, enabling layered instruments when a caller opts
// into it.
func (sf *SoundFont) LookupAll(bank, patch, key, velocity int32) []RegionPair {
	preset := sf.resolvePreset(bank, patch)
	var out []RegionPair
	sf.forEachMatch(preset, key, velocity, func(rp RegionPair) {
		out = append(out, rp)
	})
	return out
}

func (sf *SoundFont) resolvePreset(bank, patch int32) *Preset {
	if i, ok := sf.byPresetID[presetID(bank, patch)]; ok {
		return &sf.Presets[i]
	}
	if bank < 128 {
		if i, ok := sf.byPresetID[presetID(0, patch)]; ok {
			return &sf.Presets[i]
		}
	} else {
		if i, ok := sf.byPresetID[presetID(128, 0)]; ok {
			return &sf.Presets[i]
		}
	}
	if len(sf.Presets) == 0 {
		return nil
	}
	return &sf.Presets[sf.defaultPreset]
}

func (sf *SoundFont) firstMatch(preset *Preset, key, velocity int32) (RegionPair, bool) {
	var found RegionPair
	ok := false
	sf.forEachMatch(preset, key, velocity, func(rp RegionPair) {
		if !ok {
			found = rp
			ok = true
		}
	})
	return found, ok
}

func (sf *SoundFont) forEachMatch(preset *Preset, key, velocity int32, yield func(RegionPair)) {
	if preset == nil {
		return
	}
	for i := range preset.Regions {
		pr := &preset.Regions[i]
		if !pr.Contains(key, velocity) {
			continue
		}
		if pr.InstrumentIdx < 0 || int(pr.InstrumentIdx) >= len(sf.Instruments) {
			continue
		}
		inst := &sf.Instruments[pr.InstrumentIdx]
		for j := range inst.Regions {
			ir := &inst.Regions[j]
			if !ir.Contains(key, velocity) {
				continue
			}
			if ir.SampleIdx < 0 || int(ir.SampleIdx) >= len(sf.Samples) {
				continue
			}
			yield(newRegionPair(pr, ir, &sf.Samples[ir.SampleIdx], sf.WaveData))
		}
	}
}

// PresetNames returns the loaded preset names sorted by (bank, patch),
// primarily useful for CLI listings.
func (sf *SoundFont) PresetNames() []string {
	idx := make([]int, len(sf.Presets))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		pa, pb := sf.Presets[idx[a]], sf.Presets[idx[b]]
		if pa.Bank != pb.Bank {
			return pa.Bank < pb.Bank
		}
		return pa.Patch < pb.Patch
	})
	names := make([]string, len(idx))
	for i, id := range idx {
		names[i] = sf.Presets[id].Name
	}
	return names
}
