// Package channel holds the mutable per-MIDI-channel controller and RPN
// state that every voice on that channel reads from when it starts and
// while it runs.
package channel

// dataType tracks which of RPN/NRPN last received a coarse or fine
// selector write, gating what data_entry_* is allowed to edit.
type dataType int

const (
	dataNone dataType = iota
	dataRPN
	dataNRPN
)

// Channel is one of the 16 MIDI channels a Synthesizer tracks. All 14-bit
// controllers are stored packed as (coarse<<7)|fine, matching the wire
// representation of MSB/LSB controller pairs.
type Channel struct {
	presetID int32

	modulation int16
	volume     int16
	pan        int16
	expression int16
	holdPedal  bool

	reverbSend uint8
	chorusSend uint8

	rpn             int16
	pitchBendRange  int16
	coarseTune      int16
	fineTune        int16
	pitchBendRaw    int16

	lastDataType dataType
}

// Reset restores factory defaults: general MIDI's power-on state.
func (c *Channel) Reset() {
	c.presetID = 0
	c.volume = 100 << 7
	c.pan = 64 << 7
	c.reverbSend = 40
	c.chorusSend = 0
	c.pitchBendRange = 2 << 7
	c.coarseTune = 0
	c.fineTune = 8192
	c.ResetAllControllers()
}

// ResetAllControllers implements MIDI CC 121: everything except bank,
// patch, volume, pan, sends and tuning returns to its default.
func (c *Channel) ResetAllControllers() {
	c.modulation = 0
	c.expression = 127 << 7
	c.holdPedal = false
	c.rpn = -1
	c.pitchBendRaw = 8192
}

func setCoarse(field *int16, value uint8) {
	*field = (*field & 0x7F) | (int16(value) << 7)
}

func setFine(field *int16, value uint8) {
	*field = int16((int32(*field) & 0xFF80) | int32(value))
}

// SetBankCoarse and SetBankFine together assemble the 14-bit bank number
// (coarse<<7)|fine, kept in the bits of preset_id from bit 16 up; the
// patch occupies the low 16 bits.
func (c *Channel) SetBankCoarse(v uint8) {
	bank := (c.presetID>>16)&0x7F | int32(v&0x7F)<<7
	c.presetID = bank<<16 | c.presetID&0xFFFF
}

func (c *Channel) SetBankFine(v uint8) {
	bank := (c.presetID>>16)&^0x7F | int32(v&0x7F)
	c.presetID = bank<<16 | c.presetID&0xFFFF
}

// SetPatch sets the program number directly, as MIDI program-change does.
func (c *Channel) SetPatch(v uint8) {
	c.presetID = (c.presetID &^ 0xFFFF) | int32(v&0x7F)
}

func (c *Channel) SetModulationCoarse(v uint8) { setCoarse(&c.modulation, v) }
func (c *Channel) SetModulationFine(v uint8)   { setFine(&c.modulation, v) }

func (c *Channel) SetVolumeCoarse(v uint8) { setCoarse(&c.volume, v) }
func (c *Channel) SetVolumeFine(v uint8)   { setFine(&c.volume, v) }

func (c *Channel) SetPanCoarse(v uint8) { setCoarse(&c.pan, v) }
func (c *Channel) SetPanFine(v uint8)   { setFine(&c.pan, v) }

func (c *Channel) SetExpressionCoarse(v uint8) { setCoarse(&c.expression, v) }
func (c *Channel) SetExpressionFine(v uint8)   { setFine(&c.expression, v) }

// SetHoldPedal implements MIDI CC 64: values of 64 and above engage the
// pedal.
func (c *Channel) SetHoldPedal(v uint8) { c.holdPedal = v >= 64 }

func (c *Channel) SetReverbSend(v uint8) { c.reverbSend = v }
func (c *Channel) SetChorusSend(v uint8) { c.chorusSend = v }

// SetRPNCoarse and SetRPNFine select which parameter the next data-entry
// messages will edit.
func (c *Channel) SetRPNCoarse(v uint8) {
	setCoarse(&c.rpn, v)
	c.lastDataType = dataRPN
}

func (c *Channel) SetRPNFine(v uint8) {
	setFine(&c.rpn, v)
	c.lastDataType = dataRPN
}

// SetNRPNCoarse and SetNRPNFine are recognized only so that subsequent
// data-entry messages are correctly ignored; NRPN contents are not
// otherwise interpreted.
func (c *Channel) SetNRPNCoarse(uint8) { c.lastDataType = dataNRPN }
func (c *Channel) SetNRPNFine(uint8)   { c.lastDataType = dataNRPN }

func (c *Channel) setPBRCoarse(v uint8) { setCoarse(&c.pitchBendRange, v) }
func (c *Channel) setPBRFine(v uint8)   { setFine(&c.pitchBendRange, v) }
func (c *Channel) setFineTuneCoarse(v uint8) { setCoarse(&c.fineTune, v) }
func (c *Channel) setFineTuneFine(v uint8)   { setFine(&c.fineTune, v) }

// DataEntryCoarse and DataEntryFine edit whichever RPN the selector last
// named; they are no-ops unless last_data_type is RPN. RPN 0 is
// pitch-bend range, RPN 1 is fine tune, and RPN 2's coarse half is
// coarse tune (as value-64 semitones).
func (c *Channel) DataEntryCoarse(v uint8) {
	if c.lastDataType != dataRPN {
		return
	}
	switch c.rpn {
	case 0:
		c.setPBRCoarse(v)
	case 1:
		c.setFineTuneCoarse(v)
	case 2:
		c.coarseTune = int16(v) - 64
	}
}

func (c *Channel) DataEntryFine(v uint8) {
	if c.lastDataType != dataRPN {
		return
	}
	switch c.rpn {
	case 0:
		c.setPBRFine(v)
	case 1:
		c.setFineTuneFine(v)
	}
}

// SetPitchBend sets the raw 14-bit pitch-bend wheel value (centered on
// 8192).
func (c *Channel) SetPitchBend(v uint16) { c.pitchBendRaw = int16(v) }

// Bank returns the currently selected bank number.
func (c *Channel) Bank() int32 { return c.presetID >> 16 }

// Patch returns the currently selected program number.
func (c *Channel) Patch() int32 { return c.presetID & 0xFFFF }

// Modulation returns the modulation wheel depth in semitones.
func (c *Channel) Modulation() float32 { return (50.0 / 16383.0) * float32(c.modulation) }

// Volume returns channel volume as a [0,1] linear fraction.
func (c *Channel) Volume() float32 { return (1.0 / 16383.0) * float32(c.volume) }

// Pan returns the channel pan in the range [-50, 50].
func (c *Channel) Pan() float32 { return (100.0/16383.0)*float32(c.pan) - 50 }

// Expression returns channel expression as a [0,1] linear fraction.
func (c *Channel) Expression() float32 { return (1.0 / 16383.0) * float32(c.expression) }

// HoldPedal reports whether the sustain pedal is currently held.
func (c *Channel) HoldPedal() bool { return c.holdPedal }

// ReverbSend returns the channel's reverb send as a [0,1] fraction.
func (c *Channel) ReverbSend() float32 { return (1.0 / 127.0) * float32(c.reverbSend) }

// ChorusSend returns the channel's chorus send as a [0,1] fraction.
func (c *Channel) ChorusSend() float32 { return (1.0 / 127.0) * float32(c.chorusSend) }

// PitchBendRange returns the pitch-bend range in semitones.
func (c *Channel) PitchBendRange() float32 {
	return float32(c.pitchBendRange>>7) + 0.01*float32(c.pitchBendRange&0x7F)
}

// Tune returns the combined coarse+fine tuning offset in semitones.
func (c *Channel) Tune() float32 {
	return float32(c.coarseTune) + (1.0/8192.0)*float32(c.fineTune-8192)
}

// PitchBend returns the effective pitch-bend offset in semitones, scaled
// by the channel's pitch-bend range.
func (c *Channel) PitchBend() float32 {
	return c.PitchBendRange() * (1.0 / 8192.0) * float32(int32(c.pitchBendRaw)-8192)
}
