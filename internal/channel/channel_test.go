package channel

import "testing"

func TestResetDefaults(t *testing.T) {
	var c Channel
	c.Reset()

	if v := c.Volume(); v-0.78 > 0.01 || 0.78-v > 0.01 {
		t.Fatalf("expected default volume near (100<<7)/16383, got %v", v)
	}
	if v, want := c.Pan(), (100.0/16383.0)*float32(64<<7)-50; v != want {
		t.Fatalf("expected default pan (100/16383)*(64<<7)-50 = %v, got %v", want, v)
	}
	if v := c.ReverbSend(); v-40.0/127.0 > 1e-6 || 40.0/127.0-v > 1e-6 {
		t.Fatalf("expected default reverb send 40/127, got %v", v)
	}
	if v := c.ChorusSend(); v != 0 {
		t.Fatalf("expected default chorus send 0, got %v", v)
	}
	if v := c.PitchBendRange(); v != 2 {
		t.Fatalf("expected default pitch bend range 2 semitones, got %v", v)
	}
	if c.HoldPedal() {
		t.Fatalf("expected hold pedal to default to false")
	}
}

func TestCoarseFineRoundTrip(t *testing.T) {
	for coarse := uint8(0); coarse < 128; coarse += 17 {
		for fine := uint8(0); fine < 128; fine += 17 {
			var c Channel
			c.SetVolumeCoarse(coarse)
			c.SetVolumeFine(fine)
			got := c.volume
			want := int16(coarse)<<7 | int16(fine)
			if got != want {
				t.Fatalf("coarse=%d fine=%d: got raw %d want %d", coarse, fine, got, want)
			}
		}
	}
}

func TestBankPatchPacking(t *testing.T) {
	var c Channel
	c.SetBankCoarse(1)
	c.SetBankFine(0)
	c.SetPatch(17)
	if c.Bank() != 128 {
		t.Fatalf("expected bank 128, got %d", c.Bank())
	}
	if c.Patch() != 17 {
		t.Fatalf("expected patch 17, got %d", c.Patch())
	}
}

func TestPitchBendCentered(t *testing.T) {
	var c Channel
	c.Reset()
	c.SetPitchBend(8192)
	if v := c.PitchBend(); v != 0 {
		t.Fatalf("expected centered pitch bend to be 0 semitones, got %v", v)
	}
	c.SetPitchBend(16383)
	if v := c.PitchBend(); v <= 0 {
		t.Fatalf("expected positive pitch bend above center, got %v", v)
	}
}

func TestRPNGatesDataEntry(t *testing.T) {
	var c Channel
	c.Reset()

	// NRPN selected: data entry must be ignored.
	c.SetNRPNCoarse(0)
	c.SetNRPNFine(0)
	c.DataEntryCoarse(4)
	if v := c.PitchBendRange(); v != 2 {
		t.Fatalf("expected NRPN selection to gate off pitch bend range edits, got %v", v)
	}

	// RPN 0 selects pitch bend range.
	c.SetRPNCoarse(0)
	c.SetRPNFine(0)
	c.DataEntryCoarse(12)
	c.DataEntryFine(50)
	if v := c.PitchBendRange(); v-12.5 > 0.01 || 12.5-v > 0.01 {
		t.Fatalf("expected pitch bend range 12.5, got %v", v)
	}
}

func TestRPNCoarseTune(t *testing.T) {
	var c Channel
	c.Reset()
	c.SetRPNCoarse(0)
	c.SetRPNFine(2)
	c.DataEntryCoarse(70)
	if v := c.Tune(); v != 6 {
		t.Fatalf("expected coarse tune of 70-64=6 semitones, got %v", v)
	}
}

func TestResetAllControllersPreservesVolumeAndPan(t *testing.T) {
	var c Channel
	c.Reset()
	c.SetVolumeCoarse(50)
	c.SetPanCoarse(20)
	c.SetHoldPedal(127)

	c.ResetAllControllers()

	if c.HoldPedal() {
		t.Fatalf("expected hold pedal cleared by reset_all_controllers")
	}
	if c.volume>>7 != 50 {
		t.Fatalf("expected volume to survive reset_all_controllers, got raw %d", c.volume)
	}
	if c.pan>>7 != 20 {
		t.Fatalf("expected pan to survive reset_all_controllers, got raw %d", c.pan)
	}
}
