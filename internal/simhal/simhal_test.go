package simhal

import "testing"

func TestGuestBanksAreIsolated(t *testing.T) {
	b := NewBoard(4)

	b.SetGuestID(1)
	b.MTGC0(12, 0, 0xAAAA)

	b.SetGuestID(2)
	b.MTGC0(12, 0, 0xBBBB)

	b.SetGuestID(1)
	if got := b.MFGC0(12, 0); got != 0xAAAA {
		t.Errorf("guest 1 Status = 0x%x, want 0xAAAA (guest 2's write leaked in)", got)
	}

	b.SetGuestID(2)
	if got := b.MFGC0(12, 0); got != 0xBBBB {
		t.Errorf("guest 2 Status = 0x%x, want 0xBBBB", got)
	}
}

func TestShadowGPRBanksAreIsolated(t *testing.T) {
	b := NewBoard(2)

	b.SetShadowGPR(0, 5, 0x111)
	b.SetShadowGPR(1, 5, 0x222)

	if got := b.ShadowGPR(0, 5); got != 0x111 {
		t.Errorf("shadow set 0 reg 5 = 0x%x, want 0x111", got)
	}
	if got := b.ShadowGPR(1, 5); got != 0x222 {
		t.Errorf("shadow set 1 reg 5 = 0x%x, want 0x222", got)
	}
}

func TestRootBankIndependentOfBoundGuest(t *testing.T) {
	b := NewBoard(1)
	b.SeedRootReg(15, 0, 0xDEADBEEF)

	b.SetGuestID(7)
	if got := b.MFC0(15, 0); got != 0xDEADBEEF {
		t.Errorf("root PRId = 0x%x, want 0xDEADBEEF regardless of bound guest", got)
	}
}

func TestGetGuestCTL2CombinesSoftwareAndHardwareBits(t *testing.T) {
	b := NewBoard(1)
	b.SetGuestID(3)
	b.SetGuestCTL2(0x1)
	b.RaiseHWGuestInterrupt(3, 0x4)

	if got := b.GetGuestCTL2(); got != 0x5 {
		t.Errorf("GetGuestCTL2 = 0x%x, want 0x5", got)
	}
}
