package vcpu

import "vzhv/internal/hal"

// ContextSave captures the currently bound VCPU's live guest CP0 state into
// its record. It is a no-op if no VCPU has ever been bound, or if the bound
// VCPU has never been restored — in both cases there is nothing live in
// hardware to capture, and the operation silently returns rather than
// surfacing an error.
//
// Call this before the scheduler hands the hart to a different VCPU.
func (h *Hart) ContextSave() {
	if !h.executing {
		return
	}
	v := h.current
	if v.Init {
		return
	}

	v.CP0.Context = h.hal.MFGC0(hal.CP0Context, 0)
	v.CP0.Wired = h.hal.MFGC0(hal.CP0Wired, 0)
	v.CP0.BadVAddr = h.hal.MFGC0(hal.CP0BadVAddr, 0)
	v.CP0.Compare = h.hal.MFGC0(hal.CP0Compare, 0)
	v.CP0.Status = h.hal.MFGC0(hal.CP0Status, 0)
	v.CP0.IntCtl = h.hal.MFGC0(hal.CP0Status, 1)
	v.CP0.SRSCtl = h.hal.MFGC0(hal.CP0Status, 2)
	v.CP0.SRSMap = h.hal.MFGC0(hal.CP0Status, 3)
	v.CP0.Cause = h.hal.MFGC0(hal.CP0Cause, 0)
	v.CP0.EPC = h.hal.MFGC0(hal.CP0EPC, 0)
	v.CP0.NestedLo = h.hal.MFGC0(hal.CP0EPC, 2)
	// Deliberate cross-select read: see the EBase field doc in regs.go.
	v.CP0.EBase = h.hal.MFGC0(hal.CP0PRId, 1)
	v.CP0.Config = h.hal.MFGC0(hal.CP0Config, 0)
	v.CP0.LLAddr = h.hal.MFGC0(hal.CP0LLAddr, 0)
	v.CP0.Config3 = h.hal.MFGC0(hal.CP0Config, 3)
	v.CP0.ErrorEPC = h.hal.MFGC0(hal.CP0ErrorEPC, 0)

	v.GuestCTL2 |= h.hal.GetGuestCTL2()

	v.PC = h.hal.GetEPC()
}

// ContextRestore installs the hart-bound VCPU's record into hardware so it
// can resume execution. The caller must have already called Bind with the
// target VCPU.
//
// The write order matters for Guest-ID binding semantics: shadow-set and
// Guest-ID programming happens before any MTGC0 call, and root EPC is
// written last.
func (h *Hart) ContextRestore() {
	v := h.current

	h.hal.SetPreviousShadowSet(v.GPRShadowSet)
	h.hal.SetLowestGShadow(v.GPRShadowSet)
	h.hal.SetGuestID(v.ID)

	h.hal.SetGuestMode()

	if v.Init {
		v.Init = false
	}

	h.hal.MTGC0(hal.CP0Status, 0, v.CP0.Status)
	h.hal.MTGC0(hal.CP0Context, 0, v.CP0.Context)
	h.hal.MTGC0(hal.CP0Wired, 0, v.CP0.Wired)
	h.hal.MTGC0(hal.CP0PageMask, 0, v.CP0.PageMask)
	h.hal.MTGC0(hal.CP0BadVAddr, 0, v.CP0.BadVAddr)
	h.hal.MTGC0(hal.CP0Cause, 0, v.CP0.Cause)
	h.hal.MTGC0(hal.CP0Status, 1, v.CP0.IntCtl)
	h.hal.MTGC0(hal.CP0Status, 2, v.CP0.SRSCtl)
	h.hal.MTGC0(hal.CP0Status, 3, v.CP0.SRSMap)
	h.hal.MTGC0(hal.CP0EPC, 0, v.CP0.EPC)
	h.hal.MTGC0(hal.CP0EPC, 2, v.CP0.NestedLo)
	h.hal.MTGC0(hal.CP0PRId, 1, v.CP0.EBase)
	h.hal.MTGC0(hal.CP0Config, 0, v.CP0.Config)
	h.hal.MTGC0(hal.CP0LLAddr, 0, v.CP0.LLAddr)
	h.hal.MTGC0(hal.CP0Config, 3, v.CP0.Config3)
	h.hal.MTGC0(hal.CP0ErrorEPC, 0, v.CP0.ErrorEPC)

	h.hal.SetGuestCTL2(v.GuestCTL2)

	h.hal.SetEPC(v.PC)
}
