// Package halmock provides an in-memory hal.CPU0Access implementation for
// tests: every call is appended to a log, and guest/root CP0 reads are
// served from a programmable in-memory bank.
package halmock

import "fmt"

// regKey identifies one CP0 cell by (register, select).
type regKey struct {
	reg, sel int
}

// Call records one HAL invocation, in call order, for assertions against the
// documented ordering guarantees (e.g. "Guest-ID before any mtgc0").
type Call struct {
	Name string
	Reg  int
	Sel  int
	RT   uint32
	Arg  uint32
}

func (c Call) String() string {
	return fmt.Sprintf("%s(reg=%d,sel=%d,rt=%d,arg=0x%x)", c.Name, c.Reg, c.Sel, c.RT, c.Arg)
}

// HAL is the mock hal.CPU0Access.
type HAL struct {
	Log []Call

	guestBank map[int]map[regKey]uint32 // guest CP0, keyed by bound Guest-ID
	rootBank  map[regKey]uint32

	guestID       uint32
	guestMode     bool
	prevShadow    uint32
	lowestGShadow uint32
	epc           uint32
	guestCTL2     uint32
	gtOffset      uint32
	prevGuestGPR  [32]uint32
}

// New returns a HAL with empty root and guest banks.
func New() *HAL {
	return &HAL{
		guestBank: make(map[int]map[regKey]uint32),
		rootBank:  make(map[regKey]uint32),
	}
}

func (h *HAL) record(call Call) {
	h.Log = append(h.Log, call)
}

// SetGuestReg preloads a guest CP0 cell for the given Guest-ID, for test
// setup (S2's "prefill mock guest-CP0" scenario).
func (h *HAL) SetGuestReg(guestID uint32, reg, sel int, val uint32) {
	h.bankFor(guestID)[regKey{reg, sel}] = val
}

// GuestReg reads back a guest CP0 cell without going through the logged
// accessor, for assertions.
func (h *HAL) GuestReg(guestID uint32, reg, sel int) uint32 {
	return h.bankFor(guestID)[regKey{reg, sel}]
}

// SetRootReg preloads a root CP0 cell (e.g. CP0_PRID, CP0_PERFCTL0).
func (h *HAL) SetRootReg(reg, sel int, val uint32) {
	h.rootBank[regKey{reg, sel}] = val
}

// SetPrevGuestGPR preloads the shadow-set GPR a trap entry would have
// captured, for MTC-class emulation tests.
func (h *HAL) SetPrevGuestGPR(rt uint32, val uint32) {
	h.prevGuestGPR[rt&0x1F] = val
}

// PrevGuestGPR reads back a shadow-set GPR, for MFC-class emulation
// assertions.
func (h *HAL) PrevGuestGPR(rt uint32) uint32 {
	return h.prevGuestGPR[rt&0x1F]
}

func (h *HAL) bankFor(guestID uint32) map[regKey]uint32 {
	b, ok := h.guestBank[int(guestID)]
	if !ok {
		b = make(map[regKey]uint32)
		h.guestBank[int(guestID)] = b
	}
	return b
}

func (h *HAL) MFGC0(reg, sel int) uint32 {
	val := h.bankFor(h.guestID)[regKey{reg, sel}]
	h.record(Call{Name: "MFGC0", Reg: reg, Sel: sel, Arg: val})
	return val
}

func (h *HAL) MTGC0(reg, sel int, value uint32) {
	h.bankFor(h.guestID)[regKey{reg, sel}] = value
	h.record(Call{Name: "MTGC0", Reg: reg, Sel: sel, Arg: value})
}

func (h *HAL) MFC0(reg, sel int) uint32 {
	val := h.rootBank[regKey{reg, sel}]
	h.record(Call{Name: "MFC0", Reg: reg, Sel: sel, Arg: val})
	return val
}

func (h *HAL) GetEPC() uint32 {
	h.record(Call{Name: "GetEPC", Arg: h.epc})
	return h.epc
}

func (h *HAL) SetEPC(v uint32) {
	h.epc = v
	h.record(Call{Name: "SetEPC", Arg: v})
}

func (h *HAL) GetGuestCTL2() uint32 {
	h.record(Call{Name: "GetGuestCTL2", Arg: h.guestCTL2})
	return h.guestCTL2
}

func (h *HAL) SetGuestCTL2(v uint32) {
	h.guestCTL2 = v
	h.record(Call{Name: "SetGuestCTL2", Arg: v})
}

// SetHardwareGuestCTL2 seeds the register the hardware would have
// accumulated pending guest-interrupt bits into, independent of what a prior
// SetGuestCTL2 wrote; save's semantics OR this into the VCPU record.
func (h *HAL) SetHardwareGuestCTL2(v uint32) {
	h.guestCTL2 = v
}

func (h *HAL) SetGTOffset(v uint32) {
	h.gtOffset = v
	h.record(Call{Name: "SetGTOffset", Arg: v})
}

// GTOffset reads back the last programmed Guest-Timer-Offset.
func (h *HAL) GTOffset() uint32 { return h.gtOffset }

func (h *HAL) SetGuestID(id uint32) {
	h.guestID = id
	h.record(Call{Name: "SetGuestID", Arg: id})
}

func (h *HAL) SetGuestMode() {
	h.guestMode = true
	h.record(Call{Name: "SetGuestMode"})
}

func (h *HAL) SetPreviousShadowSet(i uint32) {
	h.prevShadow = i
	h.record(Call{Name: "SetPreviousShadowSet", Arg: i})
}

func (h *HAL) SetLowestGShadow(i uint32) {
	h.lowestGShadow = i
	h.record(Call{Name: "SetLowestGShadow", Arg: i})
}

func (h *HAL) MoveFromPreviousGuestGPR(rt uint32) uint32 {
	val := h.prevGuestGPR[rt&0x1F]
	h.record(Call{Name: "MoveFromPreviousGuestGPR", RT: rt, Arg: val})
	return val
}

func (h *HAL) MoveToPreviousGuestGPR(rt uint32, v uint32) {
	h.prevGuestGPR[rt&0x1F] = v
	h.record(Call{Name: "MoveToPreviousGuestGPR", RT: rt, Arg: v})
}

// Names returns the Name of each logged call, in order, for compact
// assertions against an expected HAL call trace.
func (h *HAL) Names() []string {
	names := make([]string, len(h.Log))
	for i, c := range h.Log {
		names[i] = c.Name
	}
	return names
}

// IndexOf returns the index of the first logged call with the given name, or
// -1 if none was recorded.
func (h *HAL) IndexOf(name string) int {
	for i, c := range h.Log {
		if c.Name == name {
			return i
		}
	}
	return -1
}
