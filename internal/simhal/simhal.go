// Package simhal is a software stand-in for the board-specific HAL: an
// in-memory root CP0 bank plus one guest CP0 bank per Guest-ID, and a bank
// of shadow GPR sets. It implements hal.CPU0Access so cmd/vzhv-sim can drive
// the real vcpu package end to end without real MIPS VZ hardware.
//
// It is explicitly not part of the production HAL contract (internal/hal):
// that contract is satisfied on-target by inline assembly this repository
// never sees.
package simhal

import "fmt"

type regKey struct {
	reg, sel int
}

// Board is the simulated board: a root CP0 bank, a guest CP0 bank per
// Guest-ID, and a shadow GPR bank per shadow set.
type Board struct {
	root  map[regKey]uint32
	guest map[uint32]map[regKey]uint32

	shadow [][32]uint32

	guestID       uint32
	guestMode     bool
	prevShadow    uint32
	lowestGShadow uint32

	epc       uint32
	guestCTL2 uint32
	gtOffset  uint32

	// hwGuestCTL2 models pending interrupt bits hardware has latched for
	// each guest, independent of whatever SetGuestCTL2 last wrote; a
	// board driver (out of scope) would feed this from an interrupt
	// controller. GetGuestCTL2 in this simulation reports the logical OR of
	// the two, matching what real hardware exposes.
	hwGuestCTL2 map[uint32]uint32
}

// NewBoard returns a Board with numShadowSets shadow GPR banks, all zeroed.
func NewBoard(numShadowSets int) *Board {
	if numShadowSets <= 0 {
		numShadowSets = 1
	}
	return &Board{
		root:        make(map[regKey]uint32),
		guest:       make(map[uint32]map[regKey]uint32),
		shadow:      make([][32]uint32, numShadowSets),
		hwGuestCTL2: make(map[uint32]uint32),
	}
}

func (b *Board) guestBank(id uint32) map[regKey]uint32 {
	m, ok := b.guest[id]
	if !ok {
		m = make(map[regKey]uint32)
		b.guest[id] = m
	}
	return m
}

// SeedGuestReg sets a guest CP0 cell directly in the given guest's bank. A
// VCPU's first ContextRestore overwrites every cell it restores (PageMask
// included) with the value from the VCPU record, so a seed only survives in
// cells ContextRestore does not write, such as Count (9,0).
func (b *Board) SeedGuestReg(guestID uint32, reg, sel int, val uint32) {
	b.guestBank(guestID)[regKey{reg, sel}] = val
}

// SeedRootReg sets a root CP0 cell (PRId, PerfCtl0, ...) the board exposes
// regardless of which guest is bound.
func (b *Board) SeedRootReg(reg, sel int, val uint32) {
	b.root[regKey{reg, sel}] = val
}

// RaiseHWGuestInterrupt ORs pending bits into the given guest's
// hardware-latched Guest-CTL2, simulating an external interrupt source
// asserting a virtual interrupt line.
func (b *Board) RaiseHWGuestInterrupt(guestID uint32, bits uint32) {
	b.hwGuestCTL2[guestID] |= bits
}

// ShadowGPR reads a register from the given shadow set, for test/demo
// inspection.
func (b *Board) ShadowGPR(shadowSet, reg uint32) uint32 {
	if int(shadowSet) >= len(b.shadow) {
		return 0
	}
	return b.shadow[shadowSet][reg&0x1F]
}

// SetShadowGPR writes a register into the given shadow set, simulating the
// trap vector's "save general registers to the shadow set" step (out of
// scope for this repository; the demo stands in for it).
func (b *Board) SetShadowGPR(shadowSet, reg, val uint32) {
	if int(shadowSet) >= len(b.shadow) {
		return
	}
	b.shadow[shadowSet][reg&0x1F] = val
}

// InjectTrap seeds BadVAddr select 2 with a faulting instruction word, the
// way the hardware deposits it on a Guest-Privileged-Instruction exception.
func (b *Board) InjectTrap(instr uint32) {
	b.root[regKey{8, 2}] = instr
}

func (b *Board) MFGC0(reg, sel int) uint32 {
	return b.guestBank(b.guestID)[regKey{reg, sel}]
}

func (b *Board) MTGC0(reg, sel int, value uint32) {
	b.guestBank(b.guestID)[regKey{reg, sel}] = value
}

func (b *Board) MFC0(reg, sel int) uint32 {
	return b.root[regKey{reg, sel}]
}

func (b *Board) GetEPC() uint32 { return b.epc }
func (b *Board) SetEPC(v uint32) { b.epc = v }

func (b *Board) GetGuestCTL2() uint32 {
	return b.guestCTL2 | b.hwGuestCTL2[b.guestID]
}

func (b *Board) SetGuestCTL2(v uint32) { b.guestCTL2 = v }

func (b *Board) SetGTOffset(v uint32) { b.gtOffset = v }

func (b *Board) SetGuestID(id uint32) { b.guestID = id }
func (b *Board) SetGuestMode()        { b.guestMode = true }

func (b *Board) SetPreviousShadowSet(i uint32) { b.prevShadow = i }
func (b *Board) SetLowestGShadow(i uint32)     { b.lowestGShadow = i }

func (b *Board) MoveFromPreviousGuestGPR(rt uint32) uint32 {
	return b.ShadowGPR(b.prevShadow, rt)
}

func (b *Board) MoveToPreviousGuestGPR(rt uint32, v uint32) {
	b.SetShadowGPR(b.prevShadow, rt, v)
}

// String renders the board's current binding for debug/demo output.
func (b *Board) String() string {
	return fmt.Sprintf("guestID=%d guestMode=%v prevShadow=%d lowestGShadow=%d epc=0x%x",
		b.guestID, b.guestMode, b.prevShadow, b.lowestGShadow, b.epc)
}
