package vcpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vzhv/internal/hal/halmock"
)

func TestContextSaveSkipsUninitializedVCPU(t *testing.T) {
	h := halmock.New()
	hart := NewHart(h, nil)
	v := New(1, 0, 0x80001000)
	hart.Bind(v)

	hart.ContextSave()

	assert.Empty(t, h.Log, "ContextSave on an Init VCPU must not touch the HAL")
}

func TestContextSaveNoopWithoutBind(t *testing.T) {
	h := halmock.New()
	hart := NewHart(h, nil)

	hart.ContextSave()

	assert.Empty(t, h.Log, "ContextSave before any Bind must not touch the HAL")
}

func TestFirstRestoreThenSaveRoundTrips(t *testing.T) {
	h := halmock.New()
	hart := NewHart(h, nil)
	v := New(7, 2, 0x9FC00000)

	v.CP0.Status = 0xAABBCCDD  // Status
	v.CP0.Context = 0x11111111 // Context

	hart.Bind(v)
	hart.ContextRestore()

	require.False(t, v.Init, "first ContextRestore must clear Init")
	assert.Equal(t, uint32(7), h.Log[h.IndexOf("SetGuestID")].Arg)

	h.SetHardwareGuestCTL2(0x4)
	hart.ContextSave()

	assert.Equal(t, uint32(0xAABBCCDD), v.CP0.Status)
	assert.Equal(t, uint32(0x11111111), v.CP0.Context)
	assert.Equal(t, uint32(0x4), v.GuestCTL2, "GuestCTL2 accumulates from the hardware on save")
}

func TestRestoreOrderBindsGuestBeforeAnyMTGC0(t *testing.T) {
	h := halmock.New()
	hart := NewHart(h, nil)
	v := New(3, 1, 0)
	hart.Bind(v)

	hart.ContextRestore()

	names := h.Names()
	guestIDIdx := indexOfName(names, "SetGuestID")
	guestModeIdx := indexOfName(names, "SetGuestMode")
	firstMTGC0 := indexOfName(names, "MTGC0")

	require.GreaterOrEqual(t, guestIDIdx, 0)
	require.GreaterOrEqual(t, guestModeIdx, 0)
	require.GreaterOrEqual(t, firstMTGC0, 0)

	assert.Less(t, guestIDIdx, firstMTGC0, "Guest-ID must be bound before any guest CP0 write")
	assert.Less(t, guestModeIdx, firstMTGC0, "guest mode must be entered before any guest CP0 write")
}

func TestRestoreWritesEPCLast(t *testing.T) {
	h := halmock.New()
	hart := NewHart(h, nil)
	v := New(1, 0, 0x80010000)
	hart.Bind(v)

	hart.ContextRestore()

	last := h.Log[len(h.Log)-1]
	assert.Equal(t, "SetEPC", last.Name)
	assert.Equal(t, v.PC, last.Arg)
}

func TestRestoreWritesGuestCTL2BeforeEPC(t *testing.T) {
	h := halmock.New()
	hart := NewHart(h, nil)
	v := New(1, 0, 0)
	v.GuestCTL2 = 0x2
	hart.Bind(v)

	hart.ContextRestore()

	names := h.Names()
	ctl2Idx := indexOfName(names, "SetGuestCTL2")
	epcIdx := indexOfName(names, "SetEPC")

	require.GreaterOrEqual(t, ctl2Idx, 0)
	assert.Less(t, ctl2Idx, epcIdx)
}

func TestPageMaskRestoredButNeverSaved(t *testing.T) {
	h := halmock.New()
	hart := NewHart(h, nil)
	v := New(1, 0, 0)
	v.CP0.PageMask = 0xFF000000
	hart.Bind(v)

	hart.ContextRestore()
	assert.Equal(t, uint32(0xFF000000), h.GuestReg(1, 5, 0))

	hart.ContextSave()
	assert.Equal(t, uint32(0xFF000000), v.CP0.PageMask, "PageMask must survive Save untouched")

	for _, c := range h.Log {
		if c.Name == "MFGC0" && c.Reg == 5 && c.Sel == 0 {
			t.Fatalf("ContextSave must never read guest PageMask")
		}
	}
}

func TestEBaseSavedAndRestoredAtPRIdSelectOne(t *testing.T) {
	h := halmock.New()
	hart := NewHart(h, nil)
	v := New(1, 0, 0)
	v.CP0.EBase = 0x80F00000

	hart.Bind(v)
	hart.ContextRestore()
	hart.ContextSave()

	assert.Equal(t, uint32(0x80F00000), v.CP0.EBase)
	assert.Equal(t, uint32(0x80F00000), h.GuestReg(1, 15, 1))
}

// indexOfName is a thin wrapper over a []string for readability at call
// sites that already have h.Names() in hand.
func indexOfName(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
