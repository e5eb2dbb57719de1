package vcpu

import (
	"log/slog"

	"vzhv/internal/hal"
)

// emuRule is one row of the dispatch table: a predicate over the decoded
// instruction fields, and the handler that runs when it matches. Rules are
// tried in order; the first match wins, matching the table's priority (WAIT
// before the general CP0-co=1 fallthrough, the Status merge before the
// general MTC fallthrough, and so on).
type emuRule struct {
	name  string
	match func(f fields) bool
	run   func(h *Hart, v *VCPU, f fields)
}

var emuRules = []emuRule{
	{
		name: "wait",
		match: func(f fields) bool {
			return f.Opcode == hal.OpcodeCP0 && f.CO && f.Func == hal.FuncWait
		},
		run: func(h *Hart, v *VCPU, f fields) {
			h.log.Warn("wait emulation ignored", "vcpu_id", v.ID)
		},
	},
	{
		// MTC0 $rt, $12, 0 — guest write to Status. Only STATUSMask bits may
		// change directly; the rest is preserved from the hardware's
		// current value, via bitwise complement of the mask.
		name: "mtc-status-merge",
		match: func(f fields) bool {
			return f.Opcode == hal.OpcodeCP0 && !f.CO && f.RS == hal.RSMTC0 &&
				f.RD == hal.CP0Status && f.Sel == 0
		},
		run: func(h *Hart, v *VCPU, f fields) {
			src := h.hal.MoveFromPreviousGuestGPR(f.RT)
			current := h.hal.MFGC0(hal.CP0Status, 0)
			merged := (src & hal.STATUSMask) | (current &^ hal.STATUSMask)
			h.hal.MTGC0(hal.CP0Status, 0, merged)
		},
	},
	{
		name: "mtc-srsctl-ignore",
		match: func(f fields) bool {
			return f.Opcode == hal.OpcodeCP0 && !f.CO && f.RS == hal.RSMTC0 &&
				f.RD == hal.CP0Status && f.Sel == 3
		},
		run: func(h *Hart, v *VCPU, f fields) {
			h.log.Warn("write to CP0 SRSCTL ignored", "vcpu_id", v.ID)
		},
	},
	{
		// MTC0 $rt, $9, 0 — guest write to Count. Treated as "reset the
		// guest-visible counter to zero right now": program GTOffset to the
		// two's complement of the current guest count.
		name: "mtc-count-reset",
		match: func(f fields) bool {
			return f.Opcode == hal.OpcodeCP0 && !f.CO && f.RS == hal.RSMTC0 &&
				f.RD == hal.CP0Count && f.Sel == 0
		},
		run: func(h *Hart, v *VCPU, f fields) {
			count := h.hal.MFGC0(hal.CP0Count, 0)
			offset := (^count) + 1
			h.hal.SetGTOffset(offset)
		},
	},
	{
		// MFC0 $rt, $15, any select — guest read of PRId. Spoof a fixed implementer
		// ID instead of exposing the root's real processor identity.
		name: "mfc-prid-spoof",
		match: func(f fields) bool {
			return f.Opcode == hal.OpcodeCP0 && !f.CO && f.RS == hal.RSMFC0 &&
				f.RD == hal.CP0PRId
		},
		run: func(h *Hart, v *VCPU, f fields) {
			val := (h.hal.MFC0(hal.CP0PRId, 0) &^ hal.PRIdCompanyMask) | hal.PRIdSpoofID
			h.hal.MoveToPreviousGuestGPR(f.RT, val)
		},
	},
	{
		// MFC0 $rt, $12, 2 — guest read of root SRSCtl, HSS field cleared.
		name: "mfc-srsctl-masked",
		match: func(f fields) bool {
			return f.Opcode == hal.OpcodeCP0 && !f.CO && f.RS == hal.RSMFC0 &&
				f.RD == hal.CP0Status && f.Sel == 2
		},
		run: func(h *Hart, v *VCPU, f fields) {
			val := h.hal.MFC0(hal.CP0Status, 2) &^ hal.SRSCtlHSS
			h.hal.MoveToPreviousGuestGPR(f.RT, val)
		},
	},
	{
		// MFC0 $rt, $25, 0 — guest read of root PerfCtl0.
		name: "mfc-perfctl0",
		match: func(f fields) bool {
			return f.Opcode == hal.OpcodeCP0 && !f.CO && f.RS == hal.RSMFC0 &&
				f.RD == hal.CP0PerfCtl0 && f.Sel == 0
		},
		run: func(h *Hart, v *VCPU, f fields) {
			val := h.hal.MFC0(hal.CP0PerfCtl0, 0)
			h.hal.MoveToPreviousGuestGPR(f.RT, val)
		},
	},
	{
		name: "cache-ignore",
		match: func(f fields) bool {
			return f.Opcode == hal.OpcodeCACHE
		},
		run: func(h *Hart, v *VCPU, f fields) {
			h.log.Warn("cache instruction not supported on vcpu", "vcpu_id", v.ID)
		},
	},
}

// Emulate handles a guest trap raised because the hardware could not
// complete a guest-privileged instruction. epc is the guest PC of the
// faulting instruction; the instruction word itself is read from
// BadVAddr select 2, where this trap class deposits it.
//
// The trap epilogue — not this function — is responsible for advancing
// guest EPC by 4 before eret.
func (h *Hart) Emulate(epc uint32) uint32 {
	v := h.current
	instr := h.hal.MFC0(hal.CP0BadVAddr, 2)
	f := decode(instr)

	for _, rule := range emuRules {
		if rule.match(f) {
			rule.run(h, v, f)
			return 0
		}
	}

	h.warnUnsupported(instr, epc, v)
	return 0
}

func (h *Hart) warnUnsupported(instr, epc uint32, v *VCPU) {
	id := uint32(0)
	if v != nil {
		id = v.ID
	}
	h.log.Warn("unsupported guest-privileged instruction",
		slog.Uint64("instr", uint64(instr)),
		slog.Uint64("epc", uint64(epc)),
		slog.Uint64("vcpu_id", uint64(id)),
	)
}
