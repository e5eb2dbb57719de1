package vcpu

import (
	"log/slog"

	"vzhv/internal/hal"
)

// Hart is the per-hart context this package's design notes call for in
// place of the reference implementation's file-scope globals
// (vcpu_executing, is_vcpu_executing): one Hart per physical hart, each
// carrying its own HAL binding and its own notion of "the VCPU currently
// bound to the hardware." A VCPU record must never be shared live between
// two Harts.
type Hart struct {
	hal hal.CPU0Access
	log *slog.Logger

	current   *VCPU
	executing bool
}

// NewHart returns a Hart driving the given HAL. log may be nil, in which
// case slog.Default() is used — the engine itself never picks a logging
// backend.
func NewHart(h hal.CPU0Access, log *slog.Logger) *Hart {
	if log == nil {
		log = slog.Default()
	}
	return &Hart{hal: h, log: log}
}

// Bind sets the VCPU the scheduler has chosen to run next. It is the
// scheduler's responsibility (out of scope here) to call Bind before
// ContextRestore, and to have already called ContextSave against whatever
// VCPU was previously bound.
func (h *Hart) Bind(v *VCPU) {
	h.current = v
	h.executing = true
}

// Current returns the VCPU currently bound to this hart, or nil if none has
// ever been bound.
func (h *Hart) Current() *VCPU {
	return h.current
}
