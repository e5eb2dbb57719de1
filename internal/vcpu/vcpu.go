// Package vcpu implements the core of a MIPS VZ ASE hypervisor: the
// per-guest execution context (VCPU), the context-save/restore protocol run
// on every world switch, and the trap-and-emulate engine for guest CP0
// operations the hardware does not directly virtualize.
//
// The package never touches hardware directly. Every privileged operation is
// expressed against hal.CPU0Access, injected by the caller (production wires
// an assembly-backed implementation; tests use halmock.HAL).
package vcpu

// VCPU is one guest's architectural state snapshot. It is created once by
// the hypervisor bootstrap (out of scope for this package) and never
// destroyed.
type VCPU struct {
	// ID is the hardware Guest-ID written to the Guest-ID register during
	// restore. Assigned at construction; never changes.
	ID uint32

	// GPRShadowSet is the shadow GPR set index assigned to this VCPU. It
	// serves as both the "previous" and "lowest guest" shadow set during
	// restore.
	GPRShadowSet uint32

	// CP0 is the snapshot of live guest CP0 state captured by the last Save.
	CP0 CP0Snapshot

	// GuestCTL2 accumulates pending guest-interrupt delivery bits; Save
	// bitwise-ORs the hardware's current value in, Restore writes it back
	// wholesale.
	GuestCTL2 uint32

	// PC is the guest resume address (Exception PC).
	PC uint32

	// Init is true until this VCPU has completed its first Restore. Save
	// must skip an Init VCPU: there is nothing live in hardware for it yet.
	Init bool

	// RootCount is reserved for future guest-timer virtualization, which is
	// out of scope here. Not read anywhere in this package today.
	RootCount uint32
}

// New returns a VCPU ready for its first scheduling: Init is true, PC is set
// to entry, and CP0 is the zero snapshot. id and shadowSet are fixed for the
// VCPU's lifetime.
func New(id, shadowSet, entry uint32) *VCPU {
	return &VCPU{
		ID:           id,
		GPRShadowSet: shadowSet,
		PC:           entry,
		Init:         true,
	}
}
