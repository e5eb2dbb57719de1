package vcpu

// CalculateGTOffset returns the value to program into the Guest-Timer-Offset
// register so that a guest reading Count observes zero elapsed time since
// saved, handling 32-bit wrap-around. It is the two's-complement negation of
// the elapsed count between saved and current.
//
// The wrapped branch counts the wrap point itself as one tick
// ("+ current + 1", not just "+ current"): without it, elapsed undercounts
// by exactly one whenever the counter wraps, which breaks
// saved + (-CalculateGTOffset(saved, current)) == current (mod 2^32) right
// at the wrap boundary. The reference implementation omits the "+1" and is
// off by one there; this port corrects it, the same way the Status-merge
// mask is corrected to "^" elsewhere in this package.
//
// Declared but not wired into ContextSave/ContextRestore: guests currently
// see absolute host time, and full guest timer virtualization is out of
// scope here. It is exported so that eventual timer-virtualization work has
// a ready, independently-tested entry point.
func CalculateGTOffset(saved, current uint32) uint32 {
	var offset uint32
	if saved > current {
		offset = (0xFFFFFFFF-saved)+current+1
	} else {
		offset = current - saved
	}
	return (^offset) + 1
}
