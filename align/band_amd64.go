// +build amd64,!appengine

package align

// useSIMD is probed once at package init from the CPU feature detection the
// teacher's biosimd package performs (cf. biosimd_amd64.go); the core never
// does its own CPUID work, it only consumes the precomputed flag (spec.md
// §1, "external collaborator"). When the running CPU lacks the needed
// extensions this degrades to the same portable DP bandExtendPortable uses.
var useSIMD bool

func init() {
	useSIMD = detectSIMDSupport()
}

// detectSIMDSupport is a narrow placeholder for the real CPUID probe the
// teacher's base/simd package performs; wiring an actual feature-gated
// vectorized inner loop is future work (TODO: port the SSE2 score-matrix
// lookup from base/simd once a CPU-feature build tag scheme lands here).
func detectSIMDSupport() bool { return false }

// bandExtend dispatches to a SIMD-tuned inner loop when useSIMD is set, and
// to the portable implementation otherwise (spec.md §4.5 "Stage B").
func (a *Aligner) bandExtend(query, target []int8, produceCigar bool) bandExtendResult {
	if useSIMD {
		return bandExtendSIMD(a.opts, query, target, produceCigar)
	}
	return bandExtendPortable(a.opts, query, target, produceCigar)
}

// bandExtendSIMD is the vectorized inner loop's entry point. It currently
// falls back to the portable path; useSIMD stays false until it is filled
// in, so this is never called in practice yet.
func bandExtendSIMD(opts Options, query, target []int8, produceCigar bool) bandExtendResult {
	return bandExtendPortable(opts, query, target, produceCigar)
}
