package kmerextract

// maskLowercase replaces lowercase-indicated residues with residue.Unknown
// in out, given the original raw bytes in raw (same length, already aligned
// one-to-one with out). spec.md §4.3 step 3 "lowercase masking... replace
// residues with X".
func maskLowercase(raw []byte, out []int8) {
	for i, ch := range raw {
		if ch >= 'a' && ch <= 'z' {
			out[i] = -1
		}
	}
}

// maskLowComplexity applies a tantan-style low-complexity mask: a simple
// order-0 repeat-probability estimate over a sliding window, following the
// shape of tantan's HMM (match vs. repeat state) without reproducing its
// exact transition/emission tables, which are not present in the example
// corpus. Residues inside a run whose local repetitiveness score exceeds
// threshold are replaced with residue.Unknown in out.
//
// This is deliberately a light approximation: the spec names tantan masking
// as an option, not a byte-exact external dependency to vendor.
func maskLowComplexity(codes []int8, out []int8, window int, threshold float64) {
	n := len(codes)
	if window < 2 || window > n {
		return
	}
	counts := make(map[int8]int, 8)
	for i := 0; i < window; i++ {
		if codes[i] >= 0 {
			counts[codes[i]]++
		}
	}
	markIfRepetitive := func(lo, hi int) {
		var maxCount int
		for _, c := range counts {
			if c > maxCount {
				maxCount = c
			}
		}
		if float64(maxCount)/float64(window) >= threshold {
			for i := lo; i < hi; i++ {
				out[i] = -1
			}
		}
	}
	markIfRepetitive(0, window)
	for i := window; i < n; i++ {
		if codes[i-window] >= 0 {
			counts[codes[i-window]]--
		}
		if codes[i] >= 0 {
			counts[codes[i]]++
		}
		markIfRepetitive(i-window+1, i+1)
	}
}
