// Package seqview implements the Sequence View (spec.md §4.2 C2): a typed,
// rewindable k-mer cursor over one Sequence, supporting spaced seeds and
// profile score rows. It generalizes the teacher's fusion.kmerizer (a
// fixed-k, fixed-alphabet 2-bit-nucleotide cursor) to arbitrary alphabets
// and to the spec's spaced-pattern / profile variants, following
// original_source/src/commons/Sequence.h's spaced-seed tables for the
// concrete patterns.
package seqview

import "fmt"

// Pattern is a spaced k-mer pattern: a {0,1}-string where 1-positions
// contribute to the k-mer and 0-positions are skipped (spec.md §4.2).
type Pattern struct {
	mask []bool // len(mask) == pattern length
	k     int    // effective k-mer size == count of 1s
}

// NewPattern builds a Pattern from a {0,1}-string such as "110101011".
func NewPattern(spec string) (Pattern, error) {
	mask := make([]bool, len(spec))
	k := 0
	for i, ch := range spec {
		switch ch {
		case '1':
			mask[i] = true
			k++
		case '0':
			mask[i] = false
		default:
			return Pattern{}, fmt.Errorf("seqview: invalid pattern character %q", ch)
		}
	}
	if k == 0 {
		return Pattern{}, fmt.Errorf("seqview: pattern %q has no contributing positions", spec)
	}
	return Pattern{mask: mask, k: k}, nil
}

// Contiguous returns the trivial non-spaced pattern of length k (all 1s).
func Contiguous(k int) Pattern {
	mask := make([]bool, k)
	for i := range mask {
		mask[i] = true
	}
	return Pattern{mask: mask, k: k}
}

// Len returns the pattern's window length (spec.md §4.2 "pattern length").
func (p Pattern) Len() int { return len(p.mask) }

// K returns the effective k-mer size (count of 1s).
func (p Pattern) K() int { return p.k }

// Contiguous reports whether every position in the pattern is a 1 (no gaps),
// i.e. Len() == K(). Callers use this to pick an O(1) incremental rolling
// hash update instead of recomputing from scratch per window.
func (p Pattern) Contiguous() bool { return p.k == len(p.mask) }

// spacedPatterns holds the predefined patterns selected by
// spec.md §4.3's `spaced_kmer_mode` for common k values, transcribed from
// original_source/src/commons/Sequence.h's spaced_seed_N tables (mode 1);
// mode 0 always uses the contiguous pattern.
var spacedPatterns = map[int]string{
	6:  "1101010011",
	7:  "11010110011",
	8:  "110101110011",
	9:  "11010110011011",
	10: "110101101011011",
}

// PredefinedSpaced returns the built-in spaced pattern for effective k-mer
// size k, if one is known; ok is false for unlisted k (callers should fall
// back to Contiguous(k) in that case).
func PredefinedSpaced(k int) (Pattern, bool) {
	spec, ok := spacedPatterns[k]
	if !ok {
		return Pattern{}, false
	}
	p, err := NewPattern(spec)
	if err != nil {
		// A bad built-in table entry is a programming error, not a runtime
		// one; fail fast the way the teacher's fusion package panics on
		// internal invariant violations it doesn't expect to see.
		panic(err)
	}
	return p, true
}
