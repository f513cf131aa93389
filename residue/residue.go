// Package residue defines the fixed residue-to-int maps used to turn raw
// sequence bytes into the integer-encoded residue arrays the rest of the
// core operates on (spec.md §3 "Sequence" invariant). It mirrors the
// teacher's fusion.asciiToKmerMap/asciiToReverseComplementKmerMap tables,
// generalized from a fixed 2-bit nucleotide alphabet to the full set of
// alphabets spec.md §4.3 names: 21-letter amino, 13-letter reduced amino,
// and 5-letter nucleotide (ACGTN).
package residue

import "fmt"

// Unknown is the reserved integer code for an unknown/ambiguous residue (the
// spec's "X"), common across all alphabets.
const Unknown = int8(-1)

// Alphabet enumerates the supported residue sets.
type Alphabet uint8

const (
	// AminoFull is the standard 20 amino acids plus X (21 symbols).
	AminoFull Alphabet = iota
	// AminoReduced is a reduced 13-letter amino alphabet (grouped by
	// physicochemical similarity, as mmseqs2's SubstitutionMatrix reduction
	// does for sensitive-but-fast prefiltering).
	AminoReduced
	// Nucleotide is the 4-letter ACGT alphabet plus N (5 symbols).
	Nucleotide
)

func (a Alphabet) String() string {
	switch a {
	case AminoFull:
		return "amino21"
	case AminoReduced:
		return "amino13"
	case Nucleotide:
		return "nt5"
	default:
		return "unknown"
	}
}

// Size returns the number of distinct residue codes in the alphabet,
// including the Unknown code's slot (spec.md §4.3 `alphabet_size`).
func (a Alphabet) Size() int {
	switch a {
	case AminoFull:
		return 21
	case AminoReduced:
		return 13
	case Nucleotide:
		return 5
	default:
		return 0
	}
}

var (
	aminoFullTable    [256]int8
	aminoReducedTable [256]int8
	nucleotideTable   [256]int8
	// complementTable maps an ASCII nucleotide to its Watson-Crick complement
	// (still ASCII); used to build the reverse-complement integer code
	// without a second lookup table, the way fusion.asciiToReverseComplementKmerMap
	// does it for the 2-bit case.
	complementTable [256]byte
)

// aminoReducedGroups implements the grouping behind the 13-letter reduced
// alphabet, following the physicochemical-similarity reductions used
// throughout the BLOSUM/linclust literature: {LVIM},{C},{A},{G},{ST},{P},
// {FYW},{ED},{NQ},{KR},{H}. These use group codes 0-10; codes 11 and 12 of
// the 13-code alphabet are unused.
var aminoReducedGroups = map[byte]int8{
	'L': 0, 'V': 0, 'I': 0, 'M': 0,
	'C': 1,
	'A': 2,
	'G': 3,
	'S': 4, 'T': 4,
	'P': 5,
	'F': 6, 'Y': 6, 'W': 6,
	'E': 7, 'D': 7,
	'N': 8, 'Q': 8,
	'K': 9, 'R': 9,
	'H': 10,
	'B': 8, // Asx folds into N/Q group
	'Z': 7, // Glx folds into E/D group
}

const aminoFullOrder = "ACDEFGHIKLMNPQRSTVWY"

func init() {
	for i := range aminoFullTable {
		aminoFullTable[i] = Unknown
		aminoReducedTable[i] = Unknown
		nucleotideTable[i] = Unknown
		complementTable[i] = byte(i)
	}
	for i, ch := range []byte(aminoFullOrder) {
		aminoFullTable[ch] = int8(i)
		aminoFullTable[ch+('a'-'A')] = int8(i)
	}
	for ch, code := range aminoReducedGroups {
		aminoReducedTable[ch] = code
		aminoReducedTable[ch+('a'-'A')] = code
	}

	nucleotideTable['A'], nucleotideTable['a'] = 0, 0
	nucleotideTable['C'], nucleotideTable['c'] = 1, 1
	nucleotideTable['G'], nucleotideTable['g'] = 2, 2
	nucleotideTable['T'], nucleotideTable['t'] = 3, 3
	nucleotideTable['U'], nucleotideTable['u'] = 3, 3 // RNA U maps onto T's code
	nucleotideTable['N'], nucleotideTable['n'] = 4, 4

	pairs := [][2]byte{{'A', 'T'}, {'C', 'G'}}
	for _, p := range pairs {
		a, b := p[0], p[1]
		complementTable[a], complementTable[a+('a'-'A')] = b, b+('a' - 'A')
		complementTable[b], complementTable[b+('a'-'A')] = a, a+('a' - 'A')
	}
	complementTable['N'], complementTable['n'] = 'N', 'n'
}

// Table returns the ASCII->code lookup table for the given alphabet. The
// returned array must not be mutated by callers.
func Table(a Alphabet) *[256]int8 {
	switch a {
	case AminoFull:
		return &aminoFullTable
	case AminoReduced:
		return &aminoReducedTable
	case Nucleotide:
		return &nucleotideTable
	default:
		panic(fmt.Sprintf("residue: unknown alphabet %v", a))
	}
}

// Encode maps a raw byte sequence to integer residue codes in-place-sized
// output. Any byte with no table entry becomes Unknown.
func Encode(a Alphabet, seq []byte, out []int8) {
	table := Table(a)
	for i, ch := range seq {
		out[i] = table[ch]
	}
}

// Complement returns the Watson-Crick complement of an ASCII nucleotide byte,
// preserving case. Non-ACGT bytes (including N) map to themselves.
func Complement(ch byte) byte { return complementTable[ch] }

const nucleotideOrder = "ACGTN"
const aminoReducedOrder = "LCAGSPFENKHXX" // one representative letter per reduced group (codes 11,12 unused)

// Decode returns the canonical uppercase ASCII letter for a residue code
// under the given alphabet, or 'X' for Unknown. It is the inverse of
// Encode, used only by diagnostic tools (cmd/countkmer) that print k-mers
// back out as text.
func Decode(a Alphabet, code int8) byte {
	if code == Unknown {
		return 'X'
	}
	switch a {
	case AminoFull:
		if int(code) < len(aminoFullOrder) {
			return aminoFullOrder[code]
		}
	case AminoReduced:
		if int(code) < len(aminoReducedOrder) {
			return aminoReducedOrder[code]
		}
	case Nucleotide:
		if int(code) < len(nucleotideOrder) {
			return nucleotideOrder[code]
		}
	}
	return 'X'
}

// ReverseComplement writes the reverse complement of src into dst. dst and
// src must have equal, positive length and must not overlap (mirrors
// biosimd.ReverseComp8NoValidate's unsafe-but-documented contract, except
// this version performs ordinary bounds-checked byte indexing since the
// residue package is not a SIMD hot path).
func ReverseComplement(dst, src []byte) {
	n := len(src)
	for i := 0; i < n; i++ {
		dst[i] = Complement(src[n-1-i])
	}
}

// HasUnknown reports whether any residue code in codes equals Unknown. K-mer
// extraction (spec.md §4.3 step 1) must skip any window containing X.
func HasUnknown(codes []int8) bool {
	for _, c := range codes {
		if c == Unknown {
			return true
		}
	}
	return false
}
