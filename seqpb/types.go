// Package seqpb defines the wire-level tuple types shared by the Sequence
// Store, Group Builder, and Split/Merge Orchestrator: the K-mer Token, the
// Candidate Hit, and small ordering helpers in the style of a hand-written
// coordinate package (cf. biopb.Coord in the teacher) rather than a
// generated-protobuf one, since the tuples here are fixed-width machine
// records, not cross-service wire messages.
package seqpb

import "math"

// SeqKind tags what a Sequence's residue array represents.
type SeqKind uint8

const (
	// SeqKindUnknown is the zero value; never a valid sequence.
	SeqKindUnknown SeqKind = iota
	// SeqKindAmino is an amino-acid sequence (alphabet 20/21/13).
	SeqKindAmino
	// SeqKindNucleotide is a nucleotide sequence (alphabet 4/5).
	SeqKindNucleotide
	// SeqKindProfile is an HMM/profile sequence with a per-position score row.
	SeqKindProfile
)

func (k SeqKind) String() string {
	switch k {
	case SeqKindAmino:
		return "amino"
	case SeqKindNucleotide:
		return "nucleotide"
	case SeqKindProfile:
		return "profile"
	default:
		return "unknown"
	}
}

// StrandBit is bit 63 of a nucleotide hash_key / rep_id field: set means
// forward strand, clear means reverse-complement.
const StrandBit = uint64(1) << 63

// UsableBitsMask masks the 63 usable bits of a strand-tagged 64-bit field.
const UsableBitsMask = StrandBit - 1

// InvalidKmerKey is the sentinel marking buffer end (spec.md §4.4 "Edge
// policy"): all-ones.
const InvalidKmerKey = ^uint64(0)

// PackStrand folds a canonical key and a forward-strand flag into the
// combined on-disk representation, enforcing that canonicalization never
// sets the high bit itself (Design Notes §9 invariant).
func PackStrand(key uint64, forward bool) uint64 {
	if key&StrandBit != 0 {
		panic("seqpb: canonical key must fit in 63 bits")
	}
	if forward {
		return key | StrandBit
	}
	return key
}

// UnpackStrand splits a combined field back into (key, forward).
func UnpackStrand(v uint64) (key uint64, forward bool) {
	return v &^ StrandBit, v&StrandBit != 0
}

// KmerToken is the tuple of spec.md §3 "K-mer Token": (hash_key, sequence_id,
// position, seq_length). The same struct carries three different phases
// (extraction tuple, hit tuple, final emit tuple) as Design Notes §9
// describes; it is never aliased as a union, and each phase writes a full
// KmerToken (groupbuilder.Assign builds a new token per hit).
type KmerToken struct {
	// HashKey holds the canonical k-mer hash during the extraction phase, and
	// is overwritten with (rep_id | strand-bit) during representative
	// assignment.
	HashKey uint64
	// SeqID is the sequence that contributed this token. Overwritten with the
	// target id once the token is rewritten as a hit.
	SeqID uint32
	// Position is the k-mer offset within the sequence during extraction, and
	// is overwritten with the signed diagonal once rewritten as a hit.
	Position int32
	// SeqLength is the sequence's length during extraction, and the target's
	// length once rewritten as a hit.
	SeqLength int32
}

// IsSentinel reports whether t marks the end of a token buffer.
func (t KmerToken) IsSentinel() bool { return t.HashKey == InvalidKmerKey }

// Sentinel returns an end-of-buffer marker token.
func Sentinel() KmerToken { return KmerToken{HashKey: InvalidKmerKey, SeqID: math.MaxUint32} }

// Sort1Less implements the Group Builder's first sort order: (canonical_key
// ASC, seq_length DESC, seq_id ASC, position ASC). The strand bit folded into
// HashKey by PackStrand is stripped before comparison, since a run is defined
// by the canonical k-mer alone — a representative's forward-strand and
// reverse-strand occurrences of the same k-mer must land in the same run so
// the four-case strand resolution table can apply.
func Sort1Less(a, b KmerToken) bool {
	ak, _ := UnpackStrand(a.HashKey)
	bk, _ := UnpackStrand(b.HashKey)
	if ak != bk {
		return ak < bk
	}
	if a.SeqLength != b.SeqLength {
		return a.SeqLength > b.SeqLength
	}
	if a.SeqID != b.SeqID {
		return a.SeqID < b.SeqID
	}
	return a.Position < b.Position
}

// RewrittenLess implements the Group Builder's second sort order: (rep_id
// ASC, target_id ASC, diagonal ASC), where HashKey carries rep_id|strand-bit
// and Position carries the diagonal.
func RewrittenLess(a, b KmerToken) bool {
	ak, _ := UnpackStrand(a.HashKey)
	bk, _ := UnpackStrand(b.HashKey)
	if ak != bk {
		return ak < bk
	}
	if a.SeqID != b.SeqID {
		return a.SeqID < b.SeqID
	}
	return a.Position < b.Position
}

// CandidateHit is the tuple of spec.md §3: (target_id, diagonal, score,
// strand_flag), produced after collapsing a k-mer group.
type CandidateHit struct {
	RepID      uint32
	TargetID   uint32
	Diagonal   int32
	Score      int16
	QueryFlip  bool // bit 63 of the rewritten rep_id field
	RevStrand  bool // target k-mer was on the reverse strand (negative score)
}

// Less orders candidate hits the way the merge pass of spec.md §4.6 expects:
// (rep_id, target_id) ascending.
func (h CandidateHit) Less(o CandidateHit) bool {
	if h.RepID != o.RepID {
		return h.RepID < o.RepID
	}
	return h.TargetID < o.TargetID
}
