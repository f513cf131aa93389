package seqpb

// Sequence is a database entry identified by a 32-bit key (spec.md §3
// "Sequence"). It is loaded read-only from the Sequence Store for the
// duration of a job; the Residues slice is its own integer-encoded array
// (clusterio.LoadSequences encodes each store entry into a fresh slice).
type Sequence struct {
	ID       uint32
	Kind     SeqKind
	Residues []int8 // integer-encoded, length L

	// ProfileScores holds a per-position score matrix of size L x 20,
	// row-major, populated only when Kind == SeqKindProfile.
	ProfileScores [][]int8
}

// Len returns the sequence length L.
func (s Sequence) Len() int { return len(s.Residues) }
