package seqview

import "github.com/grailbio/seqcluster/seqpb"

// Cursor is a rewindable k-mer cursor over one Sequence (spec.md §4.2 "A
// cursor over one Sequence that yields successive k-mers under a spaced
// pattern"). It is thread-compatible: like the teacher's kmerizer, one
// Cursor is meant to be owned by a single extraction worker at a time, and
// Map re-initializes it for reuse across sequences within that worker
// (avoiding a per-sequence allocation, the same pooling discipline
// fusion.newKmerizer's caller uses).
type Cursor struct {
	pattern Pattern
	id      uint32
	key     uint32
	seq     seqpb.Sequence
	pos     int // next window start
	lastPos int // window start used by the most recent NextKmer
	window  []int8
}

// NewCursor creates a Cursor for the given pattern. window is reused across
// calls to Map/NextKmer.
func NewCursor(p Pattern) *Cursor {
	return &Cursor{pattern: p, window: make([]int8, p.K())}
}

// Map initializes the cursor over seq (spec.md §4.2 "map(id, key, bytes,
// length)"; here bytes/length are folded into seqpb.Sequence, already
// residue-encoded by the residue package).
func (c *Cursor) Map(seq seqpb.Sequence) {
	c.seq = seq
	c.pos = 0
}

// Reset rewinds the cursor to the start of the current sequence (spec.md
// §4.2 "reset()").
func (c *Cursor) Reset() { c.pos = 0 }

// HasNextKmer reports whether another full pattern window fits before the
// end of the sequence (spec.md §4.2 "cur_pos + pattern_length <= L").
func (c *Cursor) HasNextKmer() bool {
	return c.pos+c.pattern.Len() <= c.seq.Len()
}

// Pos returns the start position the next NextKmer call will read from.
func (c *Cursor) Pos() int { return c.pos }

// NextKmer advances the cursor and returns the window of effective-k
// integers drawn at the pattern's 1-positions (spec.md §4.2 "next_kmer()").
// The returned slice is reused on the next call; callers that need to retain
// it must copy.
func (c *Cursor) NextKmer() []int8 {
	if !c.HasNextKmer() {
		return nil
	}
	residues := c.seq.Residues[c.pos : c.pos+c.pattern.Len()]
	w := 0
	for i, on := range c.pattern.mask {
		if on {
			c.window[w] = residues[i]
			w++
		}
	}
	c.lastPos = c.pos
	c.pos++
	return c.window
}

// ProfileRow returns the per-position substitution row at the cursor's
// current window start, for profile sequences (spec.md §4.2 "Profile
// variant"). It panics if the mapped sequence is not a profile; callers
// must check seq.Kind first.
func (c *Cursor) ProfileRow() []int8 {
	if c.seq.Kind != seqpb.SeqKindProfile {
		panic("seqview: ProfileRow called on a non-profile sequence")
	}
	return c.seq.ProfileScores[c.lastPos]
}
