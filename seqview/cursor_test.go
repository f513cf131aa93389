package seqview

import (
	"testing"

	"github.com/grailbio/seqcluster/seqpb"
)

func TestContiguousCursor(t *testing.T) {
	p := Contiguous(3)
	c := NewCursor(p)
	seq := seqpb.Sequence{ID: 1, Kind: seqpb.SeqKindAmino, Residues: []int8{0, 1, 2, 3, 4}}
	c.Map(seq)

	var windows [][]int8
	for c.HasNextKmer() {
		w := c.NextKmer()
		cp := make([]int8, len(w))
		copy(cp, w)
		windows = append(windows, cp)
	}
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}
	if windows[0][0] != 0 || windows[0][2] != 2 {
		t.Fatalf("unexpected first window: %v", windows[0])
	}
	if windows[2][0] != 2 || windows[2][2] != 4 {
		t.Fatalf("unexpected last window: %v", windows[2])
	}
}

func TestSpacedPattern(t *testing.T) {
	p, err := NewPattern("1101")
	if err != nil {
		t.Fatal(err)
	}
	if p.K() != 3 {
		t.Fatalf("expected k=3, got %d", p.K())
	}
	if p.Len() != 4 {
		t.Fatalf("expected pattern length 4, got %d", p.Len())
	}
	c := NewCursor(p)
	seq := seqpb.Sequence{Residues: []int8{10, 20, 30, 40, 50}}
	c.Map(seq)
	w := c.NextKmer()
	if w[0] != 10 || w[1] != 20 || w[2] != 40 {
		t.Fatalf("unexpected spaced window: %v", w)
	}
}

func TestResetRewinds(t *testing.T) {
	c := NewCursor(Contiguous(2))
	seq := seqpb.Sequence{Residues: []int8{1, 2, 3}}
	c.Map(seq)
	c.NextKmer()
	c.Reset()
	if c.Pos() != 0 {
		t.Fatalf("expected pos 0 after reset, got %d", c.Pos())
	}
}

func TestHasNextKmerBoundary(t *testing.T) {
	c := NewCursor(Contiguous(4))
	seq := seqpb.Sequence{Residues: []int8{1, 2, 3}}
	c.Map(seq)
	if c.HasNextKmer() {
		t.Fatal("sequence shorter than pattern must report no next kmer")
	}
}

func TestProfileRowPanicsForNonProfile(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for ProfileRow on non-profile sequence")
		}
	}()
	c := NewCursor(Contiguous(2))
	c.Map(seqpb.Sequence{Kind: seqpb.SeqKindAmino, Residues: []int8{1, 2}})
	c.NextKmer()
	c.ProfileRow()
}
