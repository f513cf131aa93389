package groupbuilder

import (
	"testing"

	"github.com/grailbio/seqcluster/seqpb"
)

func TestExternalSortInMemoryMatchesStableSort(t *testing.T) {
	toks := []seqpb.KmerToken{
		{HashKey: 5, SeqID: 2, Position: 1, SeqLength: 10},
		{HashKey: 1, SeqID: 1, Position: 0, SeqLength: 20},
		{HashKey: 5, SeqID: 1, Position: 0, SeqLength: 30},
	}
	out, err := ExternalSort(toks, seqpb.Sort1Less, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if out[0].HashKey != 1 {
		t.Fatalf("expected smallest hash_key first, got %+v", out[0])
	}
	if out[1].SeqLength != 30 || out[2].SeqLength != 10 {
		t.Fatalf("expected longer sequence first within equal hash_key run: %+v", out[1:])
	}
}

func TestExternalSortSpillsAndMerges(t *testing.T) {
	var toks []seqpb.KmerToken
	for i := 20; i >= 0; i-- {
		toks = append(toks, seqpb.KmerToken{HashKey: uint64(i), SeqID: uint32(i), SeqLength: 10})
	}
	out, err := ExternalSort(toks, seqpb.Sort1Less, 4, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(toks) {
		t.Fatalf("expected %d tokens, got %d", len(toks), len(out))
	}
	for i := 1; i < len(out); i++ {
		if seqpb.Sort1Less(out[i], out[i-1]) {
			t.Fatalf("output not sorted at index %d: %+v then %+v", i, out[i-1], out[i])
		}
	}
}

func TestAssignDropsSingletonsAndRewritesHits(t *testing.T) {
	// A run of three tokens sharing canonical_key=42: the longest (id=1,
	// len=100) is the representative; the other two become hits.
	sorted := []seqpb.KmerToken{
		{HashKey: seqpb.PackStrand(42, true), SeqID: 1, Position: 10, SeqLength: 100},
		{HashKey: seqpb.PackStrand(42, true), SeqID: 2, Position: 5, SeqLength: 50},
		{HashKey: seqpb.PackStrand(42, true), SeqID: 3, Position: 8, SeqLength: 50},
		// A singleton run, must be dropped entirely.
		{HashKey: seqpb.PackStrand(99, true), SeqID: 4, Position: 0, SeqLength: 50},
	}
	out := Assign(sorted, AssignOptions{Nucleotide: false, CoverageMode: CoverageQuery, Coverage: 0})
	if len(out) != 2 {
		t.Fatalf("expected 2 rewritten hits, got %d: %+v", len(out), out)
	}
	for _, h := range out {
		repID, _ := seqpb.UnpackStrand(h.HashKey)
		if repID != 1 {
			t.Fatalf("expected rep_id 1, got %d", repID)
		}
	}
}

func TestResolveStrandDiagonalFourCases(t *testing.T) {
	cases := []struct {
		name               string
		repFwd, tgtFwd     bool
		wantFlip           bool
	}{
		{"rev/fwd", false, true, true},
		{"rev/rev", false, false, false},
		{"fwd/rev", true, false, true},
		{"fwd/fwd", true, true, false},
	}
	for _, c := range cases {
		_, flip := resolveStrandDiagonal(c.repFwd, c.tgtFwd, 10, 5, 100, 80)
		if flip != c.wantFlip {
			t.Errorf("%s: expected query_flip=%v, got %v", c.name, c.wantFlip, flip)
		}
	}
}

func TestReduceBestDiagonal(t *testing.T) {
	// Three hits on diagonal 2, one on diagonal 7: diagonal 2 must win.
	run := []seqpb.KmerToken{
		{HashKey: seqpb.PackStrand(1, false), SeqID: 9, Position: 2},
		{HashKey: seqpb.PackStrand(1, false), SeqID: 9, Position: 2},
		{HashKey: seqpb.PackStrand(1, false), SeqID: 9, Position: 2},
		{HashKey: seqpb.PackStrand(1, false), SeqID: 9, Position: 7},
	}
	hits := Reduce(run)
	if len(hits) != 1 {
		t.Fatalf("expected 1 candidate hit, got %d", len(hits))
	}
	if hits[0].Diagonal != 2 {
		t.Fatalf("expected best diagonal 2, got %d", hits[0].Diagonal)
	}
	if hits[0].Score != 3 {
		t.Fatalf("expected score 3 (hit count), got %d", hits[0].Score)
	}
}

func TestFilterExtendable(t *testing.T) {
	lens := map[uint32]int{1: 100, 2: 90, 3: 50}
	hits := []seqpb.CandidateHit{
		{RepID: 1, TargetID: 2, Diagonal: -5},  // extendable: diagonal < 0
		{RepID: 1, TargetID: 3, Diagonal: 40},  // qLen-tLen = 50, 40 < 50: not extendable
		{RepID: 1, TargetID: 3, Diagonal: 60},  // 60 > 50: extendable
	}
	out := FilterExtendable(hits, func(id uint32) int { return lens[id] })
	if len(out) != 2 {
		t.Fatalf("expected 2 extendable hits, got %d: %+v", len(out), out)
	}
}

func TestBuildEndToEnd(t *testing.T) {
	tokens := []seqpb.KmerToken{
		{HashKey: seqpb.PackStrand(42, true), SeqID: 1, Position: 10, SeqLength: 100},
		{HashKey: seqpb.PackStrand(42, true), SeqID: 2, Position: 5, SeqLength: 50},
		{HashKey: seqpb.PackStrand(42, true), SeqID: 3, Position: 8, SeqLength: 50},
	}
	hits, err := Build(tokens, BuildOptions{
		Assign: AssignOptions{CoverageMode: CoverageQuery, Coverage: 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one candidate hit")
	}
	for _, h := range hits {
		if h.RepID != 1 {
			t.Fatalf("expected rep_id 1 throughout, got %+v", h)
		}
	}
}
