package align

import (
	"testing"

	"github.com/grailbio/seqcluster/scorematrix"
)

func TestAlignFullLengthMatchIsTrivialCigar(t *testing.T) {
	m := scorematrix.NucleotideIdentity(2, -1)
	a := New(DefaultOptions(m))
	query := []int8{0, 1, 2, 3, 0, 1, 2, 3}
	target := []int8{0, 1, 2, 3, 0, 1, 2, 3}
	aln, ok := a.Align(query, target, 0, false)
	if !ok {
		t.Fatal("expected identical sequences to align")
	}
	if len(aln.CIGAR) != 1 || aln.CIGAR[0].Op != CigarMatch || aln.CIGAR[0].Len != len(query) {
		t.Fatalf("expected a single all-M cigar, got %+v", aln.CIGAR)
	}
	if aln.Identities != len(query) {
		t.Fatalf("expected %d identities, got %d", len(query), aln.Identities)
	}
}

func TestAlignRejectsNonOverlappingDiagonal(t *testing.T) {
	m := scorematrix.NucleotideIdentity(2, -1)
	a := New(DefaultOptions(m))
	query := []int8{0, 1, 2, 3}
	target := []int8{0, 1, 2, 3}
	_, ok := a.Align(query, target, 100, false)
	if ok {
		t.Fatal("expected a wildly off diagonal to be rejected")
	}
}

func TestAlignPartialOverlapProducesGappedCigar(t *testing.T) {
	m := scorematrix.NucleotideIdentity(2, -1)
	a := New(DefaultOptions(m))
	query := []int8{0, 1, 2, 3, 0, 1, 2, 3, 0, 1}
	target := []int8{1, 2, 3, 0, 1, 2, 3}
	aln, ok := a.Align(query, target, 1, false)
	if !ok {
		t.Fatal("expected a partial overlap to align")
	}
	if len(aln.CIGAR) == 0 {
		t.Fatal("expected a non-empty cigar")
	}
	if aln.Score <= 0 {
		t.Fatalf("expected a positive score, got %d", aln.Score)
	}
	// target is fully contained within query at this diagonal: the
	// alignment must cover all of target and the matching interior of
	// query, on both sides of the ungapped anchor, not just one half of it.
	if aln.TargetStart != 0 || aln.TargetEnd != len(target)-1 {
		t.Fatalf("expected full target coverage [0,%d], got [%d,%d]", len(target)-1, aln.TargetStart, aln.TargetEnd)
	}
	if aln.QueryStart != 1 || aln.QueryEnd != 7 {
		t.Fatalf("expected query span [1,7], got [%d,%d]", aln.QueryStart, aln.QueryEnd)
	}
	if aln.TargetCoverage != 1.0 {
		t.Fatalf("expected target coverage 1.0, got %v", aln.TargetCoverage)
	}
	if aln.QueryCoverage <= 0 || aln.QueryCoverage >= 1.0 {
		t.Fatalf("expected partial query coverage in (0,1), got %v", aln.QueryCoverage)
	}
}

func TestCountIdentitiesHandlesIndels(t *testing.T) {
	query := []int8{0, 1, 2, 3}
	target := []int8{0, 1, 3}
	cigar := []CigarOp{{Op: CigarMatch, Len: 2}, {Op: CigarDel, Len: 1}, {Op: CigarMatch, Len: 1}}
	identities, alignLen := countIdentities(query, target, cigar)
	if identities != 3 {
		t.Fatalf("expected 3 identities, got %d", identities)
	}
	if alignLen != 4 {
		t.Fatalf("expected alignLen 4, got %d", alignLen)
	}
}

func TestMergeAdjacentCollapsesRuns(t *testing.T) {
	ops := []CigarOp{{Op: CigarMatch, Len: 1}, {Op: CigarMatch, Len: 1}, {Op: CigarDel, Len: 1}}
	merged := mergeAdjacent(ops)
	if len(merged) != 2 || merged[0].Len != 2 {
		t.Fatalf("expected merged [M2 D1], got %+v", merged)
	}
}

func TestReverseCigar(t *testing.T) {
	ops := []CigarOp{{Op: CigarMatch, Len: 1}, {Op: CigarDel, Len: 2}}
	rev := reverseCigar(ops)
	if rev[0].Op != CigarDel || rev[1].Op != CigarMatch {
		t.Fatalf("unexpected reversed cigar: %+v", rev)
	}
}

func TestFinishWrappedDoublesAndCapsQueryCoverage(t *testing.T) {
	m := scorematrix.NucleotideIdentity(2, -1)
	a := New(DefaultOptions(m))
	query := make([]int8, 10)
	target := make([]int8, 10)
	seg := ungappedSegment{qStart: 0, qEnd: 3, tStart: 0, tEnd: 9, score: 8}
	cigar := []CigarOp{{Op: CigarMatch, Len: 4}}

	plain := a.finish(query, target, seg, cigar, false)
	if plain.QueryCoverage != 0.4 {
		t.Fatalf("expected unwrapped coverage 0.4, got %v", plain.QueryCoverage)
	}

	wrapped := a.finish(query, target, seg, cigar, true)
	if wrapped.QueryCoverage != 0.8 {
		t.Fatalf("expected wrapped coverage to double to 0.8, got %v", wrapped.QueryCoverage)
	}

	segMostlyCovered := ungappedSegment{qStart: 0, qEnd: 7, tStart: 0, tEnd: 9, score: 16}
	capped := a.finish(query, target, segMostlyCovered, cigar, true)
	if capped.QueryCoverage != 1.0 {
		t.Fatalf("expected wrapped coverage to cap at 1.0, got %v", capped.QueryCoverage)
	}
}

func TestEValueDecreasesWithScore(t *testing.T) {
	lowScore := eValue(0.04, 100, 100, 10, 0.27)
	highScore := eValue(0.04, 100, 100, 100, 0.27)
	if highScore >= lowScore {
		t.Fatalf("expected e-value to decrease as score increases: %v vs %v", lowScore, highScore)
	}
}
