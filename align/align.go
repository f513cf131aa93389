// Package align implements the Ungapped Rescore and Banded Aligner (spec.md
// §4.5 C5): given a Candidate Hit's (representative, target, diagonal) and
// the two sequences, it computes an ungapped diagonal rescore, then extends
// it into a gapped, Z-drop-bounded banded alignment in the style of KSW2.
package align

import (
	"math"

	"github.com/grailbio/seqcluster/scorematrix"
)

// Options configures one aligner instance (spec.md §4.5 parameters).
type Options struct {
	Matrix    scorematrix.Matrix
	BandWidth int // default 64
	ZDrop     int // default 40
}

// DefaultOptions returns the spec's default band width and Z-drop (spec.md
// §4.5 "Band width 64, Z-drop 40").
func DefaultOptions(m scorematrix.Matrix) Options {
	return Options{Matrix: m, BandWidth: 64, ZDrop: 40}
}

// Alignment is the accepted output of the aligner (spec.md §3 "Alignment").
type Alignment struct {
	Score          int
	QueryStart     int
	QueryEnd       int
	TargetStart    int
	TargetEnd      int
	CIGAR          []CigarOp
	Identities     int
	AlignLen       int
	EValue         float64
	QueryCoverage  float64
	TargetCoverage float64
}

// Aligner runs Stage A/B over one query/target pair on a shared Matrix
// (spec.md §4.5). A single instance may be reused across many Candidate
// Hits by a worker goroutine; it holds no per-call mutable state itself.
type Aligner struct {
	opts Options
}

// New creates an Aligner.
func New(opts Options) *Aligner {
	return &Aligner{opts: opts}
}

// Align runs the full Stage A + Stage B pipeline for one Candidate Hit.
// query and target are integer-coded residue arrays (spec.md §3 Sequence);
// diagonal is the representative-relative offset from the Group Builder
// (query position - target position); wrapped enables the wrapped-scoring
// variant for circular-match detection. ok is false when the ungapped
// segment scores non-positive or the gapped extension produces no CIGAR (a
// rejected hit, spec.md §4.5).
func (a *Aligner) Align(query, target []int8, diagonal int32, wrapped bool) (Alignment, bool) {
	seg, ok := a.ungappedRescore(query, target, diagonal, wrapped)
	if !ok {
		return Alignment{}, false
	}

	qLen, tLen := len(query), len(target)
	if seg.qStart == 0 && seg.qEnd == qLen-1 && seg.tStart == 0 && seg.tEnd == tLen-1 {
		cigar := []CigarOp{{Op: CigarMatch, Len: qLen}}
		return a.finish(query, target, seg, cigar, wrapped), true
	}

	// Score-only backward pass over the entire remaining sequence to the
	// left of the ungapped segment's end, to find where the gapped
	// extension should actually start (BandedNucleotideAligner.cpp's
	// ez/qStartRev/tStartRev computation).
	leftQ := reverseCodes(query[:seg.qEnd+1])
	leftT := reverseCodes(target[:seg.tEnd+1])
	left := a.bandExtend(leftQ, leftT, false)

	qStart := seg.qEnd - left.maxQ + 1
	tStart := seg.tEnd - left.maxT + 1

	// Forward pass, with CIGAR, over the entire remaining sequence from the
	// backward pass's derived start point to the end of each sequence.
	rightQ := query[qStart:]
	rightT := target[tStart:]
	right := a.bandExtend(rightQ, rightT, true)

	var cigar []CigarOp
	var score, qEnd, tEnd int
	if left.maxQ > right.maxQ && left.maxT > right.maxT {
		// The backward pass reached further in both dimensions than the
		// forward pass starting from its own derived anchor: rerun it in
		// CIGAR-producing mode and use it (reversed) in place of the
		// forward pass's result.
		leftCig := a.bandExtend(leftQ, leftT, true)
		cigar = reverseCigar(leftCig.cigar)
		score = leftCig.max
		qStart = seg.qEnd - leftCig.maxQ + 1
		tStart = seg.tEnd - leftCig.maxT + 1
		qEnd = seg.qEnd
		tEnd = seg.tEnd
	} else {
		cigar = right.cigar
		score = right.max
		qEnd = qStart + right.maxQ - 1
		tEnd = tStart + right.maxT - 1
	}
	cigar = mergeAdjacent(cigar)
	if len(cigar) == 0 {
		return Alignment{}, false
	}

	seg.qStart, seg.qEnd = qStart, qEnd
	seg.tStart, seg.tEnd = tStart, tEnd
	seg.score = score

	return a.finish(query, target, seg, cigar, wrapped), true
}

// finish fills in the identity count, E-value, and coverage fields for an
// accepted alignment. wrapped doubles the reported query coverage, capped
// at 1.0 (spec.md §4.5 "wrapped-scoring flag (doubles query coverage, caps
// at 1.0)").
func (a *Aligner) finish(query, target []int8, seg ungappedSegment, cigar []CigarOp, wrapped bool) Alignment {
	identities, alignLen := countIdentities(query[seg.qStart:seg.qEnd+1], target[seg.tStart:seg.tEnd+1], cigar)
	lambda, k, _ := a.opts.Matrix.Background()
	evalue := eValue(k, len(query), len(target), seg.score, lambda)

	qCov := coverage(seg.qStart, seg.qEnd, len(query))
	if wrapped {
		qCov = math.Min(1.0, qCov*2)
	}
	tCov := coverage(seg.tStart, seg.tEnd, len(target))

	return Alignment{
		Score:          seg.score,
		QueryStart:     seg.qStart,
		QueryEnd:       seg.qEnd,
		TargetStart:    seg.tStart,
		TargetEnd:      seg.tEnd,
		CIGAR:          cigar,
		Identities:     identities,
		AlignLen:       alignLen,
		EValue:         evalue,
		QueryCoverage:  qCov,
		TargetCoverage: tCov,
	}
}

// coverage is the fraction of a sequence of length l spanned by
// [start, end] inclusive (spec.md §4.5 "query_coverage, target_coverage").
func coverage(start, end, l int) float64 {
	if l == 0 {
		return 0
	}
	return float64(end-start+1) / float64(l)
}

func reverseCodes(s []int8) []int8 {
	out := make([]int8, len(s))
	for i, c := range s {
		out[len(s)-1-i] = c
	}
	return out
}

// eValue computes K*m*n*exp(-lambda*score), spec.md §4.5 "Output".
func eValue(k float64, m, n, score int, lambda float64) float64 {
	return k * float64(m) * float64(n) * math.Exp(-lambda*float64(score))
}
