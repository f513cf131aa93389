package orchestrator

import (
	"github.com/biogo/store/llrb"

	"github.com/grailbio/seqcluster/seqpb"
)

// mergeLeaf adapts a runFileReader into an llrb.Comparable ordered by
// seqpb.CandidateHit.Less (spec.md §4.6 "min-priority-queue ordered by
// (rep_id, target_id)"), the same tournament-tree shape as
// groupbuilder.mergeLeaf and the teacher's cmd/bio-bam-sort/sorter.mergeLeaf.
type mergeLeaf struct {
	seq    int
	reader *runFileReader
}

func newMergeLeaf(seq int, reader *runFileReader) *mergeLeaf {
	if !reader.scan() {
		return nil
	}
	return &mergeLeaf{seq: seq, reader: reader}
}

func (l *mergeLeaf) Compare(other llrb.Comparable) int {
	o := other.(*mergeLeaf)
	a, b := l.reader.cur, o.reader.cur
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return l.seq - o.seq
	}
}

// MergeRunFiles performs the multi-way merge pass over a split's run files
// (spec.md §4.6 "Merge pass"): it streams entries in (rep_id, target_id)
// order, re-applies the diagonal-count reduction within each
// (rep_id,target_id) run across files (a representative's hits for one
// target may be split across multiple run files), and returns the final,
// fully reduced Candidate Hit list along with the set of sequence ids used
// as a representative (for the singleton-backfill pass).
func MergeRunFiles(paths []string, idSpace int) ([]seqpb.CandidateHit, *usedBitmap, error) {
	readers := make([]*runFileReader, 0, len(paths))
	for _, p := range paths {
		r, err := openRunFile(p)
		if err != nil {
			return nil, nil, err
		}
		readers = append(readers, r)
	}

	tree := llrb.Tree{}
	for i, r := range readers {
		if leaf := newMergeLeaf(i, r); leaf != nil {
			tree.Insert(leaf)
		}
	}

	used := newUsedBitmap(idSpace)
	var out []seqpb.CandidateHit
	var runHits []seqpb.CandidateHit

	flushRun := func() {
		if len(runHits) == 0 {
			return
		}
		out = append(out, reduceHitRun(runHits))
		used.Set(runHits[0].RepID)
		runHits = runHits[:0]
	}

	for tree.Len() > 0 {
		var top *mergeLeaf
		n := 0
		tree.Do(func(item llrb.Comparable) bool {
			n++
			top = item.(*mergeLeaf)
			return true
		})

		hit := top.reader.cur
		if len(runHits) > 0 && (runHits[0].RepID != hit.RepID || runHits[0].TargetID != hit.TargetID) {
			flushRun()
		}
		runHits = append(runHits, hit)

		tree.DeleteMin()
		if top.reader.scan() {
			tree.Insert(top)
		}
	}
	flushRun()

	return out, used, nil
}

// reduceHitRun collapses multiple run-file entries for the same
// (rep_id,target_id) pair (one per contributing split, already itself
// reduced within that split) into one: the diagonal with the highest total
// score wins, ties broken by first-seen, mirroring groupbuilder.reduceRun.
func reduceHitRun(run []seqpb.CandidateHit) seqpb.CandidateHit {
	totals := make(map[int32]int, len(run))
	for _, h := range run {
		totals[h.Diagonal] += int(h.Score)
	}
	best := run[0]
	bestTotal := totals[best.Diagonal]
	for _, h := range run[1:] {
		if t := totals[h.Diagonal]; t > bestTotal {
			best, bestTotal = h, t
		}
	}
	best.Score = int16(bestTotal)
	return best
}
