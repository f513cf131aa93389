package groupbuilder

import "github.com/grailbio/seqcluster/seqpb"

// Reduce consumes a Sort2-ordered rewritten token slice (seqpb.RewrittenLess:
// rep_id ASC, target_id ASC, diagonal ASC) and collapses each (rep_id,
// target_id) run to a single Candidate Hit by the best-diagonal rule (spec.md
// §4.4 "Sort 2... best-diagonal reduction"): the diagonal with the most
// k-mer hits wins; ties break by higher total k-mer count across the run,
// then first-seen. Apply FilterExtendable afterward for the edge policy.
func Reduce(sorted []seqpb.KmerToken) []seqpb.CandidateHit {
	var out []seqpb.CandidateHit

	i := 0
	for i < len(sorted) {
		j := i + 1
		repKey, _ := seqpb.UnpackStrand(sorted[i].HashKey)
		for j < len(sorted) {
			k, _ := seqpb.UnpackStrand(sorted[j].HashKey)
			if k != repKey || sorted[j].SeqID != sorted[i].SeqID {
				break
			}
			j++
		}
		out = append(out, reduceRun(sorted[i:j]))
		i = j
	}
	return out
}

// reduceRun picks the best diagonal within one (rep_id, target_id) run:
// most k-mer hits wins; ties broken by the first diagonal encountered, since
// sorted is already diagonal-ordered and run order is otherwise stable.
func reduceRun(run []seqpb.KmerToken) seqpb.CandidateHit {
	type tally struct {
		count int
		first int
	}
	counts := make(map[int32]*tally)
	order := make([]int32, 0, 4)
	for idx, tok := range run {
		t, ok := counts[tok.Position]
		if !ok {
			t = &tally{first: idx}
			counts[tok.Position] = t
			order = append(order, tok.Position)
		}
		t.count++
	}

	bestDiag := order[0]
	best := counts[bestDiag]
	for _, d := range order[1:] {
		c := counts[d]
		if c.count > best.count || (c.count == best.count && c.first < best.first) {
			bestDiag, best = d, c
		}
	}

	repID, queryFlip := seqpb.UnpackStrand(run[0].HashKey)
	// A negative stored score indicates the target k-mer was on the reverse
	// strand; the group builder itself doesn't compute alignment scores, so
	// RevStrand here just threads the query_flip bit through for the aligner
	// to interpret (spec.md §4.5 consumes strand via this flag).
	return seqpb.CandidateHit{
		RepID:     uint32(repID),
		TargetID:  run[0].SeqID,
		Diagonal:  bestDiag,
		Score:     int16(best.count),
		QueryFlip: queryFlip,
		RevStrand: queryFlip,
	}
}

// FilterExtendable drops candidate hits that cannot extend beyond either
// sequence's end (spec.md §4.4 "Edge policy"): a hit is retained only if
// diagonal < 0 or diagonal > qLen - tLen. seqLen looks lengths up by sequence
// id, since CandidateHit no longer carries sequence length once reduced.
func FilterExtendable(hits []seqpb.CandidateHit, seqLen func(id uint32) int) []seqpb.CandidateHit {
	out := hits[:0]
	for _, h := range hits {
		qLen := seqLen(h.RepID)
		tLen := seqLen(h.TargetID)
		if h.Diagonal < 0 || int(h.Diagonal) > qLen-tLen {
			out = append(out, h)
		}
	}
	return out
}
