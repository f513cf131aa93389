package groupbuilder

import "github.com/grailbio/seqcluster/seqpb"

// AssignOptions configures representative assignment and strand resolution
// (spec.md §4.4 "Representative assignment").
type AssignOptions struct {
	Nucleotide   bool
	CoverageMode CoverageMode
	Coverage     float64
}

// Assign scans a Sort1-ordered token slice (seqpb.Sort1Less) and emits, for
// each non-representative element, a rewritten hit tuple: (hash_key =
// rep_id | strand-bit, position = diagonal, seq_length = target_length, id =
// target_id). Singleton runs (length 1, no hits) are dropped. The returned
// slice is ready for Sort2 (seqpb.RewrittenLess).
//
// sorted must already be ordered by seqpb.Sort1Less; its elements are
// consumed but not mutated (a fresh rewritten slice is returned) since the
// representative's own fields are needed throughout the run.
func Assign(sorted []seqpb.KmerToken, opts AssignOptions) []seqpb.KmerToken {
	var out []seqpb.KmerToken

	i := 0
	for i < len(sorted) {
		j := i + 1
		repKey, _ := seqpb.UnpackStrand(sorted[i].HashKey)
		for j < len(sorted) {
			k, _ := seqpb.UnpackStrand(sorted[j].HashKey)
			if k != repKey {
				break
			}
			j++
		}
		if j-i > 1 {
			out = appendRun(out, sorted[i:j], opts)
		}
		i = j
	}
	return out
}

// appendRun handles one run of equal canonical_key: sorted[0] is the
// representative (longest sequence first, per Sort1's seq_length DESC
// term), and every other element is rewritten against it.
func appendRun(out []seqpb.KmerToken, run []seqpb.KmerToken, opts AssignOptions) []seqpb.KmerToken {
	rep := run[0]
	_, repForward := seqpb.UnpackStrand(rep.HashKey)

	for _, elem := range run[1:] {
		_, tgtForward := seqpb.UnpackStrand(elem.HashKey)

		var diagonal int32
		var queryFlip bool
		if opts.Nucleotide {
			diagonal, queryFlip = resolveStrandDiagonal(
				repForward, tgtForward,
				rep.Position, elem.Position,
				int(rep.SeqLength), int(elem.SeqLength),
			)
		} else {
			diagonal = rep.Position - elem.Position
		}

		if !passesCoverage(opts.CoverageMode, opts.Coverage, int(rep.SeqLength), int(elem.SeqLength), diagonal) {
			continue
		}

		out = append(out, seqpb.KmerToken{
			HashKey:   seqpb.PackStrand(uint64(rep.SeqID), queryFlip),
			SeqID:     elem.SeqID,
			Position:  diagonal,
			SeqLength: elem.SeqLength,
		})
	}
	return out
}

// resolveStrandDiagonal implements the four-case nucleotide strand
// resolution table of spec.md §4.4:
//
//	rep   tgt   stored diagonal uses                          query_flip
//	rev   fwd   rep_pos - tgt_pos                              yes
//	rev   rev   (qL-1-rep_pos) - (tL-1-tgt_pos)                 no
//	fwd   rev   (qL-1-rep_pos) - (tL-1-tgt_pos)                 yes
//	fwd   fwd   rep_pos - tgt_pos                               no
func resolveStrandDiagonal(repForward, tgtForward bool, repPos, tgtPos int32, qLen, tLen int) (diagonal int32, queryFlip bool) {
	switch {
	case !repForward && tgtForward: // rev/fwd
		return repPos - tgtPos, true
	case !repForward && !tgtForward: // rev/rev
		return (int32(qLen) - 1 - repPos) - (int32(tLen) - 1 - tgtPos), false
	case repForward && !tgtForward: // fwd/rev
		return (int32(qLen) - 1 - repPos) - (int32(tLen) - 1 - tgtPos), true
	default: // fwd/fwd
		return repPos - tgtPos, false
	}
}
