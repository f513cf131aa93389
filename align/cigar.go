package align

// CigarKind distinguishes the three CIGAR operation types the banded
// aligner produces (spec.md §4.5 "CIGAR"); there is no clip/skip/pad
// support since the aligner only ever runs local banded extension.
type CigarKind byte

const (
	CigarMatch CigarKind = 'M'
	CigarIns   CigarKind = 'I' // gap in query (target-only residue)
	CigarDel   CigarKind = 'D' // gap in target (query-only residue)
)

// CigarOp is one run-length-encoded CIGAR operation.
type CigarOp struct {
	Op  CigarKind
	Len int
}

// mergeAdjacent collapses consecutive CigarOp entries of the same kind.
// traceback applies it to its length-1 runs, and Align applies it again to
// the CIGAR of whichever extension it picks.
func mergeAdjacent(ops []CigarOp) []CigarOp {
	if len(ops) == 0 {
		return ops
	}
	out := make([]CigarOp, 0, len(ops))
	cur := ops[0]
	for _, op := range ops[1:] {
		if op.Op == cur.Op {
			cur.Len += op.Len
			continue
		}
		out = append(out, cur)
		cur = op
	}
	out = append(out, cur)
	return out
}

// reverseCigar reverses the operation order, for the left-extension pick
// case (spec.md §4.5 "rerun left extension in CIGAR-producing mode and
// reverse the CIGAR").
func reverseCigar(ops []CigarOp) []CigarOp {
	out := make([]CigarOp, len(ops))
	for i, op := range ops {
		out[len(ops)-1-i] = op
	}
	return out
}

// countIdentities replays a CIGAR over the aligned query/target windows and
// counts matching residues (spec.md §4.5 "Output... residue identities
// counted by replaying CIGAR over the pair"). alignLen is the CIGAR's total
// query+target-consuming length used for percent-identity reporting.
func countIdentities(query, target []int8, cigar []CigarOp) (identities, alignLen int) {
	qi, ti := 0, 0
	for _, op := range cigar {
		switch op.Op {
		case CigarMatch:
			for k := 0; k < op.Len; k++ {
				if qi < len(query) && ti < len(target) && query[qi] == target[ti] {
					identities++
				}
				qi++
				ti++
			}
			alignLen += op.Len
		case CigarIns:
			ti += op.Len
			alignLen += op.Len
		case CigarDel:
			qi += op.Len
			alignLen += op.Len
		}
	}
	return identities, alignLen
}
