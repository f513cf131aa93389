package align

// bandExtendResult is the outcome of one directional banded extension
// (spec.md §4.5 "Left/Right extension... Returns (max, max_q, max_t)").
type bandExtendResult struct {
	max, maxQ, maxT int
	cigar           []CigarOp
}

// bandExtendPortable implements the banded, Z-drop-bounded gapped extension
// shared by both the generic and amd64 build variants (spec.md §4.5 "Stage
// B — Banded extension (KSW2-style)"). It runs a banded affine-gap DP
// restricted to opts.BandWidth diagonals either side of the main diagonal
// and stops extending once the running best score falls more than
// opts.ZDrop below the best score seen so far.
func bandExtendPortable(opts Options, query, target []int8, produceCigar bool) bandExtendResult {
	qLen, tLen := len(query), len(target)
	if qLen == 0 || tLen == 0 {
		return bandExtendResult{}
	}
	band := opts.BandWidth
	if cells := (2*band + 1) * qLen; cells > maxBandCells {
		panic(ResourceExhaustedError{Requested: cells})
	}
	gapOpen, gapExt := opts.Matrix.GapOpen(), opts.Matrix.GapExtend()

	const negInf = -1 << 30

	// prevRow[j]/curRow[j] hold H (best score ending at (i,j)) and the E/F
	// affine-gap states along query/target respectively; only j in
	// (i-band, i+band] is computed, banded around the main diagonal the
	// same way ksw_extz's banded loop restricts j.
	type cell struct{ h, e, f int }
	prevRow := make([]cell, tLen+1)
	curRow := make([]cell, tLen+1)

	var back [][]byte // back[i-1][j] in {0:diag,1:up,2:left,3:start}, only if produceCigar
	if produceCigar {
		back = make([][]byte, qLen+1)
	}

	best, bestQ, bestT := 0, 0, 0
	globalBest := 0

	for j := range prevRow {
		prevRow[j] = cell{h: 0, e: negInf, f: negInf}
	}

	for i := 1; i <= qLen; i++ {
		lo := i - band
		if lo < 0 {
			lo = 0
		}
		hi := i + band
		if hi > tLen {
			hi = tLen
		}
		for j := range curRow {
			curRow[j] = cell{h: negInf, e: negInf, f: negInf}
		}
		var rowBack []byte
		if produceCigar {
			rowBack = make([]byte, tLen+1)
			back[i-1] = rowBack
		}
		rowBest := 0
		for j := lo + 1; j <= hi; j++ {
			diagScore := prevRow[j-1].h + int(opts.Matrix.Score(query[i-1], target[j-1]))
			e := maxInt(curRow[j-1].h-gapOpen, curRow[j-1].e-gapExt)
			f := maxInt(prevRow[j].h-gapOpen, prevRow[j].f-gapExt)
			h := maxInt(0, maxInt(diagScore, maxInt(e, f)))
			curRow[j] = cell{h: h, e: e, f: f}

			if produceCigar {
				switch {
				case h == diagScore && h != 0:
					rowBack[j] = 0
				case h == f:
					rowBack[j] = 1
				case h == e:
					rowBack[j] = 2
				default:
					rowBack[j] = 3 // start fresh (h==0)
				}
			}

			if h > rowBest {
				rowBest = h
			}
			if h > best {
				best, bestQ, bestT = h, i, j
			}
		}
		if best > globalBest {
			globalBest = best
		} else if globalBest-rowBest > opts.ZDrop {
			break
		}
		prevRow, curRow = curRow, prevRow
	}

	result := bandExtendResult{max: best, maxQ: bestQ, maxT: bestT}
	if produceCigar && best > 0 {
		result.cigar = traceback(back, bestQ, bestT)
	}
	return result
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// traceback walks the recorded back-pointer grid from (endI, endJ) back to a
// zero cell, emitting a forward (not yet reversed) CIGAR.
func traceback(back [][]byte, endI, endJ int) []CigarOp {
	var ops []CigarOp
	i, j := endI, endJ
	for i > 0 && j > 0 {
		switch back[i-1][j] {
		case 0:
			ops = append(ops, CigarOp{Op: CigarMatch, Len: 1})
			i--
			j--
		case 1:
			ops = append(ops, CigarOp{Op: CigarDel, Len: 1})
			i--
		case 2:
			ops = append(ops, CigarOp{Op: CigarIns, Len: 1})
			j--
		default:
			i, j = 0, 0
		}
	}
	reverseOpsInPlace(ops)
	return mergeAdjacent(ops)
}

func reverseOpsInPlace(ops []CigarOp) {
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}
}
