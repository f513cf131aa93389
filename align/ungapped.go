package align

// ungappedSegment is the maximum-scoring ungapped run found by Stage A,
// in query/target coordinates (spec.md §4.5 "Stage A").
type ungappedSegment struct {
	qStart, qEnd int
	tStart, tEnd int
	score        int
}

// ungappedRescore slides query against target on the given diagonal and
// finds the maximum-scoring contiguous ungapped segment (spec.md §4.5
// "Stage A — Ungapped diagonal rescore"). When wrapped is set, out-of-range
// target positions fold back via modular arithmetic instead of being
// skipped, supporting circular-match detection.
func (a *Aligner) ungappedRescore(query, target []int8, diagonal int32, wrapped bool) (ungappedSegment, bool) {
	qLen, tLen := len(query), len(target)

	// The diagonal is query_pos - target_pos; walk every query position that
	// has a defined target position on this diagonal (or, if wrapped, every
	// query position with modular wraparound).
	qLo, qHi := 0, qLen-1
	if !wrapped {
		lo := int(diagonal)
		if lo < 0 {
			lo = 0
		}
		hi := qLen - 1
		if int(diagonal)+tLen-1 < hi {
			hi = int(diagonal) + tLen - 1
		}
		qLo, qHi = lo, hi
	}
	if qLo > qHi {
		return ungappedSegment{}, false
	}

	var (
		best       int
		bestQStart int
		bestQEnd   int
		running    int
		runStart   = qLo
	)
	targetAt := func(qPos int) (int8, bool) {
		tPos := qPos - int(diagonal)
		if wrapped {
			tPos = ((tPos % tLen) + tLen) % tLen
			return target[tPos], true
		}
		if tPos < 0 || tPos >= tLen {
			return 0, false
		}
		return target[tPos], true
	}

	for q := qLo; q <= qHi; q++ {
		t, ok := targetAt(q)
		if !ok {
			running = 0
			runStart = q + 1
			continue
		}
		s := int(a.opts.Matrix.Score(query[q], t))
		running += s
		if running < 0 {
			running = 0
			runStart = q + 1
			continue
		}
		if running > best {
			best = running
			bestQStart = runStart
			bestQEnd = q
		}
	}
	if best <= 0 {
		return ungappedSegment{}, false
	}

	tStart := bestQStart - int(diagonal)
	tEnd := bestQEnd - int(diagonal)
	if wrapped {
		tStart = ((tStart % tLen) + tLen) % tLen
		tEnd = ((tEnd % tLen) + tLen) % tLen
	}
	return ungappedSegment{
		qStart: bestQStart,
		qEnd:   bestQEnd,
		tStart: tStart,
		tEnd:   tEnd,
		score:  best,
	}, true
}
