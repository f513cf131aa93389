package groupbuilder

// CoverageMode selects how a candidate hit's alignment length is checked
// against the configured coverage threshold (spec.md §4.4 "Representative
// assignment").
type CoverageMode int

const (
	// CoverageQuery requires the shared region to cover coverage*repLen.
	CoverageQuery CoverageMode = iota
	// CoverageTarget requires the shared region to cover coverage*targetLen.
	CoverageTarget
	// CoverageBidirectional requires both query and target coverage.
	CoverageBidirectional
	// CoverageMinOfBoth requires coverage of whichever sequence is shorter.
	CoverageMinOfBoth
)

// overlapLength returns the length of the region shared between the
// representative and target sequences at the given diagonal, following
// simple banded-overlap arithmetic: the two sequences are laid out on a
// shared coordinate axis at offset diagonal, and the overlap is the
// intersection of [0, repLen) and [diagonal, diagonal+targetLen).
func overlapLength(repLen, targetLen int, diagonal int32) int {
	lo := int(diagonal)
	if lo < 0 {
		lo = 0
	}
	hi := int(diagonal) + targetLen
	if hi > repLen {
		hi = repLen
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// passesCoverage reports whether a candidate hit at the given diagonal meets
// the configured coverage mode and threshold (spec.md §4.4 "Reject the hit
// if it cannot meet the configured coverage threshold").
func passesCoverage(mode CoverageMode, coverage float64, repLen, targetLen int, diagonal int32) bool {
	if repLen == 0 || targetLen == 0 {
		return false
	}
	shared := overlapLength(repLen, targetLen, diagonal)
	queryOK := float64(shared) >= coverage*float64(repLen)
	targetOK := float64(shared) >= coverage*float64(targetLen)

	switch mode {
	case CoverageQuery:
		return queryOK
	case CoverageTarget:
		return targetOK
	case CoverageBidirectional:
		return queryOK && targetOK
	case CoverageMinOfBoth:
		minLen := repLen
		if targetLen < minLen {
			minLen = targetLen
		}
		return float64(shared) >= coverage*float64(minLen)
	default:
		return false
	}
}
