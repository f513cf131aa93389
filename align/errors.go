package align

// AlignmentEmptyError names the "no CIGAR produced" case of spec.md §7
// taxonomy item 6. Align itself reports this as (Alignment{}, false) rather
// than an error, since it is a per-candidate skip rather than a fatal
// condition; callers that want to log the skip with a concrete type (e.g.
// kmersearch) construct one from the rejected Candidate Hit.
type AlignmentEmptyError struct {
	RepID, TargetID uint32
}

func (e AlignmentEmptyError) Error() string {
	return "align: no CIGAR produced for candidate hit"
}

// ResourceExhaustedError is asserted unreachable (spec.md §7 taxonomy item
// 5 "should be unreachable if split sizing is correct; treated as a bug").
// bandExtendPortable panics with this type rather than silently truncating
// the DP band if Options.BandWidth ever implies a band matrix larger than
// the aligner is willing to allocate.
type ResourceExhaustedError struct {
	Requested int
}

func (e ResourceExhaustedError) Error() string {
	return "align: band matrix allocation exceeds resource limit"
}

// maxBandCells is the largest band-row cell count bandExtendPortable will
// allocate before treating the request as a sizing bug rather than
// extending it (spec.md §7 item 5).
const maxBandCells = 1 << 20
