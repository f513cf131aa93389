// +build !amd64 appengine

package align

// bandExtend runs the portable banded Z-drop extension: a classic banded
// Smith-Waterman-style DP restricted to opts.BandWidth diagonals either side
// of the main diagonal, terminating early once the running best falls more
// than opts.ZDrop below the best-seen score (spec.md §4.5 "Z-drop 40").
// query/target are already oriented so the alignment runs forward from
// (0,0); produceCigar selects whether the full traceback is built, since
// the Left/Right pick step only needs scores for the losing direction.
func (a *Aligner) bandExtend(query, target []int8, produceCigar bool) bandExtendResult {
	return bandExtendPortable(a.opts, query, target, produceCigar)
}
