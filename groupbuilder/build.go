package groupbuilder

import "github.com/grailbio/seqcluster/seqpb"

// BuildOptions bundles the Group Builder's tunables end to end (spec.md
// §4.4): external-sort batch sizing plus the assignment/coverage/edge-policy
// knobs of AssignOptions.
type BuildOptions struct {
	Assign        AssignOptions
	SortBatchSize int
	TmpDir        string
}

// Build runs the full Group Builder pipeline over one global buffer of
// extraction-phase K-mer Tokens: Sort 1, representative assignment (which
// also drops singletons), Sort 2, and best-diagonal reduction. The edge
// policy (FilterExtendable) is left to the caller, since it needs a
// sequence-length lookup that Build doesn't have.
func Build(tokens []seqpb.KmerToken, opts BuildOptions) ([]seqpb.CandidateHit, error) {
	sorted1, err := ExternalSort(tokens, seqpb.Sort1Less, opts.SortBatchSize, opts.TmpDir)
	if err != nil {
		return nil, err
	}

	rewritten := Assign(sorted1, opts.Assign)

	sorted2, err := ExternalSort(rewritten, seqpb.RewrittenLess, opts.SortBatchSize, opts.TmpDir)
	if err != nil {
		return nil, err
	}

	return Reduce(sorted2), nil
}
