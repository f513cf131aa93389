package orchestrator

import (
	"github.com/grailbio/base/traverse"

	"github.com/grailbio/seqcluster/groupbuilder"
	"github.com/grailbio/seqcluster/kmerextract"
	"github.com/grailbio/seqcluster/seqpb"
)

// Options bundles the orchestrator's tunables spanning C3/C4/C6 (spec.md
// §4.6, §5).
type Options struct {
	Extractor             *kmerextract.Extractor
	Assign                groupbuilder.AssignOptions
	MemoryLimitBytes      int64
	SafetySplits          int
	SortBatchSize         int
	DBPath                string
	TmpDir                string
	IncludeOnlyExtendable bool
}

// Result is the final, fully merged output of one orchestrator run (spec.md
// §4.6 "After all entries...").
type Result struct {
	Hits       []seqpb.CandidateHit
	Singletons []uint32 // sequence ids never used as a representative
}

// Run drives the full pipeline: estimate the split count, run C3/C4 per
// split (skipping any split whose .done marker already exists), then the
// multi-way merge and singleton backfill pass (spec.md §4.6).
func Run(seqs []seqpb.Sequence, opts Options) (Result, error) {
	totalKmers := estimateTotalKmers(seqs, opts.Extractor)
	splits := ComputeSplits(totalKmers, opts.MemoryLimitBytes, opts.SafetySplits)

	idSpace := maxSeqID(seqs) + 1

	if splits == 1 {
		hits, err := runSingleSplit(seqs, 0, 1, opts)
		if err != nil {
			return Result{}, err
		}
		return finishRun(hits, seqRepUsage(hits, idSpace), seqs), nil
	}

	var runPaths []string
	for i := 0; i < splits; i++ {
		if splitDone(opts.DBPath, i) {
			runPaths = append(runPaths, runFilePath(opts.DBPath, i))
			continue
		}
		hits, err := runSingleSplit(seqs, i, splits, opts)
		if err != nil {
			return Result{}, err
		}
		if err := writeRunFile(opts.DBPath, i, hits); err != nil {
			return Result{}, err
		}
		runPaths = append(runPaths, runFilePath(opts.DBPath, i))
	}

	merged, used, err := MergeRunFiles(runPaths, idSpace)
	if err != nil {
		return Result{}, err
	}
	return finishRun(merged, used, seqs), nil
}

func maxSeqID(seqs []seqpb.Sequence) int {
	var max int
	for _, s := range seqs {
		if int(s.ID) > max {
			max = int(s.ID)
		}
	}
	return max
}

// runSingleSplit performs C3 extraction (filtered to this split's canonical
// keys) followed by the full C4 pipeline, fanning extraction out across a
// fixed worker pool the way markduplicates.BagProcessorFactory instantiates
// one processor per goroutine (spec.md §4.6 ambient addition).
func runSingleSplit(seqs []seqpb.Sequence, splitIndex, splits int, opts Options) ([]seqpb.CandidateHit, error) {
	perSeq := make([][]seqpb.KmerToken, len(seqs))
	err := traverse.Each(len(seqs), func(i int) error {
		toks := opts.Extractor.Extract(seqs[i], nil)
		var kept []seqpb.KmerToken
		for _, t := range toks {
			if belongsToSplit(t.HashKey, splitIndex, splits) {
				kept = append(kept, t)
			}
		}
		perSeq[i] = kept
		return nil
	})
	if err != nil {
		return nil, err
	}

	var tokens []seqpb.KmerToken
	for _, s := range perSeq {
		tokens = append(tokens, s...)
	}

	hits, err := groupbuilder.Build(tokens, groupbuilder.BuildOptions{
		Assign:        opts.Assign,
		SortBatchSize: opts.SortBatchSize,
		TmpDir:        opts.TmpDir,
	})
	if err != nil {
		return nil, err
	}
	if opts.IncludeOnlyExtendable {
		lens := seqLengthIndex(seqs)
		hits = groupbuilder.FilterExtendable(hits, func(id uint32) int { return lens[id] })
	}
	return hits, nil
}

func seqLengthIndex(seqs []seqpb.Sequence) map[uint32]int {
	m := make(map[uint32]int, len(seqs))
	for _, s := range seqs {
		m[s.ID] = s.Len()
	}
	return m
}

// estimateTotalKmers gives a rough upper bound on the global token count
// (spec.md §4.6 "total_k-mers"), used only to size the split count, so it
// deliberately over-counts rather than extracting twice: one identity token
// plus Options.maxM per sequence.
func estimateTotalKmers(seqs []seqpb.Sequence, e *kmerextract.Extractor) int64 {
	var total int64
	for _, s := range seqs {
		total += int64(e.MaxTokensFor(s.Len()))
	}
	return total
}

// seqRepUsage collects which sequence ids were used as a representative in
// a splits==1 run, mirroring what MergeRunFiles tracks for the multi-split
// path.
func seqRepUsage(hits []seqpb.CandidateHit, idSpace int) *usedBitmap {
	used := newUsedBitmap(idSpace)
	for _, h := range hits {
		used.Set(h.RepID)
	}
	return used
}

// finishRun appends the singleton self-records (spec.md §4.6 "iterate every
// input id and, if it was not a representative, emit a singleton
// self-record") and assembles the final Result.
func finishRun(hits []seqpb.CandidateHit, used *usedBitmap, seqs []seqpb.Sequence) Result {
	var singles []uint32
	for _, s := range seqs {
		if !used.IsSet(s.ID) {
			singles = append(singles, s.ID)
		}
	}
	return Result{Hits: hits, Singletons: singles}
}
