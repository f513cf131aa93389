package orchestrator

import "math"

// tokenSizeBytes is sizeof(seqpb.KmerToken) on disk (spec.md §4.6
// "estimated_bytes = total_k-mers * sizeof(token)"): 8 + 4 + 4 + 4.
const tokenSizeBytes = 20

// ComputeSplits implements spec.md §4.6's split-count formula: splits =
// ceil(estimated_bytes / memory_limit) + safety, clamped to at least 1.
func ComputeSplits(totalKmers int64, memoryLimitBytes int64, safety int) int {
	if memoryLimitBytes <= 0 {
		return 1
	}
	estimated := totalKmers * tokenSizeBytes
	splits := int(math.Ceil(float64(estimated) / float64(memoryLimitBytes)))
	splits += safety
	if splits < 1 {
		splits = 1
	}
	return splits
}

// canonicalKeyOf strips the strand bit so the split assignment is purely a
// function of the canonical k-mer, matching seqpb.Sort1Less's grouping rule.
func canonicalKeyOf(hashKey uint64) uint64 {
	return hashKey &^ (uint64(1) << 63)
}

// belongsToSplit reports whether a token's canonical key is owned by
// splitIndex out of splits (spec.md §4.6 "key mod splits == split_index").
func belongsToSplit(hashKey uint64, splitIndex, splits int) bool {
	if splits <= 1 {
		return true
	}
	return int(canonicalKeyOf(hashKey)%uint64(splits)) == splitIndex
}
