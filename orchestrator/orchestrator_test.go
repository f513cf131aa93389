package orchestrator

import (
	"testing"

	"github.com/grailbio/seqcluster/groupbuilder"
	"github.com/grailbio/seqcluster/kmerextract"
	"github.com/grailbio/seqcluster/residue"
	"github.com/grailbio/seqcluster/seqpb"
	"github.com/grailbio/seqcluster/seqview"
)

func TestComputeSplitsBasic(t *testing.T) {
	if got := ComputeSplits(0, 1<<20, 0); got != 1 {
		t.Fatalf("expected 1 split for zero k-mers, got %d", got)
	}
	got := ComputeSplits(1_000_000, 1000, 0) // forces a large split count
	if got <= 1 {
		t.Fatalf("expected many splits for a tiny memory limit, got %d", got)
	}
}

func TestComputeSplitsNoLimitMeansOneSplit(t *testing.T) {
	if got := ComputeSplits(1_000_000, 0, 3); got != 1 {
		t.Fatalf("expected 1 split when no memory limit is set, got %d", got)
	}
}

func TestBelongsToSplitPartitionsAllKeys(t *testing.T) {
	const splits = 4
	counts := make([]int, splits)
	for k := uint64(0); k < 1000; k++ {
		assigned := -1
		for s := 0; s < splits; s++ {
			if belongsToSplit(k, s, splits) {
				if assigned != -1 {
					t.Fatalf("key %d assigned to multiple splits", k)
				}
				assigned = s
			}
		}
		if assigned == -1 {
			t.Fatalf("key %d assigned to no split", k)
		}
		counts[assigned]++
	}
	for i, c := range counts {
		if c == 0 {
			t.Fatalf("split %d received no keys", i)
		}
	}
}

func TestUsedBitmapSetAndUnset(t *testing.T) {
	b := newUsedBitmap(200)
	b.Set(5)
	b.Set(130)
	if !b.IsSet(5) || !b.IsSet(130) {
		t.Fatal("expected ids 5 and 130 to be set")
	}
	if b.IsSet(6) {
		t.Fatal("id 6 should not be set")
	}
	unset := b.UnsetIDs(10)
	if len(unset) != 9 { // everything except 5
		t.Fatalf("expected 9 unset ids in [0,10), got %d: %v", len(unset), unset)
	}
}

func TestRunFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dbPath := dir + "/db"
	hits := []seqpb.CandidateHit{
		{RepID: 1, TargetID: 2, Diagonal: -3, Score: 5, QueryFlip: true},
		{RepID: 1, TargetID: 3, Diagonal: 7, Score: 2, RevStrand: true},
	}
	if err := writeRunFile(dbPath, 0, hits); err != nil {
		t.Fatal(err)
	}
	if !splitDone(dbPath, 0) {
		t.Fatal("expected split 0 to be marked done")
	}

	r, err := openRunFile(runFilePath(dbPath, 0))
	if err != nil {
		t.Fatal(err)
	}
	var got []seqpb.CandidateHit
	for r.scan() {
		got = append(got, r.cur)
	}
	if len(got) != len(hits) {
		t.Fatalf("expected %d hits, got %d", len(hits), len(got))
	}
	if got[0] != hits[0] || got[1] != hits[1] {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, hits)
	}
}

func TestMergeRunFilesReducesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := dir + "/db"
	// Split 0 saw 2 hits on diagonal 1 for (rep=1,target=9); split 1 saw 5
	// hits on diagonal 4 for the same pair. The merge must keep diagonal 4.
	if err := writeRunFile(dbPath, 0, []seqpb.CandidateHit{{RepID: 1, TargetID: 9, Diagonal: 1, Score: 2}}); err != nil {
		t.Fatal(err)
	}
	if err := writeRunFile(dbPath, 1, []seqpb.CandidateHit{{RepID: 1, TargetID: 9, Diagonal: 4, Score: 5}}); err != nil {
		t.Fatal(err)
	}

	merged, used, err := MergeRunFiles([]string{runFilePath(dbPath, 0), runFilePath(dbPath, 1)}, 16)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged hit, got %d: %+v", len(merged), merged)
	}
	if merged[0].Diagonal != 4 {
		t.Fatalf("expected best diagonal 4, got %d", merged[0].Diagonal)
	}
	if !used.IsSet(1) {
		t.Fatal("expected rep id 1 to be marked used")
	}
}

func TestRunEndToEndSingleSplit(t *testing.T) {
	enc := func(id uint32, s string) seqpb.Sequence {
		codes := make([]int8, len(s))
		residue.Encode(residue.AminoFull, []byte(s), codes)
		return seqpb.Sequence{ID: id, Kind: seqpb.SeqKindAmino, Residues: codes}
	}
	seqs := []seqpb.Sequence{
		enc(1, "MKTAYIAKQRQISFVKSHFSRQLEERLGLIEVQ"),
		enc(2, "MKTAYIAKQRQISFVKSHFSRQLEERLGLIEVE"),
		enc(3, "WYACDEFGHIKLMNPQRSTVWYACDEFGHIKLM"),
	}
	extractor, err := kmerextract.New(kmerextract.Options{
		Pattern:          seqview.Contiguous(6),
		Alphabet:         residue.AminoFull,
		KmersPerSequence: 20,
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := Run(seqs, Options{
		Extractor:     extractor,
		Assign:        groupbuilder.AssignOptions{CoverageMode: groupbuilder.CoverageQuery, Coverage: 0},
		SortBatchSize: 0,
		DBPath:        t.TempDir() + "/db",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Hits)+len(result.Singletons) == 0 {
		t.Fatal("expected either hits or singletons to account for all sequences")
	}
}
