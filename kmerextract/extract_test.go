package kmerextract

import (
	"testing"

	"github.com/grailbio/seqcluster/residue"
	"github.com/grailbio/seqcluster/seqpb"
	"github.com/grailbio/seqcluster/seqview"
)

func aminoSeq(id uint32, s string) seqpb.Sequence {
	codes := make([]int8, len(s))
	residue.Encode(residue.AminoFull, []byte(s), codes)
	return seqpb.Sequence{ID: id, Kind: seqpb.SeqKindAmino, Residues: codes}
}

func nucSeq(id uint32, s string) seqpb.Sequence {
	codes := make([]int8, len(s))
	residue.Encode(residue.Nucleotide, []byte(s), codes)
	return seqpb.Sequence{ID: id, Kind: seqpb.SeqKindNucleotide, Residues: codes}
}

func baseOpts(k int, nucleotide bool) Options {
	alphabet := residue.AminoFull
	if nucleotide {
		alphabet = residue.Nucleotide
	}
	return Options{
		Pattern:          seqview.Contiguous(k),
		Alphabet:         alphabet,
		Nucleotide:       nucleotide,
		KmersPerSequence: 5,
		Scale:            0,
		HashShift:        3,
	}
}

func mustNew(t *testing.T, opts Options) *Extractor {
	t.Helper()
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestExtractKeepsIdentityToken(t *testing.T) {
	e := mustNew(t, baseOpts(3, false))
	seq := aminoSeq(1, "ACDEFGHIK")
	toks := e.Extract(seq, nil)
	if len(toks) == 0 {
		t.Fatal("expected at least the identity token")
	}
	last := toks[len(toks)-1]
	if last.HashKey <= seqpb.UsableBitsMask-1<<20 {
		t.Fatalf("identity token hash_key looks too small: %x", last.HashKey)
	}
	if last.Position != 0 {
		t.Fatalf("identity token position must be 0, got %d", last.Position)
	}
}

func TestExtractDeterministicAcrossCalls(t *testing.T) {
	e := mustNew(t, baseOpts(3, false))
	seq := aminoSeq(7, "MKTAYIAKQRQISFVKSHFSRQLEERLGLIEVQ")
	a := e.Extract(seq, nil)
	b := e.Extract(seq, nil)
	if len(a) != len(b) {
		t.Fatalf("token count differs across calls: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("token %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestExtractRespectsM(t *testing.T) {
	opts := baseOpts(3, false)
	opts.KmersPerSequence = 2
	e := mustNew(t, opts)
	seq := aminoSeq(1, "MKTAYIAKQRQISFVKSHFSRQLEERLGLIEVQ")
	toks := e.Extract(seq, nil)
	// M k-mers plus the trailing identity token.
	if len(toks) > 3 {
		t.Fatalf("expected at most 3 tokens (M=2 + identity), got %d", len(toks))
	}
}

func TestNucleotideCanonicalizationPicksSameKeyBothStrands(t *testing.T) {
	opts := baseOpts(4, true)
	opts.Nucleotide = true
	e := mustNew(t, opts)

	fwd := nucSeq(1, "AAACCCGT")
	rev := nucSeq(2, "ACGGGTTT") // reverse complement of fwd
	tf := e.Extract(fwd, nil)
	tr := e.Extract(rev, nil)
	if len(tf) == 0 || len(tr) == 0 {
		t.Fatal("expected k-mer tokens for both sequences")
	}
	// Each sequence has 5 windows and M=5, so every window is kept: the
	// canonical keys (strand bit stripped, identity token excluded) must be
	// the same multiset for both strands.
	keys := make(map[uint64]int)
	for _, tok := range tf[:len(tf)-1] {
		k, _ := seqpb.UnpackStrand(tok.HashKey)
		keys[k]++
	}
	for _, tok := range tr[:len(tr)-1] {
		k, _ := seqpb.UnpackStrand(tok.HashKey)
		keys[k]--
	}
	for k, n := range keys {
		if n != 0 {
			t.Fatalf("canonical key %x differs between strands (count delta %d)", k, n)
		}
	}
}

func TestMaskLowercaseDropsWindow(t *testing.T) {
	opts := baseOpts(3, false)
	opts.MaskLowercase = true
	e := mustNew(t, opts)
	raw := []byte("ACDefGHIK")
	codes := make([]int8, len(raw))
	residue.Encode(residue.AminoFull, raw, codes)
	seq := seqpb.Sequence{ID: 1, Kind: seqpb.SeqKindAmino, Residues: codes}

	masked := e.Extract(seq, raw)
	unmasked := mustNew(t, baseOpts(3, false)).Extract(seq, nil)
	if len(masked) > len(unmasked) {
		t.Fatalf("masking should never increase the kept k-mer count: %d > %d", len(masked), len(unmasked))
	}
}

func TestAdjustKmerLengthShortensLowInformationWindow(t *testing.T) {
	opts := baseOpts(10, true)
	opts.Nucleotide = true
	opts.AdjustKmerLength = true
	e := mustNew(t, opts)
	window := []int8{0, 0, 0, 0, 0, 0, 0, 0, 0, 0} // all-A, zero entropy
	k := e.effectiveK(window)
	if k >= len(window) {
		t.Fatalf("expected adjust_kmer_length to shorten a homopolymer window, got k=%d", k)
	}
}

func TestExtractBatchMatchesSequentialExtract(t *testing.T) {
	e := mustNew(t, baseOpts(3, false))
	seqs := []seqpb.Sequence{
		aminoSeq(1, "ACDEFGHIK"),
		aminoSeq(2, "LMNPQRSTV"),
		aminoSeq(3, "WYACDEFGH"),
	}
	got, err := e.ExtractBatch(seqs, nil)
	if err != nil {
		t.Fatal(err)
	}
	var want int
	for _, s := range seqs {
		want += len(e.Extract(s, nil))
	}
	if len(got) != want {
		t.Fatalf("expected %d total tokens, got %d", want, len(got))
	}
}
