// Package kmerextract implements the K-mer Extractor (spec.md §4.3 C3): for
// each sequence, it collects candidate k-mers under a rolling circular hash,
// canonicalizes nucleotide k-mers to their lexicographically smaller strand,
// applies optional low-complexity/lowercase masking, and keeps the top-M
// distinct k-mers by (score, canonical_key, position), plus one
// whole-sequence identity token. It generalizes the teacher's fusion package
// (a fixed-k 2-bit nucleotide kmerizer) to the spec's variable-k,
// variable-alphabet, spaced-pattern extraction.
package kmerextract

import (
	"math"
	"sort"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/traverse"

	"github.com/grailbio/seqcluster/residue"
	"github.com/grailbio/seqcluster/seqpb"
	"github.com/grailbio/seqcluster/seqview"
)

// Options configures one Extractor (spec.md §4.3 parameter table).
type Options struct {
	Pattern            seqview.Pattern
	Alphabet           residue.Alphabet
	Nucleotide         bool // true selects canonicalization + reverse-complement handling
	KmersPerSequence   int  // base term of M = base + scale*L
	Scale              float64
	MaskLowComplexity  bool
	MaskLowercase      bool
	AdjustKmerLength   bool // nucleotide only
	IgnoreMultiKmer    bool // drop repeated k-mers during the top-M walk
	HashShift          uint
}

// Extractor extracts K-mer Tokens from sequences under a fixed set of
// Options (spec.md §4.3). One Extractor instance is safe to share
// read-only across goroutines; per-call scratch state lives in the
// candidate slice built fresh by each Extract invocation, mirroring how the
// teacher's fusion.kmerizer is cheap to construct per worker rather than
// sharing mutable scratch.
type Extractor struct {
	opts Options
}

// New validates opts and creates an Extractor. It rejects combinations that
// can never produce a valid extraction, per spec.md §7 taxonomy item 3.
func New(opts Options) (*Extractor, error) {
	if opts.Pattern.Len() == 0 {
		return nil, newConfigError("kmerextract: empty pattern")
	}
	if opts.KmersPerSequence <= 0 && opts.Scale <= 0 {
		return nil, newConfigError("kmerextract: kmer-per-seq and kmer-per-seq-scale cannot both be non-positive", opts.KmersPerSequence, opts.Scale)
	}
	if opts.Nucleotide && opts.Alphabet.Size() > 5 {
		return nil, newConfigError("kmerextract: nucleotide mode requires a nucleotide alphabet", opts.Alphabet.Size())
	}
	return &Extractor{opts: opts}, nil
}

// identityTokenSeed is the fixed seed used for the whole-sequence identity
// hash (spec.md §4.3 step 6), kept constant across runs and sequences so
// identical residue content always produces the same hash_key.
const identityTokenSeed = 0x5eed0000cafe1234

// candidate is the sequence-local working tuple before the top-M walk
// collapses it into a seqpb.KmerToken.
type candidate struct {
	score        uint16
	canonicalKey uint64
	position     int32
}

// maxM returns the number of distinct k-mers to retain for a sequence of
// length L (spec.md §4.3 "M = ceil(chooseTopKmer + scale*L)").
func (o Options) maxM(length int) int {
	m := math.Ceil(float64(o.KmersPerSequence) + o.Scale*float64(length))
	if m < 1 {
		m = 1
	}
	return int(m)
}

// MaxTokensFor returns the maximum number of tokens Extract can emit for a
// sequence of the given length: the top-M k-mers plus the trailing identity
// token. Callers size split/worker-buffer allocations from this upper bound
// (spec.md §4.6 "Allocate a token array sized for the split's share").
func (e *Extractor) MaxTokensFor(length int) int {
	return e.opts.maxM(length) + 1
}

// Extract returns the kept K-mer Tokens for one sequence, including the
// trailing identity token (spec.md §4.3 steps 1-6). raw is the original,
// not-yet-masked byte sequence, used only to drive lowercase masking; seq
// holds the already-encoded residue codes used for everything else.
func (e *Extractor) Extract(seq seqpb.Sequence, raw []byte) []seqpb.KmerToken {
	codes := make([]int8, len(seq.Residues))
	copy(codes, seq.Residues)

	if e.opts.MaskLowercase && raw != nil {
		maskLowercase(raw, codes)
	}
	if e.opts.MaskLowComplexity {
		maskLowComplexity(seq.Residues, codes, 32, 0.65)
	}
	masked := seq
	masked.Residues = codes

	cur := seqview.NewCursor(e.opts.Pattern)
	cur.Map(masked)

	rh := newRollingHash(e.opts.Pattern.K(), e.opts.HashShift)
	incremental := e.opts.Pattern.Contiguous()
	var candidates []candidate
	var prevWindow []int8
	var haveHash bool
	for cur.HasNextKmer() {
		pos := cur.Pos()
		window := cur.NextKmer()
		if residue.HasUnknown(window) {
			haveHash = false
			continue
		}

		// The rolling hash scores the full pattern window (spec.md §4.3 step
		// 1); when consecutive windows overlap by all but one residue
		// (contiguous pattern, no residue skipped to X), it updates in O(1)
		// via Roll instead of rehashing from scratch.
		var score uint16
		if incremental && haveHash && len(prevWindow) == len(window) {
			score = rh.Roll(prevWindow[0], window[len(window)-1])
		} else {
			score = rh.Init(window)
		}
		haveHash = true
		if prevWindow == nil || cap(prevWindow) < len(window) {
			prevWindow = make([]int8, len(window))
		}
		copy(prevWindow, window)

		k := e.effectiveK(window)
		effWindow := window[:k]
		canonicalKey := e.canonicalKey(effWindow)

		candidates = append(candidates, candidate{
			score:        score,
			canonicalKey: canonicalKey,
			position:     int32(pos),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score < b.score
		}
		if a.canonicalKey != b.canonicalKey {
			return a.canonicalKey < b.canonicalKey
		}
		return a.position < b.position
	})

	m := e.opts.maxM(seq.Len())
	tokens := make([]seqpb.KmerToken, 0, m+1)
	var prevKey uint64
	havePrev := false
	for _, c := range candidates {
		if len(tokens) >= m {
			break
		}
		if havePrev && e.opts.IgnoreMultiKmer && c.canonicalKey == prevKey {
			continue
		}
		tokens = append(tokens, seqpb.KmerToken{
			HashKey:   c.canonicalKey,
			SeqID:     seq.ID,
			Position:  c.position,
			SeqLength: int32(seq.Len()),
		})
		prevKey = c.canonicalKey
		havePrev = true
	}

	tokens = append(tokens, e.identityToken(seq))
	return tokens
}

// effectiveK implements adjust_kmer_length for nucleotide sequences: shorten
// the window until its order-0 entropy clears a fixed informativeness
// threshold, per original_source/src/kmermatcher.cpp's adjust_kmer_length
// (here approximated with a simple entropy estimate rather than the
// original's exact lookup, since the spec calls only for "as described").
func (e *Extractor) effectiveK(window []int8) int {
	if !e.opts.Nucleotide || !e.opts.AdjustKmerLength {
		return len(window)
	}
	const minK = 6
	const entropyThreshold = 1.0 // bits
	for k := len(window); k >= minK; k-- {
		if windowEntropy(window[:k]) >= entropyThreshold {
			return k
		}
	}
	return minK
}

func windowEntropy(window []int8) float64 {
	var counts [5]int
	for _, c := range window {
		if c >= 0 && int(c) < len(counts) {
			counts[c]++
		}
	}
	n := float64(len(window))
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}

// canonicalKey computes the canonical key for one (possibly adjust_kmer_length
// -shortened) k-mer window (spec.md §4.3 step 2). For nucleotide sequences it
// compares the forward window against its reverse complement and keeps the
// lexicographically smaller, tagging the strand in bit 63 via
// seqpb.PackStrand. For amino/profile sequences it keys the forward window
// unmodified.
func (e *Extractor) canonicalKey(window []int8) uint64 {
	if !e.opts.Nucleotide {
		return codesToKey(window)
	}

	rc := make([]int8, len(window))
	for i, c := range window {
		rc[len(window)-1-i] = complementCode(c)
	}

	fwdKey := codesToKey(window)
	rcKey := codesToKey(rc)
	forward := fwdKey <= rcKey
	key := fwdKey
	if !forward {
		key = rcKey
	}
	return seqpb.PackStrand(key, forward)
}

// codesToKey packs a short residue window into a single integer for
// lexicographic comparison, treating each residue as a base-32 digit (amino
// alphabets never exceed 21 symbols, nucleotide 5; 32 is the next power of
// two that safely separates digits without collision).
func codesToKey(codes []int8) uint64 {
	var key uint64
	for _, c := range codes {
		key = key<<5 | uint64(c)&0x1f
	}
	return key
}

// complementCode returns the nucleotide complement of an integer residue
// code (0=A,1=C,2=G,3=T,4=N), mirroring residue.Complement's ASCII table.
func complementCode(c int8) int8 {
	switch c {
	case 0:
		return 3
	case 1:
		return 2
	case 2:
		return 1
	case 3:
		return 0
	default:
		return c
	}
}

// identityToken emits the whole-sequence identity tuple (spec.md §4.3 step
// 6): hash_key = highest_possible_index + wyhash(sequence), position 0. The
// teacher's own farm.Hash64WithSeed stands in for the spec's "wyhash" (see
// DESIGN.md).
func (e *Extractor) identityToken(seq seqpb.Sequence) seqpb.KmerToken {
	buf := make([]byte, len(seq.Residues))
	for i, c := range seq.Residues {
		buf[i] = byte(c)
	}
	// A fixed seed, not seq.ID: two sequences with identical residues must
	// land on the identical hash_key regardless of which ids they carry, or
	// they would never co-cluster via the identity token.
	h := farm.Hash64WithSeed(buf, identityTokenSeed)
	return seqpb.KmerToken{
		HashKey:   seqpb.UsableBitsMask + h,
		SeqID:     seq.ID,
		Position:  0,
		SeqLength: int32(seq.Len()),
	}
}

// ExtractBatch extracts tokens for every sequence in seqs, fanning the work
// out across a fixed worker pool (spec.md §5 "fixed worker pool fork-join"),
// mirroring the teacher's fusion package's parallel k-mer indexing. raws
// supplies the matching raw byte slices for lowercase masking, or nil if
// lowercase masking is disabled; when non-nil it must have the same length
// as seqs.
func (e *Extractor) ExtractBatch(seqs []seqpb.Sequence, raws [][]byte) ([]seqpb.KmerToken, error) {
	perSeq := make([][]seqpb.KmerToken, len(seqs))
	err := traverse.Each(len(seqs), func(i int) error {
		var raw []byte
		if raws != nil {
			raw = raws[i]
		}
		perSeq[i] = e.Extract(seqs[i], raw)
		return nil
	})
	if err != nil {
		return nil, err
	}
	var total int
	for _, s := range perSeq {
		total += len(s)
	}
	out := make([]seqpb.KmerToken, 0, total)
	for _, s := range perSeq {
		out = append(out, s...)
	}
	return out, nil
}
