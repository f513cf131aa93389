// Command kmersearch aligns a query sequence database against a target
// database: it runs the same k-mer extraction/grouping pipeline as
// kmermatcher to find candidate hits, keeps only the ones anchored at a
// query representative, and extends each surviving candidate into a
// gapped alignment with package align.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/grailbio/seqcluster/align"
	"github.com/grailbio/seqcluster/groupbuilder"
	"github.com/grailbio/seqcluster/internal/clusterio"
	"github.com/grailbio/seqcluster/kmerextract"
	"github.com/grailbio/seqcluster/orchestrator"
	"github.com/grailbio/seqcluster/residue"
	"github.com/grailbio/seqcluster/scorematrix"
	"github.com/grailbio/seqcluster/seqpb"
	"github.com/grailbio/seqcluster/seqview"
	"github.com/grailbio/seqcluster/store"
)

var (
	queryPath  = flag.String("query-db", "", "path prefix of the query sequence database")
	targetPath = flag.String("target-db", "", "path prefix of the target sequence database")
	outPath    = flag.String("output", "", "path prefix of the output alignment database")
	k          = flag.Int("k", 11, "effective k-mer size")
	alphSize   = flag.Int("alph-size", 21, "alphabet size: 13 or 21 (amino), 5 (nucleotide)")
	nucleotide = flag.Bool("nucleotide", false, "true if both databases are nucleotide")
	kmerPerSeq = flag.Int("kmer-per-seq", 20, "base term of M = kmer-per-seq + kmer-per-seq-scale*L")
	kmerScale  = flag.Float64("kmer-per-seq-scale", 0, "scale term of M")
	covMode    = flag.Int("cov-mode", 0, "0:query 1:target 2:bidirectional 3:min-of-both")
	coverage   = flag.Float64("c", 0.8, "coverage threshold")
	sortBatch  = flag.Int("sort-batch-size", 1<<20, "tokens per external-sort batch")
	compressed = flag.Int("compressed", 1, "0/1: zstd-compress the output database")
)

func main() {
	flag.Parse()
	cleanup := grail.Init()
	defer cleanup()

	if *queryPath == "" || *targetPath == "" || *outPath == "" {
		log.Fatal("-query-db, -target-db and -output are all required")
	}

	qdb, err := store.Open(*queryPath, store.DataAndIndex, true)
	if err != nil {
		log.Fatalf("opening query db %s: %v", *queryPath, err)
	}
	defer qdb.Close() // nolint: errcheck

	tdb, err := store.Open(*targetPath, store.DataAndIndex, true)
	if err != nil {
		log.Fatalf("opening target db %s: %v", *targetPath, err)
	}
	defer tdb.Close() // nolint: errcheck

	alphabet := residue.AminoFull
	kind := seqpb.SeqKindAmino
	switch {
	case *nucleotide:
		alphabet = residue.Nucleotide
		kind = seqpb.SeqKindNucleotide
	case *alphSize == 13:
		alphabet = residue.AminoReduced
	}

	queries, err := clusterio.LoadSequences(qdb, alphabet, kind)
	if err != nil {
		log.Fatalf("loading query sequences: %v", err)
	}
	targets, err := clusterio.LoadSequences(tdb, alphabet, kind)
	if err != nil {
		log.Fatalf("loading target sequences: %v", err)
	}
	queryIDs := make(map[uint32]bool, len(queries))
	for _, s := range queries {
		queryIDs[s.ID] = true
	}
	bySeqID := make(map[uint32]seqpb.Sequence, len(queries)+len(targets))
	for _, s := range queries {
		bySeqID[s.ID] = s
	}
	for _, s := range targets {
		bySeqID[s.ID] = s
	}

	extractor, err := kmerextract.New(kmerextract.Options{
		Pattern:          seqview.Contiguous(*k),
		Alphabet:         alphabet,
		Nucleotide:       *nucleotide,
		KmersPerSequence: *kmerPerSeq,
		Scale:            *kmerScale,
		HashShift:        3,
	})
	if err != nil {
		log.Fatalf("configuring extractor: %v", err)
	}

	var tokens []seqpb.KmerToken
	all := append(append([]seqpb.Sequence{}, queries...), targets...)
	for _, s := range all {
		tokens = append(tokens, extractor.Extract(s, nil)...)
	}

	hits, err := groupbuilder.Build(tokens, groupbuilder.BuildOptions{
		Assign: groupbuilder.AssignOptions{
			Nucleotide:   *nucleotide,
			CoverageMode: groupbuilder.CoverageMode(*covMode),
			Coverage:     *coverage,
		},
		SortBatchSize: *sortBatch,
		TmpDir:        os.TempDir(),
	})
	if err != nil {
		log.Fatalf("grouping failed: %v", err)
	}

	aligner := align.New(align.DefaultOptions(matrixFor(alphabet)))

	result := make([]seqpb.CandidateHit, 0, len(hits))
	skipped := 0
	for _, h := range hits {
		if !queryIDs[h.RepID] {
			continue // representative landed on a target sequence; not a query-anchored hit
		}
		q, qok := bySeqID[h.RepID]
		t, tok := bySeqID[h.TargetID]
		if !qok || !tok {
			continue
		}
		_, ok := aligner.Align(q.Residues, t.Residues, h.Diagonal, false)
		if !ok {
			log.Error.Print(align.AlignmentEmptyError{RepID: h.RepID, TargetID: h.TargetID})
			skipped++
			continue
		}
		result = append(result, h)
	}

	if err := clusterio.WriteClusterOutput(*outPath, orchestrator.Result{Hits: result}, *compressed == 1); err != nil {
		log.Fatalf("writing output: %v", err)
	}
	log.Printf("kmersearch: %d query-anchored hits written, %d skipped (no alignment)", len(result), skipped)
}

func matrixFor(alphabet residue.Alphabet) scorematrix.Matrix {
	if alphabet == residue.Nucleotide {
		return scorematrix.NucleotideIdentity(2, -3)
	}
	return scorematrix.BLOSUM62()
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: kmersearch -query-db <path> -target-db <path> -output <path> [flags]\n")
	flag.PrintDefaults()
}

func init() {
	flag.Usage = usage
}
