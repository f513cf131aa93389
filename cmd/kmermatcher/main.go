// Command kmermatcher builds a clustering database from a sequence store:
// it runs k-mer extraction, grouping, and the split/merge orchestrator end
// to end, writing one Candidate Hit list per representative to the output
// store.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/grailbio/seqcluster/groupbuilder"
	"github.com/grailbio/seqcluster/internal/clusterio"
	"github.com/grailbio/seqcluster/kmerextract"
	"github.com/grailbio/seqcluster/orchestrator"
	"github.com/grailbio/seqcluster/residue"
	"github.com/grailbio/seqcluster/seqpb"
	"github.com/grailbio/seqcluster/seqview"
	"github.com/grailbio/seqcluster/store"
)

var (
	dbPath       = flag.String("db", "", "path prefix of the input sequence database")
	outPath      = flag.String("output", "", "path prefix of the output candidate-hit database")
	k            = flag.Int("k", 11, "effective k-mer size")
	alphSize     = flag.Int("alph-size", 21, "alphabet size: 13 or 21 (amino), 5 (nucleotide)")
	nucleotide   = flag.Bool("nucleotide", false, "true if the input database is nucleotide")
	kmerPerSeq   = flag.Int("kmer-per-seq", 20, "base term of M = kmer-per-seq + kmer-per-seq-scale*L")
	kmerPerScale = flag.Float64("kmer-per-seq-scale", 0, "scale term of M")
	maskMode     = flag.Int("mask", 0, "0/1: tantan low-complexity masking")
	maskLower    = flag.Bool("mask-lowercase", false, "mask lowercase residues to X")
	spacedMode   = flag.Int("spaced-kmer-mode", 0, "0: contiguous, 1: predefined spaced seed")
	covMode      = flag.Int("cov-mode", 0, "0:query 1:target 2:bidirectional 3:min-of-both")
	coverage     = flag.Float64("c", 0.8, "coverage threshold")
	threads      = flag.Int("threads", 0, "worker pool size (0: GOMAXPROCS)")
	splitMemory  = flag.Int64("split-memory-limit", 1<<30, "approximate per-split memory budget in bytes")
	includeExt   = flag.Bool("include-only-extendable", false, "drop hits that cannot extend beyond either sequence's end")
	adjustKmer   = flag.Bool("adjust-kmer-length", false, "nucleotide only: shorten k for low-information windows")
	compressed   = flag.Int("compressed", 1, "0/1: zstd-compress the output database")
	sortBatch    = flag.Int("sort-batch-size", 1<<20, "tokens per external-sort batch")
)

func main() {
	flag.Parse()
	cleanup := grail.Init()
	defer cleanup()

	if *dbPath == "" || *outPath == "" {
		log.Fatal("both -db and -output are required")
	}
	if *threads > 0 {
		runtime.GOMAXPROCS(*threads) // traverse.Each assumes GOMAXPROCS is fixed at boot
	}

	db, err := store.Open(*dbPath, store.DataAndIndex, true)
	if err != nil {
		log.Fatalf("opening %s: %v", *dbPath, err)
	}
	defer db.Close() // nolint: errcheck

	alphabet := residue.AminoFull
	kind := seqpb.SeqKindAmino
	switch {
	case *nucleotide:
		alphabet = residue.Nucleotide
		kind = seqpb.SeqKindNucleotide
	case *alphSize == 13:
		alphabet = residue.AminoReduced
	}

	seqs, err := clusterio.LoadSequences(db, alphabet, kind)
	if err != nil {
		log.Fatalf("loading sequences: %v", err)
	}

	pattern := seqview.Contiguous(*k)
	if *spacedMode == 1 {
		if p, ok := seqview.PredefinedSpaced(*k); ok {
			pattern = p
		} else {
			log.Error.Printf("no predefined spaced pattern for k=%d; falling back to contiguous", *k)
		}
	}

	extractor, err := kmerextract.New(kmerextract.Options{
		Pattern:           pattern,
		Alphabet:          alphabet,
		Nucleotide:        *nucleotide,
		KmersPerSequence:  *kmerPerSeq,
		Scale:             *kmerPerScale,
		MaskLowComplexity: *maskMode == 1,
		MaskLowercase:     *maskLower,
		AdjustKmerLength:  *adjustKmer,
		HashShift:         3,
	})
	if err != nil {
		log.Fatalf("configuring extractor: %v", err)
	}

	result, err := orchestrator.Run(seqs, orchestrator.Options{
		Extractor: extractor,
		Assign: groupbuilder.AssignOptions{
			Nucleotide:   *nucleotide,
			CoverageMode: groupbuilder.CoverageMode(*covMode),
			Coverage:     *coverage,
		},
		MemoryLimitBytes:      *splitMemory,
		SortBatchSize:         *sortBatch,
		DBPath:                *outPath,
		TmpDir:                os.TempDir(),
		IncludeOnlyExtendable: *includeExt,
	})
	if err != nil {
		log.Fatalf("orchestrator run failed: %v", err)
	}

	if err := clusterio.WriteClusterOutput(*outPath, result, *compressed == 1); err != nil {
		log.Fatalf("writing output: %v", err)
	}
	log.Printf("kmermatcher: %d candidate hits, %d singletons", len(result.Hits), len(result.Singletons))
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: kmermatcher -db <path> -output <path> [flags]\n")
	flag.PrintDefaults()
}

func init() {
	flag.Usage = usage
}
