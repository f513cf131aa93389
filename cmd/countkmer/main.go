// Command countkmer is a diagnostic tool: it tallies every literal,
// contiguous k-mer occurring in a sequence database (no masking, no
// top-M selection, no hashing) and prints index, decoded k-mer, and
// count, one per line. It is grounded on the original linclust
// countkmer.cpp, adapted from its exhaustive alphabet-size^k index space
// to the same residue codes the rest of the core uses.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/grailbio/seqcluster/internal/clusterio"
	"github.com/grailbio/seqcluster/residue"
	"github.com/grailbio/seqcluster/seqpb"
	"github.com/grailbio/seqcluster/store"
)

var (
	dbPath     = flag.String("db", "", "path prefix of the sequence database")
	k          = flag.Int("k", 5, "literal k-mer size")
	nucleotide = flag.Bool("nucleotide", false, "true if the database is nucleotide")
	alphSize   = flag.Int("alph-size", 21, "alphabet size: 13 or 21 (amino), 5 (nucleotide)")
)

func main() {
	flag.Parse()
	cleanup := grail.Init()
	defer cleanup()

	if *dbPath == "" {
		log.Fatal("-db is required")
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

	counts := make(map[uint64]int64)
	base := uint64(alphabet.Size() - 1) // exclude the Unknown slot from the index base, matching subMat->alphabetSize-1
	for _, s := range seqs {
		countLiteralKmers(s.Residues, *k, base, counts)
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush() // nolint: errcheck
	idxSize := ipow(base, *k)
	for idx := uint64(0); idx < idxSize; idx++ {
		fmt.Fprintf(w, "%d\t%s\t%d\n", idx, decodeIndex(idx, *k, base, alphabet), counts[idx])
	}
}

// countLiteralKmers slides a window of length k across codes, skipping any
// window containing an Unknown residue or a code outside [0, base) (the
// excluded last slot, e.g. nucleotide N), and tallies the base-`base`
// positional index of each surviving window.
func countLiteralKmers(codes []int8, k int, base uint64, counts map[uint64]int64) {
	if len(codes) < k {
		return
	}
	for i := 0; i+k <= len(codes); i++ {
		window := codes[i : i+k]
		valid := true
		for _, c := range window {
			if c == residue.Unknown || uint64(c) >= base {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}
		var idx uint64
		for _, c := range window {
			idx = idx*base + uint64(c)
		}
		counts[idx]++
	}
}

func ipow(base uint64, exp int) uint64 {
	result := uint64(1)
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

func decodeIndex(idx uint64, k int, base uint64, alphabet residue.Alphabet) string {
	digits := make([]byte, k)
	for i := k - 1; i >= 0; i-- {
		digits[i] = residue.Decode(alphabet, int8(idx%base))
		idx /= base
	}
	return string(digits)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: countkmer -db <path> [flags]\n")
	flag.PrintDefaults()
}

func init() {
	flag.Usage = usage
}
