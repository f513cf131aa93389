// Package clusterio provides the small amount of glue the four core
// sub-commands share: loading a Sequence Store's raw entries as
// residue-encoded Sequences, and writing the Cluster Output payload format
// (spec.md §6) to an output store. None of this is part of the core
// pipeline itself — it is the command-line ingestion/egress layer spec.md
// §1 calls out as an external collaborator ("FASTA ingestion... out of
// scope").
package clusterio

import (
	"bytes"
	"fmt"

	"github.com/grailbio/seqcluster/orchestrator"
	"github.com/grailbio/seqcluster/residue"
	"github.com/grailbio/seqcluster/seqpb"
	"github.com/grailbio/seqcluster/store"
)

// clusterResultDBType tags an output database as a Cluster Output payload
// store (spec.md §6 "<db>.dbtype: single byte identifying the database type
// tag"), distinct from the sequence databases it was built from.
const clusterResultDBType = 'c'

// LoadSequences reads every entry from db and residue-encodes it under the
// given alphabet, producing the in-memory Sequence slice the core operates
// on (spec.md §3 "Sequence").
func LoadSequences(db *store.Store, alphabet residue.Alphabet, kind seqpb.SeqKind) ([]seqpb.Sequence, error) {
	keys := db.Keys()
	seqs := make([]seqpb.Sequence, 0, len(keys))
	for _, key := range keys {
		raw, err := db.Get(key)
		if err != nil {
			return nil, fmt.Errorf("clusterio: reading key %d: %w", key, err)
		}
		codes := make([]int8, len(raw))
		residue.Encode(alphabet, raw, codes)
		seqs = append(seqs, seqpb.Sequence{ID: key, Kind: kind, Residues: codes})
	}
	return seqs, nil
}

// WriteClusterOutput writes the Cluster Output payload (spec.md §6: for
// each representative, `target_id\tscore\tdiagonal\n` lines terminated by a
// NUL) to a new store at outPath, keyed by representative id, plus a
// self-record entry for every singleton (spec.md §4.6 backfill pass).
func WriteClusterOutput(outPath string, result orchestrator.Result, compressed bool) error {
	byRep := make(map[uint32][]seqpb.CandidateHit)
	var repOrder []uint32
	for _, h := range result.Hits {
		if _, ok := byRep[h.RepID]; !ok {
			repOrder = append(repOrder, h.RepID)
		}
		byRep[h.RepID] = append(byRep[h.RepID], h)
	}

	w, err := store.NewShardWriter(outPath, 0, compressed)
	if err != nil {
		return err
	}

	for _, rep := range repOrder {
		var buf bytes.Buffer
		for _, h := range byRep[rep] {
			fmt.Fprintf(&buf, "%d\t%d\t%d\n", h.TargetID, signedScore(h), h.Diagonal)
		}
		buf.WriteByte(0)
		w.Append(rep, buf.Bytes())
	}
	for _, id := range result.Singletons {
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "%d\t0\t0\n", id)
		buf.WriteByte(0)
		w.Append(id, buf.Bytes())
	}

	if err := w.Err(); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return store.CloseShards(outPath, 1, clusterResultDBType, store.SortByKey)
}

// signedScore negates the stored score for reverse-strand target k-mers
// (spec.md §6 "Negative score encodes reverse-strand hits for
// nucleotides").
func signedScore(h seqpb.CandidateHit) int {
	if h.RevStrand {
		return -int(h.Score)
	}
	return int(h.Score)
}
