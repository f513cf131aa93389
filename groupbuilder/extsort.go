// Package groupbuilder implements the Group Builder (spec.md §4.4 C4): it
// consumes the global buffer of K-mer Tokens produced by kmerextract, sorts
// it, assigns representatives, resolves nucleotide strand, reduces to one
// Candidate Hit per (representative, target) pair, and applies the edge
// policy. The external-sort/merge machinery is grounded on the teacher's
// cmd/bio-bam-sort/sorter package, reused here for K-mer Tokens instead of
// BAM records.
package groupbuilder

import (
	"encoding/binary"
	"io"
	"io/ioutil"
	"os"
	"sort"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/errors"

	"github.com/grailbio/seqcluster/seqpb"
)

// tokenRecordSize is the fixed on-disk width of one spilled seqpb.KmerToken:
// HashKey(8) + SeqID(4) + Position(4) + SeqLength(4).
const tokenRecordSize = 20

// LessFunc orders two tokens; callers pass seqpb.Sort1Less or
// seqpb.RewrittenLess depending on which pass is running.
type LessFunc func(a, b seqpb.KmerToken) bool

// ExternalSort sorts tokens according to less, spilling to temporary batch
// files once the in-memory batch reaches batchSize records and merging them
// with a tournament tree, exactly as the teacher's Sorter batches sam.Records
// into sortshards and merges them with internalMergeShards. When
// len(tokens) <= batchSize, it sorts in memory and returns without touching
// disk.
func ExternalSort(tokens []seqpb.KmerToken, less LessFunc, batchSize int, tmpDir string) ([]seqpb.KmerToken, error) {
	if batchSize <= 0 || len(tokens) <= batchSize {
		out := make([]seqpb.KmerToken, len(tokens))
		copy(out, tokens)
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
		return out, nil
	}

	var errs errors.Once
	var shardPaths []string
	defer func() {
		for _, p := range shardPaths {
			os.Remove(p) // nolint: errcheck
		}
	}()

	for start := 0; start < len(tokens); start += batchSize {
		end := start + batchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := make([]seqpb.KmerToken, end-start)
		copy(batch, tokens[start:end])
		sort.SliceStable(batch, func(i, j int) bool { return less(batch[i], batch[j]) })

		path, err := writeBatchShard(batch, tmpDir)
		if err != nil {
			errs.Set(err)
			continue
		}
		shardPaths = append(shardPaths, path)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return mergeShards(shardPaths, less)
}

func writeBatchShard(batch []seqpb.KmerToken, tmpDir string) (string, error) {
	f, err := ioutil.TempFile(tmpDir, "groupbuilder-sort-*.shard")
	if err != nil {
		return "", err
	}
	defer f.Close() // nolint: errcheck

	buf := make([]byte, tokenRecordSize)
	for _, tok := range batch {
		encodeToken(buf, tok)
		if _, err := f.Write(buf); err != nil {
			return "", err
		}
	}
	return f.Name(), f.Sync()
}

func encodeToken(buf []byte, tok seqpb.KmerToken) {
	binary.LittleEndian.PutUint64(buf[0:8], tok.HashKey)
	binary.LittleEndian.PutUint32(buf[8:12], tok.SeqID)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(tok.Position))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(tok.SeqLength))
}

func decodeToken(buf []byte) seqpb.KmerToken {
	return seqpb.KmerToken{
		HashKey:   binary.LittleEndian.Uint64(buf[0:8]),
		SeqID:     binary.LittleEndian.Uint32(buf[8:12]),
		Position:  int32(binary.LittleEndian.Uint32(buf[12:16])),
		SeqLength: int32(binary.LittleEndian.Uint32(buf[16:20])),
	}
}

// shardReader reads tokenRecordSize-byte records sequentially from one spilled
// shard file, buffering the current record for comparison, the same role the
// teacher's sortShardReader plays for mergeLeaf.
type shardReader struct {
	f       *os.File
	buf     []byte
	cur     seqpb.KmerToken
	hasCur  bool
	drained bool
}

func newShardReader(path string) (*shardReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &shardReader{f: f, buf: make([]byte, tokenRecordSize)}, nil
}

// scan advances to the next record, returning false once the shard is
// exhausted.
func (r *shardReader) scan() bool {
	if r.drained {
		return false
	}
	n, err := io.ReadFull(r.f, r.buf)
	if err != nil || n < tokenRecordSize {
		r.drained = true
		r.hasCur = false
		r.f.Close() // nolint: errcheck
		return false
	}
	r.cur = decodeToken(r.buf)
	r.hasCur = true
	return true
}

func (r *shardReader) key() seqpb.KmerToken { return r.cur }

// mergeLeaf adapts a shardReader into an llrb.Comparable, mirroring the
// teacher's mergeLeaf/newMergeLeaf pair exactly, parameterized over the
// active LessFunc instead of a fixed sam coordinate order.
type mergeLeaf struct {
	seq    int
	reader *shardReader
	less   LessFunc
}

func newMergeLeaf(seq int, reader *shardReader, less LessFunc) *mergeLeaf {
	if !reader.scan() {
		return nil
	}
	return &mergeLeaf{seq: seq, reader: reader, less: less}
}

func (l *mergeLeaf) Compare(other llrb.Comparable) int {
	o := other.(*mergeLeaf)
	a, b := l.reader.key(), o.reader.key()
	switch {
	case l.less(a, b):
		return -1
	case l.less(b, a):
		return 1
	default:
		return l.seq - o.seq
	}
}

// mergeShards performs the N-way tournament-tree merge of spilled shard
// files (teacher: internalMergeShards), returning the fully merged token
// slice in order.
func mergeShards(paths []string, less LessFunc) ([]seqpb.KmerToken, error) {
	readers := make([]*shardReader, 0, len(paths))
	for _, p := range paths {
		r, err := newShardReader(p)
		if err != nil {
			return nil, err
		}
		readers = append(readers, r)
	}

	tree := llrb.Tree{}
	for i, r := range readers {
		if leaf := newMergeLeaf(i, r, less); leaf != nil {
			tree.Insert(leaf)
		}
	}

	var out []seqpb.KmerToken
	for tree.Len() > 0 {
		var top, next *mergeLeaf
		n := 0
		tree.Do(func(item llrb.Comparable) bool {
			n++
			switch n {
			case 1:
				top = item.(*mergeLeaf)
				return false
			case 2:
				next = item.(*mergeLeaf)
				return true
			default:
				return false
			}
		})
		for {
			out = append(out, top.reader.key())
			more := top.reader.scan()
			if !more || (next != nil && less(next.reader.key(), top.reader.key())) {
				break
			}
		}
		tree.DeleteMin()
		if top.reader.hasCur {
			tree.Insert(top)
		}
	}
	return out, nil
}
