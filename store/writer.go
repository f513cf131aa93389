package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/grailbio/base/errors"
	"github.com/klauspost/compress/zstd"
)

// flagRaw and flagCompressed are the values of the single byte written after
// each entry's body: no separate null byte follows the payload, the trailing
// byte itself doubles as the per-entry compression flag (0 = raw, 1 =
// zstd-framed with a 4-byte LE length prefix).
const (
	flagRaw        byte = 0
	flagCompressed byte = 1
)

// ShardWriter is the per-worker-thread append path of spec.md §4.1: "each of
// N worker threads writes into its own shard file data.<t>/index.<t>. Each
// shard is a valid sub-database." Like the teacher's pam.Writer, a
// ShardWriter is thread-compatible, not thread-safe: one goroutine owns one
// shard exclusively (spec.md §5 "Shared mutable state").
type ShardWriter struct {
	threadID int
	dbPath   string

	data    *os.File
	index   *os.File
	offset  uint64 // current data file write offset
	nWrites uint64

	compress bool
	enc      *zstd.Encoder

	err errors.Once
}

// NewShardWriter creates <dbPath>.shard.<t>.data and <dbPath>.shard.<t>.index.
// compress selects whether Append should ZSTD-compress payloads (spec.md
// §4.1 "optionally ZSTD-compressed per entry").
func NewShardWriter(dbPath string, threadID int, compress bool) (*ShardWriter, error) {
	w := &ShardWriter{threadID: threadID, dbPath: dbPath, compress: compress}
	dataPath := shardDataPath(dbPath, threadID)
	indexPath := shardIndexPath(dbPath, threadID)
	var err error
	if w.data, err = os.Create(dataPath); err != nil {
		return nil, newIoError(err, "create", dataPath)
	}
	if w.index, err = os.Create(indexPath); err != nil {
		return nil, newIoError(err, "create", indexPath)
	}
	if compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, newIoError(err, "zstd init")
		}
		w.enc = enc
	}
	return w, nil
}

func shardDataPath(dbPath string, threadID int) string {
	return fmt.Sprintf("%s.shard.%d.data", dbPath, threadID)
}

func shardIndexPath(dbPath string, threadID int) string {
	return fmt.Sprintf("%s.shard.%d.index", dbPath, threadID)
}

// Append writes one entry keyed by key. It is safe to call repeatedly from
// the same ShardWriter's owning goroutine only; see spec.md §5.
func (w *ShardWriter) Append(key uint32, payload []byte) {
	if w.err.Err() != nil {
		return
	}
	flag := flagRaw
	body := payload
	if w.compress {
		frame := w.enc.EncodeAll(payload, nil)
		// Only keep the compressed form if the length-prefixed frame is
		// actually smaller than the raw payload; otherwise fall back to raw, same
		// as most block-compressed store formats do for incompressible
		// inputs.
		if len(frame)+4 < len(payload) {
			lenPrefix := make([]byte, 4)
			binary.LittleEndian.PutUint32(lenPrefix, uint32(len(frame)))
			body = append(lenPrefix, frame...)
			flag = flagCompressed
		}
	}
	n, err := w.data.Write(body)
	if err != nil {
		w.err.Set(newIoError(err, "write", w.data.Name()))
		return
	}
	if _, err := w.data.Write([]byte{flag}); err != nil {
		w.err.Set(newIoError(err, "write", w.data.Name()))
		return
	}
	length := uint64(n) + 1

	rec := make([]byte, indexRecordSize)
	encodeIndexRecord(rec, indexRecord{Key: key, Offset: w.offset, Length: length})
	if _, err := w.index.Write(rec); err != nil {
		w.err.Set(newIoError(err, "write", w.index.Name()))
		return
	}
	atomic.AddUint64(&w.nWrites, 1)
	w.offset += length
}

// Close flushes and closes the shard's files. It must be called exactly
// once.
func (w *ShardWriter) Close() error {
	if e := w.data.Close(); e != nil {
		w.err.Set(newIoError(e, "close", w.data.Name()))
	}
	if e := w.index.Close(); e != nil {
		w.err.Set(newIoError(e, "close", w.index.Name()))
	}
	if w.enc != nil {
		w.enc.Close()
	}
	return w.err.Err()
}

// Err returns any error accumulated so far.
func (w *ShardWriter) Err() error { return w.err.Err() }
