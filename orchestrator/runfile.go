package orchestrator

import (
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/golang/snappy"

	"github.com/grailbio/seqcluster/seqpb"
)

// hitRecordSize is the fixed on-disk width of one spec.md §4.6 run-file
// entry: RepID(4) + TargetID(4) + Diagonal(4) + Score(2) + flags(1), padded
// to a round 16 bytes the way the teacher's sortShardWriter pads block
// headers for alignment.
const hitRecordSize = 16

const (
	flagQueryFlip byte = 1 << 0
	flagRevStrand byte = 1 << 1
)

// runFilePath returns the per-split run-file path (spec.md §4.6 "serialize
// the split's deduplicated hits to a run file `<db>_split_<n>`").
func runFilePath(dbPath string, splitIndex int) string {
	return fmt.Sprintf("%s_split_%d", dbPath, splitIndex)
}

// doneMarkerPath returns the restart-skip marker for a split (spec.md §4.6
// "create a marker `<db>_split_<n>.done`").
func doneMarkerPath(dbPath string, splitIndex int) string {
	return runFilePath(dbPath, splitIndex) + ".done"
}

// splitDone reports whether a split's run file and marker both already
// exist, so a restarted process can skip it (spec.md §4.6 "Cancellation /
// timeout").
func splitDone(dbPath string, splitIndex int) bool {
	if _, err := os.Stat(runFilePath(dbPath, splitIndex)); err != nil {
		return false
	}
	_, err := os.Stat(doneMarkerPath(dbPath, splitIndex))
	return err == nil
}

// writeRunFile serializes hits to the split's run file as one
// Snappy-compressed block (spec.md §4.1 "may be Snappy-compressed"),
// mirroring the teacher's sortShardWriter.writeBlock, and marks the split
// done.
func writeRunFile(dbPath string, splitIndex int, hits []seqpb.CandidateHit) error {
	raw := make([]byte, len(hits)*hitRecordSize)
	for i, h := range hits {
		encodeHit(raw[i*hitRecordSize:(i+1)*hitRecordSize], h)
	}
	compressed := snappy.Encode(nil, raw)

	path := runFilePath(dbPath, splitIndex)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, uint32(len(raw)))
	if _, err := f.Write(header); err != nil {
		f.Close() // nolint: errcheck
		return err
	}
	if _, err := f.Write(compressed); err != nil {
		f.Close() // nolint: errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	marker, err := os.Create(doneMarkerPath(dbPath, splitIndex))
	if err != nil {
		return err
	}
	return marker.Close()
}

func encodeHit(buf []byte, h seqpb.CandidateHit) {
	binary.LittleEndian.PutUint32(buf[0:4], h.RepID)
	binary.LittleEndian.PutUint32(buf[4:8], h.TargetID)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.Diagonal))
	binary.LittleEndian.PutUint16(buf[12:14], uint16(h.Score))
	var flags byte
	if h.QueryFlip {
		flags |= flagQueryFlip
	}
	if h.RevStrand {
		flags |= flagRevStrand
	}
	buf[14] = flags
	buf[15] = 0
}

func decodeHit(buf []byte) seqpb.CandidateHit {
	flags := buf[14]
	return seqpb.CandidateHit{
		RepID:     binary.LittleEndian.Uint32(buf[0:4]),
		TargetID:  binary.LittleEndian.Uint32(buf[4:8]),
		Diagonal:  int32(binary.LittleEndian.Uint32(buf[8:12])),
		Score:     int16(binary.LittleEndian.Uint16(buf[12:14])),
		QueryFlip: flags&flagQueryFlip != 0,
		RevStrand: flags&flagRevStrand != 0,
	}
}

// runFileReader walks the records of one Snappy-decompressed run-file block
// in memory, mirroring the role of groupbuilder's shardReader / the
// teacher's sortShardReader.
type runFileReader struct {
	raw     []byte
	pos     int
	cur     seqpb.CandidateHit
	hasCur  bool
	drained bool
}

func openRunFile(path string) (*runFileReader, error) {
	blob, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(blob) < 4 {
		return &runFileReader{drained: true}, nil
	}
	rawLen := binary.LittleEndian.Uint32(blob[:4])
	raw, err := snappy.Decode(make([]byte, rawLen), blob[4:])
	if err != nil {
		return nil, err
	}
	return &runFileReader{raw: raw}, nil
}

func (r *runFileReader) scan() bool {
	if r.drained || r.pos+hitRecordSize > len(r.raw) {
		r.drained = true
		r.hasCur = false
		return false
	}
	r.cur = decodeHit(r.raw[r.pos : r.pos+hitRecordSize])
	r.pos += hitRecordSize
	r.hasCur = true
	return true
}
