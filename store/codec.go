package store

import (
	"encoding/binary"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// sharedDecoder is a process-wide ZSTD decoder. klauspost/compress/zstd
// documents that a single Decoder's DecodeAll is safe for concurrent use, so
// one decoder is shared across all Store readers rather than allocated per
// Get call, the same way the teacher's recordiozstd transformer is
// registered once at init() time.
var (
	sharedDecoderOnce sync.Once
	sharedDecoderVal  *zstd.Decoder
)

func sharedDecoder() *zstd.Decoder {
	sharedDecoderOnce.Do(func() {
		d, err := zstd.NewReader(nil)
		if err != nil {
			panic(err) // zstd.NewReader(nil) cannot fail in practice.
		}
		sharedDecoderVal = d
	})
	return sharedDecoderVal
}

// decodeZstdFramed decodes one entry whose trailing flag byte marked it as
// ZSTD-compressed: a 4-byte LE length prefix followed by exactly that many
// bytes of ZSTD frame (spec.md §6 "<db>" format).
func decodeZstdFramed(body []byte) ([]byte, error) {
	if len(body) < 4 {
		return nil, newFormatError("store: truncated zstd length prefix")
	}
	n := binary.LittleEndian.Uint32(body[0:4])
	frame := body[4:]
	if uint64(len(frame)) != uint64(n) {
		return nil, newFormatError("store: zstd frame length mismatch")
	}
	out, err := sharedDecoder().DecodeAll(frame, nil)
	if err != nil {
		return nil, newIoError(err, "zstd decode")
	}
	return out, nil
}
