package store

import "encoding/binary"

// indexRecordSize is the on-disk width of one index record (spec.md §6):
// key:u32 LE, offset:u64 LE, length:u64 LE.
const indexRecordSize = 4 + 8 + 8

// indexRecord is one entry of the index file (spec.md §3 the store's index
// array, spec.md §6 "<db>.index").
type indexRecord struct {
	Key    uint32
	Offset uint64
	Length uint64 // includes the trailing null byte
}

func encodeIndexRecord(buf []byte, r indexRecord) {
	binary.LittleEndian.PutUint32(buf[0:4], r.Key)
	binary.LittleEndian.PutUint64(buf[4:12], r.Offset)
	binary.LittleEndian.PutUint64(buf[12:20], r.Length)
}

func decodeIndexRecord(buf []byte) indexRecord {
	return indexRecord{
		Key:    binary.LittleEndian.Uint32(buf[0:4]),
		Offset: binary.LittleEndian.Uint64(buf[4:12]),
		Length: binary.LittleEndian.Uint64(buf[12:20]),
	}
}

// indexView is a borrowed, read-only view over a mapped index file: a slice
// of indexRecord without incurring a conversion/copy cost for the whole
// array (cf. biopb's un-copied record semantics and
// fusion/kmer_index.go's raw unsafe.Pointer table view — here we stay
// within the encoding/binary bounds-checked path since index lookups are not
// the per-kmer hot path, only per-Get).
type indexView struct {
	raw []byte // indexRecordSize * n bytes
}

func (v indexView) len() int { return len(v.raw) / indexRecordSize }

func (v indexView) at(i int) indexRecord {
	off := i * indexRecordSize
	return decodeIndexRecord(v.raw[off : off+indexRecordSize])
}

// findKey does a binary search for key, assuming the index is sorted by Key
// ascending (spec.md §4.1 "optional sort-by-key"). ok is false when binary
// search does not find key, which can also happen for a present key if the
// index is not actually sorted. Store.Get uses it only for stores opened
// with sortByKey and uses findKeyLinear otherwise; neither falls back to
// the other.
func (v indexView) findKeySorted(key uint32) (indexRecord, bool) {
	lo, hi := 0, v.len()
	for lo < hi {
		mid := (lo + hi) / 2
		r := v.at(mid)
		switch {
		case r.Key == key:
			return r, true
		case r.Key < key:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return indexRecord{}, false
}

func (v indexView) findKeyLinear(key uint32) (indexRecord, bool) {
	for i := 0; i < v.len(); i++ {
		if r := v.at(i); r.Key == key {
			return r, true
		}
	}
	return indexRecord{}, false
}
