// Package store implements the Sequence Store (spec.md §4.1 C1): a
// memory-mapped keyed blob database with parallel append and deterministic
// merge, laid out as a data file, a fixed-width index file, and a one-byte
// database-type-tag file (spec.md §6). It is grounded on the teacher's
// encoding/pam package (sharded mmap-backed record store with a
// shard-index/merge discipline) and on fusion/kmer_index.go's direct
// unix.Mmap usage, generalized from BAM alignment records to opaque
// key-addressed sequence payloads.
package store

import (
	"errors"
	"io/ioutil"
	"sort"

	"golang.org/x/sys/unix"
)

// OpenMode selects what Open maps into memory (spec.md §4.1 "open(mode)").
type OpenMode int

const (
	// IndexOnly maps only the index file; Get is unavailable.
	IndexOnly OpenMode = iota
	// DataAndIndex maps both the data and index files; Get works.
	DataAndIndex
)

// SortOrder controls how the final index is ordered after Close/merge
// (spec.md §4.1 "close(merge?)" and §4.1 "optionally sorts the final index
// by key or by (key, offset)").
type SortOrder int

const (
	// SortNone leaves entries in append order.
	SortNone SortOrder = iota
	// SortByKey sorts by Key ascending.
	SortByKey
	// SortByKeyOffset sorts by (Key, Offset) ascending.
	SortByKeyOffset
)

// Store is a read-only, memory-mapped view of a built Sequence Store
// database (spec.md §3 "Sequence" store, §6 on-disk layout).
type Store struct {
	dir     string
	mode    OpenMode
	dbType  byte
	dataMap *mappedFile // nil if mode == IndexOnly
	index   indexView
	sorted  bool // true if the index is known sorted by Key (binary search ok)

	// indexFile is kept mapped for its lifetime even though indexView only
	// borrows its bytes; see mappedFile's borrowed-slice discipline.
	indexFile *mappedFile
}

// Open memory-maps the data and/or index files of the database rooted at
// path (i.e. path, path+".index", path+".dbtype"). sortByKey requests a
// binary-search-capable Get; it does not re-sort the on-disk index (use
// Close(merge) for that) -- it only asserts the caller's belief the index
// is already sorted.
func Open(path string, mode OpenMode, sortByKey bool) (*Store, error) {
	s := &Store{dir: path, mode: mode, sorted: sortByKey}

	dbTypeBytes, err := ioutil.ReadFile(path + ".dbtype")
	if err != nil {
		return nil, newIoError(err, "read dbtype", path)
	}
	if len(dbTypeBytes) != 1 {
		return nil, newFormatError("store: dbtype file must be exactly one byte:", path)
	}
	s.dbType = dbTypeBytes[0]

	indexAdvice := 0
	if mode == IndexOnly {
		indexAdvice = unix.MADV_SEQUENTIAL
	}
	s.indexFile, err = mmapFile(path+".index", indexAdvice)
	if err != nil {
		return nil, err
	}
	if len(s.indexFile.data)%indexRecordSize != 0 {
		return nil, newFormatError("store: index file size not a multiple of record size:", path)
	}
	s.index = indexView{raw: s.indexFile.data}

	if mode == DataAndIndex {
		s.dataMap, err = mmapFile(path, 0)
		if err != nil {
			s.indexFile.close() // nolint: errcheck
			return nil, err
		}
	}
	return s, nil
}

// DBType returns the single-byte database type tag (spec.md §6
// "<db>.dbtype").
func (s *Store) DBType() byte { return s.dbType }

// Len returns the number of entries in the index.
func (s *Store) Len() int { return s.index.len() }

// Keys returns every key present in the index, in on-disk order.
func (s *Store) Keys() []uint32 {
	keys := make([]uint32, s.index.len())
	for i := range keys {
		keys[i] = s.index.at(i).Key
	}
	return keys
}

// Get returns the raw, decompressed payload for key (spec.md §4.1
// "get(id) -> slice"). It requires Store to have been opened with
// DataAndIndex. A not-found key returns KeyNotFoundError.
func (s *Store) Get(key uint32) ([]byte, error) {
	if s.dataMap == nil {
		return nil, newIoError(errors.New("store: Get requires DataAndIndex open mode"))
	}
	var rec indexRecord
	var ok bool
	if s.sorted {
		rec, ok = s.index.findKeySorted(key)
	} else {
		rec, ok = s.index.findKeyLinear(key)
	}
	if !ok {
		return nil, KeyNotFoundError{Key: key}
	}
	return s.decodeEntry(rec)
}

// decodeEntry slices out one entry's payload at rec.Offset/rec.Length and
// strips/undoes the trailing compression-flag byte.
func (s *Store) decodeEntry(rec indexRecord) ([]byte, error) {
	data := s.dataMap.data
	if rec.Offset+rec.Length > uint64(len(data)) {
		return nil, newFormatError("store: index record out of range", rec.Key)
	}
	entry := data[rec.Offset : rec.Offset+rec.Length]
	if len(entry) == 0 {
		return nil, newFormatError("store: empty entry", rec.Key)
	}
	flag := entry[len(entry)-1]
	body := entry[:len(entry)-1]
	switch flag {
	case flagRaw:
		return body, nil
	case flagCompressed:
		return decodeZstdFramed(body)
	default:
		return nil, newFormatError("store: unknown compression flag", flag, "for key", rec.Key)
	}
}

// Close releases the memory mappings. It does not delete any files.
func (s *Store) Close() error {
	var err error
	if s.dataMap != nil {
		if e := s.dataMap.close(); e != nil {
			err = e
		}
	}
	if e := s.indexFile.close(); e != nil && err == nil {
		err = e
	}
	return err
}

// sortIndexRecords applies the requested SortOrder to recs in place (the
// stable sort preserves append order among ties, satisfying spec.md
// §5's "deterministic given equal keys" ordering guarantee).
func sortIndexRecords(recs []indexRecord, order SortOrder) {
	switch order {
	case SortByKey:
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Key < recs[j].Key })
	case SortByKeyOffset:
		sort.SliceStable(recs, func(i, j int) bool {
			if recs[i].Key != recs[j].Key {
				return recs[i].Key < recs[j].Key
			}
			return recs[i].Offset < recs[j].Offset
		})
	}
}
