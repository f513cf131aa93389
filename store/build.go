package store

import (
	"io"
	"io/ioutil"
	"os"

	"github.com/grailbio/base/log"
)

// CloseShards implements spec.md §4.1 "close(merge?)": it concatenates the
// shard data files produced by nThreads ShardWriters (preserving byte
// offsets), rebuilds a single index by adjusting each shard's offsets by the
// cumulative size of the preceding shards, optionally sorts the final
// index, and writes the single-byte dbtype file. Shard files are removed
// once folded into the final database.
func CloseShards(dbPath string, nThreads int, dbType byte, order SortOrder) error {
	out, err := os.Create(dbPath)
	if err != nil {
		return newIoError(err, "create", dbPath)
	}
	defer out.Close() // nolint: errcheck

	var records []indexRecord
	var cumOffset uint64
	for t := 0; t < nThreads; t++ {
		dataPath := shardDataPath(dbPath, t)
		indexPath := shardIndexPath(dbPath, t)

		shardData, err := os.Open(dataPath)
		if err != nil {
			return newIoError(err, "open", dataPath)
		}
		n, err := io.Copy(out, shardData)
		shardData.Close() // nolint: errcheck
		if err != nil {
			return newIoError(err, "copy", dataPath)
		}

		shardIndexBytes, err := readAll(indexPath)
		if err != nil {
			return err
		}
		if len(shardIndexBytes)%indexRecordSize != 0 {
			return newFormatError("store: corrupt shard index", indexPath)
		}
		view := indexView{raw: shardIndexBytes}
		for i := 0; i < view.len(); i++ {
			r := view.at(i)
			r.Offset += cumOffset
			records = append(records, r)
		}
		cumOffset += uint64(n)

		if err := os.Remove(dataPath); err != nil {
			log.Error.Printf("store: failed to remove shard data file %s: %v", dataPath, err)
		}
		if err := os.Remove(indexPath); err != nil {
			log.Error.Printf("store: failed to remove shard index file %s: %v", indexPath, err)
		}
	}

	sortIndexRecords(records, order)
	return writeIndexAndDBType(dbPath, records, dbType)
}

func readAll(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newIoError(err, "open", path)
	}
	defer f.Close() // nolint: errcheck
	st, err := f.Stat()
	if err != nil {
		return nil, newIoError(err, "stat", path)
	}
	buf := make([]byte, st.Size())
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, newIoError(err, "read", path)
	}
	return buf, nil
}

func writeIndexAndDBType(dbPath string, records []indexRecord, dbType byte) error {
	idxFile, err := os.Create(dbPath + ".index")
	if err != nil {
		return newIoError(err, "create", dbPath+".index")
	}
	defer idxFile.Close() // nolint: errcheck
	buf := make([]byte, indexRecordSize)
	for _, r := range records {
		encodeIndexRecord(buf, r)
		if _, err := idxFile.Write(buf); err != nil {
			return newIoError(err, "write", dbPath+".index")
		}
	}
	if err := ioutil.WriteFile(dbPath+".dbtype", []byte{dbType}, 0644); err != nil {
		return newIoError(err, "write", dbPath+".dbtype")
	}
	return nil
}
