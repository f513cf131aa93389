// Command createsubdb extracts a subset of a sequence database's entries,
// named by key in a plain-text order file (one key per line), into a new
// database. A key with no matching entry is a warning, not a fatal error,
// matching the original createsubdb.cpp's non-strict lookup.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/grailbio/seqcluster/store"
)

var (
	orderPath  = flag.String("order", "", "path to a text file of keys, one per line, naming the subset to extract")
	srcPath    = flag.String("db", "", "path prefix of the source database")
	outPath    = flag.String("output", "", "path prefix of the output database")
	compressed = flag.Int("compressed", 1, "0/1: zstd-compress the output database")
)

func main() {
	flag.Parse()
	cleanup := grail.Init()
	defer cleanup()

	if *orderPath == "" || *srcPath == "" || *outPath == "" {
		log.Fatal("-order, -db and -output are all required")
	}

	keys, err := readOrderFile(*orderPath)
	if err != nil {
		log.Fatalf("reading order file %s: %v", *orderPath, err)
	}

	src, err := store.Open(*srcPath, store.DataAndIndex, true)
	if err != nil {
		log.Fatalf("opening %s: %v", *srcPath, err)
	}
	defer src.Close() // nolint: errcheck

	w, err := store.NewShardWriter(*outPath, 0, *compressed == 1)
	if err != nil {
		log.Fatalf("opening output writer: %v", err)
	}

	var written, missing int
	for _, key := range keys {
		payload, err := src.Get(key)
		if err != nil {
			if _, ok := err.(store.KeyNotFoundError); ok {
				log.Error.Printf("key %d not found in %s; skipping", key, *srcPath)
				missing++
				continue
			}
			log.Fatalf("reading key %d: %v", key, err)
		}
		w.Append(key, payload)
		written++
	}

	if err := w.Err(); err != nil {
		log.Fatalf("writing subset: %v", err)
	}
	if err := w.Close(); err != nil {
		log.Fatalf("closing shard: %v", err)
	}
	if err := store.CloseShards(*outPath, 1, src.DBType(), store.SortByKey); err != nil {
		log.Fatalf("finalizing %s: %v", *outPath, err)
	}
	log.Printf("createsubdb: %d entries written, %d keys missing", written, missing)
}

func readOrderFile(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() // nolint: errcheck

	var keys []uint32
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		key, err := strconv.ParseUint(line, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("createsubdb: malformed key %q: %w", line, err)
		}
		keys = append(keys, uint32(key))
	}
	return keys, scanner.Err()
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: createsubdb -order <path> -db <path> -output <path> [flags]\n")
	flag.PrintDefaults()
}

func init() {
	flag.Usage = usage
}
