package store

import (
	"io/ioutil"
	"os"
	"testing"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "seqcluster-store-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir + "/db"
}

func TestAppendCloseGet(t *testing.T) {
	dbPath := tempDBPath(t)
	w, err := NewShardWriter(dbPath, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	w.Append(1, []byte("hello"))
	w.Append(2, []byte("world"))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := CloseShards(dbPath, 1, 'A', SortByKey); err != nil {
		t.Fatal(err)
	}

	s, err := Open(dbPath, DataAndIndex, true)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close() // nolint: errcheck

	if s.DBType() != 'A' {
		t.Fatalf("unexpected dbtype %v", s.DBType())
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}
	got, err := s.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q", got)
	}
	got, err = s.Get(2)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "world" {
		t.Fatalf("got %q", got)
	}
	if _, err := s.Get(3); err == nil {
		t.Fatal("expected KeyNotFoundError for missing key")
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	dbPath := tempDBPath(t)
	w, err := NewShardWriter(dbPath, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte('A' + i%4)
	}
	w.Append(7, payload)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := CloseShards(dbPath, 1, 'N', SortNone); err != nil {
		t.Fatal(err)
	}
	s, err := Open(dbPath, DataAndIndex, false)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close() // nolint: errcheck
	got, err := s.Get(7)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload) {
		t.Fatal("compressed round trip mismatch")
	}
}

func TestParallelShardsMergeOnClose(t *testing.T) {
	dbPath := tempDBPath(t)
	const nThreads = 4
	for t1 := 0; t1 < nThreads; t1++ {
		w, err := NewShardWriter(dbPath, t1, false)
		if err != nil {
			t.Fatal(err)
		}
		w.Append(uint32(t1*2), []byte("a"))
		w.Append(uint32(t1*2+1), []byte("b"))
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	if err := CloseShards(dbPath, nThreads, 'N', SortByKey); err != nil {
		t.Fatal(err)
	}
	s, err := Open(dbPath, DataAndIndex, true)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close() // nolint: errcheck
	if s.Len() != nThreads*2 {
		t.Fatalf("expected %d entries, got %d", nThreads*2, s.Len())
	}
	keys := s.Keys()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Fatalf("index not sorted: %v", keys)
		}
	}
}

func TestMergeResultsDuplicateKeys(t *testing.T) {
	dbA := tempDBPath(t)
	wa, _ := NewShardWriter(dbA, 0, false)
	wa.Append(1, []byte("foo"))
	wa.Close() // nolint: errcheck
	CloseShards(dbA, 1, 'N', SortByKey)

	dbB := tempDBPath(t)
	wb, _ := NewShardWriter(dbB, 0, false)
	wb.Append(1, []byte("bar"))
	wb.Append(2, []byte("baz"))
	wb.Close() // nolint: errcheck
	CloseShards(dbB, 1, 'N', SortByKey)

	outDir, err := ioutil.TempDir("", "seqcluster-merge-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(outDir)
	outPath := outDir + "/merged"
	if err := MergeResults([]string{dbA, dbB}, outPath, SortByKey); err != nil {
		t.Fatal(err)
	}
	s, err := Open(outPath, DataAndIndex, true)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close() // nolint: errcheck
	got, err := s.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "foo\x00bar" {
		t.Fatalf("expected merged payload with separator, got %q", got)
	}
	got2, err := s.Get(2)
	if err != nil {
		t.Fatal(err)
	}
	if string(got2) != "baz" {
		t.Fatalf("got %q", got2)
	}
}
