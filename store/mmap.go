package store

import (
	"os"

	"github.com/grailbio/base/log"
	"golang.org/x/sys/unix"
)

// mappedFile is a read-only memory-mapped file, released by close(). It
// follows the same mmap/madvise/munmap discipline as the teacher's
// fusion.kmerIndex (which maps an anonymous region); here the mapping backs
// an actual on-disk file, so no MAP_ANON flag is used.
type mappedFile struct {
	f    *os.File
	data []byte
}

// mmapFile opens and fully maps path read-only. advice, if non-zero, is
// passed to madvise (e.g. unix.MADV_SEQUENTIAL for index files that are
// scanned linearly during a merge pass, per spec.md §4.6).
func mmapFile(path string, advice int) (*mappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newIoError(err, "open", path)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close() // nolint: errcheck
		return nil, newIoError(err, "stat", path)
	}
	size := st.Size()
	if size == 0 {
		// mmap of a zero-length file fails on Linux; treat as an empty map.
		return &mappedFile{f: f, data: nil}, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close() // nolint: errcheck
		return nil, newIoError(err, "mmap", path)
	}
	if advice != 0 {
		if err := unix.Madvise(data, advice); err != nil {
			// Advisory only; log and continue, matching the teacher's
			// treatment of MADV_HUGEPAGE failures as non-fatal.
			log.Error.Printf("store: madvise %s failed: %v", path, err)
		}
	}
	return &mappedFile{f: f, data: data}, nil
}

func (m *mappedFile) close() error {
	var err error
	if m.data != nil {
		if e := unix.Munmap(m.data); e != nil {
			err = newIoError(e, "munmap", m.f.Name())
		}
	}
	if e := m.f.Close(); e != nil && err == nil {
		err = newIoError(e, "close", m.f.Name())
	}
	return err
}
