package store

import "github.com/grailbio/base/errors"

// IoError wraps a failure to read, mmap, or write a store file (spec.md §7
// taxonomy item 1).
type IoError struct{ error }

func newIoError(err error, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return IoError{errors.E(append([]interface{}{err}, args...)...)}
}

// FormatError signals a corrupt index record or an unexpected database type
// tag (spec.md §7 taxonomy item 2).
type FormatError struct{ error }

func newFormatError(args ...interface{}) error {
	return FormatError{errors.E(args...)}
}

// KeyNotFoundError is returned by a strict Get when the key is absent from
// the index (spec.md §7 taxonomy item 4).
type KeyNotFoundError struct {
	Key uint32
}

func (e KeyNotFoundError) Error() string {
	return errors.E("store: key not found", e.Key).Error()
}
