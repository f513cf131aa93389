package kmerextract

import "github.com/grailbio/base/errors"

// ConfigError signals an Options combination that cannot produce a valid
// extraction (spec.md §7 taxonomy item 3), e.g. an empty pattern or
// nucleotide mode over an alphabet larger than 5.
type ConfigError struct{ error }

func newConfigError(args ...interface{}) error {
	return ConfigError{errors.E(args...)}
}
