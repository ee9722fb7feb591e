package cdf

import (
	"errors"
	"fmt"
)

// Error category roots. Every failure surfaced by this package wraps one of
// these, so callers can classify with errors.Is.
var (
	// ErrFormat marks unrecoverable binary-layout failures: bad magic,
	// unsupported legacy encodings, multi-file CDFs, unknown type codes.
	ErrFormat = errors.New("invalid or unsupported CDF format")

	// ErrChecksum marks an MD5 trailer mismatch at open.
	ErrChecksum = errors.New("checksum mismatch")

	// ErrNotFound marks a missing variable, attribute or entry.
	ErrNotFound = errors.New("not found")

	// ErrUsage marks a call that cannot be satisfied as asked: ambiguous
	// numeric indexing, conflicting range arguments, writes after close,
	// duplicate names, malformed sparse input.
	ErrUsage = errors.New("invalid usage")
)

// Error carries the failing operation and subject alongside the category.
type Error struct {
	Op   string // public operation, e.g. "varget"
	Name string // variable/attribute name or file path, may be empty
	Err  error
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("cdf: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cdf: %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func opErr(op, name string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Name: name, Err: err}
}
