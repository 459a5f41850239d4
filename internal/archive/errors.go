package archive

import (
	"errors"
	"fmt"
)

var (
	// ErrArchiveOpen reports a missing, unreadable, or non-ZIP archive file.
	ErrArchiveOpen = errors.New("cannot open update archive")
	// ErrArchiveCorrupt reports a member that cannot be decoded.
	ErrArchiveCorrupt = errors.New("update archive is corrupt")
)

// OpenError is returned by Open.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("%v %s: %v", ErrArchiveOpen, e.Path, e.Err)
}

func (e *OpenError) Unwrap() []error { return []error{ErrArchiveOpen, e.Err} }

// CorruptError is returned when a member's content cannot be decoded.
type CorruptError struct {
	Entry string
	Err   error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("%v: entry %s: %v", ErrArchiveCorrupt, e.Entry, e.Err)
}

func (e *CorruptError) Unwrap() []error { return []error{ErrArchiveCorrupt, e.Err} }
