package service

import (
	"errors"
	"fmt"
)

// Kind names one of the core's error categories, surfaced at the API
// boundary so callers can branch on failure type without string matching.
type Kind string

const (
	// KindIndexFileMissing is raised by Load when one of the three
	// required index files is absent.
	KindIndexFileMissing Kind = "IndexFileMissing"
	// KindUnsupportedSchema is raised by Load when index_meta.json's
	// schema_version is not 1.
	KindUnsupportedSchema Kind = "UnsupportedSchema"
	// KindCorruptIndex is raised by Load when a file's content cannot be
	// parsed as the format it claims to be.
	KindCorruptIndex Kind = "CorruptIndex"
	// KindIoError is raised by Save or Load when a filesystem operation
	// fails.
	KindIoError Kind = "IoError"
)

// Error is the core's typed failure. Err, when set, is the underlying cause
// and is reachable via errors.Unwrap/errors.Is.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// ErrDuplicateDocument is returned by AddDocument when docID was already
// added to this Service instance. Re-adding an id is an open question in
// the specification this core implements; this build rejects it explicitly
// rather than silently corrupting corpus statistics (spec.md §9).
var ErrDuplicateDocument = errors.New("document id already indexed")
