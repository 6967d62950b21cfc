// Package jrnl implements a crash-safe write-ahead journal that sits between
// a FAT-like file system and an underlying block device. A transaction
// either appears fully applied to the journaled region, or not at all.
package jrnl

import (
	"fmt"
	"reflect"

	"github.com/dsoprea/go-logging"
)

// Kind enumerates the abstract error categories a caller needs to
// distinguish. See spec §7 for the mapping this follows.
type Kind int

const (
	// InvalidArg covers null/zero-value arguments, out-of-range handles,
	// store_size_sectors < 3, and reads past the target region.
	InvalidArg Kind = iota

	// InvalidState covers an operation invoked while the journal is in the
	// wrong status for it (e.g. Start() when OPEN, Stop() when not OPEN).
	InvalidState

	// NotFound covers a handle index pointing at an empty slot.
	NotFound

	// NoMem covers a full handle table, buffer allocation failure, or a
	// log append for which next_free_sector + 1 + count reaches
	// StoreSizeSectors-1 (the last log sector is never filled).
	NoMem

	// InvalidCRC covers a header or data CRC mismatch encountered during
	// replay.
	InvalidCRC

	// DiskIOError wraps any error surfaced by the underlying DiskIO
	// capability, and is also the catch-all for unclassified failures.
	DiskIOError
)

func (k Kind) String() string {
	switch k {
	case InvalidArg:
		return "InvalidArg"
	case InvalidState:
		return "InvalidState"
	case NotFound:
		return "NotFound"
	case NoMem:
		return "NoMem"
	case InvalidCRC:
		return "InvalidCRC"
	case DiskIOError:
		return "DiskIOError"
	default:
		return "Unknown"
	}
}

// Error is the single error type exported by this package. Callers
// distinguish cases by inspecting Kind; no partial-success reporting is
// exposed (spec §7).
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("jrnl: %s", e.Kind)
	}
	return fmt.Sprintf("jrnl: %s: %s", e.Kind, e.Cause)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// newErr builds a classified error without raising it, for DiskIO
// implementations that return errors rather than participating in this
// package's panic/recover idiom.
func newErr(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Cause: log.Errorf(format, args...)}
}

// NewInvalidArgError builds an exported InvalidArg error, for collaborator
// packages (fatdemo, the cmd tools) that want to surface the same error
// taxonomy without reaching into this package's internals.
func NewInvalidArgError(format string, args ...interface{}) *Error {
	return newErr(InvalidArg, format, args...)
}

// NewNoMemError builds an exported NoMem error.
func NewNoMemError(format string, args ...interface{}) *Error {
	return newErr(NoMem, format, args...)
}

// NewNotFoundError builds an exported NotFound error.
func NewNotFoundError(format string, args ...interface{}) *Error {
	return newErr(NotFound, format, args...)
}

// panicKind raises a classified error. Used for conditions this package
// itself detects (bad arguments, wrong status, CRC mismatch, ...).
func panicKind(kind Kind, format string, args ...interface{}) {
	panic(&Error{Kind: kind, Cause: log.Errorf(format, args...)})
}

// panicIf panics with a DiskIOError-classified *Error if err is non-nil. Used
// at every call into the DiskIO capability, mirroring the teacher's
// log.PanicIf(err) idiom throughout structures.go/navigator.go.
func panicIf(err error) {
	if err == nil {
		return
	}
	if je, ok := err.(*Error); ok {
		panic(je)
	}
	panic(&Error{Kind: DiskIOError, Cause: log.Wrap(err)})
}

// recoverErr recovers a panic raised via panicIf/panicKind (or any stray
// panic) and assigns it to *errp. It must be deferred at the top of every
// exported function that may call panicIf/panicKind, directly or
// transitively — the same shape as the teacher's per-function
// `defer func() { if errRaw := recover(); ... }()` blocks.
func recoverErr(errp *error) {
	state := recover()
	if state == nil {
		return
	}

	if je, ok := state.(*Error); ok {
		*errp = je
		return
	}

	if err, ok := state.(error); ok {
		*errp = &Error{Kind: DiskIOError, Cause: log.Wrap(err)}
		return
	}

	*errp = &Error{Kind: DiskIOError, Cause: log.Errorf("panic value not an error: [%s] [%v]", reflect.TypeOf(state), state)}
}
