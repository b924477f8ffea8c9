// Package cerr defines the back end's error taxonomy (spec §7): a small,
// closed set of error kinds shared by varmap, argloc, isel, and ralloc, in
// the spirit of the teacher's AssemblerError (pkg/z80asm/assembler.go) —
// a struct carrying enough context to format a useful message, wrapped with
// fmt.Errorf("...: %w", err) at call sites rather than caught and retried.
package cerr

import (
	"errors"
	"fmt"
)

// Kind names one of the four back-end error kinds from spec §7.
type Kind int

const (
	// OutOfMemory is any allocation failure inside isel, varmap, argloc, or
	// ralloc. Go's allocator does not expose allocation failure the way the
	// C original's calloc did, but the kind is kept for taxonomy fidelity;
	// no code path in this back end currently returns it.
	OutOfMemory Kind = iota
	// NotFound is a lookup of an IR declaration, record member, or varmap
	// entry that does not exist.
	NotFound
	// InvalidArgument is an internal contract violation: an instruction
	// with the wrong operand kind, or an unrecognised declaration type.
	// These are front-end programming errors; the back end reports and
	// aborts rather than trying to recover.
	InvalidArgument
	// Unsupported is a request the calling convention or frame layout
	// cannot satisfy: an argument list too large to place, or a frame
	// displacement outside [-128, 127].
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case OutOfMemory:
		return "out of memory"
	case NotFound:
		return "not found"
	case InvalidArgument:
		return "invalid argument"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown error"
	}
}

// CompileError is a fatal back-end error carrying its Kind and a formatted
// message. The pipeline prints diagnostics for semantic-origin errors and
// aborts on the first error (spec §6, §7); no CompileError is ever caught
// and retried.
type CompileError struct {
	Kind    Kind
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds a CompileError with a formatted message.
func New(kind Kind, format string, args ...interface{}) error {
	return &CompileError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a CompileError of the given kind, unwrapping
// any fmt.Errorf("...: %w", err) chain a caller built on top of it.
func Is(err error, kind Kind) bool {
	var ce *CompileError
	return errors.As(err, &ce) && ce.Kind == kind
}
