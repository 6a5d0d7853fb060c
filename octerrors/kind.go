// Package octerrors defines the error kinds surfaced across the module,
// spec.md §7. Kinds are attached to an underlying error via Wrap/Errorf and
// recovered with Kind/Is, following the teacher's github.com/pkg/errors
// wrap-and-unwrap idiom rather than introducing a parallel error hierarchy.
package octerrors

import "github.com/pkg/errors"

// Kind classifies an error for the driver's propagation policy.
type Kind int

const (
	// Unknown is the zero value: no kind was attached.
	Unknown Kind = iota
	// ConfigError is an invalid option or option combination. Aborts before
	// any work begins.
	ConfigError
	// IoError is a read/write failure or missing index. A window whose
	// processing fails with it is logged and skipped, and the pipeline
	// continues on the rest; a failure while fetching a contig's reads or
	// generating its candidates ends the run.
	IoError
	// ReferenceMismatch is a BAM contig absent from the reference FASTA.
	ReferenceMismatch
	// EmptyRegion signals zero reads in a window. Not a failure: the window
	// produces no calls.
	EmptyRegion
	// ModelFailure is numeric non-convergence. The window is logged and
	// skipped (written as no-call), not aborted.
	ModelFailure
	// InternalAssertion is an invariant violation. The program aborts with
	// a diagnostic; this kind should never be handled, only reported.
	InternalAssertion
)

func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "config error"
	case IoError:
		return "io error"
	case ReferenceMismatch:
		return "reference mismatch"
	case EmptyRegion:
		return "empty region"
	case ModelFailure:
		return "model failure"
	case InternalAssertion:
		return "internal assertion"
	default:
		return "unknown"
	}
}

type kindedError struct {
	kind Kind
	err  error
}

func (e *kindedError) Error() string { return e.err.Error() }
func (e *kindedError) Cause() error  { return e.err }
func (e *kindedError) Unwrap() error { return e.err }

// Wrap attaches kind to err, preserving err's message and cause chain. A nil
// err returns nil.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	return &kindedError{kind: kind, err: errors.Wrap(err, message)}
}

// Errorf builds a new error carrying kind.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &kindedError{kind: kind, err: errors.Errorf(format, args...)}
}

// KindOf returns the Kind attached to err, or Unknown if none was attached
// anywhere in its cause chain.
func KindOf(err error) Kind {
	for err != nil {
		if ke, ok := err.(*kindedError); ok {
			return ke.kind
		}
		cause, ok := err.(interface{ Cause() error })
		if !ok {
			break
		}
		err = cause.Cause()
	}
	return Unknown
}

// Is reports whether err carries kind anywhere in its cause chain.
func Is(err error, kind Kind) bool { return KindOf(err) == kind }
