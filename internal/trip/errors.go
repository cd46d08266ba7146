package trip

import (
	"errors"
)

// ErrorKind classifies fatal pipeline failures.
type ErrorKind int

const (
	// KindEmptyInput means no photos were supplied.
	KindEmptyInput ErrorKind = iota + 1
	// KindInvalidInput means a required request field was missing.
	KindInvalidInput
	// KindAllAnalysesFailed means no photo survived analysis.
	KindAllAnalysesFailed
	// KindCompositionFailed means the narrative call failed or timed out.
	KindCompositionFailed
	// KindPersistenceFailed means a blob or record write failed and was rolled back.
	KindPersistenceFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindEmptyInput:
		return "EmptyInput"
	case KindInvalidInput:
		return "InvalidInput"
	case KindAllAnalysesFailed:
		return "AllAnalysesFailed"
	case KindCompositionFailed:
		return "CompositionFailed"
	case KindPersistenceFailed:
		return "PersistenceFailed"
	default:
		return "Unknown"
	}
}

// PipelineError is the single error surfaced by a failed CreateAutoTrip.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is matches any PipelineError of the same kind, so the sentinels below work
// with errors.Is.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrEmptyInput        = &PipelineError{Kind: KindEmptyInput}
	ErrInvalidInput      = &PipelineError{Kind: KindInvalidInput}
	ErrAllAnalysesFailed = &PipelineError{Kind: KindAllAnalysesFailed}
	ErrCompositionFailed = &PipelineError{Kind: KindCompositionFailed}
	ErrPersistenceFailed = &PipelineError{Kind: KindPersistenceFailed}
)

// ErrTripNotFound is returned by read and delete operations for unknown trips.
var ErrTripNotFound = errors.New("trip not found")

// KindOf extracts the ErrorKind from err, if it wraps a PipelineError.
func KindOf(err error) (ErrorKind, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

func newPipelineError(kind ErrorKind, message string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Err: err}
}
