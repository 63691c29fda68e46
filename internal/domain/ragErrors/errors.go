package ragErrors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	UnsupportedFormat      Kind = "unsupported_format"
	ExtractionFailure      Kind = "extraction_failure"
	EmbeddingUnavailable   Kind = "embedding_unavailable"
	EmbeddingRemote        Kind = "embedding_remote_error"
	VectorStoreUnavailable Kind = "vector_store_unavailable"
	VectorStoreRemote      Kind = "vector_store_remote_error"
	GenerationUnavailable  Kind = "generation_unavailable"
	GenerationRemote       Kind = "generation_remote_error"
	NotFound               Kind = "not_found"
	InvalidInput           Kind = "invalid_input"
)

// Reason narrows remote errors and extraction failures.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonRateLimited Reason = "rate_limited"
	ReasonTooLong     Reason = "too_long"
	ReasonGeneric     Reason = "generic"
	ReasonCorruptFile Reason = "corrupt_file"
	ReasonIOFailure   Reason = "io_failure"
)

type Error struct {
	Kind   Kind
	Reason Reason
	Op     string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Reason != ReasonNone {
		msg += "(" + string(e.Reason) + ")"
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind, and on reason when the target carries one, so
// errors.Is(err, ErrNotFound) works for any wrapped NotFound.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == ReasonNone || t.Reason == e.Reason
}

var (
	ErrUnsupportedFormat      = &Error{Kind: UnsupportedFormat}
	ErrExtractionFailure      = &Error{Kind: ExtractionFailure}
	ErrEmbeddingUnavailable   = &Error{Kind: EmbeddingUnavailable}
	ErrEmbeddingRemote        = &Error{Kind: EmbeddingRemote}
	ErrVectorStoreUnavailable = &Error{Kind: VectorStoreUnavailable}
	ErrVectorStoreRemote      = &Error{Kind: VectorStoreRemote}
	ErrGenerationUnavailable  = &Error{Kind: GenerationUnavailable}
	ErrGenerationRemote       = &Error{Kind: GenerationRemote}
	ErrNotFound               = &Error{Kind: NotFound}
	ErrInvalidInput           = &Error{Kind: InvalidInput}

	ErrRateLimited = errors.New("rate limited")
)

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Newf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func Remote(kind Kind, reason Reason, op string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonNone
}

func IsRateLimited(err error) bool {
	return ReasonOf(err) == ReasonRateLimited
}

func IsTooLong(err error) bool {
	return ReasonOf(err) == ReasonTooLong
}
