package domain

import "errors"

// Error kinds surfaced to callers of the forecast pipeline.
var (
	ErrInvalidLocation   = errors.New("invalid location")
	ErrUpstream          = errors.New("upstream error")
	ErrMalformedResponse = errors.New("malformed response")
)

// ErrLocationNotFound is returned by location lookups that have no match.
var ErrLocationNotFound = errors.New("location not found")

// ForecastError is the single error a forecast query fails with.
// Message is the user-facing text; Err is the underlying cause.
type ForecastError struct {
	Kind    error
	Message string
	Err     error
}

// NewForecastError builds a ForecastError of the given kind.
func NewForecastError(kind error, message string, cause error) *ForecastError {
	return &ForecastError{Kind: kind, Message: message, Err: cause}
}

func (e *ForecastError) Error() string {
	return e.Message
}

func (e *ForecastError) Unwrap() error {
	return e.Err
}

// Is matches the error kind, so errors.Is(err, ErrUpstream) works regardless of cause.
func (e *ForecastError) Is(target error) bool {
	return target == e.Kind
}

// ErrorKind classifies err as one of the pipeline error kinds, or nil.
// A ForecastError reports its own kind even when its cause wraps another kind.
func ErrorKind(err error) error {
	var fe *ForecastError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	for _, kind := range []error{ErrInvalidLocation, ErrMalformedResponse, ErrUpstream} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
