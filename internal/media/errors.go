package media

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced item doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable indicates a backing source is unreachable or timed out.
	ErrUnavailable = errors.New("source unavailable")

	// ErrUnauthorized indicates the backing source rejected our credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidReference indicates a malformed content reference or a
	// path that failed sanitization.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrResolutionFailed indicates a queueable container yielded no leaves.
	ErrResolutionFailed = errors.New("resolution failed")
)

// SourceError ties a failure to the adapter it came from. Adapter failures
// always carry the source name so composite resolution and the proxy can
// report which integration broke.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Unavailable wraps err as an ErrUnavailable from the named source.
func Unavailable(source string, err error) error {
	return &SourceError{Source: source, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
}

// NotFound reports a missing item on the named source.
func NotFound(source, localID string) error {
	return &SourceError{Source: source, Err: fmt.Errorf("%w: %s", ErrNotFound, localID)}
}

// ErrSource extracts the source name from an error chain, or "" if the
// error did not originate in an adapter.
func ErrSource(err error) string {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Source
	}
	return ""
}
