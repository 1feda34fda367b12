package conversation

import "github.com/pkg/errors"

var (
	// ErrNotFound means the referenced conversation does not exist (anymore).
	ErrNotFound = errors.New("conversation not found")
	// ErrTransient marks network level failures. The user may retry, the
	// controller never does.
	ErrTransient = errors.New("transient backend error")
	// ErrSuperseded is returned by LoadExisting when another navigation
	// completed while the fetch was in flight.
	ErrSuperseded = errors.New("superseded by a newer navigation")
)

type ErrorKind string

const (
	ErrorKindNone      ErrorKind = ""
	ErrorKindTransient ErrorKind = "transient"
	ErrorKindNotFound  ErrorKind = "not-found"
	ErrorKindOther     ErrorKind = "other"
)

// Classify maps an error returned by a Messenger onto the error taxonomy.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, ErrNotFound):
		return ErrorKindNotFound
	case errors.Is(err, ErrTransient):
		return ErrorKindTransient
	default:
		return ErrorKindOther
	}
}
