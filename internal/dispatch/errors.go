package dispatch

import (
	"errors"
	"fmt"
)

var (
	// Per-frame drops. The session stays open.
	ErrUnroutableTag = errors.New("no handler registered for tag")
	ErrPayloadDecode = errors.New("malformed payload")

	// Registration defects, reported by Bind and NewRegistry.
	ErrPayloadResolution = errors.New("cannot resolve payload type")
	ErrDuplicateTag      = errors.New("duplicate tag")
	ErrUnknownTag        = errors.New("tag outside the known set")
	ErrMissingTag        = errors.New("required tag has no handler")

	ErrPayloadMismatch = errors.New("payload type does not match handler")

	// ErrCloseSession may be wrapped by a handler error to ask the transport
	// to close the connection.
	ErrCloseSession = errors.New("close session")
)

// ExecutionError wraps a failure returned by a handler's Execute.
type ExecutionError struct {
	Tag Tag
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("handler %s: %v", e.Tag, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
