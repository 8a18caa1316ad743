package core

import "errors"

// Frame is a raw text payload (one websocket message).
type Frame []byte

var (
	ErrBackpressure  = errors.New("backpressure")
	ErrSessionClosed = errors.New("session closed")
)

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
