package core

type SessionID string

// Attribute keys stashed on a session during the HTTP handshake.
const (
	AttrAccessToken = "accessToken"
	AttrRemoteAddr  = "remoteAddr"
)

// Session is one live connection as seen by the dispatcher and handlers.
// It is owned by the transport adapter; everyone else holds a borrowed reference.
type Session interface {
	ID() SessionID
	// Attribute returns a value negotiated before the first frame was read.
	Attribute(key string) (any, bool)
	Send(Frame) error
	Close()
	IsClosed() bool
}
