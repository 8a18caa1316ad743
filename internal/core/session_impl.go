package core

import (
	"maps"
	"sync/atomic"
)

// session implements Session over an adapter-owned SignalConnection.
type session struct {
	id     SessionID
	conn   SignalConnection
	attrs  map[string]any
	closed atomic.Bool
}

// NewSession copies attrs; later changes by the caller are not visible to handlers.
func NewSession(id SessionID, conn SignalConnection, attrs map[string]any) Session {
	return &session{id: id, conn: conn, attrs: maps.Clone(attrs)}
}

func (s *session) ID() SessionID { return s.id }

func (s *session) Attribute(key string) (any, bool) {
	v, ok := s.attrs[key]
	return v, ok
}

func (s *session) Send(f Frame) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return s.conn.TrySend(f)
}

func (s *session) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.conn.Close()
	}
}

func (s *session) IsClosed() bool { return s.closed.Load() }

// StringAttribute is a convenience for attributes stored as strings.
func StringAttribute(s Session, key string) string {
	v, ok := s.Attribute(key)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}
