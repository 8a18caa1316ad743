package core

import (
	"errors"
	"testing"
)

type fakeConn struct {
	sent   []Frame
	closed int
	full   bool
}

func (c *fakeConn) TrySend(f Frame) error {
	if c.full {
		return ErrBackpressure
	}
	c.sent = append(c.sent, f)
	return nil
}

func (c *fakeConn) Close() { c.closed++ }

func TestSessionAttributesAreCopied(t *testing.T) {
	attrs := map[string]any{AttrAccessToken: "tok123"}
	s := NewSession("sid-1", &fakeConn{}, attrs)
	attrs[AttrAccessToken] = "changed"

	if got := StringAttribute(s, AttrAccessToken); got != "tok123" {
		t.Errorf("StringAttribute() = %q, want %q", got, "tok123")
	}
	if _, ok := s.Attribute("missing"); ok {
		t.Error("expected missing attribute to be absent")
	}
	if got := StringAttribute(s, "missing"); got != "" {
		t.Errorf("StringAttribute(missing) = %q, want empty", got)
	}
}

func TestSessionSendAfterClose(t *testing.T) {
	conn := &fakeConn{}
	s := NewSession("sid-1", conn, nil)

	if err := s.Send(Frame("a")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	s.Close()
	s.Close()

	if conn.closed != 1 {
		t.Errorf("conn closed %d times, want 1", conn.closed)
	}
	if !s.IsClosed() {
		t.Error("expected session to report closed")
	}
	if err := s.Send(Frame("b")); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Send() after close error = %v, want ErrSessionClosed", err)
	}
	if len(conn.sent) != 1 {
		t.Errorf("sent %d frames, want 1", len(conn.sent))
	}
}

func TestSessionSendBackpressure(t *testing.T) {
	s := NewSession("sid-1", &fakeConn{full: true}, nil)
	if err := s.Send(Frame("a")); !errors.Is(err, ErrBackpressure) {
		t.Errorf("Send() error = %v, want ErrBackpressure", err)
	}
}
