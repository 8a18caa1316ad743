// Package dispatch routes decoded envelopes to handlers bound to a message tag.
//
// A handler is bound with Bind, which captures its payload type from the type
// parameter. The binding is resolved once; a Registry built from the bindings
// is read-only, and a Dispatcher uses it for every frame of every session.
package dispatch

import (
	"context"
	"fmt"
	"reflect"

	"github.com/dkeye/Switchboard/internal/core"
	"github.com/dkeye/Switchboard/internal/protocol"
)

// Tag selects a handler and a payload shape.
type Tag string

// Message is a payload shape. Tag must be answerable on a freshly allocated value.
type Message interface {
	Tag() Tag
}

// Handler executes application logic for one payload type.
type Handler[M Message] interface {
	Tag() Tag
	Execute(ctx context.Context, s core.Session, msg M) error
}

// HandlerFunc adapts a function to Handler; its tag is the payload's tag.
type HandlerFunc[M Message] func(ctx context.Context, s core.Session, msg M) error

func (f HandlerFunc[M]) Tag() Tag {
	t := reflect.TypeFor[M]()
	if t.Kind() == reflect.Interface {
		return ""
	}
	return newPayload[M](t).Tag()
}

func (f HandlerFunc[M]) Execute(ctx context.Context, s core.Session, msg M) error {
	return f(ctx, s, msg)
}

// Route is a handler bound to its tag and resolved payload type.
type Route struct {
	tag         Tag
	payloadType reflect.Type
	handler     string
	decode      func(c protocol.Codec, raw []byte) (Message, error)
	execute     func(ctx context.Context, s core.Session, msg Message) error
	err         error
}

func (r *Route) Tag() Tag                  { return r.tag }
func (r *Route) PayloadType() reflect.Type { return r.payloadType }
func (r *Route) Handler() string           { return r.handler }

// Err reports a resolution failure; NewRegistry refuses routes that carry one.
func (r *Route) Err() error { return r.err }

// Bind resolves the payload type of h and checks that the handler and the
// payload agree on the tag.
func Bind[M Message](h Handler[M]) Route {
	t := reflect.TypeFor[M]()
	r := Route{payloadType: t, handler: fmt.Sprintf("%T", h)}

	if isNil(h) {
		r.err = fmt.Errorf("%w: nil handler for %s", ErrPayloadResolution, t)
		return r
	}
	if t.Kind() == reflect.Interface {
		r.err = fmt.Errorf("%w: %s declares interface payload %s", ErrPayloadResolution, r.handler, t)
		return r
	}
	msgTag := newPayload[M](t).Tag()
	if msgTag == "" {
		r.err = fmt.Errorf("%w: payload %s has an empty tag", ErrPayloadResolution, t)
		return r
	}
	if ht := h.Tag(); ht != msgTag {
		r.err = fmt.Errorf("%w: %s serves %q but payload %s is %q", ErrPayloadResolution, r.handler, ht, t, msgTag)
		return r
	}
	r.tag = msgTag

	r.decode = func(c protocol.Codec, raw []byte) (Message, error) {
		if t.Kind() == reflect.Pointer {
			m := newPayload[M](t)
			if err := c.Unmarshal(raw, m); err != nil {
				return nil, err
			}
			return m, nil
		}
		var m M
		if err := c.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return m, nil
	}
	r.execute = func(ctx context.Context, s core.Session, msg Message) error {
		m, ok := msg.(M)
		if !ok {
			return fmt.Errorf("%w: got %T, want %s", ErrPayloadMismatch, msg, t)
		}
		return h.Execute(ctx, s, m)
	}
	return r
}

func newPayload[M Message](t reflect.Type) M {
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface().(M)
	}
	var m M
	return m
}

func isNil(h any) bool {
	if h == nil {
		return true
	}
	v := reflect.ValueOf(h)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Interface:
		return v.IsNil()
	}
	return false
}
