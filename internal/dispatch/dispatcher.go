package dispatch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dkeye/Switchboard/internal/core"
	"github.com/dkeye/Switchboard/internal/metrics"
	"github.com/dkeye/Switchboard/internal/protocol"
)

// TracerName is the instrumentation name of dispatch spans.
const TracerName = "github.com/dkeye/Switchboard/internal/dispatch"

// Opener builds the message dispatched when a session opens, usually from
// attributes negotiated during the handshake. Returning nil skips dispatch.
type Opener func(s core.Session) Message

// DropHook observes frames that were dropped without reaching a handler.
type DropHook func(s core.Session, tag Tag, err error)

type CloseHook func(s core.Session)

type Option func(*Dispatcher)

func WithCodec(c protocol.Codec) Option {
	return func(d *Dispatcher) { d.codec = c }
}

func WithOpener(o Opener) Option {
	return func(d *Dispatcher) { d.opener = o }
}

func WithDropHook(h DropHook) Option {
	return func(d *Dispatcher) { d.onDrop = h }
}

func WithCloseHook(h CloseHook) Option {
	return func(d *Dispatcher) { d.onClose = append(d.onClose, h) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) { d.tracer = t }
}

// Dispatcher is shared by all sessions. It holds no per-session state; callers
// must feed frames of one session sequentially to keep them in order.
type Dispatcher struct {
	registry *Registry
	codec    protocol.Codec
	opener   Opener
	onDrop   DropHook
	onClose  []CloseHook
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

func New(reg *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		codec:    protocol.NewJSONCodec(),
		tracer:   otel.Tracer(TracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Registry() *Registry { return d.registry }

// OnFrame routes one inbound text frame. Malformed, unroutable and
// undecodable frames are dropped and nil is returned; only a handler failure
// comes back, as *ExecutionError.
func (d *Dispatcher) OnFrame(ctx context.Context, s core.Session, raw core.Frame) error {
	env, err := protocol.DecodeEnvelope(raw)
	if err != nil {
		d.drop(s, "", metrics.OutcomeMalformed, err)
		return nil
	}
	tag := Tag(env.Type)

	route, ok := d.registry.Lookup(tag)
	if !ok {
		d.drop(s, tag, metrics.OutcomeUnroutable, fmt.Errorf("%w: %q", ErrUnroutableTag, tag))
		return nil
	}

	msg, err := route.decode(d.codec, env.RawBody())
	if err != nil {
		d.drop(s, tag, metrics.OutcomePayloadMalformed, fmt.Errorf("%w: %s: %v", ErrPayloadDecode, tag, err))
		return nil
	}
	return d.invoke(ctx, s, route, msg)
}

// OnOpen dispatches the opener's message straight to its handler; there is no
// envelope or body to decode.
func (d *Dispatcher) OnOpen(ctx context.Context, s core.Session) error {
	log.Info().Str("module", "dispatch").Str("sid", string(s.ID())).Msg("session opened")
	if d.opener == nil {
		return nil
	}
	msg := d.opener(s)
	if msg == nil {
		return nil
	}

	route, ok := d.registry.Lookup(msg.Tag())
	if !ok {
		log.Error().Str("module", "dispatch").Str("sid", string(s.ID())).Str("tag", string(msg.Tag())).
			Msg("no handler for open message, session stays unauthenticated")
		return nil
	}
	if got := reflect.TypeOf(msg); got != route.payloadType {
		log.Error().Str("module", "dispatch").Str("tag", string(route.tag)).
			Str("got", got.String()).Str("want", route.payloadType.String()).Msg("open message type mismatch")
		return nil
	}
	return d.invoke(ctx, s, route, msg)
}

// OnClose is a lifecycle notification only.
func (d *Dispatcher) OnClose(s core.Session) {
	log.Info().Str("module", "dispatch").Str("sid", string(s.ID())).Msg("session closed")
	for _, h := range d.onClose {
		h(s)
	}
}

func (d *Dispatcher) invoke(ctx context.Context, s core.Session, route *Route, msg Message) error {
	ctx, span := d.tracer.Start(ctx, "dispatch "+string(route.tag), trace.WithAttributes(
		attribute.String("session.id", string(s.ID())),
		attribute.String("message.tag", string(route.tag)),
	))
	defer span.End()

	start := time.Now()
	err := route.execute(ctx, s, msg)
	d.metrics.ObserveHandler(string(route.tag), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.metrics.Frame(metrics.OutcomeFailed)
		return &ExecutionError{Tag: route.tag, Err: err}
	}
	d.metrics.Frame(metrics.OutcomeDispatched)
	log.Debug().Str("module", "dispatch").Str("sid", string(s.ID())).Str("tag", string(route.tag)).Msg("dispatched")
	return nil
}

func (d *Dispatcher) drop(s core.Session, tag Tag, outcome string, err error) {
	d.metrics.Frame(outcome)
	ev := log.Error()
	if errors.Is(err, ErrUnroutableTag) {
		ev = log.Warn()
	}
	ev.Err(err).Str("module", "dispatch").Str("sid", string(s.ID())).Str("tag", string(tag)).Msg("frame dropped")
	if d.onDrop != nil {
		d.onDrop(s, tag, err)
	}
}
