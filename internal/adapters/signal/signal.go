package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Switchboard/internal/core"
	"github.com/dkeye/Switchboard/internal/dispatch"
	"github.com/dkeye/Switchboard/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32768
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	return o
}

// ErrorReporter tells the client a frame could not be handled.
type ErrorReporter func(s core.Session, tag dispatch.Tag, err error)

type SignalWSController struct {
	Dispatcher *dispatch.Dispatcher
	Limiter    *SessionRateLimiter
	Metrics    *metrics.Metrics
	Report     ErrorReporter
	Opts       Options
}

func NewSignalWSController(d *dispatch.Dispatcher, limiter *SessionRateLimiter, m *metrics.Metrics, report ErrorReporter, opts Options) *SignalWSController {
	return &SignalWSController{
		Dispatcher: d,
		Limiter:    limiter,
		Metrics:    m,
		Report:     report,
		Opts:       opts.withDefaults(),
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrSessionClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request. Attributes negotiated by the HTTP
// middleware are frozen into the session before the first frame is read.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	attrs := map[string]any{
		core.AttrAccessToken: c.GetString(core.AttrAccessToken),
		core.AttrRemoteAddr:  c.ClientIP(),
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Opts.SendBuffer),
	}
	sess := core.NewSession(sid, conn, attrs)
	ctl.Metrics.SessionOpened()

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sess, conn)
}
