package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Switchboard/internal/core"
	"github.com/dkeye/Switchboard/internal/dispatch"
	"github.com/dkeye/Switchboard/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) pongWait() time.Duration {
	return ctl.Opts.PingPeriod * 10 / 9
}

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump owns the session: it dispatches the open event, then every frame
// in arrival order, and finally the close event.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sess core.Session, c *WsSignalConn) {
	sid := sess.ID()
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		sess.Close()
		ctl.Limiter.Forget(sid)
		ctl.Metrics.SessionClosed()
		ctl.Dispatcher.OnClose(sess)
	}()

	c.conn.SetReadLimit(ctl.Opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.pongWait()))
	})

	if err := ctl.Dispatcher.OnOpen(ctx, sess); err != nil {
		if !ctl.handleExecError(sess, err) {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			mt, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(ctl.pongWait()))
			if mt != websocket.TextMessage {
				log.Warn().Str("module", "signal").Str("sid", string(sid)).Int("message_type", mt).Msg("non-text frame ignored")
				continue
			}
			if !ctl.Limiter.Allow(sid) {
				ctl.Metrics.Frame(metrics.OutcomeRateLimited)
				log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("rate limit exceeded, frame dropped")
				continue
			}
			if err := ctl.Dispatcher.OnFrame(ctx, sess, core.Frame(data)); err != nil {
				if !ctl.handleExecError(sess, err) {
					return
				}
			}
		}
	}
}

// handleExecError reports a handler failure and says whether the session
// should stay open.
func (ctl *SignalWSController) handleExecError(sess core.Session, err error) bool {
	var tag dispatch.Tag
	var execErr *dispatch.ExecutionError
	if errors.As(err, &execErr) {
		tag = execErr.Tag
	}
	log.Error().Err(err).Str("module", "signal").Str("sid", string(sess.ID())).Str("tag", string(tag)).Msg("handler failed")
	if ctl.Report != nil {
		ctl.Report(sess, tag, err)
	}
	return !errors.Is(err, dispatch.ErrCloseSession)
}
