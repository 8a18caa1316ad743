package app

import (
	"errors"

	"github.com/dkeye/Switchboard/internal/core"
	"github.com/dkeye/Switchboard/internal/protocol"
	"github.com/rs/zerolog/log"
)

// send writes one envelope to s. Delivery failures are logged and ignored:
// the session may already be gone.
func send(s core.Session, tag string, body any) {
	b, err := protocol.EncodeEnvelope(tag, body)
	if err != nil {
		log.Error().Err(err).Str("module", "app").Str("type", tag).Msg("encode reply")
		return
	}
	if err := s.Send(b); err != nil {
		ev := log.Warn()
		if errors.Is(err, core.ErrSessionClosed) {
			ev = log.Debug()
		}
		ev.Err(err).Str("module", "app").Str("sid", string(s.ID())).Str("type", tag).Msg("reply not delivered")
	}
}

// SendError reports a failure to the client as an ERROR envelope.
func SendError(s core.Session, msgType string, err error) {
	send(s, TagError, ErrorNotice{Type: msgType, Error: err.Error()})
}
