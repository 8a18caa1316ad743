package app

import (
	"context"

	"github.com/dkeye/Switchboard/internal/core"
	"github.com/dkeye/Switchboard/internal/dispatch"
	"github.com/dkeye/Switchboard/internal/domain"
	"github.com/dkeye/Switchboard/internal/protocol"
	"github.com/rs/zerolog/log"
)

const (
	msgNotAuthenticated = "not authenticated"
	msgUserOffline      = "user offline"
)

type SendToOneHandler struct {
	Registry *Registry
}

func (h *SendToOneHandler) Tag() dispatch.Tag { return TagSendToOne }

func (h *SendToOneHandler) Execute(_ context.Context, s core.Session, msg *SendToOneRequest) error {
	from, ok := h.Registry.UserOf(s.ID())
	if !ok {
		send(s, TagSendResponse, SendResponse{MsgID: msg.MsgID, Code: CodeFailed, Message: msgNotAuthenticated})
		return nil
	}
	target, ok := h.Registry.SessionOf(domain.UserID(msg.ToUser))
	if !ok {
		send(s, TagSendResponse, SendResponse{MsgID: msg.MsgID, Code: CodeFailed, Message: msgUserOffline})
		return nil
	}

	send(s, TagSendResponse, SendResponse{MsgID: msg.MsgID, Code: CodeOK})
	send(target, TagSendToUser, SendToUser{MsgID: msg.MsgID, From: from.Username, Content: msg.Content})
	log.Info().Str("module", "app.send").Str("from", string(from.ID)).Str("to", msg.ToUser).Str("msg_id", msg.MsgID).Msg("send to one")
	return nil
}

type SendToAllHandler struct {
	Registry *Registry
	Policy   Policy
}

func (h *SendToAllHandler) Tag() dispatch.Tag { return TagSendToAll }

func (h *SendToAllHandler) Execute(_ context.Context, s core.Session, msg *SendToAllRequest) error {
	from, ok := h.Registry.UserOf(s.ID())
	if !ok {
		send(s, TagSendResponse, SendResponse{MsgID: msg.MsgID, Code: CodeFailed, Message: msgNotAuthenticated})
		return nil
	}
	send(s, TagSendResponse, SendResponse{MsgID: msg.MsgID, Code: CodeOK})

	frame, err := protocol.EncodeEnvelope(TagSendToUser, SendToUser{MsgID: msg.MsgID, From: from.Username, Content: msg.Content})
	if err != nil {
		return err
	}
	res := h.Registry.Broadcast("", frame, h.Policy)
	log.Info().Str("module", "app.send").Str("from", string(from.ID)).Str("msg_id", msg.MsgID).Int("sent_to", res.SendTo).Msg("send to all")
	return nil
}
