package app

import (
	"context"

	"github.com/dkeye/Switchboard/internal/core"
	"github.com/dkeye/Switchboard/internal/dispatch"
)

type EchoHandler struct{}

func (EchoHandler) Tag() dispatch.Tag { return TagEcho }

func (EchoHandler) Execute(_ context.Context, s core.Session, msg *EchoRequest) error {
	send(s, string(TagEcho), EchoReply{Text: *msg.Text})
	return nil
}
