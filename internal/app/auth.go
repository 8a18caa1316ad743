package app

import (
	"context"

	"github.com/dkeye/Switchboard/internal/core"
	"github.com/dkeye/Switchboard/internal/dispatch"
	"github.com/dkeye/Switchboard/internal/domain"
	"github.com/dkeye/Switchboard/internal/protocol"
	"github.com/rs/zerolog/log"
)

// AuthHandler binds a session to the user named by its access token and
// announces the new user to everyone already authenticated.
type AuthHandler struct {
	Registry *Registry
	Policy   Policy
}

func (h *AuthHandler) Tag() dispatch.Tag { return TagAuth }

func (h *AuthHandler) Execute(_ context.Context, s core.Session, msg *AuthRequest) error {
	user, err := domain.UserFromToken(msg.AccessToken)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.auth").Str("sid", string(s.ID())).Msg("auth rejected")
		send(s, TagAuthResponse, AuthResponse{Code: CodeFailed, Message: err.Error()})
		return nil
	}

	h.Registry.Add(s)
	h.Registry.BindUser(s.ID(), user)
	send(s, TagAuthResponse, AuthResponse{Code: CodeOK})

	notice, err := protocol.EncodeEnvelope(TagUserJoinNotice, UserJoinNotice{Nickname: user.Username})
	if err != nil {
		return err
	}
	h.Registry.Broadcast("", notice, h.Policy)
	return nil
}

// OpenAuth builds the AUTH message dispatched when a session opens.
func OpenAuth(s core.Session) dispatch.Message {
	return &AuthRequest{AccessToken: core.StringAttribute(s, core.AttrAccessToken)}
}
