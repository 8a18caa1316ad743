package app

import "github.com/dkeye/Switchboard/internal/dispatch"

// Inbound tags.
const (
	TagAuth      dispatch.Tag = "AUTH"
	TagEcho      dispatch.Tag = "ECHO"
	TagSendToOne dispatch.Tag = "SEND_TO_ONE"
	TagSendToAll dispatch.Tag = "SEND_TO_ALL"
)

// Outbound tags.
const (
	TagAuthResponse   = "AUTH_RESPONSE"
	TagSendResponse   = "SEND_RESPONSE"
	TagSendToUser     = "SEND_TO_USER"
	TagUserJoinNotice = "USER_JOIN_NOTICE"
	TagError          = "ERROR"
)

// Reply codes.
const (
	CodeOK     = 0
	CodeFailed = 1
)

// KnownTags is the closed set of inbound tags.
func KnownTags() []dispatch.Tag {
	return []dispatch.Tag{TagAuth, TagEcho, TagSendToOne, TagSendToAll}
}

type AuthRequest struct {
	AccessToken string `json:"accessToken"`
}

func (*AuthRequest) Tag() dispatch.Tag { return TagAuth }

// EchoRequest.Text must be present; an empty string is a valid text.
type EchoRequest struct {
	Text *string `json:"text" validate:"required"`
}

func (*EchoRequest) Tag() dispatch.Tag { return TagEcho }

type SendToOneRequest struct {
	ToUser  string `json:"toUser" validate:"required"`
	MsgID   string `json:"msgId"`
	Content string `json:"content"`
}

func (*SendToOneRequest) Tag() dispatch.Tag { return TagSendToOne }

type SendToAllRequest struct {
	MsgID   string `json:"msgId"`
	Content string `json:"content"`
}

func (*SendToAllRequest) Tag() dispatch.Tag { return TagSendToAll }

type EchoReply struct {
	Text string `json:"text"`
}

type AuthResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

type SendResponse struct {
	MsgID   string `json:"msgId"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

type SendToUser struct {
	MsgID   string `json:"msgId"`
	From    string `json:"from"`
	Content string `json:"content"`
}

type UserJoinNotice struct {
	Nickname string `json:"nickname"`
}

type ErrorNotice struct {
	Type  string `json:"type,omitempty"`
	Error string `json:"error"`
}
