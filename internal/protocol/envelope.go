// Package protocol holds the wire envelope and the body codec.
package protocol

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var ErrMalformedEnvelope = errors.New("malformed envelope")

var emptyBody = []byte("{}")

// Envelope is the outer frame: a type tag and a body left undecoded
// until the handler for the tag is known.
type Envelope struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body,omitempty"`
}

// RawBody returns the undecoded body. A missing or null body reads as an empty object.
func (e Envelope) RawBody() []byte {
	b := bytes.TrimSpace(e.Body)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return emptyBody
	}
	return b
}

// DecodeEnvelope parses one inbound text frame. The body is carried forward as-is.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrMalformedEnvelope)
	}
	return env, nil
}

// EncodeEnvelope builds an outbound frame {"type": tag, "body": body}.
func EncodeEnvelope(tag string, body any) ([]byte, error) {
	if tag == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEnvelope)
	}
	out := struct {
		Type string `json:"type"`
		Body any    `json:"body"`
	}{tag, body}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", tag, err)
	}
	return b, nil
}
