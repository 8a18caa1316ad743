package protocol

import (
	"errors"
	"testing"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantType string
		wantBody string
		wantErr  bool
	}{
		{name: "object body", raw: `{"type":"ECHO","body":{"text":"hi"}}`, wantType: "ECHO", wantBody: `{"text":"hi"}`},
		{name: "missing body", raw: `{"type":"ECHO"}`, wantType: "ECHO", wantBody: `{}`},
		{name: "null body", raw: `{"type":"ECHO","body":null}`, wantType: "ECHO", wantBody: `{}`},
		{name: "body is left untouched", raw: `{"type":"ECHO","body":[1,2]}`, wantType: "ECHO", wantBody: `[1,2]`},
		{name: "type key matched case-insensitively", raw: `{"TYPE":"ECHO","Body":{"text":"hi"}}`, wantType: "ECHO", wantBody: `{"text":"hi"}`},
		{name: "missing type", raw: `{"body":{}}`, wantErr: true},
		{name: "empty type", raw: `{"type":"","body":{}}`, wantErr: true},
		{name: "non-string type", raw: `{"type":5}`, wantErr: true},
		{name: "not json", raw: `hello`, wantErr: true},
		{name: "json array", raw: `[1,2,3]`, wantErr: true},
		{name: "json null", raw: `null`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedEnvelope) {
					t.Fatalf("DecodeEnvelope() error = %v, want ErrMalformedEnvelope", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeEnvelope() error = %v", err)
			}
			if env.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", env.Type, tt.wantType)
			}
			if got := string(env.RawBody()); got != tt.wantBody {
				t.Errorf("RawBody() = %s, want %s", got, tt.wantBody)
			}
		})
	}
}

func TestEncodeEnvelope(t *testing.T) {
	b, err := EncodeEnvelope("ECHO", map[string]string{"text": "hi"})
	if err != nil {
		t.Fatalf("EncodeEnvelope() error = %v", err)
	}

	env, err := DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("DecodeEnvelope() error = %v", err)
	}
	if env.Type != "ECHO" {
		t.Errorf("Type = %q, want ECHO", env.Type)
	}
	if got := string(env.RawBody()); got != `{"text":"hi"}` {
		t.Errorf("RawBody() = %s", got)
	}

	if _, err := EncodeEnvelope("", nil); !errors.Is(err, ErrMalformedEnvelope) {
		t.Errorf("EncodeEnvelope(\"\") error = %v, want ErrMalformedEnvelope", err)
	}
}
