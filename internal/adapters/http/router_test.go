package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dkeye/Switchboard/internal/adapters/signal"
	"github.com/dkeye/Switchboard/internal/app"
	"github.com/dkeye/Switchboard/internal/config"
	"github.com/dkeye/Switchboard/internal/core"
	"github.com/dkeye/Switchboard/internal/dispatch"
	"github.com/dkeye/Switchboard/internal/metrics"
)

type wireEnvelope struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)
	reg := app.NewRegistry()
	d, err := app.NewDispatcher(reg, app.SimplePolicy{}, dispatch.DuplicateReject,
		dispatch.WithMetrics(m),
		dispatch.WithDropHook(func(s core.Session, tag dispatch.Tag, err error) {
			app.SendError(s, string(tag), err)
		}),
	)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}

	ctrl := signal.NewSignalWSController(d, nil, m, nil, signal.Options{PingPeriod: time.Second})
	cfg := &config.Config{Mode: "test", StaticPath: t.TempDir(), Secret: "test-secret"}

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(SetupRouter(ctx, cfg, ctrl, promReg))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	if token != "" {
		url += "?accessToken=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readType(t *testing.T, conn *websocket.Conn, want string) json.RawMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		var env wireEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("bad frame %s: %v", data, err)
		}
		if env.Type == want {
			return env.Body
		}
	}
}

func TestWebsocketAuthOnConnect(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, "tok123")

	var resp app.AuthResponse
	if err := json.Unmarshal(readType(t, conn, app.TagAuthResponse), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != app.CodeOK {
		t.Errorf("auth code = %d, want %d", resp.Code, app.CodeOK)
	}

	var notice app.UserJoinNotice
	if err := json.Unmarshal(readType(t, conn, app.TagUserJoinNotice), &notice); err != nil {
		t.Fatal(err)
	}
	if notice.Nickname != "tok123" {
		t.Errorf("nickname = %q, want tok123", notice.Nickname)
	}
}

func TestWebsocketEchoSurvivesBadFrames(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, "")
	readType(t, conn, app.TagAuthResponse)

	bad := []string{
		`{"type":"UNKNOWN","body":{}}`,
		`{"type":"ECHO","body":{"wrongField":1}}`,
		`not json`,
	}
	for _, f := range bad {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
		readType(t, conn, app.TagError)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ECHO","body":{"text":"hi"}}`)); err != nil {
		t.Fatal(err)
	}
	var echo app.EchoReply
	if err := json.Unmarshal(readType(t, conn, string(app.TagEcho)), &echo); err != nil {
		t.Fatal(err)
	}
	if echo.Text != "hi" {
		t.Errorf("echo text = %q, want hi", echo.Text)
	}
}

func TestWebsocketSendToOne(t *testing.T) {
	srv := newTestServer(t)
	alice := dial(t, srv, "alice")
	readType(t, alice, app.TagAuthResponse)
	bob := dial(t, srv, "bob")
	readType(t, bob, app.TagAuthResponse)

	msg := `{"type":"SEND_TO_ONE","body":{"toUser":"bob","msgId":"m1","content":"hello bob"}}`
	if err := alice.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatal(err)
	}

	var got app.SendToUser
	if err := json.Unmarshal(readType(t, bob, app.TagSendToUser), &got); err != nil {
		t.Fatal(err)
	}
	if got.From != "alice" || got.Content != "hello bob" {
		t.Errorf("delivered = %+v", got)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "ECHO") {
		t.Errorf("healthz = %d %s", resp.StatusCode, body)
	}

	conn := dial(t, srv, "tok123")
	readType(t, conn, app.TagAuthResponse)

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "switchboard_active_sessions") {
		t.Errorf("metrics output missing active sessions gauge")
	}
}
