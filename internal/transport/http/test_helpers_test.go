package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/hwstore/hwstore-server/internal/auth"
	"github.com/hwstore/hwstore-server/internal/config"
	"github.com/hwstore/hwstore-server/internal/core"
	"github.com/hwstore/hwstore-server/internal/proto"
	"github.com/hwstore/hwstore-server/internal/store/sqlite"
)

type testServer struct {
	*httptest.Server
	hub  *core.Hub
	auth *auth.Service
	stop context.CancelFunc
}

// testConfig returns defaults with an isolated static dir and a generous rate limit.
func testConfig(t *testing.T) config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.StaticDir = t.TempDir()
	cfg.JWTSecret = "test-secret"
	cfg.JWTIssuer = "test"
	cfg.Chat.EventBuffer = 16
	cfg.RateLimit.Requests = 1000
	return cfg
}

// createTestAuthService creates an auth service over an in-memory store.
func createTestAuthService(t *testing.T, cfg config.Config) *auth.Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return auth.NewService(st, &auth.JWTConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    time.Hour,
	})
}

// startTestServer runs a hub and the full router. Missing services get test defaults.
func startTestServer(t *testing.T, cfg config.Config, svc Services) *testServer {
	t.Helper()

	if svc.Hub == nil {
		svc.Hub = core.NewHub(core.Config{
			DefaultRoom: cfg.Chat.DefaultRoom,
			DefaultName: cfg.Chat.DefaultName,
		}, nil)
	}
	if svc.Auth == nil {
		svc.Auth = createTestAuthService(t, cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Hub.Run(ctx)

	logger := zerolog.Nop()
	server := NewServer(svc, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})

	return &testServer{Server: ts, hub: svc.Hub, auth: svc.Auth, stop: cancel}
}

type wireOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

type wireEvent struct {
	ID       string `json:"id"`
	Room     string `json:"room"`
	Username string `json:"username"`
	Text     string `json:"text"`
	TS       int64  `json:"ts"`
}

func testCtx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func dial(t *testing.T, ts *testServer) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(testCtx(t), wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	var raw json.RawMessage
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal %s data: %v", typ, err)
		}
		raw = payload
	}
	if err := wsjson.Write(testCtx(t), conn, proto.Inbound{Type: typ, Data: raw}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

func readOutbound(t *testing.T, conn *websocket.Conn) wireOutbound {
	t.Helper()

	var out wireOutbound
	if err := wsjson.Read(testCtx(t), conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

// expectEvent reads the next frame and requires it to be the named event.
func expectEvent(t *testing.T, conn *websocket.Conn, name string) wireEvent {
	t.Helper()

	out := readOutbound(t, conn)
	if out.Type != proto.OutboundTypeEvent || out.Event != name {
		t.Fatalf("expected %q event, got %+v (data %s)", name, out, out.Data)
	}
	var ev wireEvent
	if err := json.Unmarshal(out.Data, &ev); err != nil {
		t.Fatalf("unmarshal %s data: %v", name, err)
	}
	return ev
}

func expectError(t *testing.T, conn *websocket.Conn, code string) {
	t.Helper()

	out := readOutbound(t, conn)
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != code {
		t.Fatalf("expected %q error, got %+v", code, out)
	}
}

func joinRoom(t *testing.T, conn *websocket.Conn, room, username string) wireEvent {
	t.Helper()

	send(t, conn, proto.InboundTypeJoin, proto.JoinData{Room: room, Username: username})
	return expectEvent(t, conn, proto.EventNameWelcome)
}

// expectQuiet proves conn received nothing by round-tripping a sentinel message.
func expectQuiet(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	send(t, conn, proto.InboundTypeMessage, "sentinel")
	ev := expectEvent(t, conn, proto.EventNameMessage)
	if ev.Text != "sentinel" {
		t.Fatalf("expected own sentinel first, got %+v", ev)
	}
}
