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

	"github.com/vovakirdan/termchat-server/internal/auth"
	"github.com/vovakirdan/termchat-server/internal/config"
	"github.com/vovakirdan/termchat-server/internal/core"
	"github.com/vovakirdan/termchat-server/internal/log"
	"github.com/vovakirdan/termchat-server/internal/proto"
	"github.com/vovakirdan/termchat-server/internal/store/sqlite"
)

type testEnv struct {
	hub   *core.Hub
	store *sqlite.SQLiteStore
	auth  *auth.Service
	ts    *httptest.Server
	cfg   config.Config
}

// newTestEnv starts a hub backed by in-memory SQLite and serves it over
// httptest. mutate adjusts the configuration before the server is built.
func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.JWTSecret = "test-secret"
	cfg.AdminSecret = "s3cret"
	if mutate != nil {
		mutate(&cfg)
	}

	st, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	logger := log.Nop()
	hub := core.NewHub(st, st,
		core.WithLogger(logger),
		core.WithHistoryLimit(cfg.HistoryLimit),
		core.WithAdminSecret(cfg.AdminSecret),
	)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	server := NewServer(hub, authService, &cfg, logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{hub: hub, store: st, auth: authService, ts: ts, cfg: cfg}
}

func (e *testEnv) wsURL() string {
	return strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
}

func (e *testEnv) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, e.wsURL(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()

	token, err := e.auth.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return token
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

type rawOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

// readUntil reads frames until match accepts one.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, match func(rawOutbound) bool) rawOutbound {
	t.Helper()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	for {
		var out rawOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("read outbound: %v", err)
		}
		if match(out) {
			return out
		}
	}
}

// readEvent reads until an event named name arrives and decodes its data into v.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, name string, v any) {
	t.Helper()

	out := readUntil(t, ctx, conn, func(o rawOutbound) bool {
		return o.Type == proto.OutboundTypeEvent && o.Event == name
	})
	if v == nil {
		return
	}
	if err := json.Unmarshal(out.Data, v); err != nil {
		t.Fatalf("decode %s: %v", name, err)
	}
}

func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) *proto.Error {
	t.Helper()

	out := readUntil(t, ctx, conn, func(o rawOutbound) bool {
		return o.Type == proto.OutboundTypeError
	})
	if out.Error == nil {
		t.Fatalf("error frame without error body")
	}
	return out.Error
}

// helloAs identifies an anonymous connection and waits for the initial replay.
func helloAs(t *testing.T, ctx context.Context, conn *websocket.Conn, user string) {
	t.Helper()

	send(t, ctx, conn, proto.InboundTypeHello, proto.HelloData{User: user, Protocol: proto.ProtocolVersion})
	readEvent(t, ctx, conn, proto.EventNameHistory, nil)
}
