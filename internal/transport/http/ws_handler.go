package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/termchat-server/internal/auth"
	"github.com/vovakirdan/termchat-server/internal/config"
	"github.com/vovakirdan/termchat-server/internal/core"
	"github.com/vovakirdan/termchat-server/internal/proto"
	"github.com/vovakirdan/termchat-server/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub  *core.Hub
	auth *auth.Service
	cfg  *config.Config
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, auth: authService, cfg: cfg, log: logger}
}

// session is the handshake state of one connection. Only readLoop touches it
// after the upgrade. name is the bound identity, set before its Identify
// command reaches the hub.
type session struct {
	client        *core.Client
	name          string
	authenticated bool
	registered    bool
	limiter       *rateLimiter
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	s := &session{limiter: newRateLimiter(h.cfg.RateLimitPerMinute)}
	if token := r.URL.Query().Get("token"); token != "" {
		claims, err := h.auth.ValidateToken(token)
		if err != nil {
			h.log.Debug().Err(err).Msg("ws upgrade with invalid token")
			stdhttp.Error(w, "invalid token", stdhttp.StatusUnauthorized)
			return
		}
		s.name = claims.Username
		s.authenticated = true
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	s.client = core.NewClient(utils.NewID(), s.name)
	if s.authenticated || !h.cfg.JWTRequired {
		h.register(s)
	}
	defer h.hub.UnregisterClient(s.client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, s)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, s.client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if code := websocket.CloseStatus(err); code != -1 {
			status = code
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			h.log.Warn().Err(err).Str("client_id", s.client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) register(s *session) {
	if s.registered {
		return
	}
	h.hub.RegisterClient(s.client)
	s.registered = true
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, s *session) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			h.log.Debug().Err(err).Str("client_id", s.client.ID).Msg("read ws inbound")
			return err
		}

		if !s.limiter.allow() {
			if err := writeError(ctx, conn, &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many messages"}); err != nil {
				return err
			}
			continue
		}

		var (
			cmd      *core.Command
			protoErr *proto.Error
		)
		switch {
		case inbound.Type == proto.InboundTypeHello:
			cmd, protoErr = h.handleHello(s, inbound.Data)
		case !s.registered:
			protoErr = &proto.Error{Code: core.ErrCodeUnauthorized, Msg: "hello with a valid token required"}
		default:
			cmd, protoErr = inboundToCommand(s.name, inbound)
		}
		if protoErr != nil {
			if err := writeError(ctx, conn, protoErr); err != nil {
				return err
			}
			continue
		}
		if cmd == nil {
			continue
		}

		select {
		case s.client.Commands <- cmd:
		case <-s.client.Closed():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
		if cmd.Kind == core.CommandIdentify {
			h.register(s)
		}
	}
}

// handleHello checks the protocol version and binds an identity to the
// connection, either from a token or, when tokens are optional, from the
// requested user name.
func (h *WSHandler) handleHello(s *session, data json.RawMessage) (*core.Command, *proto.Error) {
	var hello proto.HelloData
	if err := json.Unmarshal(data, &hello); err != nil {
		return nil, badRequest("invalid hello payload")
	}
	if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
		return nil, &proto.Error{Code: core.ErrCodeUnsupportedVersion, Msg: "unsupported protocol version"}
	}

	if hello.Token != "" {
		claims, err := h.auth.ValidateToken(hello.Token)
		if err != nil {
			h.log.Debug().Err(err).Str("client_id", s.client.ID).Msg("hello with invalid token")
			return nil, &proto.Error{Code: core.ErrCodeUnauthorized, Msg: "invalid token"}
		}
		s.authenticated = true
		s.name = strings.TrimSpace(claims.Username)
		return &core.Command{Kind: core.CommandIdentify, User: s.name}, nil
	}

	if s.authenticated {
		return nil, nil
	}
	if h.cfg.JWTRequired {
		return nil, &proto.Error{Code: core.ErrCodeUnauthorized, Msg: "token required"}
	}

	user := strings.TrimSpace(hello.User)
	if user == "" {
		return nil, badRequest("user is required")
	}
	if strings.Contains(user, core.DirectRoomSeparator) {
		return nil, badRequest("user may not contain " + core.DirectRoomSeparator)
	}
	s.name = user
	return &core.Command{Kind: core.CommandIdentify, User: user}, nil
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Debug().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-client.Closed():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, protoErr *proto.Error) error {
	return wsjson.Write(ctx, conn, proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: protoErr,
	})
}
