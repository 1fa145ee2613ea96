package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/termchat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "http://localhost:3000", "server base URL")
	user := flag.String("user", "cli-user", "username")
	password := flag.String("password", "", "password; empty connects anonymously when the server allows it")
	register := flag.Bool("register", false, "create the account before logging in")
	room := flag.String("room", "", "room to join after connecting")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	hello := proto.HelloData{User: *user, Protocol: proto.ProtocolVersion}
	if *password != "" {
		if *register {
			if _, err := authenticate(ctx, *server, "/api/auth/register", *user, *password); err != nil {
				return err
			}
		}
		token, err := authenticate(ctx, *server, "/api/auth/login", *user, *password)
		if err != nil {
			return err
		}
		hello = proto.HelloData{Token: token, Protocol: proto.ProtocolVersion}
	}

	wsURL, err := websocketURL(*server)
	if err != nil {
		return err
	}
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	c := &chat{conn: conn, me: *user}
	if err := c.send(ctx, proto.InboundTypeHello, hello); err != nil {
		return err
	}
	if *room != "" {
		if err := c.send(ctx, proto.InboundTypeJoin, proto.JoinData{Room: *room}); err != nil {
			return err
		}
	}

	fmt.Printf("Connected to %s as %s\n", *server, *user)
	fmt.Println("Commands: /join <room>, /dm <user>, /nuke <secret>. Ctrl+C to exit.")

	go func() {
		defer cancel()
		c.readLoop(ctx)
	}()

	c.writeLoop(ctx)
	return nil
}

type authResponse struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

func authenticate(ctx context.Context, server, path, user, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": user, "password": password})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	var out authResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s: %s", path, out.Error)
	}
	return out.Token, nil
}

func websocketURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

type chat struct {
	conn *websocket.Conn
	me   string
	room string
}

func (c *chat) send(ctx context.Context, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, c.conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

type inbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func (c *chat) readLoop(ctx context.Context) {
	for {
		var frame inbound
		if err := wsjson.Read(ctx, c.conn, &frame); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}
		if frame.Type == proto.OutboundTypeError && frame.Error != nil {
			fmt.Printf("! %s: %s\n", frame.Error.Code, frame.Error.Msg)
			continue
		}
		if err := c.render(frame); err != nil {
			log.Printf("decode %s: %v", frame.Event, err)
		}
	}
}

func (c *chat) render(frame inbound) error {
	switch frame.Event {
	case proto.EventNameMessage:
		var evt proto.EventMessage
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			return err
		}
		printMessage(evt)
	case proto.EventNameHistory:
		var evt proto.EventHistory
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			return err
		}
		c.room = evt.Room
		fmt.Printf("--- %s (%d messages) ---\n", evt.Room, len(evt.Messages))
		for _, m := range evt.Messages {
			printMessage(m)
		}
	case proto.EventNameUserCount:
		var evt proto.EventUserCount
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			return err
		}
		fmt.Printf("* %d online\n", evt.Count)
	case proto.EventNameTyping, proto.EventNameStopTyping:
		var evt proto.EventTyping
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			return err
		}
		if frame.Event == proto.EventNameTyping {
			fmt.Printf("* %s is typing...\n", evt.User)
		}
	case proto.EventNameNewDM:
		var evt proto.EventNewDM
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			return err
		}
		// Every client gets every DM notice; show only ours.
		if evt.From != c.me && evt.Room != c.room && isParticipant(evt.Room, c.me) {
			fmt.Printf("* new direct message from %s (/dm %s)\n", evt.From, evt.From)
		}
	case proto.EventNameSystem:
		var evt proto.EventSystem
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			return err
		}
		fmt.Printf("* %s\n", evt.Text)
	default:
		fmt.Printf("event=%s data=%s\n", frame.Event, frame.Data)
	}
	return nil
}

func isParticipant(room, user string) bool {
	for _, name := range strings.Split(room, "_") {
		if name == user {
			return true
		}
	}
	return false
}

func printMessage(m proto.EventMessage) {
	ts := time.Unix(m.TS, 0).Format("15:04")
	fmt.Printf("[%s %s] %s: %s\n", ts, m.Room, m.User, m.Text)
}

func (c *chat) writeLoop(ctx context.Context) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			var err error
			if room, ok := strings.CutPrefix(text, "/join "); ok {
				err = c.send(ctx, proto.InboundTypeJoin, proto.JoinData{Room: strings.TrimSpace(room)})
			} else {
				err = c.send(ctx, proto.InboundTypeMsg, proto.MsgData{Text: text})
			}
			if err != nil {
				log.Printf("%v", err)
				return
			}
		}
	}
}
