package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MaxRoomNameBytes bounds room names accepted by join.
const MaxRoomNameBytes = 128

// ValidateRoomName trims name and checks it can be joined.
func ValidateRoomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: room name is required", ErrValidation)
	}
	if len(name) > MaxRoomNameBytes {
		return "", fmt.Errorf("%w: room name longer than %d bytes", ErrValidation, MaxRoomNameBytes)
	}
	return name, nil
}

func (h *Hub) dispatch(ctx context.Context, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandIdentify:
		if name := strings.TrimSpace(cmd.User); name != "" {
			c.setName(name)
		}
	case CommandJoinRoom:
		h.onJoinRoom(ctx, c, cmd.Room)
	case CommandSendMessage:
		h.onChatMessage(ctx, c, cmd.Text)
	case CommandTyping:
		h.onTyping(c, EventTyping)
	case CommandStopTyping:
		h.onTyping(c, EventStopTyping)
	case CommandDirectMessage:
		h.onDirectMessage(ctx, c, cmd.User)
	case CommandFactoryReset:
		h.onFactoryReset(ctx, c, cmd.Secret)
	default:
		h.logger.Warn().Str("client", c.ID).Int("kind", int(cmd.Kind)).Msg("unknown command")
	}
}

func (h *Hub) onJoinRoom(ctx context.Context, c *Client, room string) {
	room, err := ValidateRoomName(room)
	if err != nil {
		c.Send(systemEvent("Invalid room name."))
		return
	}

	mu := h.roomLock(room)
	mu.Lock()
	previous, ok := h.dir.Join(c.ID, room)
	if ok {
		c.Send(&Event{Kind: EventHistory, Room: room, Messages: h.loadHistory(ctx, room)})
	}
	mu.Unlock()
	if !ok {
		return
	}

	c.Send(systemEvent("Joined channel: " + room))
	h.logger.Debug().Str("client", c.ID).Str("from", previous).Str("to", room).Msg("joined room")
}

func (h *Hub) onDirectMessage(ctx context.Context, c *Client, target string) {
	self := c.Name()
	if self == "" {
		c.Send(systemEvent("Identify before opening a direct message."))
		return
	}
	if strings.TrimSpace(target) == self {
		c.Send(systemEvent("You cannot message yourself."))
		return
	}
	room, err := ResolveDirectRoom(self, target)
	if err != nil {
		c.Send(systemEvent("Invalid direct message recipient."))
		return
	}
	h.onJoinRoom(ctx, c, room)
}

func (h *Hub) onChatMessage(ctx context.Context, c *Client, text string) {
	name := c.Name()
	if name == "" || strings.TrimSpace(text) == "" {
		return
	}

	room := h.dir.CurrentRoom(c.ID)
	msg := Message{
		Room:      room,
		From:      name,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	mu := h.roomLock(room)
	mu.Lock()
	if err := h.persist(ctx, &msg); err != nil {
		h.logger.Warn().Err(err).Str("room", room).Str("user", name).Msg("message not persisted, delivering live only")
	}
	broadcast(h.dir.Members(room), &Event{Kind: EventRoomMessage, Room: room, User: name, Message: msg})
	mu.Unlock()

	if IsDirectRoom(room) {
		h.broadcastAll(&Event{Kind: EventNewDM, Room: room, User: name})
	}
}

func (h *Hub) broadcastAll(ev *Event) {
	broadcast(h.dir.All(), ev)
}

func broadcast(clients []*Client, ev *Event) {
	for _, c := range clients {
		c.Send(ev)
	}
}
