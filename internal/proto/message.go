package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello        = "hello"
	InboundTypeJoin         = "join"
	InboundTypeMsg          = "msg"
	InboundTypeTyping       = "typing"
	InboundTypeStopTyping   = "stop_typing"
	InboundTypeDM           = "dm"
	InboundTypeFactoryReset = "factory_reset"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameMessage    = "message"
	EventNameHistory    = "history"
	EventNameUserCount  = "user_count"
	EventNameTyping     = "typing"
	EventNameStopTyping = "stop_typing"
	EventNameNewDM      = "new_dm"
	EventNameSystem     = "system"
)

// Slash commands recognised inside msg text.
const (
	CommandPrefixDM    = "/dm "
	CommandPrefixReset = "/nuke "
)

// HelloData is sent by the client to introduce itself.
type HelloData struct {
	User     string `json:"user,omitempty"`
	Token    string `json:"token,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// JoinData requests to join a specific room.
type JoinData struct {
	Room string `json:"room"`
}

// MsgData is a chat message from the client. User, when set, must match the
// session identity.
type MsgData struct {
	User string `json:"user,omitempty"`
	Text string `json:"text"`
}

// TypingData is the payload of typing and stop_typing.
type TypingData struct {
	User string `json:"user,omitempty"`
}

// DMData opens the direct-message room shared with User.
type DMData struct {
	User string `json:"user"`
}

// FactoryResetData carries the admin secret.
type FactoryResetData struct {
	Secret string `json:"secret"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage is a chat message delivered to a room audience.
type EventMessage struct {
	ID   int64  `json:"id,omitempty"`
	Room string `json:"room"`
	User string `json:"user"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// EventHistory replays recent messages of a room, oldest first.
type EventHistory struct {
	Room     string         `json:"room"`
	Messages []EventMessage `json:"messages"`
}

// EventUserCount is the number of connected clients.
type EventUserCount struct {
	Count int `json:"count"`
}

// EventTyping notifies that a user started or stopped typing.
type EventTyping struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// EventNewDM announces activity in a direct-message room. Clients decide
// whether it concerns them.
type EventNewDM struct {
	From string `json:"from"`
	Room string `json:"room"`
}

// EventSystem is a server notice.
type EventSystem struct {
	Text string `json:"text"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
