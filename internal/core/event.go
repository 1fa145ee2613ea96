package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomMessage delivers a chat message to the room audience.
	EventRoomMessage EventKind = iota
	// EventHistory replays room history to one client, or clears every screen after a reset.
	EventHistory
	// EventUserCount announces the number of connected clients.
	EventUserCount
	// EventTyping tells room members that User is typing.
	EventTyping
	// EventStopTyping tells room members that User stopped typing.
	EventStopTyping
	// EventNewDM is sent to everyone when a direct-message room gets a message.
	EventNewDM
	// EventSystem carries a server notice.
	EventSystem
)

// Event is sent to clients to describe what happened in the system.
// Events are shared between recipients and must not be mutated after sending.
type Event struct {
	Kind     EventKind
	Room     string
	User     string
	Text     string
	Count    int
	Message  Message
	Messages []Message // For EventHistory
}

func systemEvent(text string) *Event {
	return &Event{Kind: EventSystem, Text: text}
}
