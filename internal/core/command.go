package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandIdentify binds a verified username to the connection.
	CommandIdentify CommandKind = iota
	// CommandJoinRoom moves the client into a room.
	CommandJoinRoom
	// CommandSendMessage posts text to the client's current room.
	CommandSendMessage
	// CommandTyping signals the client started typing.
	CommandTyping
	// CommandStopTyping signals the client stopped typing.
	CommandStopTyping
	// CommandDirectMessage opens the direct-message room shared with User.
	CommandDirectMessage
	// CommandFactoryReset wipes all history and accounts when Secret matches.
	CommandFactoryReset
)

// Command represents an action requested by a client.
type Command struct {
	Kind   CommandKind
	Room   string
	Text   string
	User   string
	Secret string
}
