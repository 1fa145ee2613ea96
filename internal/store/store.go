package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("conflict")
)

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Message represents a persisted chat message. Room is the partition key.
type Message struct {
	ID        int64
	Room      string
	Author    string
	Body      string
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// ClearUsers deletes every account.
	ClearUsers(ctx context.Context) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// AppendMessage persists a message and fills in its ID.
	AppendMessage(ctx context.Context, msg *Message) error

	// RecentMessages returns up to limit of the newest messages of a room,
	// ordered oldest first.
	RecentMessages(ctx context.Context, room string, limit int) ([]*Message, error)

	// ClearMessages deletes every message of every room.
	ClearMessages(ctx context.Context) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
