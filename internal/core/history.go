package core

import (
	"context"

	"github.com/vovakirdan/termchat-server/internal/store"
)

// HistoryStore is the append-only message log, partitioned by room name.
// store.MessageStore implementations satisfy it.
type HistoryStore interface {
	AppendMessage(ctx context.Context, msg *store.Message) error
	RecentMessages(ctx context.Context, room string, limit int) ([]*store.Message, error)
	ClearMessages(ctx context.Context) error
}

// UserWiper deletes every account held by the identity collaborator.
type UserWiper interface {
	ClearUsers(ctx context.Context) error
}
