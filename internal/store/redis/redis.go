// Package redis provides a Redis-backed message history.
//
// Each room is a capped list of JSON-encoded messages; the list tail is the
// newest entry. Users are not stored here.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vovakirdan/termchat-server/internal/store"
)

// MessageStore implements store.MessageStore on Redis lists.
type MessageStore struct {
	client    *goredis.Client
	prefix    string
	retention int
}

type record struct {
	ID        int64     `json:"id"`
	Room      string    `json:"room"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a message store. retention caps how many messages are kept per
// room; zero or negative keeps everything.
func New(client *goredis.Client, prefix string, retention int) *MessageStore {
	return &MessageStore{
		client:    client,
		prefix:    prefix,
		retention: retention,
	}
}

func (s *MessageStore) roomKey(room string) string {
	return s.prefix + "room:" + room
}

func (s *MessageStore) seqKey() string {
	return s.prefix + "seq"
}

// AppendMessage pushes a message onto its room list and trims the list.
func (s *MessageStore) AppendMessage(ctx context.Context, msg *store.Message) error {
	id, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("redis next id: %w", err)
	}

	data, err := json.Marshal(record{
		ID:        id,
		Room:      msg.Room,
		Author:    msg.Author,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	key := s.roomKey(msg.Room)
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		if s.retention > 0 {
			pipe.LTrim(ctx, key, int64(-s.retention), -1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append: %w", err)
	}

	msg.ID = id
	return nil
}

// RecentMessages returns the newest messages of a room, oldest first.
func (s *MessageStore) RecentMessages(ctx context.Context, room string, limit int) ([]*store.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	raw, err := s.client.LRange(ctx, s.roomKey(room), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis range: %w", err)
	}

	messages := make([]*store.Message, 0, len(raw))
	for _, item := range raw {
		var rec record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		messages = append(messages, &store.Message{
			ID:        rec.ID,
			Room:      rec.Room,
			Author:    rec.Author,
			Body:      rec.Body,
			CreatedAt: rec.CreatedAt,
		})
	}
	return messages, nil
}

// ClearMessages removes every room list under the prefix.
func (s *MessageStore) ClearMessages(ctx context.Context) error {
	var cursor uint64
	pattern := s.prefix + "room:*"
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}
