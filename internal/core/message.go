package core

import (
	"time"

	"github.com/vovakirdan/termchat-server/internal/store"
)

// Message is the domain model for a chat message.
type Message struct {
	ID        int64
	Room      string
	From      string
	Text      string
	CreatedAt time.Time
}

func messageFromRecord(rec *store.Message) Message {
	return Message{
		ID:        rec.ID,
		Room:      rec.Room,
		From:      rec.Author,
		Text:      rec.Body,
		CreatedAt: rec.CreatedAt,
	}
}

func (m Message) record() *store.Message {
	return &store.Message{
		ID:        m.ID,
		Room:      m.Room,
		Author:    m.From,
		Body:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}
