package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

const (
	defaultHistoryLimit  = 50
	defaultStoreTimeout  = 2 * time.Second
	defaultAuditInterval = time.Minute
	roomLockStripes      = 64
)

// Hub routes commands from connected clients to room audiences.
type Hub struct {
	dir      *Directory
	presence Presence
	history  HistoryStore
	reset    *ResetController
	logger   *zerolog.Logger

	historyLimit  int
	storeTimeout  time.Duration
	auditInterval time.Duration
	adminSecret   string

	// roomLocks serialize history reads on join with persist+broadcast per room.
	roomLocks [roomLockStripes]sync.Mutex

	register   chan *Client
	unregister chan unregisterRequest
	stopped    chan struct{}
}

type unregisterRequest struct {
	client *Client
	known  chan bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithHistoryLimit caps how many messages are replayed on join.
func WithHistoryLimit(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.historyLimit = n
		}
	}
}

// WithStoreTimeout bounds every history store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.storeTimeout = d
		}
	}
}

// WithAuditInterval sets how often the directory is checked for stray memberships.
func WithAuditInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.auditInterval = d
		}
	}
}

// WithAdminSecret sets the factory reset secret. Empty disables resets.
func WithAdminSecret(secret string) Option {
	return func(h *Hub) {
		h.adminSecret = secret
	}
}

// NewHub creates a hub. history and users may be nil, in which case nothing
// is persisted and resets only clear screens.
func NewHub(history HistoryStore, users UserWiper, opts ...Option) *Hub {
	nop := zerolog.Nop()
	h := &Hub{
		dir:           NewDirectory(),
		history:       history,
		logger:        &nop,
		historyLimit:  defaultHistoryLimit,
		storeTimeout:  defaultStoreTimeout,
		auditInterval: defaultAuditInterval,
		register:      make(chan *Client),
		unregister:    make(chan unregisterRequest),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.reset = NewResetController(h.adminSecret, history, users)
	return h
}

// Directory exposes the membership directory.
func (h *Hub) Directory() *Directory {
	return h.dir
}

// Run processes registrations until ctx is cancelled. On return every client
// is stopped and gone from the directory.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	clients := make(map[*Client]struct{})
	ticker := time.NewTicker(h.auditInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for c := range clients {
				c.stop()
			}
			for c := range clients {
				<-c.pumpDone
				if _, ok := h.dir.Remove(c.ID); ok {
					h.presence.Dec()
				}
			}
			h.logger.Info().Int("clients", len(clients)).Msg("hub stopped")
			return
		case c := <-h.register:
			clients[c] = struct{}{}
			go h.pump(ctx, c)
		case req := <-h.unregister:
			_, ok := clients[req.client]
			if ok {
				delete(clients, req.client)
				req.client.stop()
			}
			req.known <- ok
		case <-ticker.C:
			if err := h.dir.Audit(); err != nil {
				h.logger.Error().Err(err).Msg("repaired room membership")
			}
		}
	}
}

// RegisterClient attaches a client to the hub. The client is placed in
// DefaultRoom before any of its commands run.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopped:
		c.stop()
	}
}

// UnregisterClient detaches a client. When it returns the client is gone
// from the directory and the presence count is updated.
func (h *Hub) UnregisterClient(c *Client) {
	req := unregisterRequest{client: c, known: make(chan bool, 1)}
	select {
	case h.unregister <- req:
	case <-h.stopped:
		return
	}
	if !<-req.known {
		return
	}
	<-c.pumpDone
	h.disconnect(c)
}

func (h *Hub) pump(ctx context.Context, c *Client) {
	defer close(c.pumpDone)

	h.onConnect(ctx, c)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.quit:
			return
		case cmd := <-c.Commands:
			if cmd != nil {
				h.dispatch(ctx, c, cmd)
			}
		}
	}
}

func (h *Hub) onConnect(ctx context.Context, c *Client) {
	mu := h.roomLock(DefaultRoom)
	mu.Lock()
	defer mu.Unlock()

	h.dir.Add(c)
	count := h.presence.Inc()
	h.broadcastAll(&Event{Kind: EventUserCount, Count: count})
	c.Send(&Event{Kind: EventHistory, Room: DefaultRoom, Messages: h.loadHistory(ctx, DefaultRoom)})

	h.logger.Debug().Str("client", c.ID).Str("user", c.Name()).Int("online", count).Msg("client connected")
}

func (h *Hub) disconnect(c *Client) {
	room, ok := h.dir.Remove(c.ID)
	if !ok {
		return
	}
	count := h.presence.Dec()
	h.broadcastAll(&Event{Kind: EventUserCount, Count: count})

	h.logger.Debug().Str("client", c.ID).Str("user", c.Name()).Str("room", room).Int("online", count).Msg("client disconnected")
}

func (h *Hub) roomLock(room string) *sync.Mutex {
	return &h.roomLocks[xxhash.Sum64String(room)%roomLockStripes]
}

// lockAllRooms takes every stripe in index order. Callers holding a single
// stripe never wait for a second one, so the order cannot deadlock.
func (h *Hub) lockAllRooms() (unlock func()) {
	for i := range h.roomLocks {
		h.roomLocks[i].Lock()
	}
	return func() {
		for i := len(h.roomLocks) - 1; i >= 0; i-- {
			h.roomLocks[i].Unlock()
		}
	}
}

func (h *Hub) loadHistory(ctx context.Context, room string) []Message {
	msgs, err := h.recent(ctx, room, h.historyLimit)
	if err != nil {
		h.logger.Warn().Err(err).Str("room", room).Msg("history unavailable, replaying empty history")
		return []Message{}
	}
	return msgs
}

func (h *Hub) recent(ctx context.Context, room string, limit int) ([]Message, error) {
	if h.history == nil {
		return []Message{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.storeTimeout)
	defer cancel()

	records, err := h.history.RecentMessages(ctx, room, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	out := make([]Message, 0, len(records))
	for _, rec := range records {
		out = append(out, messageFromRecord(rec))
	}
	return out, nil
}

func (h *Hub) persist(ctx context.Context, msg *Message) error {
	if h.history == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.storeTimeout)
	defer cancel()

	rec := msg.record()
	if err := h.history.AppendMessage(ctx, rec); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	msg.ID = rec.ID
	return nil
}

// Stats is a presence snapshot.
type Stats struct {
	Online int
	Rooms  map[string]int
}

// Stats returns the connection count and room occupancy.
func (h *Hub) Stats() Stats {
	return Stats{
		Online: h.presence.Count(),
		Rooms:  h.dir.RoomSizes(),
	}
}

// History returns up to limit recent messages of room, oldest first. limit is
// clamped to the replay limit.
func (h *Hub) History(ctx context.Context, room string, limit int) ([]Message, error) {
	if limit <= 0 || limit > h.historyLimit {
		limit = h.historyLimit
	}
	return h.recent(ctx, room, limit)
}
