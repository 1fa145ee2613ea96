package core

import "sync"

const clientBufferSize = 64

// Client is a chat connection as seen by the core layer.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	mu   sync.RWMutex
	name string

	quit     chan struct{}
	quitOnce sync.Once
	pumpDone chan struct{}
}

// NewClient constructs a client with initialized channels. name may be empty
// until the connection authenticates.
func NewClient(id, name string) *Client {
	return &Client{
		ID:       id,
		name:     name,
		Commands: make(chan *Command, clientBufferSize),
		Events:   make(chan *Event, clientBufferSize),
		quit:     make(chan struct{}),
		pumpDone: make(chan struct{}),
	}
}

// Name returns the authenticated identity, or "" if unset.
func (c *Client) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *Client) setName(name string) {
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
}

// Closed is closed once the hub stops serving this client.
func (c *Client) Closed() <-chan struct{} {
	return c.quit
}

// Send delivers an event without blocking. Slow consumers lose the event.
func (c *Client) Send(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}

func (c *Client) stop() {
	c.quitOnce.Do(func() { close(c.quit) })
}
