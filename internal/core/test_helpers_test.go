package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/termchat-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()
	return mustEventWhere(t, ch, kind, func(*Event) bool { return true })
}

// mustEventWhere skips events until one of kind satisfies match.
func mustEventWhere(t *testing.T, ch <-chan *Event, kind EventKind, match func(*Event) bool) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind && match(ev) {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// eventsUntil collects events up to and including the first one of kind.
func eventsUntil(t *testing.T, ch <-chan *Event, kind EventKind) []*Event {
	t.Helper()

	var out []*Event
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			out = append(out, ev)
			if ev.Kind == kind {
				return out
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
			return nil
		}
	}
}

// noEvent fails if an event of kind arrives within a short window.
func noEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event %v: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func systemText(text string) func(*Event) bool {
	return func(ev *Event) bool { return ev.Text == text }
}

func historyOf(room string) func(*Event) bool {
	return func(ev *Event) bool { return ev.Room == room }
}

func startHub(t *testing.T, history HistoryStore, users UserWiper, opts ...Option) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(history, users, opts...)
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.stopped
	})
	return hub
}

// connect registers a client and waits for its initial history replay.
func connect(t *testing.T, hub *Hub, id, name string) *Client {
	t.Helper()

	c := NewClient(id, name)
	hub.RegisterClient(c)
	mustEventWhere(t, c.Events, EventHistory, historyOf(DefaultRoom))
	return c
}

// join moves c into room and waits for the join notice.
func join(t *testing.T, c *Client, room string) *Event {
	t.Helper()

	c.Commands <- &Command{Kind: CommandJoinRoom, Room: room}
	ev := mustEventWhere(t, c.Events, EventHistory, historyOf(room))
	mustEventWhere(t, c.Events, EventSystem, systemText("Joined channel: "+room))
	return ev
}

var errStoreDown = errors.New("store down")

// memoryHistory is an in-memory HistoryStore. Setting fail makes every call error.
// When appendGate is set, appends announce themselves on appendEntered and
// wait for the gate to close.
type memoryHistory struct {
	mu     sync.Mutex
	nextID int64
	rooms  map[string][]*store.Message
	fail   bool

	appendEntered chan struct{}
	appendGate    chan struct{}
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{rooms: make(map[string][]*store.Message)}
}

func (m *memoryHistory) setFail(fail bool) {
	m.mu.Lock()
	m.fail = fail
	m.mu.Unlock()
}

func (m *memoryHistory) AppendMessage(_ context.Context, msg *store.Message) error {
	if m.appendGate != nil {
		m.appendEntered <- struct{}{}
		<-m.appendGate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errStoreDown
	}
	m.nextID++
	msg.ID = m.nextID
	cp := *msg
	m.rooms[msg.Room] = append(m.rooms[msg.Room], &cp)
	return nil
}

func (m *memoryHistory) RecentMessages(_ context.Context, room string, limit int) ([]*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, errStoreDown
	}
	msgs := m.rooms[room]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*store.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (m *memoryHistory) ClearMessages(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errStoreDown
	}
	m.rooms = make(map[string][]*store.Message)
	return nil
}

func (m *memoryHistory) count(room string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms[room])
}

type memoryUsers struct {
	mu      sync.Mutex
	cleared int
}

func (u *memoryUsers) ClearUsers(context.Context) error {
	u.mu.Lock()
	u.cleared++
	u.mu.Unlock()
	return nil
}

func (u *memoryUsers) clearedCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cleared
}
