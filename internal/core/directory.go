package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// DefaultRoom is where every connection starts.
const DefaultRoom = "global"

// Directory tracks which room every connection is in. A connection is in
// exactly one room from Add until Remove.
type Directory struct {
	mu      sync.RWMutex
	clients map[string]*Client
	current map[string]string
	rooms   map[string]*Room
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		clients: make(map[string]*Client),
		current: make(map[string]string),
		rooms:   make(map[string]*Room),
	}
}

// Add registers a connection and places it in DefaultRoom. Adding a known
// connection moves it back to DefaultRoom.
func (d *Directory) Add(c *Client) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.clients[c.ID] = c
	d.moveLocked(c, DefaultRoom)
}

// Join moves a connection into room and returns the room it left. ok is false
// for unknown connections.
func (d *Directory) Join(clientID, room string) (previous string, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, exists := d.clients[clientID]
	if !exists {
		return "", false
	}
	previous = d.current[clientID]
	d.moveLocked(c, room)
	return previous, true
}

func (d *Directory) moveLocked(c *Client, room string) {
	if prev, ok := d.current[c.ID]; ok {
		d.leaveLocked(c, prev)
	}
	r, ok := d.rooms[room]
	if !ok {
		r = NewRoom(room)
		d.rooms[room] = r
	}
	r.AddClient(c)
	d.current[c.ID] = room
}

func (d *Directory) leaveLocked(c *Client, room string) {
	r, ok := d.rooms[room]
	if !ok {
		return
	}
	r.RemoveClient(c)
	if r.Empty() {
		delete(d.rooms, room)
	}
}

// CurrentRoom returns the connection's room, or DefaultRoom if it never joined one.
func (d *Directory) CurrentRoom(clientID string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if room, ok := d.current[clientID]; ok {
		return room
	}
	return DefaultRoom
}

// Members returns a snapshot of the connections in room.
func (d *Directory) Members(room string) []*Client {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.rooms[room]
	if !ok {
		return nil
	}
	return r.Snapshot()
}

// All returns a snapshot of every registered connection.
func (d *Directory) All() []*Client {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*Client, 0, len(d.clients))
	for _, c := range d.clients {
		out = append(out, c)
	}
	return out
}

// Remove forgets a connection and takes it out of its room.
func (d *Directory) Remove(clientID string) (room string, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, exists := d.clients[clientID]
	if !exists {
		return "", false
	}
	room = d.current[clientID]
	d.leaveLocked(c, room)
	delete(d.current, clientID)
	delete(d.clients, clientID)
	return room, true
}

// Len returns the number of registered connections.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.clients)
}

// RoomSizes returns occupied room names mapped to their member counts.
func (d *Directory) RoomSizes() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]int, len(d.rooms))
	for name, r := range d.rooms {
		out[name] = r.Len()
	}
	return out
}

// RoomNames returns occupied room names in sorted order.
func (d *Directory) RoomNames() []string {
	sizes := d.RoomSizes()
	names := make([]string, 0, len(sizes))
	for name := range sizes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Audit scans every room for connections that are not where their current
// room says they are. Stray memberships are dropped so only the latest join
// survives. The returned error wraps ErrInvariantViolation once per repair.
func (d *Directory) Audit() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for name, r := range d.rooms {
		for _, c := range r.Snapshot() {
			cur, registered := d.current[c.ID]
			if registered && cur == name {
				continue
			}
			r.RemoveClient(c)
			errs = append(errs, fmt.Errorf("%w: client %s found in %q, current %q", ErrInvariantViolation, c.ID, name, cur))
		}
		if r.Empty() {
			delete(d.rooms, name)
		}
	}
	return errors.Join(errs...)
}
