package core

// onTyping relays typing state to the sender's room, sender excluded.
// Expiry is left to the typing client.
func (h *Hub) onTyping(c *Client, kind EventKind) {
	name := c.Name()
	if name == "" {
		return
	}

	room := h.dir.CurrentRoom(c.ID)
	ev := &Event{Kind: kind, Room: room, User: name}
	for _, member := range h.dir.Members(room) {
		if member == c {
			continue
		}
		member.Send(ev)
	}
}
