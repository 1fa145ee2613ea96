package core

import "sync/atomic"

// Presence counts live connections.
type Presence struct {
	n atomic.Int64
}

// Inc records a new connection and returns the updated count.
func (p *Presence) Inc() int {
	return int(p.n.Add(1))
}

// Dec records a disconnect and returns the updated count. The count never
// drops below zero.
func (p *Presence) Dec() int {
	for {
		cur := p.n.Load()
		if cur == 0 {
			return 0
		}
		if p.n.CompareAndSwap(cur, cur-1) {
			return int(cur - 1)
		}
	}
}

// Count returns the current number of connections.
func (p *Presence) Count() int {
	return int(p.n.Load())
}
