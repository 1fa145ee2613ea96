package core

import (
	"sync"
	"testing"
)

func TestPresenceNeverNegative(t *testing.T) {
	var p Presence
	if got := p.Dec(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Inc()
		}()
	}
	wg.Wait()
	if p.Count() != 50 {
		t.Fatalf("expected 50, got %d", p.Count())
	}

	for range 60 {
		p.Dec()
	}
	if p.Count() != 0 {
		t.Fatalf("expected 0 after over-decrement, got %d", p.Count())
	}
}
