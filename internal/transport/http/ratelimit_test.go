package http

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := newRateLimiter(2)
	r.now = func() time.Time { return now }

	if !r.allow() || !r.allow() {
		t.Fatalf("first two frames should pass")
	}
	if r.allow() {
		t.Fatalf("third frame in window should be limited")
	}

	now = now.Add(time.Minute)
	if !r.allow() {
		t.Fatalf("new window should reset the counter")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	r := newRateLimiter(0)
	for range 1000 {
		if !r.allow() {
			t.Fatalf("disabled limiter should always allow")
		}
	}

	var nilLimiter *rateLimiter
	if !nilLimiter.allow() {
		t.Fatalf("nil limiter should allow")
	}
}
