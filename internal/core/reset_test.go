package core

import (
	"context"
	"errors"
	"testing"
)

func TestResetControllerAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		supplied string
		want     bool
	}{
		{name: "match", secret: "s3cret", supplied: "s3cret", want: true},
		{name: "mismatch", secret: "s3cret", supplied: "s3cre", want: false},
		{name: "empty supplied", secret: "s3cret", supplied: "", want: false},
		{name: "unset secret", secret: "", supplied: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResetController(tt.secret, nil, nil)
			if got := r.Authorize(tt.supplied); got != tt.want {
				t.Fatalf("Authorize(%q) = %v, want %v", tt.supplied, got, tt.want)
			}
		})
	}
}

func TestResetControllerWipe(t *testing.T) {
	ctx := context.Background()
	history := newMemoryHistory()
	users := &memoryUsers{}
	r := NewResetController("s3cret", history, users)

	if err := r.Wipe(ctx, "nope"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if err := r.Wipe(ctx, "s3cret"); err != nil {
		t.Fatalf("wipe: %v", err)
	}
	if users.clearedCount() != 1 {
		t.Fatalf("expected users cleared once, got %d", users.clearedCount())
	}

	history.setFail(true)
	err := r.Wipe(ctx, "s3cret")
	if !errors.Is(err, ErrStoreUnavailable) || !errors.Is(err, errStoreDown) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if users.clearedCount() != 2 {
		t.Fatalf("users should still be cleared when history fails")
	}
}
