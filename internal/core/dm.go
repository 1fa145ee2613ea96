package core

import (
	"fmt"
	"strings"
)

// DirectRoomSeparator joins the two participant names of a direct-message room.
const DirectRoomSeparator = "_"

// ResolveDirectRoom returns the canonical room shared by a and b. The result
// does not depend on argument order. Joining the room creates it.
func ResolveDirectRoom(a, b string) (string, error) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return "", fmt.Errorf("%w: empty participant", ErrInvalidParticipants)
	}
	if a == b {
		return "", fmt.Errorf("%w: %q cannot message themself", ErrInvalidParticipants, a)
	}
	if strings.Contains(a, DirectRoomSeparator) || strings.Contains(b, DirectRoomSeparator) {
		return "", fmt.Errorf("%w: participant contains %q", ErrInvalidParticipants, DirectRoomSeparator)
	}
	if b < a {
		a, b = b, a
	}
	return a + DirectRoomSeparator + b, nil
}

// IsDirectRoom reports whether name has the shape of a direct-message room.
func IsDirectRoom(name string) bool {
	_, _, ok := DirectParticipants(name)
	return ok
}

// DirectParticipants splits a direct-message room into its two participants.
func DirectParticipants(name string) (a, b string, ok bool) {
	a, b, found := strings.Cut(name, DirectRoomSeparator)
	if !found || a == "" || b == "" || strings.Contains(b, DirectRoomSeparator) {
		return "", "", false
	}
	return a, b, true
}
