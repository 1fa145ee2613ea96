package core

import (
	"errors"
	"fmt"
)

// Error codes shared with the wire protocol.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeUnsupportedVersion = "unsupported_version"
	ErrCodeInvalidMessage     = "invalid_message"
	ErrCodeRateLimited        = "rate_limited"
)

var (
	// ErrValidation covers malformed input: empty text, empty room names, self DMs.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidParticipants is returned by ResolveDirectRoom.
	ErrInvalidParticipants = fmt.Errorf("%w: invalid direct message participants", ErrValidation)
	// ErrNotAuthorized is returned for a wrong admin secret.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrStoreUnavailable wraps history store failures and timeouts.
	ErrStoreUnavailable = errors.New("history store unavailable")
	// ErrInvariantViolation marks a connection found in more than one room.
	ErrInvariantViolation = errors.New("room membership invariant violated")
)
