package core

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
)

// Notices sent by the factory reset flow.
const (
	ResetWipedNotice  = "CRITICAL: DATABASE WIPED."
	ResetDeniedNotice = "Access denied."
	ResetFailedNotice = "Reset failed."
)

// ResetController guards the factory reset behind a shared secret.
type ResetController struct {
	secret  []byte
	history HistoryStore
	users   UserWiper
}

// NewResetController returns a controller. An empty secret denies every attempt.
func NewResetController(secret string, history HistoryStore, users UserWiper) *ResetController {
	return &ResetController{
		secret:  []byte(secret),
		history: history,
		users:   users,
	}
}

// Authorize compares supplied against the configured secret in constant time.
func (r *ResetController) Authorize(supplied string) bool {
	if len(r.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(r.secret, []byte(supplied)) == 1
}

// Wipe clears all history and accounts if supplied is the secret.
func (r *ResetController) Wipe(ctx context.Context, supplied string) error {
	if !r.Authorize(supplied) {
		return ErrNotAuthorized
	}

	var errs []error
	if r.history != nil {
		if err := r.history.ClearMessages(ctx); err != nil {
			errs = append(errs, fmt.Errorf("clear messages: %w", err))
		}
	}
	if r.users != nil {
		if err := r.users.ClearUsers(ctx); err != nil {
			errs = append(errs, fmt.Errorf("clear users: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, errors.Join(errs...))
	}
	return nil
}

func (h *Hub) onFactoryReset(ctx context.Context, c *Client, secret string) {
	if !h.reset.Authorize(secret) {
		h.logger.Warn().Str("client", c.ID).Str("user", c.Name()).Msg("factory reset denied")
		c.Send(systemEvent(ResetDeniedNotice))
		return
	}

	// Every room stripe is held so no persist lands after the wipe.
	unlock := h.lockAllRooms()
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, h.storeTimeout)
	defer cancel()

	if err := h.reset.Wipe(ctx, secret); err != nil {
		h.logger.Error().Err(err).Str("user", c.Name()).Msg("factory reset failed")
		c.Send(systemEvent(ResetFailedNotice))
		return
	}

	h.logger.Warn().Str("user", c.Name()).Msg("factory reset: history and accounts wiped")
	h.broadcastAll(systemEvent(ResetWipedNotice))
	for _, member := range h.dir.All() {
		member.Send(&Event{Kind: EventHistory, Room: h.dir.CurrentRoom(member.ID), Messages: []Message{}})
	}
}
