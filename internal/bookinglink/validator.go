package bookinglink

import (
	"context"
	"errors"
	"time"

	"github.com/recruitflow/booking-engine/pkg/logging"
)

// ErrInvalidLink is the single error surfaced for every token failure:
// unknown, malformed, expired, revoked or used up. Callers must not learn
// which condition failed.
var ErrInvalidLink = errors.New("bookinglink: invalid or expired link")

// Validator resolves raw tokens to stored grants without revealing link
// existence to probing callers.
type Validator struct {
	store  *Store
	logger *logging.Logger
	now    func() time.Time
}

// NewValidator creates a token validator.
func NewValidator(store *Store, logger *logging.Logger) *Validator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Validator{store: store, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (v *Validator) WithNow(now func() time.Time) *Validator {
	if now != nil {
		v.now = now
	}
	return v
}

// Validate resolves a caller-supplied token to its active link. Every failure
// mode returns ErrInvalidLink; store errors are wrapped so they surface as
// internal rather than token failures.
func (v *Validator) Validate(ctx context.Context, raw string) (*Link, error) {
	if !ValidFormat(raw) {
		return nil, ErrInvalidLink
	}

	link, err := v.store.GetByTokenHash(ctx, HashToken(raw))
	if err != nil {
		return nil, err
	}
	if link == nil || link.Status != StatusActive {
		return nil, ErrInvalidLink
	}

	if !link.ExpiresAt.After(v.now().UTC()) {
		// Expiry observed during validation transitions the stored record as
		// a side effect; the caller still sees the generic failure.
		if _, err := v.store.MarkExpired(ctx, link.ID); err != nil {
			v.logger.Error("bookinglink: expire on validate failed", "error", err, "link_id", link.ID)
		}
		return nil, ErrInvalidLink
	}

	if link.UsedUp() {
		return nil, ErrInvalidLink
	}

	return link, nil
}
