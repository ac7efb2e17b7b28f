// Package bookinglink implements the capability tokens that let a candidate
// self-schedule exactly one appointment kind, a limited number of times.
package bookinglink

import (
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/booking-engine/internal/availability"
)

// Status is the lifecycle state of a booking link.
type Status string

const (
	StatusActive  Status = "active"
	StatusUsed    Status = "used"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

// Link is a stored booking grant. The raw token is never persisted; only its
// one-way hash is.
type Link struct {
	ID              uuid.UUID
	TokenHash       string
	CandidateID     uuid.UUID
	Kind            availability.Kind
	DurationMinutes int
	JobTitle        string
	BranchID        string
	Status          Status
	ExpiresAt       time.Time
	MaxUses         int
	UseCount        int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UsedUp reports whether the link has no uses remaining.
func (l *Link) UsedUp() bool {
	return l.UseCount >= l.MaxUses
}
