// Package interviews owns the booked appointment records and the recurring
// state machine that reconciles them with wall-clock time.
package interviews

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/booking-engine/internal/availability"
)

// Status is an interview's lifecycle state.
//
// scheduled → confirmed (optional) → completed | cancelled | no_show |
// lapsed → resolved. Lapsed holds appointments whose time passed with no
// terminal outcome; resolved closes them out without claiming they happened.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
	StatusLapsed    Status = "lapsed"
	StatusResolved  Status = "resolved"
)

// ActiveStatuses are the states that occupy calendar time and participate in
// conflict checks.
var ActiveStatuses = []Status{StatusScheduled, StatusConfirmed}

// Interview is a booked appointment.
type Interview struct {
	ID               uuid.UUID
	CandidateID      uuid.UUID
	Kind             availability.Kind
	ScheduledAt      time.Time
	DurationMinutes  int
	Status           Status
	ConfirmationCode string
	LinkID           uuid.UUID
	ResolutionReason string
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// End returns the exclusive end of the appointment's raw interval.
func (i *Interview) End() time.Time {
	return i.ScheduledAt.Add(time.Duration(i.DurationMinutes) * time.Minute)
}

// confirmationAlphabet avoids ambiguous glyphs (0/O, 1/I/L).
const confirmationAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// NewConfirmationCode generates a human-readable confirmation code. It is
// collision-tolerant display data, never a key.
func NewConfirmationCode(kind availability.Kind) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("interviews: confirmation code: %w", err)
	}
	for i, b := range buf {
		buf[i] = confirmationAlphabet[int(b)%len(confirmationAlphabet)]
	}
	prefix := "IV"
	if kind == availability.KindTrial {
		prefix = "TR"
	}
	return fmt.Sprintf("%s-%s", prefix, buf), nil
}
