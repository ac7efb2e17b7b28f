// Package candidates exposes the slice of the candidate directory the booking
// engine reads and advances: the pipeline status and withdrawal fields.
package candidates

import (
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/booking-engine/internal/availability"
)

// Status is a candidate's position in the recruitment pipeline.
type Status string

const (
	StatusApplied            Status = "applied"
	StatusInviteSent         Status = "invite_sent"
	StatusInterviewScheduled Status = "interview_scheduled"
	StatusInterviewComplete  Status = "interview_complete"
	StatusTrialInviteSent    Status = "trial_invite_sent"
	StatusTrialScheduled     Status = "trial_scheduled"
	StatusTrialComplete      Status = "trial_complete"
	StatusOfferMade          Status = "offer_made"
	StatusHired              Status = "hired"
	StatusWithdrawn          Status = "withdrawn"
	StatusRejected           Status = "rejected"
)

// pipelineOrder is the explicit forward progression. Automatic transitions
// may only move a candidate to a higher rank, never backwards.
var pipelineOrder = []Status{
	StatusApplied,
	StatusInviteSent,
	StatusInterviewScheduled,
	StatusInterviewComplete,
	StatusTrialInviteSent,
	StatusTrialScheduled,
	StatusTrialComplete,
	StatusOfferMade,
	StatusHired,
}

// Rank returns the status's position in the forward pipeline, or -1 for
// terminal or unknown statuses.
func Rank(s Status) int {
	for i, st := range pipelineOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Terminal reports whether the status closes out the pipeline. Interviews
// belonging to terminal candidates are auto-resolved rather than completed.
func Terminal(s Status) bool {
	switch s {
	case StatusWithdrawn, StatusRejected, StatusHired:
		return true
	}
	return false
}

// WaitingToBook reports whether a candidate with this status is still
// expected to use a booking link.
func WaitingToBook(s Status) bool {
	return s == StatusInviteSent || s == StatusTrialInviteSent
}

// ScheduledStatus is the holding status a successful booking moves the
// candidate into.
func ScheduledStatus(kind availability.Kind) Status {
	if kind == availability.KindTrial {
		return StatusTrialScheduled
	}
	return StatusInterviewScheduled
}

// CompletionStatus is the forward step applied when an appointment is
// auto-completed.
func CompletionStatus(kind availability.Kind) Status {
	if kind == availability.KindTrial {
		return StatusTrialComplete
	}
	return StatusInterviewComplete
}

// CanAdvance reports whether an automatic move from current to target is a
// strictly forward step. Terminal and unknown statuses are never auto-moved.
func CanAdvance(current, target Status) bool {
	ci, ti := Rank(current), Rank(target)
	if ci < 0 || ti < 0 {
		return false
	}
	return ti > ci
}

// Candidate is the directory record subset the engine touches.
type Candidate struct {
	ID               uuid.UUID
	FirstName        string
	LastName         string
	Email            string
	Status           Status
	WithdrawalReason string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
