package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/booking-engine/internal/candidates"
	"github.com/recruitflow/booking-engine/internal/events"
	"github.com/recruitflow/booking-engine/pkg/logging"
)

// Directory looks up candidate contact details for outgoing email.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (*candidates.Candidate, error)
}

// Service consumes outbox entries and emails the people affected. It
// implements events.DeliveryHandler. Unknown event types are acknowledged
// without action so one deploy can add event types before the next adds
// their emails.
type Service struct {
	email     EmailSender
	directory Directory
	opsEmail  string
	logger    *logging.Logger
}

// NewService creates a notification service. opsEmail receives the recruiter
// alerts (lapses, withdrawals); candidate emails go to the candidate record.
func NewService(email EmailSender, directory Directory, opsEmail string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, directory: directory, opsEmail: opsEmail, logger: logger.WithComponent("notify")}
}

// Handle dispatches one outbox entry. A send failure is returned so the
// deliverer leaves the entry pending and retries on the next pass.
func (s *Service) Handle(ctx context.Context, entry events.OutboxEntry) error {
	switch entry.Type {
	case events.InterviewBookedV1{}.EventType():
		return s.handleBooked(ctx, entry.Payload)
	case events.InterviewLapsedV1{}.EventType():
		return s.handleLapsed(ctx, entry.Payload)
	case events.CandidateWithdrawnV1{}.EventType():
		return s.handleWithdrawn(ctx, entry.Payload)
	default:
		s.logger.Debug("no notification for event type", "type", entry.Type)
		return nil
	}
}

func (s *Service) handleBooked(ctx context.Context, payload json.RawMessage) error {
	var evt events.InterviewBookedV1
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("notify: unmarshal booked event: %w", err)
	}
	cand, err := s.candidate(ctx, evt.CandidateID)
	if err != nil {
		return err
	}
	if cand == nil || cand.Email == "" {
		s.logger.Warn("booked candidate has no email", "candidate_id", evt.CandidateID)
		return nil
	}

	label := "interview"
	if evt.Kind == "trial" {
		label = "trial shift"
	}
	body := fmt.Sprintf(
		"Hi %s,\n\nYour %s is confirmed for %s.\nDuration: %d minutes.\nConfirmation code: %s\n\nSee you then!",
		cand.FirstName, label,
		evt.ScheduledAt.Format("Monday, 2 January 2006 at 15:04"),
		evt.DurationMinutes, evt.ConfirmationCode,
	)
	return s.email.Send(ctx, EmailMessage{
		To:      cand.Email,
		ToName:  strings.TrimSpace(cand.FirstName + " " + cand.LastName),
		Subject: fmt.Sprintf("Your %s is booked (%s)", label, evt.ConfirmationCode),
		Body:    body,
	})
}

func (s *Service) handleLapsed(ctx context.Context, payload json.RawMessage) error {
	if s.opsEmail == "" {
		return nil
	}
	var evt events.InterviewLapsedV1
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("notify: unmarshal lapsed event: %w", err)
	}
	body := fmt.Sprintf(
		"Interview %s (candidate %s, %s) was scheduled for %s and has no recorded outcome.\nPlease resolve it in the ops dashboard.",
		evt.InterviewID, evt.CandidateID, evt.Kind,
		evt.ScheduledAt.Format(time.RFC1123),
	)
	return s.email.Send(ctx, EmailMessage{
		To:      s.opsEmail,
		Subject: "Interview needs resolution",
		Body:    body,
	})
}

func (s *Service) handleWithdrawn(ctx context.Context, payload json.RawMessage) error {
	if s.opsEmail == "" {
		return nil
	}
	var evt events.CandidateWithdrawnV1
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("notify: unmarshal withdrawn event: %w", err)
	}
	return s.email.Send(ctx, EmailMessage{
		To:      s.opsEmail,
		Subject: "Candidate withdrawn",
		Body:    fmt.Sprintf("Candidate %s was withdrawn: %s", evt.CandidateID, evt.Reason),
	})
}

func (s *Service) candidate(ctx context.Context, id string) (*candidates.Candidate, error) {
	cid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("notify: bad candidate id %q: %w", id, err)
	}
	return s.directory.Get(ctx, cid)
}
