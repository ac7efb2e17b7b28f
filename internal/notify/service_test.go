package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitflow/booking-engine/internal/candidates"
	"github.com/recruitflow/booking-engine/internal/events"
	"github.com/recruitflow/booking-engine/pkg/logging"
)

type recordingSender struct {
	sent []EmailMessage
}

func (s *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	s.sent = append(s.sent, msg)
	return nil
}

type fakeDirectory struct {
	candidate *candidates.Candidate
}

func (d *fakeDirectory) Get(_ context.Context, id uuid.UUID) (*candidates.Candidate, error) {
	if d.candidate != nil && d.candidate.ID == id {
		return d.candidate, nil
	}
	return nil, nil
}

func entryFor(t *testing.T, evt events.Event) events.OutboxEntry {
	t.Helper()
	payload, err := json.Marshal(evt)
	require.NoError(t, err)
	return events.OutboxEntry{ID: uuid.New(), Type: evt.EventType(), Payload: payload}
}

func TestHandle_BookedEmailsCandidate(t *testing.T) {
	cand := &candidates.Candidate{
		ID:        uuid.New(),
		FirstName: "Priya",
		LastName:  "Shah",
		Email:     "priya@example.com",
	}
	sender := &recordingSender{}
	svc := NewService(sender, &fakeDirectory{candidate: cand}, "ops@example.com", logging.Default())

	entry := entryFor(t, events.InterviewBookedV1{
		InterviewID:      uuid.NewString(),
		CandidateID:      cand.ID.String(),
		Kind:             "trial",
		ScheduledAt:      time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC),
		DurationMinutes:  240,
		ConfirmationCode: "TR-XYZ789",
	})
	require.NoError(t, svc.Handle(context.Background(), entry))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "priya@example.com", msg.To)
	assert.Equal(t, "Priya Shah", msg.ToName)
	assert.Contains(t, msg.Subject, "trial shift")
	assert.Contains(t, msg.Subject, "TR-XYZ789")
	assert.Contains(t, msg.Body, "Monday, 2 March 2026 at 09:00")
	assert.Contains(t, msg.Body, "240 minutes")
}

func TestHandle_BookedWithoutEmailIsAcknowledged(t *testing.T) {
	cand := &candidates.Candidate{ID: uuid.New(), FirstName: "Sam"}
	sender := &recordingSender{}
	svc := NewService(sender, &fakeDirectory{candidate: cand}, "ops@example.com", logging.Default())

	entry := entryFor(t, events.InterviewBookedV1{CandidateID: cand.ID.String()})
	require.NoError(t, svc.Handle(context.Background(), entry))
	assert.Empty(t, sender.sent)
}

func TestHandle_LapsedAlertsOps(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, &fakeDirectory{}, "ops@example.com", logging.Default())

	entry := entryFor(t, events.InterviewLapsedV1{
		InterviewID: uuid.NewString(),
		CandidateID: uuid.NewString(),
		Kind:        "interview",
		ScheduledAt: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, svc.Handle(context.Background(), entry))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ops@example.com", sender.sent[0].To)
	assert.Equal(t, "Interview needs resolution", sender.sent[0].Subject)
}

func TestHandle_LapsedWithoutOpsEmailIsSkipped(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, &fakeDirectory{}, "", logging.Default())

	entry := entryFor(t, events.InterviewLapsedV1{InterviewID: uuid.NewString()})
	require.NoError(t, svc.Handle(context.Background(), entry))
	assert.Empty(t, sender.sent)
}

func TestHandle_WithdrawnAlertsOps(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, &fakeDirectory{}, "ops@example.com", logging.Default())

	entry := entryFor(t, events.CandidateWithdrawnV1{
		CandidateID: uuid.NewString(),
		Reason:      "booking link expired without booking",
	})
	require.NoError(t, svc.Handle(context.Background(), entry))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Body, "booking link expired without booking")
}

func TestHandle_UnknownTypeIsAcknowledged(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, &fakeDirectory{}, "ops@example.com", logging.Default())

	entry := events.OutboxEntry{ID: uuid.New(), Type: "interview.rescheduled.v9", Payload: []byte(`{}`)}
	require.NoError(t, svc.Handle(context.Background(), entry))
	assert.Empty(t, sender.sent)
}
