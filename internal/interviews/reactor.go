package interviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/recruitflow/booking-engine/internal/candidates"
	"github.com/recruitflow/booking-engine/internal/events"
	"github.com/recruitflow/booking-engine/pkg/logging"
)

// Reactor reacts to candidate pipeline changes. When a candidate reaches a
// terminal status, their open appointments are closed immediately instead of
// waiting for the next sweep pass.
type Reactor struct {
	store  *Store
	outbox Outbox
	logger *logging.Logger
}

// NewReactor creates a candidate-status reactor.
func NewReactor(store *Store, outbox Outbox, logger *logging.Logger) *Reactor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Reactor{store: store, outbox: outbox, logger: logger.WithComponent("interview_reactor")}
}

// OnCandidateTerminal cancels the candidate's upcoming appointments and
// resolves any lapsed ones. Implements candidates.TerminalHook.
func (r *Reactor) OnCandidateTerminal(ctx context.Context, candidateID uuid.UUID, status candidates.Status) error {
	reason := fmt.Sprintf("candidate reached terminal status %s", status)

	open, err := r.store.ListByCandidate(ctx, candidateID, []Status{StatusScheduled, StatusConfirmed, StatusLapsed})
	if err != nil {
		return fmt.Errorf("interviews: list open for terminal candidate: %w", err)
	}

	for _, iv := range open {
		if iv.Status == StatusLapsed {
			moved, err := r.store.Transition(ctx, iv.ID, []Status{StatusLapsed}, StatusResolved, reason)
			if err != nil {
				return err
			}
			if moved {
				r.emit(ctx, iv, events.InterviewResolvedV1{
					InterviewID: iv.ID.String(),
					CandidateID: candidateID.String(),
					NewStatus:   string(StatusResolved),
					Reason:      reason,
				})
			}
			continue
		}
		moved, err := r.store.Transition(ctx, iv.ID, ActiveStatuses, StatusCancelled, reason)
		if err != nil {
			return err
		}
		if moved {
			r.emit(ctx, iv, events.InterviewCancelledV1{
				InterviewID: iv.ID.String(),
				CandidateID: candidateID.String(),
				Reason:      reason,
			})
		}
	}
	return nil
}

func (r *Reactor) emit(ctx context.Context, iv Interview, evt events.Event) {
	if r.outbox == nil {
		return
	}
	if _, err := r.outbox.Append(ctx, "interview:"+iv.ID.String(), evt); err != nil {
		r.logger.Error("outbox append failed", "error", err, "interview_id", iv.ID, "type", evt.EventType())
	}
}
