package interviews

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/recruitflow/booking-engine/internal/candidates"
	"github.com/recruitflow/booking-engine/internal/events"
	"github.com/recruitflow/booking-engine/internal/observability/metrics"
	"github.com/recruitflow/booking-engine/pkg/logging"
)

// LapseWindow is how long past an appointment's scheduled start the sweep
// keeps assuming it happened. Within the window an unfinalized interview is
// auto-completed; beyond it the interview is marked lapsed for manual
// resolution.
const LapseWindow = 48 * time.Hour

// Directory is the slice of the candidate store the sweep reads and advances.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (*candidates.Candidate, error)
	AdvanceStatus(ctx context.Context, id uuid.UUID, target candidates.Status) (bool, error)
}

// Outbox appends domain events for asynchronous delivery.
type Outbox interface {
	Append(ctx context.Context, aggregate string, evt events.Event) (uuid.UUID, error)
}

// LapsedInterviewProcessor reconciles interviews whose scheduled time has
// passed without a recorded outcome. Each pass is idempotent: every state
// change is a conditional transition that re-runs as a no-op.
type LapsedInterviewProcessor struct {
	store     *Store
	directory Directory
	outbox    Outbox
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewLapsedInterviewProcessor creates the lapse sweep.
func NewLapsedInterviewProcessor(store *Store, directory Directory, outbox Outbox, logger *logging.Logger) *LapsedInterviewProcessor {
	if logger == nil {
		logger = logging.Default()
	}
	return &LapsedInterviewProcessor{
		store:     store,
		directory: directory,
		outbox:    outbox,
		logger:    logger.WithComponent("lapse_sweep"),
		now:       time.Now,
	}
}

// WithNow overrides the clock for tests.
func (p *LapsedInterviewProcessor) WithNow(now func() time.Time) *LapsedInterviewProcessor {
	if now != nil {
		p.now = now
	}
	return p
}

// WithMetrics attaches sweep instrumentation.
func (p *LapsedInterviewProcessor) WithMetrics(m *metrics.BookingMetrics) *LapsedInterviewProcessor {
	p.metrics = m
	return p
}

// Run processes every unfinalized past interview. One failing interview never
// blocks the rest; it stays unfinalized and is retried on the next pass.
// Returns how many interviews changed state.
func (p *LapsedInterviewProcessor) Run(ctx context.Context) (int, error) {
	asOf := p.now().UTC()
	due, err := p.store.ListUnfinalizedBefore(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("interviews: lapse sweep list: %w", err)
	}

	changed := 0
	for _, iv := range due {
		moved, err := p.processOne(ctx, iv, asOf)
		if err != nil {
			p.logger.Error("lapse sweep item failed", "error", err, "interview_id", iv.ID)
			continue
		}
		if moved {
			changed++
		}
	}
	if changed > 0 || len(due) > 0 {
		p.logger.Info("lapse sweep pass finished", "due", len(due), "changed", changed)
	}
	return changed, nil
}

func (p *LapsedInterviewProcessor) processOne(ctx context.Context, iv Interview, asOf time.Time) (bool, error) {
	cand, err := p.directory.Get(ctx, iv.CandidateID)
	if err != nil {
		return false, err
	}

	// A candidate who already left the pipeline, or moved past the stage this
	// appointment feeds, makes the appointment moot. Close it without claiming
	// an outcome.
	if cand == nil || candidates.Terminal(cand.Status) ||
		candidates.Rank(cand.Status) > candidates.Rank(candidates.CompletionStatus(iv.Kind)) {
		status := candidates.Status("unknown")
		if cand != nil {
			status = cand.Status
		}
		reason := fmt.Sprintf("auto-resolved: candidate status is %s", status)
		moved, err := p.store.Transition(ctx, iv.ID, ActiveStatuses, StatusResolved, reason)
		if err != nil || !moved {
			return false, err
		}
		p.metrics.ObserveSweepTransition("lapsed_interviews", string(StatusResolved))
		p.emit(ctx, iv, events.InterviewResolvedV1{
			InterviewID: iv.ID.String(),
			CandidateID: iv.CandidateID.String(),
			NewStatus:   string(StatusResolved),
			Reason:      reason,
		})
		return true, nil
	}

	// Recently scheduled appointments are presumed to have happened; nobody
	// recorded a no-show or cancellation in time.
	if asOf.Sub(iv.ScheduledAt) < LapseWindow {
		moved, err := p.store.Transition(ctx, iv.ID, ActiveStatuses, StatusCompleted, "auto-completed by sweep")
		if err != nil || !moved {
			return false, err
		}
		target := candidates.CompletionStatus(iv.Kind)
		if advanced, err := p.directory.AdvanceStatus(ctx, iv.CandidateID, target); err != nil {
			p.logger.Error("candidate advance failed after auto-complete", "error", err,
				"candidate_id", iv.CandidateID, "target", target)
		} else if advanced {
			p.logger.Info("candidate advanced", "candidate_id", iv.CandidateID, "target", target)
		}
		p.metrics.ObserveSweepTransition("lapsed_interviews", string(StatusCompleted))
		p.emit(ctx, iv, events.InterviewCompletedV1{
			InterviewID: iv.ID.String(),
			CandidateID: iv.CandidateID.String(),
			Kind:        string(iv.Kind),
			ScheduledAt: iv.ScheduledAt,
			CompletedAt: asOf,
		})
		return true, nil
	}

	// Too old to presume anything. Park it for a human.
	moved, err := p.store.Transition(ctx, iv.ID, ActiveStatuses, StatusLapsed, "no outcome recorded within 48h")
	if err != nil || !moved {
		return false, err
	}
	p.metrics.ObserveSweepTransition("lapsed_interviews", string(StatusLapsed))
	p.emit(ctx, iv, events.InterviewLapsedV1{
		InterviewID: iv.ID.String(),
		CandidateID: iv.CandidateID.String(),
		Kind:        string(iv.Kind),
		ScheduledAt: iv.ScheduledAt,
	})
	return true, nil
}

// emit appends an event outside the state-change write. The transition guard
// already ensured exactly one pass wins, so at most one event is appended per
// transition; append failures are logged and dropped rather than undoing the
// state change.
func (p *LapsedInterviewProcessor) emit(ctx context.Context, iv Interview, evt events.Event) {
	if p.outbox == nil {
		return
	}
	if _, err := p.outbox.Append(ctx, "interview:"+iv.ID.String(), evt); err != nil {
		p.logger.Error("outbox append failed", "error", err, "interview_id", iv.ID, "type", evt.EventType())
	}
}
