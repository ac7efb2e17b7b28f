package interviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/recruitflow/booking-engine/internal/candidates"
	"github.com/recruitflow/booking-engine/internal/events"
	"github.com/recruitflow/booking-engine/pkg/logging"
)

// Resolution is a manual outcome applied to a lapsed interview.
type Resolution string

const (
	ResolutionScheduled Resolution = "scheduled"
	ResolutionCompleted Resolution = "completed"
	ResolutionCancelled Resolution = "cancelled"
	ResolutionNoShow    Resolution = "no_show"
)

var (
	// ErrNotFound means no interview exists with the given id.
	ErrNotFound = errors.New("interviews: not found")
	// ErrNotLapsed means the interview is not awaiting manual resolution.
	ErrNotLapsed = errors.New("interviews: not in lapsed state")
	// ErrMissingNewTime means a reschedule resolution arrived without a time.
	ErrMissingNewTime = errors.New("interviews: reschedule requires a new time")
	// ErrUnknownResolution means the resolution value is not recognised.
	ErrUnknownResolution = errors.New("interviews: unknown resolution")
)

// ResolveRequest carries a manual resolution for a lapsed interview.
type ResolveRequest struct {
	Resolution Resolution
	NewStart   time.Time
	Notes      string
}

// Service exposes the manual interview operations behind the ops surface.
type Service struct {
	store     *Store
	directory Directory
	outbox    Outbox
	logger    *logging.Logger
	tracer    trace.Tracer
}

// NewService creates an interview service.
func NewService(store *Store, directory Directory, outbox Outbox, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:     store,
		directory: directory,
		outbox:    outbox,
		logger:    logger.WithComponent("interviews"),
		tracer:    otel.Tracer("interviews"),
	}
}

// ResolveLapsed applies a recruiter's verdict to a lapsed interview. The
// transition is conditional on the lapsed state, so two recruiters resolving
// the same interview cannot both win.
func (s *Service) ResolveLapsed(ctx context.Context, id uuid.UUID, req ResolveRequest) (*Interview, error) {
	ctx, span := s.tracer.Start(ctx, "interviews.resolve_lapsed",
		trace.WithAttributes(
			attribute.String("interview.id", id.String()),
			attribute.String("interview.resolution", string(req.Resolution)),
		))
	defer span.End()

	iv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv == nil {
		return nil, ErrNotFound
	}

	reason := req.Notes
	if reason == "" {
		reason = fmt.Sprintf("manually resolved: %s", req.Resolution)
	}

	var moved bool
	switch req.Resolution {
	case ResolutionScheduled:
		if req.NewStart.IsZero() {
			return nil, ErrMissingNewTime
		}
		moved, err = s.store.Reschedule(ctx, id, req.NewStart, reason)
	case ResolutionCompleted:
		moved, err = s.store.Transition(ctx, id, []Status{StatusLapsed}, StatusCompleted, reason)
	case ResolutionCancelled:
		moved, err = s.store.Transition(ctx, id, []Status{StatusLapsed}, StatusCancelled, reason)
	case ResolutionNoShow:
		moved, err = s.store.Transition(ctx, id, []Status{StatusLapsed}, StatusNoShow, reason)
	default:
		return nil, ErrUnknownResolution
	}
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, ErrNotLapsed
	}

	if req.Resolution == ResolutionCompleted && s.directory != nil {
		target := candidates.CompletionStatus(iv.Kind)
		if advanced, err := s.directory.AdvanceStatus(ctx, iv.CandidateID, target); err != nil {
			s.logger.Error("candidate advance failed after manual completion", "error", err,
				"candidate_id", iv.CandidateID, "target", target)
		} else if advanced {
			s.logger.Info("candidate advanced", "candidate_id", iv.CandidateID, "target", target)
		}
	}

	s.logger.Info("lapsed interview resolved", "interview_id", id, "resolution", req.Resolution)
	if s.outbox != nil {
		evt := events.InterviewResolvedV1{
			InterviewID: id.String(),
			CandidateID: iv.CandidateID.String(),
			NewStatus:   string(req.Resolution),
			Reason:      reason,
		}
		if _, err := s.outbox.Append(ctx, "interview:"+id.String(), evt); err != nil {
			s.logger.Error("outbox append failed", "error", err, "interview_id", id, "type", evt.EventType())
		}
	}

	return s.store.GetByID(ctx, id)
}
