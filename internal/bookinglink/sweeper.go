package bookinglink

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

// WithdrawReason is recorded on candidates whose link expired while they were
// still expected to book with it.
const WithdrawReason = "booking link expired without booking"

// Directory is the slice of the candidate store the sweep reads and writes.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (*candidates.Candidate, error)
	Withdraw(ctx context.Context, id uuid.UUID, reason string) (bool, error)
}

// Outbox appends domain events for asynchronous delivery.
type Outbox interface {
	Append(ctx context.Context, aggregate string, evt events.Event) (uuid.UUID, error)
}

// ExpiredLinkSweeper expires overdue active links and withdraws candidates who
// never used them. Both writes are conditional, so re-running a pass over the
// same rows does nothing.
type ExpiredLinkSweeper struct {
	store     *Store
	directory Directory
	outbox    Outbox
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewExpiredLinkSweeper creates the expiry sweep.
func NewExpiredLinkSweeper(store *Store, directory Directory, outbox Outbox, logger *logging.Logger) *ExpiredLinkSweeper {
	if logger == nil {
		logger = logging.Default()
	}
	return &ExpiredLinkSweeper{
		store:     store,
		directory: directory,
		outbox:    outbox,
		logger:    logger.WithComponent("expiry_sweep"),
		now:       time.Now,
	}
}

// WithNow overrides the clock for tests.
func (s *ExpiredLinkSweeper) WithNow(now func() time.Time) *ExpiredLinkSweeper {
	if now != nil {
		s.now = now
	}
	return s
}

// WithMetrics attaches sweep instrumentation.
func (s *ExpiredLinkSweeper) WithMetrics(m *metrics.BookingMetrics) *ExpiredLinkSweeper {
	s.metrics = m
	return s
}

// Run expires every overdue link. A failure on one link leaves it active for
// the next pass and never blocks the others. Returns how many links expired.
func (s *ExpiredLinkSweeper) Run(ctx context.Context) (int, error) {
	asOf := s.now().UTC()
	due, err := s.store.ListExpiredActive(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("bookinglink: expiry sweep list: %w", err)
	}

	expired := 0
	for _, link := range due {
		moved, err := s.processOne(ctx, link, asOf)
		if err != nil {
			s.logger.Error("expiry sweep item failed", "error", err, "link_id", link.ID)
			continue
		}
		if moved {
			expired++
		}
	}
	if expired > 0 || len(due) > 0 {
		s.logger.Info("expiry sweep pass finished", "due", len(due), "expired", expired)
	}
	return expired, nil
}

func (s *ExpiredLinkSweeper) processOne(ctx context.Context, link Link, asOf time.Time) (bool, error) {
	moved, err := s.store.MarkExpired(ctx, link.ID)
	if err != nil || !moved {
		return false, err
	}
	s.metrics.ObserveSweepTransition("expired_links", string(StatusExpired))
	s.emit(ctx, link.ID, events.LinkExpiredV1{
		LinkID:      link.ID.String(),
		CandidateID: link.CandidateID.String(),
		Kind:        string(link.Kind),
		ExpiredAt:   asOf,
	})

	// Only candidates still holding an unanswered invite are withdrawn. Anyone
	// who booked, or moved on some other way, is left alone.
	cand, err := s.directory.Get(ctx, link.CandidateID)
	if err != nil {
		return true, err
	}
	if cand == nil || !candidates.WaitingToBook(cand.Status) {
		return true, nil
	}
	withdrawn, err := s.directory.Withdraw(ctx, link.CandidateID, WithdrawReason)
	if err != nil {
		return true, err
	}
	if withdrawn {
		s.metrics.ObserveSweepTransition("expired_links", "candidate_withdrawn")
		s.logger.Info("candidate withdrawn after link expiry", "candidate_id", link.CandidateID, "link_id", link.ID)
		s.emit(ctx, link.ID, events.CandidateWithdrawnV1{
			CandidateID: link.CandidateID.String(),
			Reason:      WithdrawReason,
		})
	}
	return true, nil
}

func (s *ExpiredLinkSweeper) emit(ctx context.Context, linkID uuid.UUID, evt events.Event) {
	if s.outbox == nil {
		return
	}
	if _, err := s.outbox.Append(ctx, "link:"+linkID.String(), evt); err != nil {
		s.logger.Error("outbox append failed", "error", err, "link_id", linkID, "type", evt.EventType())
	}
}
