package candidates

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/recruitflow/booking-engine/pkg/logging"
)

// TerminalHook is invoked whenever a candidate reaches a terminal status, so
// the interview side can immediately resolve or cancel that candidate's
// appointments instead of waiting for the next sweep.
type TerminalHook interface {
	OnCandidateTerminal(ctx context.Context, candidateID uuid.UUID, status Status) error
}

// Service wraps status writes with the reactive terminal-status rule.
type Service struct {
	store  *Store
	hook   TerminalHook
	logger *logging.Logger
}

// NewService creates a candidate status service.
func NewService(store *Store, hook TerminalHook, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, hook: hook, logger: logger}
}

// SetStatus records a status change coming from the directory surface and
// fires the terminal hook when the new status closes the pipeline. Hook
// failures are logged, never propagated: the status write already happened.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if Rank(status) < 0 && !Terminal(status) {
		return fmt.Errorf("candidates: unknown status %q", status)
	}
	if err := s.store.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("candidate status set", "candidate_id", id, "status", status)

	if Terminal(status) && s.hook != nil {
		if err := s.hook.OnCandidateTerminal(ctx, id, status); err != nil {
			s.logger.Error("candidate terminal hook failed", "error", err, "candidate_id", id, "status", status)
		}
	}
	return nil
}
