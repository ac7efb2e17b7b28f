package candidates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const candidateColumns = `id, first_name, last_name, email, status, withdrawal_reason, created_at, updated_at`

// Store provides persistence for the candidate fields the engine touches.
type Store struct {
	db DB
}

// NewStore creates a candidate directory store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Get returns a candidate, or nil when none exists.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+candidateColumns+`
		FROM candidates
		WHERE id = $1`, id)
	c, err := scanCandidate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("candidates: get: %w", err)
	}
	return c, nil
}

// SetStatus writes a candidate's pipeline status unconditionally. Used by the
// directory's own status operations; automatic advancement goes through
// AdvanceStatus.
func (s *Store) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE candidates SET status = $1, updated_at = $2
		WHERE id = $3`, string(status), now, id)
	if err != nil {
		return fmt.Errorf("candidates: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("candidates: set status: no candidate with id %s", id)
	}
	return nil
}

// AdvanceStatus moves a candidate to target only when that is a forward step
// from their current status. The guard lives in the UPDATE itself so two
// concurrent sweeps cannot leapfrog each other. Returns false when no move
// happened.
func (s *Store) AdvanceStatus(ctx context.Context, id uuid.UUID, target Status) (bool, error) {
	rank := Rank(target)
	if rank < 0 {
		return false, fmt.Errorf("candidates: %q is not a forward pipeline status", target)
	}
	// Build the list of statuses strictly below the target.
	var below []string
	for _, st := range pipelineOrder[:rank] {
		below = append(below, string(st))
	}
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE candidates SET status = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)`, string(target), now, id, below)
	if err != nil {
		return false, fmt.Errorf("candidates: advance status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Withdraw marks a candidate withdrawn with a recorded reason, unless they
// already reached a terminal status.
func (s *Store) Withdraw(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE candidates SET status = 'withdrawn', withdrawal_reason = $1, updated_at = $2
		WHERE id = $3 AND status NOT IN ('withdrawn', 'rejected', 'hired')`, reason, now, id)
	if err != nil {
		return false, fmt.Errorf("candidates: withdraw: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanCandidate(row pgx.Row) (*Candidate, error) {
	var c Candidate
	var status string
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email,
		&status, &c.WithdrawalReason, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = Status(status)
	return &c, nil
}
