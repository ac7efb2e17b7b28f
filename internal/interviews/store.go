package interviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/recruitflow/booking-engine/internal/availability"
	"github.com/recruitflow/booking-engine/internal/events"
)

// Booking-commit failures distinguished for the caller. Everything else is an
// internal error.
var (
	// ErrLinkNoLongerValid means the link left the active state between the
	// advisory validation and the commit.
	ErrLinkNoLongerValid = errors.New("interviews: booking link no longer valid")
	// ErrLinkUsedUp means another booking consumed the link's last use first.
	ErrLinkUsedUp = errors.New("interviews: booking link already used")
	// ErrSlotTaken means the chosen time collided with a booking that
	// committed first. Callers should re-list and retry.
	ErrSlotTaken = errors.New("interviews: slot already taken")
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

const interviewColumns = `id, candidate_id, kind, scheduled_at, duration_minutes, status, confirmation_code, link_id, resolution_reason, notes, created_at, updated_at`

// Store provides persistence for interviews, including the transactional
// booking commit.
type Store struct {
	db DB
}

// NewStore creates an interview store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// GetByID returns an interview, or nil when none exists.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*Interview, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+interviewColumns+`
		FROM interviews
		WHERE id = $1`, id)
	iv, err := scanInterview(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("interviews: get by id: %w", err)
	}
	return iv, nil
}

// ListActiveBetween returns scheduled/confirmed interviews whose start falls
// in [from, to), ordered by start time.
func (s *Store) ListActiveBetween(ctx context.Context, from, to time.Time) ([]Interview, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+interviewColumns+`
		FROM interviews
		WHERE status IN ('scheduled', 'confirmed') AND scheduled_at >= $1 AND scheduled_at < $2
		ORDER BY scheduled_at ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("interviews: list active between: %w", err)
	}
	defer rows.Close()
	return scanInterviews(rows)
}

// ActiveCountsByDay returns, for each ISO date in [from, to), how many
// scheduled/confirmed interviews start that day. Days with no interviews are
// absent from the map.
func (s *Store) ActiveCountsByDay(ctx context.Context, from, to time.Time, loc *time.Location) (map[string]int, error) {
	rows, err := s.db.Query(ctx, `
		SELECT scheduled_at
		FROM interviews
		WHERE status IN ('scheduled', 'confirmed') AND scheduled_at >= $1 AND scheduled_at < $2`, from, to)
	if err != nil {
		return nil, fmt.Errorf("interviews: active counts by day: %w", err)
	}
	defer rows.Close()

	if loc == nil {
		loc = time.UTC
	}
	counts := make(map[string]int)
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("interviews: scan scheduled_at: %w", err)
		}
		counts[at.In(loc).Format("2006-01-02")]++
	}
	return counts, rows.Err()
}

// ListUnfinalizedBefore returns scheduled/confirmed interviews whose start
// time has passed, oldest first. This is the lapse sweep's work list.
func (s *Store) ListUnfinalizedBefore(ctx context.Context, asOf time.Time) ([]Interview, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+interviewColumns+`
		FROM interviews
		WHERE status IN ('scheduled', 'confirmed') AND scheduled_at < $1
		ORDER BY scheduled_at ASC`, asOf)
	if err != nil {
		return nil, fmt.Errorf("interviews: list unfinalized: %w", err)
	}
	defer rows.Close()
	return scanInterviews(rows)
}

// ListByCandidate returns a candidate's interviews in the given statuses.
func (s *Store) ListByCandidate(ctx context.Context, candidateID uuid.UUID, statuses []Status) ([]Interview, error) {
	strs := make([]string, len(statuses))
	for i, st := range statuses {
		strs[i] = string(st)
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+interviewColumns+`
		FROM interviews
		WHERE candidate_id = $1 AND status = ANY($2)
		ORDER BY scheduled_at ASC`, candidateID, strs)
	if err != nil {
		return nil, fmt.Errorf("interviews: list by candidate: %w", err)
	}
	defer rows.Close()
	return scanInterviews(rows)
}

// Transition moves an interview from any of the given statuses to the target.
// Returns false when the interview had already left those states, which makes
// every sweep re-run a no-op.
func (s *Store) Transition(ctx context.Context, id uuid.UUID, from []Status, to Status, reason string) (bool, error) {
	strs := make([]string, len(from))
	for i, st := range from {
		strs[i] = string(st)
	}
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE interviews SET status = $1, resolution_reason = $2, updated_at = $3
		WHERE id = $4 AND status = ANY($5)`, string(to), reason, now, id, strs)
	if err != nil {
		return false, fmt.Errorf("interviews: transition to %s: %w", to, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Reschedule moves a lapsed interview back to scheduled at a new time.
func (s *Store) Reschedule(ctx context.Context, id uuid.UUID, newStart time.Time, reason string) (bool, error) {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE interviews SET status = 'scheduled', scheduled_at = $1, resolution_reason = $2, updated_at = $3
		WHERE id = $4 AND status = 'lapsed'`, newStart, reason, now, id)
	if err != nil {
		return false, fmt.Errorf("interviews: reschedule: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// BookParams carries everything the booking commit writes.
type BookParams struct {
	LinkID           uuid.UUID
	CandidateID      uuid.UUID
	Kind             availability.Kind
	ScheduledAt      time.Time
	DurationMinutes  int
	ConfirmationCode string
}

// BookAtomic is the double-booking prevention boundary. In one serializable
// transaction it re-reads the link, re-validates it, re-checks the chosen
// interval against committed bookings, inserts the interview, consumes a link
// use, and appends the booked event to the outbox. Every advisory check the
// caller ran before this point can be stale; this one cannot.
func (s *Store) BookAtomic(ctx context.Context, p BookParams) (*Interview, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("interviews: begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var linkStatus string
	var useCount, maxUses int
	err = tx.QueryRow(ctx, `
		SELECT status, use_count, max_uses
		FROM booking_links
		WHERE id = $1
		FOR UPDATE`, p.LinkID).Scan(&linkStatus, &useCount, &maxUses)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLinkNoLongerValid
	}
	if err != nil {
		return nil, bookErr("re-read link", err)
	}
	if linkStatus != "active" {
		return nil, ErrLinkNoLongerValid
	}
	if useCount >= maxUses {
		return nil, ErrLinkUsedUp
	}

	end := p.ScheduledAt.Add(time.Duration(p.DurationMinutes) * time.Minute)
	var overlapping int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM interviews
		WHERE status IN ('scheduled', 'confirmed')
		  AND scheduled_at < $1
		  AND scheduled_at + make_interval(mins => duration_minutes) > $2`,
		end, p.ScheduledAt).Scan(&overlapping)
	if err != nil {
		return nil, bookErr("conflict re-check", err)
	}
	if overlapping > 0 {
		return nil, ErrSlotTaken
	}

	now := time.Now().UTC()
	iv := &Interview{
		ID:               uuid.New(),
		CandidateID:      p.CandidateID,
		Kind:             p.Kind,
		ScheduledAt:      p.ScheduledAt,
		DurationMinutes:  p.DurationMinutes,
		Status:           StatusScheduled,
		ConfirmationCode: p.ConfirmationCode,
		LinkID:           p.LinkID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO interviews (id, candidate_id, kind, scheduled_at, duration_minutes, status, confirmation_code, link_id, resolution_reason, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '', '', $9, $10)`,
		iv.ID, iv.CandidateID, string(iv.Kind), iv.ScheduledAt, iv.DurationMinutes,
		string(iv.Status), iv.ConfirmationCode, iv.LinkID, iv.CreatedAt, iv.UpdatedAt,
	)
	if err != nil {
		return nil, bookErr("insert interview", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE booking_links
		SET use_count = use_count + 1,
		    status = CASE WHEN use_count + 1 >= max_uses THEN 'used' ELSE status END,
		    updated_at = $2
		WHERE id = $1`, p.LinkID, now)
	if err != nil {
		return nil, bookErr("consume link", err)
	}

	evt := events.InterviewBookedV1{
		InterviewID:      iv.ID.String(),
		CandidateID:      iv.CandidateID.String(),
		Kind:             string(iv.Kind),
		ScheduledAt:      iv.ScheduledAt,
		DurationMinutes:  iv.DurationMinutes,
		ConfirmationCode: iv.ConfirmationCode,
	}
	if _, err := events.AppendTx(ctx, tx, "interview:"+iv.ID.String(), evt); err != nil {
		return nil, bookErr("append booked event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, bookErr("commit booking", err)
	}
	return iv, nil
}

// bookErr maps serialization failures to the retryable conflict error; two
// commits racing for the same window abort exactly one of them with 40001.
func bookErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "40001" {
		return ErrSlotTaken
	}
	return fmt.Errorf("interviews: %s: %w", op, err)
}

func scanInterview(row pgx.Row) (*Interview, error) {
	var iv Interview
	var kind, status string
	err := row.Scan(
		&iv.ID, &iv.CandidateID, &kind, &iv.ScheduledAt, &iv.DurationMinutes,
		&status, &iv.ConfirmationCode, &iv.LinkID, &iv.ResolutionReason, &iv.Notes,
		&iv.CreatedAt, &iv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	iv.Kind = availability.Kind(kind)
	iv.Status = Status(status)
	return &iv, nil
}

func scanInterviews(rows pgx.Rows) ([]Interview, error) {
	var result []Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("interviews: scan interview: %w", err)
		}
		result = append(result, *iv)
	}
	return result, rows.Err()
}
