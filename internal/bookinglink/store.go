package bookinglink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/recruitflow/booking-engine/internal/availability"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const linkColumns = `id, token_hash, candidate_id, kind, duration_minutes, job_title, branch_id, status, expires_at, max_uses, use_count, created_at, updated_at`

// Store provides persistence for booking links.
type Store struct {
	db DB
}

// NewStore creates a booking link store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Create inserts a new active link.
func (s *Store) Create(ctx context.Context, l *Link) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now
	if l.Status == "" {
		l.Status = StatusActive
	}
	if l.MaxUses <= 0 {
		l.MaxUses = 1
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_links (id, token_hash, candidate_id, kind, duration_minutes, job_title, branch_id, status, expires_at, max_uses, use_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		l.ID, l.TokenHash, l.CandidateID, string(l.Kind), l.DurationMinutes, l.JobTitle, l.BranchID,
		string(l.Status), l.ExpiresAt, l.MaxUses, l.UseCount, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("bookinglink: create: %w", err)
	}
	return nil
}

// GetByTokenHash returns the link whose stored hash matches, or nil when none
// exists.
func (s *Store) GetByTokenHash(ctx context.Context, hash string) (*Link, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+linkColumns+`
		FROM booking_links
		WHERE token_hash = $1`, hash)
	l, err := scanLink(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bookinglink: get by token hash: %w", err)
	}
	return l, nil
}

// MarkExpired transitions an active link to expired. Returns false when the
// link had already left the active state, making the sweep idempotent.
func (s *Store) MarkExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE booking_links SET status = 'expired', updated_at = $1
		WHERE id = $2 AND status = 'active'`, now, id)
	if err != nil {
		return false, fmt.Errorf("bookinglink: mark expired: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Revoke transitions an active link to revoked.
func (s *Store) Revoke(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(ctx, `
		UPDATE booking_links SET status = 'revoked', updated_at = $1
		WHERE id = $2 AND status = 'active'`, now, id)
	if err != nil {
		return fmt.Errorf("bookinglink: revoke: %w", err)
	}
	return nil
}

// ListExpiredActive returns active links whose expiry has passed as of the
// given instant, oldest first.
func (s *Store) ListExpiredActive(ctx context.Context, asOf time.Time) ([]Link, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+linkColumns+`
		FROM booking_links
		WHERE status = 'active' AND expires_at <= $1
		ORDER BY expires_at ASC`, asOf)
	if err != nil {
		return nil, fmt.Errorf("bookinglink: list expired active: %w", err)
	}
	defer rows.Close()
	return scanLinks(rows)
}

func scanLink(row pgx.Row) (*Link, error) {
	var l Link
	var kind, status string
	err := row.Scan(
		&l.ID, &l.TokenHash, &l.CandidateID, &kind, &l.DurationMinutes,
		&l.JobTitle, &l.BranchID, &status, &l.ExpiresAt, &l.MaxUses, &l.UseCount,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Kind = availability.Kind(kind)
	l.Status = Status(status)
	return &l, nil
}

func scanLinks(rows pgx.Rows) ([]Link, error) {
	var result []Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("bookinglink: scan link: %w", err)
		}
		result = append(result, *l)
	}
	return result, rows.Err()
}
