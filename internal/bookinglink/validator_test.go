package bookinglink

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitflow/booking-engine/internal/availability"
	"github.com/recruitflow/booking-engine/pkg/logging"
)

var linkCols = []string{
	"id", "token_hash", "candidate_id", "kind", "duration_minutes", "job_title",
	"branch_id", "status", "expires_at", "max_uses", "use_count", "created_at", "updated_at",
}

func linkRow(mock pgxmock.PgxPoolIface, id uuid.UUID, hash, status string, expiresAt time.Time, maxUses, useCount int) *pgxmock.Rows {
	now := time.Now().UTC()
	return mock.NewRows(linkCols).AddRow(
		id, hash, uuid.New(), "interview", 30, "Stylist",
		"central", status, expiresAt, maxUses, useCount, now, now,
	)
}

func fixedNow() time.Time {
	return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func TestValidator_MalformedTokenNeverHitsStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	v := NewValidator(NewStore(mock), logging.Default())
	_, err = v.Validate(context.Background(), "short")
	assert.ErrorIs(t, err, ErrInvalidLink)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidator_UnknownToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	raw, hash, err := NewToken()
	require.NoError(t, err)
	mock.ExpectQuery("SELECT (.+) FROM booking_links").WithArgs(hash).WillReturnError(pgx.ErrNoRows)

	v := NewValidator(NewStore(mock), logging.Default())
	_, err = v.Validate(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidLink)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidator_RevokedLink(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	raw, hash, err := NewToken()
	require.NoError(t, err)
	mock.ExpectQuery("SELECT (.+) FROM booking_links").WithArgs(hash).
		WillReturnRows(linkRow(mock, uuid.New(), hash, "revoked", fixedNow().Add(24*time.Hour), 1, 0))

	v := NewValidator(NewStore(mock), logging.Default()).WithNow(fixedNow)
	_, err = v.Validate(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidLink)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidator_ExpiredLinkIsMarkedAsSideEffect(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	raw, hash, err := NewToken()
	require.NoError(t, err)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM booking_links").WithArgs(hash).
		WillReturnRows(linkRow(mock, id, hash, "active", fixedNow().Add(-time.Hour), 1, 0))
	mock.ExpectExec("UPDATE booking_links SET status = 'expired'").
		WithArgs(pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	v := NewValidator(NewStore(mock), logging.Default()).WithNow(fixedNow)
	_, err = v.Validate(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidLink)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidator_UsedUpLink(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	raw, hash, err := NewToken()
	require.NoError(t, err)
	mock.ExpectQuery("SELECT (.+) FROM booking_links").WithArgs(hash).
		WillReturnRows(linkRow(mock, uuid.New(), hash, "active", fixedNow().Add(24*time.Hour), 1, 1))

	v := NewValidator(NewStore(mock), logging.Default()).WithNow(fixedNow)
	_, err = v.Validate(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidLink)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidator_ActiveLinkPasses(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	raw, hash, err := NewToken()
	require.NoError(t, err)
	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM booking_links").WithArgs(hash).
		WillReturnRows(linkRow(mock, id, hash, "active", fixedNow().Add(24*time.Hour), 1, 0))

	v := NewValidator(NewStore(mock), logging.Default()).WithNow(fixedNow)
	link, err := v.Validate(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, id, link.ID)
	assert.Equal(t, availability.KindInterview, link.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}
