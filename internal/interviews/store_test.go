package interviews

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitflow/booking-engine/internal/availability"
)

func bookParams() BookParams {
	return BookParams{
		LinkID:           uuid.New(),
		CandidateID:      uuid.New(),
		Kind:             availability.KindInterview,
		ScheduledAt:      time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
		DurationMinutes:  30,
		ConfirmationCode: "IV-ABC234",
	}
}

func TestBookAtomic_HappyPath(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	p := bookParams()
	end := p.ScheduledAt.Add(30 * time.Minute)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable})
	mock.ExpectQuery("SELECT status, use_count, max_uses").
		WithArgs(p.LinkID).
		WillReturnRows(mock.NewRows([]string{"status", "use_count", "max_uses"}).AddRow("active", 0, 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs(end, p.ScheduledAt).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO interviews").
		WithArgs(pgxmock.AnyArg(), p.CandidateID, "interview", p.ScheduledAt, 30,
			"scheduled", p.ConfirmationCode, p.LinkID, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE booking_links").
		WithArgs(p.LinkID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "interview.booked.v1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	store := NewStore(mock)
	iv, err := store.BookAtomic(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, iv.Status)
	assert.Equal(t, p.ConfirmationCode, iv.ConfirmationCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookAtomic_SlotTaken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	p := bookParams()
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable})
	mock.ExpectQuery("SELECT status, use_count, max_uses").
		WithArgs(p.LinkID).
		WillReturnRows(mock.NewRows([]string{"status", "use_count", "max_uses"}).AddRow("active", 0, 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	store := NewStore(mock)
	_, err = store.BookAtomic(context.Background(), p)
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookAtomic_LinkConsumedMeanwhile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	p := bookParams()
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable})
	mock.ExpectQuery("SELECT status, use_count, max_uses").
		WithArgs(p.LinkID).
		WillReturnRows(mock.NewRows([]string{"status", "use_count", "max_uses"}).AddRow("used", 1, 1))
	mock.ExpectRollback()

	store := NewStore(mock)
	_, err = store.BookAtomic(context.Background(), p)
	assert.ErrorIs(t, err, ErrLinkNoLongerValid)
}

func TestBookAtomic_UseCountExhausted(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	p := bookParams()
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable})
	mock.ExpectQuery("SELECT status, use_count, max_uses").
		WithArgs(p.LinkID).
		WillReturnRows(mock.NewRows([]string{"status", "use_count", "max_uses"}).AddRow("active", 2, 2))
	mock.ExpectRollback()

	store := NewStore(mock)
	_, err = store.BookAtomic(context.Background(), p)
	assert.ErrorIs(t, err, ErrLinkUsedUp)
}

func TestBookAtomic_SerializationFailureMapsToConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	p := bookParams()
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable})
	mock.ExpectQuery("SELECT status, use_count, max_uses").
		WithArgs(p.LinkID).
		WillReturnRows(mock.NewRows([]string{"status", "use_count", "max_uses"}).AddRow("active", 0, 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO interviews").
		WithArgs(pgxmock.AnyArg(), p.CandidateID, "interview", p.ScheduledAt, 30,
			"scheduled", p.ConfirmationCode, p.LinkID, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "40001"})
	mock.ExpectRollback()

	store := NewStore(mock)
	_, err = store.BookAtomic(context.Background(), p)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestTransition_ConditionalUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec("UPDATE interviews SET status").
		WithArgs("lapsed", "no outcome recorded within 48h", pgxmock.AnyArg(), id, []string{"scheduled", "confirmed"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	store := NewStore(mock)
	moved, err := store.Transition(context.Background(), id, ActiveStatuses, StatusLapsed, "no outcome recorded within 48h")
	require.NoError(t, err)
	assert.True(t, moved)
	assert.NoError(t, mock.ExpectationsWereMet())
}
