package candidates

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitflow/booking-engine/pkg/logging"
)

type recordingHook struct {
	calls []Status
	err   error
}

func (h *recordingHook) OnCandidateTerminal(_ context.Context, _ uuid.UUID, status Status) error {
	h.calls = append(h.calls, status)
	return h.err
}

func TestService_SetStatusFiresTerminalHook(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec("UPDATE candidates SET status").
		WithArgs("rejected", pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	hook := &recordingHook{}
	svc := NewService(NewStore(mock), hook, logging.Default())
	require.NoError(t, svc.SetStatus(context.Background(), id, StatusRejected))
	assert.Equal(t, []Status{StatusRejected}, hook.calls)
}

func TestService_SetStatusSkipsHookForPipelineMoves(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec("UPDATE candidates SET status").
		WithArgs("invite_sent", pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	hook := &recordingHook{}
	svc := NewService(NewStore(mock), hook, logging.Default())
	require.NoError(t, svc.SetStatus(context.Background(), id, StatusInviteSent))
	assert.Empty(t, hook.calls)
}

func TestService_SetStatusHookFailureIsNotPropagated(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec("UPDATE candidates SET status").
		WithArgs("withdrawn", pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	hook := &recordingHook{err: errors.New("boom")}
	svc := NewService(NewStore(mock), hook, logging.Default())
	assert.NoError(t, svc.SetStatus(context.Background(), id, StatusWithdrawn))
}

func TestService_SetStatusRejectsUnknown(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := NewService(NewStore(mock), nil, logging.Default())
	assert.Error(t, svc.SetStatus(context.Background(), uuid.New(), Status("nonsense")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
