package maintenance

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	apperrors "assignment-notifier/internal/common/errors"
	"assignment-notifier/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type mockPruner struct {
	PruneBeforeFunc func(ctx context.Context, cutoff time.Time) (int64, error)
	cutoff          time.Time
}

func (m *mockPruner) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.cutoff = cutoff
	if m.PruneBeforeFunc != nil {
		return m.PruneBeforeFunc(ctx, cutoff)
	}
	return 0, nil
}

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2024, 6, 3, 3, 0, 0, 0, time.UTC)

func setupHandler(t *testing.T, pruner Pruner) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewHandler(DefaultConfig(), db, pruner, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h, mock
}

// ==========================
// Tests
// ==========================

func TestExecute_AllSteps(t *testing.T) {
	pruner := &mockPruner{
		PruneBeforeFunc: func(ctx context.Context, cutoff time.Time) (int64, error) { return 12, nil },
	}
	h, mock := setupHandler(t, pruner)

	mock.ExpectExec(regexp.QuoteMeta(deleteChatRoomsQuery)).
		WithArgs(fixedNow.Add(-30 * 24 * time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(deleteLiveCoordinatesQuery)).
		WithArgs(fixedNow.Add(-24 * time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 40))

	out, err := h.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]int64{
		StepChatRooms:        3,
		StepNotificationLogs: 12,
		StepLiveCoordinates:  40,
	}, out.Deleted)
	assert.Equal(t, int64(55), out.Total())
	assert.True(t, pruner.cutoff.Equal(fixedNow.Add(-90*24*time.Hour)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_FailedStepDoesNotStopOthers(t *testing.T) {
	pruner := &mockPruner{
		PruneBeforeFunc: func(ctx context.Context, cutoff time.Time) (int64, error) {
			return 0, errors.New("relation does not exist")
		},
	}
	h, mock := setupHandler(t, pruner)

	mock.ExpectExec(regexp.QuoteMeta(deleteChatRoomsQuery)).
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectExec(regexp.QuoteMeta(deleteLiveCoordinatesQuery)).
		WillReturnResult(sqlmock.NewResult(0, 7))

	out, err := h.Execute(context.Background())
	require.Error(t, err)

	assert.Equal(t, map[string]int64{StepLiveCoordinates: 7}, out.Deleted)
	assert.Contains(t, err.Error(), StepChatRooms)
	assert.Contains(t, err.Error(), StepNotificationLogs)

	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, apperrors.ErrCodeMaintenanceFailed, stdErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_PropagatesError(t *testing.T) {
	h, mock := setupHandler(t, &mockPruner{})
	mock.ExpectExec(regexp.QuoteMeta(deleteChatRoomsQuery)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(deleteLiveCoordinatesQuery)).WillReturnError(errors.New("disk full"))

	assert.Error(t, h.Run(context.Background()))
}

func TestFromDays(t *testing.T) {
	cfg := FromDays(7, 30, 6)
	assert.Equal(t, 7*24*time.Hour, cfg.ChatRoomIdle)
	assert.Equal(t, 30*24*time.Hour, cfg.NotificationLogAge)
	assert.Equal(t, 6*time.Hour, cfg.LiveCoordinateAge)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultConfig().ChatRoomIdle, FromDays(0, 0, 0).ChatRoomIdle)
}
