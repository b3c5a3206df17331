package contractornotassigned

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	apperrors "assignment-notifier/internal/common/errors"
	"assignment-notifier/internal/common/logger"
	"assignment-notifier/internal/models"
	"assignment-notifier/internal/queue"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)

func setupHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *queue.Queue) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	q := queue.New()
	h := NewHandler(DefaultConfig(), db, q, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h, mock, q
}

func drain(t *testing.T, q *queue.Queue) []models.NotificationEvent {
	t.Helper()
	var out []models.NotificationEvent
	for q.Len() > 0 {
		job, err := q.Dequeue(context.Background())
		require.NoError(t, err)
		out = append(out, job.Event)
	}
	return out
}

func columns() []string {
	return []string{"id", "assignment_number", "reservation_id", "service_code", "reservation_date"}
}

// ==========================
// Tests
// ==========================

func TestExecute_EnqueuesUnassigned(t *testing.T) {
	h, mock, q := setupHandler(t)
	tomorrow := fixedNow.Add(20 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(unassignedQuery)).
		WithArgs(fixedNow, fixedNow.Add(48*time.Hour)).
		WillReturnRows(sqlmock.NewRows(columns()).
			AddRow("A-1", "100200", "R-1", "Interpret", tomorrow).
			AddRow("A-2", "100201", "", "Transport", tomorrow.Add(time.Hour)))

	out, err := h.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, out.Scanned)
	assert.Equal(t, 2, out.Enqueued)

	events := drain(t, q)
	require.Len(t, events, 2)
	assert.Equal(t, models.CategoryContractorNotAssigned, events[0].Category())
	assert.Equal(t, "A-1", events[0].AssignmentID())
	assert.Equal(t, "100200", events[0].AssignmentNumber())
	assert.Equal(t, "R-1", events[0].ReservationID())
	assert.Equal(t, models.ServiceInterpret, events[0].ServiceCode())
	assert.True(t, events[0].ScheduledAt().Equal(tomorrow))
	assert.Empty(t, events[0].SubjectID())
	assert.Equal(t, models.ServiceTransport, events[1].ServiceCode())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_NoRows(t *testing.T) {
	h, mock, q := setupHandler(t)
	mock.ExpectQuery(regexp.QuoteMeta(unassignedQuery)).WillReturnRows(sqlmock.NewRows(columns()))

	out, err := h.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, out.Enqueued)
	assert.Zero(t, q.Len())
}

func TestExecute_QueryError(t *testing.T) {
	h, mock, _ := setupHandler(t)
	mock.ExpectQuery(regexp.QuoteMeta(unassignedQuery)).WillReturnError(sql.ErrConnDone)

	_, err := h.Execute(context.Background())
	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, stdErr.Code)
}

func TestExecute_QueueClosed(t *testing.T) {
	h, mock, q := setupHandler(t)
	q.Close()
	mock.ExpectQuery(regexp.QuoteMeta(unassignedQuery)).
		WillReturnRows(sqlmock.NewRows(columns()).AddRow("A-1", "1", "", "Interpret", fixedNow.Add(time.Hour)))

	out, err := h.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, queue.ErrClosed))
	assert.Zero(t, out.Enqueued)
}

func TestRun_WrapsScanError(t *testing.T) {
	h, mock, _ := setupHandler(t)
	mock.ExpectQuery(regexp.QuoteMeta(unassignedQuery)).WillReturnError(errors.New("boom"))

	err := h.Run(context.Background())
	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, apperrors.ErrCodeScanFailed, stdErr.Code)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, (&Config{Timeout: time.Second}).Validate())
	assert.Error(t, (&Config{Lookahead: time.Hour}).Validate())
}
