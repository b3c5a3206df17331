package enqueuenotification

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "assignment-notifier/internal/common/errors"
	"assignment-notifier/internal/common/logger"
	"assignment-notifier/internal/models"
	"assignment-notifier/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupHandler(t *testing.T) (*Handler, *queue.Queue) {
	t.Helper()
	q := queue.New()
	return NewHandler(DefaultConfig(), q, logger.NewTestLogger(t)), q
}

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr), "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Tests
// ==========================

func TestExecute_QueuesEvent(t *testing.T) {
	h, q := setupHandler(t)

	out, err := h.Execute(context.Background(), map[string]interface{}{
		"category":         "AssignmentAccepted",
		"assignmentId":     "A-1",
		"assignmentNumber": "100200",
		"actorId":          "C-9",
		"buttonStatus":     "accept",
		"serviceCode":      "Interpret",
		"scheduledAt":      "2024-06-04T16:00:00Z",
		"occurredAt":       "2024-06-03T15:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, &Output{Queued: true, EventCategory: "AssignmentAccepted"}, out)

	require.Equal(t, 1, q.Len())
	job, err := q.Dequeue(context.Background())
	require.NoError(t, err)

	ev := job.Event
	assert.Equal(t, models.CategoryAssignmentAccepted, ev.Category())
	assert.Equal(t, "A-1", ev.AssignmentID())
	assert.Equal(t, "100200", ev.AssignmentNumber())
	assert.Equal(t, "C-9", ev.ActorID())
	assert.Equal(t, models.ButtonAccept, ev.ButtonStatus())
	assert.Equal(t, models.ServiceInterpret, ev.ServiceCode())
	assert.True(t, ev.ScheduledAt().Equal(time.Date(2024, 6, 4, 16, 0, 0, 0, time.UTC)))
	assert.True(t, ev.OccurredAt().Equal(time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)))
	assert.Nil(t, job.Content)
}

func TestExecute_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]interface{}
		wantMsg string
	}{
		{
			name:    "missing category",
			vars:    map[string]interface{}{"assignmentId": "A-1"},
			wantMsg: "category",
		},
		{
			name:    "missing assignment",
			vars:    map[string]interface{}{"category": "AssignmentAccepted"},
			wantMsg: "assignmentId",
		},
		{
			name:    "wrong type",
			vars:    map[string]interface{}{"category": "AssignmentAccepted", "assignmentId": 42},
			wantMsg: "assignmentId",
		},
		{
			name:    "unknown category",
			vars:    map[string]interface{}{"category": "Birthday", "assignmentId": "A-1"},
			wantMsg: "Birthday",
		},
		{
			name:    "bad timestamp",
			vars:    map[string]interface{}{"category": "AssignmentAccepted", "assignmentId": "A-1", "scheduledAt": "tomorrow"},
			wantMsg: "scheduledAt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, q := setupHandler(t)

			_, err := h.Execute(context.Background(), tt.vars)
			require.Error(t, err)
			requireCode(t, err, apperrors.ErrCodeInvalidEvent)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, 0, q.Len())
		})
	}
}

func TestExecute_QueueClosed(t *testing.T) {
	h, q := setupHandler(t)
	q.Close()

	_, err := h.Execute(context.Background(), map[string]interface{}{
		"category":     "ContractorNotAssigned",
		"assignmentId": "A-1",
	})
	require.Error(t, err)
	requireCode(t, err, apperrors.ErrCodeQueueClosed)
	assert.False(t, apperrors.Normalize(err).Retryable)
}

func TestExecute_ContextCancelled(t *testing.T) {
	h, q := setupHandler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Execute(ctx, map[string]interface{}{
		"category":     "ContractorNotAssigned",
		"assignmentId": "A-1",
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, q.Len())
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, (&Config{}).Validate())
}
