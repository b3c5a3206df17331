package batch

import (
	"errors"
	"testing"

	"assignment-notifier/internal/models"
	"assignment-notifier/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueue(t *testing.T) {
	q := queue.New()
	event := models.NewEvent(models.CategoryContractorNotAssigned, "A-1")

	require.NoError(t, Enqueue(q, "test", event))
	assert.Equal(t, 1, q.Len())

	q.Close()
	err := Enqueue(q, "test", event)
	require.Error(t, err)
	assert.True(t, errors.Is(err, queue.ErrClosed))
	assert.Contains(t, err.Error(), "ContractorNotAssigned")
}
