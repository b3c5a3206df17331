package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracing_WithoutEndpoint(t *testing.T) {
	tr, err := NewTracing("assignment-notifier", "test", "", 1)
	require.NoError(t, err)

	_, span := tr.Tracer("test").Start(context.Background(), "dispatch")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestObservability_NilSafe(t *testing.T) {
	var o *Observability
	assert.NotPanics(t, func() {
		o.RecordJobProcessed(context.Background(), "processed")
		o.RecordQueueDelta(context.Background(), 1)
	})
}
