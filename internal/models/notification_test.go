package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_Defaults(t *testing.T) {
	before := time.Now()
	e := NewEvent(CategoryAssignmentAccepted, "A-100")

	assert.Equal(t, CategoryAssignmentAccepted, e.Category())
	assert.Equal(t, "A-100", e.AssignmentID())
	assert.Empty(t, e.ReservationID())
	assert.False(t, e.OccurredAt().Before(before))
}

func TestNewEvent_Options(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	sched := time.Date(2024, 3, 2, 14, 0, 0, 0, time.UTC)

	e := NewEvent(CategoryTrackingCheckpoint, "A-1",
		WithReservationID("R-1"),
		WithAssignmentNumber("100045"),
		WithActorID("U-9"),
		WithSubjectID("C-7"),
		WithButtonStatus(ButtonReached),
		WithServiceCode(ServiceTransport),
		WithScheduledAt(sched),
		WithOccurredAt(at),
	)

	assert.Equal(t, "R-1", e.ReservationID())
	assert.Equal(t, "100045", e.AssignmentNumber())
	assert.Equal(t, "U-9", e.ActorID())
	assert.Equal(t, "C-7", e.SubjectID())
	assert.Equal(t, ButtonReached, e.ButtonStatus())
	assert.Equal(t, ServiceTransport, e.ServiceCode())
	assert.Equal(t, sched, e.ScheduledAt())
	assert.Equal(t, at, e.OccurredAt())
}

func TestCategory_Valid(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid(), string(c))
	}
	assert.False(t, Category("Unknown").Valid())
}

func TestPayload_PreservesInsertionOrder(t *testing.T) {
	var p Payload
	p.Set("title", "Hello")
	p.Set("body", "World")
	p.Set("assignmentId", "A-1")
	p.Set("title", "Replaced")
	p.SetIf("reservationId", "")

	assert.Equal(t, []string{"title", "body", "assignmentId"}, p.Keys())

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Replaced","body":"World","assignmentId":"A-1"}`, string(raw))
}

func TestPayload_EmptyMarshalsToObject(t *testing.T) {
	raw, err := json.Marshal(Payload{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))
}

func TestContent_DataIsCopied(t *testing.T) {
	var p Payload
	p.Set("k", "v")
	c := NewContent("t", "b", "TYPE", p)

	p.Set("k", "changed")
	got := c.Data()
	got.Set("k", "mutated")

	v, _ := c.Data().Get("k")
	assert.Equal(t, "v", v)
}

func TestDedupeTokens(t *testing.T) {
	assert.Nil(t, DedupeTokens(nil))
	assert.Equal(t, []string{"a", "b", "c"}, DedupeTokens([]string{"a", "", "b", "a", "c", "b"}))
}

func TestRecipient_Empty(t *testing.T) {
	assert.True(t, Recipient{}.Empty())
	assert.False(t, Recipient{DeviceTokens: []string{"t"}}.Empty())
}
