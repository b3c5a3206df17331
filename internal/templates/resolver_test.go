package templates

import (
	"encoding/json"
	"testing"
	"time"

	"assignment-notifier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func losAngeles(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	return loc
}

var groupSample = map[ServiceGroup]models.ServiceCode{
	GroupAny:                   models.ServiceCode(""),
	GroupInterpret:             models.ServicePhoneInterpret,
	GroupTransportAndInterpret: models.ServiceTransportAndInterpret,
	GroupTransport:             models.ServiceTransport,
	GroupHomeHealth:            models.ServiceDME,
	GroupDefault:               models.ServiceCode("Courier"),
}

// ==========================
// Decision Table
// ==========================

func TestResolve_EveryTableKeyRendersTitleAndBody(t *testing.T) {
	r := NewResolver(losAngeles(t), nil)

	for _, k := range DefaultTable().Keys() {
		status := k.Status
		if status == AnyStatus {
			status = models.ButtonNone
		}
		event := models.NewEvent(k.Category, "A-1",
			models.WithAssignmentNumber("100045"),
			models.WithButtonStatus(status),
			models.WithServiceCode(groupSample[k.Group]),
			models.WithScheduledAt(time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC)),
		)

		c := r.Resolve(event)
		assert.NotEmpty(t, c.Title, "%+v", k)
		assert.NotEmpty(t, c.Body, "%+v", k)
		assert.NotEmpty(t, c.TypeTag, "%+v", k)
	}
}

func TestResolve_EveryCategoryHasHeader(t *testing.T) {
	for _, c := range models.Categories {
		h, ok := headers[c]
		assert.True(t, ok, string(c))
		assert.NotEmpty(t, h.title)
		assert.NotEmpty(t, h.typeTag)
	}
}

func TestResolve_TrackingBodiesByServiceGroup(t *testing.T) {
	r := NewResolver(time.UTC, nil)

	tests := []struct {
		name    string
		status  models.ButtonStatus
		service models.ServiceCode
		want    string
	}{
		{"interpreter on the way", models.ButtonStart, models.ServiceInterpret, "Your interpreter is on the way."},
		{"translate shares interpret group", models.ButtonReached, models.ServiceTranslate, "Your interpreter has arrived."},
		{"transport and interpret", models.ButtonStart, models.ServiceTransportAndInterpret, "Your driver and interpreter are on the way."},
		{"transport round trip", models.ButtonEndRoundTrip, models.ServiceTransport, "Your return trip is complete."},
		{"home health", models.ButtonStartSession, models.ServiceHomeHealth, "Your visit has started."},
		{"dme shares home health", models.ButtonEnd, models.ServiceDME, "Your visit is complete."},
		{"unknown service uses trip phrasing", models.ButtonStartTrip, models.ServiceCode("Courier"), "Your trip is under way."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := r.Resolve(models.NewEvent(models.CategoryTrackingCheckpoint, "A-1",
				models.WithButtonStatus(tt.status),
				models.WithServiceCode(tt.service),
			))
			assert.Equal(t, tt.want, c.Body)
			assert.Equal(t, "Trip Update", c.Title)
			assert.Equal(t, "TRACKING_UPDATE", c.TypeTag)
		})
	}
}

func TestResolve_UnmappedCombinationFallsThroughToEmptyBody(t *testing.T) {
	r := NewResolver(time.UTC, nil)

	tests := []struct {
		name  string
		event models.NotificationEvent
	}{
		{
			name: "interpret has no trip start",
			event: models.NewEvent(models.CategoryTrackingCheckpoint, "A-1",
				models.WithButtonStatus(models.ButtonStartTrip),
				models.WithServiceCode(models.ServiceInterpret)),
		},
		{
			name: "reminder without day",
			event: models.NewEvent(models.CategoryUpcomingAssignmentReminder, "A-1",
				models.WithButtonStatus(models.ButtonCancel)),
		},
		{
			name:  "tracking without status",
			event: models.NewEvent(models.CategoryTrackingCheckpoint, "A-1"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c models.NotificationContent
			assert.NotPanics(t, func() { c = r.Resolve(tt.event) })
			assert.Empty(t, c.Body)
			assert.NotEmpty(t, c.Title)
		})
	}
}

func TestResolve_UnknownCategory(t *testing.T) {
	r := NewResolver(time.UTC, nil)
	var c models.NotificationContent
	assert.NotPanics(t, func() { c = r.Resolve(models.NewEvent(models.Category("Bogus"), "A-1")) })
	assert.Empty(t, c.Title)
	assert.Empty(t, c.Body)
	assert.Empty(t, c.TypeTag)

	v, ok := c.Data().Get("assignmentId")
	assert.True(t, ok)
	assert.Equal(t, "A-1", v)
}

func TestTable_ProbeOrder(t *testing.T) {
	c := models.CategoryContractorRequest
	table := NewTable([]bodyRow{
		row(c, models.ButtonReminder, GroupTransport, "exact"),
		row(c, models.ButtonReminder, GroupAny, "any group"),
		row(c, AnyStatus, GroupTransport, "any status"),
		row(c, AnyStatus, GroupAny, "any"),
	})

	got, ok := table.Lookup(c, models.ButtonReminder, GroupTransport)
	assert.True(t, ok)
	assert.Equal(t, "exact", got)

	got, _ = table.Lookup(c, models.ButtonReminder, GroupInterpret)
	assert.Equal(t, "any group", got)

	got, _ = table.Lookup(c, models.ButtonNone, GroupTransport)
	assert.Equal(t, "any status", got)

	got, _ = table.Lookup(c, models.ButtonNone, GroupHomeHealth)
	assert.Equal(t, "any", got)

	got, ok = table.Lookup(models.CategoryForcedAssignment, models.ButtonNone, GroupAny)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestResolve_ContractorRequestVariants(t *testing.T) {
	r := NewResolver(time.UTC, nil)
	at := time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)

	req := r.Resolve(models.NewEvent(models.CategoryContractorRequest, "A-1",
		models.WithAssignmentNumber("77"),
		models.WithServiceCode(models.ServiceInterpret),
		models.WithScheduledAt(at)))
	assert.Equal(t, "A new interpretation job is available on 2024-05-01 at 02:30 PM (#77).", req.Body)

	rem := r.Resolve(models.NewEvent(models.CategoryContractorRequest, "A-1",
		models.WithAssignmentNumber("77"),
		models.WithButtonStatus(models.ButtonReminder),
		models.WithServiceCode(models.ServiceInterpret)))
	assert.Equal(t, "Reminder: the job request for assignment #77 is still waiting for your response.", rem.Body)
}

// ==========================
// Payload
// ==========================

func TestResolve_PayloadFields(t *testing.T) {
	loc := losAngeles(t)
	r := NewResolver(loc, nil)

	occurred := time.Date(2024, 7, 4, 18, 0, 0, 0, time.UTC)
	scheduled := time.Date(2024, 7, 5, 16, 45, 0, 0, time.UTC)

	c := r.Resolve(models.NewEvent(models.CategoryTrackingCheckpoint, "A-9",
		models.WithReservationID("R-3"),
		models.WithAssignmentNumber("100200"),
		models.WithButtonStatus(models.ButtonReached),
		models.WithServiceCode(models.ServiceTransport),
		models.WithScheduledAt(scheduled),
		models.WithOccurredAt(occurred),
	))

	data := c.Data()
	assert.Equal(t, []string{
		"title", "body", "notificationDate", "type", "assignmentId",
		"reservationId", "reservationDate", "reservationTime", "assignmentNumber",
		"currentButtonId", "currentButtonStatus",
	}, data.Keys())

	m := data.Map()
	assert.Equal(t, c.Title, m["title"])
	assert.Equal(t, c.Body, m["body"])
	assert.Equal(t, "2024-07-04T11:00:00-07:00", m["notificationDate"])
	assert.Equal(t, "TRACKING_UPDATE", m["type"])
	assert.Equal(t, "A-9", m["assignmentId"])
	assert.Equal(t, "R-3", m["reservationId"])
	assert.Equal(t, "2024-07-05", m["reservationDate"])
	assert.Equal(t, "09:45 AM", m["reservationTime"])
	assert.Equal(t, "REACHED", m["currentButtonId"])
	assert.Equal(t, "Reached", m["currentButtonStatus"])
}

func TestResolve_OptionalPayloadFieldsOmitted(t *testing.T) {
	r := NewResolver(time.UTC, nil)
	c := r.Resolve(models.NewEvent(models.CategoryContractorNotAssigned, "A-1"))

	assert.Equal(t, []string{"title", "body", "notificationDate", "type", "assignmentId"}, c.Data().Keys())
	assert.Equal(t, "No contractor is assigned to assignment #A-1 on  at .", c.Body)
}

func TestResolve_Deterministic(t *testing.T) {
	r := NewResolver(losAngeles(t), nil)
	event := models.NewEvent(models.CategoryUpcomingAssignmentReminder, "A-5",
		models.WithButtonStatus(models.ButtonTomorrow),
		models.WithServiceCode(models.ServiceHomeHealth),
		models.WithScheduledAt(time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)),
		models.WithOccurredAt(time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC)),
	)

	first := r.Resolve(event)
	second := r.Resolve(event)

	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, first.TypeTag, second.TypeTag)

	a, err := json.Marshal(first.Data())
	require.NoError(t, err)
	b, err := json.Marshal(second.Data())
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRender(t *testing.T) {
	vars := map[string]string{"a": "1", "b": "2"}
	assert.Equal(t, "1-2", render("{{a}}-{{ b }}", vars))
	assert.Equal(t, "x  y", render("x {{missing}} y", vars))
	assert.Equal(t, "open {{a", render("open {{a", vars))
	assert.Equal(t, "", render("", vars))
}
