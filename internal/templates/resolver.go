// Package templates turns a notification event into rendered content.
package templates

import (
	"time"

	"assignment-notifier/internal/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "03:04 PM"
)

// Resolver renders content from the body table and category headers.
// It is safe for concurrent use.
type Resolver struct {
	table *Table
	loc   *time.Location
}

// NewResolver builds a resolver rendering dates in loc. A nil table uses
// DefaultTable.
func NewResolver(loc *time.Location, table *Table) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	if table == nil {
		table = DefaultTable()
	}
	return &Resolver{table: table, loc: loc}
}

// Resolve never fails. Unknown categories yield an empty title and type tag;
// unmapped status and service combinations yield an empty body.
func (r *Resolver) Resolve(event models.NotificationEvent) models.NotificationContent {
	h := headers[event.Category()]
	vars := r.vars(event)

	tmpl, _ := r.table.Lookup(event.Category(), event.ButtonStatus(), GroupOf(event.ServiceCode()))
	body := render(tmpl, vars)

	var data models.Payload
	data.Set("title", h.title)
	data.Set("body", body)
	data.Set("notificationDate", event.OccurredAt().In(r.loc).Format(time.RFC3339))
	data.Set("type", h.typeTag)
	data.Set("assignmentId", event.AssignmentID())
	data.SetIf("reservationId", event.ReservationID())
	data.SetIf("reservationDate", vars["reservationDate"])
	data.SetIf("reservationTime", vars["reservationTime"])
	data.SetIf("assignmentNumber", event.AssignmentNumber())
	if label, ok := buttonLabels[event.ButtonStatus()]; ok {
		data.Set("currentButtonId", string(event.ButtonStatus()))
		data.Set("currentButtonStatus", label)
	}

	return models.NewContent(h.title, body, h.typeTag, data)
}

func (r *Resolver) vars(event models.NotificationEvent) map[string]string {
	number := event.AssignmentNumber()
	if number == "" {
		number = event.AssignmentID()
	}
	vars := map[string]string{
		"assignmentId":     event.AssignmentID(),
		"assignmentNumber": number,
		"reservationId":    event.ReservationID(),
	}
	if at := event.ScheduledAt(); !at.IsZero() {
		local := at.In(r.loc)
		vars["reservationDate"] = local.Format(dateLayout)
		vars["reservationTime"] = local.Format(timeLayout)
	}
	return vars
}
