package enqueuenotification

// Input is the job variable set a workflow supplies to trigger a notification.
type Input struct {
	Category         string `json:"category"`
	AssignmentID     string `json:"assignmentId"`
	AssignmentNumber string `json:"assignmentNumber,omitempty"`
	ReservationID    string `json:"reservationId,omitempty"`
	ActorID          string `json:"actorId,omitempty"`
	SubjectID        string `json:"subjectId,omitempty"`
	ButtonStatus     string `json:"buttonStatus,omitempty"`
	ServiceCode      string `json:"serviceCode,omitempty"`
	ScheduledAt      string `json:"scheduledAt,omitempty"`
	OccurredAt       string `json:"occurredAt,omitempty"`
}

// Output is written back to the process instance.
type Output struct {
	Queued        bool   `json:"queued"`
	EventCategory string `json:"eventCategory"`
}

const inputSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["category", "assignmentId"],
	"properties": {
		"category":         {"type": "string", "minLength": 1},
		"assignmentId":     {"type": "string", "minLength": 1},
		"assignmentNumber": {"type": "string"},
		"reservationId":    {"type": "string"},
		"actorId":          {"type": "string"},
		"subjectId":        {"type": "string"},
		"buttonStatus":     {"type": "string"},
		"serviceCode":      {"type": "string"},
		"scheduledAt":      {"type": "string", "format": "date-time"},
		"occurredAt":       {"type": "string", "format": "date-time"}
	}
}`
