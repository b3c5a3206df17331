package templates

import "assignment-notifier/internal/models"

// ServiceGroup buckets service codes that share body phrasing.
type ServiceGroup string

const (
	GroupAny                   ServiceGroup = "*"
	GroupInterpret             ServiceGroup = "interpret"
	GroupTransportAndInterpret ServiceGroup = "transport_interpret"
	GroupTransport             ServiceGroup = "transport"
	GroupHomeHealth            ServiceGroup = "home_health"
	GroupDefault               ServiceGroup = "default"
)

// AnyStatus matches every button status in a table key.
const AnyStatus models.ButtonStatus = "*"

// GroupOf maps a service code to its body-template group.
func GroupOf(code models.ServiceCode) ServiceGroup {
	switch code {
	case models.ServiceInterpret, models.ServicePhoneInterpret, models.ServiceTranslate:
		return GroupInterpret
	case models.ServiceTransportAndInterpret:
		return GroupTransportAndInterpret
	case models.ServiceTransport:
		return GroupTransport
	case models.ServiceHomeHealth, models.ServiceDME:
		return GroupHomeHealth
	default:
		return GroupDefault
	}
}

// Key addresses one body template.
type Key struct {
	Category models.Category
	Status   models.ButtonStatus
	Group    ServiceGroup
}

// header is the category-level part of the content.
type header struct {
	title   string
	typeTag string
}

var headers = map[models.Category]header{
	models.CategoryAssignmentAccepted:                  {"Assignment Accepted", "ASSIGNMENT_ACCEPTED"},
	models.CategoryAssignmentCancelled:                 {"Assignment Cancelled", "ASSIGNMENT_CANCELLED"},
	models.CategoryClaimantCancelled:                   {"Claimant Cancelled", "CLAIMANT_CANCELLED"},
	models.CategoryTrackingCheckpoint:                  {"Trip Update", "TRACKING_UPDATE"},
	models.CategoryContractorNotAssigned:               {"Urgent Attention Required", "URGENT_ATTENTION"},
	models.CategoryUpcomingAssignmentReminder:          {"Upcoming Assignment", "ASSIGNMENT_REMINDER"},
	models.CategoryAssignmentRequestWithdrawn:          {"Job Request Withdrawn", "REQUEST_WITHDRAWN"},
	models.CategoryPreferredContractorNotFound:         {"Preferred Contractor Not Found", "PREFERRED_NOT_FOUND"},
	models.CategoryPreferredContractorFoundNotAssigned: {"Preferred Contractor Not Assigned", "PREFERRED_NOT_ASSIGNED"},
	models.CategoryForcedAssignment:                    {"New Assignment", "FORCED_ASSIGNMENT"},
	models.CategoryContractorRequest:                   {"New Job Request", "JOB_REQUEST"},
}

// buttonLabels echoes tracking buttons back to the client.
var buttonLabels = map[models.ButtonStatus]string{
	models.ButtonStart:          "Start",
	models.ButtonReached:        "Reached",
	models.ButtonStartTrip:      "Start Trip",
	models.ButtonEnd:            "End",
	models.ButtonHalt:           "Halt",
	models.ButtonStartRoundTrip: "Start Round Trip",
	models.ButtonEndRoundTrip:   "End Round Trip",
	models.ButtonStartSession:   "Start Session",
	models.ButtonEndSession:     "End Session",
}

type bodyRow struct {
	key  Key
	body string
}

func row(c models.Category, s models.ButtonStatus, g ServiceGroup, body string) bodyRow {
	return bodyRow{key: Key{Category: c, Status: s, Group: g}, body: body}
}

const (
	trk = models.CategoryTrackingCheckpoint
)

var bodyRows = []bodyRow{
	row(models.CategoryAssignmentAccepted, AnyStatus, GroupAny,
		"Assignment #{{assignmentNumber}} on {{reservationDate}} has been accepted."),
	row(models.CategoryAssignmentCancelled, AnyStatus, GroupAny,
		"Assignment #{{assignmentNumber}} on {{reservationDate}} has been cancelled."),
	row(models.CategoryClaimantCancelled, AnyStatus, GroupAny,
		"The claimant cancelled assignment #{{assignmentNumber}} on {{reservationDate}} at {{reservationTime}}."),
	row(models.CategoryContractorNotAssigned, AnyStatus, GroupAny,
		"No contractor is assigned to assignment #{{assignmentNumber}} on {{reservationDate}} at {{reservationTime}}."),
	row(models.CategoryUpcomingAssignmentReminder, models.ButtonToday, GroupAny,
		"Reminder: you have assignment #{{assignmentNumber}} today at {{reservationTime}}."),
	row(models.CategoryUpcomingAssignmentReminder, models.ButtonTomorrow, GroupAny,
		"Reminder: you have assignment #{{assignmentNumber}} tomorrow at {{reservationTime}}."),
	row(models.CategoryAssignmentRequestWithdrawn, AnyStatus, GroupAny,
		"The job request for assignment #{{assignmentNumber}} has been withdrawn."),
	row(models.CategoryPreferredContractorNotFound, AnyStatus, GroupAny,
		"No preferred contractor was found for assignment #{{assignmentNumber}}."),
	row(models.CategoryPreferredContractorFoundNotAssigned, AnyStatus, GroupAny,
		"A preferred contractor was found for assignment #{{assignmentNumber}} but has not been assigned."),
	row(models.CategoryForcedAssignment, AnyStatus, GroupAny,
		"You have been assigned to assignment #{{assignmentNumber}} on {{reservationDate}} at {{reservationTime}}."),
	row(models.CategoryContractorRequest, models.ButtonReminder, GroupAny,
		"Reminder: the job request for assignment #{{assignmentNumber}} is still waiting for your response."),
	row(models.CategoryContractorRequest, AnyStatus, GroupInterpret,
		"A new interpretation job is available on {{reservationDate}} at {{reservationTime}} (#{{assignmentNumber}})."),
	row(models.CategoryContractorRequest, AnyStatus, GroupTransport,
		"A new transportation job is available on {{reservationDate}} at {{reservationTime}} (#{{assignmentNumber}})."),
	row(models.CategoryContractorRequest, AnyStatus, GroupAny,
		"A new job is available on {{reservationDate}} at {{reservationTime}} (#{{assignmentNumber}})."),

	// Interpret family
	row(trk, models.ButtonStart, GroupInterpret, "Your interpreter is on the way."),
	row(trk, models.ButtonReached, GroupInterpret, "Your interpreter has arrived."),
	row(trk, models.ButtonStartSession, GroupInterpret, "Your interpretation session has started."),
	row(trk, models.ButtonEndSession, GroupInterpret, "Your interpretation session has ended."),
	row(trk, models.ButtonEnd, GroupInterpret, "Your interpretation assignment is complete."),

	// Transport and interpret
	row(trk, models.ButtonStart, GroupTransportAndInterpret, "Your driver and interpreter are on the way."),
	row(trk, models.ButtonReached, GroupTransportAndInterpret, "Your driver and interpreter have arrived at the pickup location."),
	row(trk, models.ButtonStartTrip, GroupTransportAndInterpret, "Your trip to the appointment has started."),
	row(trk, models.ButtonHalt, GroupTransportAndInterpret, "Your trip has been paused."),
	row(trk, models.ButtonStartSession, GroupTransportAndInterpret, "Your interpretation session has started."),
	row(trk, models.ButtonEndSession, GroupTransportAndInterpret, "Your interpretation session has ended."),
	row(trk, models.ButtonStartRoundTrip, GroupTransportAndInterpret, "Your return trip has started."),
	row(trk, models.ButtonEndRoundTrip, GroupTransportAndInterpret, "Your return trip is complete."),
	row(trk, models.ButtonEnd, GroupTransportAndInterpret, "You have arrived at your appointment."),

	// Transport
	row(trk, models.ButtonStart, GroupTransport, "Your driver is on the way."),
	row(trk, models.ButtonReached, GroupTransport, "Your driver has arrived at the pickup location."),
	row(trk, models.ButtonStartTrip, GroupTransport, "Your trip to the appointment has started."),
	row(trk, models.ButtonHalt, GroupTransport, "Your trip has been paused."),
	row(trk, models.ButtonStartRoundTrip, GroupTransport, "Your return trip has started."),
	row(trk, models.ButtonEndRoundTrip, GroupTransport, "Your return trip is complete."),
	row(trk, models.ButtonEnd, GroupTransport, "You have arrived at your destination."),

	// Home health and DME
	row(trk, models.ButtonStart, GroupHomeHealth, "Your care provider is on the way."),
	row(trk, models.ButtonReached, GroupHomeHealth, "Your care provider has arrived."),
	row(trk, models.ButtonStartSession, GroupHomeHealth, "Your visit has started."),
	row(trk, models.ButtonEndSession, GroupHomeHealth, "Your visit has ended."),
	row(trk, models.ButtonEnd, GroupHomeHealth, "Your visit is complete."),

	// Generic trip phrasing
	row(trk, models.ButtonStart, GroupDefault, "Your trip has started."),
	row(trk, models.ButtonReached, GroupDefault, "Your contractor has arrived."),
	row(trk, models.ButtonStartTrip, GroupDefault, "Your trip is under way."),
	row(trk, models.ButtonHalt, GroupDefault, "Your trip has been paused."),
	row(trk, models.ButtonStartRoundTrip, GroupDefault, "Your return trip has started."),
	row(trk, models.ButtonEndRoundTrip, GroupDefault, "Your return trip is complete."),
	row(trk, models.ButtonEnd, GroupDefault, "Your trip is complete."),
}

// Table is an immutable body lookup keyed by Key.
type Table struct {
	bodies map[Key]string
}

// NewTable indexes rows. Later rows with the same key replace earlier ones.
func NewTable(rows []bodyRow) *Table {
	t := &Table{bodies: make(map[Key]string, len(rows))}
	for _, r := range rows {
		t.bodies[r.key] = r.body
	}
	return t
}

// DefaultTable holds the built-in phrasing.
func DefaultTable() *Table {
	return NewTable(bodyRows)
}

// Lookup probes exact, any group, any status, then both wildcards. The
// final default arm is the empty body.
func (t *Table) Lookup(c models.Category, s models.ButtonStatus, g ServiceGroup) (string, bool) {
	probes := [...]Key{
		{c, s, g},
		{c, s, GroupAny},
		{c, AnyStatus, g},
		{c, AnyStatus, GroupAny},
	}
	for _, k := range probes {
		if body, ok := t.bodies[k]; ok {
			return body, true
		}
	}
	return "", false
}

// Keys lists every explicit key, for coverage checks.
func (t *Table) Keys() []Key {
	out := make([]Key, 0, len(t.bodies))
	for k := range t.bodies {
		out = append(out, k)
	}
	return out
}
