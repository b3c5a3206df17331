// internal/models/notification.go
package models

import "time"

// Category identifies the domain transition a notification is about.
type Category string

const (
	CategoryAssignmentAccepted                  Category = "AssignmentAccepted"
	CategoryAssignmentCancelled                 Category = "AssignmentCancelled"
	CategoryClaimantCancelled                   Category = "ClaimantCancelled"
	CategoryTrackingCheckpoint                  Category = "TrackingCheckpoint"
	CategoryContractorNotAssigned               Category = "ContractorNotAssigned"
	CategoryUpcomingAssignmentReminder          Category = "UpcomingAssignmentReminder"
	CategoryAssignmentRequestWithdrawn          Category = "AssignmentRequestWithdrawn"
	CategoryPreferredContractorNotFound         Category = "PreferredContractorNotFound"
	CategoryPreferredContractorFoundNotAssigned Category = "PreferredContractorFoundNotAssigned"
	CategoryForcedAssignment                    Category = "ForcedAssignment"
	CategoryContractorRequest                   Category = "ContractorRequest"
)

// Categories lists every known category.
var Categories = []Category{
	CategoryAssignmentAccepted,
	CategoryAssignmentCancelled,
	CategoryClaimantCancelled,
	CategoryTrackingCheckpoint,
	CategoryContractorNotAssigned,
	CategoryUpcomingAssignmentReminder,
	CategoryAssignmentRequestWithdrawn,
	CategoryPreferredContractorNotFound,
	CategoryPreferredContractorFoundNotAssigned,
	CategoryForcedAssignment,
	CategoryContractorRequest,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ButtonStatus is the sub-state reported by the client app or computed by a producer.
type ButtonStatus string

const (
	ButtonNone           ButtonStatus = ""
	ButtonStart          ButtonStatus = "START"
	ButtonReached        ButtonStatus = "REACHED"
	ButtonStartTrip      ButtonStatus = "START_TRIP"
	ButtonEnd            ButtonStatus = "END"
	ButtonHalt           ButtonStatus = "HALT"
	ButtonStartRoundTrip ButtonStatus = "START_ROUND_TRIP"
	ButtonEndRoundTrip   ButtonStatus = "END_ROUND_TRIP"
	ButtonStartSession   ButtonStatus = "START_SESSION"
	ButtonEndSession     ButtonStatus = "END_SESSION"
	ButtonCancel         ButtonStatus = "CANCEL"
	ButtonAccept         ButtonStatus = "ACCEPT"
	ButtonToday          ButtonStatus = "TODAY"
	ButtonTomorrow       ButtonStatus = "TOMORROW"
	ButtonReminder       ButtonStatus = "REMINDER"
)

// ServiceCode is the service an assignment provides.
type ServiceCode string

const (
	ServiceInterpret             ServiceCode = "Interpret"
	ServicePhoneInterpret        ServiceCode = "PhoneInterpret"
	ServiceTranslate             ServiceCode = "Translate"
	ServiceTransportAndInterpret ServiceCode = "TransportAndInterpret"
	ServiceTransport             ServiceCode = "Transport"
	ServiceHomeHealth            ServiceCode = "HomeHealth"
	ServiceDME                   ServiceCode = "DME"
)

// Channel is a delivery channel of the push gateway.
type Channel string

const (
	ChannelMobile Channel = "mobile"
	ChannelWeb    Channel = "web"
)

// Channels in the order the dispatcher processes them.
var Channels = []Channel{ChannelMobile, ChannelWeb}

// NotificationEvent is an immutable description of a domain transition.
// Build it with NewEvent.
type NotificationEvent struct {
	category         Category
	assignmentID     string
	assignmentNumber string
	reservationID    string
	actorID          string
	subjectID        string
	buttonStatus     ButtonStatus
	serviceCode      ServiceCode
	scheduledAt      time.Time
	occurredAt       time.Time
}

// EventOption sets an optional field while constructing an event.
type EventOption func(*NotificationEvent)

// NewEvent builds an event. OccurredAt defaults to time.Now() when not set.
func NewEvent(category Category, assignmentID string, opts ...EventOption) NotificationEvent {
	e := NotificationEvent{
		category:     category,
		assignmentID: assignmentID,
	}
	for _, opt := range opts {
		opt(&e)
	}
	if e.occurredAt.IsZero() {
		e.occurredAt = time.Now()
	}
	return e
}

func WithReservationID(id string) EventOption {
	return func(e *NotificationEvent) { e.reservationID = id }
}

func WithAssignmentNumber(number string) EventOption {
	return func(e *NotificationEvent) { e.assignmentNumber = number }
}

func WithActorID(id string) EventOption {
	return func(e *NotificationEvent) { e.actorID = id }
}

// WithSubjectID addresses the mobile channel to a specific user instead of
// the one derived from the assignment.
func WithSubjectID(id string) EventOption {
	return func(e *NotificationEvent) { e.subjectID = id }
}

func WithButtonStatus(status ButtonStatus) EventOption {
	return func(e *NotificationEvent) { e.buttonStatus = status }
}

func WithServiceCode(code ServiceCode) EventOption {
	return func(e *NotificationEvent) { e.serviceCode = code }
}

func WithScheduledAt(t time.Time) EventOption {
	return func(e *NotificationEvent) { e.scheduledAt = t }
}

// WithOccurredAt overrides the event timestamp. A zero value keeps the default.
func WithOccurredAt(t time.Time) EventOption {
	return func(e *NotificationEvent) {
		if !t.IsZero() {
			e.occurredAt = t
		}
	}
}

func (e NotificationEvent) Category() Category         { return e.category }
func (e NotificationEvent) AssignmentID() string       { return e.assignmentID }
func (e NotificationEvent) AssignmentNumber() string   { return e.assignmentNumber }
func (e NotificationEvent) ReservationID() string      { return e.reservationID }
func (e NotificationEvent) ActorID() string            { return e.actorID }
func (e NotificationEvent) SubjectID() string          { return e.subjectID }
func (e NotificationEvent) ButtonStatus() ButtonStatus { return e.buttonStatus }
func (e NotificationEvent) ServiceCode() ServiceCode   { return e.serviceCode }
func (e NotificationEvent) ScheduledAt() time.Time     { return e.scheduledAt }
func (e NotificationEvent) OccurredAt() time.Time      { return e.occurredAt }

// NotificationContent is the rendered notification for one event.
type NotificationContent struct {
	Title   string
	Body    string
	TypeTag string
	data    Payload
}

// NewContent freezes data into a content value.
func NewContent(title, body, typeTag string, data Payload) NotificationContent {
	return NotificationContent{
		Title:   title,
		Body:    body,
		TypeTag: typeTag,
		data:    data.Clone(),
	}
}

// Data returns a copy of the deep-link payload.
func (c NotificationContent) Data() Payload {
	return c.data.Clone()
}

// Audience distinguishes single-subject from broadcast recipients.
type Audience string

const (
	AudienceSingle    Audience = "single"
	AudienceBroadcast Audience = "broadcast"
)

// Recipient is the resolved target of one channel.
type Recipient struct {
	Audience     Audience
	DeviceTokens []string
	// UserIDs is only used for the audit trail.
	UserIDs []string
}

// Empty reports whether there is nobody to send to.
func (r Recipient) Empty() bool {
	return len(r.DeviceTokens) == 0
}

// DeliveryJob is the unit placed on the delivery queue. Content and
// Recipients are optional; when nil the worker resolves them lazily.
type DeliveryJob struct {
	Event      NotificationEvent
	Content    *NotificationContent
	Recipients map[Channel]Recipient
	EnqueuedAt time.Time
}

// NewJob wraps an event for lazy resolution.
func NewJob(event NotificationEvent) DeliveryJob {
	return DeliveryJob{Event: event, EnqueuedAt: time.Now()}
}

// DedupeTokens returns tokens in first-seen order without blanks or duplicates.
func DedupeTokens(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
