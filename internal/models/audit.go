package models

import "time"

// SendOutcome classifies one gateway attempt.
type SendOutcome string

const (
	OutcomeDelivered        SendOutcome = "delivered"
	OutcomeProviderFailure  SendOutcome = "provider_failure"
	OutcomeTransportFailure SendOutcome = "transport_failure"
)

// AuditRecord is one persisted row of the notification log. Channel selects
// the mobile or web shape: mobile rows carry RecipientUserID, web rows carry
// WebUsers.
type AuditRecord struct {
	ReferenceID      string      `json:"referenceId"`
	Channel          Channel     `json:"channel"`
	AssignmentID     string      `json:"assignmentId"`
	RecipientUserID  string      `json:"recipientUserId,omitempty"`
	WebUsers         string      `json:"webUsers,omitempty"`
	Title            string      `json:"title"`
	Body             string      `json:"body"`
	DataPayload      string      `json:"dataPayload"`
	SentAt           time.Time   `json:"sentAt"`
	TypeTag          string      `json:"typeTag"`
	CreatedBy        string      `json:"createdBy"`
	DeviceTokensUsed string      `json:"deviceTokensUsed"`
	Outcome          SendOutcome `json:"outcome"`
	FailureReason    string      `json:"failureReason,omitempty"`
}
