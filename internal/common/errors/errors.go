// Package errors provides standardized error handling for the notification pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidEvent ErrorCode = "INVALID_EVENT"
	ErrCodeQueueClosed  ErrorCode = "QUEUE_CLOSED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeRecipientLookupFailed ErrorCode = "RECIPIENT_LOOKUP_FAILED"
	ErrCodeAuditWriteFailed      ErrorCode = "AUDIT_WRITE_FAILED"
	ErrCodeAuditMirrorFailed     ErrorCode = "AUDIT_MIRROR_FAILED"

	ErrCodeGatewayProviderError  ErrorCode = "GATEWAY_PROVIDER_ERROR"
	ErrCodeGatewayTransportError ErrorCode = "GATEWAY_TRANSPORT_ERROR"

	ErrCodeEmailSendFailed ErrorCode = "EMAIL_SEND_FAILED"

	ErrCodeScanFailed        ErrorCode = "SCAN_FAILED"
	ErrCodeMaintenanceFailed ErrorCode = "MAINTENANCE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidEventError creates a non-retryable error for malformed events.
func NewInvalidEventError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidEvent,
		Message:   "Notification event is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueueClosedError is returned when enqueueing after shutdown began.
func NewQueueClosedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeQueueClosed,
		Message:   "Delivery queue is closed",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err, true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryName string, err error) *StandardError {
	e := newError(ErrCodeQueryExecutionFailed, "Database query execution error", err, true)
	e.Details = fmt.Sprintf("query: %s, error: %v", queryName, err)
	return e
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("query: %s", queryName),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecipientLookupFailedError wraps a failure to resolve a channel audience.
func NewRecipientLookupFailedError(channel string, err error) *StandardError {
	e := newError(ErrCodeRecipientLookupFailed, "Recipient lookup failed", err, true)
	e.Metadata = map[string]interface{}{"channel": channel}
	return e
}

// NewAuditWriteFailedError wraps a failed audit insert. It is fatal for the job.
func NewAuditWriteFailedError(channel string, err error) *StandardError {
	e := newError(ErrCodeAuditWriteFailed, "Audit record could not be persisted", err, false)
	e.Metadata = map[string]interface{}{"channel": channel}
	return e
}

// NewAuditMirrorFailedError wraps a failed search-index write.
func NewAuditMirrorFailedError(referenceID string, err error) *StandardError {
	e := newError(ErrCodeAuditMirrorFailed, "Audit record could not be indexed", err, true)
	e.Metadata = map[string]interface{}{"referenceId": referenceID}
	return e
}

// NewGatewayProviderError marks a provider-specific rejection (invalid token, malformed message).
func NewGatewayProviderError(provider string, err error) *StandardError {
	return newError(ErrCodeGatewayProviderError, fmt.Sprintf("Push provider '%s' rejected the message", provider), err, false)
}

// NewGatewayTransportError marks a generic failure (network, timeout).
func NewGatewayTransportError(provider string, err error) *StandardError {
	return newError(ErrCodeGatewayTransportError, fmt.Sprintf("Push provider '%s' unreachable", provider), err, true)
}

// NewEmailSendFailedError creates a retryable email delivery error.
func NewEmailSendFailedError(kind string, err error) *StandardError {
	e := newError(ErrCodeEmailSendFailed, "Email delivery failed", err, true)
	e.Details = fmt.Sprintf("type: %s, error: %v", kind, err)
	return e
}

// NewScanFailedError wraps a failed batch producer scan.
func NewScanFailedError(task string, err error) *StandardError {
	e := newError(ErrCodeScanFailed, fmt.Sprintf("Batch scan '%s' failed", task), err, true)
	e.Metadata = map[string]interface{}{"task": task}
	return e
}

// NewMaintenanceFailedError wraps a failed cleanup statement.
func NewMaintenanceFailedError(step string, err error) *StandardError {
	e := newError(ErrCodeMaintenanceFailed, fmt.Sprintf("Maintenance step '%s' failed", step), err, true)
	e.Metadata = map[string]interface{}{"step": step}
	return e
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeRecipientLookupFailed,
		ErrCodeGatewayTransportError,
		ErrCodeEmailSendFailed,
		ErrCodeScanFailed:
		return 3

	case ErrCodeQueryTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "GATEWAY"):
		return "GATEWAY"
	case strings.HasPrefix(codeStr, "AUDIT"):
		return "AUDIT"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "RECIPIENT"):
		return "RECIPIENT"
	case strings.Contains(codeStr, "EMAIL"):
		return "EMAIL"
	case strings.Contains(codeStr, "SCAN") || strings.Contains(codeStr, "MAINTENANCE"):
		return "BATCH"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "QUEUE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
