// Package audit persists one log record per attempted channel send.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "assignment-notifier/internal/common/errors"
	"assignment-notifier/internal/common/logger"
	"assignment-notifier/internal/common/metrics"
	"assignment-notifier/internal/models"

	"github.com/google/uuid"
)

// AudienceSource recomputes the web audience at write time.
type AudienceSource interface {
	Audience(ctx context.Context) (models.Recipient, error)
}

// Mirror indexes written records for lookup by reference id.
type Mirror interface {
	Index(ctx context.Context, record *models.AuditRecord) error
}

// Config holds the normalization settings.
type Config struct {
	Location  *time.Location
	Sentinel  time.Time
	CreatedBy string
}

// Entry is one attempted channel send.
type Entry struct {
	Channel       models.Channel
	Event         models.NotificationEvent
	Content       models.NotificationContent
	Recipient     models.Recipient
	Outcome       models.SendOutcome
	FailureReason string
}

// shape is the persisted layout of one channel variant.
type shape struct {
	table      string
	userColumn string
}

var shapes = map[models.Channel]shape{
	models.ChannelMobile: {table: "mobile_notification_log", userColumn: "recipient_user_id"},
	models.ChannelWeb:    {table: "web_notification_log", userColumn: "web_users"},
}

func insertQuery(s shape) string {
	return fmt.Sprintf(`INSERT INTO %s
		(reference_id, assignment_id, %s, title, body, data_payload, sent_at, type_tag, created_by, device_tokens_used, outcome, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, s.table, s.userColumn)
}

func pruneQuery(s shape) string {
	return fmt.Sprintf(`DELETE FROM %s WHERE sent_at < $1`, s.table)
}

// Writer is the single audit writer for both channel variants.
type Writer struct {
	config   *Config
	db       *sql.DB
	audience AudienceSource
	mirror   Mirror
	logger   logger.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Writer.
type Option func(*Writer)

// WithMirror enables search-index mirroring.
func WithMirror(m Mirror) Option {
	return func(w *Writer) { w.mirror = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

func NewWriter(config *Config, db *sql.DB, audience AudienceSource, log logger.Logger, opts ...Option) *Writer {
	if config.Location == nil {
		config.Location = time.UTC
	}
	w := &Writer{
		config:   config,
		db:       db,
		audience: audience,
		logger:   log.WithFields(map[string]interface{}{"component": "audit"}),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Record writes one row to the channel's log table and returns it.
func (w *Writer) Record(ctx context.Context, e Entry) (*models.AuditRecord, error) {
	s, ok := shapes[e.Channel]
	if !ok {
		return nil, apperrors.NewAuditWriteFailedError(string(e.Channel), fmt.Errorf("unknown channel"))
	}

	payload, err := json.Marshal(e.Content.Data())
	if err != nil {
		return nil, apperrors.NewAuditWriteFailedError(string(e.Channel), fmt.Errorf("serialize payload: %w", err))
	}

	record := &models.AuditRecord{
		ReferenceID:   w.newID(),
		Channel:       e.Channel,
		AssignmentID:  e.Event.AssignmentID(),
		Title:         e.Content.Title,
		Body:          e.Content.Body,
		DataPayload:   string(payload),
		SentAt:        w.SentAt(e.Event.OccurredAt()),
		TypeTag:       e.Content.TypeTag,
		CreatedBy:     w.config.CreatedBy,
		Outcome:       e.Outcome,
		FailureReason: e.FailureReason,
	}

	var user string
	switch e.Channel {
	case models.ChannelMobile:
		if len(e.Recipient.UserIDs) > 0 {
			record.RecipientUserID = e.Recipient.UserIDs[0]
		}
		user = record.RecipientUserID
		record.DeviceTokensUsed = strings.Join(e.Recipient.DeviceTokens, ",")
	case models.ChannelWeb:
		current := w.currentAudience(ctx, e.Recipient)
		record.WebUsers = strings.Join(current.UserIDs, ",")
		user = record.WebUsers
		record.DeviceTokensUsed = strings.Join(current.DeviceTokens, ",")
	}

	_, err = w.db.ExecContext(ctx, insertQuery(s),
		record.ReferenceID,
		record.AssignmentID,
		user,
		record.Title,
		record.Body,
		record.DataPayload,
		record.SentAt,
		record.TypeTag,
		record.CreatedBy,
		record.DeviceTokensUsed,
		string(record.Outcome),
		record.FailureReason,
	)
	if err != nil {
		metrics.AuditWrites.WithLabelValues(string(e.Channel), "error").Inc()
		return nil, apperrors.NewAuditWriteFailedError(string(e.Channel), err)
	}
	metrics.AuditWrites.WithLabelValues(string(e.Channel), "ok").Inc()

	if w.mirror != nil {
		if err := w.mirror.Index(ctx, record); err != nil {
			w.logger.Warn("audit mirror failed", map[string]interface{}{
				"referenceId": record.ReferenceID,
				"error":       apperrors.NewAuditMirrorFailedError(record.ReferenceID, err),
			})
		}
	}

	return record, nil
}

// SentAt normalizes an event timestamp. Values at or below the sentinel are
// replaced by now. The result is always in the configured location.
func (w *Writer) SentAt(occurred time.Time) time.Time {
	if !occurred.After(w.config.Sentinel) {
		occurred = w.now()
	}
	return occurred.In(w.config.Location)
}

// currentAudience re-reads the broadcast audience. The set resolved before
// sending is kept when the lookup fails.
func (w *Writer) currentAudience(ctx context.Context, resolved models.Recipient) models.Recipient {
	if w.audience == nil {
		return resolved
	}
	current, err := w.audience.Audience(ctx)
	if err != nil {
		w.logger.Warn("audience recompute failed, using resolved audience", map[string]interface{}{
			"error": err,
		})
		return resolved
	}
	return current
}

// PruneBefore deletes log rows of both channels older than cutoff.
func (w *Writer) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	for _, channel := range models.Channels {
		res, err := w.db.ExecContext(ctx, pruneQuery(shapes[channel]), cutoff)
		if err != nil {
			return total, apperrors.NewMaintenanceFailedError("prune-"+string(channel)+"-log", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}
