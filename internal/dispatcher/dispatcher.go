// Package dispatcher turns one delivery job into per-channel sends and audit records.
package dispatcher

import (
	"context"
	"errors"
	"time"

	"assignment-notifier/internal/audit"
	"assignment-notifier/internal/common/logger"
	"assignment-notifier/internal/common/metrics"
	"assignment-notifier/internal/gateway"
	"assignment-notifier/internal/models"

	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ContentResolver interface {
	Resolve(event models.NotificationEvent) models.NotificationContent
}

type RecipientResolver interface {
	Resolve(ctx context.Context, event models.NotificationEvent, channel models.Channel) (models.Recipient, error)
	Suppress(ctx context.Context, token string) error
}

type AuditWriter interface {
	Record(ctx context.Context, entry audit.Entry) (*models.AuditRecord, error)
}

// Skip reasons reported when a channel is not attempted.
const (
	SkipNoRecipients = "no_recipients"
	SkipLookupFailed = "lookup_failed"
)

// ChannelResult describes what happened on one channel.
type ChannelResult struct {
	Channel     models.Channel
	Attempted   bool
	SkipReason  string
	Outcome     models.SendOutcome
	Recipients  int
	ReferenceID string
	SendErr     error
	AuditErr    error
}

// Result is the outcome of one dispatch.
type Result struct {
	Content  models.NotificationContent
	Channels []ChannelResult
}

// Attempted counts channels that reached the gateway.
func (r *Result) Attempted() int {
	n := 0
	for _, c := range r.Channels {
		if c.Attempted {
			n++
		}
	}
	return n
}

type Dispatcher struct {
	content    ContentResolver
	recipients RecipientResolver
	gateway    gateway.Gateway
	audit      AuditWriter
	logger     logger.Logger
	tracer     trace.Tracer
}

type Option func(*Dispatcher)

func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) { d.tracer = t }
}

func New(content ContentResolver, recipients RecipientResolver, gw gateway.Gateway, auditWriter AuditWriter, log logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		content:    content,
		recipients: recipients,
		gateway:    gw,
		audit:      auditWriter,
		logger:     log.WithFields(map[string]interface{}{"component": "dispatcher"}),
		tracer:     otel.Tracer("assignment-notifier/dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch resolves content and recipients, sends on every channel with a
// recipient and writes one audit record per attempted channel. Gateway
// failures are recorded, not returned. Audit failures are joined into the
// returned error.
func (d *Dispatcher) Dispatch(ctx context.Context, job models.DeliveryJob) (*Result, error) {
	event := job.Event
	start := time.Now()

	ctx, span := d.tracer.Start(ctx, "notification.dispatch", trace.WithAttributes(
		attribute.String("notification.category", string(event.Category())),
		attribute.String("notification.assignment_id", event.AssignmentID()),
	))
	defer span.End()
	defer func() {
		metrics.DispatchDuration.WithLabelValues(string(event.Category())).Observe(time.Since(start).Seconds())
	}()

	var content models.NotificationContent
	if job.Content != nil {
		content = *job.Content
	} else {
		content = d.content.Resolve(event)
	}
	if content.Body == "" {
		d.logger.Warn("no body for event", map[string]interface{}{
			"category":     event.Category(),
			"buttonStatus": event.ButtonStatus(),
			"serviceCode":  event.ServiceCode(),
			"assignmentId": event.AssignmentID(),
		})
	}

	result := &Result{Content: content, Channels: make([]ChannelResult, len(models.Channels))}

	var wg conc.WaitGroup
	for i, channel := range models.Channels {
		result.Channels[i] = ChannelResult{Channel: channel}

		recipient, ok := d.recipient(ctx, job, channel, &result.Channels[i])
		if !ok {
			continue
		}

		cr := &result.Channels[i]
		channel, recipient := channel, recipient
		wg.Go(func() {
			d.deliver(ctx, event, content, channel, recipient, cr)
		})
	}
	wg.Wait()

	var errs []error
	for _, c := range result.Channels {
		if c.AuditErr != nil {
			errs = append(errs, c.AuditErr)
		}
	}
	err := errors.Join(errs...)

	span.SetAttributes(attribute.Int("notification.channels_attempted", result.Attempted()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit write failed")
	}
	return result, err
}

func (d *Dispatcher) recipient(ctx context.Context, job models.DeliveryJob, channel models.Channel, cr *ChannelResult) (models.Recipient, bool) {
	recipient, preset := job.Recipients[channel]
	if !preset {
		var err error
		recipient, err = d.recipients.Resolve(ctx, job.Event, channel)
		if err != nil {
			d.logger.Error("recipient lookup failed, skipping channel", map[string]interface{}{
				"channel":      channel,
				"category":     job.Event.Category(),
				"assignmentId": job.Event.AssignmentID(),
				"error":        err,
			})
			cr.SkipReason = SkipLookupFailed
			metrics.NotificationsSkipped.WithLabelValues(string(channel), SkipLookupFailed).Inc()
			return recipient, false
		}
	}

	recipient.DeviceTokens = models.DedupeTokens(recipient.DeviceTokens)
	if recipient.Empty() {
		cr.SkipReason = SkipNoRecipients
		metrics.NotificationsSkipped.WithLabelValues(string(channel), SkipNoRecipients).Inc()
		return recipient, false
	}
	return recipient, true
}

func (d *Dispatcher) deliver(ctx context.Context, event models.NotificationEvent, content models.NotificationContent, channel models.Channel, recipient models.Recipient, cr *ChannelResult) {
	cr.Attempted = true
	cr.Recipients = len(recipient.DeviceTokens)

	var (
		res *gateway.Result
		err error
	)
	switch channel {
	case models.ChannelMobile:
		res, err = d.gateway.SendSingle(ctx, recipient.DeviceTokens[0], content.Title, content.Body, content.Data())
	default:
		res, err = d.gateway.SendMulticast(ctx, recipient.DeviceTokens, content.Data())
	}

	outcome, reason := classify(err)
	cr.Outcome = outcome
	cr.SendErr = err
	metrics.NotificationsSent.WithLabelValues(string(channel), string(outcome)).Inc()

	if err != nil {
		d.logger.Error("push send failed", map[string]interface{}{
			"channel":      channel,
			"category":     event.Category(),
			"assignmentId": event.AssignmentID(),
			"outcome":      outcome,
			"error":        err,
		})
	}

	// The web audience is re-read while recording, so dead tokens are only
	// suppressed once the record holds the audience that was actually sent to.
	record, auditErr := d.audit.Record(ctx, audit.Entry{
		Channel:       channel,
		Event:         event,
		Content:       content,
		Recipient:     recipient,
		Outcome:       outcome,
		FailureReason: reason,
	})
	d.suppress(ctx, invalidTokens(res, err))

	if auditErr != nil {
		d.logger.Error("audit write failed", map[string]interface{}{
			"channel":      channel,
			"assignmentId": event.AssignmentID(),
			"error":        auditErr,
		})
		cr.AuditErr = auditErr
		return
	}
	cr.ReferenceID = record.ReferenceID
}

func (d *Dispatcher) suppress(ctx context.Context, tokens []string) {
	for _, token := range tokens {
		if err := d.recipients.Suppress(ctx, token); err != nil {
			d.logger.Warn("token suppression failed", map[string]interface{}{"error": err})
		}
	}
}

// classify maps a gateway error onto a send outcome and failure reason.
func classify(err error) (models.SendOutcome, string) {
	if err == nil {
		return models.OutcomeDelivered, ""
	}
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		return models.OutcomeTransportFailure, err.Error()
	}
	if gwErr.Class == gateway.ClassProvider {
		return models.OutcomeProviderFailure, gwErr.Reason
	}
	return models.OutcomeTransportFailure, gwErr.Reason
}

func invalidTokens(res *gateway.Result, err error) []string {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return gwErr.InvalidTokens
	}
	return res.InvalidTokens()
}
