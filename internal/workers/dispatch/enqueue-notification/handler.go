package enqueuenotification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "assignment-notifier/internal/common/errors"
	"assignment-notifier/internal/common/logger"
	"assignment-notifier/internal/common/validation"
	"assignment-notifier/internal/models"
	"assignment-notifier/internal/queue"
	"assignment-notifier/internal/workers/batch"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "enqueue-notification"
)

var schema = validation.MustCompileSchema(inputSchema)

// Handler lets BPMN workflows place notification events on the delivery queue.
type Handler struct {
	config       *Config
	queue        queue.Enqueuer
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, q queue.Enqueuer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		queue:        q,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	vars, err := job.GetVariablesAsMap()
	if err != nil {
		err = apperrors.NewInvalidEventError(fmt.Sprintf("parse variables: %v", err))
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.Execute(ctx, vars)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	return h.completeJob(ctx, client, job, output)
}

func (h *Handler) Execute(ctx context.Context, vars map[string]interface{}) (*Output, error) {
	if result := schema.Validate(vars); !result.Valid {
		return nil, apperrors.NewInvalidEventError(strings.Join(result.GetErrorMessages(), "; "))
	}

	raw, err := json.Marshal(vars)
	if err != nil {
		return nil, apperrors.NewInvalidEventError(err.Error())
	}
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, apperrors.NewInvalidEventError(err.Error())
	}

	event, err := buildEvent(&input)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := batch.Enqueue(h.queue, TaskType, event); err != nil {
		return nil, err
	}

	h.logger.Debug("event queued", map[string]interface{}{
		"category":     input.Category,
		"assignmentId": input.AssignmentID,
	})
	return &Output{Queued: true, EventCategory: input.Category}, nil
}

func buildEvent(input *Input) (models.NotificationEvent, error) {
	category := models.Category(input.Category)
	if !category.Valid() {
		return models.NotificationEvent{}, apperrors.NewInvalidEventError(fmt.Sprintf("unknown category %q", input.Category))
	}

	opts := []models.EventOption{
		models.WithAssignmentNumber(input.AssignmentNumber),
		models.WithReservationID(input.ReservationID),
		models.WithActorID(input.ActorID),
		models.WithSubjectID(input.SubjectID),
		models.WithButtonStatus(models.ButtonStatus(strings.ToUpper(input.ButtonStatus))),
		models.WithServiceCode(models.ServiceCode(input.ServiceCode)),
	}
	for _, ts := range []struct {
		value string
		apply func(time.Time) models.EventOption
	}{
		{input.ScheduledAt, models.WithScheduledAt},
		{input.OccurredAt, models.WithOccurredAt},
	} {
		if ts.value == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, ts.value)
		if err != nil {
			return models.NotificationEvent{}, apperrors.NewInvalidEventError(fmt.Sprintf("timestamp %q: %v", ts.value, err))
		}
		opts = append(opts, ts.apply(t))
	}

	return models.NewEvent(category, input.AssignmentID, opts...), nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}
	return nil
}
