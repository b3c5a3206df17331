package reassignmentrequest

import (
	"context"
	"database/sql"
	"time"

	apperrors "assignment-notifier/internal/common/errors"
	"assignment-notifier/internal/common/logger"
	"assignment-notifier/internal/email"
	"assignment-notifier/internal/models"
	"assignment-notifier/internal/queue"
	"assignment-notifier/internal/workers/batch"
)

const (
	TaskType = "reassignment-request"
)

const pendingQuery = `
	SELECT a.id, a.assignment_number, COALESCE(a.reservation_id, ''), a.service_code, a.reservation_date,
	       COALESCE(a.reassignment_stage, ''),
	       COALESCE(a.preferred_contractor_id, ''),
	       COALESCE(pc.status = 'active', false),
	       COALESCE(a.candidate_contractor_id, ''),
	       COALESCE(a.request_contractor_id, ''),
	       a.request_sent_at,
	       COALESCE(a.forced_contractor_id, '')
	FROM assignments a
	LEFT JOIN contractors pc ON pc.id = a.preferred_contractor_id
	WHERE a.contractor_id IS NULL
	  AND a.contractor_cancelled_at <= $1
	  AND a.reservation_date > $2
	  AND COALESCE(a.reassignment_stage, '') IN ('', 'requested', 'reminded')
	ORDER BY a.contractor_cancelled_at`

const markRequestedQuery = `
	UPDATE assignments
	SET reassignment_stage = 'requested', request_contractor_id = $2, request_sent_at = $3
	WHERE id = $1`

const setStageQuery = `UPDATE assignments SET reassignment_stage = $2 WHERE id = $1`

// Handler walks assignments whose contractor cancelled through the job
// request flow: request, reminder, withdrawal and the final escalation.
type Handler struct {
	config *Config
	db     *sql.DB
	queue  queue.Enqueuer
	email  email.Notifier
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, q queue.Enqueuer, mailer email.Notifier, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		queue:  q,
		email:  mailer,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

func (h *Handler) Run(ctx context.Context) error {
	out, err := h.Execute(ctx)
	if err != nil {
		return apperrors.NewScanFailedError(TaskType, err)
	}
	h.logger.Info("scan finished", map[string]interface{}{
		"scanned":  out.Scanned,
		"enqueued": out.Enqueued,
		"emails":   out.Emails,
	})
	return nil
}

func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	now := h.now()
	rows, err := h.scan(ctx, now)
	if err != nil {
		return nil, err
	}

	out := &Output{Scanned: len(rows), Stages: make(map[Stage]int), RanAt: now}
	for _, r := range rows {
		stage, err := h.advance(ctx, r, now, out)
		if err != nil {
			return out, err
		}
		if stage != r.Stage {
			out.Stages[stage]++
		}
	}
	return out, nil
}

// advance moves one assignment to its next stage and returns that stage.
func (h *Handler) advance(ctx context.Context, r assignmentRow, now time.Time, out *Output) (Stage, error) {
	switch r.Stage {
	case StageNone:
		return h.request(ctx, r, now, out)

	case StageRequested:
		if !h.due(r, now, h.config.ReminderAfter) {
			return r.Stage, nil
		}
		if err := h.emit(r, models.CategoryContractorRequest, r.RequestContractorID, models.ButtonReminder, now, out); err != nil {
			return r.Stage, err
		}
		return StageReminded, h.setStage(ctx, r.ID, StageReminded)

	case StageReminded:
		if !h.due(r, now, h.config.WithdrawAfter) {
			return r.Stage, nil
		}
		return h.withdraw(ctx, r, now, out)
	}
	return r.Stage, nil
}

func (h *Handler) request(ctx context.Context, r assignmentRow, now time.Time, out *Output) (Stage, error) {
	if r.PreferredID != "" && !r.PreferredMatched {
		if err := h.emit(r, models.CategoryPreferredContractorNotFound, "", models.ButtonNone, now, out); err != nil {
			return r.Stage, err
		}
		h.mail(ctx, email.KindPreferredNotMatched, r, out)
		return StageEscalated, h.setStage(ctx, r.ID, StageEscalated)
	}

	contractor := r.CandidateID
	if r.PreferredID != "" {
		contractor = r.PreferredID
	}
	if contractor == "" {
		h.logger.Debug("no contractor to request yet", map[string]interface{}{"assignmentId": r.ID})
		return r.Stage, nil
	}

	if err := h.emit(r, models.CategoryContractorRequest, contractor, models.ButtonNone, now, out); err != nil {
		return r.Stage, err
	}
	if _, err := h.db.ExecContext(ctx, markRequestedQuery, r.ID, contractor, now); err != nil {
		return r.Stage, apperrors.NewQueryExecutionFailedError("mark-requested", err)
	}
	return StageRequested, nil
}

func (h *Handler) withdraw(ctx context.Context, r assignmentRow, now time.Time, out *Output) (Stage, error) {
	if err := h.emit(r, models.CategoryAssignmentRequestWithdrawn, r.RequestContractorID, models.ButtonNone, now, out); err != nil {
		return r.Stage, err
	}

	next := StageWithdrawn
	switch {
	case r.PreferredID != "" && r.RequestContractorID == r.PreferredID:
		if err := h.emit(r, models.CategoryPreferredContractorFoundNotAssigned, "", models.ButtonNone, now, out); err != nil {
			return r.Stage, err
		}
		h.mail(ctx, email.KindPreferredMatchedNotAssigned, r, out)
		next = StageEscalated

	case r.ForcedContractorID != "":
		if err := h.emit(r, models.CategoryForcedAssignment, r.ForcedContractorID, models.ButtonNone, now, out); err != nil {
			return r.Stage, err
		}
		next = StageForced
	}
	return next, h.setStage(ctx, r.ID, next)
}

func (h *Handler) due(r assignmentRow, now time.Time, after time.Duration) bool {
	return r.RequestSentAt.Valid && !now.Before(r.RequestSentAt.Time.Add(after))
}

func (h *Handler) emit(r assignmentRow, category models.Category, subject string, status models.ButtonStatus, now time.Time, out *Output) error {
	event := models.NewEvent(category, r.ID,
		models.WithAssignmentNumber(r.Number),
		models.WithReservationID(r.ReservationID),
		models.WithServiceCode(models.ServiceCode(r.ServiceCode)),
		models.WithSubjectID(subject),
		models.WithButtonStatus(status),
		models.WithScheduledAt(r.ReservationDate),
		models.WithOccurredAt(now),
	)
	if err := batch.Enqueue(h.queue, TaskType, event); err != nil {
		return err
	}
	out.Enqueued++
	return nil
}

// mail sends the scheduling-team email. Failures are logged only.
func (h *Handler) mail(ctx context.Context, kind string, r assignmentRow, out *Output) {
	var err error
	switch kind {
	case email.KindPreferredNotMatched:
		err = h.email.NotifyPreferredContractorNotMatched(ctx, r.Number)
	case email.KindPreferredMatchedNotAssigned:
		err = h.email.NotifyPreferredContractorMatchedNotAssigned(ctx, r.Number)
	}
	if err != nil {
		h.logger.Error("scheduling email failed", map[string]interface{}{
			"kind":         kind,
			"assignmentId": r.ID,
			"error":        err,
		})
		return
	}
	out.Emails++
}

func (h *Handler) setStage(ctx context.Context, id string, stage Stage) error {
	if _, err := h.db.ExecContext(ctx, setStageQuery, id, string(stage)); err != nil {
		return apperrors.NewQueryExecutionFailedError("set-stage", err)
	}
	return nil
}

func (h *Handler) scan(ctx context.Context, now time.Time) ([]assignmentRow, error) {
	rows, err := h.db.QueryContext(ctx, pendingQuery, now.Add(-h.config.Grace), now)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewQueryTimeoutError(TaskType)
		}
		return nil, apperrors.NewQueryExecutionFailedError(TaskType, err)
	}
	defer rows.Close()

	var out []assignmentRow
	for rows.Next() {
		var (
			r     assignmentRow
			stage string
		)
		if err := rows.Scan(
			&r.ID, &r.Number, &r.ReservationID, &r.ServiceCode, &r.ReservationDate,
			&stage, &r.PreferredID, &r.PreferredMatched, &r.CandidateID,
			&r.RequestContractorID, &r.RequestSentAt, &r.ForcedContractorID,
		); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError(TaskType, err)
		}
		r.Stage = Stage(stage)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(TaskType, err)
	}
	return out, nil
}
