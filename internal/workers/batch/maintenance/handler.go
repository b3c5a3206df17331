package maintenance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "assignment-notifier/internal/common/errors"
	"assignment-notifier/internal/common/logger"
	"assignment-notifier/internal/common/metrics"
)

const (
	TaskType = "maintenance"
)

const (
	deleteChatRoomsQuery       = `DELETE FROM chat_rooms WHERE last_message_at < $1`
	deleteLiveCoordinatesQuery = `DELETE FROM live_coordinates WHERE recorded_at < $1`
)

// Pruner removes notification log rows older than cutoff.
type Pruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Handler runs the delete-only cleanup steps. A failing step does not stop
// the remaining ones.
type Handler struct {
	config *Config
	db     *sql.DB
	pruner Pruner
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, pruner Pruner, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		pruner: pruner,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

func (h *Handler) Run(ctx context.Context) error {
	out, err := h.Execute(ctx)
	if err != nil {
		return err
	}
	h.logger.Info("maintenance finished", map[string]interface{}{
		"deleted": out.Deleted,
		"total":   out.Total(),
	})
	return nil
}

func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	now := h.now()
	out := &Output{Deleted: make(map[string]int64), RanAt: now}

	steps := []struct {
		name string
		run  func() (int64, error)
	}{
		{StepChatRooms, func() (int64, error) {
			return h.exec(ctx, deleteChatRoomsQuery, now.Add(-h.config.ChatRoomIdle))
		}},
		{StepNotificationLogs, func() (int64, error) {
			return h.pruner.PruneBefore(ctx, now.Add(-h.config.NotificationLogAge))
		}},
		{StepLiveCoordinates, func() (int64, error) {
			return h.exec(ctx, deleteLiveCoordinatesQuery, now.Add(-h.config.LiveCoordinateAge))
		}},
	}

	var errs []error
	for _, step := range steps {
		n, err := step.run()
		if err != nil {
			h.logger.Error("maintenance step failed", map[string]interface{}{
				"step":  step.name,
				"error": err,
			})
			errs = append(errs, apperrors.NewMaintenanceFailedError(step.name, err))
			continue
		}
		out.Deleted[step.name] = n
		metrics.MaintenanceRowsDeleted.WithLabelValues(step.name).Add(float64(n))
	}
	return out, errors.Join(errs...)
}

func (h *Handler) exec(ctx context.Context, query string, cutoff time.Time) (int64, error) {
	res, err := h.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return 0, apperrors.NewQueryTimeoutError(TaskType)
		}
		return 0, err
	}
	return res.RowsAffected()
}
