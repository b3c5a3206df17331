package main

import (
	"database/sql"
	"fmt"
	"time"

	"assignment-notifier/internal/audit"
	"assignment-notifier/internal/common/config"
	"assignment-notifier/internal/common/logger"
	"assignment-notifier/internal/common/scheduler"
	"assignment-notifier/internal/email"
	"assignment-notifier/internal/queue"

	cna "assignment-notifier/internal/workers/batch/contractor-not-assigned"
	mnt "assignment-notifier/internal/workers/batch/maintenance"
	rrq "assignment-notifier/internal/workers/batch/reassignment-request"
	upr "assignment-notifier/internal/workers/batch/upcoming-reminder"
)

// defaultSchedules apply when config.yaml has no entry for a task.
var defaultSchedules = map[string]config.Schedule{
	cna.TaskType: {Enabled: true, Kind: "hourly", Minute: 0},
	upr.TaskType: {Enabled: true, Kind: "daily", Hour: 20, Minute: 0},
	rrq.TaskType: {Enabled: true, Kind: "hourly", Minute: 30},
	mnt.TaskType: {Enabled: true, Kind: "daily", Hour: 3, Minute: 0},
}

func registerTasks(s *scheduler.Scheduler, cfg *config.Config, db *sql.DB, q queue.Enqueuer, mailer email.Notifier, auditWriter *audit.Writer, log logger.Logger) error {
	loc, _ := cfg.Notifications.Location()

	unassigned := cna.DefaultConfig()
	upcoming := upr.DefaultConfig()
	upcoming.Location = loc
	reassignment := rrq.DefaultConfig()
	maintenance := mnt.FromDays(
		cfg.Maintenance.ChatRoomIdleDays,
		cfg.Maintenance.NotificationLogDays,
		cfg.Maintenance.LiveCoordinateHours,
	)

	tasks := []struct {
		name string
		cfg  interface{ Validate() error }
		run  scheduler.TaskFunc
	}{
		{cna.TaskType, unassigned, cna.NewHandler(unassigned, db, q, log).Run},
		{upr.TaskType, upcoming, upr.NewHandler(upcoming, db, q, log).Run},
		{rrq.TaskType, reassignment, rrq.NewHandler(reassignment, db, q, mailer, log).Run},
		{mnt.TaskType, maintenance, mnt.NewHandler(maintenance, db, auditWriter, log).Run},
	}

	for _, t := range tasks {
		if err := t.cfg.Validate(); err != nil {
			return fmt.Errorf("%s: %w", t.name, err)
		}

		sc := config.GetSchedule(cfg, t.name, defaultSchedules[t.name])
		if !sc.Enabled {
			log.Info("periodic task disabled", map[string]interface{}{"task": t.name})
			continue
		}
		schedule, err := scheduler.FromConfig(sc.Kind, time.Duration(sc.Interval)*time.Second, sc.Hour, sc.Minute)
		if err != nil {
			return fmt.Errorf("%s: %w", t.name, err)
		}
		if err := s.AddTask(t.name, schedule, t.run); err != nil {
			return fmt.Errorf("%s: %w", t.name, err)
		}
	}
	return nil
}
