package scheduler

import (
	"fmt"
	"time"
)

// Schedule determines when a periodic task should run. Next is evaluated in
// the location of from.
type Schedule interface {
	Next(from time.Time) time.Time
	String() string
}

// intervalSchedule fires a fixed duration after the previous run.
type intervalSchedule struct {
	every time.Duration
}

func (s intervalSchedule) Next(from time.Time) time.Time {
	return from.Add(s.every)
}

func (s intervalSchedule) String() string {
	return fmt.Sprintf("every %v", s.every)
}

// hourlySchedule fires once an hour at minute past the hour.
type hourlySchedule struct {
	minute int
}

func (s hourlySchedule) Next(from time.Time) time.Time {
	next := time.Date(
		from.Year(), from.Month(), from.Day(),
		from.Hour(), s.minute, 0, 0, from.Location(),
	)
	if !next.After(from) {
		next = next.Add(time.Hour)
	}
	return next
}

func (s hourlySchedule) String() string {
	return fmt.Sprintf("hourly at :%02d", s.minute)
}

// dailySchedule fires once a day at a local wall-clock time. The next day
// is found by calendar arithmetic so DST days keep the same wall time.
type dailySchedule struct {
	hour   int
	minute int
}

func (s dailySchedule) Next(from time.Time) time.Time {
	next := time.Date(
		from.Year(), from.Month(), from.Day(),
		s.hour, s.minute, 0, 0, from.Location(),
	)
	if !next.After(from) {
		next = time.Date(
			from.Year(), from.Month(), from.Day()+1,
			s.hour, s.minute, 0, 0, from.Location(),
		)
	}
	return next
}

func (s dailySchedule) String() string {
	return fmt.Sprintf("daily at %02d:%02d", s.hour, s.minute)
}

// EveryInterval runs a task every d.
func EveryInterval(d time.Duration) Schedule {
	return intervalSchedule{every: d}
}

// HourlyAt runs a task every hour at the given minute.
func HourlyAt(minute int) Schedule {
	return hourlySchedule{minute: minute}
}

// DailyAt runs a task once a day at hour:minute local time.
func DailyAt(hour, minute int) Schedule {
	return dailySchedule{hour: hour, minute: minute}
}

// Hourly runs at the top of every hour.
func Hourly() Schedule {
	return hourlySchedule{minute: 0}
}

// FromConfig builds a schedule from its config kind: interval, hourly or daily.
func FromConfig(kind string, interval time.Duration, hour, minute int) (Schedule, error) {
	switch kind {
	case "interval":
		if interval <= 0 {
			return nil, fmt.Errorf("interval must be positive")
		}
		return EveryInterval(interval), nil
	case "hourly":
		return HourlyAt(minute), nil
	case "daily":
		return DailyAt(hour, minute), nil
	default:
		return nil, fmt.Errorf("unknown schedule kind %q", kind)
	}
}
