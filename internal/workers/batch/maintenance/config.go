package maintenance

import (
	"fmt"
	"time"
)

type Config struct {
	ChatRoomIdle       time.Duration
	NotificationLogAge time.Duration
	LiveCoordinateAge  time.Duration
	Timeout            time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		ChatRoomIdle:       30 * 24 * time.Hour,
		NotificationLogAge: 90 * 24 * time.Hour,
		LiveCoordinateAge:  24 * time.Hour,
		Timeout:            5 * time.Minute,
	}
}

// FromDays builds a Config from the retention windows in the config file.
func FromDays(chatRoomIdleDays, notificationLogDays, liveCoordinateHours int) *Config {
	cfg := DefaultConfig()
	if chatRoomIdleDays > 0 {
		cfg.ChatRoomIdle = time.Duration(chatRoomIdleDays) * 24 * time.Hour
	}
	if notificationLogDays > 0 {
		cfg.NotificationLogAge = time.Duration(notificationLogDays) * 24 * time.Hour
	}
	if liveCoordinateHours > 0 {
		cfg.LiveCoordinateAge = time.Duration(liveCoordinateHours) * time.Hour
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.ChatRoomIdle <= 0 || c.NotificationLogAge <= 0 || c.LiveCoordinateAge <= 0 {
		return fmt.Errorf("retention windows must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
