package reassignmentrequest

import (
	"fmt"
	"time"
)

// Config holds the delays of the reassignment flow, measured from the
// contractor cancellation (Grace) or from the job request (ReminderAfter,
// WithdrawAfter).
type Config struct {
	Grace         time.Duration
	ReminderAfter time.Duration
	WithdrawAfter time.Duration
	Timeout       time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Grace:         4 * time.Hour,
		ReminderAfter: time.Hour,
		WithdrawAfter: 2 * time.Hour,
		Timeout:       2 * time.Minute,
	}
}

func (c *Config) Validate() error {
	if c.Grace <= 0 {
		return fmt.Errorf("grace must be positive")
	}
	if c.ReminderAfter <= 0 || c.WithdrawAfter <= c.ReminderAfter {
		return fmt.Errorf("withdraw_after must be greater than reminder_after")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
