package upcomingreminder

import (
	"fmt"
	"time"
)

type Config struct {
	Location *time.Location
	Timeout  time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Location: time.UTC,
		Timeout:  2 * time.Minute,
	}
}

func (c *Config) Validate() error {
	if c.Location == nil {
		return fmt.Errorf("location is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
