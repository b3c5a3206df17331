package contractornotassigned

import (
	"fmt"
	"time"
)

type Config struct {
	Lookahead time.Duration
	Timeout   time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Lookahead: 48 * time.Hour,
		Timeout:   2 * time.Minute,
	}
}

func (c *Config) Validate() error {
	if c.Lookahead <= 0 {
		return fmt.Errorf("lookahead must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
