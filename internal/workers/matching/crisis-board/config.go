// internal/workers/matching/crisis-board/config.go
package crisisboard

import (
	"time"

	"matrix-core/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	DefaultLimit  int
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       15 * time.Second,
		DefaultLimit:  20,
	}
}

func LoadConfig(app *config.Config) *Config {
	c := DefaultConfig()
	if app == nil {
		return c
	}
	if wc, ok := app.Workers[TaskType]; ok {
		c.Enabled = wc.Enabled
		if wc.MaxJobsActive > 0 {
			c.MaxJobsActive = wc.MaxJobsActive
		}
		if wc.Timeout > 0 {
			c.Timeout = config.GetDuration(wc.Timeout)
		}
	}
	return c
}
