// internal/workers/matching/build-recommendations/config.go
package buildrecommendations

import (
	"time"

	"matrix-core/internal/common/config"
)

type Config struct {
	Enabled        bool
	MaxJobsActive  int
	Timeout        time.Duration
	TopRecommended int
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		MaxJobsActive:  10,
		Timeout:        10 * time.Second,
		TopRecommended: 3,
	}
}

func LoadConfig(app *config.Config) *Config {
	c := DefaultConfig()
	if app == nil {
		return c
	}
	if app.Matching.TopRecommended > 0 {
		c.TopRecommended = app.Matching.TopRecommended
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
