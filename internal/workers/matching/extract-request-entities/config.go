// internal/workers/matching/extract-request-entities/config.go
package extractrequestentities

import (
	"time"

	"matrix-core/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 10,
		Timeout:       10 * time.Second,
	}
}

// LoadConfig overlays workers.extract-request-entities on the defaults.
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
