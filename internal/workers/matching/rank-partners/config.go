// internal/workers/matching/rank-partners/config.go
package rankpartners

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
		Timeout:       30 * time.Second,
		DefaultLimit:  10,
	}
}

// LoadConfig overlays workers.rank-partners and matching.default_limit on
// the defaults.
func LoadConfig(app *config.Config) *Config {
	c := DefaultConfig()
	if app == nil {
		return c
	}
	if app.Matching.DefaultLimit > 0 {
		c.DefaultLimit = app.Matching.DefaultLimit
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
