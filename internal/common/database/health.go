// internal/common/database/health.go
package database

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// ComponentStatus is the health of one named dependency.
type ComponentStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckAll pings every component concurrently, each bounded by timeout, and
// returns statuses sorted by name along with overall health.
func CheckAll(ctx context.Context, components map[string]Pinger, timeout time.Duration) ([]ComponentStatus, bool) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]ComponentStatus, 0, len(components))
		healthy = true
	)

	for name, p := range components {
		wg.Add(1)
		go func(name string, p Pinger) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			st := ComponentStatus{Name: name, Status: StatusHealthy}
			if err := p.Ping(pctx); err != nil {
				st.Status = StatusUnhealthy
				st.Error = err.Error()
			}

			mu.Lock()
			results = append(results, st)
			if st.Status != StatusHealthy {
				healthy = false
			}
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, healthy
}
