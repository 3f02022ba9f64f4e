package resilience

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "HEALTHY"
	HealthStatusDegraded  HealthStatus = "DEGRADED"
	HealthStatusUnhealthy HealthStatus = "UNHEALTHY"
)

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Name    string        `json:"name"`
	Status  HealthStatus  `json:"status"`
	Message string        `json:"message,omitempty"`
	Latency time.Duration `json:"latency_ns"`
}

// HealthCheck represents a health check function.
type HealthCheck func(ctx context.Context) ComponentHealth

// SystemHealth represents overall system health.
type SystemHealth struct {
	Status     HealthStatus      `json:"status"`
	Uptime     string            `json:"uptime"`
	Components []ComponentHealth `json:"components"`
}

// HealthMonitor runs registered checks on demand.
type HealthMonitor struct {
	mu         sync.RWMutex
	startTime  time.Time
	components map[string]HealthCheck
	timeout    time.Duration
}

// NewHealthMonitor creates a new health monitor. Each check run is bounded by timeout.
func NewHealthMonitor(timeout time.Duration) *HealthMonitor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthMonitor{
		startTime:  time.Now(),
		components: make(map[string]HealthCheck),
		timeout:    timeout,
	}
}

// RegisterComponent registers a health check for a component.
func (m *HealthMonitor) RegisterComponent(name string, check HealthCheck) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[name] = check
}

// Check runs every registered check concurrently and aggregates the results.
func (m *HealthMonitor) Check(ctx context.Context) SystemHealth {
	m.mu.RLock()
	checks := make(map[string]HealthCheck, len(m.components))
	for k, v := range m.components {
		checks[k] = v
	}
	m.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var (
		wg      sync.WaitGroup
		results = make(chan ComponentHealth, len(checks))
	)
	for name, check := range checks {
		wg.Add(1)
		go func(n string, c HealthCheck) {
			defer wg.Done()
			start := time.Now()
			h := c(ctx)
			h.Name = n
			h.Latency = time.Since(start)
			results <- h
		}(name, check)
	}
	wg.Wait()
	close(results)

	sys := SystemHealth{
		Status: HealthStatusHealthy,
		Uptime: time.Since(m.startTime).Round(time.Second).String(),
	}
	for h := range results {
		sys.Components = append(sys.Components, h)
		switch h.Status {
		case HealthStatusUnhealthy:
			sys.Status = HealthStatusUnhealthy
		case HealthStatusDegraded:
			if sys.Status == HealthStatusHealthy {
				sys.Status = HealthStatusDegraded
			}
		}
	}
	sort.Slice(sys.Components, func(i, j int) bool { return sys.Components[i].Name < sys.Components[j].Name })
	return sys
}

// HealthHTTPHandler returns an HTTP handler for health checks.
func (m *HealthMonitor) HealthHTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := m.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if health.Status == HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK) // Degraded is still operational
		}

		data, _ := json.Marshal(health)
		w.Write(data)
	}
}

// DatabaseHealthCheck creates a health check for database connections.
func DatabaseHealthCheck(ping func(ctx context.Context) error) HealthCheck {
	return func(ctx context.Context) ComponentHealth {
		if err := ping(ctx); err != nil {
			return ComponentHealth{Status: HealthStatusUnhealthy, Message: err.Error()}
		}
		return ComponentHealth{Status: HealthStatusHealthy}
	}
}

// CircuitHealthCheck reports an open breaker as degraded.
func CircuitHealthCheck(cb *CircuitBreaker) HealthCheck {
	return func(ctx context.Context) ComponentHealth {
		state := cb.State()
		if state == CircuitClosed {
			return ComponentHealth{Status: HealthStatusHealthy, Message: string(state)}
		}
		return ComponentHealth{Status: HealthStatusDegraded, Message: string(state)}
	}
}
