package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Monitor collects request metrics and runs the registered health checks.
type Monitor struct {
	mu            sync.RWMutex
	requests      int64
	active        int64
	errors        int64
	totalDuration time.Duration
	statusCodes   map[string]int64
	endpoints     map[string]int64
	lastRequest   time.Time
	startedAt     time.Time

	checksMu     sync.RWMutex
	checks       map[string]HealthCheckFunc
	checkTimeout time.Duration

	statsMu sync.RWMutex
	stats   map[string]StatsFunc
}

type HealthCheckFunc func(ctx context.Context) error

// StatsFunc contributes a component's own counters to the metrics report.
type StatsFunc func() map[string]interface{}

type HealthCheck struct {
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Message  string    `json:"message,omitempty"`
	Duration string    `json:"duration"`
	LastRun  time.Time `json:"last_run"`
}

type RequestMetrics struct {
	RequestCount      int64            `json:"request_count"`
	AvgDurationMillis float64          `json:"avg_request_duration_ms"`
	ActiveRequests    int64            `json:"active_requests"`
	ErrorCount        int64            `json:"error_count"`
	StatusCodes       map[string]int64 `json:"status_codes"`
	Endpoints         map[string]int64 `json:"endpoint_calls"`
	StartTime         time.Time        `json:"start_time"`
	LastRequest       time.Time        `json:"last_request"`
}

func NewMonitor() *Monitor {
	return &Monitor{
		statusCodes:  make(map[string]int64),
		endpoints:    make(map[string]int64),
		startedAt:    time.Now(),
		checks:       make(map[string]HealthCheckFunc),
		checkTimeout: 5 * time.Second,
		stats:        make(map[string]StatsFunc),
	}
}

func (m *Monitor) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.mu.Lock()
		m.active++
		m.mu.Unlock()
		defer func() {
			m.mu.Lock()
			m.active--
			m.mu.Unlock()
		}()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		endpoint = c.Request.Method + " " + endpoint

		m.mu.Lock()
		m.requests++
		m.totalDuration += duration
		m.lastRequest = time.Now()
		if status >= 400 {
			m.errors++
		}
		m.statusCodes[strconv.Itoa(status)]++
		m.endpoints[endpoint]++
		m.mu.Unlock()
	}
}

func (m *Monitor) Snapshot() RequestMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := RequestMetrics{
		RequestCount:   m.requests,
		ActiveRequests: m.active,
		ErrorCount:     m.errors,
		StatusCodes:    make(map[string]int64, len(m.statusCodes)),
		Endpoints:      make(map[string]int64, len(m.endpoints)),
		StartTime:      m.startedAt,
		LastRequest:    m.lastRequest,
	}
	if m.requests > 0 {
		out.AvgDurationMillis = float64(m.totalDuration.Microseconds()) / float64(m.requests) / 1000
	}
	for k, v := range m.statusCodes {
		out.StatusCodes[k] = v
	}
	for k, v := range m.endpoints {
		out.Endpoints[k] = v
	}
	return out
}

type SystemMetrics struct {
	Uptime         string      `json:"uptime"`
	MemoryUsage    MemoryStats `json:"memory"`
	GoroutineCount int         `json:"goroutine_count"`
	CPUCount       int         `json:"cpu_count"`
	GoVersion      string      `json:"go_version"`
}

type MemoryStats struct {
	Alloc      uint64 `json:"alloc_mb"`
	TotalAlloc uint64 `json:"total_alloc_mb"`
	Sys        uint64 `json:"sys_mb"`
	NumGC      uint32 `json:"num_gc"`
}

func (m *Monitor) System() SystemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return SystemMetrics{
		Uptime: time.Since(m.startedAt).Round(time.Second).String(),
		MemoryUsage: MemoryStats{
			Alloc:      bToMb(ms.Alloc),
			TotalAlloc: bToMb(ms.TotalAlloc),
			Sys:        bToMb(ms.Sys),
			NumGC:      ms.NumGC,
		},
		GoroutineCount: runtime.NumGoroutine(),
		CPUCount:       runtime.NumCPU(),
		GoVersion:      runtime.Version(),
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

// RegisterHealthCheck adds a named check that runs on every health request.
func (m *Monitor) RegisterHealthCheck(name string, check HealthCheckFunc) {
	m.checksMu.Lock()
	defer m.checksMu.Unlock()
	m.checks[name] = check
}

func (m *Monitor) RegisterStats(name string, fn StatsFunc) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	m.stats[name] = fn
}

// RunHealthChecks runs every check concurrently, each under its own timeout.
func (m *Monitor) RunHealthChecks(ctx context.Context) map[string]HealthCheck {
	m.checksMu.RLock()
	names := make([]string, 0, len(m.checks))
	for name := range m.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]HealthCheckFunc, len(names))
	for i, name := range names {
		checks[i] = m.checks[name]
	}
	m.checksMu.RUnlock()

	results := make([]HealthCheck, len(names))
	var wg sync.WaitGroup
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.runCheck(ctx, names[i], checks[i])
		}(i)
	}
	wg.Wait()

	out := make(map[string]HealthCheck, len(results))
	for _, r := range results {
		out[r.Name] = r
	}
	return out
}

func (m *Monitor) runCheck(ctx context.Context, name string, check HealthCheckFunc) HealthCheck {
	ctx, cancel := context.WithTimeout(ctx, m.checkTimeout)
	defer cancel()

	start := time.Now()
	result := HealthCheck{Name: name, Status: "healthy", LastRun: start}
	if err := check(ctx); err != nil {
		result.Status = "unhealthy"
		result.Message = err.Error()
	}
	result.Duration = time.Since(start).String()
	return result
}

func healthy(checks map[string]HealthCheck) bool {
	for _, check := range checks {
		if check.Status != "healthy" {
			return false
		}
	}
	return true
}

func (m *Monitor) MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		components := gin.H{}
		m.statsMu.RLock()
		for name, fn := range m.stats {
			components[name] = fn()
		}
		m.statsMu.RUnlock()

		c.JSON(http.StatusOK, gin.H{
			"application": m.Snapshot(),
			"system":      m.System(),
			"components":  components,
			"timestamp":   time.Now(),
		})
	}
}

func (m *Monitor) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := m.RunHealthChecks(c.Request.Context())

		status, code := "healthy", http.StatusOK
		if !healthy(checks) {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now(),
			"checks":    checks,
			"uptime":    time.Since(m.startedAt).Round(time.Second).String(),
		})
	}
}

func (m *Monitor) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if healthy(m.RunHealthChecks(c.Request.Context())) {
			c.JSON(http.StatusOK, gin.H{"status": "ready", "timestamp": time.Now()})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "timestamp": time.Now()})
	}
}

func (m *Monitor) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
			"uptime":    time.Since(m.startedAt).Round(time.Second).String(),
		})
	}
}
