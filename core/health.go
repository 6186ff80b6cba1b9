package core

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// HealthCheck represents a single health check
type HealthCheck struct {
	Name        string                          `json:"name"`
	Status      HealthStatus                    `json:"status"`
	Message     string                          `json:"message,omitempty"`
	LastChecked time.Time                       `json:"last_checked"`
	Duration    time.Duration                   `json:"duration"`
	CheckFunc   func(ctx context.Context) error `json:"-"`
}

// HealthChecker manages health checks for the application
type HealthChecker struct {
	mu           sync.RWMutex
	checks       map[string]*HealthCheck
	globalStatus HealthStatus
	lastUpdate   time.Time
}

// NewHealthChecker creates a new health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks:       make(map[string]*HealthCheck),
		globalStatus: HealthStatusUnknown,
		lastUpdate:   time.Now(),
	}
}

// RegisterCheck registers a new health check
func (hc *HealthChecker) RegisterCheck(name string, checkFunc func(ctx context.Context) error) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.checks[name] = &HealthCheck{
		Name:      name,
		Status:    HealthStatusUnknown,
		CheckFunc: checkFunc,
	}
}

// RunCheck executes a specific health check
func (hc *HealthChecker) RunCheck(ctx context.Context, name string) error {
	hc.mu.RLock()
	check, exists := hc.checks[name]
	hc.mu.RUnlock()

	if !exists {
		return fmt.Errorf("health check %s not found", name)
	}

	start := time.Now()
	err := check.CheckFunc(ctx)
	duration := time.Since(start)

	hc.mu.Lock()
	defer hc.mu.Unlock()

	check.Duration = duration
	check.LastChecked = time.Now()
	if err != nil {
		check.Status = HealthStatusUnhealthy
		check.Message = err.Error()
	} else {
		check.Status = HealthStatusHealthy
		check.Message = ""
	}

	return err
}

// RunAllChecks executes all registered health checks, in name order
func (hc *HealthChecker) RunAllChecks(ctx context.Context) map[string]error {
	hc.mu.RLock()
	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	hc.mu.RUnlock()
	sort.Strings(names)

	failures := make(map[string]error)
	for _, name := range names {
		if err := hc.RunCheck(ctx, name); err != nil {
			failures[name] = err
		}
	}

	hc.updateGlobalStatus()
	return failures
}

func (hc *HealthChecker) updateGlobalStatus() {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	status := HealthStatusUnknown
	for _, check := range hc.checks {
		if check.Status == HealthStatusUnhealthy {
			status = HealthStatusUnhealthy
			break
		}
		if check.Status == HealthStatusHealthy {
			status = HealthStatusHealthy
		}
	}

	hc.globalStatus = status
	hc.lastUpdate = time.Now()
}

// GetStatus returns the current health status and a copy of every check
func (hc *HealthChecker) GetStatus() (HealthStatus, map[string]HealthCheck) {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	checks := make(map[string]HealthCheck, len(hc.checks))
	for name, check := range hc.checks {
		checks[name] = HealthCheck{
			Name:        check.Name,
			Status:      check.Status,
			Message:     check.Message,
			LastChecked: check.LastChecked,
			Duration:    check.Duration,
		}
	}
	return hc.globalStatus, checks
}

// HealthHandler runs every check and reports the result
func (hc *HealthChecker) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		failures := hc.RunAllChecks(ctx)
		status, checks := hc.GetStatus()

		response := gin.H{
			"status":    status,
			"timestamp": time.Now(),
			"checks":    checks,
		}
		if len(failures) > 0 {
			messages := make(map[string]string, len(failures))
			for name, err := range failures {
				messages[name] = err.Error()
			}
			response["errors"] = messages
		}

		code := http.StatusOK
		if status != HealthStatusHealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, response)
	}
}

// LivenessHandler returns a simple liveness probe handler
func (hc *HealthChecker) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
		})
	}
}

// ReadinessHandler reports ready once the last run of checks passed
func (hc *HealthChecker) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, _ := hc.GetStatus()
		if status == HealthStatusHealthy {
			c.JSON(http.StatusOK, gin.H{"status": "ready", "timestamp": time.Now()})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "timestamp": time.Now()})
	}
}

// StartPeriodicChecks runs all checks every interval until ctx is done
func (hc *HealthChecker) StartPeriodicChecks(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	hc.RunAllChecks(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			failures := hc.RunAllChecks(checkCtx)
			cancel()

			for name, err := range failures {
				Error("health check %s failed: %v", name, err)
			}
		}
	}
}

// ContentHealthCheck fails until at least one page has been loaded
func ContentHealthCheck(cm *ContentManager) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if cm == nil {
			return fmt.Errorf("content manager is nil")
		}
		if cm.LoadedAt().IsZero() {
			return fmt.Errorf("content not loaded yet")
		}
		if len(cm.Pages()) == 0 {
			return fmt.Errorf("no pages loaded from %s", cm.SiteDirectory)
		}
		return nil
	}
}

// FileWatcherHealthCheck checks if the file watcher is running
func FileWatcherHealthCheck(fw *FileWatcher) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if fw == nil {
			return fmt.Errorf("file watcher is nil")
		}
		if !fw.IsRunning() {
			return ErrWatcherNotRunning
		}
		if len(fw.GetWatchedDirectories()) == 0 {
			return fmt.Errorf("no directories being watched")
		}
		return nil
	}
}

// PluginManagerHealthCheck checks if plugins are loaded
func PluginManagerHealthCheck(pm *PluginManager) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if pm == nil {
			return fmt.Errorf("plugin manager is nil")
		}
		if len(pm.ListPlugins()) == 0 {
			return fmt.Errorf("no plugins registered")
		}
		return nil
	}
}

// SearchHealthCheck runs an empty-result query against the index
func SearchHealthCheck(s Searcher) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if s == nil {
			return ErrSearchUnavailable
		}
		_, err := s.Search("healthcheck", 1)
		return err
	}
}

// RegisterDefaultHealthChecks registers the checks for every component present in ctx
func RegisterDefaultHealthChecks(hc *HealthChecker, ctx *Context) {
	if ctx.Content != nil {
		hc.RegisterCheck("content", ContentHealthCheck(ctx.Content))
		hc.RegisterCheck("plugins", PluginManagerHealthCheck(ctx.Content.GetPluginManager()))
	}

	if ctx.Watcher != nil {
		hc.RegisterCheck("file_watcher", FileWatcherHealthCheck(ctx.Watcher))
	}

	if ctx.Search != nil {
		hc.RegisterCheck("search", SearchHealthCheck(ctx.Search))
	}

	hc.RegisterCheck("memory", func(ctx context.Context) error {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)
		if memStats.Alloc > 1024*1024*1024 {
			return fmt.Errorf("high memory usage: %d bytes", memStats.Alloc)
		}
		return nil
	})
}
