package core

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// Counter represents a monotonically increasing counter
type Counter struct {
	value int64
	name  string
	help  string
}

// NewCounter creates a new counter
func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

// Inc increments the counter by 1
func (c *Counter) Inc() {
	atomic.AddInt64(&c.value, 1)
}

// Get returns the current counter value
func (c *Counter) Get() int64 {
	return atomic.LoadInt64(&c.value)
}

// Gauge represents a value that can go up and down
type Gauge struct {
	value int64
	name  string
	help  string
}

// NewGauge creates a new gauge
func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

func (g *Gauge) Set(value int64) {
	atomic.StoreInt64(&g.value, value)
}

func (g *Gauge) Inc() {
	atomic.AddInt64(&g.value, 1)
}

func (g *Gauge) Dec() {
	atomic.AddInt64(&g.value, -1)
}

func (g *Gauge) Get() int64 {
	return atomic.LoadInt64(&g.value)
}

// Default buckets, in milliseconds
var defaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Histogram tracks the distribution of observed values in cumulative buckets
type Histogram struct {
	mu     sync.RWMutex
	bounds []float64
	counts []int64
	sum    float64
	count  int64
	name   string
	help   string
}

// NewHistogram creates a histogram with the default millisecond buckets
func NewHistogram(name, help string) *Histogram {
	return &Histogram{
		bounds: defaultBuckets,
		counts: make([]int64, len(defaultBuckets)),
		name:   name,
		help:   help,
	}
}

// Observe records a new observation
func (h *Histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sum += value
	h.count++
	for i, bound := range h.bounds {
		if value <= bound {
			h.counts[i]++
		}
	}
}

// HistogramSnapshot is a point-in-time copy of a histogram
type HistogramSnapshot struct {
	Buckets map[string]int64 `json:"buckets"`
	Sum     float64          `json:"sum"`
	Count   int64            `json:"count"`
}

func (h *Histogram) Snapshot() HistogramSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	buckets := make(map[string]int64, len(h.bounds))
	for i, bound := range h.bounds {
		buckets[formatBound(bound)] = h.counts[i]
	}
	return HistogramSnapshot{Buckets: buckets, Sum: h.sum, Count: h.count}
}

func formatBound(bound float64) string {
	return fmt.Sprintf("%g", bound)
}

// Timer helps measure durations
type Timer struct {
	start time.Time
	hist  *Histogram
}

// NewTimer creates a new timer that will observe to the given histogram
func NewTimer(hist *Histogram) *Timer {
	return &Timer{start: time.Now(), hist: hist}
}

// ObserveDuration records the duration since timer creation
func (t *Timer) ObserveDuration() {
	t.hist.Observe(float64(time.Since(t.start).Nanoseconds()) / 1e6)
}

// MetricsCollector manages all metrics for the application
type MetricsCollector struct {
	// HTTP metrics
	HTTPRequestsTotal    *Counter
	HTTPRequestDuration  *Histogram
	HTTPRequestsInFlight *Gauge
	HTTPErrorsTotal      *Counter
	PageNotFoundTotal    *Counter

	// Content metrics
	PagesTotal          *Gauge
	PagesProcessedTotal *Counter
	ReloadsTotal        *Counter
	ReloadDuration      *Histogram
	FileWatcherEvents   *Counter
	PluginErrorsTotal   *Counter

	// Search and sitemap metrics
	SearchQueriesTotal   *Counter
	SitemapRequestsTotal *Counter

	// System metrics
	GoRoutinesCount *Gauge
	MemoryUsage     *Gauge
	UptimeSeconds   *Gauge

	// Rate limiting metrics
	RateLimitHits   *Counter
	RateLimitBlocks *Counter

	startTime time.Time
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		HTTPRequestsTotal:    NewCounter("http_requests_total", "Total number of HTTP requests"),
		HTTPRequestDuration:  NewHistogram("http_request_duration_ms", "HTTP request duration in milliseconds"),
		HTTPRequestsInFlight: NewGauge("http_requests_in_flight", "Current number of HTTP requests being processed"),
		HTTPErrorsTotal:      NewCounter("http_errors_total", "Total number of HTTP errors"),
		PageNotFoundTotal:    NewCounter("page_not_found_total", "Total number of 404 responses"),

		PagesTotal:          NewGauge("pages_total", "Number of published pages"),
		PagesProcessedTotal: NewCounter("pages_processed_total", "Total number of pages run through the plugin pipeline"),
		ReloadsTotal:        NewCounter("reloads_total", "Total number of content reloads"),
		ReloadDuration:      NewHistogram("reload_duration_ms", "Content reload duration in milliseconds"),
		FileWatcherEvents:   NewCounter("file_watcher_events_total", "Total number of file watcher events"),
		PluginErrorsTotal:   NewCounter("plugin_errors_total", "Total number of plugin errors"),

		SearchQueriesTotal:   NewCounter("search_queries_total", "Total number of search queries"),
		SitemapRequestsTotal: NewCounter("sitemap_requests_total", "Total number of sitemap.xml and robots.txt requests"),

		GoRoutinesCount: NewGauge("go_routines_count", "Number of Go routines"),
		MemoryUsage:     NewGauge("memory_usage_bytes", "Memory usage in bytes"),
		UptimeSeconds:   NewGauge("uptime_seconds", "Application uptime in seconds"),

		RateLimitHits:   NewCounter("rate_limit_hits_total", "Total number of rate limited requests checked"),
		RateLimitBlocks: NewCounter("rate_limit_blocks_total", "Total number of rate limit blocks"),

		startTime: time.Now(),
	}
}

// UpdateSystemMetrics updates system-level metrics
func (mc *MetricsCollector) UpdateSystemMetrics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	mc.GoRoutinesCount.Set(int64(runtime.NumGoroutine()))
	mc.MemoryUsage.Set(int64(memStats.Alloc))
	mc.UptimeSeconds.Set(int64(time.Since(mc.startTime).Seconds()))
}

func (mc *MetricsCollector) counters() []*Counter {
	return []*Counter{
		mc.HTTPRequestsTotal, mc.HTTPErrorsTotal, mc.PageNotFoundTotal,
		mc.PagesProcessedTotal, mc.ReloadsTotal, mc.FileWatcherEvents, mc.PluginErrorsTotal,
		mc.SearchQueriesTotal, mc.SitemapRequestsTotal,
		mc.RateLimitHits, mc.RateLimitBlocks,
	}
}

func (mc *MetricsCollector) gauges() []*Gauge {
	return []*Gauge{
		mc.HTTPRequestsInFlight, mc.PagesTotal,
		mc.GoRoutinesCount, mc.MemoryUsage, mc.UptimeSeconds,
	}
}

func (mc *MetricsCollector) histograms() []*Histogram {
	return []*Histogram{mc.HTTPRequestDuration, mc.ReloadDuration}
}

// GetAllMetrics returns all current metric values keyed by metric name
func (mc *MetricsCollector) GetAllMetrics() map[string]interface{} {
	mc.UpdateSystemMetrics()

	metrics := make(map[string]interface{})
	for _, c := range mc.counters() {
		metrics[c.name] = c.Get()
	}
	for _, g := range mc.gauges() {
		metrics[g.name] = g.Get()
	}
	for _, h := range mc.histograms() {
		metrics[h.name] = h.Snapshot()
	}
	return metrics
}

// MetricsMiddleware creates a Gin middleware for collecting HTTP metrics
func (mc *MetricsCollector) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/metrics") {
			c.Next()
			return
		}

		mc.HTTPRequestsInFlight.Inc()
		timer := NewTimer(mc.HTTPRequestDuration)

		c.Next()

		timer.ObserveDuration()
		mc.HTTPRequestsInFlight.Dec()
		mc.HTTPRequestsTotal.Inc()

		if c.Writer.Status() >= 400 {
			mc.HTTPErrorsTotal.Inc()
			if c.Writer.Status() == http.StatusNotFound {
				mc.PageNotFoundTotal.Inc()
			}
		}
	}
}

// MetricsHandler returns an HTTP handler for the /metrics endpoint
func (mc *MetricsCollector) MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"timestamp": time.Now(),
			"metrics":   mc.GetAllMetrics(),
		})
	}
}

// PrometheusHandler returns metrics in the Prometheus text format
func (mc *MetricsCollector) PrometheusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		c.String(http.StatusOK, mc.FormatPrometheus())
	}
}

// FormatPrometheus renders every metric in the Prometheus text format, sorted by name
func (mc *MetricsCollector) FormatPrometheus() string {
	mc.UpdateSystemMetrics()

	type entry struct {
		name string
		text string
	}
	var entries []entry

	for _, c := range mc.counters() {
		entries = append(entries, entry{c.name, fmt.Sprintf("# HELP %s %s\n# TYPE %s counter\n%s %d\n", c.name, c.help, c.name, c.name, c.Get())})
	}
	for _, g := range mc.gauges() {
		entries = append(entries, entry{g.name, fmt.Sprintf("# HELP %s %s\n# TYPE %s gauge\n%s %d\n", g.name, g.help, g.name, g.name, g.Get())})
	}
	for _, h := range mc.histograms() {
		var sb strings.Builder
		fmt.Fprintf(&sb, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name)
		snap := h.Snapshot()
		for _, bound := range h.bounds {
			fmt.Fprintf(&sb, "%s_bucket{le=\"%s\"} %d\n", h.name, formatBound(bound), snap.Buckets[formatBound(bound)])
		}
		fmt.Fprintf(&sb, "%s_bucket{le=\"+Inf\"} %d\n", h.name, snap.Count)
		fmt.Fprintf(&sb, "%s_sum %.2f\n%s_count %d\n", h.name, snap.Sum, h.name, snap.Count)
		entries = append(entries, entry{h.name, sb.String()})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	var out strings.Builder
	for _, e := range entries {
		out.WriteString(e.text)
		out.WriteString("\n")
	}
	return out.String()
}

// StartMetricsCollector refreshes system metrics until ctx is done
func (mc *MetricsCollector) StartMetricsCollector(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mc.UpdateSystemMetrics()
		}
	}
}

// Global metrics collector instance
var GlobalMetrics = NewMetricsCollector()

// Convenience functions for global metrics
func RecordFileWatcherEvent() {
	GlobalMetrics.FileWatcherEvents.Inc()
}

func RecordPluginError() {
	GlobalMetrics.PluginErrorsTotal.Inc()
}

func RecordPageProcessed() {
	GlobalMetrics.PagesProcessedTotal.Inc()
}

func RecordReload(duration time.Duration, pages int) {
	GlobalMetrics.ReloadsTotal.Inc()
	GlobalMetrics.ReloadDuration.Observe(float64(duration.Nanoseconds()) / 1e6)
	GlobalMetrics.PagesTotal.Set(int64(pages))
}

func RecordSearchQuery() {
	GlobalMetrics.SearchQueriesTotal.Inc()
}

func RecordSitemapRequest() {
	GlobalMetrics.SitemapRequestsTotal.Inc()
}

func RecordRateLimitHit() {
	GlobalMetrics.RateLimitHits.Inc()
}

func RecordRateLimitBlock() {
	GlobalMetrics.RateLimitBlocks.Inc()
}
