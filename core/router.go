package core

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// Search request bounds
const (
	DefaultSearchLimit  = 10
	MaxSearchLimit      = 50
	MaxSearchQueryRunes = 200
	SearchRequestsLimit = 60 // per client and minute
)

// NotFoundRoute is served (with status 404) for unknown routes when the site has such a page
const NotFoundRoute = "/404"

// RouterManager owns the gin engine serving the site
type RouterManager struct {
	mu         sync.RWMutex
	router     *gin.Engine
	ctx        *Context
	health     *HealthChecker
	metrics    *MetricsCollector
	limiter    *RateLimiter
	middleware []gin.HandlerFunc
}

func NewRouterManager() *RouterManager {
	return &RouterManager{
		health:     NewHealthChecker(),
		metrics:    GlobalMetrics,
		middleware: make([]gin.HandlerFunc, 0),
	}
}

func (rm *RouterManager) AddMiddleware(middleware ...gin.HandlerFunc) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.middleware = append(rm.middleware, middleware...)
}

// HealthChecker returns the checker behind /healthz and /readyz
func (rm *RouterManager) HealthChecker() *HealthChecker {
	return rm.health
}

// InitializeRouter creates the gin engine. Pages are looked up on every request,
// so content reloads never require rebuilding the engine.
func (rm *RouterManager) InitializeRouter(ctx *Context) error {
	if ctx == nil || ctx.Content == nil {
		return errors.New("router needs a context with content")
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.ctx = ctx
	if rm.limiter != nil {
		rm.limiter.Stop()
	}
	rm.limiter = NewRateLimiter(SearchRequestsLimit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLoggerMiddleware(GlobalLogger))
	router.Use(rm.metrics.MetricsMiddleware())
	router.Use(SecurityHeadersMiddleware())
	for _, middleware := range rm.middleware {
		router.Use(middleware)
	}

	router.GET("/sitemap.xml", rm.sitemapHandler)
	router.GET("/robots.txt", rm.robotsHandler)
	router.GET("/search", rm.limiter.Middleware(), rm.searchHandler)

	RegisterDefaultHealthChecks(rm.health, ctx)
	router.GET("/healthz", rm.health.HealthHandler())
	router.GET("/livez", rm.health.LivenessHandler())
	router.GET("/readyz", rm.health.ReadinessHandler())
	router.GET("/metrics", rm.metrics.MetricsHandler())
	router.GET("/metrics/prometheus", rm.metrics.PrometheusHandler())

	router.Static("/assets", filepath.Join(ctx.Config.SiteDirectory, AssetsDirectory))

	router.NoRoute(rm.pageHandler)

	rm.router = router
	return nil
}

// Stop releases background resources
func (rm *RouterManager) Stop() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.limiter != nil {
		rm.limiter.Stop()
	}
}

// GetRouter returns the current router (thread-safe)
func (rm *RouterManager) GetRouter() *gin.Engine {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.router
}

func (rm *RouterManager) context() *Context {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.ctx
}

func (rm *RouterManager) pageHandler(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.AbortWithStatus(http.StatusMethodNotAllowed)
		return
	}

	content := rm.context().Content
	page, err := content.Lookup(c.Request.URL.Path)
	if err != nil {
		rm.notFound(c, content)
		return
	}

	if page.Metadata.RedirectUrl != "" {
		c.Redirect(http.StatusFound, page.Metadata.RedirectUrl)
		return
	}

	writePage(c, http.StatusOK, page)
}

func (rm *RouterManager) notFound(c *gin.Context, content *ContentManager) {
	if page, err := content.Lookup(NotFoundRoute); err == nil && page.Metadata.RedirectUrl == "" {
		writePage(c, http.StatusNotFound, page)
		return
	}
	c.Data(http.StatusNotFound, "text/plain; charset=utf-8", []byte("404 page not found"))
}

func writePage(c *gin.Context, status int, page *Page) {
	mimeType := page.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	c.Data(status, mimeType, page.Content)
}

func (rm *RouterManager) sitemapHandler(c *gin.Context) {
	RecordSitemapRequest()
	ctx := rm.context()
	doc := ctx.Content.Sitemap(ctx.SiteURL()).GenerateXML()
	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(doc))
}

func (rm *RouterManager) robotsHandler(c *gin.Context) {
	RecordSitemapRequest()
	ctx := rm.context()
	doc := ctx.Content.Sitemap(ctx.SiteURL()).GenerateRobotsTxt()
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(doc))
}

// ParseSearchRequest validates the q and limit query parameters
func ParseSearchRequest(query, limit string) (string, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", 0, NewValidationError("q", query, "query is required")
	}
	if len([]rune(query)) > MaxSearchQueryRunes {
		return "", 0, NewValidationError("q", query, "query is too long")
	}

	n := DefaultSearchLimit
	if limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil || parsed < 1 {
			return "", 0, NewValidationError("limit", limit, "limit must be a positive integer")
		}
		n = min(parsed, MaxSearchLimit)
	}
	return query, n, nil
}

func (rm *RouterManager) searchHandler(c *gin.Context) {
	RecordSearchQuery()

	searcher := rm.context().Search
	if searcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ErrSearchUnavailable.Error()})
		return
	}

	query, limit, err := ParseSearchRequest(c.Query("q"), c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hits, err := searcher.Search(query, limit)
	if err != nil {
		Error("search for %q failed: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	if hits == nil {
		hits = []SearchHit{}
	}

	c.JSON(http.StatusOK, gin.H{
		"query": query,
		"hits":  hits,
	})
}
