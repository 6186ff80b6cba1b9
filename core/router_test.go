package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Set gin to test mode to reduce noise in tests
	gin.SetMode(gin.TestMode)
	SetGlobalLogger(NewNopLogger())
}

type fakeSearcher struct {
	hits  []SearchHit
	err   error
	query string
	limit int
}

func (f *fakeSearcher) Search(query string, limit int) ([]SearchHit, error) {
	f.query, f.limit = query, limit
	return f.hits, f.err
}

func createTestRouter(t *testing.T, site *TestSite) (*RouterManager, *Context) {
	t.Helper()
	ctx := site.Context()
	ctx.Content.GetPluginManager().RegisterPlugin(HTMLTestPlugin())
	ctx.Content.GetPluginManager().RegisterPlugin(NewMockPlugin("redirects", 200).WithProcessFunc(func(pc *PluginContext) *PluginResult {
		if pc.Page.Name == "old.html" {
			pc.Page.Metadata.RedirectUrl = "/about"
		}
		return &PluginResult{Success: true}
	}))
	require.NoError(t, ctx.Content.Reload())

	rm := NewRouterManager()
	require.NoError(t, rm.InitializeRouter(ctx))
	t.Cleanup(rm.Stop)
	return rm, ctx
}

func newSite(t *testing.T) *TestSite {
	site := NewTestSite(t)
	site.WriteFile("content/index.html", "<h1>Home</h1>")
	site.WriteFile("content/about.html", "<h1>About</h1>")
	site.WriteFile("content/old.html", "moved")
	site.WriteFile("content/blog/hello.html", "<h1>Hello</h1>")
	site.WriteFile("assets/test.css", "body { color: red; }")
	return site
}

func get(rm *RouterManager, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rm.GetRouter().ServeHTTP(w, req)
	return w
}

func TestInitializeRouterRequiresContent(t *testing.T) {
	rm := NewRouterManager()
	assert.Error(t, rm.InitializeRouter(nil))
	assert.Error(t, rm.InitializeRouter(&Context{}))
}

func TestServePages(t *testing.T) {
	rm, _ := createTestRouter(t, newSite(t))

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/", http.StatusOK, "<h1>Home</h1>"},
		{"/index.html", http.StatusOK, "<h1>Home</h1>"},
		{"/about", http.StatusOK, "<h1>About</h1>"},
		{"/about/", http.StatusOK, "<h1>About</h1>"},
		{"/about.html", http.StatusOK, "<h1>About</h1>"},
		{"/blog/hello", http.StatusOK, "<h1>Hello</h1>"},
		{"/missing", http.StatusNotFound, "404 page not found"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(rm, tt.path)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}

	w := get(rm, "/about")
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestServeCustomNotFoundPage(t *testing.T) {
	site := newSite(t)
	site.WriteFile("content/404.html", "<h1>Lost?</h1>")
	rm, _ := createTestRouter(t, site)

	w := get(rm, "/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "<h1>Lost?</h1>", w.Body.String())
}

func TestServeRedirect(t *testing.T) {
	rm, _ := createTestRouter(t, newSite(t))

	w := get(rm, "/old")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/about", w.Header().Get("Location"))
}

func TestServeRejectsOtherMethods(t *testing.T) {
	rm, _ := createTestRouter(t, newSite(t))

	w := httptest.NewRecorder()
	rm.GetRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/about", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServeAssets(t *testing.T) {
	rm, _ := createTestRouter(t, newSite(t))

	w := get(rm, "/assets/test.css")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "color: red")
}

func TestRequestIDIsPropagated(t *testing.T) {
	rm, _ := createTestRouter(t, newSite(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rm.GetRouter().ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestServeSitemapAndRobots(t *testing.T) {
	rm, _ := createTestRouter(t, newSite(t))

	w := get(rm, "/sitemap.xml")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/xml; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, body, "<loc>https://example.dev</loc>")
	assert.Contains(t, body, "<loc>https://example.dev/blog/hello</loc>")

	w = get(rm, "/robots.txt")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sitemap: https://example.dev/sitemap.xml")
}

func TestSearchEndpoint(t *testing.T) {
	rm, ctx := createTestRouter(t, newSite(t))

	w := get(rm, "/search?q=hello")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	searcher := &fakeSearcher{hits: []SearchHit{{Route: "/blog/hello", Title: "Hello", Score: 1.5}}}
	ctx.Search = searcher

	w = get(rm, "/search?q=hello&limit=500")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", searcher.query)
	assert.Equal(t, MaxSearchLimit, searcher.limit)

	var response struct {
		Query string      `json:"query"`
		Hits  []SearchHit `json:"hits"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "hello", response.Query)
	assert.Equal(t, searcher.hits, response.Hits)

	assert.Equal(t, http.StatusBadRequest, get(rm, "/search?q=").Code)
	assert.Equal(t, http.StatusBadRequest, get(rm, "/search?q=x&limit=abc").Code)

	searcher.hits = nil
	w = get(rm, "/search?q=nothing")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"hits":[]`)

	searcher.err = errors.New("index closed")
	assert.Equal(t, http.StatusInternalServerError, get(rm, "/search?q=x").Code)
}

func TestParseSearchRequest(t *testing.T) {
	q, n, err := ParseSearchRequest("  go  ", "")
	require.NoError(t, err)
	assert.Equal(t, "go", q)
	assert.Equal(t, DefaultSearchLimit, n)

	_, n, err = ParseSearchRequest("go", "3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, _, err = ParseSearchRequest("go", "0")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = ParseSearchRequest(strings.Repeat("x", MaxSearchQueryRunes+1), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHealthEndpoints(t *testing.T) {
	rm, _ := createTestRouter(t, newSite(t))

	assert.Equal(t, http.StatusOK, get(rm, "/livez").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(rm, "/readyz").Code, "not ready before the first check run")

	w := get(rm, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"content"`)

	assert.Equal(t, http.StatusOK, get(rm, "/readyz").Code)
}

func TestMetricsEndpoints(t *testing.T) {
	rm, _ := createTestRouter(t, newSite(t))
	get(rm, "/about")

	w := get(rm, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	w = get(rm, "/metrics/prometheus")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# TYPE pages_total gauge")
	assert.Contains(t, w.Body.String(), `reload_duration_ms_bucket{le="+Inf"}`)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	defer rl.Stop()

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "clients are limited independently")

	rl.Stop()
	rl.Stop()
}
