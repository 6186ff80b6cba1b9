package core

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// DefaultTestSiteYaml is the site.yaml written by NewTestSite
const DefaultTestSiteYaml = `server:
  port: 8080
  hostname: localhost
  base-url: https://example.dev
  title: Example Site
  description: An example site for tests
seo:
  author: Jane Doe
  twitter-site: examplesite
`

// TestSite builds a site directory on disk for tests
type TestSite struct {
	t   *testing.T
	Dir string
}

// NewTestSite creates a site in a temp directory with config/site.yaml and an empty content directory
func NewTestSite(t *testing.T) *TestSite {
	t.Helper()
	ts := &TestSite{t: t, Dir: t.TempDir()}
	ts.WriteFile("config/site.yaml", DefaultTestSiteYaml)
	ts.MkdirAll(ContentDirectory)
	return ts
}

// WriteFile creates (or overwrites) a file relative to the site directory
func (ts *TestSite) WriteFile(relPath, content string) string {
	ts.t.Helper()
	fullPath := filepath.Join(ts.Dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		ts.t.Fatalf("failed to create directory for %s: %v", fullPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		ts.t.Fatalf("failed to write %s: %v", fullPath, err)
	}
	return fullPath
}

// Remove deletes a file or directory relative to the site directory
func (ts *TestSite) Remove(relPath string) {
	ts.t.Helper()
	if err := os.RemoveAll(filepath.Join(ts.Dir, filepath.FromSlash(relPath))); err != nil {
		ts.t.Fatalf("failed to remove %s: %v", relPath, err)
	}
}

// MkdirAll creates a directory relative to the site directory
func (ts *TestSite) MkdirAll(relPath string) string {
	ts.t.Helper()
	fullPath := filepath.Join(ts.Dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		ts.t.Fatalf("failed to create %s: %v", fullPath, err)
	}
	return fullPath
}

// Context reads the site's configuration into a fresh Context
func (ts *TestSite) Context() *Context {
	ts.t.Helper()
	ctx := &Context{Config: NewDefaultConfig()}
	ctx.Config.SiteDirectory = ts.Dir
	if err := InitializeContext(ctx); err != nil {
		ts.t.Fatalf("failed to initialize context: %v", err)
	}
	return ctx
}

// MockPlugin is a configurable plugin for tests
type MockPlugin struct {
	mu             sync.Mutex
	name           string
	priority       int
	canProcessFunc func(page *Page) bool
	processFunc    func(ctx *PluginContext) *PluginResult
	processed      []string
	resets         int
	committed      [][]string
}

// NewMockPlugin creates a plugin that accepts every page and returns a successful empty result
func NewMockPlugin(name string, priority int) *MockPlugin {
	return &MockPlugin{
		name:           name,
		priority:       priority,
		canProcessFunc: func(*Page) bool { return true },
		processFunc: func(ctx *PluginContext) *PluginResult {
			return &PluginResult{Success: true}
		},
	}
}

func (mp *MockPlugin) WithProcessFunc(fn func(ctx *PluginContext) *PluginResult) *MockPlugin {
	mp.processFunc = fn
	return mp
}

func (mp *MockPlugin) WithCanProcessFunc(fn func(page *Page) bool) *MockPlugin {
	mp.canProcessFunc = fn
	return mp
}

func (mp *MockPlugin) Name() string {
	return mp.name
}

func (mp *MockPlugin) Priority() int {
	return mp.priority
}

func (mp *MockPlugin) CanProcess(page *Page) bool {
	return mp.canProcessFunc(page)
}

func (mp *MockPlugin) Process(ctx *PluginContext) *PluginResult {
	mp.mu.Lock()
	mp.processed = append(mp.processed, ctx.Page.Path)
	mp.mu.Unlock()
	return mp.processFunc(ctx)
}

func (mp *MockPlugin) Reset() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.resets++
	return nil
}

func (mp *MockPlugin) Commit(pages []*Page) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	paths := make([]string, 0, len(pages))
	for _, p := range pages {
		paths = append(paths, p.Path)
	}
	mp.committed = append(mp.committed, paths)
	return nil
}

// Committed returns the page paths of every Commit call
func (mp *MockPlugin) Committed() [][]string {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return append([][]string(nil), mp.committed...)
}

// Processed returns the paths processed so far, in order
func (mp *MockPlugin) Processed() []string {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return append([]string(nil), mp.processed...)
}

// Resets returns how often Reset was called
func (mp *MockPlugin) Resets() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.resets
}

// HTMLTestPlugin renders a page by copying its file content, with routes from PageRoutes
func HTMLTestPlugin() *MockPlugin {
	return NewMockPlugin("test/html", 100).WithProcessFunc(func(ctx *PluginContext) *PluginResult {
		body := ctx.Page.ReadFile(ctx.SiteDirectory)
		if body == nil {
			return &PluginResult{Success: false}
		}
		return &PluginResult{
			Success:    true,
			Modified:   true,
			NewContent: body,
			MimeType:   "text/html; charset=utf-8",
			Routes:     PageRoutes(ctx.Page),
		}
	})
}
