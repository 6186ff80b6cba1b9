package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"folio/sitemap"
)

// Site directories, relative to Config.SiteDirectory
const (
	ContentDirectory = "content"
	LayoutDirectory  = "layout"
	AssetsDirectory  = "assets"
	ConfigDirectory  = "config"
)

// ContentManager loads the site's pages, runs them through the plugin pipeline
// and serves lookups by route. A reload builds a new page set and swaps it in atomically.
type ContentManager struct {
	mu            sync.RWMutex
	SiteDirectory string
	pluginManager *PluginManager

	pages    []*Page
	routes   map[string]*Page
	layouts  map[string][]byte
	loadedAt time.Time

	reloadMu sync.Mutex // serialises reloads
}

// NewContentManager creates an empty content manager for a site directory
func NewContentManager(siteDirectory string) *ContentManager {
	return &ContentManager{
		SiteDirectory: siteDirectory,
		pluginManager: NewPluginManager(),
		routes:        make(map[string]*Page),
		layouts:       make(map[string][]byte),
	}
}

// Returns the plugin manager
func (cm *ContentManager) GetPluginManager() *PluginManager {
	return cm.pluginManager
}

// Reload reads layouts and content from disk and replaces the current page set.
// Pages that fail to process are logged and left out; the previous page set stays
// in place when the content directory cannot be read or a plugin fails to commit.
func (cm *ContentManager) Reload() error {
	cm.reloadMu.Lock()
	defer cm.reloadMu.Unlock()

	start := time.Now()

	layouts, err := cm.readLayouts()
	if err != nil {
		return err
	}
	cm.mu.Lock()
	cm.layouts = layouts
	cm.mu.Unlock()

	candidates, err := cm.collectPages()
	if err != nil {
		return err
	}

	if err := cm.pluginManager.Reset(); err != nil {
		return err
	}

	pages := make([]*Page, 0, len(candidates))
	routes := make(map[string]*Page)

	for _, candidate := range candidates {
		if len(cm.pluginManager.GetPluginsForPage(candidate)) == 0 {
			Debug("no plugin for %s, skipping", candidate.Path)
			continue
		}

		page, err := cm.pluginManager.Process(*candidate, cm)
		if err != nil {
			Error("failed to process %s: %v", candidate.Path, err)
			RecordPluginError()
			continue
		}
		RecordPageProcessed()

		if page.Metadata.Draft {
			Debug("skipping draft %s", page.Path)
			continue
		}

		if len(page.Routes) == 0 {
			page.Routes = PageRoutes(page)
		}

		for _, route := range page.Routes {
			normalized, err := normalizeRoute(route)
			if err != nil {
				Warn("invalid route %q for %s: %v", route, page.Path, err)
				continue
			}
			if other, taken := routes[normalized]; taken {
				Warn("%v: %s is served by %s, ignoring it for %s", ErrDuplicateRoute, normalized, other.Path, page.Path)
				continue
			}
			routes[normalized] = page
		}

		pages = append(pages, page)
	}

	if err := cm.pluginManager.Commit(pages); err != nil {
		return err
	}

	cm.mu.Lock()
	cm.pages = pages
	cm.routes = routes
	cm.loadedAt = time.Now()
	cm.mu.Unlock()

	elapsed := time.Since(start)
	RecordReload(elapsed, len(pages))
	Info("loaded %d pages (%d routes) from %s in %s", len(pages), len(routes), cm.SiteDirectory, elapsed)
	return nil
}

func (cm *ContentManager) readLayouts() (map[string][]byte, error) {
	layouts := make(map[string][]byte)
	root := filepath.Join(cm.SiteDirectory, LayoutDirectory)

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == root {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if p != root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		layouts[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		return nil, NewContentError("read layouts", root, err)
	}
	return layouts, nil
}

func (cm *ContentManager) collectPages() ([]*Page, error) {
	root := filepath.Join(cm.SiteDirectory, ContentDirectory)
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, NewContentError("walk", root, ErrDirectoryNotFound)
	}

	var pages []*Page
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(cm.SiteDirectory, p)
		if err != nil {
			return err
		}
		pages = append(pages, NewPage(rel, info.ModTime()))
		return nil
	})
	if err != nil {
		return nil, NewContentError("walk", root, err)
	}
	return pages, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// ensures the route starts with / and has no double slashes
func normalizeRoute(route string) (string, error) {
	if route == "" {
		return "", errors.New("route cannot be empty")
	}
	if strings.ContainsAny(route, "?#") {
		return "", fmt.Errorf("route must not contain a query or fragment: %s", route)
	}
	return path.Clean("/" + strings.TrimPrefix(route, "/")), nil
}

// Lookup returns the page served at route
func (cm *ContentManager) Lookup(route string) (*Page, error) {
	normalized, err := normalizeRoute(route)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageNotFound, err)
	}

	cm.mu.RLock()
	defer cm.mu.RUnlock()

	page, ok := cm.routes[normalized]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, normalized)
	}
	return page, nil
}

// Pages returns every published page in walk order
func (cm *ContentManager) Pages() []*Page {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return append([]*Page(nil), cm.pages...)
}

// Routes returns all registered routes, sorted
func (cm *ContentManager) Routes() []string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	routes := make([]string, 0, len(cm.routes))
	for route := range cm.routes {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	return routes
}

// BlogPosts returns the blog section, newest first
func (cm *ContentManager) BlogPosts() []*Page {
	return cm.section(SectionBlog)
}

// Projects returns the portfolio section, newest first
func (cm *ContentManager) Projects() []*Page {
	return cm.section(SectionPortfolio)
}

func (cm *ContentManager) section(section Section) []*Page {
	return SectionPages(cm.Pages(), section)
}

// SectionPages filters pages by section, newest first
func SectionPages(pages []*Page, section Section) []*Page {
	var out []*Page
	for _, page := range pages {
		if page.Section == section {
			out = append(out, page)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Published().After(out[j].Published())
	})
	return out
}

// Layout returns a file of the layout directory, e.g. "header.html"
func (cm *ContentManager) Layout(name string) ([]byte, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	data, ok := cm.layouts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, name)
	}
	return data, nil
}

// LoadedAt is the time of the last successful reload
func (cm *ContentManager) LoadedAt() time.Time {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.loadedAt
}

// Sitemap builds the sitemap of the current page set: the static pages, then every
// blog post and portfolio project.
func (cm *ContentManager) Sitemap(baseURL string, opts ...sitemap.Option) *sitemap.Builder {
	posts := cm.BlogPosts()
	projects := cm.Projects()

	sitemapPosts := make([]sitemap.Post, 0, len(posts))
	for _, p := range posts {
		sitemapPosts = append(sitemapPosts, p.SitemapPost())
	}
	sitemapProjects := make([]sitemap.Project, 0, len(projects))
	for _, p := range projects {
		sitemapProjects = append(sitemapProjects, p.SitemapProject())
	}

	return sitemap.NewBuilder(baseURL, opts...).
		AddStaticPages().
		AddBlogPosts(sitemapPosts).
		AddPortfolioProjects(sitemapProjects)
}
