package core

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"folio/seo"
	"folio/sitemap"
)

// Section is the part of the site a page belongs to, derived from its directory
type Section string

const (
	SectionPage      Section = "page"
	SectionBlog      Section = "blog"
	SectionPortfolio Section = "portfolio"
)

// PageMetadata is the front matter of a content file
type PageMetadata struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Author       string   `yaml:"author"`
	Keywords     []string `yaml:"keywords"`
	Tags         []string `yaml:"tags"`
	Image        string   `yaml:"image"`
	Type         string   `yaml:"type"`
	Section      string   `yaml:"section"`
	Slug         string   `yaml:"slug"`
	ID           string   `yaml:"id"`
	CreatedAt    string   `yaml:"created-at"`
	UpdatedAt    string   `yaml:"updated-at"`
	Canonical    string   `yaml:"canonical"`
	Robots       string   `yaml:"robots"`
	TwitterCard  string   `yaml:"twitter-card"`
	CssFile      string   `yaml:"css-file"`
	MimeType     string   `yaml:"mime-type"`
	RedirectUrl  string   `yaml:"redirect-url"`
	IgnoreLayout bool     `yaml:"ignore-layout"`
	Draft        bool     `yaml:"draft"`
}

// Page is one content file after it went through the plugin pipeline
type Page struct {
	Name    string
	Path    string // relative to Config.SiteDirectory, slash separated
	Section Section
	Routes  []string // canonical route first
	ModTime time.Time

	Content  []byte // final response body
	Body     []byte // rendered body before the layout is applied
	Text     string // plain text used for descriptions, keywords and search
	MimeType string

	Metadata PageMetadata
	Meta     seo.MetaTags
}

// NewPage creates a page for a file below the site directory
func NewPage(relPath string, modTime time.Time) *Page {
	relPath = filepath.ToSlash(filepath.Clean(relPath))
	return &Page{
		Name:    path.Base(relPath),
		Path:    relPath,
		Section: sectionOf(relPath),
		ModTime: modTime,
	}
}

func sectionOf(relPath string) Section {
	rest := strings.TrimPrefix(relPath, "content/")
	switch {
	case strings.HasPrefix(rest, "blog/"):
		return SectionBlog
	case strings.HasPrefix(rest, "portfolio/"):
		return SectionPortfolio
	default:
		return SectionPage
	}
}

// Read the file data from disk, or nil in case of error
func (p *Page) ReadFile(siteDirectory string) []byte {
	full := filepath.Join(siteDirectory, filepath.FromSlash(p.Path))
	body, err := os.ReadFile(full)
	if err != nil {
		Warn("failed to read file %s: %v", full, err)
		return nil
	}
	return body
}

// Route returns the canonical route, or "" before routes are assigned
func (p *Page) Route() string {
	if len(p.Routes) == 0 {
		return ""
	}
	return p.Routes[0]
}

// Slug is the front matter slug, or the file name without its extension
func (p *Page) Slug() string {
	if p.Metadata.Slug != "" {
		return p.Metadata.Slug
	}
	return strings.TrimSuffix(p.Name, path.Ext(p.Name))
}

// Key identifies a portfolio project in its route: slug, then id, then file name
func (p *Page) Key() string {
	if p.Metadata.Slug != "" {
		return p.Metadata.Slug
	}
	if p.Metadata.ID != "" {
		return p.Metadata.ID
	}
	return p.Slug()
}

// Title is the front matter title, or the slug when none is set
func (p *Page) Title() string {
	if p.Metadata.Title != "" {
		return p.Metadata.Title
	}
	return p.Slug()
}

// Published is the creation date used to order posts and projects
func (p *Page) Published() time.Time {
	if t := ParseContentDate(p.Metadata.CreatedAt); !t.IsZero() {
		return t
	}
	return p.ModTime
}

// Updated is the last modification date: updated-at, created-at, then the file's mtime
func (p *Page) Updated() time.Time {
	if t := ParseContentDate(p.Metadata.UpdatedAt); !t.IsZero() {
		return t
	}
	return p.Published()
}

// SitemapPost converts a blog post for the sitemap builder
func (p *Page) SitemapPost() sitemap.Post {
	return sitemap.Post{Slug: p.Slug(), UpdatedAt: p.Metadata.UpdatedAt, CreatedAt: p.Metadata.CreatedAt}
}

// SitemapProject converts a portfolio project for the sitemap builder
func (p *Page) SitemapProject() sitemap.Project {
	return sitemap.Project{Slug: p.Metadata.Slug, ID: p.Key(), UpdatedAt: p.Metadata.UpdatedAt, CreatedAt: p.Metadata.CreatedAt}
}

// ParseContentDate accepts RFC3339 and a few plain date layouts. Unknown input gives the zero time.
func ParseContentDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z07:00",
		"2006-01-02",
		"2006/01/02",
		"2006-1-2",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// PageRoutes computes the routes of a page, canonical route first.
//
// Blog posts live at /blog/<slug> and portfolio projects at /portfolio/<key>.
// Other HTML pages are reachable without their extension and with ".html"
// ("content/about.md" gives "/about" and "/about.html"); index files map to their
// directory. Any other file keeps its path.
func PageRoutes(p *Page) []string {
	switch p.Section {
	case SectionBlog:
		return []string{"/blog/" + p.Slug()}
	case SectionPortfolio:
		return []string{"/portfolio/" + p.Key()}
	}

	route := path.Clean("/" + strings.TrimPrefix(p.Path, "content/"))
	ext := strings.ToLower(path.Ext(route))
	if !isPageExtension(ext) {
		return []string{route}
	}

	bare := strings.TrimSuffix(route, path.Ext(route))
	if path.Base(bare) == "index" {
		return []string{path.Dir(bare), bare + ".html"}
	}
	return []string{bare, bare + ".html"}
}

func isPageExtension(ext string) bool {
	switch ext {
	case ".md", ".markdown", ".html", ".htm":
		return true
	}
	return false
}
