// Package sitemap builds the sitemap.xml and robots.txt of the site.
package sitemap

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ChangeFrequency is the sitemap <changefreq> value.
type ChangeFrequency string

const (
	Always  ChangeFrequency = "always"
	Hourly  ChangeFrequency = "hourly"
	Daily   ChangeFrequency = "daily"
	Weekly  ChangeFrequency = "weekly"
	Monthly ChangeFrequency = "monthly"
	Yearly  ChangeFrequency = "yearly"
	Never   ChangeFrequency = "never"
)

// Namespace is the sitemap protocol namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// TimeLayout matches JavaScript's Date.toISOString.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// URL is one sitemap entry. Empty LastModified/ChangeFrequency and a zero Priority are
// treated as absent when serialising.
type URL struct {
	Loc             string          `validate:"required"`
	LastModified    string
	ChangeFrequency ChangeFrequency `validate:"omitempty,oneof=always hourly daily weekly monthly yearly never"`
	Priority        float64         `validate:"gte=0,lte=1"`
}

var validate = validator.New()

// Validate checks the change frequency and priority range.
func (u URL) Validate() error {
	return validate.Struct(u)
}

// Post is the part of a blog post the sitemap needs.
type Post struct {
	Slug      string
	UpdatedAt string
	CreatedAt string
}

// Project is the part of a portfolio project the sitemap needs.
type Project struct {
	Slug      string
	ID        string
	UpdatedAt string
	CreatedAt string
}

// Builder accumulates sitemap entries in insertion order. It is not safe for
// concurrent use.
type Builder struct {
	baseURL string
	now     func() time.Time
	urls    []URL
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock replaces time.Now as the source of "now" timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBuilder creates a builder for baseURL. One trailing slash is stripped.
func NewBuilder(baseURL string, opts ...Option) *Builder {
	b := &Builder{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BaseURL returns the normalised base URL.
func (b *Builder) BaseURL() string {
	return b.baseURL
}

func (b *Builder) timestamp() string {
	return FormatTime(b.now())
}

// FormatTime renders t the way sitemap timestamps are written.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

type staticPage struct {
	path     string
	freq     ChangeFrequency
	priority float64
}

var staticPages = []staticPage{
	{"", Weekly, 1.0},
	{"/about", Monthly, 0.8},
	{"/portfolio", Weekly, 0.9},
	{"/blog", Daily, 0.8},
	{"/contact", Monthly, 0.7},
}

// StaticPaths lists the fixed public paths of the site.
func StaticPaths() []string {
	paths := make([]string, 0, len(staticPages))
	for _, p := range staticPages {
		if p.path == "" {
			paths = append(paths, "/")
			continue
		}
		paths = append(paths, p.path)
	}
	return paths
}

// AddStaticPages appends the home, about, portfolio, blog and contact pages.
func (b *Builder) AddStaticPages() *Builder {
	now := b.timestamp()
	for _, p := range staticPages {
		b.urls = append(b.urls, URL{
			Loc:             b.baseURL + p.path,
			LastModified:    now,
			ChangeFrequency: p.freq,
			Priority:        p.priority,
		})
	}
	return b
}

// AddBlogPosts appends one entry per post, in order.
func (b *Builder) AddBlogPosts(posts []Post) *Builder {
	for _, p := range posts {
		b.urls = append(b.urls, URL{
			Loc:             b.baseURL + "/blog/" + p.Slug,
			LastModified:    b.lastModified(p.UpdatedAt, p.CreatedAt),
			ChangeFrequency: Monthly,
			Priority:        0.6,
		})
	}
	return b
}

// AddPortfolioProjects appends one entry per project, in order. The slug is used
// when present, the id otherwise.
func (b *Builder) AddPortfolioProjects(projects []Project) *Builder {
	for _, p := range projects {
		key := p.Slug
		if key == "" {
			key = p.ID
		}
		b.urls = append(b.urls, URL{
			Loc:             b.baseURL + "/portfolio/" + key,
			LastModified:    b.lastModified(p.UpdatedAt, p.CreatedAt),
			ChangeFrequency: Monthly,
			Priority:        0.7,
		})
	}
	return b
}

func (b *Builder) lastModified(updated, created string) string {
	if updated != "" {
		return updated
	}
	if created != "" {
		return created
	}
	return b.timestamp()
}

// URLs returns a copy of the accumulated entries.
func (b *Builder) URLs() []URL {
	return append([]URL(nil), b.urls...)
}

// GenerateXML serialises every entry in accumulation order. Each <url> block always has
// three lines after <loc>; a line is left empty when its field is absent.
func (b *Builder) GenerateXML() string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<urlset xmlns="` + Namespace + `">`)
	for _, u := range b.urls {
		sb.WriteString("\n  <url>\n")
		sb.WriteString("    <loc>" + escape(u.Loc) + "</loc>\n")
		sb.WriteString("    ")
		if u.LastModified != "" {
			sb.WriteString("<lastmod>" + escape(u.LastModified) + "</lastmod>")
		}
		sb.WriteString("\n    ")
		if u.ChangeFrequency != "" {
			sb.WriteString("<changefreq>" + string(u.ChangeFrequency) + "</changefreq>")
		}
		sb.WriteString("\n    ")
		if u.Priority != 0 {
			sb.WriteString("<priority>" + strconv.FormatFloat(u.Priority, 'f', -1, 64) + "</priority>")
		}
		sb.WriteString("\n  </url>")
	}
	sb.WriteString("\n</urlset>")
	return sb.String()
}

func escape(s string) string {
	var sb strings.Builder
	if err := xml.EscapeText(&sb, []byte(s)); err != nil {
		return s
	}
	return sb.String()
}
