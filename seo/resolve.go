package seo

import (
	"regexp"
	"strings"
)

// MetaTags is the fully resolved head of a page. Empty strings mean "absent": the
// renderer skips them, so no placeholder value ever reaches the document.
type MetaTags struct {
	Title       string
	Description string
	Keywords    string
	Author      string
	Robots      string
	Viewport    string
	Canonical   string

	OGTitle       string
	OGDescription string
	OGImage       string
	OGURL         string
	OGType        PageType
	OGSiteName    string
	OGLocale      string

	TwitterCard        TwitterCard
	TwitterTitle       string
	TwitterDescription string
	TwitterImage       string
	TwitterSite        string
	TwitterCreator     string

	// Article fields are only set when OGType is article.
	ArticlePublishedTime string
	ArticleModifiedTime  string
	ArticleAuthor        string
	ArticleSection       string
	ArticleTags          []string

	ThemeColor     string
	Manifest       string
	Favicon        string
	AppleTouchIcon string

	// StructuredData is the JSON-LD object for the page, nil when none applies.
	StructuredData map[string]any
}

// Resolver resolves page configs against a set of site-wide defaults.
type Resolver struct {
	Defaults Config
}

// NewResolver returns a Resolver whose defaults sit between the built-in defaults
// and each page's own config.
func NewResolver(defaults Config) *Resolver {
	return &Resolver{Defaults: defaults}
}

// Resolve resolves cfg using only the built-in defaults.
func Resolve(cfg Config, currentURL string) MetaTags {
	return resolve(builtinDefaults(), cfg, currentURL)
}

// Resolve merges cfg over the resolver defaults and resolves the result. currentURL is
// the absolute URL of the page being rendered; it is used when cfg has no url/canonical.
func (r *Resolver) Resolve(cfg Config, currentURL string) MetaTags {
	base := builtinDefaults()
	if r != nil {
		site := r.Defaults
		// The site level never decides the page type.
		site.Type = ""
		base = merge(base, site)
	}
	return resolve(base, cfg, currentURL)
}

func resolve(base, page Config, currentURL string) MetaTags {
	cfg := merge(base, page)

	canonical := firstNonEmpty(cfg.Canonical, cfg.URL, currentURL)

	m := MetaTags{
		Title:       cfg.Title,
		Description: cfg.Description,
		Author:      cfg.Author,
		Robots:      cfg.Robots,
		Viewport:    DefaultViewport,
		Canonical:   canonical,

		OGTitle:       cfg.Title,
		OGDescription: cfg.Description,
		OGImage:       cfg.Image,
		OGURL:         canonical,
		OGType:        cfg.Type,
		OGSiteName:    cfg.SiteName,
		OGLocale:      cfg.Locale,

		TwitterCard:        cfg.TwitterCard,
		TwitterTitle:       cfg.Title,
		TwitterDescription: cfg.Description,
		TwitterImage:       cfg.Image,
		TwitterSite:        cfg.TwitterSite,
		TwitterCreator:     NormalizeTwitterHandle(cfg.TwitterCreator),

		ThemeColor:     cfg.ThemeColor,
		Manifest:       cfg.Manifest,
		Favicon:        cfg.Favicon,
		AppleTouchIcon: cfg.AppleTouchIcon,
	}
	if kw := nonEmpty(cfg.Keywords); len(kw) > 0 {
		m.Keywords = strings.Join(kw, ", ")
	}

	if m.OGType == TypeArticle {
		m.ArticlePublishedTime = cfg.PublishedTime
		m.ArticleModifiedTime = cfg.ModifiedTime
		m.ArticleAuthor = cfg.Author
		m.ArticleSection = cfg.Section
		if len(cfg.Tags) > 0 {
			m.ArticleTags = append([]string(nil), cfg.Tags...)
		}
	}

	m.StructuredData = structuredData(m, page)
	return m
}

// structuredData picks the JSON-LD block. The website variant is only emitted when the
// page itself asked for it, not when the type was defaulted.
func structuredData(m MetaTags, page Config) map[string]any {
	switch {
	case m.OGType == TypeProfile:
		return Person(m.Author, jobTitle(page.Description), m.OGURL, m.OGImage, m.OGSiteName, twitterProfileURL(m.TwitterCreator))
	case m.OGType == TypeArticle:
		return BlogPosting(BlogPostingInfo{
			Headline:      m.Title,
			Description:   m.Description,
			Image:         m.OGImage,
			AuthorName:    m.ArticleAuthor,
			PublisherName: m.OGSiteName,
			PublisherLogo: m.AppleTouchIcon,
			DatePublished: m.ArticlePublishedTime,
			DateModified:  m.ArticleModifiedTime,
			URL:           m.OGURL,
		})
	case page.Type == TypeWebsite:
		return WebSite(m.OGSiteName, m.OGURL, m.Description)
	}
	return nil
}

// jobTitle takes the part after the first " - " of a profile description,
// e.g. "Jane Doe - Backend Engineer".
func jobTitle(description string) string {
	parts := strings.Split(description, " - ")
	if len(parts) > 1 && parts[1] != "" {
		return parts[1]
	}
	return DefaultJobTitle
}

var twitterURLPrefix = regexp.MustCompile(`^https?://(www\.)?(twitter|x)\.com/`)

// NormalizeTwitterHandle turns "foo", "@foo" or "https://twitter.com/foo" into "@foo".
// An empty input stays empty.
func NormalizeTwitterHandle(handle string) string {
	h := strings.TrimSpace(handle)
	h = twitterURLPrefix.ReplaceAllString(h, "")
	h = strings.TrimRight(h, "/")
	h = strings.TrimLeft(h, "@")
	if h == "" {
		return ""
	}
	return "@" + h
}

func twitterProfileURL(handle string) string {
	if handle == "" {
		return ""
	}
	return "https://twitter.com/" + strings.TrimPrefix(handle, "@")
}

// Map flattens the string-valued tags, keyed by their conventional camelCase names.
// Absent values are left out. Article tags are repeated elements and are not included.
func (m MetaTags) Map() map[string]string {
	out := make(map[string]string, 32)
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	put("title", m.Title)
	put("description", m.Description)
	put("keywords", m.Keywords)
	put("author", m.Author)
	put("robots", m.Robots)
	put("viewport", m.Viewport)
	put("canonical", m.Canonical)
	put("ogTitle", m.OGTitle)
	put("ogDescription", m.OGDescription)
	put("ogImage", m.OGImage)
	put("ogUrl", m.OGURL)
	put("ogType", string(m.OGType))
	put("ogSiteName", m.OGSiteName)
	put("ogLocale", m.OGLocale)
	put("twitterCard", string(m.TwitterCard))
	put("twitterTitle", m.TwitterTitle)
	put("twitterDescription", m.TwitterDescription)
	put("twitterImage", m.TwitterImage)
	put("twitterSite", m.TwitterSite)
	put("twitterCreator", m.TwitterCreator)
	put("articlePublishedTime", m.ArticlePublishedTime)
	put("articleModifiedTime", m.ArticleModifiedTime)
	put("articleAuthor", m.ArticleAuthor)
	put("articleSection", m.ArticleSection)
	put("themeColor", m.ThemeColor)
	put("manifest", m.Manifest)
	put("favicon", m.Favicon)
	put("appleTouchIcon", m.AppleTouchIcon)
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
