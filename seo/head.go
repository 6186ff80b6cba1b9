package seo

import (
	"html/template"
	"strings"
)

// HeadTag is one element of the document head.
type HeadTag struct {
	Element string // "meta" or "link"
	Attr    string // "name", "property" or "rel"
	Key     string
	Value   string
}

// Tags lists the head elements in render order. Absent values produce no element;
// every article tag becomes its own article:tag element.
func (m MetaTags) Tags() []HeadTag {
	var tags []HeadTag
	meta := func(attr, key, value string) {
		if value != "" {
			tags = append(tags, HeadTag{Element: "meta", Attr: attr, Key: key, Value: value})
		}
	}
	link := func(rel, href string) {
		if href != "" {
			tags = append(tags, HeadTag{Element: "link", Attr: "rel", Key: rel, Value: href})
		}
	}

	meta("name", "description", m.Description)
	meta("name", "keywords", m.Keywords)
	meta("name", "author", m.Author)
	meta("name", "robots", m.Robots)
	meta("name", "viewport", m.Viewport)
	link("canonical", m.Canonical)

	meta("property", "og:title", m.OGTitle)
	meta("property", "og:description", m.OGDescription)
	meta("property", "og:image", m.OGImage)
	meta("property", "og:url", m.OGURL)
	meta("property", "og:type", string(m.OGType))
	meta("property", "og:site_name", m.OGSiteName)
	meta("property", "og:locale", m.OGLocale)

	meta("name", "twitter:card", string(m.TwitterCard))
	meta("name", "twitter:title", m.TwitterTitle)
	meta("name", "twitter:description", m.TwitterDescription)
	meta("name", "twitter:image", m.TwitterImage)
	meta("name", "twitter:site", m.TwitterSite)
	meta("name", "twitter:creator", m.TwitterCreator)

	meta("property", "article:published_time", m.ArticlePublishedTime)
	meta("property", "article:modified_time", m.ArticleModifiedTime)
	meta("property", "article:author", m.ArticleAuthor)
	meta("property", "article:section", m.ArticleSection)
	for _, t := range m.ArticleTags {
		meta("property", "article:tag", t)
	}

	meta("name", "theme-color", m.ThemeColor)
	link("manifest", m.Manifest)
	link("icon", m.Favicon)
	link("apple-touch-icon", m.AppleTouchIcon)
	return tags
}

var headTemplate = template.Must(template.New("head").Parse(
	`<title>{{.Title}}</title>
{{range .Tags}}{{if eq .Element "link"}}<link rel="{{.Key}}" href="{{.Value}}">
{{else if eq .Attr "property"}}<meta property="{{.Key}}" content="{{.Value}}">
{{else}}<meta name="{{.Key}}" content="{{.Value}}">
{{end}}{{end}}{{with .StructuredData}}<script type="application/ld+json">{{.}}</script>
{{end}}`))

// RenderHead renders the resolved tags as HTML head elements.
func RenderHead(m MetaTags) template.HTML {
	var sb strings.Builder
	data := struct {
		Title          string
		Tags           []HeadTag
		StructuredData map[string]any
	}{m.Title, m.Tags(), m.StructuredData}
	if err := headTemplate.Execute(&sb, data); err != nil {
		return ""
	}
	return template.HTML(sb.String())
}
