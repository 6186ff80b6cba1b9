package plugins

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/core"
	"folio/seo"
)

func init() {
	core.SetGlobalLogger(core.NewNopLogger())
}

const testAuthorsYaml = `authors:
  - name: jane
    fullname: Jane Doe
    job-title: Backend Engineer
    twitter: "https://twitter.com/jane"
    image: https://example.dev/jane.png
`

const testHeader = `<html><head>{{ .Head }}<style>{{ .HighlightCSS }}</style></head><body>
<nav>{{ range .Navigation }}<a href="{{ .Url }}"{{ if .IsActive }} class="active"{{ end }}>{{ .Title }}</a>{{ end }}</nav>
<main>`

const testFooter = `</main>
<ul class="posts">{{ range .Posts }}<li><a href="{{ .Route }}">{{ .Title }}</a></li>{{ end }}</ul>
<footer>{{ .SiteTitle }}{{ with .PageAuthor }} by {{ .DisplayName }}{{ end }}</footer>
</body></html>`

func newSite(t *testing.T) *core.TestSite {
	t.Helper()
	site := core.NewTestSite(t)
	site.WriteFile("config/authors.yaml", testAuthorsYaml)
	return site
}

func loadSite(t *testing.T, site *core.TestSite) *core.Context {
	t.Helper()
	ctx := site.Context()
	require.NoError(t, RegisterBuiltins(ctx))
	require.NoError(t, ctx.Content.Reload())
	t.Cleanup(func() {
		if s, ok := ctx.Search.(*BuiltinSearchPlugin); ok {
			s.Close()
		}
	})
	return ctx
}

func lookup(t *testing.T, ctx *core.Context, route string) *core.Page {
	t.Helper()
	page, err := ctx.Content.Lookup(route)
	require.NoError(t, err)
	return page
}

func document(t *testing.T, page *core.Page) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Content))
	require.NoError(t, err)
	return doc
}

func TestRegisterBuiltins(t *testing.T) {
	ctx := loadSite(t, newSite(t))

	assert.Equal(t, []string{
		"builtin/html (priority: 100)",
		"builtin/text (priority: 100)",
		"builtin/markdown (priority: 100)",
		"builtin/seo (priority: 200)",
		"builtin/layout (priority: 300)",
		"builtin/search (priority: 1000)",
	}, ctx.Content.GetPluginManager().ListPlugins())
	assert.NotNil(t, ctx.Search)

	assert.Error(t, RegisterBuiltins(&core.Context{}))
}

func TestRegisterBuiltinsWithoutSearch(t *testing.T) {
	site := newSite(t)
	site.WriteFile("config/site.yaml", core.DefaultTestSiteYaml+"plugins:\n  search:\n    enabled: \"false\"\n")

	ctx := loadSite(t, site)
	assert.Nil(t, ctx.Search)
	assert.Len(t, ctx.Content.GetPluginManager().ListPlugins(), 5)
}

func TestMarkdownPlugin(t *testing.T) {
	site := newSite(t)
	site.WriteFile("content/about.md", "---\n"+
		"title: About me\n"+
		"author: jane\n"+
		"tags: [go, web]\n"+
		"---\n"+
		"# Hello\n\n"+
		"Some *text*.\n\n"+
		"```go\nfunc main() {}\n```\n")

	ctx := loadSite(t, site)
	page := lookup(t, ctx, "/about")
	assert.Same(t, page, lookup(t, ctx, "/about.html"))

	content := string(page.Content)
	assert.Contains(t, content, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, content, "<em>text</em>")
	assert.Contains(t, content, `class="chroma"`)
	assert.NotContains(t, content, "title: About me")

	assert.Equal(t, HTMLMimeType, page.MimeType)
	assert.Equal(t, "About me", page.Metadata.Title)
	assert.Equal(t, []string{"go", "web"}, page.Metadata.Tags)
	assert.True(t, strings.HasPrefix(page.Text, "Hello Some text."))
}

func TestMarkdownRenderSanitizes(t *testing.T) {
	p := NewMarkdownPlugin("")

	html, err := p.Render([]byte("<script>alert(1)</script>\n\n[click](javascript:alert(1))\n\n<b onclick=\"x()\">bold</b>\n"))
	require.NoError(t, err)

	out := string(html)
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "javascript:")
	assert.NotContains(t, out, "onclick")
	assert.Contains(t, out, "click")
}

func TestMarkdownStyleSheet(t *testing.T) {
	css, err := NewMarkdownPlugin("dracula").StyleSheet()
	require.NoError(t, err)
	assert.Contains(t, css, ".chroma")

	// unknown styles fall back to chroma's default
	css, err = NewMarkdownPlugin("no-such-style").StyleSheet()
	require.NoError(t, err)
	assert.NotEmpty(t, css)
}

func TestHtmlPlugin(t *testing.T) {
	site := newSite(t)
	site.WriteFile("content/contact.html", "---\ntitle: Contact\n---\n<h1>Write   me</h1>\n<p>mail</p>")

	ctx := loadSite(t, site)
	page := lookup(t, ctx, "/contact")

	assert.Equal(t, "<h1>Write   me</h1>\n<p>mail</p>", string(page.Content))
	assert.Equal(t, "Write me mail", page.Text)
	assert.Equal(t, "Contact", page.Title())
	assert.Equal(t, "Contact", page.Meta.Title)
}

func TestTextPlugin(t *testing.T) {
	site := newSite(t)
	site.WriteFile("content/humans.txt", "Jane Doe\n")

	ctx := loadSite(t, site)
	page := lookup(t, ctx, "/humans.txt")

	assert.Equal(t, "Jane Doe\n", string(page.Content))
	assert.Equal(t, "text/plain; charset=utf-8", page.MimeType)
	assert.Empty(t, page.Meta.Title, "text files get no head tags")
}

func TestFrontMatterMimeType(t *testing.T) {
	site := newSite(t)
	site.WriteFile("content/feed.html", "---\nmime-type: application/rss+xml\n---\n<rss></rss>")

	ctx := loadSite(t, site)
	page := lookup(t, ctx, "/feed")
	assert.Equal(t, "application/rss+xml", page.MimeType)
	assert.Equal(t, "<rss></rss>", string(page.Content))
}

func TestSeoPluginBlogPost(t *testing.T) {
	site := newSite(t)
	site.WriteFile("content/blog/hello.md", "---\n"+
		"title: Hello Go\n"+
		"author: jane\n"+
		"created-at: 2024-01-02\n"+
		"tags: [go]\n"+
		"---\n"+
		"Golang golang golang channels channels goroutines.\n")

	ctx := loadSite(t, site)
	meta := lookup(t, ctx, "/blog/hello").Meta

	assert.Equal(t, "Hello Go", meta.Title)
	assert.Equal(t, "Golang golang golang channels channels goroutines.", meta.Description)
	assert.Equal(t, "golang, channels, goroutines", meta.Keywords)
	assert.Equal(t, seo.TypeArticle, meta.OGType)
	assert.Equal(t, "https://example.dev/blog/hello", meta.Canonical)
	assert.Equal(t, "Jane Doe", meta.Author)
	assert.Equal(t, "@jane", meta.TwitterCreator)
	assert.Equal(t, "2024-01-02T00:00:00.000Z", meta.ArticlePublishedTime)
	assert.Equal(t, "2024-01-02T00:00:00.000Z", meta.ArticleModifiedTime)
	assert.Equal(t, "Blog", meta.ArticleSection)
	assert.Equal(t, []string{"go"}, meta.ArticleTags)
	assert.Equal(t, "Example Site", meta.OGSiteName)
	require.NotNil(t, meta.StructuredData)
	assert.Equal(t, "BlogPosting", meta.StructuredData["@type"])
}

func TestSeoPluginHomeAndProfile(t *testing.T) {
	site := newSite(t)
	site.WriteFile("content/index.html", "<h1>Welcome</h1>")
	site.WriteFile("content/about.html", "---\n"+
		"title: Jane\n"+
		"description: Jane Doe - Backend Engineer\n"+
		"type: profile\n"+
		"author: jane\n"+
		"---\n<p>me</p>")
	site.WriteFile("content/contact.html", "<p>write me</p>")

	ctx := loadSite(t, site)

	home := lookup(t, ctx, "/").Meta
	assert.Equal(t, "https://example.dev", home.Canonical)
	require.NotNil(t, home.StructuredData)
	assert.Equal(t, "WebSite", home.StructuredData["@type"])

	profile := lookup(t, ctx, "/about").Meta
	assert.Equal(t, seo.TypeProfile, profile.OGType)
	assert.Equal(t, "https://example.dev/jane.png", profile.OGImage)
	assert.Empty(t, profile.ArticleAuthor)
	require.NotNil(t, profile.StructuredData)
	assert.Equal(t, "Person", profile.StructuredData["@type"])
	assert.Equal(t, "Backend Engineer", profile.StructuredData["jobTitle"])

	contact := lookup(t, ctx, "/contact").Meta
	assert.Equal(t, seo.TypeWebsite, contact.OGType)
	assert.Nil(t, contact.StructuredData, "defaulted website type has no structured data")
	assert.Equal(t, "Jane Doe", contact.Author, "site author from the seo section")
}

func TestLayoutPlugin(t *testing.T) {
	site := newSite(t)
	site.WriteFile("layout/header.html", testHeader)
	site.WriteFile("layout/footer.html", testFooter)
	site.WriteFile("content/index.md", "---\ntitle: Home\n---\nWelcome")
	site.WriteFile("content/blog.md", "---\ntitle: Blog\n---\nAll posts")
	site.WriteFile("content/blog/old.md", "---\ntitle: Old post\ncreated-at: 2023-01-01\n---\nold")
	site.WriteFile("content/blog/new.md", "---\ntitle: New post\ncreated-at: 2024-05-01\ntags: [go, web]\n---\nnew")
	site.WriteFile("content/raw.html", "---\nignore-layout: true\n---\n<svg></svg>")

	ctx := loadSite(t, site)
	doc := document(t, lookup(t, ctx, "/blog/new"))

	assert.Equal(t, "New post", doc.Find("title").Text())
	assert.Equal(t, "new", doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	assert.Equal(t, "article", doc.Find(`meta[property="og:type"]`).AttrOr("content", ""))
	assert.Equal(t, "https://example.dev/blog/new", doc.Find(`link[rel="canonical"]`).AttrOr("href", ""))
	assert.Equal(t, 2, doc.Find(`meta[property="article:tag"]`).Length())
	assert.Contains(t, doc.Find(`style`).Text(), ".chroma")
	assert.Equal(t, "new", strings.TrimSpace(doc.Find("main").Text()))
	assert.Equal(t, "Example Site by Jane Doe", doc.Find("footer").Text())

	var ld map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc.Find(`script[type="application/ld+json"]`).Text()), &ld))
	assert.Equal(t, "BlogPosting", ld["@type"])

	var nav []string
	doc.Find("nav a").Each(func(_ int, s *goquery.Selection) {
		nav = append(nav, s.AttrOr("href", ""))
	})
	assert.Equal(t, []string{"/", "/blog"}, nav)
	assert.Equal(t, "/blog", doc.Find("nav a.active").AttrOr("href", ""))

	var posts []string
	doc.Find("ul.posts a").Each(func(_ int, s *goquery.Selection) {
		posts = append(posts, s.Text())
	})
	assert.Equal(t, []string{"New post", "Old post"}, posts, "newest first")

	home := document(t, lookup(t, ctx, "/"))
	assert.Equal(t, "/", home.Find("nav a.active").AttrOr("href", ""))

	raw := lookup(t, ctx, "/raw")
	assert.Equal(t, "<svg></svg>", string(raw.Content), "ignore-layout pages are served as is")
}

func TestLayoutPluginWithoutLayout(t *testing.T) {
	site := newSite(t)
	site.WriteFile("content/page.md", "plain")

	ctx := loadSite(t, site)
	assert.Equal(t, "<p>plain</p>\n", string(lookup(t, ctx, "/page").Content))
}

func TestLayoutPluginTemplateError(t *testing.T) {
	site := newSite(t)
	site.WriteFile("layout/header.html", "<html>{{ .Head ")
	site.WriteFile("content/page.md", "plain")

	ctx := site.Context()
	require.NoError(t, RegisterBuiltins(ctx))
	t.Cleanup(func() { ctx.Search.(*BuiltinSearchPlugin).Close() })

	err := ctx.Content.Reload()
	require.Error(t, err)

	var perr *core.PluginError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "builtin/layout", perr.Plugin)

	_, err = ctx.Content.Lookup("/page")
	assert.ErrorIs(t, err, core.ErrPageNotFound)
}

func TestSearchPlugin(t *testing.T) {
	site := newSite(t)
	site.WriteFile("content/blog/hello.md", "---\ntitle: Hello Go\n---\nGoroutines and channels.")
	site.WriteFile("content/about.md", "---\ntitle: About\n---\nI like hiking.")
	site.WriteFile("content/blog/secret.md", "---\ndraft: true\n---\nGoroutines unpublished.")
	site.WriteFile("content/old.md", "---\nredirect-url: /about\n---\nGoroutines moved.")

	ctx := loadSite(t, site)
	search := ctx.Search.(*BuiltinSearchPlugin)

	hits, err := search.Search("goroutines", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "/blog/hello", hits[0].Route)
	assert.Equal(t, "Hello Go", hits[0].Title)
	assert.Greater(t, hits[0].Score, 0.0)

	count, err := search.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	site.Remove("content/blog/hello.md")
	require.NoError(t, ctx.Content.Reload())

	hits, err = search.Search("goroutines", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = search.Search("hiking", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "/about", hits[0].Route)
}

func TestSearchPluginClosed(t *testing.T) {
	search, err := NewSearchPlugin()
	require.NoError(t, err)
	require.NoError(t, search.Close())

	_, err = search.Search("x", 1)
	assert.ErrorIs(t, err, core.ErrSearchUnavailable)
}
