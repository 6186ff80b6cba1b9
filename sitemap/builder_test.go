package sitemap

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 8_000_000, time.UTC)

func newTestBuilder(base string) *Builder {
	return NewBuilder(base, WithClock(func() time.Time { return fixedNow }))
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc        string `xml:"loc"`
		LastMod    string `xml:"lastmod"`
		ChangeFreq string `xml:"changefreq"`
		Priority   string `xml:"priority"`
	} `xml:"url"`
}

func parse(t *testing.T, doc string) urlset {
	t.Helper()
	var set urlset
	require.NoError(t, xml.Unmarshal([]byte(doc), &set))
	return set
}

func TestStaticPages(t *testing.T) {
	for _, base := range []string{"https://example.dev", "https://example.dev/"} {
		t.Run(base, func(t *testing.T) {
			doc := newTestBuilder(base).AddStaticPages().GenerateXML()
			set := parse(t, doc)

			require.Len(t, set.URLs, 5)
			assert.Equal(t, 5, strings.Count(doc, "<url>"))
			assert.Equal(t, "https://example.dev", set.URLs[0].Loc)
			assert.Equal(t, "1", set.URLs[0].Priority)
			assert.Equal(t, "weekly", set.URLs[0].ChangeFreq)
			assert.NotContains(t, doc, "example.dev//")

			expected := []struct {
				loc, freq, priority string
			}{
				{"https://example.dev", "weekly", "1"},
				{"https://example.dev/about", "monthly", "0.8"},
				{"https://example.dev/portfolio", "weekly", "0.9"},
				{"https://example.dev/blog", "daily", "0.8"},
				{"https://example.dev/contact", "monthly", "0.7"},
			}
			for i, e := range expected {
				assert.Equal(t, e.loc, set.URLs[i].Loc)
				assert.Equal(t, e.freq, set.URLs[i].ChangeFreq)
				assert.Equal(t, e.priority, set.URLs[i].Priority)
				assert.Equal(t, "2025-03-04T05:06:07.008Z", set.URLs[i].LastMod)
			}
		})
	}
}

func TestBlogPostsKeepOrder(t *testing.T) {
	doc := newTestBuilder("https://example.dev").
		AddBlogPosts([]Post{{Slug: "a"}, {Slug: "b"}}).
		GenerateXML()

	a := strings.Index(doc, "<loc>https://example.dev/blog/a</loc>")
	b := strings.Index(doc, "<loc>https://example.dev/blog/b</loc>")
	require.NotEqual(t, -1, a)
	require.NotEqual(t, -1, b)
	assert.Less(t, a, b)
}

func TestLastModifiedFallbacks(t *testing.T) {
	urls := newTestBuilder("https://example.dev").
		AddBlogPosts([]Post{
			{Slug: "updated", UpdatedAt: "2024-02-01", CreatedAt: "2024-01-01"},
			{Slug: "created", CreatedAt: "2024-01-01"},
			{Slug: "none"},
		}).
		URLs()

	require.Len(t, urls, 3)
	assert.Equal(t, "2024-02-01", urls[0].LastModified)
	assert.Equal(t, "2024-01-01", urls[1].LastModified)
	assert.Equal(t, "2025-03-04T05:06:07.008Z", urls[2].LastModified)
	for _, u := range urls {
		assert.Equal(t, Monthly, u.ChangeFrequency)
		assert.Equal(t, 0.6, u.Priority)
	}
}

func TestPortfolioProjectsSlugOrID(t *testing.T) {
	urls := newTestBuilder("https://example.dev").
		AddPortfolioProjects([]Project{{Slug: "shop", ID: "1"}, {ID: "42"}}).
		URLs()

	require.Len(t, urls, 2)
	assert.Equal(t, "https://example.dev/portfolio/shop", urls[0].Loc)
	assert.Equal(t, "https://example.dev/portfolio/42", urls[1].Loc)
	assert.Equal(t, 0.7, urls[1].Priority)
}

func TestAccumulationOrderAcrossCategories(t *testing.T) {
	urls := newTestBuilder("https://example.dev").
		AddStaticPages().
		AddBlogPosts([]Post{{Slug: "p"}}).
		AddPortfolioProjects([]Project{{Slug: "x"}}).
		AddBlogPosts([]Post{{Slug: "p"}}).
		URLs()

	require.Len(t, urls, 8)
	assert.Equal(t, "https://example.dev/blog/p", urls[5].Loc)
	assert.Equal(t, "https://example.dev/portfolio/x", urls[6].Loc)
	assert.Equal(t, "https://example.dev/blog/p", urls[7].Loc, "duplicates are kept")
}

func TestNilCollectionsAreEmpty(t *testing.T) {
	b := newTestBuilder("https://example.dev").AddBlogPosts(nil).AddPortfolioProjects(nil)
	assert.Empty(t, b.URLs())
	assert.Empty(t, parse(t, b.GenerateXML()).URLs)
}

func TestGenerateXMLLayout(t *testing.T) {
	b := newTestBuilder("https://example.dev")
	b.urls = append(b.urls, URL{Loc: "https://example.dev/x?a=1&b=2"})

	expected := strings.Join([]string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`,
		`  <url>`,
		`    <loc>https://example.dev/x?a=1&amp;b=2</loc>`,
		`    `,
		`    `,
		`    `,
		`  </url>`,
		`</urlset>`,
	}, "\n")
	assert.Equal(t, expected, b.GenerateXML())
}

func TestURLValidate(t *testing.T) {
	assert.NoError(t, URL{Loc: "https://example.dev", ChangeFrequency: Daily, Priority: 0.5}.Validate())
	assert.Error(t, URL{Loc: "https://example.dev", ChangeFrequency: "sometimes"}.Validate())
	assert.Error(t, URL{Loc: "https://example.dev", Priority: 1.5}.Validate())
	assert.Error(t, URL{}.Validate())
}

func TestGenerateRobotsTxt(t *testing.T) {
	robots := newTestBuilder("https://example.dev/").GenerateRobotsTxt()

	assert.Contains(t, robots, "User-agent: *\n")
	assert.Contains(t, robots, "Sitemap: https://example.dev/sitemap.xml\n")
	for _, p := range []string{"/admin/", "/api/", "/.env", "/node_modules/", "/src/", "/*.json$", "/*.xml$"} {
		assert.Contains(t, robots, "Disallow: "+p+"\n")
	}
	for _, p := range []string{"/", "/about", "/portfolio", "/blog", "/contact"} {
		assert.Contains(t, robots, "Allow: "+p+"\n")
	}
}
