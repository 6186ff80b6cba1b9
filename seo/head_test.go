package seo

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderHeadDoc(t *testing.T, m MetaTags) *goquery.Document {
	t.Helper()
	html := "<html><head>" + string(RenderHead(m)) + "</head><body></body></html>"
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestRenderHeadArticle(t *testing.T) {
	m := Resolve(Config{
		Title:          "Shipping <Go>",
		Description:    "Notes & lessons",
		Type:           TypeArticle,
		Author:         "Jane",
		Tags:           []string{"go", "ops"},
		TwitterCreator: "jane",
	}, "https://example.dev/blog/shipping-go")

	doc := renderHeadDoc(t, m)

	assert.Equal(t, "Shipping <Go>", doc.Find("title").Text())
	assert.Equal(t, "Notes & lessons", doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	assert.Equal(t, "article", doc.Find(`meta[property="og:type"]`).AttrOr("content", ""))
	assert.Equal(t, "@jane", doc.Find(`meta[name="twitter:creator"]`).AttrOr("content", ""))
	assert.Equal(t, "https://example.dev/blog/shipping-go", doc.Find(`link[rel="canonical"]`).AttrOr("href", ""))
	assert.Equal(t, 0, doc.Find(`meta[name="keywords"]`).Length())

	var tags []string
	doc.Find(`meta[property="article:tag"]`).Each(func(_ int, s *goquery.Selection) {
		tags = append(tags, s.AttrOr("content", ""))
	})
	assert.Equal(t, []string{"go", "ops"}, tags)

	script := doc.Find(`script[type="application/ld+json"]`)
	require.Equal(t, 1, script.Length())
	var ld map[string]any
	require.NoError(t, json.Unmarshal([]byte(script.Text()), &ld))
	assert.Equal(t, "BlogPosting", ld["@type"])
	assert.Equal(t, "Shipping <Go>", ld["headline"])
}

func TestRenderHeadWithoutStructuredData(t *testing.T) {
	doc := renderHeadDoc(t, Resolve(Config{Title: "Contact", Description: "Say hi"}, "https://example.dev/contact"))

	assert.Equal(t, 0, doc.Find(`script[type="application/ld+json"]`).Length())
	assert.Equal(t, 0, doc.Find(`meta[property^="article:"]`).Length())
	assert.Equal(t, DefaultFavicon, doc.Find(`link[rel="icon"]`).AttrOr("href", ""))
	assert.Equal(t, DefaultThemeColor, doc.Find(`meta[name="theme-color"]`).AttrOr("content", ""))
}
