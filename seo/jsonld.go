package seo

import (
	"encoding/json"
)

const schemaContext = "https://schema.org"

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Person returns a Person schema for profile pages. sameAs is a profile URL and may be empty.
func Person(name, jobTitle, url, imageURL, worksFor, sameAs string) map[string]any {
	m := map[string]any{
		"@context": schemaContext,
		"@type":    "Person",
		"name":     name,
		"jobTitle": jobTitle,
		"sameAs":   []string{},
	}
	if url != "" {
		m["url"] = url
	}
	if imageURL != "" {
		m["image"] = imageURL
	}
	if sameAs != "" {
		m["sameAs"] = []string{sameAs}
	}
	if worksFor != "" {
		m["worksFor"] = map[string]any{
			"@type": "Organization",
			"name":  worksFor,
		}
	}
	return m
}

// BlogPostingInfo carries the fields of a BlogPosting schema.
type BlogPostingInfo struct {
	Headline      string
	Description   string
	Image         string
	AuthorName    string
	PublisherName string
	PublisherLogo string
	DatePublished string
	DateModified  string
	URL           string
}

// BlogPosting returns a BlogPosting schema for article pages.
func BlogPosting(info BlogPostingInfo) map[string]any {
	m := map[string]any{
		"@context":    schemaContext,
		"@type":       "BlogPosting",
		"headline":    info.Headline,
		"description": info.Description,
	}
	if info.Image != "" {
		m["image"] = info.Image
	}
	if info.AuthorName != "" {
		m["author"] = map[string]any{"@type": "Person", "name": info.AuthorName}
	}
	publisher := map[string]any{
		"@type": "Organization",
		"name":  info.PublisherName,
	}
	if info.PublisherLogo != "" {
		publisher["logo"] = map[string]any{"@type": "ImageObject", "url": info.PublisherLogo}
	}
	m["publisher"] = publisher
	if info.DatePublished != "" {
		m["datePublished"] = info.DatePublished
	}
	if info.DateModified != "" {
		m["dateModified"] = info.DateModified
	}
	if info.URL != "" {
		m["mainEntityOfPage"] = map[string]any{"@type": "WebPage", "@id": info.URL}
	}
	return m
}

// WebSite returns a WebSite schema with a SearchAction pointing at the site search.
func WebSite(name, url, description string) map[string]any {
	m := map[string]any{
		"@context":    schemaContext,
		"@type":       "WebSite",
		"name":        name,
		"description": description,
	}
	if url != "" {
		m["url"] = url
		m["potentialAction"] = map[string]any{
			"@type":       "SearchAction",
			"target":      url + "/search?q={search_term_string}",
			"query-input": "required name=search_term_string",
		}
	}
	return m
}
