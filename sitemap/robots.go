package sitemap

import (
	"strings"
)

// Paths crawlers are asked to stay out of.
var disallowedPaths = []string{
	"/admin/",
	"/api/",
	"/.env",
	"/node_modules/",
	"/src/",
}

// File types at the root crawlers should skip.
var disallowedPatterns = []string{
	"/*.json$",
	"/*.xml$",
}

// GenerateRobotsTxt returns the robots.txt for the builder's base URL.
func (b *Builder) GenerateRobotsTxt() string {
	var sb strings.Builder

	sb.WriteString("User-agent: *\n")
	sb.WriteString("Allow: /\n")

	sb.WriteString("\n# Sitemaps\n")
	sb.WriteString("Sitemap: " + b.baseURL + "/sitemap.xml\n")

	sb.WriteString("\n# Disallow admin and private areas\n")
	for _, p := range disallowedPaths {
		sb.WriteString("Disallow: " + p + "\n")
	}

	sb.WriteString("\n# Allow important pages\n")
	for _, p := range StaticPaths() {
		sb.WriteString("Allow: " + p + "\n")
	}

	sb.WriteString("\n# Disallow file types\n")
	for _, p := range disallowedPatterns {
		sb.WriteString("Disallow: " + p + "\n")
	}

	return sb.String()
}
