package plugins

import (
	"folio/core"
	"folio/seo"
	"folio/sitemap"
)

// BuiltinSeoPlugin resolves the head tags of every HTML page. Description and
// keywords missing from the front matter are derived from the page text.
type BuiltinSeoPlugin struct {
	Context *core.Context
}

func (p *BuiltinSeoPlugin) Name() string {
	return "builtin/seo"
}

func (p *BuiltinSeoPlugin) Priority() int {
	return 200
}

func (p *BuiltinSeoPlugin) CanProcess(page *core.Page) bool {
	return hasExtension(page, ".md", ".markdown", ".html", ".htm")
}

func (p *BuiltinSeoPlugin) Process(ctx *core.PluginContext) *core.PluginResult {
	page := ctx.Page
	if !isHTMLPage(page) || page.Metadata.RedirectUrl != "" {
		return &core.PluginResult{Success: true}
	}

	cfg := p.PageConfig(page)
	if err := cfg.Validate(); err != nil {
		core.Debug("incomplete seo config for %s: %v", page.Path, err)
	}

	page.Meta = p.Context.Resolver.Resolve(cfg, p.pageURL(page))
	return &core.PluginResult{Success: true}
}

// PageConfig builds the SEO config of a page from its front matter and text
func (p *BuiltinSeoPlugin) PageConfig(page *core.Page) seo.Config {
	md := page.Metadata

	cfg := seo.Config{
		Title:       page.Title(),
		Description: md.Description,
		Keywords:    md.Keywords,
		Image:       md.Image,
		Canonical:   md.Canonical,
		Type:        seo.PageType(md.Type),
		Section:     md.Section,
		Tags:        md.Tags,
		TwitterCard: seo.TwitterCard(md.TwitterCard),
		Robots:      md.Robots,
	}

	if cfg.Description == "" {
		cfg.Description = seo.TruncateForMetaDescription(page.Text, seo.DefaultDescriptionLength)
	}
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = seo.ExtractKeywords(page.Text, seo.DefaultMaxKeywords)
	}

	if cfg.Type == "" {
		switch {
		case page.Section == core.SectionBlog:
			cfg.Type = seo.TypeArticle
		case page.Route() == "/":
			cfg.Type = seo.TypeWebsite
		}
	}

	if cfg.Type == seo.TypeArticle {
		cfg.PublishedTime = sitemap.FormatTime(page.Published())
		cfg.ModifiedTime = sitemap.FormatTime(page.Updated())
		if cfg.Section == "" && page.Section == core.SectionBlog {
			cfg.Section = "Blog"
		}
	}

	if md.Author != "" {
		cfg.Author = md.Author
		if author, ok := p.Context.Authors.Lookup(md.Author); ok {
			cfg.Author = author.DisplayName()
			cfg.TwitterCreator = author.Twitter
			if cfg.Image == "" && cfg.Type == seo.TypeProfile {
				cfg.Image = author.Image
			}
		}
	}

	return cfg
}

// pageURL is the absolute URL of the page's canonical route
func (p *BuiltinSeoPlugin) pageURL(page *core.Page) string {
	route := page.Route()
	if route == "/" {
		route = ""
	}
	return p.Context.SiteURL() + route
}
