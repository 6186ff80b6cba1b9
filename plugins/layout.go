package plugins

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"folio/core"
	"folio/seo"
	"folio/sitemap"
)

const (
	headerLayout = "header.html"
	footerLayout = "footer.html"
)

// PageSummary is the view of a page in listings
type PageSummary struct {
	Title       string
	Description string
	Route       string
	Tags        []string
	Published   time.Time
	Updated     time.Time
}

// NavigationItem is one of the site's static pages as shown in the menu
type NavigationItem struct {
	Title    string
	Url      string
	IsActive bool
}

// BuiltinLayoutPlugin wraps every HTML page in layout/header.html and layout/footer.html.
// The layout is an html/template; the page body is inserted between header and footer.
// It runs on the complete page set so that listings of posts and projects are current.
type BuiltinLayoutPlugin struct {
	Context      *core.Context
	HighlightCSS string
}

func (p *BuiltinLayoutPlugin) Name() string {
	return "builtin/layout"
}

func (p *BuiltinLayoutPlugin) Priority() int {
	return 300
}

// CanProcess is false for every page: layouts are applied in Commit
func (p *BuiltinLayoutPlugin) CanProcess(page *core.Page) bool {
	return false
}

func (p *BuiltinLayoutPlugin) Process(ctx *core.PluginContext) *core.PluginResult {
	return &core.PluginResult{Success: true}
}

// Commit renders the layout around every HTML page. A page whose template fails to
// execute keeps its plain body.
func (p *BuiltinLayoutPlugin) Commit(pages []*core.Page) error {
	tmpl, err := p.template()
	if err != nil {
		return err
	}
	if tmpl == nil {
		core.Debug("no layout found, serving page bodies as is")
		return nil
	}

	posts := summaries(core.SectionPages(pages, core.SectionBlog))
	projects := summaries(core.SectionPages(pages, core.SectionPortfolio))
	navigation := buildNavigation(pages)

	for _, page := range pages {
		if !isHTMLPage(page) || page.Metadata.IgnoreLayout || page.Metadata.RedirectUrl != "" {
			continue
		}

		vars := p.BuildTemplateVars(page, navigation)
		vars["Posts"] = posts
		vars["Projects"] = projects

		var output bytes.Buffer
		if err := tmpl.Execute(&output, vars); err != nil {
			core.Error("failed to apply layout to %s: %v", page.Path, err)
			continue
		}
		page.Content = output.Bytes()
	}
	return nil
}

// template parses header and footer around the body, or returns nil when the site has no layout
func (p *BuiltinLayoutPlugin) template() (*template.Template, error) {
	header, herr := p.Context.Content.Layout(headerLayout)
	footer, ferr := p.Context.Content.Layout(footerLayout)
	if herr != nil && ferr != nil {
		return nil, nil
	}

	var source strings.Builder
	source.Write(header)
	source.WriteString("{{ .Body }}")
	source.Write(footer)

	tmpl, err := template.New("layout").Parse(source.String())
	if err != nil {
		return nil, core.NewContentError("parse layout", core.LayoutDirectory, err)
	}
	return tmpl, nil
}

// BuildTemplateVars returns the variables available to the layout of one page
func (p *BuiltinLayoutPlugin) BuildTemplateVars(page *core.Page, navigation []NavigationItem) map[string]any {
	ctx := p.Context
	vars := map[string]any{
		"Head":            seo.RenderHead(page.Meta),
		"Body":            template.HTML(page.Body),
		"SiteTitle":       ctx.Config.Server.Title,
		"SiteDescription": ctx.Config.Server.Description,
		"SiteURL":         ctx.SiteURL(),
		"BrandingFavicon": ctx.Config.Branding.Favicon,
		"BrandingCssFile": ctx.Config.Branding.CssFile,
		"HighlightCSS":    template.CSS(p.HighlightCSS),
		"PageTitle":       page.Title(),
		"PageRoute":       page.Route(),
		"PageSection":     string(page.Section),
		"PageTags":        page.Metadata.Tags,
		"PageCssFile":     page.Metadata.CssFile,
		"Published":       page.Published(),
		"Updated":         page.Updated(),
		"UpdatedISO":      sitemap.FormatTime(page.Updated()),
	}

	author, ok := ctx.Authors.Lookup(page.Metadata.Author)
	if !ok {
		author, ok = ctx.Authors.Default()
	}
	if ok {
		vars["PageAuthor"] = author
	}

	// Mark the menu entry of the current page, and of its section for posts and projects
	nav := make([]NavigationItem, len(navigation))
	for i, item := range navigation {
		item.IsActive = item.Url == page.Route() ||
			(item.Url == "/blog" && page.Section == core.SectionBlog) ||
			(item.Url == "/portfolio" && page.Section == core.SectionPortfolio)
		nav[i] = item
	}
	vars["Navigation"] = nav

	return vars
}

// buildNavigation lists the static pages of the site that exist in the page set
func buildNavigation(pages []*core.Page) []NavigationItem {
	byRoute := make(map[string]*core.Page)
	for _, page := range pages {
		for _, route := range page.Routes {
			if _, taken := byRoute[route]; !taken {
				byRoute[route] = page
			}
		}
	}

	var nav []NavigationItem
	for _, path := range sitemap.StaticPaths() {
		page, ok := byRoute[path]
		if !ok {
			continue
		}
		nav = append(nav, NavigationItem{Title: page.Title(), Url: path})
	}
	return nav
}

func summaries(pages []*core.Page) []PageSummary {
	out := make([]PageSummary, 0, len(pages))
	for _, page := range pages {
		description := page.Metadata.Description
		if description == "" {
			description = page.Meta.Description
		}
		out = append(out, PageSummary{
			Title:       page.Title(),
			Description: description,
			Route:       page.Route(),
			Tags:        page.Metadata.Tags,
			Published:   page.Published(),
			Updated:     page.Updated(),
		})
	}
	return out
}
