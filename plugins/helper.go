package plugins

import (
	"bytes"
	"path"
	"strings"

	"github.com/adrg/frontmatter"

	"folio/core"
	"folio/seo"
)

// HTMLMimeType is the mime type of rendered pages
const HTMLMimeType = "text/html; charset=utf-8"

func hasExtension(page *core.Page, exts ...string) bool {
	ext := strings.ToLower(path.Ext(page.Name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// isHTMLPage is true for pages whose final content is an HTML document
func isHTMLPage(page *core.Page) bool {
	return page.MimeType == "" || strings.HasPrefix(page.MimeType, "text/html")
}

// readContent reads the page's file and parses (and strips) its front matter into page.Metadata
func readContent(ctx *core.PluginContext) ([]byte, error) {
	content := ctx.Page.ReadFile(ctx.SiteDirectory)
	if content == nil {
		return nil, core.NewContentError("read", ctx.Page.Path, core.ErrPageNotFound)
	}

	rest, err := frontmatter.Parse(bytes.NewReader(content), &ctx.Page.Metadata)
	if err != nil {
		return nil, core.NewContentError("parse front matter", ctx.Page.Path, err)
	}
	return rest, nil
}

// renderedResult fills the page fields shared by every content-type plugin and builds its result
func renderedResult(page *core.Page, body []byte, mimeType string) *core.PluginResult {
	page.Body = body
	if isHTMLMime(mimeType) {
		page.Text = seo.StripHTML(string(body))
	} else {
		page.Text = strings.TrimSpace(string(body))
	}

	// the front matter may force a mime type
	if page.Metadata.MimeType != "" {
		mimeType = page.Metadata.MimeType
	}

	return &core.PluginResult{
		Success:    true,
		Modified:   true,
		NewContent: body,
		MimeType:   mimeType,
		Routes:     core.PageRoutes(page),
	}
}

func isHTMLMime(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/html")
}

func failed(err error) *core.PluginResult {
	return &core.PluginResult{Success: false, Error: err}
}
