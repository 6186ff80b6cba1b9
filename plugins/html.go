package plugins

import (
	"folio/core"
)

type BuiltinHtmlPlugin struct{}

func (p *BuiltinHtmlPlugin) Name() string {
	return "builtin/html"
}

func (p *BuiltinHtmlPlugin) Priority() int {
	return 100
}

func (p *BuiltinHtmlPlugin) CanProcess(page *core.Page) bool {
	return hasExtension(page, ".html", ".htm")
}

// Process strips the front matter of an html page. The body is used as is;
// the layout is applied once the whole site is loaded.
func (p *BuiltinHtmlPlugin) Process(ctx *core.PluginContext) *core.PluginResult {
	core.Debug("processing html file: %s", ctx.Page.Path)

	body, err := readContent(ctx)
	if err != nil {
		return failed(err)
	}

	return renderedResult(ctx.Page, body, HTMLMimeType)
}
