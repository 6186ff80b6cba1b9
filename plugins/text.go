package plugins

import (
	"folio/core"
)

type BuiltinTextPlugin struct{}

func (p *BuiltinTextPlugin) Name() string {
	return "builtin/text"
}

func (p *BuiltinTextPlugin) Priority() int {
	return 100
}

func (p *BuiltinTextPlugin) CanProcess(page *core.Page) bool {
	return hasExtension(page, ".txt")
}

func (p *BuiltinTextPlugin) Process(ctx *core.PluginContext) *core.PluginResult {
	body, err := readContent(ctx)
	if err != nil {
		return failed(err)
	}

	return renderedResult(ctx.Page, body, "text/plain; charset=utf-8")
}
