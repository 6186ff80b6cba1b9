package plugins

import (
	"fmt"

	"folio/core"
)

// RegisterBuiltins registers the builtin plugins with the site's content manager.
// The search plugin is enabled unless plugins.search.enabled is "false"; it becomes
// the context's Searcher.
func RegisterBuiltins(ctx *core.Context) error {
	if ctx.Content == nil {
		return fmt.Errorf("content manager is not initialized")
	}
	pm := ctx.Content.GetPluginManager()

	markdown := NewMarkdownPlugin(ctx.Config.Plugins.Get("markdown", "style", DefaultHighlightStyle))
	css, err := markdown.StyleSheet()
	if err != nil {
		core.Warn("code highlighting disabled: %v", err)
	}

	pm.RegisterPlugin(&BuiltinHtmlPlugin{})
	pm.RegisterPlugin(&BuiltinTextPlugin{})
	pm.RegisterPlugin(markdown)
	pm.RegisterPlugin(&BuiltinSeoPlugin{Context: ctx})
	pm.RegisterPlugin(&BuiltinLayoutPlugin{Context: ctx, HighlightCSS: css})

	if ctx.Config.Plugins.Get("search", "enabled", "true") != "false" {
		search, err := NewSearchPlugin()
		if err != nil {
			return err
		}
		pm.RegisterPlugin(search)
		ctx.Search = search
	}

	for _, plugin := range pm.ListPlugins() {
		core.Info("registered plugin %s", plugin)
	}
	return nil
}
