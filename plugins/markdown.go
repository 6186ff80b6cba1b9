package plugins

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"folio/core"
)

// DefaultHighlightStyle is the chroma style used when plugins.markdown.style is not set
const DefaultHighlightStyle = "monokai"

type BuiltinMarkdownPlugin struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
	style    string
}

// NewMarkdownPlugin creates the markdown plugin. Code blocks are highlighted with
// CSS classes; StyleSheet returns the matching rules.
func NewMarkdownPlugin(style string) *BuiltinMarkdownPlugin {
	if style == "" {
		style = DefaultHighlightStyle
	}

	markdown := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Globally()

	return &BuiltinMarkdownPlugin{markdown: markdown, policy: policy, style: style}
}

func (p *BuiltinMarkdownPlugin) Name() string {
	return "builtin/markdown"
}

func (p *BuiltinMarkdownPlugin) Priority() int {
	return 100
}

func (p *BuiltinMarkdownPlugin) CanProcess(page *core.Page) bool {
	return hasExtension(page, ".md", ".markdown")
}

func (p *BuiltinMarkdownPlugin) Process(ctx *core.PluginContext) *core.PluginResult {
	core.Debug("processing markdown file: %s", ctx.Page.Path)

	content, err := readContent(ctx)
	if err != nil {
		return failed(err)
	}

	body, err := p.Render(content)
	if err != nil {
		return failed(core.NewContentError("render markdown", ctx.Page.Path, err))
	}

	return renderedResult(ctx.Page, body, HTMLMimeType)
}

// Render converts markdown to sanitised HTML
func (p *BuiltinMarkdownPlugin) Render(source []byte) ([]byte, error) {
	var html bytes.Buffer
	if err := p.markdown.Convert(source, &html); err != nil {
		return nil, err
	}
	return p.policy.SanitizeBytes(html.Bytes()), nil
}

// StyleSheet returns the CSS for highlighted code blocks
func (p *BuiltinMarkdownPlugin) StyleSheet() (string, error) {
	var css bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&css, styles.Get(p.style)); err != nil {
		return "", fmt.Errorf("failed to write css for style %s: %w", p.style, err)
	}
	return css.String(), nil
}
