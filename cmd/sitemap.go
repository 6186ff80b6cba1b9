package cmd

import (
	"fmt"
	"io"

	"folio/core"
)

// PrintSitemap writes the sitemap of the loaded site
func PrintSitemap(ctx *core.Context, w io.Writer) error {
	_, err := fmt.Fprint(w, ctx.Content.Sitemap(ctx.SiteURL()).GenerateXML())
	return err
}
