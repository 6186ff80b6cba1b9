package core

import (
	"path/filepath"

	"folio/seo"
)

// SearchHit is one result of a full-text query
type SearchHit struct {
	Route string  `json:"route"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Searcher answers full-text queries over the published pages
type Searcher interface {
	Search(query string, limit int) ([]SearchHit, error)
}

type Context struct {
	Authors  Authors
	Config   Config
	Content  *ContentManager
	Resolver *seo.Resolver
	Search   Searcher
	Watcher  *FileWatcher
}

// InitializeContext reads the site configuration and authors and prepares an empty
// content manager. Plugins are registered by the caller before the first Reload.
func InitializeContext(ctx *Context) error {
	var err error

	configFilePath := filepath.Join(ctx.Config.SiteDirectory, ConfigDirectory, "site.yaml")
	if err = ReadConfigYaml(&ctx.Config, configFilePath); err != nil {
		return err
	}

	authorsFilePath := filepath.Join(ctx.Config.SiteDirectory, ConfigDirectory, "authors.yaml")
	ctx.Authors, err = ReadAuthorsYaml(authorsFilePath)
	if err != nil {
		return err
	}

	defaults := ctx.Config.SEODefaults()
	if defaults.Author == "" {
		if author, ok := ctx.Authors.Default(); ok {
			defaults.Author = author.DisplayName()
		}
	}
	ctx.Resolver = seo.NewResolver(defaults)

	if ctx.Content == nil {
		ctx.Content = NewContentManager(ctx.Config.SiteDirectory)
	}

	return nil
}

// SiteURL is the absolute origin of the site
func (ctx *Context) SiteURL() string {
	return ctx.Config.Server.SiteURL()
}
