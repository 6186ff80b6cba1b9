package plugins

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"folio/core"
)

// searchDocument is what gets indexed per page
type searchDocument struct {
	Route string `json:"route"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Tags  string `json:"tags"`
}

// BuiltinSearchPlugin keeps an in-memory full-text index of the published pages.
// Every reload fills a fresh index which replaces the served one on Commit.
type BuiltinSearchPlugin struct {
	mu       sync.RWMutex
	index    bleve.Index // served
	building bleve.Index // filled during a reload
}

func NewSearchPlugin() (*BuiltinSearchPlugin, error) {
	index, err := newIndex()
	if err != nil {
		return nil, err
	}
	return &BuiltinSearchPlugin{index: index}, nil
}

func newIndex() (bleve.Index, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return index, nil
}

func (p *BuiltinSearchPlugin) Name() string {
	return "builtin/search"
}

func (p *BuiltinSearchPlugin) Priority() int {
	return 1000 // Run last
}

func (p *BuiltinSearchPlugin) CanProcess(page *core.Page) bool {
	return hasExtension(page, ".txt", ".md", ".markdown", ".html", ".htm")
}

// Reset starts a new index for the upcoming reload
func (p *BuiltinSearchPlugin) Reset() error {
	index, err := newIndex()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.building != nil {
		p.building.Close()
	}
	p.building = index
	return nil
}

func (p *BuiltinSearchPlugin) Process(ctx *core.PluginContext) *core.PluginResult {
	page := ctx.Page
	if page.Text == "" || page.Metadata.RedirectUrl != "" || page.Route() == core.NotFoundRoute {
		return &core.PluginResult{Success: true}
	}

	p.mu.RLock()
	building := p.building
	p.mu.RUnlock()
	if building == nil {
		return failed(fmt.Errorf("search index was not reset before processing %s", page.Path))
	}

	doc := searchDocument{
		Route: page.Route(),
		Title: page.Title(),
		Text:  page.Text,
	}
	for i, tag := range page.Metadata.Tags {
		if i > 0 {
			doc.Tags += " "
		}
		doc.Tags += tag
	}

	// bleve indexes are safe for concurrent use
	if err := building.Index(page.Path, doc); err != nil {
		return failed(fmt.Errorf("failed to index %s: %w", page.Path, err))
	}
	return &core.PluginResult{Success: true}
}

// Commit serves the index built during this reload
func (p *BuiltinSearchPlugin) Commit(pages []*core.Page) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.building == nil {
		return nil
	}
	old := p.index
	p.index = p.building
	p.building = nil
	if old != nil {
		return old.Close()
	}
	return nil
}

// Search returns the best matching pages for a free-text query
func (p *BuiltinSearchPlugin) Search(query string, limit int) ([]core.SearchHit, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.index == nil {
		return nil, core.ErrSearchUnavailable
	}

	searchRequest := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	searchRequest.Size = limit
	searchRequest.Fields = []string{"route", "title"}

	searchResults, err := p.index.Search(searchRequest)
	if err != nil {
		return nil, err
	}

	hits := make([]core.SearchHit, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		route, _ := hit.Fields["route"].(string)
		title, _ := hit.Fields["title"].(string)
		hits = append(hits, core.SearchHit{Route: route, Title: title, Score: hit.Score})
	}
	return hits, nil
}

// Count returns the number of indexed pages
func (p *BuiltinSearchPlugin) Count() (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.index == nil {
		return 0, core.ErrSearchUnavailable
	}
	return p.index.DocCount()
}

// Close releases the indexes
func (p *BuiltinSearchPlugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.building != nil {
		p.building.Close()
		p.building = nil
	}
	if p.index != nil {
		err := p.index.Close()
		p.index = nil
		return err
	}
	return nil
}
