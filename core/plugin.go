package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// PluginContext provides context information to plugins
type PluginContext struct {
	Page          *Page
	Content       *ContentManager
	SiteDirectory string // Path to the site root
}

// PluginResult represents the result of plugin execution
type PluginResult struct {
	Success    bool
	Error      error
	Modified   bool     // Whether the page content was replaced
	NewContent []byte   // New content if the page was modified
	MimeType   string   // mime type of the page
	Routes     []string // Routes this page should be associated with
}

// Plugin interface that all plugins must implement
type Plugin interface {
	// Name returns the plugin name
	Name() string

	// CanProcess determines if this plugin can process the given page
	CanProcess(page *Page) bool

	// Process processes the page and returns the result
	Process(ctx *PluginContext) *PluginResult

	// Priority returns the execution priority (lower numbers = higher priority)
	Priority() int
}

// Resetter is implemented by plugins holding state derived from the whole page set.
// Reset is called before every reload.
type Resetter interface {
	Reset() error
}

// Committer is implemented by plugins that work on the complete page set.
// Commit runs once per reload, after every page went through Process and before
// the new set is served.
type Committer interface {
	Commit(pages []*Page) error
}

// PluginManager manages all registered plugins
type PluginManager struct {
	mu      sync.RWMutex
	plugins []Plugin
}

// NewPluginManager creates a new plugin manager
func NewPluginManager() *PluginManager {
	return &PluginManager{
		plugins: make([]Plugin, 0),
	}
}

// RegisterPlugin registers a new plugin
func (pm *PluginManager) RegisterPlugin(plugin Plugin) {
	if plugin == nil {
		return
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.plugins = append(pm.plugins, plugin)

	// Stable so equal priorities keep registration order
	sort.SliceStable(pm.plugins, func(i, j int) bool {
		return pm.plugins[i].Priority() < pm.plugins[j].Priority()
	})
}

// GetPluginsForPage returns all plugins that can process the given page
func (pm *PluginManager) GetPluginsForPage(page *Page) []Plugin {
	if page == nil {
		return nil
	}

	pm.mu.RLock()
	defer pm.mu.RUnlock()

	var matchingPlugins []Plugin
	for _, plugin := range pm.plugins {
		if plugin.CanProcess(page) {
			matchingPlugins = append(matchingPlugins, plugin)
		}
	}

	return matchingPlugins
}

// ListPlugins returns information about all registered plugins
func (pm *PluginManager) ListPlugins() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if len(pm.plugins) == 0 {
		return nil
	}

	var builder strings.Builder
	list := make([]string, 0, len(pm.plugins))

	for _, plugin := range pm.plugins {
		builder.Reset()
		builder.WriteString(plugin.Name())
		builder.WriteString(" (priority: ")
		builder.WriteString(fmt.Sprintf("%d", plugin.Priority()))
		builder.WriteString(")")
		list = append(list, builder.String())
	}

	return list
}

// Reset calls Reset on every plugin that keeps state across pages
func (pm *PluginManager) Reset() error {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	for _, plugin := range pm.plugins {
		if r, ok := plugin.(Resetter); ok {
			if err := r.Reset(); err != nil {
				return NewPluginError(plugin.Name(), "", err)
			}
		}
	}
	return nil
}

// Commit hands the processed page set to every Committer, in priority order
func (pm *PluginManager) Commit(pages []*Page) error {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	for _, plugin := range pm.plugins {
		if c, ok := plugin.(Committer); ok {
			if err := c.Commit(pages); err != nil {
				return NewPluginError(plugin.Name(), "", err)
			}
		}
	}
	return nil
}

// Processes a page with all applicable plugins and returns the processed copy.
// Processing stops at the first failing plugin, or once a plugin marks the page as a draft.
func (pm *PluginManager) Process(copy Page, cm *ContentManager) (*Page, error) {
	plugins := pm.GetPluginsForPage(&copy)

	ctx := &PluginContext{
		Page:          &copy,
		Content:       cm,
		SiteDirectory: cm.SiteDirectory,
	}

	for _, plugin := range plugins {
		result := plugin.Process(ctx)
		if result == nil || !result.Success {
			err := ErrPluginFailed
			if result != nil && result.Error != nil {
				err = result.Error
			}
			return nil, NewPluginError(plugin.Name(), copy.Path, err)
		}

		if result.Modified && result.NewContent != nil {
			copy.Content = result.NewContent
		}

		if result.MimeType != "" {
			copy.MimeType = result.MimeType
		}

		if result.Routes != nil {
			copy.Routes = result.Routes
		}

		if copy.Metadata.Draft {
			break
		}
	}

	return &copy, nil
}
