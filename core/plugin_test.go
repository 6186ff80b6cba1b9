package core

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPluginManager(t *testing.T) {
	pm := NewPluginManager()
	require.NotNil(t, pm)
	assert.Empty(t, pm.ListPlugins())
}

func TestRegisterPluginOrdersByPriority(t *testing.T) {
	pm := NewPluginManager()
	pm.RegisterPlugin(NewMockPlugin("layout", 300))
	pm.RegisterPlugin(NewMockPlugin("markdown", 100))
	pm.RegisterPlugin(nil)
	pm.RegisterPlugin(NewMockPlugin("seo", 200))
	pm.RegisterPlugin(NewMockPlugin("html", 100))

	assert.Equal(t, []string{
		"markdown (priority: 100)",
		"html (priority: 100)",
		"seo (priority: 200)",
		"layout (priority: 300)",
	}, pm.ListPlugins())
}

func TestGetPluginsForPage(t *testing.T) {
	pm := NewPluginManager()
	pm.RegisterPlugin(NewMockPlugin("all", 100))
	pm.RegisterPlugin(NewMockPlugin("blog-only", 200).WithCanProcessFunc(func(p *Page) bool {
		return p.Section == SectionBlog
	}))

	assert.Len(t, pm.GetPluginsForPage(NewPage("content/about.md", time.Time{})), 1)
	assert.Len(t, pm.GetPluginsForPage(NewPage("content/blog/post.md", time.Time{})), 2)
	assert.Nil(t, pm.GetPluginsForPage(nil))
}

func TestProcessAppliesResultsInOrder(t *testing.T) {
	cm := NewContentManager(t.TempDir())
	pm := cm.GetPluginManager()

	pm.RegisterPlugin(NewMockPlugin("second", 200).WithProcessFunc(func(ctx *PluginContext) *PluginResult {
		return &PluginResult{
			Success:    true,
			Modified:   true,
			NewContent: append([]byte("<main>"), append(ctx.Page.Content, []byte("</main>")...)...),
		}
	}))
	pm.RegisterPlugin(NewMockPlugin("first", 100).WithProcessFunc(func(ctx *PluginContext) *PluginResult {
		ctx.Page.Metadata.Title = "Hello"
		return &PluginResult{
			Success:    true,
			Modified:   true,
			NewContent: []byte("body"),
			MimeType:   "text/html",
			Routes:     []string{"/hello"},
		}
	}))

	original := NewPage("content/hello.md", time.Time{})
	page, err := pm.Process(*original, cm)
	require.NoError(t, err)

	assert.Equal(t, "<main>body</main>", string(page.Content))
	assert.Equal(t, "text/html", page.MimeType)
	assert.Equal(t, []string{"/hello"}, page.Routes)
	assert.Equal(t, "Hello", page.Metadata.Title)

	assert.Empty(t, original.Content, "the input page is not modified")
	assert.Empty(t, original.Metadata.Title)
}

func TestProcessStopsOnFailure(t *testing.T) {
	cm := NewContentManager(t.TempDir())
	pm := cm.GetPluginManager()

	boom := errors.New("boom")
	after := NewMockPlugin("after", 200)
	pm.RegisterPlugin(NewMockPlugin("failing", 100).WithProcessFunc(func(*PluginContext) *PluginResult {
		return &PluginResult{Success: false, Error: boom}
	}))
	pm.RegisterPlugin(after)

	page, err := pm.Process(*NewPage("content/x.md", time.Time{}), cm)
	assert.Nil(t, page)
	assert.ErrorIs(t, err, boom)

	var perr *PluginError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "failing", perr.Plugin)
	assert.Equal(t, "content/x.md", perr.File)
	assert.Empty(t, after.Processed())
}

func TestProcessFailureWithoutError(t *testing.T) {
	cm := NewContentManager(t.TempDir())
	cm.GetPluginManager().RegisterPlugin(NewMockPlugin("nil", 100).WithProcessFunc(func(*PluginContext) *PluginResult {
		return nil
	}))

	_, err := cm.GetPluginManager().Process(*NewPage("content/x.md", time.Time{}), cm)
	assert.ErrorIs(t, err, ErrPluginFailed)
}

func TestProcessStopsAtDraft(t *testing.T) {
	cm := NewContentManager(t.TempDir())
	pm := cm.GetPluginManager()

	later := NewMockPlugin("later", 200)
	pm.RegisterPlugin(NewMockPlugin("frontmatter", 100).WithProcessFunc(func(ctx *PluginContext) *PluginResult {
		ctx.Page.Metadata.Draft = true
		return &PluginResult{Success: true}
	}))
	pm.RegisterPlugin(later)

	page, err := pm.Process(*NewPage("content/draft.md", time.Time{}), cm)
	require.NoError(t, err)
	assert.True(t, page.Metadata.Draft)
	assert.Empty(t, later.Processed())
}

func TestPluginManagerReset(t *testing.T) {
	pm := NewPluginManager()
	mock := NewMockPlugin("stateful", 100)
	pm.RegisterPlugin(mock)

	require.NoError(t, pm.Reset())
	require.NoError(t, pm.Reset())
	assert.Equal(t, 2, mock.Resets())
}

func TestPluginManagerConcurrentAccess(t *testing.T) {
	pm := NewPluginManager()
	page := NewPage("content/a.md", time.Time{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			pm.RegisterPlugin(NewMockPlugin("p", 100))
		}()
		go func() {
			defer wg.Done()
			pm.GetPluginsForPage(page)
			pm.ListPlugins()
		}()
	}
	wg.Wait()

	assert.Len(t, pm.ListPlugins(), 10)
}

type failingCommitter struct {
	*MockPlugin
	err error
}

func (f *failingCommitter) Commit([]*Page) error {
	return f.err
}

func TestPluginManagerCommit(t *testing.T) {
	pm := NewPluginManager()
	mock := NewMockPlugin("listing", 300)
	pm.RegisterPlugin(mock)

	pages := []*Page{NewPage("content/a.md", time.Time{}), NewPage("content/b.md", time.Time{})}
	require.NoError(t, pm.Commit(pages))
	assert.Equal(t, [][]string{{"content/a.md", "content/b.md"}}, mock.Committed())

	boom := errors.New("boom")
	pm.RegisterPlugin(&failingCommitter{MockPlugin: NewMockPlugin("index", 1000), err: boom})
	err := pm.Commit(pages)
	assert.ErrorIs(t, err, boom)

	var perr *PluginError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "index", perr.Plugin)
}
