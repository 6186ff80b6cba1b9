package cmd

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"folio/core"
)

const redirectDocument = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><meta http-equiv="refresh" content="0; url=%[1]s"><link rel="canonical" href="%[1]s"></head>
<body><a href="%[1]s">%[1]s</a></body></html>
`

// Export writes the site as static files into Config.OutDirectory: every route, the
// assets directory, sitemap.xml and robots.txt
func Export(ctx *core.Context) error {
	outDir := ctx.Config.OutDirectory
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", outDir, err)
	}

	g, gctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.NumCPU())

	// "/" and "/index.html" end up in the same file; write it once
	written := make(map[string]bool)
	routes := ctx.Content.Routes()
	for _, route := range routes {
		page, err := ctx.Content.Lookup(route)
		if err != nil {
			core.Warn("skipping %s: %v", route, err)
			continue
		}
		target := ExportPath(route, page)
		if written[target] {
			continue
		}
		written[target] = true

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return writeFile(outDir, target, exportBody(page))
		})
	}

	sm := ctx.Content.Sitemap(ctx.SiteURL())
	g.Go(func() error {
		return writeFile(outDir, "sitemap.xml", []byte(sm.GenerateXML()))
	})
	g.Go(func() error {
		return writeFile(outDir, "robots.txt", []byte(sm.GenerateRobotsTxt()))
	})
	g.Go(func() error {
		return copyAssets(gctx, filepath.Join(ctx.Config.SiteDirectory, core.AssetsDirectory), filepath.Join(outDir, core.AssetsDirectory))
	})

	if err := g.Wait(); err != nil {
		return err
	}

	core.Info("exported %d files for %d routes to %s", len(written), len(routes), outDir)
	return nil
}

// ExportPath maps a route to the file serving it on a static host. Routes with an
// extension keep their path; HTML routes without one become <route>/index.html.
func ExportPath(route string, page *core.Page) string {
	rel := strings.TrimPrefix(path.Clean(route), "/")
	if path.Ext(rel) != "" {
		return rel
	}
	if page.MimeType != "" && !strings.HasPrefix(page.MimeType, "text/html") && page.Metadata.RedirectUrl == "" {
		return rel
	}
	return path.Join(rel, "index.html")
}

func exportBody(page *core.Page) []byte {
	if page.Metadata.RedirectUrl != "" {
		return []byte(fmt.Sprintf(redirectDocument, html.EscapeString(page.Metadata.RedirectUrl)))
	}
	return page.Content
}

func writeFile(outDir, rel string, data []byte) error {
	target := filepath.Join(outDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to mkdir %s: %w", filepath.Dir(target), err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	return nil
}

// copyAssets copies the assets directory, skipping hidden files. A missing directory is not an error.
func copyAssets(ctx context.Context, src, dst string) error {
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == src {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p != src && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(p, target)
	})
	if err != nil {
		return fmt.Errorf("failed to copy assets: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
