package main

import (
	"fmt"
	"os"

	"folio/cmd"
	"folio/core"
	"folio/plugins"
)

func initializeContent(ctx *core.Context) error {
	// Register the builtin plugins, then run them on every file of the site
	if err := plugins.RegisterBuiltins(ctx); err != nil {
		return fmt.Errorf("failed to register plugins: %w", err)
	}
	return ctx.Content.Reload()
}

func main() {
	var err error
	var ctx core.Context

	// parse command line arguments
	ctx.Config, err = core.ParseCommandLineArguments()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// If requested, print the version and leave
	if ctx.Config.Mode == core.ModeVersion {
		cmd.PrintVersion(os.Stdout)
		return
	}

	// The sitemap goes to stdout, so keep the logs out of it
	logger := core.NewLogger(ctx.Config.LogLevel)
	if ctx.Config.Mode == core.ModeSitemap {
		logger = core.NewStderrLogger(ctx.Config.LogLevel)
	}
	core.SetGlobalLogger(logger)
	defer logger.Sync()

	// Now read all yaml files
	if err = core.InitializeContext(&ctx); err != nil {
		core.Fatal("failed to initialize context: %v", err)
	}

	// Load and render the site
	if err = initializeContent(&ctx); err != nil {
		core.Fatal("failed to load site: %v", err)
	}

	switch ctx.Config.Mode {
	case core.ModeExport:
		err = cmd.Export(&ctx)
	case core.ModeSitemap:
		err = cmd.PrintSitemap(&ctx, os.Stdout)
	default:
		err = cmd.Run(&ctx)
	}
	if err != nil {
		core.Fatal("%s failed: %v", ctx.Config.Mode, err)
	}
}
