// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the addrcomplete address autocomplete client.

As the user types into the address field, input is debounced, the HERE
autocomplete API is queried, and matching addresses are shown in a dropdown
under the field. Picking one fills the field.

# Usage

Start the full-screen widget:

	addrcomplete

The provider key is read from the environment (ADDRCOMPLETE_API_KEY by
default, see api_key_env in the config). A .env file in the working directory
or the config directory is loaded first:

	ADDRCOMPLETE_API_KEY=... addrcomplete

Run the line-oriented CLI, one query per line:

	addrcomplete -c

Serve msgpack IPC over stdin/stdout for editor integration:

	addrcomplete -s

Show a status message above the field, as the surrounding form would:

	addrcomplete -success "Your registration was successful!"

# Configuration

Runtime configuration lives in a TOML file that is created with defaults if
it doesn't exist ([UserConfigDir]/addrcomplete/config.toml):

	[provider]
	endpoint = "https://autocomplete.geocoder.ls.hereapi.com/6.2/suggest.json"
	api_key_env = "ADDRCOMPLETE_API_KEY"
	timeout_ms = 5000
	rate_per_second = 5.0

	[widget]
	debounce_ms = 500
	viewport_threshold = 900
	background_offset = 150
	cell_width = 8

	[cache]
	enabled = true
	max_entries = 512
	file = "cache.msgpack"

# Command Line Flags

	-config string
	    Path to a config file (default [UserConfigDir]/addrcomplete/config.toml)
	-d  Enable debug logging
	-c  Run the line-oriented CLI
	-s  Serve msgpack IPC on stdin/stdout
	-success string
	    Success message shown above the field
	-error string
	    Error message shown above the field
	-no-cache
	    Skip the lookup cache for this run
	-version
	    Show current version
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/bastiangx/addrcomplete/internal/cli"
	"github.com/bastiangx/addrcomplete/internal/logger"
	"github.com/bastiangx/addrcomplete/internal/tui"
	"github.com/bastiangx/addrcomplete/internal/utils"
	"github.com/bastiangx/addrcomplete/pkg/cache"
	"github.com/bastiangx/addrcomplete/pkg/config"
	"github.com/bastiangx/addrcomplete/pkg/geocode"
	"github.com/bastiangx/addrcomplete/pkg/server"
	"github.com/bastiangx/addrcomplete/pkg/widget"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
)

const (
	Version = "0.3.0-beta"
	AppName = "addrcomplete"
	gh      = "https://github.com/bastiangx/addrcomplete"
)

// main wires config, the provider client and one of the three front ends.
// It does not implement logic for them and only manages the flow.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to a config file")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run the line-oriented CLI")
	serverMode := flag.Bool("s", false, "Serve msgpack IPC on stdin/stdout")
	success := flag.String("success", "", "Success message shown above the field")
	errorMsg := flag.String("error", "", "Error message shown above the field")
	noCache := flag.Bool("no-cache", false, "Skip the lookup cache for this run")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, activePath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(activePath))

	paths := utils.NewPathResolver()
	apiKey, err := cfg.ResolveAPIKey(".env", filepath.Join(paths.GetConfigDir(), ".env"))
	if err != nil {
		log.Fatalf("Cannot start without provider credentials: %v", err)
	}

	client, err := geocode.NewClient(geocode.Options{
		Endpoint:      cfg.Provider.Endpoint,
		APIKey:        apiKey,
		Timeout:       cfg.Provider.Timeout(),
		MaxResults:    cfg.Provider.MaxResults,
		RatePerSecond: cfg.Provider.RatePerSecond,
		Burst:         cfg.Provider.Burst,
	})
	if err != nil {
		log.Fatalf("Failed to init provider client: %v", err)
	}

	var source geocode.Source = client
	var saveOnce sync.Once
	saveCache := func() {}
	cachePath := paths.ResolvePath(cfg.Cache.File)
	if cfg.Cache.Enabled && !*noCache && cachePath == "" {
		log.Warnf("Cache file path is empty, caching disabled")
	} else if cfg.Cache.Enabled && !*noCache {
		store := cache.New(cfg.Cache.MaxEntries)
		if err := store.Load(cachePath); err != nil {
			log.Warnf("Starting with an empty cache: %v", err)
		}
		source = geocode.NewCachedSource(client, store)
		saveCache = func() {
			saveOnce.Do(func() {
				if err := store.Save(cachePath); err != nil {
					log.Warnf("Failed to save cache: %v", err)
				}
			})
		}
	}
	defer saveCache()

	switch {
	case *serverMode:
		sigHandler(ctx, saveCache)
		log.SetOutput(os.Stderr)
		log.Debug("spawning IPC")
		srv := server.NewServer(source, os.Stdin, os.Stdout)
		if err := srv.Start(ctx); err != nil {
			log.Errorf("IPC error: %v", err)
		}

	case *cliMode:
		sigHandler(ctx, saveCache)
		log.SetReportTimestamp(false)
		width, _, err := term.GetSize(os.Stdout.Fd())
		if err != nil {
			width = 0
		}
		inputHandler := cli.NewInputHandler(source, os.Stdin, os.Stdout, 0, width)
		if err := inputHandler.Start(ctx); err != nil {
			log.Errorf("CLI error: %v", err)
		}

	default:
		logPath := paths.GetConfigPath(AppName + ".log")
		if logFile, err := logger.RedirectToFile(logPath); err != nil {
			log.Warnf("Logging to stderr, cannot open %s: %v", logPath, err)
		} else {
			defer logFile.Close()
		}

		opts := widget.Options{
			Page: widget.Page{
				Heading:     cfg.Page.Heading,
				Description: cfg.Page.Description,
				Success:     *success,
				Error:       *errorMsg,
			},
			Source:   source,
			Debounce: cfg.Widget.Debounce(),
			Layout: widget.Layout{
				Threshold: cfg.Widget.ViewportThreshold,
				Offset:    cfg.Widget.BackgroundOffset,
			},
		}
		err := tui.Run(opts, cfg.Widget.CellWidth, tea.WithContext(ctx))
		switch {
		case errors.Is(err, widget.ErrMissingElement):
			// the default logger writes to the file by now
			logger.New(AppName).Fatalf("Cannot mount widget: %v", err)
		case err != nil && !errors.Is(err, tea.ErrProgramKilled):
			log.Errorf("Widget error: %v", err)
		}
	}
}

// sigHandler exits once ctx is cancelled by a signal. The line and IPC modes
// block on stdin reads, so they cannot notice the cancellation themselves.
func sigHandler(ctx context.Context, cleanup func()) {
	go func() {
		<-ctx.Done()
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cleanup()
		os.Exit(0)
	}()
}

// printVersion shows a small styled banner.
func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print(fmt.Sprintf("[ %s ] Address suggestions as you type", AppName))
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}
