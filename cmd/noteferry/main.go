package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"noteferry/internal/adapters/filesystem"
	"noteferry/internal/adapters/markdown"
	"noteferry/internal/adapters/noteapi"
	"noteferry/internal/adapters/sqlite"
	"noteferry/internal/adapters/tui"
	"noteferry/internal/application"
	"noteferry/internal/config"
)

func main() {
	// The terminal belongs to the TUI; logs would tear the screen.
	log := slog.New(slog.DiscardHandler)

	vault := filesystem.NewVault(config.VaultPath())
	cache := sqlite.NewCache()
	if err := cache.Open(config.VaultPath()); err != nil {
		// The cache is advisory; scanning works without it.
		cache = nil
	}
	defer func() {
		if cache != nil {
			cache.Close()
		}
	}()

	client := noteapi.NewClient(noteapi.Options{
		BaseURL: config.APIURL(),
		Token:   config.Token(),
		Logger:  log,
	})

	events := tui.NewEventChannel()
	onRun, onDoc := tui.TrackerCallbacks(events)

	var index *application.Index
	if cache != nil {
		index = application.NewIndex(vault, cache, log)
	} else {
		index = application.NewIndex(vault, nil, log)
	}
	tracker := application.NewTracker(onRun, onDoc)
	importer := application.NewImporter(
		vault,
		index,
		markdown.NewConverter(),
		tui.NewResolver(events),
		tracker,
		application.NewFailureRegistry(),
		log,
	)

	app := tui.NewApp(client, index, importer, events, application.Options{})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
