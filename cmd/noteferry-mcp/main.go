package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"noteferry/internal/adapters/filesystem"
	"noteferry/internal/adapters/markdown"
	mcpadapter "noteferry/internal/adapters/mcp"
	"noteferry/internal/adapters/noteapi"
	"noteferry/internal/adapters/sqlite"
	"noteferry/internal/application"
	"noteferry/internal/config"
)

func main() {
	vaultFlag := flag.String("vault", config.VaultPath(), "path to the vault")
	flag.Parse()

	// stdout carries the protocol; logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	vault := filesystem.NewVault(*vaultFlag)
	cache := sqlite.NewCache()
	var index *application.Index
	if err := cache.Open(*vaultFlag); err != nil {
		logger.Warn("scan cache unavailable", "error", err)
		index = application.NewIndex(vault, nil, logger)
	} else {
		defer cache.Close()
		index = application.NewIndex(vault, cache, logger)
	}

	fetcher := noteapi.NewClient(noteapi.Options{
		BaseURL: config.APIURL(),
		Token:   config.Token(),
		Logger:  logger,
	})

	importer := application.NewImporter(
		vault,
		index,
		markdown.NewConverter(),
		mcpadapter.AutoResolver{},
		application.NewTracker(nil, nil),
		application.NewFailureRegistry(),
		logger,
	)

	mcpServer := server.NewMCPServer(
		"noteferry-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check — returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterImportTools(mcpServer, mcpadapter.Deps{
		Fetcher:  fetcher,
		Index:    index,
		Importer: importer,
	})

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("noteferry-mcp: %v", err)
	}
}
