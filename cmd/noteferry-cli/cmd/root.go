package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"noteferry/internal/adapters/filesystem"
	"noteferry/internal/adapters/noteapi"
	"noteferry/internal/adapters/sqlite"
	"noteferry/internal/application"
	"noteferry/internal/config"
	"noteferry/internal/ports"
)

var (
	vaultPath string
	apiURL    string
	apiToken  string
	verbose   bool

	vault   ports.Vault
	fetcher ports.Fetcher
	index   *application.Index
	cache   *sqlite.Cache
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "noteferry-cli",
	Short: "CLI for importing remote documents into a markdown vault",
	Long: `noteferry-cli imports documents from a remote note service into a
local markdown vault.

It provides commands to check which documents are new, changed, or
conflicting, and to run the import itself.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		vault = filesystem.NewVault(vaultPath)
		fetcher = noteapi.NewClient(noteapi.Options{
			BaseURL: apiURL,
			Token:   apiToken,
			Logger:  logger,
		})

		cache = sqlite.NewCache()
		if err := cache.Open(vaultPath); err != nil {
			logger.Warn("scan cache unavailable", "error", err)
			cache = nil
		}
		if cache != nil {
			index = application.NewIndex(vault, cache, logger)
		} else {
			index = application.NewIndex(vault, nil, logger)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cache != nil {
			cache.Close()
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&vaultPath, "vault", "v", config.VaultPath(), "path to the vault")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", config.APIURL(), "remote note service URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", config.Token(), "API token for the remote note service")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log debug detail to stderr")
}
