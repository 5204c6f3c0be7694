// Package main provides the quill CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/quill/internal/config"
	"github.com/matsen/quill/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
	configPath  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set, so cobra errors (bad flags, missing args) are printed here
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Citation insertion and bibliography consistency for prose documents",
	Long: `quill inserts citations into prose and keeps the bibliography consistent.

Core features:
  - Source search for a selected passage (chat assistant or Semantic Scholar)
  - Styled in-text citations with a deduplicated, sorted bibliography
  - Undo/redo history with coalesced typing
  - Import from txt, docx, pptx, pdf and doc; export to docx, pptx, pdf, md and bib

All commands output JSON by default; use --human for readable text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/quill/config.yml)")
	rootCmd.Version = Version
}

// mustLoadSettings reads .env, the config file and the environment, exits on error.
func mustLoadSettings() *config.Settings {
	// A missing .env is fine
	_ = godotenv.Load()

	path := configPath
	if path == "" {
		path = config.GlobalConfigPath()
	}
	settings, err := config.Load(path, os.Getenv)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return settings
}

// mustLogger builds the process logger, exits on error.
func mustLogger() *zap.Logger {
	logger, err := logging.New(verbose)
	if err != nil {
		exitWithError(ExitError, "creating logger: %v", err)
	}
	return logger
}
