package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/quill/internal/config"
	"github.com/matsen/quill/internal/history"
	"github.com/matsen/quill/internal/session"
)

func init() {
	rootCmd.AddCommand(sessionCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session [file]",
	Short: "Start an interactive editing session",
	Long: `Start an interactive editing session reading commands from stdin.

The session holds one document, its bibliography, undo history and a
source library in memory. Nothing is persisted; use "export" or
"bib-save" before quitting. Type "help" for the command list.

Examples:
  quill session draft.docx --human
  printf 'find neural nets\nsearch\ncite 1\nbib\n' | quill session draft.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSession,
}

func runSession(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()
	logger := mustLogger()
	defer func() { _ = logger.Sync() }()

	if settings.Credentials.AssistantAPIKey == "" && humanOutput {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		fmt.Fprintln(os.Stderr)
	}

	collab := newCollaborators(settings, logger)
	sess, err := session.New(session.Options{
		Searcher:  collab.Searcher,
		Formatter: collab.Formatter,
		Logger:    logger,
		Locale:    settings.Locale,
		Style:     settings.Style,
		History:   []history.Option{history.WithDelay(settings.CoalesceDelay)},
	})
	if err != nil {
		exitWithError(ExitError, "starting session: %v", err)
	}
	defer sess.Close()

	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			exitWithError(ExitError, "reading %s: %v", args[0], err)
		}
		if _, err := sess.Load(filepath.Base(args[0]), data); err != nil {
			exitWithError(exitCodeFor(err), "%v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := newREPL(sess, os.Stdout, humanOutput)
	return r.run(ctx, os.Stdin)
}
