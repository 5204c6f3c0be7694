package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/quill/internal/citation"
	"github.com/matsen/quill/internal/markup"
	"github.com/matsen/quill/internal/session"
)

var (
	fallbackTitle       string
	fallbackAuthor      string
	fallbackYear        string
	fallbackPublication string
	fallbackURL         string
)

func init() {
	fallbackCmd.Flags().StringVar(&fallbackTitle, "title", "", "Source title (required)")
	fallbackCmd.Flags().StringVar(&fallbackAuthor, "author", "", "Source author(s) (required)")
	fallbackCmd.Flags().StringVar(&fallbackYear, "year", "", "Publication year")
	fallbackCmd.Flags().StringVar(&fallbackPublication, "publication", "", "Journal, publisher or site")
	fallbackCmd.Flags().StringVar(&fallbackURL, "url", "", "Source URL")
	rootCmd.AddCommand(fallbackCmd)
}

var fallbackCmd = &cobra.Command{
	Use:   "cite-fallback",
	Short: "Format a citation locally without the formatting service",
	Long: `Format a citation from source fields alone, the same way a session does
when the formatting service is unavailable.

Examples:
  quill cite-fallback --title "Deep Learning" --author "LeCun, Y., Bengio, Y., Hinton, G." --year 2015
  quill cite-fallback --title Notes --author Doe --human`,
	Args: cobra.NoArgs,
	RunE: runFallback,
}

func runFallback(cmd *cobra.Command, args []string) error {
	src, err := session.ManualSource(fallbackTitle, fallbackAuthor, fallbackYear, fallbackPublication, fallbackURL)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	res := citation.Fallback(src).Normalized()
	if humanOutput {
		fmt.Println(res.InText)
		fmt.Println(markup.ToPlain(res.Bibliography))
		return nil
	}
	return outputJSON(res)
}
