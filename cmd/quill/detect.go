package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/quill/internal/citation"
	"github.com/matsen/quill/internal/importer"
)

func init() {
	rootCmd.AddCommand(detectCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "List the citation markers in a document",
	Long: `List the parenthetical author-year citation markers in a document.

Offsets are byte offsets into the imported text.

Examples:
  quill detect draft.docx
  quill detect notes.txt --human`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

// DetectResponse is the response for the detect command.
type DetectResponse struct {
	File    string            `json:"file"`
	Count   int               `json:"count"`
	Markers []citation.Marker `json:"markers"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	doc := mustImport(args[0])
	markers := citation.FindCitations(doc.Text)

	if humanOutput {
		fmt.Println(highlightMarkers(doc.Text, markers))
		fmt.Println()
		outputHuman("%d citation(s) found\n", len(markers))
		return nil
	}
	if markers == nil {
		markers = []citation.Marker{}
	}
	return outputJSON(DetectResponse{File: args[0], Count: len(markers), Markers: markers})
}

// mustImport reads and imports a document, exits on error.
func mustImport(path string) importer.Document {
	data, err := os.ReadFile(path)
	if err != nil {
		exitWithError(ExitError, "reading %s: %v", path, err)
	}
	doc, err := importer.Import(filepath.Base(path), data)
	if err != nil {
		exitWithError(exitCodeFor(err), "importing %s: %v", path, err)
	}
	return doc
}
