package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Extract the text of a document",
	Long: `Extract the plain text of a document.

Supported types: .txt, .docx, .pptx, .pdf, .doc

Examples:
  quill import paper.pdf
  quill import slides.pptx --human`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	doc := mustImport(args[0])
	if humanOutput {
		fmt.Println(doc.Text)
		if doc.DOI != "" {
			outputHuman("\nDOI: %s\n", doc.DOI)
		}
		return nil
	}
	return outputJSON(doc)
}
