package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/quill/internal/bibliography"
	"github.com/matsen/quill/internal/export"
	"github.com/matsen/quill/internal/style"
)

var (
	exportOut    string
	exportBib    string
	exportStyle  string
	exportFormat string
)

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path (required)")
	exportCmd.Flags().StringVar(&exportBib, "bib", "", "Bibliography entries as JSONL")
	exportCmd.Flags().StringVar(&exportStyle, "style", "", "Citation style for the reference list heading")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Output format (docx, pptx, pdf, md, bib); inferred from --out by default")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export a document with its bibliography",
	Long: `Export a document and its bibliography to docx, pptx, pdf, Markdown or BibTeX.

The bibliography is read from a JSONL file as written by the session
command "bib-save". Nothing is written if rendering fails.

Examples:
  quill export draft.txt --out draft.docx --bib refs.jsonl
  quill export draft.txt --out slides.pptx --style ieee
  quill export draft.txt --out refs.bib --bib refs.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()

	f, err := outputFormat(exportOut, exportFormat)
	if err != nil {
		exitWithError(ExitUnsupported, "%v (valid: %s)", err, formatNames())
	}

	st := settings.Style
	if exportStyle != "" {
		st, err = style.Parse(exportStyle)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}

	doc := mustImport(args[0])

	store := bibliography.NewStore(settings.Locale)
	if exportBib != "" {
		entries := mustReadEntries(exportBib)
		store.Replace(entries)
	}

	var buf bytes.Buffer
	err = export.Write(&buf, f, export.Document{
		Title:   strings.TrimSuffix(doc.Name, filepath.Ext(doc.Name)),
		Text:    doc.Text,
		Entries: store.Entries(),
		Style:   st,
	})
	if err != nil {
		exitWithError(exitCodeFor(err), "exporting %s: %v", exportOut, err)
	}
	if err := os.WriteFile(exportOut, buf.Bytes(), 0o644); err != nil {
		exitWithError(ExitError, "writing %s: %v", exportOut, err)
	}

	if humanOutput {
		outputHuman("Exported %s (%s, %d reference(s))\n", exportOut, f, store.Len())
		return nil
	}
	return outputJSON(StatusResponse{Status: "exported", Path: exportOut})
}

// outputFormat resolves the export format from an explicit name or the path.
func outputFormat(path, name string) (export.Format, error) {
	if name != "" {
		return export.ParseFormat(name)
	}
	return export.FormatFromPath(path)
}

func formatNames() string {
	formats := export.Formats()
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// mustReadEntries reads bibliography entries from a JSONL file, exits on error.
func mustReadEntries(path string) []bibliography.Entry {
	fh, err := os.Open(path)
	if err != nil {
		exitWithError(ExitError, "opening %s: %v", path, err)
	}
	defer fh.Close()

	entries, err := bibliography.ReadJSONL(fh)
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", path, err)
	}
	return entries
}
