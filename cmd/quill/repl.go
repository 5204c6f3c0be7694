package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/matsen/quill/internal/bibliography"
	"github.com/matsen/quill/internal/citation"
	"github.com/matsen/quill/internal/history"
	"github.com/matsen/quill/internal/markup"
	"github.com/matsen/quill/internal/reference"
	"github.com/matsen/quill/internal/session"
	"github.com/matsen/quill/internal/style"
)

var errQuit = errors.New("quit")

// replCommand is one session command.
type replCommand struct {
	usage string
	help  string
	run   func(ctx context.Context, args string) error
}

// repl drives a session from line-oriented input. Each command writes one
// JSON value (or readable text with human set) to out; command errors are
// reported the same way and do not end the loop.
type repl struct {
	sess     *session.Session
	out      io.Writer
	human    bool
	commands map[string]replCommand
}

func newREPL(sess *session.Session, out io.Writer, human bool) *repl {
	r := &repl{sess: sess, out: out, human: human}
	r.commands = map[string]replCommand{
		"show":      {"show", "Print the document and selection", r.cmdShow},
		"type":      {"type <text>", `Replace the document text (\n for newline)`, r.cmdType},
		"append":    {"append <text>", "Append to the document text", r.cmdAppend},
		"load":      {"load <path>", "Import a document, replacing the text", r.cmdLoad},
		"select":    {"select <start> <end>", "Select a byte range", r.cmdSelect},
		"find":      {"find <phrase>", "Select the first occurrence of a phrase", r.cmdFind},
		"unselect":  {"unselect", "Clear the selection", r.cmdUnselect},
		"search":    {"search", "Search sources for the selection", r.cmdSearch},
		"cite":      {"cite <n> [style]", "Cite the n-th search result after the selection", r.cmdCite},
		"cite-lib":  {"cite-lib <id> [style]", "Cite a library source after the selection", r.cmdCiteLib},
		"manual":    {"manual <title>|<author>|<year>|<publication>|<url>", "Cite a manually entered source", r.cmdManual},
		"bib":       {"bib", "List the bibliography", r.cmdBib},
		"bib-clear": {"bib-clear", "Remove every bibliography entry", r.cmdBibClear},
		"bib-rm":    {"bib-rm <id>", "Remove one bibliography entry", r.cmdBibRemove},
		"bib-save":  {"bib-save <path>", "Write the bibliography as JSONL", r.cmdBibSave},
		"undo":      {"undo", "Undo the last change", r.cmdUndo},
		"redo":      {"redo", "Redo the last undone change", r.cmdRedo},
		"diff":      {"diff", "Show the last change", r.cmdDiff},
		"lib":       {"lib", "List the source library", r.cmdLib},
		"lib-add":   {"lib-add <n>", "Save the n-th search result to the library", r.cmdLibAdd},
		"lib-rm":    {"lib-rm <id>", "Remove a library source", r.cmdLibRemove},
		"export":    {"export <path> [format]", "Export the document and bibliography", r.cmdExport},
		"copy":      {"copy", "Copy plain text to the clipboard", r.cmdCopy},
		"highlight": {"highlight", "Show the citation markers in the document", r.cmdHighlight},
		"style":     {"style [name]", "Show or set the default citation style", r.cmdStyle},
		"help":      {"help", "List commands", r.cmdHelp},
		"quit":      {"quit", "End the session", func(context.Context, string) error { return errQuit }},
	}
	r.commands["exit"] = r.commands["quit"]
	return r
}

// run reads commands until EOF, quit or context cancellation.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), bibliography.MaxJSONLLineCapacity)

	for {
		if r.human {
			fmt.Fprint(r.out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if err := r.exec(ctx, scanner.Text()); errors.Is(err, errQuit) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// exec runs one command line. Only errQuit is returned; other errors are
// written to out.
func (r *repl) exec(ctx context.Context, line string) error {
	name, args, _ := strings.Cut(strings.TrimLeft(line, " \t"), " ")
	if name == "" || strings.HasPrefix(name, "#") {
		return nil
	}
	cmd, ok := r.commands[name]
	if !ok {
		r.fail(fmt.Errorf("unknown command %q (try help)", name))
		return nil
	}
	if name != "type" && name != "append" {
		args = strings.TrimSpace(args)
	}
	err := cmd.run(ctx, args)
	if errors.Is(err, errQuit) {
		return err
	}
	if err != nil {
		r.fail(err)
	}
	return nil
}

// emit writes v as JSON, or calls human when readable output is on.
func (r *repl) emit(v interface{}, human func(w io.Writer)) error {
	if r.human {
		human(r.out)
		return nil
	}
	return writeJSON(r.out, v)
}

func (r *repl) fail(err error) {
	hint := collaboratorHint(err)
	if r.human {
		fmt.Fprintf(r.out, "error: %v\n", err)
		if hint != "" {
			fmt.Fprintf(r.out, "hint: %s\n", hint)
		}
		return
	}
	resp := ErrorResponse{Error: err.Error(), Hint: hint}
	if k := session.KindOf(err); k != session.KindUnknown {
		resp.Kind = k.String()
	}
	_ = writeJSON(r.out, resp)
}

var unescaper = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\\`, `\`)

// ShowResponse is the response for the show command.
type ShowResponse struct {
	Title     string          `json:"title,omitempty"`
	Text      string          `json:"text"`
	Selection *session.Anchor `json:"selection,omitempty"`
	Style     string          `json:"style"`
	History   HistoryInfo     `json:"history"`
}

// HistoryInfo describes the position in the undo history.
type HistoryInfo struct {
	Index   int  `json:"index"`
	Length  int  `json:"length"`
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

func (r *repl) historyInfo() HistoryInfo {
	idx, n := r.sess.HistoryPosition()
	return HistoryInfo{Index: idx, Length: n, CanUndo: r.sess.CanUndo(), CanRedo: r.sess.CanRedo()}
}

func (r *repl) cmdShow(_ context.Context, _ string) error {
	resp := ShowResponse{
		Title:   r.sess.Title(),
		Text:    r.sess.Text(),
		Style:   r.sess.Style().String(),
		History: r.historyInfo(),
	}
	if a, ok := r.sess.Selection(); ok {
		resp.Selection = &a
	}
	return r.emit(resp, func(w io.Writer) {
		if resp.Title != "" {
			fmt.Fprintln(w, headingStyle.Render(resp.Title))
		}
		text := resp.Text
		if a := resp.Selection; a != nil {
			text = text[:a.Start] + selectedStyle.Render(a.Text) + text[a.End:]
		}
		fmt.Fprintln(w, text)
		if a := resp.Selection; a != nil {
			fmt.Fprintf(w, "\nselection [%d, %d)\n", a.Start, a.End)
		}
		fmt.Fprintf(w, "style: %s  history: %d/%d\n", resp.Style, resp.History.Index+1, resp.History.Length)
	})
}

// TextResponse reports the document length after an edit.
type TextResponse struct {
	Length int `json:"length"`
}

func (r *repl) setText(text string) error {
	r.sess.SetText(text)
	return r.emit(TextResponse{Length: len(text)}, func(w io.Writer) {
		fmt.Fprintf(w, "%d bytes\n", len(text))
	})
}

func (r *repl) cmdType(_ context.Context, args string) error {
	return r.setText(unescaper.Replace(args))
}

func (r *repl) cmdAppend(_ context.Context, args string) error {
	return r.setText(r.sess.Text() + unescaper.Replace(args))
}

// LoadResponse is the response for the load command.
type LoadResponse struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Length int    `json:"length"`
	DOI    string `json:"doi,omitempty"`
}

func (r *repl) cmdLoad(_ context.Context, args string) error {
	if args == "" {
		return errors.New("usage: load <path>")
	}
	data, err := os.ReadFile(args)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args, err)
	}
	doc, err := r.sess.Load(filepath.Base(args), data)
	if err != nil {
		return err
	}
	resp := LoadResponse{Name: doc.Name, Format: doc.Format, Length: len(doc.Text), DOI: doc.DOI}
	return r.emit(resp, func(w io.Writer) {
		fmt.Fprintf(w, "Loaded %s (%s, %d bytes)\n", resp.Name, resp.Format, resp.Length)
	})
}

func (r *repl) emitAnchor(a session.Anchor) error {
	return r.emit(a, func(w io.Writer) {
		fmt.Fprintf(w, "selected [%d, %d): %s\n", a.Start, a.End, a.Text)
	})
}

func (r *repl) cmdSelect(_ context.Context, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return errors.New("usage: select <start> <end>")
	}
	start, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("invalid start %q", fields[0])
	}
	end, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("invalid end %q", fields[1])
	}
	a, err := r.sess.Select(start, end)
	if err != nil {
		return err
	}
	return r.emitAnchor(a)
}

func (r *repl) cmdFind(_ context.Context, args string) error {
	if args == "" {
		return errors.New("usage: find <phrase>")
	}
	i := strings.Index(r.sess.Text(), args)
	if i < 0 {
		return fmt.Errorf("phrase %q not found", args)
	}
	a, err := r.sess.Select(i, i+len(args))
	if err != nil {
		return err
	}
	return r.emitAnchor(a)
}

func (r *repl) cmdUnselect(_ context.Context, _ string) error {
	r.sess.ClearSelection()
	return r.emit(StatusResponse{Status: "cleared"}, func(w io.Writer) {
		fmt.Fprintln(w, "selection cleared")
	})
}

func (r *repl) cmdSearch(ctx context.Context, _ string) error {
	res, err := r.sess.Search(ctx)
	if err != nil {
		return err
	}
	return r.emit(res, func(w io.Writer) {
		if res.Len() == 0 {
			fmt.Fprintln(w, "No sources found")
			return
		}
		n := 1
		for _, group := range []struct {
			name    string
			sources []reference.Source
		}{{"Suggested", res.Suggested}, {"Related", res.Related}} {
			if len(group.sources) == 0 {
				continue
			}
			fmt.Fprintln(w, headingStyle.Render(group.name))
			for _, src := range group.sources {
				fmt.Fprintf(w, "%2d. %s\n", n, formatSourceLine(src))
				if src.Snippet != "" {
					fmt.Fprintf(w, "    %s\n", truncateString(src.Snippet, SnippetMaxLen))
				}
				n++
			}
		}
	})
}

// resultAt returns the n-th (1-based) source of the last search.
func (r *repl) resultAt(arg string) (reference.Source, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return reference.Source{}, fmt.Errorf("invalid result number %q", arg)
	}
	res := r.sess.Results()
	src, ok := res.At(n - 1)
	if !ok {
		return reference.Source{}, fmt.Errorf("no search result %d (have %d)", n, res.Len())
	}
	return src, nil
}

// splitStyle separates the first argument from an optional style name.
func splitStyle(args string) (string, style.Style, error) {
	first, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return first, "", nil
	}
	st, err := style.Parse(rest)
	return first, st, err
}

func (r *repl) emitCite(res session.CiteResult) error {
	return r.emit(res, func(w io.Writer) {
		fmt.Fprintln(w, markup.ToPlain(res.Entry.Text))
		switch {
		case !res.Inserted:
			fmt.Fprintln(w, "(already in bibliography)")
		case res.Fallback:
			fmt.Fprintln(w, "(formatted locally)")
		}
	})
}

func (r *repl) cmdCite(ctx context.Context, args string) error {
	arg, st, err := splitStyle(args)
	if err != nil {
		return err
	}
	if arg == "" {
		return errors.New("usage: cite <n> [style]")
	}
	src, err := r.resultAt(arg)
	if err != nil {
		return err
	}
	res, err := r.sess.Cite(ctx, src, st)
	if err != nil {
		return err
	}
	return r.emitCite(res)
}

func (r *repl) cmdCiteLib(ctx context.Context, args string) error {
	id, st, err := splitStyle(args)
	if err != nil {
		return err
	}
	if id == "" {
		return errors.New("usage: cite-lib <id> [style]")
	}
	res, err := r.sess.CiteFromLibrary(ctx, id, st)
	if err != nil {
		return err
	}
	return r.emitCite(res)
}

func (r *repl) cmdManual(ctx context.Context, args string) error {
	fields := strings.Split(args, "|")
	for len(fields) < 5 {
		fields = append(fields, "")
	}
	src, err := session.ManualSource(fields[0], fields[1], fields[2], fields[3], fields[4])
	if err != nil {
		return err
	}
	res, err := r.sess.Cite(ctx, src, "")
	if err != nil {
		return err
	}
	return r.emitCite(res)
}

func (r *repl) cmdBib(_ context.Context, _ string) error {
	entries := r.sess.Bibliography()
	if entries == nil {
		entries = []bibliography.Entry{}
	}
	st := r.sess.Style()
	return r.emit(entries, func(w io.Writer) {
		fmt.Fprintln(w, headingStyle.Render(st.Heading()))
		for i, e := range entries {
			fmt.Fprintf(w, "%s%s\n    id: %s\n", st.Label(i), markup.ToPlain(e.Text), e.ID)
		}
	})
}

func (r *repl) cmdBibClear(_ context.Context, _ string) error {
	r.sess.ClearBibliography()
	return r.emit(StatusResponse{Status: "cleared"}, func(w io.Writer) {
		fmt.Fprintln(w, "bibliography cleared")
	})
}

func (r *repl) cmdBibRemove(_ context.Context, args string) error {
	if err := r.sess.RemoveEntry(args); err != nil {
		return err
	}
	return r.emit(StatusResponse{Status: "removed"}, func(w io.Writer) {
		fmt.Fprintf(w, "removed %s\n", args)
	})
}

func (r *repl) cmdBibSave(_ context.Context, args string) error {
	if args == "" {
		return errors.New("usage: bib-save <path>")
	}
	var buf bytes.Buffer
	if err := bibliography.WriteJSONL(&buf, r.sess.Bibliography()); err != nil {
		return err
	}
	if err := os.WriteFile(args, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", args, err)
	}
	return r.emit(StatusResponse{Status: "saved", Path: args}, func(w io.Writer) {
		fmt.Fprintf(w, "saved %s\n", args)
	})
}

// ChangeResponse reports whether an undo or redo changed state.
type ChangeResponse struct {
	Changed bool        `json:"changed"`
	History HistoryInfo `json:"history"`
}

func (r *repl) emitChange(op string, changed bool) error {
	resp := ChangeResponse{Changed: changed, History: r.historyInfo()}
	return r.emit(resp, func(w io.Writer) {
		if !changed {
			fmt.Fprintf(w, "nothing to %s\n", op)
			return
		}
		fmt.Fprintf(w, "%s: %d/%d\n", op, resp.History.Index+1, resp.History.Length)
	})
}

func (r *repl) cmdUndo(_ context.Context, _ string) error {
	return r.emitChange("undo", r.sess.Undo())
}

func (r *repl) cmdRedo(_ context.Context, _ string) error {
	return r.emitChange("redo", r.sess.Redo())
}

func (r *repl) cmdDiff(_ context.Context, _ string) error {
	// Pending typing is recorded first so it shows up in the diff.
	r.sess.Flush()
	lines := r.sess.Diff()
	if lines == nil {
		lines = []history.DiffLine{}
	}
	return r.emit(lines, func(w io.Writer) {
		for _, l := range lines {
			switch l.Type {
			case history.LineAdded:
				fmt.Fprintln(w, addedStyle.Render("+ "+l.Text))
			case history.LineRemoved:
				fmt.Fprintln(w, removedStyle.Render("- "+l.Text))
			default:
				fmt.Fprintln(w, "  "+l.Text)
			}
		}
	})
}

func (r *repl) cmdLib(_ context.Context, _ string) error {
	sources, err := r.sess.Library()
	if err != nil {
		return err
	}
	if sources == nil {
		sources = []reference.Source{}
	}
	return r.emit(sources, func(w io.Writer) {
		if len(sources) == 0 {
			fmt.Fprintln(w, "Library is empty")
			return
		}
		for _, src := range sources {
			fmt.Fprintf(w, "%s  %s\n", src.ID, formatSourceLine(src))
		}
	})
}

func (r *repl) cmdLibAdd(_ context.Context, args string) error {
	src, err := r.resultAt(args)
	if err != nil {
		return err
	}
	saved, err := r.sess.SaveToLibrary(src)
	if err != nil {
		return err
	}
	return r.emit(saved, func(w io.Writer) {
		fmt.Fprintf(w, "saved %s\n", saved.ID)
	})
}

func (r *repl) cmdLibRemove(_ context.Context, args string) error {
	removed, err := r.sess.RemoveFromLibrary(args)
	if err != nil {
		return err
	}
	status := "removed"
	if !removed {
		status = "not_found"
	}
	return r.emit(StatusResponse{Status: status}, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s\n", strings.ReplaceAll(status, "_", " "), args)
	})
}

func (r *repl) cmdExport(_ context.Context, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return errors.New("usage: export <path> [format]")
	}
	path, name := fields[0], ""
	if len(fields) == 2 {
		name = fields[1]
	}
	f, err := outputFormat(path, name)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := r.sess.Export(&buf, f); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return r.emit(StatusResponse{Status: "exported", Path: path}, func(w io.Writer) {
		fmt.Fprintf(w, "exported %s (%s)\n", path, f)
	})
}

// CopyResponse is the response for the copy command.
type CopyResponse struct {
	Copied bool   `json:"copied"`
	Text   string `json:"text"`
}

func (r *repl) cmdCopy(_ context.Context, _ string) error {
	text, err := r.sess.CopyPlain()
	if err != nil {
		return err
	}
	return r.emit(CopyResponse{Copied: true, Text: text}, func(w io.Writer) {
		fmt.Fprintf(w, "copied %d bytes to the clipboard\n", len(text))
	})
}

func (r *repl) cmdHighlight(_ context.Context, _ string) error {
	text := r.sess.Text()
	markers := citation.FindCitations(text)
	if markers == nil {
		markers = []citation.Marker{}
	}
	return r.emit(markers, func(w io.Writer) {
		fmt.Fprintln(w, highlightMarkers(text, markers))
	})
}

// StyleResponse is the response for the style command.
type StyleResponse struct {
	Style  string   `json:"style"`
	Styles []string `json:"styles"`
}

func (r *repl) cmdStyle(_ context.Context, args string) error {
	if args != "" {
		st, err := style.Parse(args)
		if err != nil {
			return err
		}
		if err := r.sess.SetStyle(st); err != nil {
			return err
		}
	}
	resp := StyleResponse{Style: r.sess.Style().String(), Styles: style.Names()}
	return r.emit(resp, func(w io.Writer) {
		fmt.Fprintf(w, "style: %s\n", resp.Style)
	})
}

func (r *repl) cmdHelp(_ context.Context, _ string) error {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		if name != "exit" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	usage := make(map[string]string, len(names))
	for _, name := range names {
		usage[r.commands[name].usage] = r.commands[name].help
	}
	return r.emit(usage, func(w io.Writer) {
		for _, name := range names {
			cmd := r.commands[name]
			fmt.Fprintf(w, "  %-52s %s\n", cmd.usage, cmd.help)
		}
	})
}
