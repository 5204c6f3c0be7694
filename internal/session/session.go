// Package session hosts one in-memory editing session: the document text,
// its bibliography, the undo history, the source library and the current
// selection, mutated only through the operations below.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/matsen/quill/internal/bibliography"
	"github.com/matsen/quill/internal/citation"
	"github.com/matsen/quill/internal/clipboard"
	"github.com/matsen/quill/internal/export"
	"github.com/matsen/quill/internal/history"
	"github.com/matsen/quill/internal/importer"
	"github.com/matsen/quill/internal/library"
	"github.com/matsen/quill/internal/reference"
	"github.com/matsen/quill/internal/style"
)

// Searcher finds candidate sources for a selected passage.
type Searcher interface {
	Search(ctx context.Context, selected, surrounding string) (reference.Results, error)
}

// Formatter renders a source as a citation pair in the named style.
type Formatter interface {
	Format(ctx context.Context, src reference.Source, styleName string) (citation.Result, error)
}

// Options configures a Session. Zero values select defaults.
type Options struct {
	Searcher  Searcher
	Formatter Formatter

	// Library is used as is and not closed by the session. When nil the
	// session opens and owns its own.
	Library *library.Library

	Logger  *zap.Logger
	Locale  language.Tag
	Style   style.Style
	History []history.Option

	// Copy writes to the clipboard; defaults to clipboard.Copy.
	Copy func(string) error
}

// Anchor is the most recent non-trivial selection, as byte offsets into
// the document text.
type Anchor struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// CiteResult reports a completed citation.
type CiteResult struct {
	citation.Insertion
	Fallback bool `json:"fallback"`
}

// Session is a single editing session.
type Session struct {
	mu sync.Mutex

	title  string
	text   string
	bib    *bibliography.Store
	hist   *history.Controller
	anchor *Anchor

	// gen is bumped whenever the selection context changes; collaborator
	// results carrying an older value are discarded.
	gen uint64

	results reference.Results
	style   style.Style

	lib     *library.Library
	ownsLib bool

	searcher  Searcher
	formatter Formatter
	copy      func(string) error
	logger    *zap.Logger
}

// New creates an empty session.
func New(opts Options) (*Session, error) {
	s := &Session{
		bib:       bibliography.NewStore(opts.Locale),
		lib:       opts.Library,
		searcher:  opts.Searcher,
		formatter: opts.Formatter,
		copy:      opts.Copy,
		logger:    opts.Logger,
		style:     opts.Style,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.copy == nil {
		s.copy = clipboard.Copy
	}
	if !s.style.Valid() {
		s.style = style.Default
	}
	if s.lib == nil {
		lib, err := library.Open()
		if err != nil {
			return nil, fmt.Errorf("opening library: %w", err)
		}
		s.lib = lib
		s.ownsLib = true
	}

	histOpts := append([]history.Option{history.WithLogger(s.logger)}, opts.History...)
	s.hist = history.NewController(history.NewSnapshot("", nil), histOpts...)
	return s, nil
}

// Close stops pending history timers and closes an owned library.
func (s *Session) Close() error {
	s.hist.Stop()
	if s.ownsLib {
		return s.lib.Close()
	}
	return nil
}

// Text returns the document text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Title returns the document title, taken from the last imported file name.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// Bibliography returns a copy of the bibliography entries in sort order.
func (s *Session) Bibliography() []bibliography.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bib.Entries()
}

// Style returns the session's default citation style.
func (s *Session) Style() style.Style {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.style
}

// SetStyle changes the default citation style.
func (s *Session) SetStyle(st style.Style) error {
	if !st.Valid() {
		return newError(KindUserInput, "set style", fmt.Errorf("unknown style %q", string(st)))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.style = st
	return nil
}

// SetText replaces the document text as typing does; the history push is
// coalesced. The selection survives only if its text is still in place.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.text = text
	if a := s.anchor; a != nil && (a.End > len(text) || text[a.Start:a.End] != a.Text) {
		s.clearAnchorLocked()
	}
	s.hist.RecordEdit(s.text, s.bib.Entries())
}

// Load imports a document, replacing the text. On failure the session is
// left exactly as it was.
func (s *Session) Load(name string, data []byte) (importer.Document, error) {
	doc, err := importer.Import(name, data)
	if err != nil {
		s.logger.Warn("import failed", zap.String("file", name), zap.Error(err))
		return importer.Document{}, newError(KindImport, "import", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = doc.Text
	s.title = strings.TrimSuffix(doc.Name, filepath.Ext(doc.Name))
	s.clearAnchorLocked()
	s.hist.RecordImmediate(s.text, s.bib.Entries())
	return doc, nil
}

// Select records a selection anchor over text[start:end].
func (s *Session) Select(start, end int) (Anchor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if start < 0 || end > len(s.text) || start >= end ||
		!isBoundary(s.text, start) || !isBoundary(s.text, end) {
		return Anchor{}, newError(KindUserInput, "select",
			fmt.Errorf("%w: [%d, %d) in text of length %d", ErrInvalidSelection, start, end, len(s.text)))
	}
	sel := s.text[start:end]
	if strings.TrimSpace(sel) == "" {
		return Anchor{}, newError(KindUserInput, "select", fmt.Errorf("%w: selection is blank", ErrInvalidSelection))
	}

	s.anchor = &Anchor{Start: start, End: end, Text: sel}
	s.gen++
	return *s.anchor, nil
}

// ClearSelection drops the selection anchor.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearAnchorLocked()
}

// Selection returns the current anchor.
func (s *Session) Selection() (Anchor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.anchor == nil {
		return Anchor{}, false
	}
	return *s.anchor, true
}

// Results returns the sources from the last successful search.
func (s *Session) Results() reference.Results {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// Search asks the search collaborator for sources supporting the selection.
// A failed search leaves an empty result set and returns a KindCollaborator
// error; a result arriving after the selection changed is discarded.
func (s *Session) Search(ctx context.Context) (reference.Results, error) {
	s.mu.Lock()
	if s.anchor == nil {
		s.mu.Unlock()
		return reference.Results{}, newError(KindUserInput, "search", ErrNoSelection)
	}
	token := s.gen
	selected := s.anchor.Text
	surrounding := ContextWindow(s.text, s.anchor.Start, s.anchor.End)
	s.mu.Unlock()

	if s.searcher == nil {
		return reference.Results{}, newError(KindCollaborator, "search", ErrNoSearcher)
	}

	res, err := s.searcher.Search(ctx, selected, surrounding)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.gen {
		s.logger.Info("discarding stale search result")
		return reference.Results{}, newError(KindStale, "search", ErrStaleResult)
	}
	if err != nil {
		s.logger.Warn("search failed", zap.Error(err))
		s.results = reference.Results{}
		return reference.Results{}, newError(KindCollaborator, "search", err)
	}
	s.results = res
	return res, nil
}

// Cite formats src and inserts the citation after the selection. Without a
// selection it fails before the formatter is called. A formatter failure
// falls back to a citation built from the source fields.
func (s *Session) Cite(ctx context.Context, src reference.Source, st style.Style) (CiteResult, error) {
	s.mu.Lock()
	if s.anchor == nil {
		s.mu.Unlock()
		return CiteResult{}, newError(KindUserInput, "cite", ErrNoSelection)
	}
	token := s.gen
	if !st.Valid() {
		st = s.style
	}
	s.mu.Unlock()

	res, fallback := s.format(ctx, src, st)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.gen {
		s.logger.Info("discarding stale citation")
		return CiteResult{}, newError(KindStale, "cite", ErrStaleResult)
	}

	ins, err := citation.Insert(s.text, s.anchor.End, res, src, s.bib)
	if err != nil {
		return CiteResult{}, newError(KindUserInput, "cite", fmt.Errorf("%w: %v", ErrInvalidSelection, err))
	}
	s.text = ins.Text
	s.clearAnchorLocked()
	s.hist.RecordImmediate(s.text, s.bib.Entries())
	return CiteResult{Insertion: ins, Fallback: fallback}, nil
}

func (s *Session) format(ctx context.Context, src reference.Source, st style.Style) (citation.Result, bool) {
	if s.formatter == nil {
		s.logger.Info("no formatter configured, using fallback citation")
		return citation.Fallback(src), true
	}
	res, err := s.formatter.Format(ctx, src, st.String())
	if err != nil {
		s.logger.Warn("formatting failed, using fallback citation", zap.Error(err))
		return citation.Fallback(src), true
	}
	return res, false
}

// CiteFromLibrary cites a saved source by library ID.
func (s *Session) CiteFromLibrary(ctx context.Context, id string, st style.Style) (CiteResult, error) {
	src, ok, err := s.lib.Get(id)
	if err != nil {
		return CiteResult{}, newError(KindLibrary, "cite", err)
	}
	if !ok {
		return CiteResult{}, newError(KindUserInput, "cite", fmt.Errorf("%w: library source %q", ErrEntryNotFound, id))
	}
	return s.Cite(ctx, src, st)
}

// ManualSource builds a source from form fields; title and author are
// required.
func ManualSource(title, author, year, publication, url string) (reference.Source, error) {
	src := reference.Source{
		Title:       title,
		Author:      author,
		Year:        year,
		Publication: publication,
		URL:         url,
	}.Trimmed()

	var missing []string
	if src.Title == "" {
		missing = append(missing, "title")
	}
	if src.Author == "" {
		missing = append(missing, "author")
	}
	if len(missing) > 0 {
		return reference.Source{}, newError(KindUserInput, "manual entry",
			fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", ")))
	}
	return src, nil
}

// ClearBibliography empties the bibliography as one undoable step.
func (s *Session) ClearBibliography() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bib.Clear()
	s.hist.RecordImmediate(s.text, s.bib.Entries())
}

// RemoveEntry deletes one bibliography entry as one undoable step.
func (s *Session) RemoveEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.bib.Remove(id) {
		return newError(KindUserInput, "remove entry", fmt.Errorf("%w: %q", ErrEntryNotFound, id))
	}
	s.hist.RecordImmediate(s.text, s.bib.Entries())
	return nil
}

// Undo restores the previous snapshot. It reports false when there is
// nothing to undo.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.hist.Undo()
	if ok {
		s.restoreLocked(snap)
	}
	return ok
}

// Redo restores the next snapshot. It reports false at the newest snapshot.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.hist.Redo()
	if ok {
		s.restoreLocked(snap)
	}
	return ok
}

// CanUndo reports whether Undo would change state.
func (s *Session) CanUndo() bool { return s.hist.CanUndo() }

// CanRedo reports whether Redo would change state.
func (s *Session) CanRedo() bool { return s.hist.CanRedo() }

// Flush records any pending coalesced edit now.
func (s *Session) Flush() bool { return s.hist.Flush() }

// Diff compares the current snapshot with the one before it.
func (s *Session) Diff() []history.DiffLine { return s.hist.Diff() }

// Highlights returns the citation markers in the document text.
func (s *Session) Highlights() []citation.Marker {
	return citation.FindCitations(s.Text())
}

// Export renders the document in format f. Nothing is written to w unless
// rendering succeeds.
func (s *Session) Export(w io.Writer, f export.Format) error {
	s.mu.Lock()
	doc := export.Document{
		Title:   s.title,
		Text:    s.text,
		Entries: s.bib.Entries(),
		Style:   s.style,
	}
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := export.Write(&buf, f, doc); err != nil {
		s.logger.Warn("export failed", zap.String("format", string(f)), zap.Error(err))
		return newError(KindExport, "export", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return newError(KindExport, "export", err)
	}
	return nil
}

// CopyPlain copies the document and bibliography to the clipboard with
// all markup removed, returning the copied text.
func (s *Session) CopyPlain() (string, error) {
	s.mu.Lock()
	text := clipboard.PlainText(s.text, s.bib.Entries(), s.style.Heading())
	s.mu.Unlock()

	if err := s.copy(text); err != nil {
		return "", newError(KindExport, "copy", err)
	}
	return text, nil
}

// Library lists the saved sources in insertion order.
func (s *Session) Library() ([]reference.Source, error) {
	sources, err := s.lib.List()
	if err != nil {
		return nil, newError(KindLibrary, "list library", err)
	}
	return sources, nil
}

// SaveToLibrary adds src to the library. A duplicate URL or title is
// reported as KindConflict.
func (s *Session) SaveToLibrary(src reference.Source) (reference.Source, error) {
	saved, err := s.lib.Add(src)
	switch {
	case errors.Is(err, library.ErrDuplicate):
		return reference.Source{}, newError(KindConflict, "save source", err)
	case err != nil:
		return reference.Source{}, newError(KindLibrary, "save source", err)
	}
	return saved, nil
}

// RemoveFromLibrary deletes a saved source; a missing ID is a no-op.
func (s *Session) RemoveFromLibrary(id string) (bool, error) {
	ok, err := s.lib.Remove(id)
	if err != nil {
		return false, newError(KindLibrary, "remove source", err)
	}
	return ok, nil
}

func (s *Session) restoreLocked(snap history.Snapshot) {
	s.text = snap.Text
	s.bib.Replace(snap.Bibliography)
	s.clearAnchorLocked()
}

func (s *Session) clearAnchorLocked() {
	s.anchor = nil
	s.gen++
}

func isBoundary(text string, i int) bool {
	return i == len(text) || utf8.RuneStart(text[i])
}

// HistoryPosition returns the current history index and log length.
func (s *Session) HistoryPosition() (index, length int) {
	return s.hist.Index(), s.hist.Len()
}
