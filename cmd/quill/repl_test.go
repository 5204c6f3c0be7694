package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/matsen/quill/internal/assistant"
	"github.com/matsen/quill/internal/bibliography"
	"github.com/matsen/quill/internal/citation"
	"github.com/matsen/quill/internal/history"
	"github.com/matsen/quill/internal/reference"
	"github.com/matsen/quill/internal/scholar"
	"github.com/matsen/quill/internal/session"
	"github.com/matsen/quill/internal/style"
)

type idleClock struct{}

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

func (idleClock) AfterFunc(time.Duration, func()) history.Timer { return idleTimer{} }

type stubSearcher struct {
	results reference.Results
	err     error
}

func (s stubSearcher) Search(context.Context, string, string) (reference.Results, error) {
	return s.results, s.err
}

type stubFormatter struct {
	result citation.Result
	err    error
}

func (f stubFormatter) Format(context.Context, reference.Source, string) (citation.Result, error) {
	return f.result, f.err
}

var (
	doeSource = reference.Source{Title: "Title", Author: "Doe, J.", Year: "2024", URL: "https://example.org/doe"}
	roeSource = reference.Source{Title: "Other", Author: "Roe, R.", Year: "2020", URL: "https://example.org/roe"}
)

func newTestREPL(t *testing.T, human bool, opts session.Options) (*repl, *bytes.Buffer) {
	t.Helper()
	opts.Locale = language.English
	opts.History = append(opts.History, history.WithClock(idleClock{}))
	if opts.Copy == nil {
		opts.Copy = func(string) error { return nil }
	}
	sess, err := session.New(opts)
	if err != nil {
		t.Fatalf("session.New() error = %v", err)
	}
	t.Cleanup(func() { sess.Close() })

	var out bytes.Buffer
	return newREPL(sess, &out, human), &out
}

// runScript feeds lines to the REPL and returns each JSON value written.
func runScript(t *testing.T, r *repl, out *bytes.Buffer, lines ...string) []json.RawMessage {
	t.Helper()
	out.Reset()
	if err := r.run(context.Background(), strings.NewReader(strings.Join(lines, "\n"))); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var values []json.RawMessage
	dec := json.NewDecoder(out)
	for {
		var v json.RawMessage
		if err := dec.Decode(&v); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("decoding output: %v", err)
		}
		values = append(values, v)
	}
	return values
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return v
}

func TestREPLSearchCiteUndo(t *testing.T) {
	r, out := newTestREPL(t, false, session.Options{
		Searcher: stubSearcher{results: reference.Results{
			Suggested: []reference.Source{doeSource},
			Related:   []reference.Source{roeSource},
		}},
		Formatter: stubFormatter{result: citation.Result{InText: "(Doe, 2024)", Bibliography: "Doe, J. (2024) *Title*."}},
	})

	values := runScript(t, r, out,
		"type Deep neural nets work well.",
		"diff",
		"find neural nets",
		"search",
		"cite 1",
		"show",
		"bib",
		"undo",
		"show",
	)
	if len(values) != 9 {
		t.Fatalf("got %d outputs, want 9", len(values))
	}

	// diff records the pending typing as its own step
	diff := decode[[]history.DiffLine](t, values[1])
	if len(diff) != 1 || diff[0].Type != history.LineAdded {
		t.Errorf("diff = %+v", diff)
	}

	anchor := decode[session.Anchor](t, values[2])
	if anchor.Start != 5 || anchor.End != 16 || anchor.Text != "neural nets" {
		t.Errorf("find anchor = %+v", anchor)
	}

	res := decode[reference.Results](t, values[3])
	if res.Len() != 2 {
		t.Errorf("search returned %d sources, want 2", res.Len())
	}

	cite := decode[session.CiteResult](t, values[4])
	if !cite.Inserted || cite.Fallback {
		t.Errorf("cite = %+v, want inserted without fallback", cite)
	}

	show := decode[ShowResponse](t, values[5])
	if want := "Deep neural nets (Doe, 2024) work well."; show.Text != want {
		t.Errorf("text after cite = %q, want %q", show.Text, want)
	}
	if show.Selection != nil {
		t.Errorf("selection survived cite: %+v", show.Selection)
	}

	entries := decode[[]bibliography.Entry](t, values[6])
	if len(entries) != 1 || entries[0].Text != "Doe, J. (2024) *Title*." {
		t.Errorf("bib = %+v", entries)
	}

	undo := decode[ChangeResponse](t, values[7])
	if !undo.Changed || !undo.History.CanRedo {
		t.Errorf("undo = %+v", undo)
	}

	show = decode[ShowResponse](t, values[8])
	if show.Text != "Deep neural nets work well." {
		t.Errorf("text after undo = %q", show.Text)
	}
	if show.History.Index != 1 || show.History.Length != 3 {
		t.Errorf("history = %+v, want index 1 of 3", show.History)
	}
}

func TestREPLErrorsDoNotStopLoop(t *testing.T) {
	r, out := newTestREPL(t, false, session.Options{})

	values := runScript(t, r, out,
		"bogus",
		"cite 1",
		"search",
		"select 0 99",
		"style ieee",
	)
	if len(values) != 5 {
		t.Fatalf("got %d outputs, want 5", len(values))
	}

	for i, want := range []string{"", "", "user_input", "user_input"} {
		resp := decode[ErrorResponse](t, values[i])
		if resp.Error == "" {
			t.Errorf("output %d: expected an error, got %s", i, values[i])
		}
		if resp.Kind != want {
			t.Errorf("output %d: kind = %q, want %q", i, resp.Kind, want)
		}
	}

	st := decode[StyleResponse](t, values[4])
	if st.Style != string(style.IEEE) {
		t.Errorf("style = %q, want IEEE", st.Style)
	}
}

func TestREPLManualFallback(t *testing.T) {
	r, out := newTestREPL(t, false, session.Options{
		Formatter: stubFormatter{err: errors.New("service down")},
	})

	values := runScript(t, r, out,
		"type Results hold.",
		"select 0 7",
		"manual Title|Doe, J.|2024||https://example.org/doe",
		"manual |Doe",
	)
	if len(values) != 4 {
		t.Fatalf("got %d outputs, want 4", len(values))
	}

	cite := decode[session.CiteResult](t, values[2])
	if !cite.Fallback {
		t.Error("expected fallback citation")
	}
	if !strings.HasPrefix(cite.Text, "Results (Doe, 2024) hold.") {
		t.Errorf("text = %q", cite.Text)
	}

	resp := decode[ErrorResponse](t, values[3])
	if !strings.Contains(resp.Error, "title") || resp.Kind != "user_input" {
		t.Errorf("missing title error = %+v", resp)
	}
}

func TestREPLLibrary(t *testing.T) {
	r, out := newTestREPL(t, false, session.Options{
		Searcher: stubSearcher{results: reference.Results{Suggested: []reference.Source{doeSource}}},
	})

	values := runScript(t, r, out,
		"type Some claim here.",
		"find claim",
		"search",
		"lib-add 1",
		"lib-add 1",
		"lib",
	)
	if len(values) != 6 {
		t.Fatalf("got %d outputs, want 6", len(values))
	}

	saved := decode[reference.Source](t, values[3])
	if saved.ID == "" {
		t.Error("saved source has no ID")
	}
	dup := decode[ErrorResponse](t, values[4])
	if dup.Kind != "conflict" {
		t.Errorf("duplicate kind = %q, want conflict", dup.Kind)
	}
	lib := decode[[]reference.Source](t, values[5])
	if len(lib) != 1 || lib[0].ID != saved.ID {
		t.Errorf("lib = %+v", lib)
	}

	values = runScript(t, r, out,
		"find claim",
		"cite-lib "+saved.ID,
		"lib-rm "+saved.ID,
		"lib",
	)
	cite := decode[session.CiteResult](t, values[1])
	if cite.Entry.Source.ID != saved.ID {
		t.Errorf("cited entry source ID = %q, want %q", cite.Entry.Source.ID, saved.ID)
	}
	if lib := decode[[]reference.Source](t, values[3]); len(lib) != 0 {
		t.Errorf("lib after remove = %+v", lib)
	}
}

func TestREPLExportAndBibSave(t *testing.T) {
	dir := t.TempDir()
	r, out := newTestREPL(t, false, session.Options{})

	mdPath := filepath.Join(dir, "out.md")
	bibPath := filepath.Join(dir, "refs.jsonl")
	badPath := filepath.Join(dir, "out.xyz")

	values := runScript(t, r, out,
		"type A *fine* claim.",
		"find claim",
		"manual Title|Doe, J.|2024",
		"export "+mdPath,
		"bib-save "+bibPath,
		"export "+badPath,
	)
	if len(values) != 6 {
		t.Fatalf("got %d outputs, want 6", len(values))
	}

	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(md), "_fine_") || !strings.Contains(string(md), "(Doe, 2024)") {
		t.Errorf("markdown export = %q", md)
	}

	fh, err := os.Open(bibPath)
	if err != nil {
		t.Fatalf("opening bib: %v", err)
	}
	defer fh.Close()
	entries, err := bibliography.ReadJSONL(fh)
	if err != nil {
		t.Fatalf("ReadJSONL() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("saved %d entries, want 1", len(entries))
	}

	if resp := decode[ErrorResponse](t, values[5]); resp.Error == "" {
		t.Error("expected unsupported format error")
	}
	if _, err := os.Stat(badPath); !os.IsNotExist(err) {
		t.Error("failed export left a file behind")
	}
}

func TestREPLHumanOutput(t *testing.T) {
	r, out := newTestREPL(t, true, session.Options{})

	out.Reset()
	if err := r.run(context.Background(), strings.NewReader("type Known (Smith, 2020) result.\nhighlight\nnope\nquit\nshow\n")); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Smith, 2020") {
		t.Errorf("highlight output missing marker: %q", got)
	}
	if !strings.Contains(got, `error: unknown command "nope"`) {
		t.Errorf("missing error line: %q", got)
	}
	if strings.Contains(got, "history:") {
		t.Error("commands after quit were run")
	}
}

func TestSplitStyle(t *testing.T) {
	tests := []struct {
		args      string
		wantFirst string
		wantStyle style.Style
		wantErr   bool
	}{
		{"1", "1", "", false},
		{"2 APA 7th", "2", style.APA7, false},
		{"3 mla", "3", style.MLA9, false},
		{"4 nonsense", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			first, st, err := splitStyle(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitStyle(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if first != tt.wantFirst || st != tt.wantStyle {
				t.Errorf("splitStyle(%q) = %q, %q", tt.args, first, st)
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	r, _ := newTestREPL(t, false, session.Options{})
	_, loadErr := r.sess.Load("notes.odt", []byte("x"))
	_, citeErr := r.sess.Cite(context.Background(), doeSource, "")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"unsupported import", loadErr, ExitUnsupported},
		{"no selection", citeErr, ExitError},
		{"plain", errors.New("boom"), ExitError},
		{"auth", fmt.Errorf("search: %w", assistant.ErrAuthError), ExitConfigError},
		{"scholar down", fmt.Errorf("search: %w", scholar.ErrNetworkError), ExitError},
		{"library", &session.Error{Kind: session.KindLibrary, Op: "save source", Err: errors.New("database is closed")}, ExitDataError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestCollaboratorHint(t *testing.T) {
	if hint := collaboratorHint(&assistant.APIError{StatusCode: 401, Message: "bad key"}); !strings.Contains(hint, "assistant_api_key") {
		t.Errorf("auth hint = %q", hint)
	}
	if hint := collaboratorHint(fmt.Errorf("x: %w", scholar.ErrRateLimited)); !strings.Contains(hint, "rate limited") {
		t.Errorf("rate limit hint = %q", hint)
	}
	if hint := collaboratorHint(errors.New("boom")); hint != "" {
		t.Errorf("unexpected hint %q", hint)
	}
}
