package main

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/matsen/quill/internal/citation"
)

var (
	quillBinary     string
	quillBinaryOnce sync.Once
	quillBinaryErr  error
)

// getQuillBinary builds the quill binary once and returns its path.
func getQuillBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping binary build in short mode")
	}
	quillBinaryOnce.Do(func() {
		_, filename, _, ok := runtime.Caller(0)
		if !ok {
			quillBinaryErr = os.ErrInvalid
			return
		}
		moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))

		tmpDir, err := os.MkdirTemp("", "quill-test-*")
		if err != nil {
			quillBinaryErr = err
			return
		}
		quillBinary = filepath.Join(tmpDir, "quill")

		cmd := exec.Command("go", "build", "-o", quillBinary, "./cmd/quill")
		cmd.Dir = moduleRoot
		if output, err := cmd.CombinedOutput(); err != nil {
			quillBinaryErr = &buildError{output: string(output), err: err}
		}
	})
	if quillBinaryErr != nil {
		t.Fatalf("failed to build quill: %v", quillBinaryErr)
	}
	return quillBinary
}

type buildError struct {
	output string
	err    error
}

func (e *buildError) Error() string {
	return e.err.Error() + ": " + e.output
}

// runQuill executes quill in dir with an isolated config home and no
// collaborator credentials. It returns stdout and the exit code.
func runQuill(t *testing.T, dir, stdin string, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(getQuillBinary(t), args...)
	cmd.Dir = dir
	var env []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "QUILL_") && !strings.HasPrefix(kv, "XDG_CONFIG_HOME=") {
			env = append(env, kv)
		}
	}
	cmd.Env = append(env, "XDG_CONFIG_HOME="+filepath.Join(dir, "config"))
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode()
	}
	if err != nil {
		t.Fatalf("running quill: %v", err)
	}
	return string(out), 0
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCLIDetect(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "draft.txt", "Prior work (Smith, 2020) and (Lee & Park, 2021) agree.")

	out, code := runQuill(t, dir, "", "detect", path)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, output: %s", code, out)
	}
	var resp DetectResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, out)
	}
	if resp.Count != 2 || resp.Markers[0].Text != "(Smith, 2020)" {
		t.Errorf("detect = %+v", resp)
	}
}

func TestCLIUnsupportedImport(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.odt", "x")

	out, code := runQuill(t, dir, "", "import", path)
	if code != ExitUnsupported {
		t.Errorf("exit code = %d, want %d", code, ExitUnsupported)
	}
	if !strings.Contains(out, ".odt") {
		t.Errorf("error does not name the extension: %s", out)
	}
}

func TestCLIStylesAndFallback(t *testing.T) {
	dir := t.TempDir()

	out, code := runQuill(t, dir, "", "styles")
	if code != ExitSuccess {
		t.Fatalf("styles exit code = %d", code)
	}
	var styles []StyleInfo
	if err := json.Unmarshal([]byte(out), &styles); err != nil {
		t.Fatalf("parsing styles: %v", err)
	}
	if len(styles) != 6 {
		t.Errorf("got %d styles, want 6", len(styles))
	}

	out, code = runQuill(t, dir, "", "cite-fallback", "--title", "Notes", "--author", "Doe, J.", "--year", "2024")
	if code != ExitSuccess {
		t.Fatalf("cite-fallback exit code = %d: %s", code, out)
	}
	var res citation.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("parsing fallback: %v", err)
	}
	if res.InText != "(Doe, 2024)" {
		t.Errorf("inText = %q", res.InText)
	}

	_, code = runQuill(t, dir, "", "cite-fallback", "--title", "Notes")
	if code != ExitError {
		t.Errorf("missing author exit code = %d, want %d", code, ExitError)
	}
}

func TestCLISessionThenExport(t *testing.T) {
	dir := t.TempDir()
	draft := writeFile(t, dir, "draft.txt", "Transformers scale well.\n")
	bib := filepath.Join(dir, "refs.jsonl")
	docx := filepath.Join(dir, "draft.docx")

	script := strings.Join([]string{
		"find scale well",
		"manual Scaling Laws|Kaplan, J.; McCandlish, S.; Henighan, T.|2020",
		"bib-save " + bib,
		"quit",
	}, "\n")
	out, code := runQuill(t, dir, script, "session", draft)
	if code != ExitSuccess {
		t.Fatalf("session exit code = %d: %s", code, out)
	}
	if _, err := os.Stat(bib); err != nil {
		t.Fatalf("bib-save wrote nothing: %v\n%s", err, out)
	}

	out, code = runQuill(t, dir, "", "export", draft, "--out", docx, "--bib", bib)
	if code != ExitSuccess {
		t.Fatalf("export exit code = %d: %s", code, out)
	}
	if _, err := os.Stat(docx); err != nil {
		t.Fatalf("export wrote nothing: %v", err)
	}

	_, code = runQuill(t, dir, "", "export", draft, "--out", filepath.Join(dir, "draft.odt"))
	if code != ExitUnsupported {
		t.Errorf("unsupported export exit code = %d, want %d", code, ExitUnsupported)
	}
}
