package main

import (
	"errors"

	"github.com/matsen/quill/internal/assistant"
	"github.com/matsen/quill/internal/export"
	"github.com/matsen/quill/internal/importer"
	"github.com/matsen/quill/internal/scholar"
	"github.com/matsen/quill/internal/session"
)

// Exit codes
const (
	ExitSuccess      = 0 // Success
	ExitError        = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError  = 2 // Configuration error (unreadable or invalid config)
	ExitDataError    = 3 // Data error (malformed input, parse failure)
	ExitUnsupported  = 4 // Unsupported file type or export format
	ExitCollaborator = 5 // Search or formatting service failure
)

// exitCodeFor maps an error to the exit code reported for it.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, importer.ErrUnsupportedType), errors.Is(err, export.ErrUnsupportedFormat):
		return ExitUnsupported
	case errors.Is(err, importer.ErrParse):
		return ExitDataError
	case assistant.IsAuthError(err), errors.Is(err, scholar.ErrAuthError):
		return ExitConfigError
	}
	switch session.KindOf(err) {
	case session.KindCollaborator, session.KindStale:
		return ExitCollaborator
	case session.KindImport, session.KindExport, session.KindLibrary:
		return ExitDataError
	}
	return ExitError
}
