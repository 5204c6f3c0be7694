package session

import (
	"errors"
	"fmt"
)

// Kind classifies a session failure so callers can react without matching
// on messages.
type Kind int

const (
	// KindUnknown is reported for errors that did not come from a session.
	KindUnknown Kind = iota
	// KindUserInput marks a request rejected before any side effect.
	KindUserInput
	// KindCollaborator marks a failed search or formatting call.
	KindCollaborator
	// KindImport marks an unsupported or unreadable import.
	KindImport
	// KindExport marks a renderer or clipboard failure.
	KindExport
	// KindStale marks a collaborator result discarded because its
	// selection context is gone.
	KindStale
	// KindConflict marks a library duplicate.
	KindConflict
	// KindLibrary marks a failed read or write of the source library.
	KindLibrary
)

func (k Kind) String() string {
	switch k {
	case KindUserInput:
		return "user_input"
	case KindCollaborator:
		return "collaborator"
	case KindImport:
		return "import"
	case KindExport:
		return "export"
	case KindStale:
		return "stale"
	case KindConflict:
		return "conflict"
	case KindLibrary:
		return "library"
	default:
		return "unknown"
	}
}

// Sentinel errors wrapped by session Errors.
var (
	ErrNoSelection      = errors.New("no text selected")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrStaleResult      = errors.New("selection changed while the request was in flight")
	ErrEntryNotFound    = errors.New("entry not found")
	ErrMissingField     = errors.New("missing required field")
	ErrNoSearcher       = errors.New("no search provider configured")
)

// Error is a typed session failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first session Error in err's chain.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}
