// Package errors defines the single error taxonomy surfaced by every
// stage: the parser's Incomplete/SyntaxError distinction (which drives
// PS2 continuation in an interactive collaborator) and the handful of
// environment-boundary errors raised by the expander or by file-backed
// helpers. Only Incomplete and SyntaxError originate in this module;
// everything else is constructed by callers and passed through
// unchanged (§7 of the design this implements).
package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	pkgerrors "github.com/pkg/errors"

	"github.com/posh-lang/posh/core/types"
)

// Kind tags which error variant an Error carries.
type Kind int

const (
	KindIncomplete Kind = iota
	KindSyntaxError
	KindIo
	KindNoHome
	KindInvalidHistfile
	KindHistoryOutOfBounds
	KindUnknownCommand
	KindUnimplemented
	KindCancelledLine
	KindNonExistentFile
)

func (k Kind) String() string {
	switch k {
	case KindIncomplete:
		return "Incomplete"
	case KindSyntaxError:
		return "SyntaxError"
	case KindIo:
		return "Io"
	case KindNoHome:
		return "NoHome"
	case KindInvalidHistfile:
		return "InvalidHistfile"
	case KindHistoryOutOfBounds:
		return "HistoryOutOfBounds"
	case KindUnknownCommand:
		return "UnknownCommand"
	case KindUnimplemented:
		return "Unimplemented"
	case KindCancelledLine:
		return "CancelledLine"
	case KindNonExistentFile:
		return "NonExistentFile"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the one error type this module returns. Detail is a
// human-readable message; Pos is the position the parser had reached
// when it gave up (zero value if not applicable); Suggestions holds
// "did you mean" candidates for a near-miss reserved word or delimiter
// spelling; Path/Name/Cause hold the Kind-specific payload.
type Error struct {
	Kind        Kind
	Detail      string
	Pos         types.Position
	Suggestions []string
	Path        string
	Name        string
	Cause       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Pos != (types.Position{}) {
		fmt.Fprintf(&b, " at %s", e.Pos)
	}
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Incomplete reports truncated-but-still-valid input: the caller should
// switch to a continuation prompt and read more input rather than
// reporting failure to the user.
func Incomplete(pos types.Position, reason string) *Error {
	return &Error{Kind: KindIncomplete, Detail: reason, Pos: pos}
}

// SyntaxErrorAt reports irrecoverably malformed input. If got is close
// (but not equal) to one of the expected spellings, SyntaxErrorAt
// attaches a "did you mean" suggestion.
func SyntaxErrorAt(pos types.Position, detail string, got string, expected ...string) *Error {
	return &Error{
		Kind:        KindSyntaxError,
		Detail:      detail,
		Pos:         pos,
		Suggestions: suggest(got, expected),
	}
}

// suggest returns the expected spellings within edit distance 2 of got,
// ranked nearest-first; it returns none at all when got equals one of
// them exactly (an exact match needs no suggestion).
func suggest(got string, expected []string) []string {
	if got == "" || len(expected) == 0 {
		return nil
	}
	var out []string
	dist := map[string]int{}
	for _, e := range expected {
		if e == got {
			return nil
		}
		if d := fuzzy.LevenshteinDistance(got, e); d <= 2 {
			out = append(out, e)
			dist[e] = d
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return dist[out[i]] < dist[out[j]] })
	return out
}

// Io wraps a filesystem/OS error with stack context at the boundary
// where it was first observed, per the teacher's convention of wrapping
// errors where they cross into this module rather than at every
// intermediate return.
func Io(cause error, context string) *Error {
	return &Error{Kind: KindIo, Detail: context, Cause: pkgerrors.Wrap(cause, context)}
}

func NoHome() *Error { return &Error{Kind: KindNoHome} }

func InvalidHistfile(path string) *Error {
	return &Error{Kind: KindInvalidHistfile, Path: path}
}

func HistoryOutOfBounds() *Error { return &Error{Kind: KindHistoryOutOfBounds} }

func UnknownCommand(name string) *Error {
	return &Error{Kind: KindUnknownCommand, Name: name}
}

func Unimplemented(detail string) *Error {
	return &Error{Kind: KindUnimplemented, Detail: detail}
}

func CancelledLine() *Error { return &Error{Kind: KindCancelledLine} }

func NonExistentFile(path string) *Error {
	return &Error{Kind: KindNonExistentFile, Path: path}
}

// IsIncomplete reports whether err is an Incomplete Error.
func IsIncomplete(err error) bool {
	var e *Error
	if !pkgerrors.As(err, &e) {
		return false
	}
	return e.Kind == KindIncomplete
}

// IsSyntaxError reports whether err is a SyntaxError Error.
func IsSyntaxError(err error) bool {
	var e *Error
	if !pkgerrors.As(err, &e) {
		return false
	}
	return e.Kind == KindSyntaxError
}
