package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	perrors "github.com/posh-lang/posh/core/errors"
	"github.com/posh-lang/posh/core/types"
)

func TestIsIncompleteOnlyMatchesIncompleteKind(t *testing.T) {
	err := perrors.Incomplete(types.Position{Line: 1, Column: 1}, "unterminated quote")
	assert.True(t, perrors.IsIncomplete(err))
	assert.False(t, perrors.IsSyntaxError(err))
}

func TestIsSyntaxErrorOnlyMatchesSyntaxErrorKind(t *testing.T) {
	err := perrors.SyntaxErrorAt(types.Position{Line: 1, Column: 1}, "expected a command", "|")
	assert.True(t, perrors.IsSyntaxError(err))
	assert.False(t, perrors.IsIncomplete(err))
}

func TestIsIncompleteFalseForUnrelatedError(t *testing.T) {
	assert.False(t, perrors.IsIncomplete(fmt.Errorf("boom")))
	assert.False(t, perrors.IsSyntaxError(fmt.Errorf("boom")))
}

func TestSyntaxErrorAtSuggestsNearMisses(t *testing.T) {
	err := perrors.SyntaxErrorAt(types.Position{}, "expected reserved word", "fo", "for", "fi", "case")
	assert.Contains(t, err.Suggestions, "for")
	assert.Contains(t, err.Suggestions, "fi")
	assert.NotContains(t, err.Suggestions, "case")
}

func TestSyntaxErrorAtNoSuggestionOnExactMatch(t *testing.T) {
	err := perrors.SyntaxErrorAt(types.Position{}, "expected reserved word", "for", "for", "fi")
	assert.Empty(t, err.Suggestions)
}

func TestSyntaxErrorAtNoSuggestionWithoutGot(t *testing.T) {
	err := perrors.SyntaxErrorAt(types.Position{}, "expected reserved word", "", "for", "fi")
	assert.Empty(t, err.Suggestions)
}

func TestErrorMessageIncludesPositionAndSuggestions(t *testing.T) {
	err := perrors.SyntaxErrorAt(types.Position{Line: 2, Column: 5}, "expected reserved word", "fo", "for")
	msg := err.Error()
	assert.Contains(t, msg, "SyntaxError")
	assert.Contains(t, msg, "expected reserved word")
	assert.Contains(t, msg, "2:5")
	assert.Contains(t, msg, "did you mean for?")
}

func TestIoWrapsCauseAndUnwraps(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := perrors.Io(cause, "reading history file")
	assert.ErrorIs(t, err, cause)
}

func TestKindConstructors(t *testing.T) {
	assert.Equal(t, perrors.KindNoHome, perrors.NoHome().Kind)
	assert.Equal(t, "/tmp/hist", perrors.InvalidHistfile("/tmp/hist").Path)
	assert.Equal(t, perrors.KindHistoryOutOfBounds, perrors.HistoryOutOfBounds().Kind)
	assert.Equal(t, "foo", perrors.UnknownCommand("foo").Name)
	assert.Equal(t, "not yet", perrors.Unimplemented("not yet").Detail)
	assert.Equal(t, perrors.KindCancelledLine, perrors.CancelledLine().Kind)
	assert.Equal(t, "/no/such/file", perrors.NonExistentFile("/no/such/file").Path)
}
