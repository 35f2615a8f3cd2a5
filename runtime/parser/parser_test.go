package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/posh-lang/posh/core/errors"
	"github.com/posh-lang/posh/internal/subparsecache"
	"github.com/posh-lang/posh/runtime/parser"
)

func TestParseRoundTripsExactSource(t *testing.T) {
	tests := []string{
		"echo hello world\n",
		"echo a | grep b && echo c || echo d\n",
		"if true; then echo yes; elif false; then echo maybe; else echo no; fi\n",
		"for i in a b c; do echo $i; done\n",
		"while true; do echo again; done\n",
		"until false; do echo again; done\n",
		"case $x in a) echo a;; b|c) echo bc;; *) echo other;; esac\n",
		"f() { echo body; }\n",
		"{ echo grouped; }\n",
		"(echo subshell)\n",
		"echo a; echo b &\n",
		"VAR=value echo hi\n",
		"echo foo > out.txt 2>&1\n",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			tree, err := parser.Parse(src, false)
			require.NoError(t, err)
			assert.Equal(t, src, tree.String())
		})
	}
}

func TestParseHeredoc(t *testing.T) {
	src := "cat <<EOF\nline one\nline two\nEOF\n"
	tree, err := parser.Parse(src, false)
	require.NoError(t, err)
	assert.Equal(t, src, tree.String())
}

func TestParseHeredocWithDashOperatorKeepsBodyVerbatim(t *testing.T) {
	// <<- strips leading tabs only when matching the delimiter line;
	// Content holds the body lines verbatim, so the reprinted tree keeps
	// the original indentation.
	src := "cat <<-EOF\n\tindented\nEOF\n"
	tree, err := parser.Parse(src, false)
	require.NoError(t, err)
	assert.Equal(t, src, tree.String())
}

func TestParseIncompleteUnterminatedHeredoc(t *testing.T) {
	_, err := parser.Parse("cat <<EOF\nline one\n", false)
	require.Error(t, err)
	assert.True(t, perrors.IsIncomplete(err))
}

func TestParseIncompleteUnterminatedQuote(t *testing.T) {
	_, err := parser.Parse(`echo "unterminated`, false)
	require.Error(t, err)
	assert.True(t, perrors.IsIncomplete(err))
}

func TestParseIncompleteOpenIfClause(t *testing.T) {
	_, err := parser.Parse("if true; then echo yes\n", false)
	require.Error(t, err)
	assert.True(t, perrors.IsIncomplete(err))
}

func TestParseSyntaxErrorOnStrayOperator(t *testing.T) {
	_, err := parser.Parse("echo a |\n| echo b\n", false)
	require.Error(t, err)
	assert.True(t, perrors.IsSyntaxError(err))
}

func TestParseDropsTrailingUnparsedWhenRequested(t *testing.T) {
	tree, err := parser.Parse("echo a\n)\n", true)
	require.NoError(t, err)
	assert.NotEmpty(t, tree.Unparsed)
}

func TestParseCommandSubstitutionSubParse(t *testing.T) {
	src := "echo $(echo inner)\n"
	tree, err := parser.Parse(src, false)
	require.NoError(t, err)
	assert.Equal(t, src, tree.String())
}

func TestParseWithSubParseCacheIsReusedAcrossIdenticalSubstitutions(t *testing.T) {
	cache := subparsecache.New(8)
	src := "echo $(echo inner) $(echo inner)\n"
	tree, err := parser.Parse(src, false, parser.WithSubParseCache(cache))
	require.NoError(t, err)
	assert.Equal(t, src, tree.String())
}

func TestParseMaxDepthGuardTripsOnPathologicalNesting(t *testing.T) {
	src := ""
	for i := 0; i < 50; i++ {
		src += "("
	}
	src += "echo hi"
	for i := 0; i < 50; i++ {
		src += ")"
	}
	src += "\n"
	_, err := parser.Parse(src, false, parser.WithMaxDepth(10))
	require.Error(t, err)
	assert.True(t, perrors.IsSyntaxError(err))
}

func TestParseTelemetryHookFiresOnEveryProduction(t *testing.T) {
	var productions []string
	_, err := parser.Parse("echo hi\n", false, parser.WithTelemetry(func(p string) {
		productions = append(productions, p)
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, productions)
}

func TestParseEmptyInputIsComplete(t *testing.T) {
	tree, err := parser.Parse("", false)
	require.NoError(t, err)
	assert.Nil(t, tree.Head)
}

func TestParseAssignmentOnlyPrefix(t *testing.T) {
	src := "FOO=bar BAZ=qux\n"
	tree, err := parser.Parse(src, false)
	require.NoError(t, err)
	assert.Equal(t, src, tree.String())
}
