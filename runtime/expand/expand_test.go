package expand_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posh-lang/posh/core/ast"
	"github.com/posh-lang/posh/runtime/expand"
	"github.com/posh-lang/posh/runtime/parser"
)

func wordOf(s string) ast.Word {
	return ast.Word{Name: s}
}

// fakeEnv is a minimal expand.Environment for tests: no process access,
// just the maps/slices a test case wires up.
type fakeEnv struct {
	vars       map[string]string
	lastStatus []int
	home       string
	homeOK     bool
	users      map[string]string
}

func (e fakeEnv) GetValue(name string) (string, bool) {
	v, ok := e.vars[name]
	return v, ok
}

func (e fakeEnv) LastStatus() []int {
	if e.lastStatus == nil {
		return []int{0}
	}
	return e.lastStatus
}

func (e fakeEnv) HomeDir() (string, bool) {
	return e.home, e.homeOK
}

func (e fakeEnv) UserHome(name string) (string, bool) {
	v, ok := e.users[name]
	return v, ok
}

func expandSource(t *testing.T, src string, env expand.Environment) string {
	t.Helper()
	tree, err := parser.Parse(src, false)
	require.NoError(t, err)
	tree = expand.SyntaxTree(tree, env)
	return tree.String()
}

func TestSyntaxTreeParameterExpansion(t *testing.T) {
	env := fakeEnv{vars: map[string]string{"HOME": "/home/ada", "NAME": "world"}}
	got := expandSource(t, "echo $NAME ${HOME}\n", env)
	assert.Equal(t, "echo world /home/ada\n", got)
}

func TestSyntaxTreeParameterExpansionMissingIsEmpty(t *testing.T) {
	env := fakeEnv{vars: map[string]string{}}
	got := expandSource(t, "echo $UNSET\n", env)
	assert.Equal(t, "echo \n", got)
}

func TestSyntaxTreeLastStatusJoin(t *testing.T) {
	env := fakeEnv{lastStatus: []int{1, 2, 3}}
	got := expandSource(t, "echo $?\n", env)
	assert.Equal(t, "echo 1|2|3\n", got)
}

func TestSyntaxTreeTildeHomeDir(t *testing.T) {
	env := fakeEnv{home: "/home/ada", homeOK: true}
	got := expandSource(t, "echo ~/bin\n", env)
	assert.Equal(t, "echo /home/ada/bin\n", got)
}

func TestSyntaxTreeTildeUserLookup(t *testing.T) {
	env := fakeEnv{users: map[string]string{"grace": "/home/grace"}}
	got := expandSource(t, "echo ~grace/bin\n", env)
	assert.Equal(t, "echo /home/grace/bin\n", got)
}

func TestSyntaxTreeTildeUnknownUserLeftLiteral(t *testing.T) {
	env := fakeEnv{users: map[string]string{}}
	got := expandSource(t, "echo ~nobody/bin\n", env)
	assert.Equal(t, "echo ~nobody/bin\n", got)
}

func TestSyntaxTreeQuoteRemoval(t *testing.T) {
	env := fakeEnv{vars: map[string]string{"X": "hi"}}
	got := expandSource(t, "echo \"a'b\" 'c\"d' $X\n", env)
	assert.Equal(t, "echo a'b c\"d hi\n", got)
}

func TestSyntaxTreeRecursesIntoCompoundCommands(t *testing.T) {
	env := fakeEnv{vars: map[string]string{"X": "yes"}}
	got := expandSource(t, "if true; then echo $X; fi\n", env)
	assert.Equal(t, "if true; then echo yes; fi\n", got)
}

func TestSyntaxTreeRecursesIntoFunctionDefinitions(t *testing.T) {
	env := fakeEnv{vars: map[string]string{"X": "yes"}}
	got := expandSource(t, "f() { echo $X; }\n", env)
	assert.Equal(t, "f() { echo yes; }\n", got)
}

func TestSyntaxTreeLineContinuationSuffixDropped(t *testing.T) {
	env := fakeEnv{}
	got := expandSource(t, "echo a \\\n", env)
	assert.Equal(t, "echo a", got)
}

func TestRemoveQuotes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no quotes", `abc`, `abc`},
		{"single quotes literal", `'a\b'`, `a\b`},
		{"double quotes keep backslash before backslash", `"a\\b"`, `a\\b`},
		{"double quotes escape dquote", `"a\"b"`, `a"b`},
		{"double quotes do not escape single quote", `"a\'b"`, `a\'b`},
		{"unquoted backslash escapes next rune", `a\ b`, `a b`},
		{"escaped newline removed", "a\\\nb", "ab"},
		{"mixed quoting", `'a'"b"c`, `abc`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expand.RemoveQuotes(tt.in))
		})
	}
}

func TestPromptLiteralPassthrough(t *testing.T) {
	env := fakeEnv{}
	got := expand.Prompt(wordOf("$ "), env)
	assert.Equal(t, "$ ", got)
}

func TestPromptExpandsWorkingDirectoryToken(t *testing.T) {
	env := fakeEnv{
		vars:   map[string]string{"PWD": "/home/ada/project"},
		home:   "/home/ada",
		homeOK: true,
	}
	got := expand.Prompt(wordOf(`\w $ `), env)
	assert.Equal(t, "~/project $ ", got)
}

func TestPromptCompressTildeExactHome(t *testing.T) {
	env := fakeEnv{
		vars:   map[string]string{"PWD": "/home/ada"},
		home:   "/home/ada",
		homeOK: true,
	}
	got := expand.Prompt(wordOf(`\w`), env)
	assert.Equal(t, "~", got)
}

func TestPromptNoHomeLeavesPathUntouched(t *testing.T) {
	env := fakeEnv{vars: map[string]string{"PWD": "/home/ada"}}
	got := expand.Prompt(wordOf(`\w`), env)
	assert.Equal(t, "/home/ada", got)
}
