package expand

import (
	"strings"

	"github.com/posh-lang/posh/core/ast"
)

// Prompt runs the prompt-specific expansion path: parameter expansion
// only (no tilde, no quote removal — a prompt string is not a shell
// word), followed by substituting "\w" with the current working
// directory, tilde-compressed against $HOME. This is the only prompt
// escape this implementation supports, matching the original's own
// scope (no "\u"/"\h" or similar); spec.md's Non-goals exclude building
// out a full prompt-string language.
func Prompt(w ast.Word, env Environment) string {
	w = expandParameters(w, env)
	input := w.Name
	if !strings.Contains(input, `\w`) {
		return input
	}
	cwd, _ := env.GetValue("PWD")
	return strings.ReplaceAll(input, `\w`, compressTilde(cwd, env))
}

// compressTilde is the inverse of tilde expansion: it replaces a
// leading $HOME prefix in path with "~", used only for \w prompt
// rendering. Unlike the original (which reads $HOME from the process
// environment directly), this goes through Environment.HomeDir, per the
// injected-capability redesign.
func compressTilde(path string, env Environment) string {
	home, ok := env.HomeDir()
	if !ok || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+"/") {
		return "~" + path[len(home):]
	}
	return path
}
