// Command posh is a debugging/embedding aid for the parser/expander
// core, not a shell: it exposes each pipeline stage (tokenize, lex,
// parse, expand) as a subcommand over a file or stdin. The REPL itself
// is an out-of-scope external collaborator (see spec.md §1); this is
// the simplest possible embedder, grounded on the teacher's
// cli/main.go + cmd/devcmd exit-code convention.
package main

import (
	"os"

	"github.com/posh-lang/posh/cmd/posh/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
