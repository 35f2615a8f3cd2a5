// Package expand implements the fourth pipeline stage: walking a parsed
// ast.SyntaxTree and rewriting its Word nodes per POSIX expansion order
// (tilde, parameter, quote removal), consulting a caller-supplied
// Environment for the parts that touch process-wide state. Command
// substitution, arithmetic, field splitting, and pathname expansion are
// recognized by the parser but deliberately left unexpanded here (§4.4
// "Reserved"); their Expansion annotations simply survive untouched.
package expand

// Environment is the narrow, read-only capability the expander
// consults. It is the only way this package touches process-wide state
// (environment variables, last exit status, user database) — mirroring
// the injected-capability redesign: the core never reads os.Getenv or
// the passwd database directly.
type Environment interface {
	// GetValue returns a shell variable's value, and whether it is set
	// at all (unset and empty-string are distinct: an unset variable
	// expands to "", same as an empty one, but a collaborator may care
	// about the distinction for other purposes).
	GetValue(name string) (string, bool)

	// LastStatus returns the exit statuses recorded so far for $?,
	// oldest first. A pipeline's multiple statuses are preserved (see
	// DESIGN.md on the joined-by-"|" extension); a single foreground
	// command records a slice of length 1.
	LastStatus() []int

	// HomeDir returns the invoking user's own home directory, used for
	// an empty tilde ("~").
	HomeDir() (string, bool)

	// UserHome returns the home directory of the named user, used for
	// "~name". The core never guesses a path itself (see DESIGN.md's
	// note on the original's hard-coded /home/{name} fallback).
	UserHome(name string) (string, bool)
}
