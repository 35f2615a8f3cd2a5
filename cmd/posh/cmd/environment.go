package cmd

import (
	"os/user"
)

// cliEnvironment is the simplest possible embedder of
// runtime/expand.Environment: a flat map populated by repeated --var
// flags, falling back to the real process user's home directory and
// os/user for tilde lookups. A long-lived shell would back this with
// its own variable table (spec.md §6); posh expand has no such table,
// so it takes one on the command line instead.
type cliEnvironment struct {
	vars       map[string]string
	lastStatus []int
}

func newCLIEnvironment(vars map[string]string) *cliEnvironment {
	return &cliEnvironment{vars: vars, lastStatus: []int{0}}
}

func (e *cliEnvironment) GetValue(name string) (string, bool) {
	v, ok := e.vars[name]
	return v, ok
}

func (e *cliEnvironment) LastStatus() []int {
	return e.lastStatus
}

func (e *cliEnvironment) HomeDir() (string, bool) {
	u, err := user.Current()
	if err != nil || u.HomeDir == "" {
		return "", false
	}
	return u.HomeDir, true
}

func (e *cliEnvironment) UserHome(name string) (string, bool) {
	u, err := user.Lookup(name)
	if err != nil || u.HomeDir == "" {
		return "", false
	}
	return u.HomeDir, true
}
