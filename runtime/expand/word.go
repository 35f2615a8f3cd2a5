package expand

import (
	"strconv"
	"strings"

	"github.com/posh-lang/posh/core/ast"
)

// Word runs the three expansion passes this implementation performs —
// tilde, parameter, quote removal — in that order, per §4.4. Command
// substitution and arithmetic expansion are reserved (deferred to an
// executor collaborator): their Expansion entries are left in place, so
// Word.Expansions is empty afterward only when the word had none of
// those to begin with.
func Word(w ast.Word, env Environment) ast.Word {
	w = expandTilde(w, env)
	w = expandParameters(w, env)
	w = quoteRemoval(w)
	return w
}

// expandTilde resolves every Tilde expansion site, highest index first
// so earlier ranges stay valid (the expansion-ordering invariant; see
// ast.Word.ReplaceRange). A word carries more than one Tilde only in the
// ":"-separated-path case ("~:~other/bin"), since the tokenizer records
// one at word start and one immediately after every unquoted ':'.
func expandTilde(w ast.Word, env Environment) ast.Word {
	for i := len(w.Expansions) - 1; i >= 0; i-- {
		if w.Expansions[i].Kind != ast.ExpTilde {
			continue
		}
		exp := w.RemoveExpansionAt(i)
		var repl string
		switch {
		case exp.TildeName == "":
			if home, ok := env.HomeDir(); ok {
				repl = home
			}
		case isPortableFilename(exp.TildeName):
			if home, ok := env.UserHome(exp.TildeName); ok {
				repl = home
			} else {
				// No such user: the tilde-prefix is left literal, per
				// §4.4 ("else leave the tilde literal intact").
				continue
			}
		default:
			continue
		}
		w.ReplaceRange(exp.Range, repl)
	}
	return w
}

// isPortableFilename reports whether s uses only the POSIX portable
// filename character set, the precondition for treating "~name" as a
// user-name tilde-prefix rather than leaving it literal.
func isPortableFilename(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

// expandParameters resolves every Parameter expansion site, highest
// index first. $? joins every recorded exit status with "|" rather than
// collapsing to the last one — a documented, source-preserving
// extension to POSIX (see DESIGN.md and spec.md §9's open question).
func expandParameters(w ast.Word, env Environment) ast.Word {
	for i := len(w.Expansions) - 1; i >= 0; i-- {
		if w.Expansions[i].Kind != ast.ExpParameter {
			continue
		}
		exp := w.RemoveExpansionAt(i)
		var val string
		if exp.ParamName == "?" {
			val = joinStatuses(env.LastStatus())
		} else if v, ok := env.GetValue(exp.ParamName); ok {
			val = v
		}
		w.ReplaceRange(exp.Range, val)
	}
	return w
}

func joinStatuses(statuses []int) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, "|")
}

// quoteRemoval applies RemoveQuotes to the word's name, the final pass
// of §4.4. It runs after tilde/parameter expansion so that quotes
// introduced only inside an expanded value are never themselves
// stripped (they were never quote characters in the source).
func quoteRemoval(w ast.Word) ast.Word {
	w.Name = RemoveQuotes(w.Name)
	return w
}

// quoteState tracks RemoveQuotes's scan position relative to quoting.
type quoteState int

const (
	quoteNone quoteState = iota
	quoteSingle
	quoteDouble
)

// RemoveQuotes strips quote characters and backslash-escapes from s the
// way §4.4's final expansion pass does: outside quotes, "\X" becomes
// "X" (and a trailing "\\\n" line continuation is deleted entirely);
// "'" opens single-quote mode (literal until the matching "'"); '"'
// opens double-quote mode, where "\" only escapes '"' and the same line
// continuation. It is exported standalone because quote removal is also
// specified, and tested, independently of full word expansion (§8
// "Quote removal laws").
func RemoveQuotes(s string) string {
	var b strings.Builder
	state := quoteNone
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		next := rune(0)
		hasNext := i+1 < len(runes)
		if hasNext {
			next = runes[i+1]
		}
		switch {
		case c == '\'' && state == quoteSingle:
			state = quoteNone
		case c == '\'' && state == quoteNone:
			state = quoteSingle
		case c == '"' && state == quoteDouble:
			state = quoteNone
		case c == '"' && state == quoteNone:
			state = quoteDouble
		case c == '\\' && (state == quoteNone || state == quoteDouble) && hasNext && next == '\n':
			i++ // swallow the escaped newline: deleted entirely
		case c == '\\' && state == quoteNone:
			if hasNext {
				b.WriteRune(next)
				i++
			}
		case c == '\\' && state == quoteDouble && hasNext && next == '"':
			b.WriteRune(next)
			i++
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}
