package expand

import "github.com/posh-lang/posh/core/ast"

// SyntaxTree expands every command in a parsed tree, returning a new
// tree with the same shape and whitespace but expanded Word nodes.
// Unparsed, if any, is untouched — it is not a command, just trailing
// input the parser could not consume.
func SyntaxTree(t *ast.SyntaxTree, env Environment) *ast.SyntaxTree {
	if t == nil || t.Head == nil {
		return t
	}
	out := *t
	head := CompleteCommand(*t.Head, env)
	out.Head = &head
	if len(t.Tail) > 0 {
		tail := make([]ast.SyntaxTreeTail, len(t.Tail))
		for i, tl := range t.Tail {
			tail[i] = ast.SyntaxTreeTail{Newlines: tl.Newlines, Command: CompleteCommand(tl.Command, env)}
		}
		out.Tail = tail
	}
	return &out
}

func CompleteCommand(c ast.CompleteCommand, env Environment) ast.CompleteCommand {
	if c.Kind == ast.CompleteCommandComment {
		return c
	}
	c.List = List(c.List, env)
	return c
}

func List(l ast.List, env Environment) ast.List {
	l.Head = AndOrList(l.Head, env)
	if len(l.Tail) > 0 {
		tail := make([]ast.ListTail, len(l.Tail))
		for i, t := range l.Tail {
			tail[i] = ast.ListTail{Separator: t.Separator, AndOr: AndOrList(t.AndOr, env)}
		}
		l.Tail = tail
	}
	return l
}

func AndOrList(a ast.AndOrList, env Environment) ast.AndOrList {
	a.Head = Pipeline(a.Head, env)
	if len(a.Tail) > 0 {
		tail := make([]ast.AndOrTail, len(a.Tail))
		for i, t := range a.Tail {
			tail[i] = ast.AndOrTail{Op: t.Op, Linebreak: t.Linebreak, Pipeline: Pipeline(t.Pipeline, env)}
		}
		a.Tail = tail
	}
	return a
}

func Pipeline(p ast.Pipeline, env Environment) ast.Pipeline {
	p.Sequence = PipeSequence(p.Sequence, env)
	return p
}

func PipeSequence(s ast.PipeSequence, env Environment) ast.PipeSequence {
	s.Head = Command(s.Head, env)
	if len(s.Tail) > 0 {
		tail := make([]ast.PipeSequenceTail, len(s.Tail))
		for i, t := range s.Tail {
			tail[i] = ast.PipeSequenceTail{Pipe: t.Pipe, Linebreak: t.Linebreak, Command: Command(t.Command, env)}
		}
		s.Tail = tail
	}
	return s
}

// Command dispatches on the three Command variants; every one of them
// transitively owns Word nodes, so — unlike the original this was
// ported from, which leaves compound commands and function definitions
// as a todo!() — all three are expanded here (§4.4's "the default
// implementation recurses" applies uniformly, not just to SimpleCommand).
func Command(c ast.Command, env Environment) ast.Command {
	switch c.Kind {
	case ast.CommandSimple:
		simple := SimpleCommand(*c.Simple, env)
		c.Simple = &simple
	case ast.CommandCompound:
		compound := CompoundCommand(*c.Compound, env)
		c.Compound = &compound
		c.Redirections = redirections(c.Redirections, env)
	case ast.CommandFunctionDefinition:
		fn := FunctionDefinition(*c.FuncDef, env)
		c.FuncDef = &fn
	}
	return c
}

// SimpleCommand expands a command's name, prefixes, and suffixes, and
// drops any suffix word that consists solely of escaped newlines (a
// line-continuation artifact that carries no token of its own once
// expanded — the original's is_only_escaped_newlines check).
func SimpleCommand(c ast.SimpleCommand, env Environment) ast.SimpleCommand {
	if c.Name != nil {
		name := Word(*c.Name, env)
		c.Name = &name
	}
	if len(c.Prefixes) > 0 {
		prefixes := make([]ast.CmdPrefix, len(c.Prefixes))
		for i, p := range c.Prefixes {
			prefixes[i] = CmdPrefix(p, env)
		}
		c.Prefixes = prefixes
	}
	if len(c.Suffixes) > 0 {
		suffixes := make([]ast.CmdSuffix, 0, len(c.Suffixes))
		for _, s := range c.Suffixes {
			if s.Kind == ast.SuffixWord && isOnlyEscapedNewlines(s.Word.Name) {
				continue
			}
			suffixes = append(suffixes, CmdSuffix(s, env))
		}
		c.Suffixes = suffixes
	}
	return c
}

func isOnlyEscapedNewlines(name string) bool {
	for {
		i := indexEscapedNewline(name)
		if i < 0 {
			break
		}
		name = name[:i] + name[i+2:]
	}
	return name == ""
}

func indexEscapedNewline(s string) int {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '\\' && s[i+1] == '\n' {
			return i
		}
	}
	return -1
}

func CmdPrefix(p ast.CmdPrefix, env Environment) ast.CmdPrefix {
	switch p.Kind {
	case ast.PrefixRedirection:
		p.Redirection = Redirection(p.Redirection, env)
	case ast.PrefixAssignment:
		p.Assignment = VariableAssignment(p.Assignment, env)
	}
	return p
}

func CmdSuffix(s ast.CmdSuffix, env Environment) ast.CmdSuffix {
	switch s.Kind {
	case ast.SuffixRedirection:
		s.Redirection = Redirection(s.Redirection, env)
	case ast.SuffixWord:
		s.Word = Word(s.Word, env)
	}
	return s
}

func VariableAssignment(a ast.VariableAssignment, env Environment) ast.VariableAssignment {
	if a.Rhs != nil {
		rhs := Word(*a.Rhs, env)
		a.Rhs = &rhs
	}
	return a
}

// Redirection expands a file redirection's target word, or a
// here-document's delimiter word. A here-document's captured body
// (Content) is plain text that is never tokenized as a word, so no
// expansion sites are recorded for it and it is left untouched.
func Redirection(r ast.Redirection, env Environment) ast.Redirection {
	switch r.Kind {
	case ast.RedirFile:
		r.Target = Word(r.Target, env)
	case ast.RedirHere:
		r.End = Word(r.End, env)
	}
	return r
}

func redirections(rs []ast.Redirection, env Environment) []ast.Redirection {
	if len(rs) == 0 {
		return rs
	}
	out := make([]ast.Redirection, len(rs))
	for i, r := range rs {
		out[i] = Redirection(r, env)
	}
	return out
}

func CompoundCommand(c ast.CompoundCommand, env Environment) ast.CompoundCommand {
	switch c.Kind {
	case ast.CompoundBrace:
		g := BraceGroup(*c.Brace, env)
		c.Brace = &g
	case ast.CompoundSubshell:
		s := Subshell(*c.Subshell, env)
		c.Subshell = &s
	case ast.CompoundFor:
		f := ForClause(*c.For, env)
		c.For = &f
	case ast.CompoundCase:
		cc := CaseClause(*c.Case, env)
		c.Case = &cc
	case ast.CompoundIf:
		i := IfClause(*c.If, env)
		c.If = &i
	case ast.CompoundWhile:
		w := WhileClause(*c.While, env)
		c.While = &w
	case ast.CompoundUntil:
		u := UntilClause(*c.Until, env)
		c.Until = &u
	}
	return c
}

func BraceGroup(g ast.BraceGroup, env Environment) ast.BraceGroup {
	g.Body = CompoundList(g.Body, env)
	return g
}

func Subshell(s ast.Subshell, env Environment) ast.Subshell {
	s.Body = CompoundList(s.Body, env)
	return s
}

func CompoundList(l ast.CompoundList, env Environment) ast.CompoundList {
	l.Term = Term(l.Term, env)
	return l
}

func Term(t ast.Term, env Environment) ast.Term {
	t.Head = AndOrList(t.Head, env)
	if len(t.Tail) > 0 {
		tail := make([]ast.TermTail, len(t.Tail))
		for i, tl := range t.Tail {
			tail[i] = ast.TermTail{Separator: tl.Separator, AndOr: AndOrList(tl.AndOr, env)}
		}
		t.Tail = tail
	}
	return t
}

func DoGroup(g ast.DoGroup, env Environment) ast.DoGroup {
	g.Body = CompoundList(g.Body, env)
	return g
}

func ForClause(f ast.ForClause, env Environment) ast.ForClause {
	if len(f.Words) > 0 {
		words := make([]ast.Word, len(f.Words))
		for i, w := range f.Words {
			words[i] = Word(w, env)
		}
		f.Words = words
	}
	f.Do = DoGroup(f.Do, env)
	return f
}

func Pattern(p ast.Pattern, env Environment) ast.Pattern {
	p.Head = Word(p.Head, env)
	if len(p.Tail) > 0 {
		tail := make([]ast.PatternTail, len(p.Tail))
		for i, t := range p.Tail {
			tail[i] = ast.PatternTail{Pipe: t.Pipe, Word: Word(t.Word, env)}
		}
		p.Tail = tail
	}
	return p
}

func CaseItem(i ast.CaseItem, env Environment) ast.CaseItem {
	i.Pattern = Pattern(i.Pattern, env)
	if i.Body != nil {
		body := CompoundList(*i.Body, env)
		i.Body = &body
	}
	return i
}

func CaseClause(c ast.CaseClause, env Environment) ast.CaseClause {
	c.Word = Word(c.Word, env)
	if len(c.Items) > 0 {
		items := make([]ast.CaseItem, len(c.Items))
		for i, it := range c.Items {
			items[i] = CaseItem(it, env)
		}
		c.Items = items
	}
	return c
}

func ElseBranch(e ast.ElseBranch, env Environment) ast.ElseBranch {
	if e.Predicate != nil {
		pred := CompoundList(*e.Predicate, env)
		e.Predicate = &pred
	}
	e.Body = CompoundList(e.Body, env)
	return e
}

func IfClause(c ast.IfClause, env Environment) ast.IfClause {
	c.Predicate = CompoundList(c.Predicate, env)
	c.Body = CompoundList(c.Body, env)
	if len(c.Else) > 0 {
		branches := make([]ast.ElseBranch, len(c.Else))
		for i, e := range c.Else {
			branches[i] = ElseBranch(e, env)
		}
		c.Else = branches
	}
	return c
}

func WhileClause(c ast.WhileClause, env Environment) ast.WhileClause {
	c.Predicate = CompoundList(c.Predicate, env)
	c.Body = DoGroup(c.Body, env)
	return c
}

func UntilClause(c ast.UntilClause, env Environment) ast.UntilClause {
	c.Predicate = CompoundList(c.Predicate, env)
	c.Body = DoGroup(c.Body, env)
	return c
}

func FunctionDefinition(f ast.FunctionDefinition, env Environment) ast.FunctionDefinition {
	f.Body = FunctionBody(f.Body, env)
	return f
}

func FunctionBody(b ast.FunctionBody, env Environment) ast.FunctionBody {
	b.Command = CompoundCommand(b.Command, env)
	b.Redirections = redirections(b.Redirections, env)
	return b
}
