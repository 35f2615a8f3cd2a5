// Package schema produces the stable, field-named JSON serialization of
// a parsed ast.SyntaxTree that spec.md §6 promises to debugging and
// syntax-highlighter consumers, and validates that serialization
// against a hand-published JSON Schema document (see syntaxtree.schema.json
// and Validate) — grounded on the teacher's core/types.Validator
// (compile-once-then-validate around santhosh-tekuri/jsonschema/v5).
package schema

import (
	"encoding/json"

	"github.com/posh-lang/posh/core/ast"
)

// Tree is the exported, json-tagged mirror of ast.SyntaxTree. Field
// names are exactly those listed in spec.md §3.2.
type Tree struct {
	Leading  string    `json:"leading"`
	Commands []Command `json:"commands"`
	Unparsed string    `json:"unparsed"`
}

// FromSyntaxTree converts a parsed tree into its stable JSON form.
func FromSyntaxTree(t *ast.SyntaxTree) Tree {
	out := Tree{Leading: t.Leading.String(), Commands: []Command{}}
	if t.Head != nil {
		for _, c := range t.Commands() {
			out.Commands = append(out.Commands, fromCompleteCommand(c))
		}
		out.Unparsed = t.Unparsed
	}
	return out
}

// Adapter lets a *ast.SyntaxTree be passed directly to json.Marshal
// (its MarshalJSON converts through FromSyntaxTree), for callers that
// don't want to hold onto the intermediate Tree value.
type Adapter struct{ Tree *ast.SyntaxTree }

func (a Adapter) MarshalJSON() ([]byte, error) {
	return json.Marshal(FromSyntaxTree(a.Tree))
}

type Command struct {
	Kind        string       `json:"kind"` // "list" | "comment"
	List        *List        `json:"list,omitempty"`
	SeparatorOp string       `json:"separator_op,omitempty"`
	Comment     string       `json:"comment,omitempty"`
}

func fromCompleteCommand(c ast.CompleteCommand) Command {
	if c.Kind == ast.CompleteCommandComment {
		text := ""
		if c.Comment != nil {
			text = c.Comment.String()
		}
		return Command{Kind: "comment", Comment: text}
	}
	l := fromList(c.List)
	out := Command{Kind: "list", List: &l}
	if c.SeparatorOp != nil {
		out.SeparatorOp = c.SeparatorOp.String()
	}
	return out
}

type List struct {
	Head AndOrList   `json:"head"`
	Tail []ListTail  `json:"tail,omitempty"`
}

type ListTail struct {
	SeparatorOp string    `json:"separator_op"`
	AndOr       AndOrList `json:"and_or"`
}

func fromList(l ast.List) List {
	out := List{Head: fromAndOrList(l.Head)}
	for _, t := range l.Tail {
		out.Tail = append(out.Tail, ListTail{SeparatorOp: t.Separator.String(), AndOr: fromAndOrList(t.AndOr)})
	}
	return out
}

type AndOrList struct {
	Head Pipeline    `json:"head"`
	Tail []AndOrTail `json:"tail,omitempty"`
}

type AndOrTail struct {
	Op       string   `json:"op"` // "and" | "or"
	Pipeline Pipeline `json:"pipeline"`
}

func fromAndOrList(a ast.AndOrList) AndOrList {
	out := AndOrList{Head: fromPipeline(a.Head)}
	for _, t := range a.Tail {
		op := "and"
		if t.Op.Kind == ast.LogicalOr {
			op = "or"
		}
		out.Tail = append(out.Tail, AndOrTail{Op: op, Pipeline: fromPipeline(t.Pipeline)})
	}
	return out
}

type Pipeline struct {
	Bang     bool      `json:"bang"`
	Sequence []Command2 `json:"sequence"`
}

func fromPipeline(p ast.Pipeline) Pipeline {
	out := Pipeline{Bang: p.HasBang()}
	for _, c := range p.Sequence.Commands() {
		out.Sequence = append(out.Sequence, fromCommand(c))
	}
	return out
}

// Command2 mirrors ast.Command (named to avoid clashing with the
// CompleteCommand-level Command DTO above).
type Command2 struct {
	Kind         string        `json:"kind"` // "simple" | "compound" | "function_definition"
	Simple       *SimpleCommand `json:"simple,omitempty"`
	Compound     *string        `json:"compound,omitempty"` // printed text; see note below
	FunctionName string         `json:"function_name,omitempty"`
	FunctionBody *string        `json:"function_body,omitempty"`
}

// fromCommand converts ast.Command to its DTO. Compound commands
// (if/case/for/while/until/brace/subshell) are represented by their
// reprinted source text rather than a fully recursive DTO: spec.md §6
// only commits to a stable serialization of the fields named in §3.2,
// and those stop short of specifying every compound-command sub-node's
// JSON shape, so nesting the round-trippable text here — rather than
// inventing an unspecified nested schema — keeps the contract honest
// about what is and is not pinned.
func fromCommand(c ast.Command) Command2 {
	switch c.Kind {
	case ast.CommandSimple:
		sc := fromSimpleCommand(*c.Simple)
		return Command2{Kind: "simple", Simple: &sc}
	case ast.CommandFunctionDefinition:
		body := c.FuncDef.Body.String()
		return Command2{Kind: "function_definition", FunctionName: c.FuncDef.Name.Name, FunctionBody: &body}
	default:
		text := c.Compound.String()
		return Command2{Kind: "compound", Compound: &text}
	}
}

type SimpleCommand struct {
	Name     *string    `json:"name,omitempty"`
	Prefixes []Prefix   `json:"prefixes,omitempty"`
	Suffixes []Suffix   `json:"suffixes,omitempty"`
}

func fromSimpleCommand(c ast.SimpleCommand) SimpleCommand {
	out := SimpleCommand{}
	if c.Name != nil {
		n := c.Name.Name
		out.Name = &n
	}
	for _, p := range c.Prefixes {
		out.Prefixes = append(out.Prefixes, fromPrefix(p))
	}
	for _, s := range c.Suffixes {
		out.Suffixes = append(out.Suffixes, fromSuffix(s))
	}
	return out
}

type Prefix struct {
	Kind        string       `json:"kind"` // "redirection" | "assignment"
	Redirection *Redirection `json:"redirection,omitempty"`
	Assignment  *Assignment  `json:"assignment,omitempty"`
}

func fromPrefix(p ast.CmdPrefix) Prefix {
	if p.Kind == ast.PrefixAssignment {
		a := fromAssignment(p.Assignment)
		return Prefix{Kind: "assignment", Assignment: &a}
	}
	r := fromRedirection(p.Redirection)
	return Prefix{Kind: "redirection", Redirection: &r}
}

type Suffix struct {
	Kind        string       `json:"kind"` // "redirection" | "word"
	Redirection *Redirection `json:"redirection,omitempty"`
	Word        *Word        `json:"word,omitempty"`
}

func fromSuffix(s ast.CmdSuffix) Suffix {
	if s.Kind == ast.SuffixWord {
		w := fromWord(s.Word)
		return Suffix{Kind: "word", Word: &w}
	}
	r := fromRedirection(s.Redirection)
	return Suffix{Kind: "redirection", Redirection: &r}
}

type Assignment struct {
	Lhs string `json:"lhs"`
	Rhs string `json:"rhs"`
}

func fromAssignment(a ast.VariableAssignment) Assignment {
	out := Assignment{Lhs: a.Lhs.Name}
	if a.Rhs != nil {
		out.Rhs = a.Rhs.Name
	}
	return out
}

type Redirection struct {
	Kind    string `json:"kind"` // "file" | "here"
	InputFd *int   `json:"input_fd,omitempty"`
	Ty      string `json:"ty"`
	Target  *Word  `json:"target,omitempty"`
	End     *Word  `json:"end,omitempty"`
	Content string `json:"content,omitempty"`
}

func fromRedirection(r ast.Redirection) Redirection {
	out := Redirection{}
	if r.InputFd != nil {
		v := r.InputFd.Value
		out.InputFd = &v
	}
	switch r.Kind {
	case ast.RedirFile:
		out.Kind = "file"
		out.Ty = r.FileType.String()
		w := fromWord(r.Target)
		out.Target = &w
	case ast.RedirHere:
		out.Kind = "here"
		out.Ty = r.HereType.String()
		w := fromWord(r.End)
		out.End = &w
		out.Content = r.Content
	}
	return out
}

type Word struct {
	Name       string      `json:"name"`
	Expansions []Expansion `json:"expansions,omitempty"`
}

func fromWord(w ast.Word) Word {
	out := Word{Name: w.Name}
	for _, e := range w.Expansions {
		out.Expansions = append(out.Expansions, fromExpansion(e))
	}
	return out
}

type Expansion struct {
	Kind     string `json:"kind"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Name     string `json:"name,omitempty"`
	Finished bool   `json:"finished"`
	Quoted   bool   `json:"quoted"`
}

func fromExpansion(e ast.Expansion) Expansion {
	out := Expansion{Start: e.Range.Start, End: e.Range.End, Finished: e.IsFinished()}
	switch e.Kind {
	case ast.ExpTilde:
		out.Kind = "tilde"
		out.Name = e.TildeName
	case ast.ExpParameter:
		out.Kind = "parameter"
		out.Name = e.ParamName
		out.Quoted = e.ParamQuoted
	case ast.ExpCommand:
		out.Kind = "command"
		out.Name = e.CmdPart
		out.Quoted = e.CmdQuoted
	case ast.ExpArithmetic:
		out.Kind = "arithmetic"
		out.Quoted = e.ArithQuoted
	case ast.ExpBrace:
		out.Kind = "brace"
		out.Name = e.BracePattern
	case ast.ExpGlob:
		out.Kind = "glob"
		out.Name = e.GlobPattern
	}
	return out
}
