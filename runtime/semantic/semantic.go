// Package semantic implements the second pipeline stage: it merges
// adjacent single-character operator tokens into the POSIX compound
// operators, tags IO_NUMBER words, and tags NAME=value shaped words as
// assignment-word candidates. It never decides reserved words, and it
// never decides whether an assignment-word candidate actually occurs in
// an assignment position — both of those require grammar position and
// are the parser's job (§4.2 of the design this implements).
package semantic

import (
	"strings"

	"github.com/posh-lang/posh/core/types"
	"github.com/posh-lang/posh/runtime/lexer"
)

// mergeRule is one entry of the two-character (or, for <<-, effectively
// three-character) merging table.
type mergeRule struct {
	first, second types.TokenType
	kind          types.OperatorKind
}

var mergeRules = []mergeRule{
	{types.OpAmp, types.OpAmp, types.OpKindAndIf},
	{types.OpPipe, types.OpPipe, types.OpKindOrIf},
	{types.OpSemi, types.OpSemi, types.OpKindDSemi},
	{types.OpLess, types.OpLess, types.OpKindDLess},
	{types.OpGreat, types.OpGreat, types.OpKindDGreat},
	{types.OpLess, types.OpAmp, types.OpKindLessAnd},
	{types.OpGreat, types.OpAmp, types.OpKindGreatAnd},
	{types.OpLess, types.OpGreat, types.OpKindLessGreat},
	{types.OpGreat, types.OpPipe, types.OpKindClobber},
}

var singleOpKind = map[types.TokenType]types.OperatorKind{
	types.OpPipe:   types.OpKindPipe,
	types.OpAmp:    types.OpKindAmp,
	types.OpSemi:   types.OpKindSemi,
	types.OpLess:   types.OpKindLess,
	types.OpGreat:  types.OpKindGreat,
	types.OpLparen: types.OpKindLparen,
	types.OpRparen: types.OpKindRparen,
	types.OpLbrace: types.OpKindLbrace,
	types.OpRbrace: types.OpKindRbrace,
	types.OpBang:   types.OpKindBang,
}

// redirectionOpKinds is the set of merged operator kinds IO_NUMBER must
// immediately precede.
var redirectionOpKinds = map[types.OperatorKind]bool{
	types.OpKindLess:      true,
	types.OpKindGreat:     true,
	types.OpKindDLess:     true,
	types.OpKindDLessDash: true,
	types.OpKindDGreat:    true,
	types.OpKindLessAnd:   true,
	types.OpKindGreatAnd:  true,
	types.OpKindLessGreat: true,
	types.OpKindClobber:   true,
}

// Lex turns a flat lexer.Token stream into a SemanticToken stream.
func Lex(tokens []lexer.Token) []types.SemanticToken {
	merged := mergeOperators(tokens)
	return classifyAssignmentsAndIoNumbers(merged)
}

func mergeOperators(tokens []lexer.Token) []types.SemanticToken {
	var out []types.SemanticToken
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if tok.Type == types.EOF {
			out = append(out, types.SemanticToken{Token: tok.Token, Category: types.CatWord})
			i++
			continue
		}
		if !tok.Type.IsOperator() || tok.Type == types.OpEquals {
			out = append(out, tokenToSemantic(tok))
			i++
			continue
		}
		if merged, n, ok := tryMerge(tokens, i); ok {
			out = append(out, merged)
			i += n
			continue
		}
		out = append(out, types.SemanticToken{
			Token:    tok.Token,
			Category: types.CatOp,
			Op:       singleOpKind[tok.Type],
		})
		i++
	}
	return out
}

func tryMerge(tokens []lexer.Token, i int) (types.SemanticToken, int, bool) {
	if i+1 >= len(tokens) {
		return types.SemanticToken{}, 0, false
	}
	a, b := tokens[i], tokens[i+1]
	for _, rule := range mergeRules {
		if a.Type == rule.first && b.Type == rule.second {
			text := a.Text + b.Text
			if rule.kind == types.OpKindDLess && i+2 < len(tokens) {
				if dash, n, ok := stripLeadingDash(tokens[i+2]); ok {
					tok := types.SemanticToken{
						Token: types.Token{
							Type:  types.OpLess,
							Text:  text + "-",
							Start: a.Start,
							End:   dash.End,
						},
						Category: types.CatOp,
						Op:       types.OpKindDLessDash,
					}
					_ = n
					return tok, 3, true
				}
			}
			return types.SemanticToken{
				Token:    types.Token{Type: a.Type, Text: text, Start: a.Start, End: b.End},
				Category: types.CatOp,
				Op:       rule.kind,
			}, 2, true
		}
	}
	return types.SemanticToken{}, 0, false
}

// stripLeadingDash recognizes the '-' of "<<-" in the word token that
// follows "<<" ('-' is an ordinary word character, not a tokenizer
// operator). The tokenizer emits a '-' right after "<<" as a one-byte
// word of its own, so consuming that token leaves the delimiter word
// after it intact.
func stripLeadingDash(tok lexer.Token) (lexer.Token, int, bool) {
	if tok.Type != types.Word || !strings.HasPrefix(tok.Text, "-") {
		return lexer.Token{}, 0, false
	}
	return tok, 1, true
}

func tokenToSemantic(tok lexer.Token) types.SemanticToken {
	switch tok.Type {
	case types.Whitespace:
		return types.SemanticToken{Token: tok.Token, Category: types.CatWhitespace}
	case types.Newline:
		return types.SemanticToken{Token: tok.Token, Category: types.CatNewline}
	case types.Comment:
		return types.SemanticToken{Token: tok.Token, Category: types.CatComment}
	default:
		return types.SemanticToken{Token: tok.Token, Category: types.CatWord, Expansions: tok.Expansions}
	}
}

// classifyAssignmentsAndIoNumbers runs after merging (IO_NUMBER must see
// the final merged redirection operator) and tags, position-blind,
// every NAME=value shaped word as an assignment-word candidate, and
// every all-digit word immediately followed by a redirection operator as
// an IO_NUMBER. Positional commitment (is this candidate actually where
// the grammar allows an assignment or an IO_NUMBER?) is left to the
// parser.
func classifyAssignmentsAndIoNumbers(tokens []types.SemanticToken) []types.SemanticToken {
	for i := range tokens {
		t := &tokens[i]
		if t.Category != types.CatWord {
			continue
		}
		if lhs, rhs, ok := splitAssignment(t.Token.Text); ok {
			t.Category = types.CatAssignmentWord
			t.AssignLHS = lhs
			t.AssignRHS = rhs
			continue
		}
		if isAllDigits(t.Token.Text) && i+1 < len(tokens) && tokens[i+1].Category == types.CatOp && redirectionOpKinds[tokens[i+1].Op] {
			t.Category = types.CatIoNumber
		}
	}
	return tokens
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// splitAssignment matches the NAME=value shape: NAME starts with '_' or
// a letter, continues with alnum/'_', followed by '='.
func splitAssignment(s string) (lhs, rhs string, ok bool) {
	eq := strings.IndexByte(s, '=')
	if eq <= 0 {
		return "", "", false
	}
	name := s[:eq]
	for i, r := range name {
		if i == 0 {
			if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
				return "", "", false
			}
			continue
		}
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return "", "", false
		}
	}
	return name, s[eq+1:], true
}
