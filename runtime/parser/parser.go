// Package parser implements the third pipeline stage: a recursive
// descent, single-token-lookahead parser (with backtracking for the two
// locally-ambiguous productions the grammar has) that turns a semantic
// token stream into a lossless ast.SyntaxTree, distinguishing truncated
// input (Incomplete, for PS2 continuation) from irrecoverably malformed
// input (SyntaxError).
package parser

import (
	"fmt"
	"strings"

	"github.com/posh-lang/posh/core/ast"
	perrors "github.com/posh-lang/posh/core/errors"
	"github.com/posh-lang/posh/core/invariant"
	"github.com/posh-lang/posh/core/types"
	"github.com/posh-lang/posh/runtime/lexer"
	"github.com/posh-lang/posh/runtime/semantic"
)

// defaultMaxDepth bounds recursive-descent nesting (and_or/pipe_sequence
// and compound-command recursion) so a pathologically nested input fails
// fast with a SyntaxError instead of exhausting the Go call stack
// (spec's option (a): cap recursion depth with an explicit error).
const defaultMaxDepth = 500

// SubParseCache memoizes the sub-parse of a command substitution's inner
// text, keyed by the caller however it likes (the blake2b content hash
// in internal/subparsecache is the one this repo wires in).
type SubParseCache interface {
	Get(key string) (*SubParseResult, bool)
	Put(key string, result *SubParseResult)
}

// SubParseResult is what gets cached for one inner command-substitution
// text.
type SubParseResult struct {
	Tree     *ast.SyntaxTree
	Finished bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxDepth overrides defaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(p *Parser) { p.maxDepth = n }
}

// WithSubParseCache wires a cache for identical command-substitution
// sub-parses (see internal/subparsecache).
func WithSubParseCache(c SubParseCache) Option {
	return func(p *Parser) { p.cache = c }
}

// telemetryHook, when set via WithTelemetry, is called once per
// grammar-production entry with the production's name — used only for
// debug/inspection tooling (cmd/posh), never by the parser itself.
type telemetryHook func(production string)

// WithTelemetry installs a hook called on every grammar production
// entered, for cmd/posh's --trace debug output.
func WithTelemetry(hook func(production string)) Option {
	return func(p *Parser) { p.telemetry = hook }
}

// Parser is a peekable cursor over a semantic token stream, plus the
// original source text (needed to re-tokenize after splicing a
// here-document body back into the stream; see heredoc.go).
type Parser struct {
	src    string
	tokens []types.SemanticToken
	pos    int

	depth     int
	maxDepth  int
	cache     SubParseCache
	telemetry telemetryHook

	pendingHeredocs []*heredocRequest
}

// heredocRequest is a not-yet-filled here-document redirection awaiting
// its body, queued in declaration order for the current logical line.
type heredocRequest struct {
	redir *ast.Redirection
}

// Parse tokenizes, lexes, and parses input. When dropTrailingUnparsed is
// true, trailing content that isn't a complete command is tolerated and
// returned in SyntaxTree.Unparsed instead of raising SyntaxError.
func Parse(input string, dropTrailingUnparsed bool, opts ...Option) (*ast.SyntaxTree, error) {
	p := &Parser{
		src:      input,
		tokens:   semantic.Lex(lexer.Tokenize(input)),
		maxDepth: defaultMaxDepth,
	}
	for _, o := range opts {
		o(p)
	}
	tree, err := p.parseProgram(dropTrailingUnparsed)
	// An open quote, escape or expansion runs to end of input, so only the
	// last token can hold one: a blank appended to it is then swallowed too.
	if n := len(p.tokens); err == nil && n >= 2 {
		last := p.tokens[n-2]
		if last.Category != types.CatComment && last.Category != types.CatWhitespace && len(lexer.Tokenize(last.Token.Text+" ")) == 2 {
			return nil, perrors.Incomplete(last.Token.Start, "input ends inside an open quote, escape or expansion")
		}
	}
	return tree, err
}

func (p *Parser) enter(production string) func() {
	p.depth++
	if p.telemetry != nil {
		p.telemetry(production)
	}
	return func() { p.depth-- }
}

func (p *Parser) tooDeep() bool { return p.depth > p.maxDepth }

// cur looks past at most one pending Whitespace token (the lexer never
// emits two in a row) and returns the next meaningful token without
// consuming anything — every grammar decision is made against cur, and
// every production that commits to one re-collects the whitespace itself
// via collectWhitespace before consuming the token for real.
func (p *Parser) cur() types.SemanticToken {
	invariant.InRange(p.pos, 0, len(p.tokens), "pos")
	i := p.pos
	if i < len(p.tokens) && p.tokens[i].Category == types.CatWhitespace {
		i++
	}
	if i >= len(p.tokens) {
		return types.SemanticToken{Token: types.Token{Type: types.EOF}}
	}
	return p.tokens[i]
}

func (p *Parser) at(cat types.SemanticCategory) bool {
	return !p.atEOF() && p.cur().Category == cat
}

func (p *Parser) atEOF() bool {
	return p.cur().Token.Type == types.EOF
}

func (p *Parser) atOp(kind types.OperatorKind) bool {
	return p.at(types.CatOp) && p.cur().Op == kind
}

// atWordText reports whether the cursor is on an (unquoted-by-identity,
// see atReserved) CatWord token with exactly this spelling.
func (p *Parser) atWordText(text string) bool {
	return p.at(types.CatWord) && p.cur().Token.Text == text
}

// atReserved reports whether the cursor is on a word spelled like this
// reserved word. Recognition is purely lexical here — it is up to each
// call site to only ask at a grammar position where that word is
// actually reserved, per the reserved-word positionality invariant.
func (p *Parser) atReserved(kind types.ReservedWordKind) bool {
	return p.atWordText(types.ReservedWordSpelling(kind))
}

// advance consumes and returns the raw token at p.pos (NOT cur's
// whitespace-skipped lookahead) — callers collect whitespace themselves
// first via collectWhitespace so it ends up attached to the node they're
// building instead of being silently skipped.
func (p *Parser) advance() types.SemanticToken {
	if p.pos >= len(p.tokens) {
		return types.SemanticToken{Token: types.Token{Type: types.EOF}}
	}
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *Parser) mark() int { return p.pos }

func (p *Parser) reset(m int) { p.pos = m }

// remainder returns the source text from the cursor's current position
// (whitespace included) to the end of input, for dropTrailingUnparsed.
func (p *Parser) remainder() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.src[p.tokens[p.pos].Token.Start.Offset:]
}

// mismatch is the shared SyntaxError constructor for "expected X, found
// Y" failures, with a fuzzy "did you mean" suggestion against expected.
func (p *Parser) mismatch(detail string, expected ...string) error {
	got := p.cur().Token.Text
	if p.atEOF() {
		got = ""
	}
	return perrors.SyntaxErrorAt(p.cur().Token.Start, detail, got, expected...)
}

func (p *Parser) incomplete(reason string) error {
	return perrors.Incomplete(p.cur().Token.Start, reason)
}

// consumeReserved consumes a word token spelled like this reserved word,
// reporting whether one was there; it backtracks on failure so callers
// can try alternatives.
func (p *Parser) consumeReserved(kind types.ReservedWordKind) (ast.LeadingWhitespace, bool) {
	if !p.atReserved(kind) {
		return "", false
	}
	ws := p.collectWhitespace()
	p.advance()
	return ws, true
}

// expectReserved is consumeReserved for grammar positions where this
// reserved word is mandatory.
func (p *Parser) expectReserved(kind types.ReservedWordKind) (ast.LeadingWhitespace, error) {
	ws, ok := p.consumeReserved(kind)
	if ok {
		return ws, nil
	}
	spelling := types.ReservedWordSpelling(kind)
	if p.atEOF() {
		return "", p.incomplete(fmt.Sprintf("expected %q", spelling))
	}
	return "", p.mismatch("expected reserved word", spelling)
}

// collectWhitespace consumes at most one Whitespace token (the lexer
// already merges whitespace runs into a single token) and returns its
// text as a LeadingWhitespace. Checked against the raw cursor, not cur()
// — cur() already looks past pending whitespace for lookahead decisions.
func (p *Parser) collectWhitespace() ast.LeadingWhitespace {
	if p.pos < len(p.tokens) && p.tokens[p.pos].Category == types.CatWhitespace {
		return ast.LeadingWhitespace(p.advance().Token.Text)
	}
	return ""
}

// collectNewlineList consumes a run of Newline/Whitespace/Comment tokens
// (blank lines, whitespace-only lines, and comment-only lines included),
// returning nil if none were present (an empty newline_list). A comment
// has no separate AST representation: since it always runs to end of
// line, folding its text straight into the NewlineList's raw Text
// reproduces it losslessly without needing a Comment node at every
// grammar point a blank line could otherwise appear. The first newline
// consumed triggers here-document body capture for any redirections
// queued on the line just ended (§4.3 "here-document body capture").
func (p *Parser) collectNewlineList() (*ast.NewlineList, error) {
	var b strings.Builder
	var heredocs []string
	saw := false
	for {
		if p.pos < len(p.tokens) && p.tokens[p.pos].Category == types.CatNewline {
			nlTok := p.advance()
			b.WriteString(nlTok.Token.Text)
			saw = true
			if len(p.pendingHeredocs) > 0 {
				filled, err := p.fillPendingHeredocs(nlTok.Token.End.Offset)
				if err != nil {
					return nil, err
				}
				heredocs = append(heredocs, filled...)
			}
			continue
		}
		if p.pos < len(p.tokens) && p.tokens[p.pos].Category == types.CatComment {
			b.WriteString(p.advance().Token.Text)
			saw = true
			continue
		}
		if p.pos < len(p.tokens) && p.tokens[p.pos].Category == types.CatWhitespace {
			// Only swallow whitespace here if it leads to another
			// newline or a comment (a genuinely blank or comment-only
			// line); otherwise leave it as the next token's
			// LeadingWhitespace.
			m := p.mark()
			ws := p.advance().Token.Text
			if p.pos < len(p.tokens) &&
				(p.tokens[p.pos].Category == types.CatNewline || p.tokens[p.pos].Category == types.CatComment) {
				b.WriteString(ws)
				continue
			}
			p.reset(m)
			break
		}
		break
	}
	if !saw {
		return nil, nil
	}
	return &ast.NewlineList{Text: b.String(), Heredocs: heredocs}, nil
}

func (p *Parser) collectLinebreak() (ast.Linebreak, error) {
	nl, err := p.collectNewlineList()
	if err != nil {
		return ast.Linebreak{}, err
	}
	return ast.Linebreak{Newlines: nl}, nil
}
