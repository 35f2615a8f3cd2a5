// Package lexer implements the character-level tokenizer: the first of
// the four pipeline stages. It turns raw input text into a flat,
// restartable stream of spellings, recognizing (but not yet classifying)
// words, whitespace, newlines, comments, and single-character operators,
// and recording the expansion sites (tilde, parameter, command,
// arithmetic, glob) found while scanning each word. No brace-expansion
// site is recorded: '{' is an operator character (see scanBrace).
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/posh-lang/posh/core/ast"
	"github.com/posh-lang/posh/core/types"
)

// quoteMode is the tokenizer's only persistent state besides position.
type quoteMode int

const (
	modeNone quoteMode = iota
	modeSingle
	modeDouble
)

const operatorChars = "|&;<>(){}!"

// Token is the Tokenizer's output for one lexeme: a spelling-only
// types.Token plus, for Word tokens, the expansion sites found while
// scanning it.
type Token struct {
	types.Token
	Expansions []ast.Expansion
}

// lexer holds the scan position over the input. It never errors: every
// input, however malformed, produces a token stream (§4.1).
type lexer struct {
	src    string
	offset int
	line   int
	col    int
}

// Tokenize turns input into a total, restartable stream of tokens ending
// in a single EOF token.
func Tokenize(input string) []Token {
	l := &lexer{src: input, line: 1, col: 1}
	var out []Token
	for {
		tok := l.next()
		out = append(out, tok)
		if tok.Type == types.EOF {
			return out
		}
	}
}

func (l *lexer) pos() types.Position {
	return types.Position{Line: l.line, Column: l.col, Offset: l.offset}
}

func (l *lexer) eof() bool { return l.offset >= len(l.src) }

func (l *lexer) peekRune() (rune, int) {
	if l.eof() {
		return 0, 0
	}
	r, sz := utf8.DecodeRuneInString(l.src[l.offset:])
	return r, sz
}

func (l *lexer) peekAt(off int) (rune, int) {
	if l.offset+off >= len(l.src) {
		return 0, 0
	}
	r, sz := utf8.DecodeRuneInString(l.src[l.offset+off:])
	return r, sz
}

func (l *lexer) advance() rune {
	r, sz := l.peekRune()
	if sz == 0 {
		return 0
	}
	l.offset += sz
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func isOperatorRune(r rune) bool { return strings.ContainsRune(operatorChars, r) }

func isBlank(r rune) bool { return r == ' ' || r == '\t' }

func (l *lexer) next() Token {
	start := l.pos()
	if l.eof() {
		return Token{Token: types.Token{Type: types.EOF, Start: start, End: start}}
	}
	r, _ := l.peekRune()

	switch {
	case isBlank(r):
		return l.scanWhitespace(start)
	case r == '\n':
		l.advance()
		return Token{Token: types.Token{Type: types.Newline, Text: "\n", Start: start, End: l.pos()}}
	case r == '#':
		return l.scanComment(start)
	case isOperatorRune(r):
		l.advance()
		return Token{Token: types.Token{Type: operatorTokenType(r), Text: string(r), Start: start, End: l.pos()}}
	case r == '-' && strings.HasSuffix(l.src[:l.offset], "<<") && !strings.HasSuffix(l.src[:l.offset], "\\<<"):
		// The '-' of "<<-" is a one-byte word of its own, so the
		// here-document delimiter right after it stays a separate word.
		l.advance()
		return Token{Token: types.Token{Type: types.Word, Text: "-", Start: start, End: l.pos()}}
	default:
		return l.scanWord(start)
	}
}

func operatorTokenType(r rune) types.TokenType {
	switch r {
	case '|':
		return types.OpPipe
	case '&':
		return types.OpAmp
	case ';':
		return types.OpSemi
	case '<':
		return types.OpLess
	case '>':
		return types.OpGreat
	case '(':
		return types.OpLparen
	case ')':
		return types.OpRparen
	case '{':
		return types.OpLbrace
	case '}':
		return types.OpRbrace
	case '!':
		return types.OpBang
	default:
		return types.ILLEGAL
	}
}

func (l *lexer) scanWhitespace(start types.Position) Token {
	var b strings.Builder
	for {
		r, sz := l.peekRune()
		if sz == 0 || !isBlank(r) {
			break
		}
		b.WriteRune(r)
		l.advance()
	}
	return Token{Token: types.Token{Type: types.Whitespace, Text: b.String(), Start: start, End: l.pos()}}
}

func (l *lexer) scanComment(start types.Position) Token {
	var b strings.Builder
	for {
		r, sz := l.peekRune()
		if sz == 0 || r == '\n' {
			break
		}
		b.WriteRune(r)
		l.advance()
	}
	return Token{Token: types.Token{Type: types.Comment, Text: b.String(), Start: start, End: l.pos()}}
}

// scanWord consumes a maximal word, tracking quote state and recording
// expansion sites as it goes. Ranges are byte offsets into the word's
// own text (b.Len() at the moment each expansion starts/ends), not into
// the whole source.
func (l *lexer) scanWord(start types.Position) Token {
	var b strings.Builder
	var exps []ast.Expansion
	mode := modeNone

	for {
		r, sz := l.peekRune()
		if sz == 0 {
			break
		}

		switch mode {
		case modeNone:
			if isBlank(r) || r == '\n' || isOperatorRune(r) || r == '#' {
				goto done
			}
			switch r {
			case '\\':
				b.WriteRune(l.advance())
				if nr, nsz := l.peekRune(); nsz != 0 {
					b.WriteRune(nr)
					l.advance()
				}
				continue
			case '\'':
				b.WriteRune(l.advance())
				mode = modeSingle
				continue
			case '"':
				b.WriteRune(l.advance())
				mode = modeDouble
				continue
			case '$':
				if e, ok := l.scanDollar(&b, false); ok {
					exps = append(exps, e)
				}
				continue
			case '`':
				exps = append(exps, l.scanBacktick(&b, false))
				continue
			case '~':
				if e, ok := l.scanTilde(&b); ok {
					exps = append(exps, e)
					continue
				}
			case '{':
				if e, ok := l.scanBrace(&b); ok {
					exps = append(exps, e)
					continue
				}
			case '*', '?':
				exps = append(exps, l.scanGlobStar(&b))
				continue
			case '[':
				if e, ok := l.scanGlobBracket(&b); ok {
					exps = append(exps, e)
					continue
				}
			}
			b.WriteRune(l.advance())

		case modeSingle:
			b.WriteRune(l.advance())
			if r == '\'' {
				mode = modeNone
			}

		case modeDouble:
			switch r {
			case '"':
				b.WriteRune(l.advance())
				mode = modeNone
			case '\\':
				nr, _ := l.peekAt(sz)
				if strings.ContainsRune("$`\"\\\n", nr) {
					b.WriteRune(l.advance())
					b.WriteRune(l.advance())
				} else {
					b.WriteRune(l.advance())
				}
			case '$':
				if e, ok := l.scanDollar(&b, true); ok {
					exps = append(exps, e)
				}
			case '`':
				exps = append(exps, l.scanBacktick(&b, true))
			default:
				b.WriteRune(l.advance())
			}
		}
	}

done:
	return Token{
		Token:      types.Token{Type: types.Word, Text: b.String(), Start: start, End: l.pos()},
		Expansions: exps,
	}
}

// scanTilde recognizes "~" at the start of a word, or immediately after
// an unquoted ':', up to the next '/' or word end.
func (l *lexer) scanTilde(b *strings.Builder) (ast.Expansion, bool) {
	if b.Len() != 0 {
		last := b.String()[b.Len()-1]
		if last != ':' {
			return ast.Expansion{}, false
		}
	}
	rangeStart := b.Len()
	b.WriteRune(l.advance()) // '~'
	nameStart := b.Len()
	for {
		r, sz := l.peekRune()
		if sz == 0 || r == '/' || isBlank(r) || r == '\n' || isOperatorRune(r) || r == ':' {
			break
		}
		b.WriteRune(l.advance())
	}
	name := b.String()[nameStart:]
	return ast.Expansion{
		Kind:      ast.ExpTilde,
		Range:     ast.Range{Start: rangeStart, End: b.Len() - 1},
		TildeName: name,
	}, true
}

// scanDollar handles "$name", "${...}", "$?"-style specials, "$(...)"
// command substitution and "$((...))" arithmetic expansion. Returns
// ok=false if '$' turned out not to introduce anything (trailing '$' at
// end of input/word), in which case the bare '$' is still appended.
func (l *lexer) scanDollar(b *strings.Builder, quoted bool) (ast.Expansion, bool) {
	rangeStart := b.Len()
	b.WriteRune(l.advance()) // '$'

	nr, nsz := l.peekRune()
	if nsz == 0 {
		return ast.Expansion{}, false
	}

	switch {
	case nr == '(' && peekIs(l, 1, '('):
		b.WriteRune(l.advance()) // '('
		b.WriteRune(l.advance()) // '('
		innerStart := b.Len()
		finished := l.scanBalanced(b, "((", "))")
		inner := b.String()[innerStart:]
		if finished {
			inner = strings.TrimSuffix(inner, "))")
		}
		arithWord := ast.NewWord(inner, "")
		return ast.Expansion{
			Kind:          ast.ExpArithmetic,
			Range:         ast.Range{Start: rangeStart, End: b.Len() - 1},
			ArithExpr:     &arithWord,
			ArithFinished: finished,
			ArithQuoted:   quoted,
		}, true

	case nr == '(':
		b.WriteRune(l.advance()) // '('
		innerStart := b.Len()
		finished := l.scanBalancedParen(b)
		inner := b.String()[innerStart:]
		if finished {
			inner = strings.TrimSuffix(inner, ")")
		}
		return ast.Expansion{
			Kind:        ast.ExpCommand,
			Range:       ast.Range{Start: rangeStart, End: b.Len() - 1},
			CmdPart:     inner,
			CmdFinished: finished,
			CmdQuoted:   quoted,
		}, true

	case nr == '{':
		b.WriteRune(l.advance()) // '{'
		innerStart := b.Len()
		finished := l.scanBalancedBrace(b)
		inner := b.String()[innerStart:]
		if finished {
			inner = strings.TrimSuffix(inner, "}")
		}
		return ast.Expansion{
			Kind:          ast.ExpParameter,
			Range:         ast.Range{Start: rangeStart, End: b.Len() - 1},
			ParamName:     inner,
			ParamFinished: finished,
			ParamQuoted:   quoted,
		}, true

	case isNameStart(nr) || isSpecialParam(nr):
		nameStart := b.Len()
		if isNameStart(nr) {
			for {
				r, sz := l.peekRune()
				if sz == 0 || !isNameCont(r) {
					break
				}
				b.WriteRune(l.advance())
			}
		} else {
			b.WriteRune(l.advance())
		}
		name := b.String()[nameStart:]
		return ast.Expansion{
			Kind:          ast.ExpParameter,
			Range:         ast.Range{Start: rangeStart, End: b.Len() - 1},
			ParamName:     name,
			ParamFinished: true,
			ParamQuoted:   quoted,
		}, true

	default:
		return ast.Expansion{}, false
	}
}

func peekIs(l *lexer, offsetRunes int, want rune) bool {
	off := 0
	for i := 0; i < offsetRunes; i++ {
		_, sz := l.peekAt(off)
		if sz == 0 {
			return false
		}
		off += sz
	}
	r, sz := l.peekAt(off)
	return sz != 0 && r == want
}

func isNameStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isNameCont(r rune) bool {
	return isNameStart(r) || (r >= '0' && r <= '9')
}

func isSpecialParam(r rune) bool {
	return strings.ContainsRune("?@*#-$!0123456789", r)
}

// scanBalancedParen scans up to and including a matching ')', honoring
// nested '(' / ')' and backslash escapes, and returns whether it found
// one before EOF. Quotes inside are not tracked, so a quoted ')' still
// counts.
func (l *lexer) scanBalancedParen(b *strings.Builder) bool {
	depth := 1
	for {
		r, sz := l.peekRune()
		if sz == 0 {
			return false
		}
		b.WriteRune(l.advance())
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return true
			}
		case '\\':
			if nr, nsz := l.peekRune(); nsz != 0 {
				b.WriteRune(l.advance())
				_ = nr
			}
		}
	}
}

// scanBalancedBrace scans up to and including a matching '}', honoring
// nested "${" / "}" .
func (l *lexer) scanBalancedBrace(b *strings.Builder) bool {
	depth := 1
	for {
		r, sz := l.peekRune()
		if sz == 0 {
			return false
		}
		b.WriteRune(l.advance())
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return true
			}
		case '\\':
			if _, nsz := l.peekRune(); nsz != 0 {
				b.WriteRune(l.advance())
			}
		}
	}
}

// scanBalanced scans up to and including a matching "))" for arithmetic
// expansion, honoring nested '(' / ')'. depth starts at 2 because the
// caller already consumed the opening "((".
func (l *lexer) scanBalanced(b *strings.Builder, _ string, _ string) bool {
	depth := 2
	for {
		r, sz := l.peekRune()
		if sz == 0 {
			return false
		}
		b.WriteRune(l.advance())
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return true
			}
		case '\\':
			if _, nsz := l.peekRune(); nsz != 0 {
				b.WriteRune(l.advance())
			}
		}
	}
}

// scanBacktick scans a backtick command substitution, honoring
// backslash-escaped backticks inside.
func (l *lexer) scanBacktick(b *strings.Builder, quoted bool) ast.Expansion {
	rangeStart := b.Len()
	b.WriteRune(l.advance()) // opening '`'
	innerStart := b.Len()
	finished := false
	for {
		r, sz := l.peekRune()
		if sz == 0 {
			break
		}
		if r == '\\' {
			b.WriteRune(l.advance())
			if _, nsz := l.peekRune(); nsz != 0 {
				b.WriteRune(l.advance())
			}
			continue
		}
		if r == '`' {
			b.WriteRune(l.advance())
			finished = true
			break
		}
		b.WriteRune(l.advance())
	}
	inner := b.String()[innerStart:]
	if finished {
		inner = strings.TrimSuffix(inner, "`")
	}
	return ast.Expansion{
		Kind:        ast.ExpCommand,
		Range:       ast.Range{Start: rangeStart, End: b.Len() - 1},
		CmdPart:     inner,
		CmdFinished: finished,
		CmdQuoted:   quoted,
	}
}

// scanBrace recognizes "{a,b,c}" brace-expansion syntax: only committed
// when the run from '{' to a matching '}' contains a top-level comma,
// so a bare "{" used as the compound-command keyword is never
// misclassified as the start of one. scanWord never reaches it, though:
// '{' is in operatorChars, so it always ends the current word and is
// emitted as its own operator token, and no ExpBrace is ever produced.
func (l *lexer) scanBrace(b *strings.Builder) (ast.Expansion, bool) {
	if b.Len() != 0 {
		return ast.Expansion{}, false
	}
	save := *l
	rangeStart := b.Len()
	var scratch strings.Builder
	scratch.WriteRune(l.advance()) // '{'
	depth := 1
	hasComma := false
	for {
		r, sz := l.peekRune()
		if sz == 0 {
			*l = save
			return ast.Expansion{}, false
		}
		scratch.WriteRune(l.advance())
		switch r {
		case '{':
			depth++
		case ',':
			if depth == 1 {
				hasComma = true
			}
		case '}':
			depth--
			if depth == 0 {
				if !hasComma {
					*l = save
					return ast.Expansion{}, false
				}
				text := scratch.String()
				b.WriteString(text)
				pattern := strings.TrimSuffix(strings.TrimPrefix(text, "{"), "}")
				return ast.Expansion{
					Kind:         ast.ExpBrace,
					Range:        ast.Range{Start: rangeStart, End: b.Len() - 1},
					BracePattern: pattern,
				}, true
			}
		}
	}
}

// scanGlobStar records a single '*' or '?' glob wildcard, or a "**" pair
// as one GlobRecursive annotation (a longer run of '*' yields more than
// one annotation).
func (l *lexer) scanGlobStar(b *strings.Builder) ast.Expansion {
	rangeStart := b.Len()
	r := l.advance()
	b.WriteRune(r)
	recursive := false
	if r == '*' {
		if nr, nsz := l.peekRune(); nsz != 0 && nr == '*' {
			b.WriteRune(l.advance())
			recursive = true
		}
	}
	return ast.Expansion{
		Kind:          ast.ExpGlob,
		Range:         ast.Range{Start: rangeStart, End: b.Len() - 1},
		GlobRecursive: recursive,
		GlobPattern:   b.String()[rangeStart:],
	}
}

// scanGlobBracket recognizes a POSIX bracket expression "[...]",
// allowing a leading '!' or '^' negation and a literal ']' immediately
// after it.
func (l *lexer) scanGlobBracket(b *strings.Builder) (ast.Expansion, bool) {
	save := *l
	rangeStart := b.Len()
	var scratch strings.Builder
	scratch.WriteRune(l.advance()) // '['
	if r, sz := l.peekRune(); sz != 0 && (r == '!' || r == '^') {
		scratch.WriteRune(l.advance())
	}
	if r, sz := l.peekRune(); sz != 0 && r == ']' {
		scratch.WriteRune(l.advance())
	}
	for {
		r, sz := l.peekRune()
		if sz == 0 || r == '\n' {
			*l = save
			return ast.Expansion{}, false
		}
		scratch.WriteRune(l.advance())
		if r == ']' {
			text := scratch.String()
			b.WriteString(text)
			return ast.Expansion{
				Kind:        ast.ExpGlob,
				Range:       ast.Range{Start: rangeStart, End: b.Len() - 1},
				GlobPattern: text,
			}, true
		}
	}
}
