package parser

import (
	"github.com/posh-lang/posh/core/ast"
	"github.com/posh-lang/posh/core/types"
)

// isCompoundStart reports whether the cursor is on an operator or
// reserved word that opens a compound_command.
func (p *Parser) isCompoundStart() bool {
	switch {
	case p.atOp(types.OpKindLbrace), p.atOp(types.OpKindLparen):
		return true
	case p.atReserved(types.RwFor), p.atReserved(types.RwCase), p.atReserved(types.RwIf),
		p.atReserved(types.RwWhile), p.atReserved(types.RwUntil):
		return true
	default:
		return false
	}
}

func (p *Parser) parseCompoundCommand() (*ast.CompoundCommand, error) {
	defer p.enter("compound_command")()
	switch {
	case p.atOp(types.OpKindLbrace):
		g, err := p.parseBraceGroup()
		if err != nil {
			return nil, err
		}
		return &ast.CompoundCommand{Kind: ast.CompoundBrace, Brace: g}, nil
	case p.atOp(types.OpKindLparen):
		s, err := p.parseSubshell()
		if err != nil {
			return nil, err
		}
		return &ast.CompoundCommand{Kind: ast.CompoundSubshell, Subshell: s}, nil
	case p.atReserved(types.RwFor):
		f, err := p.parseForClause()
		if err != nil {
			return nil, err
		}
		return &ast.CompoundCommand{Kind: ast.CompoundFor, For: f}, nil
	case p.atReserved(types.RwCase):
		c, err := p.parseCaseClause()
		if err != nil {
			return nil, err
		}
		return &ast.CompoundCommand{Kind: ast.CompoundCase, Case: c}, nil
	case p.atReserved(types.RwIf):
		i, err := p.parseIfClause()
		if err != nil {
			return nil, err
		}
		return &ast.CompoundCommand{Kind: ast.CompoundIf, If: i}, nil
	case p.atReserved(types.RwWhile):
		w, err := p.parseWhileClause()
		if err != nil {
			return nil, err
		}
		return &ast.CompoundCommand{Kind: ast.CompoundWhile, While: w}, nil
	case p.atReserved(types.RwUntil):
		u, err := p.parseUntilClause()
		if err != nil {
			return nil, err
		}
		return &ast.CompoundCommand{Kind: ast.CompoundUntil, Until: u}, nil
	default:
		return nil, p.mismatch("expected compound command",
			"{", "(", "for", "case", "if", "while", "until")
	}
}

func (p *Parser) parseBraceGroup() (*ast.BraceGroup, error) {
	ws := p.collectWhitespace()
	p.advance() // '{'
	body, err := p.parseCompoundList()
	if err != nil {
		return nil, err
	}
	if !p.atOp(types.OpKindRbrace) {
		if p.atEOF() {
			return nil, p.incomplete("expected '}'")
		}
		return nil, p.mismatch("expected '}'", "}")
	}
	rws := p.collectWhitespace()
	p.advance()
	return &ast.BraceGroup{Lbrace: ws, Body: *body, Rbrace: rws}, nil
}

func (p *Parser) parseSubshell() (*ast.Subshell, error) {
	ws := p.collectWhitespace()
	p.advance() // '('
	body, err := p.parseCompoundList()
	if err != nil {
		return nil, err
	}
	if !p.atOp(types.OpKindRparen) {
		if p.atEOF() {
			return nil, p.incomplete("expected ')'")
		}
		return nil, p.mismatch("expected ')'", ")")
	}
	rws := p.collectWhitespace()
	p.advance()
	return &ast.Subshell{Lparen: ws, Body: *body, Rparen: rws}, nil
}

func (p *Parser) parseCompoundList() (*ast.CompoundList, error) {
	defer p.enter("compound_list")()
	lb, err := p.collectLinebreak()
	if err != nil {
		return nil, err
	}
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	var sep *ast.Separator
	s, ok, err := p.tryParseSeparator()
	if err != nil {
		return nil, err
	}
	if ok {
		sep = &s
	}
	return &ast.CompoundList{Linebreak: lb, Term: *term, Separator: sep}, nil
}

// tryParseSeparator implements "separator_op linebreak | newline_list".
func (p *Parser) tryParseSeparator() (ast.Separator, bool, error) {
	if p.atOp(types.OpKindSemi) || p.atOp(types.OpKindAmp) {
		sep, _, err := p.tryParseSeparatorOp()
		if err != nil {
			return ast.Separator{}, false, err
		}
		lb, err := p.collectLinebreak()
		if err != nil {
			return ast.Separator{}, false, err
		}
		return ast.Separator{Implicit: false, Op: sep, Linebreak: lb}, true, nil
	}
	nl, err := p.collectNewlineList()
	if err != nil {
		return ast.Separator{}, false, err
	}
	if nl == nil {
		return ast.Separator{}, false, nil
	}
	return ast.Separator{Implicit: true, Newlines: *nl}, true, nil
}

func (p *Parser) parseTerm() (*ast.Term, error) {
	defer p.enter("term")()
	head, err := p.parseAndOrList()
	if err != nil {
		return nil, err
	}
	term := &ast.Term{Head: *head}
	for {
		m := p.mark()
		sep, ok, err := p.tryParseSeparator()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if !p.startsCommand() {
			p.reset(m)
			break
		}
		ao, err := p.parseAndOrList()
		if err != nil {
			return nil, err
		}
		term.Tail = append(term.Tail, ast.TermTail{Separator: sep, AndOr: *ao})
	}
	return term, nil
}

func (p *Parser) parseDoGroup() (*ast.DoGroup, error) {
	doWs, err := p.expectReserved(types.RwDo)
	if err != nil {
		return nil, err
	}
	body, err := p.parseCompoundList()
	if err != nil {
		return nil, err
	}
	doneWs, err := p.expectReserved(types.RwDone)
	if err != nil {
		return nil, err
	}
	return &ast.DoGroup{Do: doWs, Body: *body, Done: doneWs}, nil
}

func (p *Parser) trySequentialSeparator() (ast.SequentialSeparator, bool, error) {
	if p.atOp(types.OpKindSemi) {
		ws := p.collectWhitespace()
		p.advance()
		lb, err := p.collectLinebreak()
		if err != nil {
			return ast.SequentialSeparator{}, false, err
		}
		return ast.SequentialSeparator{Implicit: false, SemiWhitespace: ws, Linebreak: lb}, true, nil
	}
	nl, err := p.collectNewlineList()
	if err != nil {
		return ast.SequentialSeparator{}, false, err
	}
	if nl == nil {
		return ast.SequentialSeparator{}, false, nil
	}
	return ast.SequentialSeparator{Implicit: true, Newlines: *nl}, true, nil
}

func (p *Parser) parseSequentialSeparator() (ast.SequentialSeparator, error) {
	s, ok, err := p.trySequentialSeparator()
	if err != nil {
		return ast.SequentialSeparator{}, err
	}
	if !ok {
		if p.atEOF() {
			return ast.SequentialSeparator{}, p.incomplete("expected ';' or newline")
		}
		return ast.SequentialSeparator{}, p.mismatch("expected ';' or newline", ";")
	}
	return s, nil
}

// parseForClause implements all three for_clause productions: the
// lookahead that decides between them is "is the next reserved word
// 'in'?" — if not, a sequential_sep is tried (ForPadded), and if that
// also fails to match, the do_group must start right here (ForSimple).
func (p *Parser) parseForClause() (*ast.ForClause, error) {
	forWs, err := p.expectReserved(types.RwFor)
	if err != nil {
		return nil, err
	}
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	fc := &ast.ForClause{For: forWs, Name: name}

	m := p.mark()
	lb, err := p.collectLinebreak()
	if err != nil {
		return nil, err
	}
	if p.atReserved(types.RwIn) {
		inWs := p.collectWhitespace()
		p.advance()
		var words []ast.Word
		for p.atWordLike() {
			w, err := p.parseWord()
			if err != nil {
				return nil, err
			}
			words = append(words, w)
		}
		sep, err := p.parseSequentialSeparator()
		if err != nil {
			return nil, err
		}
		fc.Kind = ast.ForFull
		fc.InLinebreak = lb
		fc.In = inWs
		fc.Words = words
		fc.Sep = sep
	} else {
		p.reset(m)
		m2 := p.mark()
		sep, ok, err := p.trySequentialSeparator()
		if err != nil {
			return nil, err
		}
		if ok {
			fc.Kind = ast.ForPadded
			fc.Padding = sep
		} else {
			p.reset(m2)
			fc.Kind = ast.ForSimple
		}
	}

	do, err := p.parseDoGroup()
	if err != nil {
		return nil, err
	}
	fc.Do = *do
	return fc, nil
}

// parseCaseClause implements case_clause. The only lookahead ambiguity
// in this production is recognizing the closing 'esac' versus the start
// of another case_item; a bare "esac" is only ever taken as the keyword
// at an item-start position, never as a pattern word (matching common
// shell practice — an unquoted esac pattern there needs quoting).
func (p *Parser) parseCaseClause() (*ast.CaseClause, error) {
	caseWs, err := p.expectReserved(types.RwCase)
	if err != nil {
		return nil, err
	}
	word, err := p.parseWord()
	if err != nil {
		return nil, err
	}
	wordLb, err := p.collectLinebreak()
	if err != nil {
		return nil, err
	}
	inWs, err := p.expectReserved(types.RwIn)
	if err != nil {
		return nil, err
	}
	inLb, err := p.collectLinebreak()
	if err != nil {
		return nil, err
	}

	cc := &ast.CaseClause{Case: caseWs, Word: word, WordLineBrk: wordLb, In: inWs, InLineBrk: inLb}
	var items []ast.CaseItem
	for !p.atReserved(types.RwEsac) {
		if p.atEOF() {
			return nil, p.incomplete("expected 'esac'")
		}
		item, err := p.parseCaseItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !item.HasDsemi {
			break
		}
	}
	esacWs, err := p.expectReserved(types.RwEsac)
	if err != nil {
		return nil, err
	}
	cc.Items = items
	cc.Esac = esacWs
	if len(items) == 0 {
		cc.Kind = ast.CaseEmpty
	} else {
		cc.Kind = ast.CaseItems
	}
	return cc, nil
}

func (p *Parser) parseCaseItem() (ast.CaseItem, error) {
	var item ast.CaseItem
	if p.atOp(types.OpKindLparen) {
		item.HasParen = true
		item.Lparen = p.collectWhitespace()
		p.advance()
	}
	pat, err := p.parsePattern()
	if err != nil {
		return ast.CaseItem{}, err
	}
	item.Pattern = pat

	if !p.atOp(types.OpKindRparen) {
		if p.atEOF() {
			return ast.CaseItem{}, p.incomplete("expected ')'")
		}
		return ast.CaseItem{}, p.mismatch("expected ')'", ")")
	}
	item.Rparen = p.collectWhitespace()
	p.advance()

	if p.atReserved(types.RwEsac) || p.atOp(types.OpKindDSemi) {
		lb, err := p.collectLinebreak()
		if err != nil {
			return ast.CaseItem{}, err
		}
		item.Linebreak = lb
	} else {
		body, err := p.parseCompoundList()
		if err != nil {
			return ast.CaseItem{}, err
		}
		item.Body = body
	}

	if p.atOp(types.OpKindDSemi) {
		item.HasDsemi = true
		item.Dsemi = p.collectWhitespace()
		p.advance()
		lb, err := p.collectLinebreak()
		if err != nil {
			return ast.CaseItem{}, err
		}
		item.DsemiBreak = lb
	}
	return item, nil
}

func (p *Parser) parsePattern() (ast.Pattern, error) {
	head, err := p.parseWord()
	if err != nil {
		return ast.Pattern{}, err
	}
	pat := ast.Pattern{Head: head}
	for p.atOp(types.OpKindPipe) {
		ws := p.collectWhitespace()
		p.advance()
		w, err := p.parseWord()
		if err != nil {
			return ast.Pattern{}, err
		}
		pat.Tail = append(pat.Tail, ast.PatternTail{Pipe: ast.Pipe{Whitespace: ws}, Word: w})
	}
	return pat, nil
}

func (p *Parser) parseIfClause() (*ast.IfClause, error) {
	ifWs, err := p.expectReserved(types.RwIf)
	if err != nil {
		return nil, err
	}
	pred, err := p.parseCompoundList()
	if err != nil {
		return nil, err
	}
	thenWs, err := p.expectReserved(types.RwThen)
	if err != nil {
		return nil, err
	}
	body, err := p.parseCompoundList()
	if err != nil {
		return nil, err
	}
	ic := &ast.IfClause{If: ifWs, Predicate: *pred, Then: thenWs, Body: *body}

	for p.atReserved(types.RwElif) {
		elifWs, err := p.expectReserved(types.RwElif)
		if err != nil {
			return nil, err
		}
		epred, err := p.parseCompoundList()
		if err != nil {
			return nil, err
		}
		ethenWs, err := p.expectReserved(types.RwThen)
		if err != nil {
			return nil, err
		}
		ebody, err := p.parseCompoundList()
		if err != nil {
			return nil, err
		}
		ic.Else = append(ic.Else, ast.ElseBranch{
			IsElif: true, Keyword: elifWs, Predicate: epred, Then: ethenWs, Body: *ebody,
		})
	}
	if p.atReserved(types.RwElse) {
		elseWs, err := p.expectReserved(types.RwElse)
		if err != nil {
			return nil, err
		}
		ebody, err := p.parseCompoundList()
		if err != nil {
			return nil, err
		}
		ic.Else = append(ic.Else, ast.ElseBranch{IsElif: false, Keyword: elseWs, Body: *ebody})
	}

	fiWs, err := p.expectReserved(types.RwFi)
	if err != nil {
		return nil, err
	}
	ic.Fi = fiWs
	return ic, nil
}

func (p *Parser) parseWhileClause() (*ast.WhileClause, error) {
	ws, err := p.expectReserved(types.RwWhile)
	if err != nil {
		return nil, err
	}
	pred, err := p.parseCompoundList()
	if err != nil {
		return nil, err
	}
	do, err := p.parseDoGroup()
	if err != nil {
		return nil, err
	}
	return &ast.WhileClause{While: ws, Predicate: *pred, Body: *do}, nil
}

func (p *Parser) parseUntilClause() (*ast.UntilClause, error) {
	ws, err := p.expectReserved(types.RwUntil)
	if err != nil {
		return nil, err
	}
	pred, err := p.parseCompoundList()
	if err != nil {
		return nil, err
	}
	do, err := p.parseDoGroup()
	if err != nil {
		return nil, err
	}
	return &ast.UntilClause{Until: ws, Predicate: *pred, Body: *do}, nil
}
