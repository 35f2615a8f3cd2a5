package parser

import (
	"strconv"

	"github.com/posh-lang/posh/core/ast"
	perrors "github.com/posh-lang/posh/core/errors"
	"github.com/posh-lang/posh/core/types"
	"github.com/posh-lang/posh/runtime/lexer"
	"github.com/posh-lang/posh/runtime/semantic"
)

// parseProgram implements "program: linebreak complete_commands linebreak |
// linebreak". dropTrailingUnparsed controls what happens when trailing
// input can't be parsed as another complete_command: true tolerates it
// (stashing the rest verbatim in SyntaxTree.Unparsed, for a
// collaborator that wants to execute a prefix of a malformed script
// line by line), false surfaces the SyntaxError.
func (p *Parser) parseProgram(dropTrailingUnparsed bool) (*ast.SyntaxTree, error) {
	leading, err := p.collectLinebreak()
	if err != nil {
		return nil, err
	}
	tree := &ast.SyntaxTree{Leading: leading}
	if p.atEOF() {
		return tree, nil
	}

	head, err := p.parseCompleteCommand()
	if err != nil {
		if dropTrailingUnparsed && perrors.IsSyntaxError(err) {
			tree.Unparsed = p.remainder()
			return tree, nil
		}
		return nil, err
	}
	tree.Head = head

	for {
		m := p.mark()
		nl, err := p.collectLinebreak()
		if err != nil {
			return nil, err
		}
		if p.atEOF() {
			tree.Trailing = nl
			break
		}
		if nl.Newlines == nil {
			p.reset(m)
			if dropTrailingUnparsed {
				tree.Unparsed = p.remainder()
				return tree, nil
			}
			return nil, p.mismatch("expected newline between commands")
		}
		cc, err := p.parseCompleteCommand()
		if err != nil {
			if dropTrailingUnparsed && perrors.IsSyntaxError(err) {
				p.reset(m)
				tree.Unparsed = p.remainder()
				return tree, nil
			}
			return nil, err
		}
		tree.Tail = append(tree.Tail, ast.SyntaxTreeTail{Newlines: *nl.Newlines, Command: *cc})
	}
	return tree, nil
}

func (p *Parser) parseCompleteCommand() (*ast.CompleteCommand, error) {
	defer p.enter("complete_command")()
	list, err := p.parseList()
	if err != nil {
		return nil, err
	}
	cc := &ast.CompleteCommand{Kind: ast.CompleteCommandList, List: *list}
	if sep, ok, err := p.tryParseSeparatorOp(); err != nil {
		return nil, err
	} else if ok {
		cc.SeparatorOp = &sep
	}
	return cc, nil
}

func (p *Parser) tryParseSeparatorOp() (ast.SeparatorOp, bool, error) {
	if p.atOp(types.OpKindSemi) {
		ws := p.collectWhitespace()
		p.advance()
		return ast.SeparatorOp{Kind: ast.SepSync, Whitespace: ws, Explicit: true}, true, nil
	}
	if p.atOp(types.OpKindAmp) {
		ws := p.collectWhitespace()
		p.advance()
		return ast.SeparatorOp{Kind: ast.SepAsync, Whitespace: ws, Explicit: true}, true, nil
	}
	return ast.SeparatorOp{}, false, nil
}

// startsCommand reports whether the cursor looks like the start of a
// pipeline's command — used to decide whether a separator just consumed
// belongs to this list/term (another and_or really follows) or to the
// enclosing complete_command/compound_list (nothing more follows it).
// A reserved word that closes a compound_list never starts a command.
func (p *Parser) startsCommand() bool {
	if p.atEOF() || p.at(types.CatComment) {
		return false
	}
	for _, k := range []types.ReservedWordKind{types.RwThen, types.RwElif, types.RwElse, types.RwFi, types.RwDo, types.RwDone, types.RwEsac} {
		if p.atReserved(k) {
			return false
		}
	}
	return p.isCompoundStart() || p.atWordLike() || p.atOp(types.OpKindBang)
}

func (p *Parser) parseList() (*ast.List, error) {
	defer p.enter("list")()
	head, err := p.parseAndOrList()
	if err != nil {
		return nil, err
	}
	list := &ast.List{Head: *head}
	for {
		m := p.mark()
		sep, ok, err := p.tryParseSeparatorOp()
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
		list.Tail = append(list.Tail, ast.ListTail{Separator: sep, AndOr: *ao})
	}
	return list, nil
}

func (p *Parser) parseAndOrList() (*ast.AndOrList, error) {
	defer p.enter("and_or")()
	head, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}
	ao := &ast.AndOrList{Head: *head}
	for p.atOp(types.OpKindAndIf) || p.atOp(types.OpKindOrIf) {
		kind := ast.LogicalAnd
		if p.atOp(types.OpKindOrIf) {
			kind = ast.LogicalOr
		}
		ws := p.collectWhitespace()
		p.advance()
		lb, err := p.collectLinebreak()
		if err != nil {
			return nil, err
		}
		pl, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}
		ao.Tail = append(ao.Tail, ast.AndOrTail{
			Op:        ast.LogicalOp{Kind: kind, Whitespace: ws},
			Linebreak: lb,
			Pipeline:  *pl,
		})
	}
	return ao, nil
}

func (p *Parser) parsePipeline() (*ast.Pipeline, error) {
	defer p.enter("pipeline")()
	var bang *ast.Bang
	if p.atOp(types.OpKindBang) {
		ws := p.collectWhitespace()
		p.advance()
		b := ast.Bang{Whitespace: ws}
		bang = &b
	}
	seq, err := p.parsePipeSequence()
	if err != nil {
		return nil, err
	}
	return &ast.Pipeline{Bang: bang, Sequence: *seq}, nil
}

func (p *Parser) parsePipeSequence() (*ast.PipeSequence, error) {
	defer p.enter("pipe_sequence")()
	head, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	seq := &ast.PipeSequence{Head: *head}
	for p.atOp(types.OpKindPipe) {
		ws := p.collectWhitespace()
		p.advance()
		lb, err := p.collectLinebreak()
		if err != nil {
			return nil, err
		}
		cmd, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		seq.Tail = append(seq.Tail, ast.PipeSequenceTail{
			Pipe:      ast.Pipe{Whitespace: ws},
			Linebreak: lb,
			Command:   *cmd,
		})
	}
	return seq, nil
}

func (p *Parser) parseCommand() (*ast.Command, error) {
	defer p.enter("command")()
	if p.tooDeep() {
		return nil, p.mismatch("command nested too deeply")
	}
	if p.isCompoundStart() {
		cc, err := p.parseCompoundCommand()
		if err != nil {
			return nil, err
		}
		redirs, err := p.parseRedirectionList()
		if err != nil {
			return nil, err
		}
		return &ast.Command{Kind: ast.CommandCompound, Compound: cc, Redirections: redirs}, nil
	}
	if fd, ok, err := p.tryParseFunctionDefinition(); err != nil {
		return nil, err
	} else if ok {
		return &ast.Command{Kind: ast.CommandFunctionDefinition, FuncDef: fd}, nil
	}
	sc, err := p.parseSimpleCommand()
	if err != nil {
		return nil, err
	}
	return &ast.Command{Kind: ast.CommandSimple, Simple: sc}, nil
}

// tryParseFunctionDefinition attempts "fname '(' ')' linebreak
// function_body", backtracking to a plain simple_command if the word
// isn't immediately followed by an empty parameter list. Once the '('
// ')' pair is seen, the production is committed — POSIX leaves no other
// command it could be — so failures past that point are real errors,
// not backtrack signals.
func (p *Parser) tryParseFunctionDefinition() (*ast.FunctionDefinition, bool, error) {
	if !p.at(types.CatWord) {
		return nil, false, nil
	}
	text := p.cur().Token.Text
	if _, reserved := types.LookupReservedWord(text); reserved {
		return nil, false, nil
	}
	if !isValidName(text) {
		return nil, false, nil
	}
	m := p.mark()
	nameWs := p.collectWhitespace()
	nameTok := p.advance()
	if !p.atOp(types.OpKindLparen) {
		p.reset(m)
		return nil, false, nil
	}
	lparenWs := p.collectWhitespace()
	p.advance()
	if !p.atOp(types.OpKindRparen) {
		p.reset(m)
		return nil, false, nil
	}
	rparenWs := p.collectWhitespace()
	p.advance()

	lb, err := p.collectLinebreak()
	if err != nil {
		return nil, false, err
	}
	body, err := p.parseFunctionBody()
	if err != nil {
		return nil, false, err
	}
	return &ast.FunctionDefinition{
		Name:      ast.Name{Whitespace: nameWs, Name: nameTok.Token.Text},
		Lparen:    lparenWs,
		Rparen:    rparenWs,
		Linebreak: lb,
		Body:      *body,
	}, true, nil
}

func (p *Parser) parseFunctionBody() (*ast.FunctionBody, error) {
	cc, err := p.parseCompoundCommand()
	if err != nil {
		return nil, err
	}
	redirs, err := p.parseRedirectionList()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionBody{Command: *cc, Redirections: redirs}, nil
}

// parseSimpleCommand implements "cmd_prefix* cmd_name cmd_suffix* |
// cmd_prefix+". Assignment-word/IO_NUMBER classification from the
// semantic tokenizer is position-blind (every NAME=value-shaped word is
// tagged CatAssignmentWord regardless of where it sits); here is where
// position is finally applied: once a command name has been accepted,
// a later assignment-word-shaped token is just an ordinary suffix word
// (§4.2, and scenario 4 of the testable properties).
func (p *Parser) parseSimpleCommand() (*ast.SimpleCommand, error) {
	defer p.enter("simple_command")()
	var prefixes []ast.CmdPrefix
	for {
		if p.at(types.CatAssignmentWord) {
			a, err := p.parseAssignment()
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, ast.CmdPrefix{Kind: ast.PrefixAssignment, Assignment: a})
			continue
		}
		if p.startsRedirection() {
			r, err := p.parseRedirection()
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, ast.CmdPrefix{Kind: ast.PrefixRedirection, Redirection: r})
			continue
		}
		break
	}
	p.queuePrefixHeredocs(prefixes)

	var name *ast.Word
	if p.at(types.CatWord) {
		w, err := p.parseWord()
		if err != nil {
			return nil, err
		}
		name = &w
	}

	var suffixes []ast.CmdSuffix
	for {
		if p.startsRedirection() {
			r, err := p.parseRedirection()
			if err != nil {
				return nil, err
			}
			suffixes = append(suffixes, ast.CmdSuffix{Kind: ast.SuffixRedirection, Redirection: r})
			continue
		}
		if p.atWordLike() {
			w, err := p.parseWord()
			if err != nil {
				return nil, err
			}
			suffixes = append(suffixes, ast.CmdSuffix{Kind: ast.SuffixWord, Word: w})
			continue
		}
		break
	}
	p.queueSuffixHeredocs(suffixes)

	if name == nil && len(prefixes) == 0 {
		return nil, p.mismatch("expected a command", "WORD")
	}
	return &ast.SimpleCommand{Name: name, Prefixes: prefixes, Suffixes: suffixes}, nil
}

func (p *Parser) queuePrefixHeredocs(prefixes []ast.CmdPrefix) {
	for i := range prefixes {
		if prefixes[i].Kind == ast.PrefixRedirection && prefixes[i].Redirection.Kind == ast.RedirHere {
			p.pendingHeredocs = append(p.pendingHeredocs, &heredocRequest{redir: &prefixes[i].Redirection})
		}
	}
}

func (p *Parser) queueSuffixHeredocs(suffixes []ast.CmdSuffix) {
	for i := range suffixes {
		if suffixes[i].Kind == ast.SuffixRedirection && suffixes[i].Redirection.Kind == ast.RedirHere {
			p.pendingHeredocs = append(p.pendingHeredocs, &heredocRequest{redir: &suffixes[i].Redirection})
		}
	}
}

// parseAssignment splits an already-classified CatAssignmentWord token
// (AssignLHS/AssignRHS were computed by the semantic tokenizer) and
// rebases any expansion ranges recorded against the whole "NAME=value"
// spelling onto the Rhs word's own Name.
func (p *Parser) parseAssignment() (ast.VariableAssignment, error) {
	ws := p.collectWhitespace()
	tok := p.advance()
	cut := len(tok.AssignLHS) + 1
	rhs := &ast.Word{Name: tok.AssignRHS, Expansions: shiftExpansionsAfter(tok.Expansions, cut)}
	if err := p.resolveCommandSubstitutions(rhs); err != nil {
		return ast.VariableAssignment{}, err
	}
	return ast.VariableAssignment{
		Whitespace: ws,
		Lhs:        ast.Name{Name: tok.AssignLHS},
		Rhs:        rhs,
	}, nil
}

func shiftExpansionsAfter(exps []ast.Expansion, cut int) []ast.Expansion {
	var out []ast.Expansion
	for _, e := range exps {
		if e.Range.Start < cut {
			continue
		}
		e.Range.Start -= cut
		e.Range.End -= cut
		out = append(out, e)
	}
	return out
}

func (p *Parser) startsRedirection() bool {
	if p.at(types.CatIoNumber) {
		return true
	}
	switch {
	case p.atOp(types.OpKindLess), p.atOp(types.OpKindGreat), p.atOp(types.OpKindDLess),
		p.atOp(types.OpKindDLessDash), p.atOp(types.OpKindDGreat), p.atOp(types.OpKindLessAnd),
		p.atOp(types.OpKindGreatAnd), p.atOp(types.OpKindLessGreat), p.atOp(types.OpKindClobber):
		return true
	default:
		return false
	}
}

func (p *Parser) parseRedirectionList() ([]ast.Redirection, error) {
	var out []ast.Redirection
	for p.startsRedirection() {
		r, err := p.parseRedirection()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	for i := range out {
		if out[i].Kind == ast.RedirHere {
			p.pendingHeredocs = append(p.pendingHeredocs, &heredocRequest{redir: &out[i]})
		}
	}
	return out, nil
}

// parseRedirection implements io_redirect: an optional IO_NUMBER
// followed by one file-redirection or here-document operator. A
// here-document only queues itself on p.pendingHeredocs once its final
// resting place in a slice is known — see queuePrefixHeredocs/
// queueSuffixHeredocs/parseRedirectionList, not here.
func (p *Parser) parseRedirection() (ast.Redirection, error) {
	var ioNum *ast.IoNumber
	if p.at(types.CatIoNumber) {
		ws := p.collectWhitespace()
		tok := p.advance()
		v, _ := strconv.Atoi(tok.Token.Text)
		ioNum = &ast.IoNumber{Whitespace: ws, Value: v, Text: tok.Token.Text}
	}
	var ws ast.LeadingWhitespace
	if ioNum == nil {
		ws = p.collectWhitespace()
	}
	if !p.at(types.CatOp) {
		return ast.Redirection{}, p.mismatch("expected redirection operator")
	}
	opKind := p.cur().Op
	p.advance()

	switch opKind {
	case types.OpKindDLess, types.OpKindDLessDash:
		end, err := p.parseWord()
		if err != nil {
			return ast.Redirection{}, err
		}
		hereType := ast.HereNormal
		if opKind == types.OpKindDLessDash {
			hereType = ast.HereStripTabs
		}
		return ast.Redirection{Kind: ast.RedirHere, Whitespace: ws, InputFd: ioNum, HereType: hereType, End: end}, nil
	default:
		target, err := p.parseWord()
		if err != nil {
			return ast.Redirection{}, err
		}
		return ast.Redirection{Kind: ast.RedirFile, Whitespace: ws, InputFd: ioNum, FileType: redirectionType(opKind), Target: target}, nil
	}
}

func redirectionType(k types.OperatorKind) ast.RedirectionType {
	switch k {
	case types.OpKindLess:
		return ast.RedirInput
	case types.OpKindGreat:
		return ast.RedirOutput
	case types.OpKindDGreat:
		return ast.RedirOutputAppend
	case types.OpKindLessAnd:
		return ast.RedirInputFd
	case types.OpKindGreatAnd:
		return ast.RedirOutputFd
	case types.OpKindLessGreat:
		return ast.RedirReadWrite
	case types.OpKindClobber:
		return ast.RedirOutputClobber
	default:
		return ast.RedirInput
	}
}

func (p *Parser) atWordLike() bool {
	switch {
	case p.at(types.CatWord), p.at(types.CatAssignmentWord), p.at(types.CatIoNumber):
		return true
	default:
		return false
	}
}

func (p *Parser) parseWord() (ast.Word, error) {
	ws := p.collectWhitespace()
	if !p.atWordLike() {
		return ast.Word{}, p.mismatch("expected word", "WORD")
	}
	tok := p.advance()
	w := ast.Word{Whitespace: ws, Name: tok.Token.Text, Expansions: tok.Expansions}
	if err := p.resolveCommandSubstitutions(&w); err != nil {
		return ast.Word{}, err
	}
	return w, nil
}

func (p *Parser) parseName() (ast.Name, error) {
	ws := p.collectWhitespace()
	if !p.at(types.CatWord) {
		return ast.Name{}, p.mismatch("expected name", "NAME")
	}
	text := p.cur().Token.Text
	if !isValidName(text) {
		return ast.Name{}, p.mismatch("invalid identifier " + text)
	}
	p.advance()
	return ast.Name{Whitespace: ws, Name: text}, nil
}

func isValidName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// resolveCommandSubstitutions fills in CmdTree for every finished
// ExpCommand expansion site recorded on w, by recursively sub-parsing
// its raw inner text (deferred all the way from the tokenizer, which
// cannot call back into this package without an import cycle — see
// runtime/lexer's design notes).
func (p *Parser) resolveCommandSubstitutions(w *ast.Word) error {
	for i := range w.Expansions {
		e := &w.Expansions[i]
		if e.Kind != ast.ExpCommand || !e.CmdFinished || e.CmdTree != nil {
			continue
		}
		tree, err := p.subParse(e.CmdPart)
		if err != nil {
			return err
		}
		e.CmdTree = tree
	}
	return nil
}

func (p *Parser) subParse(src string) (*ast.SyntaxTree, error) {
	if p.cache != nil {
		if cached, ok := p.cache.Get(src); ok {
			return cached.Tree, nil
		}
	}
	if p.tooDeep() {
		return nil, p.mismatch("command substitution nested too deeply")
	}
	sub := &Parser{
		src:       src,
		tokens:    semantic.Lex(lexer.Tokenize(src)),
		maxDepth:  p.maxDepth,
		depth:     p.depth + 1,
		cache:     p.cache,
		telemetry: p.telemetry,
	}
	tree, err := sub.parseProgram(true)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		p.cache.Put(src, &SubParseResult{Tree: tree, Finished: tree.IsOK()})
	}
	return tree, nil
}
