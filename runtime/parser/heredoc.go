package parser

import (
	"fmt"
	"strings"

	"github.com/posh-lang/posh/core/ast"
	perrors "github.com/posh-lang/posh/core/errors"
	"github.com/posh-lang/posh/core/types"
	"github.com/posh-lang/posh/runtime/lexer"
	"github.com/posh-lang/posh/runtime/semantic"
)

// fillPendingHeredocs captures the body of every here-document queued
// while parsing the logical line that just ended at afterOffset (a byte
// offset into p.src, right after the newline that closed it), left to
// right, then re-tokenizes whatever remains of the source past the
// consumed bodies and splices it in as the parser's continuing token
// stream — the original token stream can't be reused past this point
// because it was produced by tokenizing the here-document bodies as if
// they were ordinary shell syntax, which they are not.
func (p *Parser) fillPendingHeredocs(afterOffset int) ([]string, error) {
	reqs := p.pendingHeredocs
	p.pendingHeredocs = nil

	rest := p.src[afterOffset:]
	consumed := 0
	bodies := make([]string, 0, len(reqs))
	for _, req := range reqs {
		body, n, ok := captureHeredocBody(rest[consumed:], req.redir.HereType, req.redir.End.Name)
		if !ok {
			return nil, perrors.Incomplete(p.cur().Token.Start,
				fmt.Sprintf("here-document delimited by %q was not terminated", req.redir.End.Name))
		}
		req.redir.Content = body
		bodies = append(bodies, body)
		consumed += n
	}
	p.resyncAfter(afterOffset + consumed)
	return bodies, nil
}

// captureHeredocBody scans s line by line for a line equal to delim
// (after stripping leading tabs, for HereStripTabs), returning the body
// through and including that delimiter line (so concatenating it back
// in reproduces the source exactly) and how many bytes of s it consumed.
// ok is false if s runs out before a matching line is found.
func captureHeredocBody(s string, ty ast.HereDocType, delim string) (body string, n int, ok bool) {
	var b strings.Builder
	consumed := 0
	for {
		idx := strings.IndexByte(s[consumed:], '\n')
		hasNL := idx >= 0
		var line string
		var lineLen int
		if hasNL {
			line = s[consumed : consumed+idx]
			lineLen = idx + 1
		} else {
			line = s[consumed:]
			lineLen = len(line)
		}

		check := line
		if ty == ast.HereStripTabs {
			check = strings.TrimLeft(check, "\t")
		}
		if check == delim {
			b.WriteString(line)
			if hasNL {
				b.WriteString("\n")
			}
			consumed += lineLen
			return b.String(), consumed, true
		}
		if !hasNL {
			return "", 0, false
		}

		b.WriteString(line)
		b.WriteString("\n")
		consumed += lineLen
	}
}

// resyncAfter re-tokenizes p.src[offset:] and replaces everything from
// the cursor onward with the result, position-shifted so error messages
// and telemetry still report correct line/column/offset.
func (p *Parser) resyncAfter(offset int) {
	rest := p.src[offset:]
	newToks := semantic.Lex(lexer.Tokenize(rest))
	base := basePosition(p.src, offset)
	for i := range newToks {
		newToks[i].Token.Start = shiftPosition(newToks[i].Token.Start, base)
		newToks[i].Token.End = shiftPosition(newToks[i].Token.End, base)
	}
	p.tokens = append(p.tokens[:p.pos:p.pos], newToks...)
}

// basePosition computes the line/column/offset at byte offset in src by
// scanning the prefix. Columns are counted per byte rather than per
// rune, an approximation that only affects error-message columns for
// here-document resync positions on non-ASCII lines.
func basePosition(src string, offset int) types.Position {
	line, col := 1, 1
	end := offset
	if end > len(src) {
		end = len(src)
	}
	for i := 0; i < end; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return types.Position{Line: line, Column: col, Offset: offset}
}

// shiftPosition rebases a position computed relative to a re-tokenized
// suffix onto the whole source, given the suffix's own start position.
func shiftPosition(p types.Position, base types.Position) types.Position {
	if p.Line == 1 {
		return types.Position{Line: base.Line, Column: base.Column + p.Column - 1, Offset: base.Offset + p.Offset}
	}
	return types.Position{Line: base.Line + p.Line - 1, Column: p.Column, Offset: base.Offset + p.Offset}
}
