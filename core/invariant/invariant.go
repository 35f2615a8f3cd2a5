// Package invariant provides contract assertions for the shell front
// end.
//
// This package implements Tiger Style safety principles: assertions are a
// force multiplier for discovering bugs. Use Precondition/Postcondition to
// express function contracts, and Invariant for internal consistency
// checks — for example the parser's "cursor only ever advances" rule and
// the expander's "mutate ranges highest-index-first" rule.
//
// All functions panic on violation - these are programming errors, not
// user-facing parse failures (those are core/errors.Error values).
package invariant

import (
	"fmt"
	"reflect"
	"runtime"
)

// Precondition checks an input contract at function entry.
// Panics with PRECONDITION VIOLATION if condition is false.
//
// Use this to validate function arguments and caller expectations.
//
// Example:
//
//	func (p *Parser) expect(tt types.TokenType) types.SemanticToken {
//	    invariant.Precondition(p.pos < len(p.tokens), "expect called past end of token stream")
//	    // ... work ...
//	}
func Precondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
// Panics with POSTCONDITION VIOLATION if condition is false.
//
// Use this to validate function results and guarantees to caller.
//
// Example:
//
//	func (w Word) expandTilde(env Environment) Word {
//	    out := w.replaceRange(r, home)
//	    invariant.Postcondition(len(out.Expansions) == len(w.Expansions)-1, "tilde expansion must remove exactly one annotation")
//	    return out
//	}
func Postcondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks an internal invariant during function execution.
// Panics with INVARIANT VIOLATION if condition is false.
//
// Use this for loop progress checks, state consistency, and internal logic.
//
// Example:
//
//	prevPos := p.pos
//	for !p.atEnd() {
//	    p.parseCompleteCommand()
//	    invariant.Invariant(p.pos > prevPos, "parser must make progress every iteration")
//	    prevPos = p.pos
//	}
func Invariant(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// NotNil panics if value is nil.
// This is a precondition check for pointer/interface arguments.
//
// Example:
//
//	func (e *Expander) Expand(tree *ast.SyntaxTree) *ast.SyntaxTree {
//	    invariant.NotNil(tree, "tree")
//	    // ... work ...
//	}
func NotNil(value interface{}, name string) {
	if value == nil {
		fail("PRECONDITION", "%s must not be nil", name)
	}
	if isNilValue(value) {
		fail("PRECONDITION", "%s must not be nil", name)
	}
}

// isNilValue checks if a value is a typed nil using reflection.
func isNilValue(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// InRange panics if value is outside [min, max].
// This is a precondition check for numeric arguments.
//
// Example:
//
//	func (w *Word) byteAt(i int) byte {
//	    invariant.InRange(i, 0, len(w.Name)-1, "i")
//	    return w.Name[i]
//	}
func InRange(value, minVal, maxVal int, name string) {
	if value < minVal || value > maxVal {
		fail("PRECONDITION", "%s must be in range [%d, %d], got %d",
			name, minVal, maxVal, value)
	}
}

// Positive panics if value <= 0.
// This is typically a postcondition check for generated sizes or counts.
//
// Example:
//
//	func (p *Parser) pushDepth() int {
//	    p.depth++
//	    invariant.Positive(p.depth, "depth")
//	    return p.depth
//	}
func Positive(value int, name string) {
	if value <= 0 {
		fail("POSTCONDITION", "%s must be positive, got %d", name, value)
	}
}

// ExpectNoError panics if error is not nil.
// This is a postcondition check for operations that should never fail.
//
// Example:
//
//	tree := mustParse(t, "echo hi\n")
//	invariant.ExpectNoError(tree.Validate(), "round-trip fixture must parse cleanly")
func ExpectNoError(err error, msg string) {
	if err != nil {
		fail("POSTCONDITION", "%s must not fail: %v", msg, err)
	}
}

// fail panics with a formatted message including call stack context.
func fail(kind, format string, args ...interface{}) {
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])

	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]interface{}{kind}, args...)...)

	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}

	panic(msg)
}
