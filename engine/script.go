package engine

import (
	"github.com/ecmago/ecmago/internal/compiler"
	"github.com/ecmago/ecmago/internal/parser"
)

// Script is a parsed, not-yet-evaluated top-level program (spec.md
// §4.1/§6). Parsing and evaluation are split into two steps so a host
// can validate a script's syntax (and, in time, statically analyse it)
// before ever running a line of it.
type Script struct {
	ctx *Context
	cb  *compiler.CodeBlock
}

// ParseScript parses source as a script (no import/export
// declarations allowed — use ParseModule for those) and compiles it to
// bytecode, returning a *EngineError with Kind ErrSyntax on failure.
func (c *Context) ParseScript(source string) (*Script, error) {
	ast, err := parser.ParseScript(source, c.interner)
	if err != nil {
		return nil, syntaxError(err)
	}
	cb := compiler.Compile(ast.Body, c.interner)
	return &Script{ctx: c, cb: cb}, nil
}

// Evaluate runs the script's top-level code once, returning its
// completion value (spec.md §4.1) or an *EngineError with Kind
// ErrRuntime for an uncaught exception.
func (s *Script) Evaluate() (Value, error) {
	result, err := s.ctx.vm.RunProgram(s.cb)
	if err != nil {
		return Value{}, fromThrown(s.ctx.vm, err)
	}
	return result, nil
}

// syntaxError adapts a *parser.SyntaxError (the only error ParseScript
// or ParseModule ever return) into the package's own *EngineError,
// carrying its source position through unchanged.
func syntaxError(err error) *EngineError {
	if se, ok := err.(*parser.SyntaxError); ok {
		return &EngineError{Kind: ErrSyntax, Message: se.Message, Pos: &se.Pos, cause: se}
	}
	return &EngineError{Kind: ErrSyntax, Message: err.Error(), cause: err}
}
