// Package parser implements the bytecode engine's recursive-descent
// parser (component D) described in spec.md §4.2. The compile-time
// scope analyser (component E, §4.3) is not run here: internal/compiler's
// resolver runs it over the finished AST.
package parser

import (
	"github.com/ecmago/ecmago/internal/ast"
	"github.com/ecmago/ecmago/internal/lexer"
	"github.com/ecmago/ecmago/internal/parser/scope"
	"github.com/ecmago/ecmago/internal/sym"
	"github.com/ecmago/ecmago/internal/token"
)

// Parser produces an AST from one token stream. A Parser is
// single-threaded; re-entering it on the same stream is undefined
// (spec.md §4.2).
type Parser struct {
	lex      *lexer.Lexer
	src      string
	interner *sym.Interner
	scopes   *scope.Stack
	cur      token.Token
	strict   bool
	inFunction bool
	inLoop     int
	inSwitch   int
	inGenerator bool
	inAsync     bool
	inClass     int
	privateNames map[sym.Sym]bool
}

// NewParser constructs a Parser reading src and interning identifiers
// via interner (shared with the rest of the Context that owns this
// parser).
func NewParser(src string, interner *sym.Interner) *Parser {
	p := &Parser{
		lex:      lexer.New(src),
		src:      src,
		interner: interner,
		scopes:   scope.NewStack(),
	}
	p.advance()
	return p
}

// bailout is the sentinel panic value used to unwind to the nearest
// Parse* entry point on a syntax error, the same technique go/parser
// uses internally (a recursive-descent parser's error path is the one
// place an internal panic/recover is the idiomatic choice over
// threading an error return through every production).
type bailout struct{ err error }

func (p *Parser) fail(pos token.Position, format string, args ...any) {
	panic(bailout{p.errorf(pos, format, args...)})
}

func (p *Parser) advance() {
	p.lex.SetGoal(p.nextGoal())
	t, err := p.lex.Next()
	if err != nil {
		if le, ok := err.(*lexer.Error); ok {
			p.fail(le.Pos, "%s", le.Message)
		}
		p.fail(p.cur.Pos, "%s", err.Error())
	}
	p.cur = t
}

// nextGoal picks the input-element goal for the token about to be
// scanned (spec.md §4.1): a `/` begins a RegExp literal unless the
// token currently in p.cur is one that can end an expression, in
// which case `/` is division. Matches the standard "regex unless the
// previous token completes a value" heuristic every ECMAScript lexer
// needs since `/` alone is lexically ambiguous.
func (p *Parser) nextGoal() lexer.Goal {
	switch p.cur.Kind {
	case token.Identifier, token.PrivateIdentifier,
		token.NumberInt, token.NumberFloat, token.BigIntLiteral,
		token.StringLiteral, token.RegExpLiteral,
		token.NoSubstitutionTemplate, token.TemplateTail,
		token.RParen, token.RBracket, token.RBrace,
		token.PlusPlus, token.MinusMinus:
		return lexer.GoalDiv
	case token.Keyword:
		switch p.cur.Literal {
		case "this", "super", "true", "false", "null":
			return lexer.GoalDiv
		}
		return lexer.GoalRegExp
	default:
		return lexer.GoalRegExp
	}
}

func (p *Parser) at(k token.Kind) bool { return p.cur.Kind == k }

func (p *Parser) atKeyword(name string) bool {
	return p.cur.Kind == token.Keyword && p.cur.Literal == name
}

func (p *Parser) expect(k token.Kind) token.Token {
	if p.cur.Kind != k {
		p.fail(p.cur.Pos, "unexpected token %q", p.cur.Literal)
	}
	t := p.cur
	p.advance()
	return t
}

func (p *Parser) expectKeyword(name string) token.Token {
	if !p.atKeyword(name) {
		p.fail(p.cur.Pos, "expected keyword %q, got %q", name, p.cur.Literal)
	}
	t := p.cur
	p.advance()
	return t
}

// consumeSemicolon implements automatic semicolon insertion: an
// explicit `;`, a `}` / EOF, or a line terminator before the current
// token all terminate a statement.
func (p *Parser) consumeSemicolon() {
	if p.at(token.Semicolon) {
		p.advance()
		return
	}
	if p.at(token.RBrace) || p.at(token.EOF) || p.cur.NewlineBefore {
		return
	}
	p.fail(p.cur.Pos, "expected ';'")
}

func toPos(t token.Position) ast.Position {
	return ast.Position{Line: t.Line, Column: t.Column, Offset: t.Offset}
}

// ParseScript is the top-level entry point for script source
// (spec.md §4.2).
func ParseScript(src string, interner *sym.Interner) (script *ast.Script, err error) {
	p := NewParser(src, interner)
	defer func() {
		if r := recover(); r != nil {
			if b, ok := r.(bailout); ok {
				script, err = nil, b.err
				return
			}
			panic(r)
		}
	}()
	p.detectDirectivePrologue()
	var body []ast.Statement
	for !p.at(token.EOF) {
		body = append(body, p.parseStatement())
	}
	return &ast.Script{Body: body, Strict: p.strict}, nil
}

// ParseModule is the top-level entry point for module source;
// modules are always strict (spec.md §4.2).
func ParseModule(src string, interner *sym.Interner) (module *ast.Module, err error) {
	p := NewParser(src, interner)
	p.strict = true
	defer func() {
		if r := recover(); r != nil {
			if b, ok := r.(bailout); ok {
				module, err = nil, b.err
				return
			}
			panic(r)
		}
	}()
	var body []ast.Statement
	var imports []ast.ImportDeclaration
	var exports []ast.ExportDeclaration
	for !p.at(token.EOF) {
		switch {
		case p.atKeyword("import"):
			imports = append(imports, p.parseImportDeclaration())
		case p.atKeyword("export"):
			exports = append(exports, p.parseExportDeclaration())
		default:
			body = append(body, p.parseStatement())
		}
	}
	return &ast.Module{Body: body, Imports: imports, Exports: exports}, nil
}

// ParseExpressionForTesting is the parameterless-constructor-style
// entry point spec.md §4.2 calls out for expression-level testing.
func ParseExpressionForTesting(src string, interner *sym.Interner) (expr ast.Expression, err error) {
	p := NewParser(src, interner)
	defer func() {
		if r := recover(); r != nil {
			if b, ok := r.(bailout); ok {
				expr, err = nil, b.err
				return
			}
			panic(r)
		}
	}()
	e := p.parseExpression()
	return e, nil
}

// detectDirectivePrologue checks whether the source opens with a
// `"use strict"` string literal (spec.md §4.2 "Strict mode").
func (p *Parser) detectDirectivePrologue() {
	// A cheap approach consistent with single-token lookahead: only the
	// very first token of the source is checked; function bodies are not
	// checked for a prologue of their own.
	if p.at(token.StringLiteral) && p.cur.Literal == "use strict" {
		p.strict = true
	}
}
