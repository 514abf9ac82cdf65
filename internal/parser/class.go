package parser

import (
	"github.com/ecmago/ecmago/internal/ast"
	"github.com/ecmago/ecmago/internal/sym"
	"github.com/ecmago/ecmago/internal/token"
)

func (p *Parser) parseClassExpression() ast.Expression {
	return p.parseClassCore()
}

// parseClassDeclaration parses `class Name [extends Super] { ... }` as
// a statement; the name is mandatory in declaration position (an
// anonymous default export is the sole exception, handled directly in
// parseExportDeclaration).
func (p *Parser) parseClassDeclaration() *ast.ClassDeclaration {
	pos := toPos(p.cur.Pos)
	cls := p.parseClassCore().(*ast.ClassExpression)
	return &ast.ClassDeclaration{Name: cls.Name, Expr: cls, Pos: pos}
}

func (p *Parser) parseClassCore() ast.Expression {
	pos := toPos(p.cur.Pos)
	p.expectKeyword("class")
	var name sym.Sym
	if p.at(token.Identifier) {
		name = p.interner.Intern(p.cur.Literal)
		p.advance()
	}
	var super ast.Expression
	if p.atKeyword("extends") {
		p.advance()
		super = p.parseLeftHandSide()
	}
	p.inClass++
	defer func() { p.inClass-- }()
	p.expect(token.LBrace)
	var members []ast.ClassMember
	var staticInit []ast.Statement
	for !p.at(token.RBrace) {
		if p.at(token.Semicolon) {
			p.advance()
			continue
		}
		if p.atKeyword("static") && p.lex.Peek(0).Kind == token.LBrace {
			p.advance()
			staticInit = append(staticInit, p.parseFunctionBody()...)
			continue
		}
		members = append(members, p.parseClassMember())
	}
	p.expect(token.RBrace)
	return &ast.ClassExpression{Name: name, SuperClass: super, Members: members, StaticInit: staticInit, Pos: pos}
}

func (p *Parser) parseClassMember() ast.ClassMember {
	static := false
	if p.atKeyword("static") && !p.peekEndsPropertyKey() {
		static = true
		p.advance()
	}
	kind := ast.PropMethod
	async, generator := false, false
	if p.atKeyword("get") && !p.peekEndsPropertyKey() {
		kind = ast.PropGet
		p.advance()
	} else if p.atKeyword("set") && !p.peekEndsPropertyKey() {
		kind = ast.PropSet
		p.advance()
	} else {
		if p.atKeyword("async") && !p.peekEndsPropertyKey() {
			async = true
			p.advance()
		}
		if p.at(token.Star) {
			generator = true
			p.advance()
		}
	}
	private := false
	var key sym.Sym
	var computed ast.Expression
	if p.at(token.PrivateIdentifier) {
		private = true
		key = p.interner.Intern(p.cur.Literal)
		p.advance()
	} else {
		key, computed = p.parsePropertyKey()
	}
	if p.at(token.LParen) {
		fn := p.parseMethodBody(generator, async)
		return ast.ClassMember{Key: key, PrivateKey: private, Computed: computed, Kind: kind, Static: static, Value: fn}
	}
	// Field, with optional initialiser.
	var init ast.Expression
	if p.at(token.Eq) {
		p.advance()
		init = p.parseAssignment()
	}
	p.consumeSemicolon()
	return ast.ClassMember{Key: key, PrivateKey: private, Computed: computed, Kind: ast.PropInit, Static: static, Value: init}
}
