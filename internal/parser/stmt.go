package parser

import (
	"github.com/ecmago/ecmago/internal/ast"
	"github.com/ecmago/ecmago/internal/sym"
	"github.com/ecmago/ecmago/internal/token"
)

// parseStatement dispatches on the current token, following spec.md
// §4.2's "statement productions dispatch on the first token" design.
func (p *Parser) parseStatement() ast.Statement {
	switch {
	case p.at(token.LBrace):
		return p.parseBlockStatement()
	case p.at(token.Semicolon):
		pos := toPos(p.cur.Pos)
		p.advance()
		return &ast.EmptyStatement{Pos: pos}
	case p.atKeyword("var") || p.atKeyword("let") || p.atKeyword("const"):
		decl := p.parseVariableDeclaration()
		p.consumeSemicolon()
		return decl
	case p.atKeyword("function"):
		return p.parseFunctionDeclaration(false)
	case p.atKeyword("async") && p.peekIsFunctionKeyword():
		p.advance()
		return p.parseFunctionDeclaration(true)
	case p.atKeyword("class"):
		return p.parseClassDeclaration()
	case p.atKeyword("if"):
		return p.parseIfStatement()
	case p.atKeyword("for"):
		return p.parseForStatement()
	case p.atKeyword("while"):
		return p.parseWhileStatement()
	case p.atKeyword("do"):
		return p.parseDoWhileStatement()
	case p.atKeyword("return"):
		return p.parseReturnStatement()
	case p.atKeyword("break"):
		return p.parseBreakStatement()
	case p.atKeyword("continue"):
		return p.parseContinueStatement()
	case p.atKeyword("throw"):
		return p.parseThrowStatement()
	case p.atKeyword("try"):
		return p.parseTryStatement()
	case p.atKeyword("switch"):
		return p.parseSwitchStatement()
	case p.atKeyword("debugger"):
		pos := toPos(p.cur.Pos)
		p.advance()
		p.consumeSemicolon()
		return &ast.DebuggerStatement{Pos: pos}
	case p.at(token.Identifier) && p.lex.Peek(0).Kind == token.Colon:
		return p.parseLabeledStatement()
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	pos := toPos(p.cur.Pos)
	p.expect(token.LBrace)
	var body []ast.Statement
	for !p.at(token.RBrace) {
		body = append(body, p.parseStatement())
	}
	p.expect(token.RBrace)
	return &ast.BlockStatement{Body: body, Pos: pos}
}

func (p *Parser) parseExpressionStatement() *ast.ExpressionStatement {
	pos := toPos(p.cur.Pos)
	expr := p.parseExpression()
	p.consumeSemicolon()
	return &ast.ExpressionStatement{Expr: expr, Pos: pos}
}

func declKindFor(keyword string) ast.VarKind {
	switch keyword {
	case "let":
		return ast.VarLet
	case "const":
		return ast.VarConst
	default:
		return ast.VarVar
	}
}

func (p *Parser) parseVariableDeclaration() *ast.VariableDeclaration {
	pos := toPos(p.cur.Pos)
	keyword := p.cur.Literal
	p.advance()
	kind := declKindFor(keyword)
	var decls []ast.VariableDeclarator
	for {
		target := p.parseBindingTarget()
		var init ast.Expression
		if p.at(token.Eq) {
			p.advance()
			init = p.parseAssignment()
		}
		decls = append(decls, ast.VariableDeclarator{Target: target, Init: init})
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	return &ast.VariableDeclaration{Kind: kind, Decls: decls, Pos: pos}
}

func (p *Parser) parseFunctionDeclaration(async bool) *ast.FunctionDeclaration {
	pos := toPos(p.cur.Pos)
	p.expectKeyword("function")
	generator := false
	if p.at(token.Star) {
		generator = true
		p.advance()
	}
	name := p.interner.Intern(p.cur.Literal)
	p.expect(token.Identifier)
	savedGen, savedAsync := p.inGenerator, p.inAsync
	p.inGenerator, p.inAsync = generator, async
	params := p.parseParameterList()
	body := p.parseFunctionBody()
	p.inGenerator, p.inAsync = savedGen, savedAsync
	return &ast.FunctionDeclaration{Name: name, Params: params, Body: body, Generator: generator, Async: async, Pos: pos}
}

func (p *Parser) parseIfStatement() *ast.IfStatement {
	pos := toPos(p.cur.Pos)
	p.advance()
	p.expect(token.LParen)
	test := p.parseExpression()
	p.expect(token.RParen)
	then := p.parseStatement()
	var els ast.Statement
	if p.atKeyword("else") {
		p.advance()
		els = p.parseStatement()
	}
	return &ast.IfStatement{Test: test, Then: then, Else: els, Pos: pos}
}

func (p *Parser) parseWhileStatement() *ast.WhileStatement {
	pos := toPos(p.cur.Pos)
	p.advance()
	p.expect(token.LParen)
	test := p.parseExpression()
	p.expect(token.RParen)
	p.inLoop++
	body := p.parseStatement()
	p.inLoop--
	return &ast.WhileStatement{Test: test, Body: body, Pos: pos}
}

func (p *Parser) parseDoWhileStatement() *ast.DoWhileStatement {
	pos := toPos(p.cur.Pos)
	p.advance()
	p.inLoop++
	body := p.parseStatement()
	p.inLoop--
	p.expectKeyword("while")
	p.expect(token.LParen)
	test := p.parseExpression()
	p.expect(token.RParen)
	if p.at(token.Semicolon) {
		p.advance()
	}
	return &ast.DoWhileStatement{Body: body, Test: test, Pos: pos}
}

// parseForStatement handles the classic C-style `for`, `for-in`, and
// `for-of`/`for-await-of` forms, distinguished after parsing the init
// clause (spec.md §4.2 "for-head ambiguity").
func (p *Parser) parseForStatement() ast.Statement {
	pos := toPos(p.cur.Pos)
	p.advance()
	isAwait := false
	if p.atKeyword("await") {
		isAwait = true
		p.advance()
	}
	p.expect(token.LParen)

	if p.at(token.Semicolon) {
		p.advance()
		return p.finishCStyleFor(nil, pos)
	}

	if p.atKeyword("var") || p.atKeyword("let") || p.atKeyword("const") {
		keyword := p.cur.Literal
		declPos := toPos(p.cur.Pos)
		p.advance()
		kind := declKindFor(keyword)
		target := p.parseBindingTarget()
		if p.atKeyword("in") || p.atKeyword("of") {
			return p.finishForInOf(&ast.VariableDeclaration{Kind: kind, Pos: declPos}, target, isAwait, pos)
		}
		var init ast.Expression
		if p.at(token.Eq) {
			p.advance()
			init = p.parseAssignment()
		}
		decls := []ast.VariableDeclarator{{Target: target, Init: init}}
		for p.at(token.Comma) {
			p.advance()
			t := p.parseBindingTarget()
			var i ast.Expression
			if p.at(token.Eq) {
				p.advance()
				i = p.parseAssignment()
			}
			decls = append(decls, ast.VariableDeclarator{Target: t, Init: i})
		}
		decl := &ast.VariableDeclaration{Kind: kind, Decls: decls, Pos: declPos}
		p.expect(token.Semicolon)
		return p.finishCStyleFor(decl, pos)
	}

	first := p.parseExpression()
	if p.atKeyword("in") || p.atKeyword("of") {
		target := exprToPattern(first)
		return p.finishForInOf(nil, target, isAwait, pos)
	}
	p.expect(token.Semicolon)
	return p.finishCStyleFor(first, pos)
}

func (p *Parser) finishCStyleFor(init ast.Node, pos ast.Position) *ast.ForStatement {
	var test, update ast.Expression
	if !p.at(token.Semicolon) {
		test = p.parseExpression()
	}
	p.expect(token.Semicolon)
	if !p.at(token.RParen) {
		update = p.parseExpression()
	}
	p.expect(token.RParen)
	p.inLoop++
	body := p.parseStatement()
	p.inLoop--
	return &ast.ForStatement{Init: init, Test: test, Update: update, Body: body, Pos: pos}
}

func (p *Parser) finishForInOf(decl *ast.VariableDeclaration, target ast.Pattern, isAwait bool, pos ast.Position) *ast.ForInOfStatement {
	kind := ast.ForIn
	if p.atKeyword("of") {
		kind = ast.ForOf
		if isAwait {
			kind = ast.ForAwaitOf
		}
	}
	p.advance() // `in` or `of`
	var right ast.Expression
	if kind == ast.ForIn {
		right = p.parseExpression()
	} else {
		right = p.parseAssignment()
	}
	p.expect(token.RParen)
	p.inLoop++
	body := p.parseStatement()
	p.inLoop--
	return &ast.ForInOfStatement{Kind: kind, Decl: decl, Target: target, Right: right, Body: body, Pos: pos}
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	pos := toPos(p.cur.Pos)
	p.advance()
	var arg ast.Expression
	if !p.cur.NewlineBefore && !p.atExpressionEnd() {
		arg = p.parseExpression()
	}
	p.consumeSemicolon()
	return &ast.ReturnStatement{Arg: arg, Pos: pos}
}

func (p *Parser) parseBreakStatement() *ast.BreakStatement {
	pos := toPos(p.cur.Pos)
	p.advance()
	var label sym.Sym
	if !p.cur.NewlineBefore && p.at(token.Identifier) {
		label = p.interner.Intern(p.cur.Literal)
		p.advance()
	}
	p.consumeSemicolon()
	return &ast.BreakStatement{Label: label, Pos: pos}
}

func (p *Parser) parseContinueStatement() *ast.ContinueStatement {
	pos := toPos(p.cur.Pos)
	p.advance()
	var label sym.Sym
	if !p.cur.NewlineBefore && p.at(token.Identifier) {
		label = p.interner.Intern(p.cur.Literal)
		p.advance()
	}
	p.consumeSemicolon()
	return &ast.ContinueStatement{Label: label, Pos: pos}
}

func (p *Parser) parseThrowStatement() *ast.ThrowStatement {
	pos := toPos(p.cur.Pos)
	p.advance()
	if p.cur.NewlineBefore {
		p.fail(p.cur.Pos, "illegal newline after 'throw'")
	}
	arg := p.parseExpression()
	p.consumeSemicolon()
	return &ast.ThrowStatement{Arg: arg, Pos: pos}
}

func (p *Parser) parseTryStatement() *ast.TryStatement {
	pos := toPos(p.cur.Pos)
	p.advance()
	block := p.parseBlockStatement()
	var catch *ast.CatchClause
	var finally []ast.Statement
	if p.atKeyword("catch") {
		p.advance()
		var param ast.Pattern
		if p.at(token.LParen) {
			p.advance()
			param = p.parseBindingTarget()
			p.expect(token.RParen)
		}
		body := p.parseBlockStatement()
		catch = &ast.CatchClause{Param: param, Body: body.Body}
	}
	if p.atKeyword("finally") {
		p.advance()
		body := p.parseBlockStatement()
		finally = body.Body
	}
	return &ast.TryStatement{Block: block.Body, Catch: catch, Finally: finally, Pos: pos}
}

func (p *Parser) parseSwitchStatement() *ast.SwitchStatement {
	pos := toPos(p.cur.Pos)
	p.advance()
	p.expect(token.LParen)
	disc := p.parseExpression()
	p.expect(token.RParen)
	p.expect(token.LBrace)
	p.inSwitch++
	var cases []ast.SwitchCase
	for !p.at(token.RBrace) {
		var test ast.Expression
		if p.atKeyword("case") {
			p.advance()
			test = p.parseExpression()
		} else {
			p.expectKeyword("default")
		}
		p.expect(token.Colon)
		var body []ast.Statement
		for !p.atKeyword("case") && !p.atKeyword("default") && !p.at(token.RBrace) {
			body = append(body, p.parseStatement())
		}
		cases = append(cases, ast.SwitchCase{Test: test, Body: body})
	}
	p.inSwitch--
	p.expect(token.RBrace)
	return &ast.SwitchStatement{Disc: disc, Cases: cases, Pos: pos}
}

func (p *Parser) parseLabeledStatement() *ast.LabeledStatement {
	pos := toPos(p.cur.Pos)
	label := p.interner.Intern(p.cur.Literal)
	p.advance()
	p.expect(token.Colon)
	body := p.parseStatement()
	return &ast.LabeledStatement{Label: label, Body: body, Pos: pos}
}

// parseImportDeclaration parses the default/namespace/named import
// forms into one flattened ast.ImportDeclaration (spec.md §4.2's
// module grammar keeps the AST shape deliberately flat rather than
// mirroring every cover-grammar production).
func (p *Parser) parseImportDeclaration() ast.ImportDeclaration {
	pos := toPos(p.cur.Pos)
	p.advance()
	decl := ast.ImportDeclaration{Pos: pos, Named: map[string]sym.Sym{}}
	if p.at(token.StringLiteral) {
		decl.Specifier = p.cur.Literal
		p.advance()
		p.consumeSemicolon()
		return decl
	}
	if p.at(token.Identifier) {
		decl.LocalName = p.interner.Intern(p.cur.Literal)
		p.advance()
		if p.at(token.Comma) {
			p.advance()
		}
	}
	if p.at(token.Star) {
		p.advance()
		p.expectContextualIdentifier("as")
		decl.LocalName = p.interner.Intern(p.cur.Literal)
		decl.IsNamespace = true
		p.expect(token.Identifier)
	} else if p.at(token.LBrace) {
		p.advance()
		for !p.at(token.RBrace) {
			imported := p.cur.Literal
			p.expect(token.Identifier)
			local := imported
			if p.atKeyword("as") {
				p.advance()
				local = p.cur.Literal
				p.expect(token.Identifier)
			}
			decl.Named[imported] = p.interner.Intern(local)
			if p.at(token.Comma) {
				p.advance()
			} else {
				break
			}
		}
		p.expect(token.RBrace)
	}
	p.expectContextualIdentifier("from")
	decl.Specifier = p.cur.Literal
	p.expect(token.StringLiteral)
	p.consumeSemicolon()
	return decl
}

// parseExportDeclaration parses `export <decl>`, `export default
// <expr|decl>`, and `export { ... } [from "spec"]`.
func (p *Parser) parseExportDeclaration() ast.ExportDeclaration {
	pos := toPos(p.cur.Pos)
	p.advance()
	if p.atKeyword("default") {
		p.advance()
		if p.atKeyword("function") || p.atKeyword("class") ||
			(p.atKeyword("async") && p.peekIsFunctionKeyword()) {
			stmt := p.parseStatement()
			return ast.ExportDeclaration{Decl: stmt, Pos: pos}
		}
		expr := p.parseAssignment()
		p.consumeSemicolon()
		return ast.ExportDeclaration{Default: expr, Pos: pos}
	}
	if p.at(token.LBrace) {
		p.advance()
		named := map[sym.Sym]string{}
		for !p.at(token.RBrace) {
			local := p.cur.Literal
			localSym := p.interner.Intern(local)
			p.expect(token.Identifier)
			exported := local
			if p.atKeyword("as") {
				p.advance()
				exported = p.cur.Literal
				p.expect(token.Identifier)
			}
			named[localSym] = exported
			if p.at(token.Comma) {
				p.advance()
			} else {
				break
			}
		}
		p.expect(token.RBrace)
		decl := ast.ExportDeclaration{Named: named, Pos: pos}
		if p.atKeyword("from") {
			p.advance()
			p.expect(token.StringLiteral)
		}
		p.consumeSemicolon()
		return decl
	}
	stmt := p.parseStatement()
	return ast.ExportDeclaration{Decl: stmt, Pos: pos}
}
