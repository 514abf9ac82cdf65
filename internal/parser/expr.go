package parser

import (
	"strconv"

	"github.com/ecmago/ecmago/internal/ast"
	"github.com/ecmago/ecmago/internal/lexer"
	"github.com/ecmago/ecmago/internal/sym"
	"github.com/ecmago/ecmago/internal/token"
)

// exprPos extracts the diagnostic position carried by any concrete
// Expression node. A type switch here is cheaper than giving every
// node a Pos() method just for this.
func exprPos(e ast.Expression) ast.Position {
	switch n := e.(type) {
	case *ast.Identifier:
		return n.Pos
	case *ast.NumberLiteral:
		return n.Pos
	case *ast.StringLiteral:
		return n.Pos
	case *ast.BinaryExpression:
		return n.Pos
	case *ast.LogicalExpression:
		return n.Pos
	case *ast.CallExpression:
		return n.Pos
	case *ast.MemberExpression:
		return n.Pos
	case *ast.AssignmentExpression:
		return n.Pos
	case *ast.ConditionalExpression:
		return n.Pos
	case *ast.ArrayLiteral:
		return n.Pos
	case *ast.ObjectLiteral:
		return n.Pos
	case *ast.CoverParenthesizedExpression:
		return n.Pos
	default:
		return ast.Position{}
	}
}

// parseExpression parses an AssignmentExpression, then folds any
// following `,` into a SequenceExpression.
func (p *Parser) parseExpression() ast.Expression {
	first := p.parseAssignment()
	if !p.at(token.Comma) {
		return first
	}
	exprs := []ast.Expression{first}
	for p.at(token.Comma) {
		p.advance()
		exprs = append(exprs, p.parseAssignment())
	}
	return &ast.SequenceExpression{Exprs: exprs, Pos: exprPos(first)}
}

func (p *Parser) parseAssignment() ast.Expression {
	if arrow, ok := p.tryParseArrowFunction(); ok {
		return arrow
	}
	if p.atKeyword("yield") && p.inGenerator {
		return p.parseYield()
	}
	left := p.parseConditional()
	op, isAssign := assignOpFor(p.cur.Kind)
	if !isAssign {
		return left
	}
	pos := toPos(p.cur.Pos)
	p.advance()
	target := p.reinterpretAsAssignTarget(left, op == ast.AssignEq)
	value := p.parseAssignment()
	return &ast.AssignmentExpression{Op: op, Target: target, Value: value, Pos: pos}
}

func assignOpFor(k token.Kind) (ast.AssignOp, bool) {
	switch k {
	case token.Eq:
		return ast.AssignEq, true
	case token.PlusEq:
		return ast.AssignAdd, true
	case token.MinusEq:
		return ast.AssignSub, true
	case token.StarEq:
		return ast.AssignMul, true
	case token.SlashEq:
		return ast.AssignDiv, true
	case token.PercentEq:
		return ast.AssignMod, true
	case token.StarStarEq:
		return ast.AssignExp, true
	case token.AmpEq:
		return ast.AssignBitAnd, true
	case token.PipeEq:
		return ast.AssignBitOr, true
	case token.CaretEq:
		return ast.AssignBitXor, true
	case token.LtLtEq:
		return ast.AssignShl, true
	case token.GtGtEq:
		return ast.AssignShr, true
	case token.GtGtGtEq:
		return ast.AssignUShr, true
	case token.AmpAmpEq:
		return ast.AssignAnd, true
	case token.PipePipeEq:
		return ast.AssignOr, true
	case token.QuestionQuestionEq:
		return ast.AssignCoalesce, true
	}
	return 0, false
}

func (p *Parser) parseYield() ast.Expression {
	pos := toPos(p.cur.Pos)
	p.advance()
	delegate := false
	if p.at(token.Star) {
		delegate = true
		p.advance()
	}
	var arg ast.Expression
	if !p.cur.NewlineBefore && !p.atExpressionEnd() {
		arg = p.parseAssignment()
	}
	return &ast.YieldExpression{Arg: arg, Delegate: delegate, Pos: pos}
}

func (p *Parser) atExpressionEnd() bool {
	return p.at(token.Semicolon) || p.at(token.RBrace) || p.at(token.RParen) ||
		p.at(token.RBracket) || p.at(token.Comma) || p.at(token.Colon) || p.at(token.EOF)
}

func (p *Parser) parseConditional() ast.Expression {
	test := p.parseCoalesce()
	if !p.at(token.Question) {
		return test
	}
	pos := toPos(p.cur.Pos)
	p.advance()
	then := p.parseAssignment()
	p.expect(token.Colon)
	els := p.parseAssignment()
	return &ast.ConditionalExpression{Test: test, Then: then, Else: els, Pos: pos}
}

func (p *Parser) parseCoalesce() ast.Expression {
	left := p.parseLogicalOr()
	for p.at(token.QuestionQuestion) {
		pos := toPos(p.cur.Pos)
		p.advance()
		right := p.parseLogicalOr()
		left = &ast.LogicalExpression{Op: ast.LogicalCoalesce, Left: left, Right: right, Pos: pos}
	}
	return left
}

func (p *Parser) parseLogicalOr() ast.Expression {
	left := p.parseLogicalAnd()
	for p.at(token.PipePipe) {
		pos := toPos(p.cur.Pos)
		p.advance()
		right := p.parseLogicalAnd()
		left = &ast.LogicalExpression{Op: ast.LogicalOr, Left: left, Right: right, Pos: pos}
	}
	return left
}

func (p *Parser) parseLogicalAnd() ast.Expression {
	left := p.parseBinary(0)
	for p.at(token.AmpAmp) {
		pos := toPos(p.cur.Pos)
		p.advance()
		right := p.parseBinary(0)
		left = &ast.LogicalExpression{Op: ast.LogicalAnd, Left: left, Right: right, Pos: pos}
	}
	return left
}

// binOpInfo drives the precedence-climbing binary-operator parser: a
// single generic function stands in for the precedence ladder's
// binary-operator levels (spec.md §4.2, "generated by a single
// template macro to guarantee identical shape").
type binOpInfo struct {
	prec int
	op   ast.BinaryOp
}

var binOps = map[token.Kind]binOpInfo{
	token.Pipe:    {1, ast.BinBitOr},
	token.Caret:   {2, ast.BinBitXor},
	token.Amp:     {3, ast.BinBitAnd},
	token.EqEq:    {4, ast.BinEqEq},
	token.NotEq:   {4, ast.BinNotEq},
	token.EqEqEq:  {4, ast.BinEqEqEq},
	token.NotEqEq: {4, ast.BinNotEqEq},
	token.Lt:      {5, ast.BinLt},
	token.Gt:      {5, ast.BinGt},
	token.LtEq:    {5, ast.BinLtEq},
	token.GtEq:    {5, ast.BinGtEq},
	token.LtLt:    {6, ast.BinShl},
	token.GtGt:    {6, ast.BinShr},
	token.GtGtGt:  {6, ast.BinUShr},
	token.Plus:    {7, ast.BinAdd},
	token.Minus:   {7, ast.BinSub},
	token.Star:    {8, ast.BinMul},
	token.Slash:   {8, ast.BinDiv},
	token.Percent: {8, ast.BinMod},
}

// parseBinary implements the whole bitwise/equality/relational/
// shift/additive/multiplicative ladder via one recursive function
// parameterised by minimum precedence, plus `instanceof`/`in` which
// are handled inline because they are keyword-spelled rather than
// punctuator operators.
func (p *Parser) parseBinary(minPrec int) ast.Expression {
	left := p.parseExponent()
	for {
		if p.atKeyword("instanceof") {
			pos := toPos(p.cur.Pos)
			p.advance()
			right := p.parseExponent()
			left = &ast.BinaryExpression{Op: ast.BinInstanceof, Left: left, Right: right, Pos: pos}
			continue
		}
		if p.atKeyword("in") {
			pos := toPos(p.cur.Pos)
			p.advance()
			right := p.parseExponent()
			left = &ast.BinaryExpression{Op: ast.BinIn, Left: left, Right: right, Pos: pos}
			continue
		}
		info, ok := binOps[p.cur.Kind]
		if !ok || info.prec < minPrec {
			return left
		}
		pos := toPos(p.cur.Pos)
		p.advance()
		right := p.parseBinary(info.prec + 1)
		left = &ast.BinaryExpression{Op: info.op, Left: left, Right: right, Pos: pos}
	}
}

// parseExponent handles the right-associative `**` level, one rung
// below the unary level. ECMAScript additionally forbids a bare unary
// expression directly to the left of `**`; neither this parser nor the
// compiler enforces that restriction.
func (p *Parser) parseExponent() ast.Expression {
	left := p.parseUnary()
	if p.at(token.StarStar) {
		pos := toPos(p.cur.Pos)
		p.advance()
		right := p.parseExponent()
		return &ast.BinaryExpression{Op: ast.BinExp, Left: left, Right: right, Pos: pos}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	pos := toPos(p.cur.Pos)
	switch {
	case p.at(token.Plus):
		p.advance()
		return &ast.UnaryExpression{Op: ast.UnaryPlus, Arg: p.parseUnary(), Pos: pos}
	case p.at(token.Minus):
		p.advance()
		return &ast.UnaryExpression{Op: ast.UnaryMinus, Arg: p.parseUnary(), Pos: pos}
	case p.at(token.Bang):
		p.advance()
		return &ast.UnaryExpression{Op: ast.UnaryNot, Arg: p.parseUnary(), Pos: pos}
	case p.at(token.Tilde):
		p.advance()
		return &ast.UnaryExpression{Op: ast.UnaryBitNot, Arg: p.parseUnary(), Pos: pos}
	case p.atKeyword("typeof"):
		p.advance()
		return &ast.UnaryExpression{Op: ast.UnaryTypeOf, Arg: p.parseUnary(), Pos: pos}
	case p.atKeyword("void"):
		p.advance()
		return &ast.UnaryExpression{Op: ast.UnaryVoid, Arg: p.parseUnary(), Pos: pos}
	case p.atKeyword("delete"):
		p.advance()
		return &ast.UnaryExpression{Op: ast.UnaryDelete, Arg: p.parseUnary(), Pos: pos}
	case p.atKeyword("await") && p.inAsync:
		p.advance()
		return &ast.AwaitExpression{Arg: p.parseUnary(), Pos: pos}
	case p.at(token.PlusPlus):
		p.advance()
		return &ast.UpdateExpression{Op: ast.UpdateInc, Arg: p.parseUnary(), Prefix: true, Pos: pos}
	case p.at(token.MinusMinus):
		p.advance()
		return &ast.UpdateExpression{Op: ast.UpdateDec, Arg: p.parseUnary(), Prefix: true, Pos: pos}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parseLeftHandSide()
	if !p.cur.NewlineBefore && (p.at(token.PlusPlus) || p.at(token.MinusMinus)) {
		op := ast.UpdateInc
		if p.at(token.MinusMinus) {
			op = ast.UpdateDec
		}
		pos := toPos(p.cur.Pos)
		p.advance()
		return &ast.UpdateExpression{Op: op, Arg: expr, Prefix: false, Pos: pos}
	}
	return expr
}

// parseLeftHandSide parses NewExpression / CallExpression / member
// access chains, including optional chaining.
func (p *Parser) parseLeftHandSide() ast.Expression {
	var expr ast.Expression
	if p.atKeyword("new") {
		expr = p.parseNew()
	} else {
		expr = p.parsePrimary()
	}
	return p.parseCallTail(expr)
}

func (p *Parser) parseNew() ast.Expression {
	pos := toPos(p.cur.Pos)
	p.advance()
	if p.at(token.Dot) {
		p.advance()
		p.expectContextualIdentifier("target")
		return &ast.NewTargetExpression{Pos: pos}
	}
	var callee ast.Expression
	if p.atKeyword("new") {
		callee = p.parseNew()
	} else {
		callee = p.parsePrimary()
	}
	callee = p.parseMemberTail(callee)
	var args []ast.Expression
	if p.at(token.LParen) {
		args = p.parseArguments()
	}
	return &ast.NewExpression{Callee: callee, Args: args, Pos: pos}
}

func (p *Parser) expectContextualIdentifier(name string) {
	if p.cur.Kind != token.Identifier || p.cur.Literal != name {
		p.fail(p.cur.Pos, "expected %q", name)
	}
	p.advance()
}

// parseMemberTail parses only `.name` / `[expr]` / private member
// accesses (no calls), used while parsing `new` callees so that
// `new a.b.C(x)` binds the arguments to the whole member chain.
func (p *Parser) parseMemberTail(expr ast.Expression) ast.Expression {
	for {
		switch {
		case p.at(token.Dot):
			pos := toPos(p.cur.Pos)
			p.advance()
			if p.at(token.PrivateIdentifier) {
				if p.inClass == 0 {
					p.fail(pos, "private field %q must be accessed from within a class body", p.cur.Literal)
				}
				name := p.interner.Intern(p.cur.Literal)
				p.advance()
				expr = &ast.PrivateMemberExpression{Object: expr, Name: name, Pos: pos}
				continue
			}
			name := p.parseIdentifierName()
			expr = &ast.MemberExpression{Object: expr, Property: &ast.Identifier{Name: name, Pos: pos}, Pos: pos}
		case p.at(token.LBracket):
			pos := toPos(p.cur.Pos)
			p.advance()
			prop := p.parseExpression()
			p.expect(token.RBracket)
			expr = &ast.MemberExpression{Object: expr, Property: prop, Computed: true, Pos: pos}
		default:
			return expr
		}
	}
}

func (p *Parser) parseCallTail(expr ast.Expression) ast.Expression {
	for {
		switch {
		case p.at(token.Dot):
			pos := toPos(p.cur.Pos)
			p.advance()
			if p.at(token.PrivateIdentifier) {
				if p.inClass == 0 {
					p.fail(pos, "private field %q must be accessed from within a class body", p.cur.Literal)
				}
				name := p.interner.Intern(p.cur.Literal)
				p.advance()
				expr = &ast.PrivateMemberExpression{Object: expr, Name: name, Pos: pos}
				continue
			}
			name := p.parseIdentifierName()
			expr = &ast.MemberExpression{Object: expr, Property: &ast.Identifier{Name: name, Pos: pos}, Pos: pos}
		case p.at(token.QuestionDot):
			pos := toPos(p.cur.Pos)
			p.advance()
			switch {
			case p.at(token.LParen):
				args := p.parseArguments()
				expr = &ast.CallExpression{Callee: expr, Args: args, Optional: true, Pos: pos}
			case p.at(token.LBracket):
				p.advance()
				prop := p.parseExpression()
				p.expect(token.RBracket)
				expr = &ast.MemberExpression{Object: expr, Property: prop, Computed: true, Optional: true, Pos: pos}
			default:
				name := p.parseIdentifierName()
				expr = &ast.MemberExpression{Object: expr, Property: &ast.Identifier{Name: name, Pos: pos}, Optional: true, Pos: pos}
			}
		case p.at(token.LBracket):
			pos := toPos(p.cur.Pos)
			p.advance()
			prop := p.parseExpression()
			p.expect(token.RBracket)
			expr = &ast.MemberExpression{Object: expr, Property: prop, Computed: true, Pos: pos}
		case p.at(token.LParen):
			pos := toPos(p.cur.Pos)
			args := p.parseArguments()
			expr = &ast.CallExpression{Callee: expr, Args: args, Pos: pos}
		case p.at(token.NoSubstitutionTemplate) || p.at(token.TemplateHead):
			pos := toPos(p.cur.Pos)
			tmpl := p.parseTemplateLiteral()
			expr = &ast.TaggedTemplateExpression{Tag: expr, Template: tmpl, Pos: pos}
		default:
			return expr
		}
	}
}

func (p *Parser) parseArguments() []ast.Expression {
	p.expect(token.LParen)
	var args []ast.Expression
	for !p.at(token.RParen) {
		if p.at(token.Ellipsis) {
			pos := toPos(p.cur.Pos)
			p.advance()
			args = append(args, &ast.SpreadElement{Arg: p.parseAssignment(), Pos: pos})
		} else {
			args = append(args, p.parseAssignment())
		}
		if p.at(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RParen)
	return args
}

func (p *Parser) parseIdentifierName() sym.Sym {
	if p.cur.Kind != token.Identifier && p.cur.Kind != token.Keyword {
		p.fail(p.cur.Pos, "expected identifier name")
	}
	name := p.interner.Intern(p.cur.Literal)
	p.advance()
	return name
}

// parsePrimary parses PrimaryExpression: literals, identifiers,
// parenthesized expressions (left as a cover node until the caller
// decides whether it is really arrow-function parameters), array and
// object literals, function/class expressions and `this`/`super`.
func (p *Parser) parsePrimary() ast.Expression {
	pos := toPos(p.cur.Pos)
	switch {
	case p.atKeyword("this"):
		p.advance()
		return &ast.ThisExpression{Pos: pos}
	case p.atKeyword("super"):
		p.advance()
		return &ast.SuperExpression{Pos: pos}
	case p.atKeyword("function"):
		return p.parseFunctionExpression()
	case p.atKeyword("class"):
		return p.parseClassExpression()
	case p.atKeyword("async") && p.peekIsFunctionKeyword():
		p.advance()
		fn := p.parseFunctionExpression()
		fn.(*ast.FunctionExpression).Async = true
		return fn
	case p.atKeyword("null"):
		p.advance()
		return &ast.NullLiteral{Pos: pos}
	case p.atKeyword("true"):
		p.advance()
		return &ast.BoolLiteral{Value: true, Pos: pos}
	case p.atKeyword("false"):
		p.advance()
		return &ast.BoolLiteral{Value: false, Pos: pos}
	case p.at(token.Identifier):
		name := p.interner.Intern(p.cur.Literal)
		p.advance()
		return &ast.Identifier{Name: name, Pos: pos}
	case p.at(token.PrivateIdentifier):
		name := p.interner.Intern(p.cur.Literal)
		p.advance()
		return &ast.PrivateName{Name: name, Pos: pos}
	case p.at(token.NumberInt) || p.at(token.NumberFloat):
		lit := p.cur.Literal
		p.advance()
		v, _ := strconv.ParseFloat(lit, 64)
		return &ast.NumberLiteral{Value: v, Pos: pos}
	case p.at(token.BigIntLiteral):
		lit := p.cur.Literal
		p.advance()
		return &ast.BigIntLiteral{Text: lit, Pos: pos}
	case p.at(token.StringLiteral):
		lit := p.cur.Literal
		p.advance()
		return &ast.StringLiteral{Value: lit, Pos: pos}
	case p.at(token.RegExpLiteral):
		pattern, flags := splitRegExpLiteral(p.cur.Literal)
		p.advance()
		return &ast.RegExpLiteral{Pattern: pattern, Flags: flags, Pos: pos}
	case p.at(token.NoSubstitutionTemplate) || p.at(token.TemplateHead):
		return p.parseTemplateLiteral()
	case p.at(token.LBracket):
		return p.parseArrayLiteral()
	case p.at(token.LBrace):
		return p.parseObjectLiteral()
	case p.at(token.LParen):
		return p.parseCoverParenthesized()
	}
	p.fail(p.cur.Pos, "unexpected token %q", p.cur.Literal)
	panic("unreachable")
}

// splitRegExpLiteral undoes the NUL-separated pattern/flags encoding
// the lexer uses for regex literal tokens.
func splitRegExpLiteral(lit string) (pattern, flags string) {
	for i := 0; i < len(lit); i++ {
		if lit[i] == 0 {
			return lit[:i], lit[i+1:]
		}
	}
	return lit, ""
}

func (p *Parser) peekIsFunctionKeyword() bool {
	t := p.lex.Peek(0)
	return t.Kind == token.Keyword && t.Literal == "function"
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	pos := toPos(p.cur.Pos)
	p.expect(token.LBracket)
	var elems []ast.Expression
	for !p.at(token.RBracket) {
		if p.at(token.Comma) {
			elems = append(elems, nil) // elision
			p.advance()
			continue
		}
		if p.at(token.Ellipsis) {
			spos := toPos(p.cur.Pos)
			p.advance()
			elems = append(elems, &ast.SpreadElement{Arg: p.parseAssignment(), Pos: spos})
		} else {
			elems = append(elems, p.parseAssignment())
		}
		if p.at(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RBracket)
	return &ast.ArrayLiteral{Elements: elems, Pos: pos}
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	pos := toPos(p.cur.Pos)
	p.expect(token.LBrace)
	var props []ast.Property
	for !p.at(token.RBrace) {
		props = append(props, p.parseObjectProperty())
		if p.at(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RBrace)
	return &ast.ObjectLiteral{Props: props, Pos: pos}
}

func (p *Parser) parseObjectProperty() ast.Property {
	if p.at(token.Ellipsis) {
		p.advance()
		return ast.Property{Kind: ast.PropSpread, Value: p.parseAssignment()}
	}
	if p.atKeyword("get") && !p.peekEndsPropertyKey() {
		p.advance()
		key, computed := p.parsePropertyKey()
		fn := p.parseMethodBody(false, false)
		return ast.Property{Key: key, Computed: computed, Kind: ast.PropGet, Value: fn}
	}
	if p.atKeyword("set") && !p.peekEndsPropertyKey() {
		p.advance()
		key, computed := p.parsePropertyKey()
		fn := p.parseMethodBody(false, false)
		return ast.Property{Key: key, Computed: computed, Kind: ast.PropSet, Value: fn}
	}
	async, generator := false, false
	if p.atKeyword("async") && !p.peekEndsPropertyKey() {
		async = true
		p.advance()
	}
	if p.at(token.Star) {
		generator = true
		p.advance()
	}
	key, computed := p.parsePropertyKey()
	if p.at(token.LParen) {
		fn := p.parseMethodBody(generator, async)
		return ast.Property{Key: key, Computed: computed, Kind: ast.PropMethod, Value: fn}
	}
	if p.at(token.Colon) {
		p.advance()
		return ast.Property{Key: key, Computed: computed, Kind: ast.PropInit, Value: p.parseAssignment()}
	}
	// Shorthand `{x}` / `{x = default}` (the latter only valid inside a
	// destructuring pattern; reinterpretAsAssignTarget handles it).
	if p.at(token.Eq) {
		p.advance()
		def := p.parseAssignment()
		return ast.Property{Key: key, Kind: ast.PropInit, Value: &ast.AssignmentExpression{
			Op: ast.AssignEq, Target: &ast.Identifier{Name: key}, Value: def,
		}}
	}
	return ast.Property{Key: key, Kind: ast.PropInit, Value: &ast.Identifier{Name: key}}
}

// peekEndsPropertyKey reports whether the upcoming token means the
// current `get`/`set`/`async` keyword is actually being used as the
// property name itself (e.g. `{ get: 1 }`).
func (p *Parser) peekEndsPropertyKey() bool {
	t := p.lex.Peek(0)
	switch t.Kind {
	case token.Colon, token.LParen, token.Comma, token.RBrace, token.Eq:
		return true
	}
	return false
}

func (p *Parser) parsePropertyKey() (sym.Sym, ast.Expression) {
	if p.at(token.LBracket) {
		p.advance()
		expr := p.parseAssignment()
		p.expect(token.RBracket)
		return 0, expr
	}
	if p.at(token.StringLiteral) {
		name := p.interner.Intern(p.cur.Literal)
		p.advance()
		return name, nil
	}
	if p.at(token.NumberInt) || p.at(token.NumberFloat) {
		name := p.interner.Intern(p.cur.Literal)
		p.advance()
		return name, nil
	}
	return p.parseIdentifierName(), nil
}

func (p *Parser) parseMethodBody(generator, async bool) *ast.FunctionExpression {
	pos := toPos(p.cur.Pos)
	params := p.parseParameterList()
	body := p.parseFunctionBody()
	return &ast.FunctionExpression{Params: params, Body: body, Generator: generator, Async: async, Pos: pos}
}

func (p *Parser) parseFunctionExpression() ast.Expression {
	pos := toPos(p.cur.Pos)
	p.expectKeyword("function")
	generator := false
	if p.at(token.Star) {
		generator = true
		p.advance()
	}
	var name sym.Sym
	if p.at(token.Identifier) {
		name = p.interner.Intern(p.cur.Literal)
		p.advance()
	}
	savedGen, savedAsync := p.inGenerator, p.inAsync
	p.inGenerator, p.inAsync = generator, false
	params := p.parseParameterList()
	body := p.parseFunctionBody()
	p.inGenerator, p.inAsync = savedGen, savedAsync
	return &ast.FunctionExpression{Name: name, Params: params, Body: body, Generator: generator, Pos: pos}
}

func (p *Parser) parseParameterList() []ast.Pattern {
	p.expect(token.LParen)
	var params []ast.Pattern
	for !p.at(token.RParen) {
		if p.at(token.Ellipsis) {
			p.advance()
			params = append(params, &ast.RestPattern{Target: p.parseBindingTarget()})
		} else {
			target := p.parseBindingTarget()
			if p.at(token.Eq) {
				p.advance()
				target = &ast.AssignmentPattern{Target: target, Default: p.parseAssignment()}
			}
			params = append(params, target)
		}
		if p.at(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RParen)
	return params
}

func (p *Parser) parseFunctionBody() []ast.Statement {
	p.expect(token.LBrace)
	var body []ast.Statement
	for !p.at(token.RBrace) {
		body = append(body, p.parseStatement())
	}
	p.expect(token.RBrace)
	return body
}

func (p *Parser) parseTemplateLiteral() *ast.TemplateLiteral {
	pos := toPos(p.cur.Pos)
	if p.at(token.NoSubstitutionTemplate) {
		quasi := p.cur.Literal
		p.advance()
		return &ast.TemplateLiteral{Quasis: []string{quasi}, Pos: pos}
	}
	quasis := []string{p.cur.Literal}
	p.advance() // consumes TemplateHead
	var exprs []ast.Expression
	for {
		exprs = append(exprs, p.parseExpression())
		p.lex.SetGoal(lexer.GoalTemplateTail)
		p.advance() // re-lex as TemplateMiddle/TemplateTail
		quasis = append(quasis, p.cur.Literal)
		isTail := p.at(token.TemplateTail)
		p.advance()
		if isTail {
			break
		}
	}
	return &ast.TemplateLiteral{Quasis: quasis, Expressions: exprs, Pos: pos}
}

// parseCoverParenthesized parses `(` ... `)` without committing to
// arrow-parameters-vs-expression; tryParseArrowFunction peeks ahead
// for `=>` before calling this, and reinterpretAsAssignTarget plus the
// direct expression-statement path both know how to unwrap the result
// (spec.md §4.2 "Arrow ambiguity").
func (p *Parser) parseCoverParenthesized() ast.Expression {
	pos := toPos(p.cur.Pos)
	p.expect(token.LParen)
	var items []ast.Expression
	for !p.at(token.RParen) {
		if p.at(token.Ellipsis) {
			spos := toPos(p.cur.Pos)
			p.advance()
			items = append(items, &ast.SpreadElement{Arg: p.parseAssignment(), Pos: spos})
		} else {
			items = append(items, p.parseAssignment())
		}
		if p.at(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RParen)
	if len(items) == 1 {
		if _, isSpread := items[0].(*ast.SpreadElement); !isSpread {
			return items[0]
		}
	}
	return &ast.CoverParenthesizedExpression{Items: items, Pos: pos}
}
