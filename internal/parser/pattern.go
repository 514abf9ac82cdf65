package parser

import (
	"github.com/ecmago/ecmago/internal/ast"
	"github.com/ecmago/ecmago/internal/token"
)

// parseBindingTarget parses a binding pattern directly from tokens:
// an identifier, or an array/object destructuring pattern. Used for
// parameters, catch clauses, and `var`/`let`/`const` declarators.
func (p *Parser) parseBindingTarget() ast.Pattern {
	switch {
	case p.at(token.Identifier):
		name := p.interner.Intern(p.cur.Literal)
		pos := toPos(p.cur.Pos)
		p.advance()
		return &ast.IdentifierPattern{Name: name, Pos: pos}
	case p.at(token.LBracket):
		return p.parseArrayBindingPattern()
	case p.at(token.LBrace):
		return p.parseObjectBindingPattern()
	}
	p.fail(p.cur.Pos, "expected binding target, got %q", p.cur.Literal)
	panic("unreachable")
}

func (p *Parser) parseArrayBindingPattern() ast.Pattern {
	pos := toPos(p.cur.Pos)
	p.expect(token.LBracket)
	var elems []ast.Pattern
	var rest ast.Pattern
	for !p.at(token.RBracket) {
		if p.at(token.Comma) {
			elems = append(elems, nil)
			p.advance()
			continue
		}
		if p.at(token.Ellipsis) {
			p.advance()
			rest = p.parseBindingTarget()
			break
		}
		target := p.parseBindingTarget()
		if p.at(token.Eq) {
			p.advance()
			target = &ast.AssignmentPattern{Target: target, Default: p.parseAssignment()}
		}
		elems = append(elems, target)
		if p.at(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RBracket)
	return &ast.ArrayPattern{Elements: elems, Rest: rest, Pos: pos}
}

func (p *Parser) parseObjectBindingPattern() ast.Pattern {
	pos := toPos(p.cur.Pos)
	p.expect(token.LBrace)
	var props []ast.ObjectPatternProp
	var rest ast.Pattern
	for !p.at(token.RBrace) {
		if p.at(token.Ellipsis) {
			p.advance()
			rest = p.parseBindingTarget()
			break
		}
		key, computed := p.parsePropertyKey()
		var value ast.Pattern
		if p.at(token.Colon) {
			p.advance()
			value = p.parseBindingTarget()
		} else {
			value = &ast.IdentifierPattern{Name: key}
		}
		var def ast.Expression
		if p.at(token.Eq) {
			p.advance()
			def = p.parseAssignment()
		}
		props = append(props, ast.ObjectPatternProp{Key: key, Computed: computed, Value: value, Default: def})
		if p.at(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RBrace)
	return &ast.ObjectPattern{Props: props, Rest: rest, Pos: pos}
}

// reinterpretAsAssignTarget converts an already-parsed expression into
// an assignment target. For plain `=` this must succeed for
// identifiers, member expressions, and (via destructuring) array and
// object literals; for compound assignment operators only identifiers
// and member expressions are legal, so the expression is returned
// as-is (the compiler rejects illegal targets at lowering time rather
// than the parser duplicating that check here).
func (p *Parser) reinterpretAsAssignTarget(expr ast.Expression, allowDestructuring bool) ast.Node {
	if !allowDestructuring {
		return expr
	}
	switch e := expr.(type) {
	case *ast.ArrayLiteral:
		return arrayLiteralToPattern(e)
	case *ast.ObjectLiteral:
		return objectLiteralToPattern(e)
	case *ast.CoverParenthesizedExpression:
		if len(e.Items) == 1 {
			return p.reinterpretAsAssignTarget(e.Items[0], true)
		}
	}
	return expr
}

func arrayLiteralToPattern(lit *ast.ArrayLiteral) ast.Pattern {
	pat := &ast.ArrayPattern{Pos: lit.Pos}
	for _, el := range lit.Elements {
		if el == nil {
			pat.Elements = append(pat.Elements, nil)
			continue
		}
		if spread, ok := el.(*ast.SpreadElement); ok {
			pat.Rest = exprToPattern(spread.Arg)
			continue
		}
		pat.Elements = append(pat.Elements, exprToPattern(el))
	}
	return pat
}

func objectLiteralToPattern(lit *ast.ObjectLiteral) ast.Pattern {
	pat := &ast.ObjectPattern{Pos: lit.Pos}
	for _, prop := range lit.Props {
		if prop.Kind == ast.PropSpread {
			pat.Rest = exprToPattern(prop.Value)
			continue
		}
		p := ast.ObjectPatternProp{Key: prop.Key, Computed: prop.Computed}
		if assign, ok := prop.Value.(*ast.AssignmentExpression); ok && assign.Op == ast.AssignEq {
			p.Value = exprToPattern(assign.Target.(ast.Expression))
			p.Default = assign.Value
		} else {
			p.Value = exprToPattern(prop.Value)
		}
		pat.Props = append(pat.Props, p)
	}
	return pat
}

// exprToPattern converts one destructuring-target expression (an
// Identifier, nested array/object literal, member expression used as
// an assignment target, or a defaulted AssignmentExpression) into the
// corresponding Pattern node.
func exprToPattern(e ast.Expression) ast.Pattern {
	switch n := e.(type) {
	case *ast.Identifier:
		return &ast.IdentifierPattern{Name: n.Name, Pos: n.Pos}
	case *ast.ArrayLiteral:
		return arrayLiteralToPattern(n)
	case *ast.ObjectLiteral:
		return objectLiteralToPattern(n)
	case *ast.AssignmentExpression:
		if n.Op == ast.AssignEq {
			if target, ok := n.Target.(ast.Expression); ok {
				return &ast.AssignmentPattern{Target: exprToPattern(target), Default: n.Value, Pos: exprPos(target)}
			}
			if target, ok := n.Target.(ast.Pattern); ok {
				return &ast.AssignmentPattern{Target: target, Default: n.Value}
			}
		}
	case *ast.MemberExpression:
		// A member expression is a valid assignment target used
		// as-is; it is not itself a Pattern, so it is wrapped via
		// the Pattern-typed passthrough below at the compiler
		// boundary (member targets never get destructured further).
		return memberPatternWrapper{n}
	}
	return memberPatternWrapper{e}
}

// memberPatternWrapper lets a non-pattern Expression (a member
// expression reached through destructuring, e.g. `[a.b] = x`) satisfy
// ast.Pattern; the compiler type-switches it back out when lowering
// assignment targets.
type memberPatternWrapper struct{ Expr ast.Expression }

func (memberPatternWrapper) node()    {}
func (memberPatternWrapper) pattern() {}

// MemberTarget exposes the wrapped expression to internal/compiler,
// which cannot type-assert this unexported type directly but can
// match it structurally through an interface.
func (w memberPatternWrapper) MemberTarget() ast.Expression { return w.Expr }

// tryParseArrowFunction attempts to parse an ArrowFunctionExpression
// starting at the current token, returning ok=false (and restoring no
// state, since nothing is consumed) if the current position cannot
// possibly start one. Arrow detection needs only one token of
// lookahead beyond the primary expression: either a bare identifier
// immediately followed by `=>`, or a parenthesized parameter list
// immediately followed by `=>`.
func (p *Parser) tryParseArrowFunction() (ast.Expression, bool) {
	async := false
	base := p.cur
	if p.atKeyword("async") {
		next := p.lex.Peek(0)
		if !next.NewlineBefore && (next.Kind == token.Identifier || next.Kind == token.LParen) {
			async = true
			base = next
		}
	}

	switch base.Kind {
	case token.Identifier:
		arrowFollows := p.lex.Peek(0).Kind == token.Arrow
		if async {
			arrowFollows = p.lex.Peek(1).Kind == token.Arrow
		}
		if !arrowFollows {
			return nil, false
		}
		if async {
			p.advance() // consume `async`
		}
		pos := toPos(p.cur.Pos)
		name := p.interner.Intern(p.cur.Literal)
		p.advance() // identifier
		p.advance() // =>
		return p.finishArrowFunction([]ast.Pattern{&ast.IdentifierPattern{Name: name, Pos: pos}}, async, pos), true
	case token.LParen:
		offset := 0
		if async {
			offset = 1
		}
		if !p.parenStartsArrowAt(offset) {
			return nil, false
		}
		if async {
			p.advance() // consume `async`
		}
		pos := toPos(p.cur.Pos)
		params := p.parseParameterList()
		p.expect(token.Arrow)
		return p.finishArrowFunction(params, async, pos), true
	}
	return nil, false
}

// tokenAt returns the token k positions ahead of (and including) the
// current one, reusing the lexer's multi-token Peek buffer.
func (p *Parser) tokenAt(k int) token.Token {
	if k == 0 {
		return p.cur
	}
	return p.lex.Peek(k - 1)
}

// parenStartsArrowAt performs bounded lookahead over a balanced
// parenthesized group starting offset tokens ahead, checking for a
// following `=>` without consuming anything.
func (p *Parser) parenStartsArrowAt(offset int) bool {
	depth := 0
	for k := offset; ; k++ {
		t := p.tokenAt(k)
		switch t.Kind {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				return p.tokenAt(k+1).Kind == token.Arrow
			}
		case token.EOF:
			return false
		}
		if k-offset > 4096 {
			return false // pathological input; let the normal parser report the error
		}
	}
}

func (p *Parser) finishArrowFunction(params []ast.Pattern, async bool, pos ast.Position) ast.Expression {
	savedAsync := p.inAsync
	p.inAsync = async
	defer func() { p.inAsync = savedAsync }()
	if p.at(token.LBrace) {
		body := p.parseFunctionBody()
		return &ast.ArrowFunctionExpression{Params: params, Body: body, Async: async, Pos: pos}
	}
	expr := p.parseAssignment()
	return &ast.ArrowFunctionExpression{Params: params, Expr: expr, Async: async, Pos: pos}
}
