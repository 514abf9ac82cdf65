package compiler

import (
	"github.com/ecmago/ecmago/internal/ast"
	"github.com/ecmago/ecmago/internal/parser/scope"
	"github.com/ecmago/ecmago/internal/sym"
)

// resolver performs the scope analysis spec.md §3.3/§4.3 describes as
// running during parsing. This engine runs it as a standalone pass
// over the finished AST instead of threading it through every parser
// production: the AST already carries every declaration and
// identifier occurrence the analyser needs, and keeping the pass here
// lets the compiler share one scope.Stack walk with bytecode lowering
// (see DESIGN.md, "Scope analysis placement").
type resolver struct {
	interner *sym.Interner
	stack    *scope.Stack
	refs     map[ast.Node]VarRef
	// scopeSize records, for every AST node that opens a nested block,
	// loop, switch, or catch scope, the final binding count of that
	// scope (its Environment's slot count at runtime). Keyed by `any`
	// rather than ast.Node because a single *ast.TryStatement opens up
	// to three scopes (block/catch/finally), keyed by the tryScopeKey
	// wrapper below. The function/global scope's own count is not
	// recorded here: it becomes CodeBlock.NumLocals directly.
	scopeSize map[any]int
}

// tryScopeKey distinguishes the block/catch/finally scopes opened by
// one *ast.TryStatement, since all three share the same node pointer.
type tryScopeKey struct {
	try  *ast.TryStatement
	part int // 0=block, 1=catch, 2=finally
}

func newResolver(interner *sym.Interner) *resolver {
	return &resolver{
		interner:  interner,
		stack:     scope.NewStack(),
		refs:      make(map[ast.Node]VarRef),
		scopeSize: make(map[any]int),
	}
}

// VarRefKind mirrors scope.LocatorKind but replaces the absolute
// compile-time ScopeIndex with Hops: the number of Environment links
// the VM walks up from the use site's runtime environment to reach
// the one holding the binding. Environments are heap objects at
// runtime (internal/vm/environment.go), one per activated scope, so a
// relative hop count is what addressing actually needs.
type VarRefKind uint8

const (
	RefDeclarative VarRefKind = iota
	RefGlobal
	RefIllegalWrite
)

type VarRef struct {
	Kind      VarRefKind
	Hops      int
	BindIndex int
	Name      sym.Sym
}

// resolve looks up name starting from the current top scope and
// records the resulting VarRef for AST node n (an *ast.Identifier or
// *ast.IdentifierPattern occurrence).
func (r *resolver) resolve(n ast.Node, name sym.Sym, isWrite bool) {
	start := r.stack.Top()
	loc := scope.Resolve(start, name, isWrite)
	switch loc.Kind {
	case scope.LocatorDeclarative:
		r.refs[n] = VarRef{Kind: RefDeclarative, Hops: hopsTo(start, loc.ScopeIndex), BindIndex: loc.BindIndex, Name: name}
	case scope.LocatorIllegalWrite:
		r.refs[n] = VarRef{Kind: RefIllegalWrite, Name: name}
	default:
		r.refs[n] = VarRef{Kind: RefGlobal, Name: name}
	}
}

func hopsTo(start *scope.Scope, targetIndex int) int {
	hops := 0
	for s := start; s != nil; s = s.Parent {
		if s.Index == targetIndex {
			return hops
		}
		hops++
	}
	return hops
}

// resolveProgram walks body, hoisting `var`/function declarations
// first (spec.md §4.3's two-pass hoisting rule) and then resolving
// every identifier occurrence against the resulting scope chain.
// GlobalScopeSize returns the top-level (never-popped) scope's final
// binding count, valid once resolveProgram has returned.
func (r *resolver) GlobalScopeSize() int { return r.stack.Top().BindingCount() }

// TopBindings maps every name declared directly in the top-level scope
// to its slot index, so a caller that ran the resulting CodeBlock and
// still holds its top Environment can read a binding back out by name
// — a module's exported let/const/function/class declarations are
// read this way once evaluation completes (package engine, not the
// VM itself, since ordinary script evaluation never needs this).
func (r *resolver) TopBindings() map[sym.Sym]int {
	bindings := r.stack.Top().Bindings()
	m := make(map[sym.Sym]int, len(bindings))
	for _, b := range bindings {
		m[b.Name] = b.Index
	}
	return m
}

func (r *resolver) resolveProgram(body []ast.Statement) {
	r.hoist(body)
	for _, s := range body {
		r.resolveStatement(s)
	}
}

// hoist declares `var` and function bindings before any code in the
// enclosing function/global scope runs, per spec.md §4.3.
func (r *resolver) hoist(body []ast.Statement) {
	for _, s := range body {
		r.hoistStatement(s)
	}
}

func (r *resolver) hoistStatement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.VariableDeclaration:
		if n.Kind == ast.VarVar {
			for _, d := range n.Decls {
				r.hoistPattern(d.Target)
			}
		}
	case *ast.FunctionDeclaration:
		r.stack.Top().Declare(n.Name, true, scope.VarFunction)
	case *ast.IfStatement:
		r.hoistStatement(n.Then)
		if n.Else != nil {
			r.hoistStatement(n.Else)
		}
	case *ast.BlockStatement:
		r.hoist(n.Body)
	case *ast.ForStatement:
		if decl, ok := n.Init.(*ast.VariableDeclaration); ok && decl.Kind == ast.VarVar {
			for _, d := range decl.Decls {
				r.hoistPattern(d.Target)
			}
		}
		r.hoistStatement(n.Body)
	case *ast.ForInOfStatement:
		if n.Decl != nil && n.Decl.Kind == ast.VarVar {
			r.hoistPattern(n.Target)
		}
		r.hoistStatement(n.Body)
	case *ast.WhileStatement:
		r.hoistStatement(n.Body)
	case *ast.DoWhileStatement:
		r.hoistStatement(n.Body)
	case *ast.TryStatement:
		r.hoist(n.Block)
		if n.Catch != nil {
			r.hoist(n.Catch.Body)
		}
		r.hoist(n.Finally)
	case *ast.LabeledStatement:
		r.hoistStatement(n.Body)
	case *ast.SwitchStatement:
		for _, c := range n.Cases {
			r.hoist(c.Body)
		}
	}
}

func (r *resolver) hoistPattern(p ast.Pattern) {
	switch n := p.(type) {
	case *ast.IdentifierPattern:
		r.stack.Top().Declare(n.Name, true, scope.VarVar)
	case *ast.ArrayPattern:
		for _, e := range n.Elements {
			if e != nil {
				r.hoistPattern(e)
			}
		}
		if n.Rest != nil {
			r.hoistPattern(n.Rest)
		}
	case *ast.ObjectPattern:
		for _, prop := range n.Props {
			r.hoistPattern(prop.Value)
		}
		if n.Rest != nil {
			r.hoistPattern(n.Rest)
		}
	case *ast.AssignmentPattern:
		r.hoistPattern(n.Target)
	case *ast.RestPattern:
		r.hoistPattern(n.Target)
	}
}

func (r *resolver) declarePattern(p ast.Pattern, mutable bool, kind scope.VarKind) {
	switch n := p.(type) {
	case *ast.IdentifierPattern:
		if _, exists := r.stack.Top().Lookup(n.Name); !exists {
			r.stack.Top().Declare(n.Name, mutable, kind)
		}
	case *ast.ArrayPattern:
		for _, e := range n.Elements {
			if e != nil {
				r.declarePattern(e, mutable, kind)
			}
		}
		if n.Rest != nil {
			r.declarePattern(n.Rest, mutable, kind)
		}
	case *ast.ObjectPattern:
		for _, prop := range n.Props {
			r.declarePattern(prop.Value, mutable, kind)
		}
		if n.Rest != nil {
			r.declarePattern(n.Rest, mutable, kind)
		}
	case *ast.AssignmentPattern:
		r.declarePattern(n.Target, mutable, kind)
	case *ast.RestPattern:
		r.declarePattern(n.Target, mutable, kind)
	}
}

func (r *resolver) resolveStatement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.ExpressionStatement:
		r.resolveExpr(n.Expr)
	case *ast.BlockStatement:
		r.stack.Push(scope.KindBlock)
		r.hoistLexical(n.Body)
		for _, st := range n.Body {
			r.resolveStatement(st)
		}
		r.scopeSize[ast.Node(n)] = r.stack.Pop().BindingCount()
	case *ast.VariableDeclaration:
		for _, d := range n.Decls {
			if d.Init != nil {
				r.resolveExpr(d.Init)
			}
			kind := scope.VarLet
			if n.Kind == ast.VarConst {
				kind = scope.VarConst
			}
			if n.Kind != ast.VarVar {
				r.declarePattern(d.Target, n.Kind != ast.VarConst, kind)
			}
			r.resolveBindingOccurrences(d.Target)
		}
	case *ast.FunctionDeclaration:
		r.resolve(n, n.Name, true)
		r.resolveFunctionLike(n, n.Params, n.Body)
	case *ast.ClassDeclaration:
		r.resolveExpr(n.Expr)
	case *ast.IfStatement:
		r.resolveExpr(n.Test)
		r.resolveStatement(n.Then)
		if n.Else != nil {
			r.resolveStatement(n.Else)
		}
	case *ast.ForStatement:
		r.stack.Push(scope.KindBlock)
		if decl, ok := n.Init.(*ast.VariableDeclaration); ok {
			r.resolveStatement(decl)
		} else if e, ok := n.Init.(ast.Expression); ok {
			r.resolveExpr(e)
		}
		if n.Test != nil {
			r.resolveExpr(n.Test)
		}
		if n.Update != nil {
			r.resolveExpr(n.Update)
		}
		r.resolveStatement(n.Body)
		r.scopeSize[ast.Node(n)] = r.stack.Pop().BindingCount()
	case *ast.ForInOfStatement:
		r.stack.Push(scope.KindBlock)
		if n.Decl != nil && n.Decl.Kind != ast.VarVar {
			kind := scope.VarLet
			if n.Decl.Kind == ast.VarConst {
				kind = scope.VarConst
			}
			r.declarePattern(n.Target, n.Decl.Kind != ast.VarConst, kind)
		}
		r.resolveBindingOccurrences(n.Target)
		r.resolveExpr(n.Right)
		r.resolveStatement(n.Body)
		r.scopeSize[ast.Node(n)] = r.stack.Pop().BindingCount()
	case *ast.WhileStatement:
		r.resolveExpr(n.Test)
		r.resolveStatement(n.Body)
	case *ast.DoWhileStatement:
		r.resolveStatement(n.Body)
		r.resolveExpr(n.Test)
	case *ast.ReturnStatement:
		if n.Arg != nil {
			r.resolveExpr(n.Arg)
		}
	case *ast.ThrowStatement:
		r.resolveExpr(n.Arg)
	case *ast.TryStatement:
		r.stack.Push(scope.KindBlock)
		for _, st := range n.Block {
			r.resolveStatement(st)
		}
		r.scopeSize[tryScopeKey{n, 0}] = r.stack.Pop().BindingCount()
		if n.Catch != nil {
			r.stack.Push(scope.KindCatch)
			if n.Catch.Param != nil {
				r.declarePattern(n.Catch.Param, true, scope.VarLet)
				r.resolveBindingOccurrences(n.Catch.Param)
			}
			for _, st := range n.Catch.Body {
				r.resolveStatement(st)
			}
			r.scopeSize[tryScopeKey{n, 1}] = r.stack.Pop().BindingCount()
		}
		if n.Finally != nil {
			r.stack.Push(scope.KindBlock)
			for _, st := range n.Finally {
				r.resolveStatement(st)
			}
			r.scopeSize[tryScopeKey{n, 2}] = r.stack.Pop().BindingCount()
		}
	case *ast.SwitchStatement:
		r.resolveExpr(n.Disc)
		r.stack.Push(scope.KindBlock)
		for _, c := range n.Cases {
			if c.Test != nil {
				r.resolveExpr(c.Test)
			}
			for _, st := range c.Body {
				r.resolveStatement(st)
			}
		}
		r.scopeSize[ast.Node(n)] = r.stack.Pop().BindingCount()
	case *ast.LabeledStatement:
		r.resolveStatement(n.Body)
	}
}

// hoistLexical declares block-scoped function declarations nested
// directly in a block (the "Annex B" web-compatible form is not
// modelled; nested function declarations behave as `let`).
func (r *resolver) hoistLexical(body []ast.Statement) {
	for _, s := range body {
		if fn, ok := s.(*ast.FunctionDeclaration); ok {
			r.stack.Top().Declare(fn.Name, true, scope.VarFunction)
		}
	}
}

// resolveBindingOccurrences records a Declarative locator for every
// IdentifierPattern in p so the compiler knows which local slot each
// destructured name landed in.
func (r *resolver) resolveBindingOccurrences(p ast.Pattern) {
	switch n := p.(type) {
	case *ast.IdentifierPattern:
		r.resolve(n, n.Name, false)
	case *ast.ArrayPattern:
		for _, e := range n.Elements {
			if e != nil {
				r.resolveBindingOccurrences(e)
			}
		}
		if n.Rest != nil {
			r.resolveBindingOccurrences(n.Rest)
		}
	case *ast.ObjectPattern:
		for _, prop := range n.Props {
			if prop.Computed != nil {
				r.resolveExpr(prop.Computed)
			}
			if prop.Default != nil {
				r.resolveExpr(prop.Default)
			}
			r.resolveBindingOccurrences(prop.Value)
		}
		if n.Rest != nil {
			r.resolveBindingOccurrences(n.Rest)
		}
	case *ast.AssignmentPattern:
		if n.Default != nil {
			r.resolveExpr(n.Default)
		}
		r.resolveBindingOccurrences(n.Target)
	case *ast.RestPattern:
		r.resolveBindingOccurrences(n.Target)
	}
}

// resolveFunctionLike resolves one function body's scope, recording
// the function's own top-level binding count under key (the function's
// AST node) so the compiler can set CodeBlock.NumLocals from it.
func (r *resolver) resolveFunctionLike(key ast.Node, params []ast.Pattern, body []ast.Statement) {
	r.stack.Push(scope.KindFunction)
	for _, p := range params {
		r.declarePattern(p, true, scope.VarParameter)
		r.resolveBindingOccurrences(p)
	}
	r.hoist(body)
	r.hoistLexical(body)
	for _, s := range body {
		r.resolveStatement(s)
	}
	r.scopeSize[key] = r.stack.Pop().BindingCount()
}

func (r *resolver) resolveExpr(e ast.Expression) {
	switch n := e.(type) {
	case *ast.Identifier:
		r.resolve(n, n.Name, false)
	case *ast.BinaryExpression:
		r.resolveExpr(n.Left)
		r.resolveExpr(n.Right)
	case *ast.LogicalExpression:
		r.resolveExpr(n.Left)
		r.resolveExpr(n.Right)
	case *ast.UnaryExpression:
		r.resolveExpr(n.Arg)
	case *ast.UpdateExpression:
		r.resolveAssignTarget(n.Arg)
	case *ast.AssignmentExpression:
		r.resolveExpr(n.Value)
		r.resolveAssignTarget(n.Target)
	case *ast.ConditionalExpression:
		r.resolveExpr(n.Test)
		r.resolveExpr(n.Then)
		r.resolveExpr(n.Else)
	case *ast.SequenceExpression:
		for _, e := range n.Exprs {
			r.resolveExpr(e)
		}
	case *ast.CallExpression:
		r.resolveExpr(n.Callee)
		for _, a := range n.Args {
			r.resolveExpr(a)
		}
	case *ast.NewExpression:
		r.resolveExpr(n.Callee)
		for _, a := range n.Args {
			r.resolveExpr(a)
		}
	case *ast.MemberExpression:
		r.resolveExpr(n.Object)
		if n.Computed {
			r.resolveExpr(n.Property)
		}
	case *ast.PrivateMemberExpression:
		r.resolveExpr(n.Object)
	case *ast.ArrayLiteral:
		for _, e := range n.Elements {
			if e != nil {
				r.resolveExpr(e)
			}
		}
	case *ast.SpreadElement:
		r.resolveExpr(n.Arg)
	case *ast.ObjectLiteral:
		for _, p := range n.Props {
			if p.Computed != nil {
				r.resolveExpr(p.Computed)
			}
			r.resolveExpr(p.Value)
		}
	case *ast.FunctionExpression:
		r.resolveFunctionLike(n, n.Params, n.Body)
	case *ast.ArrowFunctionExpression:
		r.stack.Push(scope.KindFunction)
		for _, p := range n.Params {
			r.declarePattern(p, true, scope.VarParameter)
			r.resolveBindingOccurrences(p)
		}
		if n.Expr != nil {
			r.resolveExpr(n.Expr)
		} else {
			r.hoist(n.Body)
			r.hoistLexical(n.Body)
			for _, s := range n.Body {
				r.resolveStatement(s)
			}
		}
		r.scopeSize[ast.Node(n)] = r.stack.Pop().BindingCount()
	case *ast.ClassExpression:
		r.resolveClass(n)
	case *ast.YieldExpression:
		if n.Arg != nil {
			r.resolveExpr(n.Arg)
		}
	case *ast.AwaitExpression:
		r.resolveExpr(n.Arg)
	case *ast.TemplateLiteral:
		for _, e := range n.Expressions {
			r.resolveExpr(e)
		}
	case *ast.TaggedTemplateExpression:
		r.resolveExpr(n.Tag)
		for _, e := range n.Template.Expressions {
			r.resolveExpr(e)
		}
	}
}

func (r *resolver) resolveClass(n *ast.ClassExpression) {
	if n.SuperClass != nil {
		r.resolveExpr(n.SuperClass)
	}
	for i := range n.Members {
		m := &n.Members[i]
		if m.Computed != nil {
			r.resolveExpr(m.Computed)
		}
		if fn, ok := m.Value.(*ast.FunctionExpression); ok {
			r.resolveFunctionLike(fn, fn.Params, fn.Body)
		} else if m.Value != nil {
			r.resolveExpr(m.Value)
		}
	}
	r.stack.Push(scope.KindBlock)
	for _, s := range n.StaticInit {
		r.resolveStatement(s)
	}
	r.stack.Pop()
}

// resolveAssignTarget resolves the write-occurrence locator for an
// assignment/update target, which may be a plain Expression
// (Identifier, MemberExpression) or a destructuring Pattern produced
// by internal/parser's cover-grammar reinterpretation.
func (r *resolver) resolveAssignTarget(target ast.Node) {
	switch n := target.(type) {
	case *ast.Identifier:
		r.resolve(n, n.Name, true)
	case *ast.MemberExpression:
		r.resolveExpr(n.Object)
		if n.Computed {
			r.resolveExpr(n.Property)
		}
	case *ast.ArrayPattern:
		for _, e := range n.Elements {
			if e != nil {
				r.resolveAssignTarget(e)
			}
		}
		if n.Rest != nil {
			r.resolveAssignTarget(n.Rest)
		}
	case *ast.ObjectPattern:
		for _, prop := range n.Props {
			r.resolveAssignTarget(prop.Value)
		}
		if n.Rest != nil {
			r.resolveAssignTarget(n.Rest)
		}
	case *ast.AssignmentPattern:
		if n.Default != nil {
			r.resolveExpr(n.Default)
		}
		r.resolveAssignTarget(n.Target)
	case *ast.IdentifierPattern:
		r.resolve(n, n.Name, true)
	case *ast.RestPattern:
		r.resolveAssignTarget(n.Target)
	}
}
