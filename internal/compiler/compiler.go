package compiler

import (
	"github.com/ecmago/ecmago/internal/ast"
	"github.com/ecmago/ecmago/internal/jsstring"
	"github.com/ecmago/ecmago/internal/sym"
	"github.com/ecmago/ecmago/internal/value"
)

// fnCompiler lowers one function body (or the top-level program) into
// a *CodeBlock. A fresh fnCompiler is created per function; nested
// functions recurse into their own fnCompiler sharing the resolver's
// refs table computed up front over the whole AST.
type fnCompiler struct {
	refs         map[ast.Node]VarRef
	scopeSize    map[any]int
	interner     *sym.Interner
	cb           *CodeBlock
	loops        []loopCtx
	pendingLabel sym.Sym
	scopeDepth   int // count of currently-open OpPushScope calls, for break/continue unwinding
}

// takeLabel consumes and clears any label a LabeledStatement attached
// to the loop about to be pushed, so nested `outer: for (...)` lets
// break/continue target it by name.
func (fc *fnCompiler) takeLabel() sym.Sym {
	l := fc.pendingLabel
	fc.pendingLabel = 0
	return l
}

type loopCtx struct {
	label         sym.Sym
	continueJump  int // instruction index the continue patches jump to (filled once known)
	breakPatches  []int
	isSwitch      bool
	breakDepth    int // scope depth to unwind to on break (outside the whole construct)
	continueDepth int // scope depth to unwind to on continue (the loop's own wrapper scope, if any)
}

// Compile lowers a whole script into its top-level CodeBlock. Modules
// are compiled the same way; import/export bindings are resolved by
// the engine package against already-instantiated module records
// rather than inside this compiler.
func Compile(body []ast.Statement, interner *sym.Interner) *CodeBlock {
	res := newResolver(interner)
	res.resolveProgram(body)
	fc := &fnCompiler{
		refs:      res.refs,
		scopeSize: res.scopeSize,
		interner:  interner,
		cb:        &CodeBlock{Name: "<script>", NumLocals: res.GlobalScopeSize(), TopBindings: res.TopBindings()},
	}
	// A final top-level expression statement is left on the stack and
	// returned as the script's completion value.
	if last := len(body) - 1; last >= 0 {
		if es, ok := body[last].(*ast.ExpressionStatement); ok {
			fc.compileBody(body[:last])
			fc.compileExpr(es.Expr)
			fc.emit(OpReturn, 0, 0)
			return fc.cb
		}
	}
	fc.compileBody(body)
	fc.emit(OpLoadUndef, 0, 0)
	fc.emit(OpReturn, 0, 0)
	return fc.cb
}

func (fc *fnCompiler) emit(op Op, operand int32, name uint32) int {
	fc.cb.Instructions = append(fc.cb.Instructions, Instruction{Op: op, Operand: operand, Name: name})
	return len(fc.cb.Instructions) - 1
}

func (fc *fnCompiler) patchJump(idx int) {
	fc.cb.Instructions[idx].Operand = int32(len(fc.cb.Instructions))
}

func (fc *fnCompiler) constant(v value.Value) int32 {
	fc.cb.Constants = append(fc.cb.Constants, v)
	return int32(len(fc.cb.Constants) - 1)
}

func (fc *fnCompiler) regexpConst(pattern, flags string) int32 {
	fc.cb.Regexps = append(fc.cb.Regexps, value.CompileRegExp(pattern, flags))
	return int32(len(fc.cb.Regexps) - 1)
}

func (fc *fnCompiler) compileBody(body []ast.Statement) {
	for _, s := range body {
		fc.compileStmt(s)
	}
}

// pushScope/popScope bracket a nested block/loop/switch/catch scope
// with an Environment push/pop, mirroring the resolver's compile-time
// scope.Stack one-for-one so VarRef.Hops addresses the right runtime
// frame (spec.md §3.3, §4.6). key must be the exact value the resolver
// used to record that scope's size.
func (fc *fnCompiler) pushScope(key any) {
	fc.emit(OpPushScope, int32(fc.scopeSize[key]), 0)
	fc.scopeDepth++
}

func (fc *fnCompiler) popScope() {
	fc.emit(OpPopScope, 1, 0)
	fc.scopeDepth--
}

// unwindScopes emits however many OpPopScope instructions are needed
// for a non-local jump (break/continue) from the current scope depth
// down to target, without touching fc.scopeDepth itself: the jump
// leaves the normal compiled control flow, whose own matching popScope
// calls still run along the fallthrough path.
func (fc *fnCompiler) unwindScopes(target int) {
	for d := fc.scopeDepth; d > target; d-- {
		fc.emit(OpPopScope, 1, 0)
	}
}

func (fc *fnCompiler) compileStmt(s ast.Statement) {
	switch n := s.(type) {
	case *ast.ExpressionStatement:
		fc.compileExpr(n.Expr)
		fc.emit(OpPop, 0, 0)
	case *ast.EmptyStatement, *ast.DebuggerStatement:
		// no-op
	case *ast.BlockStatement:
		fc.pushScope(ast.Node(n))
		fc.compileBody(n.Body)
		fc.popScope()
	case *ast.VariableDeclaration:
		for _, d := range n.Decls {
			if d.Init != nil {
				fc.compileExpr(d.Init)
			} else {
				fc.emit(OpLoadUndef, 0, 0)
			}
			fc.compileBindingAssign(d.Target)
		}
	case *ast.FunctionDeclaration:
		fc.compileFunctionValue(ast.Node(n), n.Name, n.Params, n.Body, n.Generator, n.Async, false)
		fc.storeIdentByRef(n, n.Name)
	case *ast.ClassDeclaration:
		fc.compileExpr(n.Expr)
		fc.storeIdentByRef(n, n.Name)
	case *ast.IfStatement:
		fc.compileExpr(n.Test)
		jf := fc.emit(OpJumpIfFalse, 0, 0)
		fc.compileStmt(n.Then)
		if n.Else != nil {
			jend := fc.emit(OpJump, 0, 0)
			fc.patchJump(jf)
			fc.compileStmt(n.Else)
			fc.patchJump(jend)
		} else {
			fc.patchJump(jf)
		}
	case *ast.WhileStatement:
		fc.compileWhile(n)
	case *ast.DoWhileStatement:
		fc.compileDoWhile(n)
	case *ast.ForStatement:
		fc.compileFor(n)
	case *ast.ForInOfStatement:
		fc.compileForInOf(n)
	case *ast.ReturnStatement:
		if n.Arg != nil {
			fc.compileExpr(n.Arg)
		} else {
			fc.emit(OpLoadUndef, 0, 0)
		}
		fc.emit(OpReturn, 0, 0)
	case *ast.BreakStatement:
		fc.compileBreak(n)
	case *ast.ContinueStatement:
		fc.compileContinue(n)
	case *ast.ThrowStatement:
		fc.compileExpr(n.Arg)
		fc.emit(OpThrow, 0, 0)
	case *ast.TryStatement:
		fc.compileTry(n)
	case *ast.SwitchStatement:
		fc.compileSwitch(n)
	case *ast.LabeledStatement:
		fc.compileLabeled(n)
	}
}

func (fc *fnCompiler) compileWhile(n *ast.WhileStatement) {
	start := len(fc.cb.Instructions)
	fc.compileExpr(n.Test)
	jf := fc.emit(OpJumpIfFalse, 0, 0)
	depth := fc.scopeDepth
	fc.loops = append(fc.loops, loopCtx{continueJump: start, label: fc.takeLabel(), breakDepth: depth, continueDepth: depth})
	fc.compileStmt(n.Body)
	fc.emit(OpJump, int32(start), 0)
	fc.patchJump(jf)
	fc.finishLoop()
}

func (fc *fnCompiler) compileDoWhile(n *ast.DoWhileStatement) {
	start := len(fc.cb.Instructions)
	depth := fc.scopeDepth
	fc.loops = append(fc.loops, loopCtx{continueJump: -1, label: fc.takeLabel(), breakDepth: depth, continueDepth: depth})
	fc.compileStmt(n.Body)
	contTarget := len(fc.cb.Instructions)
	fc.loops[len(fc.loops)-1].continueJump = contTarget
	fc.compileExpr(n.Test)
	fc.emit(OpJumpIfTrue, int32(start), 0)
	fc.finishLoop()
}

func (fc *fnCompiler) compileFor(n *ast.ForStatement) {
	breakDepth := fc.scopeDepth
	fc.pushScope(ast.Node(n))
	if decl, ok := n.Init.(*ast.VariableDeclaration); ok {
		fc.compileStmt(decl)
	} else if e, ok := n.Init.(ast.Expression); ok {
		fc.compileExpr(e)
		fc.emit(OpPop, 0, 0)
	}
	start := len(fc.cb.Instructions)
	var jf int
	hasTest := n.Test != nil
	if hasTest {
		fc.compileExpr(n.Test)
		jf = fc.emit(OpJumpIfFalse, 0, 0)
	}
	fc.loops = append(fc.loops, loopCtx{continueJump: -1, label: fc.takeLabel(), breakDepth: breakDepth, continueDepth: fc.scopeDepth})
	fc.compileStmt(n.Body)
	contTarget := len(fc.cb.Instructions)
	fc.loops[len(fc.loops)-1].continueJump = contTarget
	if n.Update != nil {
		fc.compileExpr(n.Update)
		fc.emit(OpPop, 0, 0)
	}
	fc.emit(OpJump, int32(start), 0)
	if hasTest {
		fc.patchJump(jf)
	}
	fc.popScope()
	fc.finishLoop()
}

// compileForInOf lowers both for-in and for-of to the same iterator
// protocol opcodes; for-in's iterator yields an object's enumerable
// key strings rather than its values, a distinction internal/vm's
// OpGetIterator implementation makes based on the source operand kind
// carried in the bytecode rather than needing two opcode families.
func (fc *fnCompiler) compileForInOf(n *ast.ForInOfStatement) {
	breakDepth := fc.scopeDepth
	fc.compileExpr(n.Right)
	fc.emit(OpGetIterator, int32(n.Kind), 0)
	fc.pushScope(ast.Node(n))
	start := len(fc.cb.Instructions)
	fc.emit(OpIteratorNext, 0, 0)
	jf := fc.emit(OpJumpIfTrue, 0, 0) // top of stack after Next is the `done` flag
	fc.compileBindingAssign(n.Target)
	fc.loops = append(fc.loops, loopCtx{continueJump: start, label: fc.takeLabel(), breakDepth: breakDepth, continueDepth: fc.scopeDepth})
	fc.compileStmt(n.Body)
	fc.emit(OpJump, int32(start), 0)
	fc.patchJump(jf)
	fc.emit(OpPop, 0, 0) // drop the exhausted iterator's final value
	fc.popScope()
	fc.finishLoop()
	fc.emit(OpPop, 0, 0) // drop the iterator; a break lands here too
}

// compileYieldDelegate lowers `yield* expr` to a drive loop over expr's
// iterator, re-yielding each of its values in turn; the final iterator
// result's value becomes the `yield*` expression's own value. A sent-in
// value from the enclosing generator's `.next(v)` is not forwarded into
// the delegate's own `next(v)` (it is discarded and the delegate is
// re-driven with a plain `next()` each time) — forwarding would need the
// delegate iterator's own `next`/`throw`/`return` methods reachable from
// bytecode, which the native iterator protocol this compiler targets
// does not expose.
func (fc *fnCompiler) compileYieldDelegate(n *ast.YieldExpression) {
	fc.compileExpr(n.Arg)
	fc.emit(OpGetIterator, int32(ast.ForOf), 0)
	start := len(fc.cb.Instructions)
	fc.emit(OpIteratorNext, 0, 0)
	jf := fc.emit(OpJumpIfTrue, 0, 0) // done -> stack: [iter, value]
	fc.emit(OpYield, 0, 0)            // pops value, suspends
	fc.emit(OpPop, 0, 0)              // discard the resumed value, restoring stack to [iter]
	fc.emit(OpJump, int32(start), 0)
	fc.patchJump(jf)
	fc.emit(OpSwap, 0, 0)
	fc.emit(OpPop, 0, 0) // drop the iterator, leaving the final value
}

func (fc *fnCompiler) finishLoop() {
	top := fc.loops[len(fc.loops)-1]
	fc.loops = fc.loops[:len(fc.loops)-1]
	for _, idx := range top.breakPatches {
		fc.patchJump(idx)
	}
}

func (fc *fnCompiler) compileBreak(n *ast.BreakStatement) {
	for i := len(fc.loops) - 1; i >= 0; i-- {
		if n.Label == 0 || fc.loops[i].label == n.Label {
			fc.unwindScopes(fc.loops[i].breakDepth)
			idx := fc.emit(OpJump, 0, 0)
			fc.loops[i].breakPatches = append(fc.loops[i].breakPatches, idx)
			return
		}
	}
}

func (fc *fnCompiler) compileContinue(n *ast.ContinueStatement) {
	for i := len(fc.loops) - 1; i >= 0; i-- {
		if fc.loops[i].isSwitch {
			continue
		}
		if n.Label == 0 || fc.loops[i].label == n.Label {
			fc.unwindScopes(fc.loops[i].continueDepth)
			fc.emit(OpJump, int32(fc.loops[i].continueJump), 0)
			return
		}
	}
}

func (fc *fnCompiler) compileLabeled(n *ast.LabeledStatement) {
	switch n.Body.(type) {
	case *ast.WhileStatement, *ast.DoWhileStatement, *ast.ForStatement, *ast.ForInOfStatement:
		fc.pendingLabel = n.Label
		fc.compileStmt(n.Body)
	default:
		fc.compileStmt(n.Body)
	}
}

func (fc *fnCompiler) compileTry(n *ast.TryStatement) {
	outerDepth := fc.scopeDepth
	start := len(fc.cb.Instructions)
	fc.pushScope(tryScopeKey{n, 0})
	fc.compileBody(n.Block)
	fc.popScope()
	jend := fc.emit(OpJump, 0, 0)
	end := len(fc.cb.Instructions)
	if n.Catch != nil {
		catchTarget := len(fc.cb.Instructions)
		fc.cb.Handlers = append(fc.cb.Handlers, Handler{Start: start, End: end, Target: catchTarget, EnvDepth: outerDepth, Kind: HandlerCatch})
		fc.pushScope(tryScopeKey{n, 1})
		if n.Catch.Param != nil {
			fc.compileBindingAssign(n.Catch.Param)
		} else {
			fc.emit(OpPop, 0, 0)
		}
		fc.compileBody(n.Catch.Body)
		fc.popScope()
	}
	fc.patchJump(jend)
	if n.Finally != nil {
		fc.pushScope(tryScopeKey{n, 2})
		fc.compileBody(n.Finally)
		fc.popScope()
	}
}

func (fc *fnCompiler) compileSwitch(n *ast.SwitchStatement) {
	breakDepth := fc.scopeDepth
	fc.compileExpr(n.Disc)
	fc.pushScope(ast.Node(n))
	var caseJumps []int
	defaultIdx := -1
	for _, c := range n.Cases {
		if c.Test == nil {
			defaultIdx = len(caseJumps)
			caseJumps = append(caseJumps, -1)
			continue
		}
		fc.emit(OpDup, 0, 0)
		fc.compileExpr(c.Test)
		fc.emit(OpStrictEq, 0, 0)
		caseJumps = append(caseJumps, fc.emit(OpJumpIfTrue, 0, 0))
	}
	fallthroughJump := fc.emit(OpJump, 0, 0)
	fc.loops = append(fc.loops, loopCtx{isSwitch: true, breakDepth: breakDepth})
	bodyStarts := make([]int, len(n.Cases))
	for i, c := range n.Cases {
		bodyStarts[i] = len(fc.cb.Instructions)
		fc.compileBody(c.Body)
	}
	end := len(fc.cb.Instructions)
	for i, j := range caseJumps {
		if j >= 0 {
			fc.cb.Instructions[j].Operand = int32(bodyStarts[i])
		}
	}
	if defaultIdx >= 0 {
		fc.cb.Instructions[fallthroughJump].Operand = int32(bodyStarts[defaultIdx])
	} else {
		fc.cb.Instructions[fallthroughJump].Operand = int32(end)
	}
	fc.popScope()
	fc.emit(OpPop, 0, 0) // discard discriminant
	fc.finishLoop()
}

// storeIdentByRef stores the current top-of-stack value into the
// binding that name n resolved to (used for declarations whose target
// is a bare identifier rather than a full pattern).
func (fc *fnCompiler) storeIdentByRef(n ast.Node, name sym.Sym) {
	ref, ok := fc.refs[n]
	if !ok {
		fc.emit(OpSetGlobal, 0, uint32(name))
		return
	}
	fc.emitStoreRef(ref)
}

func (fc *fnCompiler) emitStoreRef(ref VarRef) {
	switch ref.Kind {
	case RefDeclarative:
		fc.emit(OpSetLocal, int32(ref.BindIndex), uint32(ref.Hops))
	default:
		fc.emit(OpSetGlobal, 0, uint32(ref.Name))
	}
}

func (fc *fnCompiler) emitLoadRef(ref VarRef) {
	switch ref.Kind {
	case RefDeclarative:
		fc.emit(OpGetLocal, int32(ref.BindIndex), uint32(ref.Hops))
	default:
		fc.emit(OpGetGlobal, 0, uint32(ref.Name))
	}
}

// compileBindingAssign lowers storing the current top-of-stack value
// into a (possibly destructuring) binding target.
func (fc *fnCompiler) compileBindingAssign(p ast.Pattern) {
	switch n := p.(type) {
	case *ast.IdentifierPattern:
		if ref, ok := fc.refs[n]; ok {
			fc.emitStoreRef(ref)
		} else {
			fc.emit(OpSetGlobal, 0, uint32(n.Name))
		}
	case *ast.AssignmentPattern:
		fc.emit(OpDup, 0, 0)
		fc.emit(OpLoadUndef, 0, 0)
		fc.emit(OpStrictEq, 0, 0)
		jf := fc.emit(OpJumpIfFalse, 0, 0)
		fc.emit(OpPop, 0, 0)
		fc.compileExpr(n.Default)
		fc.patchJump(jf)
		fc.compileBindingAssign(n.Target)
	case *ast.ArrayPattern:
		fc.emit(OpGetIterator, int32(ast.ForOf), 0)
		for _, el := range n.Elements {
			fc.emit(OpIteratorNext, 0, 0)
			fc.emit(OpPop, 0, 0) // drop `done`; elisions and short iterables read undefined past exhaustion
			if el != nil {
				fc.compileBindingAssign(el)
			} else {
				fc.emit(OpPop, 0, 0)
			}
		}
		if n.Rest != nil {
			// Drain the rest of the iterator into one spread slot (this
			// pops the iterator), then flatten it into the rest array.
			fc.emit(OpAppendElement, -1, 0)
			fc.emit(OpNewArrayFromElems, 1, 0)
			fc.compileBindingAssign(n.Rest)
		} else {
			fc.emit(OpPop, 0, 0) // drop the iterator
		}
	case *ast.ObjectPattern:
		for _, prop := range n.Props {
			fc.emit(OpDup, 0, 0)
			if prop.Computed != nil {
				fc.compileExpr(prop.Computed)
				fc.emit(OpGetPropComp, 0, 0)
			} else {
				fc.emit(OpGetProp, 0, uint32(prop.Key))
			}
			if prop.Default != nil {
				fc.emit(OpDup, 0, 0)
				fc.emit(OpLoadUndef, 0, 0)
				fc.emit(OpStrictEq, 0, 0)
				jf := fc.emit(OpJumpIfFalse, 0, 0)
				fc.emit(OpPop, 0, 0)
				fc.compileExpr(prop.Default)
				fc.patchJump(jf)
			}
			fc.compileBindingAssign(prop.Value)
		}
		fc.emit(OpPop, 0, 0) // drop the source object
	case memberPatternCompiler:
		fc.compileAssignToExpr(n.MemberTarget())
	}
}

// memberPatternCompiler is satisfied by internal/parser's
// memberPatternWrapper (a member-expression assignment target reached
// through destructuring); the compiler recognises it structurally
// since it cannot import the parser package's unexported type.
type memberPatternCompiler interface {
	ast.Pattern
	MemberTarget() ast.Expression
}

func (fc *fnCompiler) compileAssignToExpr(e ast.Expression) {
	switch n := e.(type) {
	case *ast.Identifier:
		if ref, ok := fc.refs[n]; ok {
			fc.emitStoreRef(ref)
		} else {
			fc.emit(OpSetGlobal, 0, uint32(n.Name))
		}
	case *ast.MemberExpression:
		fc.compileExpr(n.Object)
		fc.emit(OpSwap, 0, 0)
		if n.Computed {
			fc.compileExpr(n.Property)
			fc.emit(OpSetPropComp, 0, 0)
		} else {
			key := n.Property.(*ast.Identifier).Name
			fc.emit(OpSetProp, 0, uint32(key))
		}
		// OpSetProp/OpSetPropComp only consume the stored value, leaving
		// the target object underneath (the shape an object literal's
		// per-property install wants, reusing the same object across
		// properties); an assignment expression has no further use for
		// that object, so drop it explicitly here.
		fc.emit(OpPop, 0, 0)
	case *ast.PrivateMemberExpression:
		fc.compileExpr(n.Object)
		fc.emit(OpSwap, 0, 0)
		fc.emit(OpSetPrivate, 0, uint32(n.Name))
		fc.emit(OpPop, 0, 0)
	}
}

var binOpcodes = map[ast.BinaryOp]Op{
	ast.BinAdd: OpAdd, ast.BinSub: OpSub, ast.BinMul: OpMul, ast.BinDiv: OpDiv,
	ast.BinMod: OpMod, ast.BinExp: OpExp,
	ast.BinLt: OpLt, ast.BinGt: OpGt, ast.BinLtEq: OpLtEq, ast.BinGtEq: OpGtEq,
	ast.BinEqEq: OpEq, ast.BinNotEq: OpNotEq, ast.BinEqEqEq: OpStrictEq, ast.BinNotEqEq: OpStrictNotEq,
	ast.BinBitAnd: OpBitAnd, ast.BinBitOr: OpBitOr, ast.BinBitXor: OpBitXor,
	ast.BinShl: OpShl, ast.BinShr: OpShr, ast.BinUShr: OpUShr,
	ast.BinInstanceof: OpInstanceOf, ast.BinIn: OpIn,
}

// compoundBinOp maps a compound assignment operator to the binary op
// applied before the store; AssignEq, AssignAnd/Or/Coalesce (the
// short-circuiting forms) are handled separately by their callers.
var compoundBinOp = map[ast.AssignOp]Op{
	ast.AssignAdd: OpAdd, ast.AssignSub: OpSub, ast.AssignMul: OpMul, ast.AssignDiv: OpDiv,
	ast.AssignMod: OpMod, ast.AssignExp: OpExp,
	ast.AssignBitAnd: OpBitAnd, ast.AssignBitOr: OpBitOr, ast.AssignBitXor: OpBitXor,
	ast.AssignShl: OpShl, ast.AssignShr: OpShr, ast.AssignUShr: OpUShr,
}

func (fc *fnCompiler) compileExpr(e ast.Expression) {
	switch n := e.(type) {
	case *ast.Identifier:
		if ref, ok := fc.refs[n]; ok {
			fc.emitLoadRef(ref)
		} else {
			fc.emit(OpGetGlobal, 0, uint32(n.Name))
		}
	case *ast.NumberLiteral:
		fc.emit(OpLoadConst, fc.constant(value.Float64(n.Value)), 0)
	case *ast.BigIntLiteral:
		bi, _ := value.NewBigIntFromString(n.Text)
		fc.emit(OpLoadConst, fc.constant(value.BigIntVal(bi)), 0)
	case *ast.StringLiteral:
		fc.emit(OpLoadConst, fc.constant(value.StringVal(jsstring.New(n.Value))), 0)
	case *ast.BoolLiteral:
		if n.Value {
			fc.emit(OpLoadTrue, 0, 0)
		} else {
			fc.emit(OpLoadFalse, 0, 0)
		}
	case *ast.NullLiteral:
		fc.emit(OpLoadNull, 0, 0)
	case *ast.RegExpLiteral:
		fc.emit(OpMakeRegExp, fc.regexpConst(n.Pattern, n.Flags), 0)
	case *ast.ThisExpression:
		fc.emit(OpGetLocal, -1, 0) // slot -1 is the VM's reserved `this` binding in every frame
	case *ast.TemplateLiteral:
		fc.compileTemplate(n)
	case *ast.TaggedTemplateExpression:
		fc.compileExpr(n.Tag)
		fc.compileTemplate(n.Template)
		fc.emit(OpCall, 1, 0)
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			if el == nil {
				fc.emit(OpLoadUndef, 0, 0)
				continue
			}
			if spread, ok := el.(*ast.SpreadElement); ok {
				fc.compileExpr(spread.Arg)
				fc.emit(OpGetIterator, int32(ast.ForOf), 0)
				// The VM drains the iterator and appends each value via
				// AppendElement; compiled as a single marker op rather
				// than unrolled, since the element count is unknown at
				// compile time.
				fc.emit(OpAppendElement, -1, 0)
				continue
			}
			fc.compileExpr(el)
		}
		fc.emit(OpNewArrayFromElems, int32(len(n.Elements)), 0)
	case *ast.SpreadElement:
		fc.compileExpr(n.Arg)
	case *ast.ObjectLiteral:
		fc.emit(OpNewObject, 0, 0)
		for _, p := range n.Props {
			switch p.Kind {
			case ast.PropSpread:
				fc.compileExpr(p.Value)
				fc.emit(OpAppendElement, -2, 0) // merge own enumerable props of p.Value into the object below
			case ast.PropGet, ast.PropSet:
				fc.compileExpr(p.Value)
				// OpSetProp's Operand distinguishes a data-property
				// store (0) from installing the popped function as a
				// getter (1) or setter (2) on the target object.
				kind := int32(1)
				if p.Kind == ast.PropSet {
					kind = 2
				}
				fc.emit(OpSetProp, kind, uint32(p.Key))
			default:
				if p.Computed != nil {
					fc.compileExpr(p.Computed)
					fc.compileExpr(p.Value)
					fc.emit(OpSwap, 0, 0) // OpSetPropComp takes the key on top of the value
					fc.emit(OpSetPropComp, 0, 0)
				} else {
					fc.compileExpr(p.Value)
					fc.emit(OpSetProp, 0, uint32(p.Key))
				}
			}
		}
	case *ast.FunctionExpression:
		fc.compileFunctionValue(ast.Node(n), n.Name, n.Params, n.Body, n.Generator, n.Async, false)
	case *ast.ArrowFunctionExpression:
		fc.compileArrowFunction(n)
	case *ast.ClassExpression:
		fc.compileClass(n)
	case *ast.UnaryExpression:
		fc.compileUnary(n)
	case *ast.UpdateExpression:
		fc.compileUpdate(n)
	case *ast.BinaryExpression:
		fc.compileExpr(n.Left)
		fc.compileExpr(n.Right)
		fc.emit(binOpcodes[n.Op], 0, 0)
	case *ast.LogicalExpression:
		fc.compileLogical(n)
	case *ast.ConditionalExpression:
		fc.compileExpr(n.Test)
		jf := fc.emit(OpJumpIfFalse, 0, 0)
		fc.compileExpr(n.Then)
		jend := fc.emit(OpJump, 0, 0)
		fc.patchJump(jf)
		fc.compileExpr(n.Else)
		fc.patchJump(jend)
	case *ast.SequenceExpression:
		for i, sub := range n.Exprs {
			if i > 0 {
				fc.emit(OpPop, 0, 0)
			}
			fc.compileExpr(sub)
		}
	case *ast.AssignmentExpression:
		fc.compileAssignment(n)
	case *ast.CallExpression:
		fc.compileCall(n)
	case *ast.NewExpression:
		fc.compileExpr(n.Callee)
		fc.compileCallArgs(n.Args)
		fc.emit(OpNew, int32(len(n.Args)), 0)
	case *ast.MemberExpression:
		fc.compileExpr(n.Object)
		if n.Computed {
			fc.compileExpr(n.Property)
			fc.emit(OpGetPropComp, 0, 0)
		} else {
			key := n.Property.(*ast.Identifier).Name
			fc.emit(OpGetProp, 0, uint32(key))
		}
	case *ast.PrivateMemberExpression:
		fc.compileExpr(n.Object)
		fc.emit(OpGetPrivate, 0, uint32(n.Name))
	case *ast.SuperExpression:
		fc.emit(OpGetLocal, -1, 0)
	case *ast.NewTargetExpression:
		fc.emit(OpLoadUndef, 0, 0) // new.target tracking deferred; calls via OpNew set it at the VM level
	case *ast.YieldExpression:
		if n.Delegate {
			fc.compileYieldDelegate(n)
		} else {
			if n.Arg != nil {
				fc.compileExpr(n.Arg)
			} else {
				fc.emit(OpLoadUndef, 0, 0)
			}
			fc.emit(OpYield, 0, 0)
		}
	case *ast.AwaitExpression:
		fc.compileExpr(n.Arg)
		fc.emit(OpAwait, 0, 0)
	default:
		fc.emit(OpLoadUndef, 0, 0)
	}
}

// compileTemplate lowers a template literal into a left-to-right
// chain of string concatenations: quasis[0] + expr[0] + quasis[1] +
// expr[1] + ... + quasis[n]. ToString coercion of each substitution
// is performed by OpAdd's string-path at the VM level, matching how
// the `+` operator already handles mixed string/non-string operands.
func (fc *fnCompiler) compileTemplate(t *ast.TemplateLiteral) {
	fc.emit(OpLoadConst, fc.constant(value.StringVal(jsstring.New(t.Quasis[0]))), 0)
	for i, e := range t.Expressions {
		fc.compileExpr(e)
		fc.emit(OpAdd, 0, 0)
		if i+1 < len(t.Quasis) {
			fc.emit(OpLoadConst, fc.constant(value.StringVal(jsstring.New(t.Quasis[i+1]))), 0)
			fc.emit(OpAdd, 0, 0)
		}
	}
}

func (fc *fnCompiler) compileUnary(n *ast.UnaryExpression) {
	if n.Op == ast.UnaryDelete {
		if m, ok := n.Arg.(*ast.MemberExpression); ok {
			fc.compileExpr(m.Object)
			if m.Computed {
				fc.compileExpr(m.Property)
				fc.emit(OpDeleteProp, 1, 0)
			} else {
				key := m.Property.(*ast.Identifier).Name
				fc.emit(OpDeleteProp, 0, uint32(key))
			}
			return
		}
		fc.emit(OpLoadTrue, 0, 0)
		return
	}
	if n.Op == ast.UnaryTypeOf {
		fc.compileExpr(n.Arg)
		fc.emit(OpTypeOf, 0, 0)
		return
	}
	fc.compileExpr(n.Arg)
	switch n.Op {
	case ast.UnaryPlus:
		fc.emit(OpPlus, 0, 0)
	case ast.UnaryMinus:
		fc.emit(OpNeg, 0, 0)
	case ast.UnaryNot:
		fc.emit(OpNot, 0, 0)
	case ast.UnaryBitNot:
		fc.emit(OpBitNot, 0, 0)
	case ast.UnaryVoid:
		fc.emit(OpPop, 0, 0)
		fc.emit(OpLoadUndef, 0, 0)
	}
}

// compileUpdate lowers `++`/`--`, prefix or postfix. Store opcodes
// consume exactly one stack value and push nothing back, so a Dup
// placed before or after the add/sub is what decides whether the
// expression yields the pre- or post-update value.
func (fc *fnCompiler) compileUpdate(n *ast.UpdateExpression) {
	op := OpAdd
	if n.Op == ast.UpdateDec {
		op = OpSub
	}
	fc.compileExpr(n.Arg)
	if !n.Prefix {
		fc.emit(OpDup, 0, 0) // keep the pre-update value as the expression result
	}
	fc.emit(OpLoadConst, fc.constant(value.Int32(1)), 0)
	fc.emit(op, 0, 0)
	if n.Prefix {
		fc.emit(OpDup, 0, 0) // keep the post-update value as the expression result
	}
	fc.compileAssignToExpr(n.Arg)
}

func (fc *fnCompiler) compileLogical(n *ast.LogicalExpression) {
	fc.compileExpr(n.Left)
	switch n.Op {
	case ast.LogicalAnd:
		fc.emit(OpDup, 0, 0)
		jf := fc.emit(OpJumpIfFalse, 0, 0)
		fc.emit(OpPop, 0, 0)
		fc.compileExpr(n.Right)
		fc.patchJump(jf)
	case ast.LogicalOr:
		fc.emit(OpDup, 0, 0)
		jt := fc.emit(OpJumpIfTrue, 0, 0)
		fc.emit(OpPop, 0, 0)
		fc.compileExpr(n.Right)
		fc.patchJump(jt)
	case ast.LogicalCoalesce:
		fc.emit(OpDup, 0, 0)
		jn := fc.emit(OpJumpIfNullish, 0, 0)
		jend := fc.emit(OpJump, 0, 0)
		fc.patchJump(jn)
		fc.emit(OpPop, 0, 0)
		fc.compileExpr(n.Right)
		fc.patchJump(jend)
	}
}

func (fc *fnCompiler) compileAssignment(n *ast.AssignmentExpression) {
	switch n.Op {
	case ast.AssignEq:
		fc.compileExpr(n.Value)
		fc.emit(OpDup, 0, 0)
		if p, ok := n.Target.(ast.Pattern); ok {
			fc.compileBindingAssign(p)
		} else {
			fc.compileAssignToExpr(n.Target.(ast.Expression))
		}
	case ast.AssignAnd, ast.AssignOr, ast.AssignCoalesce:
		target := n.Target.(ast.Expression)
		fc.compileExpr(target)
		fc.emit(OpDup, 0, 0)
		var jmp int
		switch n.Op {
		case ast.AssignAnd:
			jmp = fc.emit(OpJumpIfFalse, 0, 0)
		case ast.AssignOr:
			jmp = fc.emit(OpJumpIfTrue, 0, 0)
		case ast.AssignCoalesce:
			jn := fc.emit(OpJumpIfNullish, 0, 0)
			jmp = fc.emit(OpJump, 0, 0)
			fc.patchJump(jn)
		}
		fc.emit(OpPop, 0, 0)
		fc.compileExpr(n.Value)
		fc.emit(OpDup, 0, 0)
		fc.compileAssignToExpr(target)
		fc.patchJump(jmp)
	default:
		target := n.Target.(ast.Expression)
		fc.compileExpr(target)
		fc.compileExpr(n.Value)
		fc.emit(compoundBinOp[n.Op], 0, 0)
		fc.emit(OpDup, 0, 0)
		fc.compileAssignToExpr(target)
	}
}

// compileCallArgs pushes one stack slot per argument, exactly the
// shape OpCall/OpCallMethod expect (Operand is always len(n.Args)): a
// plain argument pushes its value directly, while a spread argument
// wraps its source through the iterator protocol into the same
// "spread marker" single slot OpNewArrayFromElems flattens for array
// literals, so the VM can expand it back to any number of actual
// arguments at call time without the opcode needing to carry a
// variable-length operand.
func (fc *fnCompiler) compileCallArgs(args []ast.Expression) {
	for _, a := range args {
		if s, ok := a.(*ast.SpreadElement); ok {
			fc.compileExpr(s.Arg)
			fc.emit(OpGetIterator, int32(ast.ForOf), 0)
			fc.emit(OpAppendElement, -1, 0)
			continue
		}
		fc.compileExpr(a)
	}
}

func (fc *fnCompiler) compileCall(n *ast.CallExpression) {
	if m, ok := n.Callee.(*ast.MemberExpression); ok {
		fc.compileExpr(m.Object)
		fc.emit(OpDup, 0, 0)
		if m.Computed {
			fc.compileExpr(m.Property)
			fc.emit(OpGetPropComp, 0, 0)
		} else {
			key := m.Property.(*ast.Identifier).Name
			fc.emit(OpGetProp, 0, uint32(key))
		}
		// Stack is now (thisObj, method), the order OpCallMethod wants.
		fc.compileCallArgs(n.Args)
		fc.emit(OpCallMethod, int32(len(n.Args)), 0)
		return
	}
	fc.compileExpr(n.Callee)
	fc.compileCallArgs(n.Args)
	fc.emit(OpCall, int32(len(n.Args)), 0)
}

func (fc *fnCompiler) compileArrowFunction(n *ast.ArrowFunctionExpression) {
	body := n.Body
	if n.Expr != nil {
		body = []ast.Statement{&ast.ReturnStatement{Arg: n.Expr, Pos: n.Pos}}
	}
	fc.compileFunctionValue(ast.Node(n), 0, n.Params, body, false, n.Async, true)
}

// compileFunctionValue compiles a nested function body with its own
// fnCompiler sharing the outer resolver.refs and scopeSize tables, and
// emits OpMakeFunction referencing the resulting *CodeBlock from the
// current CodeBlock's Functions slice. key is the AST node the resolver
// used to record this function's top-level binding count (nil for the
// synthesized default constructor, which declares nothing).
func (fc *fnCompiler) compileFunctionValue(key any, name sym.Sym, params []ast.Pattern, body []ast.Statement, generator, async, isArrow bool) {
	inner := &fnCompiler{refs: fc.refs, interner: fc.interner, scopeSize: fc.scopeSize}
	inner.cb = &CodeBlock{
		Name:          fc.interner.Resolve(name),
		NumLocals:     fc.scopeSize[key],
		Generator:     generator,
		Async:         async,
		IsArrow:       isArrow,
		ConstructorOK: !isArrow && !generator && !async,
	}
	for _, p := range params {
		inner.cb.Params = append(inner.cb.Params, paramInfoFor(p))
	}
	for i, p := range params {
		if rest, ok := p.(*ast.RestPattern); ok {
			inner.emit(OpLoadRestArgs, int32(i), 0)
			inner.compileBindingAssign(rest.Target)
			continue
		}
		inner.emit(OpLoadArg, int32(i), 0)
		inner.compileBindingAssign(p)
	}
	inner.compileBody(body)
	inner.emit(OpLoadUndef, 0, 0)
	inner.emit(OpReturn, 0, 0)
	fc.cb.Functions = append(fc.cb.Functions, inner.cb)
	idx := int32(len(fc.cb.Functions) - 1)
	fc.emit(OpMakeFunction, idx, uint32(name))
}

// compileConstructorValue compiles a class's constructor body the same
// way compileFunctionValue does, but splices the class's non-static
// instance field initialisers (both public and `#private`) in between
// argument binding and the user-written constructor body, so every
// `new`'d instance gets its own copies written via OpSetProp/OpSetPrivate
// onto `this` (spec.md §4.4's per-instance class field initialiser) — as
// opposed to methods, which OpMakeClass installs once onto the shared
// prototype (see compileClass).
func (fc *fnCompiler) compileConstructorValue(key any, name sym.Sym, params []ast.Pattern, body []ast.Statement, fields []*ast.ClassMember) {
	inner := &fnCompiler{refs: fc.refs, interner: fc.interner, scopeSize: fc.scopeSize}
	inner.cb = &CodeBlock{
		Name:          fc.interner.Resolve(name),
		NumLocals:     fc.scopeSize[key],
		ConstructorOK: true,
	}
	for _, p := range params {
		inner.cb.Params = append(inner.cb.Params, paramInfoFor(p))
	}
	for i, p := range params {
		if rest, ok := p.(*ast.RestPattern); ok {
			inner.emit(OpLoadRestArgs, int32(i), 0)
			inner.compileBindingAssign(rest.Target)
			continue
		}
		inner.emit(OpLoadArg, int32(i), 0)
		inner.compileBindingAssign(p)
	}
	inner.compileFieldInitializers(fields)
	inner.compileBody(body)
	inner.emit(OpLoadUndef, 0, 0)
	inner.emit(OpReturn, 0, 0)
	fc.cb.Functions = append(fc.cb.Functions, inner.cb)
	idx := int32(len(fc.cb.Functions) - 1)
	fc.emit(OpMakeFunction, idx, uint32(name))
}

// compileFieldInitializers emits `this.key = value` (public) or
// `this.#key = value` (private) for each declared instance field,
// defaulting the value to undefined when there is no initialiser.
func (fc *fnCompiler) compileFieldInitializers(fields []*ast.ClassMember) {
	for _, m := range fields {
		fc.emit(OpGetLocal, -1, 0) // this
		if m.Value != nil {
			fc.compileExpr(m.Value)
		} else {
			fc.emit(OpLoadUndef, 0, 0)
		}
		switch {
		case m.PrivateKey:
			fc.emit(OpSetPrivate, 0, uint32(m.Key))
		case m.Computed != nil:
			fc.compileExpr(m.Computed)
			fc.emit(OpSetPropComp, 0, 0)
		default:
			fc.emit(OpSetProp, 0, uint32(m.Key))
		}
		fc.emit(OpPop, 0, 0)
	}
}

func paramInfoFor(p ast.Pattern) ParamInfo {
	switch p.(type) {
	case *ast.RestPattern:
		return ParamInfo{IsRest: true}
	case *ast.AssignmentPattern:
		return ParamInfo{HasDefault: true}
	default:
		return ParamInfo{}
	}
}

func (fc *fnCompiler) compileClass(n *ast.ClassExpression) {
	if n.SuperClass != nil {
		fc.compileExpr(n.SuperClass)
	} else {
		fc.emit(OpLoadNull, 0, 0)
	}
	ctor := fc.findConstructor(n)
	var fields []*ast.ClassMember
	for i := range n.Members {
		m := &n.Members[i]
		if m.Kind == ast.PropInit && !m.Static {
			fields = append(fields, m)
		}
	}
	if ctor != nil {
		ctorFn := ctor.Value.(*ast.FunctionExpression)
		fc.compileConstructorValue(ast.Node(ctorFn), n.Name, ctorFn.Params, ctorFn.Body, fields)
	} else {
		fc.compileConstructorValue(nil, n.Name, nil, nil, fields)
	}
	methodCount := int32(0)
	for i := range n.Members {
		m := &n.Members[i]
		if m.Kind == ast.PropMethod && m == ctor {
			continue
		}
		if m.Kind == ast.PropInit && !m.Static {
			continue
		}
		if m.Computed != nil {
			fc.compileExpr(m.Computed)
		} else {
			fc.emit(OpLoadConst, fc.constant(value.StringVal(jsstring.New(fc.interner.Resolve(m.Key)))), 0)
		}
		if fn, ok := m.Value.(*ast.FunctionExpression); ok {
			fc.compileFunctionValue(ast.Node(fn), fn.Name, fn.Params, fn.Body, fn.Generator, fn.Async, false)
		} else if m.Value != nil {
			fc.compileExpr(m.Value)
		} else {
			fc.emit(OpLoadUndef, 0, 0)
		}
		methodCount++
	}
	fc.emit(OpMakeClass, methodCount, uint32(n.Name))
}

// findConstructor locates the `constructor` method among a class's
// members; the parser does not tag it specially, so it is recognised
// by its key resolving to the literal name "constructor".
func (fc *fnCompiler) findConstructor(n *ast.ClassExpression) *ast.ClassMember {
	for i := range n.Members {
		m := &n.Members[i]
		if m.Kind == ast.PropMethod && !m.Static && !m.PrivateKey && fc.interner.Resolve(m.Key) == "constructor" {
			return m
		}
	}
	return nil
}
