package vm

import (
	"github.com/ecmago/ecmago/internal/compiler"
	"github.com/ecmago/ecmago/internal/value"
)

// resumeKind tags how a suspended generator/async frame is being
// re-entered (spec.md §4.5 "resume kind used when re-entering a
// suspended generator").
type resumeKind uint8

const (
	resumeNormal resumeKind = iota
	resumeThrow
	resumeReturn
)

// Frame is one call's activation record: the executing CodeBlock, its
// program counter, its own operand stack, the environment stack in
// scope at that pc, and the state a generator/async function needs to
// suspend and later resume (spec.md §4.4 "A VM call frame contains
// ..."). A Frame for a generator or async function is not discarded on
// Yield/Await: its pc/stack/envStack are left exactly as they were, so
// resuming is just calling run() again on the same *Frame (spec.md §6
// "Coroutine control flow" — a suspended frame is a value, not a host
// coroutine).
type Frame struct {
	cb   *compiler.CodeBlock
	pc   int
	this value.Value
	args []value.Value

	// newTarget is the value `new.target` would resolve to; compiled
	// bytecode does not yet read it (NewTargetExpression compiles to
	// OpLoadUndef — see DESIGN.md), so this field is reserved for when
	// that wiring lands rather than consulted today.
	newTarget value.Value

	stack []value.Value

	// envStack mirrors the compiler's scopeDepth bookkeeping: index 0 is
	// this frame's own top-level Environment (sized CodeBlock.NumLocals,
	// never popped), and each OpPushScope/OpPopScope appends/removes one
	// further entry. env is always envStack's last entry.
	envStack []*Environment
	env      *Environment

	resumeKind  resumeKind
	resumeValue value.Value

	// done is set once this frame has returned or thrown past its own
	// top level; running it again is a caller error.
	done bool
}

func newFrame(cb *compiler.CodeBlock, this value.Value, args []value.Value, closureEnv *Environment) *Frame {
	fnEnv := NewEnvironment(closureEnv, cb.NumLocals)
	return &Frame{
		cb:       cb,
		this:     this,
		args:     args,
		env:      fnEnv,
		envStack: []*Environment{fnEnv},
	}
}

func (f *Frame) push(v value.Value) { f.stack = append(f.stack, v) }

func (f *Frame) pop() value.Value {
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack[n] = value.Undefined()
	f.stack = f.stack[:n]
	return v
}

func (f *Frame) peek() value.Value { return f.stack[len(f.stack)-1] }

// scopeDepth is the number of OpPushScope calls currently open, the
// runtime counterpart of fnCompiler.scopeDepth.
func (f *Frame) scopeDepth() int { return len(f.envStack) - 1 }

func (f *Frame) pushScope(size int) {
	f.env = NewEnvironment(f.env, size)
	f.envStack = append(f.envStack, f.env)
}

func (f *Frame) popScope() {
	f.envStack = f.envStack[:len(f.envStack)-1]
	f.env = f.envStack[len(f.envStack)-1]
}

// unwindTo truncates the environment stack back to depth, the runtime
// counterpart of fnCompiler.unwindScopes/Handler.EnvDepth.
func (f *Frame) unwindTo(depth int) {
	f.envStack = f.envStack[:depth+1]
	f.env = f.envStack[len(f.envStack)-1]
}

// WalkRoots satisfies gc.Root: a live Frame roots its operand stack,
// arguments, this/newTarget/resumeValue, and its current environment
// chain (which itself walks every ancestor, including scopes a
// suspended generator's frame keeps alive).
func (f *Frame) WalkRoots(fn func(value.Value)) {
	for _, v := range f.stack {
		fn(v)
	}
	for _, v := range f.args {
		fn(v)
	}
	fn(f.this)
	fn(f.newTarget)
	fn(f.resumeValue)
	if f.env != nil {
		f.env.WalkRoots(fn)
	}
}
