package vm

import (
	"github.com/ecmago/ecmago/internal/compiler"
	"github.com/ecmago/ecmago/internal/value"
)

// nativeFunc is the Callable payload for methods the VM itself installs
// (generator next/throw/return) rather than a user's bytecode — the
// counterpart of closure for functions with no CodeBlock at all.
// internal/builtins' methods get the same shape through VM.DefineMethod.
type nativeFunc struct {
	arity int
	fn    func(this value.Value, args []value.Value) (value.Value, error)
}

func (n *nativeFunc) Arity() int          { return n.arity }
func (n *nativeFunc) IsConstructor() bool { return false }

func (vm *VM) newNativeMethod(name string, arity int, fn func(value.Value, []value.Value) (value.Value, error)) value.Value {
	obj := value.NewObjectOfKind(vm.functionProto, value.KindObjectFunction)
	obj.SetCallable(&nativeFunc{arity: arity, fn: fn})
	vm.Heap.Alloc(obj)
	return value.ObjectVal(obj)
}

// genObject is a generator object's Data(): the suspended/not-yet-started
// Frame it drives, per spec.md §6's "a suspended frame is a value, not a
// host coroutine" design.
type genObject struct {
	frame   *Frame
	started bool
}

// buildGeneratorProto builds the one shared prototype every generator
// object (from every generator function, regardless of which CodeBlock
// produced it) points to, installing next/throw/return exactly once
// rather than per-instance — the same "one shared prototype, methods
// installed once" shape makeFunction uses for ordinary functions.
func (vm *VM) buildGeneratorProto() *value.Object {
	proto := value.NewObject(vm.objectProto)
	install := func(name string, fn func(value.Value, []value.Value) (value.Value, error)) {
		proto.Set(value.StringKey(vm.interner.Intern(name)), vm.newNativeMethod(name, 1, fn))
	}
	install("next", func(this value.Value, args []value.Value) (value.Value, error) {
		return vm.generatorResume(this, resumeNormal, argOrUndefined(args, 0))
	})
	install("throw", func(this value.Value, args []value.Value) (value.Value, error) {
		return vm.generatorResume(this, resumeThrow, argOrUndefined(args, 0))
	})
	install("return", func(this value.Value, args []value.Value) (value.Value, error) {
		return vm.generatorResume(this, resumeReturn, argOrUndefined(args, 0))
	})
	return proto
}

func argOrUndefined(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined()
}

// makeGeneratorObject builds the object a call to a generator function
// returns: its Frame is constructed (so closed-over bindings are
// captured now, as spec.md requires argument evaluation to happen at
// call time) but not yet pushed onto vm.frames or run — the body does
// not execute a single instruction until next() is first called.
func (vm *VM) makeGeneratorObject(cb *compiler.CodeBlock, this value.Value, args []value.Value, env *Environment) value.Value {
	f := newFrame(cb, this, args, env)
	obj := value.NewObjectOfKind(vm.generatorProto, value.KindObjectHost)
	obj.SetData(&genObject{frame: f})
	vm.Heap.Alloc(obj)
	return value.ObjectVal(obj)
}

func (vm *VM) newIterResult(v value.Value, done bool) value.Value {
	o := value.NewObject(vm.objectProto)
	vm.Heap.Alloc(o)
	o.Set(value.StringKey(vm.well.value), v)
	o.Set(value.StringKey(vm.well.done), value.Bool(done))
	return value.ObjectVal(o)
}

// generatorResume implements the next/throw/return methods shared by
// every generator object: `this` must be a generator produced by
// makeGeneratorObject, and result is always an IteratorResult
// ({value, done}) — or, for throw()/uncaught errors, a *ThrownError
// propagated to the caller exactly as a bytecode OpThrow would be.
func (vm *VM) generatorResume(this value.Value, kind resumeKind, arg value.Value) (value.Value, error) {
	if !this.IsObject() {
		return value.Undefined(), vm.throwTypeError("not a generator")
	}
	g, ok := this.AsObject().Data().(*genObject)
	if !ok {
		return value.Undefined(), vm.throwTypeError("not a generator")
	}
	if g.frame.done {
		switch kind {
		case resumeThrow:
			return value.Undefined(), &ThrownError{Value: arg}
		case resumeReturn:
			return vm.newIterResult(arg, true), nil
		default:
			return vm.newIterResult(value.Undefined(), true), nil
		}
	}
	if !g.started && kind != resumeNormal {
		// The generator body has never run a single instruction, so
		// there is no suspended Yield for a throw()/return() call to
		// act on — it simply never starts (spec.md §6's
		// GeneratorStart "already completed" case generalised to
		// "never started").
		g.frame.done = true
		if kind == resumeThrow {
			return value.Undefined(), &ThrownError{Value: arg}
		}
		return vm.newIterResult(arg, true), nil
	}
	first := !g.started
	g.started = true
	result, err := vm.resumeFrame(g.frame, kind, arg, first)
	if err != nil {
		return value.Undefined(), err
	}
	return vm.newIterResult(result, g.frame.done), nil
}

// resumeFrame re-enters a Frame at its current suspension point (or, if
// first is true, starts it from pc 0 — generatorResume guarantees
// first implies kind == resumeNormal, since it special-cases
// throw()/return() before a generator has ever started): a resumeThrow
// looks for a handler covering the suspension point exactly as an
// in-bytecode throw would (a miss finishes the frame and propagates the
// error to the resumer); a resumeReturn finishes the frame immediately
// with the given value without running any enclosing finally blocks
// (compileTry never registers a HandlerFinally entry — see DESIGN.md —
// so there is no table-driven way to find and run them from here); a
// resumeNormal pushes arg as the suspended Yield/Await expression's
// value (or, on first start, discards it — there is no Yield yet to
// receive it) and continues running.
func (vm *VM) resumeFrame(f *Frame, kind resumeKind, arg value.Value, first bool) (value.Value, error) {
	if !first {
		switch kind {
		case resumeThrow:
			if !vm.handleThrow(f, &ThrownError{Value: arg}) {
				f.done = true
				return value.Undefined(), &ThrownError{Value: arg}
			}
		case resumeReturn:
			f.done = true
			return arg, nil
		default:
			f.push(arg)
		}
	}
	vm.frames = append(vm.frames, f)
	result, err := vm.run(f)
	vm.frames = vm.frames[:len(vm.frames)-1]
	return result, err
}
