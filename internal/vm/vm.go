package vm

import (
	"github.com/ecmago/ecmago/internal/compiler"
	"github.com/ecmago/ecmago/internal/gc"
	"github.com/ecmago/ecmago/internal/sym"
	"github.com/ecmago/ecmago/internal/value"
)

// wellKnown caches the handful of property-key syms the VM itself
// consults outside of compiled bytecode (array length bookkeeping,
// class prototype wiring, error tagging), interned once at VM
// construction rather than re-resolved on every access.
type wellKnown struct {
	length      sym.Sym
	prototype   sym.Sym
	constructor sym.Sym
	message     sym.Sym
	name        sym.Sym
	value       sym.Sym
	done        sym.Sym
	source      sym.Sym
	flags       sym.Sym
	lastIndex   sym.Sym
}

// VM is the engine's bytecode interpreter (component G, spec.md §4.5):
// one fetch-decode-execute loop per call, recursing into itself (via
// Call/construct) for nested JavaScript calls rather than running a
// single flattened loop with an explicit Go-level call stack. The VM
// owns the realm's heap and global object; a Context (package engine)
// wraps one VM plus its job queue.
type VM struct {
	Heap           *gc.Heap
	Global         *value.Object
	interner       *sym.Interner
	well           wellKnown
	objectProto    *value.Object
	functionProto  *value.Object
	arrayProto     *value.Object
	regexpProto    *value.Object
	generatorProto *value.Object
	promiseProto   *value.Object
	errorProtos    map[string]*value.Object

	frames []*Frame // live call stack, rooted for GC

	// Tracer, when non-nil, is called with every instruction immediately
	// before it executes — the hook engine.Options.Trace wires to
	// internal/xlog, the same per-instruction observation point
	// go-ethereum's own EVM exposes via its Config.Debug/Tracer hook.
	// nil (the default) costs nothing beyond the one nil check per step.
	Tracer func(pc int, ins compiler.Instruction)
}

// New creates a VM with a fresh global object and the minimal
// prototype chain (Object.prototype / Function.prototype /
// Array.prototype / per-kind Error.prototype) that engine-level
// TypeError/ReferenceError/RangeError throws and `typeof`/instanceof
// checks need. internal/builtins is responsible for populating the
// rest of the standard library onto these objects.
func New(interner *sym.Interner) *VM {
	vm := &VM{
		interner:    interner,
		errorProtos: make(map[string]*value.Object),
		well: wellKnown{
			length:      interner.Intern("length"),
			prototype:   interner.Intern("prototype"),
			constructor: interner.Intern("constructor"),
			message:     interner.Intern("message"),
			name:        interner.Intern("name"),
			value:       interner.Intern("value"),
			done:        interner.Intern("done"),
			source:      interner.Intern("source"),
			flags:       interner.Intern("flags"),
			lastIndex:   interner.Intern("lastIndex"),
		},
	}
	vm.Heap = gc.NewHeap(vm)
	vm.objectProto = value.NewObject(nil)
	vm.functionProto = value.NewObject(vm.objectProto)
	vm.arrayProto = value.NewObject(vm.objectProto)
	vm.regexpProto = value.NewObject(vm.objectProto)
	vm.Global = value.NewObject(vm.objectProto)
	for _, kind := range []string{"Error", "TypeError", "RangeError", "ReferenceError", "SyntaxError"} {
		proto := value.NewObject(vm.objectProto)
		vm.Heap.Alloc(proto)
		vm.errorProtos[kind] = proto
	}
	vm.generatorProto = vm.buildGeneratorProto()
	vm.promiseProto = vm.buildPromiseProto()
	vm.Heap.Alloc(vm.objectProto)
	vm.Heap.Alloc(vm.functionProto)
	vm.Heap.Alloc(vm.arrayProto)
	vm.Heap.Alloc(vm.regexpProto)
	vm.Heap.Alloc(vm.generatorProto)
	vm.Heap.Alloc(vm.promiseProto)
	vm.Heap.Alloc(vm.Global)
	return vm
}

// WalkRoots satisfies gc.Root: the VM itself roots the global object
// and every currently-executing frame (spec.md §5 "GC and threads" —
// the realm's one live thread is exactly these frames at any instant).
func (vm *VM) WalkRoots(fn func(value.Value)) {
	fn(value.ObjectVal(vm.Global))
	for _, f := range vm.frames {
		f.WalkRoots(fn)
	}
}

func (vm *VM) errorProto(kind string) *value.Object {
	if p, ok := vm.errorProtos[kind]; ok {
		return p
	}
	return vm.errorProtos["Error"]
}

// closure is the Callable payload installed on a function Object for
// bytecode-defined functions (as opposed to a native Go function
// internal/builtins installs directly via a different Callable
// implementation).
type closure struct {
	cb  *compiler.CodeBlock
	env *Environment // defining environment; nil closes over only the global frame
}

func (c *closure) Arity() int          { return c.cb.Arity() }
func (c *closure) IsConstructor() bool { return c.cb.IsConstructor() }

func (vm *VM) makeFunction(cb *compiler.CodeBlock, env *Environment) value.Value {
	obj := value.NewObjectOfKind(vm.functionProto, value.KindObjectFunction)
	obj.SetCallable(&closure{cb: cb, env: env})
	proto := value.NewObject(vm.objectProto)
	proto.Set(value.StringKey(vm.well.constructor), value.ObjectVal(obj))
	vm.Heap.Alloc(proto)
	obj.Set(value.StringKey(vm.well.prototype), value.ObjectVal(proto))
	obj.Set(value.StringKey(vm.well.length), value.Int32(int32(cb.Arity())))
	vm.Heap.Alloc(obj)
	return value.ObjectVal(obj)
}

// RunProgram runs a top-level script CodeBlock and returns its
// completion value (spec.md §4.1's "script completion value"): the
// value of the script's final top-level statement when that statement
// is an expression statement, and Undefined otherwise. The completion
// value of a final block, `if`, loop or `try` statement is not tracked.
func (vm *VM) RunProgram(cb *compiler.CodeBlock) (value.Value, error) {
	f := newFrame(cb, value.ObjectVal(vm.Global), nil, nil)
	vm.frames = append(vm.frames, f)
	defer func() { vm.frames = vm.frames[:len(vm.frames)-1] }()
	return vm.run(f)
}

// Call implements the abstract Call operation: fn must be a callable
// Object (its closure's CodeBlock or a native Callable); a plain data
// object or primitive raises a TypeError, matching `x()` on a
// non-function in ordinary JavaScript.
func (vm *VM) Call(fn value.Value, this value.Value, args []value.Value) (value.Value, error) {
	if !fn.IsObject() || !fn.AsObject().IsCallable() {
		return value.Undefined(), vm.throwTypeError("value is not a function")
	}
	if nf, ok := fn.AsObject().Callable().(*nativeFunc); ok {
		return nf.fn(this, args)
	}
	if nc, ok := fn.AsObject().Callable().(*nativeConstructor); ok {
		return nc.fn(this, args, nil)
	}
	cl, ok := fn.AsObject().Callable().(*closure)
	if !ok {
		return vm.Undefined(), vm.throwTypeError("value is not a function")
	}
	if cl.cb.Generator {
		// A generator function body does not run at all until its
		// returned generator object's next() is first called (spec.md
		// §6) — makeGeneratorObject builds the Frame now but leaves it
		// unrun until the first next().
		return vm.makeGeneratorObject(cl.cb, this, args, cl.env), nil
	}
	f := newFrame(cl.cb, this, args, cl.env)
	if vm.Heap.ShouldCollect() {
		vm.Heap.Collect()
	}
	vm.frames = append(vm.frames, f)
	result, err := vm.run(f)
	vm.frames = vm.frames[:len(vm.frames)-1]
	if !cl.cb.Async {
		return result, err
	}
	// Every `await` suspends and resumes this same Frame exactly the way
	// a generator's `yield` does (resumeFrame), but there is no job
	// queue/microtask tick driving that resumption from outside: the
	// awaited value is treated as already settled and fed straight back
	// in here, driving the body to completion before Call returns rather
	// than truly yielding to the event loop. The return value is still a
	// genuine Promise (newSettledPromise), already resolved or rejected
	// by the time the caller sees it — see DESIGN.md's "Async functions"
	// entry.
	for err == nil && !f.done {
		result, err = vm.resumeFrame(f, resumeNormal, result, false)
	}
	if err != nil {
		if te, ok := err.(*ThrownError); ok {
			return vm.newSettledPromise(te.Value, false), nil
		}
		return value.Undefined(), err
	}
	return vm.newSettledPromise(result, true), nil
}

func (vm *VM) Undefined() value.Value { return value.Undefined() }

// Construct implements the abstract Construct operation (the `new`
// operator): a fresh ordinary object is created with its prototype
// taken from the constructor's own "prototype" property, then called
// with `this` bound to it; if the constructor body itself returns an
// object, that object is used instead (spec.md §3.2's "OrdinaryCreateFromConstructor").
func (vm *VM) Construct(fn value.Value, args []value.Value) (value.Value, error) {
	if !fn.IsObject() || !fn.AsObject().IsCallable() {
		return value.Undefined(), vm.throwTypeError("value is not a constructor")
	}
	ctorObj := fn.AsObject()
	if cl, ok := ctorObj.Callable().(*closure); ok && !cl.cb.IsConstructor() {
		return value.Undefined(), vm.throwTypeError("value is not a constructor")
	}
	protoVal, _, _ := ctorObj.GetOwnWithProto(value.StringKey(vm.well.prototype))
	proto := vm.objectProto
	if protoVal.Value.IsObject() {
		proto = protoVal.Value.AsObject()
	}
	if nc, ok := ctorObj.Callable().(*nativeConstructor); ok {
		inst := value.NewObject(proto)
		vm.Heap.Alloc(inst)
		result, err := nc.fn(value.ObjectVal(inst), args, ctorObj)
		if err != nil {
			return value.Undefined(), err
		}
		if result.IsObject() {
			return result, nil
		}
		return value.ObjectVal(inst), nil
	}
	inst := value.NewObject(proto)
	vm.Heap.Alloc(inst)
	result, err := vm.Call(fn, value.ObjectVal(inst), args)
	if err != nil {
		return value.Undefined(), err
	}
	if result.IsObject() {
		return result, nil
	}
	return value.ObjectVal(inst), nil
}

// run executes f from its current pc until it returns, throws past its
// own top level, or (for a generator/async frame) suspends at a Yield
// or Await; a suspension returns immediately with f.done left false so
// a later resume() call can continue it in place (spec.md §6).
func (vm *VM) run(f *Frame) (value.Value, error) {
	cb := f.cb
	for {
		if f.pc >= len(cb.Instructions) {
			f.done = true
			return value.Undefined(), nil
		}
		ins := cb.Instructions[f.pc]
		if vm.Tracer != nil {
			vm.Tracer(f.pc, ins)
		}
		f.pc++
		result, flow, err := vm.step(f, ins)
		if err != nil {
			thrown, ok := err.(*ThrownError)
			if !ok {
				f.done = true
				return value.Undefined(), err
			}
			if !vm.handleThrow(f, thrown) {
				f.done = true
				return value.Undefined(), err
			}
			continue
		}
		switch flow {
		case flowReturn:
			f.done = true
			return result, nil
		case flowSuspend:
			return result, nil // f.done stays false: this frame can be resumed
		}
	}
}

type controlFlow uint8

const (
	flowNone controlFlow = iota
	flowReturn
	flowSuspend
)

// handleThrow searches f's handler table for an entry covering the pc
// the exception occurred at (one past the failing instruction, since
// f.pc was already advanced), restores the stack and environment
// depth it records, and redirects execution to its target. It reports
// whether a handler was found.
func (vm *VM) handleThrow(f *Frame, t *ThrownError) bool {
	h, ok := f.cb.HandlerFor(f.pc - 1)
	if !ok {
		return false
	}
	if len(f.stack) > h.StackDepth {
		f.stack = f.stack[:h.StackDepth]
	}
	f.unwindTo(h.EnvDepth)
	f.pc = h.Target
	f.push(t.Value)
	return true
}
