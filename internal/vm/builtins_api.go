package vm

import (
	"strconv"

	"github.com/ecmago/ecmago/internal/jsstring"
	"github.com/ecmago/ecmago/internal/sym"
	"github.com/ecmago/ecmago/internal/value"
)

// This file is the seam internal/builtins compiles against: it can see
// the VM's own package-level state (prototypes, heap, interner) only
// through these exported methods, never through the unexported fields
// directly, keeping the prototype wiring in vm.go the single source of
// truth for what "a fresh realm" looks like.

// ObjectProto, FunctionProto, ArrayProto and ErrorProto return the
// shared prototypes New wires into every fresh VM; internal/builtins
// installs methods onto them rather than constructing its own.
func (vm *VM) ObjectProto() *value.Object   { return vm.objectProto }
func (vm *VM) FunctionProto() *value.Object { return vm.functionProto }
func (vm *VM) ArrayProto() *value.Object    { return vm.arrayProto }

// ErrorProto returns the prototype for the given error kind ("Error",
// "TypeError", "RangeError", "ReferenceError", "SyntaxError"),
// falling back to the base Error prototype for an unrecognized kind.
func (vm *VM) ErrorProto(kind string) *value.Object { return vm.errorProto(kind) }

// GlobalObject returns the realm's single global object.
func (vm *VM) GlobalObject() *value.Object { return vm.Global }

// Interner exposes the VM's shared symbol interner so internal/builtins
// interns property-key names through the same table bytecode-compiled
// identifiers use, rather than keeping a second interner.
func (vm *VM) Interner() *sym.Interner { return vm.interner }

// NewNativeFunction builds a callable function Object backed by a Go
// closure rather than a CodeBlock, installs it on the heap, and tags it
// with a "length"/name the way makeFunction does for bytecode-defined
// functions — the shape internal/builtins uses for every method it
// installs (Object.keys, Array.prototype.push, Math.floor, ...).
func (vm *VM) NewNativeFunction(name string, arity int, fn func(this value.Value, args []value.Value) (value.Value, error)) value.Value {
	v := vm.newNativeMethod(name, arity, fn)
	obj := v.AsObject()
	obj.Set(value.StringKey(vm.well.length), value.Int32(int32(arity)))
	obj.Set(value.StringKey(vm.interner.Intern("name")), value.StringVal(jsstring.New(name)))
	return v
}

// NewConstructor is like NewNativeFunction but also marks the function
// as valid for `new` and wires its "prototype" property to proto,
// mirroring how a bytecode class's constructor is wired by OpMakeClass
// (proto's own "constructor" property is left to the caller, since
// builtins sometimes share one prototype across several constructors'
// aliases — e.g. every Error subclass constructor installs its own
// distinct "constructor" back-reference).
func (vm *VM) NewConstructor(name string, arity int, proto *value.Object, fn func(this value.Value, args []value.Value, newTarget *value.Object) (value.Value, error)) value.Value {
	obj := value.NewObjectOfKind(vm.functionProto, value.KindObjectFunction)
	nf := &nativeConstructor{name: name, arity: arity, fn: fn}
	obj.SetCallable(nf)
	vm.Heap.Alloc(obj)
	obj.Set(value.StringKey(vm.well.length), value.Int32(int32(arity)))
	obj.Set(value.StringKey(vm.interner.Intern("name")), value.StringVal(jsstring.New(name)))
	obj.Set(value.StringKey(vm.well.prototype), value.ObjectVal(proto))
	return value.ObjectVal(obj)
}

// nativeConstructor is the Callable payload for a builtin that needs to
// observe whether it was invoked via `new` (its newTarget) — the
// constructors of Array, Error and its subclasses all behave
// differently called plain versus constructed (e.g. Error("x") and new
// Error("x") are equivalent, but Array(3) and new Array(3) are not
// always, and builtins.go's TypeError/RangeError/etc. need the actual
// constructed object's prototype to build the right subclass instance
// when called through a `class Foo extends TypeError` chain).
type nativeConstructor struct {
	name  string
	arity int
	fn    func(this value.Value, args []value.Value, newTarget *value.Object) (value.Value, error)
}

func (n *nativeConstructor) Arity() int          { return n.arity }
func (n *nativeConstructor) IsConstructor() bool { return true }

// DefineMethod installs a native method as a non-enumerable data
// property on obj, the shape every prototype's own methods (Array.prototype.push,
// Object.keys, ...) are installed with — mirroring OpMakeClass's own
// "methods are non-enumerable" rule for bytecode-defined classes.
func (vm *VM) DefineMethod(obj *value.Object, name string, arity int, fn func(this value.Value, args []value.Value) (value.Value, error)) {
	obj.DefineOwn(value.StringKey(vm.interner.Intern(name)), value.PropertyDescriptor{
		Value:        vm.NewNativeFunction(name, arity, fn),
		Writable:     true,
		Enumerable:   false,
		Configurable: true,
	})
}

// DefineValue installs a plain non-enumerable data property, the shape
// used for things like Math's numeric constants.
func (vm *VM) DefineValue(obj *value.Object, name string, v value.Value) {
	obj.DefineOwn(value.StringKey(vm.interner.Intern(name)), value.PropertyDescriptor{
		Value:        v,
		Writable:     true,
		Enumerable:   false,
		Configurable: true,
	})
}

// NewPlainObject/NewArrayObject let internal/builtins build ordinary
// realm objects (a freshly-constructed Array, a JSON.parse result, ...)
// without reaching into value.NewObject's prototype argument itself,
// since the right prototype (vm.arrayProto etc.) is exactly the state
// this seam exists to hide.
func (vm *VM) NewPlainObject() *value.Object {
	o := value.NewObject(vm.objectProto)
	vm.Heap.Alloc(o)
	return o
}

func (vm *VM) NewArrayObject() *value.Object {
	o := value.NewObjectOfKind(vm.arrayProto, value.KindObjectArray)
	vm.Heap.Alloc(o)
	o.Set(value.StringKey(vm.well.length), value.Int32(0))
	return o
}

// NewArrayFromElements, ArrayAppend and ArrayLength give
// internal/builtins the same array bookkeeping ops.go's own
// OpNewArrayFromElems/OpAppendElement use, so an array a builtin
// returns (Object.keys, Array.prototype.map, ...) behaves identically
// to one bytecode built with an array literal.
func (vm *VM) NewArrayFromElements(elems []value.Value) value.Value { return vm.newArray(elems) }

func (vm *VM) ArrayAppend(o *value.Object, elems []value.Value) { vm.arrayAppendAll(o, elems) }

func (vm *VM) ArrayLength(o *value.Object) int { return vm.arrayLength(o) }

// Alloc registers an object with the realm's heap; builtins that build
// intermediate objects (e.g. JSON.parse's nested results) call this
// once per object they create directly rather than through one of the
// New*Object helpers above.
func (vm *VM) Alloc(o *value.Object) *value.Object { return vm.Heap.Alloc(o) }

// ThrowTypeError, ThrowRangeError and ThrowError let internal/builtins
// raise the engine's own error taxonomy (a bad argument to
// Array.prototype.slice, JSON.parse syntax errors, ...) through the
// same *ThrownError path bytecode's own OpThrow uses.
func (vm *VM) ThrowTypeError(format string, args ...any) error {
	return vm.throwTypeError(format, args...)
}

func (vm *VM) ThrowRangeError(format string, args ...any) error {
	return vm.throwRangeError(format, args...)
}

func (vm *VM) ThrowReferenceError(format string, args ...any) error {
	return vm.throwReferenceError(format, args...)
}

func (vm *VM) NewError(kind, message string) value.Value { return vm.newError(kind, message) }

// ThrowError raises an arbitrary error kind by name — the general case
// TypeError/RangeError/ReferenceError's dedicated helpers above cover
// for the three kinds the VM itself throws; builtins.go's JSON parser
// uses this to raise "SyntaxError", a kind the VM's own bytecode never
// throws but internal/builtins' error taxonomy still carries a
// prototype for.
func (vm *VM) ThrowError(kind, message string) error {
	return &ThrownError{Value: vm.newError(kind, message)}
}

// Call and Construct are already exported; GetProperty/SetProperty give
// internal/builtins the same property-access semantics (accessor
// invocation, string index/length reads, ...) ops.go's OpGetProp uses,
// so e.g. Array.prototype.concat reading another array's "length"
// behaves identically whether the read happens in bytecode or in a
// builtin.
func (vm *VM) GetProperty(receiver value.Value, key value.PropertyKey) (value.Value, error) {
	return vm.getProperty(receiver, key)
}

func (vm *VM) SetPropertyValue(obj *value.Object, key value.PropertyKey, v value.Value) {
	obj.Set(key, v)
}

func (vm *VM) InternString(s string) sym.Sym { return vm.interner.Intern(s) }

func (vm *VM) StringKey(s string) value.PropertyKey {
	return value.StringKey(vm.interner.Intern(s))
}

// ToNumber, ToJsString, StrictEquals and LooseEquals expose the same
// abstract-operation helpers ops.go's arithmetic/comparison opcodes use
// internally, so a builtin's coercions (Array.prototype.includes'
// SameValueZero, JSON.stringify's ToString, Math.max's ToNumber, ...)
// behave identically to the equivalent bytecode expression.
func (vm *VM) ToNumber(v value.Value) float64 { return vm.toNumber(v) }

func (vm *VM) ToJsString(v value.Value) jsstring.JsString { return vm.toJsString(v) }

func (vm *VM) StrictEquals(l, r value.Value) bool { return strictEquals(l, r) }

func (vm *VM) LooseEquals(l, r value.Value) bool { return vm.looseEquals(l, r) }

// ResolveKeyName resolves a property key's string/index domain back to
// a Go string for builtins that need to print keys (JSON.stringify,
// Object.keys); a symbol key has no string form and returns "".
func (vm *VM) ResolveKeyName(k value.PropertyKey) string {
	switch k.Kind() {
	case value.KeyString:
		return vm.interner.Resolve(k.StringSym())
	case value.KeyIndex:
		return strconv.FormatUint(uint64(k.Index()), 10)
	default:
		return ""
	}
}
