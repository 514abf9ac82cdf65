package value

import "github.com/ecmago/ecmago/internal/sym"

// ObjectKind tags the exotic internal-method behaviour an Object
// should dispatch to, per spec.md §3.2's "data slot". The VM and the
// (external, non-core) built-ins package switch on this to pick the
// right [[GetOwnProperty]]/[[DefineOwnProperty]]/[[Call]] behaviour.
type ObjectKind uint8

const (
	KindObjectOrdinary ObjectKind = iota
	KindObjectArray
	KindObjectFunction
	KindObjectError
	KindObjectArguments
	KindObjectSharedArrayBuffer
	KindObjectPromise
	KindObjectGenerator
	KindObjectRegExp
	KindObjectHost
)

// Callable is implemented by a payload installed on a function Object
// (by internal/vm for bytecode functions, or by internal/builtins for
// native ones). Kept as an interface — rather than a direct field
// referencing internal/vm's CodeBlock — so that this package has no
// dependency on the compiler/VM layers that sit above it.
type Callable interface {
	// Arity reports the function's declared parameter count (used for
	// the `length` property).
	Arity() int
	// IsConstructor reports whether `new` is permitted.
	IsConstructor() bool
}

// Object is the engine's object record (spec.md §3.2).
type Object struct {
	proto      *Object
	kind       ObjectKind
	props      *PropertyMap
	private    map[sym.Sym]Value
	extensible bool
	frozen     bool
	sealed     bool
	callable   Callable
	data       any // kind-specific payload: error message, buffer bytes, etc.

	// GC bookkeeping, owned by internal/gc. Exported via methods below
	// rather than fields so internal/gc is the only package that
	// mutates them, but any package may allocate an Object.
	gcMarked bool
	gcNext   *Object
}

// NewObject allocates a fresh ordinary object with the given
// prototype (possibly nil).
func NewObject(proto *Object) *Object {
	return &Object{proto: proto, kind: KindObjectOrdinary, props: NewPropertyMap(), extensible: true}
}

// NewObjectOfKind allocates an object tagged with an exotic kind
// (array, function, error, ...).
func NewObjectOfKind(proto *Object, kind ObjectKind) *Object {
	o := NewObject(proto)
	o.kind = kind
	return o
}

func (o *Object) Prototype() *Object     { return o.proto }
func (o *Object) SetPrototype(p *Object) { o.proto = p }
func (o *Object) Kind() ObjectKind       { return o.kind }
func (o *Object) Extensible() bool       { return o.extensible }
func (o *Object) Frozen() bool           { return o.frozen }
func (o *Object) Sealed() bool           { return o.sealed }
func (o *Object) Data() any              { return o.data }
func (o *Object) SetData(d any)          { o.data = d }
func (o *Object) Callable() Callable     { return o.callable }
func (o *Object) SetCallable(c Callable) { o.callable = c; o.kind = KindObjectFunction }
func (o *Object) IsCallable() bool       { return o.callable != nil }

// Properties exposes the underlying map for the VM's property
// opcodes. Exported rather than re-wrapped 1:1 to avoid an enormous
// forwarding-method surface on Object.
func (o *Object) Properties() *PropertyMap { return o.props }

// GetOwnWithProto implements [[Get]]'s lookup for ordinary objects: walk GetOwn up the
// prototype chain; the VM is responsible for invoking accessor
// getters (it owns the call machinery Object cannot reference).
func (o *Object) GetOwnWithProto(key PropertyKey) (PropertyDescriptor, *Object, bool) {
	for cur := o; cur != nil; cur = cur.proto {
		if d, ok := cur.props.GetOwn(key); ok {
			return d, cur, true
		}
	}
	return PropertyDescriptor{}, nil, false
}

// DefineOwn installs a property, refusing if the object is frozen (no
// writes at all) or, for a brand-new key, sealed (no new keys),
// matching spec.md §3.2's invariants.
func (o *Object) DefineOwn(key PropertyKey, d PropertyDescriptor) bool {
	if o.frozen {
		return false
	}
	if _, exists := o.props.GetOwn(key); !exists && (o.sealed || !o.extensible) {
		return false
	}
	return o.props.DefineOwn(key, d)
}

// Set is the fast data-write path used by SetPropertyByName/ByValue
// when no accessor is involved.
func (o *Object) Set(key PropertyKey, v Value) bool {
	if o.frozen {
		return false
	}
	if _, exists := o.props.GetOwn(key); !exists && (o.sealed || !o.extensible) {
		return false
	}
	return o.props.SetDataValue(key, v)
}

// Delete removes an own property.
func (o *Object) Delete(key PropertyKey) bool {
	if o.sealed {
		return false
	}
	return o.props.Delete(key)
}

// Freeze/Seal implement Object.freeze/Object.seal: a frozen object
// additionally refuses every DefineOwn and Set (the frozen checks
// above); its stored property descriptors keep their Writable flag.
func (o *Object) Freeze() {
	o.sealed = true
	o.frozen = true
	o.extensible = false
}

func (o *Object) Seal() {
	o.sealed = true
	o.extensible = false
}

func (o *Object) PreventExtensions() { o.extensible = false }

// PrivateGet/PrivateSet/PrivateHas back `#name` field access, stored
// outside the ordinary property map and never enumerable or
// reflectable (spec.md §3.2).
func (o *Object) PrivateGet(name sym.Sym) (Value, bool) {
	v, ok := o.private[name]
	return v, ok
}

func (o *Object) PrivateSet(name sym.Sym, v Value) {
	if o.private == nil {
		o.private = make(map[sym.Sym]Value)
	}
	o.private[name] = v
}

func (o *Object) PrivateHas(name sym.Sym) bool {
	_, ok := o.private[name]
	return ok
}

// GCMarked/SetGCMarked/GCNext/SetGCNext are the intrusive hooks
// internal/gc uses to keep a singly-linked "all objects" list and mark
// bits without this package importing the collector.
func (o *Object) GCMarked() bool       { return o.gcMarked }
func (o *Object) SetGCMarked(m bool)   { o.gcMarked = m }
func (o *Object) GCNext() *Object      { return o.gcNext }
func (o *Object) SetGCNext(n *Object)  { o.gcNext = n }

// WalkReferences invokes fn for every Value directly reachable from
// o: its prototype, its property values (including accessor
// functions), its private fields, and any kind-specific payload that
// implements GCWalker.
func (o *Object) WalkReferences(fn func(Value)) {
	if o.proto != nil {
		fn(ObjectVal(o.proto))
	}
	o.props.Walk(fn)
	for _, v := range o.private {
		fn(v)
	}
	if w, ok := o.data.(GCWalker); ok {
		w.WalkReferences(fn)
	}
}

// GCWalker is implemented by kind-specific Object payloads (generator
// frames, promise reactions, ...) that hold additional Values the
// tracer must visit.
type GCWalker interface {
	WalkReferences(fn func(Value))
}
