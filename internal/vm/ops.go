package vm

import (
	"math"
	"strconv"

	"github.com/ecmago/ecmago/internal/ast"
	"github.com/ecmago/ecmago/internal/compiler"
	"github.com/ecmago/ecmago/internal/jsstring"
	"github.com/ecmago/ecmago/internal/sym"
	"github.com/ecmago/ecmago/internal/value"
)

// spreadMarker is the single stack slot an array literal's or a call's
// spread argument compiles down to (OpGetIterator + OpAppendElement(-1)):
// draining a spread source to a fixed-size stack slot lets
// OpNewArrayFromElems/OpCall/OpNew/OpCallMethod keep a compile-time-known
// Operand (one slot per source element) even though a spread can expand
// to any number of runtime values.
type spreadMarker struct {
	values []value.Value
}

// step decodes and executes a single instruction, reporting how
// control should continue: flowNone to keep looping, flowReturn with
// the frame's result, or flowSuspend (generator/async) with the
// yielded/awaited value.
func (vm *VM) step(f *Frame, ins compiler.Instruction) (value.Value, controlFlow, error) {
	switch ins.Op {
	case compiler.OpNop:

	case compiler.OpLoadConst:
		f.push(f.cb.Constants[ins.Operand])
	case compiler.OpLoadUndef:
		f.push(value.Undefined())
	case compiler.OpLoadNull:
		f.push(value.Null())
	case compiler.OpLoadTrue:
		f.push(value.Bool(true))
	case compiler.OpLoadFalse:
		f.push(value.Bool(false))
	case compiler.OpPop:
		f.pop()
	case compiler.OpDup:
		f.push(f.peek())
	case compiler.OpSwap:
		n := len(f.stack)
		f.stack[n-1], f.stack[n-2] = f.stack[n-2], f.stack[n-1]

	case compiler.OpGetLocal:
		if ins.Operand == -1 {
			f.push(f.this)
		} else {
			f.push(f.env.Get(int(ins.Name), int(ins.Operand)))
		}
	case compiler.OpSetLocal:
		v := f.pop()
		if ins.Operand == -1 {
			f.this = v
		} else {
			f.env.Set(int(ins.Name), int(ins.Operand), v)
		}
	case compiler.OpGetGlobal, compiler.OpGetGlobalOrThrow:
		key := value.StringKey(sym.Sym(ins.Name))
		d, _, ok := vm.Global.GetOwnWithProto(key)
		if !ok {
			if ins.Op == compiler.OpGetGlobalOrThrow {
				return value.Undefined(), flowNone, vm.throwReferenceError("%s is not defined", vm.interner.Resolve(sym.Sym(ins.Name)))
			}
			f.push(value.Undefined())
		} else {
			f.push(d.Value)
		}
	case compiler.OpSetGlobal:
		vm.Global.Set(value.StringKey(sym.Sym(ins.Name)), f.pop())
	case compiler.OpLoadArg:
		if int(ins.Operand) < len(f.args) {
			f.push(f.args[ins.Operand])
		} else {
			f.push(value.Undefined())
		}
	case compiler.OpLoadRestArgs:
		start := int(ins.Operand)
		arr := vm.newArray(nil)
		if start < len(f.args) {
			vm.arrayAppendAll(arr.AsObject(), f.args[start:])
		}
		f.push(arr)

	case compiler.OpPushScope:
		f.pushScope(int(ins.Operand))
	case compiler.OpPopScope:
		f.popScope()

	case compiler.OpGetProp:
		obj := f.pop()
		v, err := vm.getPropertyCached(f.cb, obj, value.StringKey(sym.Sym(ins.Name)))
		if err != nil {
			return value.Undefined(), flowNone, err
		}
		f.push(v)
	case compiler.OpGetPropComp:
		key := f.pop()
		obj := f.pop()
		v, err := vm.getPropertyCached(f.cb, obj, value.PropertyKeyFromValue(key, vm.interner))
		if err != nil {
			return value.Undefined(), flowNone, err
		}
		f.push(v)
	case compiler.OpSetProp:
		val := f.pop()
		obj := f.peek()
		if err := vm.setPropertyKinded(obj, value.StringKey(sym.Sym(ins.Name)), val, int(ins.Operand)); err != nil {
			return value.Undefined(), flowNone, err
		}
	case compiler.OpSetPropComp:
		key := f.pop()
		val := f.pop()
		obj := f.peek()
		if err := vm.setPropertyKinded(obj, value.PropertyKeyFromValue(key, vm.interner), val, int(ins.Operand)); err != nil {
			return value.Undefined(), flowNone, err
		}
	case compiler.OpGetPrivate:
		obj := f.pop()
		if !obj.IsObject() {
			return value.Undefined(), flowNone, vm.throwTypeError("cannot read private field of non-object")
		}
		v, _ := obj.AsObject().PrivateGet(sym.Sym(ins.Name))
		f.push(v)
	case compiler.OpSetPrivate:
		val := f.pop()
		obj := f.peek()
		if !obj.IsObject() {
			return value.Undefined(), flowNone, vm.throwTypeError("cannot set private field of non-object")
		}
		obj.AsObject().PrivateSet(sym.Sym(ins.Name), val)
	case compiler.OpDeleteProp:
		var key value.PropertyKey
		var obj value.Value
		if ins.Operand == 1 {
			k := f.pop()
			obj = f.pop()
			key = value.PropertyKeyFromValue(k, vm.interner)
		} else {
			obj = f.pop()
			key = value.StringKey(sym.Sym(ins.Name))
		}
		if !obj.IsObject() {
			f.push(value.Bool(true))
		} else {
			f.push(value.Bool(obj.AsObject().Delete(key)))
		}

	case compiler.OpNewObject:
		o := value.NewObject(vm.objectProto)
		vm.Heap.Alloc(o)
		f.push(value.ObjectVal(o))
	case compiler.OpNewArray:
		f.push(vm.newArray(nil))
	case compiler.OpNewArrayFromElems:
		n := int(ins.Operand)
		slots := make([]value.Value, n)
		for i := n - 1; i >= 0; i-- {
			slots[i] = f.pop()
		}
		var elems []value.Value
		for _, s := range slots {
			if s.IsObject() {
				if m, ok := s.AsObject().Data().(*spreadMarker); ok {
					elems = append(elems, m.values...)
					continue
				}
			}
			elems = append(elems, s)
		}
		f.push(vm.newArray(elems))
	case compiler.OpAppendElement:
		switch ins.Operand {
		case -1:
			iter := f.pop()
			var vals []value.Value
			for {
				v, done := vm.iteratorNext(iter)
				if done {
					break
				}
				vals = append(vals, v)
			}
			marker := value.NewObjectOfKind(nil, value.KindObjectHost)
			marker.SetData(&spreadMarker{values: vals})
			vm.Heap.Alloc(marker)
			f.push(value.ObjectVal(marker))
		case -2:
			src := f.pop()
			dst := f.peek()
			if src.IsObject() && dst.IsObject() {
				for _, k := range src.AsObject().Properties().OwnKeys() {
					if k.Kind() == value.KeySymbol {
						continue
					}
					if d, ok := src.AsObject().Properties().GetOwn(k); ok && d.Enumerable {
						dst.AsObject().Set(k, d.Value)
					}
				}
			}
		}
	case compiler.OpMakeFunction:
		cb := f.cb.Functions[ins.Operand]
		f.push(vm.makeFunction(cb, f.env))
	case compiler.OpMakeClass:
		if err := vm.makeClass(f, int(ins.Operand)); err != nil {
			return value.Undefined(), flowNone, err
		}
	case compiler.OpMakeRegExp:
		cr := f.cb.Regexps[ins.Operand]
		f.push(vm.newRegExp(cr))

	case compiler.OpAdd:
		r, l := f.pop(), f.pop()
		v, err := vm.add(l, r)
		if err != nil {
			return value.Undefined(), flowNone, err
		}
		f.push(v)
	case compiler.OpSub, compiler.OpMul, compiler.OpDiv, compiler.OpMod, compiler.OpExp,
		compiler.OpBitAnd, compiler.OpBitOr, compiler.OpBitXor, compiler.OpShl, compiler.OpShr, compiler.OpUShr:
		r, l := f.pop(), f.pop()
		v, err := vm.numericBinOp(ins.Op, l, r)
		if err != nil {
			return value.Undefined(), flowNone, err
		}
		f.push(v)
	case compiler.OpNeg:
		v := f.pop()
		f.push(value.Float64(-vm.toNumber(v)))
	case compiler.OpPlus:
		v := f.pop()
		f.push(value.Float64(vm.toNumber(v)))
	case compiler.OpBitNot:
		v := f.pop()
		f.push(value.Int32(^toInt32(vm.toNumber(v))))
	case compiler.OpNot:
		v := f.pop()
		f.push(value.Bool(!v.ToBoolean()))

	case compiler.OpEq:
		r, l := f.pop(), f.pop()
		f.push(value.Bool(vm.looseEquals(l, r)))
	case compiler.OpNotEq:
		r, l := f.pop(), f.pop()
		f.push(value.Bool(!vm.looseEquals(l, r)))
	case compiler.OpStrictEq:
		r, l := f.pop(), f.pop()
		f.push(value.Bool(strictEquals(l, r)))
	case compiler.OpStrictNotEq:
		r, l := f.pop(), f.pop()
		f.push(value.Bool(!strictEquals(l, r)))
	case compiler.OpLt, compiler.OpGt, compiler.OpLtEq, compiler.OpGtEq:
		r, l := f.pop(), f.pop()
		res, ok := vm.compare(ins.Op, l, r)
		f.push(value.Bool(ok && res))
	case compiler.OpInstanceOf:
		r, l := f.pop(), f.pop()
		res, err := vm.instanceOf(l, r)
		if err != nil {
			return value.Undefined(), flowNone, err
		}
		f.push(value.Bool(res))
	case compiler.OpIn:
		r, l := f.pop(), f.pop()
		if !r.IsObject() {
			return value.Undefined(), flowNone, vm.throwTypeError("cannot use 'in' operator on non-object")
		}
		_, _, ok := r.AsObject().GetOwnWithProto(value.PropertyKeyFromValue(l, vm.interner))
		f.push(value.Bool(ok))
	case compiler.OpTypeOf:
		v := f.pop()
		f.push(value.StringVal(jsstring.New(v.TypeOf())))

	case compiler.OpJump:
		f.pc = int(ins.Operand)
	case compiler.OpJumpIfFalse:
		if !f.pop().ToBoolean() {
			f.pc = int(ins.Operand)
		}
	case compiler.OpJumpIfTrue:
		if f.pop().ToBoolean() {
			f.pc = int(ins.Operand)
		}
	case compiler.OpJumpIfNullish:
		if f.peek().IsNullish() {
			f.pc = int(ins.Operand)
		}

	case compiler.OpCall:
		return vm.execCall(f, int(ins.Operand), false)
	case compiler.OpCallMethod:
		return vm.execCall(f, int(ins.Operand), true)
	case compiler.OpNew:
		n := int(ins.Operand)
		args := vm.popArgs(f, n)
		callee := f.pop()
		res, err := vm.Construct(callee, args)
		if err != nil {
			return value.Undefined(), flowNone, err
		}
		f.push(res)
	case compiler.OpReturn:
		return f.pop(), flowReturn, nil
	case compiler.OpThrow:
		return value.Undefined(), flowNone, &ThrownError{Value: f.pop()}

	case compiler.OpGetIterator:
		src := f.pop()
		it, err := vm.getIterator(src, ast.ForInOfKind(ins.Operand))
		if err != nil {
			return value.Undefined(), flowNone, err
		}
		f.push(it)
	case compiler.OpIteratorNext:
		v, done := vm.iteratorNext(f.peek())
		f.push(v)
		f.push(value.Bool(done))
	case compiler.OpIteratorClose:
		f.pop()

	case compiler.OpPushFinallyContext, compiler.OpPopFinallyContext:
		// No compiled instructions currently emit these (finally blocks
		// run only along the fallthrough path, not via the handler
		// table — see DESIGN.md); kept as recognised no-ops so an
		// unexpected future emission fails loudly elsewhere rather than
		// silently here.

	case compiler.OpYield, compiler.OpAwait:
		// Suspends with the yielded/awaited value; resumeFrame (see
		// generator.go) pushes the eventual next()/throw()/return()
		// value directly back onto this same stack before re-entering
		// run(), so no resumeValue bookkeeping is needed here.
		return f.pop(), flowSuspend, nil

	default:
		return value.Undefined(), flowNone, vm.throwTypeError("unimplemented opcode")
	}
	return value.Undefined(), flowNone, nil
}

// popArgs pops n argument slots (each possibly a spreadMarker, per
// compileCallArgs) and flattens them back into a plain argument slice
// in source order.
func (vm *VM) popArgs(f *Frame, n int) []value.Value {
	slots := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		slots[i] = f.pop()
	}
	var args []value.Value
	for _, s := range slots {
		if s.IsObject() {
			if m, ok := s.AsObject().Data().(*spreadMarker); ok {
				args = append(args, m.values...)
				continue
			}
		}
		args = append(args, s)
	}
	return args
}

func (vm *VM) execCall(f *Frame, n int, method bool) (value.Value, controlFlow, error) {
	args := vm.popArgs(f, n)
	fn := f.pop()
	this := value.Undefined()
	if method {
		this = f.pop()
	}
	res, err := vm.Call(fn, this, args)
	if err != nil {
		return value.Undefined(), flowNone, err
	}
	f.push(res)
	return value.Undefined(), flowNone, nil
}

// getProperty implements [[Get]] for the VM's property-read opcodes:
// strings expose a "length" and indexed-codeunit reads directly (no
// String.prototype wrapper object is synthesised), everything else
// must be an Object. Accessor properties invoke their getter through
// vm.Call.
func (vm *VM) getProperty(receiver value.Value, key value.PropertyKey) (value.Value, error) {
	if receiver.IsString() {
		return vm.getStringProperty(receiver.AsString(), key), nil
	}
	if receiver.IsNullish() {
		return value.Undefined(), vm.throwTypeError("cannot read properties of %s", receiver.TypeOf())
	}
	if !receiver.IsObject() {
		return value.Undefined(), nil
	}
	d, _, ok := receiver.AsObject().GetOwnWithProto(key)
	if !ok {
		return value.Undefined(), nil
	}
	return vm.resolveDescriptor(d, receiver)
}

// resolveDescriptor turns a found PropertyDescriptor into the value a
// `GetProperty` opcode pushes, invoking the getter (with receiver as
// `this`) for an accessor descriptor.
func (vm *VM) resolveDescriptor(d value.PropertyDescriptor, receiver value.Value) (value.Value, error) {
	if d.IsAccessor {
		if d.Get == nil {
			return value.Undefined(), nil
		}
		return vm.Call(value.ObjectVal(d.Get), receiver, nil)
	}
	return d.Value, nil
}

// getPropertyCached is getProperty's call-site-cached fast path for
// `OpGetProp`/`OpGetPropComp` (spec.md §4.4 "Inline caches"): an own
// property never needs the cache (it is already a direct map lookup),
// but a repeatedly-read inherited property — the common case of a
// method shared by every instance of a class — skips the prototype
// walk once cb has observed which prototype serves receiver's shape.
// A cache hit is always re-verified against the owner's live property
// map before use, so a stale entry (the property was deleted or
// shadowed since) degrades to a normal lookup instead of returning a
// wrong value.
func (vm *VM) getPropertyCached(cb *compiler.CodeBlock, receiver value.Value, key value.PropertyKey) (value.Value, error) {
	if !receiver.IsObject() {
		return vm.getProperty(receiver, key)
	}
	obj := receiver.AsObject()
	if d, ok := obj.Properties().GetOwn(key); ok {
		return vm.resolveDescriptor(d, receiver)
	}
	shape := obj.Prototype()
	if shape == nil {
		return value.Undefined(), nil
	}
	if owner, ok := cb.CachedPropertyOwner(shape, key); ok {
		if d, ok := owner.Properties().GetOwn(key); ok {
			return vm.resolveDescriptor(d, receiver)
		}
	}
	d, owner, ok := obj.GetOwnWithProto(key)
	if !ok {
		return value.Undefined(), nil
	}
	cb.SetCachedPropertyOwner(shape, key, owner)
	return vm.resolveDescriptor(d, receiver)
}

func (vm *VM) getStringProperty(s jsstring.JsString, key value.PropertyKey) value.Value {
	if key.Kind() == value.KeyIndex {
		unit, ok := s.CharAt(int(key.Index()))
		if !ok {
			return value.Undefined()
		}
		return value.StringVal(codeUnitString(unit))
	}
	if key.Kind() == value.KeyString && vm.interner.Resolve(key.StringSym()) == "length" {
		return value.Int32(int32(s.Len()))
	}
	return value.Undefined()
}

// setPropertyKinded implements OpSetProp/OpSetPropComp's Operand-coded
// write: 0 installs a data value, 1/2 install the popped function
// value as an accessor getter/setter (object-literal `get`/`set`
// shorthand — the only accessor-defining syntax this engine's
// class-member compilation does not also route through, see
// DESIGN.md).
func (vm *VM) setPropertyKinded(obj value.Value, key value.PropertyKey, val value.Value, kind int) error {
	if !obj.IsObject() {
		return nil
	}
	o := obj.AsObject()
	if kind == 0 {
		if !o.Set(key, val) {
			return nil
		}
		return nil
	}
	existing, _ := o.Properties().GetOwn(key)
	d := value.PropertyDescriptor{IsAccessor: true, Enumerable: true, Configurable: true}
	if existing.IsAccessor {
		d.Get, d.Set = existing.Get, existing.Set
	}
	if kind == 1 {
		d.Get = val.AsObject()
	} else {
		d.Set = val.AsObject()
	}
	o.DefineOwn(key, d)
	return nil
}

// newRegExp builds a fresh RegExp object around a pattern already
// compiled at lowering time (spec.md §3.4), mirroring newArray's
// one-object-per-evaluation shape: two evaluations of the same
// literal are distinct objects that happen to share one
// *value.CompiledRegexp.
func (vm *VM) newRegExp(cr *value.CompiledRegexp) value.Value {
	o := value.NewObjectOfKind(vm.regexpProto, value.KindObjectRegExp)
	o.SetData(cr)
	o.Set(value.StringKey(vm.well.source), value.StringVal(jsstring.New(cr.Source)))
	o.Set(value.StringKey(vm.well.flags), value.StringVal(jsstring.New(cr.Flags)))
	o.Set(value.StringKey(vm.well.lastIndex), value.Int32(0))
	vm.Heap.Alloc(o)
	return value.ObjectVal(o)
}

func (vm *VM) newArray(elems []value.Value) value.Value {
	o := value.NewObjectOfKind(vm.arrayProto, value.KindObjectArray)
	vm.Heap.Alloc(o)
	vm.arrayAppendAll(o, elems)
	return value.ObjectVal(o)
}

func (vm *VM) arrayAppendAll(o *value.Object, elems []value.Value) {
	start := vm.arrayLength(o)
	for i, v := range elems {
		o.Set(value.IndexKey(uint32(start+i)), v)
	}
	o.Set(value.StringKey(vm.well.length), value.Int32(int32(start+len(elems))))
}

func (vm *VM) arrayLength(o *value.Object) int {
	d, ok := o.Properties().GetOwn(value.StringKey(vm.well.length))
	if !ok {
		return 0
	}
	return int(d.Value.AsFloat64())
}

func (vm *VM) makeClass(f *Frame, methodCount int) error {
	type pair struct{ key, val value.Value }
	pairs := make([]pair, methodCount)
	for i := methodCount - 1; i >= 0; i-- {
		pairs[i].val = f.pop()
		pairs[i].key = f.pop()
	}
	ctorVal := f.pop()
	superVal := f.pop()
	if !ctorVal.IsObject() {
		return vm.throwTypeError("class constructor did not compile to a function")
	}
	ctorObj := ctorVal.AsObject()
	protoVal, _, _ := ctorObj.GetOwnWithProto(value.StringKey(vm.well.prototype))
	proto := protoVal.Value.AsObject()
	if superVal.IsObject() {
		superObj := superVal.AsObject()
		superProto, _, _ := superObj.GetOwnWithProto(value.StringKey(vm.well.prototype))
		if superProto.Value.IsObject() {
			proto.SetPrototype(superProto.Value.AsObject())
		}
		ctorObj.SetPrototype(superObj)
	}
	for _, p := range pairs {
		key := value.PropertyKeyFromValue(p.key, vm.interner)
		proto.DefineOwn(key, value.PropertyDescriptor{Value: p.val, Writable: true, Enumerable: false, Configurable: true})
	}
	f.push(ctorVal)
	return nil
}

// --- numeric / equality helpers ---

func (vm *VM) toNumber(v value.Value) float64 {
	switch v.Kind() {
	case value.KindUndefined:
		return math.NaN()
	case value.KindNull:
		return 0
	case value.KindBoolean:
		if v.AsBool() {
			return 1
		}
		return 0
	case value.KindInteger32, value.KindFloat64:
		return v.AsFloat64()
	case value.KindString:
		s := v.AsString().String()
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case value.KindBigInt:
		return math.NaN() // mixing BigInt into Number arithmetic is a TypeError per spec; callers that need that check do so before reaching here
	default:
		return math.NaN()
	}
}

func (vm *VM) toJsString(v value.Value) jsstring.JsString {
	switch v.Kind() {
	case value.KindUndefined:
		return jsstring.New("undefined")
	case value.KindNull:
		return jsstring.New("null")
	case value.KindBoolean:
		if v.AsBool() {
			return jsstring.New("true")
		}
		return jsstring.New("false")
	case value.KindInteger32, value.KindFloat64:
		return jsstring.New(numberToString(v.AsFloat64()))
	case value.KindString:
		return v.AsString()
	case value.KindBigInt:
		return jsstring.New(v.AsBigInt().String())
	case value.KindSymbol:
		return jsstring.New(v.AsSymbol().String())
	default:
		if v.AsObject().IsCallable() {
			return jsstring.New("function () { [native code] }")
		}
		return jsstring.New("[object Object]")
	}
}

func numberToString(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// add implements the `+` operator: string concatenation if either
// operand is a string (after ToNumber-avoiding ToString coercion of
// the other), otherwise numeric addition. BigInt + BigInt adds via
// internal/value.BigInt; mixing BigInt with Number is a TypeError.
func (vm *VM) add(l, r value.Value) (value.Value, error) {
	if l.IsBigInt() || r.IsBigInt() {
		if !l.IsBigInt() || !r.IsBigInt() {
			return value.Undefined(), vm.throwTypeError("cannot mix BigInt and other types")
		}
		return value.BigIntVal(l.AsBigInt().Add(r.AsBigInt())), nil
	}
	if l.IsString() || r.IsString() {
		return value.StringVal(vm.toJsString(l).Concat(vm.toJsString(r))), nil
	}
	return value.Float64(vm.toNumber(l) + vm.toNumber(r)), nil
}

func (vm *VM) numericBinOp(op compiler.Op, l, r value.Value) (value.Value, error) {
	if l.IsBigInt() && r.IsBigInt() {
		return vm.bigIntBinOp(op, l.AsBigInt(), r.AsBigInt())
	}
	a, b := vm.toNumber(l), vm.toNumber(r)
	switch op {
	case compiler.OpSub:
		return value.Float64(a - b), nil
	case compiler.OpMul:
		return value.Float64(a * b), nil
	case compiler.OpDiv:
		return value.Float64(a / b), nil
	case compiler.OpMod:
		return value.Float64(math.Mod(a, b)), nil
	case compiler.OpExp:
		return value.Float64(math.Pow(a, b)), nil
	case compiler.OpBitAnd:
		return value.Int32(toInt32(a) & toInt32(b)), nil
	case compiler.OpBitOr:
		return value.Int32(toInt32(a) | toInt32(b)), nil
	case compiler.OpBitXor:
		return value.Int32(toInt32(a) ^ toInt32(b)), nil
	case compiler.OpShl:
		return value.Int32(toInt32(a) << (toUint32(b) & 31)), nil
	case compiler.OpShr:
		return value.Int32(toInt32(a) >> (toUint32(b) & 31)), nil
	case compiler.OpUShr:
		return value.Int32(int32(toUint32(a) >> (toUint32(b) & 31))), nil
	}
	return value.Undefined(), vm.throwTypeError("unsupported numeric operator")
}

func (vm *VM) bigIntBinOp(op compiler.Op, a, b *value.BigInt) (value.Value, error) {
	switch op {
	case compiler.OpSub:
		return value.BigIntVal(a.Sub(b)), nil
	case compiler.OpMul:
		return value.BigIntVal(a.Mul(b)), nil
	case compiler.OpDiv:
		q, ok := a.Div(b)
		if !ok {
			return value.Undefined(), vm.throwRangeError("division by zero")
		}
		return value.BigIntVal(q), nil
	}
	return value.Undefined(), vm.throwTypeError("unsupported BigInt operator")
}

func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(f)))
}

func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return uint32(int64(f))
}

func strictEquals(l, r value.Value) bool {
	if l.Kind() != r.Kind() {
		return false
	}
	return value.SameValueZero(l, r) && !(l.IsNumber() && math.IsNaN(l.AsFloat64()))
}

// looseEquals implements the `==` abstract equality comparison across
// the subset of coercions this engine needs: same-kind falls back to
// strict equality; number/string and boolean operands are coerced to
// number; null and undefined are mutually (and only mutually) equal.
func (vm *VM) looseEquals(l, r value.Value) bool {
	if l.Kind() == r.Kind() {
		return strictEquals(l, r)
	}
	if l.IsNullish() && r.IsNullish() {
		return true
	}
	if l.IsNullish() || r.IsNullish() {
		return false
	}
	if l.IsNumber() && r.IsString() {
		return l.AsFloat64() == vm.toNumber(r)
	}
	if l.IsString() && r.IsNumber() {
		return vm.toNumber(l) == r.AsFloat64()
	}
	if l.IsBoolean() {
		return vm.looseEquals(value.Float64(vm.toNumber(l)), r)
	}
	if r.IsBoolean() {
		return vm.looseEquals(l, value.Float64(vm.toNumber(r)))
	}
	return false
}

// compare implements the relational operators; ok is false when either
// operand's comparison yields `undefined` (a NaN was involved), which
// every relational operator treats as false.
func (vm *VM) compare(op compiler.Op, l, r value.Value) (bool, bool) {
	if l.IsString() && r.IsString() {
		a, b := l.AsString().String(), r.AsString().String()
		switch op {
		case compiler.OpLt:
			return a < b, true
		case compiler.OpGt:
			return a > b, true
		case compiler.OpLtEq:
			return a <= b, true
		case compiler.OpGtEq:
			return a >= b, true
		}
	}
	a, b := vm.toNumber(l), vm.toNumber(r)
	if math.IsNaN(a) || math.IsNaN(b) {
		return false, false
	}
	switch op {
	case compiler.OpLt:
		return a < b, true
	case compiler.OpGt:
		return a > b, true
	case compiler.OpLtEq:
		return a <= b, true
	case compiler.OpGtEq:
		return a >= b, true
	}
	return false, false
}

func (vm *VM) instanceOf(l, r value.Value) (bool, error) {
	if !r.IsObject() || !r.AsObject().IsCallable() {
		return false, vm.throwTypeError("right-hand side of 'instanceof' is not callable")
	}
	if !l.IsObject() {
		return false, nil
	}
	protoVal, _, _ := r.AsObject().GetOwnWithProto(value.StringKey(vm.well.prototype))
	target := protoVal.Value.AsObject()
	if target == nil {
		return false, nil
	}
	for p := l.AsObject().Prototype(); p != nil; p = p.Prototype() {
		if p == target {
			return true, nil
		}
	}
	return false, nil
}
