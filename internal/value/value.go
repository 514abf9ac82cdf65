// Package value implements the engine's value and object model
// (component A of the design: GC & value model). A Value is a small
// tagged struct; Object is the heap-allocated record backing the
// Object variant and is also the unit the tracing collector in
// internal/gc walks.
package value

import (
	"math"

	"github.com/ecmago/ecmago/internal/jsstring"
	"github.com/ecmago/ecmago/internal/sym"
)

// Kind identifies which variant of the tagged union a Value holds.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindInteger32
	KindFloat64
	KindString
	KindBigInt
	KindSymbol
	KindObject
)

// Value is the engine's tagged union of JavaScript value kinds. It is
// small enough to pass by value; Object/String/BigInt/Symbol payloads
// are held behind pointers so copying a Value never deep-copies data.
type Value struct {
	kind Kind
	num  uint64 // bit pattern for Boolean/Integer32/Float64
	str  *jsstring.JsString
	obj  *Object
	big  *BigInt
	sym  *Symbol
}

// Undefined returns the Undefined singleton value.
func Undefined() Value { return Value{kind: KindUndefined} }

// Null returns the Null singleton value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a Boolean value.
func Bool(b bool) Value {
	var n uint64
	if b {
		n = 1
	}
	return Value{kind: KindBoolean, num: n}
}

// Int32 returns an Integer32 fast-path value.
func Int32(i int32) Value {
	return Value{kind: KindInteger32, num: uint64(uint32(i))}
}

// Float64 returns a Float64 value. A NaN argument is canonicalised so
// that every non-number tag stays distinguishable from "not a number"
// (spec.md §3.1 invariant).
func Float64(f float64) Value {
	if math.IsNaN(f) {
		f = math.NaN()
	}
	return Value{kind: KindFloat64, num: math.Float64bits(f)}
}

// StringVal wraps a JsString as a Value.
func StringVal(s jsstring.JsString) Value {
	return Value{kind: KindString, str: &s}
}

// ObjectVal wraps an Object handle as a Value. Cloning the returned
// Value is an O(1) pointer copy per spec.md §3.1.
func ObjectVal(o *Object) Value {
	if o == nil {
		return Undefined()
	}
	return Value{kind: KindObject, obj: o}
}

// BigIntVal wraps a BigInt handle as a Value.
func BigIntVal(b *BigInt) Value { return Value{kind: KindBigInt, big: b} }

// SymbolVal wraps a Symbol handle as a Value.
func SymbolVal(s *Symbol) Value { return Value{kind: KindSymbol, sym: s} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsNullish() bool   { return v.kind == KindUndefined || v.kind == KindNull }
func (v Value) IsBoolean() bool   { return v.kind == KindBoolean }
func (v Value) IsNumber() bool    { return v.kind == KindInteger32 || v.kind == KindFloat64 }
func (v Value) IsString() bool    { return v.kind == KindString }
func (v Value) IsBigInt() bool    { return v.kind == KindBigInt }
func (v Value) IsSymbol() bool    { return v.kind == KindSymbol }
func (v Value) IsObject() bool    { return v.kind == KindObject }

// AsBool returns the boolean payload; callers must check IsBoolean.
func (v Value) AsBool() bool { return v.num != 0 }

// AsInt32 returns the Integer32 payload; callers must check Kind() ==
// KindInteger32.
func (v Value) AsInt32() int32 { return int32(uint32(v.num)) }

// AsFloat64 exposes the IEEE-754 bit pattern under every numeric
// variant (spec.md §3.1 invariant): Integer32 is widened, Float64 is
// returned as stored.
func (v Value) AsFloat64() float64 {
	switch v.kind {
	case KindInteger32:
		return float64(v.AsInt32())
	case KindFloat64:
		return math.Float64frombits(v.num)
	default:
		return math.NaN()
	}
}

// AsString returns the String payload; callers must check IsString.
func (v Value) AsString() jsstring.JsString { return *v.str }

// AsObject returns the Object payload; callers must check IsObject.
func (v Value) AsObject() *Object { return v.obj }

// AsBigInt returns the BigInt payload; callers must check IsBigInt.
func (v Value) AsBigInt() *BigInt { return v.big }

// AsSymbol returns the Symbol payload; callers must check IsSymbol.
func (v Value) AsSymbol() *Symbol { return v.sym }

// SameValueZero implements the SameValueZero algorithm used by
// strict-equality-like internal operations (e.g. Map/Set key
// comparison and Array.prototype.includes): structural, NaN equals
// NaN, +0 equals -0.
func SameValueZero(a, b Value) bool {
	if a.kind != b.kind {
		// Integer32 and Float64 are numerically comparable across kinds.
		if a.IsNumber() && b.IsNumber() {
			return sameFloat(a.AsFloat64(), b.AsFloat64())
		}
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean:
		return a.AsBool() == b.AsBool()
	case KindInteger32:
		return a.AsInt32() == b.AsInt32()
	case KindFloat64:
		return sameFloat(a.AsFloat64(), b.AsFloat64())
	case KindString:
		return a.AsString().Equal(b.AsString())
	case KindBigInt:
		return a.AsBigInt().Cmp(b.AsBigInt()) == 0
	case KindSymbol:
		return a.AsSymbol() == b.AsSymbol()
	case KindObject:
		return a.AsObject() == b.AsObject()
	}
	return false
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}

// ToBoolean implements the abstract ToBoolean operation used by the
// compiler's `ToBoolean` opcode and by JumpIfFalse/JumpIfTrue.
func (v Value) ToBoolean() bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindBoolean:
		return v.AsBool()
	case KindInteger32:
		return v.AsInt32() != 0
	case KindFloat64:
		f := v.AsFloat64()
		return f != 0 && !math.IsNaN(f)
	case KindString:
		return v.AsString().Len() > 0
	case KindBigInt:
		return v.AsBigInt().Sign() != 0
	default:
		return true // Symbol, Object
	}
}

// TypeOf implements the `typeof` operator / TypeOf opcode result.
func (v Value) TypeOf() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "object"
	case KindBoolean:
		return "boolean"
	case KindInteger32, KindFloat64:
		return "number"
	case KindString:
		return "string"
	case KindBigInt:
		return "bigint"
	case KindSymbol:
		return "symbol"
	case KindObject:
		if v.obj.IsCallable() {
			return "function"
		}
		return "object"
	}
	return "undefined"
}

// NameSym is a convenience used by opcodes that address properties or
// bindings by interned name.
type NameSym = sym.Sym
