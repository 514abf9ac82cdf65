package vm

import (
	"strconv"
	"unicode/utf16"

	"github.com/ecmago/ecmago/internal/ast"
	"github.com/ecmago/ecmago/internal/jsstring"
	"github.com/ecmago/ecmago/internal/value"
)

// nativeIterator backs OpGetIterator/OpIteratorNext for the engine's own
// iterable kinds (arrays, strings, for-in key enumeration, and
// array-like objects). A generic Symbol.iterator protocol dispatching
// into user-defined `next()` methods is not implemented: every
// iterable this VM drives is one it can enumerate directly itself
// (spec.md §4.5 scopes the interpreter's own iteration needs — see
// DESIGN.md).
type nativeIterator struct {
	forIn bool
	keys  []value.PropertyKey // for-in: remaining enumerable key strings
	obj   *value.Object       // for-in: source object, to re-check liveness

	elems []value.Value // for-of over an array/array-like object
	str   *value.Value  // for-of over a string, code-unit at a time
	pos   int
	len   int
}

// getIterator implements OpGetIterator: src is the already-evaluated
// source value; the returned Value is a host object wrapping a
// nativeIterator, pushed by the caller.
func (vm *VM) getIterator(src value.Value, kind ast.ForInOfKind) (value.Value, error) {
	it := &nativeIterator{}
	if kind == ast.ForIn {
		it.forIn = true
		if src.IsObject() {
			it.obj = src.AsObject()
			seen := make(map[value.PropertyKey]bool)
			for cur := it.obj; cur != nil; cur = cur.Prototype() {
				for _, k := range cur.Properties().OwnKeys() {
					if k.Kind() == value.KeySymbol || seen[k] {
						continue
					}
					seen[k] = true
					if d, ok := cur.Properties().GetOwn(k); ok && d.Enumerable {
						it.keys = append(it.keys, k)
					}
				}
			}
		}
		return vm.wrapIterator(it), nil
	}
	switch {
	case src.IsString():
		s := src
		it.str = &s
		strVal := s.AsString()
		it.len = strVal.Len()
	case src.IsObject():
		obj := src.AsObject()
		length := 0
		if d, _, ok := obj.GetOwnWithProto(value.StringKey(vm.well.length)); ok {
			length = int(d.Value.AsFloat64())
		}
		for i := 0; i < length; i++ {
			d, _, _ := obj.GetOwnWithProto(value.IndexKey(uint32(i)))
			it.elems = append(it.elems, d.Value)
		}
		it.len = len(it.elems)
	default:
		return value.Undefined(), vm.throwTypeError("value is not iterable")
	}
	return vm.wrapIterator(it), nil
}

func (vm *VM) wrapIterator(it *nativeIterator) value.Value {
	obj := value.NewObjectOfKind(nil, value.KindObjectHost)
	obj.SetData(it)
	vm.Heap.Alloc(obj)
	return value.ObjectVal(obj)
}

// iteratorNext implements OpIteratorNext: iterVal is peeked (not
// popped) by the caller. Returns (value, done); value is Undefined
// once done is true.
func (vm *VM) iteratorNext(iterVal value.Value) (value.Value, bool) {
	if !iterVal.IsObject() {
		return value.Undefined(), true
	}
	it, ok := iterVal.AsObject().Data().(*nativeIterator)
	if !ok {
		return value.Undefined(), true
	}
	if it.forIn {
		for it.pos < len(it.keys) {
			k := it.keys[it.pos]
			it.pos++
			if _, _, ok := it.obj.GetOwnWithProto(k); !ok {
				continue // deleted mid-enumeration
			}
			return vm.keyToValue(k), false
		}
		return value.Undefined(), true
	}
	if it.str != nil {
		if it.pos >= it.len {
			return value.Undefined(), true
		}
		unit, _ := it.str.AsString().CharAt(it.pos)
		it.pos++
		return value.StringVal(codeUnitString(unit)), false
	}
	if it.pos >= it.len {
		return value.Undefined(), true
	}
	v := it.elems[it.pos]
	it.pos++
	return v, false
}

func (vm *VM) keyToValue(k value.PropertyKey) value.Value {
	switch k.Kind() {
	case value.KeyString:
		return value.StringVal(jsstring.New(vm.interner.Resolve(k.StringSym())))
	case value.KeySymbol:
		return value.SymbolVal(k.Symbol())
	default:
		return value.StringVal(jsstring.New(strconv.FormatUint(uint64(k.Index()), 10)))
	}
}

// codeUnitString renders a single UTF-16 code unit back to a JsString;
// a lone surrogate half (splitting an astral character, matching
// JavaScript's own UTF-16 string view) decodes to the Unicode
// replacement character, since JsString's UTF-8 backing store cannot
// hold an unpaired surrogate.
func codeUnitString(unit uint16) jsstring.JsString {
	r := utf16.Decode([]uint16{unit})
	return jsstring.New(string(r))
}
