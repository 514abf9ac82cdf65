package builtins

import (
	"sort"

	"github.com/ecmago/ecmago/internal/value"
	"github.com/ecmago/ecmago/internal/vm"
)

// installArray wires Array.prototype's common iteration/mutation
// surface (push/pop/shift/unshift/slice/splice/concat/join/indexOf/
// includes/forEach/map/filter/reduce/find/some/every/sort/reverse) and
// the Array constructor's isArray/from/of statics.
func installArray(v *vm.VM) {
	proto := v.ArrayProto()

	elements := func(this value.Value) (*value.Object, int, error) {
		o, err := requireObject(v, this)
		if err != nil {
			return nil, 0, err
		}
		return o, v.ArrayLength(o), nil
	}

	get := func(o *value.Object, i int) (value.Value, error) {
		return v.GetProperty(value.ObjectVal(o), value.IndexKey(uint32(i)))
	}

	v.DefineMethod(proto, "push", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		v.ArrayAppend(o, args)
		return value.Int32(int32(n + len(args))), nil
	})

	v.DefineMethod(proto, "pop", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		if n == 0 {
			return value.Undefined(), nil
		}
		last, err := get(o, n-1)
		if err != nil {
			return value.Undefined(), err
		}
		o.Delete(value.IndexKey(uint32(n - 1)))
		o.Set(v.StringKey("length"), value.Int32(int32(n-1)))
		return last, nil
	})

	v.DefineMethod(proto, "shift", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		if n == 0 {
			return value.Undefined(), nil
		}
		first, err := get(o, 0)
		if err != nil {
			return value.Undefined(), err
		}
		for i := 1; i < n; i++ {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			o.Set(value.IndexKey(uint32(i-1)), ev)
		}
		o.Delete(value.IndexKey(uint32(n - 1)))
		o.Set(v.StringKey("length"), value.Int32(int32(n-1)))
		return first, nil
	})

	v.DefineMethod(proto, "unshift", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		shift := len(args)
		for i := n - 1; i >= 0; i-- {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			o.Set(value.IndexKey(uint32(i+shift)), ev)
		}
		for i, a := range args {
			o.Set(value.IndexKey(uint32(i)), a)
		}
		o.Set(v.StringKey("length"), value.Int32(int32(n+shift)))
		return value.Int32(int32(n + shift)), nil
	})

	v.DefineMethod(proto, "slice", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		start, end := sliceRange(v, args, n)
		var out []value.Value
		for i := start; i < end; i++ {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			out = append(out, ev)
		}
		return v.NewArrayFromElements(out), nil
	})

	v.DefineMethod(proto, "splice", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		start := clampIndex(int(v.ToNumber(arg(args, 0))), n)
		deleteCount := n - start
		if len(args) > 1 {
			deleteCount = clampCount(int(v.ToNumber(args[1])), n-start)
		}
		var removed []value.Value
		for i := 0; i < deleteCount; i++ {
			ev, err := get(o, start+i)
			if err != nil {
				return value.Undefined(), err
			}
			removed = append(removed, ev)
		}
		var inserted []value.Value
		if len(args) > 2 {
			inserted = args[2:]
		}
		tail := make([]value.Value, 0, n-start-deleteCount)
		for i := start + deleteCount; i < n; i++ {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			tail = append(tail, ev)
		}
		idx := start
		for _, iv := range inserted {
			o.Set(value.IndexKey(uint32(idx)), iv)
			idx++
		}
		for _, tv := range tail {
			o.Set(value.IndexKey(uint32(idx)), tv)
			idx++
		}
		for i := idx; i < n; i++ {
			o.Delete(value.IndexKey(uint32(i)))
		}
		o.Set(v.StringKey("length"), value.Int32(int32(idx)))
		return v.NewArrayFromElements(removed), nil
	})

	v.DefineMethod(proto, "concat", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		var out []value.Value
		for i := 0; i < n; i++ {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			out = append(out, ev)
		}
		for _, a := range args {
			if a.IsObject() && a.AsObject().Kind() == value.KindObjectArray {
				m := v.ArrayLength(a.AsObject())
				for i := 0; i < m; i++ {
					ev, err := v.GetProperty(a, value.IndexKey(uint32(i)))
					if err != nil {
						return value.Undefined(), err
					}
					out = append(out, ev)
				}
			} else {
				out = append(out, a)
			}
		}
		return v.NewArrayFromElements(out), nil
	})

	v.DefineMethod(proto, "join", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		sep := ","
		if len(args) > 0 && !args[0].IsUndefined() {
			sep = v.ToJsString(args[0]).String()
		}
		s := ""
		for i := 0; i < n; i++ {
			if i > 0 {
				s += sep
			}
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			if !ev.IsNullish() {
				s += v.ToJsString(ev).String()
			}
		}
		return value.StringVal(jsNew(s)), nil
	})

	v.DefineMethod(proto, "reverse", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			vi, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			vj, err := get(o, j)
			if err != nil {
				return value.Undefined(), err
			}
			o.Set(value.IndexKey(uint32(i)), vj)
			o.Set(value.IndexKey(uint32(j)), vi)
		}
		return this, nil
	})

	v.DefineMethod(proto, "indexOf", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		target := arg(args, 0)
		for i := 0; i < n; i++ {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			if v.StrictEquals(ev, target) {
				return value.Int32(int32(i)), nil
			}
		}
		return value.Int32(-1), nil
	})

	v.DefineMethod(proto, "includes", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		target := arg(args, 0)
		for i := 0; i < n; i++ {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			if value.SameValueZero(ev, target) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})

	v.DefineMethod(proto, "forEach", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		cb := arg(args, 0)
		thisArg := arg(args, 1)
		for i := 0; i < n; i++ {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			if _, err := v.Call(cb, thisArg, []value.Value{ev, value.Int32(int32(i)), this}); err != nil {
				return value.Undefined(), err
			}
		}
		return value.Undefined(), nil
	})

	v.DefineMethod(proto, "map", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		cb := arg(args, 0)
		thisArg := arg(args, 1)
		out := make([]value.Value, n)
		for i := 0; i < n; i++ {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			rv, err := v.Call(cb, thisArg, []value.Value{ev, value.Int32(int32(i)), this})
			if err != nil {
				return value.Undefined(), err
			}
			out[i] = rv
		}
		return v.NewArrayFromElements(out), nil
	})

	v.DefineMethod(proto, "filter", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		cb := arg(args, 0)
		thisArg := arg(args, 1)
		var out []value.Value
		for i := 0; i < n; i++ {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			rv, err := v.Call(cb, thisArg, []value.Value{ev, value.Int32(int32(i)), this})
			if err != nil {
				return value.Undefined(), err
			}
			if truthy(rv) {
				out = append(out, ev)
			}
		}
		return v.NewArrayFromElements(out), nil
	})

	v.DefineMethod(proto, "reduce", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		cb := arg(args, 0)
		i := 0
		var acc value.Value
		if len(args) > 1 {
			acc = args[1]
		} else {
			if n == 0 {
				return value.Undefined(), v.ThrowTypeError("reduce of empty array with no initial value")
			}
			acc, err = get(o, 0)
			if err != nil {
				return value.Undefined(), err
			}
			i = 1
		}
		for ; i < n; i++ {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			acc, err = v.Call(cb, value.Undefined(), []value.Value{acc, ev, value.Int32(int32(i)), this})
			if err != nil {
				return value.Undefined(), err
			}
		}
		return acc, nil
	})

	v.DefineMethod(proto, "find", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		cb := arg(args, 0)
		thisArg := arg(args, 1)
		for i := 0; i < n; i++ {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			rv, err := v.Call(cb, thisArg, []value.Value{ev, value.Int32(int32(i)), this})
			if err != nil {
				return value.Undefined(), err
			}
			if truthy(rv) {
				return ev, nil
			}
		}
		return value.Undefined(), nil
	})

	v.DefineMethod(proto, "findIndex", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		cb := arg(args, 0)
		thisArg := arg(args, 1)
		for i := 0; i < n; i++ {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			rv, err := v.Call(cb, thisArg, []value.Value{ev, value.Int32(int32(i)), this})
			if err != nil {
				return value.Undefined(), err
			}
			if truthy(rv) {
				return value.Int32(int32(i)), nil
			}
		}
		return value.Int32(-1), nil
	})

	v.DefineMethod(proto, "some", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		cb := arg(args, 0)
		thisArg := arg(args, 1)
		for i := 0; i < n; i++ {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			rv, err := v.Call(cb, thisArg, []value.Value{ev, value.Int32(int32(i)), this})
			if err != nil {
				return value.Undefined(), err
			}
			if truthy(rv) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})

	v.DefineMethod(proto, "every", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		cb := arg(args, 0)
		thisArg := arg(args, 1)
		for i := 0; i < n; i++ {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			rv, err := v.Call(cb, thisArg, []value.Value{ev, value.Int32(int32(i)), this})
			if err != nil {
				return value.Undefined(), err
			}
			if !truthy(rv) {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	})

	v.DefineMethod(proto, "sort", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		items := make([]value.Value, n)
		for i := range items {
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			items[i] = ev
		}
		cb := arg(args, 0)
		var sortErr error
		sort.SliceStable(items, func(i, j int) bool {
			if sortErr != nil {
				return false
			}
			if cb.IsObject() && cb.AsObject().IsCallable() {
				rv, err := v.Call(cb, value.Undefined(), []value.Value{items[i], items[j]})
				if err != nil {
					sortErr = err
					return false
				}
				return v.ToNumber(rv) < 0
			}
			return v.ToJsString(items[i]).String() < v.ToJsString(items[j]).String()
		})
		if sortErr != nil {
			return value.Undefined(), sortErr
		}
		for i, iv := range items {
			o.Set(value.IndexKey(uint32(i)), iv)
		}
		return this, nil
	})

	v.DefineMethod(proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		o, n, err := elements(this)
		if err != nil {
			return value.Undefined(), err
		}
		s := ""
		for i := 0; i < n; i++ {
			if i > 0 {
				s += ","
			}
			ev, err := get(o, i)
			if err != nil {
				return value.Undefined(), err
			}
			if !ev.IsNullish() {
				s += v.ToJsString(ev).String()
			}
		}
		return value.StringVal(jsNew(s)), nil
	})

	ctor := v.NewConstructor("Array", 1, proto, func(this value.Value, args []value.Value, newTarget *value.Object) (value.Value, error) {
		if len(args) == 1 && args[0].IsNumber() {
			n := int(v.ToNumber(args[0]))
			a := v.NewArrayObject()
			a.Set(v.StringKey("length"), value.Int32(int32(n)))
			return value.ObjectVal(a), nil
		}
		return v.NewArrayFromElements(args), nil
	})
	ctorObj := ctor.AsObject()
	proto.Set(v.StringKey("constructor"), ctor)

	v.DefineMethod(ctorObj, "isArray", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		a := arg(args, 0)
		return value.Bool(a.IsObject() && a.AsObject().Kind() == value.KindObjectArray), nil
	})

	v.DefineMethod(ctorObj, "of", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return v.NewArrayFromElements(args), nil
	})

	v.DefineMethod(ctorObj, "from", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		src := arg(args, 0)
		mapFn := arg(args, 1)
		if !src.IsObject() {
			return v.NewArrayFromElements(nil), nil
		}
		n := v.ArrayLength(src.AsObject())
		out := make([]value.Value, n)
		for i := 0; i < n; i++ {
			ev, err := v.GetProperty(src, value.IndexKey(uint32(i)))
			if err != nil {
				return value.Undefined(), err
			}
			if mapFn.IsObject() && mapFn.AsObject().IsCallable() {
				rv, err := v.Call(mapFn, value.Undefined(), []value.Value{ev, value.Int32(int32(i))})
				if err != nil {
					return value.Undefined(), err
				}
				ev = rv
			}
			out[i] = ev
		}
		return v.NewArrayFromElements(out), nil
	})

	v.GlobalObject().Set(v.StringKey("Array"), ctor)
}

func truthy(v value.Value) bool {
	switch v.Kind() {
	case value.KindUndefined, value.KindNull:
		return false
	case value.KindBoolean:
		return v.AsBool()
	case value.KindInteger32, value.KindFloat64:
		f := v.AsFloat64()
		return f != 0 && f == f
	case value.KindString:
		str := v.AsString()
		return str.Len() > 0
	default:
		return true
	}
}

func sliceRange(v *vm.VM, args []value.Value, n int) (int, int) {
	start := 0
	end := n
	if len(args) > 0 && !args[0].IsUndefined() {
		start = clampIndex(int(v.ToNumber(args[0])), n)
	}
	if len(args) > 1 && !args[1].IsUndefined() {
		end = clampIndex(int(v.ToNumber(args[1])), n)
	}
	if end < start {
		end = start
	}
	return start, end
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func clampCount(c, max int) int {
	if c < 0 {
		return 0
	}
	if c > max {
		return max
	}
	return c
}
