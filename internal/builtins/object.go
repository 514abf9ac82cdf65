package builtins

import (
	"github.com/ecmago/ecmago/internal/jsstring"
	"github.com/ecmago/ecmago/internal/value"
	"github.com/ecmago/ecmago/internal/vm"
)

// installObject wires Object.prototype's own methods (toString,
// hasOwnProperty, isPrototypeOf) and the Object constructor's static
// methods (keys/values/entries/assign/freeze/seal/getPrototypeOf/
// getOwnPropertyDescriptor), then binds the constructor as the global
// "Object".
func installObject(v *vm.VM) {
	proto := v.ObjectProto()

	v.DefineMethod(proto, "hasOwnProperty", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsObject() {
			return value.Bool(false), nil
		}
		key := value.PropertyKeyFromValue(arg(args, 0), v.Interner())
		_, ok := this.AsObject().Properties().GetOwn(key)
		return value.Bool(ok), nil
	})

	v.DefineMethod(proto, "isPrototypeOf", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o := arg(args, 0)
		if !this.IsObject() || !o.IsObject() {
			return value.Bool(false), nil
		}
		target := this.AsObject()
		for cur := o.AsObject().Prototype(); cur != nil; cur = cur.Prototype() {
			if cur == target {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})

	v.DefineMethod(proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.StringVal(v.ToJsString(this)), nil
	})

	ctor := v.NewConstructor("Object", 1, proto, func(this value.Value, args []value.Value, newTarget *value.Object) (value.Value, error) {
		a := arg(args, 0)
		if a.IsNullish() {
			return value.ObjectVal(v.NewPlainObject()), nil
		}
		if a.IsObject() {
			return a, nil
		}
		return value.ObjectVal(v.NewPlainObject()), nil
	})
	proto.Set(v.StringKey("constructor"), ctor)
	ctorObj := ctor.AsObject()

	v.DefineMethod(ctorObj, "keys", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, err := requireObject(v, arg(args, 0))
		if err != nil {
			return value.Undefined(), err
		}
		var keys []value.Value
		for _, k := range o.Properties().OwnKeys() {
			if k.Kind() == value.KeySymbol {
				continue
			}
			d, _ := o.Properties().GetOwn(k)
			if !d.Enumerable {
				continue
			}
			keys = append(keys, value.StringVal(jsstring.New(v.ResolveKeyName(k))))
		}
		return v.NewArrayFromElements(keys), nil
	})

	v.DefineMethod(ctorObj, "values", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, err := requireObject(v, arg(args, 0))
		if err != nil {
			return value.Undefined(), err
		}
		var vals []value.Value
		for _, k := range o.Properties().OwnKeys() {
			if k.Kind() == value.KeySymbol {
				continue
			}
			d, _ := o.Properties().GetOwn(k)
			if !d.Enumerable {
				continue
			}
			pv, err := v.GetProperty(value.ObjectVal(o), k)
			if err != nil {
				return value.Undefined(), err
			}
			vals = append(vals, pv)
		}
		return v.NewArrayFromElements(vals), nil
	})

	v.DefineMethod(ctorObj, "entries", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, err := requireObject(v, arg(args, 0))
		if err != nil {
			return value.Undefined(), err
		}
		var pairs []value.Value
		for _, k := range o.Properties().OwnKeys() {
			if k.Kind() == value.KeySymbol {
				continue
			}
			d, _ := o.Properties().GetOwn(k)
			if !d.Enumerable {
				continue
			}
			pv, err := v.GetProperty(value.ObjectVal(o), k)
			if err != nil {
				return value.Undefined(), err
			}
			pairs = append(pairs, v.NewArrayFromElements([]value.Value{value.StringVal(jsstring.New(v.ResolveKeyName(k))), pv}))
		}
		return v.NewArrayFromElements(pairs), nil
	})

	v.DefineMethod(ctorObj, "assign", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		target, err := requireObject(v, arg(args, 0))
		if err != nil {
			return value.Undefined(), err
		}
		for _, src := range args[1:] {
			if !src.IsObject() {
				continue
			}
			so := src.AsObject()
			for _, k := range so.Properties().OwnKeys() {
				d, _ := so.Properties().GetOwn(k)
				if !d.Enumerable {
					continue
				}
				pv, err := v.GetProperty(src, k)
				if err != nil {
					return value.Undefined(), err
				}
				target.Set(k, pv)
			}
		}
		return value.ObjectVal(target), nil
	})

	v.DefineMethod(ctorObj, "freeze", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		a := arg(args, 0)
		if a.IsObject() {
			a.AsObject().Freeze()
		}
		return a, nil
	})

	v.DefineMethod(ctorObj, "isFrozen", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		a := arg(args, 0)
		if !a.IsObject() {
			return value.Bool(true), nil
		}
		return value.Bool(a.AsObject().Frozen()), nil
	})

	v.DefineMethod(ctorObj, "seal", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		a := arg(args, 0)
		if a.IsObject() {
			a.AsObject().Seal()
		}
		return a, nil
	})

	v.DefineMethod(ctorObj, "isSealed", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		a := arg(args, 0)
		if !a.IsObject() {
			return value.Bool(true), nil
		}
		return value.Bool(a.AsObject().Sealed()), nil
	})

	v.DefineMethod(ctorObj, "preventExtensions", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		a := arg(args, 0)
		if a.IsObject() {
			a.AsObject().PreventExtensions()
		}
		return a, nil
	})

	v.DefineMethod(ctorObj, "getPrototypeOf", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, err := requireObject(v, arg(args, 0))
		if err != nil {
			return value.Undefined(), err
		}
		if p := o.Prototype(); p != nil {
			return value.ObjectVal(p), nil
		}
		return value.Null(), nil
	})

	v.DefineMethod(ctorObj, "setPrototypeOf", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		o, err := requireObject(v, arg(args, 0))
		if err != nil {
			return value.Undefined(), err
		}
		p := arg(args, 1)
		if p.IsObject() {
			o.SetPrototype(p.AsObject())
		} else {
			o.SetPrototype(nil)
		}
		return arg(args, 0), nil
	})

	v.DefineMethod(ctorObj, "create", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		p := arg(args, 0)
		var proto *value.Object
		if p.IsObject() {
			proto = p.AsObject()
		}
		o := value.NewObject(proto)
		v.Alloc(o)
		return value.ObjectVal(o), nil
	})

	v.DefineMethod(ctorObj, "getOwnPropertyNames", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, err := requireObject(v, arg(args, 0))
		if err != nil {
			return value.Undefined(), err
		}
		var keys []value.Value
		for _, k := range o.Properties().OwnKeys() {
			if k.Kind() == value.KeySymbol {
				continue
			}
			keys = append(keys, value.StringVal(jsstring.New(v.ResolveKeyName(k))))
		}
		return v.NewArrayFromElements(keys), nil
	})

	v.DefineMethod(ctorObj, "getOwnPropertyDescriptor", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		o, err := requireObject(v, arg(args, 0))
		if err != nil {
			return value.Undefined(), err
		}
		key := value.PropertyKeyFromValue(arg(args, 1), v.Interner())
		d, ok := o.Properties().GetOwn(key)
		if !ok {
			return value.Undefined(), nil
		}
		desc := v.NewPlainObject()
		if d.IsAccessor {
			if d.Get != nil {
				desc.Set(v.StringKey("get"), value.ObjectVal(d.Get))
			} else {
				desc.Set(v.StringKey("get"), value.Undefined())
			}
			if d.Set != nil {
				desc.Set(v.StringKey("set"), value.ObjectVal(d.Set))
			} else {
				desc.Set(v.StringKey("set"), value.Undefined())
			}
		} else {
			desc.Set(v.StringKey("value"), d.Value)
			desc.Set(v.StringKey("writable"), value.Bool(d.Writable))
		}
		desc.Set(v.StringKey("enumerable"), value.Bool(d.Enumerable))
		desc.Set(v.StringKey("configurable"), value.Bool(d.Configurable))
		return value.ObjectVal(desc), nil
	})

	v.DefineMethod(ctorObj, "defineProperty", 3, func(this value.Value, args []value.Value) (value.Value, error) {
		o, err := requireObject(v, arg(args, 0))
		if err != nil {
			return value.Undefined(), err
		}
		key := value.PropertyKeyFromValue(arg(args, 1), v.Interner())
		descVal := arg(args, 2)
		if !descVal.IsObject() {
			return value.Undefined(), v.ThrowTypeError("property descriptor must be an object")
		}
		descObj := descVal.AsObject()
		d := value.PropertyDescriptor{}
		get, hasGet := descObj.Properties().GetOwn(v.StringKey("get"))
		set, hasSet := descObj.Properties().GetOwn(v.StringKey("set"))
		if hasGet || hasSet {
			d.IsAccessor = true
			if hasGet && get.Value.IsObject() {
				d.Get = get.Value.AsObject()
			}
			if hasSet && set.Value.IsObject() {
				d.Set = set.Value.AsObject()
			}
		} else if val, ok := descObj.Properties().GetOwn(v.StringKey("value")); ok {
			d.Value = val.Value
		}
		if w, ok := descObj.Properties().GetOwn(v.StringKey("writable")); ok {
			d.Writable = w.Value.AsBool()
		}
		if e, ok := descObj.Properties().GetOwn(v.StringKey("enumerable")); ok {
			d.Enumerable = e.Value.AsBool()
		}
		if c, ok := descObj.Properties().GetOwn(v.StringKey("configurable")); ok {
			d.Configurable = c.Value.AsBool()
		}
		o.DefineOwn(key, d)
		return value.ObjectVal(o), nil
	})

	v.GlobalObject().Set(v.StringKey("Object"), ctor)
}

func requireObject(v *vm.VM, val value.Value) (*value.Object, error) {
	if !val.IsObject() {
		return nil, v.ThrowTypeError("value is not an object")
	}
	return val.AsObject(), nil
}
