package builtins

import (
	"github.com/ecmago/ecmago/internal/value"
	"github.com/ecmago/ecmago/internal/vm"
)

// installFunction wires Function.prototype's call/apply/bind and
// toString, the methods every callable value (bytecode closure or
// native builtin alike) needs to support generically.
func installFunction(v *vm.VM) {
	proto := v.FunctionProto()

	v.DefineMethod(proto, "call", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsObject() || !this.AsObject().IsCallable() {
			return value.Undefined(), v.ThrowTypeError("value is not a function")
		}
		thisArg := arg(args, 0)
		rest := []value.Value{}
		if len(args) > 1 {
			rest = args[1:]
		}
		return v.Call(this, thisArg, rest)
	})

	v.DefineMethod(proto, "apply", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsObject() || !this.AsObject().IsCallable() {
			return value.Undefined(), v.ThrowTypeError("value is not a function")
		}
		thisArg := arg(args, 0)
		argArray := arg(args, 1)
		var rest []value.Value
		if argArray.IsObject() {
			n := v.ArrayLength(argArray.AsObject())
			rest = make([]value.Value, n)
			for i := 0; i < n; i++ {
				ev, err := v.GetProperty(argArray, value.IndexKey(uint32(i)))
				if err != nil {
					return value.Undefined(), err
				}
				rest[i] = ev
			}
		}
		return v.Call(this, thisArg, rest)
	})

	v.DefineMethod(proto, "bind", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsObject() || !this.AsObject().IsCallable() {
			return value.Undefined(), v.ThrowTypeError("value is not a function")
		}
		target := this
		boundThis := arg(args, 0)
		var bound []value.Value
		if len(args) > 1 {
			bound = append(bound, args[1:]...)
		}
		return v.NewNativeFunction("bound", 0, func(_ value.Value, callArgs []value.Value) (value.Value, error) {
			full := append(append([]value.Value{}, bound...), callArgs...)
			return v.Call(target, boundThis, full)
		}), nil
	})

	v.DefineMethod(proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.StringVal(v.ToJsString(this)), nil
	})
}
