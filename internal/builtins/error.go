package builtins

import (
	"github.com/ecmago/ecmago/internal/value"
	"github.com/ecmago/ecmago/internal/vm"
)

// errorKinds lists the engine's error taxonomy in the order the base
// Error is installed first (so the others' prototypes can chain off
// it), matching the set vm.New already pre-allocates a bare prototype
// for (internal/vm/vm.go).
var errorKinds = []string{"Error", "TypeError", "RangeError", "ReferenceError", "SyntaxError"}

// installError wires a "message"/"name" carrying toString onto every
// error prototype and a constructor function for each kind, chaining
// every subclass's prototype off the base Error.prototype the way
// `class TypeError extends Error` would.
func installError(v *vm.VM) {
	base := v.ErrorProto("Error")
	base.SetPrototype(v.ObjectProto())
	base.Set(v.StringKey("name"), value.StringVal(jsNew("Error")))
	base.Set(v.StringKey("message"), value.StringVal(jsNew("")))

	v.DefineMethod(base, "toString", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsObject() {
			return value.StringVal(jsNew("Error")), nil
		}
		name := "Error"
		if nv, err := v.GetProperty(this, v.StringKey("name")); err == nil && !nv.IsUndefined() {
			name = v.ToJsString(nv).String()
		}
		msg := ""
		if mv, err := v.GetProperty(this, v.StringKey("message")); err == nil && !mv.IsUndefined() {
			msg = v.ToJsString(mv).String()
		}
		if msg == "" {
			return value.StringVal(jsNew(name)), nil
		}
		return value.StringVal(jsNew(name + ": " + msg)), nil
	})

	for _, kind := range errorKinds {
		kind := kind
		proto := v.ErrorProto(kind)
		if kind != "Error" {
			proto.SetPrototype(base)
		}
		proto.Set(v.StringKey("name"), value.StringVal(jsNew(kind)))

		ctor := v.NewConstructor(kind, 1, proto, func(this value.Value, args []value.Value, newTarget *value.Object) (value.Value, error) {
			msg := arg(args, 0)
			target := this
			if !target.IsObject() {
				o := value.NewObject(proto)
				v.Alloc(o)
				target = value.ObjectVal(o)
			}
			if !msg.IsUndefined() {
				target.AsObject().Set(v.StringKey("message"), value.StringVal(v.ToJsString(msg)))
			}
			return target, nil
		})
		proto.Set(v.StringKey("constructor"), ctor)
		v.GlobalObject().Set(v.StringKey(kind), ctor)
	}
}
