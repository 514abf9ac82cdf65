package vm

import (
	"fmt"

	"github.com/ecmago/ecmago/internal/jsstring"
	"github.com/ecmago/ecmago/internal/value"
)

// ThrownError wraps a thrown JavaScript value so it can travel back
// through Go's own call stack (internal/vm recurses one Go frame per
// nested CodeBlock call) to the point a handler table entry — or
// nothing — catches it (spec.md §4.5 "no handler found ... frame pops
// and search continues in caller").
type ThrownError struct {
	Value value.Value
}

func (e *ThrownError) Error() string {
	return fmt.Sprintf("uncaught exception: %s", describeThrown(e.Value))
}

func describeThrown(v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		return v.AsString().String()
	case value.KindObject:
		return "[object]"
	default:
		return v.TypeOf()
	}
}

// throwTypeError/throwRangeError/throwReferenceError build the engine's
// own internal errors (property-access-on-null-or-undefined, calling a
// non-function, etc.) as plain ordinary objects carrying a `message`
// string and a `name` tag, matching the minimal error taxonomy
// spec.md §7 describes; internal/builtins installs the real
// Error/TypeError/... prototypes onto these at realm-setup time, so the
// VM only needs to tag kind + message here.
func (vm *VM) newError(kind, message string) value.Value {
	obj := value.NewObject(vm.errorProto(kind))
	obj.SetData(&errorData{kind: kind, message: message})
	vm.Heap.Alloc(obj)
	obj.Set(value.StringKey(vm.well.message), value.StringVal(jsstring.New(message)))
	obj.Set(value.StringKey(vm.well.name), value.StringVal(jsstring.New(kind)))
	return value.ObjectVal(obj)
}

// errorData is the kind-specific payload installed on an engine-thrown
// error object's Data().
type errorData struct {
	kind    string
	message string
}

func (vm *VM) throwTypeError(format string, args ...any) *ThrownError {
	return &ThrownError{Value: vm.newError("TypeError", fmt.Sprintf(format, args...))}
}

func (vm *VM) throwReferenceError(format string, args ...any) *ThrownError {
	return &ThrownError{Value: vm.newError("ReferenceError", fmt.Sprintf(format, args...))}
}

func (vm *VM) throwRangeError(format string, args ...any) *ThrownError {
	return &ThrownError{Value: vm.newError("RangeError", fmt.Sprintf(format, args...))}
}
