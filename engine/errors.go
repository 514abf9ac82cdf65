package engine

import (
	"fmt"

	"github.com/ecmago/ecmago/internal/token"
	"github.com/ecmago/ecmago/internal/vm"
)

// ErrorKind classifies an EngineError the way spec.md §7's taxonomy
// does: a syntax failure during parsing, a link failure resolving a
// module graph, or a runtime JavaScript exception that escaped
// uncaught.
type ErrorKind uint8

const (
	// ErrSyntax is a parse failure — no partial AST, no panic, per
	// spec.md §4.2 "Failure semantics".
	ErrSyntax ErrorKind = iota
	// ErrLink is a module graph failure: an import specifier the
	// installed ModuleLoader could not resolve, or a named import that
	// does not exist on the exporting module.
	ErrLink
	// ErrRuntime is an uncaught JavaScript exception — Value holds the
	// thrown value itself (spec.md §7's "runtime errors are ordinary
	// thrown values").
	ErrRuntime
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "SyntaxError"
	case ErrLink:
		return "LinkError"
	case ErrRuntime:
		return "RuntimeError"
	default:
		return "Error"
	}
}

// EngineError is the one error type this package ever returns for a
// script/module failure — spec.md §7's "ordinary result values, never
// panics" rule. Pos is nil when the failure has no single source
// position (a link failure, or a runtime exception whose own position
// was not tracked).
type EngineError struct {
	Kind    ErrorKind
	Message string
	Pos     *token.Position

	// Value holds the thrown JavaScript value for an ErrRuntime error;
	// zero otherwise. Kept separate from Message (which is always a
	// human-readable rendering) so a caller that wants the actual
	// thrown object — to read a custom Error subclass's fields, say —
	// does not have to re-parse Message.
	Value Value

	cause error
}

func (e *EngineError) Error() string {
	if e.Pos != nil {
		return fmt.Sprintf("%s: %s (%d:%d)", e.Kind, e.Message, e.Pos.Line, e.Pos.Column)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying parser/VM error, if any, so
// errors.Is/errors.As still see through an EngineError to e.g. a
// *parser.SyntaxError or *vm.ThrownError.
func (e *EngineError) Unwrap() error { return e.cause }

// fromThrown converts an uncaught *vm.ThrownError into an
// *EngineError, rendering the thrown value's message the way an
// uncaught exception's printed diagnostic would (go-ethereum's own
// console likewise prints an uncaught JS exception's message rather
// than a raw stack dump — see internal/jsre).
func fromThrown(v *vm.VM, err error) *EngineError {
	t, ok := err.(*vm.ThrownError)
	if !ok {
		return &EngineError{Kind: ErrRuntime, Message: err.Error(), cause: err}
	}
	return &EngineError{Kind: ErrRuntime, Message: describeThrownValue(v, t.Value), Value: t.Value, cause: t}
}

// describeThrownValue renders an Error-shaped object as "Name:
// message" by reading its own name/message properties through the
// realm's usual property-access path, falling back to ToString for a
// thrown primitive (`throw "boom"`, `throw 42`).
func describeThrownValue(v *vm.VM, val Value) string {
	if val.IsObject() {
		name, _ := v.GetProperty(val, v.StringKey("name"))
		message, _ := v.GetProperty(val, v.StringKey("message"))
		if name.IsString() || message.IsString() {
			return v.ToJsString(name).String() + ": " + v.ToJsString(message).String()
		}
	}
	return v.ToJsString(val).String()
}
