package engine

import (
	"github.com/ecmago/ecmago/internal/jsstring"
	"github.com/ecmago/ecmago/internal/value"
)

// Value is the host-facing JavaScript value handle: a type alias for
// internal/value.Value rather than a wrapper struct, so a caller can
// invoke its IsObject/AsObject/ToBoolean/... methods directly without
// importing the internal package itself, and so passing a Value into
// or out of internal/vm (via Context's own plumbing) is a zero-cost
// identity, never a conversion.
type Value = value.Value

// Undefined, Null, Bool, Number and String construct the primitive
// Values a host-supplied native function (Context.NewFunction) returns
// to calling script — re-exported from internal/value so a caller never
// needs to import it just to build a return value.
func Undefined() Value       { return value.Undefined() }
func Null() Value            { return value.Null() }
func Bool(b bool) Value      { return value.Bool(b) }
func Number(f float64) Value { return value.Float64(f) }
func String(s string) Value  { return value.StringVal(jsstring.New(s)) }
