package builtins

import (
	"github.com/ecmago/ecmago/internal/jsstring"
	"github.com/ecmago/ecmago/internal/value"
)

// arg returns args[i], or Undefined if the call was made with fewer
// arguments than the builtin's formal parameter list — the same
// "missing trailing arguments read as undefined" rule bytecode's own
// OpLoadArg applies.
func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined()
}

// jsNew is a package-local shorthand for jsstring.New, used throughout
// this package's many string-literal results (error names, Array/JSON
// stringification, ...).
func jsNew(s string) jsstring.JsString { return jsstring.New(s) }
