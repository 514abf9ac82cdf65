// Package builtins installs the engine's standard library onto a
// freshly constructed VM's global object and shared prototypes. It sits
// above internal/vm (which only wires the bare minimum of prototype
// chain its own thrown errors and `typeof`/`instanceof` checks need)
// and is itself wired in by engine.NewContext at realm-setup time, the
// same split the teacher draws between its core EVM interpreter and
// the precompiled contracts/ABI helpers layered on top of it.
package builtins

import "github.com/ecmago/ecmago/internal/vm"

// Install populates v's Object/Function/Array/Error/Math prototypes
// and global bindings. Called exactly once per VM, immediately after
// vm.New.
func Install(v *vm.VM) {
	installObject(v)
	installFunction(v)
	installArray(v)
	installError(v)
	installMath(v)
	installJSON(v)
	installGlobalFunctions(v)
}
