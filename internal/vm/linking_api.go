package vm

import (
	"github.com/ecmago/ecmago/internal/compiler"
	"github.com/ecmago/ecmago/internal/sym"
	"github.com/ecmago/ecmago/internal/value"
)

// RunProgramLinked is RunProgram but also hands back the top-level
// Environment the program ran in, so a caller can read declared
// top-level bindings back out by name once evaluation completes —
// module instantiation (package engine) uses this to resolve a
// module's exported let/const/function/class declarations, which live
// as ordinary local slots rather than Global properties (only a
// genuinely undeclared identifier ever touches vm.Global; see
// compiler/resolver.go's RefGlobal fallback).
func (vm *VM) RunProgramLinked(cb *compiler.CodeBlock) (value.Value, *Environment, error) {
	f := newFrame(cb, value.ObjectVal(vm.Global), nil, nil)
	vm.frames = append(vm.frames, f)
	defer func() { vm.frames = vm.frames[:len(vm.frames)-1] }()
	result, err := vm.run(f)
	return result, f.envStack[0], err
}

// ReadTopBinding resolves name against cb's own TopBindings table and
// reads its value out of env (the Environment RunProgramLinked
// returned for that same cb). ok is false for a name the top-level
// scope never declared.
func (vm *VM) ReadTopBinding(cb *compiler.CodeBlock, env *Environment, name sym.Sym) (result value.Value, ok bool) {
	idx, ok := cb.TopBindings[name]
	if !ok {
		return value.Undefined(), false
	}
	return env.Get(0, idx), true
}
