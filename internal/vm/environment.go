// Package vm implements the engine's fetch-decode-execute loop
// (component G) and the declarative-environment runtime it executes
// against (component H), per spec.md §4.5/§4.6.
package vm

import "github.com/ecmago/ecmago/internal/value"

// Environment is one activated lexical scope's runtime record: a
// fixed-size array of bindings plus a link to the scope it nests
// inside, mirroring internal/parser/scope's compile-time Stack
// one-for-one (spec.md §4.6). The global environment is the one built
// with a nil parent for the top-level script frame; it is never
// popped because nothing ever pops the outermost frame of a running
// script.
//
// A closure holds a shared handle to the Environment chain in which it
// was defined, so a scope survives its enclosing block's exit exactly
// when something still references it (spec.md §4.6).
type Environment struct {
	parent   *Environment
	bindings []value.Value
}

// NewEnvironment allocates a fresh Environment with size binding slots,
// all initially Undefined. A TDZ (declared-but-not-yet-initialised)
// marker distinct from Undefined is not modelled; this is a documented
// simplification (DESIGN.md) traded for a smaller Value representation.
func NewEnvironment(parent *Environment, size int) *Environment {
	return &Environment{parent: parent, bindings: make([]value.Value, size)}
}

// at walks hops parent links up from e, the runtime counterpart of
// VarRef.Hops.
func (e *Environment) at(hops int) *Environment {
	cur := e
	for ; hops > 0 && cur.parent != nil; hops-- {
		cur = cur.parent
	}
	return cur
}

// Get reads the binding at (hops, index) relative to e.
func (e *Environment) Get(hops, index int) value.Value {
	return e.at(hops).bindings[index]
}

// Set writes the binding at (hops, index) relative to e.
func (e *Environment) Set(hops, index int, v value.Value) {
	e.at(hops).bindings[index] = v
}

// WalkRoots visits every Value reachable from e and its ancestors,
// satisfying gc.Root so a live Frame (or a closure/generator that
// outlives its frame) keeps its captured scopes from being collected.
func (e *Environment) WalkRoots(fn func(value.Value)) {
	for cur := e; cur != nil; cur = cur.parent {
		for _, v := range cur.bindings {
			fn(v)
		}
	}
}
