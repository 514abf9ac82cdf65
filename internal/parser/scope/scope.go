// Package scope implements the scope analyser (component E): a stack
// of compile-time scopes, driven by internal/compiler's resolver over
// the parsed AST, mapping identifiers to (scope-index, binding-index)
// locators (spec.md §3.3, §4.3).
package scope

import "github.com/ecmago/ecmago/internal/sym"

// Kind distinguishes the scope flavours that matter for `var`
// hoisting and `this`/`arguments` visibility.
type Kind uint8

const (
	KindBlock Kind = iota
	KindFunction
	KindGlobal
	KindCatch
	KindClass
	KindWith // opens an object environment; never holds declarative bindings itself
)

// Binding is one declared name within a Scope.
type Binding struct {
	Name      sym.Sym
	Index     int
	Mutable   bool
	Kind      VarKind
	Declared  bool // false while between scope entry and the binding's declaration (TDZ)
}

// VarKind records which declaration form produced a Binding, needed to
// apply the right redeclaration rule.
type VarKind uint8

const (
	VarVar VarKind = iota
	VarLet
	VarConst
	VarFunction
	VarClass
	VarParameter
)

// Scope is one compile-time lexical region (spec.md §3.3).
type Scope struct {
	Kind     Kind
	Parent   *Scope
	Index    int // position in the compile-time scope stack, assigned by Stack.Push
	bindings []Binding
	byName   map[sym.Sym]int // name -> index into bindings
	closed   bool            // true once Stack.Pop has fixed the binding count
}

// IsFunctionLike reports whether var-hoisting should stop climbing at
// this scope.
func (s *Scope) IsFunctionLike() bool {
	return s.Kind == KindFunction || s.Kind == KindGlobal
}

// Declare adds a new binding, returning its index. Declare does not
// itself enforce redeclaration rules — callers (internal/compiler's resolver) consult
// Lookup first and apply the rules from spec.md §4.2.
func (s *Scope) Declare(name sym.Sym, mutable bool, kind VarKind) int {
	if s.closed {
		panic("scope: declare after close")
	}
	if s.byName == nil {
		s.byName = make(map[sym.Sym]int)
	}
	idx := len(s.bindings)
	s.bindings = append(s.bindings, Binding{Name: name, Index: idx, Mutable: mutable, Kind: kind})
	s.byName[name] = idx
	return idx
}

// Lookup finds name in this scope only (not ancestors).
func (s *Scope) Lookup(name sym.Sym) (Binding, bool) {
	idx, ok := s.byName[name]
	if !ok {
		return Binding{}, false
	}
	return s.bindings[idx], true
}

// MarkInitialized clears the TDZ flag for idx (called at the
// initialiser's compile point).
func (s *Scope) MarkInitialized(idx int) { s.bindings[idx].Declared = true }

// BindingCount returns the number of bindings declared so far; once
// Close is called this is fixed for good (spec.md §4.3 invariant: "A
// scope's binding count is fixed at the point the scope is popped").
func (s *Scope) BindingCount() int { return len(s.bindings) }

// Close freezes the scope's binding count.
func (s *Scope) Close() { s.closed = true }

// Bindings returns the declared bindings in declaration order.
func (s *Scope) Bindings() []Binding { return s.bindings }

// Stack is the resolver's live stack of open scopes.
type Stack struct {
	top       *Scope
	nextIndex int
}

// NewStack creates a stack seeded with the (never-popped) global scope.
func NewStack() *Stack {
	s := &Stack{}
	s.top = &Scope{Kind: KindGlobal, Index: 0}
	s.nextIndex = 1
	return s
}

// Push opens a new scope nested inside the current top.
func (st *Stack) Push(kind Kind) *Scope {
	s := &Scope{Kind: kind, Parent: st.top, Index: st.nextIndex}
	st.nextIndex++
	st.top = s
	return s
}

// Pop closes and removes the current top scope, which must not be the
// global scope (spec.md §3.3: "the outermost is the global scope and
// is never popped").
func (st *Stack) Pop() *Scope {
	if st.top.Parent == nil {
		panic("scope: cannot pop the global scope")
	}
	popped := st.top
	popped.Close()
	st.top = popped.Parent
	return popped
}

// Top returns the innermost open scope.
func (st *Stack) Top() *Scope { return st.top }

// Depth returns how many scopes are currently open, including the
// global scope.
func (st *Stack) Depth() int {
	n := 0
	for s := st.top; s != nil; s = s.Parent {
		n++
	}
	return n
}

// LocatorKind distinguishes the three binding-locator forms of
// spec.md §3.3.
type LocatorKind uint8

const (
	LocatorDeclarative LocatorKind = iota
	LocatorGlobal
	LocatorIllegalWrite
)

// Locator is the compile-time descriptor produced for every
// identifier occurrence (spec.md §3.3, §4.3).
type Locator struct {
	Kind       LocatorKind
	ScopeIndex int
	BindIndex  int
	Name       sym.Sym
}

// Resolve walks the scope stack from innermost outward looking for
// name, implementing spec.md §4.3's algorithm. isWrite distinguishes a
// write occurrence, which turns a hit on an immutable binding into an
// IllegalWrite locator instead of a Declarative one.
func Resolve(start *Scope, name sym.Sym, isWrite bool) Locator {
	for s := start; s != nil; s = s.Parent {
		if b, ok := s.Lookup(name); ok {
			if isWrite && !b.Mutable {
				return Locator{Kind: LocatorIllegalWrite, Name: name}
			}
			return Locator{Kind: LocatorDeclarative, ScopeIndex: s.Index, BindIndex: b.Index, Name: name}
		}
	}
	return Locator{Kind: LocatorGlobal, Name: name}
}

// DeclareVar implements `var`'s hoisting rule: walk outward to the
// nearest function or global scope and declare there, redeclaration
// allowed (spec.md §4.2).
func DeclareVar(start *Scope, name sym.Sym) (*Scope, int) {
	s := start
	for !s.IsFunctionLike() {
		s = s.Parent
	}
	if b, ok := s.Lookup(name); ok {
		return s, b.Index
	}
	return s, s.Declare(name, true, VarVar)
}
