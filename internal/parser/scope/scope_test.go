package scope

import (
	"testing"

	"github.com/ecmago/ecmago/internal/sym"
	"github.com/stretchr/testify/require"
)

func TestResolveSoundness(t *testing.T) {
	in := sym.New()
	st := NewStack()
	x := in.Intern("x")
	st.Top().Declare(x, true, VarVar)

	inner := st.Push(KindBlock)
	loc := Resolve(inner, x, false)
	require.Equal(t, LocatorDeclarative, loc.Kind)
	require.Less(t, loc.ScopeIndex, st.Depth())
	st.Pop()
}

func TestUnresolvedFallsBackToGlobal(t *testing.T) {
	in := sym.New()
	st := NewStack()
	loc := Resolve(st.Top(), in.Intern("nowhere"), false)
	require.Equal(t, LocatorGlobal, loc.Kind)
}

func TestBindingIndicesContiguous(t *testing.T) {
	in := sym.New()
	st := NewStack()
	s := st.Push(KindBlock)
	s.Declare(in.Intern("a"), true, VarLet)
	s.Declare(in.Intern("b"), true, VarLet)
	s.Declare(in.Intern("c"), true, VarLet)
	for i, b := range s.Bindings() {
		require.Equal(t, i, b.Index)
	}
	require.Equal(t, 3, s.BindingCount())
}

func TestWriteToImmutableBindingIsIllegal(t *testing.T) {
	in := sym.New()
	st := NewStack()
	x := in.Intern("x")
	st.Top().Declare(x, false, VarConst)
	loc := Resolve(st.Top(), x, true)
	require.Equal(t, LocatorIllegalWrite, loc.Kind)
}

func TestVarHoistsToFunctionScope(t *testing.T) {
	in := sym.New()
	st := NewStack()
	fn := st.Push(KindFunction)
	block := st.Push(KindBlock)
	x := in.Intern("x")
	declScope, idx := DeclareVar(block, x)
	require.Same(t, fn, declScope)
	b := fn.Bindings()[idx]
	require.Equal(t, x, b.Name)
}

func TestGlobalScopeNeverPopped(t *testing.T) {
	st := NewStack()
	require.Panics(t, func() { st.Pop() })
}
