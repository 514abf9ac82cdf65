package value

import (
	"testing"

	"github.com/ecmago/ecmago/internal/sym"
	"github.com/stretchr/testify/require"
)

func TestDenseToSparseConversion(t *testing.T) {
	m := NewPropertyMap()
	require.True(t, m.DefineOwn(IndexKey(0), defaultDataDescriptor(Int32(1))))
	require.True(t, m.DefineOwn(IndexKey(1), defaultDataDescriptor(Int32(2))))
	require.True(t, m.IsDense())

	// A non-default-attribute write forces conversion to sparse.
	require.True(t, m.DefineOwn(IndexKey(2), PropertyDescriptor{Value: Int32(3), Writable: false, Enumerable: true, Configurable: true}))
	require.False(t, m.IsDense())

	// Prior values and their default attributes survive the conversion.
	d0, ok := m.GetOwn(IndexKey(0))
	require.True(t, ok)
	require.Equal(t, int32(1), d0.Value.AsInt32())
	require.True(t, d0.Writable && d0.Enumerable && d0.Configurable)
}

func TestStringKeyInsertionOrder(t *testing.T) {
	in := sym.New()
	m := NewPropertyMap()
	names := []string{"z", "a", "m"}
	for _, n := range names {
		require.True(t, m.DefineOwn(StringKey(in.Intern(n)), defaultDataDescriptor(Int32(1))))
	}
	keys := m.OwnKeys()
	require.Len(t, keys, 3)
	for i, n := range names {
		require.Equal(t, in.Intern(n), keys[i].StringSym())
	}
}

func TestOwnKeysOrdering(t *testing.T) {
	in := sym.New()
	m := NewPropertyMap()
	m.DefineOwn(StringKey(in.Intern("b")), defaultDataDescriptor(Undefined()))
	m.DefineOwn(IndexKey(5), defaultDataDescriptor(Undefined()))
	m.DefineOwn(IndexKey(1), defaultDataDescriptor(Undefined()))
	sm := NewSymbol("s")
	m.DefineOwn(SymbolKey(sm), defaultDataDescriptor(Undefined()))

	keys := m.OwnKeys()
	require.Equal(t, KeyIndex, keys[0].Kind())
	require.Equal(t, uint32(1), keys[0].Index())
	require.Equal(t, KeyIndex, keys[1].Kind())
	require.Equal(t, uint32(5), keys[1].Index())
	require.Equal(t, KeyString, keys[2].Kind())
	require.Equal(t, KeySymbol, keys[3].Kind())
}

func TestFrozenObjectRejectsWrites(t *testing.T) {
	in := sym.New()
	o := NewObject(nil)
	key := StringKey(in.Intern("x"))
	o.Set(key, Int32(1))
	o.Freeze()
	require.False(t, o.Set(key, Int32(2)))
	d, _ := o.Properties().GetOwn(key)
	require.Equal(t, int32(1), d.Value.AsInt32())
}

func TestSealedObjectRejectsNewKeys(t *testing.T) {
	in := sym.New()
	o := NewObject(nil)
	o.Set(StringKey(in.Intern("x")), Int32(1))
	o.Seal()
	require.False(t, o.Set(StringKey(in.Intern("y")), Int32(2)))
	require.True(t, o.Set(StringKey(in.Intern("x")), Int32(9)))
}

func TestPrivateNamesNotEnumerable(t *testing.T) {
	in := sym.New()
	o := NewObject(nil)
	priv := in.Intern("#x")
	o.PrivateSet(priv, Int32(42))
	v, ok := o.PrivateGet(priv)
	require.True(t, ok)
	require.Equal(t, int32(42), v.AsInt32())
	require.Empty(t, o.Properties().OwnKeys())
}

func TestUniqueDescriptorPerKey(t *testing.T) {
	in := sym.New()
	m := NewPropertyMap()
	key := StringKey(in.Intern("x"))
	m.DefineOwn(key, defaultDataDescriptor(Int32(1)))
	m.DefineOwn(key, defaultDataDescriptor(Int32(2)))
	require.Len(t, m.OwnKeys(), 1)
}
