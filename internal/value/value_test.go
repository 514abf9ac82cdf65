package value

import (
	"math"
	"testing"

	"github.com/ecmago/ecmago/internal/jsstring"
	"github.com/stretchr/testify/require"
)

func TestKindsDistinguishable(t *testing.T) {
	vals := []Value{
		Undefined(), Null(), Bool(true), Int32(5),
		Float64(1.5), StringVal(jsstring.New("x")),
		BigIntVal(NewBigIntFromInt64(1)), SymbolVal(NewSymbol("s")),
		ObjectVal(NewObject(nil)),
	}
	seen := map[Kind]bool{}
	for _, v := range vals {
		require.False(t, seen[v.Kind()], "kind %v seen twice", v.Kind())
		seen[v.Kind()] = true
	}
}

func TestNaNCanonical(t *testing.T) {
	v := Float64(math.NaN())
	require.True(t, math.IsNaN(v.AsFloat64()))
	require.True(t, v.IsNumber())
}

func TestAsFloat64ExposedForEveryNumber(t *testing.T) {
	require.Equal(t, float64(5), Int32(5).AsFloat64())
	require.Equal(t, 1.5, Float64(1.5).AsFloat64())
}

func TestBooleanComparisonStructuralNotBitwise(t *testing.T) {
	// Boolean(true) must not SameValueZero-compare equal to Integer32(1):
	// comparison is structural (different Kind), not a bitwise accident.
	require.False(t, SameValueZero(Bool(true), Int32(1)))
}

func TestSameValueZeroNaN(t *testing.T) {
	require.True(t, SameValueZero(Float64(math.NaN()), Float64(math.NaN())))
}

func TestObjectCloneIsPointerCopy(t *testing.T) {
	o := NewObject(nil)
	v1 := ObjectVal(o)
	v2 := v1
	require.Same(t, v1.AsObject(), v2.AsObject())
}

func TestToBoolean(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Undefined(), false},
		{Null(), false},
		{Int32(0), false},
		{Int32(1), true},
		{Float64(math.NaN()), false},
		{StringVal(jsstring.New("")), false},
		{StringVal(jsstring.New("a")), true},
		{ObjectVal(NewObject(nil)), true},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.v.ToBoolean())
	}
}

func TestTypeOf(t *testing.T) {
	require.Equal(t, "undefined", Undefined().TypeOf())
	require.Equal(t, "object", Null().TypeOf())
	require.Equal(t, "number", Int32(1).TypeOf())
	require.Equal(t, "string", StringVal(jsstring.New("x")).TypeOf())
	require.Equal(t, "bigint", BigIntVal(NewBigIntFromInt64(1)).TypeOf())
	require.Equal(t, "symbol", SymbolVal(NewSymbol("")).TypeOf())
	require.Equal(t, "object", ObjectVal(NewObject(nil)).TypeOf())
}
