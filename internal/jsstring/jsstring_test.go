package jsstring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLenASCII(t *testing.T) {
	s := New("hello")
	require.Equal(t, 5, s.Len())
	require.True(t, s.IsInline())
}

func TestLenAstral(t *testing.T) {
	// U+1F600 GRINNING FACE encodes as a UTF-16 surrogate pair: length 2.
	s := New("\U0001F600")
	require.Equal(t, 2, s.Len())
}

func TestConcat(t *testing.T) {
	a := New("foo")
	b := New("bar")
	require.Equal(t, "foobar", a.Concat(b).String())
}

func TestEqual(t *testing.T) {
	require.True(t, New("x").Equal(New("x")))
	require.False(t, New("x").Equal(New("y")))
}

func TestInlineThreshold(t *testing.T) {
	small := New("short")
	require.True(t, small.IsInline())

	long := New(string(make([]byte, 64)))
	require.False(t, long.IsInline())
}

func TestCharAt(t *testing.T) {
	s := New("ab")
	c, ok := s.CharAt(0)
	require.True(t, ok)
	require.Equal(t, uint16('a'), c)

	_, ok = s.CharAt(5)
	require.False(t, ok)
}
