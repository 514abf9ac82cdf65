package sym

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternRoundTrip(t *testing.T) {
	in := New()
	for _, s := range []string{"foo", "bar", "", "foo", "baz"} {
		id := in.Intern(s)
		require.Equal(t, s, in.Resolve(id))
	}
}

func TestInternEquality(t *testing.T) {
	in := New()
	a := in.Intern("same")
	b := in.Intern("same")
	require.Equal(t, a, b)

	c := in.Intern("different")
	require.NotEqual(t, a, c)
}

func TestInternIdempotent(t *testing.T) {
	in := New()
	first := in.Intern("x")
	for i := 0; i < 5; i++ {
		require.Equal(t, first, in.Intern("x"))
	}
	require.Equal(t, 2, in.Len()) // reserved "" plus "x"
}

func TestLookupMissing(t *testing.T) {
	in := New()
	_, ok := in.Lookup("nope")
	require.False(t, ok)

	in.Intern("nope")
	id, ok := in.Lookup("nope")
	require.True(t, ok)
	require.Equal(t, "nope", in.Resolve(id))
}
