package gc

import (
	"testing"

	"github.com/ecmago/ecmago/internal/sym"
	"github.com/ecmago/ecmago/internal/value"
	"github.com/stretchr/testify/require"
)

type sliceRoot struct{ vals []value.Value }

func (s *sliceRoot) WalkRoots(fn func(value.Value)) {
	for _, v := range s.vals {
		fn(v)
	}
}

func TestSweepReclaimsUnreachable(t *testing.T) {
	root := &sliceRoot{}
	h := NewHeap(root)

	kept := h.Alloc(value.NewObject(nil))
	h.Alloc(value.NewObject(nil)) // never rooted; collected away
	root.vals = []value.Value{value.ObjectVal(kept)}

	require.Equal(t, 2, h.LiveObjects())
	h.Collect()
	require.Equal(t, 1, h.LiveObjects())
}

func TestCyclicReferencesCollected(t *testing.T) {
	in := sym.New()
	root := &sliceRoot{}
	h := NewHeap(root)

	a := h.Alloc(value.NewObject(nil))
	b := h.Alloc(value.NewObject(nil))
	// a -> b -> a, a cycle with no path from any root.
	a.Set(value.StringKey(in.Intern("b")), value.ObjectVal(b))
	b.Set(value.StringKey(in.Intern("a")), value.ObjectVal(a))

	h.Collect()
	require.Equal(t, 0, h.LiveObjects(), "reference-counting would leak this cycle; a tracer must not")
}

func TestReachableObjectSurvives(t *testing.T) {
	in := sym.New()
	root := &sliceRoot{}
	h := NewHeap(root)

	parent := h.Alloc(value.NewObject(nil))
	child := h.Alloc(value.NewObject(nil))
	parent.Set(value.StringKey(in.Intern("child")), value.ObjectVal(child))
	root.vals = []value.Value{value.ObjectVal(parent)}

	h.Collect()
	require.Equal(t, 2, h.LiveObjects())
}

type fakeWeakMap struct {
	entries []WeakEntry
}

func (w *fakeWeakMap) Entries() []WeakEntry { return w.entries }
func (w *fakeWeakMap) DeleteKeys(dead []*value.Object) {
	deadSet := map[*value.Object]bool{}
	for _, d := range dead {
		deadSet[d] = true
	}
	var kept []WeakEntry
	for _, e := range w.entries {
		if !deadSet[e.Key] {
			kept = append(kept, e)
		}
	}
	w.entries = kept
}

func TestEphemeronValueDiesWithKey(t *testing.T) {
	root := &sliceRoot{}
	h := NewHeap(root)

	key := h.Alloc(value.NewObject(nil))   // unreachable from roots
	val := h.Alloc(value.NewObject(nil))   // reachable only via the weak map entry
	wm := &fakeWeakMap{entries: []WeakEntry{{Key: key, Value: value.ObjectVal(val)}}}
	h.RegisterWeakMap(wm)

	h.Collect()
	require.Equal(t, 0, h.LiveObjects())
	require.Empty(t, wm.entries)
}

func TestEphemeronValueSurvivesWithKey(t *testing.T) {
	root := &sliceRoot{}
	h := NewHeap(root)

	key := h.Alloc(value.NewObject(nil))
	val := h.Alloc(value.NewObject(nil))
	root.vals = []value.Value{value.ObjectVal(key)} // key reachable
	wm := &fakeWeakMap{entries: []WeakEntry{{Key: key, Value: value.ObjectVal(val)}}}
	h.RegisterWeakMap(wm)

	h.Collect()
	require.Equal(t, 2, h.LiveObjects())
	require.Len(t, wm.entries, 1)
}
