// Package gc implements the engine's tracing mark-and-sweep
// collector (component A, spec.md §3/§9 "Cyclic references"). Closures
// and the environments they close over are naturally cyclic; a
// reference-counted scheme would leak them, so the heap is collected
// by a full tracer instead.
package gc

import (
	"github.com/ecmago/ecmago/internal/value"
)

// Root is anything the collector must treat as a GC root: VM frames,
// the environment stack, the operand stack, and handles the host has
// explicitly rooted across an allocation boundary (spec.md §5, "GC
// and threads").
type Root interface {
	WalkRoots(fn func(value.Value))
}

// Heap owns every Object allocated through it and can Collect them.
// One Heap belongs to one Context (spec.md §9, "one realm is owned by
// one thread at a time").
type Heap struct {
	head      *value.Object // intrusive singly-linked list of all live allocations
	count     int
	allocated int
	threshold int // Collect is suggested once allocated-since-last-GC exceeds this
	roots     []Root
	weakMaps  []WeakMap
}

// WeakMap is implemented by internal/value's Map/WeakMap-style objects
// so the collector can apply ephemeron semantics: a weak map's entry
// stays reachable only if its key is otherwise reachable.
type WeakMap interface {
	// Entries returns the map's current key/value pairs.
	Entries() []WeakEntry
	// DeleteKeys removes every entry whose key is in dead, called
	// after a completed collection.
	DeleteKeys(dead []*value.Object)
}

// WeakEntry is one key/value pair of a WeakMap.
type WeakEntry struct {
	Key   *value.Object
	Value value.Value
}

const defaultThreshold = 4096

// NewHeap creates an empty heap. roots are consulted on every
// Collect; AddRoot can register more after construction (e.g. a newly
// pushed VM frame).
func NewHeap(roots ...Root) *Heap {
	return &Heap{threshold: defaultThreshold, roots: roots}
}

// AddRoot registers an additional GC root (used by the VM to root its
// frame stack and by the host to root an escaping handle per spec.md
// §5).
func (h *Heap) AddRoot(r Root) { h.roots = append(h.roots, r) }

// RegisterWeakMap lets the collector apply ephemeron semantics to w on
// every Collect.
func (h *Heap) RegisterWeakMap(w WeakMap) { h.weakMaps = append(h.weakMaps, w) }

// Alloc registers o (already constructed by internal/value) as live
// heap memory, threading it onto the intrusive all-objects list.
// Allocating through Alloc is what makes an Object collectible; an
// Object built but never passed to Alloc is never swept (and never
// needs to be — it simply isn't part of this heap).
func (h *Heap) Alloc(o *value.Object) *value.Object {
	o.SetGCNext(h.head)
	h.head = o
	h.count++
	h.allocated++
	return o
}

// ShouldCollect reports whether enough allocation pressure has
// accumulated since the last collection to suggest running one; the
// VM checks this at safe points (opcodes that allocate).
func (h *Heap) ShouldCollect() bool { return h.allocated >= h.threshold }

// LiveObjects reports the number of objects that survived the most
// recent Collect (or have been allocated since, if Collect has never
// run).
func (h *Heap) LiveObjects() int { return h.count }

// Collect runs a full stop-the-world mark-and-sweep pass. Safe to call
// at any allocation site (spec.md §5's "GC and threads"): the realm's
// single thread is paused for the duration of the call, nothing runs
// concurrently with it.
func (h *Heap) Collect() {
	h.markStrong()
	h.markEphemerons()
	h.sweep()
	h.allocated = 0
}

// markStrong marks everything reachable from roots without descending
// into any WeakMap's value edges; WeakMap key objects themselves are
// ordinary objects and are marked like any other reachable object.
func (h *Heap) markStrong() {
	for o := h.head; o != nil; o = o.GCNext() {
		o.SetGCMarked(false)
	}
	var mark func(value.Value)
	mark = func(v value.Value) {
		if !v.IsObject() {
			return
		}
		o := v.AsObject()
		if o == nil || o.GCMarked() {
			return
		}
		o.SetGCMarked(true)
		o.WalkReferences(mark)
	}
	for _, r := range h.roots {
		r.WalkRoots(mark)
	}
}

// markEphemerons implements the classic ephemeron fixpoint: a
// WeakMap's value becomes reachable only once its key is marked; newly
// reachable values may themselves make other keys reachable, so the
// pass repeats until no new object is marked.
func (h *Heap) markEphemerons() {
	var mark func(value.Value)
	mark = func(v value.Value) {
		if !v.IsObject() {
			return
		}
		o := v.AsObject()
		if o == nil || o.GCMarked() {
			return
		}
		o.SetGCMarked(true)
		o.WalkReferences(mark)
	}
	for {
		progressed := false
		for _, wm := range h.weakMaps {
			for _, e := range wm.Entries() {
				if e.Key != nil && e.Key.GCMarked() {
					if e.Value.IsObject() && e.Value.AsObject() != nil && !e.Value.AsObject().GCMarked() {
						mark(e.Value)
						progressed = true
					}
				}
			}
		}
		if !progressed {
			break
		}
	}
}

// sweep unlinks every unmarked object from the all-objects list and
// lets it become eligible for Go-level garbage collection, then prunes
// dead entries out of registered WeakMaps.
func (h *Heap) sweep() {
	var dead []*value.Object
	var newHead *value.Object
	var tail *value.Object
	count := 0
	for o := h.head; o != nil; {
		next := o.GCNext()
		if o.GCMarked() {
			o.SetGCNext(nil)
			if tail == nil {
				newHead = o
			} else {
				tail.SetGCNext(o)
			}
			tail = o
			count++
		} else {
			dead = append(dead, o)
		}
		o = next
	}
	h.head = newHead
	h.count = count
	for _, wm := range h.weakMaps {
		wm.DeleteKeys(dead)
	}
}
