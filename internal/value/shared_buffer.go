package value

import "sync/atomic"

// SharedArrayBuffer is the only mutable memory shared across realms
// (spec.md §5). Its length may grow up to maxLen using a
// compare-and-exchange loop so that readers on another thread observe
// a monotonically non-decreasing length; its bytes are otherwise
// ordinary and require the host to avoid racing writes to the same
// byte (JavaScript's memory model, not Go's, governs that).
type SharedArrayBuffer struct {
	bytes  []byte
	length atomic.Uint64
	maxLen uint64
	growable bool
}

// NewSharedArrayBuffer allocates a fixed-length buffer.
func NewSharedArrayBuffer(length int) *SharedArrayBuffer {
	b := &SharedArrayBuffer{bytes: make([]byte, length), maxLen: uint64(length)}
	b.length.Store(uint64(length))
	return b
}

// NewGrowableSharedArrayBuffer allocates a buffer that starts at
// length and may grow up to maxLength.
func NewGrowableSharedArrayBuffer(length, maxLength int) *SharedArrayBuffer {
	b := &SharedArrayBuffer{bytes: make([]byte, maxLength), maxLen: uint64(maxLength), growable: true}
	b.length.Store(uint64(length))
	return b
}

// Len returns the current logical length; backing storage for a
// growable buffer is always maxLen bytes, so this is the only
// observable length.
func (b *SharedArrayBuffer) Len() int { return int(b.length.Load()) }

// MaxLen returns the buffer's growth ceiling (equal to Len() for a
// fixed-length buffer).
func (b *SharedArrayBuffer) MaxLen() int { return int(b.maxLen) }

// Growable reports whether Grow may succeed.
func (b *SharedArrayBuffer) Growable() bool { return b.growable }

// Grow attempts to extend the buffer's logical length to newLen via a
// CAS loop with sequentially-consistent ordering (spec.md §5's
// monotonicity requirement); it never shrinks and never exceeds
// maxLen. Returns false if newLen is not a valid, larger-or-equal
// length.
func (b *SharedArrayBuffer) Grow(newLen int) bool {
	if !b.growable || newLen < 0 || uint64(newLen) > b.maxLen {
		return false
	}
	for {
		cur := b.length.Load()
		if uint64(newLen) < cur {
			return false // monotonic: never shrinks
		}
		if b.length.CompareAndSwap(cur, uint64(newLen)) {
			return true
		}
	}
}

// Bytes returns the live byte slice, truncated to the current logical
// length. Concurrent access to overlapping bytes from multiple
// threads is the host's responsibility to serialise or accept as a
// data race per the JavaScript shared-memory model.
func (b *SharedArrayBuffer) Bytes() []byte {
	return b.bytes[:b.Len()]
}
