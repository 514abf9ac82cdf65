// Package sym implements the engine's identifier interner: every
// identifier and property-key string seen by the lexer or parser is
// deduplicated into a small integer Sym, so that later stages (scope
// resolution, bytecode constant pools) compare names in O(1).
package sym

import "sync"

// Sym is a small integer key identifying an interned string. The zero
// value is not a valid Sym; Interner.Intern never returns 0.
type Sym uint32

// Interner is a per-Context string table. It must not be shared across
// contexts without external synchronisation (see spec.md §9, "Global
// mutable state").
type Interner struct {
	mu      sync.Mutex
	strings []string
	ids     map[string]Sym
}

// New creates an empty interner. Sym 0 is reserved so the zero value of
// Sym can mean "no symbol" in tables that embed one.
func New() *Interner {
	return &Interner{
		strings: []string{""},
		ids:     map[string]Sym{"": 0},
	}
}

// Intern returns the Sym for s, allocating a new one if s has not been
// seen before. Intern is idempotent: Intern(s) always returns the same
// Sym for equal s.
func (in *Interner) Intern(s string) Sym {
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.ids[s]; ok {
		return id
	}
	id := Sym(len(in.strings))
	in.strings = append(in.strings, s)
	in.ids[s] = id
	return id
}

// Resolve returns the string that id was interned from. It panics if id
// was never produced by this interner, which indicates a compiler or VM
// bug rather than a recoverable runtime condition.
func (in *Interner) Resolve(id Sym) string {
	in.mu.Lock()
	defer in.mu.Unlock()
	if int(id) >= len(in.strings) {
		panic("sym: resolve of unknown symbol")
	}
	return in.strings[id]
}

// Lookup returns the Sym for s without interning it, reporting whether s
// has been seen before.
func (in *Interner) Lookup(s string) (Sym, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	id, ok := in.ids[s]
	return id, ok
}

// Len reports how many distinct strings (including the reserved empty
// string at Sym 0) have been interned.
func (in *Interner) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.strings)
}
