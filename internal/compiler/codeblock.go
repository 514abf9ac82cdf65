package compiler

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/ecmago/ecmago/internal/sym"
	"github.com/ecmago/ecmago/internal/value"
)

// inlineCacheSize bounds each CodeBlock's property inline cache
// (spec.md §4.4 "Inline caches"). It is sized as a hint, not a
// correctness budget: a miss just falls back to the ordinary
// prototype-chain walk.
const inlineCacheSize = 64

// propCacheKey identifies one GetPropertyByName call site's observed
// (shape, key) pair. shape is the receiver's own prototype pointer
// used as a coarse stand-in for a hidden class: every object sharing
// one prototype resolves an inherited key to the same owner, which is
// exactly the case (`this.method()` against a class prototype) this
// cache is meant to speed up — own-property reads never consult it,
// since those are already a direct map lookup.
type propCacheKey struct {
	shape *value.Object
	key   value.PropertyKey
}

// HandlerKind distinguishes a catch handler from a finally handler in
// a CodeBlock's exception table.
type HandlerKind uint8

const (
	HandlerCatch HandlerKind = iota
	HandlerFinally
)

// Handler is one entry of a CodeBlock's exception-handler table: if
// the program counter is within [Start, End) when an exception is
// thrown, control transfers to Target with the stack truncated to
// StackDepth (spec.md §4.5 "no try-start/try-end opcodes; a
// per-CodeBlock handler table instead").
type Handler struct {
	Start, End int
	Target     int
	StackDepth int
	EnvDepth   int // scope depth to restore when the VM's exception search (not a compiled jump) transfers control here
	Kind       HandlerKind
}

// ParamInfo records one formal parameter's compiled shape: either a
// plain local slot (the common case) or a destructuring pattern
// lowered to its own sequence of bind instructions run at call entry.
type ParamInfo struct {
	LocalIndex int
	HasDefault bool
	IsRest     bool
}

// CodeBlock is the compiled form of one function body or top-level
// program (spec.md §4.4). It implements value.Callable so a function
// Object's payload can hold a *CodeBlock without internal/value
// importing the compiler.
type CodeBlock struct {
	Name      string
	Params    []ParamInfo
	NumLocals int // binding-slot count of this function's own top-level Environment (Hops == 0); nested block/catch/loop scopes push their own Environments sized by OpPushScope's operand

	// TopBindings maps a name declared directly in this CodeBlock's own
	// top-level scope to its slot index. Only populated for a
	// top-level program CodeBlock (see Compile); a function body's
	// CodeBlock leaves this nil since nothing outside a function ever
	// needs to read one of its locals back out by name.
	TopBindings   map[sym.Sym]int
	Instructions  []Instruction
	Constants     []value.Value
	Handlers      []Handler
	Generator     bool
	Async         bool
	IsArrow       bool
	ConstructorOK bool

	// Functions holds nested function/method bodies compiled from this
	// CodeBlock's scope; OpMakeFunction's operand indexes into it
	// rather than into Constants, since value.Value has no variant for
	// a raw *CodeBlock.
	Functions []*CodeBlock

	// Regexps holds one compiled pattern per regex literal in this
	// CodeBlock; OpMakeRegExp's operand indexes into it for the same
	// reason OpMakeFunction indexes into Functions instead of
	// Constants (spec.md §3.4 "precompiled regexps" in the constant
	// pool). Every object OpMakeRegExp builds at that literal's
	// evaluation site shares this one compiled pattern.
	Regexps []*value.CompiledRegexp

	// propCache is this CodeBlock's property-access inline cache,
	// created lazily since most CodeBlocks (generator helpers, class
	// static initialisers with no property access) never need one.
	propCache *lru.Cache
}

// PropCache returns cb's inline cache, allocating it on first use.
func (cb *CodeBlock) PropCache() *lru.Cache {
	if cb.propCache == nil {
		cb.propCache, _ = lru.New(inlineCacheSize)
	}
	return cb.propCache
}

// CachedPropertyOwner returns the Object that last served an
// inherited lookup of key for receivers sharing shape's prototype, if
// the cache remembers one. The caller must still verify the property
// is still there (an inline cache is a hint, not a source of truth) —
// spec.md §4.4's optimisation floor explicitly may not skip
// observable evaluation order or correctness checks.
func (cb *CodeBlock) CachedPropertyOwner(shape *value.Object, key value.PropertyKey) (*value.Object, bool) {
	v, ok := cb.PropCache().Get(propCacheKey{shape, key})
	if !ok {
		return nil, false
	}
	owner, _ := v.(*value.Object)
	return owner, owner != nil
}

// SetCachedPropertyOwner records that key was last found on owner for
// receivers whose prototype is shape.
func (cb *CodeBlock) SetCachedPropertyOwner(shape *value.Object, key value.PropertyKey, owner *value.Object) {
	cb.PropCache().Add(propCacheKey{shape, key}, owner)
}

// Arity reports the function's `.length`: the count of formal
// parameters strictly before the first default-valued or rest
// parameter, per ECMAScript's Function.prototype.length (a trailing
// `...rest` or defaulted parameter, and everything after it, does not
// count).
func (cb *CodeBlock) Arity() int {
	n := 0
	for _, p := range cb.Params {
		if p.HasDefault || p.IsRest {
			break
		}
		n++
	}
	return n
}
func (cb *CodeBlock) IsConstructor() bool { return cb.ConstructorOK }

// HandlerFor returns the innermost handler covering pc, if any; the
// table is searched front-to-back since compileTry appends a try's
// handler only after compiling its block, so nested handlers come
// before their enclosing ones and the first match is the most specific.
func (cb *CodeBlock) HandlerFor(pc int) (Handler, bool) {
	for _, h := range cb.Handlers {
		if pc >= h.Start && pc < h.End {
			return h, true
		}
	}
	return Handler{}, false
}
