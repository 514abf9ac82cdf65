package value

import "github.com/ecmago/ecmago/internal/sym"

// PropertyKeyKind discriminates the three key domains described in
// spec.md §3.2: contiguous integer indices, interned string keys, and
// symbol keys.
type PropertyKeyKind uint8

const (
	KeyIndex PropertyKeyKind = iota
	KeyString
	KeySymbol
)

// PropertyKey identifies a single property slot on an Object.
type PropertyKey struct {
	kind PropertyKeyKind
	idx  uint32
	str  sym.Sym
	symv *Symbol
}

// IndexKey builds an integer-domain key.
func IndexKey(i uint32) PropertyKey { return PropertyKey{kind: KeyIndex, idx: i} }

// StringKey builds a string-domain key from an interned name.
func StringKey(s sym.Sym) PropertyKey { return PropertyKey{kind: KeyString, str: s} }

// SymbolKey builds a symbol-domain key.
func SymbolKey(s *Symbol) PropertyKey { return PropertyKey{kind: KeySymbol, symv: s} }

func (k PropertyKey) Kind() PropertyKeyKind { return k.kind }
func (k PropertyKey) Index() uint32         { return k.idx }
func (k PropertyKey) StringSym() sym.Sym    { return k.str }
func (k PropertyKey) Symbol() *Symbol       { return k.symv }

// PropertyKeyFromValue converts a Value used as a computed property
// key (the `ByValue` opcode family) into a PropertyKey, implementing
// enough of ToPropertyKey for the engine's needs: strings that look
// like canonical non-negative array indices route to the integer
// domain, matching the "array-like fast path" described in spec.md §3.2.
func PropertyKeyFromValue(v Value, interner *sym.Interner) PropertyKey {
	switch v.Kind() {
	case KindSymbol:
		return SymbolKey(v.AsSymbol())
	case KindInteger32:
		if n := v.AsInt32(); n >= 0 {
			return IndexKey(uint32(n))
		}
		return StringKey(interner.Intern(formatInt(int64(v.AsInt32()))))
	default:
		s := v.AsString().String()
		if idx, ok := canonicalIndex(s); ok {
			return IndexKey(idx)
		}
		return StringKey(interner.Intern(s))
	}
}

func canonicalIndex(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	if s == "0" {
		return 0, true
	}
	if s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
		if n > 0xFFFFFFFE {
			return 0, false
		}
	}
	return uint32(n), true
}

func formatInt(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
