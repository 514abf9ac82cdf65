package value

import (
	"fmt"
	"sync/atomic"

	"github.com/ecmago/ecmago/internal/jsstring"
)

var symbolSeq uint64

// Symbol is a uniquely-identified ECMAScript symbol with an optional
// description. Identity, not description, is what distinguishes two
// symbols.
type Symbol struct {
	id   uint64
	desc *jsstring.JsString
}

// NewSymbol allocates a fresh Symbol. An empty description is treated
// as "no description" for String() purposes but is still distinct
// from every other Symbol.
func NewSymbol(description string) *Symbol {
	s := &Symbol{id: atomic.AddUint64(&symbolSeq, 1)}
	if description != "" {
		d := jsstring.New(description)
		s.desc = &d
	}
	return s
}

// Description returns the symbol's description and whether one was set.
func (s *Symbol) Description() (jsstring.JsString, bool) {
	if s.desc == nil {
		return jsstring.JsString{}, false
	}
	return *s.desc, true
}

// String implements fmt.Stringer for diagnostics, mirroring
// `Symbol(desc)` / `Symbol()`.
func (s *Symbol) String() string {
	if s.desc == nil {
		return "Symbol()"
	}
	return fmt.Sprintf("Symbol(%s)", s.desc.String())
}
