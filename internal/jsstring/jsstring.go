// Package jsstring implements JsString, the engine's string value: a
// small-string-optimised holder that preserves UTF-16 code-unit
// semantics (length, indexing) required by ECMAScript while storing
// source text as UTF-8 internally.
package jsstring

import (
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// inlineThreshold is the byte length under which a JsString stores its
// bytes directly rather than interning them. Resolves spec.md §9 open
// question (c): the threshold lives on JsString itself, not folded into
// a tagged pointer representation, because this engine does not NaN-box
// values (see DESIGN.md).
const inlineThreshold = 32

// JsString is an immutable UTF-8-backed string with UTF-16 semantics.
// The zero value is the empty string.
type JsString struct {
	s      string
	inline bool
	units  int // cached UTF-16 code-unit length, -1 if not yet computed
}

// New constructs a JsString from Go source text byte-for-byte as
// given; it applies no Unicode normalisation (NewIdentifier does).
func New(s string) JsString {
	return JsString{s: s, inline: len(s) <= inlineThreshold, units: -1}
}

// NewIdentifier behaves like New but additionally applies NFC
// normalisation, matching ECMAScript §12.6's treatment of
// IdentifierName source text.
func NewIdentifier(s string) JsString {
	return New(norm.NFC.String(s))
}

// String returns the Go (UTF-8) representation.
func (j JsString) String() string { return j.s }

// IsInline reports whether j is small enough to be stored without a
// backing interner entry; purely an implementation detail exposed for
// tests of the small-string optimisation.
func (j JsString) IsInline() bool { return j.inline }

// Len returns the length of the string in UTF-16 code units, as
// required by ECMAScript's String.prototype.length.
func (j *JsString) Len() int {
	if j.units < 0 {
		j.units = utf16Len(j.s)
	}
	return j.units
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// CharAt returns the UTF-16 code unit at index i and whether i was in
// range. Lone surrogate halves of astral characters are returned
// individually, matching JavaScript's UTF-16 view.
func (j JsString) CharAt(i int) (uint16, bool) {
	units := utf16.Encode([]rune(j.s))
	if i < 0 || i >= len(units) {
		return 0, false
	}
	return units[i], true
}

// Concat returns the concatenation of j and other as a new JsString.
func (j JsString) Concat(other JsString) JsString {
	return New(j.s + other.s)
}

// Equal reports byte-for-byte (and therefore code-point-for-code-point)
// equality.
func (j JsString) Equal(other JsString) bool { return j.s == other.s }

// Valid reports whether the underlying bytes are well-formed UTF-8;
// the lexer guarantees this for all JsStrings it produces.
func (j JsString) Valid() bool { return utf8.ValidString(j.s) }
