package value

import "github.com/dlclark/regexp2"

// CompiledRegexp is the compile-time payload of a regular-expression
// literal (spec.md §3.4: the constant pool holds "precompiled
// regexps" alongside literal values and nested CodeBlocks). It is
// compiled once, when the literal is lowered to bytecode, and shared
// by every RegExp object a `OpMakeRegExp` instruction subsequently
// creates from it — this engine does not need PCRE's backreferences
// and lookaround to run through RE2, so it reaches for regexp2 the
// same way the rest of this codebase's lineage does for ECMAScript
// regex semantics the standard library's `regexp` package cannot
// express.
type CompiledRegexp struct {
	Source    string
	Flags     string
	Global    bool
	re        *regexp2.Regexp
	badSyntax bool // literal recognised by the lexer but rejected by regexp2; Exec always reports "no match" rather than panicking
}

// CompileRegExp compiles pattern under flags. A malformed-but-lexically-valid
// literal (regexp2 is stricter/looser than the ECMAScript grammar in a
// few corners) does not panic: it produces a CompiledRegexp that never
// matches, since the literal's syntax was already accepted by the
// parser and a RegExp literal cannot re-raise a SyntaxError at
// evaluation time.
func CompileRegExp(pattern, flags string) *CompiledRegexp {
	opts := regexp2.None
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'x':
			opts |= regexp2.IgnorePatternWhitespace
		}
	}
	cr := &CompiledRegexp{Source: pattern, Flags: flags}
	for _, f := range flags {
		if f == 'g' {
			cr.Global = true
		}
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		cr.badSyntax = true
		return cr
	}
	cr.re = re
	return cr
}

// Exec runs the compiled pattern against s starting at byte offset
// from, returning the match and its start index, mirroring the
// subset of RegExp.prototype.exec this core needs (full RegExp
// built-in behaviour is out of this design's scope per spec.md §1).
func (c *CompiledRegexp) Exec(s string, from int) (match string, index int, ok bool) {
	if c.badSyntax || c.re == nil || from > len(s) {
		return "", 0, false
	}
	m, err := c.re.FindStringMatchStartingAt(s, from)
	if err != nil || m == nil {
		return "", 0, false
	}
	return m.String(), m.Index, true
}

// Test reports whether the pattern matches anywhere in s.
func (c *CompiledRegexp) Test(s string) bool {
	_, _, ok := c.Exec(s, 0)
	return ok
}
