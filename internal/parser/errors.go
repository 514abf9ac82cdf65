package parser

import (
	"fmt"
	"strings"

	"github.com/kr/text"

	"github.com/ecmago/ecmago/internal/token"
)

// SyntaxError is returned, never panicked, by every parser failure
// (spec.md §4.2 "Failure semantics"): the original source position is
// always preserved and no partial AST escapes. Excerpt is a one-line,
// caret-annotated rendering of the offending source line, cosmetic
// only and never consulted for Kind/Message equality.
type SyntaxError struct {
	Message string
	Pos     token.Position
	Excerpt string
}

func (e *SyntaxError) Error() string {
	if e.Excerpt == "" {
		return fmt.Sprintf("SyntaxError: %s (%d:%d)", e.Message, e.Pos.Line, e.Pos.Column)
	}
	return fmt.Sprintf("SyntaxError: %s (%d:%d)\n%s", e.Message, e.Pos.Line, e.Pos.Column, e.Excerpt)
}

func (p *Parser) errorf(pos token.Position, format string, args ...any) error {
	return &SyntaxError{
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
		Excerpt: sourceExcerpt(p.src, pos),
	}
}

// sourceExcerpt renders the source line containing pos indented two
// spaces (via kr/text, matching the teacher's CLI line-wrapping style
// for long diagnostic output) with a caret under the failing column.
func sourceExcerpt(src string, pos token.Position) string {
	lines := strings.Split(src, "\n")
	if pos.Line < 1 || pos.Line > len(lines) {
		return ""
	}
	line := lines[pos.Line-1]
	caretCol := pos.Column - 1
	if caretCol < 0 {
		caretCol = 0
	}
	if caretCol > len(line) {
		caretCol = len(line)
	}
	caret := strings.Repeat(" ", caretCol) + "^"
	body := text.Wrap(line, 120) + "\n" + caret
	return text.Indent(body, "  ")
}
