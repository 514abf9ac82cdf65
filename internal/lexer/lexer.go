// Package lexer turns UTF-8 source bytes into a token stream without
// materialising the whole source as tokens (spec.md §4.1).
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ecmago/ecmago/internal/token"
)

// Goal is the lexer's input-element goal, switched by the parser
// before each fetch to resolve the `/` (division vs regex) and
// template-tail ambiguities (spec.md §4.1).
type Goal uint8

const (
	GoalDiv Goal = iota
	GoalRegExp
	GoalTemplateTail
)

// Error reports a lexical failure with its source position; the
// lexer never panics or throws, it always returns an Error value
// (spec.md §4.1, §7).
type Error struct {
	Message string
	Pos     token.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.Message, e.Pos.Line, e.Pos.Column)
}

// Lexer scans one source string.
type Lexer struct {
	src        string
	offset     int
	line       int
	col        int
	goal       Goal
	unlexed    *token.Token // single-token pushback buffer
	peekBuf    []token.Token
}

// New constructs a Lexer positioned at the start of src.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1, goal: GoalDiv}
}

// SetGoal sets the input-element goal consulted on the next raw scan;
// switching goals is the only legal lexer state transition (spec.md
// §4.1).
func (l *Lexer) SetGoal(g Goal) { l.goal = g }

// Unlex pushes back a single token, the lexer's sole form of
// backtrack. Calling it twice without an intervening Next is a
// programming error in the parser.
func (l *Lexer) Unlex(t token.Token) {
	if l.unlexed != nil {
		panic("lexer: double unlex")
	}
	tc := t
	l.unlexed = &tc
}

// Peek returns the k-th (0-based) upcoming token without consuming it,
// using GoalDiv for any tokens beyond the immediate next one.
func (l *Lexer) Peek(k int) token.Token {
	for len(l.peekBuf) <= k {
		save := l.snapshot()
		t, _ := l.rawNext(GoalDiv)
		l.peekBuf = append(l.peekBuf, t)
		_ = save
	}
	return l.peekBuf[k]
}

type snap struct {
	offset, line, col int
}

func (l *Lexer) snapshot() snap { return snap{l.offset, l.line, l.col} }

// Next returns the next token honouring the current goal, consuming
// any buffered Peek/Unlex token first.
func (l *Lexer) Next() (token.Token, error) {
	if l.unlexed != nil {
		t := *l.unlexed
		l.unlexed = nil
		return t, nil
	}
	if len(l.peekBuf) > 0 {
		t := l.peekBuf[0]
		l.peekBuf = l.peekBuf[1:]
		return t, nil
	}
	return l.rawNext(l.goal)
}

func (l *Lexer) rawNext(goal Goal) (token.Token, error) {
	newline := l.skipTrivia()
	start := l.position()
	if l.offset >= len(l.src) {
		return token.Token{Kind: token.EOF, Pos: start, End: start, NewlineBefore: newline}, nil
	}

	c := l.peekRune()
	switch {
	case goal == GoalTemplateTail && c == '}':
		return l.scanTemplatePart(start, newline, true)
	case c == '`':
		return l.scanTemplatePart(start, newline, false)
	case c == '"' || c == '\'':
		return l.scanString(start, newline, c)
	case unicode.IsDigit(c):
		return l.scanNumber(start, newline)
	case isIdentStart(c):
		return l.scanIdentifier(start, newline)
	case c == '/' && goal == GoalRegExp:
		return l.scanRegExp(start, newline)
	default:
		return l.scanPunctuator(start, newline)
	}
}

func (l *Lexer) position() token.Position {
	return token.Position{Line: l.line, Column: l.col, Offset: l.offset}
}

func (l *Lexer) peekRune() rune {
	r, _ := utf8.DecodeRuneInString(l.src[l.offset:])
	return r
}

func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.offset:])
	l.offset += size
	if isLineTerminator(r) {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == ' ' || r == ' '
}

// skipTrivia consumes whitespace and comments, returning whether a
// line terminator was seen (needed for ASI and for arrow-function
// `=>` lookahead per spec.md §4.2).
func (l *Lexer) skipTrivia() bool {
	sawNewline := false
	for l.offset < len(l.src) {
		r := l.peekRune()
		switch {
		case isLineTerminator(r):
			sawNewline = true
			l.advance()
		case unicode.IsSpace(r):
			l.advance()
		case strings.HasPrefix(l.src[l.offset:], "//"):
			for l.offset < len(l.src) && !isLineTerminator(l.peekRune()) {
				l.advance()
			}
		case strings.HasPrefix(l.src[l.offset:], "/*"):
			l.advance()
			l.advance()
			for l.offset < len(l.src) && !strings.HasPrefix(l.src[l.offset:], "*/") {
				if isLineTerminator(l.peekRune()) {
					sawNewline = true
				}
				l.advance()
			}
			if l.offset < len(l.src) {
				l.advance()
				l.advance()
			}
		default:
			return sawNewline
		}
	}
	return sawNewline
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || r == '‌' || r == '‍'
}

func (l *Lexer) scanIdentifier(start token.Position, newline bool) (token.Token, error) {
	hasEscape := false
	if l.peekRune() == '#' {
		l.advance()
		name, esc, err := l.scanIdentName()
		if err != nil {
			return token.Token{}, err
		}
		return token.Token{Kind: token.PrivateIdentifier, Literal: "#" + name, Pos: start, End: l.position(), HasEscape: esc, NewlineBefore: newline}, nil
	}
	name, esc, err := l.scanIdentName()
	if err != nil {
		return token.Token{}, err
	}
	hasEscape = esc
	kind := token.Identifier
	if token.Keywords[name] {
		kind = token.Keyword
	}
	return token.Token{Kind: kind, Literal: name, Pos: start, End: l.position(), HasEscape: hasEscape, NewlineBefore: newline}, nil
}

func (l *Lexer) scanIdentName() (string, bool, error) {
	var b strings.Builder
	hasEscape := false
	first := true
	for l.offset < len(l.src) {
		if strings.HasPrefix(l.src[l.offset:], "\\u") {
			hasEscape = true
			pos := l.position()
			l.advance()
			l.advance()
			r, err := l.scanUnicodeEscape()
			if err != nil {
				return "", false, &Error{Message: "invalid unicode escape in identifier", Pos: pos}
			}
			if first && !isIdentStart(r) || !first && !isIdentPart(r) {
				return "", false, &Error{Message: "invalid identifier escape", Pos: pos}
			}
			b.WriteRune(r)
			first = false
			continue
		}
		r := l.peekRune()
		if first {
			if !isIdentStart(r) {
				break
			}
		} else if !isIdentPart(r) {
			break
		}
		b.WriteRune(r)
		l.advance()
		first = false
	}
	return b.String(), hasEscape, nil
}

func (l *Lexer) scanUnicodeEscape() (rune, error) {
	if l.offset < len(l.src) && l.src[l.offset] == '{' {
		l.advance()
		var n rune
		for l.offset < len(l.src) && l.src[l.offset] != '}' {
			d, ok := hexDigit(rune(l.src[l.offset]))
			if !ok {
				return 0, fmt.Errorf("bad hex digit")
			}
			n = n*16 + d
			l.advance()
		}
		if l.offset >= len(l.src) {
			return 0, fmt.Errorf("unterminated unicode escape")
		}
		l.advance() // consume }
		return n, nil
	}
	var n rune
	for i := 0; i < 4; i++ {
		if l.offset >= len(l.src) {
			return 0, fmt.Errorf("unterminated unicode escape")
		}
		d, ok := hexDigit(l.peekRune())
		if !ok {
			return 0, fmt.Errorf("bad hex digit")
		}
		n = n*16 + d
		l.advance()
	}
	return n, nil
}

func hexDigit(r rune) (rune, bool) {
	switch {
	case r >= '0' && r <= '9':
		return r - '0', true
	case r >= 'a' && r <= 'f':
		return r - 'a' + 10, true
	case r >= 'A' && r <= 'F':
		return r - 'A' + 10, true
	}
	return 0, false
}

func (l *Lexer) scanNumber(start token.Position, newline bool) (token.Token, error) {
	var b strings.Builder
	isFloat := false
	if l.peekRune() == '0' {
		b.WriteRune(l.advance())
		if l.offset < len(l.src) {
			c := l.peekRune()
			if c == 'x' || c == 'X' || c == 'o' || c == 'O' || c == 'b' || c == 'B' {
				b.WriteRune(l.advance())
				for l.offset < len(l.src) && (isHexLike(l.peekRune()) || l.peekRune() == '_') {
					b.WriteRune(l.advance())
				}
				return l.finishNumber(start, newline, b.String(), false)
			}
		}
	}
	for l.offset < len(l.src) && (unicode.IsDigit(l.peekRune()) || l.peekRune() == '_') {
		b.WriteRune(l.advance())
	}
	if l.offset < len(l.src) && l.peekRune() == '.' {
		isFloat = true
		b.WriteRune(l.advance())
		for l.offset < len(l.src) && (unicode.IsDigit(l.peekRune()) || l.peekRune() == '_') {
			b.WriteRune(l.advance())
		}
	}
	if l.offset < len(l.src) && (l.peekRune() == 'e' || l.peekRune() == 'E') {
		isFloat = true
		b.WriteRune(l.advance())
		if l.offset < len(l.src) && (l.peekRune() == '+' || l.peekRune() == '-') {
			b.WriteRune(l.advance())
		}
		for l.offset < len(l.src) && unicode.IsDigit(l.peekRune()) {
			b.WriteRune(l.advance())
		}
	}
	return l.finishNumber(start, newline, b.String(), isFloat)
}

func isHexLike(r rune) bool {
	_, ok := hexDigit(r)
	return ok
}

func (l *Lexer) finishNumber(start token.Position, newline bool, lit string, isFloat bool) (token.Token, error) {
	if l.offset < len(l.src) && l.peekRune() == 'n' {
		l.advance()
		return token.Token{Kind: token.BigIntLiteral, Literal: lit, Pos: start, End: l.position(), NewlineBefore: newline}, nil
	}
	kind := token.NumberInt
	if isFloat {
		kind = token.NumberFloat
	}
	return token.Token{Kind: kind, Literal: lit, Pos: start, End: l.position(), NewlineBefore: newline}, nil
}

func (l *Lexer) scanString(start token.Position, newline bool, quote rune) (token.Token, error) {
	l.advance() // opening quote
	var b strings.Builder
	for {
		if l.offset >= len(l.src) {
			return token.Token{}, &Error{Message: "unterminated string literal", Pos: start}
		}
		c := l.peekRune()
		if c == quote {
			l.advance()
			break
		}
		if isLineTerminator(c) {
			return token.Token{}, &Error{Message: "unterminated string literal", Pos: start}
		}
		if c == '\\' {
			l.advance()
			if err := l.scanEscapeInto(&b); err != nil {
				return token.Token{}, err
			}
			continue
		}
		b.WriteRune(c)
		l.advance()
	}
	return token.Token{Kind: token.StringLiteral, Literal: b.String(), Pos: start, End: l.position(), NewlineBefore: newline}, nil
}

func (l *Lexer) scanEscapeInto(b *strings.Builder) error {
	if l.offset >= len(l.src) {
		return &Error{Message: "unterminated escape", Pos: l.position()}
	}
	c := l.peekRune()
	switch c {
	case 'n':
		b.WriteByte('\n')
		l.advance()
	case 't':
		b.WriteByte('\t')
		l.advance()
	case 'r':
		b.WriteByte('\r')
		l.advance()
	case 'b':
		b.WriteByte('\b')
		l.advance()
	case 'f':
		b.WriteByte('\f')
		l.advance()
	case 'v':
		b.WriteByte('\v')
		l.advance()
	case '0':
		b.WriteByte(0)
		l.advance()
	case 'x':
		l.advance()
		var n rune
		for i := 0; i < 2; i++ {
			d, ok := hexDigit(l.peekRune())
			if !ok {
				return &Error{Message: "invalid hex escape", Pos: l.position()}
			}
			n = n*16 + d
			l.advance()
		}
		b.WriteRune(n)
	case 'u':
		l.advance()
		r, err := l.scanUnicodeEscape()
		if err != nil {
			return &Error{Message: "invalid unicode escape", Pos: l.position()}
		}
		b.WriteRune(r)
	case '\n', '\r', ' ', ' ':
		l.advance() // line continuation: escaped newline contributes nothing
	default:
		b.WriteRune(c)
		l.advance()
	}
	return nil
}

// scanTemplatePart scans one template-literal segment: a whole
// no-substitution template, or a head/middle/tail delimited by `${`
// and `}` per the TemplateTail goal (spec.md §4.1).
func (l *Lexer) scanTemplatePart(start token.Position, newline bool, fromBrace bool) (token.Token, error) {
	l.advance() // consume ` or }
	var b strings.Builder
	for {
		if l.offset >= len(l.src) {
			return token.Token{}, &Error{Message: "unterminated template literal", Pos: start}
		}
		c := l.peekRune()
		if c == '`' {
			l.advance()
			kind := token.NoSubstitutionTemplate
			if fromBrace {
				kind = token.TemplateTail
			}
			return token.Token{Kind: kind, Literal: b.String(), Pos: start, End: l.position(), NewlineBefore: newline}, nil
		}
		if c == '$' && l.offset+1 < len(l.src) && l.src[l.offset+1] == '{' {
			l.advance()
			l.advance()
			kind := token.TemplateHead
			if fromBrace {
				kind = token.TemplateMiddle
			}
			return token.Token{Kind: kind, Literal: b.String(), Pos: start, End: l.position(), NewlineBefore: newline}, nil
		}
		if c == '\\' {
			l.advance()
			if err := l.scanEscapeInto(&b); err != nil {
				return token.Token{}, err
			}
			continue
		}
		b.WriteRune(c)
		l.advance()
	}
}

func (l *Lexer) scanRegExp(start token.Position, newline bool) (token.Token, error) {
	l.advance() // opening /
	var b strings.Builder
	inClass := false
	for {
		if l.offset >= len(l.src) {
			return token.Token{}, &Error{Message: "unterminated regular expression literal", Pos: start}
		}
		c := l.peekRune()
		if isLineTerminator(c) {
			return token.Token{}, &Error{Message: "unterminated regular expression literal", Pos: start}
		}
		if c == '\\' {
			b.WriteRune(c)
			l.advance()
			if l.offset < len(l.src) {
				b.WriteRune(l.peekRune())
				l.advance()
			}
			continue
		}
		if c == '[' {
			inClass = true
		} else if c == ']' {
			inClass = false
		} else if c == '/' && !inClass {
			l.advance()
			break
		}
		b.WriteRune(c)
		l.advance()
	}
	var flags strings.Builder
	for l.offset < len(l.src) && isIdentPart(l.peekRune()) {
		flags.WriteRune(l.advance())
	}
	return token.Token{Kind: token.RegExpLiteral, Literal: b.String() + "\x00" + flags.String(), Pos: start, End: l.position(), NewlineBefore: newline}, nil
}

type punct struct {
	text string
	kind token.Kind
}

// punctTable is ordered longest-first so the greedy scan matches `>>>=`
// before `>>>`, `>>` before `>`, and so on.
var punctTable = []punct{
	{">>>=", token.GtGtGtEq}, {"...", token.Ellipsis}, {"===", token.EqEqEq},
	{"!==", token.NotEqEq}, {"**=", token.StarStarEq}, {"<<=", token.LtLtEq},
	{">>=", token.GtGtEq}, {">>>", token.GtGtGt}, {"&&=", token.AmpAmpEq},
	{"||=", token.PipePipeEq}, {"??=", token.QuestionQuestionEq},
	{"=>", token.Arrow}, {"==", token.EqEq}, {"!=", token.NotEq},
	{"<=", token.LtEq}, {">=", token.GtEq}, {"&&", token.AmpAmp},
	{"||", token.PipePipe}, {"??", token.QuestionQuestion}, {"?.", token.QuestionDot},
	{"++", token.PlusPlus}, {"--", token.MinusMinus}, {"**", token.StarStar},
	{"<<", token.LtLt}, {">>", token.GtGt}, {"+=", token.PlusEq},
	{"-=", token.MinusEq}, {"*=", token.StarEq}, {"%=", token.PercentEq},
	{"&=", token.AmpEq}, {"|=", token.PipeEq}, {"^=", token.CaretEq},
	{"/=", token.SlashEq},
	{"{", token.LBrace}, {"}", token.RBrace}, {"(", token.LParen}, {")", token.RParen},
	{"[", token.LBracket}, {"]", token.RBracket}, {".", token.Dot}, {";", token.Semicolon},
	{",", token.Comma}, {"<", token.Lt}, {">", token.Gt}, {"+", token.Plus},
	{"-", token.Minus}, {"*", token.Star}, {"%", token.Percent}, {"&", token.Amp},
	{"|", token.Pipe}, {"^", token.Caret}, {"!", token.Bang}, {"~", token.Tilde},
	{"?", token.Question}, {":", token.Colon}, {"=", token.Eq}, {"/", token.Slash},
	{"#", token.Hash},
}

func (l *Lexer) scanPunctuator(start token.Position, newline bool) (token.Token, error) {
	rest := l.src[l.offset:]
	for _, p := range punctTable {
		if strings.HasPrefix(rest, p.text) {
			for range p.text {
				l.advance()
			}
			return token.Token{Kind: p.kind, Literal: p.text, Pos: start, End: l.position(), NewlineBefore: newline}, nil
		}
	}
	r := l.advance()
	return token.Token{}, &Error{Message: fmt.Sprintf("unexpected character %q", r), Pos: start}
}
