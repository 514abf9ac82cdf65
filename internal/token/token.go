// Package token defines the lexical token kinds produced by
// internal/lexer and consumed by internal/parser.
package token

// Kind identifies a token's lexical category.
type Kind uint8

const (
	EOF Kind = iota
	Illegal

	Identifier
	PrivateIdentifier // #name
	Keyword

	NumberInt
	NumberFloat
	BigIntLiteral
	StringLiteral
	NoSubstitutionTemplate
	TemplateHead
	TemplateMiddle
	TemplateTail
	RegExpLiteral

	LineTerminator
	Comment

	// Punctuators
	LBrace
	RBrace
	LParen
	RParen
	LBracket
	RBracket
	Dot
	Ellipsis
	Semicolon
	Comma
	Lt
	Gt
	LtEq
	GtEq
	EqEq
	NotEq
	EqEqEq
	NotEqEq
	Plus
	Minus
	Star
	StarStar
	Percent
	PlusPlus
	MinusMinus
	LtLt
	GtGt
	GtGtGt
	Amp
	Pipe
	Caret
	Bang
	Tilde
	AmpAmp
	PipePipe
	QuestionQuestion
	Question
	QuestionDot
	Colon
	Eq
	PlusEq
	MinusEq
	StarEq
	PercentEq
	StarStarEq
	LtLtEq
	GtGtEq
	GtGtGtEq
	AmpEq
	PipeEq
	CaretEq
	AmpAmpEq
	PipePipeEq
	QuestionQuestionEq
	Arrow
	Slash
	SlashEq
	Hash
)

// Position locates a token in source text, as required by spec.md §4.1.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token is one lexical token.
type Token struct {
	Kind      Kind
	Literal   string // raw or decoded text, depending on Kind
	Pos       Position
	End       Position
	HasEscape bool // keyword/identifier contained a \uXXXX escape (strict-mode diagnostics)
	NewlineBefore bool
}

// Keywords is the reserved-word table; the lexer looks an identifier
// up here as written (no Unicode normalisation) to decide Keyword vs
// Identifier.
var Keywords = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "export": true, "extends": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "return": true, "super": true,
	"switch": true, "this": true, "throw": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true, "yield": true,
	"let": true, "static": true, "async": true, "of": true, "get": true, "set": true,
	"null": true, "true": true, "false": true,
}

// StrictReserved are identifiers that are only reserved in strict mode
// (spec.md §4.2 "Strict mode").
var StrictReserved = map[string]bool{
	"implements": true, "interface": true, "package": true, "private": true,
	"protected": true, "public": true, "yield": true, "let": true, "static": true,
}
