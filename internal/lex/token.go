// Package lex tokenizes the canonical surface syntax shared by .bs schema
// files and .cbs changeset files.
package lex

import "fmt"

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenKeyword
	TokenNumber
	TokenString
	TokenHash // `#` attribute introducer, or a bare 0x-prefixed hex literal, e.g. 0x1a2b3c
	TokenLBrace
	TokenRBrace
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenLAngle
	TokenRAngle
	TokenComma
	TokenColon
	TokenEquals
	TokenArrow // ->
	TokenAt    // @
	TokenStar  // *
	TokenQuestion
	TokenDot
	TokenDocComment  // ///
	TokenLineComment // //
	TokenMinus       // -
	TokenPlus        // +
	TokenTilde       // ~
	TokenFatArrow    // =>
)

var keywords = map[string]bool{
	"pub": true, "local": true, "import": true, "as": true,
	"node": true, "edge": true, "struct": true, "enum": true,
}

func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenIdent:
		return "identifier"
	case TokenKeyword:
		return "keyword"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenHash:
		return "hash"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

// Token is one lexical unit with its source position and literal text.
type Token struct {
	Kind   TokenKind
	Text   string
	Line   int
	Column int
}
