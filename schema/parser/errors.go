// Package parser parses the canonical surface syntax into schema/ast trees.
package parser

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/typedgraph/internal/lex"
)

// ErrorKind is the closed set of parse failure categories, matching the
// shape of the content hasher's/diff engine's own closed-kind errors.
type ErrorKind int

const (
	ErrorExpectedToken ErrorKind = iota
	ErrorExpectedKeyword
	ErrorUnknownType
	ErrorDuplicateName
	ErrorEndOfFile
	ErrorOther
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorExpectedToken:
		return "expected token"
	case ErrorExpectedKeyword:
		return "expected keyword"
	case ErrorUnknownType:
		return "unknown type"
	case ErrorDuplicateName:
		return "duplicate name"
	case ErrorEndOfFile:
		return "unexpected end of file"
	default:
		return "parse error"
	}
}

// ParseError carries a Rust/Clang-style single-line code snippet pointing
// at the offending token, built from the original source text.
type ParseError struct {
	Kind         ErrorKind
	Message      string
	Token        lex.Token
	Input        string
	ContextChain []string // enclosing declaration/field names, outermost first
}

func (e ParseError) Error() string {
	snippet := e.createCodeSnippet()
	ctx := ""
	if len(e.ContextChain) > 0 {
		ctx = " (in " + strings.Join(e.ContextChain, " > ") + ")"
	}
	return fmt.Sprintf("%s: %s%s\n%s", e.Kind.String(), e.Message, ctx, snippet)
}

func (e ParseError) createCodeSnippet() string {
	if e.Input == "" || e.Token.Line == 0 {
		return ""
	}
	lines := strings.Split(e.Input, "\n")
	if e.Token.Line > len(lines) {
		return ""
	}
	lineContent := lines[e.Token.Line-1]

	var snippet strings.Builder
	snippet.WriteString(fmt.Sprintf("  --> %d:%d\n", e.Token.Line, e.Token.Column))
	snippet.WriteString("   |\n")
	snippet.WriteString(fmt.Sprintf("%2d | %s\n", e.Token.Line, lineContent))
	snippet.WriteString("   | ")
	if e.Token.Column > 0 && e.Token.Column <= len(lineContent)+1 {
		snippet.WriteString(strings.Repeat(" ", e.Token.Column-1) + "^")
	}
	return snippet.String()
}

func (p *Parser) errExpected(what string) error {
	return ParseError{Kind: ErrorExpectedToken, Message: fmt.Sprintf("expected %s, got %s", what, p.current().Kind), Token: p.current(), Input: p.input, ContextChain: p.contextChain()}
}

func (p *Parser) errExpectedKeyword(kw string) error {
	return ParseError{Kind: ErrorExpectedKeyword, Message: fmt.Sprintf("expected keyword %q", kw), Token: p.current(), Input: p.input, ContextChain: p.contextChain()}
}

func (p *Parser) errDuplicate(kind, name string) error {
	return ParseError{Kind: ErrorDuplicateName, Message: fmt.Sprintf("duplicate %s name %q", kind, name), Token: p.current(), Input: p.input, ContextChain: p.contextChain()}
}

func (p *Parser) errEOF() error {
	return ParseError{Kind: ErrorEndOfFile, Message: "unexpected end of file", Token: p.current(), Input: p.input, ContextChain: p.contextChain()}
}
