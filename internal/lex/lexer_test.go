package lex_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/typedgraph/internal/lex"
)

func TestLexerTokenizesDeclaration(t *testing.T) {
	l := lex.New(`pub node User { name: string? }`)
	var kinds []lex.TokenKind
	for {
		tok := l.Next()
		if tok.Kind == lex.TokenEOF {
			break
		}
		kinds = append(kinds, tok.Kind)
	}
	require.Equal(t, []lex.TokenKind{
		lex.TokenKeyword, lex.TokenKeyword, lex.TokenIdent, lex.TokenLBrace,
		lex.TokenIdent, lex.TokenColon, lex.TokenIdent, lex.TokenQuestion, lex.TokenRBrace,
	}, kinds)
}

func TestLexerEmitsLineCommentToken(t *testing.T) {
	l := lex.New("// a comment\nnode")
	tok := l.Next()
	require.Equal(t, lex.TokenLineComment, tok.Kind)
	tok = l.Next()
	require.Equal(t, lex.TokenKeyword, tok.Kind)
	require.Equal(t, "node", tok.Text)
}
