package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextTokenCoreConstructs(t *testing.T) {
	input := `fn main() { let a = 1; let b = a + 2; b >= 3 && b != 0 }`
	want := []TokenType{
		TokenFn, TokenIdent, TokenLParen, TokenRParen, TokenLBrace,
		TokenLet, TokenIdent, TokenAssign, TokenInt, TokenSemicolon,
		TokenLet, TokenIdent, TokenAssign, TokenIdent, TokenPlus, TokenInt, TokenSemicolon,
		TokenIdent, TokenGte, TokenInt, TokenAndAnd, TokenIdent, TokenNotEq, TokenInt,
		TokenRBrace, TokenEOF,
	}

	l := New(input)
	for i, wantType := range want {
		tok := l.NextToken()
		require.Equalf(t, wantType, tok.Type, "token %d literal=%q", i, tok.Literal)
	}
}

func TestNumericLiteralBases(t *testing.T) {
	l := New("0x1F 0o17 0b101 3.14 2")
	for _, lit := range []string{"0x1F", "0o17", "0b101", "3.14", "2"} {
		tok := l.NextToken()
		require.Equal(t, lit, tok.Literal)
	}
}

func TestCharLiteralUnicodeEscape(t *testing.T) {
	l := New(`'\u{41}'`)
	tok := l.NextToken()
	require.Equal(t, TokenChar, tok.Type)
	require.Equal(t, "A", tok.Literal)
}

func TestTemplateStringHoles(t *testing.T) {
	l := New("`a = {a}, b = {b}`")
	tok := l.NextToken()
	require.Equal(t, TokenTemplateString, tok.Type)
	require.Equal(t, "a = {a}, b = {b}", tok.Literal)
}

func TestLabel(t *testing.T) {
	l := New("'outer: loop {}")
	tok := l.NextToken()
	require.Equal(t, TokenLabel, tok.Type)
	require.Equal(t, "outer", tok.Literal)
}

func TestIllegalTokenReported(t *testing.T) {
	_, err := New("@").Tokenize()
	require.Error(t, err)
}
