package sigh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexKinds(t *testing.T, source string) []Token {
	t.Helper()
	tokens, err := Lex(source)
	require.NoError(t, err)
	return tokens[:len(tokens)-1] // drop EOF
}

func texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}

func TestLexOperators(t *testing.T) {
	tokens := lexKinds(t, "=? !=? <=> !<=> <? <=? >? >=? << <<= >> >>= < <= > >= == != && || ! = + - * / % @")
	assert.Equal(t, []string{
		"=?", "!=?", "<=>", "!<=>", "<?", "<=?", ">?", ">=?",
		"<<", "<<=", ">>", ">>=", "<", "<=", ">", ">=", "==", "!=",
		"&&", "||", "!", "=", "+", "-", "*", "/", "%", "@",
	}, texts(tokens))
	for _, tok := range tokens {
		assert.Equal(t, TokenOperator, tok.Kind, tok.Text)
	}
}

func TestLexAdjacentOperators(t *testing.T) {
	// longest-match: "<<=" is one token, not "<<" then "="
	tokens := lexKinds(t, "a<<=b")
	assert.Equal(t, []string{"a", "<<=", "b"}, texts(tokens))

	tokens = lexKinds(t, "a!<=>b")
	assert.Equal(t, []string{"a", "!<=>", "b"}, texts(tokens))
}

func TestLexNumbers(t *testing.T) {
	tokens := lexKinds(t, "42 42.5 0.25")
	require.Len(t, tokens, 3)
	assert.Equal(t, TokenInt, tokens[0].Kind)
	assert.Equal(t, TokenFloat, tokens[1].Kind)
	assert.Equal(t, TokenFloat, tokens[2].Kind)

	// a dot not followed by a digit is a field access, not a float
	tokens = lexKinds(t, "m.shape")
	assert.Equal(t, []string{"m", ".", "shape"}, texts(tokens))

	tokens = lexKinds(t, "[1].length")
	assert.Equal(t, []string{"[", "1", "]", ".", "length"}, texts(tokens))
}

func TestLexStrings(t *testing.T) {
	tokens := lexKinds(t, `"hello" "a\nb" "\f" "say \"hi\""`)
	require.Len(t, tokens, 4)
	assert.Equal(t, "hello", tokens[0].Text)
	assert.Equal(t, "a\nb", tokens[1].Text)
	assert.Equal(t, "\f", tokens[2].Text)
	assert.Equal(t, `say "hi"`, tokens[3].Text)

	_, err := Lex(`"unterminated`)
	assert.Error(t, err)
}

func TestLexKeywordsAndIdents(t *testing.T) {
	tokens := lexKinds(t, "var x fun return_ _ case default type")
	assert.Equal(t, TokenKeyword, tokens[0].Kind)
	assert.Equal(t, TokenIdent, tokens[1].Kind)
	assert.Equal(t, TokenKeyword, tokens[2].Kind)
	assert.Equal(t, TokenIdent, tokens[3].Kind, "return_ is an identifier")
	assert.Equal(t, TokenIdent, tokens[4].Kind, "_ is an identifier")
	assert.Equal(t, TokenKeyword, tokens[5].Kind)
	assert.Equal(t, TokenKeyword, tokens[6].Kind)
	assert.Equal(t, TokenIdent, tokens[7].Kind, "type is not reserved")
}

func TestLexComments(t *testing.T) {
	tokens := lexKinds(t, "1 // comment to end of line\n2")
	assert.Equal(t, []string{"1", "2"}, texts(tokens))
}

func TestLexPositions(t *testing.T) {
	tokens := lexKinds(t, "a\n  b")
	require.Len(t, tokens, 2)
	assert.Equal(t, Position{Line: 1, Column: 1}, tokens[0].Pos)
	assert.Equal(t, Position{Line: 2, Column: 3}, tokens[1].Pos)
}
