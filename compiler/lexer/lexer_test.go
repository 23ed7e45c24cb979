// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/probechain/korkscript/compiler/token"
)

func typesOf(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, tk := range toks {
		out[i] = tk.Type
	}
	return out
}

func TestTokenizeFunctionDecl(t *testing.T) {
	l := New("t.cs", `function double(%n) { return %n * 2; }`)
	toks := l.Tokenize()
	require.Equal(t, []token.Type{
		token.FUNCTION, token.IDENT, token.LPAREN, token.LOCALVAR, token.RPAREN,
		token.LBRACE, token.RETURN, token.LOCALVAR, token.STAR, token.INT, token.SEMICOLON,
		token.RBRACE, token.EOF,
	}, typesOf(toks))
	require.Equal(t, "%n", toks[3].Literal)
}

func TestTokenizeStringEscapes(t *testing.T) {
	l := New("t.cs", `"line\nbreak \"quoted\""`)
	tok := l.NextToken()
	require.Equal(t, token.STRING, tok.Type)
	require.Equal(t, "line\nbreak \"quoted\"", tok.Literal)
}

func TestTokenizeOperators(t *testing.T) {
	l := New("t.cs", `+= -= == != $= !$= && || << >> <= >= ::`)
	toks := l.Tokenize()
	require.Equal(t, []token.Type{
		token.PLUSEQ, token.MINUSEQ, token.EQ, token.NEQ, token.STREQ, token.STRNE,
		token.AND, token.OR, token.SHL, token.SHR, token.LTE, token.GTE, token.COLONCOLON,
		token.EOF,
	}, typesOf(toks))
}

func TestTokenizeSkipsComments(t *testing.T) {
	l := New("t.cs", "// line comment\n%x /* block\ncomment */ = 1;")
	toks := l.Tokenize()
	require.Equal(t, []token.Type{token.LOCALVAR, token.ASSIGN, token.INT, token.SEMICOLON, token.EOF}, typesOf(toks))
}

func TestTokenizeFloatVsInt(t *testing.T) {
	l := New("t.cs", "42 3.14")
	toks := l.Tokenize()
	require.Equal(t, token.INT, toks[0].Type)
	require.Equal(t, "42", toks[0].Literal)
	require.Equal(t, token.FLOAT, toks[1].Type)
	require.Equal(t, "3.14", toks[1].Literal)
}

func TestTokenizeGlobalVar(t *testing.T) {
	l := New("t.cs", "$Pref::maxSpeed")
	tok := l.NextToken()
	require.Equal(t, token.GLOBALVAR, tok.Type)
	require.Equal(t, "$Pref", tok.Literal)
}
