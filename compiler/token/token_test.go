// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package token

import "testing"

import "github.com/stretchr/testify/require"

func TestLookupIdentClassifiesKeywords(t *testing.T) {
	cases := map[string]Type{
		"function": FUNCTION,
		"if":       IF,
		"foreach":  FOREACH,
		"catch":    CATCH,
		"true":     TRUE,
		"myVar":    IDENT,
		"Vehicle":  IDENT,
	}
	for ident, want := range cases {
		require.Equal(t, want, LookupIdent(ident), "ident=%s", ident)
	}
}

func TestTypeStringRoundTripsMnemonic(t *testing.T) {
	require.Equal(t, "+", PLUS.String())
	require.Equal(t, "foreach", FOREACH.String())
	require.Equal(t, "EOF", EOF.String())
}

func TestIsKeyword(t *testing.T) {
	require.True(t, FUNCTION.IsKeyword())
	require.False(t, IDENT.IsKeyword())
	require.False(t, PLUS.IsKeyword())
}

func TestPositionString(t *testing.T) {
	p := Position{File: "a.cs", Line: 3, Column: 5}
	require.Equal(t, "a.cs:3:5", p.String())
	require.Equal(t, "3:5", Position{Line: 3, Column: 5}.String())
}
