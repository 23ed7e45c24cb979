// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package execstack

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/probechain/korkscript/value"
)

func TestTopFormatsStringEntry(t *testing.T) {
	s := New()
	require.NoError(t, s.SetStringValue("hello"))
	require.Equal(t, "hello", s.Top())
}

func TestTopFormatsPackedNumber(t *testing.T) {
	s := New()
	require.NoError(t, s.Push(value.Number(3.5)))
	require.Equal(t, "3.5", s.Top())
}

// Regression test for a bug where packed Unsigned/ObjectID entries were
// rendered via Value.AsFloat(), which bit-reinterprets the payload as
// IEEE-754 — valid only for TypeNumber. An Unsigned payload is a plain
// integer, so that path produced garbage instead of "1".
func TestTopFormatsPackedUnsignedNotAsFloatBits(t *testing.T) {
	s := New()
	require.NoError(t, s.Push(value.Unsigned(1)))
	require.Equal(t, "1", s.Top())
}

func TestTopFormatsPackedObjectID(t *testing.T) {
	s := New()
	require.NoError(t, s.Push(value.ObjectID(42)))
	require.Equal(t, "42", s.Top())
}

func TestPushFrameAndPopFrameDiscardEntries(t *testing.T) {
	s := New()
	require.NoError(t, s.Advance())
	require.NoError(t, s.PushFrame())
	require.NoError(t, s.Push(value.Unsigned(7)))
	require.Equal(t, 2, s.Depth())
	require.NoError(t, s.PopFrame())
	require.Equal(t, 1, s.Depth())
}

func TestGetArgcArgvCollectsSinceFrameBase(t *testing.T) {
	s := New()
	require.NoError(t, s.PushFrame())
	require.NoError(t, s.Push(value.Unsigned(10)))
	require.NoError(t, s.Push(value.Number(2.5)))
	argv := s.GetArgcArgv("myFunc")
	require.Equal(t, []string{"myFunc", "10", "2.5"}, argv)
}

func TestCompareIsCaseInsensitive(t *testing.T) {
	s := New()
	require.NoError(t, s.Advance())
	require.NoError(t, s.AppendString("Hello"))
	require.NoError(t, s.Advance())
	require.NoError(t, s.AppendString("hello"))
	eq, err := s.Compare()
	require.NoError(t, err)
	require.True(t, eq)
}

func TestRewindTerminateClampsAndPops(t *testing.T) {
	s := New()
	require.NoError(t, s.Advance())
	require.NoError(t, s.AppendString("partial"))
	v, err := s.RewindTerminate()
	require.NoError(t, err)
	require.Equal(t, "partial", v)
	require.Equal(t, 0, s.Depth())
}
