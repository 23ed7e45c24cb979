// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package fiberstore

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrips(t *testing.T) {
	s, err := OpenMem()
	require.NoError(t, err)
	defer s.Close()

	session := uuid.New()
	require.NoError(t, s.Put(session, []byte("blob-data")))

	blob, ok, err := s.Get(session)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "blob-data", string(blob))
}

func TestGetMissingSessionReturnsFalse(t *testing.T) {
	s, err := OpenMem()
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(uuid.New())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteRemovesSession(t *testing.T) {
	s, err := OpenMem()
	require.NoError(t, err)
	defer s.Close()

	session := uuid.New()
	require.NoError(t, s.Put(session, []byte("x")))
	require.NoError(t, s.Delete(session))

	_, ok, err := s.Get(session)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSessionsListsAllStoredKeys(t *testing.T) {
	s, err := OpenMem()
	require.NoError(t, err)
	defer s.Close()

	a, b := uuid.New(), uuid.New()
	require.NoError(t, s.Put(a, []byte("1")))
	require.NoError(t, s.Put(b, []byte("2")))

	sessions, err := s.Sessions()
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{a, b}, sessions)
}
