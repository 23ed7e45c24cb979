// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package fiber

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDumpAndRestoreFiberStateRoundTrips(t *testing.T) {
	m := NewManager()
	id := m.CreateFiber(func(yield Yield, args []Value) (Value, error) {
		_, err := yield(nil)
		return nil, err
	})
	_, err := m.CallOnFiber(id, nil)
	require.NoError(t, err)

	f, _ := m.Lookup(id)
	var restored []byte
	f.SetSnapshotHooks(
		func() ([]byte, error) { return []byte("ip=3;locals=[1,2]"), nil },
		func(b []byte) error { restored = b; return nil },
	)

	blob, err := m.DumpFiberState([]ID{id})
	require.NoError(t, err)

	ids, err := m.RestoreFiberState(blob)
	require.NoError(t, err)
	require.Equal(t, []ID{id}, ids)
	require.Equal(t, "ip=3;locals=[1,2]", string(restored))
}

func TestRestoreFiberStateRejectsWrongVersion(t *testing.T) {
	m := NewManager()
	bad := []byte{0xff, 0, 0, 0, 0, 0, 0, 0}
	_, err := m.RestoreFiberState(bad)
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestRestoreFiberStateRejectsTruncatedBlob(t *testing.T) {
	m := NewManager()
	_, err := m.RestoreFiberState([]byte{1, 0, 0})
	require.ErrorIs(t, err, ErrMalformedDump)
}

func TestDumpFiberStateRejectsUnknownID(t *testing.T) {
	m := NewManager()
	_, err := m.DumpFiberState([]ID{ID(999)})
	require.ErrorIs(t, err, ErrUnknownFiber)
}
