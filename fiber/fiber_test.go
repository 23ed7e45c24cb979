// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package fiber

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func counterBody(yield Yield, args []Value) (Value, error) {
	n := args[0].(int)
	for i := 0; i < n; i++ {
		v, err := yield(i)
		if err != nil {
			return nil, err
		}
		_ = v
	}
	return "done", nil
}

func TestCallOnFiberSuspendsAndCompletes(t *testing.T) {
	m := NewManager()
	id := m.CreateFiber(counterBody)

	r, err := m.CallOnFiber(id, []Value{2})
	require.NoError(t, err)
	require.Equal(t, Suspended, r.State)
	require.Equal(t, 0, r.Value)

	r, err = m.CallOnFiber(id, []Value{nil})
	require.NoError(t, err)
	require.Equal(t, Suspended, r.State)
	require.Equal(t, 1, r.Value)

	r, err = m.CallOnFiber(id, []Value{nil})
	require.NoError(t, err)
	require.Equal(t, Done, r.State)
	require.Equal(t, "done", r.Value)
}

func TestCurrentFiberTracksActiveCall(t *testing.T) {
	m := NewManager()
	require.Equal(t, ID(0), m.Current())

	var sawCurrent ID
	id := m.CreateFiber(func(yield Yield, args []Value) (Value, error) {
		sawCurrent = m.Current()
		return nil, nil
	})
	_, err := m.CallOnFiber(id, nil)
	require.NoError(t, err)
	require.Equal(t, id, sawCurrent)
	require.Equal(t, ID(0), m.Current())
}

func TestThrowFiberDeliversErrorAtYield(t *testing.T) {
	m := NewManager()
	id := m.CreateFiber(func(yield Yield, args []Value) (Value, error) {
		_, err := yield(nil)
		if err != nil {
			return "caught", nil
		}
		return "not caught", nil
	})

	r, err := m.CallOnFiber(id, nil)
	require.NoError(t, err)
	require.Equal(t, Suspended, r.State)

	require.NoError(t, m.ThrowFiber(id, errors.New("boom"), true))
	r, err = m.CallOnFiber(id, []Value{nil})
	require.NoError(t, err)
	require.Equal(t, Done, r.State)
	require.Equal(t, "caught", r.Value)
}

func TestResumingNonSuspendedFiberIsAnError(t *testing.T) {
	m := NewManager()
	id := m.CreateFiber(func(yield Yield, args []Value) (Value, error) {
		return "immediate", nil
	})
	r, err := m.CallOnFiber(id, nil)
	require.NoError(t, err)
	require.Equal(t, Done, r.State)

	r, err = m.CallOnFiber(id, nil)
	require.NoError(t, err)
	require.ErrorIs(t, r.Err, ErrWrongState)
}

func TestCleanupWithOwnerDropsOwnedFibers(t *testing.T) {
	m := NewManager()
	id := m.CreateFiber(func(yield Yield, args []Value) (Value, error) { return nil, nil })
	require.NoError(t, m.SetOwner(id, 42))

	m.CleanupWithOwner(42)
	_, ok := m.Lookup(id)
	require.False(t, ok)
}
