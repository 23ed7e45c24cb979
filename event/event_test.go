// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdvancePastDueDispatchesInOrder(t *testing.T) {
	s := NewScheduler()
	var fired []string
	s.Post(10, Dispatch{Function: "a"})
	id := s.Post(5, Dispatch{Function: "b"})
	s.Post(5, Dispatch{Function: "c"})

	require.True(t, s.IsPending(id))

	s.Advance(9, func(d Dispatch) { fired = append(fired, d.Function) })
	require.Equal(t, []string{"b", "c"}, fired)
	require.False(t, s.IsPending(id))

	s.Advance(10, func(d Dispatch) { fired = append(fired, d.Function) })
	require.Equal(t, []string{"b", "c", "a"}, fired)
}

func TestCancelSkipsDispatch(t *testing.T) {
	s := NewScheduler()
	id := s.Post(1000, Dispatch{Function: "echo", Args: []string{"hi"}})

	require.False(t, s.IsPending(10000))
	s.Advance(999, func(Dispatch) { t.Fatal("must not fire before due time") })
	require.True(t, s.IsPending(id))

	require.NoError(t, s.Cancel(id))
	require.False(t, s.IsPending(id))

	fired := false
	s.Advance(1000, func(Dispatch) { fired = true })
	require.False(t, fired)
	require.ErrorIs(t, s.Cancel(id), ErrNotFound)
}

func TestQueriesReflectPendingState(t *testing.T) {
	s := NewScheduler()
	id := s.Post(1000, Dispatch{Function: "echo"})

	left, ok := s.TimeLeft(id)
	require.True(t, ok)
	require.Equal(t, 1000.0, left)

	sinceStart, ok := s.TimeSinceStart(id)
	require.True(t, ok)
	require.Equal(t, 0.0, sinceStart)

	dur, ok := s.ScheduledDuration(id)
	require.True(t, ok)
	require.Equal(t, 1000.0, dur)

	fired := false
	s.Advance(1000, func(Dispatch) { fired = true })
	require.True(t, fired)

	_, ok = s.TimeLeft(id)
	require.False(t, ok)
}

type fakeTarget struct{ deleted bool }

func (f *fakeTarget) IsDeleted() bool { return f.deleted }

func TestDeletedTargetDropsEvent(t *testing.T) {
	s := NewScheduler()
	tgt := &fakeTarget{}
	s.Post(5, Dispatch{Object: tgt, Function: "tick"})

	tgt.deleted = true

	fired := false
	s.Advance(5, func(Dispatch) { fired = true })
	require.False(t, fired)
}
