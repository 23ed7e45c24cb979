// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package fiber

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tickerBody(ticks *int) Body {
	return func(yield Yield, args []Value) (Value, error) {
		for {
			*ticks++
			if _, err := yield(nil); err != nil {
				return nil, err
			}
		}
	}
}

func TestExecFibersRunsOnlyRunnableSchedules(t *testing.T) {
	m := NewManager()
	s := NewScheduler(m)

	var ticks int
	id := m.CreateFiber(tickerBody(&ticks))
	s.Schedule(Schedule{Fiber: id, Mode: WaitNone})

	s.ExecFibers(1)
	s.ExecFibers(1)
	require.Equal(t, 2, ticks)
}

func TestExecFibersHonorsWaitFlags(t *testing.T) {
	m := NewManager()
	s := NewScheduler(m)

	var ticks int
	id := m.CreateFiber(tickerBody(&ticks))
	s.Schedule(Schedule{Fiber: id, Mode: WaitFlags, Param: ScheduleParam{Mask: 0x1}})

	s.ExecFibers(1)
	require.Equal(t, 0, ticks)

	s.SetGlobalFlags(0x1)
	s.ExecFibers(1)
	require.Equal(t, 1, ticks)
}

func TestExecFibersCompactsFinishedFibers(t *testing.T) {
	m := NewManager()
	s := NewScheduler(m)

	id := m.CreateFiber(func(yield Yield, args []Value) (Value, error) {
		return "done", nil
	})
	s.Schedule(Schedule{Fiber: id, Mode: WaitNone})

	require.Equal(t, 1, s.PendingCount())
	s.ExecFibers(1)
	require.Equal(t, 0, s.PendingCount())
}

func TestCleanupWithObjectIDDropsOwnedSchedules(t *testing.T) {
	m := NewManager()
	s := NewScheduler(m)

	var ticks int
	id := m.CreateFiber(tickerBody(&ticks))
	s.ScheduleWithOwner(Schedule{Fiber: id, Mode: WaitNone}, 7)

	s.CleanupWithObjectID(7)
	require.Equal(t, 0, s.PendingCount())
	_, ok := m.Lookup(id)
	require.False(t, ok)
}
