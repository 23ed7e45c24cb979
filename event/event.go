// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package event implements the simulation-time event scheduler: a min-heap
// of pending console calls keyed by due time, advanced explicitly by the
// host rather than a wall-clock timer.
package event

import (
	"container/heap"
	"errors"
	"sync"
)

// ErrNotFound is returned by operations referencing an unknown or already
// dispatched/cancelled event id.
var ErrNotFound = errors.New("event: not found")

// Dispatch is the payload a scheduled event carries: either a free
// function call (Object == nil) or a method call on a live object.
type Dispatch struct {
	Object   interface{} // *object.Object, kept opaque to avoid an import cycle
	Function string
	Args     []string
}

// Target is implemented by whatever the caller passes as Dispatch.Object;
// the scheduler only ever needs to know if it has been destroyed.
type Target interface {
	IsDeleted() bool
}

// DispatchFunc is invoked by Advance for every event whose due time has
// arrived and which was neither cancelled nor orphaned.
type DispatchFunc func(d Dispatch)

// ID identifies one scheduled event, stable for its lifetime (cancel,
// query), reused only after the generation counter wraps (never, in
// practice).
type ID uint64

type scheduledEvent struct {
	id        ID
	due       float64
	postedAt  float64
	seq       uint64 // tie-break for equal due times, FIFO among them
	cancelled bool
	dispatch  Dispatch
	heapIndex int
}

// eventHeap implements container/heap.Interface, ordered by (due, seq).
type eventHeap []*scheduledEvent

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}
func (h *eventHeap) Push(x interface{}) {
	e := x.(*scheduledEvent)
	e.heapIndex = len(*h)
	*h = append(*h, e)
}
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler holds every pending event for one VM's simulation clock. Time
// only moves forward, driven by the host calling Advance.
type Scheduler struct {
	mu      sync.Mutex
	heap    eventHeap
	byID    map[ID]*scheduledEvent
	nextID  ID
	nextSeq uint64
	now     float64
	start   float64
}

// NewScheduler returns an empty scheduler with its clock at 0.
func NewScheduler() *Scheduler {
	return &Scheduler{byID: make(map[ID]*scheduledEvent)}
}

// Now reports the scheduler's current simulation time.
func (s *Scheduler) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Post schedules d to run delay time units from now, returning its id.
func (s *Scheduler) Post(delay float64, d Dispatch) ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.nextSeq++
	e := &scheduledEvent{
		id:       s.nextID,
		due:      s.now + delay,
		postedAt: s.now,
		seq:      s.nextSeq,
		dispatch: d,
	}
	s.byID[e.id] = e
	heap.Push(&s.heap, e)
	return e.id
}

// Cancel marks id so Advance skips it. Lazy: the heap slot is reclaimed on
// pop, not immediately. Returns ErrNotFound if id is unknown or already
// dispatched.
func (s *Scheduler) Cancel(id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	e.cancelled = true
	delete(s.byID, id)
	return nil
}

// IsPending reports whether id is still scheduled (not yet dispatched,
// cancelled, or orphaned).
func (s *Scheduler) IsPending(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	return ok && !e.cancelled
}

// TimeLeft returns the delay remaining until id fires, or (0, false) if it
// is not pending.
func (s *Scheduler) TimeLeft(id ID) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok || e.cancelled {
		return 0, false
	}
	left := e.due - s.now
	if left < 0 {
		left = 0
	}
	return left, true
}

// TimeSinceStart returns how long ago id was posted, or (0, false) if it is
// not pending.
func (s *Scheduler) TimeSinceStart(id ID) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok || e.cancelled {
		return 0, false
	}
	return s.now - e.postedAt, true
}

// ScheduledDuration returns the total delay id was posted with, or
// (0, false) if it is not pending.
func (s *Scheduler) ScheduledDuration(id ID) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok || e.cancelled {
		return 0, false
	}
	return e.due - e.postedAt, true
}

// Advance moves the clock to t, repeatedly popping and dispatching every
// event whose due time has arrived, in (due, post-order) sequence.
// Cancelled events and events targeting a deleted object are dropped
// silently rather than passed to dispatch. dispatch must not call back
// into Post/Cancel with the scheduler's own lock held (it isn't — Advance
// releases the lock before invoking dispatch).
func (s *Scheduler) Advance(t float64, dispatch DispatchFunc) {
	for {
		s.mu.Lock()
		if len(s.heap) == 0 || s.heap[0].due > t {
			s.now = t
			s.mu.Unlock()
			return
		}
		e := heap.Pop(&s.heap).(*scheduledEvent)
		delete(s.byID, e.id)
		s.now = e.due
		cancelled := e.cancelled
		s.mu.Unlock()

		if cancelled {
			continue
		}
		if tgt, ok := e.dispatch.Object.(Target); ok && tgt.IsDeleted() {
			continue
		}
		dispatch(e.dispatch)
	}
}

// Pending returns the number of events still awaiting dispatch.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
