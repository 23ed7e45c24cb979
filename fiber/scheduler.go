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

package fiber

// WaitMode selects the run condition a Scheduler checks before resuming a
// scheduled fiber, mirroring the wait predicates a higher-level fiber
// scheduler offers script code.
type WaitMode int

const (
	// WaitIgnore never runs this tick (schedule kept, not removed).
	WaitIgnore WaitMode = iota
	// WaitNone always runs, every tick.
	WaitNone
	// WaitFlags runs once (global & Mask) == Mask.
	WaitFlags
	// WaitFlagsClear runs once (global & Mask) == 0.
	WaitFlagsClear
	// WaitLocalClear runs once the schedule's own Mask is 0.
	WaitLocalClear
	// WaitSimTime runs once simulation time reaches MinTime; one-shot.
	WaitSimTime
	// WaitTick runs once the tick counter reaches MinTime; one-shot.
	WaitTick
)

// ScheduleParam carries WaitFlags/WaitSimTime/WaitTick's thresholds.
type ScheduleParam struct {
	Mask    uint64
	MinTime float64
}

// Schedule binds one fiber to a wait predicate, checked every ExecFibers
// tick.
type Schedule struct {
	Fiber ID
	Mode  WaitMode
	Param ScheduleParam
	Owner uint32
	hasOwner bool
}

// Scheduler runs a list of fiber schedules against a shared set of global
// flags and simulation clock, generalizing the fiber manager's
// synchronous CallOnFiber into a tick-driven poller.
type Scheduler struct {
	manager     *Manager
	schedules   []Schedule
	globalFlags uint64
	simTime     float64
	tickCount   uint64
}

// NewScheduler returns a Scheduler driving fibers owned by m.
func NewScheduler(m *Manager) *Scheduler {
	return &Scheduler{manager: m}
}

// SetGlobalFlags replaces the global flag bitset consulted by WaitFlags
// and WaitFlagsClear schedules.
func (s *Scheduler) SetGlobalFlags(flags uint64) { s.globalFlags = flags }

// GlobalFlags returns the current global flag bitset.
func (s *Scheduler) GlobalFlags() uint64 { return s.globalFlags }

// Schedule adds sched to the poll list.
func (s *Scheduler) Schedule(sched Schedule) {
	s.schedules = append(s.schedules, sched)
}

// ScheduleWithOwner adds sched to the poll list, tying it to a host
// object's lifetime for CleanupWithObjectID.
func (s *Scheduler) ScheduleWithOwner(sched Schedule, objID uint32) {
	sched.Owner = objID
	sched.hasOwner = true
	s.schedules = append(s.schedules, sched)
}

func (s *Scheduler) runnable(sc Schedule) bool {
	switch sc.Mode {
	case WaitIgnore:
		return false
	case WaitNone:
		return true
	case WaitFlags:
		return s.globalFlags&sc.Param.Mask == sc.Param.Mask
	case WaitFlagsClear:
		return s.globalFlags&sc.Param.Mask == 0
	case WaitLocalClear:
		return sc.Param.Mask == 0
	case WaitSimTime:
		return s.simTime >= sc.Param.MinTime
	case WaitTick:
		return float64(s.tickCount) >= sc.Param.MinTime
	default:
		return false
	}
}

// ExecFibers advances the simulation clock and tick counter, then runs
// every schedule whose predicate currently holds, compacting out entries
// whose fiber has since finished (Done or Errored).
func (s *Scheduler) ExecFibers(tickAdvance float64) {
	s.simTime += tickAdvance
	s.tickCount++

	kept := s.schedules[:0]
	for _, sc := range s.schedules {
		f, ok := s.manager.Lookup(sc.Fiber)
		if !ok || f.State() == Done || f.State() == Errored {
			continue
		}
		if s.runnable(sc) {
			s.manager.CallOnFiber(sc.Fiber, nil)
			if sc.Mode == WaitSimTime || sc.Mode == WaitTick {
				sc.Mode = WaitIgnore
			}
		}
		if f.State() == Done || f.State() == Errored {
			continue
		}
		kept = append(kept, sc)
	}
	s.schedules = kept
}

// CleanupWithObjectID drops every schedule (and its underlying fiber)
// owned by objID, used when the owning object is deleted.
func (s *Scheduler) CleanupWithObjectID(objID uint32) {
	kept := s.schedules[:0]
	for _, sc := range s.schedules {
		if sc.hasOwner && sc.Owner == objID {
			s.manager.CleanupFiber(sc.Fiber)
			continue
		}
		kept = append(kept, sc)
	}
	s.schedules = kept
}

// PendingCount reports how many schedules remain.
func (s *Scheduler) PendingCount() int { return len(s.schedules) }
