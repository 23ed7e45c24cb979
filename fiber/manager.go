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

import "sync"

// Manager owns every fiber created for one VM and tracks which one is
// currently executing.
type Manager struct {
	mu      sync.Mutex
	fibers  map[ID]*Fiber
	nextID  ID
	current ID // 0 is the implicit main fiber, never in the fibers map
}

// NewManager returns a Manager with only the implicit main fiber (id 0).
func NewManager() *Manager {
	return &Manager{fibers: make(map[ID]*Fiber)}
}

// Current returns the id of the fiber presently executing (0 for main).
func (m *Manager) Current() ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// CreateFiber allocates a new, not-yet-started fiber running body.
func (m *Manager) CreateFiber(body Body) ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.fibers[id] = newFiber(id, body)
	return id
}

// Lookup returns the Fiber for id, if any (id 0 never resolves — the main
// fiber has no Fiber struct).
func (m *Manager) Lookup(id ID) (*Fiber, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fibers[id]
	return f, ok
}

// CallOnFiber switches the current fiber to id, resumes it with args as
// its initial arguments (if it hasn't started yet) or as the value of its
// pending yield (if it was already suspended), and restores the caller's
// fiber id once id suspends or completes.
func (m *Manager) CallOnFiber(id ID, args []Value) (RunResult, error) {
	m.mu.Lock()
	f, ok := m.fibers[id]
	if !ok {
		m.mu.Unlock()
		return RunResult{}, ErrUnknownFiber
	}
	prev := m.current
	m.current = id
	m.mu.Unlock()

	var result RunResult
	if f.state == Ready {
		result = f.start(args)
	} else {
		result = f.resume(firstOrNil(args))
	}

	m.mu.Lock()
	m.current = prev
	m.mu.Unlock()
	return result, nil
}

func firstOrNil(args []Value) Value {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

// ResumeCurrent resumes the currently executing fiber (as returned by
// Current) with resumeVal as the pending yield's return value. It is an
// error to call this when Current() is 0 (the main fiber never suspends).
func (m *Manager) ResumeCurrent(resumeVal Value) (RunResult, error) {
	id := m.Current()
	if id == 0 {
		return RunResult{}, ErrWrongState
	}
	return m.CallOnFiber(id, []Value{resumeVal})
}

// ThrowFiber queues err for delivery into fiber id at its next resumption.
func (m *Manager) ThrowFiber(id ID, err error, soft bool) error {
	f, ok := m.Lookup(id)
	if !ok {
		return ErrUnknownFiber
	}
	f.QueueThrow(err, soft)
	return nil
}

// CleanupFiber discards fiber id's bookkeeping. It does not forcibly stop a
// Running fiber's goroutine — callers must only clean up fibers that are
// Suspended, Done, or Errored.
func (m *Manager) CleanupFiber(id ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fibers, id)
}

// CleanupWithOwner drops every fiber whose Owner matches objID, as used
// when an owning object is deleted.
func (m *Manager) CleanupWithOwner(objID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, f := range m.fibers {
		if f.hasOwner && f.Owner == objID {
			delete(m.fibers, id)
		}
	}
}

// SetOwner ties fiber id's lifetime bookkeeping to a host object id.
func (m *Manager) SetOwner(id ID, objID uint32) error {
	f, ok := m.Lookup(id)
	if !ok {
		return ErrUnknownFiber
	}
	f.Owner = objID
	f.hasOwner = true
	return nil
}
