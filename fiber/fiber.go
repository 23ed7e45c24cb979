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

// Package fiber implements cooperative script coroutines on top of one
// goroutine per fiber, handed control explicitly via a pair of unbuffered
// channels so that only one fiber ever runs at a time — matching the
// single-threaded, non-preemptive concurrency contract the rest of the VM
// assumes.
package fiber

import (
	"errors"

	"github.com/google/uuid"
)

// ErrWrongState is returned by operations that require a fiber to be in a
// specific State and find it isn't.
var ErrWrongState = errors.New("fiber: wrong state")

// ErrUnknownFiber is returned for an ID not owned by the Manager.
var ErrUnknownFiber = errors.New("fiber: unknown id")

// ThrownError wraps an error queued by QueueThrow, tagging whether the
// interpreter should treat it as catchable (Soft) or fatal to the fiber.
type ThrownError struct {
	Err  error
	Soft bool
}

func (t *ThrownError) Error() string { return t.Err.Error() }
func (t *ThrownError) Unwrap() error { return t.Err }

// State is a fiber's lifecycle stage.
type State int

const (
	Ready State = iota
	Running
	Suspended
	Done
	Errored
)

// ID identifies one fiber for the lifetime of its owning Manager.
type ID uint64

// Value is the opaque payload handed across a suspend/resume boundary.
// The interp package supplies the concrete type (value.Value); fiber
// itself never inspects it.
type Value interface{}

// Yield is called by a fiber's Body at every suspension point. It blocks
// until the fiber is next resumed (Manager.CallOnFiber or
// Manager.ResumeCurrent) and returns whatever resume value it was given. If a throw was queued with Fiber.QueueThrow since the
// last resume, Yield returns that error instead — soft throws are meant to
// be caught by the interpreter's own try/catch handling inside Body; hard
// throws are expected to propagate straight back out of Body.
type Yield func(v Value) (Value, error)

// Body is the function a fiber runs.
type Body func(yield Yield, args []Value) (Value, error)

// RunResult is returned by Manager.CallOnFiber and Manager.ResumeCurrent, describing the fiber's state
// after the call returns control to the caller.
type RunResult struct {
	State State
	Value Value
	Err   error
}

// Fiber is one coroutine: a goroutine plus the two channels used to hand
// control back and forth with its Manager.
type Fiber struct {
	ID    ID
	UUID  uuid.UUID
	state State

	toFiber   chan suspendSignal
	fromFiber chan fiberMsg
	started   bool

	body Body
	// pendingThrow, if non-nil, is delivered to the fiber's next yield
	// point instead of a resume value (throw_fiber).
	pendingThrow *ThrownError

	// Owner, if set, ties this fiber's lifetime to a host object id (used
	// by Manager.CleanupWithObjectID).
	Owner    uint32
	hasOwner bool

	// onSnapshot/onRestore are the interp-supplied hooks backing
	// DumpFiberState/RestoreFiberState (see dump.go).
	onSnapshot SnapshotFunc
	onRestore  RestoreFunc
}

type fiberMsg struct {
	yielded bool // true: body called yield and is waiting; false: body returned
	value   Value
	err     error
}

// suspendSignal is delivered by Fiber.resume through the fiber's own
// yield channel to make a yield() call return; it's never observed outside
// this package.
type suspendSignal struct {
	throw     *ThrownError
	resumeVal Value
}

func newFiber(id ID, body Body) *Fiber {
	return &Fiber{
		ID:        id,
		UUID:      uuid.New(),
		state:     Ready,
		toFiber:   make(chan suspendSignal),
		fromFiber: make(chan fiberMsg),
		body:      body,
	}
}

// State reports the fiber's current lifecycle stage.
func (f *Fiber) State() State { return f.state }

// start launches the body goroutine. It blocks until the body either
// yields for the first time or returns, exactly like a subsequent Resume.
func (f *Fiber) start(args []Value) RunResult {
	f.started = true
	f.state = Running

	go func() {
		yield := func(v Value) (Value, error) {
			f.fromFiber <- fiberMsg{yielded: true, value: v}
			sig := <-f.toFiber
			if sig.throw != nil {
				return nil, sig.throw
			}
			return sig.resumeVal, nil
		}
		ret, err := f.body(yield, args)
		f.fromFiber <- fiberMsg{yielded: false, value: ret, err: err}
	}()

	return f.awaitMsg()
}

// resume hands control to a Suspended fiber, delivering resumeVal as the
// return value of its pending yield() call.
func (f *Fiber) resume(resumeVal Value) RunResult {
	if f.state == Ready {
		return f.start(nil)
	}
	if f.state != Suspended {
		return RunResult{State: f.state, Err: ErrWrongState}
	}
	f.state = Running
	sig := suspendSignal{resumeVal: resumeVal}
	if f.pendingThrow != nil {
		sig.throw = f.pendingThrow
		f.pendingThrow = nil
	}
	f.toFiber <- sig
	return f.awaitMsg()
}

func (f *Fiber) awaitMsg() RunResult {
	msg := <-f.fromFiber
	if msg.yielded {
		f.state = Suspended
		return RunResult{State: Suspended, Value: msg.value}
	}
	if msg.err != nil {
		f.state = Errored
		return RunResult{State: Errored, Err: msg.err}
	}
	f.state = Done
	return RunResult{State: Done, Value: msg.value}
}

// QueueThrow arranges for err to be delivered as Yield's return error at
// the fiber's next resume, instead of a normal resume value. If soft, the
// interpreter running inside Body is expected to route it through its own
// try/catch handling instead of letting it propagate out of Body.
func (f *Fiber) QueueThrow(err error, soft bool) {
	f.pendingThrow = &ThrownError{Err: err, Soft: soft}
}
