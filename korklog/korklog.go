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

// Package korklog is the script-visible log fan-out: every echo/warn/error
// call produces one Record, dispatched to every registered Consumer plus,
// optionally, a bounded ring buffer for later retrieval.
package korklog

import (
	"errors"
	"fmt"
)

// Level classifies a log Record's severity.
type Level int

const (
	Normal Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Normal"
	}
}

// Kind classifies a log Record's source/category.
type Kind int

const (
	General Kind = iota
	Script
	Assert
	GUI
	Network
)

func (k Kind) String() string {
	switch k {
	case Script:
		return "Script"
	case Assert:
		return "Assert"
	case GUI:
		return "GUI"
	case Network:
		return "Network"
	default:
		return "General"
	}
}

// Record is one emitted log line.
type Record struct {
	Level Level
	Kind  Kind
	Msg   string
	Args  []interface{}
	// Depth is the current script call depth, used by consumers that
	// indent nested output (three spaces per level).
	Depth int
}

// Line renders the record's formatted message, ignoring level/kind/depth.
func (r Record) Line() string {
	if len(r.Args) == 0 {
		return r.Msg
	}
	return fmt.Sprintf(r.Msg, r.Args...)
}

// Consumer receives every dispatched Record.
type Consumer func(r Record)

// ErrNotRegistered is returned by RemoveConsumer for an unknown handle.
var ErrNotRegistered = errors.New("korklog: consumer not registered")

// consumerHandle lets RemoveConsumer identify a previously added Consumer
// without requiring function-value comparability (Go functions are not
// comparable with ==).
type consumerHandle struct {
	id int
	fn Consumer
}

// RingMode selects how the in-memory ring buffer retains ring-buffered
// copies of dispatched records.
type RingMode int

const (
	RingDisabled RingMode = iota
	RingEnabled
)

// Dispatcher is the VM-global log fan-out: a consumer list plus an
// optional bounded ring buffer. Emit invokes every registered consumer
// with (level, line) for each logged record.
type Dispatcher struct {
	consumers []consumerHandle
	nextID    int

	ringMode RingMode
	ring     []string
	ringCap  int
}

// NewDispatcher returns a Dispatcher with no consumers and the ring buffer
// disabled.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{ringCap: 4096}
}

// AddConsumer registers cb, returning a handle usable with RemoveConsumer.
func (d *Dispatcher) AddConsumer(cb Consumer) int {
	d.nextID++
	d.consumers = append(d.consumers, consumerHandle{id: d.nextID, fn: cb})
	return d.nextID
}

// RemoveConsumer unregisters the consumer returned by AddConsumer as id.
func (d *Dispatcher) RemoveConsumer(id int) error {
	for i, c := range d.consumers {
		if c.id == id {
			d.consumers = append(d.consumers[:i], d.consumers[i+1:]...)
			return nil
		}
	}
	return ErrNotRegistered
}

// SetRingMode enables or disables the ring buffer. Disabling clears it.
func (d *Dispatcher) SetRingMode(mode RingMode) {
	d.ringMode = mode
	if mode == RingDisabled {
		d.ring = nil
	}
}

// Emit dispatches r to every registered consumer and, if the ring buffer
// is enabled, appends an indented copy (three spaces per call-depth level).
func (d *Dispatcher) Emit(r Record) {
	for _, c := range d.consumers {
		c.fn(r)
	}
	if d.ringMode == RingEnabled {
		indent := ""
		for i := 0; i < r.Depth; i++ {
			indent += "   "
		}
		d.ring = append(d.ring, indent+r.Line())
		if len(d.ring) > d.ringCap {
			d.ring = d.ring[len(d.ring)-d.ringCap:]
		}
	}
}

// FlushRing returns and clears the accumulated ring buffer contents.
func (d *Dispatcher) FlushRing() []string {
	out := d.ring
	d.ring = nil
	return out
}
