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

// Package arena provides the bulk/slot allocators the runtime uses instead
// of per-value heap allocation: a generic slot pool for ZoneHeap custom-type
// storage, and a bounded compiled-source cache so repeated evaluation of
// identical script text skips recompilation.
package arena

import "errors"

// ErrBadHandle is returned when Get/Free is called with a handle that was
// never allocated, or was already freed.
var ErrBadHandle = errors.New("arena: invalid handle")

// Pool is a generic slot allocator: Alloc hands out a stable uint32 handle
// naming a T, reusing freed slots before growing. It backs ZoneHeap storage
// for every custom type registered with the type registry.
type Pool[T any] struct {
	slots []T
	live  []bool
	free  []uint32
}

// NewPool returns an empty pool.
func NewPool[T any]() *Pool[T] {
	return &Pool[T]{}
}

// Alloc reserves a slot holding the zero value of T and returns its handle.
func (p *Pool[T]) Alloc() uint32 {
	if n := len(p.free); n > 0 {
		h := p.free[n-1]
		p.free = p.free[:n-1]
		p.live[h] = true
		var zero T
		p.slots[h] = zero
		return h
	}
	h := uint32(len(p.slots))
	var zero T
	p.slots = append(p.slots, zero)
	p.live = append(p.live, true)
	return h
}

// Get returns a pointer to the slot named by handle, or nil if the handle
// is out of range or has been freed.
func (p *Pool[T]) Get(handle uint32) *T {
	if int(handle) >= len(p.slots) || !p.live[handle] {
		return nil
	}
	return &p.slots[handle]
}

// Free releases handle for reuse by a future Alloc. Freeing an already-free
// or out-of-range handle is a no-op reported via the bool return.
func (p *Pool[T]) Free(handle uint32) bool {
	if int(handle) >= len(p.slots) || !p.live[handle] {
		return false
	}
	p.live[handle] = false
	p.free = append(p.free, handle)
	return true
}

// Len reports the number of slots ever allocated (including freed ones);
// it is an upper bound on live handles, used by tests asserting bounded
// growth.
func (p *Pool[T]) Len() int { return len(p.slots) }
