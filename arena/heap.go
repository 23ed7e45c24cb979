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

package arena

import (
	"sync"

	"github.com/probechain/korkscript/value"
)

// HeapRegistry multiplexes value.ZoneHeap resolution across every custom
// type's own Pool: each registered type supplies one ResolveFunc, keyed by
// its TypeID, and HeapRegistry.Resolve dispatches a Value to the right one.
// A VM registers exactly one HeapRegistry against its value.Resolvers under
// ZoneHeap; every custom type (Vector3, host-registered classes, ...)
// registers itself here instead of touching Resolvers directly.
type HeapRegistry struct {
	mu  sync.RWMutex
	byType map[value.TypeID]value.ResolveFunc
}

// NewHeapRegistry returns an empty dispatcher.
func NewHeapRegistry() *HeapRegistry {
	return &HeapRegistry{byType: make(map[value.TypeID]value.ResolveFunc)}
}

// Register installs fn as the resolver for every Value of type id.
func (h *HeapRegistry) Register(id value.TypeID, fn value.ResolveFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byType[id] = fn
}

// Resolve implements value.ResolveFunc, suitable for direct registration
// against a value.Resolvers under ZoneHeap.
func (h *HeapRegistry) Resolve(v value.Value) ([]byte, bool) {
	h.mu.RLock()
	fn, ok := h.byType[v.Type]
	h.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return fn(v)
}
