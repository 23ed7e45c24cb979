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

package interp

import "github.com/go-stack/stack"

// thrown is a script-level `throw expr` in flight, unwinding Go stack frames
// until it reaches the nearest PUSH_TRY handler (caught inside run's own
// loop) or escapes the top-level call (surfaced to the host as an error).
// callStack captures the Go call site for host-side diagnostics only; it is
// never script-visible.
type thrown struct {
	value     string
	callStack stack.CallStack
}

func (t *thrown) Error() string { return "thrown: " + t.value }

func newThrown(v string) *thrown {
	return &thrown{value: v, callStack: stack.Trace().TrimRuntime()}
}

// tryFrame is one PUSH_TRY handler: where to resume on catch, and how far to
// unwind the value stack and iterator stack when a throw reaches it (locals
// are not restored). Any ITER_BEGIN frame opened above iterMark is closed, not captured, when
// a throw unwinds past it (see DESIGN.md for the reasoning).
type tryFrame struct {
	handlerIP int
	stackMark int
	iterMark  int
}
