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

import "github.com/probechain/korkscript/value"

// Cell is a script variable's storage slot, mirroring execstack's own
// string-or-packed-value entry shape: most locals/globals round-trip
// through their string form, but a typed variable (declared via a
// *_TO_TYPED conversion) carries an authoritative packed/custom Value
// instead so a round trip through a custom type's Cast doesn't lose
// precision.
type Cell struct {
	IsValue bool
	Str     string
	Val     value.Value
	TypeID  value.TypeID // TypeVoid when the cell is untyped
	Typed   bool
}

func stringCell(s string) Cell { return Cell{Str: s} }
func valueCell(v value.Value) Cell { return Cell{IsValue: true, Val: v} }
func typedCell(v value.Value, t value.TypeID) Cell {
	return Cell{IsValue: true, Val: v, TypeID: t, Typed: true}
}

// scope is one function call's local ("%name") variables. Globals ("$name")
// live on the Interp itself since they outlive any single call.
type scope struct {
	vars map[string]Cell
}

func newScope() *scope { return &scope{vars: make(map[string]Cell)} }

func (s *scope) get(name string) (Cell, bool) {
	c, ok := s.vars[name]
	return c, ok
}

func (s *scope) set(name string, c Cell) { s.vars[name] = c }
