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

import (
	"strings"

	"github.com/probechain/korkscript/types"
	"github.com/probechain/korkscript/value"
)

// getVar reads a %local or $global cell; an unset variable reads as the
// empty string, matching the language's "missing reads as empty" rule.
func (ip *Interp) getVar(fr *frame, name string) Cell {
	if strings.HasPrefix(name, "$") {
		return ip.globals[name]
	}
	c, _ := fr.scope.get(name)
	return c
}

func (ip *Interp) setVar(fr *frame, name string, c Cell) {
	if strings.HasPrefix(name, "$") {
		ip.globals[name] = c
		return
	}
	fr.scope.set(name, c)
}

// formatCell renders a Cell to its string form, routing packed/custom
// values through the types registry so custom FormatString hooks apply.
func (ip *Interp) formatCell(c Cell) string {
	if c.IsValue {
		return ip.Types.FormatString(c.Val)
	}
	return c.Str
}

// numericValue coerces a Cell to a packed Number/Unsigned value.Value,
// tolerantly parsing its string form if it isn't already packed numeric.
func (ip *Interp) numericValue(c Cell, asFloat bool) value.Value {
	if c.IsValue && (c.Val.Type == value.TypeNumber || c.Val.Type == value.TypeUnsigned || c.Val.Type == value.TypeObjectID) {
		if asFloat {
			return value.Number(toFloat(c.Val))
		}
		return value.Unsigned(toUint(c.Val))
	}
	s := c.Str
	if asFloat {
		return value.Number(value.ParseFloat(s))
	}
	return value.Unsigned(value.ParseUint(s))
}

func toFloat(v value.Value) float64 {
	if v.Type == value.TypeNumber {
		return v.AsFloat()
	}
	return float64(v.AsUint())
}

func toUint(v value.Value) uint64 {
	if v.Type == value.TypeNumber {
		return uint64(int64(v.AsFloat()))
	}
	return v.AsUint()
}

// popCell pops the top of fr's execution stack into a Cell, preferring its
// packed Value form when one is present (set by arithmetic/comparison ops)
// and falling back to its string form otherwise.
func (ip *Interp) popCell(fr *frame) Cell {
	if v, ok := fr.stack.TopValue(); ok {
		fr.stack.Rewind()
		return valueCell(v)
	}
	s := fr.stack.Top()
	fr.stack.Rewind()
	return stringCell(s)
}

func (ip *Interp) pushCell(fr *frame, c Cell) error {
	if c.IsValue {
		return fr.stack.Push(c.Val)
	}
	if err := fr.stack.Advance(); err != nil {
		return err
	}
	return fr.stack.SetStringValue(c.Str)
}

// binaryOp pops the top two stack entries (rhs then lhs), evaluates op
// through the types registry using lhs's numeric interpretation, and pushes
// the packed result — the shared implementation behind every arithmetic,
// comparison and bitwise opcode.
func (ip *Interp) binaryOp(fr *frame, op types.Op, asFloat bool) error {
	rhs := ip.popCell(fr)
	lhs := ip.popCell(fr)
	lv := ip.numericValue(lhs, asFloat)
	rv := ip.numericValue(rhs, asFloat)
	result := ip.Types.PerformOp(op, lv, rv)
	return fr.stack.Push(result)
}

// unaryOp pops one entry, evaluates op against a zero rhs, and pushes the
// result — used by NOT/NOTF/ONESCOMPLEMENT/NEG, none of which use rhs.
func (ip *Interp) unaryOp(fr *frame, op types.Op, asFloat bool) error {
	v := ip.popCell(fr)
	lv := ip.numericValue(v, asFloat)
	var zero value.Value
	if asFloat {
		zero = value.Number(0)
	} else {
		zero = value.Unsigned(0)
	}
	result := ip.Types.PerformOp(op, lv, zero)
	return fr.stack.Push(result)
}
