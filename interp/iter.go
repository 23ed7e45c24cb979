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
	"strconv"
	"strings"
)

// iterFrame backs one open ITER_BEGIN/ITER_BEGIN_STR loop: either over an
// object group's children (foreach (%o in %group)) or over a delimited
// string (foreach$ (%tok in %str)).
type iterFrame struct {
	varName string
	endIP   int

	objItems []uint32 // object ids, for group iteration
	objPos   int

	strItems []string // split tokens, for string iteration
	strPos   int
}

func newObjectIter(varName string, endIP int, ids []uint32) *iterFrame {
	return &iterFrame{varName: varName, endIP: endIP, objItems: ids}
}

func newStringIter(varName string, endIP int, s string) *iterFrame {
	items := strings.Fields(s)
	return &iterFrame{varName: varName, endIP: endIP, strItems: items}
}

// next advances the iterator, returning the next element's string form and
// true, or ("", false) once exhausted.
func (it *iterFrame) next() (string, bool) {
	if it.objItems != nil {
		if it.objPos >= len(it.objItems) {
			return "", false
		}
		v := it.objItems[it.objPos]
		it.objPos++
		return strconv.FormatUint(uint64(v), 10), true
	}
	if it.strPos >= len(it.strItems) {
		return "", false
	}
	s := it.strItems[it.strPos]
	it.strPos++
	return s, true
}
