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

package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/probechain/korkscript/arena"
	"github.com/probechain/korkscript/value"
)

// Vector3 is the worked example of a composite type satisfying the
// registry's cast/parse/format contract: three floats, constructible from
// a single "x y z" string, from another Vector3 (copy), or left to the
// interpreter to fill in from three stack arguments directly.
type Vector3 struct {
	X, Y, Z float64
}

// Vector3Store backs every Vector3 value's ZoneHeap storage for one
// Registry. RegisterVector3 binds it into resolvers so Values of this type
// resolve through the normal Value.Resolve path like any other heap type.
type Vector3Store struct {
	typeID value.TypeID
	pool   *arena.Pool[Vector3]
}

// New allocates a Vector3 in the store and returns a Value naming it.
func (s *Vector3Store) New(x, y, z float64) value.Value {
	h := s.pool.Alloc()
	*s.pool.Get(h) = Vector3{X: x, Y: y, Z: z}
	return value.Raw(s.typeID, value.ZoneHeap, uint64(h))
}

// NewFromString parses s the way a single-argument construction does and
// allocates the result.
func (s *Vector3Store) NewFromString(raw string) value.Value {
	v := ParseVector3(raw)
	return s.New(v.X, v.Y, v.Z)
}

// Get dereferences v (which must be of this store's type) to its Vector3.
func (s *Vector3Store) Get(v value.Value) *Vector3 {
	if v.Type != s.typeID {
		return nil
	}
	return s.pool.Get(uint32(v.Payload))
}

// RegisterVector3 registers the Vector3 type against reg and wires its heap
// storage into resolvers under ZoneHeap. It returns the assigned Type and a
// Vector3Store used to construct and dereference Values of it.
func RegisterVector3(reg *Registry, heap *arena.HeapRegistry) (*Type, *Vector3Store, error) {
	p := &Vector3Store{pool: arena.NewPool[Vector3]()}

	t, err := reg.RegisterType(Interface{
		Name:      "Vector3",
		ValueSize: 24,
		Cast: func(_ *Registry, v value.Value, _ CastFlags) (value.Value, bool) {
			if v.Type == p.typeID {
				return v, true
			}
			// String -> Vector3 goes through NewFromString explicitly
			// (it needs to resolve the string's bytes first); Cast only
			// handles the identity case here.
			return value.Void(), false
		},
		FormatString: func(_ *Registry, v value.Value) string {
			vec := p.Get(v)
			if vec == nil {
				return ""
			}
			return fmt.Sprintf("%s %s %s",
				strconv.FormatFloat(vec.X, 'g', 9, 64),
				strconv.FormatFloat(vec.Y, 'g', 9, 64),
				strconv.FormatFloat(vec.Z, 'g', 9, 64))
		},
	})
	if err != nil {
		return nil, nil, err
	}
	p.typeID = t.ID

	heap.Register(t.ID, func(v value.Value) ([]byte, bool) {
		vec := p.Get(v)
		if vec == nil {
			return nil, false
		}
		return []byte(fmt.Sprintf("%v %v %v", vec.X, vec.Y, vec.Z)), true
	})

	return t, p, nil
}

// ParseVector3 implements the "single string" construction path: whitespace
// separated "x y z", matching an sscanf("%f %f %f") read. Missing
// components default to 0, mirroring the original engine's tolerant parse.
func ParseVector3(s string) Vector3 {
	fields := strings.Fields(s)
	var v Vector3
	if len(fields) > 0 {
		v.X = value.ParseFloat(fields[0])
	}
	if len(fields) > 1 {
		v.Y = value.ParseFloat(fields[1])
	}
	if len(fields) > 2 {
		v.Z = value.ParseFloat(fields[2])
	}
	return v
}
