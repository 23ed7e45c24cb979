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

// Package types is the pluggable type registry: every Value's TypeID names
// an entry here that knows how to cast, parse, format and operate on it.
// The built-in Number/Unsigned/String/Void/ObjectID types are registered by
// NewRegistry; host code registers additional composite types (see Vector3
// in this package for a worked example) the same way.
package types

import (
	"errors"
	"strings"
	"sync"

	"github.com/probechain/korkscript/value"
)

// ErrUnknownType is returned when a lookup by id or name fails.
var ErrUnknownType = errors.New("types: unknown type")

// ErrAlreadyRegistered is returned when RegisterType is called with a name
// that is already taken.
var ErrAlreadyRegistered = errors.New("types: type already registered")

// Op enumerates the operators the interpreter's typed-op opcodes (TYPED_OP,
// TYPED_OP_REVERSE, TYPED_UNARY_OP) can dispatch through PerformOp. The
// TYPED_OP family carries an Op value as its bytecode operand word, so this
// numbering is part of the bytecode encoding.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpCmpEq
	OpCmpNe
	OpCmpGr
	OpCmpGe
	OpCmpLt
	OpCmpLe
	OpBitAnd
	OpBitOr
	OpXor
	OpShl
	OpShr
	OpAnd
	OpOr
	OpNot
	OpNotF
	OpOnesComplement
	OpNeg
)

// CastFlags modifies Cast behavior; currently only distinguishes a strict
// cast (used by typed-variable assignment, which must fail cleanly on a
// mismatched type) from a loose one (used by ordinary string coercion).
type CastFlags uint8

const (
	CastLoose CastFlags = 0
	CastStrict CastFlags = 1 << iota
)

// Interface is the behavior a registered type must supply.
type Interface struct {
	// Name is the type's script-visible name, e.g. "Vector3".
	Name string
	// ValueSize is the number of bytes a single value of this type occupies
	// in ZoneHeap/ZoneFunc storage.
	ValueSize int
	// Cast converts v (of any registered type) into this type. ok is false
	// if the conversion isn't defined; Cast must not panic on mismatched
	// input.
	Cast func(reg *Registry, v value.Value, flags CastFlags) (value.Value, bool)
	// FormatString renders v (of this type) as its canonical string form.
	FormatString func(reg *Registry, v value.Value) string
	// PerformOp evaluates op on two values of this type, used for the
	// built-in arithmetic/relational/bitwise/logical opcodes and the
	// TYPED_OP family. Types with no meaningful operators (e.g. Void) may
	// leave this nil; Registry.PerformOp then returns a void value without
	// reporting a diagnostic.
	PerformOp func(op Op, lhs, rhs value.Value) value.Value
}

// Type is a registered Interface bound to a concrete TypeID.
type Type struct {
	ID value.TypeID
	Interface
}

// Registry holds every type known to a VM, built-ins plus host-registered
// custom types.
type Registry struct {
	mu        sync.RWMutex
	byID      map[value.TypeID]*Type
	byName    map[string]*Type
	next      value.TypeID
	resolvers *value.Resolvers
}

// SetResolvers installs the zone resolver the String type uses to read its
// backing bytes. interp.New wires this to the Interp's own Resolvers
// instance.
func (r *Registry) SetResolvers(resolvers *value.Resolvers) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers = resolvers
}

// NewRegistry returns a registry pre-loaded with the built-in primitive
// types (Void, String, Unsigned, Number, ObjectID).
func NewRegistry() *Registry {
	r := &Registry{
		byID:   make(map[value.TypeID]*Type),
		byName: make(map[string]*Type),
		next:   value.TypeBeginCustom,
	}
	r.registerBuiltin(value.TypeVoid, Interface{
		Name:      "void",
		ValueSize: 0,
		Cast: func(_ *Registry, _ value.Value, _ CastFlags) (value.Value, bool) {
			return value.Void(), true
		},
		FormatString: func(_ *Registry, _ value.Value) string { return "" },
	})
	r.registerBuiltin(value.TypeString, Interface{
		Name:      "string",
		ValueSize: 0,
		FormatString: func(reg *Registry, v value.Value) string {
			reg.mu.RLock()
			resolvers := reg.resolvers
			reg.mu.RUnlock()
			if resolvers == nil {
				return ""
			}
			data, ok := resolvers.Resolve(v)
			if !ok {
				return ""
			}
			return string(data)
		},
	})
	r.registerBuiltin(value.TypeUnsigned, Interface{
		Name:      "unsigned",
		ValueSize: 8,
		Cast: func(_ *Registry, v value.Value, _ CastFlags) (value.Value, bool) {
			switch v.Type {
			case value.TypeUnsigned, value.TypeObjectID:
				return value.Unsigned(v.AsUint()), true
			case value.TypeNumber:
				return value.Unsigned(uint64(int64(v.AsFloat()))), true
			}
			return value.Unsigned(0), false
		},
		FormatString: func(_ *Registry, v value.Value) string {
			return value.FormatFloat(float64(v.AsUint()))
		},
		PerformOp: performNumericOp(false),
	})
	r.registerBuiltin(value.TypeNumber, Interface{
		Name:      "number",
		ValueSize: 8,
		Cast: func(_ *Registry, v value.Value, _ CastFlags) (value.Value, bool) {
			switch v.Type {
			case value.TypeNumber:
				return value.Number(v.AsFloat()), true
			case value.TypeUnsigned, value.TypeObjectID:
				return value.Number(float64(v.AsUint())), true
			}
			return value.Number(0), false
		},
		FormatString: func(_ *Registry, v value.Value) string {
			return value.FormatFloat(v.AsFloat())
		},
		PerformOp: performNumericOp(true),
	})
	r.registerBuiltin(value.TypeObjectID, Interface{
		Name:      "object",
		ValueSize: 4,
		Cast: func(_ *Registry, v value.Value, _ CastFlags) (value.Value, bool) {
			if v.Type == value.TypeObjectID {
				return v, true
			}
			return value.ObjectID(0), false
		},
		FormatString: func(_ *Registry, v value.Value) string {
			return value.FormatFloat(float64(v.AsObjectID()))
		},
	})
	return r
}

func (r *Registry) registerBuiltin(id value.TypeID, iface Interface) {
	t := &Type{ID: id, Interface: iface}
	r.byID[id] = t
	r.byName[strings.ToLower(iface.Name)] = t
}

// RegisterType adds a new custom type and returns its assigned TypeID.
func (r *Registry) RegisterType(iface Interface) (*Type, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(iface.Name)
	if _, ok := r.byName[key]; ok {
		return nil, ErrAlreadyRegistered
	}
	t := &Type{ID: r.next, Interface: iface}
	r.next++
	r.byID[t.ID] = t
	r.byName[key] = t
	return t, nil
}

// Lookup finds a type by id.
func (r *Registry) Lookup(id value.TypeID) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	return t, ok
}

// LookupByName finds a type by its (case-insensitive) script name.
func (r *Registry) LookupByName(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[strings.ToLower(name)]
	return t, ok
}

// Cast converts v into type to, returning ok=false if to has no Cast
// implementation or the conversion isn't defined for v's type.
func (r *Registry) Cast(v value.Value, to *Type) (value.Value, bool) {
	if to.Cast == nil {
		return value.Void(), false
	}
	return to.Cast(r, v, CastLoose)
}

// FormatString renders v using its own type's formatter, falling back to
// empty string if the type is unknown or supplies no formatter.
func (r *Registry) FormatString(v value.Value) string {
	t, ok := r.Lookup(v.Type)
	if !ok || t.FormatString == nil {
		return ""
	}
	return t.FormatString(r, v)
}

// PerformOp dispatches op to lhs's own type implementation. Mixed-type
// operands are first cast to lhs's type with CastLoose semantics (matching
// the "numeric promotion" informal rule used throughout the opcode set).
func (r *Registry) PerformOp(op Op, lhs, rhs value.Value) value.Value {
	t, ok := r.Lookup(lhs.Type)
	if !ok || t.PerformOp == nil {
		return value.Void()
	}
	if rhs.Type != lhs.Type {
		if cast, ok := r.Cast(rhs, t); ok {
			rhs = cast
		}
	}
	return t.PerformOp(op, lhs, rhs)
}

// performNumericOp builds a PerformOp implementation shared by Number and
// Unsigned, operating either as float64 (asFloat=true) or uint64 math.
func performNumericOp(asFloat bool) func(Op, value.Value, value.Value) value.Value {
	return func(op Op, lhs, rhs value.Value) value.Value {
		if asFloat {
			a, b := lhs.AsFloat(), rhs.AsFloat()
			switch op {
			case OpAdd:
				return value.Number(a + b)
			case OpSub:
				return value.Number(a - b)
			case OpMul:
				return value.Number(a * b)
			case OpDiv:
				if b == 0 {
					return value.Number(0)
				}
				return value.Number(a / b)
			case OpMod:
				if b == 0 {
					return value.Number(0)
				}
				return value.Number(float64(int64(a) % int64(b)))
			case OpCmpEq:
				return value.Bool(a == b)
			case OpCmpNe:
				return value.Bool(a != b)
			case OpCmpGr:
				return value.Bool(a > b)
			case OpCmpGe:
				return value.Bool(a >= b)
			case OpCmpLt:
				return value.Bool(a < b)
			case OpCmpLe:
				return value.Bool(a <= b)
			case OpAnd:
				return value.Bool(a != 0 && b != 0)
			case OpOr:
				return value.Bool(a != 0 || b != 0)
			case OpNot:
				return value.Bool(a == 0)
			case OpNeg:
				return value.Number(-a)
			}
			return value.Number(0)
		}
		a, b := lhs.AsUint(), rhs.AsUint()
		switch op {
		case OpAdd:
			return value.Unsigned(a + b)
		case OpSub:
			return value.Unsigned(a - b)
		case OpMul:
			return value.Unsigned(a * b)
		case OpDiv:
			if b == 0 {
				return value.Unsigned(0)
			}
			return value.Unsigned(a / b)
		case OpMod:
			if b == 0 {
				return value.Unsigned(0)
			}
			return value.Unsigned(a % b)
		case OpCmpEq:
			return value.Bool(a == b)
		case OpCmpNe:
			return value.Bool(a != b)
		case OpCmpGr:
			return value.Bool(a > b)
		case OpCmpGe:
			return value.Bool(a >= b)
		case OpCmpLt:
			return value.Bool(a < b)
		case OpCmpLe:
			return value.Bool(a <= b)
		case OpBitAnd:
			return value.Unsigned(a & b)
		case OpBitOr:
			return value.Unsigned(a | b)
		case OpXor:
			return value.Unsigned(a ^ b)
		case OpShl:
			return value.Unsigned(a << (b & 63))
		case OpShr:
			return value.Unsigned(a >> (b & 63))
		case OpAnd:
			return value.Bool(a != 0 && b != 0)
		case OpOr:
			return value.Bool(a != 0 || b != 0)
		case OpNot:
			return value.Bool(a == 0)
		case OpOnesComplement:
			return value.Unsigned(^a)
		case OpNeg:
			return value.Unsigned(uint64(-int64(a)))
		}
		return value.Unsigned(0)
	}
}
