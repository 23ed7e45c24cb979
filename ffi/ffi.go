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

// Package ffi is the host bridge: registration and invocation of
// Go-implemented native functions and host-declared object classes, the
// two ways embedding code extends what script can call.
package ffi

import (
	"errors"
	"fmt"

	"github.com/probechain/korkscript/namespace"
	"github.com/probechain/korkscript/object"
)

// ErrArgCount is returned when a native call's argument count falls
// outside a registered function's [MinArgs, MaxArgs] range.
var ErrArgCount = errors.New("ffi: wrong argument count")

// ErrNoCreate is returned by CreateInstance when a class descriptor has no
// Create hook.
var ErrNoCreate = errors.New("ffi: class has no creation interface")

// NativeCallback is a host function callable from script. userPtr is
// whatever opaque value was supplied at registration (closures make this
// largely redundant in Go, but the signature mirrors the C ABI host
// embedders expect). argv[0] is the function name, matching the
// execstack/namespace calling convention.
type NativeCallback func(userPtr interface{}, argv []string) string

// FunctionDescriptor describes one native function before it is installed
// into a namespace.
type FunctionDescriptor struct {
	Name      string
	Callback  NativeCallback
	UserPtr   interface{}
	Signature string // human-readable usage string, shown by help/usage commands
	MinArgs   int
	MaxArgs   int
}

// AddFunction installs fn on ns, wrapping Callback into the
// namespace.NativeFunc shape and preserving the registered arg bounds so
// the interpreter can reject malformed calls before reaching the host.
func AddFunction(ns *namespace.Namespace, fn FunctionDescriptor) {
	cb := fn.Callback
	userPtr := fn.UserPtr
	ns.AddCommand(namespace.Entry{
		Name:    fn.Name,
		Kind:    namespace.NativeString,
		MinArgs: fn.MinArgs,
		MaxArgs: fn.MaxArgs,
		Usage:   fn.Signature,
		Native: func(argv []string) string {
			return cb(userPtr, argv)
		},
	})
}

// CreateFunc constructs a new host-backed object instance from
// constructor-style arguments (as passed to `new ClassName(args) {...}`).
// It returns the Go-side state to attach, if any; the returned value is
// stored by the caller and handed back to every other descriptor hook via
// Instance.Host.
type CreateFunc func(class string, args []string) (interface{}, error)

// DestroyFunc releases whatever state Create returned.
type DestroyFunc func(host interface{})

// ProcessArgsFunc is invoked by CreateInstance right after the object is
// registered, before any `{...}` initializer fields are assigned (interp
// calls CreateInstance at CREATE_OBJECT), letting the host validate or
// derive additional state.
type ProcessArgsFunc func(host interface{}, obj *object.Object) error

// AddToGroupFunc lets the host veto or observe group membership changes
// (e.g. a scene graph enforcing type-specific containment rules).
type AddToGroupFunc func(host interface{}, obj *object.Object, group *object.Group) error

// IterateFieldsFunc enumerates the names of host-managed dynamic fields,
// for objects whose dynamic fields live outside the VM's own dynamic map
// (e.g. backed by a host-side struct or external store).
type IterateFieldsFunc func(host interface{}) []string

// GetFieldFunc / SetFieldFunc mirror object.Object's dynamic field
// accessors but are routed to the host instead of the VM's own map.
type GetFieldFunc func(host interface{}, name string) (string, bool)
type SetFieldFunc func(host interface{}, name string, value string) bool

// SizeFunc / IndexFunc implement the optional enumeration interface,
// exposing a host collection to script iteration (`foreach`).
type SizeFunc func(host interface{}) int
type IndexFunc func(host interface{}, index int) (*object.Object, bool)

// ClassDescriptor is the full set of hooks a host supplies to register a
// class implemented outside the VM.
type ClassDescriptor struct {
	Name   string
	Parent string

	Create      CreateFunc
	Destroy     DestroyFunc
	ProcessArgs ProcessArgsFunc
	AddToGroup  AddToGroupFunc

	IterateFields IterateFieldsFunc
	GetField      GetFieldFunc
	SetField      SetFieldFunc

	GetSize     SizeFunc
	GetObjectAt IndexFunc
}

// Instance pairs a VM-visible object.Object with the opaque host state its
// ClassDescriptor.Create returned.
type Instance struct {
	Object *object.Object
	Host   interface{}
	Class  *ClassDescriptor
}

// Bridge owns every registered host class and brokers object creation
// against both the object registry (for id/name/group bookkeeping) and
// the host's own Create/Destroy hooks.
type Bridge struct {
	registry  *object.Registry
	classes   map[string]*ClassDescriptor
	instances map[uint32]*Instance
}

// NewBridge returns a Bridge wired to reg for object lifecycle bookkeeping.
func NewBridge(reg *object.Registry) *Bridge {
	return &Bridge{
		registry:  reg,
		classes:   make(map[string]*ClassDescriptor),
		instances: make(map[uint32]*Instance),
	}
}

// InstanceFor looks up the host-backed Instance wrapping the object
// registered under id, if any. Field accessors use this to route reads and
// writes to a host class's GetField/SetField hooks instead of the VM's own
// static/dynamic field storage.
func (b *Bridge) InstanceFor(id uint32) (*Instance, bool) {
	inst, ok := b.instances[id]
	return inst, ok
}

// RegisterClass installs desc, making its name available to `new Name(...)`
// construction. Re-registering the same name replaces the descriptor.
func (b *Bridge) RegisterClass(desc ClassDescriptor) {
	b.classes[desc.Name] = &desc
}

// LookupClass returns the descriptor registered under name, if any.
func (b *Bridge) LookupClass(name string) (*ClassDescriptor, bool) {
	d, ok := b.classes[name]
	return d, ok
}

// CreateInstance builds a new host-backed object: calls desc.Create for
// the host-side state, registers the resulting object.Object under name,
// then runs ProcessArgs and AddToGroup if desc supplies them.
func (b *Bridge) CreateInstance(desc *ClassDescriptor, name string, class *object.Class, args []string, group *object.Group) (*Instance, error) {
	if desc.Create == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCreate, desc.Name)
	}
	host, err := desc.Create(desc.Name, args)
	if err != nil {
		return nil, err
	}

	obj := object.NewObject(class)
	if err := b.registry.Register(obj, name, false); err != nil {
		if desc.Destroy != nil {
			desc.Destroy(host)
		}
		return nil, err
	}

	inst := &Instance{Object: obj, Host: host, Class: desc}
	b.instances[obj.ID] = inst

	if desc.ProcessArgs != nil {
		if err := desc.ProcessArgs(host, obj); err != nil {
			b.DestroyInstance(inst)
			return nil, err
		}
	}
	if group != nil {
		if desc.AddToGroup != nil {
			if err := desc.AddToGroup(host, obj, group); err != nil {
				b.DestroyInstance(inst)
				return nil, err
			}
		}
		b.registry.MoveToGroup(obj, group)
	}
	return inst, nil
}

// DestroyInstance unregisters inst's object and releases its host state.
func (b *Bridge) DestroyInstance(inst *Instance) {
	delete(b.instances, inst.Object.ID)
	b.registry.Delete(inst.Object)
	if inst.Class.Destroy != nil {
		inst.Class.Destroy(inst.Host)
	}
}

// GetDynamicField consults desc's host-managed field interface first,
// falling back to false if desc has none (the caller should then try the
// VM's own dynamic field map).
func (inst *Instance) GetDynamicField(name string) (string, bool) {
	if inst.Class.GetField == nil {
		return "", false
	}
	return inst.Class.GetField(inst.Host, name)
}

// SetDynamicField mirrors GetDynamicField for writes.
func (inst *Instance) SetDynamicField(name, value string) bool {
	if inst.Class.SetField == nil {
		return false
	}
	return inst.Class.SetField(inst.Host, name, value)
}

// FieldNames enumerates host-managed dynamic field names, or nil if desc
// has no IterateFields hook.
func (inst *Instance) FieldNames() []string {
	if inst.Class.IterateFields == nil {
		return nil
	}
	return inst.Class.IterateFields(inst.Host)
}

// Size reports the enumeration interface's element count, or (0, false) if
// desc does not implement enumeration.
func (inst *Instance) Size() (int, bool) {
	if inst.Class.GetSize == nil {
		return 0, false
	}
	return inst.Class.GetSize(inst.Host), true
}

// ElementAt returns the object at index i under the enumeration interface.
func (inst *Instance) ElementAt(i int) (*object.Object, bool) {
	if inst.Class.GetObjectAt == nil {
		return nil, false
	}
	return inst.Class.GetObjectAt(inst.Host, i)
}

// CheckArgs reports whether len(argv)-1 (the call's actual argument count,
// excluding the function-name slot argv[0]) falls within [min, max]. max<0
// means unbounded.
func CheckArgs(argv []string, min, max int) error {
	n := len(argv) - 1
	if n < min || (max >= 0 && n > max) {
		return ErrArgCount
	}
	return nil
}
