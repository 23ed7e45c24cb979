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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/probechain/korkscript/korklog"
	"github.com/probechain/korkscript/namespace"
	"github.com/probechain/korkscript/object"
	"github.com/probechain/korkscript/value"
)

// ErrObjectConstruction is returned for an ADD_OBJECT/END_OBJECT/
// FINISH_OBJECT that occurs without a matching open CREATE_OBJECT.
var ErrObjectConstruction = errors.New("interp: unbalanced object construction")

// createObject begins a `new Class(name) { ... }` literal: the object's
// declared name is expected on top of the stack (pushed by the compiler
// ahead of CREATE_OBJECT), and the resulting instance is held open on
// fr.objStack until FINISH_OBJECT.
func (ip *Interp) createObject(fr *frame, className string) error {
	name := fr.stack.Top()
	fr.stack.Rewind()
	key := strings.ToLower(className)

	if ip.Bridge != nil {
		if desc, ok := ip.Bridge.LookupClass(className); ok {
			hostClass, ok := ip.classes[key]
			if !ok {
				hostClass = &object.Class{Name: desc.Name}
				ip.classes[key] = hostClass
			}
			inst, err := ip.Bridge.CreateInstance(desc, name, hostClass, fr.stack.GetArgcArgv(name), nil)
			if err != nil {
				return err
			}
			fr.objStack = append(fr.objStack, pendingObject{obj: inst.Object, name: name})
			return nil
		}
	}
	class, ok := ip.classes[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClass, className)
	}
	obj := object.NewObject(class)
	fr.objStack = append(fr.objStack, pendingObject{obj: obj, name: name, isGroup: ip.groupClasses[key]})
	return nil
}

// endObject closes the field-assignment block of the innermost open object
// literal; field access falls back to the enclosing object once popped.
func (ip *Interp) endObject(fr *frame) error {
	if len(fr.objStack) == 0 {
		return ErrObjectConstruction
	}
	return nil
}

// finishObject registers the innermost open object (host-class instances
// are already registered by ffi.Bridge.CreateInstance), folding it into its
// enclosing group literal (if any) automatically, and leaves its new
// ObjectId on the stack.
func (ip *Interp) finishObject(fr *frame) error {
	if len(fr.objStack) == 0 {
		return ErrObjectConstruction
	}
	top := fr.objStack[len(fr.objStack)-1]
	fr.objStack = fr.objStack[:len(fr.objStack)-1]
	if top.obj.ID == 0 {
		if err := ip.Objects.Register(top.obj, top.name, false); err != nil {
			return err
		}
	}
	if top.isGroup {
		ip.containerGroups[top.obj.ID] = ip.Objects.NewGroup(top.name)
	}
	if len(fr.objStack) > 0 {
		outer := fr.objStack[len(fr.objStack)-1]
		if g, ok := ip.containerGroups[outer.obj.ID]; ok {
			ip.Objects.MoveToGroup(top.obj, g)
		}
	}
	return fr.stack.Push(value.ObjectID(top.obj.ID))
}

// addObject explicitly attaches the ObjectId on top of the stack into the
// group literal currently under construction — used when the child was
// built via a separate statement rather than literal nesting.
func (ip *Interp) addObject(fr *frame) error {
	v, ok := fr.stack.TopValue()
	if !ok {
		return ErrObjectConstruction
	}
	fr.stack.Rewind()
	if len(fr.objStack) == 0 {
		return ErrObjectConstruction
	}
	child, ok := ip.Objects.Find(v.AsObjectID())
	if !ok {
		return nil
	}
	top := fr.objStack[len(fr.objStack)-1]
	g, ok := ip.containerGroups[top.obj.ID]
	if !ok {
		return nil
	}
	ip.Objects.MoveToGroup(child, g)
	return nil
}

// iterBegin pops the container (an ObjectId naming a group, for ITER_BEGIN,
// or a string, for ITER_BEGIN_STR), opens an iterFrame, and binds the first
// element — or jumps to emptyIP if the container yields nothing at all.
func (ip *Interp) iterBegin(fr *frame, varName string, emptyIP int, isString bool) error {
	var it *iterFrame
	if isString {
		s := fr.stack.Top()
		fr.stack.Rewind()
		it = newStringIter(varName, emptyIP, s)
	} else {
		v, ok := fr.stack.TopValue()
		fr.stack.Rewind()
		var ids []uint32
		if ok {
			if g, gok := ip.containerGroups[v.AsObjectID()]; gok {
				for _, c := range g.Children() {
					ids = append(ids, c.ID)
				}
			}
		}
		it = newObjectIter(varName, emptyIP, ids)
	}
	fr.iterStack = append(fr.iterStack, it)
	return ip.iterAdvance(fr, emptyIP)
}

// iterAdvance pulls the next element off the innermost iterator, binding it
// to the loop variable, or jumps to onEmpty and pops the iterator once
// exhausted.
func (ip *Interp) iterAdvance(fr *frame, onEmpty int) error {
	if len(fr.iterStack) == 0 {
		return ErrObjectConstruction
	}
	it := fr.iterStack[len(fr.iterStack)-1]
	next, ok := it.next()
	if !ok {
		fr.iterStack = fr.iterStack[:len(fr.iterStack)-1]
		fr.ip = onEmpty
		return nil
	}
	ip.setVar(fr, it.varName, stringCell(next))
	return nil
}

// dispatchCall builds argv from the open call frame and resolves fnName
// against the current object's class chain first (method call, with an
// implicit %this bound as argv[1] per the jamesu/korkscript method-dispatch
// convention), then the named or global namespace.
func (ip *Interp) dispatchCall(fr *frame, nsName, fnName string) error {
	argv := fr.stack.GetArgcArgv(fnName)
	_ = fr.stack.PopFrame()

	var entry *namespace.Entry
	var ok bool
	obj := fr.curObj()
	if obj != nil {
		if objNS, found := ip.Namespaces.Find(obj.Class.Name, ""); found {
			entry, ok = ip.Namespaces.Lookup(objNS, fnName)
		}
		if ok {
			rest := argv[1:]
			argv = append([]string{fnName, strconv.FormatUint(uint64(obj.ID), 10)}, rest...)
		}
	}
	if !ok {
		ns := ip.Namespaces.GlobalNamespace()
		if nsName != "" {
			if found, foundOk := ip.Namespaces.Find(nsName, ""); foundOk {
				ns = found
			}
		}
		entry, ok = ip.Namespaces.Lookup(ns, fnName)
	}
	if !ok {
		ip.Log.Emit(korklog.Record{Level: korklog.Warning, Kind: korklog.Script, Msg: fmt.Sprintf("unknown function %s", fnName), Depth: fr.depth})
		return fr.stack.SetStringValue("")
	}

	var result string
	var err error
	switch entry.Kind {
	case namespace.Script:
		result, err = ip.callScript(fr.cb, entry, argv)
	default:
		result = entry.Native(argv)
	}
	if err != nil {
		return err
	}
	return fr.stack.SetStringValue(result)
}
