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

// Package interp is the bytecode interpreter: it walks a CodeBlock's opcode
// stream against the scope chain, current-object/current-field registers
// and the per-call string/value stack, dispatching calls through
// namespace, field access through object, and operator/cast semantics
// through types.
package interp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/probechain/korkscript/event"
	"github.com/probechain/korkscript/execstack"
	"github.com/probechain/korkscript/ffi"
	"github.com/probechain/korkscript/fiber"
	"github.com/probechain/korkscript/intern"
	"github.com/probechain/korkscript/korklog"
	"github.com/probechain/korkscript/namespace"
	"github.com/probechain/korkscript/object"
	"github.com/probechain/korkscript/pathexpand"
	"github.com/probechain/korkscript/types"
	"github.com/probechain/korkscript/value"
)

// Sentinel errors. Runtime-recoverable conditions are logged and produce an
// empty/default value rather than returned as Go errors; these are reserved
// for conditions the interpreter itself cannot recover from.
var (
	ErrUnknownFunction = errors.New("interp: unknown function")
	ErrUnknownClass    = errors.New("interp: unknown class")
	ErrStackOverflow   = errors.New("interp: call stack overflow")
	ErrBadOpcode       = errors.New("interp: invalid opcode")
)

// MaxCallDepth bounds recursive script calls; exceeding it is treated as a
// fatal invariant violation rather than an ordinary runtime error.
const MaxCallDepth = 1000

// Interp bundles every subsystem a running script touches. One Interp is
// shared VM-wide; every call frame gets its own execstack.Stack (newFrame),
// and fibers run cooperatively against shared state, never concurrently.
type Interp struct {
	Intern     *intern.Table
	Objects    *object.Registry
	Namespaces *namespace.Global
	Types      *types.Registry
	Fibers     *fiber.Manager
	Events     *event.Scheduler
	Log        *korklog.Dispatcher
	Paths      *pathexpand.Table
	Bridge     *ffi.Bridge // optional; nil if the host registered no classes

	globals         map[string]Cell
	classes         map[string]*object.Class
	groupClasses    map[string]bool
	containerGroups map[uint32]*object.Group
	stringArena     []string
	resolvers       *value.Resolvers

	callDepth int
}

// New wires reg (the Types registry) to a fresh string resolver backed by
// this Interp, and returns a ready-to-use interpreter with its built-in
// namespace entries registered.
func New(it *intern.Table, objs *object.Registry, ns *namespace.Global, reg *types.Registry, fibers *fiber.Manager, events *event.Scheduler, log *korklog.Dispatcher, paths *pathexpand.Table) *Interp {
	ip := &Interp{
		Intern:       it,
		Objects:      objs,
		Namespaces:   ns,
		Types:        reg,
		Fibers:       fibers,
		Events:       events,
		Log:          log,
		Paths:        paths,
		globals:         make(map[string]Cell),
		classes:         make(map[string]*object.Class),
		groupClasses:    make(map[string]bool),
		containerGroups: make(map[uint32]*object.Group),
		resolvers:       value.NewResolvers(),
	}
	ip.resolvers.Register(value.ZoneFunc, func(v value.Value) ([]byte, bool) {
		idx := int(v.Payload)
		if idx < 0 || idx >= len(ip.stringArena) {
			return nil, false
		}
		return []byte(ip.stringArena[idx]), true
	})
	reg.SetResolvers(ip.resolvers)
	ip.registerBuiltins()
	return ip
}

// SetBridge installs the host's FFI bridge, used by CREATE_OBJECT to resolve
// host-declared classes in addition to plain script classes.
func (ip *Interp) SetBridge(b *ffi.Bridge) { ip.Bridge = b }

// Resolvers returns the zone resolver dispatcher shared by this Interp's
// Types registry, for a host registering a custom heap-backed type (e.g.
// types.RegisterVector3) to wire its ZoneHeap resolver into.
func (ip *Interp) Resolvers() *value.Resolvers { return ip.resolvers }

// DeclareClass registers a plain script-visible class (one not backed by a
// host object via ffi.Bridge). isGroup marks it as a container accepting
// ADD_OBJECT children (the SimGroup convention).
func (ip *Interp) DeclareClass(class *object.Class, isGroup bool) {
	key := strings.ToLower(class.Name)
	ip.classes[key] = class
	ip.groupClasses[key] = isGroup
}

func (ip *Interp) makeStringValue(s string) value.Value {
	idx := len(ip.stringArena)
	ip.stringArena = append(ip.stringArena, s)
	return value.Raw(value.TypeString, value.ZoneFunc, uint64(idx))
}

// frame is one active call's registers: its own locals and value stack, the
// curVar/curObject/curField registers, and the try/iterator handler stacks.
type frame struct {
	cb   *CodeBlock
	ip   int
	args []string

	scope *scope
	stack *execstack.Stack

	curVarName  string
	curVarTyped bool
	curVarType  value.TypeID

	curObject *object.Object
	curField  string
	curFieldT value.TypeID

	objStack []pendingObject

	tryStack  []tryFrame
	iterStack []*iterFrame

	depth int
}

type pendingObject struct {
	obj     *object.Object
	name    string
	isGroup bool
	group   *object.Group
}

func newFrame(cb *CodeBlock, entryIP int, args []string, depth int) *frame {
	return &frame{cb: cb, ip: entryIP, args: args, scope: newScope(), stack: execstack.New(), depth: depth}
}

func (fr *frame) readU32() uint32 {
	if fr.ip+4 > len(fr.cb.Code) {
		fr.ip = len(fr.cb.Code)
		return 0
	}
	v := binary.LittleEndian.Uint32(fr.cb.Code[fr.ip : fr.ip+4])
	fr.ip += 4
	return v
}

func (fr *frame) readStr() string { return fr.cb.str(fr.readU32()) }

func (fr *frame) curObj() *object.Object {
	if len(fr.objStack) > 0 {
		return fr.objStack[len(fr.objStack)-1].obj
	}
	return fr.curObject
}

// Evaluate runs cb's top-level code (everything outside function bodies),
// registering every OP_FUNC_DECL it passes over into the global namespace
// (or the declared namespace/package) before skipping its body. Returns the
// formatted value left on the stack, or "" if nothing was left behind.
func (ip *Interp) Evaluate(cb *CodeBlock) (string, error) {
	fr := newFrame(cb, 0, nil, 0)
	v, err := ip.run(fr, len(cb.Code))
	if err != nil {
		return "", err
	}
	return v, nil
}

// Call invokes a previously declared global function by name.
func (ip *Interp) Call(cb *CodeBlock, name string, args []string) (string, error) {
	gns := ip.Namespaces.GlobalNamespace()
	entry, ok := ip.Namespaces.Lookup(gns, name)
	if !ok || entry.Kind != namespace.Script {
		return "", fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	return ip.callScript(cb, entry, append([]string{name}, args...))
}

// CallOnObject invokes fnName as a method against objID, mirroring the
// method-resolution half of dispatchCall: the call is looked up against the
// object's own class namespace first, with the object id bound as the
// implicit %this first argument, the same convention method calls use.
func (ip *Interp) CallOnObject(cb *CodeBlock, objID uint32, fnName string, args []string) (string, error) {
	obj, ok := ip.Objects.Find(objID)
	if !ok {
		return "", fmt.Errorf("%w: object %d", ErrUnknownClass, objID)
	}
	ns, found := ip.Namespaces.Find(obj.Class.Name, "")
	if !found {
		return "", fmt.Errorf("%w: %s", ErrUnknownFunction, fnName)
	}
	entry, ok := ip.Namespaces.Lookup(ns, fnName)
	if !ok || entry.Kind != namespace.Script {
		return "", fmt.Errorf("%w: %s", ErrUnknownFunction, fnName)
	}
	argv := append([]string{fnName, strconv.FormatUint(uint64(objID), 10)}, args...)
	return ip.callScript(cb, entry, argv)
}

// SetVariable assigns a global ($-prefixed or bare) script variable as a
// plain string cell, the same representation callScript gives positional
// arguments.
func (ip *Interp) SetVariable(name, val string) {
	ip.globals[globalName(name)] = stringCell(val)
}

// GetVariable reads a global variable, rendering packed values through the
// types registry the same way formatCell does for any other cell.
func (ip *Interp) GetVariable(name string) string {
	return ip.formatCell(ip.globals[globalName(name)])
}

// SetVariableInt/Float/Bool store a global as a packed Value instead of a
// string cell, for callers that already have a typed value in hand.
func (ip *Interp) SetVariableInt(name string, v int64) {
	ip.globals[globalName(name)] = valueCell(value.Unsigned(uint64(v)))
}

func (ip *Interp) SetVariableFloat(name string, v float64) {
	ip.globals[globalName(name)] = valueCell(value.Number(v))
}

func (ip *Interp) SetVariableBool(name string, v bool) {
	ip.globals[globalName(name)] = valueCell(value.Bool(v))
}

func globalName(name string) string {
	if strings.HasPrefix(name, "$") {
		return name
	}
	return "$" + name
}

// callScript runs the function recorded by entry.ScriptRef, seeding locals
// from argv[1:] positionally against the declaration's argument names.
func (ip *Interp) callScript(cb *CodeBlock, entry *namespace.Entry, argv []string) (string, error) {
	if ip.callDepth >= MaxCallDepth {
		return "", ErrStackOverflow
	}
	if entry.ScriptRef < 0 || entry.ScriptRef >= len(cb.Functions) {
		return "", fmt.Errorf("%w: bad script ref", ErrUnknownFunction)
	}
	fn := cb.Functions[entry.ScriptRef]
	ip.callDepth++
	defer func() { ip.callDepth-- }()

	fr := newFrame(cb, fn.EntryIP, argv, ip.callDepth)
	for i, name := range fn.ArgNames {
		var s string
		if i+1 < len(argv) {
			s = argv[i+1]
		}
		fr.scope.set(localName(name), stringCell(s))
	}
	return ip.run(fr, fn.EndIP)
}

func localName(name string) string {
	if strings.HasPrefix(name, "%") || strings.HasPrefix(name, "$") {
		return name
	}
	return "%" + name
}

// run executes fr from its current ip up to (not including) end, returning
// the formatted return value. A script-level throw that unwinds past every
// PUSH_TRY handler in this frame surfaces as a Go error wrapping *thrown;
// callers one level up never see it as a panic.
func (ip *Interp) run(fr *frame, end int) (string, error) {
	for fr.ip < end {
		op := Opcode(fr.cb.Code[fr.ip])
		fr.ip++
		ret, done, err := ip.step(fr, op)
		if err != nil {
			if th, ok := err.(*thrown); ok {
				if handled, _, herr := ip.unwind(fr, th); handled {
					if herr != nil {
						return "", herr
					}
					continue
				}
			}
			return "", err
		}
		if done {
			return ret, nil
		}
	}
	return fr.stack.Top(), nil
}

// unwind pops try handlers until one catches th, rewinding the stack and
// iterator registers to match, or reports the throw as uncaught.
func (ip *Interp) unwind(fr *frame, th *thrown) (handled bool, ret string, err error) {
	if len(fr.tryStack) == 0 {
		return false, "", nil
	}
	tf := fr.tryStack[len(fr.tryStack)-1]
	fr.tryStack = fr.tryStack[:len(fr.tryStack)-1]
	fr.stack.TruncateTo(tf.stackMark)
	if tf.iterMark < len(fr.iterStack) {
		fr.iterStack = fr.iterStack[:tf.iterMark]
	}
	if err := ip.pushCell(fr, stringCell(th.value)); err != nil {
		return true, "", err
	}
	fr.ip = tf.handlerIP
	return true, "", nil
}
