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

// Package kork is the embedding facade: one Vm bundles every VM-global
// subsystem (interning, objects, namespaces, types, fibers, events,
// logging, path expansion) behind a call/eval/variable surface a host
// program links against, generalized from one-shot execution against a
// bundled context into a long-lived embeddable handle.
package kork

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/probechain/korkscript/arena"
	"github.com/probechain/korkscript/compiler/codegen"
	"github.com/probechain/korkscript/compiler/lexer"
	"github.com/probechain/korkscript/compiler/parser"
	"github.com/probechain/korkscript/event"
	"github.com/probechain/korkscript/ffi"
	"github.com/probechain/korkscript/fiber"
	"github.com/probechain/korkscript/intern"
	"github.com/probechain/korkscript/interp"
	"github.com/probechain/korkscript/korklog"
	"github.com/probechain/korkscript/namespace"
	"github.com/probechain/korkscript/object"
	"github.com/probechain/korkscript/pathexpand"
	"github.com/probechain/korkscript/types"
	"github.com/probechain/korkscript/value"
)

// Vm bundles the whole VM-global state behind the embedding API a host
// program links against. One Vm is meant to be long-lived; scripts
// evaluated against it accumulate objects, namespace entries and globals
// exactly as a single running process would.
type Vm struct {
	ID uuid.UUID

	Intern     *intern.Table
	Objects    *object.Registry
	Namespaces *namespace.Global
	Types      *types.Registry
	Fibers     *fiber.Manager
	FiberSched *fiber.Scheduler
	Events     *event.Scheduler
	Log        *korklog.Dispatcher
	Paths      *pathexpand.Table
	Bridge     *ffi.Bridge
	Heap       *arena.HeapRegistry

	Interp *interp.Interp

	compiled *arena.CompileCache

	mu    sync.Mutex
	depth int
	owner uint64

	logFileConsumerID int
}

// New builds a fresh Vm with every subsystem wired together, an empty
// compile cache sized to arena.DefaultCompileCacheBytes, and a fresh uuid
// identity for host-side log correlation and fiberstore session keys.
func New() *Vm {
	it := intern.New()
	objs := object.NewRegistry(it)
	ns := namespace.NewGlobal()
	reg := types.NewRegistry()
	fibers := fiber.NewManager()
	sched := fiber.NewScheduler(fibers)
	events := event.NewScheduler()
	log := korklog.NewDispatcher()
	paths := pathexpand.NewTable()
	bridge := ffi.NewBridge(objs)

	ip := interp.New(it, objs, ns, reg, fibers, events, log, paths)
	ip.SetBridge(bridge)

	heap := arena.NewHeapRegistry()
	ip.Resolvers().Register(value.ZoneHeap, heap.Resolve)

	return &Vm{
		ID:         uuid.New(),
		Intern:     it,
		Objects:    objs,
		Namespaces: ns,
		Types:      reg,
		Fibers:     fibers,
		FiberSched: sched,
		Events:     events,
		Log:        log,
		Paths:      paths,
		Bridge:     bridge,
		Heap:       heap,
		Interp:     ip,
		compiled:   arena.NewCompileCache(arena.DefaultCompileCacheBytes),
	}
}

// enter/leave implement a recursive-mutex contract: a single goroutine may
// hold the Vm across nested Evaluate/Call/native-callback re-entry, but a
// second goroutine attempting to enter while the first hasn't left panics
// rather than silently interleaving two fibers' state.
func (vm *Vm) enter() {
	gid := goroutineID()
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.depth == 0 {
		vm.owner = gid
	} else if vm.owner != gid {
		panic("kork: Vm entered from a second goroutine while still in use")
	}
	vm.depth++
}

func (vm *Vm) leave() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.depth--
}

// goroutineID extracts the calling goroutine's runtime id by parsing the
// "goroutine N [running]:" header runtime.Stack always emits first. Go has
// no supported accessor for goroutine identity; this is the narrowest
// possible use of the debug-stack trick, confined entirely to the
// enter/leave guard.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, _ := strconv.ParseUint(string(fields[1]), 10, 64)
	return id
}

// Destroy invokes the global onExit function, if one is declared.
func (vm *Vm) Destroy(cb *interp.CodeBlock) {
	vm.enter()
	defer vm.leave()
	if cb == nil {
		return
	}
	_, _ = vm.Interp.Call(cb, "onExit", nil)
}

// compile lexes, parses and lowers source into a CodeBlock, consulting the
// compile cache first so repeated Evaluate calls on identical source skip
// recompilation.
func (vm *Vm) compile(fileName, source string) (*interp.CodeBlock, error) {
	if raw, ok := vm.compiled.Get(source); ok {
		return interp.Decode(raw)
	}
	p := parser.New(lexer.New(fileName, source))
	prog := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("kork: parse error: %w", errs[0])
	}
	cb, err := codegen.Generate(fileName, prog)
	if err != nil {
		return nil, err
	}
	vm.compiled.Set(source, cb.Encode())
	return cb, nil
}

// Compile lexes, parses and lowers source into a CodeBlock without running
// it, for callers that want to hold onto or inspect the result directly
// (the CLI's disasm and build subcommands, or a host calling Call/
// CallOnObject repeatedly against one compiled unit).
func (vm *Vm) Compile(fileName, source string) (*interp.CodeBlock, error) {
	vm.enter()
	defer vm.leave()
	return vm.compile(fileName, source)
}

// Evaluate compiles and runs source in one shot, returning its result the
// way a bare top-level expression/ACTION block would.
func (vm *Vm) Evaluate(fileName, source string) (string, error) {
	vm.enter()
	defer vm.leave()
	cb, err := vm.compile(fileName, source)
	if err != nil {
		return "", err
	}
	return vm.Interp.Evaluate(cb)
}

// Call invokes a previously declared global function by name.
func (vm *Vm) Call(cb *interp.CodeBlock, name string, args []string) (string, error) {
	vm.enter()
	defer vm.leave()
	return vm.Interp.Call(cb, name, args)
}

// CallOnObject invokes fnName as a method against objID.
func (vm *Vm) CallOnObject(cb *interp.CodeBlock, objID uint32, fnName string, args []string) (string, error) {
	vm.enter()
	defer vm.leave()
	return vm.Interp.CallOnObject(cb, objID, fnName, args)
}

// SetVariable/GetVariable expose a global script variable by name.
func (vm *Vm) SetVariable(name, val string) { vm.Interp.SetVariable(name, val) }
func (vm *Vm) GetVariable(name string) string { return vm.Interp.GetVariable(name) }

// SetVariableInt/Float/Bool are the typed-helper variants of SetVariable.
func (vm *Vm) SetVariableInt(name string, v int64)     { vm.Interp.SetVariableInt(name, v) }
func (vm *Vm) SetVariableFloat(name string, v float64) { vm.Interp.SetVariableFloat(name, v) }
func (vm *Vm) SetVariableBool(name string, v bool)     { vm.Interp.SetVariableBool(name, v) }

// CreateFiber spawns a new fiber running body, returning its id.
func (vm *Vm) CreateFiber(body fiber.Body) fiber.ID { return vm.Fibers.CreateFiber(body) }

// ScheduleEvent queues sched for later execution against the fiber
// scheduler (FiberSched).
func (vm *Vm) ScheduleEvent(sched fiber.Schedule) { vm.FiberSched.Schedule(sched) }

// RegisterClass declares a plain script class (one with no host backing).
func (vm *Vm) RegisterClass(class *object.Class, isGroup bool) {
	vm.Interp.DeclareClass(class, isGroup)
}

// RegisterHostClass registers a host-backed class descriptor through the
// FFI bridge.
func (vm *Vm) RegisterHostClass(desc ffi.ClassDescriptor) {
	vm.Bridge.RegisterClass(desc)
}

// RegisterType registers a custom composite type against the types
// registry.
func (vm *Vm) RegisterType(iface types.Interface) (*types.Type, error) {
	return vm.Types.RegisterType(iface)
}

// GetGlobalNamespace/FindNamespace/LinkNamespaces/ActivatePackage expose
// the namespace graph.
func (vm *Vm) GetGlobalNamespace() *namespace.Namespace { return vm.Namespaces.GlobalNamespace() }

func (vm *Vm) FindNamespace(name string) (*namespace.Namespace, bool) {
	return vm.Namespaces.Find(name, "")
}

// AddNamespaceFunction registers a native function on ns.
func (vm *Vm) AddNamespaceFunction(ns *namespace.Namespace, name string, fn namespace.NativeFunc, min, max int, usage string) {
	ns.AddCommand(namespace.Entry{Name: name, Kind: namespace.NativeString, Native: fn, MinArgs: min, MaxArgs: max, Usage: usage})
}

// LinkNamespaces splices parent above child in the lookup chain.
func (vm *Vm) LinkNamespaces(parent, child *namespace.Namespace) error {
	return child.ClassLinkTo(parent)
}

// ActivatePackage overlays pkg's entries onto the namespace graph.
func (vm *Vm) ActivatePackage(pkg string) error { return vm.Namespaces.ActivatePackage(pkg) }

// AddConsumer/RemoveConsumer expose arbitrary log fan-out.
func (vm *Vm) AddConsumer(c korklog.Consumer) int { return vm.Log.AddConsumer(c) }
func (vm *Vm) RemoveConsumer(id int) error        { return vm.Log.RemoveConsumer(id) }

// SetLogMode reconfigures log fan-out: bits 0-1 select the file consumer's
// off/append-per-line/keep-open mode (korklog.FileMode), bit 2 requests a
// one-shot flush of the ring buffer, whose contents (if requested) are
// returned.
func (vm *Vm) SetLogMode(path string, mode int) []string {
	if vm.logFileConsumerID != 0 {
		_ = vm.Log.RemoveConsumer(vm.logFileConsumerID)
		vm.logFileConsumerID = 0
	}
	fm := korklog.FileMode(mode & 0x3)
	if fm != korklog.FileOff && path != "" {
		fc := korklog.NewFileConsumer(path, fm)
		vm.logFileConsumerID = vm.Log.AddConsumer(fc.Consume)
	}
	if mode&0x4 != 0 {
		return vm.Log.FlushRing()
	}
	return nil
}
