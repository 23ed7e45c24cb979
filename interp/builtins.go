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

	"github.com/probechain/korkscript/event"
	"github.com/probechain/korkscript/korklog"
	"github.com/probechain/korkscript/namespace"
	"github.com/probechain/korkscript/object"
	"github.com/probechain/korkscript/value"
)

func nativeArg(argv []string, i int) string {
	if i < len(argv) {
		return argv[i]
	}
	return ""
}

// registerBuiltins installs the console-callable native entries every
// CodeBlock can resolve regardless of what it itself declares: the
// echo/warn/error family, schedule/cancel and friends, and the small set of
// free functions that inspect the object registry.
func (ip *Interp) registerBuiltins() {
	g := ip.Namespaces.GlobalNamespace()

	logFn := func(level korklog.Level) namespace.NativeFunc {
		return func(argv []string) string {
			ip.Log.Emit(korklog.Record{Level: level, Kind: korklog.Script, Msg: strings.Join(argv[1:], ""), Depth: ip.callDepth})
			return ""
		}
	}
	g.AddCommand(namespace.Entry{Name: "echo", Kind: namespace.NativeVoid, Native: logFn(korklog.Normal)})
	g.AddCommand(namespace.Entry{Name: "warn", Kind: namespace.NativeVoid, Native: logFn(korklog.Warning)})
	g.AddCommand(namespace.Entry{Name: "error", Kind: namespace.NativeVoid, Native: logFn(korklog.Error)})
	g.AddCommand(namespace.Entry{Name: "cls", Kind: namespace.NativeVoid, Native: func(argv []string) string {
		ip.Log.FlushRing()
		return ""
	}})

	g.AddCommand(namespace.Entry{Name: "schedule", Kind: namespace.NativeString, Native: func(argv []string) string {
		delay := value.ParseFloat(nativeArg(argv, 1))
		fn := nativeArg(argv, 2)
		id := ip.Events.Post(delay, event.Dispatch{Function: fn, Args: append([]string(nil), argv[3:]...)})
		return strconv.FormatUint(uint64(id), 10)
	}})
	g.AddCommand(namespace.Entry{Name: "cancel", Kind: namespace.NativeVoid, Native: func(argv []string) string {
		id := event.ID(value.ParseUint(nativeArg(argv, 1)))
		_ = ip.Events.Cancel(id)
		return ""
	}})
	g.AddCommand(namespace.Entry{Name: "isEventPending", Kind: namespace.NativeBool, Native: func(argv []string) string {
		id := event.ID(value.ParseUint(nativeArg(argv, 1)))
		return value.FormatFloat(boolF(ip.Events.IsPending(id)))
	}})
	g.AddCommand(namespace.Entry{Name: "getEventTimeLeft", Kind: namespace.NativeFloat, Native: func(argv []string) string {
		id := event.ID(value.ParseUint(nativeArg(argv, 1)))
		left, _ := ip.Events.TimeLeft(id)
		return value.FormatFloat(left)
	}})
	g.AddCommand(namespace.Entry{Name: "getScheduleDuration", Kind: namespace.NativeFloat, Native: func(argv []string) string {
		id := event.ID(value.ParseUint(nativeArg(argv, 1)))
		d, _ := ip.Events.ScheduledDuration(id)
		return value.FormatFloat(d)
	}})
	g.AddCommand(namespace.Entry{Name: "getTimeSinceStart", Kind: namespace.NativeFloat, Native: func(argv []string) string {
		id := event.ID(value.ParseUint(nativeArg(argv, 1)))
		d, _ := ip.Events.TimeSinceStart(id)
		return value.FormatFloat(d)
	}})

	g.AddCommand(namespace.Entry{Name: "isObject", Kind: namespace.NativeBool, Native: func(argv []string) string {
		name := nativeArg(argv, 1)
		if _, ok := ip.Objects.FindByName(name); ok {
			return "1"
		}
		if _, ok := ip.Objects.Find(uint32(value.ParseUint(name))); ok {
			return "1"
		}
		return "0"
	}})
	g.AddCommand(namespace.Entry{Name: "nameToID", Kind: namespace.NativeFloat, Native: func(argv []string) string {
		if o, ok := ip.Objects.FindByName(nativeArg(argv, 1)); ok {
			return strconv.FormatUint(uint64(o.ID), 10)
		}
		return "-1"
	}})
	g.AddCommand(namespace.Entry{Name: "deleteDataBlocks", Kind: namespace.NativeVoid, Native: func(argv []string) string {
		ip.Objects.DeleteDataBlocks()
		return ""
	}})

	// strConcat backs the `@`/SPC/TAB/NL concatenation operators: codegen
	// lowers a ConcatExpr into a plain call rather than a dedicated opcode,
	// since execstack.AppendString has no opcode of its own to drive it.
	g.AddCommand(namespace.Entry{Name: "strConcat", Kind: namespace.NativeString, Native: func(argv []string) string {
		return strings.Join(argv[1:], "")
	}})

	ip.registerObjectMethods(g)
}

func boolF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// registerObjectMethods installs the built-in instance methods every object
// responds to, resolved through dispatchCall's class-chain walk since every
// script class is expected to ClassLinkTo the global namespace.
func (ip *Interp) registerObjectMethods(g *namespace.Namespace) {
	method := func(name string, fn func(o *object.Object, argv []string) string) {
		g.AddCommand(namespace.Entry{Name: name, Kind: namespace.NativeString, Native: func(argv []string) string {
			if len(argv) < 2 {
				return ""
			}
			obj, ok := ip.Objects.Find(uint32(value.ParseUint(argv[1])))
			if !ok {
				return ""
			}
			return fn(obj, argv)
		}})
	}

	method("getId", func(o *object.Object, argv []string) string {
		return strconv.FormatUint(uint64(o.ID), 10)
	})
	method("getName", func(o *object.Object, argv []string) string { return o.Name })
	method("setName", func(o *object.Object, argv []string) string {
		o.Name = nativeArg(argv, 2)
		return ""
	})
	method("getClassName", func(o *object.Object, argv []string) string { return o.Class.Name })
	method("isMemberOfClass", func(o *object.Object, argv []string) string {
		if strings.EqualFold(o.Class.Name, nativeArg(argv, 2)) {
			return "1"
		}
		return "0"
	})
	method("getFieldValue", func(o *object.Object, argv []string) string {
		return ip.getField(o, nativeArg(argv, 2))
	})
	method("getField", func(o *object.Object, argv []string) string {
		return ip.getField(o, nativeArg(argv, 2))
	})
	method("setFieldValue", func(o *object.Object, argv []string) string {
		ip.setField(o, nativeArg(argv, 2), nativeArg(argv, 3))
		return ""
	})
	method("getFieldCount", func(o *object.Object, argv []string) string {
		return strconv.Itoa(o.FieldCount())
	})
	method("getDynamicField", func(o *object.Object, argv []string) string {
		return o.GetDynamicField(nativeArg(argv, 2))
	})
	method("getDynamicFieldCount", func(o *object.Object, argv []string) string {
		return strconv.Itoa(o.DynamicFieldCount())
	})
	method("getFieldType", func(o *object.Object, argv []string) string {
		return o.GetFieldType(nativeArg(argv, 2), ip.typeName)
	})
	method("clone", func(o *object.Object, argv []string) string {
		clone := object.NewObject(o.Class)
		if err := ip.Objects.Register(clone, "", false); err != nil {
			return ""
		}
		return strconv.FormatUint(uint64(clone.ID), 10)
	})
	method("delete", func(o *object.Object, argv []string) string {
		ip.Objects.Delete(o)
		return ""
	})
	method("dump", func(o *object.Object, argv []string) string {
		ip.Log.Emit(korklog.Record{Level: korklog.Normal, Kind: korklog.Script, Msg: object.Dump(o)})
		return ""
	})
	method("dumpClassHierarchy", func(o *object.Object, argv []string) string {
		ip.Log.Emit(korklog.Record{Level: korklog.Normal, Kind: korklog.Script, Msg: object.DumpClassHierarchy(o)})
		return ""
	})
	method("schedule", func(o *object.Object, argv []string) string {
		if len(argv) < 4 {
			return ""
		}
		delay := value.ParseFloat(argv[2])
		fn := argv[3]
		id := ip.Events.Post(delay, event.Dispatch{Object: o, Function: fn, Args: append([]string(nil), argv[4:]...)})
		return strconv.FormatUint(uint64(id), 10)
	})
	g.AddCommand(namespace.Entry{Name: "call", Kind: namespace.NativeString, Native: func(argv []string) string {
		if len(argv) < 3 {
			return ""
		}
		obj, ok := ip.Objects.Find(uint32(value.ParseUint(argv[1])))
		if !ok {
			return ""
		}
		if objNS, found := ip.Namespaces.Find(obj.Class.Name, ""); found {
			if entry, eok := ip.Namespaces.Lookup(objNS, argv[2]); eok && entry.Kind != namespace.Script {
				return entry.Native(append([]string{argv[2], argv[1]}, argv[3:]...))
			}
		}
		return ""
	}})
}
