// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package interp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/probechain/korkscript/event"
	"github.com/probechain/korkscript/fiber"
	"github.com/probechain/korkscript/intern"
	"github.com/probechain/korkscript/korklog"
	"github.com/probechain/korkscript/namespace"
	"github.com/probechain/korkscript/object"
	"github.com/probechain/korkscript/pathexpand"
	"github.com/probechain/korkscript/types"
)

// asm is a minimal hand-rolled bytecode assembler used only by this
// package's own tests, independent of the compiler package.
type asm struct {
	strings []string
	code    []byte
}

func (a *asm) str(s string) uint32 {
	for i, existing := range a.strings {
		if existing == s {
			return uint32(i)
		}
	}
	a.strings = append(a.strings, s)
	return uint32(len(a.strings) - 1)
}

func (a *asm) u32(v uint32) {
	a.code = append(a.code, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (a *asm) op(op Opcode) *asm {
	a.code = append(a.code, byte(op))
	return a
}

func (a *asm) opU32(op Opcode, v uint32) *asm {
	a.op(op)
	a.u32(v)
	return a
}

func (a *asm) opStr(op Opcode, s string) *asm {
	a.op(op)
	a.u32(a.str(s))
	return a
}

// patchU32 overwrites a previously emitted operand word at byte offset pos.
func (a *asm) patchU32(pos int, v uint32) {
	a.code[pos] = byte(v)
	a.code[pos+1] = byte(v >> 8)
	a.code[pos+2] = byte(v >> 16)
	a.code[pos+3] = byte(v >> 24)
}

func (a *asm) here() int { return len(a.code) }

func (a *asm) build() *CodeBlock {
	return &CodeBlock{Strings: a.strings, Code: a.code}
}

func newTestInterp() *Interp {
	it := intern.New()
	objs := object.NewRegistry(it)
	ns := namespace.NewGlobal()
	reg := types.NewRegistry()
	fibers := fiber.NewManager()
	events := event.NewScheduler()
	log := korklog.NewDispatcher()
	paths := pathexpand.New()
	return New(it, objs, ns, reg, fibers, events, log, paths)
}

func TestEvaluateArithmetic(t *testing.T) {
	ip := newTestInterp()
	a := &asm{}
	a.opU32(OpLoadImmedUint, 2)
	a.opU32(OpLoadImmedUint, 3)
	a.op(OpAdd)
	a.op(OpReturnUint)
	cb := a.build()

	out, err := ip.Evaluate(cb)
	require.NoError(t, err)
	require.Equal(t, "5", out)
}

func TestEvaluateStringLiteral(t *testing.T) {
	ip := newTestInterp()
	a := &asm{}
	a.opStr(OpLoadImmedStr, "hello world")
	a.op(OpReturn)
	cb := a.build()

	out, err := ip.Evaluate(cb)
	require.NoError(t, err)
	require.Equal(t, "hello world", out)
}

func TestCallFunctionWithArgs(t *testing.T) {
	ip := newTestInterp()
	a := &asm{}

	// %function double(%n) { return %n * 2; }
	fnStart := a.here()
	a.opStr(OpSetCurVar, "%n")
	a.op(OpLoadVarFlt)
	a.opStr(OpLoadImmedFlt, "2")
	a.op(OpMul)
	a.op(OpReturnFlt)
	fnEnd := a.here()

	cb := &CodeBlock{
		Strings: a.strings,
		Code:    a.code,
		Functions: []FuncEntry{
			{Name: "double", ArgNames: []string{"n"}, EntryIP: fnStart, EndIP: fnEnd},
		},
	}
	gns := ip.Namespaces.GlobalNamespace()
	gns.AddCommand(namespace.Entry{Name: "double", Kind: namespace.Script, MaxArgs: 1, ScriptRef: 0})

	out, err := ip.Call(cb, "double", []string{"21"})
	require.NoError(t, err)
	require.Equal(t, "42", out)
}

// TestTryThrowRestoresStackDepth exercises the unwind invariant: anything
// pushed inside a try block above its PUSH_TRY mark is discarded, while
// whatever was already on the stack before the try survives untouched.
func TestTryThrowRestoresStackDepth(t *testing.T) {
	ip := newTestInterp()
	a := &asm{}

	a.op(OpPushTry)
	handlerOperand := a.here()
	a.u32(0) // patched below, once the handler's ip is known

	a.opStr(OpLoadImmedStr, "boom")
	a.op(OpThrow)

	handlerIP := a.here()
	a.patchU32(handlerOperand, uint32(handlerIP))
	a.op(OpReturn) // returns the thrown string, left by unwind's SetStringValue

	cb := a.build()

	out, err := ip.Evaluate(cb)
	require.NoError(t, err)
	require.Equal(t, "boom", out)
}

func TestForeachOverEmptyGroupSkipsBody(t *testing.T) {
	ip := newTestInterp()
	class := &object.Class{Name: "TestGroup"}
	ip.DeclareClass(class, true)

	a := &asm{}
	a.opStr(OpLoadImmedStr, "g") // the new object's declared name
	a.opStr(OpCreateObject, "TestGroup")
	a.op(OpFinishObject) // leaves the new group's ObjectId on the stack

	a.op(OpIterBegin)
	a.u32(a.str("%child"))
	emptyOperand := a.here()
	a.u32(0) // patched below

	// loop body: would push a marker if ever entered, then jump back to
	// OpIter's target (itself, for this test's purposes — it never runs).
	bodyStart := a.here()
	a.opU32(OpLoadImmedUint, 999)
	a.opU32(OpIter, uint32(bodyStart))

	emptyIP := a.here()
	a.patchU32(emptyOperand, uint32(emptyIP))
	a.op(OpIterEnd)
	a.opU32(OpLoadImmedUint, 7)
	a.op(OpReturnUint)

	cb := a.build()
	out, err := ip.Evaluate(cb)
	require.NoError(t, err)
	require.Equal(t, "7", out)
}

func TestDispatchCallUnknownFunctionLogsAndReturnsEmpty(t *testing.T) {
	ip := newTestInterp()
	a := &asm{}
	a.op(OpPushFrame)
	a.opStr(OpCallFuncResolve, "")
	a.u32(a.str("doesNotExist"))
	a.op(OpReturn)
	cb := a.build()

	out, err := ip.Evaluate(cb)
	require.NoError(t, err)
	require.Equal(t, "", out)
}
