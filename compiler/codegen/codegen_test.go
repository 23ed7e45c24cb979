// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/probechain/korkscript/compiler/ast"
	"github.com/probechain/korkscript/compiler/lexer"
	"github.com/probechain/korkscript/compiler/parser"
	"github.com/probechain/korkscript/event"
	"github.com/probechain/korkscript/fiber"
	"github.com/probechain/korkscript/intern"
	"github.com/probechain/korkscript/interp"
	"github.com/probechain/korkscript/korklog"
	"github.com/probechain/korkscript/namespace"
	"github.com/probechain/korkscript/object"
	"github.com/probechain/korkscript/pathexpand"
	"github.com/probechain/korkscript/types"
)

func newTestInterp() *interp.Interp {
	it := intern.New()
	objs := object.NewRegistry(it)
	ns := namespace.NewGlobal()
	reg := types.NewRegistry()
	fibers := fiber.NewManager()
	events := event.NewScheduler()
	log := korklog.NewDispatcher()
	paths := pathexpand.New()
	return interp.New(it, objs, ns, reg, fibers, events, log, paths)
}

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.New("t.cs", src))
	prog := p.Parse()
	require.Empty(t, p.Errors(), "parse errors: %v", p.Errors())
	return prog
}

func compile(t *testing.T, src string) *interp.CodeBlock {
	t.Helper()
	cb, err := Generate("t.cs", mustParse(t, src))
	require.NoError(t, err)
	return cb
}

func TestGenerateArithmeticFunction(t *testing.T) {
	cb := compile(t, `function double(%n) { return %n * 2; }`)
	ip := newTestInterp()
	_, err := ip.Evaluate(cb)
	require.NoError(t, err)

	out, err := ip.Call(cb, "double", []string{"21"})
	require.NoError(t, err)
	require.Equal(t, "42", out)
}

func TestGenerateIfElse(t *testing.T) {
	cb := compile(t, `function sign(%n) {
		if (%n > 0) { return 1; } else { return -1; }
	}`)
	ip := newTestInterp()
	_, err := ip.Evaluate(cb)
	require.NoError(t, err)

	pos, err := ip.Call(cb, "sign", []string{"5"})
	require.NoError(t, err)
	require.Equal(t, "1", pos)

	neg, err := ip.Call(cb, "sign", []string{"-5"})
	require.NoError(t, err)
	require.Equal(t, "-1", neg)
}

func TestGenerateWhileLoopAccumulates(t *testing.T) {
	cb := compile(t, `function sumTo(%n) {
		%total = 0;
		%i = 0;
		while (%i < %n) {
			%total = %total + %i;
			%i = %i + 1;
		}
		return %total;
	}`)
	ip := newTestInterp()
	_, err := ip.Evaluate(cb)
	require.NoError(t, err)

	out, err := ip.Call(cb, "sumTo", []string{"5"})
	require.NoError(t, err)
	require.Equal(t, "10", out) // 0+1+2+3+4
}

func TestGenerateForLoopAccumulates(t *testing.T) {
	cb := compile(t, `function product(%n) {
		%total = 1;
		for (%i = 1; %i <= %n; %i = %i + 1) {
			%total = %total * %i;
		}
		return %total;
	}`)
	ip := newTestInterp()
	_, err := ip.Evaluate(cb)
	require.NoError(t, err)

	out, err := ip.Call(cb, "product", []string{"4"})
	require.NoError(t, err)
	require.Equal(t, "24", out)
}

func TestGenerateTryCatchBindsThrownValue(t *testing.T) {
	cb := compile(t, `function risky() {
		%result = "ok";
		try {
			throw "boom";
		} catch (%err) {
			%result = %err;
		}
		return %result;
	}`)
	ip := newTestInterp()
	_, err := ip.Evaluate(cb)
	require.NoError(t, err)

	out, err := ip.Call(cb, "risky", nil)
	require.NoError(t, err)
	require.Equal(t, "boom", out)
}

func TestGenerateStringConcatenation(t *testing.T) {
	cb := compile(t, `function greet(%name) {
		return "hello" SPC %name;
	}`)
	ip := newTestInterp()
	_, err := ip.Evaluate(cb)
	require.NoError(t, err)

	out, err := ip.Call(cb, "greet", []string{"world"})
	require.NoError(t, err)
	require.Equal(t, "hello world", out)
}

func TestGenerateShortCircuitAnd(t *testing.T) {
	cb := compile(t, `function both(%a, %b) {
		if (%a && %b) { return "yes"; }
		return "no";
	}`)
	ip := newTestInterp()
	_, err := ip.Evaluate(cb)
	require.NoError(t, err)

	out, err := ip.Call(cb, "both", []string{"1", "1"})
	require.NoError(t, err)
	require.Equal(t, "yes", out)

	out, err = ip.Call(cb, "both", []string{"0", "1"})
	require.NoError(t, err)
	require.Equal(t, "no", out)
}

func TestGenerateNewObjectAndFieldAccess(t *testing.T) {
	cb := compile(t, `function build() {
		%obj = new Vehicle(MyCar) {
			speed = 88;
		};
		return %obj.getFieldValue("speed");
	}`)
	ip := newTestInterp()
	ip.DeclareClass(&object.Class{Name: "Vehicle"}, false)
	_, err := ip.Evaluate(cb)
	require.NoError(t, err)

	out, err := ip.Call(cb, "build", nil)
	require.NoError(t, err)
	require.Equal(t, "88", out)
}

func TestGenerateForeachOverGroupChildren(t *testing.T) {
	cb := compile(t, `function countChildren() {
		%grp = new SimGroup(g) {
			new ScriptObject(a) { };
			new ScriptObject(b) { };
		};
		%n = 0;
		foreach (%child in %grp) {
			%n = %n + 1;
		}
		return %n;
	}`)
	ip := newTestInterp()
	ip.DeclareClass(&object.Class{Name: "SimGroup"}, true)
	ip.DeclareClass(&object.Class{Name: "ScriptObject"}, false)
	_, err := ip.Evaluate(cb)
	require.NoError(t, err)

	out, err := ip.Call(cb, "countChildren", nil)
	require.NoError(t, err)
	require.Equal(t, "2", out)
}
