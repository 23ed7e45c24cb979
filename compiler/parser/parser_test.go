// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/probechain/korkscript/compiler/ast"
	"github.com/probechain/korkscript/compiler/lexer"
	"github.com/probechain/korkscript/compiler/token"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New(lexer.New("t.cs", src))
	prog := p.Parse()
	require.Empty(t, p.Errors(), "parse errors: %v", p.Errors())
	return prog
}

func TestParseFuncDeclWithArgs(t *testing.T) {
	prog := parse(t, `function ns::double(%a, %b) { return %a + %b; }`)
	require.Len(t, prog.Statements, 1)
	fn := prog.Statements[0].(*ast.FuncDecl)
	require.Equal(t, "ns", fn.NS)
	require.Equal(t, "double", fn.Name)
	require.Equal(t, []string{"a", "b"}, fn.Args)
	require.Len(t, fn.Body.Stmts, 1)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	bin := ret.Value.(*ast.BinaryExpr)
	require.Equal(t, token.PLUS, bin.Op)
}

func TestParseIfElse(t *testing.T) {
	prog := parse(t, `if (%x > 0) { %y = 1; } else { %y = -1; }`)
	ifs := prog.Statements[0].(*ast.IfStmt)
	require.NotNil(t, ifs.Cond)
	require.NotNil(t, ifs.Then)
	require.NotNil(t, ifs.Else)
}

func TestParseWhileLoop(t *testing.T) {
	prog := parse(t, `while (%i < 10) { %i = %i + 1; }`)
	ws := prog.Statements[0].(*ast.WhileStmt)
	cond := ws.Cond.(*ast.BinaryExpr)
	require.Equal(t, token.LT, cond.Op)
}

func TestParseForLoop(t *testing.T) {
	prog := parse(t, `for (%i = 0; %i < 10; %i = %i + 1) { echo(%i); }`)
	fs := prog.Statements[0].(*ast.ForStmt)
	require.NotNil(t, fs.Init)
	require.NotNil(t, fs.Cond)
	require.NotNil(t, fs.Post)
}

func TestParseForeach(t *testing.T) {
	prog := parse(t, `foreach (%child in %group) { %child.delete(); }`)
	fe := prog.Statements[0].(*ast.ForeachStmt)
	require.Equal(t, "%child", fe.VarName)
}

func TestParseCompoundAssignDesugars(t *testing.T) {
	prog := parse(t, `%x += 5;`)
	es := prog.Statements[0].(*ast.ExprStmt)
	assign := es.Expr.(*ast.AssignExpr)
	bin := assign.Value.(*ast.BinaryExpr)
	require.Equal(t, token.PLUS, bin.Op)
}

func TestParseTryCatch(t *testing.T) {
	prog := parse(t, `try { throw "boom"; } catch (%err) { echo(%err); }`)
	ts := prog.Statements[0].(*ast.TryStmt)
	require.Equal(t, "%err", ts.ErrName)
	require.Len(t, ts.Body.Stmts, 1)
	require.Len(t, ts.Handler.Stmts, 1)
}

func TestParseNewObjectWithFieldsAndChildren(t *testing.T) {
	prog := parse(t, `new SimGroup(MyGroup) {
		new ScriptObject(Child) {
			speed = 10;
		};
	};`)
	es := prog.Statements[0].(*ast.ExprStmt)
	obj := es.Expr.(*ast.NewObjectExpr)
	require.Equal(t, "SimGroup", obj.ClassName)
	require.Len(t, obj.Children, 1)
	require.Equal(t, "ScriptObject", obj.Children[0].ClassName)
	require.Len(t, obj.Children[0].Fields, 1)
	require.Equal(t, "speed", obj.Children[0].Fields[0].Name)
}

func TestParseConcatWithSeparators(t *testing.T) {
	prog := parse(t, `%s = "a" SPC "b" TAB "c";`)
	assign := prog.Statements[0].(*ast.ExprStmt).Expr.(*ast.AssignExpr)
	cc := assign.Value.(*ast.ConcatExpr)
	// "a", " ", "b", "\t", "c" — five operands after compaction.
	require.Len(t, cc.Operands, 5)
}

func TestParseMethodCall(t *testing.T) {
	prog := parse(t, `%obj.setFieldValue("speed", 5);`)
	es := prog.Statements[0].(*ast.ExprStmt)
	call := es.Expr.(*ast.CallExpr)
	require.Equal(t, "setFieldValue", call.Name)
	require.NotNil(t, call.Object)
	require.Len(t, call.Args, 2)
}

func TestParseFieldAccess(t *testing.T) {
	prog := parse(t, `%x = %obj.speed;`)
	assign := prog.Statements[0].(*ast.ExprStmt).Expr.(*ast.AssignExpr)
	field := assign.Value.(*ast.FieldExpr)
	require.Equal(t, "speed", field.Field)
}
