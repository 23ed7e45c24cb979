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

// Package codegen lowers a parsed compiler/ast.Program into the interp
// package's CodeBlock bytecode, the same wire format interp.Decode reads.
package codegen

import (
	"fmt"

	"github.com/probechain/korkscript/compiler/ast"
	"github.com/probechain/korkscript/compiler/token"
	"github.com/probechain/korkscript/interp"
)

// Generator walks one parsed file into a single CodeBlock. Forward jump
// targets are patched in place once their destination is reached (every
// jump target is a single u32), rather than resolved in a separate label
// pass.
type Generator struct {
	path string

	code   []byte
	strs   []string
	strIdx map[string]uint32
	funcs  []interp.FuncEntry

	curPkg string
	line   int
	srcMap []interp.SourceLine

	err error
}

// New returns a Generator that will attribute its output CodeBlock to path.
func New(path string) *Generator {
	return &Generator{path: path, strIdx: make(map[string]uint32)}
}

// Generate compiles prog into a CodeBlock, or returns the first error
// encountered (an unsupported construct; the parser itself has already
// rejected anything syntactically invalid).
func Generate(path string, prog *ast.Program) (*interp.CodeBlock, error) {
	g := New(path)
	g.genProgram(prog)
	if g.err != nil {
		return nil, g.err
	}
	return &interp.CodeBlock{
		Path:      g.path,
		Strings:   g.strs,
		Functions: g.funcs,
		Code:      g.code,
		SourceMap: g.srcMap,
	}, nil
}

// ---- low-level emission ----------------------------------------------------

func (g *Generator) fail(tok token.Token, format string, args ...interface{}) {
	if g.err == nil {
		g.err = fmt.Errorf("codegen: %s: %s", tok.Pos, fmt.Sprintf(format, args...))
	}
}

func (g *Generator) here() int { return len(g.code) }

func (g *Generator) markLine(tok token.Token) {
	if tok.Pos.Line == g.line {
		return
	}
	g.line = tok.Pos.Line
	g.srcMap = append(g.srcMap, interp.SourceLine{IP: g.here(), Line: g.line})
}

func (g *Generator) rawU32(v uint32) {
	g.code = append(g.code, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (g *Generator) patchU32(pos int, v uint32) {
	g.code[pos] = byte(v)
	g.code[pos+1] = byte(v >> 8)
	g.code[pos+2] = byte(v >> 16)
	g.code[pos+3] = byte(v >> 24)
}

func (g *Generator) emit(op interp.Opcode) { g.code = append(g.code, byte(op)) }

func (g *Generator) emitU32(op interp.Opcode, v uint32) {
	g.emit(op)
	g.rawU32(v)
}

func (g *Generator) strIndex(s string) uint32 {
	if idx, ok := g.strIdx[s]; ok {
		return idx
	}
	idx := uint32(len(g.strs))
	g.strs = append(g.strs, s)
	g.strIdx[s] = idx
	return idx
}

func (g *Generator) emitStr(op interp.Opcode, s string) { g.emitU32(op, g.strIndex(s)) }

// emitJmpPlaceholder emits op followed by a zero operand, returning the byte
// offset of that operand so the caller can patchU32 it once the real target
// is known.
func (g *Generator) emitJmpPlaceholder(op interp.Opcode) int {
	g.emit(op)
	pos := g.here()
	g.rawU32(0)
	return pos
}

// ---- program / declarations ------------------------------------------------

func (g *Generator) genProgram(prog *ast.Program) {
	for _, stmt := range prog.Statements {
		g.genStmt(stmt)
		if g.err != nil {
			return
		}
	}
}

func (g *Generator) genStmt(stmt ast.Statement) {
	if g.err != nil {
		return
	}
	switch s := stmt.(type) {
	case *ast.PackageDecl:
		g.markLine(s.Tok)
		g.curPkg = s.Name
	case *ast.FuncDecl:
		g.genFuncDecl(s)
	case *ast.BlockStmt:
		for _, inner := range s.Stmts {
			g.genStmt(inner)
		}
	case *ast.ExprStmt:
		g.markLine(s.Tok)
		g.genExpr(s.Expr)
	case *ast.IfStmt:
		g.genIf(s)
	case *ast.WhileStmt:
		g.genWhile(s)
	case *ast.ForStmt:
		g.genFor(s)
	case *ast.ForeachStmt:
		g.genForeach(s)
	case *ast.ReturnStmt:
		g.markLine(s.Tok)
		if s.Value != nil {
			g.genExpr(s.Value)
			g.emit(interp.OpReturn)
		} else {
			g.emit(interp.OpReturnVoid)
		}
	case *ast.BreakStmt:
		g.markLine(s.Tok)
		g.emit(interp.OpBreak)
	case *ast.ThrowStmt:
		g.markLine(s.Tok)
		g.genExpr(s.Value)
		g.emit(interp.OpThrow)
	case *ast.TryStmt:
		g.genTry(s)
	default:
		g.fail(token.Token{}, "unsupported statement %T", stmt)
	}
}

// genFuncDecl lowers `function [ns::]name(%args) { body }`. OpFuncDecl sits
// immediately before the body; the interpreter's top-level Evaluate pass
// registers the entry and skips straight to EndIP, so the body only ever
// runs through callScript.
func (g *Generator) genFuncDecl(d *ast.FuncDecl) {
	g.markLine(d.Tok)
	idx := uint32(len(g.funcs))
	g.funcs = append(g.funcs, interp.FuncEntry{Name: d.Name, NS: d.NS, Pkg: g.curPkg, ArgNames: append([]string(nil), d.Args...)})
	g.emitU32(interp.OpFuncDecl, idx)
	entryIP := g.here()
	if d.Body != nil {
		for _, inner := range d.Body.Stmts {
			g.genStmt(inner)
		}
	}
	g.emit(interp.OpReturnVoid)
	g.funcs[idx].EntryIP = entryIP
	g.funcs[idx].EndIP = g.here()
}

// ---- control flow -----------------------------------------------------------

func (g *Generator) genIf(s *ast.IfStmt) {
	g.markLine(s.Tok)
	g.genExpr(s.Cond)
	elsePos := g.emitJmpPlaceholder(interp.OpJmpIfNot)
	g.genStmt(s.Then)
	if s.Else == nil {
		g.patchU32(elsePos, uint32(g.here()))
		return
	}
	endPos := g.emitJmpPlaceholder(interp.OpJmp)
	g.patchU32(elsePos, uint32(g.here()))
	g.genStmt(s.Else)
	g.patchU32(endPos, uint32(g.here()))
}

func (g *Generator) genWhile(s *ast.WhileStmt) {
	g.markLine(s.Tok)
	loopStart := g.here()
	g.genExpr(s.Cond)
	endPos := g.emitJmpPlaceholder(interp.OpJmpIfNot)
	g.genStmt(s.Body)
	g.emitU32(interp.OpJmp, uint32(loopStart))
	g.patchU32(endPos, uint32(g.here()))
}

func (g *Generator) genFor(s *ast.ForStmt) {
	g.markLine(s.Tok)
	if s.Init != nil {
		g.genStmt(s.Init)
	}
	loopStart := g.here()
	var endPos int
	hasCond := s.Cond != nil
	if hasCond {
		g.genExpr(s.Cond)
		endPos = g.emitJmpPlaceholder(interp.OpJmpIfNot)
	}
	g.genStmt(s.Body)
	if s.Post != nil {
		g.genStmt(s.Post)
	}
	g.emitU32(interp.OpJmp, uint32(loopStart))
	if hasCond {
		g.patchU32(endPos, uint32(g.here()))
	}
}

// genForeach lowers `foreach (%var in container) body` to ITER_BEGIN/ITER/
// ITER_END, mirroring the empty-group skip shape the interpreter tests
// exercise directly: an empty container jumps straight past the loop.
func (g *Generator) genForeach(s *ast.ForeachStmt) {
	g.markLine(s.Tok)
	g.genExpr(s.Container)
	g.emit(interp.OpIterBegin)
	g.rawU32(g.strIndex(s.VarName))
	emptyPos := g.here()
	g.rawU32(0)

	bodyStart := g.here()
	g.genStmt(s.Body)
	g.emitU32(interp.OpIter, uint32(bodyStart))
	g.emit(interp.OpIterEnd)
	g.patchU32(emptyPos, uint32(g.here()))
}

// genTry lowers `try body catch (%err) handler`. The unwind path
// (interp.unwind) truncates the value stack back to the PUSH_TRY mark and
// leaves the thrown string as the new top entry, so the handler's first
// instructions just have to bind it to ErrName.
func (g *Generator) genTry(s *ast.TryStmt) {
	g.markLine(s.Tok)
	g.emit(interp.OpPushTry)
	handlerPos := g.here()
	g.rawU32(0)

	for _, inner := range s.Body.Stmts {
		g.genStmt(inner)
	}
	g.emit(interp.OpPopTry)
	endPos := g.emitJmpPlaceholder(interp.OpJmp)

	g.patchU32(handlerPos, uint32(g.here()))
	errName := s.ErrName
	if errName == "" {
		errName = "%err"
	}
	g.emitStr(interp.OpSetCurVarCreate, errName)
	g.emit(interp.OpSaveVarStr)
	if s.Handler != nil {
		for _, inner := range s.Handler.Stmts {
			g.genStmt(inner)
		}
	}
	g.patchU32(endPos, uint32(g.here()))
}

// ---- expressions ------------------------------------------------------------

// genExpr compiles e, leaving exactly one value on the stack.
func (g *Generator) genExpr(e ast.Expression) {
	if g.err != nil {
		return
	}
	switch ex := e.(type) {
	case *ast.IntLit:
		g.emitU32(interp.OpLoadImmedUint, parseUint32(ex.Value))
	case *ast.FloatLit:
		g.emitStr(interp.OpLoadImmedFlt, ex.Value)
	case *ast.StringLit:
		g.emitStr(interp.OpLoadImmedStr, ex.Value)
	case *ast.BoolLit:
		v := uint32(0)
		if ex.Value {
			v = 1
		}
		g.emitU32(interp.OpLoadImmedUint, v)
	case *ast.VarExpr:
		g.emitStr(interp.OpSetCurVar, ex.Name)
		g.emit(interp.OpLoadVarVar)
	case *ast.FieldExpr:
		g.genExpr(ex.Object)
		g.emit(interp.OpSetCurObject)
		g.emitStr(interp.OpSetCurField, ex.Field)
		g.emit(interp.OpLoadFieldVar)
	case *ast.AssignExpr:
		g.genAssign(ex)
	case *ast.BinaryExpr:
		g.genBinary(ex)
	case *ast.UnaryExpr:
		g.genUnary(ex)
	case *ast.ConcatExpr:
		g.genConcat(ex)
	case *ast.CallExpr:
		g.genCall(ex)
	case *ast.NewObjectExpr:
		g.genNewObject(ex)
	default:
		g.fail(token.Token{}, "unsupported expression %T", e)
	}
}

func (g *Generator) genAssign(ex *ast.AssignExpr) {
	switch target := ex.Target.(type) {
	case *ast.VarExpr:
		g.genExpr(ex.Value)
		g.emitStr(interp.OpSetCurVarCreate, target.Name)
		g.emit(interp.OpSaveVarVar)
	case *ast.FieldExpr:
		g.genExpr(target.Object)
		g.emit(interp.OpSetCurObject)
		g.genExpr(ex.Value)
		g.emitStr(interp.OpSetCurField, target.Field)
		g.emit(interp.OpSaveFieldVar)
	default:
		g.fail(ex.Tok, "invalid assignment target")
	}
}

var binaryOps = map[token.Type]interp.Opcode{
	token.PLUS:    interp.OpAdd,
	token.MINUS:   interp.OpSub,
	token.STAR:    interp.OpMul,
	token.SLASH:   interp.OpDiv,
	token.PERCENT: interp.OpMod,
	token.EQ:      interp.OpCmpEQ,
	token.NEQ:     interp.OpCmpNE,
	token.LT:      interp.OpCmpLT,
	token.GT:      interp.OpCmpGR,
	token.LTE:     interp.OpCmpLE,
	token.GTE:     interp.OpCmpGE,
	token.AMP:     interp.OpBitAnd,
	token.PIPE:    interp.OpBitOr,
	token.CARET:   interp.OpXor,
	token.SHL:     interp.OpShl,
	token.SHR:     interp.OpShr,
}

func (g *Generator) genBinary(ex *ast.BinaryExpr) {
	switch ex.Op {
	case token.AND:
		g.genShortCircuit(ex, interp.OpJmpIfNotNP)
		return
	case token.OR:
		g.genShortCircuit(ex, interp.OpJmpIfNP)
		return
	case token.STREQ, token.STRNE:
		g.genExpr(ex.Left)
		g.genExpr(ex.Right)
		g.emit(interp.OpCompareStr)
		if ex.Op == token.STRNE {
			g.emit(interp.OpNot)
		}
		return
	}
	op, ok := binaryOps[ex.Op]
	if !ok {
		g.fail(ex.Tok, "unsupported operator %s", ex.Op)
		return
	}
	g.genExpr(ex.Left)
	g.genExpr(ex.Right)
	g.emit(op)
}

// genShortCircuit lowers && and || without a popping branch: the peeking
// JmpIfNotNP/JmpIfNP opcodes leave the left operand on the stack as the
// result when they short-circuit, so only the non-taken path needs to
// discard it before evaluating the right operand.
func (g *Generator) genShortCircuit(ex *ast.BinaryExpr, branch interp.Opcode) {
	g.genExpr(ex.Left)
	endPos := g.emitJmpPlaceholder(branch)
	g.emit(interp.OpRewindStr)
	g.genExpr(ex.Right)
	g.patchU32(endPos, uint32(g.here()))
}

func (g *Generator) genUnary(ex *ast.UnaryExpr) {
	g.genExpr(ex.Operand)
	switch ex.Op {
	case token.MINUS:
		g.emit(interp.OpNeg)
	case token.BANG:
		g.emit(interp.OpNot)
	case token.TILDE:
		g.emit(interp.OpOnesComplement)
	default:
		g.fail(ex.Tok, "unsupported unary operator %s", ex.Op)
	}
}

// genConcat lowers a `@`/SPC/TAB/NL chain to a call against the strConcat
// builtin (interp/builtins.go): AppendString exists on the string-building
// accumulator but no opcode drives it, and introducing one this late in the
// opcode table would outgrow the rest of this build's grounding. Routing
// through the established call ABI reuses machinery every other call already
// exercises instead.
func (g *Generator) genConcat(ex *ast.ConcatExpr) {
	g.genCallLike("", "strConcat", ex.Operands)
}

func (g *Generator) genCall(ex *ast.CallExpr) {
	if ex.Object != nil {
		g.genExpr(ex.Object)
		g.emit(interp.OpSetCurObject)
	}
	g.genCallLike(ex.NS, ex.Name, ex.Args)
}

// genCallLike emits the shared call sequence: a reserved result placeholder,
// a fresh argument frame, each argument pushed in order, then the resolve.
// The placeholder is required so CALLFUNC_RESOLVE's result write lands on a
// slot this expression owns rather than clobbering whatever an enclosing
// expression already pushed (execstack.Stack.PopFrame truncates to the
// frame's base and SetStringValue overwrites its new top in place).
func (g *Generator) genCallLike(ns, name string, args []ast.Expression) {
	g.emit(interp.OpAdvanceStr)
	g.emit(interp.OpPushFrame)
	for _, a := range args {
		g.genExpr(a)
	}
	g.emit(interp.OpCallFuncResolve)
	g.rawU32(g.strIndex(ns))
	g.rawU32(g.strIndex(name))
}

// genNewObject lowers `new ClassName(name) { field = value; ... }`,
// including nested children, which FINISH_OBJECT folds into the enclosing
// group automatically while it is still open on the interpreter's object
// stack (interp/objects.go finishObject).
func (g *Generator) genNewObject(ex *ast.NewObjectExpr) {
	if ex.Name != nil {
		g.genExpr(ex.Name)
	} else {
		g.emitStr(interp.OpLoadImmedStr, "")
	}
	g.emitStr(interp.OpCreateObject, ex.ClassName)
	for _, f := range ex.Fields {
		g.genExpr(f.Value)
		g.emitStr(interp.OpSetCurField, f.Name)
		g.emit(interp.OpSaveFieldVar)
	}
	for _, child := range ex.Children {
		g.genNewObject(child)
		g.emit(interp.OpRewindStr) // child's own ObjectId result is consumed by finishObject's group-fold, not needed here
	}
	g.emit(interp.OpFinishObject)
}

func parseUint32(s string) uint32 {
	var v uint64
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			break
		}
		v = v*10 + uint64(s[i]-'0')
	}
	return uint32(v)
}
