// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package parser implements a recursive-descent / Pratt parser over the
// command scripting language's token stream.
package parser

import (
	"fmt"
	"strings"

	"github.com/probechain/korkscript/compiler/ast"
	"github.com/probechain/korkscript/compiler/lexer"
	"github.com/probechain/korkscript/compiler/token"
)

type precedence int

const (
	precLowest precedence = iota
	precOr                // ||
	precAnd               // &&
	precEquality          // == != $= !$=
	precRelational        // < > <= >=
	precConcat            // @ SPC TAB NL
	precAdd               // + -
	precMul               // * / %
	precPrefix            // unary - ! ~
	precPostfix           // . ()
)

var infixPrecedence = map[token.Type]precedence{
	token.OR:    precOr,
	token.AND:   precAnd,
	token.EQ:    precEquality,
	token.NEQ:   precEquality,
	token.STREQ: precEquality,
	token.STRNE: precEquality,
	token.LT:    precRelational,
	token.GT:    precRelational,
	token.LTE:   precRelational,
	token.GTE:   precRelational,
	token.AT:    precConcat,
	token.SPC:   precConcat,
	token.TAB:   precConcat,
	token.NL:    precConcat,
	token.PLUS:  precAdd,
	token.MINUS: precAdd,
	token.STAR:  precMul,
	token.SLASH: precMul,
	token.PERCENT: precMul,
	token.AMP:   precMul,
	token.PIPE:  precMul,
	token.CARET: precMul,
	token.SHL:   precMul,
	token.SHR:   precMul,
	token.DOT:   precPostfix,
}

// Parser holds the mutable state of a single parse run.
type Parser struct {
	lex    *lexer.Lexer
	cur    token.Token
	peek   token.Token
	errors []error
}

// New creates a Parser over the given lexer.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{lex: l}
	p.next()
	p.next()
	return p
}

// Errors returns every parse error collected during Parse.
func (p *Parser) Errors() []error { return p.errors }

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
	for p.peek.Type == token.COMMENT {
		p.peek = p.lex.NextToken()
	}
}

func (p *Parser) curIs(t token.Type) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peek.Type == t }

func (p *Parser) expect(t token.Type) bool {
	if p.peekIs(t) {
		p.next()
		return true
	}
	p.errorf("expected %s, got %s (%q) at %s", t, p.peek.Type, p.peek.Literal, p.peek.Pos)
	return false
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Errorf(format, args...))
}

// Parse consumes the entire token stream and returns the resulting Program.
// Parse errors are accumulated in Errors(); the parser attempts to recover
// by skipping to the next statement boundary so later declarations still
// parse.
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{}
	for !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.next()
	}
	return prog
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Type {
	case token.PACKAGE:
		return p.parsePackageDecl()
	case token.FUNCTION:
		return p.parseFuncDecl()
	case token.LBRACE:
		return p.parseBlock()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.FOREACH:
		return p.parseForeach()
	case token.RETURN:
		return p.parseReturn()
	case token.BREAK, token.CONTINUE:
		s := &ast.BreakStmt{Tok: p.cur}
		if p.peekIs(token.SEMICOLON) {
			p.next()
		}
		return s
	case token.THROW:
		return p.parseThrow()
	case token.TRY:
		return p.parseTry()
	case token.SEMICOLON:
		return nil
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parsePackageDecl() ast.Statement {
	d := &ast.PackageDecl{Tok: p.cur}
	if !p.expect(token.IDENT) {
		return d
	}
	d.Name = p.cur.Literal
	if p.peekIs(token.SEMICOLON) {
		p.next()
	}
	return d
}

func (p *Parser) parseFuncDecl() ast.Statement {
	d := &ast.FuncDecl{Tok: p.cur}
	if !p.expect(token.IDENT) {
		return d
	}
	name := p.cur.Literal
	if p.peekIs(token.COLONCOLON) {
		p.next()
		d.NS = name
		if !p.expect(token.IDENT) {
			return d
		}
		name = p.cur.Literal
	}
	d.Name = name

	if !p.expect(token.LPAREN) {
		return d
	}
	for !p.peekIs(token.RPAREN) {
		if !p.expect(token.LOCALVAR) {
			return d
		}
		d.Args = append(d.Args, strings.TrimPrefix(p.cur.Literal, "%"))
		if p.peekIs(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RPAREN)
	if !p.expect(token.LBRACE) {
		return d
	}
	d.Body = p.parseBlock()
	return d
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	b := &ast.BlockStmt{Tok: p.cur}
	for !p.peekIs(token.RBRACE) && !p.peekIs(token.EOF) {
		p.next()
		if s := p.parseStatement(); s != nil {
			b.Stmts = append(b.Stmts, s)
		}
	}
	p.expect(token.RBRACE)
	return b
}

func (p *Parser) parseIf() ast.Statement {
	s := &ast.IfStmt{Tok: p.cur}
	if !p.expect(token.LPAREN) {
		return s
	}
	p.next()
	s.Cond = p.parseExpression(precLowest)
	if !p.expect(token.RPAREN) {
		return s
	}
	p.next()
	s.Then = p.parseStatement()
	if p.peekIs(token.ELSE) {
		p.next()
		p.next()
		s.Else = p.parseStatement()
	}
	return s
}

func (p *Parser) parseWhile() ast.Statement {
	s := &ast.WhileStmt{Tok: p.cur}
	if !p.expect(token.LPAREN) {
		return s
	}
	p.next()
	s.Cond = p.parseExpression(precLowest)
	if !p.expect(token.RPAREN) {
		return s
	}
	p.next()
	s.Body = p.parseStatement()
	return s
}

func (p *Parser) parseFor() ast.Statement {
	s := &ast.ForStmt{Tok: p.cur}
	if !p.expect(token.LPAREN) {
		return s
	}
	p.next()
	if !p.curIs(token.SEMICOLON) {
		s.Init = p.parseExprStmt()
	}
	p.next()
	if !p.curIs(token.SEMICOLON) {
		s.Cond = p.parseExpression(precLowest)
		p.next()
	}
	p.expectCur(token.SEMICOLON)
	p.next()
	if !p.curIs(token.RPAREN) {
		e := p.parseExpression(precLowest)
		s.Post = &ast.ExprStmt{Tok: p.cur, Expr: e}
		p.next()
	}
	if !p.curIs(token.RPAREN) {
		p.errorf("for: expected ')' at %s", p.cur.Pos)
	}
	p.next()
	s.Body = p.parseStatement()
	return s
}

// expectCur is like expect but checks the CURRENT token rather than peek —
// used where parseFor has already advanced onto the separator.
func (p *Parser) expectCur(t token.Type) bool {
	if p.curIs(t) {
		return true
	}
	p.errorf("expected %s, got %s at %s", t, p.cur.Type, p.cur.Pos)
	return false
}

func (p *Parser) parseForeach() ast.Statement {
	s := &ast.ForeachStmt{Tok: p.cur}
	if !p.expect(token.LPAREN) {
		return s
	}
	if !p.expect(token.LOCALVAR) {
		return s
	}
	s.VarName = p.cur.Literal
	if !p.expect(token.IN) {
		return s
	}
	p.next()
	s.Container = p.parseExpression(precLowest)
	if !p.expect(token.RPAREN) {
		return s
	}
	p.next()
	s.Body = p.parseStatement()
	return s
}

func (p *Parser) parseReturn() ast.Statement {
	s := &ast.ReturnStmt{Tok: p.cur}
	if p.peekIs(token.SEMICOLON) {
		p.next()
		return s
	}
	p.next()
	s.Value = p.parseExpression(precLowest)
	if p.peekIs(token.SEMICOLON) {
		p.next()
	}
	return s
}

func (p *Parser) parseThrow() ast.Statement {
	s := &ast.ThrowStmt{Tok: p.cur}
	p.next()
	s.Value = p.parseExpression(precLowest)
	if p.peekIs(token.SEMICOLON) {
		p.next()
	}
	return s
}

func (p *Parser) parseTry() ast.Statement {
	s := &ast.TryStmt{Tok: p.cur}
	if !p.expect(token.LBRACE) {
		return s
	}
	s.Body = p.parseBlock()
	if !p.expect(token.CATCH) {
		return s
	}
	if !p.expect(token.LPAREN) {
		return s
	}
	if !p.expect(token.LOCALVAR) {
		return s
	}
	s.ErrName = p.cur.Literal
	if !p.expect(token.RPAREN) {
		return s
	}
	if !p.expect(token.LBRACE) {
		return s
	}
	s.Handler = p.parseBlock()
	return s
}

func (p *Parser) parseExprStmt() ast.Statement {
	s := &ast.ExprStmt{Tok: p.cur}
	s.Expr = p.parseExpression(precLowest)
	if p.peekIs(token.SEMICOLON) {
		p.next()
	}
	return s
}

// ---- Expressions ------------------------------------------------------------

func (p *Parser) parseExpression(prec precedence) ast.Expression {
	left := p.parseUnary()

	// Assignment binds tighter than nothing else parses it directly; it is
	// recognized here because only certain expression shapes are valid
	// assignment targets.
	if prec == precLowest && (p.peekIs(token.ASSIGN) || isCompoundAssign(p.peek.Type)) {
		if isAssignable(left) {
			opTok := p.peek
			p.next()
			p.next()
			value := p.parseExpression(precLowest)
			if opTok.Type != token.ASSIGN {
				value = &ast.BinaryExpr{Tok: opTok, Op: compoundOp(opTok.Type), Left: left, Right: value}
			}
			return &ast.AssignExpr{Tok: opTok, Target: left, Value: value}
		}
	}

	for !p.peekIs(token.SEMICOLON) && prec < tokenPrecedence(p.peek.Type) {
		opType := p.peek.Type
		p.next()
		if opType == token.AT || opType == token.SPC || opType == token.TAB || opType == token.NL {
			left = p.parseConcatTail(left, opType)
			continue
		}
		if opType == token.DOT {
			left = p.parsePostfixDot(left)
			continue
		}
		opTok := p.cur
		nextPrec := infixPrecedence[opType]
		p.next()
		right := p.parseExpression(nextPrec)
		left = &ast.BinaryExpr{Tok: opTok, Op: opType, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseConcatTail(first ast.Expression, firstOp token.Type) ast.Expression {
	c := &ast.ConcatExpr{Tok: p.cur, Operands: []ast.Expression{first, separatorFor(firstOp)}}
	p.next()
	c.Operands = append(c.Operands, p.parseExpression(precConcat))
	for p.peekIs(token.AT) || p.peekIs(token.SPC) || p.peekIs(token.TAB) || p.peekIs(token.NL) {
		op := p.peek.Type
		p.next()
		c.Operands = append(c.Operands, separatorFor(op))
		p.next()
		c.Operands = append(c.Operands, p.parseExpression(precConcat))
	}
	return compactConcat(c)
}

// separatorFor returns the literal separator expression a concat keyword
// contributes, or nil for plain '@' (no separator inserted).
func separatorFor(op token.Type) ast.Expression {
	switch op {
	case token.SPC:
		return &ast.StringLit{Value: " "}
	case token.TAB:
		return &ast.StringLit{Value: "\t"}
	case token.NL:
		return &ast.StringLit{Value: "\n"}
	default:
		return nil
	}
}

func compactConcat(c *ast.ConcatExpr) *ast.ConcatExpr {
	out := c.Operands[:0]
	for _, o := range c.Operands {
		if o != nil {
			out = append(out, o)
		}
	}
	c.Operands = out
	return c
}

func (p *Parser) parsePostfixDot(obj ast.Expression) ast.Expression {
	tok := p.cur
	if !p.expect(token.IDENT) {
		return obj
	}
	name := p.cur.Literal
	if p.peekIs(token.LPAREN) {
		p.next()
		args := p.parseArgs()
		return &ast.CallExpr{Tok: tok, Name: name, Object: obj, Args: args}
	}
	return &ast.FieldExpr{Tok: tok, Object: obj, Field: name}
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.cur.Type {
	case token.MINUS, token.BANG, token.TILDE:
		tok := p.cur
		op := p.cur.Type
		p.next()
		operand := p.parseUnary()
		return &ast.UnaryExpr{Tok: tok, Op: op, Operand: operand}
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() ast.Expression {
	switch p.cur.Type {
	case token.INT:
		return &ast.IntLit{Tok: p.cur, Value: p.cur.Literal}
	case token.FLOAT:
		return &ast.FloatLit{Tok: p.cur, Value: p.cur.Literal}
	case token.STRING:
		return &ast.StringLit{Tok: p.cur, Value: p.cur.Literal}
	case token.TRUE:
		return &ast.BoolLit{Tok: p.cur, Value: true}
	case token.FALSE:
		return &ast.BoolLit{Tok: p.cur, Value: false}
	case token.LOCALVAR, token.GLOBALVAR:
		return &ast.VarExpr{Tok: p.cur, Name: p.cur.Literal}
	case token.LPAREN:
		p.next()
		e := p.parseExpression(precLowest)
		p.expect(token.RPAREN)
		return e
	case token.NEW:
		return p.parseNewObject()
	case token.IDENT:
		return p.parseIdentOrCall()
	default:
		p.errorf("unexpected token %s (%q) at %s", p.cur.Type, p.cur.Literal, p.cur.Pos)
		return &ast.StringLit{Value: ""}
	}
}

func (p *Parser) parseIdentOrCall() ast.Expression {
	tok := p.cur
	name := p.cur.Literal
	ns := ""
	if p.peekIs(token.COLONCOLON) {
		p.next()
		ns = name
		if !p.expect(token.IDENT) {
			return &ast.StringLit{Value: ""}
		}
		name = p.cur.Literal
	}
	if p.peekIs(token.LPAREN) {
		p.next()
		args := p.parseArgs()
		return &ast.CallExpr{Tok: tok, NS: ns, Name: name, Args: args}
	}
	return &ast.StringLit{Tok: tok, Value: name}
}

func (p *Parser) parseArgs() []ast.Expression {
	var args []ast.Expression
	if p.peekIs(token.RPAREN) {
		p.next()
		return args
	}
	p.next()
	args = append(args, p.parseExpression(precLowest))
	for p.peekIs(token.COMMA) {
		p.next()
		p.next()
		args = append(args, p.parseExpression(precLowest))
	}
	p.expect(token.RPAREN)
	return args
}

func (p *Parser) parseNewObject() ast.Expression {
	e := &ast.NewObjectExpr{Tok: p.cur}
	if !p.expect(token.IDENT) {
		return e
	}
	e.ClassName = p.cur.Literal
	if !p.expect(token.LPAREN) {
		return e
	}
	if !p.peekIs(token.RPAREN) {
		p.next()
		e.Name = p.parseExpression(precLowest)
	}
	p.expect(token.RPAREN)
	if !p.peekIs(token.LBRACE) {
		return e
	}
	p.next()
	for !p.peekIs(token.RBRACE) && !p.peekIs(token.EOF) {
		p.next()
		if p.curIs(token.NEW) {
			child := p.parseNewObject()
			if n, ok := child.(*ast.NewObjectExpr); ok {
				e.Children = append(e.Children, n)
			}
			if p.peekIs(token.SEMICOLON) {
				p.next()
			}
			continue
		}
		if !p.curIs(token.IDENT) {
			p.errorf("expected field name in object literal, got %s at %s", p.cur.Type, p.cur.Pos)
			continue
		}
		fieldName := p.cur.Literal
		if !p.expect(token.ASSIGN) {
			continue
		}
		p.next()
		val := p.parseExpression(precLowest)
		e.Fields = append(e.Fields, ast.FieldInit{Name: fieldName, Value: val})
		if p.peekIs(token.SEMICOLON) {
			p.next()
		}
	}
	p.expect(token.RBRACE)
	return e
}

func tokenPrecedence(t token.Type) precedence {
	if pr, ok := infixPrecedence[t]; ok {
		return pr
	}
	return precLowest
}

func isAssignable(e ast.Expression) bool {
	switch e.(type) {
	case *ast.VarExpr, *ast.FieldExpr:
		return true
	default:
		return false
	}
}

func isCompoundAssign(t token.Type) bool {
	switch t {
	case token.PLUSEQ, token.MINUSEQ, token.STAREQ, token.SLASHEQ, token.PERCENTEQ:
		return true
	default:
		return false
	}
}

func compoundOp(t token.Type) token.Type {
	switch t {
	case token.PLUSEQ:
		return token.PLUS
	case token.MINUSEQ:
		return token.MINUS
	case token.STAREQ:
		return token.STAR
	case token.SLASHEQ:
		return token.SLASH
	case token.PERCENTEQ:
		return token.PERCENT
	default:
		return t
	}
}
