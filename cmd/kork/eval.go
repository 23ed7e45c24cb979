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

package main

import (
	"fmt"

	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/korkscript/kork"
)

var evalCommand = cli.Command{
	Name:      "eval",
	Usage:     "compile and run a source file's top-level code",
	ArgsUsage: "<file.cs>",
	Action:    runEval,
}

func runEval(ctx *cli.Context) error {
	path, source, err := readSource(ctx, 0)
	if err != nil {
		return err
	}
	vm := kork.New()
	attachTerminalLog(vm.Log)

	out, err := vm.Evaluate(path, source)
	if err != nil {
		return exit("%v", err)
	}
	fmt.Println(out)
	return nil
}

var callCommand = cli.Command{
	Name:      "call",
	Usage:     "compile a source file and invoke one global function from it",
	ArgsUsage: "<file.cs> <function> [args...]",
	Action:    runCall,
}

func runCall(ctx *cli.Context) error {
	if ctx.NArg() < 2 {
		return exit("usage: kork call <file.cs> <function> [args...]")
	}
	path, source, err := readSource(ctx, 0)
	if err != nil {
		return err
	}
	fnName := ctx.Args().Get(1)
	callArgs := []string(ctx.Args())[2:]

	vm := kork.New()
	attachTerminalLog(vm.Log)

	cb, err := vm.Compile(path, source)
	if err != nil {
		return exit("%v", err)
	}
	out, err := vm.Call(cb, fnName, callArgs)
	if err != nil {
		return exit("%v", err)
	}
	fmt.Println(out)
	return nil
}
