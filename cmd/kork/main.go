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

// Command kork is the interpreter's command-line front end: one-shot
// evaluation, bytecode disassembly, concurrent multi-file compilation, and an
// interactive REPL against a live kork.Vm.
package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/korkscript/korklog"
)

const version = "0.1.0"

func main() {
	app := cli.NewApp()
	app.Name = "kork"
	app.Usage = "run, disassemble and compile korkscript source"
	app.Version = version
	app.Commands = []cli.Command{
		evalCommand,
		callCommand,
		disasmCommand,
		buildCommand,
		replCommand,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "kork: %v\n", err)
		os.Exit(1)
	}
}

// exit prints msg to stderr and terminates the process with status 1,
// matching the CLI-error-is-fatal convention used throughout this command.
func exit(format string, args ...interface{}) error {
	return cli.NewExitError(fmt.Sprintf(format, args...), 1)
}

func readSource(ctx *cli.Context, argIndex int) (string, string, error) {
	if ctx.NArg() <= argIndex {
		return "", "", exit("usage: %s %s", ctx.App.Name, ctx.Command.ArgsUsage)
	}
	path := ctx.Args().Get(argIndex)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", exit("reading %s: %v", path, err)
	}
	return path, string(data), nil
}

// attachTerminalLog adds the default log sink every subcommand attaches
// before evaluating script source, so echo()/warn()/error() output reaches
// the terminal the same way it would embedded in a host application.
func attachTerminalLog(log *korklog.Dispatcher) {
	tc := korklog.NewTerminalConsumer()
	log.AddConsumer(tc.Consume)
}
