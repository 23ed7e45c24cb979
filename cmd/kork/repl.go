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
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/korkscript/kork"
)

var replCommand = cli.Command{
	Name:   "repl",
	Usage:  "interactive read-eval-print loop",
	Action: runRepl,
}

func runRepl(ctx *cli.Context) error {
	vm := kork.New()
	attachTerminalLog(vm.Log)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) []string {
		word := lastWord(input)
		if word == "" {
			return nil
		}
		match := vm.GetGlobalNamespace().TabComplete(word, "", true)
		if match == word {
			return nil
		}
		return []string{input[:len(input)-len(word)] + match}
	})

	fmt.Println("kork interactive shell -- Ctrl-D to exit")
	for {
		text, err := line.Prompt("% ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return exit("%v", err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		line.AppendHistory(text)

		out, err := vm.Evaluate("repl", text)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
}

// lastWord returns the trailing run of identifier-ish characters in s, the
// fragment tab-completion should try to extend.
func lastWord(s string) string {
	i := len(s)
	for i > 0 {
		c := s[i-1]
		if c == ' ' || c == '(' || c == ',' || c == '\t' {
			break
		}
		i--
	}
	return s[i:]
}
