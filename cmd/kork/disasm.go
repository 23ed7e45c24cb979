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
	"encoding/binary"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/korkscript/interp"
	"github.com/probechain/korkscript/kork"
)

var disasmCommand = cli.Command{
	Name:      "disasm",
	Usage:     "compile a source file and print its bytecode",
	ArgsUsage: "<file.cs>",
	Action:    runDisasm,
}

func runDisasm(ctx *cli.Context) error {
	path, source, err := readSource(ctx, 0)
	if err != nil {
		return err
	}
	vm := kork.New()
	cb, err := vm.Compile(path, source)
	if err != nil {
		return exit("%v", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ip", "line", "op", "operands"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	for _, row := range disassemble(cb) {
		table.Append([]string{strconv.Itoa(row.ip), strconv.Itoa(row.line), row.mnemonic, row.operands})
	}
	table.Render()

	if len(cb.Functions) > 0 {
		ftable := tablewriter.NewWriter(os.Stdout)
		ftable.SetHeader([]string{"name", "ns", "pkg", "entry", "end", "args"})
		for _, f := range cb.Functions {
			ftable.Append([]string{
				f.Name, f.NS, f.Pkg,
				strconv.Itoa(f.EntryIP), strconv.Itoa(f.EndIP),
				strconv.Itoa(len(f.ArgNames)),
			})
		}
		ftable.Render()
	}
	return nil
}

type disasmRow struct {
	ip       int
	line     int
	mnemonic string
	operands string
}

// disassemble walks cb.Code the same way the interpreter's fetch loop does:
// one opcode byte, then Operands()*4 bytes of u32 operand words. Operand
// words that happen to index the string pool are resolved and shown inline
// next to their raw numeric value; the disassembler has no per-opcode
// knowledge of which operand means what beyond that, so every word is
// printed both ways.
func disassemble(cb *interp.CodeBlock) []disasmRow {
	var rows []disasmRow
	ip := 0
	for ip < len(cb.Code) {
		op := interp.Opcode(cb.Code[ip])
		n := op.Operands()
		start := ip
		ip++

		operands := ""
		for i := 0; i < n; i++ {
			if ip+4 > len(cb.Code) {
				break
			}
			word := binary.LittleEndian.Uint32(cb.Code[ip : ip+4])
			ip += 4
			if i > 0 {
				operands += " "
			}
			operands += strconv.FormatUint(uint64(word), 10)
			if int(word) < len(cb.Strings) {
				operands += "(\"" + cb.Strings[word] + "\")"
			}
		}

		rows = append(rows, disasmRow{
			ip:       start,
			line:     lineFor(cb, start),
			mnemonic: op.String(),
			operands: operands,
		})
	}
	return rows
}

// lineFor mirrors CodeBlock's own unexported nearest-line lookup, built
// directly against the exported SourceMap since disasm lives outside the
// interp package.
func lineFor(cb *interp.CodeBlock, ip int) int {
	line := 0
	for _, e := range cb.SourceMap {
		if e.IP > ip {
			break
		}
		line = e.Line
	}
	return line
}
