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

package korklog

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// TerminalConsumer writes Records to an output stream, colorized by level
// when the stream is a real TTY (or a Windows console wrapped by
// go-colorable so ANSI escapes still render), plain text otherwise.
type TerminalConsumer struct {
	out      io.Writer
	colorize bool
	warning  *color.Color
	errColor *color.Color
}

// NewTerminalConsumer wraps os.Stdout, auto-detecting TTY-ness with
// mattn/go-isatty and wrapping with mattn/go-colorable so colors survive
// on Windows consoles that don't natively understand ANSI.
func NewTerminalConsumer() *TerminalConsumer {
	isTTY := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return &TerminalConsumer{
		out:      colorable.NewColorableStdout(),
		colorize: isTTY,
		warning:  color.New(color.FgYellow),
		errColor: color.New(color.FgRed),
	}
}

// Consume implements Consumer, formatting r with call-depth indentation
// and, when colorize is set, a level-appropriate ANSI color.
func (t *TerminalConsumer) Consume(r Record) {
	indent := ""
	for i := 0; i < r.Depth; i++ {
		indent += "   "
	}
	line := indent + r.Line()

	if !t.colorize || r.Level == Normal {
		fmt.Fprintln(t.out, line)
		return
	}
	switch r.Level {
	case Warning:
		t.warning.Fprintln(t.out, line)
	case Error:
		t.errColor.Fprintln(t.out, line)
	}
}
