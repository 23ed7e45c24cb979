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
	"os"
	"sync"
)

// FileMode selects how FileConsumer holds its underlying file handle
// between writes.
type FileMode int

const (
	// FileOff discards every record without touching disk.
	FileOff FileMode = iota
	// FileAppendPerLine opens, appends, and closes the file for every
	// single record. Safer against another process holding the file open
	// (e.g. a log viewer), at the cost of an open/close syscall pair per
	// line; a line written mid-crash is never left half-flushed in an
	// os-buffered handle, but a line racing a concurrent writer from
	// another process can still interleave — that torn-line possibility
	// is accepted, not solved, here.
	FileAppendPerLine
	// FileKeepOpen holds one open handle for the consumer's lifetime.
	FileKeepOpen
)

// FileConsumer is the file-backed log Consumer, built on os/io alone: log
// rotation is deliberately out of scope, so there is no library dependency
// to reach for here.
type FileConsumer struct {
	mu   sync.Mutex
	path string
	mode FileMode
	f    *os.File
}

// NewFileConsumer returns a FileConsumer writing to path under mode.
func NewFileConsumer(path string, mode FileMode) *FileConsumer {
	return &FileConsumer{path: path, mode: mode}
}

// Consume implements Consumer.
func (c *FileConsumer) Consume(r Record) {
	if c.mode == FileOff {
		return
	}
	indent := ""
	for i := 0; i < r.Depth; i++ {
		indent += "   "
	}
	line := indent + r.Line() + "\n"

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case FileAppendPerLine:
		f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return
		}
		fmt.Fprint(f, line)
		f.Close()

	case FileKeepOpen:
		if c.f == nil {
			f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return
			}
			c.f = f
		}
		fmt.Fprint(c.f, line)
	}
}

// Close releases the held file handle, if any (a no-op in FileAppendPerLine
// mode, which never keeps one open).
func (c *FileConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.f != nil {
		err := c.f.Close()
		c.f = nil
		return err
	}
	return nil
}

// SetMode switches the consumer's mode, closing any held handle if
// switching away from FileKeepOpen.
func (c *FileConsumer) SetMode(mode FileMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == FileKeepOpen && mode != FileKeepOpen && c.f != nil {
		c.f.Close()
		c.f = nil
	}
	c.mode = mode
}
