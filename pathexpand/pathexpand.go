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

// Package pathexpand resolves script-relative path forms (leading
// `^name/` expandos, `~/`, `./`, `../`) against a VM-global table of named
// roots and the currently executing CodeBlock's own directory.
package pathexpand

import (
	"path"
	"strings"
	"sync"
)

// Table is the VM-global expando registry: a name -> absolute directory
// map, consulted by Expand for `^name/...` forms.
type Table struct {
	mu       sync.RWMutex
	expandos map[string]string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{expandos: make(map[string]string)}
}

// SetExpando binds name to dir (an absolute path, not re-validated here —
// callers normally pass the result of path.Clean on a host-resolved root).
func (t *Table) SetExpando(name, dir string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expandos[name] = dir
}

// Expando returns the directory bound to name, if any.
func (t *Table) Expando(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	dir, ok := t.expandos[name]
	return dir, ok
}

// Expand resolves p against currentDir (the directory of the CodeBlock
// currently executing, used to anchor relative forms). Fully-qualified
// paths (those not starting with ^, ~, ., or ..) are returned unchanged.
func (t *Table) Expand(p string, currentDir string) string {
	switch {
	case strings.HasPrefix(p, "^"):
		rest := p[1:]
		slash := strings.IndexByte(rest, '/')
		var name, tail string
		if slash < 0 {
			name, tail = rest, ""
		} else {
			name, tail = rest[:slash], rest[slash+1:]
		}
		if dir, ok := t.Expando(name); ok {
			return path.Clean(path.Join(dir, tail))
		}
		return p

	case strings.HasPrefix(p, "~/"):
		if dir, ok := t.Expando("~"); ok {
			return path.Clean(path.Join(dir, p[2:]))
		}
		return p

	case p == "." || strings.HasPrefix(p, "./"):
		return path.Clean(path.Join(currentDir, strings.TrimPrefix(p, "./")))

	case p == ".." || strings.HasPrefix(p, "../"):
		return path.Clean(path.Join(currentDir, p))

	default:
		return p
	}
}
