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

// Package intern canonicalizes identifier and literal byte strings so the
// rest of the runtime can compare names by identity instead of by content.
// A case-folded variant lets namespace and variable lookups be
// case-insensitive without re-normalizing on every compare.
package intern

import (
	"sync"

	"golang.org/x/text/cases"
)

// ID identifies an interned string. The zero value names the empty string.
type ID uint32

// Table is a concurrency-safe interning table with an auxiliary case-folded
// index. It is owned by a single VM; there is no global/process-wide table.
type Table struct {
	mu     sync.RWMutex
	byExact map[string]ID
	strings []string
	byFold  map[string]ID
	folder  cases.Caser
}

// New creates an empty interning table. The empty string is pre-interned as
// ID 0 so zero-valued IDs are always valid.
func New() *Table {
	t := &Table{
		byExact: make(map[string]ID, 256),
		strings: make([]string, 0, 256),
		byFold:  make(map[string]ID, 256),
		folder:  cases.Fold(),
	}
	t.intern("")
	return t
}

// Intern returns the canonical ID for s, creating an entry if s has not been
// seen before. Two calls with byte-identical strings always return the same
// ID; byte-different strings always return different IDs.
func (t *Table) Intern(s string) ID {
	t.mu.RLock()
	if id, ok := t.byExact[s]; ok {
		t.mu.RUnlock()
		return id
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.intern(s)
}

// intern must be called with t.mu held for writing.
func (t *Table) intern(s string) ID {
	if id, ok := t.byExact[s]; ok {
		return id
	}
	id := ID(len(t.strings))
	t.strings = append(t.strings, s)
	t.byExact[s] = id

	folded := t.folder.String(s)
	if _, ok := t.byFold[folded]; !ok {
		t.byFold[folded] = id
	}
	return id
}

// InternFold returns the ID of the first string ever interned whose
// case-folded form equals s's case-folded form, interning s itself (under
// its own exact-match identity) if this is the first time any spelling of
// it has been seen. Use this for namespace/variable name lookups, which are
// case-insensitive; use Intern for literal string constants, which are not.
func (t *Table) InternFold(s string) ID {
	folded := t.folder.String(s)

	t.mu.RLock()
	if id, ok := t.byFold[folded]; ok {
		t.mu.RUnlock()
		return id
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.byFold[folded]; ok {
		return id
	}
	return t.intern(s)
}

// String returns the byte string named by id. It panics if id was never
// returned by this table, since that indicates a programming error (an ID
// crossing between two Tables, or a corrupted CodeBlock).
func (t *Table) String(id ID) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.strings[id]
}

// Len reports how many distinct exact-match strings have been interned.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.strings)
}

// Equal reports whether two IDs from the same table name the same string.
// Since IDs are already canonical this is just an integer compare, but the
// helper documents intent at call sites.
func Equal(a, b ID) bool { return a == b }
