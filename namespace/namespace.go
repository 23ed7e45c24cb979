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

// Package namespace implements the dispatch engine: a graph of named nodes
// each holding an ordered table of native/script entries, linked into
// class chains, overlaid by activatable packages, and searchable via
// prefix-based tab completion.
package namespace

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

// ErrCycle is returned by ClassLinkTo when linking would introduce a cycle.
var ErrCycle = errors.New("namespace: link would introduce a cycle")

// ErrConflict is returned by ClassLinkTo when this namespace is already
// linked to a different parent.
var ErrConflict = errors.New("namespace: already linked to a different parent")

// ErrPackageOrder is returned when DeactivatePackage is called out of LIFO
// order.
var ErrPackageOrder = errors.New("namespace: packages must deactivate in reverse activation order")

// ErrTooManyPackages is returned when activating would exceed MaxActivePackages.
var ErrTooManyPackages = errors.New("namespace: too many active packages")

// MaxActivePackages bounds the package activation stack.
const MaxActivePackages = 512

// EntryKind classifies a namespace entry by its callable implementation.
type EntryKind int

const (
	NativeVoid EntryKind = iota
	NativeBool
	NativeInt
	NativeFloat
	NativeString
	NativeValue
	Script
)

// NativeFunc is the Go-side implementation of a native entry. argv[0] is
// conventionally the function/method name.
type NativeFunc func(argv []string) string

// Entry is one callable bound to a namespace, either native (backed by a Go
// closure) or script (backed by a CodeBlock function offset, recorded by
// the caller — interp resolves ScriptRef itself since CodeBlock is owned
// there, not here).
type Entry struct {
	Name     string
	Kind     EntryKind
	MinArgs  int
	MaxArgs  int
	Usage    string
	Native   NativeFunc
	// ScriptRef is an opaque handle the interp package uses to find the
	// compiled function (its FuncEntry index); namespace never interprets it.
	ScriptRef int
}

// Namespace is one node in the dispatch graph.
type Namespace struct {
	Name    string
	Package string

	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string // insertion order, for deterministic tab-complete/dump
	parent  *Namespace

	// overlayStack holds entries/order snapshots displaced by
	// ActivatePackage, most recently activated last; DeactivatePackage pops
	// the top one back into place (LIFO restore).
	overlayStack []overlaySnapshot
}

type overlaySnapshot struct {
	pkg     string
	entries map[string]*Entry
	order   []string
}

func newNamespace(name, pkg string) *Namespace {
	return &Namespace{Name: name, Package: pkg, entries: make(map[string]*Entry)}
}

// Global owns every namespace created for one VM, plus the package
// activation stack and the lookup cache.
type Global struct {
	mu    sync.RWMutex
	nodes map[string]*Namespace // keyed by lower(name)+"\x00"+pkg

	seq int64 // bumped on every link/unlink; invalidates the cache

	cache *lru.Cache // key: cacheKeyFor(ns, name) -> *Entry

	activePackages []string
}

// NewGlobal returns an empty namespace graph with the implicit global
// namespace ("") pre-created.
func NewGlobal() *Global {
	c, _ := lru.New(1024)
	g := &Global{nodes: make(map[string]*Namespace), cache: c}
	g.FindOrCreate("", "")
	return g
}

func key(name, pkg string) string {
	return strings.ToLower(name) + "\x00" + strings.ToLower(pkg)
}

// FindOrCreate returns the namespace for (name, pkg), creating it if
// absent. Creation never mutates any existing link.
func (g *Global) FindOrCreate(name, pkg string) *Namespace {
	k := key(name, pkg)
	g.mu.Lock()
	defer g.mu.Unlock()
	if ns, ok := g.nodes[k]; ok {
		return ns
	}
	ns := newNamespace(name, pkg)
	g.nodes[k] = ns
	return ns
}

// Find looks up an existing namespace without creating one.
func (g *Global) Find(name, pkg string) (*Namespace, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ns, ok := g.nodes[key(name, pkg)]
	return ns, ok
}

// GlobalNamespace returns the root namespace ("" package "").
func (g *Global) GlobalNamespace() *Namespace {
	return g.FindOrCreate("", "")
}

// bumpSeq invalidates the lookup cache wholesale.
func (g *Global) bumpSeq() {
	atomic.AddInt64(&g.seq, 1)
	g.cache.Purge()
}

// ClassLinkTo splices parent above ns in the lookup chain. It is
// idempotent if ns is already linked to parent, fails with ErrConflict if
// ns is linked to a different parent, and fails with ErrCycle if parent is
// reachable from ns already (which would make the chain circular).
func (ns *Namespace) ClassLinkTo(parent *Namespace) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if ns.parent == parent {
		return nil
	}
	if ns.parent != nil {
		return ErrConflict
	}
	for p := parent; p != nil; p = p.parentUnlocked() {
		if p == ns {
			return ErrCycle
		}
	}
	ns.parent = parent
	return nil
}

func (ns *Namespace) parentUnlocked() *Namespace {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.parent
}

// UnlinkClass removes ns's parent link, if any.
func (ns *Namespace) UnlinkClass() {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.parent = nil
}

// AddCommand registers a native entry on ns.
func (ns *Namespace) AddCommand(e Entry) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	key := strings.ToLower(e.Name)
	if _, exists := ns.entries[key]; !exists {
		ns.order = append(ns.order, key)
	}
	ns.entries[key] = &e
}

// lookupLocal returns an entry defined directly on ns, without walking the
// parent chain.
func (ns *Namespace) lookupLocal(name string) (*Entry, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	e, ok := ns.entries[strings.ToLower(name)]
	return e, ok
}

// Lookup walks ns -> parent -> ... and returns the first matching entry,
// using the Global cache keyed by the graph's current link sequence.
func (g *Global) Lookup(ns *Namespace, name string) (*Entry, bool) {
	cacheKey := cacheKeyFor(ns, name)
	if v, ok := g.cache.Get(cacheKey); ok {
		e, _ := v.(*Entry)
		return e, e != nil
	}
	for n := ns; n != nil; n = n.parentUnlocked() {
		if e, ok := n.lookupLocal(name); ok {
			g.cache.Add(cacheKey, e)
			return e, true
		}
	}
	g.cache.Add(cacheKey, (*Entry)(nil))
	return nil, false
}

func cacheKeyFor(ns *Namespace, name string) string {
	return strings.ToLower(name) + "\x00" + ns.Name + "\x00" + ns.Package
}

// ActivatePackage relinks every namespace whose (name, pkg) pair matches
// pkg's overlay, pushing onto the LIFO activation stack.
func (g *Global) ActivatePackage(pkg string) error {
	g.mu.Lock()
	if len(g.activePackages) >= MaxActivePackages {
		g.mu.Unlock()
		return ErrTooManyPackages
	}
	g.activePackages = append(g.activePackages, pkg)
	var toRelink []*Namespace
	for k, ns := range g.nodes {
		if strings.HasSuffix(k, "\x00"+strings.ToLower(pkg)) && pkg != "" {
			toRelink = append(toRelink, ns)
		}
	}
	g.mu.Unlock()

	for _, overlay := range toRelink {
		base := g.FindOrCreate(overlay.Name, "")

		overlay.mu.RLock()
		newEntries := make(map[string]*Entry, len(overlay.entries))
		for k, v := range overlay.entries {
			newEntries[k] = v
		}
		newOrder := append([]string(nil), overlay.order...)
		overlay.mu.RUnlock()

		base.mu.Lock()
		base.overlayStack = append(base.overlayStack, overlaySnapshot{
			pkg:     pkg,
			entries: base.entries,
			order:   base.order,
		})
		base.entries = newEntries
		base.order = newOrder
		base.mu.Unlock()
	}
	g.bumpSeq()
	return nil
}

// DeactivatePackage undoes ActivatePackage(pkg); it must be the most
// recently activated package still active.
func (g *Global) DeactivatePackage(pkg string) error {
	g.mu.Lock()
	if len(g.activePackages) == 0 || !strings.EqualFold(g.activePackages[len(g.activePackages)-1], pkg) {
		g.mu.Unlock()
		return ErrPackageOrder
	}
	g.activePackages = g.activePackages[:len(g.activePackages)-1]
	var bases []*Namespace
	for _, ns := range g.nodes {
		bases = append(bases, ns)
	}
	g.mu.Unlock()

	for _, base := range bases {
		base.mu.Lock()
		if n := len(base.overlayStack); n > 0 && strings.EqualFold(base.overlayStack[n-1].pkg, pkg) {
			snap := base.overlayStack[n-1]
			base.overlayStack = base.overlayStack[:n-1]
			base.entries = snap.entries
			base.order = snap.order
		}
		base.mu.Unlock()
	}
	g.bumpSeq()
	return nil
}

// ActivePackages returns the current activation stack, outermost first.
func (g *Global) ActivePackages() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.activePackages))
	copy(out, g.activePackages)
	return out
}

// TabComplete enumerates the entry names of this namespace and its parent
// chain whose first len(prefix) characters match prefix case-insensitively,
// cycling forward or backward through the alphabetically sorted match set
// starting after the current best guess. Global variable names are not
// searched; prefix is returned unchanged when nothing matches.
func (ns *Namespace) TabComplete(prefix string, current string, forward bool) string {
	var matches []string
	lowerPrefix := strings.ToLower(prefix)
	for n := ns; n != nil; n = n.parentUnlocked() {
		n.mu.RLock()
		for _, name := range n.order {
			if strings.HasPrefix(name, lowerPrefix) {
				matches = append(matches, name)
			}
		}
		n.mu.RUnlock()
	}

	matches = uniqueSorted(matches)
	if len(matches) == 0 {
		return prefix
	}
	idx := indexOf(matches, strings.ToLower(current))
	if idx < 0 {
		if forward {
			return matches[0]
		}
		return matches[len(matches)-1]
	}
	if forward {
		return matches[(idx+1)%len(matches)]
	}
	return matches[(idx-1+len(matches))%len(matches)]
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func indexOf(ss []string, v string) int {
	for i, s := range ss {
		if s == v {
			return i
		}
	}
	return -1
}
