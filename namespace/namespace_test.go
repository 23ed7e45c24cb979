// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package namespace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassLinkCycleAndConflictDetection(t *testing.T) {
	g := NewGlobal()
	a := g.FindOrCreate("A", "")
	b := g.FindOrCreate("B", "")
	c := g.FindOrCreate("C", "")

	require.NoError(t, b.ClassLinkTo(a))
	require.NoError(t, c.ClassLinkTo(b))

	require.ErrorIs(t, a.ClassLinkTo(c), ErrCycle)

	other := g.FindOrCreate("Other", "")
	require.ErrorIs(t, b.ClassLinkTo(other), ErrConflict)

	// Relinking to the same parent is a no-op, not a conflict.
	require.NoError(t, b.ClassLinkTo(a))
}

func TestLookupWalksParentChainAndCaches(t *testing.T) {
	g := NewGlobal()
	base := g.FindOrCreate("Base", "")
	derived := g.FindOrCreate("Derived", "")
	require.NoError(t, derived.ClassLinkTo(base))

	base.AddCommand(Entry{Name: "speak", Kind: NativeString})

	e, ok := g.Lookup(derived, "speak")
	require.True(t, ok)
	require.Equal(t, "speak", e.Name)

	// Repeating the lookup exercises the cache path, not just the walk.
	e2, ok := g.Lookup(derived, "speak")
	require.True(t, ok)
	require.Same(t, e, e2)

	_, ok = g.Lookup(derived, "nope")
	require.False(t, ok)
	// A cached negative lookup must still report false, not a typed-nil
	// Entry mistaken for a hit.
	_, ok = g.Lookup(derived, "nope")
	require.False(t, ok)
}

func TestLookupSeesNewLinksAfterCacheBump(t *testing.T) {
	g := NewGlobal()
	base := g.FindOrCreate("Base2", "")
	derived := g.FindOrCreate("Derived2", "")

	_, ok := g.Lookup(derived, "greet")
	require.False(t, ok)

	base.AddCommand(Entry{Name: "greet", Kind: NativeString})
	require.NoError(t, derived.ClassLinkTo(base))
	g.bumpSeq()

	_, ok = g.Lookup(derived, "greet")
	require.True(t, ok)
}

func TestPackageActivationOverridesAndRestores(t *testing.T) {
	g := NewGlobal()
	ns := g.FindOrCreate("Player", "")
	ns.AddCommand(Entry{Name: "jump", Kind: NativeString, Usage: "base"})

	pkgNs := g.FindOrCreate("Player", "MyMod")
	pkgNs.AddCommand(Entry{Name: "jump", Kind: NativeString, Usage: "modded"})

	e, ok := g.Lookup(ns, "jump")
	require.True(t, ok)
	require.Equal(t, "base", e.Usage)

	require.NoError(t, g.ActivatePackage("MyMod"))
	e, ok = g.Lookup(ns, "jump")
	require.True(t, ok)
	require.Equal(t, "modded", e.Usage)

	require.NoError(t, g.DeactivatePackage("MyMod"))
	e, ok = g.Lookup(ns, "jump")
	require.True(t, ok)
	require.Equal(t, "base", e.Usage)
}

func TestPackageDeactivationRequiresLIFOOrder(t *testing.T) {
	g := NewGlobal()
	require.NoError(t, g.ActivatePackage("First"))
	require.NoError(t, g.ActivatePackage("Second"))

	require.ErrorIs(t, g.DeactivatePackage("First"), ErrPackageOrder)
	require.NoError(t, g.DeactivatePackage("Second"))
	require.NoError(t, g.DeactivatePackage("First"))
}

func TestTabCompleteCyclesForwardAndBackward(t *testing.T) {
	g := NewGlobal()
	ns := g.FindOrCreate("Console", "")
	ns.AddCommand(Entry{Name: "echo"})
	ns.AddCommand(Entry{Name: "exec"})
	ns.AddCommand(Entry{Name: "export"})

	first := ns.TabComplete("ex", "", true)
	require.Equal(t, "exec", first)

	second := ns.TabComplete("ex", first, true)
	require.Equal(t, "export", second)

	// Wraps back around to the first match.
	third := ns.TabComplete("ex", second, true)
	require.Equal(t, "exec", third)

	// Cycling backward from the first match wraps to the last.
	back := ns.TabComplete("ex", first, false)
	require.Equal(t, "export", back)
}

func TestTabCompleteWalksParentChain(t *testing.T) {
	g := NewGlobal()
	base := g.FindOrCreate("BaseNs", "")
	derived := g.FindOrCreate("DerivedNs", "")
	require.NoError(t, derived.ClassLinkTo(base))

	base.AddCommand(Entry{Name: "inherited"})
	derived.AddCommand(Entry{Name: "inheritedtoo"})

	got := derived.TabComplete("inherited", "", true)
	require.Equal(t, "inherited", got)
}
