// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package kork

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateRunsTopLevelScript(t *testing.T) {
	vm := New()
	out, err := vm.Evaluate("t.cs", `%x = 1 + 2; return %x;`)
	require.NoError(t, err)
	require.Equal(t, "3", out)
}

func TestEvaluateCachesCompiledSource(t *testing.T) {
	vm := New()
	src := `function add(%a, %b) { return %a + %b; }`
	_, err := vm.Evaluate("t.cs", src)
	require.NoError(t, err)

	cb, err := vm.compile("t.cs", src)
	require.NoError(t, err)

	out, err := vm.Call(cb, "add", []string{"2", "3"})
	require.NoError(t, err)
	require.Equal(t, "5", out)
}

func TestSetAndGetVariableRoundTrips(t *testing.T) {
	vm := New()
	vm.SetVariable("$Pref::speed", "88")
	require.Equal(t, "88", vm.GetVariable("$Pref::speed"))
}

func TestSetVariableIntFormatsAsPlainInteger(t *testing.T) {
	vm := New()
	vm.SetVariableInt("$count", 42)
	require.Equal(t, "42", vm.GetVariable("$count"))
}

func TestEnterPanicsOnReentryFromSecondGoroutine(t *testing.T) {
	vm := New()
	vm.enter()
	defer vm.leave()

	done := make(chan any, 1)
	go func() {
		defer func() { done <- recover() }()
		vm.enter()
	}()
	require.NotNil(t, <-done)
}
