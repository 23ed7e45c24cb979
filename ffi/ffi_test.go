// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package ffi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/probechain/korkscript/intern"
	"github.com/probechain/korkscript/namespace"
	"github.com/probechain/korkscript/object"
)

func TestAddFunctionRoutesThroughNamespace(t *testing.T) {
	g := namespace.NewGlobal()
	ns := g.GlobalNamespace()

	var seen []string
	AddFunction(ns, FunctionDescriptor{
		Name:    "greet",
		MinArgs: 1,
		MaxArgs: 1,
		Callback: func(userPtr interface{}, argv []string) string {
			seen = argv
			return "hello " + argv[1]
		},
	})

	e, ok := g.Lookup(ns, "greet")
	require.True(t, ok)
	require.Equal(t, "hello world", e.Native([]string{"greet", "world"}))
	require.Equal(t, []string{"greet", "world"}, seen)
}

type hostVehicle struct {
	speed float64
}

func TestCreateInstanceRunsCreateAndProcessArgs(t *testing.T) {
	reg := object.NewRegistry(intern.New())
	bridge := NewBridge(reg)

	processed := false
	desc := ClassDescriptor{
		Name: "Vehicle",
		Create: func(class string, args []string) (interface{}, error) {
			return &hostVehicle{}, nil
		},
		ProcessArgs: func(host interface{}, obj *object.Object) error {
			processed = true
			host.(*hostVehicle).speed = 10
			return nil
		},
	}
	bridge.RegisterClass(desc)

	got, ok := bridge.LookupClass("Vehicle")
	require.True(t, ok)

	class := &object.Class{Name: "Vehicle"}
	inst, err := bridge.CreateInstance(got, "car1", class, nil, nil)
	require.NoError(t, err)
	require.True(t, processed)
	require.Equal(t, 10.0, inst.Host.(*hostVehicle).speed)
	require.NotZero(t, inst.Object.ID)

	found, ok := reg.FindByName("car1")
	require.True(t, ok)
	require.Same(t, inst.Object, found)
}

func TestCreateInstanceWithoutCreateHookFails(t *testing.T) {
	reg := object.NewRegistry(intern.New())
	bridge := NewBridge(reg)
	bridge.RegisterClass(ClassDescriptor{Name: "Broken"})

	desc, _ := bridge.LookupClass("Broken")
	_, err := bridge.CreateInstance(desc, "x", &object.Class{Name: "Broken"}, nil, nil)
	require.ErrorIs(t, err, ErrNoCreate)
}

func TestCheckArgsBounds(t *testing.T) {
	require.NoError(t, CheckArgs([]string{"fn", "a", "b"}, 1, 2))
	require.ErrorIs(t, CheckArgs([]string{"fn"}, 1, 2), ErrArgCount)
	require.ErrorIs(t, CheckArgs([]string{"fn", "a", "b", "c"}, 1, 2), ErrArgCount)
	require.NoError(t, CheckArgs([]string{"fn", "a", "b", "c"}, 1, -1))
}
