// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package object

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/probechain/korkscript/intern"
	"github.com/probechain/korkscript/value"
)

func pointsClass() *Class {
	return &Class{
		Name: "Marker",
		Fields: []FieldDesc{
			{Name: "points", Type: value.TypeNumber, ElementCount: 4},
		},
	}
}

// TestFieldArrayAccess exercises static field array get/set, including
// out-of-range rejection.
func TestFieldArrayAccess(t *testing.T) {
	reg := NewRegistry(intern.New())
	obj := NewObject(pointsClass())
	require.NoError(t, reg.Register(obj, "marker1", false))

	require.True(t, obj.SetFieldValue("points[2]", "7.5"))
	require.Equal(t, "7.5", obj.GetFieldValue("points[2]"))
	require.False(t, obj.SetFieldValue("points[9]", "0"))
}

// TestDeleteDataBlocksResetsCounters checks that wiping every datablock
// resets the DataBlock id generator, so the next datablock gets
// DataBlockFirst again.
func TestDeleteDataBlocksResetsCounters(t *testing.T) {
	reg := NewRegistry(intern.New())
	class := &Class{Name: "ShapeData"}

	for i := 0; i < 3; i++ {
		db := NewDataBlock(class)
		require.NoError(t, reg.Register(db, "", true))
	}
	reg.DeleteDataBlocks()

	_, found := reg.Find(DataBlockFirst)
	require.False(t, found)

	next := NewDataBlock(class)
	require.NoError(t, reg.Register(next, "", true))
	require.Equal(t, uint32(DataBlockFirst), next.ID)
}

// TestObjectIDStabilityAndNotify checks that an object's id stays stable
// across register/find and that delete-notify callbacks fire exactly once.
func TestObjectIDStabilityAndNotify(t *testing.T) {
	reg := NewRegistry(intern.New())
	obj := NewObject(&Class{Name: "Thing"})
	require.NoError(t, reg.Register(obj, "thing1", false))

	found, ok := reg.Find(obj.ID)
	require.True(t, ok)
	require.Same(t, obj, found)

	notified := false
	obj.NotifyOnDelete(func(*Object) { notified = true })

	reg.Delete(obj)
	require.True(t, notified)

	_, ok = reg.Find(obj.ID)
	require.False(t, ok)
}

func TestDynamicFieldUnsetOnEmptyUntyped(t *testing.T) {
	obj := NewObject(&Class{Name: "Thing"})
	obj.SetDynamicField("color", "red", 0, false)
	require.Equal(t, "red", obj.GetDynamicField("color"))

	obj.SetDynamicField("color", "", 0, false)
	require.Equal(t, "", obj.GetDynamicField("color"))
	require.Equal(t, 0, obj.DynamicFieldCount())
}
