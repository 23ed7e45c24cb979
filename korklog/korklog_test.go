// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package korklog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitFansOutToAllConsumers(t *testing.T) {
	d := NewDispatcher()
	var a, b []string
	d.AddConsumer(func(r Record) { a = append(a, r.Line()) })
	d.AddConsumer(func(r Record) { b = append(b, r.Line()) })

	d.Emit(Record{Level: Normal, Kind: General, Msg: "hello"})

	require.Equal(t, []string{"hello"}, a)
	require.Equal(t, []string{"hello"}, b)
}

func TestRemoveConsumerStopsDelivery(t *testing.T) {
	d := NewDispatcher()
	var got []string
	id := d.AddConsumer(func(r Record) { got = append(got, r.Line()) })

	d.Emit(Record{Msg: "first"})
	require.NoError(t, d.RemoveConsumer(id))
	d.Emit(Record{Msg: "second"})

	require.Equal(t, []string{"first"}, got)
	require.ErrorIs(t, d.RemoveConsumer(id), ErrNotRegistered)
}

func TestRingBufferIndentsByCallDepth(t *testing.T) {
	d := NewDispatcher()
	d.SetRingMode(RingEnabled)

	d.Emit(Record{Msg: "top"})
	d.Emit(Record{Msg: "nested", Depth: 2})

	lines := d.FlushRing()
	require.Equal(t, []string{"top", "      nested"}, lines)
	// Flushing clears the buffer.
	require.Empty(t, d.FlushRing())
}

func TestRingDisabledByDefault(t *testing.T) {
	d := NewDispatcher()
	d.Emit(Record{Msg: "silent to ring"})
	require.Empty(t, d.FlushRing())
}

func TestRecordLineFormatsArgs(t *testing.T) {
	r := Record{Msg: "count=%d name=%s", Args: []interface{}{3, "x"}}
	require.Equal(t, "count=3 name=x", r.Line())
}
