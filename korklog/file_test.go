// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package korklog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileConsumerOffWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "off.log")
	c := NewFileConsumer(path, FileOff)
	c.Consume(Record{Msg: "hello"})

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestFileConsumerAppendPerLineWritesImmediately(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "append.log")
	c := NewFileConsumer(path, FileAppendPerLine)

	c.Consume(Record{Msg: "one"})
	c.Consume(Record{Msg: "two", Depth: 1})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "one\n   two\n", string(data))
}

func TestFileConsumerKeepOpenAccumulates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keepopen.log")
	c := NewFileConsumer(path, FileKeepOpen)
	defer c.Close()

	c.Consume(Record{Msg: "a"})
	c.Consume(Record{Msg: "b"})
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "a\nb\n", string(data))
}

func TestSetModeClosesHandleWhenLeavingKeepOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "switch.log")
	c := NewFileConsumer(path, FileKeepOpen)
	c.Consume(Record{Msg: "a"})

	c.SetMode(FileOff)
	require.Nil(t, c.f)
}
