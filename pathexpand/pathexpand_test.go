// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package pathexpand

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandExpandoForm(t *testing.T) {
	tbl := NewTable()
	tbl.SetExpando("game", "/opt/game")

	require.Equal(t, "/opt/game/scripts/main.cs", tbl.Expand("^game/scripts/main.cs", "/anything"))
	// Unknown expando names pass through unchanged.
	require.Equal(t, "^missing/x.cs", tbl.Expand("^missing/x.cs", "/anything"))
}

func TestExpandHomeForm(t *testing.T) {
	tbl := NewTable()
	tbl.SetExpando("~", "/home/player")
	require.Equal(t, "/home/player/saves/slot1.bin", tbl.Expand("~/saves/slot1.bin", "/anything"))
}

func TestExpandRelativeForms(t *testing.T) {
	tbl := NewTable()
	require.Equal(t, "/game/scripts/util.cs", tbl.Expand("./util.cs", "/game/scripts"))
	require.Equal(t, "/game/util.cs", tbl.Expand("../util.cs", "/game/scripts"))
}

func TestExpandLeavesAbsolutePathsAlone(t *testing.T) {
	tbl := NewTable()
	require.Equal(t, "/usr/local/data.cs", tbl.Expand("/usr/local/data.cs", "/game/scripts"))
}

func TestLoadVMConfigAppliesDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "kork.toml")
	require.NoError(t, os.WriteFile(file, []byte("MaxArgs = 32\nLogMode = \"off\"\n"), 0o644))

	cfg, err := LoadVMConfig(file)
	require.NoError(t, err)
	require.Equal(t, 32, cfg.MaxArgs)
	require.Equal(t, "off", cfg.LogMode)
	require.Equal(t, DefaultVMConfig.MaxStackDepth, cfg.MaxStackDepth)
}
