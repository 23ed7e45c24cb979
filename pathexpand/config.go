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

package pathexpand

import (
	"bufio"
	"fmt"
	"os"
	"reflect"

	"github.com/naoina/toml"
)

// VMConfig holds the tuning knobs a VM reads once at startup. Field names
// match their TOML keys exactly (no case-folding, no renaming), the same
// convention the rest of the ecosystem's node configuration uses.
type VMConfig struct {
	MaxStackDepth int
	MaxFrameDepth int
	MaxArgs       int
	LogMode       string // "off", "append", or "keep-open"
	ArenaLimit    int    // bytes; 0 means unbounded
	Expandos      map[string]string
}

// DefaultVMConfig matches the compiled-in bounds used when no config file
// is supplied.
var DefaultVMConfig = VMConfig{
	MaxStackDepth: 16,
	MaxFrameDepth: 16,
	MaxArgs:       20,
	LogMode:       "keep-open",
	ArenaLimit:    0,
}

var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// LoadVMConfig reads a TOML file into a copy of DefaultVMConfig, so any
// field the file omits keeps its compiled-in default.
func LoadVMConfig(file string) (VMConfig, error) {
	cfg := DefaultVMConfig
	f, err := os.Open(file)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg)
	if _, ok := err.(*toml.LineError); ok {
		err = fmt.Errorf("%s, %w", file, err)
	}
	return cfg, err
}

// NewTableFromConfig builds a Table pre-populated with cfg's expandos.
func NewTableFromConfig(cfg VMConfig) *Table {
	t := NewTable()
	for name, dir := range cfg.Expandos {
		t.SetExpando(name, dir)
	}
	return t
}
