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

package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/korkscript/interp"
	"github.com/probechain/korkscript/kork"
)

var buildCommand = cli.Command{
	Name:      "build",
	Usage:     "compile many source files concurrently and report errors",
	ArgsUsage: "<file.cs> [file.cs...]",
	Action:    runBuild,
}

func runBuild(ctx *cli.Context) error {
	paths := []string(ctx.Args())
	if len(paths) == 0 {
		return exit("usage: kork build <file.cs> [file.cs...]")
	}

	results := make(map[string]*interp.CodeBlock, len(paths))
	var mu sync.Mutex

	// Each file gets its own Vm: Vm.compile never touches shared interpreter
	// state, but Vm.enter's reentrancy guard forbids a second goroutine
	// entering the same Vm concurrently, so running N files through one Vm
	// here would defeat the very concurrency this command exists to exercise.
	g, gctx := errgroup.WithContext(context.Background())
	for _, path := range paths {
		path := path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			source, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			cb, err := kork.New().Compile(path, string(source))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			mu.Lock()
			results[path] = cb
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return exit("%v", err)
	}

	ok := make([]string, 0, len(results))
	for path := range results {
		ok = append(ok, path)
	}
	sort.Strings(ok)
	for _, path := range ok {
		fmt.Printf("%s: ok (%d functions, %d bytes)\n", path, len(results[path].Functions), len(results[path].Code))
	}
	return nil
}
