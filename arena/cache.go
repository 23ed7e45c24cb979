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

package arena

import (
	"crypto/sha256"

	"github.com/VictoriaMetrics/fastcache"
)

// DefaultCompileCacheBytes bounds the compiled-source cache's memory use.
const DefaultCompileCacheBytes = 8 * 1024 * 1024

// CompileCache memoizes compiled CodeBlock bytes (see the compiler and kork
// packages) keyed by the SHA-256 of the source text, so Vm.Evaluate can skip
// recompilation of unchanged script text across repeated calls. Bounded and
// eviction-aware rather than an unbounded map, matching fastcache's role
// elsewhere in the stack for node-local caches.
type CompileCache struct {
	cache *fastcache.Cache
}

// NewCompileCache returns a cache bounded to maxBytes of memory. A maxBytes
// of 0 selects DefaultCompileCacheBytes.
func NewCompileCache(maxBytes int) *CompileCache {
	if maxBytes <= 0 {
		maxBytes = DefaultCompileCacheBytes
	}
	return &CompileCache{cache: fastcache.New(maxBytes)}
}

// key derives the cache key for a source string.
func key(source string) []byte {
	sum := sha256.Sum256([]byte(source))
	return sum[:]
}

// Get returns the cached compiled bytes for source, if present.
func (c *CompileCache) Get(source string) ([]byte, bool) {
	return c.cache.HasGet(nil, key(source))
}

// Set stores compiled for source, evicting older entries as needed.
func (c *CompileCache) Set(source string, compiled []byte) {
	c.cache.Set(key(source), compiled)
}

// Reset drops every cached entry.
func (c *CompileCache) Reset() {
	c.cache.Reset()
}
