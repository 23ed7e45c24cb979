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

package value

// Resolver turns a non-packed Value into the raw bytes backing it. Each zone
// (heap/func/global) is served by a different subsystem (arena, fiber,
// object), so Resolvers just dispatches by Zone to whichever resolver
// function that subsystem registered. A missing or torn-down zone/fiber
// resolves to (nil, false): resolution never panics and never logs.
type ResolveFunc func(v Value) (data []byte, ok bool)

// Resolvers fans Value resolution out to per-zone backends. A VM owns
// exactly one Resolvers instance and registers its arena/fiber/object
// registries against it during construction.
type Resolvers struct {
	byZone [4]ResolveFunc
}

// NewResolvers returns an empty dispatcher; every zone resolves to (nil,
// false) until a backend registers itself with Register.
func NewResolvers() *Resolvers {
	return &Resolvers{}
}

// Register installs fn as the resolver for zone z, replacing any previous
// registration.
func (r *Resolvers) Register(z Zone, fn ResolveFunc) {
	r.byZone[z] = fn
}

// Resolve dispatches v to its zone's registered resolver. Packed values
// resolve to nil, true with no backend involved (the payload IS the value).
func (r *Resolvers) Resolve(v Value) ([]byte, bool) {
	if v.Zone == ZonePacked {
		return nil, true
	}
	fn := r.byZone[v.Zone]
	if fn == nil {
		return nil, false
	}
	return fn(v)
}
