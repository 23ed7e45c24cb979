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

package fiber

import (
	"encoding/binary"
	"errors"
)

// DumpVersion is written at the head of every dumped blob; RestoreFiberState
// rejects blobs from a different version outright rather than guess at a
// compatible layout.
const DumpVersion = 1

// ErrVersionMismatch is returned by RestoreFiberState for a blob written by
// a different DumpVersion.
var ErrVersionMismatch = errors.New("fiber: dump version mismatch")

// ErrMalformedDump is returned for a blob that is truncated or otherwise
// not shaped like one DumpFiberState produced.
var ErrMalformedDump = errors.New("fiber: malformed dump")

// SnapshotFunc captures the execution state a fiber needs to resume
// identically after a round trip — bytecode IP, scope chain, stack
// buffer, local-var slots. fiber itself has no notion of any of these; it
// is supplied by whatever owns the fiber's Body (interp), attached via
// Fiber.SetSnapshotHooks.
type SnapshotFunc func() ([]byte, error)

// RestoreFunc is SnapshotFunc's inverse, attached via Fiber.SetSnapshotHooks.
type RestoreFunc func([]byte) error

// SetSnapshotHooks lets the owner of a fiber's Body (interp) plug in
// the actual execution-state encoding; fiber only frames per-fiber blobs
// with an id and length so many fibers can be dumped/restored in one call.
func (f *Fiber) SetSnapshotHooks(snap SnapshotFunc, restore RestoreFunc) {
	f.onSnapshot = snap
	f.onRestore = restore
}

// DumpFiberState serializes the named fibers' execution state into one
// versioned blob, in the order given. A fiber with no snapshot hook
// attached dumps as a zero-length payload.
func (m *Manager) DumpFiberState(ids []ID) ([]byte, error) {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, DumpVersion)

	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(ids)))
	out = append(out, countBuf[:]...)

	for _, id := range ids {
		f, ok := m.Lookup(id)
		if !ok {
			return nil, ErrUnknownFiber
		}
		var payload []byte
		if f.onSnapshot != nil {
			p, err := f.onSnapshot()
			if err != nil {
				return nil, err
			}
			payload = p
		}
		var idBuf [8]byte
		binary.LittleEndian.PutUint64(idBuf[:], uint64(id))
		out = append(out, idBuf[:]...)

		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
		out = append(out, lenBuf[:]...)
		out = append(out, payload...)
	}
	return out, nil
}

// RestoreFiberState reverses DumpFiberState: for every fiber id present in
// blob, if that fiber is still known to m, its onRestore hook (if any) is
// invoked with the matching payload. Returns the ids found in the blob, in
// order, whether or not each one still exists in m.
func (m *Manager) RestoreFiberState(blob []byte) ([]ID, error) {
	if len(blob) < 8 {
		return nil, ErrMalformedDump
	}
	version := binary.LittleEndian.Uint32(blob[0:4])
	if version != DumpVersion {
		return nil, ErrVersionMismatch
	}
	count := binary.LittleEndian.Uint32(blob[4:8])
	pos := 8

	ids := make([]ID, 0, count)
	for i := uint32(0); i < count; i++ {
		if pos+12 > len(blob) {
			return nil, ErrMalformedDump
		}
		id := ID(binary.LittleEndian.Uint64(blob[pos : pos+8]))
		pos += 8
		plen := int(binary.LittleEndian.Uint32(blob[pos : pos+4]))
		pos += 4
		if pos+plen > len(blob) {
			return nil, ErrMalformedDump
		}
		payload := blob[pos : pos+plen]
		pos += plen

		ids = append(ids, id)
		if f, ok := m.Lookup(id); ok && f.onRestore != nil && plen > 0 {
			if err := f.onRestore(payload); err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}
