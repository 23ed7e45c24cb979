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

// Package fiberstore is an optional persistence backend for dumped fiber
// blobs (fiber.Manager.DumpFiberState), keyed by a session uuid so a host
// can park suspended fibers across a process restart.
package fiberstore

import (
	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// Store wraps a goleveldb handle, keying every record by a session uuid.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if absent) a leveldb database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenMem opens an in-memory store, used by tests that don't want to touch
// disk.
func OpenMem() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put persists blob under session, overwriting any previous blob for the
// same session.
func (s *Store) Put(session uuid.UUID, blob []byte) error {
	return s.db.Put(session[:], blob, nil)
}

// Get retrieves the blob stored under session, if any.
func (s *Store) Get(session uuid.UUID) ([]byte, bool, error) {
	blob, err := s.db.Get(session[:], nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return blob, true, nil
}

// Delete removes session's stored blob, if any. Deleting an absent key is
// not an error.
func (s *Store) Delete(session uuid.UUID) error {
	return s.db.Delete(session[:], nil)
}

// Sessions returns every session uuid currently stored.
func (s *Store) Sessions() ([]uuid.UUID, error) {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	var out []uuid.UUID
	for iter.Next() {
		id, err := uuid.FromBytes(iter.Key())
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, iter.Error()
}
