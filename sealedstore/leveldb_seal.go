// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package sealedstore provides concrete platform.Sealing implementations
// for the Gatekeeper's master key, in the style of klaytn's levelDB and
// badger database wrappers but trimmed to the single opaque blob the
// Gatekeeper actually persists — there is no block/state tree behind
// this, just the sealed key material.
package sealedstore

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/maybeTomorrow/gatekeeper/log"
)

var masterKeyRecordKey = []byte("gatekeeper/master_key")

// LevelSeal seals the master key in a goleveldb store.
type LevelSeal struct {
	fn  string
	db  *leveldb.DB
	log log.Logger
}

// NewLevelSeal opens (or creates) a goleveldb store at dir, recovering
// from corruption the same way klaytn's NewLDBDatabase does.
func NewLevelSeal(dir string) (*LevelSeal, error) {
	l := log.NewModuleLogger(log.Store)

	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if _, corrupted := err.(*ldberrors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(dir, nil)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "sealedstore: failed to open leveldb store at %s", dir)
	}
	return &LevelSeal{fn: dir, db: db, log: l}, nil
}

func (s *LevelSeal) Seal(data []byte) error {
	if err := s.db.Put(masterKeyRecordKey, data, nil); err != nil {
		s.log.Error("failed to seal master key", "dir", s.fn, "err", err)
		return err
	}
	return nil
}

func (s *LevelSeal) Unseal() ([]byte, bool, error) {
	data, err := s.db.Get(masterKeyRecordKey, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *LevelSeal) Close() error {
	return s.db.Close()
}
