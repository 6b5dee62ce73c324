// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

package sealedstore

import (
	"os"

	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"

	"github.com/maybeTomorrow/gatekeeper/log"
)

// BadgerSeal seals the master key in a badger store, adapted from
// klaytn's badgerDB wrapper down to the single-key shape this
// collaborator needs.
type BadgerSeal struct {
	fn  string
	db  *badger.DB
	log log.Logger
}

func NewBadgerSeal(dir string) (*BadgerSeal, error) {
	l := log.NewModuleLogger(log.Store)

	if fi, err := os.Stat(dir); err == nil {
		if !fi.IsDir() {
			return nil, errors.Errorf("sealedstore: %s is not a directory", dir)
		}
	} else if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "sealedstore: failed to create %s", dir)
		}
	} else {
		return nil, errors.WithStack(err)
	}

	opts := badger.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "sealedstore: failed to open badger store at %s", dir)
	}
	return &BadgerSeal{fn: dir, db: db, log: l}, nil
}

func (s *BadgerSeal) Seal(data []byte) error {
	txn := s.db.NewTransaction(true)
	defer txn.Discard()
	if err := txn.Set(masterKeyRecordKey, data); err != nil {
		s.log.Error("failed to seal master key", "dir", s.fn, "err", err)
		return err
	}
	return txn.Commit(nil)
}

func (s *BadgerSeal) Unseal() ([]byte, bool, error) {
	txn := s.db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get(masterKeyRecordKey)
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	value, err := item.Value()
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *BadgerSeal) Close() error {
	return s.db.Close()
}
