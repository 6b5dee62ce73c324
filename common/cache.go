// Copyright 2018 The go-klaytn Authors
// This file is part of the go-klaytn library.
//
// The go-klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-klaytn library. If not, see <http://www.gnu.org/licenses/>.

package common

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/maybeTomorrow/gatekeeper/log"
)

var logger = log.NewModuleLogger(log.Common)

// SnapshotCache is a fixed-size LRU cache of per-worker query-path
// snapshots, keyed by WorkerPubkey. It sits behind the façade's
// WorkerState query so that a burst of RPC reads for the same
// worker within one block doesn't re-walk the worker map on every call;
// the façade invalidates the entry for a worker whenever it mutates that
// worker's state during process_messages.
//
// This generalizes klaytn's common.Cache (a generic LRU/ARC/shard
// abstraction over arbitrary CacheKeys) down to the one shape the
// Gatekeeper façade actually needs.
type SnapshotCache struct {
	lru *lru.Cache
}

// NewSnapshotCache builds a snapshot cache sized for size entries. A
// non-positive size disables caching (every lookup reports a miss).
func NewSnapshotCache(size int) *SnapshotCache {
	if size <= 0 {
		logger.Warn("snapshot cache disabled", "size", size)
		size = 1
	}
	c, err := lru.New(size)
	if err != nil {
		// lru.New only fails for size <= 0, already guarded above.
		logger.Error("failed to build snapshot cache", "err", err)
		return &SnapshotCache{}
	}
	return &SnapshotCache{lru: c}
}

func (c *SnapshotCache) Get(key WorkerPubkey) (interface{}, bool) {
	if c.lru == nil {
		return nil, false
	}
	return c.lru.Get(key)
}

func (c *SnapshotCache) Put(key WorkerPubkey, value interface{}) {
	if c.lru == nil {
		return
	}
	c.lru.Add(key, value)
}

func (c *SnapshotCache) Invalidate(key WorkerPubkey) {
	if c.lru == nil {
		return
	}
	c.lru.Remove(key)
}

func (c *SnapshotCache) Purge() {
	if c.lru == nil {
		return
	}
	c.lru.Purge()
}
