package gatekeeper

import (
	"github.com/maybeTomorrow/gatekeeper/common"
	"github.com/maybeTomorrow/gatekeeper/tokenomic"
)

// WorkerStateSnapshot is the query-only view returned to the RPC
// front-end.
type WorkerStateSnapshot struct {
	Pubkey            common.WorkerPubkey
	Registered        bool
	Mining            bool
	Unresponsive      bool
	HeartbeatFlag     bool
	WaitingHeartbeats []uint32
	Tokenomic         tokenomic.Info
}

// WorkerState returns a snapshot of one worker's current state, serving
// cached entries from the façade's LRU snapshot cache where possible
// (common.SnapshotCache, invalidated by the processor on every mutation).
func (s *State) WorkerState(pubkey common.WorkerPubkey) (WorkerStateSnapshot, bool) {
	if cached, ok := s.snapshotCache.Get(pubkey); ok {
		return cached.(WorkerStateSnapshot), true
	}

	w, ok := s.workers[pubkey]
	if !ok {
		return WorkerStateSnapshot{}, false
	}

	snap := WorkerStateSnapshot{
		Pubkey:            pubkey,
		Registered:        w.Registered,
		Mining:            w.Mining != nil,
		Unresponsive:      w.Unresponsive,
		HeartbeatFlag:     w.HeartbeatFlag,
		WaitingHeartbeats: append([]uint32(nil), w.WaitingHeartbeats...),
		Tokenomic:         w.Tokenomic,
	}
	s.snapshotCache.Put(pubkey, snap)
	return snap, true
}
