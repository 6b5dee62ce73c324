// Package workerstate implements the per-worker sub-state machine: registration, optional benchmarking, mining sessions, and the
// pending heartbeat-challenge queue that backs liveness tracking. It is
// grounded on gk.rs's WorkerInfo/WorkerSMTracker, translated from the
// phala pallet's on-chain sub-state machine into a plain Go value type
// driven by events replayed from the message processor.
package workerstate

import (
	"golang.org/x/crypto/blake2b"

	"github.com/holiman/uint256"

	"github.com/maybeTomorrow/gatekeeper/common"
	"github.com/maybeTomorrow/gatekeeper/fixedpoint"
	"github.com/maybeTomorrow/gatekeeper/tokenomic"
)

// MiningPhase is the Mining/Paused sub-state of an active session.
type MiningPhase uint8

const (
	PhaseMining MiningPhase = iota
	PhasePaused
)

// BenchState tracks an in-progress benchmark run.
type BenchState struct {
	StartBlock uint32
	StartTime  uint64
}

// MiningState tracks an active mining session.
type MiningState struct {
	SessionID uint32
	StartTime uint64
	Phase     MiningPhase
}

// ResponsiveTransition records the most recent EnterUnresponsive /
// ExitUnresponsive edge and the block it happened at, for RPC telemetry.
type ResponsiveTransition struct {
	EnteredUnresponsive bool
	AtBlock             uint32
	Valid               bool
}

// WorkerEventKind tags the variant of a SystemEvent::WorkerEvent payload.
type WorkerEventKind uint8

const (
	EventRegistered WorkerEventKind = iota
	EventBenchStart
	EventBenchScore
	EventMiningStart
	EventMiningStop
	EventMiningEnterUnresponsive
	EventMiningExitUnresponsive
)

// WorkerEvent is the pallet-signed payload replayed onto every worker's
// sub-state machine during system-event drain.
type WorkerEvent struct {
	Kind WorkerEventKind

	// Registered
	ConfidenceLevel uint8

	// BenchStart
	BenchStartBlock uint32
	BenchStartTime  uint64

	// BenchScore
	Score uint64

	// MiningStart
	SessionID uint32
	InitV     [16]byte // raw Q64.64 bit pattern
	InitP     uint64
}

// Info is one worker's full off-chain record: sub-state machine, pending
// challenge queue, liveness telemetry, and its tokenomic.Info.
type Info struct {
	Pubkey common.WorkerPubkey

	Registered bool
	Bench      *BenchState
	Mining     *MiningState

	// WaitingHeartbeats is strictly ascending; front() is the oldest
	// outstanding challenge.
	WaitingHeartbeats []uint32

	Unresponsive  bool
	HeartbeatFlag bool

	LastHeartbeatForBlock uint32
	LastHeartbeatAtBlock  uint32

	LastResponsiveTransition ResponsiveTransition

	Tokenomic tokenomic.Info
}

// New creates a freshly-registered worker entry.
func New(pubkey common.WorkerPubkey) *Info {
	return &Info{Pubkey: pubkey}
}

// PushChallenge records a newly-issued heartbeat challenge at block. The
// caller (HeartbeatChallenge handling) is responsible for only calling
// this for workers selected by Selected below; PushChallenge itself
// only enforces the strictly-ascending invariant.
func (w *Info) PushChallenge(block uint32) {
	n := len(w.WaitingHeartbeats)
	if n > 0 && w.WaitingHeartbeats[n-1] >= block {
		return
	}
	w.WaitingHeartbeats = append(w.WaitingHeartbeats, block)
}

// FrontChallenge returns the oldest outstanding challenge block, if any.
func (w *Info) FrontChallenge() (uint32, bool) {
	if len(w.WaitingHeartbeats) == 0 {
		return 0, false
	}
	return w.WaitingHeartbeats[0], true
}

// PopChallenge removes the oldest outstanding challenge. Callers must
// have already verified it matches the heartbeat's challenge_block;
// mismatches are a poisoning fault handled by the message processor, not
// by this type.
func (w *Info) PopChallenge() {
	if len(w.WaitingHeartbeats) == 0 {
		return
	}
	w.WaitingHeartbeats = w.WaitingHeartbeats[1:]
}

// ApplyEvent replays a WorkerEvent onto this worker's sub-state machine.
func (w *Info) ApplyEvent(ev WorkerEvent, block uint32, nowMs uint64) {
	switch ev.Kind {
	case EventRegistered:
		w.Registered = true
		w.Tokenomic.ConfidenceLevel = ev.ConfidenceLevel

	case EventBenchStart:
		w.Bench = &BenchState{StartBlock: ev.BenchStartBlock, StartTime: ev.BenchStartTime}

	case EventBenchScore:
		w.Tokenomic.PBench = fixedpoint.FromUint64(ev.Score)
		w.Bench = nil

	case EventMiningStart:
		initV := fixedpoint.FromBits(ev.InitV)
		initP := fixedpoint.FromUint64(ev.InitP)
		w.Mining = &MiningState{SessionID: ev.SessionID, StartTime: nowMs, Phase: PhaseMining}
		w.Unresponsive = false
		w.Tokenomic.Reset(initV, initP, nowMs, block)
		// WaitingHeartbeats deliberately untouched: challenges straddling
		// sessions must still resolve.

	case EventMiningStop:
		w.Mining = nil

	case EventMiningEnterUnresponsive:
		w.LastResponsiveTransition = ResponsiveTransition{EnteredUnresponsive: true, AtBlock: block, Valid: true}

	case EventMiningExitUnresponsive:
		w.LastResponsiveTransition = ResponsiveTransition{EnteredUnresponsive: false, AtBlock: block, Valid: true}
	}
}

// OnBlockProcessed is the post-block hook. It changes no state: an
// in-progress benchmark is not advanced or timed out here and ends only
// when a BenchScore event arrives. Challenge injection from
// HeartbeatChallenge events happens during system-event drain, via
// PushChallenge, not here.
func (w *Info) OnBlockProcessed(block uint32) {
	_ = block
}

// Selected reports whether this worker is chosen by a HeartbeatChallenge
// with the given seed and online_target:
// blake2_256(pubkey) XOR seed < online_target, interpreted as U256.
func Selected(pubkey common.WorkerPubkey, seed, onlineTarget *uint256.Int) bool {
	digest := blake2b.Sum256(pubkey[:])
	x := new(uint256.Int).SetBytes(digest[:])
	x.Xor(x, seed)
	return x.Lt(onlineTarget)
}
