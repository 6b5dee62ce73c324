package gatekeeper

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/curve25519"

	"github.com/maybeTomorrow/gatekeeper/common"
	"github.com/maybeTomorrow/gatekeeper/cryptoutil"
	"github.com/maybeTomorrow/gatekeeper/fixedpoint"
	"github.com/maybeTomorrow/gatekeeper/messaging"
	"github.com/maybeTomorrow/gatekeeper/workerstate"
)

const blockMs = uint64(12000)

func blockTs(n uint32) uint64 { return uint64(n) * blockMs }

type recordingEgress struct {
	updates []*messaging.MiningInfoUpdateEvent
	randoms []messaging.OutboundRandomNumber
	keys    []messaging.MasterKeyDistribution
}

func (r *recordingEgress) PushMiningInfoUpdate(ev *messaging.MiningInfoUpdateEvent) {
	r.updates = append(r.updates, ev)
}
func (r *recordingEgress) PushRandomNumber(ev messaging.OutboundRandomNumber) {
	r.randoms = append(r.randoms, ev)
}
func (r *recordingEgress) PushKeyDistribution(ev messaging.MasterKeyDistribution) {
	r.keys = append(r.keys, ev)
}

func newTestGatekeeper(t *testing.T) (*State, *recordingEgress) {
	t.Helper()
	mk := cryptoutil.NewMasterKey([32]byte{1, 2, 3, 4})
	sink := &recordingEgress{}
	s := New(mk, messaging.NewDispatcher(), sink)
	s.MasterPubkeyUploaded()
	s.RegisterOnChain()
	return s, sink
}

func registerAndStartMining(s *State, pk common.WorkerPubkey, block uint32, nowMs uint64, confidence uint8, session uint32, v, p uint64) {
	s.dispatcher.DispatchSystem(messaging.SystemMessage{
		Origin: messaging.FromPallet(),
		Event: messaging.SystemEvent{
			Kind:         messaging.SystemEventWorkerEvent,
			WorkerPubkey: pk,
			WorkerEvent:  workerstate.WorkerEvent{Kind: workerstate.EventRegistered, ConfidenceLevel: confidence},
		},
	})
	s.ProcessMessages(block, nowMs)

	s.dispatcher.DispatchSystem(messaging.SystemMessage{
		Origin: messaging.FromPallet(),
		Event: messaging.SystemEvent{
			Kind:         messaging.SystemEventWorkerEvent,
			WorkerPubkey: pk,
			WorkerEvent: workerstate.WorkerEvent{
				Kind:      workerstate.EventMiningStart,
				SessionID: session,
				InitV:     fixedpoint.FromUint64(v).Bits(),
				InitP:     p,
			},
		},
	})
	s.ProcessMessages(block+1, nowMs+blockMs)
}

func issueChallengeToAll(s *State, block uint32, nowMs uint64) {
	s.dispatcher.DispatchSystem(messaging.SystemMessage{
		Origin: messaging.FromPallet(),
		Event: messaging.SystemEvent{
			Kind:         messaging.SystemEventHeartbeatChallenge,
			Seed:         uint256.NewInt(0),
			OnlineTarget: new(uint256.Int).SetAllOne(),
		},
	})
	s.ProcessMessages(block, nowMs)
}

func TestS1NormalIdleReward(t *testing.T) {
	s, sink := newTestGatekeeper(t)
	pk := common.WorkerPubkey{1}

	registerAndStartMining(s, pk, 1, blockTs(1), 2, 1, 1000, 100)
	snap, ok := s.WorkerState(pk)
	assert.True(t, ok)
	before := snap.Tokenomic.V

	s.ProcessMessages(3, blockTs(3))

	after, ok := s.WorkerState(pk)
	assert.True(t, ok)
	assert.True(t, after.Tokenomic.V.GreaterThan(before), "idle mining must strictly increase v")
	assert.Empty(t, sink.updates, "no heartbeat activity must mean no egress")
}

func TestS2PayoutOnHeartbeat(t *testing.T) {
	s, sink := newTestGatekeeper(t)
	pk := common.WorkerPubkey{2}

	registerAndStartMining(s, pk, 1, blockTs(1), 2, 1, 1000, 100)
	issueChallengeToAll(s, 2, blockTs(2))

	window := s.tokenomicParams.HeartbeatWindow
	dueBlock := uint32(2) + window

	for b := uint32(3); b < dueBlock; b++ {
		s.ProcessMessages(b, blockTs(b))
	}

	before, ok := s.WorkerState(pk)
	assert.True(t, ok)

	s.dispatcher.DispatchMining(messaging.MiningReport{
		Origin: messaging.FromWorker(pk),
		Heartbeat: messaging.Heartbeat{
			SessionID:      1,
			ChallengeBlock: 2,
			ChallengeTime:  blockTs(dueBlock),
			Iterations:     10_000_000,
		},
	})
	s.ProcessMessages(dueBlock, blockTs(dueBlock))

	assert.Len(t, sink.updates, 1)
	ev := sink.updates[0]
	assert.Len(t, ev.Settle, 1)
	assert.Empty(t, ev.Offline)
	assert.Empty(t, ev.RecoveredToOnline)

	after, ok := s.WorkerState(pk)
	assert.True(t, ok)
	assert.True(t, after.Tokenomic.V.LessThan(before.Tokenomic.V), "a payout must strictly decrease v")
}

func TestS3OfflineDetection(t *testing.T) {
	s, sink := newTestGatekeeper(t)
	pk := common.WorkerPubkey{3}

	registerAndStartMining(s, pk, 1, blockTs(1), 2, 1, 1000, 100)
	issueChallengeToAll(s, 2, blockTs(2))

	window := s.tokenomicParams.HeartbeatWindow
	timeoutBlock := uint32(2) + window + 1

	for b := uint32(3); b < timeoutBlock; b++ {
		s.ProcessMessages(b, blockTs(b))
	}
	before, ok := s.WorkerState(pk)
	assert.True(t, ok)

	s.ProcessMessages(timeoutBlock, blockTs(timeoutBlock))

	assert.Len(t, sink.updates, 1)
	ev := sink.updates[0]
	assert.Equal(t, []common.WorkerPubkey{pk}, ev.Offline)
	assert.Empty(t, ev.Settle)

	snap, ok := s.WorkerState(pk)
	assert.True(t, ok)
	assert.True(t, snap.Unresponsive)
	assert.True(t, snap.Tokenomic.V.LessThan(before.Tokenomic.V), "the slash block itself must strictly reduce v relative to the block right before it")
}

func TestS4SilentSlashing(t *testing.T) {
	s, sink := newTestGatekeeper(t)
	pk := common.WorkerPubkey{4}

	registerAndStartMining(s, pk, 1, blockTs(1), 2, 1, 1000, 100)
	issueChallengeToAll(s, 2, blockTs(2))

	window := s.tokenomicParams.HeartbeatWindow
	timeoutBlock := uint32(2) + window + 1
	for b := uint32(3); b <= timeoutBlock; b++ {
		s.ProcessMessages(b, blockTs(b))
	}
	assert.Len(t, sink.updates, 1, "precondition: worker must already be marked offline")

	before, ok := s.WorkerState(pk)
	assert.True(t, ok)

	s.ProcessMessages(timeoutBlock+1, blockTs(timeoutBlock+1))

	assert.Len(t, sink.updates, 1, "continued silence must not emit a new egress")
	after, ok := s.WorkerState(pk)
	assert.True(t, ok)
	assert.True(t, after.Tokenomic.V.LessThan(before.Tokenomic.V), "v must keep strictly decreasing while silently slashed")
}

func TestS5Recovery(t *testing.T) {
	s, sink := newTestGatekeeper(t)
	pk := common.WorkerPubkey{5}

	registerAndStartMining(s, pk, 1, blockTs(1), 2, 1, 1000, 100)
	issueChallengeToAll(s, 2, blockTs(2))

	window := s.tokenomicParams.HeartbeatWindow
	timeoutBlock := uint32(2) + window + 1
	for b := uint32(3); b <= timeoutBlock; b++ {
		s.ProcessMessages(b, blockTs(b))
	}

	recoverBlock := timeoutBlock + 1
	s.dispatcher.DispatchMining(messaging.MiningReport{
		Origin: messaging.FromWorker(pk),
		Heartbeat: messaging.Heartbeat{
			SessionID:      1,
			ChallengeBlock: 2,
			ChallengeTime:  blockTs(recoverBlock),
			Iterations:     1,
		},
	})
	s.ProcessMessages(recoverBlock, blockTs(recoverBlock))

	assert.Len(t, sink.updates, 2)
	ev := sink.updates[1]
	assert.Equal(t, []common.WorkerPubkey{pk}, ev.RecoveredToOnline)
	assert.Empty(t, ev.Settle, "no case-2 payout on the recovery block itself")

	snap, ok := s.WorkerState(pk)
	assert.True(t, ok)
	assert.False(t, snap.Unresponsive)
}

func TestVNeverExceedsVMax(t *testing.T) {
	s, _ := newTestGatekeeper(t)
	pk := common.WorkerPubkey{6}

	registerAndStartMining(s, pk, 1, blockTs(1), 2, 1, 30000, 3000)

	for b := uint32(3); b < 200; b++ {
		s.ProcessMessages(b, blockTs(b))
	}

	snap, ok := s.WorkerState(pk)
	assert.True(t, ok)
	assert.True(t, snap.Tokenomic.V.Cmp(s.tokenomicParams.VMax) <= 0)
}

func TestAtMostOneEgressPerProcessMessagesCall(t *testing.T) {
	s, sink := newTestGatekeeper(t)
	pk1 := common.WorkerPubkey{7}
	pk2 := common.WorkerPubkey{8}

	registerAndStartMining(s, pk1, 1, blockTs(1), 2, 1, 1000, 100)
	registerAndStartMining(s, pk2, 1, blockTs(1), 2, 1, 1000, 100)
	issueChallengeToAll(s, 2, blockTs(2))

	window := s.tokenomicParams.HeartbeatWindow
	timeoutBlock := uint32(2) + window + 1

	for b := uint32(3); b <= timeoutBlock; b++ {
		s.ProcessMessages(b, blockTs(b))
	}

	// Both workers go offline in the same block: still one egress message.
	offlineUpdates := 0
	for _, ev := range sink.updates {
		if len(ev.Offline) > 0 {
			offlineUpdates++
		}
	}
	assert.Equal(t, 1, offlineUpdates)
}

func TestHeartbeatChallengeBlockMismatchPoisons(t *testing.T) {
	s, _ := newTestGatekeeper(t)
	pk := common.WorkerPubkey{9}
	registerAndStartMining(s, pk, 1, blockTs(1), 2, 1, 1000, 100)
	issueChallengeToAll(s, 2, blockTs(2))

	s.dispatcher.DispatchMining(messaging.MiningReport{
		Origin: messaging.FromWorker(pk),
		Heartbeat: messaging.Heartbeat{
			SessionID:      1,
			ChallengeBlock: 999, // does not match the front of waiting_heartbeats
			ChallengeTime:  blockTs(3),
			Iterations:     1,
		},
	})

	assert.Panics(t, func() {
		s.ProcessMessages(3, blockTs(3))
	}, "a challenge_block mismatch must poison the process")
}

func TestStaleSessionHeartbeatNeverChangesTokenomicState(t *testing.T) {
	s, _ := newTestGatekeeper(t)
	pk := common.WorkerPubkey{10}
	registerAndStartMining(s, pk, 1, blockTs(1), 2, 1, 1000, 100)
	issueChallengeToAll(s, 2, blockTs(2))

	// MiningStop then MiningStart again with a new session_id, so the
	// pending challenge now belongs to a stale session.
	s.dispatcher.DispatchSystem(messaging.SystemMessage{
		Origin: messaging.FromPallet(),
		Event: messaging.SystemEvent{
			Kind:         messaging.SystemEventWorkerEvent,
			WorkerPubkey: pk,
			WorkerEvent:  workerstate.WorkerEvent{Kind: workerstate.EventMiningStop},
		},
	})
	s.ProcessMessages(3, blockTs(3))
	s.dispatcher.DispatchSystem(messaging.SystemMessage{
		Origin: messaging.FromPallet(),
		Event: messaging.SystemEvent{
			Kind:         messaging.SystemEventWorkerEvent,
			WorkerPubkey: pk,
			WorkerEvent: workerstate.WorkerEvent{
				Kind: workerstate.EventMiningStart, SessionID: 2,
				InitV: fixedpoint.FromUint64(500).Bits(), InitP: 50,
			},
		},
	})
	s.ProcessMessages(4, blockTs(4))

	s.dispatcher.DispatchMining(messaging.MiningReport{
		Origin: messaging.FromWorker(pk),
		Heartbeat: messaging.Heartbeat{
			SessionID:      1, // stale
			ChallengeBlock: 2,
			ChallengeTime:  blockTs(5),
			Iterations:     999999,
		},
	})
	s.ProcessMessages(5, blockTs(5))

	after, ok := s.WorkerState(pk)
	assert.True(t, ok)
	assert.False(t, after.HeartbeatFlag, "a stale-session heartbeat must not count as responsive this block")
	assert.Equal(t, uint32(0), after.Tokenomic.TotalPayoutCount, "a stale-session heartbeat must never trigger a payout")
	assert.True(t, after.Tokenomic.LastPayout.IsZero())
}

func TestDeterminismAcrossTwoIndependentInstances(t *testing.T) {
	run := func() []*messaging.MiningInfoUpdateEvent {
		s, sink := newTestGatekeeper(t)
		pk := common.WorkerPubkey{11}
		registerAndStartMining(s, pk, 1, blockTs(1), 2, 1, 1000, 100)
		issueChallengeToAll(s, 2, blockTs(2))
		window := s.tokenomicParams.HeartbeatWindow
		dueBlock := uint32(2) + window
		for b := uint32(3); b < dueBlock; b++ {
			s.ProcessMessages(b, blockTs(b))
		}
		s.dispatcher.DispatchMining(messaging.MiningReport{
			Origin: messaging.FromWorker(pk),
			Heartbeat: messaging.Heartbeat{
				SessionID: 1, ChallengeBlock: 2, ChallengeTime: blockTs(dueBlock), Iterations: 1000,
			},
		})
		s.ProcessMessages(dueBlock, blockTs(dueBlock))
		return sink.updates
	}

	a := run()
	b := run()
	assert.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Encode(), b[i].Encode(), "two independent instances given identical inputs must produce byte-identical egress")
	}
}

func TestShareMasterKeyPushesOneKeyDistributionPerCall(t *testing.T) {
	s, sink := newTestGatekeeper(t)

	workerPriv := [32]byte{7}
	workerPubBytes, err := curve25519.X25519(workerPriv[:], curve25519.Basepoint)
	assert.NoError(t, err)
	var workerEcdh common.EcdhPubkey
	copy(workerEcdh[:], workerPubBytes)

	err = s.ShareMasterKey(common.WorkerPubkey{42}, workerEcdh, 1)
	assert.NoError(t, err)
	assert.Len(t, sink.keys, 1)
	assert.Equal(t, common.WorkerPubkey{42}, sink.keys[0].Target)

	err = s.ShareMasterKey(common.WorkerPubkey{42}, workerEcdh, 2)
	assert.NoError(t, err)
	assert.Len(t, sink.keys, 2)
	assert.NotEqual(t, sink.keys[0].IV, sink.keys[1].IV, "distinct calls must never reuse an IV")
}
