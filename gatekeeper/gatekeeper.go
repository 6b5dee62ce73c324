// Package gatekeeper implements the façade and message processor that
// tie the other packages together into the Gatekeeper core. It is the one package allowed to mutate the worker map;
// every other package operates on values it is handed.
package gatekeeper

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/maybeTomorrow/gatekeeper/common"
	"github.com/maybeTomorrow/gatekeeper/cryptoutil"
	"github.com/maybeTomorrow/gatekeeper/log"
	"github.com/maybeTomorrow/gatekeeper/messaging"
	"github.com/maybeTomorrow/gatekeeper/randomness"
	"github.com/maybeTomorrow/gatekeeper/tokenomic"
	"github.com/maybeTomorrow/gatekeeper/workerstate"
)

// State is the Gatekeeper façade.
// All public methods are expected to be serialised by the surrounding
// host: State holds no locks and performs no internal
// concurrency.
type State struct {
	masterKey  cryptoutil.MasterKey
	dispatcher *messaging.Dispatcher
	egress     *messaging.DummyEgress

	workers map[common.WorkerPubkey]*workerstate.Info

	masterPubkeyOnChain bool
	registeredOnChain   bool

	lastRandomNumber [32]byte
	ivSeq            uint64

	tokenomicParams tokenomic.Params

	snapshotCache *common.SnapshotCache

	log log.Logger
}

// New constructs a Gatekeeper façade. Egress starts in dummy (suppressed)
// mode until RegisterOnChain is called.
func New(masterKey cryptoutil.MasterKey, dispatcher *messaging.Dispatcher, egressSink messaging.Egress) *State {
	return &State{
		masterKey:       masterKey,
		dispatcher:      dispatcher,
		egress:          messaging.NewDummyEgress(egressSink),
		workers:         make(map[common.WorkerPubkey]*workerstate.Info),
		tokenomicParams: tokenomic.DefaultParams(),
		snapshotCache:   common.NewSnapshotCache(4096),
		log:             log.NewModuleLogger(log.Gatekeeper),
	}
}

// SetTokenomicParams seeds the initial parameter table; used at startup
// before the first TokenomicParametersChanged event arrives.
func (s *State) SetTokenomicParams(p tokenomic.Params) {
	s.tokenomicParams = p
}

// RegisterOnChain lifts egress suppression.
func (s *State) RegisterOnChain() {
	s.egress.Dummy = false
	s.registeredOnChain = true
	s.log.Info("gatekeeper registered on chain")
}

// UnregisterOnChain re-enables egress suppression.
func (s *State) UnregisterOnChain() {
	s.egress.Dummy = true
	s.registeredOnChain = false
	s.log.Info("gatekeeper unregistered from chain")
}

// MasterPubkeyUploaded flips the gate that unblocks ProcessMessages.
func (s *State) MasterPubkeyUploaded() {
	s.masterPubkeyOnChain = true
}

// RegisteredOnChain reports whether egress is currently live.
func (s *State) RegisteredOnChain() bool { return s.registeredOnChain }

// ShareMasterKey encrypts the master key to a newly-admitted worker and
// pushes a MasterKeyDistribution message. The ephemeral
// keypair is derived from a fresh random label generated here, once per
// call (gk.rs's generate_random_info()) — this is the one place in the
// façade that touches crypto/rand, and it is safe to be nondeterministic
// precisely because the resulting ciphertext is not consensus-critical
// replayed state, only a point-to-point secret delivery the recipient
// decrypts with its own static private key regardless of which
// ephemeral key produced it.
func (s *State) ShareMasterKey(target common.WorkerPubkey, targetEcdh common.EcdhPubkey, block uint32) error {
	var labelBytes [32]byte
	if _, err := rand.Read(labelBytes[:]); err != nil {
		s.log.Error("failed to generate random label", "target", target.Hex(), "err", err)
		return err
	}
	randomLabel := hex.EncodeToString(labelBytes[:])

	dist, err := cryptoutil.ShareMasterKey(s.masterKey, target, targetEcdh, block, &s.ivSeq, randomLabel)
	if err != nil {
		s.log.Error("failed to share master key", "target", target.Hex(), "err", err)
		return err
	}
	s.egress.PushKeyDistribution(dist)
	return nil
}

// EmitRandomNumber is the beacon tick: emits a new beacon
// value at VRF_INTERVAL cadence.
func (s *State) EmitRandomNumber(block uint32) {
	if !randomness.ShouldEmit(block) {
		return
	}
	next := randomness.NextRandomNumber(s.masterKey, block, s.lastRandomNumber)
	s.egress.PushRandomNumber(messaging.OutboundRandomNumber{
		BlockNumber:    block,
		RandomNumber:   next,
		PreviousRandom: s.lastRandomNumber,
	})
	s.lastRandomNumber = next
}
