package messaging

import (
	"github.com/holiman/uint256"

	"github.com/maybeTomorrow/gatekeeper/common"
	"github.com/maybeTomorrow/gatekeeper/fixedpoint"
	"github.com/maybeTomorrow/gatekeeper/tokenomic"
	"github.com/maybeTomorrow/gatekeeper/workerstate"
)

// Heartbeat is the sole MiningReportEvent variant defined so far.
// It always arrives from a Worker origin.
type Heartbeat struct {
	SessionID      uint32
	ChallengeBlock uint32
	ChallengeTime  uint64
	Iterations     uint64
}

// MiningReport wraps an inbound mining-report message with its origin.
type MiningReport struct {
	Origin    Origin
	Heartbeat Heartbeat
}

// SystemEventKind tags the two SystemEvent variants.
type SystemEventKind uint8

const (
	SystemEventWorkerEvent SystemEventKind = iota
	SystemEventHeartbeatChallenge
)

// SystemEvent is a pallet-originated event: either a per-worker
// WorkerEvent replay target, or a fleet-wide HeartbeatChallenge.
type SystemEvent struct {
	Kind SystemEventKind

	// WorkerEvent
	WorkerPubkey common.WorkerPubkey
	WorkerEvent  workerstate.WorkerEvent

	// HeartbeatChallenge
	Seed         *uint256.Int
	OnlineTarget *uint256.Int
}

// SystemMessage wraps an inbound system-event message with its origin.
type SystemMessage struct {
	Origin Origin
	Event  SystemEvent
}

// GatekeeperEventKind tags the two GatekeeperEvent variants.
type GatekeeperEventKind uint8

const (
	GatekeeperEventNewRandomNumber GatekeeperEventKind = iota
	GatekeeperEventTokenomicParametersChanged
)

// GatekeeperEvent is either a beacon tick to verify, or a pallet-pushed
// tokenomic parameter replacement.
type GatekeeperEvent struct {
	Kind GatekeeperEventKind

	// NewRandomNumber
	BlockNumber      uint32
	RandomNumber     [32]byte
	LastRandomNumber [32]byte

	// TokenomicParametersChanged
	Params tokenomic.Params
}

// GatekeeperMessage wraps an inbound gatekeeper-event message with its origin.
type GatekeeperMessage struct {
	Origin Origin
	Event  GatekeeperEvent
}

// SettleInfo is one worker's settlement contribution to a block's
// aggregate MiningInfoUpdateEvent.
type SettleInfo struct {
	Pubkey   common.WorkerPubkey
	V        fixedpoint.FixedPoint
	Payout   fixedpoint.FixedPoint
	Treasury fixedpoint.FixedPoint
}

// MiningInfoUpdateEvent is the at-most-once-per-block aggregate egress
// message.
type MiningInfoUpdateEvent struct {
	BlockNumber       uint32
	TimestampMs       uint64
	Offline           []common.WorkerPubkey
	RecoveredToOnline []common.WorkerPubkey
	Settle            []SettleInfo
}

// NewMiningInfoUpdateEvent starts an empty aggregate report for a block.
func NewMiningInfoUpdateEvent(block uint32, timestampMs uint64) *MiningInfoUpdateEvent {
	return &MiningInfoUpdateEvent{BlockNumber: block, TimestampMs: timestampMs}
}

// IsEmpty reports whether the report carries nothing worth flushing.
func (e *MiningInfoUpdateEvent) IsEmpty() bool {
	return len(e.Offline) == 0 && len(e.RecoveredToOnline) == 0 && len(e.Settle) == 0
}

// MasterKeyDistribution is the key-sharing egress message.
type MasterKeyDistribution struct {
	Target      common.WorkerPubkey
	EphemeralPK common.EcdhPubkey
	Ciphertext  []byte
	IV          [12]byte
}

// OutboundRandomNumber is the beacon egress message.
type OutboundRandomNumber struct {
	BlockNumber    uint32
	RandomNumber   [32]byte
	PreviousRandom [32]byte
}

// Egress is the sink every outbound message is pushed to, and the single
// seam where the "dummy" bootstrapping suppression is applied.
type Egress interface {
	PushMiningInfoUpdate(*MiningInfoUpdateEvent)
	PushRandomNumber(OutboundRandomNumber)
	PushKeyDistribution(MasterKeyDistribution)
}
