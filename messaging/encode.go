package messaging

import (
	"github.com/maybeTomorrow/gatekeeper/common"
	"github.com/maybeTomorrow/gatekeeper/scale"
)

// Encode renders a MiningInfoUpdateEvent in the canonical wire encoding
//. This is what a transport adapter (e.g. the Kafka egress
// bridge) publishes; the in-process Egress interface itself passes
// structured values, not bytes.
func (e *MiningInfoUpdateEvent) Encode() []byte {
	enc := scale.NewEncoder()
	enc.PutUint32(e.BlockNumber)
	enc.PutUint64(e.TimestampMs)

	scale.PutSlice(enc, e.Offline, func(enc *scale.Encoder, pk common.WorkerPubkey) {
		enc.PutBytes32(pk)
	})
	scale.PutSlice(enc, e.RecoveredToOnline, func(enc *scale.Encoder, pk common.WorkerPubkey) {
		enc.PutBytes32(pk)
	})
	scale.PutSlice(enc, e.Settle, func(enc *scale.Encoder, s SettleInfo) {
		enc.PutBytes32(s.Pubkey)
		enc.PutFixedPointBits(s.V.Bits())
		enc.PutFixedPointBits(s.Payout.Bits())
		enc.PutFixedPointBits(s.Treasury.Bits())
	})

	return enc.Bytes()
}

// Encode renders an OutboundRandomNumber in the canonical wire encoding.
func (e OutboundRandomNumber) Encode() []byte {
	enc := scale.NewEncoder()
	enc.PutUint32(e.BlockNumber)
	enc.PutBytes32(e.RandomNumber)
	enc.PutBytes32(e.PreviousRandom)
	return enc.Bytes()
}

// Encode renders a MasterKeyDistribution in the canonical wire encoding.
func (e MasterKeyDistribution) Encode() []byte {
	enc := scale.NewEncoder()
	enc.PutBytes32(e.Target)
	enc.PutBytes32(e.EphemeralPK)
	enc.PutBytes(e.Ciphertext)
	enc.PutBytes12(e.IV)
	return enc.Bytes()
}
