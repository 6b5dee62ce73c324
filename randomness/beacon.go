// Package randomness implements the Gatekeeper's verifiable pseudo-random
// beacon. It is a pure function of the master key, the
// block number, and the previous beacon value, so any two nodes holding
// the same master key reach the same next value deterministically —
// the property the message processor relies on when verifying an
// incoming NewRandomNumber event.
package randomness

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/maybeTomorrow/gatekeeper/cryptoutil"
)

// VRFInterval is the block cadence the beacon emits on.
const VRFInterval = 5

// ShouldEmit reports whether the beacon is due at block.
func ShouldEmit(block uint32) bool {
	return block%VRFInterval == 0
}

// NextRandomNumber computes blake2_256(last_random || be_bytes(block) ||
// derived_secret) where derived_secret = master_key.Derive("random_number")
//. Signature-based schemes are explicitly rejected
// upstream due to sr25519 malleability; this is a pure hash construction.
func NextRandomNumber(mk cryptoutil.MasterKey, block uint32, lastRandom [32]byte) [32]byte {
	derived := mk.Derive("random_number")

	buf := make([]byte, 0, len(lastRandom)+4+len(derived))
	buf = append(buf, lastRandom[:]...)
	var blockBytes [4]byte
	binary.BigEndian.PutUint32(blockBytes[:], block)
	buf = append(buf, blockBytes[:]...)
	buf = append(buf, derived[:]...)

	return blake2b.Sum256(buf)
}

// Verify reports whether candidate is the correct next beacon value. A
// mismatch is a poisoning fault at the call site: this function only answers the question, it does not panic.
func Verify(mk cryptoutil.MasterKey, block uint32, lastRandom, candidate [32]byte) bool {
	return NextRandomNumber(mk, block, lastRandom) == candidate
}
