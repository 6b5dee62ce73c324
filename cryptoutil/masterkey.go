// Package cryptoutil implements the master-key derivation and
// key-distribution protocol. The original design derives per-label
// subkeys via sr25519 soft-derivation (HDKD); no sr25519 library is
// available here, so derivation uses HKDF (golang.org/x/crypto/hkdf)
// over blake2b, a substitute with the same "one secret, many labeled
// subkeys, no secret reuse across labels" property.
package cryptoutil

import (
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
)

// MasterKey is the Gatekeeper's root secret: the source of the
// randomness derivation, the IV generator, and every per-dispatch
// ephemeral ECDH keypair. It is sealed and unsealed through
// the platform Sealing collaborator and never otherwise leaves the trust
// boundary except as ciphertext.
type MasterKey struct {
	seed [32]byte
}

// NewMasterKey wraps a 32-byte root secret, typically unsealed from the
// platform Sealing collaborator at startup.
func NewMasterKey(seed [32]byte) MasterKey {
	return MasterKey{seed: seed}
}

// Bytes returns the raw root secret. Only the key-distribution protocol
// (encrypting the master key to a newly admitted worker) and the
// Sealing collaborator may call this.
func (m MasterKey) Bytes() [32]byte { return m.seed }

// Derive produces a labeled 32-byte subkey via HKDF-Extract-and-Expand
// over blake2b-256, standing in for the sr25519 HDKD the original
// protocol uses. Distinct labels never collide into the same subkey.
func (m MasterKey) Derive(label string) [32]byte {
	r := hkdf.New(func() hash.Hash {
		h, _ := blake2b.New256(nil)
		return h
	}, m.seed[:], nil, []byte(label))

	var out [32]byte
	if _, err := io.ReadFull(r, out[:]); err != nil {
		// hkdf.Read only fails past its output-length limit; 32 bytes is
		// far under it, so this is unreachable in practice.
		panic("cryptoutil: hkdf derive failed: " + err.Error())
	}
	return out
}
