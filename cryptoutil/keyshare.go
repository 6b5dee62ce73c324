package cryptoutil

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"

	"github.com/maybeTomorrow/gatekeeper/common"
	"github.com/maybeTomorrow/gatekeeper/messaging"
)

// deriveIV computes the per-dispatch AEAD nonce:
// blake2_256(derived_secret("iv_generator") || be_bytes(block) || be_bytes(iv_seq))[0..12].
func deriveIV(mk MasterKey, block uint32, ivSeq uint64) [12]byte {
	derived := mk.Derive("iv_generator")

	buf := make([]byte, 0, len(derived)+4+8)
	buf = append(buf, derived[:]...)
	var blockBytes [4]byte
	binary.BigEndian.PutUint32(blockBytes[:], block)
	buf = append(buf, blockBytes[:]...)
	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], ivSeq)
	buf = append(buf, seqBytes[:]...)

	digest := blake2b.Sum256(buf)
	var iv [12]byte
	copy(iv[:], digest[:12])
	return iv
}

// ShareMasterKey encrypts the master key to a newly-admitted worker's
// ECDH public key. randomLabel must be freshly generated
// per dispatch by the caller (the Gatekeeper façade); reusing a label
// across two dispatches would reuse the ephemeral keypair, which the
// spec forbids ("fresh random label per dispatch").
//
// ivSeq is the caller-owned monotonic counter; ShareMasterKey reads it, embeds it into the IV, and advances it
// by reference so the same (master key, iv_seq) pair is never reused
// across two distinct dispatches.
func ShareMasterKey(mk MasterKey, target common.WorkerPubkey, targetEcdh common.EcdhPubkey, block uint32, ivSeq *uint64, randomLabel string) (messaging.MasterKeyDistribution, error) {
	ephemeralSK := mk.Derive(randomLabel)

	ephemeralPKBytes, err := curve25519.X25519(ephemeralSK[:], curve25519.Basepoint)
	if err != nil {
		return messaging.MasterKeyDistribution{}, err
	}

	shared, err := curve25519.X25519(ephemeralSK[:], targetEcdh[:])
	if err != nil {
		return messaging.MasterKeyDistribution{}, err
	}

	iv := deriveIV(mk, block, *ivSeq)
	*ivSeq++

	aead, err := chacha20poly1305.New(shared)
	if err != nil {
		return messaging.MasterKeyDistribution{}, err
	}

	secret := mk.Bytes()
	ciphertext := aead.Seal(nil, iv[:], secret[:], nil)

	var ephemeralPK common.EcdhPubkey
	copy(ephemeralPK[:], ephemeralPKBytes)

	return messaging.MasterKeyDistribution{
		Target:      target,
		EphemeralPK: ephemeralPK,
		Ciphertext:  ciphertext,
		IV:          iv,
	}, nil
}
