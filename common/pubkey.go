// Package common holds the small shared value types (worker identity) and
// the query-path snapshot cache, the way klaytn's common package holds
// Address/Hash plus the generic Cache abstraction.
package common

import (
	"bytes"
	"encoding/hex"
	"sort"
)

// PubkeyLength is the size in bytes of a worker fingerprint and of an
// ECDH public key.
const PubkeyLength = 32

// WorkerPubkey uniquely identifies a worker across its entire lifetime.
type WorkerPubkey [PubkeyLength]byte

func (p WorkerPubkey) Hex() string { return hex.EncodeToString(p[:]) }

func (p WorkerPubkey) String() string { return p.Hex() }

// Less orders two pubkeys lexicographically, the ordering the worker map
// must traverse deterministically.
func (p WorkerPubkey) Less(other WorkerPubkey) bool {
	return bytes.Compare(p[:], other[:]) < 0
}

func (p WorkerPubkey) IsZero() bool {
	return p == WorkerPubkey{}
}

// EcdhPubkey is a worker's key-agreement public key, used as the
// recipient key in master-key distribution.
type EcdhPubkey [PubkeyLength]byte

func (p EcdhPubkey) Hex() string { return hex.EncodeToString(p[:]) }

// SortPubkeys returns a, sorted ascending; used for deterministic
// pubkey-order iteration over a plain Go map.
func SortPubkeys(a []WorkerPubkey) []WorkerPubkey {
	out := make([]WorkerPubkey, len(a))
	copy(out, a)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
