// Package messaging defines the Gatekeeper's three inbound typed inboxes
// and outbound message shapes, plus the deterministic
// slice-backed dispatcher that drains them. Messages carry an explicit
// Origin tag so handlers can authenticate the sender class without
// depending on the underlying transport.
package messaging

import "github.com/maybeTomorrow/gatekeeper/common"

// OriginKind distinguishes the three message sources the processor must
// authenticate against.
type OriginKind uint8

const (
	OriginWorker OriginKind = iota
	OriginPallet
	OriginGatekeeper
)

// Origin tags the authenticated sender of an inbound message. Only
// Worker origins carry a pubkey; Pallet and Gatekeeper are coordinator
// identities verified upstream by the signed transport.
type Origin struct {
	Kind   OriginKind
	Worker common.WorkerPubkey
}

func FromWorker(pubkey common.WorkerPubkey) Origin {
	return Origin{Kind: OriginWorker, Worker: pubkey}
}

func FromPallet() Origin { return Origin{Kind: OriginPallet} }

func FromGatekeeper() Origin { return Origin{Kind: OriginGatekeeper} }

func (o Origin) IsWorker() bool     { return o.Kind == OriginWorker }
func (o Origin) IsPallet() bool     { return o.Kind == OriginPallet }
func (o Origin) IsGatekeeper() bool { return o.Kind == OriginGatekeeper }
