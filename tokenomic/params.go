// Package tokenomic implements the saturating fixed-point reward/slash
// engine, one TokenomicInfo per registered worker. It is
// grounded directly on the `tokenomic` submodule of the traced Rust
// source (crates/phactory/src/system/gk.rs), translated to idiomatic Go
// using the fixedpoint package instead of the `fixed`/`fixed_sqrt` crates.
package tokenomic

import "github.com/maybeTomorrow/gatekeeper/fixedpoint"

// Params are the tokenomic parameters, replaceable at runtime only via a
// pallet-originated TokenomicParametersChanged event.
type Params struct {
	Rho             fixedpoint.FixedPoint
	SlashRate       fixedpoint.FixedPoint
	BudgetPerBlock  fixedpoint.FixedPoint
	VMax            fixedpoint.FixedPoint
	CostK           fixedpoint.FixedPoint
	CostB           fixedpoint.FixedPoint
	TreasuryRation  fixedpoint.FixedPoint
	PayoutRation    fixedpoint.FixedPoint
	HeartbeatWindow uint32
}

// NewParams builds Params from a treasury ratio raw bit pattern the way
// the pallet event does it: payout_ration = 1 - treasury_ration (gk.rs
// `impl From<TokenomicParameters> for Params`).
func NewParams(rho, slashRate, budgetPerBlock, vMax, costK, costB fixedpoint.FixedPoint, treasuryRatioBits [16]byte, heartbeatWindow uint32) Params {
	treasuryRation := fixedpoint.FromBits(treasuryRatioBits)
	payoutRation := fixedpoint.FromUint64(1).Sub(treasuryRation)
	return Params{
		Rho:             rho,
		SlashRate:       slashRate,
		BudgetPerBlock:  budgetPerBlock,
		VMax:            vMax,
		CostK:           costK,
		CostB:           costB,
		TreasuryRation:  treasuryRation,
		PayoutRation:    payoutRation,
		HeartbeatWindow: heartbeatWindow,
	}
}

// DefaultParams mirrors gk.rs's test_params(): a workable default tokenomic
// table used until the pallet pushes a TokenomicParametersChanged event.
func DefaultParams() Params {
	return Params{
		Rho:             fixedpoint.MustParseDecimal("1.000000666600231"),
		SlashRate:       fixedpoint.MustParseDecimal("0.0000033333333333333240063"),
		BudgetPerBlock:  fixedpoint.FromUint64(100),
		VMax:            fixedpoint.FromUint64(30000),
		CostK:           fixedpoint.MustParseDecimal("0.000000015815258751856933056"),
		CostB:           fixedpoint.MustParseDecimal("0.000033711472602739674283"),
		TreasuryRation:  fixedpoint.MustParseDecimal("0.2"),
		PayoutRation:    fixedpoint.MustParseDecimal("0.8"),
		HeartbeatWindow: 10,
	}
}
